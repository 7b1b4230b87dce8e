package generic

import (
	"net/url"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	reSizeSuffix    = regexp.MustCompile(`[-_]\d{2,5}x\d{2,5}`)
	reParseSize     = regexp.MustCompile(`[-_](\d{2,5})x(\d{2,5})`)
	reBackgroundURL = regexp.MustCompile(`url\((?:["']?)([^"')]+)(?:["']?)\)`)

	nonPageHints = []string{"logo", "cover", "profile", "avatar", "banner", "icon"}
)

type candidate struct {
	url   string
	index int // data-index, -1 if none
	order int // discovery order
}

type imageCollector struct {
	allowed *regexp.Regexp
	log     debugLogger
	items   []candidate
	seen    map[string]bool
}

func newImageCollector(allowed *regexp.Regexp, log debugLogger) *imageCollector {
	return &imageCollector{
		allowed: allowed,
		log:     log,
		seen:    make(map[string]bool),
	}
}

func (c *imageCollector) add(raw string, idx int) {
	lu := strings.ToLower(raw)
	if raw == "" || strings.HasPrefix(lu, "data:") || strings.HasPrefix(lu, "javascript:") {
		return
	}

	if !c.allowed.MatchString(stripQuery(lu)) {
		return
	}

	for _, hint := range nonPageHints {
		if strings.Contains(lu, hint) {
			c.log.Debugf("skipping non-page image: %s\n", raw)
			return
		}
	}

	if c.seen[raw] {
		return
	}
	c.seen[raw] = true
	c.items = append(c.items, candidate{url: raw, index: idx, order: len(c.items)})
}

func stripQuery(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		return u[:i]
	}
	return u
}

func normalizeExtList(list []string) []string {
	out := []string{}
	for _, ext := range list {
		ext = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(ext)), ".")
		if ext != "" {
			out = append(out, regexp.QuoteMeta(ext))
		}
	}

	return out
}

func buildExtRegex(exts []string) *regexp.Regexp {
	if len(exts) == 0 {
		exts = []string{"jpg", "jpeg", "png", "webp"}
	}

	return regexp.MustCompile(`(?i)\.(` + strings.Join(exts, "|") + `)$`)
}

func resolve(base, raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return raw
	}
	if u.IsAbs() {
		return u.String()
	}

	b, err := url.Parse(base)
	if err != nil {
		return raw
	}

	return b.ResolveReference(u).String()
}

func indexOf(sel *goquery.Selection) int {
	holder := sel
	if _, ok := sel.Attr("data-index"); !ok {
		holder = sel.ParentsFiltered("[data-index]").First()
	}

	if v, ok := holder.Attr("data-index"); ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}

	return -1
}

func (c *imageCollector) addSrcset(srcset, base string, idx int) {
	for entry := range strings.SplitSeq(srcset, ",") {
		if fields := strings.Fields(entry); len(fields) > 0 {
			c.add(resolve(base, fields[0]), idx)
		}
	}
}

func (c *imageCollector) ScanIMGTags(doc *goquery.Document, base string) int {
	before := len(c.items)
	doc.Find("img").Each(func(_ int, img *goquery.Selection) {
		idx := indexOf(img)

		if ss, ok := img.Attr("srcset"); ok {
			c.addSrcset(ss, base, idx)
		}

		for _, k := range []string{"src", "data-src", "data-lazy-src", "data-original"} {
			if v, ok := img.Attr(k); ok && strings.TrimSpace(v) != "" {
				c.add(resolve(base, v), idx)
			}
		}
	})

	return len(c.items) - before
}

func (c *imageCollector) ScanPictureSources(doc *goquery.Document, base string) int {
	before := len(c.items)
	doc.Find("source[srcset]").Each(func(_ int, src *goquery.Selection) {
		ss, _ := src.Attr("srcset")
		c.addSrcset(ss, base, indexOf(src))
	})

	return len(c.items) - before
}

func (c *imageCollector) ScanBackgroundImages(doc *goquery.Document, base string) int {
	before := len(c.items)
	doc.Find("[style]").Each(func(_ int, el *goquery.Selection) {
		style, _ := el.Attr("style")
		if !strings.Contains(strings.ToLower(style), "background-image") {
			return
		}

		idx := indexOf(el)
		for _, m := range reBackgroundURL.FindAllStringSubmatch(style, -1) {
			c.add(resolve(base, m[1]), idx)
		}
	})

	return len(c.items) - before
}

// ScanNuxt walks embedded SSR state for absolute image URLs and HTML
// fragments.
func (c *imageCollector) ScanNuxt(root map[string]any, base string) {
	var walk func(v any)
	walk = func(v any) {
		switch t := v.(type) {
		case string:
			s := strings.TrimSpace(t)
			ls := strings.ToLower(s)
			if strings.HasPrefix(ls, "http://") || strings.HasPrefix(ls, "https://") {
				c.add(s, -1)
				return
			}
			if strings.Contains(ls, "<img") || strings.Contains(ls, "<source") {
				if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
					c.ScanIMGTags(doc, base)
					c.ScanPictureSources(doc, base)
				}
			}
		case []any:
			for _, x := range t {
				walk(x)
			}
		case map[string]any:
			keys := make([]string, 0, len(t))
			for k := range t {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				walk(t[k])
			}
		}
	}

	walk(root)
}

// Finalize collapses resized variants of the same page to the best one and
// orders pages by data-index, then by discovery order.
func (c *imageCollector) Finalize() []string {
	if len(c.items) == 0 {
		return nil
	}

	groups := map[string][]candidate{}
	var keys []string
	for _, it := range c.items {
		key := sizeless(it.url)
		if _, ok := groups[key]; !ok {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], it)
	}

	chosen := make([]candidate, 0, len(keys))
	for _, k := range keys {
		chosen = append(chosen, pickBest(groups[k]))
	}

	sort.SliceStable(chosen, func(i, j int) bool {
		ai, aj := chosen[i].index, chosen[j].index
		switch {
		case ai >= 0 && aj >= 0 && ai != aj:
			return ai < aj
		case ai >= 0 && aj < 0:
			return true
		case ai < 0 && aj >= 0:
			return false
		}
		return chosen[i].order < chosen[j].order
	})

	out := make([]string, len(chosen))
	for i, it := range chosen {
		out[i] = it.url
	}

	return out
}

func sizeless(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	ext := path.Ext(u.Path)
	stem := strings.TrimSuffix(u.Path, ext)
	stem = strings.TrimRight(reSizeSuffix.ReplaceAllString(stem, ""), "-_")

	return u.Host + stem + ext
}

// pickBest prefers the unsized original, else the largest WxH variant. The
// result keeps the smallest index and earliest order of its group.
func pickBest(group []candidate) candidate {
	best := group[0]
	bestArea := -1
	for _, it := range group {
		if !reSizeSuffix.MatchString(it.url) {
			best = it
			break
		}
		if a := area(it.url); a > bestArea {
			best, bestArea = it, a
		}
	}

	for _, it := range group {
		if it.index >= 0 && (best.index < 0 || it.index < best.index) {
			best.index = it.index
		}
		if it.order < best.order {
			best.order = it.order
		}
	}

	return best
}

func area(u string) int {
	m := reParseSize.FindStringSubmatch(u)
	if m == nil {
		return 0
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])

	return w * h
}
