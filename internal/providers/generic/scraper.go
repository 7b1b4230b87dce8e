package generic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/brogergvhs/mangarip/internal/providers"
	"github.com/brogergvhs/mangarip/internal/util"
)

type debugLogger interface {
	Debugf(format string, args ...any)
}

type Scraper struct {
	client  *http.Client
	log     debugLogger
	allowed *regexp.Regexp
}

func NewScraper(c *http.Client, log debugLogger, allowExt []string) *Scraper {
	return &Scraper{
		client:  c,
		log:     log,
		allowed: buildExtRegex(normalizeExtList(allowExt)),
	}
}

var (
	reChapterHref = regexp.MustCompile(`(?i)(?:^|[/\-_])(?:chapter|ch)[_\-]?0*(\d+)(?:[_\-.](\d+))?`)
	reChapterText = regexp.MustCompile(`(?i)(?:chapter|ch\.?)\s*0*(\d+)(?:[.\-](\d+))?`)
	reTitleNumber = regexp.MustCompile(`^\s*(\d+)(?:\.(\d+))?\s*[.\- ]`)
	reNuxt        = regexp.MustCompile(`window\.__NUXT__\s*=\s*(\{.*?});`)
)

func (s *Scraper) Info() providers.Info {
	return providers.Info{Name: "Generic HTML"}
}

// Claims accepts any absolute http(s) URL.
func (s *Scraper) Claims(identifier string) bool {
	u, err := url.Parse(identifier)
	if err != nil || u.Host == "" {
		return false
	}

	return u.Scheme == "http" || u.Scheme == "https"
}

func (s *Scraper) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}

	resp, err := util.DoWithRetry(ctx, s.client, req, 3, 500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	return io.ReadAll(resp.Body)
}

type numberedChapter struct {
	providers.Chapter
	main, sub int
}

// FindChapters returns chapter links of a series page in ascending chapter
// number order.
func (s *Scraper) FindChapters(ctx context.Context, pageURL string, progress providers.ProgressFunc) ([]providers.Chapter, error) {
	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}
	progress.Report(50)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	var found []numberedChapter
	seen := map[string]bool{}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		href = strings.TrimSpace(href)
		title := strings.Join(strings.Fields(a.Text()), " ")

		main, sub, ok := chapterNumber(href, title)
		if !ok || isExcluded(href) {
			return
		}

		u := resolve(pageURL, href)
		if seen[u] {
			return
		}
		seen[u] = true

		if title == "" {
			title = "Chapter " + strconv.Itoa(main)
			if sub > 0 {
				title += "." + strconv.Itoa(sub)
			}
		}

		found = append(found, numberedChapter{
			Chapter: providers.Chapter{Name: title, URL: u},
			main:    main,
			sub:     sub,
		})
	})

	sort.SliceStable(found, func(i, j int) bool {
		if found[i].main != found[j].main {
			return found[i].main < found[j].main
		}
		return found[i].sub < found[j].sub
	})

	out := make([]providers.Chapter, len(found))
	for i, c := range found {
		out[i] = c.Chapter
	}
	s.log.Debugf("found %d chapters on %s\n", len(out), pageURL)
	progress.Report(100)

	return out, nil
}

// FindImages returns the page images of one chapter in reading order.
func (s *Scraper) FindImages(ctx context.Context, chapter providers.Chapter, progress providers.ProgressFunc) ([]string, error) {
	body, err := s.fetch(ctx, chapter.URL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", chapter.URL, err)
	}
	progress.Report(50)

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", chapter.URL, err)
	}

	col := newImageCollector(s.allowed, s.log)
	s.log.Debugf("img tags: +%d\n", col.ScanIMGTags(doc, chapter.URL))
	s.log.Debugf("picture sources: +%d\n", col.ScanPictureSources(doc, chapter.URL))
	s.log.Debugf("css backgrounds: +%d\n", col.ScanBackgroundImages(doc, chapter.URL))

	if m := reNuxt.FindSubmatch(body); len(m) > 1 {
		var raw map[string]any
		if json.Unmarshal(m[1], &raw) == nil {
			s.log.Debugf("found embedded __NUXT__ state\n")
			col.ScanNuxt(raw, chapter.URL)
		}
	}

	final := col.Finalize()
	if len(final) == 0 {
		return nil, fmt.Errorf("no usable images found on %s", chapter.URL)
	}
	progress.Report(100)

	return final, nil
}

func chapterNumber(href, title string) (int, int, bool) {
	h := strings.ToLower(href)
	for _, m := range [][]string{
		reChapterHref.FindStringSubmatch(h),
		reChapterText.FindStringSubmatch(title),
		reTitleNumber.FindStringSubmatch(title),
	} {
		if m == nil {
			continue
		}
		main, _ := strconv.Atoi(m[1])
		sub := 0
		if m[2] != "" {
			sub, _ = strconv.Atoi(m[2])
		}
		return main, sub, true
	}

	return 0, 0, false
}

func isExcluded(href string) bool {
	h := strings.ToLower(href)
	return strings.HasPrefix(h, "javascript:") ||
		strings.HasPrefix(h, "#") ||
		strings.Contains(h, "/u/") ||
		strings.Contains(h, "/comments")
}
