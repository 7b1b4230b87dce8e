package chapters

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/brogergvhs/mangarip/internal/providers"
)

// Selection picks chapters out of a listing. At most one field is expected
// to be set; Chapter wins over Range, Range over List. Positions are 1-based
// and follow the adapter's order.
type Selection struct {
	Chapter string
	Range   string
	List    string
}

func (s Selection) Empty() bool {
	return s.Chapter == "" && s.Range == "" && s.List == ""
}

// Filter applies s to all. An empty selection returns everything.
func Filter(all []providers.Chapter, s Selection) ([]providers.Chapter, error) {
	switch {
	case s.Chapter != "":
		return filterOne(all, s.Chapter)
	case s.Range != "":
		return FilterRange(all, s.Range)
	case s.List != "":
		return FilterList(all, s.List)
	}

	return all, nil
}

// filterOne matches by chapter name first and falls back to position.
func filterOne(all []providers.Chapter, chapter string) ([]providers.Chapter, error) {
	if byName := FilterByName(all, chapter); len(byName) > 0 {
		return byName, nil
	}

	if idx, err := atoi(chapter); err == nil {
		if idx > 0 && idx <= len(all) {
			return []providers.Chapter{all[idx-1]}, nil
		}
		return nil, fmt.Errorf("chapter %d out of range (1-%d)", idx, len(all))
	}

	return nil, fmt.Errorf("no chapter named %q", chapter)
}

func FilterByName(all []providers.Chapter, name string) []providers.Chapter {
	name = strings.TrimSpace(name)

	var out []providers.Chapter
	for _, ch := range all {
		if strings.EqualFold(strings.TrimSpace(ch.Name), name) {
			out = append(out, ch)
		}
	}

	return out
}

func FilterRange(all []providers.Chapter, rng string) ([]providers.Chapter, error) {
	from, to, ok := strings.Cut(rng, "-")
	if !ok {
		return nil, fmt.Errorf("invalid range %q, want A-B", rng)
	}

	start, err1 := atoi(from)
	end, err2 := atoi(to)
	if err1 != nil || err2 != nil {
		return nil, fmt.Errorf("invalid range %q, want A-B", rng)
	}
	if start <= 0 || start > end || end > len(all) {
		return nil, fmt.Errorf("range %d-%d out of bounds (1-%d)", start, end, len(all))
	}

	return all[start-1 : end], nil
}

// FilterList keeps the listed positions in the order given. Unknown or
// repeated positions are skipped.
func FilterList(all []providers.Chapter, list string) ([]providers.Chapter, error) {
	var out []providers.Chapter
	seen := map[int]bool{}

	for n := range strings.SplitSeq(list, ",") {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		idx, err := atoi(n)
		if err != nil {
			return nil, fmt.Errorf("invalid chapter number %q", n)
		}
		if idx <= 0 || idx > len(all) || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, all[idx-1])
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no chapters match list %q", list)
	}

	return out, nil
}

func atoi(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
