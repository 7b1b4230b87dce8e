package chapters

import (
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"unicode"

	"github.com/brogergvhs/mangarip/internal/providers"
)

var reUnderscore = regexp.MustCompile(`_+`)

func sanitize(s string) string {
	s = strings.ToLower(s)

	repl := strings.NewReplacer(
		"•", "_",
		"-", "_",
		"—", "_",
		"–", "_",
		"/", "_",
		"\\", "_",
		".", "_",
		" ", "_",
		"(", "",
		")", "",
	)
	s = repl.Replace(s)

	clean := make([]rune, 0, len(s))
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			clean = append(clean, r)
		}
	}

	return strings.Trim(reUnderscore.ReplaceAllString(string(clean), "_"), "_")
}

// FolderName is the on-disk name of a chapter's output folder. index is the
// 1-based position in the listing and only used when the name has nothing
// usable in it.
func FolderName(ch providers.Chapter, index int) string {
	if name := sanitize(ch.Name); name != "" {
		return name
	}

	return fmt.Sprintf("chapter_%03d", index)
}

// Namer hands out folder names that are unique within one run. A name
// already taken gets the listing position appended.
type Namer struct {
	used map[string]bool
}

func NewNamer() *Namer {
	return &Namer{used: map[string]bool{}}
}

func (n *Namer) Name(ch providers.Chapter, index int) string {
	name := FolderName(ch, index)
	for i := 0; n.used[name]; i++ {
		if i == 0 {
			name = fmt.Sprintf("%s_%03d", FolderName(ch, index), index)
		} else {
			name = fmt.Sprintf("%s_%03d_%d", FolderName(ch, index), index, i)
		}
	}
	n.used[name] = true

	return name
}

// SeriesFolder names the folder grouping every chapter of a series after the
// last path segment of its URL. It returns "" when nothing usable is left.
func SeriesFolder(identifier string) string {
	u, err := url.Parse(identifier)
	if err != nil {
		return ""
	}

	p := strings.TrimRight(u.Path, "/")
	if name := sanitize(path.Base(p)); name != "" && p != "" {
		return name
	}

	return sanitize(u.Hostname())
}
