package providers

import (
	"fmt"

	"github.com/gobwas/glob"
)

type matched struct {
	SiteAdapter
	info     Info
	patterns []glob.Glob
}

// Match restricts a to identifiers matching at least one glob pattern, e.g.
// "https://{www.example.com,example.com}/manga/**". A zero Info keeps a's own.
func Match(a SiteAdapter, info Info, patterns ...string) (SiteAdapter, error) {
	if len(patterns) == 0 {
		return nil, fmt.Errorf("adapter %q: at least one pattern is required", a.Info().Name)
	}

	m := &matched{SiteAdapter: a, info: info}
	for _, p := range patterns {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, fmt.Errorf("adapter %q: bad pattern %q: %w", a.Info().Name, p, err)
		}
		m.patterns = append(m.patterns, g)
	}

	return m, nil
}

func (m *matched) Info() Info {
	if m.info.Name == "" {
		return m.SiteAdapter.Info()
	}

	return m.info
}

func (m *matched) Claims(identifier string) bool {
	for _, g := range m.patterns {
		if g.Match(identifier) {
			return true
		}
	}

	return false
}
