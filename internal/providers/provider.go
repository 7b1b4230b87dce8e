package providers

import "context"

// Chapter is one downloadable unit as discovered by an adapter. The URL is
// its identity.
type Chapter struct {
	Name string
	URL  string
}

// Info describes an adapter for listings.
type Info struct {
	Name string
	Link string
}

// ProgressFunc receives a percentage in the 0..100 range.
type ProgressFunc func(percent int)

// Report calls p if it is set.
func (p ProgressFunc) Report(percent int) {
	if p != nil {
		p(percent)
	}
}

// SiteAdapter discovers chapters and page images for one family of sites.
// Returned slices are in reading order and callers must not re-sort them.
type SiteAdapter interface {
	Info() Info
	Claims(identifier string) bool
	FindChapters(ctx context.Context, identifier string, progress ProgressFunc) ([]Chapter, error)
	FindImages(ctx context.Context, chapter Chapter, progress ProgressFunc) ([]string, error)
}
