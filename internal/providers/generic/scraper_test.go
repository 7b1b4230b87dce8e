package generic

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/brogergvhs/mangarip/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLog struct{}

func (nopLog) Debugf(string, ...any) {}

const seriesPage = `<html><body>
<ul class="chapters">
  <li><a href="/manga/x/chapter-2">Chapter 2</a></li>
  <li><a href="/manga/x/chapter-10">Chapter 10</a></li>
  <li><a href="/manga/x/chapter-1">Chapter 1</a></li>
  <li><a href="/manga/x/chapter-1">Chapter 1 (again)</a></li>
  <li><a href="/manga/x/chapter-2-5">Chapter 2.5</a></li>
</ul>
<a href="/about">About</a>
<a href="javascript:void(0)">Ch 99</a>
</body></html>`

const chapterPage = `<html><body>
<img src="/static/logo.png">
<div data-index="2"><img src="/img/p3.jpg"></div>
<div data-index="0"><img data-src="/img/p1-300x400.jpg"><img src="/img/p1-600x800.jpg"></div>
<div data-index="1"><img src="/img/p2.webp?token=abc"></div>
<img src="/img/ad.gif">
</body></html>`

func newSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/manga/x", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, seriesPage)
	})
	mux.HandleFunc("/manga/x/chapter-1", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, chapterPage)
	})
	mux.HandleFunc("/manga/x/empty", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, "<html><body><p>nothing</p></body></html>")
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv
}

func TestClaims(t *testing.T) {
	s := NewScraper(http.DefaultClient, nopLog{}, nil)

	assert.True(t, s.Claims("https://example.com/manga/x"))
	assert.True(t, s.Claims("http://example.com"))
	assert.False(t, s.Claims("ftp://example.com/x"))
	assert.False(t, s.Claims("not a url"))
	assert.False(t, s.Claims("/relative/path"))
}

func TestFindChaptersOrdersByNumber(t *testing.T) {
	srv := newSite(t)
	s := NewScraper(srv.Client(), nopLog{}, nil)

	var reports []int
	chs, err := s.FindChapters(context.Background(), srv.URL+"/manga/x", func(p int) {
		reports = append(reports, p)
	})
	require.NoError(t, err)

	require.Len(t, chs, 4)
	assert.Equal(t, providers.Chapter{Name: "Chapter 1", URL: srv.URL + "/manga/x/chapter-1"}, chs[0])
	assert.Equal(t, "Chapter 2", chs[1].Name)
	assert.Equal(t, "Chapter 2.5", chs[2].Name)
	assert.Equal(t, "Chapter 10", chs[3].Name)
	assert.Equal(t, []int{50, 100}, reports)
}

func TestFindImagesOrderAndDedup(t *testing.T) {
	srv := newSite(t)
	s := NewScraper(srv.Client(), nopLog{}, []string{"jpg", "webp"})

	imgs, err := s.FindImages(context.Background(),
		providers.Chapter{Name: "Chapter 1", URL: srv.URL + "/manga/x/chapter-1"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{
		srv.URL + "/img/p1-600x800.jpg",
		srv.URL + "/img/p2.webp?token=abc",
		srv.URL + "/img/p3.jpg",
	}, imgs)
}

func TestFindImagesNothingUsable(t *testing.T) {
	srv := newSite(t)
	s := NewScraper(srv.Client(), nopLog{}, nil)

	_, err := s.FindImages(context.Background(), providers.Chapter{URL: srv.URL + "/manga/x/empty"}, nil)
	assert.Error(t, err)
}

func TestFindChaptersHTTPError(t *testing.T) {
	srv := newSite(t)
	s := NewScraper(srv.Client(), nopLog{}, nil)

	_, err := s.FindChapters(context.Background(), srv.URL+"/missing", nil)
	assert.Error(t, err)
}

func TestCollectorNuxtState(t *testing.T) {
	col := newImageCollector(buildExtRegex(nil), nopLog{})
	col.ScanNuxt(map[string]any{
		"data": []any{
			map[string]any{"url": "https://cdn.example.com/a/01.jpg"},
			map[string]any{"html": `<img src="https://cdn.example.com/a/02.png">`},
		},
	}, "https://example.com/ch/1")

	assert.Equal(t, []string{
		"https://cdn.example.com/a/01.jpg",
		"https://cdn.example.com/a/02.png",
	}, col.Finalize())
}
