package chapters

import (
	"testing"

	"github.com/brogergvhs/mangarip/internal/providers"
	"github.com/stretchr/testify/assert"
)

func TestFolderNameChapterNames(t *testing.T) {
	assert.Equal(t, "chapter_1_5", FolderName(providers.Chapter{Name: "Chapter 1.5"}, 1))
	assert.Equal(t, "vol_2_ch_10", FolderName(providers.Chapter{Name: "Vol. 2 — Ch (10)"}, 1))
	assert.Equal(t, "chapter_007", FolderName(providers.Chapter{Name: "!!!"}, 7))
}

func TestNamerKeepsFoldersApart(t *testing.T) {
	n := NewNamer()

	names := []string{
		n.Name(providers.Chapter{Name: "Read", URL: "/c/1"}, 1),
		n.Name(providers.Chapter{Name: "Read", URL: "/c/2"}, 2),
		n.Name(providers.Chapter{Name: "Ch 1.5", URL: "/c/3"}, 3),
		n.Name(providers.Chapter{Name: "Ch 1-5", URL: "/c/4"}, 4),
		n.Name(providers.Chapter{Name: "read_002", URL: "/c/5"}, 2),
	}

	assert.Equal(t, []string{"read", "read_002", "ch_1_5", "ch_1_5_004", "read_002_002"}, names)
}

func TestSeriesFolder(t *testing.T) {
	assert.Equal(t, "one_piece", SeriesFolder("https://example.com/manga/one-piece/"))
	assert.Equal(t, "title", SeriesFolder("https://example.com/title?id=3"))
	assert.Equal(t, "example_com", SeriesFolder("https://example.com/"))
	assert.Equal(t, "", SeriesFolder("::"))
}
