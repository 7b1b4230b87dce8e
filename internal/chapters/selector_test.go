package chapters

import (
	"testing"

	"github.com/brogergvhs/mangarip/internal/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listing() []providers.Chapter {
	return []providers.Chapter{
		{Name: "Chapter 1", URL: "/c/1"},
		{Name: "Chapter 2", URL: "/c/2"},
		{Name: "Extra", URL: "/c/extra"},
		{Name: "Chapter 3", URL: "/c/3"},
	}
}

func urls(chs []providers.Chapter) []string {
	var out []string
	for _, c := range chs {
		out = append(out, c.URL)
	}
	return out
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		want []string
	}{
		{"all", Selection{}, []string{"/c/1", "/c/2", "/c/extra", "/c/3"}},
		{"by name", Selection{Chapter: "extra"}, []string{"/c/extra"}},
		{"by position", Selection{Chapter: "2"}, []string{"/c/2"}},
		{"range", Selection{Range: "2-4"}, []string{"/c/2", "/c/extra", "/c/3"}},
		{"range wins over list", Selection{Range: "1-1", List: "3"}, []string{"/c/1"}},
		{"list keeps order", Selection{List: "4, 1,4,9"}, []string{"/c/3", "/c/1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(listing(), tt.sel)
			require.NoError(t, err)
			assert.Equal(t, tt.want, urls(got))
		})
	}
}

func TestFilterErrors(t *testing.T) {
	for _, sel := range []Selection{
		{Chapter: "9"},
		{Chapter: "Prologue"},
		{Range: "3"},
		{Range: "a-b"},
		{Range: "3-2"},
		{Range: "1-9"},
		{List: "x"},
		{List: "7,8"},
	} {
		_, err := Filter(listing(), sel)
		assert.Error(t, err, "%+v", sel)
	}
}

func TestSelectionEmpty(t *testing.T) {
	assert.True(t, Selection{}.Empty())
	assert.False(t, Selection{List: "1"}.Empty())
}

func TestFolderName(t *testing.T) {
	assert.Equal(t, "chapter_5_the_end", FolderName(providers.Chapter{Name: "Chapter 5 — The End"}, 5))
	assert.Equal(t, "ch_10_5", FolderName(providers.Chapter{Name: "Ch. 10.5"}, 1))
	assert.Equal(t, "chapter_007", FolderName(providers.Chapter{Name: "(!!)"}, 7))
}
