package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"hello", "world"}, tokenize("  Hello   WORLD \n"))
	assert.Empty(t, tokenize("   "))
}

func TestBM25Search(t *testing.T) {
	ix := buildBM25([]string{
		"the cat sat on the mat",
		"dogs run fast outside",
		"cat videos",
	})

	hits := ix.search("cat", 10, nil)
	require.Len(t, hits, 2)
	// The shorter document scores higher for the same term.
	assert.Equal(t, 2, hits[0].slot)
	assert.Equal(t, 0, hits[1].slot)
	for _, h := range hits {
		assert.Greater(t, h.score, 0.0)
	}
}

func TestBM25Search_NoMatchesNoHits(t *testing.T) {
	ix := buildBM25([]string{"alpha beta", "gamma delta"})
	assert.Empty(t, ix.search("omega", 10, nil))
	assert.Empty(t, ix.search("", 10, nil))
}

func TestBM25Search_Filter(t *testing.T) {
	ix := buildBM25([]string{"cat one", "cat two", "cat three"})

	hits := ix.search("cat", 10, func(slot int) bool { return slot == 1 })
	require.Len(t, hits, 1)
	assert.Equal(t, 1, hits[0].slot)
}

func TestBM25Search_TopKCapped(t *testing.T) {
	ix := buildBM25([]string{"cat a", "cat b", "cat c", "cat d"})
	assert.Len(t, ix.search("cat", 2, nil), 2)
}
