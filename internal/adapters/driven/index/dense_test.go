package index

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDenseIndex_Search(t *testing.T) {
	d := &denseIndex{}
	d, err := d.appendVectors([][]float32{
		{1, 0},
		{0, 1},
		{0.7071, 0.7071},
	})
	require.NoError(t, err)

	hits := d.search([]float32{1, 0}, 2, nil)
	require.Len(t, hits, 2)
	assert.Equal(t, 0, hits[0].slot)
	assert.InDelta(t, 1.0, hits[0].score, 0.001)
	assert.Equal(t, 2, hits[1].slot)
	assert.InDelta(t, 0.7071, hits[1].score, 0.001)
}

func TestDenseIndex_DimensionMismatch(t *testing.T) {
	d := &denseIndex{}
	d, err := d.appendVectors([][]float32{{1, 0}})
	require.NoError(t, err)

	_, err = d.appendVectors([][]float32{{1, 0, 0}})
	assert.Error(t, err)

	// Query with wrong dimensionality finds nothing.
	assert.Empty(t, d.search([]float32{1, 0, 0}, 5, nil))
}

func TestDenseIndex_AppendLeavesReceiverUnchanged(t *testing.T) {
	base := &denseIndex{}
	base, err := base.appendVectors([][]float32{{1, 0}})
	require.NoError(t, err)

	next, err := base.appendVectors([][]float32{{0, 1}})
	require.NoError(t, err)
	assert.Equal(t, 1, base.count())
	assert.Equal(t, 2, next.count())
}

func TestVectorsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vectors.bin")

	d := &denseIndex{}
	d, err := d.appendVectors([][]float32{{0.5, 0.25, -1}, {0, 1, 0}})
	require.NoError(t, err)
	require.NoError(t, saveVectors(path, d))

	loaded, err := loadVectors(path)
	require.NoError(t, err)
	assert.Equal(t, d.dims, loaded.dims)
	assert.Equal(t, d.vectors, loaded.vectors)
}

func TestLoadVectors_Missing(t *testing.T) {
	loaded, err := loadVectors(filepath.Join(t.TempDir(), "vectors.bin"))
	require.NoError(t, err)
	assert.Equal(t, 0, loaded.count())
}
