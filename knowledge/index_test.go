package knowledge

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlatIndexSearchOrdering(t *testing.T) {
	idx := NewFlatIndex(3)
	require.NoError(t, idx.Add([][]float32{
		{1, 0, 0},
		{0, 1, 0},
		{0.9, 0.1, 0},
		{0, 0, 1},
	}))

	scores, indices, err := idx.Search([]float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, indices, 2)

	assert.Equal(t, 0, indices[0])
	assert.Equal(t, 2, indices[1])
	assert.Greater(t, scores[0], scores[1])
}

func TestFlatIndexKExceedsTotal(t *testing.T) {
	idx := NewFlatIndex(2)
	require.NoError(t, idx.Add([][]float32{{1, 0}, {0, 1}}))

	scores, indices, err := idx.Search([]float32{1, 0}, 100)
	require.NoError(t, err)
	assert.Len(t, indices, 2)
	assert.Len(t, scores, 2)
}

func TestFlatIndexEmptySearch(t *testing.T) {
	idx := NewFlatIndex(2)

	scores, indices, err := idx.Search([]float32{1, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, scores)
	assert.Empty(t, indices)
}

func TestFlatIndexDimensionMismatch(t *testing.T) {
	idx := NewFlatIndex(3)

	err := idx.Add([][]float32{{1, 0}})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	_, _, err = idx.Search([]float32{1, 0}, 1)
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestFlatIndexFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "index.faiss")

	idx := NewFlatIndex(4)
	vectors := [][]float32{
		{0.1, 0.2, 0.3, 0.4},
		{-1, 0.5, 0, 0.25},
	}
	require.NoError(t, idx.Add(vectors))
	require.NoError(t, idx.WriteFile(path))

	loaded, err := ReadIndexFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Dimension())
	assert.Equal(t, 2, loaded.NTotal())
	assert.Equal(t, vectors, loaded.vectors)
}

func TestFlatIndexEmptyFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.faiss")

	require.NoError(t, NewFlatIndex(8).WriteFile(path))

	loaded, err := ReadIndexFile(path)
	require.NoError(t, err)
	assert.Equal(t, 8, loaded.Dimension())
	assert.Zero(t, loaded.NTotal())
}

func TestReadIndexFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.faiss")
	require.NoError(t, os.WriteFile(path, []byte("definitely not an index"), 0o644))

	_, err := ReadIndexFile(path)
	assert.Error(t, err)
}

func TestReadIndexFileRejectsTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.faiss")

	idx := NewFlatIndex(4)
	require.NoError(t, idx.Add([][]float32{{1, 2, 3, 4}}))
	require.NoError(t, idx.WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data[:len(data)-6], 0o644))

	_, err = ReadIndexFile(path)
	assert.Error(t, err)
}

func TestReadIndexFileRejectsOversizedCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.faiss")

	idx := NewFlatIndex(4)
	require.NoError(t, idx.Add([][]float32{{1, 2, 3, 4}}))
	require.NoError(t, idx.WriteFile(path))

	// 把头部的向量数改成远超文件实际容量的值
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	binary.LittleEndian.PutUint32(data[12:16], 1<<30)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	_, err = ReadIndexFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file holds at most")
}

func TestNormalizeL2(t *testing.T) {
	vec := []float32{3, 4}
	normalizeL2(vec)
	assert.InDelta(t, 0.6, vec[0], 1e-6)
	assert.InDelta(t, 0.8, vec[1], 1e-6)

	zero := []float32{0, 0}
	normalizeL2(zero)
	assert.Equal(t, []float32{0, 0}, zero)
}
