package index

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// vectorsMagic marks the on-disk dense index file.
const vectorsMagic = uint32(0x50564543) // "PVEC"

// denseIndex is a flat matrix of L2-normalised vectors. Slot
// position is identity: slot i belongs to metadata row vector_id=i.
// Search is brute-force inner product, which equals cosine
// similarity for normalised vectors.
type denseIndex struct {
	dims    int
	vectors [][]float32
}

// slotScore pairs a vector slot with a search score.
type slotScore struct {
	slot  int
	score float64
}

func (d *denseIndex) count() int {
	return len(d.vectors)
}

// appendVectors returns a new index with the vectors added; the
// receiver is unchanged so readers keep a consistent view.
func (d *denseIndex) appendVectors(vectors [][]float32) (*denseIndex, error) {
	next := &denseIndex{dims: d.dims, vectors: d.vectors}
	for _, v := range vectors {
		if next.dims == 0 {
			next.dims = len(v)
		}
		if len(v) != next.dims {
			return nil, fmt.Errorf("vector has %d dimensions, index has %d", len(v), next.dims)
		}
		next.vectors = append(next.vectors, v)
	}
	return next, nil
}

// search returns the top k slots by inner product, highest first.
// allow filters slots; nil means no filter.
func (d *denseIndex) search(query []float32, k int, allow func(slot int) bool) []slotScore {
	if k <= 0 || len(d.vectors) == 0 || len(query) != d.dims {
		return nil
	}

	scores := make([]slotScore, 0, len(d.vectors))
	for i, v := range d.vectors {
		if allow != nil && !allow(i) {
			continue
		}
		scores = append(scores, slotScore{slot: i, score: dot(query, v)})
	}
	sort.Slice(scores, func(i, j int) bool { return scores[i].score > scores[j].score })
	if len(scores) > k {
		scores = scores[:k]
	}
	return scores
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

// saveVectors writes the matrix to path atomically, via a temp file
// in the same directory.
func saveVectors(path string, d *denseIndex) error {
	tmp, err := writeVectorsTemp(path, d)
	if err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing vectors file: %w", err)
	}
	return nil
}

// writeVectorsTemp writes the matrix to a temp file next to path and
// returns the temp file name. The caller renames or removes it.
func writeVectorsTemp(path string, d *denseIndex) (string, error) {
	f, err := os.CreateTemp(filepath.Dir(path), "vectors-*.tmp")
	if err != nil {
		return "", fmt.Errorf("creating vectors temp file: %w", err)
	}

	header := make([]byte, 12)
	binary.LittleEndian.PutUint32(header[0:], vectorsMagic)
	binary.LittleEndian.PutUint32(header[4:], uint32(d.dims))
	binary.LittleEndian.PutUint32(header[8:], uint32(len(d.vectors)))
	if _, err := f.Write(header); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("writing vectors header: %w", err)
	}

	buf := make([]byte, d.dims*4)
	for _, v := range d.vectors {
		for i, x := range v {
			binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(x))
		}
		if _, err := f.Write(buf); err != nil {
			f.Close()
			os.Remove(f.Name())
			return "", fmt.Errorf("writing vectors: %w", err)
		}
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("closing vectors temp file: %w", err)
	}
	return f.Name(), nil
}

// loadVectors reads a matrix written by saveVectors. A missing file
// yields an empty index.
func loadVectors(path string) (*denseIndex, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &denseIndex{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading vectors file: %w", err)
	}
	if len(data) < 12 {
		return nil, fmt.Errorf("vectors file truncated: %d bytes", len(data))
	}
	if binary.LittleEndian.Uint32(data[0:]) != vectorsMagic {
		return nil, fmt.Errorf("vectors file has bad magic")
	}
	dims := int(binary.LittleEndian.Uint32(data[4:]))
	count := int(binary.LittleEndian.Uint32(data[8:]))

	want := 12 + dims*count*4
	if len(data) != want {
		return nil, fmt.Errorf("vectors file has %d bytes, want %d", len(data), want)
	}

	d := &denseIndex{dims: dims, vectors: make([][]float32, count)}
	off := 12
	for i := 0; i < count; i++ {
		v := make([]float32, dims)
		for j := 0; j < dims; j++ {
			v[j] = math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
			off += 4
		}
		d.vectors[i] = v
	}
	return d, nil
}
