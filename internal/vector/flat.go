package vector

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/issdc/missionchat/pkg/utils"
)

// artifactMagic identifies the serialized index format.
const artifactMagic = "MCIX"

// FlatIndex is a brute-force exact nearest-neighbor index over the corpus
// embeddings. Vectors are L2-normalized on load, so search distance is cosine
// distance and 1 - distance is a true cosine similarity. Exact scan is fine at
// corpus scale (hundreds of mission records, one embedding each).
type FlatIndex struct {
	dimensions int
	vectors    [][]float32
}

// LoadFlatIndex reads the index artifact at path. Format: 4-byte magic "MCIX",
// uint32 dimensions, uint32 row count, then row-major packed float32 vectors
// (little endian). Row i corresponds to corpus position i. Any failure here is
// fatal to startup; a missing or malformed artifact is not recoverable per-request.
func LoadFlatIndex(path string, dimensions int) (*FlatIndex, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open index artifact: %w", err)
	}
	defer f.Close()

	magic := make([]byte, 4)
	if _, err := io.ReadFull(f, magic); err != nil {
		return nil, fmt.Errorf("read index magic: %w", err)
	}
	if string(magic) != artifactMagic {
		return nil, fmt.Errorf("not an index artifact: bad magic %q", magic)
	}
	var dim, n uint32
	if err := binary.Read(f, binary.LittleEndian, &dim); err != nil {
		return nil, fmt.Errorf("read dimensions: %w", err)
	}
	if int(dim) != dimensions {
		return nil, fmt.Errorf("dimension mismatch: artifact has %d, embedder produces %d", dim, dimensions)
	}
	if err := binary.Read(f, binary.LittleEndian, &n); err != nil {
		return nil, fmt.Errorf("read row count: %w", err)
	}

	// The header's row count must match the payload exactly; a short read or a
	// corrupt count would otherwise serve garbage vectors.
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat index artifact: %w", err)
	}
	const headerSize = 4 + 4 + 4
	want := headerSize + int64(n)*int64(dimensions)*4
	if info.Size() != want {
		return nil, fmt.Errorf("index artifact size mismatch: header claims %d rows (%d bytes), file has %d", n, want, info.Size())
	}

	vectors := make([][]float32, 0, n)
	buf := make([]byte, dimensions*4)
	for i := uint32(0); i < n; i++ {
		if _, err := io.ReadFull(f, buf); err != nil {
			return nil, fmt.Errorf("read vector row %d: %w", i, err)
		}
		vec := bytesToFloat32Slice(buf)
		// Normalize so 1 - distance is a real cosine similarity regardless of
		// how the artifact was produced.
		utils.NormalizeL2(vec)
		vectors = append(vectors, vec)
	}
	return &FlatIndex{dimensions: dimensions, vectors: vectors}, nil
}

// NewFlatIndex builds an index directly from vectors, normalizing each.
// Used by tests and the artifact-building path.
func NewFlatIndex(dimensions int, vectors [][]float32) (*FlatIndex, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive")
	}
	rows := make([][]float32, len(vectors))
	for i, v := range vectors {
		if len(v) != dimensions {
			return nil, fmt.Errorf("vector %d dimension mismatch: got %d, expected %d", i, len(v), dimensions)
		}
		row := make([]float32, dimensions)
		copy(row, v)
		utils.NormalizeL2(row)
		rows[i] = row
	}
	return &FlatIndex{dimensions: dimensions, vectors: rows}, nil
}

// Save persists the index artifact to path. Directory is created if needed.
func (idx *FlatIndex) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create index dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create index file: %w", err)
	}
	defer f.Close()
	if _, err := f.Write([]byte(artifactMagic)); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(idx.dimensions)); err != nil {
		return fmt.Errorf("write dimensions: %w", err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(len(idx.vectors))); err != nil {
		return fmt.Errorf("write row count: %w", err)
	}
	for i, vec := range idx.vectors {
		if _, err := f.Write(float32SliceToBytes(vec)); err != nil {
			return fmt.Errorf("write vector row %d: %w", i, err)
		}
	}
	return nil
}

// Search returns the k nearest rows by cosine distance, ascending. The scan
// preserves insertion order for equal distances (stable sort).
func (idx *FlatIndex) Search(ctx context.Context, query []float32, k int) ([]Result, error) {
	if len(query) != idx.dimensions {
		return nil, fmt.Errorf("query dimension mismatch: got %d, expected %d", len(query), idx.dimensions)
	}
	if k < 1 {
		return nil, fmt.Errorf("k must be >= 1")
	}
	if len(idx.vectors) == 0 {
		return nil, nil
	}

	q := make([]float32, idx.dimensions)
	copy(q, query)
	utils.NormalizeL2(q)

	results := make([]Result, len(idx.vectors))
	for i, vec := range idx.vectors {
		var dot float64
		for j := 0; j < idx.dimensions; j++ {
			dot += float64(q[j] * vec[j])
		}
		results[i] = Result{Position: i, Distance: math.Max(0, 1-dot)}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Distance < results[j].Distance })
	if k > len(results) {
		k = len(results)
	}
	return results[:k], nil
}

// Size returns the number of vectors in the index.
func (idx *FlatIndex) Size() int {
	return len(idx.vectors)
}

// Dimensions returns the vector dimension.
func (idx *FlatIndex) Dimensions() int {
	return idx.dimensions
}

func float32SliceToBytes(s []float32) []byte {
	const size = 4
	out := make([]byte, len(s)*size)
	for i, v := range s {
		binary.LittleEndian.PutUint32(out[i*size:(i+1)*size], math.Float32bits(v))
	}
	return out
}

func bytesToFloat32Slice(b []byte) []float32 {
	const size = 4
	out := make([]float32, len(b)/size)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*size : (i+1)*size]))
	}
	return out
}
