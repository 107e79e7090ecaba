package vector

import (
	"context"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func TestFlatIndex_Search(t *testing.T) {
	idx, err := NewFlatIndex(3, [][]float32{
		{1, 0, 0},
		{0.9, 0.1, 0},
		{0, 1, 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	results, err := idx.Search(ctx, []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].Position != 0 {
		t.Errorf("top result should be row 0, got %d", results[0].Position)
	}
	if results[0].Distance > 1e-6 {
		t.Errorf("exact match should have near-zero distance, got %f", results[0].Distance)
	}
	if results[1].Distance < results[0].Distance {
		t.Error("results must be ordered ascending by distance")
	}
}

func TestFlatIndex_SimilarityIsCosine(t *testing.T) {
	// Rows are normalized at build time, so 1 - distance equals the cosine
	// of the angle between query and row.
	idx, _ := NewFlatIndex(2, [][]float32{{1, 1}})
	results, err := idx.Search(context.Background(), []float32{1, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	sim := 1 - results[0].Distance
	if math.Abs(sim-math.Sqrt(2)/2) > 1e-6 {
		t.Errorf("similarity should be cos(45°)=%.4f, got %.4f", math.Sqrt(2)/2, sim)
	}
}

func TestFlatIndex_KClippedToSize(t *testing.T) {
	idx, _ := NewFlatIndex(2, [][]float32{{1, 0}, {0, 1}})
	results, err := idx.Search(context.Background(), []float32{1, 0}, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 2 {
		t.Errorf("k should clip to index size, got %d results", len(results))
	}
}

func TestFlatIndex_TiesStable(t *testing.T) {
	// Identical rows tie on distance; insertion order must win.
	idx, _ := NewFlatIndex(2, [][]float32{{0, 1}, {0, 1}, {1, 0}})
	results, err := idx.Search(context.Background(), []float32{0, 1}, 2)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Position != 0 || results[1].Position != 1 {
		t.Errorf("tie order: %v", results)
	}
}

func TestFlatIndex_DimensionMismatch(t *testing.T) {
	idx, _ := NewFlatIndex(3, nil)
	if _, err := idx.Search(context.Background(), []float32{1, 0}, 1); err == nil {
		t.Error("expected dimension mismatch error")
	}
}

func TestFlatIndex_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missions.index")
	idx, _ := NewFlatIndex(4, [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
	})
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	loaded, err := LoadFlatIndex(path, 4)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.Size() != 2 || loaded.Dimensions() != 4 {
		t.Fatalf("loaded index: size=%d dims=%d", loaded.Size(), loaded.Dimensions())
	}
	results, err := loaded.Search(context.Background(), []float32{0, 1, 0, 0}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if results[0].Position != 1 {
		t.Errorf("top result after reload: %+v", results[0])
	}
}

func TestLoadFlatIndex_missing(t *testing.T) {
	if _, err := LoadFlatIndex(filepath.Join(t.TempDir(), "nope.index"), 4); err == nil {
		t.Error("missing artifact must be an error, not an empty index")
	}
}

func TestLoadFlatIndex_truncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missions.index")
	idx, _ := NewFlatIndex(4, [][]float32{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
	})
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}

	// Cut the artifact mid-row: the header still claims two full rows.
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data[:len(data)-8], 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFlatIndex(path, 4); err == nil {
		t.Error("truncated artifact must fail to load, not serve partial rows")
	}
}

func TestLoadFlatIndex_corruptRowCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missions.index")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	// Valid magic and dimensions, but a row count far beyond the payload.
	if _, err := f.Write([]byte("MCIX")); err != nil {
		t.Fatal(err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(4)); err != nil {
		t.Fatal(err)
	}
	if err := binary.Write(f, binary.LittleEndian, uint32(1<<30)); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFlatIndex(path, 4); err == nil {
		t.Error("corrupt row count must fail before any rows are read")
	}
}

func TestLoadFlatIndex_dimensionMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missions.index")
	idx, _ := NewFlatIndex(4, [][]float32{{1, 0, 0, 0}})
	if err := idx.Save(path); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFlatIndex(path, 8); err == nil {
		t.Error("expected dimension mismatch on load")
	}
}
