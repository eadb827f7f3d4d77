package dataset

import (
	"errors"
	"os"
	"testing"
)

func TestCacheHitsAndMisses(t *testing.T) {
	c := NewCache(0)
	loads := 0
	loader := func() (*Dataset, error) {
		loads++
		return newTestSite(t), nil
	}

	first, err := c.Get("airnow", loader)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	second, err := c.Get("airnow", loader)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if first != second || loads != 1 {
		t.Errorf("Expected one load and the same dataset, got %d loads", loads)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 || stats.Datasets != 1 || stats.TotalAccess != 2 {
		t.Errorf("Expected 1 hit, 1 miss, 1 dataset, 2 accesses, got %+v", stats)
	}
	if stats.UsedMemory != estimateMemory(first) {
		t.Errorf("Expected used memory %d, got %d", estimateMemory(first), stats.UsedMemory)
	}

	boom := errors.New("boom")
	if _, err := c.Get("bad", func() (*Dataset, error) { return nil, boom }); !errors.Is(err, boom) {
		t.Errorf("Expected loader error, got %v", err)
	}
}

func TestCacheEvictsLeastRecentlyUsed(t *testing.T) {
	size := estimateMemory(newTestSite(t))
	c := NewCache(2*size + size/2)

	load := func() (*Dataset, error) { return newTestSite(t), nil }
	for _, key := range []string{"a", "b"} {
		if _, err := c.Get(key, load); err != nil {
			t.Fatal(err)
		}
	}
	// touch a so that b is the eviction candidate
	if _, err := c.Get("a", load); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Get("c", load); err != nil {
		t.Fatal(err)
	}

	if n := c.Stats().Datasets; n != 2 {
		t.Errorf("Expected 2 datasets, got %d", n)
	}
	misses := c.Stats().Misses
	c.Get("a", load)
	if c.Stats().Misses != misses {
		t.Error("Expected a to stay cached")
	}
	c.Get("b", load)
	if c.Stats().Misses != misses+1 {
		t.Error("Expected b to have been evicted")
	}
}

func TestCacheClosesEvictedDatasets(t *testing.T) {
	path, err := newTestGrid(t, Options{}).Write(t.TempDir(), WriteOptions{})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	open := func() (*Dataset, error) {
		return OpenWithOptions(path, Options{MaxResidentBytes: -1, PageTimesteps: 1})
	}

	c := NewCache(0)
	ds, err := c.Get("cmaq", open)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if _, err := ds.Probe(NewProbeQuery(hours(0), -97.5, 31.5)); err != nil {
		t.Fatalf("Probe() error = %v", err)
	}

	c.Remove("cmaq")
	if _, err := ds.Probe(NewProbeQuery(hours(0), -97.5, 31.5)); !errors.Is(err, os.ErrClosed) {
		t.Errorf("Expected os.ErrClosed after removal, got %v", err)
	}

	ds, _ = c.Get("cmaq", open)
	c.Clear()
	if c.Stats().Datasets != 0 || c.Stats().UsedMemory != 0 {
		t.Errorf("Expected empty cache, got %+v", c.Stats())
	}
	if _, err := ds.Subset(hours(0), hours(0), 0); !errors.Is(err, os.ErrClosed) {
		t.Errorf("Expected os.ErrClosed after Clear, got %v", err)
	}
}

func TestCacheRejectsOversizedDataset(t *testing.T) {
	c := NewCache(16)
	ds := newTestSite(t)
	if err := c.Add("airnow", ds); err == nil {
		t.Error("Expected error adding a dataset larger than the cache")
	}

	got, err := c.Get("airnow", func() (*Dataset, error) { return ds, nil })
	if err != nil || got != ds {
		t.Errorf("Expected the uncached dataset, got %v, %v", got, err)
	}
	if c.Stats().Datasets != 0 {
		t.Errorf("Expected nothing cached, got %d", c.Stats().Datasets)
	}
}
