package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"github.com/dhconnelly/rtreego"
)

// NativeExtension is the file extension of native dataset files.
const NativeExtension = ".xdr"

// Index provides spatial and temporal queries over many dataset files
// without keeping them open.
//
// Example:
//
//	idx, err := dataset.BuildIndexFromDir("/data/airnow", dataset.DefaultLoadOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	entries := idx.Query(dataset.Bounds{West: -100, East: -90, South: 30, North: 40},
//	    dataset.QueryOptions{Kinds: []dataset.Kind{dataset.KindSite}})
type Index struct {
	entries []Entry
	rtree   *rtreego.Rtree
	mu      sync.RWMutex
}

// Entry holds the indexed metadata of one dataset file.
type Entry struct {
	Path      string
	Name      string
	Kind      Kind
	Extent    Bounds
	Start     Timestamp
	End       Timestamp // start of the last timestep
	Timesteps int
	Variables []string
}

// Bounds implements rtreego.Spatial.
func (e Entry) Bounds() rtreego.Rect {
	return e.Extent.rect()
}

// EntryOf returns the index entry describing ds.
func EntryOf(ds *Dataset) Entry {
	names := make([]string, len(ds.variables))
	for i, v := range ds.variables {
		names[i] = v.Name
	}
	return Entry{
		Path:      ds.path,
		Name:      ds.name,
		Kind:      ds.Kind(),
		Extent:    ds.Bounds(),
		Start:     ds.start,
		End:       ds.End(),
		Timesteps: ds.timesteps,
		Variables: names,
	}
}

// QueryOptions filters index queries.
type QueryOptions struct {
	// Begin and End restrict results to datasets with a timestep starting in
	// [Begin, End]. Zero values leave that side open.
	Begin, End Timestamp

	// Kinds restricts results to these kinds. Empty means all.
	Kinds []Kind

	// Variable restricts results to datasets holding this variable.
	Variable string
}

func (o QueryOptions) match(e Entry) bool {
	if !o.Begin.IsZero() && e.End.Before(o.Begin) {
		return false
	}
	if !o.End.IsZero() && e.Start.After(o.End) {
		return false
	}
	if len(o.Kinds) > 0 && !slices.Contains(o.Kinds, e.Kind) {
		return false
	}
	if o.Variable != "" && !slices.Contains(e.Variables, o.Variable) {
		return false
	}
	return true
}

// NewIndex returns an index over entries.
func NewIndex(entries ...Entry) *Index {
	idx := &Index{entries: slices.Clone(entries)}
	objs := make([]rtreego.Spatial, 0, len(entries))
	for _, e := range entries {
		if e.Extent.Valid() {
			objs = append(objs, e)
		}
	}
	idx.rtree = rtreego.NewTree(2, 25, 50, objs...)
	return idx
}

// BuildIndex creates an index from open datasets.
func BuildIndex(sets []*Dataset) *Index {
	entries := make([]Entry, len(sets))
	for i, ds := range sets {
		entries[i] = EntryOf(ds)
	}
	return NewIndex(entries...)
}

// BuildIndexFromDir indexes every native file under root. Files are opened
// with paging forced so that only headers and point coordinates are read,
// then closed.
func BuildIndexFromDir(root string, opts LoadOptions) (*Index, error) {
	paths, err := Discover(root)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no datasets found in %s", root)
	}

	opts.Dataset.MaxResidentBytes = -1
	sets, errs := OpenParallel(paths, opts)
	if len(sets) == 0 {
		if len(errs) > 0 {
			return nil, fmt.Errorf("no datasets could be opened (%d errors): %w", len(errs), errs[0])
		}
		return nil, fmt.Errorf("no datasets could be opened in %s", root)
	}
	idx := BuildIndex(sets)
	for _, ds := range sets {
		ds.Close()
	}
	return idx, nil
}

// Add indexes one more entry.
func (idx *Index) Add(e Entry) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.entries = append(idx.entries, e)
	if e.Extent.Valid() {
		idx.rtree.Insert(e)
	}
}

// Query returns entries whose extent intersects bounds and that pass opts,
// ordered by start time then name.
func (idx *Index) Query(bounds Bounds, opts QueryOptions) []Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	found := idx.rtree.SearchIntersect(bounds.rect(), func(_ []rtreego.Spatial, obj rtreego.Spatial) (bool, bool) {
		return !opts.match(obj.(Entry)), false
	})
	result := make([]Entry, len(found))
	for i, s := range found {
		result[i] = s.(Entry)
	}
	sort.Slice(result, func(i, j int) bool {
		if c := result[i].Start.Compare(result[j].Start); c != 0 {
			return c < 0
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// Count returns the number of indexed datasets.
func (idx *Index) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Bounds returns the union of all indexed extents. It is not Valid when
// the index is empty.
func (idx *Index) Bounds() Bounds {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	b := emptyBounds()
	for _, e := range idx.entries {
		if e.Extent.Valid() {
			b = b.Union(e.Extent)
		}
	}
	return b
}

// All returns a copy of every entry in insertion order.
func (idx *Index) All() []Entry {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return slices.Clone(idx.entries)
}

// Discover finds all native dataset files under root, sorted by path.
func Discover(root string) ([]string, error) {
	var paths []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == NativeExtension {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}
