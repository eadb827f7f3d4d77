package dataset

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/beetlebugorg/geodataset/internal/testutil"
	"github.com/beetlebugorg/geodataset/internal/xdr"
)

// probeAll returns every probe result of ds for the given queries.
func probeAll(t *testing.T, ds *Dataset, queries []ProbeQuery) []ProbeResult {
	t.Helper()
	out := make([]ProbeResult, len(queries))
	for i, q := range queries {
		r, err := ds.Probe(q)
		if err != nil {
			t.Fatalf("Probe(%+v) error = %v", q, err)
		}
		out[i] = r
	}
	return out
}

func TestNativeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		ds      func(t *testing.T) *Dataset
		queries []ProbeQuery
	}{
		{"grid", func(t *testing.T) *Dataset { return newTestGrid(t, Options{}) }, []ProbeQuery{
			NewProbeQuery(hours(0), -97.5, 31.5),
			NewProbeQuery(hours(2), -96.5, 32.5),
		}},
		{"site", newTestSite, []ProbeQuery{
			NewProbeQuery(hours(1), -98.5, 31.5),
			NewProbeQuery(hours(0), -90, 42),
		}},
		{"point", newTestPoints, []ProbeQuery{
			NewProbeQuery(hours(0), -97.5, 30.5),
			NewProbeQuery(hours(1), -96.5, 32.5),
		}},
		{"swath", newTestSwath, []ProbeQuery{
			NewProbeQuery(hours(0), -69.5, 20.5),
			NewProbeQuery(hours(1), -67.5, 20.5),
		}},
		{"aircraft", newTestAircraft, []ProbeQuery{
			NewProbeQuery(hours(0), -99.5, 30.5),
			NewProbeQuery(hours(1), -98.5, 31.5),
			NewProbeQuery(hours(0), -97.5, 32.5),
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := tt.ds(t)
			path, err := src.Write(t.TempDir(), WriteOptions{})
			if err != nil {
				t.Fatalf("Write() error = %v", err)
			}
			if filepath.Ext(path) != NativeExtension {
				t.Errorf("Expected %s extension, got %s", NativeExtension, path)
			}

			got, err := Open(path)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer got.Close()

			if got.Kind() != src.Kind() {
				t.Errorf("Expected kind %v, got %v", src.Kind(), got.Kind())
			}
			if got.Timesteps() != src.Timesteps() || !got.Start().Equal(src.Start()) || got.TimestepSize() != src.TimestepSize() {
				t.Errorf("Expected %s, got %s", src, got)
			}
			if got.Cells() != src.Cells() {
				t.Errorf("Expected %d cells, got %d", src.Cells(), got.Cells())
			}
			if got.Description() != src.Description() {
				t.Errorf("Expected description %q, got %q", src.Description(), got.Description())
			}
			if got.Variables()[0] != src.Variables()[0] {
				t.Errorf("Expected variable %+v, got %+v", src.Variables()[0], got.Variables()[0])
			}
			if got.Path() != path {
				t.Errorf("Expected path %s, got %s", path, got.Path())
			}

			want := probeAll(t, src, tt.queries)
			have := probeAll(t, got, tt.queries)
			for i := range want {
				if !want[i].Found {
					t.Fatalf("query %d: fixture probe found nothing", i)
				}
				if have[i] != want[i] {
					t.Errorf("query %d: Expected %+v, got %+v", i, want[i], have[i])
				}
			}
		})
	}
}

func TestNativeSelectionRoundTrip(t *testing.T) {
	src := newTestAircraft(t)
	path, err := src.Write(t.TempDir(), WriteOptions{Begin: hours(1), End: hours(1)})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if got.Timesteps() != 1 || !got.Start().Equal(hours(1)) {
		t.Errorf("Expected one timestep at %s, got %s", hours(1), got)
	}
	if got.Cells() != 1 {
		t.Errorf("Expected only the point of timestep 1, got %d cells", got.Cells())
	}
	r, _ := got.Probe(NewProbeQuery(hours(1), -98.5, 31.5))
	if !r.Found || r.Value != 200 || r.Note != "flight-1" {
		t.Errorf("Expected flight-1 = 200, got %+v", r)
	}
}

// siteFile builds a one-site native Site file with the given coordinates.
func siteFile(t *testing.T, lon, lat float64, truncate int) string {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString(strings.Join([]string{
		"Site 1.0",
		"crafted",
		"2020-07-01T00:00:00-0000",
		"# timesteps sites timestep_size:",
		"2 1 hours",
		"# Variable names:",
		"O3",
		"# Variable units:",
		"ppb",
		"# MSB 32-bit integers ids[sites] and",
		"# IEEE-754 64-bit reals longitudes[sites] latitudes[sites] and",
		"# IEEE-754 32-bit reals data[timesteps][variables][sites]:",
	}, "\n") + "\n")
	binary.Write(&buf, binary.BigEndian, int32(7))
	binary.Write(&buf, binary.BigEndian, lon)
	binary.Write(&buf, binary.BigEndian, lat)
	binary.Write(&buf, binary.BigEndian, []float32{41, 42})

	path := filepath.Join(t.TempDir(), "crafted.xdr")
	if err := os.WriteFile(path, buf.Bytes()[:buf.Len()-truncate], 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOpenCraftedFile(t *testing.T) {
	path := siteFile(t, -90, 40, 0)
	ds, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if ds.Name() != "crafted" || ds.SiteIDs()[0] != 7 {
		t.Errorf("Expected site 7 of crafted, got %s %v", ds.Name(), ds.SiteIDs())
	}
	r, _ := ds.Probe(NewProbeQuery(hours(1), -90, 40))
	if r.Value != 42 {
		t.Errorf("Expected 42, got %v", r.Value)
	}
}

func TestOpenOutOfRangeCoordinate(t *testing.T) {
	_, err := Open(siteFile(t, -90, 95, 0))
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("Expected ErrFormat, got %v", err)
	}
	var ferr *FormatError
	if !errors.As(err, &ferr) || !strings.HasSuffix(ferr.Path, "crafted.xdr") {
		t.Errorf("Expected *FormatError naming the file, got %v", err)
	}
	var xerr *xdr.Error
	if !errors.As(err, &xerr) || !errors.Is(err, xdr.ErrRange) {
		t.Errorf("Expected wrapped xdr range error, got %v", err)
	}
	if xerr != nil && xerr.Value != 95 {
		t.Errorf("Expected offending value 95, got %v", xerr.Value)
	}
}

func TestOpenShortPayload(t *testing.T) {
	for _, paged := range []bool{false, true} {
		opts := DefaultOptions()
		if paged {
			opts.MaxResidentBytes = -1
		}
		_, err := OpenWithOptions(siteFile(t, -90, 40, 2), opts)
		if !errors.Is(err, ErrFormat) || !errors.Is(err, xdr.ErrShort) {
			t.Errorf("paged=%v: Expected short format error, got %v", paged, err)
		}
	}
}

func TestOpenDeclaredCountsBeyondFile(t *testing.T) {
	tests := []struct {
		name   string
		header []string
	}{
		{"point", []string{
			"Point 1.0", "crafted", "2020-07-01T00:00:00-0000",
			"# timesteps points timestep_size elevations:", "1 2000000000 hours 0",
			"# Variable names:", "O3", "# Variable units:", "ppb",
			"# MSB 64-bit integers counts[timesteps] and",
			"# IEEE-754 64-bit reals longitudes[points] latitudes[points] and",
			"# IEEE-754 64-bit reals data[variables][points]:",
		}},
		{"swath", []string{
			"Swath 1.0", "crafted", "2020-07-01T00:00:00-0000",
			"# timesteps points timestep_size:", "1 2000000000 hours",
			"# Variable names:", "AOD", "# Variable units:", "-",
			"# MSB 64-bit integers counts[timesteps] and",
			"# IEEE-754 64-bit reals corner_longitudes[points][4] corner_latitudes[points][4] and",
			"# IEEE-754 32-bit reals data[variables][points]:",
		}},
		{"aircraft", []string{
			"Aircraft 1.0", "crafted", "2020-07-01T00:00:00-0000",
			"# timesteps tracks points timestep_size:", "1 1000000000 2000000000 hours",
			"# Variable names:", "CO", "# Variable units:", "ppb",
			"# char notes[tracks][80] and",
			"# MSB 64-bit integers counts[tracks] and",
			"# MSB 64-bit integers timestamps[points] and",
			"# IEEE-754 64-bit reals longitudes[points] latitudes[points] elevations[points] and",
			"# IEEE-754 64-bit reals data[variables][points]:",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			buf.WriteString(strings.Join(tt.header, "\n") + "\n")
			binary.Write(&buf, binary.BigEndian, int64(2000000000))
			binary.Write(&buf, binary.BigEndian, []float64{-90, 40})

			path := filepath.Join(t.TempDir(), "crafted.xdr")
			if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
				t.Fatal(err)
			}
			_, err := Open(path)
			if !errors.Is(err, ErrFormat) || !errors.Is(err, xdr.ErrShort) {
				t.Errorf("Expected short format error, got %v", err)
			}
		})
	}
}

func TestOpenMalformedHeaders(t *testing.T) {
	valid := "Site 1.0\nd\n2020-07-01T00:00:00-0000\n# timesteps sites timestep_size:\n1 1 hours\n# Variable names:\nO3\n# Variable units:\nppb\n"
	tests := []struct {
		name   string
		header string
	}{
		{"unknown kind", strings.Replace(valid, "Site", "Mesh", 1)},
		{"version", strings.Replace(valid, "1.0", "2.0", 1)},
		{"timestamp", strings.Replace(valid, "2020-07-01T00:00:00-0000", "yesterday", 1)},
		{"dimension names", strings.Replace(valid, "timesteps sites", "timesteps points", 1)},
		{"zero timesteps", strings.Replace(valid, "1 1 hours", "0 1 hours", 1)},
		{"timestep size", strings.Replace(valid, "1 1 hours", "1 1 weeks", 1)},
		{"unit count", strings.Replace(valid, "ppb", "ppb ppm", 1)},
		{"missing tail", valid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "bad.xdr")
			if err := os.WriteFile(path, []byte(tt.header), 0o644); err != nil {
				t.Fatal(err)
			}
			if _, err := Open(path); !errors.Is(err, ErrFormat) {
				t.Errorf("Expected ErrFormat, got %v", err)
			}
		})
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.xdr")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Expected os.ErrNotExist, got %v", err)
	}
}

func TestPagedMatchesResident(t *testing.T) {
	src := newTestGrid(t, Options{})
	path, err := src.Write(t.TempDir(), WriteOptions{})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	resident, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer resident.Close()
	paged, err := OpenWithOptions(path, Options{MaxResidentBytes: -1, PageTimesteps: 1, Logger: testutil.NewTestLogger(t)})
	if err != nil {
		t.Fatalf("OpenWithOptions() error = %v", err)
	}
	defer paged.Close()

	if resident.IsPaged() || !paged.IsPaged() {
		t.Fatalf("Expected resident/paged, got IsPaged %v/%v", resident.IsPaged(), paged.IsPaged())
	}

	// Probe a later timestep first so that the window must move back.
	order := []int{2, 0, 1, 2}
	for _, ts := range order {
		for v := range 2 {
			q := NewProbeQuery(hours(ts), -98.5, 32.5)
			q.Variable = v
			want, _ := resident.Probe(q)
			got, err := paged.Probe(q)
			if err != nil {
				t.Fatalf("paged Probe() error = %v", err)
			}
			if got != want {
				t.Errorf("timestep %d variable %d: Expected %+v, got %+v", ts, v, want, got)
			}
		}
		if first, count := paged.ResidentWindow(); first != ts || count != 1 {
			t.Errorf("Expected window [%d, %d), got [%d, %d)", ts, ts+1, first, first+count)
		}
	}

	lo, hi, err := paged.MinMax(1)
	wlo, whi, _ := resident.MinMax(1)
	if err != nil || lo != wlo || hi != whi {
		t.Errorf("Expected MinMax (%v, %v), got (%v, %v, %v)", wlo, whi, lo, hi, err)
	}
	if first, _ := paged.ResidentWindow(); first != 2 {
		t.Errorf("Expected MinMax to leave the window at 2, got %d", first)
	}

	groups, err := paged.Subset(hours(0), hours(2), 0)
	if err != nil {
		t.Fatalf("Subset() error = %v", err)
	}
	if len(groups[0].Values) != 3 || groups[0].Values[2][11] != gridValue(2, 0, 11) {
		t.Errorf("Expected a three-timestep window, got %d timesteps", len(groups[0].Values))
	}

	if err := paged.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := paged.Close(); err != nil {
		t.Errorf("Expected second Close to succeed, got %v", err)
	}
	if _, err := paged.Probe(NewProbeQuery(hours(1), -98.5, 32.5)); !errors.Is(err, os.ErrClosed) {
		t.Errorf("Expected os.ErrClosed after Close, got %v", err)
	}
}

func TestPagingFailureKeepsWindow(t *testing.T) {
	src := newTestGrid(t, Options{})
	path, err := src.Write(t.TempDir(), WriteOptions{})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	ds, err := OpenWithOptions(path, Options{MaxResidentBytes: -1, PageTimesteps: 1})
	if err != nil {
		t.Fatalf("OpenWithOptions() error = %v", err)
	}
	defer ds.Close()

	q := NewProbeQuery(hours(0), -97.5, 31.5)
	if r, err := ds.Probe(q); err != nil || r.Value != gridValue(0, 0, 6) {
		t.Fatalf("Expected %v, got %+v (%v)", gridValue(0, 0, 6), r, err)
	}

	// Cut half of the last timestep from the file.
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Truncate(path, info.Size()-int64(src.Cells()*4)); err != nil {
		t.Fatal(err)
	}

	q.Time = hours(2)
	_, err = ds.Probe(q)
	if !errors.Is(err, ErrFormat) || !errors.Is(err, xdr.ErrShort) {
		t.Fatalf("Expected short format error paging timestep 2, got %v", err)
	}
	if first, count := ds.ResidentWindow(); first != 0 || count != 1 {
		t.Errorf("Expected window [0, 1) to survive, got [%d, %d)", first, first+count)
	}

	q.Time = hours(0)
	if r, err := ds.Probe(q); err != nil || r.Value != gridValue(0, 0, 6) {
		t.Errorf("Expected %v after the failed page, got %+v (%v)", gridValue(0, 0, 6), r, err)
	}
}

func TestLoaderSupportedKinds(t *testing.T) {
	kinds := NewLoader().SupportedKinds()
	for _, k := range kinds {
		if _, err := ParseKind(k); err != nil {
			t.Errorf("ParseKind(%q) error = %v", k, err)
		}
	}
	if len(kinds) != 6 {
		t.Errorf("Expected 6 kinds, got %d", len(kinds))
	}
}
