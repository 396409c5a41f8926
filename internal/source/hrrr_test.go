package source

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/geal-ai/radialinterp"
	"github.com/geal-ai/radialinterp/hrrr"
)

// patch is a 100x100 Lambert grid (300 km square) near the HRRR projection
// centre.
func patch() hrrr.LambertGrid {
	return hrrr.LambertGrid{
		Ni: 100, Nj: 100,
		La1: 37, Lo1: 261,
		LoV:    262.5,
		Latin1: 38.5, Latin2: 38.5,
		Dx: 3000, Dy: 3000,
		ScanMode: 0x40,
	}
}

// fakeFetcher returns constant fields whose value is 100 + fxx.
type fakeFetcher struct {
	latest time.Time
	calls  []string
	// moved, when positive, is a forecast hour served on a shifted grid.
	moved int
}

func (f *fakeFetcher) field(fxx int) *hrrr.Field {
	g := patch()
	if f.moved > 0 && fxx == f.moved {
		g.La1 += 0.5
	}
	vals := make([]float64, g.Ni*g.Nj)
	for i := range vals {
		vals[i] = 100 + float64(fxx)
	}
	return &hrrr.Field{Grid: g, Vals: vals}
}

func (f *fakeFetcher) FetchField(_ context.Context, run time.Time, fxx int, _ string) (*hrrr.Field, error) {
	f.calls = append(f.calls, fmt.Sprintf("field %s f%02d", run.Format("15Z"), fxx))
	return f.field(fxx), nil
}

func (f *fakeFetcher) FetchSeries(_ context.Context, run time.Time, hours []int, _ string) ([]*hrrr.Field, error) {
	f.calls = append(f.calls, fmt.Sprintf("series %s %v", run.Format("15Z"), hours))
	out := make([]*hrrr.Field, len(hours))
	for i, h := range hours {
		out[i] = f.field(h)
	}
	return out, nil
}

func (f *fakeFetcher) FetchLatest(_ context.Context, fxx int, _ string, _ int) (*hrrr.Field, time.Time, error) {
	f.calls = append(f.calls, fmt.Sprintf("latest f%02d", fxx))
	if f.latest.IsZero() {
		return nil, time.Time{}, errors.New("no runs")
	}
	return f.field(fxx), f.latest, nil
}

func patchCenter(i, j int) radialinterp.GeoPoint {
	g := patch()
	lat, lon := g.IjToLatLon(i, j)
	return radialinterp.GeoPoint{Lat: lat, Lon: lon}
}

func smallGrid(t *testing.T) radialinterp.Grid {
	t.Helper()
	grid, err := radialinterp.BuildGrid(0, 10, 30, 45)
	if err != nil {
		t.Fatal(err)
	}
	return grid
}

func TestHRRRSingleHour(t *testing.T) {
	fetcher := &fakeFetcher{}
	src := &HRRR{
		Fetcher:  fetcher,
		Variable: "TMP:2 m above ground",
		Run:      time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC),
		Hours:    []int{3},
	}
	f, err := src.Field(context.Background(), patchCenter(50, 50), smallGrid(t))
	if err != nil {
		t.Fatal(err)
	}
	if err := f.Validate(); err != nil {
		t.Fatal(err)
	}
	if f.Data.Ndim() != 2 {
		t.Fatalf("ndim = %d, want 2", f.Data.Ndim())
	}
	for _, v := range f.Data.Data {
		if v != 103 {
			t.Fatalf("value %g, want 103", v)
		}
	}
	if len(fetcher.calls) != 1 || fetcher.calls[0] != "field 12Z f03" {
		t.Errorf("calls = %v", fetcher.calls)
	}
}

func TestHRRRSeries(t *testing.T) {
	fetcher := &fakeFetcher{latest: time.Date(2026, 2, 19, 9, 0, 0, 0, time.UTC)}
	src := &HRRR{Fetcher: fetcher, Variable: "TMP:2 m above ground", Hours: []int{0, 1, 2}}
	f, err := src.Field(context.Background(), patchCenter(50, 50), smallGrid(t))
	if err != nil {
		t.Fatal(err)
	}
	if f.Data.Ndim() != 3 || f.Times() != 3 {
		t.Fatalf("shape %v, want 3 time slices", f.Data.Shape)
	}
	for k := 0; k < 3; k++ {
		if got := f.Data.Data[k]; got != 100+float64(k) {
			t.Errorf("slice %d = %g, want %g", k, got, 100+float64(k))
		}
	}
	want := []string{"latest f00", "series 09Z [1 2]"}
	if fmt.Sprint(fetcher.calls) != fmt.Sprint(want) {
		t.Errorf("calls = %v, want %v", fetcher.calls, want)
	}
}

func TestHRRRLatestTwoHours(t *testing.T) {
	fetcher := &fakeFetcher{latest: time.Date(2026, 2, 19, 9, 0, 0, 0, time.UTC)}
	src := &HRRR{Fetcher: fetcher, Variable: "TMP:2 m above ground", Hours: []int{0, 6}}
	f, err := src.Field(context.Background(), patchCenter(50, 50), smallGrid(t))
	if err != nil {
		t.Fatal(err)
	}
	if f.Times() != 2 || f.Data.Data[1] != 106 {
		t.Fatalf("shape %v, first node %v", f.Data.Shape, f.Data.Data[:2])
	}
	want := []string{"latest f00", "field 09Z f06"}
	if fmt.Sprint(fetcher.calls) != fmt.Sprint(want) {
		t.Errorf("calls = %v, want %v", fetcher.calls, want)
	}
}

func TestHRRRGridMismatch(t *testing.T) {
	fetcher := &fakeFetcher{latest: time.Date(2026, 2, 19, 9, 0, 0, 0, time.UTC), moved: 2}
	src := &HRRR{Fetcher: fetcher, Variable: "TMP:2 m above ground", Hours: []int{0, 1, 2}}
	_, err := src.Field(context.Background(), patchCenter(50, 50), smallGrid(t))
	if !errors.Is(err, radialinterp.ErrExternalInterpolation) {
		t.Fatalf("err = %v, want ErrExternalInterpolation", err)
	}
}

func TestHRRRNearest(t *testing.T) {
	src := &HRRR{
		Fetcher:  &fakeFetcher{},
		Variable: "TMP:2 m above ground",
		Run:      time.Date(2026, 2, 19, 12, 0, 0, 0, time.UTC),
		Method:   MethodNearest,
	}
	f, err := src.Field(context.Background(), patchCenter(50, 50), smallGrid(t))
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range f.Data.Data {
		if v != 100 {
			t.Fatalf("value %g, want 100", v)
		}
	}

	src.Method = "cubic"
	if _, err := src.Field(context.Background(), patchCenter(50, 50), smallGrid(t)); !errors.Is(err, radialinterp.ErrInvalidParameter) {
		t.Errorf("unknown method: err = %v, want ErrInvalidParameter", err)
	}
}

func TestHRRROutsideDomain(t *testing.T) {
	src := &HRRR{Fetcher: &fakeFetcher{}, Variable: "TMP", Run: time.Now()}
	_, err := src.Field(context.Background(), patchCenter(2, 2), smallGrid(t))
	if !errors.Is(err, radialinterp.ErrOutOfDomain) {
		t.Fatalf("err = %v, want ErrOutOfDomain", err)
	}
	if !strings.Contains(err.Error(), "corner") {
		t.Errorf("err = %v, want the lattice corner named", err)
	}
}

func TestHRRRFetchFailure(t *testing.T) {
	src := &HRRR{Fetcher: &fakeFetcher{}, Variable: "TMP"}
	_, err := src.Field(context.Background(), patchCenter(50, 50), smallGrid(t))
	if !errors.Is(err, radialinterp.ErrExternalInterpolation) {
		t.Fatalf("err = %v, want ErrExternalInterpolation", err)
	}
}

func TestHRRRNeedsVariable(t *testing.T) {
	src := &HRRR{Fetcher: &fakeFetcher{}}
	if _, err := src.Field(context.Background(), patchCenter(50, 50), smallGrid(t)); !errors.Is(err, radialinterp.ErrInvalidParameter) {
		t.Fatalf("err = %v, want ErrInvalidParameter", err)
	}
}
