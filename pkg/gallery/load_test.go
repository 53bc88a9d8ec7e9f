package gallery

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type stubProber struct {
	dims map[string][2]int
	exif map[string]*Exif
	fail map[string]bool
}

func (s *stubProber) Probe(path string) (ProbeResult, error) {
	base := filepath.Base(path)
	if s.fail[base] {
		return ProbeResult{}, errors.New("decode failed")
	}
	w, h := 100, 80
	if d, ok := s.dims[base]; ok {
		w, h = d[0], d[1]
	}
	return ProbeResult{Width: w, Height: h, Exif: s.exif[base]}, nil
}

func TestLoadSortsAndIndexes(t *testing.T) {
	l := &Loader{Prober: &stubProber{}, ImagesDir: "img", BaseURL: "/images"}
	cfgs := []PhotoConfig{
		{File: "c.jpg", Date: "2024-03-10"},
		{File: "a.jpg", Date: "2024-01-05"},
		{File: "b.jpg", Date: "2024-02-01"},
	}

	recs, err := l.Load(context.Background(), cfgs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("got %d records, want 3", len(recs))
	}
	for i, want := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		if recs[i].File != want {
			t.Errorf("recs[%d].File = %q, want %q", i, recs[i].File, want)
		}
		if recs[i].GlobalIndex != i {
			t.Errorf("recs[%d].GlobalIndex = %d, want %d", i, recs[i].GlobalIndex, i)
		}
	}
	for i := 1; i < len(recs); i++ {
		if recs[i].Date.Before(recs[i-1].Date) {
			t.Errorf("records not sorted ascending at %d", i)
		}
	}
	if recs[0].Src != "/images/a.jpg" {
		t.Errorf("Src = %q", recs[0].Src)
	}
}

func TestLoadDropsFailedDecodes(t *testing.T) {
	l := &Loader{
		Prober: &stubProber{fail: map[string]bool{"b.jpg": true}},
	}
	cfgs := []PhotoConfig{
		{File: "a.jpg", Date: "2024-01-05"},
		{File: "b.jpg", Date: "2024-03-10"},
	}

	recs, err := l.Load(context.Background(), cfgs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(recs) != 1 || recs[0].File != "a.jpg" {
		t.Fatalf("got %+v, want only a.jpg", recs)
	}
}

func TestLoadEffectiveDatePrecedence(t *testing.T) {
	exifTaken := time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)
	l := &Loader{
		Prober: &stubProber{exif: map[string]*Exif{
			"noconfig.jpg": {Taken: exifTaken},
			"both.jpg":     {Taken: exifTaken},
		}},
	}
	cfgs := []PhotoConfig{
		{File: "noconfig.jpg"},
		{File: "both.jpg", Date: "2024-01-05"},
	}

	recs, err := l.Load(context.Background(), cfgs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	byFile := map[string]PhotoRecord{}
	for _, r := range recs {
		byFile[r.File] = r
	}

	if got := byFile["noconfig.jpg"].Date; !got.Equal(exifTaken) {
		t.Errorf("exif date should fill missing config date, got %s", got)
	}
	want := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	if got := byFile["both.jpg"].Date; !got.Equal(want) {
		t.Errorf("config date must win over exif, got %s", got)
	}
}

func TestLoadDatelessFallsBackToModTime(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "undated.jpg")
	if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	mtime := time.Date(2023, 9, 14, 8, 0, 0, 0, time.UTC)
	if err := os.Chtimes(p, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	l := &Loader{Prober: &stubProber{}, ImagesDir: dir}
	recs, err := l.Load(context.Background(), []PhotoConfig{{File: "undated.jpg"}})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if !recs[0].Date.Equal(mtime) {
		t.Errorf("dateless record Date = %s, want file mtime %s", recs[0].Date, mtime)
	}
}

func TestLoadNeverProducesZeroDate(t *testing.T) {
	// No config date, no EXIF, and no file on disk either: the loader still
	// has to assign a usable date, or the timeline's contiguous month
	// sequence explodes back to year 1.
	l := &Loader{Prober: &stubProber{}, ImagesDir: t.TempDir()}
	cfgs := []PhotoConfig{
		{File: "ghost.jpg"},
		{File: "dated.jpg", Date: "2024-03-01"},
	}

	recs, err := l.Load(context.Background(), cfgs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	for _, r := range recs {
		if r.Date.IsZero() {
			t.Fatalf("%s carries the zero date", r.File)
		}
	}

	tl := BuildTimeline(recs, testNow)
	if len(tl.Buckets) > 1200 {
		t.Errorf("timeline spans %d buckets; a dateless record leaked a year-1 date", len(tl.Buckets))
	}
}

func TestLoadEmptyInput(t *testing.T) {
	l := &Loader{Prober: &stubProber{}}
	recs, err := l.Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("got %d records, want 0", len(recs))
	}
}

func TestLoadAllFail(t *testing.T) {
	l := &Loader{
		Prober: &stubProber{fail: map[string]bool{"a.jpg": true, "b.jpg": true}},
	}
	cfgs := []PhotoConfig{
		{File: "a.jpg", Date: "2024-01-05"},
		{File: "b.jpg", Date: "2024-03-10"},
	}
	recs, err := l.Load(context.Background(), cfgs)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("got %d records, want 0", len(recs))
	}
}

func TestLoadProgress(t *testing.T) {
	var mu sync.Mutex
	max := -1
	first := -1

	l := &Loader{Prober: &stubProber{}}
	l.OnProgress = func(loaded, total int) {
		mu.Lock()
		defer mu.Unlock()
		if first == -1 {
			first = loaded
		}
		if loaded > max {
			max = loaded
		}
		if total != 3 {
			t.Errorf("total = %d, want 3", total)
		}
	}

	cfgs := []PhotoConfig{
		{File: "a.jpg", Date: "2024-01-05"},
		{File: "b.jpg", Date: "2024-02-05"},
		{File: "c.jpg", Date: "2024-03-05"},
	}
	if _, err := l.Load(context.Background(), cfgs); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if first != 0 {
		t.Errorf("first progress call = %d, want 0", first)
	}
	if max != 3 {
		t.Errorf("final progress = %d, want 3", max)
	}
}
