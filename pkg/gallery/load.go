package gallery

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"k8s.io/klog/v2"
)

// Progress reports how many photos have settled out of the total. Settled
// includes failures; the counter is for display only.
type Progress func(loaded, total int)

// Loader resolves a declared photo list into loaded records. Individual
// failures are dropped and logged, never fatal to the batch.
type Loader struct {
	Prober     Prober
	ImagesDir  string
	BaseURL    string
	OnProgress Progress
}

// Load probes every config entry concurrently, waits for all attempts to
// settle, and returns the successful subset sorted ascending by effective
// date with GlobalIndex assigned. An empty result is not an error.
func (l *Loader) Load(ctx context.Context, cfgs []PhotoConfig) ([]PhotoRecord, error) {
	total := len(cfgs)
	if total == 0 {
		klog.Infof("no photos configured")
		return nil, nil
	}

	type outcome struct {
		rec PhotoRecord
		ok  bool
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		settled int
	)
	results := make([]outcome, total)

	if l.OnProgress != nil {
		l.OnProgress(0, total)
	}

	for idx, cfg := range cfgs {
		wg.Add(1)
		go func(idx int, cfg PhotoConfig) {
			defer wg.Done()
			defer func() {
				mu.Lock()
				settled++
				n := settled
				mu.Unlock()
				if l.OnProgress != nil {
					l.OnProgress(n, total)
				}
			}()

			if err := ctx.Err(); err != nil {
				klog.V(1).Infof("skipping %s: %v", cfg.File, err)
				return
			}

			rec, err := l.load(cfg)
			if err != nil {
				klog.Errorf("failed to load %s: %v", cfg.File, err)
				return
			}
			results[idx] = outcome{rec: rec, ok: true}
		}(idx, cfg)
	}
	wg.Wait()

	recs := []PhotoRecord{}
	for _, o := range results {
		if o.ok {
			recs = append(recs, o.rec)
		}
	}
	klog.Infof("loaded %d of %d photos", len(recs), total)

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].Date.Before(recs[j].Date)
	})
	for i := range recs {
		recs[i].GlobalIndex = i
	}

	return recs, nil
}

func (l *Loader) load(cfg PhotoConfig) (PhotoRecord, error) {
	p := filepath.Join(l.ImagesDir, cfg.File)
	res, err := l.Prober.Probe(p)
	if err != nil {
		return PhotoRecord{}, err
	}

	rec := PhotoRecord{
		File:   cfg.File,
		Width:  res.Width,
		Height: res.Height,
		Src:    l.BaseURL + "/" + cfg.File,
		Exif:   res.Exif,
	}
	rec.Date = effectiveDate(cfg, res.Exif, p)

	klog.V(1).Infof("loaded %s (%dx%d, taken %s)", cfg.File, rec.Width, rec.Height, rec.Date.Format(DateFormat))
	return rec, nil
}

// effectiveDate resolves a record's date: the config date is authoritative
// when present, the EXIF capture date only fills the gap. Dateless files fall
// back to their modification time, then the current time, so no record ever
// carries the zero date: a year-1 record would stretch the timeline's
// contiguous month sequence across two millennia of empty buckets.
func effectiveDate(cfg PhotoConfig, e *Exif, path string) time.Time {
	if cfg.Date != "" {
		d, err := time.Parse(DateFormat, cfg.Date)
		if err == nil {
			return d
		}
		klog.Warningf("bad date %q for %s: %v", cfg.Date, cfg.File, err)
	}
	if e != nil && !e.Taken.IsZero() {
		return e.Taken
	}
	if fi, err := os.Stat(path); err == nil {
		return fi.ModTime()
	}
	klog.Warningf("no date for %s, using the current time", cfg.File)
	return time.Now()
}
