package gallery

import (
	"context"
	"fmt"
	"time"

	"k8s.io/klog/v2"
)

// Build runs the full pipeline: scan the images directory, load every photo
// concurrently, generate thumbnails, and bucket the result into a timeline.
func Build(ctx context.Context, c *Config) (*Gallery, error) {
	klog.Infof("build: %s -> %s", c.ImagesDir, c.OutDir)

	cfgs, err := Scan(c.ImagesDir)
	if err != nil {
		return nil, fmt.Errorf("scan: %w", err)
	}

	prober, err := NewFileProber()
	if err != nil {
		return nil, fmt.Errorf("prober: %w", err)
	}
	defer func() {
		if err := prober.Close(); err != nil {
			klog.Errorf("close prober: %v", err)
		}
	}()

	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = "/images"
	}

	loader := &Loader{
		Prober:    prober,
		ImagesDir: c.ImagesDir,
		BaseURL:   baseURL,
		OnProgress: func(loaded, total int) {
			klog.V(1).Infof("loading photos (%d/%d)", loaded, total)
		},
	}
	recs, err := loader.Load(ctx, cfgs)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	if c.OutDir != "" {
		for i := range recs {
			recs[i].Thumbs, err = Thumbnails(c, &recs[i])
			if err != nil {
				return nil, fmt.Errorf("thumbnails: %w", err)
			}
		}
	}

	now := time.Now()
	return &Gallery{
		Photos:   recs,
		Timeline: BuildTimeline(recs, now),
		BuiltAt:  now,
	}, nil
}
