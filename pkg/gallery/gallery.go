// Package gallery builds and drives a photo timeline gallery: it loads photo
// collections with their EXIF metadata, buckets them into a month-by-month
// timeline, and keeps the photo pane, timeline position, and browser history
// in sync during navigation.
package gallery

import "time"

// Config holds configuration for a gallery build.
type Config struct {
	Thumbnails  map[string]ThumbOpts
	ImagesDir   string
	OutDir      string
	Title       string
	Description string

	// BaseURL is the web path prefix photos are served under, e.g. "/images".
	BaseURL string
}

// Gallery is a fully assembled gallery: the loaded photo collection plus its
// timeline, ready for rendering or serving.
type Gallery struct {
	Photos   []PhotoRecord
	Timeline *Timeline
	BuiltAt  time.Time
}
