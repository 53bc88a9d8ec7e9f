package gallery

import (
	"fmt"
	"math"
	"time"

	"k8s.io/klog/v2"
)

// Track height bounds keep the timeline visible without letting a burst month
// blow out the viewport.
const (
	minTrackHeight = 64
	maxTrackHeight = 220
	trackBasePad   = 36
	markerStep     = 14
)

// MonthBucket is one calendar month's slot on the timeline. Months with no
// photos still get a bucket so visual spacing stays uniform.
type MonthBucket struct {
	Key    string // "YYYY-MM"
	Year   int
	Month  time.Month
	Photos []PhotoRecord

	// YearBoundary marks January buckets and the first bucket overall;
	// these ticks render emphasized with a year label.
	YearBoundary bool
}

// Empty reports whether the bucket holds no photos.
func (b MonthBucket) Empty() bool {
	return len(b.Photos) == 0
}

// Label returns the tick caption: the year at year boundaries, the short
// month name otherwise. The active bucket always shows its month so adjacent
// ticks aren't redundantly labeled.
func (b MonthBucket) Label(active bool) string {
	if active || !b.YearBoundary {
		return b.Month.String()[:3]
	}
	return fmt.Sprintf("%d", b.Year)
}

// Timeline is the ordered, contiguous month sequence spanning a photo
// collection, plus the derived track geometry.
type Timeline struct {
	Buckets     []MonthBucket
	TrackHeight int

	builtYear  int
	builtMonth time.Month
}

func bucketKey(year int, month time.Month) string {
	return fmt.Sprintf("%04d-%02d", year, month)
}

// BuildTimeline groups a date-sorted photo collection into month buckets,
// filling calendar gaps with empty buckets. Rebuilding from the same records
// yields the same sequence.
func BuildTimeline(photos []PhotoRecord, now time.Time) *Timeline {
	t := &Timeline{builtYear: now.Year(), builtMonth: now.Month()}
	if len(photos) == 0 {
		return t
	}

	byKey := map[string][]PhotoRecord{}
	for _, p := range photos {
		k := bucketKey(p.Date.Year(), p.Date.Month())
		byKey[k] = append(byKey[k], p)
	}

	first := photos[0].Date
	last := photos[len(photos)-1].Date

	y, m := first.Year(), first.Month()
	lastY, lastM := last.Year(), last.Month()
	maxStack := 0

	for {
		k := bucketKey(y, m)
		b := MonthBucket{
			Key:          k,
			Year:         y,
			Month:        m,
			Photos:       byKey[k],
			YearBoundary: m == time.January || len(t.Buckets) == 0,
		}
		if len(b.Photos) > maxStack {
			maxStack = len(b.Photos)
		}
		t.Buckets = append(t.Buckets, b)

		if y == lastY && m == lastM {
			break
		}
		m++
		if m > time.December {
			m = time.January
			y++
		}
	}

	t.TrackHeight = trackHeight(maxStack)
	klog.V(1).Infof("timeline: %d buckets (%s .. %s), track height %d",
		len(t.Buckets), t.Buckets[0].Key, t.Buckets[len(t.Buckets)-1].Key, t.TrackHeight)
	return t
}

func trackHeight(maxStack int) int {
	h := trackBasePad + maxStack*markerStep
	if h < minTrackHeight {
		return minTrackHeight
	}
	if h > maxTrackHeight {
		return maxTrackHeight
	}
	return h
}

// BucketFor returns the index of the bucket containing the photo with the
// given global index, or -1.
func (t *Timeline) BucketFor(globalIndex int) int {
	for i, b := range t.Buckets {
		for _, p := range b.Photos {
			if p.GlobalIndex == globalIndex {
				return i
			}
		}
	}
	return -1
}

// FirstPhotoIn returns the global index of the first photo in a bucket,
// or -1 for empty or out-of-range buckets.
func (t *Timeline) FirstPhotoIn(bucket int) int {
	if bucket < 0 || bucket >= len(t.Buckets) || t.Buckets[bucket].Empty() {
		return -1
	}
	return t.Buckets[bucket].Photos[0].GlobalIndex
}

// Stale reports whether the wall clock has rolled into a new calendar month
// since the timeline was built. There is no calendar-change event, so callers
// poll this.
func (t *Timeline) Stale(now time.Time) bool {
	return now.Year() != t.builtYear || now.Month() != t.builtMonth
}

// TrackLayout is the horizontal geometry of the rendered track: fixed-width
// ticks separated by fixed gaps inside a scrolling viewport.
type TrackLayout struct {
	TickWidth     float64
	Gap           float64
	ViewportWidth float64
}

func (l TrackLayout) tickCenter(i int) float64 {
	return float64(i)*(l.TickWidth+l.Gap) + l.TickWidth/2
}

func (l TrackLayout) contentWidth(n int) float64 {
	if n == 0 {
		return 0
	}
	return float64(n)*l.TickWidth + float64(n-1)*l.Gap
}

// CenterOffset returns the scroll offset that centers a bucket's tick in the
// viewport, clamped to the scrollable range.
func (t *Timeline) CenterOffset(l TrackLayout, bucket int) float64 {
	off := l.tickCenter(bucket) - l.ViewportWidth/2
	max := l.contentWidth(len(t.Buckets)) - l.ViewportWidth
	if max < 0 {
		max = 0
	}
	return math.Min(math.Max(off, 0), max)
}

// NearestBucket returns the bucket whose tick center is closest to the
// viewport center at the given scroll offset. Pure geometry; no DOM scanning.
func (t *Timeline) NearestBucket(l TrackLayout, scrollOffset float64) int {
	n := len(t.Buckets)
	if n == 0 {
		return -1
	}
	center := scrollOffset + l.ViewportWidth/2
	i := int(math.Round((center - l.TickWidth/2) / (l.TickWidth + l.Gap)))
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}

// NearestOccupiedBucket is NearestBucket restricted to buckets that hold
// photos; scroll-driven selection can only land on a month that has one.
func (t *Timeline) NearestOccupiedBucket(l TrackLayout, scrollOffset float64) int {
	i := t.NearestBucket(l, scrollOffset)
	if i < 0 || !t.Buckets[i].Empty() {
		return i
	}
	best, bestDist := -1, math.MaxFloat64
	center := scrollOffset + l.ViewportWidth/2
	for j := range t.Buckets {
		if t.Buckets[j].Empty() {
			continue
		}
		d := math.Abs(l.tickCenter(j) - center)
		if d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}
