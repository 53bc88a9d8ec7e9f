package gallery

import (
	"reflect"
	"testing"
	"time"
)

func mkPhotos(t *testing.T, dates ...string) []PhotoRecord {
	t.Helper()
	recs := make([]PhotoRecord, len(dates))
	for i, d := range dates {
		dt, err := time.Parse(DateFormat, d)
		if err != nil {
			t.Fatalf("bad date %q: %v", d, err)
		}
		recs[i] = PhotoRecord{File: d + ".jpg", Date: dt, GlobalIndex: i}
	}
	return recs
}

var testNow = time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

func TestBuildTimelineFillsGaps(t *testing.T) {
	tl := BuildTimeline(mkPhotos(t, "2024-01-05", "2024-03-10"), testNow)

	want := []string{"2024-01", "2024-02", "2024-03"}
	if len(tl.Buckets) != len(want) {
		t.Fatalf("got %d buckets, want %d", len(tl.Buckets), len(want))
	}
	for i, k := range want {
		if tl.Buckets[i].Key != k {
			t.Errorf("bucket[%d].Key = %q, want %q", i, tl.Buckets[i].Key, k)
		}
	}
	for i, n := range []int{1, 0, 1} {
		if len(tl.Buckets[i].Photos) != n {
			t.Errorf("bucket[%d] has %d photos, want %d", i, len(tl.Buckets[i].Photos), n)
		}
	}
}

func TestBuildTimelineSinglePhoto(t *testing.T) {
	tl := BuildTimeline(mkPhotos(t, "2024-06-15"), testNow)
	if len(tl.Buckets) != 1 {
		t.Fatalf("got %d buckets, want 1", len(tl.Buckets))
	}
	if tl.Buckets[0].Key != "2024-06" {
		t.Errorf("Key = %q", tl.Buckets[0].Key)
	}
}

func TestBuildTimelineSpansYears(t *testing.T) {
	tl := BuildTimeline(mkPhotos(t, "2023-11-02", "2025-02-10"), testNow)

	if len(tl.Buckets) != 16 {
		t.Fatalf("got %d buckets, want 16", len(tl.Buckets))
	}
	for i := 1; i < len(tl.Buckets); i++ {
		prev, cur := tl.Buckets[i-1], tl.Buckets[i]
		wantM := prev.Month + 1
		wantY := prev.Year
		if wantM > time.December {
			wantM = time.January
			wantY++
		}
		if cur.Month != wantM || cur.Year != wantY {
			t.Errorf("bucket[%d] = %d-%d, want %d-%d", i, cur.Year, cur.Month, wantY, wantM)
		}
	}

	for i, b := range tl.Buckets {
		wantBoundary := i == 0 || b.Month == time.January
		if b.YearBoundary != wantBoundary {
			t.Errorf("bucket[%d] (%s) YearBoundary = %v", i, b.Key, b.YearBoundary)
		}
	}
}

func TestBuildTimelineIdempotent(t *testing.T) {
	photos := mkPhotos(t, "2024-01-05", "2024-05-10", "2024-05-12")
	a := BuildTimeline(photos, testNow)
	b := BuildTimeline(photos, testNow)
	if !reflect.DeepEqual(a.Buckets, b.Buckets) {
		t.Errorf("rebuild produced a different bucket sequence")
	}
}

func TestTrackHeightBounds(t *testing.T) {
	single := BuildTimeline(mkPhotos(t, "2024-06-15"), testNow)
	if single.TrackHeight != minTrackHeight {
		t.Errorf("single photo track height = %d, want %d", single.TrackHeight, minTrackHeight)
	}

	dates := make([]string, 30)
	for i := range dates {
		dates[i] = "2024-06-15"
	}
	burst := BuildTimeline(mkPhotos(t, dates...), testNow)
	if burst.TrackHeight != maxTrackHeight {
		t.Errorf("burst track height = %d, want clamp to %d", burst.TrackHeight, maxTrackHeight)
	}
}

func TestBucketLookups(t *testing.T) {
	tl := BuildTimeline(mkPhotos(t, "2024-01-05", "2024-03-10", "2024-03-12"), testNow)

	if got := tl.BucketFor(0); got != 0 {
		t.Errorf("BucketFor(0) = %d", got)
	}
	if got := tl.BucketFor(2); got != 2 {
		t.Errorf("BucketFor(2) = %d", got)
	}
	if got := tl.BucketFor(99); got != -1 {
		t.Errorf("BucketFor(99) = %d, want -1", got)
	}
	if got := tl.FirstPhotoIn(2); got != 1 {
		t.Errorf("FirstPhotoIn(2) = %d, want 1", got)
	}
	if got := tl.FirstPhotoIn(1); got != -1 {
		t.Errorf("FirstPhotoIn(empty) = %d, want -1", got)
	}
}

func TestStale(t *testing.T) {
	tl := BuildTimeline(mkPhotos(t, "2024-06-15"), testNow)
	if tl.Stale(testNow) {
		t.Errorf("timeline stale immediately after build")
	}
	if !tl.Stale(testNow.AddDate(0, 1, 0)) {
		t.Errorf("timeline not stale after month rollover")
	}
	if !tl.Stale(testNow.AddDate(1, 0, 0)) {
		t.Errorf("timeline not stale after year rollover")
	}
}

func TestLabel(t *testing.T) {
	tl := BuildTimeline(mkPhotos(t, "2023-12-20", "2024-02-01"), testNow)

	jan := tl.Buckets[1]
	if !jan.YearBoundary {
		t.Fatalf("january bucket not a year boundary")
	}
	if got := jan.Label(false); got != "2024" {
		t.Errorf("inactive boundary label = %q, want year", got)
	}
	if got := jan.Label(true); got != "Jan" {
		t.Errorf("active boundary label = %q, want month", got)
	}
	if got := tl.Buckets[2].Label(false); got != "Feb" {
		t.Errorf("plain label = %q, want Feb", got)
	}
}

func TestTrackGeometry(t *testing.T) {
	dates := []string{"2024-01-05", "2025-06-10"} // 18 buckets
	tl := BuildTimeline(mkPhotos(t, dates...), testNow)
	l := TrackLayout{TickWidth: 28, Gap: 8, ViewportWidth: 200}

	if got := tl.NearestBucket(l, 0); got != 2 {
		// viewport center at 100 is nearest tick 2 (center 86) over tick 3 (center 122)
		t.Errorf("NearestBucket(0) = %d, want 2", got)
	}

	for _, b := range []int{0, 5, 17} {
		off := tl.CenterOffset(l, b)
		if off < 0 {
			t.Fatalf("CenterOffset(%d) = %f, negative", b, off)
		}
		got := tl.NearestBucket(l, off)
		// Edge buckets can't be centered; the nearest tick may clamp.
		if b != 0 && b != 17 && got != b {
			t.Errorf("round trip bucket %d -> offset %f -> %d", b, off, got)
		}
	}

	if got := tl.NearestBucket(l, 1e9); got != 17 {
		t.Errorf("NearestBucket(far) = %d, want last", got)
	}
}

func TestNearestOccupiedBucket(t *testing.T) {
	tl := BuildTimeline(mkPhotos(t, "2024-01-05", "2024-06-10"), testNow)
	l := TrackLayout{TickWidth: 28, Gap: 8, ViewportWidth: 60}

	// Center over an empty middle bucket; only buckets 0 and 5 are occupied.
	off := tl.CenterOffset(l, 2)
	got := tl.NearestOccupiedBucket(l, off)
	if got != 0 && got != 5 {
		t.Fatalf("NearestOccupiedBucket landed on empty bucket %d", got)
	}
	if tl.Buckets[got].Empty() {
		t.Fatalf("bucket %d is empty", got)
	}
}
