package gallery

import (
	"math"
	"time"
)

// Zoom bounds for the main photo pane. Double-tap toggles between baseline
// and DoubleTapZoom.
const (
	MinZoom       = 1.0
	MaxZoom       = 4.0
	DoubleTapZoom = 2.0
)

// Gesture thresholds. A swipe must cover minSwipeDistance within
// maxSwipeDuration or it is treated as a scroll/pan.
const (
	minSwipeDistance = 50.0
	maxSwipeDuration = 500 * time.Millisecond
	dismissDistance  = 120.0
	dismissVelocity  = 0.5 // px/ms
	gridBreakpoint   = 768.0
	snapBackDuration = 200 * time.Millisecond
)

// Point is a 2D offset in pixels.
type Point struct {
	X float64
	Y float64
}

// Size is a width/height pair in pixels.
type Size struct {
	W float64
	H float64
}

// Camera is the zoom/pan state of the main photo pane. The zero value is not
// valid; use BaseCamera.
type Camera struct {
	Zoom float64
	Pan  Point
}

// BaseCamera is the reset state every photo change returns to.
func BaseCamera() Camera {
	return Camera{Zoom: 1.0}
}

// fitted returns the displayed size of an image letterboxed into a container
// at zoom 1.
func fitted(img, container Size) Size {
	if img.W <= 0 || img.H <= 0 || container.W <= 0 || container.H <= 0 {
		return Size{}
	}
	scale := math.Min(container.W/img.W, container.H/img.H)
	return Size{W: img.W * scale, H: img.H * scale}
}

// PanBounds returns the maximum translation per axis: half the difference
// between the scaled image and the container, zero when the image fits.
func PanBounds(img, container Size, zoom float64) Point {
	f := fitted(img, container)
	return Point{
		X: math.Max(0, (f.W*zoom-container.W)/2),
		Y: math.Max(0, (f.H*zoom-container.H)/2),
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}

// Clamp constrains the camera's pan to the valid bounds for its zoom.
func (c Camera) Clamp(img, container Size) Camera {
	b := PanBounds(img, container, c.Zoom)
	c.Pan.X = clamp(c.Pan.X, -b.X, b.X)
	c.Pan.Y = clamp(c.Pan.Y, -b.Y, b.Y)
	return c
}

// ZoomTo changes zoom anchored at a point (in container coordinates relative
// to its center): the pixel under the anchor stays fixed while the scale
// changes. The result is clamped to the zoom range and pan bounds.
func (c Camera) ZoomTo(zoom float64, anchor Point, img, container Size) Camera {
	z := clamp(zoom, MinZoom, MaxZoom)
	if c.Zoom <= 0 {
		c = BaseCamera()
	}
	// The anchor maps to image point w = (anchor - pan) / zoom; solving
	// anchor = w*z' + pan' for pan' keeps it stationary.
	ratio := z / c.Zoom
	next := Camera{
		Zoom: z,
		Pan: Point{
			X: anchor.X - (anchor.X-c.Pan.X)*ratio,
			Y: anchor.Y - (anchor.Y-c.Pan.Y)*ratio,
		},
	}
	return next.Clamp(img, container)
}

// PanBy translates the camera, clamped so the image can never be dragged
// fully out of view.
func (c Camera) PanBy(d Point, img, container Size) Camera {
	c.Pan.X += d.X
	c.Pan.Y += d.Y
	return c.Clamp(img, container)
}

// SnapBack returns the nearest valid state for a released gesture: below
// minimum zoom collapses to baseline, out-of-bounds pan clamps. The front end
// animates to the result over SnapBackDuration.
func (c Camera) SnapBack(img, container Size) Camera {
	if c.Zoom < MinZoom {
		return BaseCamera()
	}
	if c.Zoom > MaxZoom {
		c.Zoom = MaxZoom
	}
	return c.Clamp(img, container)
}

// SnapBackDuration is the fixed transition length for snap-back animations.
func SnapBackDuration() time.Duration {
	return snapBackDuration
}

// DoubleTap toggles between baseline and DoubleTapZoom, anchored at the tap
// point.
func (c Camera) DoubleTap(anchor Point, img, container Size) Camera {
	if c.Zoom > MinZoom {
		return BaseCamera()
	}
	return c.ZoomTo(DoubleTapZoom, anchor, img, container)
}

// GestureKind classifies a completed single-touch gesture.
type GestureKind int

const (
	GestureNone GestureKind = iota
	SwipePrev               // rightward swipe: previous photo
	SwipeNext               // leftward swipe: next photo
	SwipeInfo               // upward swipe: open the metadata panel
	DragDismiss             // downward drag in mobile photo mode
)

// Gesture is a completed touch/pointer movement.
type Gesture struct {
	Start    Point
	End      Point
	Duration time.Duration
	Touches  int
}

// Classify maps a gesture to an action. Multi-touch always voids swipe
// interpretation, and a zoomed-in pane treats all single-touch motion as
// panning.
func Classify(g Gesture, zoomed bool) GestureKind {
	if g.Touches > 1 || zoomed {
		return GestureNone
	}
	if g.Duration > maxSwipeDuration {
		return GestureNone
	}
	dx := g.End.X - g.Start.X
	dy := g.End.Y - g.Start.Y

	if math.Abs(dx) >= math.Abs(dy) {
		if math.Abs(dx) < minSwipeDistance {
			return GestureNone
		}
		if dx > 0 {
			return SwipePrev
		}
		return SwipeNext
	}
	if math.Abs(dy) < minSwipeDistance {
		return GestureNone
	}
	if dy < 0 {
		return SwipeInfo
	}
	return DragDismiss
}

// ViewMode is the mobile presentation mode.
type ViewMode int

const (
	ModePhoto ViewMode = iota
	ModeGrid
)

// DefaultMode picks the initial presentation: touch devices below the width
// breakpoint start in the year-grouped grid.
func DefaultMode(viewportWidth float64, touch bool) ViewMode {
	if touch && viewportWidth < gridBreakpoint {
		return ModeGrid
	}
	return ModePhoto
}

// DismissDrag is an in-progress drag-down on the open mobile photo.
type DismissDrag struct {
	Distance float64 // downward travel in px
	Velocity float64 // px/ms at release
}

// Complete reports whether a released drag dismisses back to the grid, by
// distance or by flick velocity.
func (d DismissDrag) Complete() bool {
	return d.Distance > dismissDistance || d.Velocity > dismissVelocity
}

// Progress returns the interactive shrink scale and opacity for the photo
// while it is being dragged toward its grid cell.
func (d DismissDrag) Progress() (scale, opacity float64) {
	p := clamp(d.Distance/(dismissDistance*2), 0, 1)
	return 1 - 0.4*p, 1 - 0.7*p
}

// YearGroup is one section of the mobile grid.
type YearGroup struct {
	Year   int
	Photos []PhotoRecord
}

// GroupByYear splits a date-sorted collection into grid sections, most recent
// year first.
func GroupByYear(photos []PhotoRecord) []YearGroup {
	groups := []YearGroup{}
	for i := len(photos) - 1; i >= 0; i-- {
		y := photos[i].Date.Year()
		if len(groups) == 0 || groups[len(groups)-1].Year != y {
			groups = append(groups, YearGroup{Year: y})
		}
		g := &groups[len(groups)-1]
		g.Photos = append(g.Photos, photos[i])
	}
	return groups
}
