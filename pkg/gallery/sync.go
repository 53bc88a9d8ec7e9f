package gallery

import (
	"net/url"
	"strconv"
	"time"

	"k8s.io/klog/v2"
)

// Phase is the synchronizer's mode. Programmatic transitions carry an expiry
// (the guard window) past which user scrolling is trusted again.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseProgrammatic
	PhaseUserScroll
)

// Clock abstracts time so guard-window logic is testable without sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// HistoryEntry is the state pushed into browser history for back/forward
// restoration.
type HistoryEntry struct {
	PhotoIndex int `json:"photoIndex"`
}

// History records navigation for deep-linking and back/forward.
type History interface {
	Push(HistoryEntry)
}

type nopHistory struct{}

func (nopHistory) Push(HistoryEntry) {}

// ScrollBehavior tells the renderer how to move the timeline. Keyboard,
// marker and history navigation position instantly so rapid repeats don't
// queue conflicting animations; only the initial load and settle snaps are
// smooth.
type ScrollBehavior int

const (
	ScrollNone ScrollBehavior = iota
	ScrollInstant
	ScrollSmooth
)

// Trigger identifies what requested a navigation.
type Trigger int

const (
	TriggerInitial Trigger = iota
	TriggerButton
	TriggerKey
	TriggerMarker
	TriggerSwipe
	TriggerHistory
)

// RenderPlan is the one-way projection of a state change: which photo to
// show, which tick/marker is active, and how to move the track. Exactly one
// tick and one marker are active at a time.
type RenderPlan struct {
	Index        int
	Bucket       int
	Fade         bool
	Scroll       ScrollBehavior
	ScrollOffset float64
}

// ViewState is the synchronizer's owned state. Other components read it or
// request changes through the synchronizer, never mutate it directly.
type ViewState struct {
	CurrentIndex int
	Camera       Camera
	Mode         ViewMode

	// InfoOpen is whether the metadata panel is showing. Swiping up opens
	// it; any navigation closes it.
	InfoOpen bool
}

// SyncConfig carries the timing knobs. GuardWindow is how long after a
// programmatic scroll user scroll events stay suppressed; it must outlast the
// scroll's settling or feedback loops return. ScrollSettle is the quiet period
// callers wait after the last scroll event before calling HandleScrollStop.
type SyncConfig struct {
	GuardWindow    time.Duration
	ScrollThrottle time.Duration
	ScrollSettle   time.Duration
}

func (c SyncConfig) withDefaults() SyncConfig {
	if c.GuardWindow == 0 {
		c.GuardWindow = 2 * time.Second
	}
	if c.ScrollThrottle == 0 {
		c.ScrollThrottle = 50 * time.Millisecond
	}
	if c.ScrollSettle == 0 {
		c.ScrollSettle = 150 * time.Millisecond
	}
	return c
}

// SyncOptions configures a Synchronizer. Zero values get sane defaults.
type SyncOptions struct {
	Layout  TrackLayout
	Config  SyncConfig
	Clock   Clock
	History History
}

// Synchronizer keeps the photo pane, timeline scroll position and history
// mutually consistent without feedback between scroll-driven and index-driven
// updates.
type Synchronizer struct {
	photos   []PhotoRecord
	timeline *Timeline
	layout   TrackLayout
	cfg      SyncConfig
	clock    Clock
	history  History

	phase          Phase
	guardUntil     time.Time
	lastScrollEval time.Time
	scrollOrigin   int // CurrentIndex when the active scroll sequence began
	initialized    bool
	state          ViewState
}

// NewSynchronizer builds a synchronizer over a loaded, date-sorted
// collection and its timeline.
func NewSynchronizer(photos []PhotoRecord, tl *Timeline, opts SyncOptions) *Synchronizer {
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	if opts.History == nil {
		opts.History = nopHistory{}
	}
	return &Synchronizer{
		photos:   photos,
		timeline: tl,
		layout:   opts.Layout,
		cfg:      opts.Config.withDefaults(),
		clock:    opts.Clock,
		history:  opts.History,
		state:    ViewState{Camera: BaseCamera()},
	}
}

// State returns a copy of the current view state.
func (s *Synchronizer) State() ViewState {
	return s.state
}

// Phase reports the synchronizer's mode; an expired guard decays to idle.
func (s *Synchronizer) Phase() Phase {
	if s.phase == PhaseProgrammatic && !s.clock.Now().Before(s.guardUntil) {
		return PhaseIdle
	}
	return s.phase
}

// SettleDelay returns how long a caller should wait after the last scroll
// event before invoking HandleScrollStop.
func (s *Synchronizer) SettleDelay() time.Duration {
	return s.cfg.ScrollSettle
}

// ActiveBucket returns the timeline bucket for the current photo, or -1 when
// the collection is empty.
func (s *Synchronizer) ActiveBucket() int {
	if len(s.photos) == 0 {
		return -1
	}
	return s.timeline.BucketFor(s.state.CurrentIndex)
}

// DeepLinkIndex parses the ?photo= query parameter (1-indexed for humans)
// into a 0-based index, or -1 when absent or out of range.
func DeepLinkIndex(query url.Values, n int) int {
	raw := query.Get("photo")
	if raw == "" {
		return -1
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		klog.V(1).Infof("ignoring deep link %q: %v", raw, err)
		return -1
	}
	i := v - 1
	if i < 0 || i >= n {
		klog.V(1).Infof("ignoring out-of-range deep link %d (have %d photos)", v, n)
		return -1
	}
	return i
}

// Init shows the initial photo: the deep-linked one when valid, otherwise
// the most recent. The initial track positioning is the one smooth scroll.
func (s *Synchronizer) Init(query url.Values, viewportWidth float64, touch bool) (RenderPlan, bool) {
	if len(s.photos) == 0 {
		return RenderPlan{}, false
	}
	s.state.Mode = DefaultMode(viewportWidth, touch)

	target := DeepLinkIndex(query, len(s.photos))
	if target < 0 {
		target = len(s.photos) - 1
	}
	return s.GoTo(target, TriggerInitial)
}

// GoTo navigates to a photo index. Out-of-range targets and repeats of the
// current index are no-ops; a successful transition resets zoom/pan, pushes
// history, and arms the guard window before the track is moved.
func (s *Synchronizer) GoTo(target int, trigger Trigger) (RenderPlan, bool) {
	if len(s.photos) == 0 {
		return RenderPlan{}, false
	}
	if target < 0 || target >= len(s.photos) {
		return RenderPlan{}, false
	}
	if s.initialized && target == s.state.CurrentIndex {
		return RenderPlan{}, false
	}

	// The guard must be armed before the caller issues the scroll this
	// plan requests, or the scroll handler reacts to its own command.
	s.phase = PhaseProgrammatic
	s.guardUntil = s.clock.Now().Add(s.cfg.GuardWindow)

	s.state.CurrentIndex = target
	s.state.Camera = BaseCamera()
	s.state.InfoOpen = false
	s.initialized = true

	if trigger != TriggerHistory && trigger != TriggerInitial {
		s.history.Push(HistoryEntry{PhotoIndex: target})
	}

	behavior := ScrollInstant
	if trigger == TriggerInitial {
		behavior = ScrollSmooth
	}

	bucket := s.timeline.BucketFor(target)
	klog.V(1).Infof("navigate to photo %d (bucket %d, trigger %d)", target, bucket, trigger)
	return RenderPlan{
		Index:        target,
		Bucket:       bucket,
		Fade:         true,
		Scroll:       behavior,
		ScrollOffset: s.timeline.CenterOffset(s.layout, bucket),
	}, true
}

// Next advances one photo; a no-op at the last index.
func (s *Synchronizer) Next(trigger Trigger) (RenderPlan, bool) {
	return s.GoTo(s.state.CurrentIndex+1, trigger)
}

// Prev steps back one photo; a no-op at index 0.
func (s *Synchronizer) Prev(trigger Trigger) (RenderPlan, bool) {
	if s.state.CurrentIndex == 0 {
		return RenderPlan{}, false
	}
	return s.GoTo(s.state.CurrentIndex-1, trigger)
}

// Restore applies a history entry (back/forward). Invalid entries are
// ignored.
func (s *Synchronizer) Restore(e HistoryEntry) (RenderPlan, bool) {
	return s.GoTo(e.PhotoIndex, TriggerHistory)
}

// HandleScroll processes one user scroll event. Events inside the guard
// window are ignored entirely; past it, the nearest occupied tick is computed
// at most once per throttle interval, and a month change jumps the photo to
// that month's first photo without recentering the track.
func (s *Synchronizer) HandleScroll(offset float64) (RenderPlan, bool) {
	if len(s.photos) == 0 {
		return RenderPlan{}, false
	}
	now := s.clock.Now()
	if now.Before(s.guardUntil) {
		return RenderPlan{}, false
	}
	if now.Sub(s.lastScrollEval) < s.cfg.ScrollThrottle {
		return RenderPlan{}, false
	}
	s.lastScrollEval = now
	if s.phase != PhaseUserScroll {
		s.scrollOrigin = s.state.CurrentIndex
	}
	s.phase = PhaseUserScroll

	b := s.timeline.NearestOccupiedBucket(s.layout, offset)
	if b < 0 || b == s.timeline.BucketFor(s.state.CurrentIndex) {
		return RenderPlan{}, false
	}

	idx := s.timeline.FirstPhotoIn(b)
	s.state.CurrentIndex = idx
	s.state.Camera = BaseCamera()
	return RenderPlan{Index: idx, Bucket: b, Fade: true, Scroll: ScrollNone}, true
}

// HandleScrollStop runs after the settle debounce: it snaps the track to
// center the nearest tick with a smooth animation and performs one final
// index update. History records the scroll sequence as a whole: one entry at
// settle when the index moved since the sequence began, no matter which
// throttled event applied the jump. The snap is itself programmatic, so the
// guard re-arms.
func (s *Synchronizer) HandleScrollStop(offset float64) (RenderPlan, bool) {
	if len(s.photos) == 0 {
		return RenderPlan{}, false
	}
	now := s.clock.Now()
	if now.Before(s.guardUntil) {
		return RenderPlan{}, false
	}

	b := s.timeline.NearestOccupiedBucket(s.layout, offset)
	if b < 0 {
		return RenderPlan{}, false
	}

	origin := s.state.CurrentIndex
	if s.phase == PhaseUserScroll {
		origin = s.scrollOrigin
	}

	fade := false
	if idx := s.timeline.FirstPhotoIn(b); idx != s.state.CurrentIndex && b != s.timeline.BucketFor(s.state.CurrentIndex) {
		s.state.CurrentIndex = idx
		s.state.Camera = BaseCamera()
		fade = true
	}
	if s.state.CurrentIndex != origin {
		s.history.Push(HistoryEntry{PhotoIndex: s.state.CurrentIndex})
	}

	s.phase = PhaseProgrammatic
	s.guardUntil = now.Add(s.cfg.GuardWindow)

	return RenderPlan{
		Index:        s.state.CurrentIndex,
		Bucket:       b,
		Fade:         fade,
		Scroll:       ScrollSmooth,
		ScrollOffset: s.timeline.CenterOffset(s.layout, b),
	}, true
}

// Zoom adjusts the camera anchored at a gesture center.
func (s *Synchronizer) Zoom(zoom float64, anchor Point, img, container Size) Camera {
	s.state.Camera = s.state.Camera.ZoomTo(zoom, anchor, img, container)
	return s.state.Camera
}

// Pan drags the zoomed photo, clamped to the pan bounds.
func (s *Synchronizer) Pan(d Point, img, container Size) Camera {
	s.state.Camera = s.state.Camera.PanBy(d, img, container)
	return s.state.Camera
}

// ReleaseGesture snaps the camera back to the nearest valid state after a
// pinch or drag ends.
func (s *Synchronizer) ReleaseGesture(img, container Size) Camera {
	s.state.Camera = s.state.Camera.SnapBack(img, container)
	return s.state.Camera
}

// DoubleTap toggles the camera between baseline and double-tap zoom.
func (s *Synchronizer) DoubleTap(anchor Point, img, container Size) Camera {
	s.state.Camera = s.state.Camera.DoubleTap(anchor, img, container)
	return s.state.Camera
}

// Swipe classifies a completed gesture and applies it: horizontal swipes
// navigate, an upward swipe opens the metadata panel. Swipes are only honored
// at baseline zoom.
func (s *Synchronizer) Swipe(g Gesture) (RenderPlan, bool) {
	switch Classify(g, s.state.Camera.Zoom > MinZoom) {
	case SwipePrev:
		return s.Prev(TriggerSwipe)
	case SwipeNext:
		return s.Next(TriggerSwipe)
	case SwipeInfo:
		s.state.InfoOpen = true
		return RenderPlan{
			Index:  s.state.CurrentIndex,
			Bucket: s.ActiveBucket(),
			Scroll: ScrollNone,
		}, true
	default:
		return RenderPlan{}, false
	}
}

// EnterPhoto leaves grid mode at the tapped photo.
func (s *Synchronizer) EnterPhoto(target int) (RenderPlan, bool) {
	s.state.Mode = ModePhoto
	return s.GoTo(target, TriggerMarker)
}

// ReleaseDismiss finishes a drag-down: past the threshold the view returns
// to the grid, otherwise the photo springs back.
func (s *Synchronizer) ReleaseDismiss(d DismissDrag) bool {
	if d.Complete() {
		s.state.Mode = ModeGrid
		return true
	}
	return false
}
