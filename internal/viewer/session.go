package viewer

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"go.uber.org/atomic"

	"storypanel/internal/models"
	"storypanel/internal/providers"
)

const (
	DefaultTickInterval = 50 * time.Millisecond

	// previous-zone share of the surface width
	previousZone = 1.0 / 3.0
	// hit radius around an element anchor, as a fraction of the frame
	elementHitRadius = 0.08
)

var ErrAlreadyRunning = errors.New("viewer: session timer already running")

// Tracker receives open signals. Implementations must not block.
type Tracker interface {
	TrackSlideOpen(ctx context.Context, slideID int)
	TrackGroupOpen(ctx context.Context, groupID int)
}

// Opener opens external links from link elements.
type Opener interface {
	Open(url string) error
}

// AssetResolver turns stored image references into fetchable URLs.
type AssetResolver interface {
	AssetURL(ref string) string
}

type Options struct {
	StartGroup   int
	TickInterval time.Duration
	Tracker      Tracker
	Opener       Opener
	Assets       AssetResolver
	Clock        Clock
	OnClose      func()
	Logger       providers.Logger
	Metrics      providers.MetricsProviderInterface
}

type noopTracker struct{}

func (noopTracker) TrackSlideOpen(context.Context, int) {}
func (noopTracker) TrackGroupOpen(context.Context, int) {}

type noopOpener struct{}

func (noopOpener) Open(string) error { return nil }

type identityAssets struct{}

func (identityAssets) AssetURL(ref string) string { return ref }

// Session plays a list of groups once, front to back. It owns exactly one
// auto-advance timer; every slide change starts a new timer generation and
// ticks from older generations are dropped.
type Session struct {
	mu        sync.Mutex
	groups    []models.StoryGroup
	interval  time.Duration
	tracker   Tracker
	opener    Opener
	assets    AssetResolver
	clock     Clock
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
	onClose   func()
	listeners []func(Frame, bool)

	groupIndex int
	slideIndex int
	elapsed    int
	needed     int
	seenGroups map[int]bool

	ctx        context.Context
	cancel     context.CancelFunc
	closed     atomic.Bool
	running    atomic.Bool
	generation atomic.Uint64
	restart    chan struct{}
}

type effects struct {
	enteredSlide bool
	slideID      int
	enteredGroup bool
	groupID      int
	changed      bool
	closed       bool
}

// NewSession starts playback at the first slide of opts.StartGroup (clamped
// to the list). The slide is entered immediately, so its open is tracked
// before the first tick. Cancelling ctx cancels pending tracking calls but
// does not close the session.
func NewSession(ctx context.Context, groups []models.StoryGroup, opts Options) *Session {
	s := &Session{
		groups:     cloneGroups(groups),
		interval:   opts.TickInterval,
		tracker:    opts.Tracker,
		opener:     opts.Opener,
		assets:     opts.Assets,
		clock:      opts.Clock,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		onClose:    opts.OnClose,
		seenGroups: make(map[int]bool),
		restart:    make(chan struct{}, 1),
	}
	if s.interval <= 0 {
		s.interval = DefaultTickInterval
	}
	if s.tracker == nil {
		s.tracker = noopTracker{}
	}
	if s.opener == nil {
		s.opener = noopOpener{}
	}
	if s.assets == nil {
		s.assets = identityAssets{}
	}
	if s.clock == nil {
		s.clock = RealClock()
	}
	if s.logger == nil {
		s.logger = providers.NewNopLogger()
	}
	if s.metrics == nil {
		s.metrics = providers.NewNoopMetrics()
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	if len(s.groups) > 0 {
		s.groupIndex = min(max(opts.StartGroup, 0), len(s.groups)-1)
	}
	s.apply(func(fx *effects) {
		s.enter(fx, s.groupIndex, 0)
	})
	return s
}

func cloneGroups(groups []models.StoryGroup) []models.StoryGroup {
	out := make([]models.StoryGroup, len(groups))
	for i := range groups {
		out[i] = groups[i]
		out[i].Slides = append([]models.Slide(nil), groups[i].Slides...)
	}
	return out
}

// OnChange registers a listener called after every state change with the
// new frame; ok is false once nothing is shown anymore.
func (s *Session) OnChange(fn func(frame Frame, ok bool)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) Frame() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameLocked()
}

// Position returns the current group and slide indexes.
func (s *Session) Position() (group, slide int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.groupIndex, s.slideIndex
}

// Progress is the current slide's progress in percent.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress()
}

func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Done is closed when the session ends.
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

func (s *Session) progress() float64 {
	if s.needed <= 0 {
		return 0
	}
	return min(float64(s.elapsed)*100/float64(s.needed), 100)
}

// Tick advances the current slide's progress by one timer interval. When the
// slide's duration is reached it moves to the next slide.
func (s *Session) Tick() {
	s.tickGeneration(s.generation.Load())
}

func (s *Session) tickGeneration(gen uint64) {
	s.apply(func(fx *effects) {
		if gen != s.generation.Load() || s.needed <= 0 {
			return
		}
		s.elapsed++
		fx.changed = true
		if s.elapsed >= s.needed {
			// stop this generation before advancing so a late tick cannot fire twice
			s.generation.Inc()
			s.next(fx)
		}
	})
}

func (s *Session) AdvanceNext() {
	s.apply(s.next)
}

func (s *Session) AdvancePrevious() {
	s.apply(s.previous)
}

// TapZone navigates from a tap at horizontal fraction x of the surface: the
// left third goes back, the rest goes forward.
func (s *Session) TapZone(x float64) {
	if x < previousZone {
		s.AdvancePrevious()
		return
	}
	s.AdvanceNext()
}

// Tap handles a tap at (x, y), both fractions of the frame. Taps on an
// interactive element are consumed by it and never navigate.
func (s *Session) Tap(x, y float64) {
	if idx, ok := s.hitElement(x, y); ok {
		s.ActivateElement(idx)
		return
	}
	s.TapZone(x)
}

func (s *Session) hitElement(x, y float64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	slide := s.currentSlide()
	if slide == nil {
		return 0, false
	}
	for i := len(slide.Elements) - 1; i >= 0; i-- {
		el := slide.Elements[i]
		if !el.Interactive() {
			continue
		}
		if math.Hypot(el.X/100-x, el.Y/100-y) <= elementHitRadius {
			return i, true
		}
	}
	return 0, false
}

// ActivateElement handles a tap on an element of the current slide. A link
// opens its URL; sliders and text are inert. Playback state never changes.
func (s *Session) ActivateElement(index int) bool {
	s.mu.Lock()
	slide := s.currentSlide()
	if s.closed.Load() || slide == nil || index < 0 || index >= len(slide.Elements) {
		s.mu.Unlock()
		return false
	}
	el := slide.Elements[index]
	s.mu.Unlock()

	if el.Type != models.ElementLink || el.URL == "" {
		return false
	}
	if err := s.opener.Open(el.URL); err != nil {
		s.logger.Warnf(providers.TypePlayer, "opening %s failed: %v", el.URL, err)
		return false
	}
	return true
}

// Close ends the session. Safe to call more than once.
func (s *Session) Close() {
	s.apply(s.close)
}

// Run drives Tick from the clock until ctx is done or the session closes.
func (s *Session) Run(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer s.running.Store(false)

	// the ticker below already starts from the current generation
	select {
	case <-s.restart:
	default:
	}
	gen := s.generation.Load()
	ticker := s.clock.NewTicker(s.interval)
	defer func() { ticker.Stop() }()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.ctx.Done():
			return nil
		case <-s.restart:
			ticker.Stop()
			gen = s.generation.Load()
			ticker = s.clock.NewTicker(s.interval)
		case <-ticker.Chan():
			s.tickGeneration(gen)
		}
	}
}

func (s *Session) currentSlide() *models.Slide {
	if s.groupIndex < 0 || s.groupIndex >= len(s.groups) {
		return nil
	}
	g := &s.groups[s.groupIndex]
	if s.slideIndex < 0 || s.slideIndex >= len(g.Slides) {
		return nil
	}
	return &g.Slides[s.slideIndex]
}

// apply runs a transition under the lock, then performs its side effects
// outside of it. Closed sessions ignore every transition.
func (s *Session) apply(transition func(*effects)) {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return
	}
	var fx effects
	transition(&fx)
	frame, ok := s.frameLocked()
	listeners := append([]func(Frame, bool){}, s.listeners...)
	s.mu.Unlock()

	if fx.enteredGroup {
		s.tracker.TrackGroupOpen(s.ctx, fx.groupID)
	}
	if fx.enteredSlide {
		s.tracker.TrackSlideOpen(s.ctx, fx.slideID)
		s.metrics.IncSlidesShown()
	}
	if fx.changed {
		for _, fn := range listeners {
			fn(frame, ok)
		}
	}
	if fx.closed {
		s.cancel()
		if s.onClose != nil {
			s.onClose()
		}
	}
}

// enter moves to (group, slide), resets progress and starts a new timer
// generation. Must hold mu.
func (s *Session) enter(fx *effects, group, slide int) {
	s.groupIndex, s.slideIndex = group, slide
	s.elapsed = 0
	s.needed = 0
	s.generation.Inc()
	select {
	case s.restart <- struct{}{}:
	default:
	}
	fx.changed = true

	cur := s.currentSlide()
	if cur == nil {
		return
	}
	s.needed = ticksFor(cur.DurationSeconds(), s.interval)
	fx.enteredSlide = true
	fx.slideID = cur.ID

	g := &s.groups[group]
	if !s.seenGroups[g.ID] {
		s.seenGroups[g.ID] = true
		fx.enteredGroup = true
		fx.groupID = g.ID
	}
	s.logger.Debugf(providers.TypePlayer, "group %d slide %d (id %d) for %ds", group, slide, cur.ID, cur.DurationSeconds())
}

// ticksFor is how many intervals make up the slide duration.
func ticksFor(seconds int, interval time.Duration) int {
	total := time.Duration(seconds) * time.Second
	return max(int((total+interval-1)/interval), 1)
}

func (s *Session) next(fx *effects) {
	if len(s.groups) == 0 {
		s.close(fx)
		return
	}
	if s.slideIndex+1 < len(s.groups[s.groupIndex].Slides) {
		s.enter(fx, s.groupIndex, s.slideIndex+1)
		return
	}
	for g := s.groupIndex + 1; g < len(s.groups); g++ {
		if len(s.groups[g].Slides) > 0 {
			s.enter(fx, g, 0)
			return
		}
	}
	s.close(fx)
}

func (s *Session) previous(fx *effects) {
	if len(s.groups) == 0 {
		return
	}
	if s.slideIndex > 0 {
		s.enter(fx, s.groupIndex, s.slideIndex-1)
		return
	}
	for g := s.groupIndex - 1; g >= 0; g-- {
		if n := len(s.groups[g].Slides); n > 0 {
			s.enter(fx, g, n-1)
			return
		}
	}
}

func (s *Session) close(fx *effects) {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	s.generation.Inc()
	fx.closed = true
	fx.changed = true
	s.logger.Debugf(providers.TypePlayer, "session closed at group %d slide %d", s.groupIndex, s.slideIndex)
}
