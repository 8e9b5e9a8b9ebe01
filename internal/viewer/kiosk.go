package viewer

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"storypanel/internal/models"
	"storypanel/internal/providers"
)

const defaultIdleWait = 5 * time.Second

// GroupSource hands out the groups a new session should play.
type GroupSource interface {
	Groups() []models.StoryGroup
}

// Kiosk plays the playlist in a loop: whenever a session reaches its end a
// new one starts from the source's current groups, so refreshed content is
// picked up at the next loop.
type Kiosk struct {
	source GroupSource
	opts   Options
	idle   time.Duration
	logger providers.Logger

	mu      sync.RWMutex
	current *Session
	loops   atomic.Int64
}

// NewKiosk builds a looping player. While the source has nothing to play it
// retries every idle interval.
func NewKiosk(source GroupSource, opts Options, idle time.Duration) *Kiosk {
	if idle <= 0 {
		idle = defaultIdleWait
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	logger := opts.Logger
	if logger == nil {
		logger = providers.NewNopLogger()
	}
	return &Kiosk{
		source: source,
		opts:   opts,
		idle:   idle,
		logger: logger,
	}
}

// Current is the session on screen, nil until the playlist had something to play.
func (k *Kiosk) Current() *Session {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.current
}

// Loops counts the sessions that had something to play.
func (k *Kiosk) Loops() int64 {
	return k.loops.Load()
}

// Run blocks until ctx is done.
func (k *Kiosk) Run(ctx context.Context) error {
	for ctx.Err() == nil {
		groups := k.source.Groups()
		if !playable(groups) {
			k.logger.Debugf(providers.TypePlayer, "Playlist empty, retrying in %s", k.idle)
			k.wait(ctx)
			continue
		}

		s := NewSession(ctx, groups, k.opts)
		if _, ok := s.Frame(); !ok {
			// start group has no slides
			s.AdvanceNext()
		}
		k.mu.Lock()
		k.current = s
		k.mu.Unlock()

		loop := k.loops.Inc()
		k.logger.Debugf(providers.TypePlayer, "Kiosk loop %d started", loop)
		if err := s.Run(ctx); err != nil && ctx.Err() == nil {
			return err
		}
	}
	if s := k.Current(); s != nil {
		s.Close()
	}
	return nil
}

func playable(groups []models.StoryGroup) bool {
	for i := range groups {
		if len(groups[i].Slides) > 0 {
			return true
		}
	}
	return false
}

func (k *Kiosk) wait(ctx context.Context) {
	ticker := k.opts.Clock.NewTicker(k.idle)
	defer ticker.Stop()
	select {
	case <-ctx.Done():
	case <-ticker.Chan():
	}
}
