package services

import (
	"context"
	"sync"
	"time"

	"go.uber.org/atomic"

	"storypanel/internal/models"
	"storypanel/internal/providers"
	"storypanel/internal/structures"
)

const (
	defaultTrackTimeout = 3 * time.Second
	tallyEvictPercent   = 10

	KindSlide = "slide"
	KindGroup = "group"
)

// OpenRecorder is the remote side of tracking, implemented by the API client.
type OpenRecorder interface {
	TrackSlideOpen(ctx context.Context, slideID int) error
	TrackGroupOpen(ctx context.Context, groupID int) error
}

type TrackingServiceInterface interface {
	TrackSlideOpen(ctx context.Context, slideID int)
	TrackGroupOpen(ctx context.Context, groupID int)
	IndexGroups(groups []models.StoryGroup)
	AggregateStats()
	Snapshot() models.TallySnapshot
	InFlight() int64
	Wait()
}

type openEvent struct {
	kind string
	id   int
}

// TrackingService sends open signals to the backend without blocking the
// caller and keeps a local tally of what was shown. Events are buffered and
// folded into the tally by AggregateStats.
type TrackingService struct {
	recorder OpenRecorder
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
	timeout  time.Duration

	mu          sync.Mutex
	buffers     [2][]openEvent
	activeIdx   int
	slideGroups map[int]int
	tally       *models.Tally

	inFlight atomic.Int64
	wg       sync.WaitGroup
}

func NewTrackingService(conf *structures.Config, recorder OpenRecorder, logger providers.Logger, metrics providers.MetricsProviderInterface) TrackingServiceInterface {
	timeout := conf.Player.TrackTimeout
	if timeout <= 0 {
		timeout = defaultTrackTimeout
	}
	maxRecords := conf.Kiosk.TallyMaxRecords
	if maxRecords == 0 {
		maxRecords = -1
	}
	return &TrackingService{
		recorder:    recorder,
		logger:      logger,
		metrics:     metrics,
		timeout:     timeout,
		slideGroups: make(map[int]int),
		tally:       models.NewTally(maxRecords, tallyEvictPercent),
	}
}

func (ts *TrackingService) TrackSlideOpen(ctx context.Context, slideID int) {
	ts.track(ctx, openEvent{kind: KindSlide, id: slideID})
}

func (ts *TrackingService) TrackGroupOpen(ctx context.Context, groupID int) {
	ts.track(ctx, openEvent{kind: KindGroup, id: groupID})
}

func (ts *TrackingService) track(ctx context.Context, ev openEvent) {
	ts.mu.Lock()
	ts.buffers[ts.activeIdx] = append(ts.buffers[ts.activeIdx], ev)
	ts.mu.Unlock()

	if ts.recorder == nil {
		return
	}
	ts.inFlight.Inc()
	ts.wg.Add(1)
	go func() {
		defer ts.wg.Done()
		defer ts.inFlight.Dec()

		reqCtx, cancel := context.WithTimeout(ctx, ts.timeout)
		defer cancel()

		var err error
		if ev.kind == KindSlide {
			err = ts.recorder.TrackSlideOpen(reqCtx, ev.id)
		} else {
			err = ts.recorder.TrackGroupOpen(reqCtx, ev.id)
		}
		if err != nil {
			ts.metrics.IncTrackingFailures(ev.kind)
			ts.logger.Warnf(providers.TypeTracking, "tracking %s open %d failed: %v", ev.kind, ev.id, err)
		}
	}()
}

// IndexGroups records which group each slide belongs to, so slide opens are
// also counted against their group.
func (ts *TrackingService) IndexGroups(groups []models.StoryGroup) {
	index := make(map[int]int)
	for i := range groups {
		for _, s := range groups[i].Slides {
			index[s.ID] = groups[i].ID
		}
	}
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.slideGroups = index
}

// AggregateStats swaps the event buffers and folds the inactive one into the tally.
func (ts *TrackingService) AggregateStats() {
	ts.mu.Lock()
	pending := ts.buffers[ts.activeIdx]
	ts.buffers[ts.activeIdx] = nil
	ts.activeIdx = 1 - ts.activeIdx
	slideGroups := ts.slideGroups
	ts.mu.Unlock()

	for _, ev := range pending {
		switch ev.kind {
		case KindGroup:
			ts.tally.IncGroupView(ev.id)
		case KindSlide:
			groupID, ok := slideGroups[ev.id]
			if !ok {
				groupID = -1
			}
			ts.tally.IncSlideOpen(groupID, ev.id)
		}
	}
}

// Snapshot aggregates pending events and returns the local tally.
func (ts *TrackingService) Snapshot() models.TallySnapshot {
	ts.AggregateStats()
	return ts.tally.Snapshot()
}

func (ts *TrackingService) InFlight() int64 {
	return ts.inFlight.Load()
}

// Wait blocks until every dispatched tracking call has returned.
func (ts *TrackingService) Wait() {
	ts.wg.Wait()
}
