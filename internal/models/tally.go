package models

import (
	"math"
	"sort"
	"sync"
)

// TallyRecord counts what this device showed for one group: how many times the
// group was opened and how many of its slides were entered.
type TallyRecord struct {
	Views int `json:"views"`
	Opens int `json:"opens"`
}

type TallySnapshot struct {
	Groups map[int]TallyRecord `json:"groups"`
	Slides map[int]int         `json:"slides"`
}

// Tally is the local engagement counter behind the kiosk /stats endpoint. The
// per-slide map is bounded: when full, the least opened evictionPercent of
// slides are dropped. maxRecords < 0 disables the bound.
type Tally struct {
	mu              sync.RWMutex
	groups          map[uint32]TallyRecord
	slides          map[uint32]int
	maxRecords      int
	evictionPercent int
}

func NewTally(maxRecords, evictionPercent int) *Tally {
	if evictionPercent <= 0 {
		evictionPercent = 10
	}
	return &Tally{
		groups:          make(map[uint32]TallyRecord),
		slides:          make(map[uint32]int),
		maxRecords:      maxRecords,
		evictionPercent: evictionPercent,
	}
}

func validKey(id int) (uint32, bool) {
	if id < 0 || uint64(id) > math.MaxUint32 {
		return 0, false
	}
	return uint32(id), true
}

func (t *Tally) IncGroupView(groupID int) {
	key, ok := validKey(groupID)
	if !ok {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	rec := t.groups[key]
	rec.Views++
	t.groups[key] = rec
}

func (t *Tally) IncSlideOpen(groupID, slideID int) {
	slideKey, ok := validKey(slideID)
	if !ok {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	if groupKey, ok := validKey(groupID); ok {
		rec := t.groups[groupKey]
		rec.Opens++
		t.groups[groupKey] = rec
	}

	if _, ok := t.slides[slideKey]; !ok {
		t.evictIfNeeded()
	}
	t.slides[slideKey]++
}

func (t *Tally) evictIfNeeded() {
	if t.maxRecords < 0 || len(t.slides) < t.maxRecords {
		return
	}
	target := int(float64(t.maxRecords) * float64(t.evictionPercent) / 100.0)
	if target <= 0 {
		target = 1
	}

	type scored struct {
		id    uint32
		opens int
	}
	entries := make([]scored, 0, len(t.slides))
	for id, opens := range t.slides {
		entries = append(entries, scored{id: id, opens: opens})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].opens != entries[j].opens {
			return entries[i].opens < entries[j].opens
		}
		return entries[i].id < entries[j].id
	})
	for i := 0; i < target && i < len(entries); i++ {
		delete(t.slides, entries[i].id)
	}
}

func (t *Tally) Group(groupID int) (TallyRecord, bool) {
	key, ok := validKey(groupID)
	if !ok {
		return TallyRecord{}, false
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.groups[key]
	return rec, ok
}

func (t *Tally) SlideOpens(slideID int) int {
	key, ok := validKey(slideID)
	if !ok {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.slides[key]
}

func (t *Tally) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.slides)
}

func (t *Tally) Snapshot() TallySnapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()

	snap := TallySnapshot{
		Groups: make(map[int]TallyRecord, len(t.groups)),
		Slides: make(map[int]int, len(t.slides)),
	}
	for id, rec := range t.groups {
		snap.Groups[int(id)] = rec
	}
	for id, opens := range t.slides {
		snap.Slides[int(id)] = opens
	}
	return snap
}
