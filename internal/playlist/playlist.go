package playlist

import (
	"sync"
	"time"

	"storypanel/internal/models"
	"storypanel/internal/structures"
)

// Playlist is the current set of groups the kiosk plays for its city. It is
// replaced wholesale on every refresh; readers get copies.
type Playlist struct {
	mu        sync.RWMutex
	city      string
	groups    []models.StoryGroup
	fetchedAt time.Time
	revision  uint64
}

func NewPlaylist(city string) *Playlist {
	return &Playlist{city: city}
}

// NewCityPlaylist returns an empty playlist for the configured kiosk city.
func NewCityPlaylist(conf *structures.Config) *Playlist {
	return NewPlaylist(conf.Kiosk.City)
}

func (p *Playlist) City() string {
	return p.city
}

// Set replaces the groups. Slides are ordered for playback.
func (p *Playlist) Set(groups []models.StoryGroup, fetchedAt time.Time) {
	cp := cloneGroups(groups)
	for i := range cp {
		models.SortSlides(cp[i].Slides)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.groups = cp
	p.fetchedAt = fetchedAt
	p.revision++
}

func (p *Playlist) Groups() []models.StoryGroup {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return cloneGroups(p.groups)
}

func (p *Playlist) Revision() uint64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.revision
}

func (p *Playlist) FetchedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.fetchedAt
}

func (p *Playlist) GroupCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.groups)
}

func (p *Playlist) SlideCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return models.CountSlides(p.groups)
}

func (p *Playlist) Snapshot() models.PlaylistSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return models.PlaylistSnapshot{
		Version:   models.SnapshotVersion,
		City:      p.city,
		FetchedAt: p.fetchedAt,
		Groups:    cloneGroups(p.groups),
	}
}

func cloneGroups(groups []models.StoryGroup) []models.StoryGroup {
	if groups == nil {
		return []models.StoryGroup{}
	}
	out := make([]models.StoryGroup, len(groups))
	for i := range groups {
		out[i] = groups[i]
		out[i].Slides = append([]models.Slide(nil), groups[i].Slides...)
	}
	return out
}
