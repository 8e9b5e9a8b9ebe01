package playlist

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"storypanel/internal/models"
)

func TestPlaylist_SetSortsAndCopies(t *testing.T) {
	p := NewPlaylist("tehran")
	groups := []models.StoryGroup{{ID: 1, Slides: []models.Slide{{ID: 2, SortOrder: 4}, {ID: 1, SortOrder: 0}}}}
	now := time.Now()

	p.Set(groups, now)
	groups[0].Title = "mutated"

	got := p.Groups()
	assert.Equal(t, "", got[0].Title)
	assert.Equal(t, 1, got[0].Slides[0].ID)
	assert.Equal(t, 1, p.GroupCount())
	assert.Equal(t, 2, p.SlideCount())
	assert.Equal(t, uint64(1), p.Revision())
	assert.True(t, p.FetchedAt().Equal(now))

	got[0].Slides[0].ID = 99
	assert.Equal(t, 1, p.Groups()[0].Slides[0].ID)
}

func TestPlaylist_EmptySnapshot(t *testing.T) {
	p := NewPlaylist("shiraz")
	snap := p.Snapshot()
	assert.Equal(t, models.SnapshotVersion, snap.Version)
	assert.Equal(t, "shiraz", snap.City)
	assert.NotNil(t, snap.Groups)
	assert.Empty(t, snap.Groups)
}
