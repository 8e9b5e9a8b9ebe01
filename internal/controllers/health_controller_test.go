package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storypanel/internal/structures"
)

type stubPlaylist struct {
	groups, slides int
	fetchedAt      time.Time
}

func (p stubPlaylist) GroupCount() int      { return p.groups }
func (p stubPlaylist) SlideCount() int      { return p.slides }
func (p stubPlaylist) City() string         { return "tehran" }
func (p stubPlaylist) FetchedAt() time.Time { return p.fetchedAt }

// refreshEvery returns a config whose playlist goes stale after 3*d.
func refreshEvery(d time.Duration) *structures.Config {
	return &structures.Config{Kiosk: structures.KioskConfig{RefreshInterval: d}}
}

type stubLoops int64

func (l stubLoops) Loops() int64 { return int64(l) }

func getHealth(t *testing.T, hc *HealthController) map[string]any {
	t.Helper()
	rr := httptest.NewRecorder()
	hc.Health(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var resp map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func TestHealth_ReturnsOK(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	hc := NewHealthController(refreshEvery(20*time.Minute), stubPlaylist{groups: 2, slides: 5, fetchedAt: now.Add(-90 * time.Second)}, stubLoops(3))
	hc.startTime = now.Add(-time.Hour)
	hc.now = func() time.Time { return now }

	resp := getHealth(t, hc)

	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "1h0m0s", resp["uptime"])
	assert.Equal(t, float64(3600), resp["uptime_seconds"])
	assert.Equal(t, "tehran", resp["city"])
	assert.Equal(t, float64(2), resp["groups"])
	assert.Equal(t, float64(5), resp["slides"])
	assert.Equal(t, "0h1m30s", resp["playlist_age"])
	assert.Equal(t, float64(3), resp["loops"])
}

func TestHealth_MethodNotAllowed(t *testing.T) {
	hc := NewHealthController(refreshEvery(time.Minute), stubPlaylist{}, nil)

	rr := httptest.NewRecorder()
	hc.Health(rr, httptest.NewRequest(http.MethodPost, "/health", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestHealth_EmptyPlaylistIsWaiting(t *testing.T) {
	resp := getHealth(t, NewHealthController(refreshEvery(time.Minute), stubPlaylist{}, nil))

	assert.Equal(t, "waiting", resp["status"])
	assert.Equal(t, float64(0), resp["groups"])
	assert.Equal(t, float64(0), resp["loops"])
	assert.NotContains(t, resp, "playlist_age")
}

func TestHealth_StalePlaylist(t *testing.T) {
	now := time.Now()
	old := stubPlaylist{groups: 1, slides: 1, fetchedAt: now.Add(-3 * time.Hour)}

	hc := NewHealthController(refreshEvery(20*time.Minute), old, nil)
	hc.now = func() time.Time { return now }
	assert.Equal(t, "stale", getHealth(t, hc)["status"])

	unchecked := NewHealthController(refreshEvery(0), old, nil)
	unchecked.now = func() time.Time { return now }
	assert.Equal(t, "ok", getHealth(t, unchecked)["status"])
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"zero", 0, "0h0m0s"},
		{"one minute", 60 * time.Second, "0h1m0s"},
		{"one hour", time.Hour, "1h0m0s"},
		{"mixed", time.Hour + time.Minute + time.Second, "1h1m1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, formatDuration(tt.duration))
		})
	}
}
