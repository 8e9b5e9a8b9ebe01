package controllers

import (
	"fmt"
	"net/http"
	"time"

	json "github.com/goccy/go-json"

	"storypanel/internal/providers"
	"storypanel/internal/structures"
)

const (
	// missed refreshes before the playlist counts as stale
	staleAfterRefreshes = 3

	healthOK      = "ok"
	healthWaiting = "waiting"
	healthStale   = "stale"
)

// PlaylistStatus is what /health reports about the loaded playlist.
type PlaylistStatus interface {
	providers.PlaylistGauge
	City() string
	FetchedAt() time.Time
}

// LoopCounter counts kiosk sessions started so far.
type LoopCounter interface {
	Loops() int64
}

type HealthController struct {
	playlist PlaylistStatus
	kiosk    LoopCounter
	// a playlist older than this is reported stale, zero disables the check
	maxAge    time.Duration
	startTime time.Time
	now       func() time.Time
}

type healthResponse struct {
	Status        string  `json:"status"`
	Uptime        string  `json:"uptime"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	City          string  `json:"city"`
	Groups        int     `json:"groups"`
	Slides        int     `json:"slides"`
	PlaylistAge   string  `json:"playlist_age,omitempty"`
	Loops         int64   `json:"loops"`
}

// Health always answers 200 while the process serves; the status field tells
// a waiting kiosk (nothing loaded yet) and a stale playlist apart from a healthy one.
func (hc *HealthController) Health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	now := hc.now()
	uptime := now.Sub(hc.startTime)
	resp := healthResponse{
		Status:        healthOK,
		Uptime:        formatDuration(uptime),
		UptimeSeconds: uptime.Seconds(),
		City:          hc.playlist.City(),
		Groups:        hc.playlist.GroupCount(),
		Slides:        hc.playlist.SlideCount(),
	}
	if hc.kiosk != nil {
		resp.Loops = hc.kiosk.Loops()
	}

	fetched := hc.playlist.FetchedAt()
	switch {
	case resp.Slides == 0:
		resp.Status = healthWaiting
	case fetched.IsZero():
	default:
		age := now.Sub(fetched)
		resp.PlaylistAge = formatDuration(age)
		if hc.maxAge > 0 && age > hc.maxAge {
			resp.Status = healthStale
		}
	}

	gson, err := json.Marshal(resp)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func formatDuration(d time.Duration) string {
	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
}

// NewHealthController reports a playlist as stale once a few refresh intervals
// passed without a successful fetch. The kiosk may be nil.
func NewHealthController(conf *structures.Config, playlist PlaylistStatus, kiosk LoopCounter) *HealthController {
	return &HealthController{
		playlist:  playlist,
		kiosk:     kiosk,
		maxAge:    staleAfterRefreshes * conf.Kiosk.RefreshInterval,
		startTime: time.Now(),
		now:       time.Now,
	}
}
