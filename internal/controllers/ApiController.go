package controllers

import (
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cast"

	"storypanel/internal/providers"
	"storypanel/internal/services"
	"storypanel/internal/structures"
	"storypanel/internal/viewer"
)

const statsCacheKey = "stats"

// SessionSource gives access to the session the kiosk is showing.
type SessionSource interface {
	Current() *viewer.Session
}

type ApiController struct {
	logger   providers.Logger
	kiosk    SessionSource
	tracking services.TrackingServiceInterface
	cache    providers.CacheProviderInterface
	statsTTL time.Duration
}

func NewApiController(conf *structures.Config, logger providers.Logger, kiosk SessionSource, tracking services.TrackingServiceInterface, cache providers.CacheProviderInterface) *ApiController {
	return &ApiController{
		logger:   logger,
		kiosk:    kiosk,
		tracking: tracking,
		cache:    cache,
		statsTTL: conf.Cache.StatsTTL,
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

type elementResponse struct {
	Activated bool `json:"activated"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	gson, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(gson)
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}

	result, err := compute()
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	// counters move with every tap, so the body only lives for statsTTL
	ac.cache.SetTTL(cacheKey, gson, ac.statsTTL)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(gson)
}

func (ac *ApiController) session(w http.ResponseWriter) *viewer.Session {
	s := ac.kiosk.Current()
	if s == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "nothing to play"})
	}
	return s
}

func (ac *ApiController) writeFrame(w http.ResponseWriter, s *viewer.Session) {
	frame, ok := s.Frame()
	if !ok {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "nothing to play"})
		return
	}
	writeJSON(w, http.StatusOK, frame)
}

func (ac *ApiController) GetFrame(w http.ResponseWriter, r *http.Request) {
	if s := ac.session(w); s != nil {
		ac.writeFrame(w, s)
	}
}

func (ac *ApiController) Next(w http.ResponseWriter, r *http.Request) {
	if s := ac.session(w); s != nil {
		s.AdvanceNext()
		ac.writeFrame(w, s)
	}
}

func (ac *ApiController) Previous(w http.ResponseWriter, r *http.Request) {
	if s := ac.session(w); s != nil {
		s.AdvancePrevious()
		ac.writeFrame(w, s)
	}
}

// Tap takes x (and optionally y) as fractions of the surface. Without y only
// the navigation zones apply.
func (ac *ApiController) Tap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, err := cast.ToFloat64E(q.Get("x"))
	if err != nil || q.Get("x") == "" || x < 0 || x > 1 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "x must be a number between 0 and 1"})
		return
	}
	var y float64
	hasY := q.Get("y") != ""
	if hasY {
		y, err = cast.ToFloat64E(q.Get("y"))
		if err != nil || y < 0 || y > 1 {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "y must be a number between 0 and 1"})
			return
		}
	}

	s := ac.session(w)
	if s == nil {
		return
	}
	if hasY {
		s.Tap(x, y)
	} else {
		s.TapZone(x)
	}
	ac.writeFrame(w, s)
}

func (ac *ApiController) ActivateElement(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("i")
	i, err := cast.ToIntE(raw)
	if err != nil || raw == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "i must be an element index"})
		return
	}
	s := ac.session(w)
	if s == nil {
		return
	}
	activated := s.ActivateElement(i)
	ac.logger.Debugf(providers.TypeApi, "element %d activated: %t", i, activated)
	writeJSON(w, http.StatusOK, elementResponse{Activated: activated})
}

func (ac *ApiController) GetStats(w http.ResponseWriter, r *http.Request) {
	ac.serveFromCacheOrCompute(w, statsCacheKey, func() (any, error) {
		return ac.tracking.Snapshot(), nil
	})
}
