package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storypanel/internal/models"
	"storypanel/internal/services"
	"storypanel/internal/structures"
	"storypanel/internal/testutil"
	"storypanel/internal/viewer"
)

type stubKiosk struct {
	session *viewer.Session
}

func (k *stubKiosk) Current() *viewer.Session { return k.session }

type framePosition struct {
	GroupID int `json:"group_id"`
	SlideID int `json:"slide_id"`
}

func testGroups() []models.StoryGroup {
	hex := "#112233"
	return []models.StoryGroup{
		{ID: 1, Title: "Lobby", Slides: []models.Slide{
			{ID: 10, ImageURL: "/a.jpg", Elements: models.Elements{
				{Type: models.ElementLink, X: 50, Y: 80, Text: "Book", URL: "https://hotel.test/book"},
			}},
			{ID: 11, BackgroundColor: &hex},
		}},
		{ID: 2, Title: "Pool", Slides: []models.Slide{{ID: 20, ImageURL: "/c.jpg"}}},
	}
}

type fixture struct {
	ac       *ApiController
	kiosk    *stubKiosk
	opener   *testutil.MockOpener
	tracking services.TrackingServiceInterface
	cache    *testutil.MockCache
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		kiosk:  &stubKiosk{},
		opener: &testutil.MockOpener{},
		cache:  testutil.NewMockCache(),
	}
	f.tracking = services.NewTrackingService(&structures.Config{}, nil, &testutil.MockLogger{}, testutil.NewMockMetrics())
	f.tracking.IndexGroups(testGroups())
	f.kiosk.session = viewer.NewSession(context.Background(), testGroups(), viewer.Options{
		Tracker: f.tracking,
		Opener:  f.opener,
	})
	conf := &structures.Config{Cache: structures.CacheConfig{StatsTTL: 2 * time.Second}}
	f.ac = NewApiController(conf, &testutil.MockLogger{}, f.kiosk, f.tracking, f.cache)
	return f
}

func serve(handler http.HandlerFunc, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

func decodePosition(t *testing.T, rr *httptest.ResponseRecorder) framePosition {
	t.Helper()
	var pos framePosition
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &pos))
	return pos
}

func TestGetFrame_ReturnsCurrentSlide(t *testing.T) {
	f := newFixture(t)

	rr := serve(f.ac.GetFrame, http.MethodGet, "/frame")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, framePosition{GroupID: 1, SlideID: 10}, decodePosition(t, rr))
}

func TestGetFrame_NoSession(t *testing.T) {
	f := newFixture(t)
	f.kiosk.session = nil

	rr := serve(f.ac.GetFrame, http.MethodGet, "/frame")

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestGetFrame_ClosedSession(t *testing.T) {
	f := newFixture(t)
	f.kiosk.session.Close()

	rr := serve(f.ac.GetFrame, http.MethodGet, "/frame")

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestNextAndPrevious(t *testing.T) {
	f := newFixture(t)

	rr := serve(f.ac.Next, http.MethodPost, "/next")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, framePosition{GroupID: 1, SlideID: 11}, decodePosition(t, rr))

	rr = serve(f.ac.Next, http.MethodPost, "/next")
	assert.Equal(t, framePosition{GroupID: 2, SlideID: 20}, decodePosition(t, rr))

	rr = serve(f.ac.Previous, http.MethodPost, "/prev")
	assert.Equal(t, framePosition{GroupID: 1, SlideID: 11}, decodePosition(t, rr))
}

func TestNext_PastTheEndClosesSession(t *testing.T) {
	f := newFixture(t)
	for range 3 {
		serve(f.ac.Next, http.MethodPost, "/next")
	}

	assert.True(t, f.kiosk.session.Closed())
	rr := serve(f.ac.GetFrame, http.MethodGet, "/frame")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestTap_Zones(t *testing.T) {
	f := newFixture(t)

	rr := serve(f.ac.Tap, http.MethodPost, "/tap?x=0.7")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 11, decodePosition(t, rr).SlideID)

	rr = serve(f.ac.Tap, http.MethodPost, "/tap?x=0.2")
	assert.Equal(t, 10, decodePosition(t, rr).SlideID)
}

func TestTap_OnLinkOpensInsteadOfNavigating(t *testing.T) {
	f := newFixture(t)

	rr := serve(f.ac.Tap, http.MethodPost, "/tap?x=0.5&y=0.8")

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 10, decodePosition(t, rr).SlideID)
	assert.Equal(t, []string{"https://hotel.test/book"}, f.opener.URLs())
}

func TestTap_InvalidCoordinates(t *testing.T) {
	f := newFixture(t)
	for _, target := range []string{"/tap", "/tap?x=abc", "/tap?x=1.5", "/tap?x=0.5&y=-1"} {
		rr := serve(f.ac.Tap, http.MethodPost, target)
		assert.Equal(t, http.StatusBadRequest, rr.Code, target)
	}
	g, s := f.kiosk.session.Position()
	assert.Equal(t, 0, g)
	assert.Equal(t, 0, s)
}

func TestActivateElement(t *testing.T) {
	f := newFixture(t)

	rr := serve(f.ac.ActivateElement, http.MethodPost, "/element?i=0")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"activated":true}`, rr.Body.String())

	rr = serve(f.ac.ActivateElement, http.MethodPost, "/element?i=5")
	assert.JSONEq(t, `{"activated":false}`, rr.Body.String())

	rr = serve(f.ac.ActivateElement, http.MethodPost, "/element?i=x")
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	assert.Len(t, f.opener.URLs(), 1)
}

func TestGetStats_ServedFromCache(t *testing.T) {
	f := newFixture(t)

	rr := serve(f.ac.GetStats, http.MethodGet, "/stats")
	require.Equal(t, http.StatusOK, rr.Code)

	var snap models.TallySnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &snap))
	assert.Equal(t, 1, snap.Slides[10])
	assert.Equal(t, 1, snap.Groups[1].Views)
	assert.Equal(t, 1, snap.Groups[1].Opens)

	_, cached := f.cache.Get(statsCacheKey)
	assert.True(t, cached)
	assert.Equal(t, 2*time.Second, f.cache.TTL(statsCacheKey))

	// new opens stay invisible until the cache entry expires
	serve(f.ac.Next, http.MethodPost, "/next")
	rr = serve(f.ac.GetStats, http.MethodGet, "/stats")
	var again models.TallySnapshot
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &again))
	assert.Equal(t, 0, again.Slides[11])
}
