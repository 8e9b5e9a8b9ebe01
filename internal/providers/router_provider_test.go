package providers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func okHandler(w http.ResponseWriter, _ *http.Request) {
	_, _ = w.Write([]byte("ok"))
}

func TestRouterProvider_CollectsRoutesInOrder(t *testing.T) {
	rp := NewRouterProvider()
	rp.Get("/frame", okHandler)
	rp.Post("/next", okHandler)

	routes := rp.GetRoutes()
	require.Len(t, routes, 2)
	assert.Equal(t, "GET /frame", routes[0].Pattern())
	assert.Equal(t, "/next", routes[1].Path)
	assert.Equal(t, http.MethodPost, routes[1].Method)
}

func TestRouterProvider_MountEnforcesMethods(t *testing.T) {
	rp := NewRouterProvider()
	rp.Get("/frame", okHandler)
	rp.Post("/next", okHandler)
	mux := http.NewServeMux()
	require.NoError(t, rp.Mount(mux))

	cases := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/frame", http.StatusOK},
		{http.MethodHead, "/frame", http.StatusOK},
		{http.MethodPost, "/frame", http.StatusMethodNotAllowed},
		{http.MethodPost, "/next", http.StatusOK},
		{http.MethodGet, "/next", http.StatusMethodNotAllowed},
		{http.MethodGet, "/missing", http.StatusNotFound},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		mux.ServeHTTP(rr, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, tc.want, rr.Code, "%s %s", tc.method, tc.path)
	}
}

func TestRouterProvider_MountRejectsDuplicates(t *testing.T) {
	rp := NewRouterProvider()
	rp.Post("/tap", okHandler)
	rp.Post("/tap", okHandler)

	err := rp.Mount(http.NewServeMux())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POST /tap")
}
