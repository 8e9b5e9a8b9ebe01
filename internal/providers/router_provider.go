package providers

import (
	"fmt"
	"net/http"

	"storypanel/internal/structures"
)

// RouterProviderInterface collects the kiosk API routes before they are
// mounted on the server mux.
type RouterProviderInterface interface {
	Get(path string, handler http.HandlerFunc)
	Post(path string, handler http.HandlerFunc)
	GetRoutes() []structures.Route
	Mount(mux *http.ServeMux) error
}

type RouterProvider struct {
	routes []structures.Route
}

func (rp *RouterProvider) Get(path string, handler http.HandlerFunc) {
	rp.routes = append(rp.routes, structures.Route{Method: http.MethodGet, Path: path, Handler: handler})
}

func (rp *RouterProvider) Post(path string, handler http.HandlerFunc) {
	rp.routes = append(rp.routes, structures.Route{Method: http.MethodPost, Path: path, Handler: handler})
}

func (rp *RouterProvider) GetRoutes() []structures.Route {
	return rp.routes
}

// Mount registers each route under its method pattern, so the mux itself
// answers 405 for a known path with the wrong verb. A route registered twice
// is an error rather than a ServeMux panic.
func (rp *RouterProvider) Mount(mux *http.ServeMux) error {
	seen := make(map[string]struct{}, len(rp.routes))
	for _, route := range rp.routes {
		pattern := route.Pattern()
		if _, dup := seen[pattern]; dup {
			return fmt.Errorf("route %q registered twice", pattern)
		}
		seen[pattern] = struct{}{}
		mux.Handle(pattern, route.Handler)
	}
	return nil
}

func NewRouterProvider() RouterProviderInterface {
	return &RouterProvider{}
}
