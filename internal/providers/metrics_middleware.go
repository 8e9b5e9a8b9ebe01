package providers

import (
	"net/http"
	"time"
)

const unmatchedEndpoint = "unmatched"

// responseRecorder remembers the first status sent to the kiosk client.
type responseRecorder struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (rw *responseRecorder) WriteHeader(code int) {
	if rw.wroteHeader {
		return
	}
	rw.status = code
	rw.wroteHeader = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseRecorder) Write(b []byte) (int, error) {
	if !rw.wroteHeader {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func (rw *responseRecorder) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// endpointLabel is the matched mux pattern ("POST /tap"), so tap coordinates
// and element indexes in the query never turn into label values.
func endpointLabel(r *http.Request) string {
	if r.Pattern == "" {
		return unmatchedEndpoint
	}
	return r.Pattern
}

// MetricsMiddleware counts and times every kiosk API request. A panicking
// handler is logged and answered with 500 instead of tearing down the connection.
func MetricsMiddleware(metrics MetricsProviderInterface, logger Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}

		defer func() {
			if p := recover(); p != nil {
				logger.Errorf(TypeApi, "panic serving %s %s: %v", r.Method, r.URL.Path, p)
				if !rec.wroteHeader {
					http.Error(rec, "Internal Server Error", http.StatusInternalServerError)
				}
				rec.status = http.StatusInternalServerError
			}
			endpoint := endpointLabel(r)
			metrics.IncRequestsTotal(endpoint, rec.status)
			metrics.ObserveRequestDuration(endpoint, time.Since(start))
		}()

		next.ServeHTTP(rec, r)
	})
}
