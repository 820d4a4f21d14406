// File: internal/middleware/metrics.go
package middleware

import (
	"net/http"
	"strconv"
	"time"

	"wellnesshub/internal/metrics"

	"github.com/gorilla/mux"
)

// unmatchedRoute labels requests that did not match a registered route so
// arbitrary paths never become label values
const unmatchedRoute = "unmatched"

// Metrics records request counts and latency per route template
func Metrics() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := newResponseWriter(w)

			next.ServeHTTP(rw, r)

			route := routeTemplate(r)
			metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rw.status)).Inc()
			metrics.HTTPLatency.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}

func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return unmatchedRoute
	}
	tpl, err := route.GetPathTemplate()
	if err != nil {
		return unmatchedRoute
	}
	return tpl
}
