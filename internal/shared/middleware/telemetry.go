package middleware

import (
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Telemetry opens the server span for each request. Health probes are left
// untraced.
func Telemetry(next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, "poupa-api",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return r.URL.Path != "/health"
		}),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + routeLabel(strings.TrimSuffix(r.URL.Path, "/"))
		}),
	)
}
