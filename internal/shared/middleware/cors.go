package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/cors"
)

// CORS allows any origin when allowedHosts is empty. Otherwise only origins
// whose host is listed may call the API, with credentials, and requests from
// any other origin are rejected with 403.
func CORS(allowedHosts []string) func(http.Handler) http.Handler {
	opts := cors.Options{
		AllowedMethods: []string{
			http.MethodGet, http.MethodPost, http.MethodPut,
			http.MethodPatch, http.MethodDelete, http.MethodOptions,
		},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         3600,
	}
	if len(allowedHosts) == 0 {
		opts.AllowedOrigins = []string{"*"}
	} else {
		opts.AllowOriginFunc = func(origin string) bool {
			return isOriginAllowed(origin, allowedHosts)
		}
		opts.AllowCredentials = true
	}
	c := cors.New(opts)

	return func(next http.Handler) http.Handler {
		h := c.Handler(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && len(allowedHosts) > 0 && !isOriginAllowed(origin, allowedHosts) {
				http.Error(w, "Origin not allowed", http.StatusForbidden)
				return
			}
			h.ServeHTTP(w, r)
		})
	}
}

func isOriginAllowed(origin string, allowedHosts []string) bool {
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	host := strings.ToLower(u.Host)
	hostname := strings.ToLower(u.Hostname())

	for _, allowed := range allowedHosts {
		allowed = strings.ToLower(strings.TrimSpace(allowed))
		if allowed == host || allowed == hostname {
			return true
		}
	}
	return false
}
