package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIsOriginAllowed(t *testing.T) {
	tests := []struct {
		name         string
		origin       string
		allowedHosts []string
		want         bool
	}{
		{"host and port listed", "https://poupa.app:8443", []string{"poupa.app:8443"}, true},
		{"hostname listed, port ignored", "http://localhost:5173", []string{"localhost"}, true},
		{"case insensitive", "https://Poupa.APP", []string{"poupa.app"}, true},
		{"padded allow list entry", "https://poupa.app", []string{"  poupa.app "}, true},
		{"unknown origin", "https://evil.example", []string{"poupa.app"}, false},
		{"subdomain not implied", "https://app.poupa.app", []string{"poupa.app"}, false},
		{"unparseable origin", "://nope", []string{"poupa.app"}, false},
		{"null origin", "null", []string{"poupa.app"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isOriginAllowed(tt.origin, tt.allowedHosts); got != tt.want {
				t.Errorf("isOriginAllowed(%q, %v) = %v, want %v", tt.origin, tt.allowedHosts, got, tt.want)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name            string
		allowedHosts    []string
		method          string
		origin          string
		preflightMethod string
		wantStatus      int
		wantNext        bool
		wantAllowOrigin string
		wantCredentials string
	}{
		{
			name:            "open api answers any origin",
			method:          http.MethodGet,
			origin:          "https://anything.example",
			wantStatus:      http.StatusOK,
			wantNext:        true,
			wantAllowOrigin: "*",
		},
		{
			name:            "listed origin gets credentials",
			allowedHosts:    []string{"poupa.app"},
			method:          http.MethodGet,
			origin:          "https://poupa.app",
			wantStatus:      http.StatusOK,
			wantNext:        true,
			wantAllowOrigin: "https://poupa.app",
			wantCredentials: "true",
		},
		{
			name:         "unlisted origin refused",
			allowedHosts: []string{"poupa.app"},
			method:       http.MethodPost,
			origin:       "https://evil.example",
			wantStatus:   http.StatusForbidden,
		},
		{
			name:         "same-origin request without Origin",
			allowedHosts: []string{"poupa.app"},
			method:       http.MethodGet,
			wantStatus:   http.StatusOK,
			wantNext:     true,
		},
		{
			name:            "preflight short-circuits",
			method:          http.MethodOptions,
			origin:          "https://poupa.app",
			preflightMethod: http.MethodPatch,
			wantStatus:      http.StatusNoContent,
			wantAllowOrigin: "*",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			handler := CORS(tt.allowedHosts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(tt.method, "/api/goals", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			if tt.preflightMethod != "" {
				req.Header.Set("Access-Control-Request-Method", tt.preflightMethod)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if called != tt.wantNext {
				t.Errorf("next called = %v, want %v", called, tt.wantNext)
			}
			if got := rr.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllowOrigin {
				t.Errorf("Allow-Origin = %q, want %q", got, tt.wantAllowOrigin)
			}
			if got := rr.Header().Get("Access-Control-Allow-Credentials"); got != tt.wantCredentials {
				t.Errorf("Allow-Credentials = %q, want %q", got, tt.wantCredentials)
			}
		})
	}
}
