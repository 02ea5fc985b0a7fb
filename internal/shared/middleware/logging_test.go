package middleware

import (
	"bytes"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"poupa/internal/shared/auth"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prevOut, prevFlags := log.Writer(), log.Flags()
	log.SetOutput(&buf)
	log.SetFlags(0)
	t.Cleanup(func() {
		log.SetOutput(prevOut)
		log.SetFlags(prevFlags)
	})
	return &buf
}

func TestResponseWriter_FirstStatusWins(t *testing.T) {
	rr := httptest.NewRecorder()
	wrapped := wrapResponseWriter(rr)

	if wrapped.Status() != 0 {
		t.Fatalf("Status() = %d before any write, want 0", wrapped.Status())
	}

	wrapped.WriteHeader(http.StatusConflict)
	wrapped.WriteHeader(http.StatusOK)

	if wrapped.Status() != http.StatusConflict {
		t.Errorf("Status() = %d, want %d", wrapped.Status(), http.StatusConflict)
	}
	if rr.Code != http.StatusConflict {
		t.Errorf("recorder code = %d, want %d", rr.Code, http.StatusConflict)
	}
}

func TestResponseWriter_CountsBytes(t *testing.T) {
	rr := httptest.NewRecorder()
	wrapped := wrapResponseWriter(rr)

	wrapped.Write([]byte(`{"id":1}`))
	wrapped.Write([]byte("\n"))

	if wrapped.bytes != 9 {
		t.Errorf("bytes = %d, want 9", wrapped.bytes)
	}
	if wrapped.Status() != http.StatusOK {
		t.Errorf("implicit status = %d, want 200", wrapped.Status())
	}
}

func TestLogging_RequestID(t *testing.T) {
	tests := []struct {
		name      string
		inbound   string
		wantReuse bool
	}{
		{name: "generated when absent"},
		{name: "inbound id reused", inbound: "edge-42", wantReuse: true},
		{name: "oversized inbound id replaced", inbound: strings.Repeat("x", 65)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureLog(t)

			var seen string
			handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestIDFromContext(r.Context())
				w.WriteHeader(http.StatusCreated)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/goals", nil)
			if tt.inbound != "" {
				req.Header.Set(RequestIDHeader, tt.inbound)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			got := rr.Header().Get(RequestIDHeader)
			if got != seen {
				t.Errorf("header id %q differs from context id %q", got, seen)
			}
			if tt.wantReuse {
				if got != tt.inbound {
					t.Errorf("request id = %q, want %q", got, tt.inbound)
				}
				return
			}
			if _, err := uuid.Parse(got); err != nil {
				t.Errorf("request id %q is not a uuid: %v", got, err)
			}
		})
	}
}

func TestLogging_AccessLine(t *testing.T) {
	buf := captureLog(t)

	handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/savings/total", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	line := buf.String()
	for _, want := range []string{"req-1 GET /api/savings/total 200 2B", " -\n"} {
		if !strings.Contains(line, want) {
			t.Errorf("log line %q missing %q", line, want)
		}
	}
}

func TestLogging_RecordsAuthenticatedUser(t *testing.T) {
	buf := captureLog(t)

	jwt := auth.NewJWT("test-secret", time.Hour)
	token, err := jwt.Generate(17, "ana@example.com", "ROLE_USER")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	handler := Logging(Auth(jwt)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	req := httptest.NewRequest(http.MethodDelete, "/api/goals/3", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}
	if line := buf.String(); !strings.Contains(line, "DELETE /api/goals/3 204") || !strings.Contains(line, "user=17") {
		t.Errorf("log line %q does not record the user", line)
	}
}
