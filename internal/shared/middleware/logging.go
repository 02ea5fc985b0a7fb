package middleware

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the per-request correlation id. An inbound value is
// reused so ids survive a proxy hop.
const RequestIDHeader = "X-Request-ID"

const requestInfoKey ContextKey = "request_info"

// requestInfo is shared by pointer so handlers deeper in the chain can
// annotate the access log line written by Logging.
type requestInfo struct {
	id     string
	userID int64
}

func RequestIDFromContext(ctx context.Context) string {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		return info.id
	}
	return ""
}

// annotateUser records the authenticated user on the access log line.
func annotateUser(ctx context.Context, userID int64) {
	if info, ok := ctx.Value(requestInfoKey).(*requestInfo); ok {
		info.userID = userID
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w}
}

func (rw *responseWriter) Status() int {
	return rw.status
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.status != 0 {
		return
	}
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if rw.status == 0 {
		rw.WriteHeader(http.StatusOK)
	}
	n, err := rw.ResponseWriter.Write(b)
	rw.bytes += n
	return n, err
}

// Logging writes one access log line per request and tags the response with
// a request id.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString()
		}
		info := &requestInfo{id: id}
		w.Header().Set(RequestIDHeader, id)

		wrapped := wrapResponseWriter(w)
		next.ServeHTTP(wrapped, r.WithContext(context.WithValue(r.Context(), requestInfoKey, info)))

		status := wrapped.status
		if status == 0 {
			status = http.StatusOK
		}

		user := "-"
		if info.userID != 0 {
			user = "user=" + strconv.FormatInt(info.userID, 10)
		}
		log.Printf("%s %s %s %d %dB %s %s", id, r.Method, r.URL.Path, status, wrapped.bytes, time.Since(start), user)
	})
}
