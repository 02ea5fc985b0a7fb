package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"poupa/internal/domain/budget"
	"poupa/internal/domain/goal"
	"poupa/internal/domain/transaction"
	"poupa/internal/domain/user"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{goal.ErrNameRequired, http.StatusBadRequest},
		{fmt.Errorf("create: %w", goal.ErrDeadlineNotFuture), http.StatusBadRequest},
		{budget.ErrInvalidPeriod, http.StatusBadRequest},
		{transaction.ErrInvalidAmount, http.StatusBadRequest},
		{goal.ErrGoalNotFound, http.StatusNotFound},
		{fmt.Errorf("lookup: %w", budget.ErrBudgetNotFound), http.StatusNotFound},
		{goal.ErrForbidden, http.StatusForbidden},
		{goal.ErrVersionConflict, http.StatusConflict},
		{user.ErrEmailTaken, http.StatusConflict},
		{user.ErrInvalidCredential, http.StatusUnauthorized},
		{errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.want {
				t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestWriteError_HidesInternalErrors(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, errors.New("pq: password authentication failed"), "to list goals")

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if body := rr.Body.String(); body != "{\"error\":\"Failed to list goals\"}\n" {
		t.Errorf("body = %q", body)
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		value   string
		want    time.Time
		wantErr bool
	}{
		{"2026-05-01", time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC), false},
		{"2026-05-01T10:30:00Z", time.Date(2026, 5, 1, 10, 30, 0, 0, time.UTC), false},
		{"05/01/2026", time.Time{}, true},
		{"", time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, err := parseDate(tt.value)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDate(%q) error = %v, wantErr %v", tt.value, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("parseDate(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestCanAccess(t *testing.T) {
	tests := []struct {
		name    string
		userID  int64
		role    string
		ownerID int64
		want    bool
	}{
		{"owner", 1, user.RoleUser, 1, true},
		{"stranger", 2, user.RoleUser, 1, false},
		{"admin", 2, user.RoleAdmin, 1, true},
		{"anonymous", 0, "", 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(http.MethodGet, "/", nil, tt.userID, tt.role, nil)
			if got := canAccess(req, tt.ownerID); got != tt.want {
				t.Errorf("canAccess = %v, want %v", got, tt.want)
			}
		})
	}
}

type fakePinger struct{ err error }

func (p fakePinger) PingContext(ctx context.Context) error { return p.err }

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name           string
		db             Pinger
		expectedStatus int
	}{
		{"database up", fakePinger{}, http.StatusOK},
		{"database down", fakePinger{err: errors.New("refused")}, http.StatusServiceUnavailable},
		{"no database", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			HandleHealth(tt.db)(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
		})
	}
}
