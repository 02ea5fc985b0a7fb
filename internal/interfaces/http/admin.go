package http

import (
	"context"
	"net/http"
	"time"

	"poupa/internal/domain/user"
)

// DeadlineSweeper runs the near-deadline notification sweep.
type DeadlineSweeper interface {
	CheckAndNotifyNearOverdueGoals(ctx context.Context) (int, error)
}

type AdminHandler struct {
	users   UserService
	sweeper DeadlineSweeper
}

func NewAdminHandler(users UserService, sweeper DeadlineSweeper) *AdminHandler {
	return &AdminHandler{users: users, sweeper: sweeper}
}

type SweepResponse struct {
	Notified   int       `json:"notified"`
	FinishedAt time.Time `json:"finishedAt"`
}

// HandleSweepDeadlines handles POST /api/admin/sweep-deadlines. The sweep
// runs synchronously.
func (h *AdminHandler) HandleSweepDeadlines(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	notified, err := h.sweeper.CheckAndNotifyNearOverdueGoals(r.Context())
	if err != nil {
		writeError(w, err, "to sweep deadlines")
		return
	}
	writeJSON(w, http.StatusOK, SweepResponse{Notified: notified, FinishedAt: time.Now().UTC()})
}

// HandleListUsers handles GET /api/admin/users
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	users, err := h.users.ListUsers(r.Context())
	if err != nil {
		writeError(w, err, "to list users")
		return
	}
	if users == nil {
		users = []*user.User{}
	}
	writeJSON(w, http.StatusOK, users)
}
