package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"poupa/internal/domain/goal"
)

// GoalService is the part of the goal engine served over HTTP.
type GoalService interface {
	SetGoal(ctx context.Context, params goal.CreateParams) (*goal.Goal, error)
	GetGoal(ctx context.Context, id string) (*goal.Goal, error)
	GetGoalsByUser(ctx context.Context, userID int64) ([]*goal.Goal, error)
	GetActiveGoals(ctx context.Context, userID int64) ([]*goal.Goal, error)
	GetCompletedGoals(ctx context.Context, userID int64) ([]*goal.Goal, error)
	GetOverdueGoals(ctx context.Context, userID int64) ([]*goal.Goal, error)
	UpdateGoal(ctx context.Context, id string, params goal.UpdateParams) (*goal.Goal, error)
	DeleteGoal(ctx context.Context, id string) (bool, error)
	AddManualContribution(ctx context.Context, id string, amount decimal.Decimal) (*goal.Goal, error)
	TrackGoalProgress(ctx context.Context, id string) (*goal.Goal, error)
	CalculateRemainingAmountForGoal(ctx context.Context, id string) (decimal.Decimal, error)
	LinkBudgetToGoal(ctx context.Context, goalID, budgetID string) (*goal.Goal, error)
	UnlinkBudgetFromGoal(ctx context.Context, goalID string) (*goal.Goal, error)
}

type GoalHandler struct {
	goals   GoalService
	budgets BudgetService
}

func NewGoalHandler(goals GoalService, budgets BudgetService) *GoalHandler {
	return &GoalHandler{goals: goals, budgets: budgets}
}

type CreateGoalRequest struct {
	Name         string          `json:"name"`
	TargetAmount decimal.Decimal `json:"targetAmount"`
	Deadline     string          `json:"deadline"`
}

type UpdateGoalRequest struct {
	Name         *string          `json:"name,omitempty"`
	TargetAmount *decimal.Decimal `json:"targetAmount,omitempty"`
	Deadline     *string          `json:"deadline,omitempty"`
}

type ContributionRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type LinkBudgetRequest struct {
	BudgetID string `json:"budgetId"`
}

type GoalDetailResponse struct {
	*goal.Goal
	RemainingAmount decimal.Decimal `json:"remainingAmount"`
}

// HandleGoals handles GET/POST /api/goals/
func (h *GoalHandler) HandleGoals(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListGoals(w, r)
	case http.MethodPost:
		h.handleCreateGoal(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleGoalByID handles GET/PUT/DELETE /api/goals/{id}
func (h *GoalHandler) HandleGoalByID(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleGetGoal(w, r)
	case http.MethodPut, http.MethodPatch:
		h.handleUpdateGoal(w, r)
	case http.MethodDelete:
		h.handleDeleteGoal(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *GoalHandler) handleListGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var (
		goals []*goal.Goal
		err   error
	)
	switch goal.Status(r.URL.Query().Get("status")) {
	case goal.StatusAll:
		goals, err = h.goals.GetGoalsByUser(r.Context(), userID)
	case goal.StatusActive:
		goals, err = h.goals.GetActiveGoals(r.Context(), userID)
	case goal.StatusCompleted:
		goals, err = h.goals.GetCompletedGoals(r.Context(), userID)
	case goal.StatusOverdue:
		goals, err = h.goals.GetOverdueGoals(r.Context(), userID)
	default:
		http.Error(w, "status must be active, completed or overdue", http.StatusBadRequest)
		return
	}
	if err != nil {
		writeError(w, err, "to list goals")
		return
	}
	if goals == nil {
		goals = []*goal.Goal{}
	}
	writeJSON(w, http.StatusOK, goals)
}

func (h *GoalHandler) handleCreateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateGoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	deadline, err := parseDate(req.Deadline)
	if err != nil {
		http.Error(w, "deadline must be a date (YYYY-MM-DD) or RFC 3339 timestamp", http.StatusBadRequest)
		return
	}

	g, err := h.goals.SetGoal(r.Context(), goal.CreateParams{
		UserID:       userID,
		Name:         req.Name,
		TargetAmount: req.TargetAmount,
		Deadline:     deadline,
	})
	if err != nil {
		writeError(w, err, "to create goal")
		return
	}
	writeJSON(w, http.StatusCreated, g)
}

// loadGoal fetches the path goal and checks that the caller may access it.
func (h *GoalHandler) loadGoal(w http.ResponseWriter, r *http.Request) (*goal.Goal, bool) {
	if _, ok := requireUser(w, r); !ok {
		return nil, false
	}
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Goal ID is required", http.StatusBadRequest)
		return nil, false
	}

	g, err := h.goals.GetGoal(r.Context(), id)
	if err != nil {
		writeError(w, err, "to get goal")
		return nil, false
	}
	if !canAccess(r, g.UserID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil, false
	}
	return g, true
}

func (h *GoalHandler) handleGetGoal(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGoal(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, GoalDetailResponse{Goal: g, RemainingAmount: g.Remaining()})
}

func (h *GoalHandler) handleUpdateGoal(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGoal(w, r)
	if !ok {
		return
	}

	var req UpdateGoalRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	params := goal.UpdateParams{Name: req.Name, TargetAmount: req.TargetAmount}
	if req.Deadline != nil {
		deadline, err := parseDate(*req.Deadline)
		if err != nil {
			http.Error(w, "deadline must be a date (YYYY-MM-DD) or RFC 3339 timestamp", http.StatusBadRequest)
			return
		}
		params.Deadline = &deadline
	}

	updated, err := h.goals.UpdateGoal(r.Context(), g.ID, params)
	if err != nil {
		writeError(w, err, "to update goal")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h *GoalHandler) handleDeleteGoal(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGoal(w, r)
	if !ok {
		return
	}

	deleted, err := h.goals.DeleteGoal(r.Context(), g.ID)
	if err != nil {
		writeError(w, err, "to delete goal")
		return
	}
	if !deleted {
		http.Error(w, "Goal not found", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleContribution handles POST /api/goals/{id}/contributions
func (h *GoalHandler) HandleContribution(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	g, ok := h.loadGoal(w, r)
	if !ok {
		return
	}

	var req ContributionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	updated, err := h.goals.AddManualContribution(r.Context(), g.ID, req.Amount)
	if err != nil {
		writeError(w, err, "to add contribution")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleTrack handles POST /api/goals/{id}/track
func (h *GoalHandler) HandleTrack(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	g, ok := h.loadGoal(w, r)
	if !ok {
		return
	}

	updated, err := h.goals.TrackGoalProgress(r.Context(), g.ID)
	if err != nil {
		writeError(w, err, "to track goal progress")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// HandleRemaining handles GET /api/goals/{id}/remaining
func (h *GoalHandler) HandleRemaining(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	g, ok := h.loadGoal(w, r)
	if !ok {
		return
	}

	remaining, err := h.goals.CalculateRemainingAmountForGoal(r.Context(), g.ID)
	if err != nil {
		writeError(w, err, "to calculate remaining amount")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"goalId":          g.ID,
		"remainingAmount": remaining,
		"asOf":            time.Now().UTC(),
	})
}

// HandleBudgetLink handles PUT/DELETE /api/goals/{id}/budget
func (h *GoalHandler) HandleBudgetLink(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPut, http.MethodPost:
		h.handleLinkBudget(w, r)
	case http.MethodDelete:
		h.handleUnlinkBudget(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *GoalHandler) handleLinkBudget(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGoal(w, r)
	if !ok {
		return
	}

	var req LinkBudgetRequest
	if err := decodeJSON(w, r, &req); err != nil || req.BudgetID == "" {
		http.Error(w, "budgetId is required", http.StatusBadRequest)
		return
	}

	b, err := h.budgets.GetBudget(r.Context(), req.BudgetID)
	if err != nil {
		writeError(w, err, "to get budget")
		return
	}
	if !canAccess(r, b.UserID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	linked, err := h.goals.LinkBudgetToGoal(r.Context(), g.ID, b.ID)
	if err != nil {
		writeError(w, err, "to link budget")
		return
	}
	writeJSON(w, http.StatusOK, linked)
}

func (h *GoalHandler) handleUnlinkBudget(w http.ResponseWriter, r *http.Request) {
	g, ok := h.loadGoal(w, r)
	if !ok {
		return
	}

	unlinked, err := h.goals.UnlinkBudgetFromGoal(r.Context(), g.ID)
	if err != nil {
		writeError(w, err, "to unlink budget")
		return
	}
	writeJSON(w, http.StatusOK, unlinked)
}
