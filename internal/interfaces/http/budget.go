package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"poupa/internal/domain/budget"
)

type BudgetService interface {
	CreateBudget(ctx context.Context, params budget.CreateParams) (*budget.Budget, error)
	GetBudget(ctx context.Context, id string) (*budget.Budget, error)
	ListBudgets(ctx context.Context, userID int64) ([]*budget.Budget, error)
	UpdateBudget(ctx context.Context, id string, params budget.UpdateParams) (*budget.Budget, error)
	DeleteBudget(ctx context.Context, id string) error
}

type BudgetHandler struct {
	budgets BudgetService
	goals   GoalService
}

func NewBudgetHandler(budgets BudgetService, goals GoalService) *BudgetHandler {
	return &BudgetHandler{budgets: budgets, goals: goals}
}

type CreateBudgetRequest struct {
	Category            string          `json:"category"`
	Limit               decimal.Decimal `json:"limit"`
	StartDate           string          `json:"startDate"`
	EndDate             string          `json:"endDate,omitempty"`
	NotificationEnabled bool            `json:"notificationEnabled"`
	CurrencyCode        string          `json:"currencyCode,omitempty"`
}

type UpdateBudgetRequest struct {
	Category            *string          `json:"category,omitempty"`
	Limit               *decimal.Decimal `json:"limit,omitempty"`
	StartDate           *string          `json:"startDate,omitempty"`
	EndDate             *string          `json:"endDate,omitempty"`
	NotificationEnabled *bool            `json:"notificationEnabled,omitempty"`
	CurrencyCode        *string          `json:"currencyCode,omitempty"`
}

// HandleBudgets handles GET/POST /api/budgets/
func (h *BudgetHandler) HandleBudgets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListBudgets(w, r)
	case http.MethodPost:
		h.handleCreateBudget(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleBudgetByID handles GET/PUT/DELETE /api/budgets/{id}
func (h *BudgetHandler) HandleBudgetByID(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if b, ok := h.loadBudget(w, r); ok {
			writeJSON(w, http.StatusOK, b)
		}
	case http.MethodPut, http.MethodPatch:
		h.handleUpdateBudget(w, r)
	case http.MethodDelete:
		h.handleDeleteBudget(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *BudgetHandler) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	budgets, err := h.budgets.ListBudgets(r.Context(), userID)
	if err != nil {
		writeError(w, err, "to list budgets")
		return
	}
	if budgets == nil {
		budgets = []*budget.Budget{}
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (h *BudgetHandler) handleCreateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateBudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	start, err := parseDate(req.StartDate)
	if err != nil {
		http.Error(w, "startDate must be a date (YYYY-MM-DD)", http.StatusBadRequest)
		return
	}
	var end time.Time
	if req.EndDate != "" {
		if end, err = parseDate(req.EndDate); err != nil {
			http.Error(w, "endDate must be a date (YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
	}

	b, err := h.budgets.CreateBudget(r.Context(), budget.CreateParams{
		UserID:              userID,
		Category:            req.Category,
		Limit:               req.Limit,
		StartDate:           start,
		EndDate:             end,
		NotificationEnabled: req.NotificationEnabled,
		CurrencyCode:        req.CurrencyCode,
	})
	if err != nil {
		writeError(w, err, "to create budget")
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BudgetHandler) loadBudget(w http.ResponseWriter, r *http.Request) (*budget.Budget, bool) {
	if _, ok := requireUser(w, r); !ok {
		return nil, false
	}
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Budget ID is required", http.StatusBadRequest)
		return nil, false
	}

	b, err := h.budgets.GetBudget(r.Context(), id)
	if err != nil {
		writeError(w, err, "to get budget")
		return nil, false
	}
	if !canAccess(r, b.UserID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil, false
	}
	return b, true
}

func (h *BudgetHandler) handleUpdateBudget(w http.ResponseWriter, r *http.Request) {
	b, ok := h.loadBudget(w, r)
	if !ok {
		return
	}

	var req UpdateBudgetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	params := budget.UpdateParams{
		Category:            req.Category,
		Limit:               req.Limit,
		NotificationEnabled: req.NotificationEnabled,
		CurrencyCode:        req.CurrencyCode,
	}
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate)
		if err != nil {
			http.Error(w, "startDate must be a date (YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		params.StartDate = &start
	}
	if req.EndDate != nil {
		var end time.Time
		if *req.EndDate != "" {
			var err error
			if end, err = parseDate(*req.EndDate); err != nil {
				http.Error(w, "endDate must be a date (YYYY-MM-DD)", http.StatusBadRequest)
				return
			}
		}
		params.EndDate = &end
	}

	updated, err := h.budgets.UpdateBudget(r.Context(), b.ID, params)
	if err != nil {
		writeError(w, err, "to update budget")
		return
	}

	// The limit of a linked budget counts toward its goal.
	if updated.GoalID != nil && (req.Limit != nil || req.CurrencyCode != nil) {
		if _, err := h.goals.TrackGoalProgress(r.Context(), *updated.GoalID); err != nil {
			log.Printf("Error refreshing goal %s after budget %s update: %v", *updated.GoalID, b.ID, err)
		}
	}

	writeJSON(w, http.StatusOK, updated)
}

func (h *BudgetHandler) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	b, ok := h.loadBudget(w, r)
	if !ok {
		return
	}

	if err := h.budgets.DeleteBudget(r.Context(), b.ID); err != nil {
		writeError(w, err, "to delete budget")
		return
	}

	if b.GoalID != nil {
		if _, err := h.goals.TrackGoalProgress(r.Context(), *b.GoalID); err != nil {
			log.Printf("Error refreshing goal %s after budget %s deletion: %v", *b.GoalID, b.ID, err)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
