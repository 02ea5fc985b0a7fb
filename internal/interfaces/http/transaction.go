package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"poupa/internal/domain/goal"
	"poupa/internal/domain/transaction"
)

type TransactionService interface {
	Record(ctx context.Context, params transaction.CreateParams) (*transaction.Transaction, error)
	Get(ctx context.Context, id string) (*transaction.Transaction, error)
	List(ctx context.Context, userID int64, filter transaction.ListFilter) ([]*transaction.Transaction, error)
	Delete(ctx context.Context, id string) error
}

// GoalOwnership answers whether a user owns a goal.
type GoalOwnership interface {
	IsOwner(ctx context.Context, goalID string, userID int64) (bool, error)
}

type TransactionHandler struct {
	ledger TransactionService
	goals  GoalOwnership
}

func NewTransactionHandler(ledger TransactionService, goals GoalOwnership) *TransactionHandler {
	return &TransactionHandler{ledger: ledger, goals: goals}
}

type CreateTransactionRequest struct {
	Type         string          `json:"type"`
	Category     string          `json:"category"`
	Amount       decimal.Decimal `json:"amount"`
	Date         string          `json:"date,omitempty"`
	Description  string          `json:"description"`
	Tags         []string        `json:"tags,omitempty"`
	CurrencyCode string          `json:"currencyCode,omitempty"`
	GoalID       *string         `json:"goalId,omitempty"`
}

// HandleTransactions handles GET/POST /api/transactions/
func (h *TransactionHandler) HandleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.handleListTransactions(w, r)
	case http.MethodPost:
		h.handleCreateTransaction(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleTransactionByID handles GET/DELETE /api/transactions/{id}
func (h *TransactionHandler) HandleTransactionByID(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		if tx, ok := h.loadTransaction(w, r); ok {
			writeJSON(w, http.StatusOK, tx)
		}
	case http.MethodDelete:
		tx, ok := h.loadTransaction(w, r)
		if !ok {
			return
		}
		if err := h.ledger.Delete(r.Context(), tx.ID); err != nil {
			writeError(w, err, "to delete transaction")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *TransactionHandler) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := transaction.ListFilter{
		Type:     strings.ToUpper(q.Get("type")),
		Category: q.Get("category"),
		GoalID:   q.Get("goalId"),
	}
	if v := q.Get("from"); v != "" {
		from, err := parseDate(v)
		if err != nil {
			http.Error(w, "from must be a date (YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		filter.From = &from
	}
	if v := q.Get("to"); v != "" {
		to, err := parseDate(v)
		if err != nil {
			http.Error(w, "to must be a date (YYYY-MM-DD)", http.StatusBadRequest)
			return
		}
		filter.To = &to
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		filter.Limit = v
	}
	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v >= 0 {
		filter.Offset = v
	}

	txs, err := h.ledger.List(r.Context(), userID, filter)
	if err != nil {
		writeError(w, err, "to list transactions")
		return
	}
	if txs == nil {
		txs = []*transaction.Transaction{}
	}
	writeJSON(w, http.StatusOK, txs)
}

func (h *TransactionHandler) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req CreateTransactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	params := transaction.CreateParams{
		UserID:       userID,
		Type:         strings.ToUpper(req.Type),
		Category:     req.Category,
		Amount:       req.Amount,
		Description:  req.Description,
		Tags:         req.Tags,
		CurrencyCode: req.CurrencyCode,
	}
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			http.Error(w, "date must be a date (YYYY-MM-DD) or RFC 3339 timestamp", http.StatusBadRequest)
			return
		}
		params.Date = date
	}

	if req.GoalID != nil && *req.GoalID != "" {
		owns, err := h.goals.IsOwner(r.Context(), *req.GoalID, userID)
		if err != nil {
			writeError(w, err, "to verify goal")
			return
		}
		if !owns {
			writeError(w, goal.ErrForbidden, "to verify goal")
			return
		}
		params.GoalID = req.GoalID
	}

	tx, err := h.ledger.Record(r.Context(), params)
	if err != nil {
		writeError(w, err, "to create transaction")
		return
	}
	writeJSON(w, http.StatusCreated, tx)
}

func (h *TransactionHandler) loadTransaction(w http.ResponseWriter, r *http.Request) (*transaction.Transaction, bool) {
	if _, ok := requireUser(w, r); !ok {
		return nil, false
	}
	id := r.PathValue("id")
	if id == "" {
		http.Error(w, "Transaction ID is required", http.StatusBadRequest)
		return nil, false
	}

	tx, err := h.ledger.Get(r.Context(), id)
	if err != nil {
		writeError(w, err, "to get transaction")
		return nil, false
	}
	if !canAccess(r, tx.UserID) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil, false
	}
	return tx, true
}
