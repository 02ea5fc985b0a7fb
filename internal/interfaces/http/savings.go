package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"poupa/internal/domain/goal"
)

type SavingsService interface {
	AllocateSavings(ctx context.Context, userID int64, amount decimal.Decimal) ([]goal.Allocation, error)
	CalculateNetSavings(ctx context.Context, userID int64, from, to time.Time) (*goal.NetSavings, error)
	AllocateNetSavings(ctx context.Context, userID int64, from, to time.Time) (*goal.NetSavings, []goal.Allocation, error)
	CalculateTotalSavings(ctx context.Context, userID int64) (decimal.Decimal, error)
}

type SavingsHandler struct {
	savings SavingsService
}

func NewSavingsHandler(savings SavingsService) *SavingsHandler {
	return &SavingsHandler{savings: savings}
}

type AllocateRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type AllocateNetRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type AllocationResponse struct {
	NetSavings  *goal.NetSavings  `json:"netSavings,omitempty"`
	Allocations []goal.Allocation `json:"allocations"`
}

// HandleAllocate handles POST /api/savings/allocate
func (h *SavingsHandler) HandleAllocate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AllocateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	allocations, err := h.savings.AllocateSavings(r.Context(), userID, req.Amount)
	if err != nil {
		writeError(w, err, "to allocate savings")
		return
	}
	writeJSON(w, http.StatusOK, AllocationResponse{Allocations: nonNil(allocations)})
}

// HandleAllocateNet handles POST /api/savings/allocate-net
func (h *SavingsHandler) HandleAllocateNet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	var req AllocateNetRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	from, to, ok := parsePeriod(w, req.From, req.To)
	if !ok {
		return
	}

	net, allocations, err := h.savings.AllocateNetSavings(r.Context(), userID, from, to)
	if err != nil {
		writeError(w, err, "to allocate net savings")
		return
	}
	writeJSON(w, http.StatusOK, AllocationResponse{NetSavings: net, Allocations: nonNil(allocations)})
}

// HandleNetSavings handles GET /api/savings/net?from=&to=
func (h *SavingsHandler) HandleNetSavings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	from, to, ok := parsePeriod(w, r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if !ok {
		return
	}

	net, err := h.savings.CalculateNetSavings(r.Context(), userID, from, to)
	if err != nil {
		writeError(w, err, "to calculate net savings")
		return
	}
	writeJSON(w, http.StatusOK, net)
}

// HandleTotalSavings handles GET /api/savings/total
func (h *SavingsHandler) HandleTotalSavings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	userID, ok := requireUser(w, r)
	if !ok {
		return
	}

	total, err := h.savings.CalculateTotalSavings(r.Context(), userID)
	if err != nil {
		writeError(w, err, "to calculate total savings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"total": total})
}

// parsePeriod reads an inclusive [from, to] pair of dates. The end date is
// extended to the last instant of its day.
func parsePeriod(w http.ResponseWriter, fromValue, toValue string) (time.Time, time.Time, bool) {
	from, err := parseDate(fromValue)
	if err != nil {
		http.Error(w, "from must be a date (YYYY-MM-DD)", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	to, err := parseDate(toValue)
	if err != nil {
		http.Error(w, "to must be a date (YYYY-MM-DD)", http.StatusBadRequest)
		return time.Time{}, time.Time{}, false
	}
	if len(toValue) == len(dateLayout) {
		to = to.Add(24*time.Hour - time.Nanosecond)
	}
	return from, to, true
}

func nonNil(allocations []goal.Allocation) []goal.Allocation {
	if allocations == nil {
		return []goal.Allocation{}
	}
	return allocations
}
