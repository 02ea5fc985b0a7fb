package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"poupa/internal/domain/currency"
	"poupa/internal/domain/goal"
	"poupa/internal/domain/user"
)

func TestHandleAllocate(t *testing.T) {
	tests := []struct {
		name           string
		body           any
		allocations    []goal.Allocation
		expectedStatus int
		wantCount      int
	}{
		{
			name: "split over two goals",
			body: map[string]any{"amount": "300"},
			allocations: []goal.Allocation{
				{GoalID: "g1", Amount: decimal.NewFromInt(100)},
				{GoalID: "g2", Amount: decimal.NewFromInt(200)},
			},
			expectedStatus: http.StatusOK,
			wantCount:      2,
		},
		{
			name:           "no active goals",
			body:           map[string]any{"amount": "300"},
			expectedStatus: http.StatusOK,
			wantCount:      0,
		},
		{
			name:           "non-positive amount",
			body:           map[string]any{"amount": "0"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockGoalService{
				AllocateFunc: func(ctx context.Context, userID int64, amount decimal.Decimal) ([]goal.Allocation, error) {
					if !amount.IsPositive() {
						return nil, goal.ErrNonPositiveAmount
					}
					return tt.allocations, nil
				},
			}
			handler := NewSavingsHandler(svc)

			rr := httptest.NewRecorder()
			handler.HandleAllocate(rr, newRequest(http.MethodPost, "/api/savings/allocate", tt.body, 1, user.RoleUser, nil))

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
			if rr.Code != http.StatusOK {
				return
			}
			var resp AllocationResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Allocations == nil || len(resp.Allocations) != tt.wantCount {
				t.Errorf("allocations = %v, want %d entries", resp.Allocations, tt.wantCount)
			}
		})
	}
}

func TestHandleNetSavings_Period(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		expectedStatus int
		wantTo         time.Time
	}{
		{
			name:           "date-only end covers the whole day",
			query:          "?from=2026-01-01&to=2026-01-31",
			expectedStatus: http.StatusOK,
			wantTo:         time.Date(2026, 1, 31, 23, 59, 59, 999999999, time.UTC),
		},
		{
			name:           "timestamp end is kept",
			query:          "?from=2026-01-01&to=2026-01-31T12:00:00Z",
			expectedStatus: http.StatusOK,
			wantTo:         time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC),
		},
		{"missing from", "?to=2026-01-31", http.StatusBadRequest, time.Time{}},
		{"bad to", "?from=2026-01-01&to=end", http.StatusBadRequest, time.Time{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotTo time.Time
			svc := &MockGoalService{
				NetSavingsFunc: func(ctx context.Context, userID int64, from, to time.Time) (*goal.NetSavings, error) {
					gotTo = to
					return &goal.NetSavings{From: from, To: to, Net: decimal.NewFromInt(50)}, nil
				},
			}
			handler := NewSavingsHandler(svc)

			rr := httptest.NewRecorder()
			handler.HandleNetSavings(rr, newRequest(http.MethodGet, "/api/savings/net"+tt.query, nil, 1, user.RoleUser, nil))

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
			if tt.expectedStatus == http.StatusOK && !gotTo.Equal(tt.wantTo) {
				t.Errorf("to = %v, want %v", gotTo, tt.wantTo)
			}
		})
	}
}

func TestHandleAllocateNet(t *testing.T) {
	svc := &MockGoalService{
		AllocateNetFunc: func(ctx context.Context, userID int64, from, to time.Time) (*goal.NetSavings, []goal.Allocation, error) {
			if from.After(to) {
				return nil, nil, goal.ErrInvalidPeriod
			}
			return &goal.NetSavings{From: from, To: to, Net: decimal.NewFromInt(-20)}, nil, nil
		},
	}
	handler := NewSavingsHandler(svc)

	tests := []struct {
		name           string
		body           any
		expectedStatus int
	}{
		{"negative net allocates nothing", map[string]string{"from": "2026-01-01", "to": "2026-01-31"}, http.StatusOK},
		{"inverted period", map[string]string{"from": "2026-02-01", "to": "2026-01-01"}, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.HandleAllocateNet(rr, newRequest(http.MethodPost, "/api/savings/allocate-net", tt.body, 1, user.RoleUser, nil))
			if rr.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
		})
	}
}

func TestHandleTotalSavings(t *testing.T) {
	svc := &MockGoalService{
		TotalSavingsFunc: func(ctx context.Context, userID int64) (decimal.Decimal, error) {
			return decimal.RequireFromString("1234.56"), nil
		},
	}
	handler := NewSavingsHandler(svc)

	rr := httptest.NewRecorder()
	handler.HandleTotalSavings(rr, newRequest(http.MethodGet, "/api/savings/total", nil, 1, user.RoleUser, nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var resp map[string]decimal.Decimal
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp["total"].Equal(decimal.RequireFromString("1234.56")) {
		t.Errorf("total = %s, want 1234.56", resp["total"])
	}
}

func TestHandleConvert(t *testing.T) {
	converter := &MockConverter{
		ConvertFunc: func(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error) {
			if from == "XXX" {
				return decimal.Zero, currency.ErrUnsupportedCurrency
			}
			return amount.Mul(decimal.RequireFromString("5.123")), nil
		},
	}
	handler := NewCurrencyHandler(converter)

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		wantConverted  string
	}{
		{"converts and rounds", "?amount=10&from=USD&to=BRL", http.StatusOK, "51.23"},
		{"bad amount", "?amount=ten&from=USD&to=BRL", http.StatusBadRequest, ""},
		{"missing target", "?amount=10&from=USD", http.StatusBadRequest, ""},
		{"unsupported currency", "?amount=10&from=XXX&to=BRL", http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.HandleConvert(rr, newRequest(http.MethodGet, "/api/currency/convert"+tt.query, nil, 1, user.RoleUser, nil))

			if rr.Code != tt.expectedStatus {
				t.Fatalf("status = %d, want %d", rr.Code, tt.expectedStatus)
			}
			if tt.wantConverted == "" {
				return
			}
			var resp ConversionResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if !resp.Converted.Equal(decimal.RequireFromString(tt.wantConverted)) {
				t.Errorf("converted = %s, want %s", resp.Converted, tt.wantConverted)
			}
		})
	}
}
