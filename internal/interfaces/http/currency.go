package http

import (
	"context"
	"net/http"

	"github.com/shopspring/decimal"
)

type CurrencyConverter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

type CurrencyHandler struct {
	converter CurrencyConverter
}

func NewCurrencyHandler(converter CurrencyConverter) *CurrencyHandler {
	return &CurrencyHandler{converter: converter}
}

type ConversionResponse struct {
	Amount    decimal.Decimal `json:"amount"`
	From      string          `json:"from"`
	To        string          `json:"to"`
	Converted decimal.Decimal `json:"converted"`
}

// HandleConvert handles GET /api/currency/convert?amount=&from=&to=
func (h *CurrencyHandler) HandleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		http.Error(w, "amount must be a number", http.StatusBadRequest)
		return
	}
	from, to := q.Get("from"), q.Get("to")
	if from == "" || to == "" {
		http.Error(w, "from and to are required", http.StatusBadRequest)
		return
	}

	converted, err := h.converter.Convert(r.Context(), amount, from, to)
	if err != nil {
		writeError(w, err, "to convert currency")
		return
	}

	writeJSON(w, http.StatusOK, ConversionResponse{
		Amount:    amount,
		From:      from,
		To:        to,
		Converted: converted.Round(2),
	})
}
