package transaction

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"poupa/internal/domain/currency"
)

const (
	TypeIncome  = "INCOME"
	TypeExpense = "EXPENSE"
)

// CategorySavings marks ledger entries that count toward savings goals.
const CategorySavings = "Savings"

// AllocationTag marks entries written by the goal allocator. The database
// trigger skips goal notifications for tagged rows, so it is reserved and
// never accepted from clients.
const AllocationTag = "goal-allocation"

const (
	maxTags           = 20
	maxTagLength      = 32
	maxDescriptionLen = 255
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrForbidden           = errors.New("forbidden: transaction does not belong to user")
	ErrInvalidType         = errors.New("type must be INCOME or EXPENSE")
	ErrCategoryRequired    = errors.New("category is required")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrDateRequired        = errors.New("date is required")
	ErrTooManyTags         = errors.New("at most 20 tags are allowed")
	ErrTagTooLong          = errors.New("tags must be 32 characters or less")
	ErrDescriptionTooLong  = errors.New("description must be 255 characters or less")
)

type Transaction struct {
	ID           string          `json:"id"`
	UserID       int64           `json:"-"`
	Type         string          `json:"type"`
	Category     string          `json:"category"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	Description  string          `json:"description"`
	Tags         []string        `json:"tags"`
	CurrencyCode string          `json:"currencyCode"`
	GoalID       *string         `json:"goalId,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type CreateParams struct {
	ID           string
	UserID       int64
	Type         string
	Category     string
	Amount       decimal.Decimal
	Date         time.Time
	Description  string
	Tags         []string
	CurrencyCode string
	GoalID       *string
}

func (p *CreateParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if !IsValidType(p.Type) {
		return ErrInvalidType
	}
	if p.Category == "" {
		return ErrCategoryRequired
	}
	if !p.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if p.Date.IsZero() {
		return ErrDateRequired
	}
	if len(p.Description) > maxDescriptionLen {
		return ErrDescriptionTooLong
	}
	if len(p.Tags) > maxTags {
		return ErrTooManyTags
	}
	for _, tag := range p.Tags {
		if len(tag) > maxTagLength {
			return ErrTagTooLong
		}
	}
	code, err := currency.NormalizeCode(p.CurrencyCode)
	if err != nil {
		return err
	}
	p.CurrencyCode = code
	return nil
}

func IsValidType(t string) bool {
	return t == TypeIncome || t == TypeExpense
}

// ListFilter narrows a ledger query. Zero values mean "no constraint";
// a zero Limit returns every match. From and To are inclusive.
type ListFilter struct {
	Type     string
	Category string
	GoalID   string
	From     *time.Time
	To       *time.Time
	Limit    int
	Offset   int
}

// TotalsByCurrency groups amounts by currency code.
func TotalsByCurrency(txs []*Transaction) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)
	for _, t := range txs {
		totals[t.CurrencyCode] = totals[t.CurrencyCode].Add(t.Amount)
	}
	return totals
}
