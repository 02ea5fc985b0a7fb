package budget

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"poupa/internal/domain/currency"
)

var (
	ErrBudgetNotFound    = errors.New("budget not found")
	ErrForbidden         = errors.New("forbidden: budget does not belong to user")
	ErrCategoryRequired  = errors.New("category is required")
	ErrCategoryTooLong   = errors.New("category must be 64 characters or less")
	ErrNegativeLimit     = errors.New("limit must not be negative")
	ErrInvalidPeriod     = errors.New("end date must not be before start date")
	ErrStartDateRequired = errors.New("start date is required")
)

// Budget is a spending ceiling for a category over a period. GoalID is read
// from the goal/budget link relation and is never written through the budget.
type Budget struct {
	ID                  string          `json:"id"`
	UserID              int64           `json:"-"`
	Category            string          `json:"category"`
	Limit               decimal.Decimal `json:"limit"`
	StartDate           time.Time       `json:"startDate"`
	EndDate             time.Time       `json:"endDate"`
	NotificationEnabled bool            `json:"notificationEnabled"`
	CurrencyCode        string          `json:"currencyCode"`
	GoalID              *string         `json:"goalId,omitempty"`
	CreatedAt           time.Time       `json:"createdAt"`
	UpdatedAt           time.Time       `json:"updatedAt"`
}

type CreateParams struct {
	ID                  string
	UserID              int64
	Category            string
	Limit               decimal.Decimal
	StartDate           time.Time
	EndDate             time.Time
	NotificationEnabled bool
	CurrencyCode        string
}

func (p *CreateParams) Validate() error {
	if p.UserID <= 0 {
		return errors.New("valid user ID is required")
	}
	if err := validateCategory(p.Category); err != nil {
		return err
	}
	if p.Limit.IsNegative() {
		return ErrNegativeLimit
	}
	if p.StartDate.IsZero() {
		return ErrStartDateRequired
	}
	if !p.EndDate.IsZero() && p.EndDate.Before(p.StartDate) {
		return ErrInvalidPeriod
	}
	code, err := currency.NormalizeCode(p.CurrencyCode)
	if err != nil {
		return err
	}
	p.CurrencyCode = code
	return nil
}

type UpdateParams struct {
	Category            *string
	Limit               *decimal.Decimal
	StartDate           *time.Time
	EndDate             *time.Time
	NotificationEnabled *bool
	CurrencyCode        *string
}

// Validate checks the supplied fields against the current budget so that a
// partial update cannot produce an inverted period.
func (p *UpdateParams) Validate(current *Budget) error {
	if p.Category != nil {
		if err := validateCategory(*p.Category); err != nil {
			return err
		}
	}
	if p.Limit != nil && p.Limit.IsNegative() {
		return ErrNegativeLimit
	}

	start, end := current.StartDate, current.EndDate
	if p.StartDate != nil {
		start = *p.StartDate
	}
	if p.EndDate != nil {
		end = *p.EndDate
	}
	if !end.IsZero() && end.Before(start) {
		return ErrInvalidPeriod
	}

	if p.CurrencyCode != nil {
		code, err := currency.NormalizeCode(*p.CurrencyCode)
		if err != nil {
			return err
		}
		p.CurrencyCode = &code
	}
	return nil
}

func validateCategory(c string) error {
	if c == "" {
		return ErrCategoryRequired
	}
	if len(c) > 64 {
		return ErrCategoryTooLong
	}
	return nil
}

// Contains reports whether t falls inside the budget period. An open-ended
// budget (zero EndDate) contains everything from StartDate on.
func (b *Budget) Contains(t time.Time) bool {
	if t.Before(b.StartDate) {
		return false
	}
	return b.EndDate.IsZero() || !t.After(b.EndDate)
}
