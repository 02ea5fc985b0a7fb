package goal

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	maxNameLength    = 100
	nearDeadlineDays = 7
)

// ErrInvalidArgument is the class of every domain rule violation.
// Specific validation errors wrap it, so errors.Is(err, ErrInvalidArgument)
// identifies them all.
var ErrInvalidArgument = errors.New("invalid argument")

var (
	ErrGoalNotFound    = errors.New("goal not found")
	ErrForbidden       = errors.New("forbidden: goal does not belong to user")
	ErrVersionConflict = errors.New("goal was modified concurrently")

	ErrNameRequired      = fmt.Errorf("%w: goal name is required", ErrInvalidArgument)
	ErrNameTooLong       = fmt.Errorf("%w: goal name must be 100 characters or less", ErrInvalidArgument)
	ErrNonPositiveTarget = fmt.Errorf("%w: target amount must be greater than zero", ErrInvalidArgument)
	ErrDeadlineNotFuture = fmt.Errorf("%w: deadline must be in the future", ErrInvalidArgument)
	ErrNonPositiveAmount = fmt.Errorf("%w: amount must be greater than zero", ErrInvalidArgument)
	ErrOwnerMismatch     = fmt.Errorf("%w: budget and goal must belong to the same user", ErrInvalidArgument)
	ErrInvalidPeriod     = fmt.Errorf("%w: period start must not be after its end", ErrInvalidArgument)
	ErrInvalidGoalUser   = fmt.Errorf("%w: valid user ID is required", ErrInvalidArgument)
)

var hundred = decimal.NewFromInt(100)

// Goal is a savings target owned by one user.
//
// ProgressPercentage is always CurrentAmount / TargetAmount * 100 and may
// exceed 100. Version is incremented by the store on every write.
type Goal struct {
	ID                 string          `json:"id"`
	UserID             int64           `json:"userId"`
	Name               string          `json:"name"`
	TargetAmount       decimal.Decimal `json:"targetAmount"`
	CurrentAmount      decimal.Decimal `json:"currentAmount"`
	ProgressPercentage decimal.Decimal `json:"progressPercentage"`
	Deadline           time.Time       `json:"deadline"`
	BudgetID           *string         `json:"budgetId,omitempty"`
	Version            int             `json:"version"`
	CreatedAt          time.Time       `json:"createdAt"`
	UpdatedAt          time.Time       `json:"updatedAt"`
}

// Progress returns current / target * 100, or zero for a non-positive target.
func Progress(current, target decimal.Decimal) decimal.Decimal {
	if !target.IsPositive() {
		return decimal.Zero
	}
	return current.Mul(hundred).Div(target)
}

// SetCurrentAmount stores amount and recomputes the progress percentage.
func (g *Goal) SetCurrentAmount(amount decimal.Decimal) {
	g.CurrentAmount = amount
	g.ProgressPercentage = Progress(amount, g.TargetAmount)
}

func (g *Goal) IsCompleted() bool {
	return g.ProgressPercentage.GreaterThanOrEqual(hundred)
}

// IsActive reports whether the deadline is strictly after now.
func (g *Goal) IsActive(now time.Time) bool {
	return g.Deadline.After(now)
}

func (g *Goal) IsOverdue(now time.Time) bool {
	return g.Deadline.Before(now) && !g.IsCompleted()
}

// Remaining is the amount still missing to reach the target, never negative.
func (g *Goal) Remaining() decimal.Decimal {
	left := g.TargetAmount.Sub(g.CurrentAmount)
	if left.IsNegative() {
		return decimal.Zero
	}
	return left
}

// Status selects a subset of a user's goals.
type Status string

const (
	StatusAll       Status = ""
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusOverdue   Status = "overdue"
)

// Matches reports whether g belongs to the subset at instant now.
func (s Status) Matches(g *Goal, now time.Time) bool {
	switch s {
	case StatusActive:
		return g.IsActive(now)
	case StatusCompleted:
		return g.IsCompleted()
	case StatusOverdue:
		return g.IsOverdue(now)
	default:
		return true
	}
}

// DaysRemaining counts calendar days from now to the deadline, ignoring the
// time of day. It is negative once the deadline date has passed.
func DaysRemaining(deadline, now time.Time) int {
	return int(civilDate(deadline).Sub(civilDate(now)).Hours() / 24)
}

// IsNearDeadline reports whether 0 < days remaining <= 7.
func IsNearDeadline(deadline, now time.Time) (int, bool) {
	days := DaysRemaining(deadline, now)
	return days, days > 0 && days <= nearDeadlineDays
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// CreateParams contains parameters for creating a goal. A current amount
// supplied by the caller is ignored: new goals always start at zero.
type CreateParams struct {
	ID            string
	UserID        int64
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	Deadline      time.Time
}

func (p *CreateParams) Validate(now time.Time) error {
	if p.UserID <= 0 {
		return ErrInvalidGoalUser
	}
	p.Name = strings.TrimSpace(p.Name)
	if err := validateName(p.Name); err != nil {
		return err
	}
	if !p.TargetAmount.IsPositive() {
		return ErrNonPositiveTarget
	}
	if !p.Deadline.After(now) {
		return ErrDeadlineNotFuture
	}
	p.CurrentAmount = decimal.Zero
	return nil
}

// UpdateParams contains the fields of a goal that may be changed. Nil
// fields keep their current value.
type UpdateParams struct {
	Name         *string
	TargetAmount *decimal.Decimal
	Deadline     *time.Time
}

// Apply validates the merged goal with the creation rules and writes the
// changes into g. The current amount is left untouched.
func (p UpdateParams) Apply(g *Goal, now time.Time) error {
	name := g.Name
	if p.Name != nil {
		name = strings.TrimSpace(*p.Name)
	}
	target := g.TargetAmount
	if p.TargetAmount != nil {
		target = *p.TargetAmount
	}
	deadline := g.Deadline
	if p.Deadline != nil {
		deadline = *p.Deadline
	}

	if err := validateName(name); err != nil {
		return err
	}
	if !target.IsPositive() {
		return ErrNonPositiveTarget
	}
	if !deadline.After(now) {
		return ErrDeadlineNotFuture
	}

	g.Name = name
	g.TargetAmount = target
	g.Deadline = deadline
	g.SetCurrentAmount(g.CurrentAmount)
	return nil
}

func validateName(name string) error {
	if name == "" {
		return ErrNameRequired
	}
	if len(name) > maxNameLength {
		return ErrNameTooLong
	}
	return nil
}
