package goal

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"poupa/internal/domain/budget"
	"poupa/internal/domain/currency"
	"poupa/internal/domain/transaction"
	"poupa/internal/shared/messages"
)

// maxWriteAttempts bounds the read-modify-write retries on version conflicts.
const maxWriteAttempts = 3

var (
	goalMeter             = otel.Meter("poupa/goal")
	allocationsTotal, _   = goalMeter.Int64Counter("goal.allocations.total", metric.WithDescription("Savings allocation transactions recorded"))
	notificationsTotal, _ = goalMeter.Int64Counter("goal.notifications.total", metric.WithDescription("Goal notifications emitted by kind"))
	writeConflicts, _     = goalMeter.Int64Counter("goal.write.conflicts", metric.WithDescription("Goal writes retried after a version conflict"))
)

// Notifier delivers messages to a user. Both methods are fire-and-forget
// from the engine's point of view: errors are logged, never returned.
type Notifier interface {
	Send(ctx context.Context, userID int64, title, message string) error
	SendEmail(ctx context.Context, userID int64, title, message string) error
}

// Profiles resolves the reference currency of a user.
type Profiles interface {
	BaseCurrency(ctx context.Context, userID int64) (string, error)
}

// Deps groups the collaborators of the engine.
type Deps struct {
	Goals     Repository
	Links     LinkRepository
	Budgets   budget.Repository
	Ledger    transaction.Repository
	Notifier  Notifier
	Converter *currency.Converter
	Profiles  Profiles
	Messages  *messages.Messages
}

// Service is the goals and savings engine.
type Service struct {
	goals     Repository
	links     LinkRepository
	budgets   budget.Repository
	ledger    transaction.Repository
	notifier  Notifier
	converter *currency.Converter
	profiles  Profiles
	texts     *messages.Messages
	now       func() time.Time
}

func NewService(deps Deps) *Service {
	texts := deps.Messages
	if texts == nil {
		texts = messages.Defaults()
	}
	return &Service{
		goals:     deps.Goals,
		links:     deps.Links,
		budgets:   deps.Budgets,
		ledger:    deps.Ledger,
		notifier:  deps.Notifier,
		converter: deps.Converter,
		profiles:  deps.Profiles,
		texts:     texts,
		now:       time.Now,
	}
}

// SetGoal validates and stores a new goal. The stored goal always starts
// with a zero current amount.
func (s *Service) SetGoal(ctx context.Context, params CreateParams) (*Goal, error) {
	if err := params.Validate(s.now()); err != nil {
		return nil, err
	}
	if params.ID == "" {
		params.ID = uuid.NewString()
	}
	return s.goals.Create(ctx, params)
}

// UpdateGoal re-validates the merged goal with the creation rules. The
// current amount is kept.
func (s *Service) UpdateGoal(ctx context.Context, id string, params UpdateParams) (*Goal, error) {
	return s.mutate(ctx, id, func(g *Goal) error {
		return params.Apply(g, s.now())
	})
}

func (s *Service) DeleteGoal(ctx context.Context, id string) (bool, error) {
	if _, err := s.goals.GetByID(ctx, id); err != nil {
		return false, err
	}
	if err := s.goals.Delete(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

// AddManualContribution adds amount to the goal's current amount. Progress
// may pass 100%; reaching it emits the achievement notifications once.
func (s *Service) AddManualContribution(ctx context.Context, id string, amount decimal.Decimal) (*Goal, error) {
	if !amount.IsPositive() {
		return nil, ErrNonPositiveAmount
	}

	g, err := s.mutate(ctx, id, func(g *Goal) error {
		g.SetCurrentAmount(g.CurrentAmount.Add(amount))
		return nil
	})
	if err != nil {
		return nil, err
	}

	if g.IsCompleted() {
		s.notifyAchieved(ctx, g)
	}
	return g, nil
}

// mutate loads the goal, applies fn and writes it back, re-reading and
// retrying when another writer bumped the version in between.
func (s *Service) mutate(ctx context.Context, id string, fn func(g *Goal) error) (*Goal, error) {
	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		g, err := s.goals.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if err := fn(g); err != nil {
			return nil, err
		}

		updated, err := s.goals.Update(ctx, g)
		if errors.Is(err, ErrVersionConflict) {
			writeConflicts.Add(ctx, 1)
			log.Printf("Goal %s: version conflict on attempt %d, retrying", id, attempt)
			continue
		}
		if err != nil {
			return nil, err
		}
		return updated, nil
	}
	return nil, fmt.Errorf("goal %s: %w after %d attempts", id, ErrVersionConflict, maxWriteAttempts)
}

// LinkBudgetToGoal pairs a budget with a goal of the same owner, replacing
// any previous pair of either side.
func (s *Service) LinkBudgetToGoal(ctx context.Context, goalID, budgetID string) (*Goal, error) {
	g, err := s.goals.GetByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	b, err := s.budgets.GetByID(ctx, budgetID)
	if err != nil {
		return nil, err
	}
	if b.UserID != g.UserID {
		return nil, ErrOwnerMismatch
	}

	if err := s.links.Link(ctx, goalID, budgetID); err != nil {
		return nil, err
	}
	g.BudgetID = &b.ID

	text := s.texts.BudgetLinked
	s.send(ctx, g.UserID, text.Title, text.Format(b.Category, g.Name), "budget_linked")
	return g, nil
}

func (s *Service) UnlinkBudgetFromGoal(ctx context.Context, goalID string) (*Goal, error) {
	g, err := s.goals.GetByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if err := s.links.Unlink(ctx, goalID); err != nil {
		return nil, err
	}
	g.BudgetID = nil

	text := s.texts.BudgetUnlinked
	s.send(ctx, g.UserID, text.Title, text.Format(g.Name), "budget_unlinked")
	return g, nil
}

func (s *Service) baseCurrency(ctx context.Context, userID int64) (string, error) {
	code, err := s.profiles.BaseCurrency(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base currency for user %d: %w", userID, err)
	}
	return currency.NormalizeCode(code)
}
