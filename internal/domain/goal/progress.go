package goal

import (
	"context"
	"fmt"
	"log"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"poupa/internal/domain/transaction"
)

// TrackGoalProgress recomputes the current amount from the linked budget's
// limit plus the goal's Savings transactions, overwriting the stored value.
// It then emits the achievement and near-deadline notifications that apply.
func (s *Service) TrackGoalProgress(ctx context.Context, id string) (*Goal, error) {
	g, err := s.mutate(ctx, id, func(g *Goal) error {
		contributed, err := s.contributedAmount(ctx, g)
		if err != nil {
			return err
		}
		g.SetCurrentAmount(contributed)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if g.IsCompleted() {
		s.notifyAchieved(ctx, g)
	}
	if days, ok := IsNearDeadline(g.Deadline, s.now()); ok {
		s.notifyNearDeadline(ctx, g, days)
	}
	return g, nil
}

// contributedAmount sums the goal's Savings transactions and the limit of
// its linked budget, all in the owner's base currency.
func (s *Service) contributedAmount(ctx context.Context, g *Goal) (decimal.Decimal, error) {
	base, err := s.baseCurrency(ctx, g.UserID)
	if err != nil {
		return decimal.Zero, err
	}

	txs, err := s.ledger.List(ctx, g.UserID, transaction.ListFilter{
		Category: transaction.CategorySavings,
		GoalID:   g.ID,
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to list savings for goal %s: %w", g.ID, err)
	}
	totals := transaction.TotalsByCurrency(txs)

	b, err := s.budgets.GetByGoalID(ctx, g.ID)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to get budget linked to goal %s: %w", g.ID, err)
	}
	if b != nil {
		totals[b.CurrencyCode] = totals[b.CurrencyCode].Add(b.Limit)
	}

	return s.converter.ToBase(ctx, totals, base)
}

// CheckAndNotifyNearOverdueGoals scans the active goals of every user and
// notifies the owners of those due within a week. It returns the number of
// goals notified.
func (s *Service) CheckAndNotifyNearOverdueGoals(ctx context.Context) (int, error) {
	goals, err := s.goals.ListActive(ctx, s.now())
	if err != nil {
		return 0, err
	}
	return s.notifyNearDeadlines(ctx, goals), nil
}

// CheckAndNotifyNearOverdueGoalsForUser runs the same sweep for one user.
func (s *Service) CheckAndNotifyNearOverdueGoalsForUser(ctx context.Context, userID int64) (int, error) {
	goals, err := s.GetActiveGoals(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.notifyNearDeadlines(ctx, goals), nil
}

// ActiveGoalOwners lists the users a deadline sweep has to visit.
func (s *Service) ActiveGoalOwners(ctx context.Context) ([]int64, error) {
	return s.goals.ListUserIDsWithActiveGoals(ctx, s.now())
}

func (s *Service) notifyNearDeadlines(ctx context.Context, goals []*Goal) int {
	now := s.now()
	notified := 0
	for _, g := range goals {
		if ctx.Err() != nil {
			break
		}
		if days, ok := IsNearDeadline(g.Deadline, now); ok {
			s.notifyNearDeadline(ctx, g, days)
			notified++
		}
	}
	return notified
}

func (s *Service) notifyAchieved(ctx context.Context, g *Goal) {
	text := s.texts.GoalAchieved
	s.notifyPair(ctx, g.UserID, text.Title, text.Format(g.Name), "goal_achieved")
}

func (s *Service) notifyNearDeadline(ctx context.Context, g *Goal, days int) {
	text := s.texts.GoalNearDeadline
	s.notifyPair(ctx, g.UserID, text.Title, text.Format(g.Name, days), "goal_near_deadline")
}

// notifyPair emits the in-app and the email notification.
func (s *Service) notifyPair(ctx context.Context, userID int64, title, message, kind string) {
	s.send(ctx, userID, title, message, kind)

	if s.notifier == nil {
		return
	}
	if err := s.notifier.SendEmail(ctx, userID, title, message); err != nil {
		log.Printf("Error emailing %s notification to user %d: %v", kind, userID, err)
		return
	}
	notificationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("channel", "email"),
	))
}

func (s *Service) send(ctx context.Context, userID int64, title, message, kind string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Send(ctx, userID, title, message); err != nil {
		log.Printf("Error sending %s notification to user %d: %v", kind, userID, err)
		return
	}
	notificationsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("channel", "in_app"),
	))
}
