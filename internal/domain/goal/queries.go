package goal

import (
	"context"

	"github.com/shopspring/decimal"
)

func (s *Service) GetGoal(ctx context.Context, id string) (*Goal, error) {
	if id == "" {
		return nil, ErrGoalNotFound
	}
	return s.goals.GetByID(ctx, id)
}

func (s *Service) GetGoalsByUser(ctx context.Context, userID int64) ([]*Goal, error) {
	return s.list(ctx, userID, StatusAll)
}

// GetActiveGoals returns the goals whose deadline is after now.
func (s *Service) GetActiveGoals(ctx context.Context, userID int64) ([]*Goal, error) {
	return s.list(ctx, userID, StatusActive)
}

// GetCompletedGoals returns the goals at or above 100% progress.
func (s *Service) GetCompletedGoals(ctx context.Context, userID int64) ([]*Goal, error) {
	return s.list(ctx, userID, StatusCompleted)
}

// GetOverdueGoals returns the goals past their deadline below 100% progress.
func (s *Service) GetOverdueGoals(ctx context.Context, userID int64) ([]*Goal, error) {
	return s.list(ctx, userID, StatusOverdue)
}

func (s *Service) list(ctx context.Context, userID int64, status Status) ([]*Goal, error) {
	if userID <= 0 {
		return nil, ErrInvalidGoalUser
	}
	return s.goals.ListByUserID(ctx, userID, status, s.now())
}

// CalculateRemainingAmountForGoal returns target minus current, clamped at zero.
func (s *Service) CalculateRemainingAmountForGoal(ctx context.Context, id string) (decimal.Decimal, error) {
	g, err := s.GetGoal(ctx, id)
	if err != nil {
		return decimal.Zero, err
	}
	return g.Remaining(), nil
}

// IsOwner reports whether userID owns the goal. A missing goal is
// ErrGoalNotFound, not false.
func (s *Service) IsOwner(ctx context.Context, goalID string, userID int64) (bool, error) {
	g, err := s.GetGoal(ctx, goalID)
	if err != nil {
		return false, err
	}
	return g.UserID == userID, nil
}
