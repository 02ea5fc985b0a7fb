package goal

import (
	"context"
	"time"
)

// Repository defines the interface for goal data access.
// Defined in the domain layer, implemented in the infrastructure layer.
type Repository interface {
	// Create stores a new goal with a zero current amount and version 1.
	Create(ctx context.Context, params CreateParams) (*Goal, error)

	// GetByID returns ErrGoalNotFound when no goal has the given ID.
	GetByID(ctx context.Context, id string) (*Goal, error)

	// ListByUserID returns the user's goals in the given status at instant now.
	ListByUserID(ctx context.Context, userID int64, status Status, now time.Time) ([]*Goal, error)

	// ListActive returns the goals of every user whose deadline is after now.
	ListActive(ctx context.Context, now time.Time) ([]*Goal, error)

	// ListUserIDsWithActiveGoals returns the distinct owners of active goals.
	ListUserIDsWithActiveGoals(ctx context.Context, now time.Time) ([]int64, error)

	// Update writes name, target, deadline, current amount and progress only
	// if the stored version still equals g.Version. A stale write returns
	// ErrVersionConflict.
	Update(ctx context.Context, g *Goal) (*Goal, error)

	Delete(ctx context.Context, id string) error
}

// LinkRepository stores goal/budget pairs. A goal has at most one budget
// and a budget at most one goal.
type LinkRepository interface {
	// Link replaces any existing pair involving goalID or budgetID.
	Link(ctx context.Context, goalID, budgetID string) error
	Unlink(ctx context.Context, goalID string) error
}
