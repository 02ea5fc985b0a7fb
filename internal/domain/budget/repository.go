package budget

import "context"

// Repository defines the interface for budget data access.
// Defined in the domain layer, implemented in the infrastructure layer.
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Budget, error)

	// GetByID returns ErrBudgetNotFound when no budget has the given ID.
	GetByID(ctx context.Context, id string) (*Budget, error)

	ListByUserID(ctx context.Context, userID int64) ([]*Budget, error)
	Update(ctx context.Context, id string, params UpdateParams) (*Budget, error)
	Delete(ctx context.Context, id string) error

	// GetByGoalID returns the budget linked to a goal, or nil when the goal
	// has no linked budget.
	GetByGoalID(ctx context.Context, goalID string) (*Budget, error)
}
