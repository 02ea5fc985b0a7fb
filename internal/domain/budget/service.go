package budget

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Service contains the business logic for budget operations
type Service struct {
	repo            Repository
	defaultCurrency string
}

// NewService creates a new budget service. defaultCurrency is applied to
// budgets created without a currency code.
func NewService(repo Repository, defaultCurrency string) *Service {
	return &Service{repo: repo, defaultCurrency: defaultCurrency}
}

// CreateBudget assigns an ID, applies the default currency and persists the budget.
func (s *Service) CreateBudget(ctx context.Context, params CreateParams) (*Budget, error) {
	if params.CurrencyCode == "" {
		params.CurrencyCode = s.defaultCurrency
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.ID == "" {
		params.ID = uuid.NewString()
	}

	return s.repo.Create(ctx, params)
}

func (s *Service) GetBudget(ctx context.Context, id string) (*Budget, error) {
	if id == "" {
		return nil, ErrBudgetNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListBudgets(ctx context.Context, userID int64) ([]*Budget, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}
	return s.repo.ListByUserID(ctx, userID)
}

// UpdateBudget validates the partial update against the stored budget.
func (s *Service) UpdateBudget(ctx context.Context, id string, params UpdateParams) (*Budget, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := params.Validate(current); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, params)
}

func (s *Service) DeleteBudget(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
