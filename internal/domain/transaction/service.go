package transaction

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// Service contains the business logic for ledger operations
type Service struct {
	repo            Repository
	defaultCurrency string
	now             func() time.Time
}

func NewService(repo Repository, defaultCurrency string) *Service {
	return &Service{repo: repo, defaultCurrency: defaultCurrency, now: time.Now}
}

// Record validates and appends a transaction to the ledger. Missing ID,
// currency and date are filled with a fresh UUID, the default currency and today.
func (s *Service) Record(ctx context.Context, params CreateParams) (*Transaction, error) {
	if params.CurrencyCode == "" {
		params.CurrencyCode = s.defaultCurrency
	}
	if params.Date.IsZero() {
		params.Date = s.now()
	}
	params.Tags = slices.DeleteFunc(slices.Clone(params.Tags), func(tag string) bool {
		return tag == AllocationTag
	})
	if params.Tags == nil {
		params.Tags = []string{}
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.ID == "" {
		params.ID = uuid.NewString()
	}

	return s.repo.Create(ctx, params)
}

func (s *Service) Get(ctx context.Context, id string) (*Transaction, error) {
	if id == "" {
		return nil, ErrTransactionNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// List returns a page of the user's transactions. Limit is clamped to maxPageSize.
func (s *Service) List(ctx context.Context, userID int64, filter ListFilter) ([]*Transaction, error) {
	if userID <= 0 {
		return nil, errors.New("valid user ID is required")
	}
	if filter.Type != "" && !IsValidType(filter.Type) {
		return nil, ErrInvalidType
	}
	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	return s.repo.List(ctx, userID, filter)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
