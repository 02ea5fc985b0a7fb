package user

import (
	"context"
	"errors"
	"strings"

	"poupa/internal/domain/currency"
	"poupa/internal/shared/auth"
)

// Service contains the business logic for accounts and credentials
type Service struct {
	repo            Repository
	defaultCurrency string
}

func NewService(repo Repository, defaultCurrency string) *Service {
	return &Service{repo: repo, defaultCurrency: defaultCurrency}
}

// Register validates params, hashes the password and creates the user.
func (s *Service) Register(ctx context.Context, params CreateUserParams) (*User, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if params.BaseCurrency == "" {
		params.BaseCurrency = s.defaultCurrency
	}
	code, err := currency.NormalizeCode(params.BaseCurrency)
	if err != nil {
		return nil, err
	}
	params.BaseCurrency = code

	existing, err := s.repo.GetByEmail(ctx, params.Email)
	if err != nil && !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := auth.HashPassword(params.Password)
	if err != nil {
		return nil, err
	}
	params.PasswordHash = hash
	params.Password = ""

	return s.repo.Create(ctx, params)
}

// Authenticate returns the user owning email when password matches. Unknown
// emails and wrong passwords both yield ErrInvalidCredential.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, ErrUserNotFound) {
		_ = auth.VerifyPassword("", password)
		return nil, ErrInvalidCredential
	}
	if err != nil {
		return nil, err
	}

	if err := auth.VerifyPassword(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredential
	}
	return u, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*User, error) {
	if id <= 0 {
		return nil, ErrUserNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.repo.List(ctx)
}

// BaseCurrency returns the user's reference currency, falling back to the
// service default for users created without one.
func (s *Service) BaseCurrency(ctx context.Context, userID int64) (string, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	if u.BaseCurrency == "" {
		return s.defaultCurrency, nil
	}
	return u.BaseCurrency, nil
}

// EmailForUser resolves the address email notifications are sent to.
func (s *Service) EmailForUser(ctx context.Context, userID int64) (string, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return "", err
	}
	return u.Email, nil
}
