package user

import (
	"errors"
	"net/mail"
	"strings"
	"time"
)

// Roles carried in the access token.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailTaken        = errors.New("email already registered")
	ErrInvalidEmail      = errors.New("a valid email is required")
	ErrPasswordTooShort  = errors.New("password must be at least 8 characters")
	ErrPasswordTooLong   = errors.New("password must be at most 72 bytes")
	ErrInvalidRole       = errors.New("invalid role")
	ErrInvalidCredential = errors.New("invalid email or password")
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Role         string    `json:"role"`
	BaseCurrency string    `json:"baseCurrency"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type CreateUserParams struct {
	Email        string
	Name         string
	Password     string
	PasswordHash string
	Role         string
	BaseCurrency string
}

// Validate checks the caller-supplied fields. PasswordHash is filled in by
// the handler after validation.
func (p *CreateUserParams) Validate() error {
	p.Email = strings.ToLower(strings.TrimSpace(p.Email))
	if _, err := mail.ParseAddress(p.Email); err != nil || p.Email == "" {
		return ErrInvalidEmail
	}
	if len(p.Password) < 8 {
		return ErrPasswordTooShort
	}
	if len(p.Password) > 72 {
		return ErrPasswordTooLong
	}
	if p.Role == "" {
		p.Role = RoleUser
	}
	if !IsValidRole(p.Role) {
		return ErrInvalidRole
	}
	return nil
}

func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
