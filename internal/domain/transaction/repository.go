package transaction

import "context"

// Repository defines the interface for ledger data access
type Repository interface {
	Create(ctx context.Context, params CreateParams) (*Transaction, error)

	// GetByID returns ErrTransactionNotFound when no transaction has the given ID.
	GetByID(ctx context.Context, id string) (*Transaction, error)

	// List returns the user's transactions matching filter, newest first.
	List(ctx context.Context, userID int64, filter ListFilter) ([]*Transaction, error)

	Delete(ctx context.Context, id string) error
}
