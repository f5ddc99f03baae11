// Package user defines accounts and the loyalty points ledger. Points live on
// the user record, not the cart: the cart aggregate only reports how many
// points an application consumed, and the service layer debits or credits the
// ledger by exactly that amount.
package user

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

var (
	// ErrNotFound is returned when a requested user does not exist.
	ErrNotFound = errors.New("user not found")
	// ErrEmailTaken is returned when signing up with an email already in use.
	ErrEmailTaken = errors.New("email already in use")
	// ErrInsufficientPoints is returned when a debit exceeds the balance.
	ErrInsufficientPoints = errors.New("insufficient points balance")
)

// User is a registered account. PasswordHash is a bcrypt hash; the plaintext
// password never leaves the auth layer.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Points       int64
	CreatedAt    time.Time
}

// Repository defines persistence operations for users and their points
// ledger. DebitPoints must fail with ErrInsufficientPoints rather than drive
// a balance negative.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetPoints(ctx context.Context, id string) (int64, error)
	DebitPoints(ctx context.Context, id string, amount int64) error
	CreditPoints(ctx context.Context, id string, amount int64) error
}
