package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karimelsayed/shopgo/internal/domain/user"
)

const (
	createUserSQL = `INSERT INTO users (id, name, email, password_hash)
		VALUES ($1, $2, $3, $4)`

	getUserByIDSQL = `SELECT id, name, email, password_hash, points, created_at
		FROM users WHERE id = $1`

	getUserByEmailSQL = `SELECT id, name, email, password_hash, points, created_at
		FROM users WHERE LOWER(email) = LOWER($1)`

	getPointsSQL = `SELECT points FROM users WHERE id = $1`

	debitPointsSQL = `UPDATE users SET points = points - $2
		WHERE id = $1 AND points >= $2`

	creditPointsSQL = `UPDATE users SET points = points + $2 WHERE id = $1`
)

var _ user.Repository = (*UserRepository)(nil)

// UserRepository implements user.Repository backed by PostgreSQL.
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a UserRepository that uses the given pool.
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// Create inserts a new user. Returns user.ErrEmailTaken when the email is
// already registered.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	_, err := r.pool.Exec(ctx, createUserSQL, u.ID, u.Name, u.Email, u.PasswordHash)
	if err != nil {
		if isUniqueViolation(err) {
			return user.ErrEmailTaken
		}
		return fmt.Errorf("creating user %q: %w", u.Email, err)
	}
	return nil
}

// GetByID returns a user by their identifier.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	return r.getOne(ctx, getUserByIDSQL, id)
}

// GetByEmail returns a user by their email address (case-insensitive).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getOne(ctx, getUserByEmailSQL, email)
}

// GetPoints returns the user's current points balance.
func (r *UserRepository) GetPoints(ctx context.Context, id string) (int64, error) {
	var points int64
	if err := r.pool.QueryRow(ctx, getPointsSQL, id).Scan(&points); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, user.ErrNotFound
		}
		return 0, fmt.Errorf("getting points for user %q: %w", id, err)
	}
	return points, nil
}

// DebitPoints atomically subtracts amount from the user's balance. The
// conditional update guarantees the balance never goes negative; a miss is
// reported as user.ErrInsufficientPoints.
func (r *UserRepository) DebitPoints(ctx context.Context, id string, amount int64) error {
	tag, err := r.pool.Exec(ctx, debitPointsSQL, id, amount)
	if err != nil {
		return fmt.Errorf("debiting %d points from user %q: %w", amount, id, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrInsufficientPoints
	}
	return nil
}

// CreditPoints adds amount to the user's balance.
func (r *UserRepository) CreditPoints(ctx context.Context, id string, amount int64) error {
	tag, err := r.pool.Exec(ctx, creditPointsSQL, id, amount)
	if err != nil {
		return fmt.Errorf("crediting %d points to user %q: %w", amount, id, err)
	}
	if tag.RowsAffected() == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (r *UserRepository) getOne(ctx context.Context, query, arg string) (*user.User, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	u, err := pgx.CollectExactlyOneRow(rows, scanUser)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, user.ErrNotFound
		}
		return nil, fmt.Errorf("querying user: %w", err)
	}
	return &u, nil
}

func scanUser(row pgx.CollectableRow) (user.User, error) {
	var u user.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Points, &u.CreatedAt)
	return u, err
}
