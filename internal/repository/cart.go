package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/karimelsayed/shopgo/internal/domain/cart"
)

const (
	getCartByOwnerSQL = `SELECT doc FROM carts WHERE owner_id = $1`

	saveCartSQL = `INSERT INTO carts (owner_id, doc) VALUES ($1, $2)
		ON CONFLICT (owner_id) DO UPDATE SET doc = EXCLUDED.doc, updated_at = now()`
)

var _ cart.Store = (*CartStore)(nil)

// CartStore persists cart aggregates as one JSONB document per owner. The
// aggregate owns the document layout; this store only round-trips it.
type CartStore struct {
	pool *pgxpool.Pool
}

// NewCartStore returns a CartStore that uses the given pool.
func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

// FindByOwner loads the owner's cart. Returns cart.ErrNotFound when the
// owner has no cart yet.
func (s *CartStore) FindByOwner(ctx context.Context, ownerID string) (*cart.Cart, error) {
	var doc []byte
	if err := s.pool.QueryRow(ctx, getCartByOwnerSQL, ownerID).Scan(&doc); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("finding cart for owner %q: %w", ownerID, err)
	}

	var c cart.Cart
	if err := json.Unmarshal(doc, &c); err != nil {
		return nil, fmt.Errorf("decoding cart for owner %q: %w", ownerID, err)
	}
	return &c, nil
}

// Save upserts the owner's cart document.
func (s *CartStore) Save(ctx context.Context, c *cart.Cart) error {
	doc, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding cart for owner %q: %w", c.OwnerID, err)
	}

	if _, err := s.pool.Exec(ctx, saveCartSQL, c.OwnerID, doc); err != nil {
		return fmt.Errorf("saving cart for owner %q: %w", c.OwnerID, err)
	}
	return nil
}
