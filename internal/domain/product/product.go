// Package product defines the catalog item model and its lookup interface.
package product

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// Product represents a catalog item available for purchase. Stock is the
// live availability count checked before cart additions.
type Product struct {
	ID          string
	Name        string
	Slug        string
	Description string
	Price       decimal.Decimal
	Stock       int
	ImageCover  string
}

// ListPage holds pagination parameters for catalog listing.
type ListPage struct {
	Page  int
	Limit int
}

// Offset returns the row offset for this page.
func (p ListPage) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Repository defines persistence operations for the product catalog.
type Repository interface {
	List(ctx context.Context, page ListPage) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
}
