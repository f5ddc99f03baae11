package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/karimelsayed/shopgo/internal/domain/product"
)

const (
	listProductsSQL = `SELECT id, name, slug, description, price, stock, image_cover
		FROM products ORDER BY created_at, id LIMIT $1 OFFSET $2`

	getProductByIDSQL = `SELECT id, name, slug, description, price, stock, image_cover
		FROM products WHERE id = $1`

	createProductSQL = `INSERT INTO products (id, name, slug, description, price, stock, image_cover)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
)

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns one page of the catalog in insertion order.
func (r *ProductRepository) List(ctx context.Context, page product.ListPage) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, listProductsSQL, page.Limit, page.Offset())
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return pgx.CollectRows(rows, scanProduct)
}

// GetByID returns a single product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// Create inserts a new catalog item.
func (r *ProductRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, createProductSQL,
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.Stock, p.ImageCover,
	)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.Name, err)
	}
	return nil
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var (
		p     product.Product
		price decimal.Decimal
	)
	err := row.Scan(&p.ID, &p.Name, &p.Slug, &p.Description, &price, &p.Stock, &p.ImageCover)
	p.Price = price
	return p, err
}
