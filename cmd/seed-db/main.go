// Command seed-db populates the database with a starter catalog, a few demo
// coupons, and a demo user with a points balance. Safe to re-run: every
// insert skips rows that already exist.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/karimelsayed/shopgo/internal/repository"
)

type seedProduct struct {
	name        string
	description string
	price       string
	stock       int
	image       string
}

var products = []seedProduct{
	{"Espresso Beans 1kg", "Dark roast arabica beans, freshly ground aroma guaranteed.", "18.50", 120, "images/espresso-beans.jpg"},
	{"Ceramic Pour-Over Set", "Hand-glazed ceramic dripper with matching carafe.", "42.00", 35, "images/pour-over-set.jpg"},
	{"Cold Brew Bottle", "One liter airtight bottle with a built-in steel filter.", "24.99", 80, "images/cold-brew-bottle.jpg"},
	{"Milk Frother", "Rechargeable handheld frother with two whisk heads.", "15.75", 200, "images/milk-frother.jpg"},
	{"Signature Mug", "Double-walled 350ml mug that keeps drinks hot for hours.", "12.00", 150, "images/signature-mug.jpg"},
}

type seedCoupon struct {
	code     string
	discount string
	expires  time.Duration // zero means never
}

var coupons = []seedCoupon{
	{"WELCOME10", "10", 0},
	{"SUMMER25", "25", 90 * 24 * time.Hour},
	{"FLASH50", "50", 7 * 24 * time.Hour},
}

func main() {
	var databaseURL string
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return seedProducts(ctx, pool) })
	g.Go(func() error { return seedCoupons(ctx, pool) })
	g.Go(func() error { return seedDemoUser(ctx, pool) })
	return g.Wait()
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool) error {
	const insert = `INSERT INTO products (id, name, slug, description, price, stock, image_cover)
		VALUES ($1, $2, $3, $4, $5, $6, $7) ON CONFLICT (name) DO NOTHING`

	for _, p := range products {
		price, err := decimal.NewFromString(p.price)
		if err != nil {
			return errors.Wrapf(err, "parse price for %q", p.name)
		}
		if _, err := pool.Exec(ctx, insert,
			uuid.New().String(), p.name, slugify(p.name), p.description, price, p.stock, p.image,
		); err != nil {
			return errors.Wrapf(err, "insert product %q", p.name)
		}
	}

	slog.Info("products seeded", slog.Int("count", len(products)))
	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	const insert = `INSERT INTO coupons (code, discount_percent, expires_at)
		VALUES ($1, $2, $3) ON CONFLICT (code) DO NOTHING`

	for _, c := range coupons {
		discount, err := decimal.NewFromString(c.discount)
		if err != nil {
			return errors.Wrapf(err, "parse discount for %q", c.code)
		}

		var expiresAt *time.Time
		if c.expires > 0 {
			t := time.Now().Add(c.expires)
			expiresAt = &t
		}

		if _, err := pool.Exec(ctx, insert, c.code, discount, expiresAt); err != nil {
			return errors.Wrapf(err, "insert coupon %q", c.code)
		}
	}

	slog.Info("coupons seeded", slog.Int("count", len(coupons)))
	return nil
}

func seedDemoUser(ctx context.Context, pool *pgxpool.Pool) error {
	const insert = `INSERT INTO users (id, name, email, password_hash, points)
		VALUES ($1, $2, $3, $4, $5) ON CONFLICT (email) DO NOTHING`

	hash, err := bcrypt.GenerateFromPassword([]byte("demo-password"), bcrypt.DefaultCost)
	if err != nil {
		return errors.Wrap(err, "hash demo password")
	}

	if _, err := pool.Exec(ctx, insert,
		uuid.New().String(), "Demo Shopper", "demo@example.com", string(hash), 500,
	); err != nil {
		return errors.Wrap(err, "insert demo user")
	}

	slog.Info("demo user seeded", slog.String("email", "demo@example.com"))
	return nil
}

func slugify(name string) string {
	out := make([]rune, 0, len(name))
	for _, r := range name {
		switch {
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ' ':
			out = append(out, '-')
		default:
			out = append(out, r)
		}
	}
	return string(out)
}
