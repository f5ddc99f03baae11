// Command coupon-importer bulk loads promo codes from gzipped code lists
// into the coupons table. Each line is either a bare code (imported with the
// default discount) or "CODE,PERCENT".
//
// Marketing code drops can contain tens of millions of lines with heavy
// duplication, so a bloom filter screens out codes that were already seen
// before they reach the database.
package main

import (
	"bufio"
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/karimelsayed/shopgo/internal/repository"
)

const (
	bloomCapacity = 50_000_000
	bloomFPR      = 0.001
	progressEvery = 1_000_000
	minCodeLen    = 4
	maxCodeLen    = 32
	batchSize     = 5_000
)

var defaultDiscount = decimal.NewFromInt(10)

// multiFlag collects repeated --file flags.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

func main() {
	var (
		databaseURL string
		files       multiFlag
	)
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Var(&files, "file", "gzipped code list to import (repeatable)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if len(files) == 0 {
		slog.Error("at least one --file is required")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, files); err != nil {
		slog.Error("coupon import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon import completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string) error {
	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	seen := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
	total := 0
	for _, file := range files {
		n, err := importFile(ctx, pool, seen, file)
		if err != nil {
			return errors.Wrapf(err, "import %s", file)
		}
		total += n
		slog.Info("file imported", slog.String("file", file), slog.Int("codes", n))
	}

	slog.Info("import done", slog.Int("total", total))
	return nil
}

func importFile(ctx context.Context, pool *pgxpool.Pool, seen *bloom.BloomFilter, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open")
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return 0, errors.Wrap(err, "open gzip stream")
	}
	defer gz.Close()

	var (
		batch    = make([]couponRow, 0, batchSize)
		imported int
		lines    int
	)

	scanner := bufio.NewScanner(gz)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return imported, err
		}

		lines++
		if lines%progressEvery == 0 {
			slog.Info("progress", slog.String("file", path), slog.Int("lines", lines))
		}

		row, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		// TestAndAdd reports prior membership; false positives only cost us
		// a skipped duplicate, never a bad row.
		if seen.TestAndAddString(row.code) {
			continue
		}

		batch = append(batch, row)
		if len(batch) == batchSize {
			n, err := flush(ctx, pool, batch)
			if err != nil {
				return imported, err
			}
			imported += n
			batch = batch[:0]
		}
	}
	if err := scanner.Err(); err != nil {
		return imported, errors.Wrap(err, "scan")
	}

	n, err := flush(ctx, pool, batch)
	if err != nil {
		return imported, err
	}
	return imported + n, nil
}

type couponRow struct {
	code    string
	percent decimal.Decimal
}

// parseLine accepts "CODE" or "CODE,PERCENT" lines and rejects codes outside
// the accepted length range or percentages outside (0, 100].
func parseLine(line string) (couponRow, bool) {
	line = strings.TrimSpace(line)
	code, percentStr, hasPercent := strings.Cut(line, ",")
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) < minCodeLen || len(code) > maxCodeLen {
		return couponRow{}, false
	}

	percent := defaultDiscount
	if hasPercent {
		p, err := decimal.NewFromString(strings.TrimSpace(percentStr))
		if err != nil || !p.IsPositive() || p.GreaterThan(decimal.NewFromInt(100)) {
			return couponRow{}, false
		}
		percent = p
	}

	return couponRow{code: code, percent: percent}, true
}

func flush(ctx context.Context, pool *pgxpool.Pool, batch []couponRow) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	const insert = `INSERT INTO coupons (code, discount_percent)
		VALUES ($1, $2) ON CONFLICT (code) DO NOTHING`

	inserted := 0
	for _, row := range batch {
		tag, err := pool.Exec(ctx, insert, row.code, row.percent)
		if err != nil {
			return inserted, errors.Wrapf(err, "insert code %s", row.code)
		}
		inserted += int(tag.RowsAffected())
	}
	return inserted, nil
}
