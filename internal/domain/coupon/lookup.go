package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// ErrExpired is returned when a coupon exists but is past its expiry.
var ErrExpired = errors.New("coupon expired")

// RepoLookup implements Lookup by fetching coupons from a Repository and
// checking their expiry against the supplied clock time.
type RepoLookup struct {
	repo Repository
}

// NewRepoLookup creates a RepoLookup backed by the given Repository.
func NewRepoLookup(repo Repository) *RepoLookup {
	return &RepoLookup{repo: repo}
}

// FindActiveByCode resolves a code to an unexpired coupon. It returns
// ErrNotFound for unknown codes and ErrExpired for stale ones.
func (l *RepoLookup) FindActiveByCode(ctx context.Context, code string, now time.Time) (*Coupon, error) {
	c, err := l.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}
	if c.Expired(now) {
		return nil, ErrExpired
	}
	return c, nil
}
