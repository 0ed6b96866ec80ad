package oktacache

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// RateLimitCache implements oktahttp.RateLimitCache: a pre-flight check that
// avoids submitting a request to a host known to still be inside its last
// observed X-Rate-Limit-Reset window. It never changes what the transport's
// 429 handling computes for a given response — it only seeds an optional
// client-side wait before attempt 1, so a freshly started process doesn't
// immediately repeat a 429 a prior process already paid for.
type RateLimitCache struct {
	db *sql.DB

	// nowFunc is injectable for deterministic tests.
	nowFunc func() time.Time
}

// NewRateLimitCache builds a RateLimitCache backed by s.
func NewRateLimitCache(s *Store) *RateLimitCache {
	return &RateLimitCache{db: s.db, nowFunc: time.Now}
}

// RecordReset stores the observed reset time for host, overwriting any
// prior value. The reset time is stored in whole seconds. The request path
// in this repository only reads the cache (through WaitIfLimited); nothing
// in it calls RecordReset after a 429.
func (c *RateLimitCache) RecordReset(ctx context.Context, host string, resetAt time.Time) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO rate_limit_state (host, reset_at) VALUES (?, ?)
		 ON CONFLICT (host) DO UPDATE SET reset_at = excluded.reset_at`,
		host, resetAt.Unix(),
	)

	return err
}

// WaitIfLimited blocks until host's cached reset time has passed, or
// returns immediately if no reset is cached or it has already elapsed.
func (c *RateLimitCache) WaitIfLimited(ctx context.Context, host string) error {
	var resetUnix int64

	err := c.db.QueryRowContext(ctx, `SELECT reset_at FROM rate_limit_state WHERE host = ?`, host).Scan(&resetUnix)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}

	if err != nil {
		return err
	}

	wait := time.Unix(resetUnix, 0).Sub(c.nowFunc())
	if wait <= 0 {
		return nil
	}

	t := time.NewTimer(wait)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
