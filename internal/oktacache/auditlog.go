package oktacache

import (
	"context"
	"time"
)

// AttemptRecord is one row of the attempt audit log: what was attempted and
// how it resolved. Purely observational — never read back by the retry loop
// itself. AuditingExecutor does not see the backoff the retry loop chooses,
// so the rows it writes leave BackoffMS at 0.
type AttemptRecord struct {
	Timestamp time.Time
	Method    string
	Path      string
	Attempt   int
	Status    int    // 0 when the attempt failed below the HTTP layer
	ErrorKind string // "" on a plain HTTP response
	BackoffMS int64
}

// AttemptLog appends AttemptRecords to the audit table.
type AttemptLog struct {
	s *Store
}

// NewAttemptLog builds an AttemptLog backed by s.
func NewAttemptLog(s *Store) *AttemptLog {
	return &AttemptLog{s: s}
}

// Record appends one attempt row.
func (l *AttemptLog) Record(ctx context.Context, rec AttemptRecord) error {
	_, err := l.s.db.ExecContext(ctx,
		`INSERT INTO attempt_log (ts, method, path, attempt, status, error_kind, backoff_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Timestamp.Unix(), rec.Method, rec.Path, rec.Attempt, rec.Status, rec.ErrorKind, rec.BackoffMS,
	)

	return err
}

// RecentFailureCount reports how many attempts in the last window recorded a
// non-2xx/3xx status or a transport error, for `oktactl auth stats`.
func (l *AttemptLog) RecentFailureCount(ctx context.Context, since time.Time) (int, error) {
	var count int

	err := l.s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attempt_log WHERE ts >= ? AND (status >= 400 OR status = 0)`,
		since.Unix(),
	).Scan(&count)

	return count, err
}

// TotalCount reports the total number of recorded attempts.
func (l *AttemptLog) TotalCount(ctx context.Context) (int, error) {
	var count int

	err := l.s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM attempt_log`).Scan(&count)

	return count, err
}
