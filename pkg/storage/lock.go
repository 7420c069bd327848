package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yurykabanov/sitebackup/pkg/domain"
)

const (
	// Takes the lock when the row is missing or when the current holder is
	// older than the staleness bound. The conditional upsert is a single
	// statement, two callers can not both succeed.
	lockAcquireQuery = `
		INSERT INTO run_lock (id, owner, acquired_at)
		VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			owner = excluded.owner,
			acquired_at = excluded.acquired_at
		WHERE run_lock.acquired_at < ?
	`

	lockSelectQuery = `
		SELECT owner, acquired_at
		FROM run_lock
		WHERE id = 1
	`

	lockReleaseQuery = `
		DELETE FROM run_lock
		WHERE id = 1 AND owner = ?
	`

	lockClearStaleQuery = `
		DELETE FROM run_lock
		WHERE id = 1 AND acquired_at < ?
	`
)

type lockRow struct {
	Owner      string `db:"owner"`
	AcquiredAt int64  `db:"acquired_at"`
}

type LockRepository struct {
	db *sqlx.DB
}

func NewLockRepository(db *sqlx.DB) *LockRepository {
	return &LockRepository{
		db: db,
	}
}

// TryAcquire takes the lock for owner unless a lock acquired at or after
// staleBefore is held.
func (r *LockRepository) TryAcquire(ctx context.Context, owner string, now, staleBefore time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, lockAcquireQuery, owner, now.UnixNano(), staleBefore.UnixNano())
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (r *LockRepository) Current(ctx context.Context) (domain.RunLock, bool, error) {
	var row lockRow

	err := r.db.GetContext(ctx, &row, lockSelectQuery)
	if err == sql.ErrNoRows {
		return domain.RunLock{}, false, nil
	}
	if err != nil {
		return domain.RunLock{}, false, err
	}

	return domain.RunLock{
		Owner:      row.Owner,
		AcquiredAt: time.Unix(0, row.AcquiredAt),
	}, true, nil
}

func (r *LockRepository) Release(ctx context.Context, owner string) error {
	_, err := r.db.ExecContext(ctx, lockReleaseQuery, owner)
	return err
}

func (r *LockRepository) ClearStale(ctx context.Context, staleBefore time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, lockClearStaleQuery, staleBefore.UnixNano())
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}
