package storage

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yurykabanov/sitebackup/pkg/domain"
)

func openTestDB(t *testing.T) *sqlx.DB {
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)

	// every connection to :memory: is a separate database
	db.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db.DB, "sitebackup"))

	t.Cleanup(func() { db.Close() })

	return db
}

func TestRunRecordRepository_SaveOverwrites(t *testing.T) {
	repo := NewRunRecordRepository(openTestDB(t))
	ctx := context.Background()

	_, ok, err := repo.Last(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	first := domain.RunRecord{
		Timestamp:    time.Unix(1700000000, 0),
		Status:       domain.RunStatusCompleted,
		Trigger:      domain.TriggerManual,
		ArtifactName: "backup-2023-11-14_22-13-20.zip",
		Size:         1234,
	}
	require.NoError(t, repo.Save(ctx, first))

	second := domain.RunRecord{
		Timestamp: time.Unix(1700003600, 0),
		Status:    domain.RunStatusFailed,
		Trigger:   domain.TriggerScheduled,
		Error:     "export: database unreachable",
	}
	require.NoError(t, repo.Save(ctx, second))

	last, ok, err := repo.Last(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, second.Timestamp.Equal(last.Timestamp))
	assert.Equal(t, domain.RunStatusFailed, last.Status)
	assert.Equal(t, domain.TriggerScheduled, last.Trigger)
	assert.Equal(t, "", last.ArtifactName)
	assert.Equal(t, "export: database unreachable", last.Error)

	var count int
	require.NoError(t, repo.db.Get(&count, "SELECT COUNT(*) FROM last_run"))
	assert.Equal(t, 1, count)
}

func TestLockRepository_TryAcquire(t *testing.T) {
	repo := NewLockRepository(openTestDB(t))
	ctx := context.Background()

	now := time.Unix(1700000000, 0)
	staleBefore := now.Add(-domain.LockStaleAfter)

	ok, err := repo.TryAcquire(ctx, "first", now, staleBefore)
	require.NoError(t, err)
	assert.True(t, ok)

	// held and fresh
	later := now.Add(10 * time.Minute)
	ok, err = repo.TryAcquire(ctx, "second", later, later.Add(-domain.LockStaleAfter))
	require.NoError(t, err)
	assert.False(t, ok)

	lock, held, err := repo.Current(ctx)
	require.NoError(t, err)
	assert.True(t, held)
	assert.Equal(t, "first", lock.Owner)
	assert.True(t, now.Equal(lock.AcquiredAt))

	// held but stale
	muchLater := now.Add(domain.LockStaleAfter + time.Second)
	ok, err = repo.TryAcquire(ctx, "third", muchLater, muchLater.Add(-domain.LockStaleAfter))
	require.NoError(t, err)
	assert.True(t, ok)

	lock, _, err = repo.Current(ctx)
	require.NoError(t, err)
	assert.Equal(t, "third", lock.Owner)
}

func TestLockRepository_ReleaseOnlyByOwner(t *testing.T) {
	repo := NewLockRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	ok, err := repo.TryAcquire(ctx, "owner", now, now.Add(-domain.LockStaleAfter))
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, repo.Release(ctx, "somebody-else"))
	_, held, err := repo.Current(ctx)
	require.NoError(t, err)
	assert.True(t, held)

	require.NoError(t, repo.Release(ctx, "owner"))
	_, held, err = repo.Current(ctx)
	require.NoError(t, err)
	assert.False(t, held)
}

func TestLockRepository_ClearStale(t *testing.T) {
	repo := NewLockRepository(openTestDB(t))
	ctx := context.Background()
	now := time.Unix(1700000000, 0)

	ok, err := repo.TryAcquire(ctx, "owner", now, now.Add(-domain.LockStaleAfter))
	require.NoError(t, err)
	require.True(t, ok)

	cleared, err := repo.ClearStale(ctx, now.Add(-time.Second))
	require.NoError(t, err)
	assert.False(t, cleared)

	cleared, err = repo.ClearStale(ctx, now.Add(time.Second))
	require.NoError(t, err)
	assert.True(t, cleared)

	_, held, err := repo.Current(ctx)
	require.NoError(t, err)
	assert.False(t, held)
}

func TestSettingsRepository_ScheduleInterval(t *testing.T) {
	repo := NewSettingsRepository(openTestDB(t))
	ctx := context.Background()

	_, ok, err := repo.ScheduleInterval(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetScheduleInterval(ctx, domain.IntervalDaily))
	require.NoError(t, repo.SetScheduleInterval(ctx, domain.IntervalWeekly))

	interval, ok, err := repo.ScheduleInterval(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, domain.IntervalWeekly, interval)
}
