package storage

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/yurykabanov/sitebackup/pkg/domain"
)

const scheduleIntervalKey = "schedule_interval"

const (
	settingUpsertQuery = `
		INSERT INTO settings (key, value)
		VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`

	settingSelectQuery = `SELECT value FROM settings WHERE key = ?`
)

// SettingsRepository holds settings changed at runtime, currently only the
// schedule interval, so they survive restarts.
type SettingsRepository struct {
	db *sqlx.DB
}

func NewSettingsRepository(db *sqlx.DB) *SettingsRepository {
	return &SettingsRepository{
		db: db,
	}
}

func (r *SettingsRepository) ScheduleInterval(ctx context.Context) (domain.Interval, bool, error) {
	var value string

	err := r.db.GetContext(ctx, &value, settingSelectQuery, scheduleIntervalKey)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	interval, err := domain.ParseInterval(value)
	if err != nil {
		return "", false, err
	}

	return interval, true, nil
}

func (r *SettingsRepository) SetScheduleInterval(ctx context.Context, interval domain.Interval) error {
	_, err := r.db.ExecContext(ctx, settingUpsertQuery, scheduleIntervalKey, string(interval))
	return err
}
