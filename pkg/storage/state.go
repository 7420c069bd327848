package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/yurykabanov/sitebackup/pkg/domain"
)

const (
	lastRunUpsertQuery = `
		INSERT INTO last_run (
			id, timestamp, status, trigger_type,
			artifact_name, size, error_message
		)
		VALUES (1, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			timestamp = excluded.timestamp,
			status = excluded.status,
			trigger_type = excluded.trigger_type,
			artifact_name = excluded.artifact_name,
			size = excluded.size,
			error_message = excluded.error_message
	`

	lastRunSelectQuery = `
		SELECT
			timestamp, status, trigger_type,
			artifact_name, size, error_message
		FROM last_run
		WHERE id = 1
	`
)

type lastRunRow struct {
	Timestamp    int64  `db:"timestamp"`
	Status       string `db:"status"`
	TriggerType  string `db:"trigger_type"`
	ArtifactName string `db:"artifact_name"`
	Size         int64  `db:"size"`
	ErrorMessage string `db:"error_message"`
}

// RunRecordRepository keeps the single last-run record.
type RunRecordRepository struct {
	db *sqlx.DB
}

func NewRunRecordRepository(db *sqlx.DB) *RunRecordRepository {
	return &RunRecordRepository{
		db: db,
	}
}

func (r *RunRecordRepository) Save(ctx context.Context, record domain.RunRecord) error {
	_, err := r.db.ExecContext(
		ctx,
		lastRunUpsertQuery,
		record.Timestamp.UnixNano(), string(record.Status), string(record.Trigger),
		record.ArtifactName, record.Size, record.Error,
	)

	return err
}

func (r *RunRecordRepository) Last(ctx context.Context) (domain.RunRecord, bool, error) {
	var row lastRunRow

	err := r.db.GetContext(ctx, &row, lastRunSelectQuery)
	if err == sql.ErrNoRows {
		return domain.RunRecord{}, false, nil
	}
	if err != nil {
		return domain.RunRecord{}, false, err
	}

	return domain.RunRecord{
		Timestamp:    time.Unix(0, row.Timestamp),
		Status:       domain.RunStatus(row.Status),
		Trigger:      domain.Trigger(row.TriggerType),
		ArtifactName: row.ArtifactName,
		Size:         row.Size,
		Error:        row.ErrorMessage,
	}, true, nil
}
