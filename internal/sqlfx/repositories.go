package sqlfx

import (
	"github.com/jmoiron/sqlx"

	"github.com/yurykabanov/sitebackup/pkg/domain"
	"github.com/yurykabanov/sitebackup/pkg/http/handler"
	"github.com/yurykabanov/sitebackup/pkg/storage"
)

func RunRecordRepository(db *sqlx.DB) (
	*storage.RunRecordRepository,
	domain.RunRecordRepository,
	handler.RunRecordRepository,
) {
	repo := storage.NewRunRecordRepository(db)

	return repo, repo, repo
}

func LockRepository(db *sqlx.DB) domain.LockRepository {
	return storage.NewLockRepository(db)
}

func ScheduleRepository(db *sqlx.DB) domain.ScheduleRepository {
	return storage.NewSettingsRepository(db)
}
