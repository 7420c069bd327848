package domain_test

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"

	"github.com/yurykabanov/sitebackup/pkg/domain"
)

// region runRecordRepositoryMock
type runRecordRepositoryMock struct {
	mock.Mock
}

func (m *runRecordRepositoryMock) Save(ctx context.Context, record domain.RunRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *runRecordRepositoryMock) Last(ctx context.Context) (domain.RunRecord, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.RunRecord), args.Bool(1), args.Error(2)
}

// endregion

// region lockRepositoryMock
type lockRepositoryMock struct {
	mock.Mock
}

func (m *lockRepositoryMock) TryAcquire(ctx context.Context, owner string, now, staleBefore time.Time) (bool, error) {
	args := m.Called(ctx, owner, now, staleBefore)
	return args.Bool(0), args.Error(1)
}

func (m *lockRepositoryMock) Current(ctx context.Context) (domain.RunLock, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.RunLock), args.Bool(1), args.Error(2)
}

func (m *lockRepositoryMock) Release(ctx context.Context, owner string) error {
	args := m.Called(ctx, owner)
	return args.Error(0)
}

func (m *lockRepositoryMock) ClearStale(ctx context.Context, staleBefore time.Time) (bool, error) {
	args := m.Called(ctx, staleBefore)
	return args.Bool(0), args.Error(1)
}

// endregion

// region scheduleRepositoryMock
type scheduleRepositoryMock struct {
	mock.Mock
}

func (m *scheduleRepositoryMock) ScheduleInterval(ctx context.Context) (domain.Interval, bool, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.Interval), args.Bool(1), args.Error(2)
}

func (m *scheduleRepositoryMock) SetScheduleInterval(ctx context.Context, interval domain.Interval) error {
	args := m.Called(ctx, interval)
	return args.Error(0)
}

// endregion

// region remoteStoreMock
type remoteStoreMock struct {
	mock.Mock
}

func (m *remoteStoreMock) Configured() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *remoteStoreMock) Upload(ctx context.Context, localPath, name string) bool {
	args := m.Called(ctx, localPath, name)
	return args.Bool(0)
}

func (m *remoteStoreMock) List(ctx context.Context) []domain.Artifact {
	args := m.Called(ctx)

	if a := args.Get(0); a != nil {
		return a.([]domain.Artifact)
	}

	return nil
}

func (m *remoteStoreMock) Delete(ctx context.Context, name string) bool {
	args := m.Called(ctx, name)
	return args.Bool(0)
}

func (m *remoteStoreMock) SignedDownloadURL(ctx context.Context, name string, ttl time.Duration) (string, bool) {
	args := m.Called(ctx, name, ttl)
	return args.String(0), args.Bool(1)
}

// endregion

// region notifierMock
type notifierMock struct {
	mock.Mock
}

func (m *notifierMock) SendFailure(ctx context.Context, message string) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

// endregion

// region backupCreatorMock
type backupCreatorMock struct {
	mock.Mock
}

func (m *backupCreatorMock) CreateBackup(ctx context.Context, trigger domain.Trigger) (domain.Artifact, error) {
	args := m.Called(ctx, trigger)
	return args.Get(0).(domain.Artifact), args.Error(1)
}

// endregion

// region prunerMock
type prunerMock struct {
	mock.Mock
}

func (m *prunerMock) PruneOldest(ctx context.Context, maxArtifacts int) domain.PruneReport {
	args := m.Called(ctx, maxArtifacts)
	return args.Get(0).(domain.PruneReport)
}

// endregion

// region transferMock
type transferMock struct {
	mock.Mock
}

func (m *transferMock) Offload(ctx context.Context, name string) domain.OffloadResult {
	args := m.Called(ctx, name)
	return args.Get(0).(domain.OffloadResult)
}

// endregion

// region runnerMock
type runnerMock struct {
	mock.Mock
}

func (m *runnerMock) Run(ctx context.Context, trigger domain.Trigger) domain.RunResult {
	args := m.Called(ctx, trigger)
	return args.Get(0).(domain.RunResult)
}

// endregion

// region fakeExporter
type fakeExporter struct {
	fs      afero.Fs
	content string
	err     error

	exported []string
}

func (e *fakeExporter) ExportToDir(ctx context.Context, dir string) (string, error) {
	if e.err != nil {
		return "", e.err
	}

	name := filepath.Join(dir, "temp_database_1.sql")
	if err := afero.WriteFile(e.fs, name, []byte(e.content), 0600); err != nil {
		return "", err
	}

	e.exported = append(e.exported, name)

	return name, nil
}

// endregion

func discardLogger() *logrus.Logger {
	logger := logrus.New()
	logger.Out = ioutil.Discard
	return logger
}
