package domain

import (
	"context"
	"time"
)

// LocalArtifactStore is the backup directory on disk.
type LocalArtifactStore interface {
	Ensure() error
	Dir() string
	Path(name string) string
	List(context.Context) ([]Artifact, error)
	Stat(name string) (Artifact, error)
	Delete(ctx context.Context, name string) error
}

// RemoteArtifactStore is the object storage bucket. Its operations never
// fail loudly, they report false or an empty result instead.
type RemoteArtifactStore interface {
	Configured() bool
	Upload(ctx context.Context, localPath, name string) bool
	List(context.Context) []Artifact
	Delete(ctx context.Context, name string) bool
	SignedDownloadURL(ctx context.Context, name string, ttl time.Duration) (string, bool)
}

type ArtifactTransfer interface {
	Offload(ctx context.Context, name string) OffloadResult
}

type DatabaseExporter interface {
	ExportToDir(ctx context.Context, dir string) (string, error)
}

type RunRecordRepository interface {
	Save(context.Context, RunRecord) error
	Last(context.Context) (RunRecord, bool, error)
}

type LockRepository interface {
	TryAcquire(ctx context.Context, owner string, now, staleBefore time.Time) (bool, error)
	Current(context.Context) (RunLock, bool, error)
	Release(ctx context.Context, owner string) error
	ClearStale(ctx context.Context, staleBefore time.Time) (bool, error)
}

type ScheduleRepository interface {
	ScheduleInterval(context.Context) (Interval, bool, error)
	SetScheduleInterval(context.Context, Interval) error
}

type Notifier interface {
	SendFailure(ctx context.Context, message string) error
}
