package domain

import (
	"strings"
	"time"
)

type Location string

const (
	LocationLocal  Location = "local"
	LocationRemote Location = "remote"
)

const (
	ArtifactPrefix    = "backup-"
	ArtifactExtension = ".zip"
	artifactLayout    = "2006-01-02_15-04-05"
)

// Artifact is one completed backup container, either on local disk or in the
// remote bucket. Name identifies the content across both locations.
type Artifact struct {
	Name      string
	Size      int64
	CreatedAt time.Time
	Location  Location
}

func ArtifactName(t time.Time) string {
	return ArtifactPrefix + t.Format(artifactLayout) + ArtifactExtension
}

// ParseArtifactName recovers the creation time encoded in a name produced by
// ArtifactName.
func ParseArtifactName(name string) (time.Time, bool) {
	if !strings.HasPrefix(name, ArtifactPrefix) || !strings.HasSuffix(name, ArtifactExtension) {
		return time.Time{}, false
	}

	stamp := strings.TrimSuffix(strings.TrimPrefix(name, ArtifactPrefix), ArtifactExtension)

	t, err := time.ParseInLocation(artifactLayout, stamp, time.Local)
	if err != nil {
		return time.Time{}, false
	}

	return t, true
}

// ValidArtifactName reports whether name may be used to address an artifact
// in the backup directory or bucket: a plain .zip file name without any path
// components.
func ValidArtifactName(name string) bool {
	if name == "" || name == ArtifactExtension || !strings.HasSuffix(name, ArtifactExtension) {
		return false
	}

	if strings.HasPrefix(name, ".") {
		return false
	}

	return !strings.ContainsAny(name, "/\\\x00")
}

// OffloadResult describes what happened to a fresh artifact after the run:
// whether it reached the bucket and whether the local copy was removed.
type OffloadResult struct {
	Uploaded     bool
	LocalDeleted bool
}

// ArtifactLocation tells a downloader where to fetch an artifact from. Exactly
// one of LocalPath and URL is set.
type ArtifactLocation struct {
	Name      string
	LocalPath string
	URL       string
}
