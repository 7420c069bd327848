package domain

import "github.com/pkg/errors"

var (
	ErrAlreadyRunning      = errors.New("a backup is already running")
	ErrArtifactNotFound    = errors.New("backup not found")
	ErrInvalidArtifactName = errors.New("invalid backup name")
)
