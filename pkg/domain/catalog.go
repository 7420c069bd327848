package domain

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"
)

// Catalog is the read side over both artifact locations. Every call lists
// the locations afresh, nothing is cached.
type Catalog struct {
	logger logrus.FieldLogger

	local  LocalArtifactStore
	remote RemoteArtifactStore
}

func NewCatalog(logger logrus.FieldLogger, local LocalArtifactStore, remote RemoteArtifactStore) *Catalog {
	return &Catalog{
		logger: logger,
		local:  local,
		remote: remote,
	}
}

func (c *Catalog) ListLocal(ctx context.Context) ([]Artifact, error) {
	return c.local.List(ctx)
}

// ListRemote is empty when the bucket is unconfigured or unreachable.
func (c *Catalog) ListRemote(ctx context.Context) []Artifact {
	if c.remote == nil || !c.remote.Configured() {
		return nil
	}

	return c.remote.List(ctx)
}

// ListArtifacts merges both locations, newest first. An artifact present in
// both is listed once with its local metadata.
func (c *Catalog) ListArtifacts(ctx context.Context) ([]Artifact, error) {
	local, err := c.ListLocal(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(local))
	result := make([]Artifact, 0, len(local))

	for _, a := range local {
		seen[a.Name] = struct{}{}
		result = append(result, a)
	}

	for _, a := range c.ListRemote(ctx) {
		if _, ok := seen[a.Name]; ok {
			continue
		}
		seen[a.Name] = struct{}{}
		result = append(result, a)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].Name > result[j].Name
	})

	return result, nil
}
