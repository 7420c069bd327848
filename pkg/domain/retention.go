package domain

import (
	"context"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/sitebackup/pkg/appcontext"
	"github.com/yurykabanov/sitebackup/pkg/metrics"
)

// Retention deletes the oldest artifacts beyond the configured count. Local
// and remote populations are pruned independently of each other, so an
// artifact kept in one location may already be gone from the other.
type Retention struct {
	logger logrus.FieldLogger

	catalog *Catalog
	local   LocalArtifactStore
	remote  RemoteArtifactStore

	policy RetentionPolicy
}

func NewRetention(
	logger logrus.FieldLogger,
	catalog *Catalog,
	local LocalArtifactStore,
	remote RemoteArtifactStore,
	policy RetentionPolicy,
) *Retention {
	return &Retention{
		logger:  logger,
		catalog: catalog,
		local:   local,
		remote:  remote,
		policy:  policy,
	}
}

type PruneReport struct {
	LocalDeleted  []string
	RemoteDeleted []string

	// individual deletion failures, none of them stops the pass
	Err error
}

func (r *Retention) Policy() RetentionPolicy {
	return r.policy
}

// PruneOldest keeps at most maxArtifacts artifacts in each enabled location.
// A non-positive maxArtifacts disables pruning.
func (r *Retention) PruneOldest(ctx context.Context, maxArtifacts int) PruneReport {
	var report PruneReport

	if maxArtifacts <= 0 {
		return report
	}

	logger := appcontext.LoggerFromContext(r.logger, ctx)
	var result *multierror.Error

	if r.policy.AppliesToLocal {
		artifacts, err := r.catalog.ListLocal(ctx)
		if err != nil {
			result = multierror.Append(result, errors.Wrap(err, "unable to list local artifacts"))
		}

		for _, a := range Oldest(artifacts, maxArtifacts) {
			err = r.local.Delete(ctx, a.Name)
			if err != nil {
				logger.WithError(err).WithField("artifact", a.Name).Warn("Unable to delete old local artifact")
				result = multierror.Append(result, errors.Wrapf(err, "local %s", a.Name))
				continue
			}

			metrics.RetentionDeleted.WithLabelValues(string(LocationLocal)).Inc()
			report.LocalDeleted = append(report.LocalDeleted, a.Name)
		}
	}

	if r.policy.AppliesToRemote {
		for _, a := range Oldest(r.catalog.ListRemote(ctx), maxArtifacts) {
			if !r.remote.Delete(ctx, a.Name) {
				logger.WithField("artifact", a.Name).Warn("Unable to delete old remote artifact")
				result = multierror.Append(result, errors.Errorf("remote %s: delete failed", a.Name))
				continue
			}

			metrics.RetentionDeleted.WithLabelValues(string(LocationRemote)).Inc()
			report.RemoteDeleted = append(report.RemoteDeleted, a.Name)
		}
	}

	if n := len(report.LocalDeleted) + len(report.RemoteDeleted); n > 0 {
		logger.WithFields(logrus.Fields{
			"local":  len(report.LocalDeleted),
			"remote": len(report.RemoteDeleted),
		}).Info("Old artifacts pruned")
	}

	report.Err = result.ErrorOrNil()

	return report
}

// Oldest returns the artifacts that exceed keep, oldest first. Artifacts
// created at the same moment are ordered by name.
func Oldest(artifacts []Artifact, keep int) []Artifact {
	excess := len(artifacts) - keep
	if keep <= 0 || excess <= 0 {
		return nil
	}

	sorted := make([]Artifact, len(artifacts))
	copy(sorted, artifacts)

	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		}
		return sorted[i].Name < sorted[j].Name
	})

	return sorted[:excess]
}
