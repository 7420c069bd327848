package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/sitebackup/pkg/appcontext"
	"github.com/yurykabanov/sitebackup/pkg/domain"
)

type RunRecordRepository interface {
	Last(context.Context) (domain.RunRecord, bool, error)
}

// LastRunMetricHandler exposes the last run record in a form suitable for
// JSON based monitoring probes.
type LastRunMetricHandler struct {
	logger logrus.FieldLogger
	repo   RunRecordRepository
}

func NewLastRunMetricHandler(logger logrus.FieldLogger, repo RunRecordRepository) *LastRunMetricHandler {
	return &LastRunMetricHandler{
		logger: logger,
		repo:   repo,
	}
}

type lastRunMetricResponse struct {
	Status       string `json:"status"`
	Trigger      string `json:"trigger"`
	ArtifactName string `json:"artifact_name"`
	BackupSize   int64  `json:"backup_size"`
	LastRunAt    int64  `json:"last_run_at_mtime"`
}

func (h *LastRunMetricHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	logger := appcontext.LoggerFromContext(h.logger, ctx)

	record, ok, err := h.repo.Last(ctx)
	if err != nil {
		logger.WithError(err).Error("Unable to query last run")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	// empty until the first run
	result := []lastRunMetricResponse{}

	if ok {
		result = append(result, lastRunMetricResponse{
			Status:       string(record.Status),
			Trigger:      string(record.Trigger),
			ArtifactName: record.ArtifactName,
			BackupSize:   record.Size,
			LastRunAt:    record.Timestamp.UnixNano() / 1e6,
		})
	}

	w.Header().Set("Content-Type", "application/json")

	enc := json.NewEncoder(w)
	err = enc.Encode(result)
	if err != nil {
		logger.WithError(err).Error("Unable to encode response")
		w.WriteHeader(http.StatusInternalServerError)
	}
}
