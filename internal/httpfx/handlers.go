package httpfx

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/yurykabanov/sitebackup/pkg/http/handler"
)

func BackupsHandler(
	logger *logrus.Logger,
	runner handler.BackupRunner,
	catalog handler.ArtifactCatalog,
	artifacts handler.ArtifactManager,
	schedule handler.Schedule,
) *handler.BackupsHandler {
	return handler.NewBackupsHandler(logger, runner, catalog, artifacts, schedule)
}

func RegisterBackupsHandler(router *mux.Router, h *handler.BackupsHandler) {
	h.Register(router)
}

func LastRunMetricHandler(logger *logrus.Logger, repository handler.RunRecordRepository) *handler.LastRunMetricHandler {
	return handler.NewLastRunMetricHandler(logger, repository)
}

func RegisterMetricHandlers(router *mux.Router, h *handler.LastRunMetricHandler) {
	router.Handle("/metrics", promhttp.Handler())
	router.Handle("/metrics/backups", h)
}
