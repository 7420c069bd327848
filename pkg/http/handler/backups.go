package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/yurykabanov/sitebackup/pkg/appcontext"
	"github.com/yurykabanov/sitebackup/pkg/domain"
)

type BackupRunner interface {
	Run(context.Context, domain.Trigger) domain.RunResult
	IsRunning(context.Context) bool
	LastRun(context.Context) (domain.RunRecord, bool, error)
}

type ArtifactCatalog interface {
	ListArtifacts(context.Context) ([]domain.Artifact, error)
}

type ArtifactManager interface {
	Locate(ctx context.Context, name string) (domain.ArtifactLocation, error)
	Open(name string) (afero.File, error)
	Remove(ctx context.Context, name string) error
}

type Schedule interface {
	Interval() domain.Interval
	Next() (time.Time, bool)
	UpdateInterval(context.Context, domain.Interval) error
}

// BackupsHandler is the admin API: manual runs, listing, download, deletion,
// status and schedule changes.
type BackupsHandler struct {
	logger logrus.FieldLogger

	runner    BackupRunner
	catalog   ArtifactCatalog
	artifacts ArtifactManager
	schedule  Schedule
}

func NewBackupsHandler(
	logger logrus.FieldLogger,
	runner BackupRunner,
	catalog ArtifactCatalog,
	artifacts ArtifactManager,
	schedule Schedule,
) *BackupsHandler {
	return &BackupsHandler{
		logger:    logger,
		runner:    runner,
		catalog:   catalog,
		artifacts: artifacts,
		schedule:  schedule,
	}
}

func (h *BackupsHandler) Register(router *mux.Router) {
	router.HandleFunc("/backups", h.CreateBackup).Methods(http.MethodPost)
	router.HandleFunc("/backups", h.ListBackups).Methods(http.MethodGet)
	router.HandleFunc("/backups/{name}", h.DownloadBackup).Methods(http.MethodGet)
	router.HandleFunc("/backups/{name}", h.DeleteBackup).Methods(http.MethodDelete)
	router.HandleFunc("/status", h.Status).Methods(http.MethodGet)
	router.HandleFunc("/schedule", h.UpdateSchedule).Methods(http.MethodPut)
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type runResponse struct {
	Success      bool   `json:"success"`
	Message      string `json:"message"`
	Filename     string `json:"filename,omitempty"`
	Size         int64  `json:"size,omitempty"`
	HumanSize    string `json:"human_size,omitempty"`
	Uploaded     bool   `json:"uploaded"`
	LocalDeleted bool   `json:"local_deleted"`
}

type artifactResponse struct {
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	HumanSize string    `json:"human_size"`
	CreatedAt time.Time `json:"created_at"`
	Location  string    `json:"location"`
}

type lastRunResponse struct {
	Timestamp    time.Time `json:"timestamp"`
	Status       string    `json:"status"`
	Trigger      string    `json:"trigger"`
	ArtifactName string    `json:"artifact_name,omitempty"`
	Size         int64     `json:"size,omitempty"`
	Error        string    `json:"error,omitempty"`
}

type scheduleResponse struct {
	Interval  string     `json:"interval"`
	Scheduled bool       `json:"scheduled"`
	NextRun   *time.Time `json:"next_run"`
}

type statusResponse struct {
	Running  bool             `json:"running"`
	LastRun  *lastRunResponse `json:"last_run"`
	Schedule scheduleResponse `json:"schedule"`
}

type scheduleRequest struct {
	Interval string `json:"interval"`
}

// CreateBackup runs a backup synchronously. The run is detached from the
// request context so a disconnecting client does not abort it halfway.
func (h *BackupsHandler) CreateBackup(w http.ResponseWriter, r *http.Request) {
	ctx := appcontext.WithRequestId(context.Background(), appcontext.RequestId(r.Context()))

	if h.runner.IsRunning(ctx) {
		h.writeJSON(w, r, http.StatusConflict, messageResponse{Message: "A backup is already running"})
		return
	}

	result := h.runner.Run(ctx, domain.TriggerManual)

	status := http.StatusOK
	switch {
	case result.Err == domain.ErrAlreadyRunning:
		status = http.StatusConflict
	case !result.Success:
		status = http.StatusInternalServerError
	}

	h.writeJSON(w, r, status, runResponse{
		Success:      result.Success,
		Message:      result.Message,
		Filename:     result.ArtifactName,
		Size:         result.Size,
		HumanSize:    result.HumanSize,
		Uploaded:     result.Uploaded,
		LocalDeleted: result.LocalDeleted,
	})
}

func (h *BackupsHandler) ListBackups(w http.ResponseWriter, r *http.Request) {
	artifacts, err := h.catalog.ListArtifacts(r.Context())
	if err != nil {
		appcontext.LoggerFromContext(h.logger, r.Context()).WithError(err).Error("Unable to list artifacts")
		h.writeJSON(w, r, http.StatusInternalServerError, messageResponse{Message: "Unable to list backups"})
		return
	}

	result := make([]artifactResponse, 0, len(artifacts))
	for _, a := range artifacts {
		result = append(result, artifactResponse{
			Name:      a.Name,
			Size:      a.Size,
			HumanSize: humanize.Bytes(uint64(a.Size)),
			CreatedAt: a.CreatedAt,
			Location:  string(a.Location),
		})
	}

	h.writeJSON(w, r, http.StatusOK, result)
}

func (h *BackupsHandler) DownloadBackup(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	ctx := appcontext.WithArtifact(r.Context(), name)
	logger := appcontext.LoggerFromContext(h.logger, ctx)

	location, err := h.artifacts.Locate(ctx, name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if location.URL != "" {
		http.Redirect(w, r, location.URL, http.StatusFound)
		return
	}

	f, err := h.artifacts.Open(name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		logger.WithError(err).Error("Unable to stat artifact")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	http.ServeContent(w, r, name, info.ModTime(), f)
}

func (h *BackupsHandler) DeleteBackup(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	ctx := appcontext.WithArtifact(r.Context(), name)

	err := h.artifacts.Remove(ctx, name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, messageResponse{Success: true, Message: "Backup deleted successfully"})
}

func (h *BackupsHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	response := statusResponse{
		Running:  h.runner.IsRunning(ctx),
		Schedule: h.scheduleResponse(),
	}

	record, ok, err := h.runner.LastRun(ctx)
	if err != nil {
		appcontext.LoggerFromContext(h.logger, ctx).WithError(err).Error("Unable to read last run")
		h.writeJSON(w, r, http.StatusInternalServerError, messageResponse{Message: "Unable to read last run"})
		return
	}

	if ok {
		response.LastRun = &lastRunResponse{
			Timestamp:    record.Timestamp,
			Status:       string(record.Status),
			Trigger:      string(record.Trigger),
			ArtifactName: record.ArtifactName,
			Size:         record.Size,
			Error:        record.Error,
		}
	}

	h.writeJSON(w, r, http.StatusOK, response)
}

func (h *BackupsHandler) UpdateSchedule(w http.ResponseWriter, r *http.Request) {
	var req scheduleRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err != nil {
		h.writeJSON(w, r, http.StatusBadRequest, messageResponse{Message: "Malformed request body"})
		return
	}

	interval, err := domain.ParseInterval(req.Interval)
	if err != nil {
		h.writeJSON(w, r, http.StatusBadRequest, messageResponse{Message: err.Error()})
		return
	}

	err = h.schedule.UpdateInterval(r.Context(), interval)
	if err != nil {
		appcontext.LoggerFromContext(h.logger, r.Context()).WithError(err).Error("Unable to update schedule")
		h.writeJSON(w, r, http.StatusInternalServerError, messageResponse{Message: "Unable to update schedule"})
		return
	}

	h.writeJSON(w, r, http.StatusOK, h.scheduleResponse())
}

func (h *BackupsHandler) scheduleResponse() scheduleResponse {
	response := scheduleResponse{Interval: string(h.schedule.Interval())}

	if next, ok := h.schedule.Next(); ok {
		response.Scheduled = true
		response.NextRun = &next
	}

	return response
}

func (h *BackupsHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch errors.Cause(err) {
	case domain.ErrInvalidArtifactName:
		h.writeJSON(w, r, http.StatusBadRequest, messageResponse{Message: err.Error()})
	case domain.ErrArtifactNotFound:
		h.writeJSON(w, r, http.StatusNotFound, messageResponse{Message: err.Error()})
	default:
		appcontext.LoggerFromContext(h.logger, r.Context()).WithError(err).Error("Artifact operation failed")
		h.writeJSON(w, r, http.StatusInternalServerError, messageResponse{Message: err.Error()})
	}
}

func (h *BackupsHandler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		appcontext.LoggerFromContext(h.logger, r.Context()).WithError(err).Error("Unable to encode response")
	}
}
