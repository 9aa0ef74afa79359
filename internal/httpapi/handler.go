// Package httpapi exposes the service boundary: snapshot load, operation
// apply, seed reset and snapshot export endpoints.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"tutorcore/internal/blob"
	"tutorcore/internal/core"
	"tutorcore/internal/seed"
	"tutorcore/pkg/domain"
)

const exportPrefix = "exports/"

// Handler serves the state API around an applicator service.
type Handler struct {
	svc    *core.Service
	blobs  blob.Store
	logger *slog.Logger
	nowFn  func() time.Time
}

// NewHandler constructs the boundary handler. The blob store may be nil, in
// which case the export endpoints report that exports are disabled.
func NewHandler(svc *core.Service, blobs blob.Store, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		svc:    svc,
		blobs:  blobs,
		logger: logger,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

// Routes registers the API endpoints on a fresh mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/state", h.handleGetState)
	mux.HandleFunc("POST /api/v1/state/apply", h.handleApply)
	mux.HandleFunc("POST /api/v1/state/reset", h.handleReset)
	mux.HandleFunc("POST /api/v1/state/export", h.handleExport)
	mux.HandleFunc("GET /api/v1/state/exports", h.handleListExports)
	return mux
}

// handleGetState returns the full snapshot, seeding the default dataset on
// first load.
func (h *Handler) handleGetState(w http.ResponseWriter, r *http.Request) {
	state := h.svc.State()
	if snapshotIsEmpty(state) {
		if err := h.restoreSeed(r.Context()); err != nil {
			h.writeError(w, err)
			return
		}
		state = h.svc.State()
	}
	h.writeJSON(w, http.StatusOK, state)
}

type applyResponse struct {
	State    domain.Snapshot    `json:"state"`
	Warnings []domain.Violation `json:"warnings,omitempty"`
}

// handleApply decodes an operation envelope, applies it transactionally and
// returns the new snapshot. Nothing is persisted on error.
func (h *Handler) handleApply(w http.ResponseWriter, r *http.Request) {
	var env domain.Envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		h.writeErrorStatus(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	res, err := h.svc.ApplyEnvelope(r.Context(), env)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("operation applied", "op", env.Op, "warnings", len(res.Violations))
	h.writeJSON(w, http.StatusOK, applyResponse{State: h.svc.State(), Warnings: res.Violations})
}

// handleReset restores the default seed dataset unconditionally.
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.restoreSeed(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("state reset to seed dataset")
	h.writeJSON(w, http.StatusOK, h.svc.State())
}

// handleExport writes the current snapshot as a JSON object to the blob
// store under a timestamped key.
func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	if h.blobs == nil {
		h.writeErrorStatus(w, http.StatusNotImplemented, errors.New("snapshot exports disabled: no blob store configured"))
		return
	}
	payload, err := json.Marshal(h.svc.State())
	if err != nil {
		h.writeError(w, err)
		return
	}
	key := fmt.Sprintf("%ssnapshot-%s.json", exportPrefix, h.nowFn().Format("20060102T150405.000Z0700"))
	info, err := h.blobs.Put(r.Context(), key, bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/json",
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.logger.Info("snapshot exported", "key", info.Key, "bytes", info.Size)
	h.writeJSON(w, http.StatusCreated, info)
}

func (h *Handler) handleListExports(w http.ResponseWriter, r *http.Request) {
	if h.blobs == nil {
		h.writeErrorStatus(w, http.StatusNotImplemented, errors.New("snapshot exports disabled: no blob store configured"))
		return
	}
	infos, err := h.blobs.List(r.Context(), exportPrefix)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if infos == nil {
		infos = []blob.Info{}
	}
	h.writeJSON(w, http.StatusOK, infos)
}

// restoreSeed imports the seed dataset and runs an empty transaction so
// durable backends snapshot the imported state immediately.
func (h *Handler) restoreSeed(ctx context.Context) error {
	h.svc.Store().ImportState(seed.DefaultSnapshot())
	_, err := h.svc.Store().RunInTransaction(ctx, func(domain.Transaction) error { return nil })
	return err
}

func snapshotIsEmpty(s domain.Snapshot) bool {
	return len(s.Students) == 0 &&
		len(s.Teachers) == 0 &&
		len(s.Staff) == 0 &&
		len(s.Classes) == 0 &&
		len(s.Attendance) == 0 &&
		len(s.Invoices) == 0 &&
		len(s.ProgressReports) == 0 &&
		len(s.Ledger) == 0 &&
		len(s.Income) == 0 &&
		len(s.Expenses) == 0 &&
		len(s.Payrolls) == 0 &&
		len(s.Announcements) == 0
}

type errorResponse struct {
	Error      string             `json:"error"`
	Violations []domain.Violation `json:"violations,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var (
		notFound  domain.NotFoundError
		duplicate domain.DuplicateIDError
		invalid   domain.InvalidStateError
		unknown   domain.UnknownOperationError
		violation domain.RuleViolationError
	)
	switch {
	case errors.As(err, &notFound):
		h.writeErrorStatus(w, http.StatusNotFound, err)
	case errors.As(err, &duplicate):
		h.writeErrorStatus(w, http.StatusConflict, err)
	case errors.As(err, &invalid), errors.As(err, &unknown):
		h.writeErrorStatus(w, http.StatusBadRequest, err)
	case errors.As(err, &violation):
		h.writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Violations: violation.Result.Violations})
	default:
		h.logger.Error("request failed", "error", err)
		h.writeErrorStatus(w, http.StatusInternalServerError, err)
	}
}

func (h *Handler) writeErrorStatus(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		h.logger.Error("encode response", "error", err)
	}
}
