// Package handler is the thin HTTP layer over the roster service. It
// binds and validates request DTOs, delegates to the service, and maps
// coded domain errors onto HTTP statuses. No business logic lives here.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	platformmetrics "roster/internal/platform/metrics"
	"roster/internal/platform/middleware"
	"roster/internal/roster/models"
	"roster/internal/roster/service"
	dErrors "roster/pkg/domain-errors"
)

// Service defines the roster operations the HTTP layer needs.
type Service interface {
	CreatePerson(ctx context.Context, name string) (*models.Person, error)
	RenamePerson(ctx context.Context, id uuid.UUID, newName string) error
	ListPeople(ctx context.Context) ([]models.PersonStatus, error)
	GetPersonByName(ctx context.Context, name string) (*models.PersonStatus, error)
	ListDuties(ctx context.Context, personName string) ([]models.DutySegment, error)
	InsertDuty(ctx context.Context, personName, rank, title string, start time.Time) (uuid.UUID, error)
	UpdateDuty(ctx context.Context, upd service.DutyUpdate) error
	RemoveDuty(ctx context.Context, segmentID uuid.UUID) error
}

// Handler handles the people and duties endpoints.
type Handler struct {
	roster         Service
	logger         *slog.Logger
	metrics        *platformmetrics.Metrics
	requestTimeout time.Duration
}

// New creates a Handler. A nil metrics is allowed in tests.
func New(roster Service, logger *slog.Logger, metrics *platformmetrics.Metrics, requestTimeout time.Duration) *Handler {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &Handler{roster: roster, logger: logger, metrics: metrics, requestTimeout: requestTimeout}
}

// Register mounts the roster routes with the shared middleware chain.
func (h *Handler) Register(r chi.Router) {
	api := chi.NewRouter()
	api.Use(middleware.Recovery(h.logger))
	api.Use(middleware.RequestID)
	api.Use(middleware.Logger(h.logger))
	api.Use(middleware.Timeout(h.requestTimeout))
	api.Use(middleware.ContentTypeJSON)
	api.Use(platformmetrics.LatencyMiddleware(h.metrics))

	api.Post("/people", h.handleCreatePerson)
	api.Get("/people", h.handleListPeople)
	api.Get("/people/{name}", h.handleGetPerson)
	api.Put("/people/{id}", h.handleRenamePerson)
	api.Get("/people/{name}/duties", h.handleListDuties)
	api.Post("/people/{name}/duties", h.handleInsertDuty)
	api.Put("/duties/{id}", h.handleUpdateDuty)
	api.Delete("/duties/{id}", h.handleRemoveDuty)

	r.Mount("/", api)
}

func (h *Handler) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req createPersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeValidation, err.Error()))
		return
	}

	person, err := h.roster.CreatePerson(ctx, req.Name)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, person)
}

func (h *Handler) handleListPeople(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	people, err := h.roster.ListPeople(ctx)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	if people == nil {
		people = []models.PersonStatus{}
	}
	writeJSON(w, http.StatusOK, people)
}

func (h *Handler) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	status, err := h.roster.GetPersonByName(ctx, chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (h *Handler) handleRenamePerson(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid person id"))
		return
	}
	var req renamePersonRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeValidation, err.Error()))
		return
	}
	if err := h.roster.RenamePerson(ctx, id, req.Name); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id.String(), "name": req.Name})
}

func (h *Handler) handleListDuties(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	duties, err := h.roster.ListDuties(ctx, chi.URLParam(r, "name"))
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	if duties == nil {
		duties = []models.DutySegment{}
	}
	writeJSON(w, http.StatusOK, duties)
}

func (h *Handler) handleInsertDuty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	var req insertDutyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeValidation, err.Error()))
		return
	}
	start, err := parseDay(req.StartDate)
	if err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeValidation, "start_date: "+err.Error()))
		return
	}

	segmentID, err := h.roster.InsertDuty(ctx, name, req.Rank, req.Title, start)
	if err != nil {
		h.writeError(ctx, w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"segment_id": segmentID.String()})
}

func (h *Handler) handleUpdateDuty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid segment id"))
		return
	}
	var req updateDutyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if err := req.Validate(); err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeValidation, err.Error()))
		return
	}
	start, err := parseDay(req.StartDate)
	if err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeValidation, "start_date: "+err.Error()))
		return
	}
	upd := service.DutyUpdate{SegmentID: id, Rank: req.Rank, Title: req.Title, Start: start}
	if req.EndDate != nil {
		end, err := parseDay(*req.EndDate)
		if err != nil {
			h.writeError(ctx, w, dErrors.New(dErrors.CodeValidation, "end_date: "+err.Error()))
			return
		}
		upd.End = &end
	}
	if err := h.roster.UpdateDuty(ctx, upd); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleRemoveDuty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(ctx, w, dErrors.New(dErrors.CodeBadRequest, "invalid segment id"))
		return
	}
	if err := h.roster.RemoveDuty(ctx, id); err != nil {
		h.writeError(ctx, w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// writeError centralizes domain error translation so every endpoint emits
// the same JSON error envelope.
func (h *Handler) writeError(ctx context.Context, w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	message := "internal error"
	var de *dErrors.Error
	if errors.As(err, &de) {
		message = de.Message
	}
	status := dErrors.ToHTTPStatus(code)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(ctx, "request failed",
			"error", err.Error(),
			"request_id", middleware.GetRequestID(ctx),
		)
	}
	writeJSON(w, status, map[string]string{
		"error":   string(code),
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
