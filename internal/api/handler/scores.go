package handler

import (
	"log/slog"
	"net/http"

	"github.com/mcoot/reactimer/internal/api/apierr"
	apimw "github.com/mcoot/reactimer/internal/api/middleware"
	"github.com/mcoot/reactimer/internal/api/request"
	"github.com/mcoot/reactimer/internal/api/response"
	"github.com/mcoot/reactimer/internal/middleware"
	"github.com/mcoot/reactimer/internal/model"
	"github.com/mcoot/reactimer/internal/services/scores"
)

// ScoresHandler handles the per-user score endpoints. All routes require a session.
type ScoresHandler struct {
	scoreService *scores.Service
	metrics      *middleware.Metrics
	logger       *slog.Logger
}

// NewScoresHandler creates a new scores handler
func NewScoresHandler(scoreService *scores.Service, metrics *middleware.Metrics, logger *slog.Logger) *ScoresHandler {
	return &ScoresHandler{
		scoreService: scoreService,
		metrics:      metrics,
		logger:       logger,
	}
}

// List handles GET /highscores
func (h *ScoresHandler) List(w http.ResponseWriter, r *http.Request) {
	p := apimw.MustGetPrincipal(r.Context())

	records, err := h.scoreService.List(r.Context(), p)
	if err != nil {
		writeError(h.logger, w, r, err, apierr.CodeDBReadFailed)
		return
	}

	response.JSON(w, http.StatusOK, response.EntriesResponse{Entries: response.EntriesFromModel(records)})
}

// Submit handles POST /submit
func (h *ScoresHandler) Submit(w http.ResponseWriter, r *http.Request) {
	p := apimw.MustGetPrincipal(r.Context())

	var req request.SubmitRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(h.logger, w, r, err, apierr.CodeDBWriteFailed)
		return
	}

	records, err := h.scoreService.Submit(r.Context(), p, req.YourName, req.TimeMs.Float())
	h.respond(w, r, "submit", records, err, apierr.CodeDBWriteFailed)
}

// Rename handles POST /rename
func (h *ScoresHandler) Rename(w http.ResponseWriter, r *http.Request) {
	p := apimw.MustGetPrincipal(r.Context())

	var req request.RenameRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(h.logger, w, r, err, apierr.CodeDBUpdateFailed)
		return
	}

	records, err := h.scoreService.Rename(r.Context(), p, req.ID.Float(), req.YourName)
	h.respond(w, r, "rename", records, err, apierr.CodeDBUpdateFailed)
}

// Delete handles POST /delete
func (h *ScoresHandler) Delete(w http.ResponseWriter, r *http.Request) {
	p := apimw.MustGetPrincipal(r.Context())

	var req request.DeleteRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(h.logger, w, r, err, apierr.CodeDBDeleteFailed)
		return
	}

	records, err := h.scoreService.Delete(r.Context(), p, req.ID.Float())
	h.respond(w, r, "delete", records, err, apierr.CodeDBDeleteFailed)
}

func (h *ScoresHandler) respond(w http.ResponseWriter, r *http.Request, op string, records []model.ScoreRecord, err error, fallback string) {
	h.metrics.ScoreOperation(op, outcome(err))
	if err != nil {
		writeError(h.logger, w, r, err, fallback)
		return
	}
	response.JSON(w, http.StatusOK, response.MutationResponse{OK: true, Entries: response.EntriesFromModel(records)})
}
