package adaptor

import (
	"encoding/json"
	"errors"
	"net/http"

	"marketplace-reviews/internal/dto/request"
	"marketplace-reviews/internal/usecase"
	"marketplace-reviews/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type AdminHandler struct {
	moderation usecase.ModerationService
	sweep      usecase.SweepService
	log        *zap.Logger
}

func NewAdminHandler(moderation usecase.ModerationService, sweep usecase.SweepService, log *zap.Logger) *AdminHandler {
	return &AdminHandler{
		moderation: moderation,
		sweep:      sweep,
		log:        log.With(zap.String("handler", "admin")),
	}
}

// ModerateReview handles POST /api/admin/reviews/{id}/moderate (admin)
func (h *AdminHandler) ModerateReview(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "id")
	if reviewID == "" {
		utils.ResponseBadRequest(w, "Review ID is required", nil)
		return
	}

	var req request.ModerateReviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.ResponseBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.moderation.Moderate(r.Context(), reviewID, &req)
	if err != nil {
		h.handleServiceError(w, err, "moderate review")
		return
	}

	h.log.Info("Moderation decision recorded",
		h.actorFields(r)...,
	)

	utils.ResponseSuccess(w, "success", result)
}

// GetModerationQueue handles GET /api/admin/reviews?status= (admin)
func (h *AdminHandler) GetModerationQueue(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	status := query.Get("status")
	if status == "" {
		status = "flagged"
	}

	req := &request.PaginatedRequest{
		Page:    utils.ParseInt(query.Get("page"), 1),
		PerPage: utils.ParseInt(query.Get("per_page"), 20),
	}

	queue, err := h.moderation.GetModerationQueue(r.Context(), status, req)
	if err != nil {
		h.handleServiceError(w, err, "get moderation queue")
		return
	}

	utils.ResponseSuccess(w, "success", queue)
}

// RunSweep handles POST /api/admin/reviews/sweep (admin, on-demand)
func (h *AdminHandler) RunSweep(w http.ResponseWriter, r *http.Request) {
	result, err := h.sweep.Run(r.Context())
	if err != nil {
		h.handleServiceError(w, err, "run sweep")
		return
	}

	h.log.Info("On-demand sweep triggered",
		h.actorFields(r)...,
	)

	utils.ResponseSuccess(w, "success", result)
}

// actorFields records who performed an admin action, for the audit trail.
func (h *AdminHandler) actorFields(r *http.Request) []zap.Field {
	fields := []zap.Field{zap.String("path", r.URL.Path)}

	if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
		fields = append(fields, zap.String("actor_id", userID.String()))
	}
	if role, ok := utils.GetRoleFromContext(r.Context()); ok {
		fields = append(fields, zap.String("actor_role", role))
	}

	return fields
}

func (h *AdminHandler) handleServiceError(w http.ResponseWriter, err error, operation string) {
	switch {
	case errors.Is(err, usecase.ErrReviewNotFound):
		h.log.Warn(operation+" failed - not found", zap.Error(err))
		utils.ResponseNotFound(w, err.Error())

	case errors.Is(err, usecase.ErrValidation):
		h.log.Warn(operation+" validation failed", zap.Error(err))
		utils.ResponseBadRequest(w, err.Error(), nil)

	case errors.Is(err, usecase.ErrInvalidTransition):
		h.log.Warn(operation+" failed - invalid transition", zap.Error(err))
		utils.ResponseConflict(w, err.Error())

	case errors.Is(err, usecase.ErrSweepRunning):
		h.log.Warn(operation + " skipped - already running")
		utils.ResponseConflict(w, err.Error())

	default:
		h.log.Error("Failed to "+operation, zap.Error(err))
		utils.ResponseInternalError(w, "Internal server error")
	}
}
