package wire

import (
	"marketplace-reviews/internal/adaptor"
	"marketplace-reviews/pkg/middleware"
	"marketplace-reviews/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

func wireAdmin(
	r chi.Router,
	adminHandler *adaptor.AdminHandler,
	config *utils.Config,
	log *zap.Logger,
) {
	// ==================== ADMIN ROUTES (require admin token) ====================
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdmin(config.JWT.Secret, log))

		// GET /api/admin/reviews?status= - moderation queue
		r.Get("/api/admin/reviews", adminHandler.GetModerationQueue)

		// POST /api/admin/reviews/{id}/moderate - approve or reject
		r.Post("/api/admin/reviews/{id}/moderate", adminHandler.ModerateReview)

		// POST /api/admin/reviews/sweep - run the auto-approval sweep now
		r.Post("/api/admin/reviews/sweep", adminHandler.RunSweep)
	})
}
