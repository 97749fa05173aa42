package adaptor

import (
	"marketplace-reviews/internal/usecase"

	"go.uber.org/zap"
)

type Handler struct {
	Review *ReviewHandler
	Admin  *AdminHandler
}

func NewHandler(service *usecase.Service, log *zap.Logger) *Handler {
	return &Handler{
		Review: NewReviewHandler(service.Review, log),
		Admin:  NewAdminHandler(service.Moderation, service.Sweep, log),
	}
}
