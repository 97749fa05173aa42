package wire

import (
	"net/http"

	"marketplace-reviews/internal/adaptor"
	"marketplace-reviews/internal/analysis"
	"marketplace-reviews/internal/data/repository"
	"marketplace-reviews/internal/jobs"
	"marketplace-reviews/internal/usecase"
	"marketplace-reviews/pkg/middleware"
	"marketplace-reviews/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// App holds the wired application
type App struct {
	Router    *chi.Mux
	Scheduler *jobs.Scheduler
}

// Wiring initializes all dependencies
func Wiring(repo *repository.Repository, config *utils.Config, logger *zap.Logger) (*App, error) {
	analyzer := analysis.NewOpenAIAnalyzer(config.OpenAI, logger)
	service := usecase.NewService(repo, analyzer, config, logger)
	handler := adaptor.NewHandler(service, logger)

	router := setupRouter(handler, config, logger)

	scheduler, err := jobs.NewScheduler(service.Sweep, config.Review.SweepSchedule, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		Router:    router,
		Scheduler: scheduler,
	}, nil
}

// setupRouter configures the Chi router
func setupRouter(handler *adaptor.Handler, config *utils.Config, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recover(logger))
	r.Use(middleware.CORS())

	wireReview(r, handler.Review, config, logger)
	wireAdmin(r, handler.Admin, config, logger)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return r
}
