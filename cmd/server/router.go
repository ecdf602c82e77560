package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/phrazzld/qforge/internal/api"
	apiMiddleware "github.com/phrazzld/qforge/internal/api/middleware"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	// RealIP must precede the rate limiters, which key on RemoteAddr.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(apiMiddleware.RequestLogger)
	r.Use(middleware.Recoverer)

	questionHandler := api.NewQuestionHandler(app.questionService, app.logger)
	healthHandler := api.NewHealthHandler(version)

	generalLimiter := apiMiddleware.NewRateLimiter("general", app.config.RateLimit.GeneralPerMinute, app.logger)
	generateLimiter := apiMiddleware.NewRateLimiter("generate", app.config.RateLimit.GeneratePerMinute, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(generalLimiter.Middleware)

		r.Route("/questions", func(r chi.Router) {
			r.With(generateLimiter.Middleware).Post("/generate", questionHandler.Generate)
			r.Get("/status/{requestId}", questionHandler.GetStatus)

			r.Get("/raw", questionHandler.ListRaw)
			r.Get("/raw/{id}", questionHandler.GetRaw)
			r.Post("/{id}/confirm", questionHandler.Confirm)
			r.Post("/{id}/reject", questionHandler.Reject)

			r.Get("/", questionHandler.ListQuestions)
			r.Get("/statistics", questionHandler.Statistics)
			r.Post("/review-pending", questionHandler.ReviewPending)
		})
	})

	r.Get("/health", healthHandler.Health)

	return r
}
