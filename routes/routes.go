package routes

import (
	"github.com/clubarena/clubarena/handlers"
	"github.com/clubarena/clubarena/middleware"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

func SetupRoutes(
	router *chi.Mux,
	authHandler *handlers.AuthHandler,
	bracketHandler *handlers.BracketHandler,
	eventHandler *handlers.EventHandler,
	matchHandler *handlers.MatchHandler,
	calendarHandler *handlers.CalendarHandler,
	webSocketHandler *handlers.WebSocketHandler,
	jwtSecret string,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authenticate := middleware.Authenticate(jwtSecret)

	router.Post("/auth/login", authHandler.LoginHandler)

	router.Route("/tournaments/{eventID}/bracket", func(r chi.Router) {
		r.Get("/", bracketHandler.GetHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Post("/", bracketHandler.GenerateHandler)
			r.Delete("/", bracketHandler.DeleteHandler)
		})
	})

	router.Route("/events/{eventID}", func(r chi.Router) {
		r.Get("/", eventHandler.GetHandler)
		r.Get("/matches", matchHandler.ListByEventHandler)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Put("/status", eventHandler.UpdateStatusHandler)
			r.Post("/report", eventHandler.SaveReportHandler)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Patch("/matches/{matchID}/result", matchHandler.SubmitResultHandler)
		r.Post("/calendar-entries", calendarHandler.CreateHandler)
	})

	router.Get("/clubs/{clubID}/calendar-entries", calendarHandler.ListByClubHandler)

	router.Get("/ws/events/{eventID}", webSocketHandler.ServeWs)

	router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
}
