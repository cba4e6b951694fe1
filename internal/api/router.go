package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

func NewRouter(apiHandler *APIHandler, logger zerolog.Logger, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(Metrics) // First, to see every request
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Retry-After"},
		MaxAge:         300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", apiHandler.HealthHandler)

		// Identity is optional here; operations that need it return 401.
		r.Group(func(r chi.Router) {
			r.Use(apiHandler.IdentityMiddleware)

			r.Post("/users/sync", apiHandler.SyncUserHandler)
			r.Put("/users/me/online", apiHandler.SetOnlineHandler)
			r.Get("/users", apiHandler.ListUsersHandler)
			r.Get("/users/{userID}", apiHandler.GetUserHandler)

			r.Post("/conversations/direct", apiHandler.CreateDirectHandler)
			r.Post("/conversations/group", apiHandler.CreateGroupHandler)
			r.Get("/conversations", apiHandler.ListConversationsHandler)
			r.Get("/conversations/preview", apiHandler.ListPreviewsHandler)
			r.Get("/conversations/{conversationID}", apiHandler.GetConversationHandler)

			r.Get("/conversations/{conversationID}/messages", apiHandler.ListMessagesHandler)
			r.Post("/conversations/{conversationID}/messages", apiHandler.PostMessageHandler)
			r.Delete("/messages/{messageID}", apiHandler.DeleteMessageHandler)
			r.With(apiHandler.RateLimit).Post("/messages/{messageID}/reactions", apiHandler.ToggleReactionHandler)

			r.Put("/conversations/{conversationID}/read", apiHandler.MarkReadHandler)
			r.Get("/conversations/{conversationID}/read", apiHandler.GetReadHandler)
			r.Get("/reads", apiHandler.ListReadsHandler)

			r.With(apiHandler.RateLimit).Put("/conversations/{conversationID}/typing", apiHandler.SetTypingHandler)
			r.Get("/conversations/{conversationID}/typing", apiHandler.ListTypingHandler)

			r.Get("/events", apiHandler.StreamHandler(allowedOrigins))
		})
	})

	return r
}
