package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/serverwatch/fivewatch/internal/api/handlers"
	"github.com/serverwatch/fivewatch/internal/monitoring"
	"github.com/serverwatch/fivewatch/internal/services"
	"github.com/serverwatch/fivewatch/internal/websocket"
)

// NewRouter creates and configures a new Chi router.
func NewRouter(hub *websocket.Hub, monitor monitoring.Provider, eventService services.EventServiceProvider) *chi.Mux {
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration for development
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:3000"}, // Adjust for your frontend URL
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize handlers
	serverHandler := handlers.NewServerHandler(monitor)
	playerHandler := handlers.NewPlayerHandler(monitor)
	eventHandler := handlers.NewEventHandler(eventService)
	systemHandler := handlers.NewSystemHandler()
	wsHandler := handlers.NewWebSocketHandler(hub)

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		// WebSocket endpoints: global stream and per-server stream
		r.Get("/ws", wsHandler.Serve)
		r.Get("/ws/servers/{id}", wsHandler.Serve)

		// On-demand single polling round
		r.Post("/poll", serverHandler.TriggerPoll)

		r.Route("/servers", func(r chi.Router) {
			r.Get("/", serverHandler.GetAll)
			r.Get("/{id}", serverHandler.Get)
		})

		r.Get("/players", playerHandler.Lookup)
		r.Get("/events", eventHandler.GetRecent)
		r.Get("/system", systemHandler.Get)
	})

	return r
}
