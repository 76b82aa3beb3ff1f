package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/tunedeck/tunedeck-go/internal/auth"
	"github.com/tunedeck/tunedeck-go/internal/models"
)

// NewRouter creates the main HTTP router.
func NewRouter(player Player, dir Directory, lib Library, authSvc *auth.Service, bus EventBus, info models.Info) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(middleware.CleanPath)

	h := &Handlers{player: player, dir: dir, library: lib, events: bus, info: info}

	r.Group(func(r chi.Router) {
		r.Use(authSvc.Middleware)

		// Player session
		r.Get("/api/player", h.getPlayer)
		r.Post("/api/player/play", h.playStation)
		r.Post("/api/player/close", h.closePlayer)
		r.Post("/api/player/playing", h.setPlaying)
		r.Post("/api/player/size", h.togglePlayerSize)
		r.Post("/api/player/overlay/open", h.openOverlay)
		r.Post("/api/player/overlay/close", h.closeOverlay)
		r.Post("/api/player/volume", h.setVolume)
		r.Post("/api/player/mute", h.setMuted)

		// Derived presentation
		r.Get("/api/view", h.getView)

		// Station directory proxy
		r.Get("/api/stations/search", h.searchStations)
		r.Get("/api/stations/top", h.topStations)
		r.Get("/api/stations/toptags", h.topTags)

		// Library
		r.Get("/api/recents", h.getRecents)
		r.Get("/api/favorites", h.getFavorites)
		r.Post("/api/favorites", h.addFavorite)
		r.Delete("/api/favorites/{id}", h.removeFavorite)

		// System
		r.Get("/api/info", h.getInfo)

		// State feeds
		r.Get("/api/subscribe", h.sseEvents)
		r.Get("/api/ws", h.wsEvents)
	})

	return r
}

// corsMiddleware adds permissive CORS headers for local network access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
