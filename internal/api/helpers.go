// Package api implements the HTTP surface of the tunedeck daemon.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/tunedeck/tunedeck-go/internal/directory"
	"github.com/tunedeck/tunedeck-go/internal/models"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	player  Player
	dir     Directory
	library Library
	events  EventBus
	info    models.Info
}

// Player is the interface the handlers use to drive the playback session.
type Player interface {
	State() models.PlayerState
	PlayStation(st models.Station) *models.AppError
	CloseBar()
	SetIsPlaying(playing bool)
	TogglePlayerSize()
	OpenOverlay()
	CloseOverlay()
	SetVolume(vol float64)
	SetMuted(muted bool)
}

// Directory is the interface to the station directory.
type Directory interface {
	Search(ctx context.Context, params directory.SearchParams) ([]models.StationRecord, error)
	Top(ctx context.Context, limit int) ([]models.StationRecord, error)
	TopTags(ctx context.Context, limit int) ([]directory.TopTag, error)
}

// Library is the interface to listening history and favorites.
type Library interface {
	Recents(ctx context.Context) ([]models.Station, error)
	Favorites(ctx context.Context) ([]models.Station, error)
	AddFavorite(ctx context.Context, st models.Station) error
	RemoveFavorite(ctx context.Context, stationID string) (bool, error)
}

// EventBus is the interface for subscribing to player state changes.
type EventBus interface {
	Subscribe(id string) <-chan models.PlayerState
	Unsubscribe(id string)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an AppError as a JSON response.
func writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	if appErr, ok := err.(*models.AppError); ok {
		w.WriteHeader(appErr.Status)
		_ = json.NewEncoder(w).Encode(appErr)
		return
	}
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(models.ErrInternal(err.Error()))
}

// decodeBody decodes a JSON request body, reporting a 400 on malformed input.
func decodeBody(r *http.Request, v interface{}) *models.AppError {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.ErrBadRequest("invalid request body: " + err.Error())
	}
	return nil
}
