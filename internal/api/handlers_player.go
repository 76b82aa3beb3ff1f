package api

import (
	"net/http"

	"github.com/tunedeck/tunedeck-go/internal/models"
	"github.com/tunedeck/tunedeck-go/internal/view"
)

// getPlayer returns the current player session state.
func (h *Handlers) getPlayer(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.player.State())
}

// playStation selects a station and starts a playback attempt. The body
// carries the raw directory record; it is normalized here so the session
// only ever sees canonical stations.
func (h *Handlers) playStation(w http.ResponseWriter, r *http.Request) {
	var req models.PlayRequest
	if appErr := decodeBody(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}

	station := req.Station.Normalize()
	if appErr := h.player.PlayStation(station); appErr != nil {
		writeError(w, appErr)
		return
	}
	writeJSON(w, http.StatusOK, h.player.State())
}

func (h *Handlers) closePlayer(w http.ResponseWriter, r *http.Request) {
	h.player.CloseBar()
	writeJSON(w, http.StatusOK, h.player.State())
}

func (h *Handlers) setPlaying(w http.ResponseWriter, r *http.Request) {
	var req models.PlayingRequest
	if appErr := decodeBody(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}
	if req.Playing == nil {
		writeError(w, models.ErrBadRequest("missing playing field"))
		return
	}
	h.player.SetIsPlaying(*req.Playing)
	writeJSON(w, http.StatusOK, h.player.State())
}

func (h *Handlers) togglePlayerSize(w http.ResponseWriter, r *http.Request) {
	h.player.TogglePlayerSize()
	writeJSON(w, http.StatusOK, h.player.State())
}

func (h *Handlers) openOverlay(w http.ResponseWriter, r *http.Request) {
	h.player.OpenOverlay()
	writeJSON(w, http.StatusOK, h.player.State())
}

func (h *Handlers) closeOverlay(w http.ResponseWriter, r *http.Request) {
	h.player.CloseOverlay()
	writeJSON(w, http.StatusOK, h.player.State())
}

func (h *Handlers) setVolume(w http.ResponseWriter, r *http.Request) {
	var req models.VolumeRequest
	if appErr := decodeBody(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}
	if req.Volume == nil {
		writeError(w, models.ErrBadRequest("missing volume field"))
		return
	}
	h.player.SetVolume(*req.Volume)
	writeJSON(w, http.StatusOK, h.player.State())
}

func (h *Handlers) setMuted(w http.ResponseWriter, r *http.Request) {
	var req models.MuteRequest
	if appErr := decodeBody(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}
	if req.Muted == nil {
		writeError(w, models.ErrBadRequest("missing muted field"))
		return
	}
	h.player.SetMuted(*req.Muted)
	writeJSON(w, http.StatusOK, h.player.State())
}

// getView returns the derived presentation layout for the current state.
func (h *Handlers) getView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, view.For(h.player.State()))
}

func (h *Handlers) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.info)
}
