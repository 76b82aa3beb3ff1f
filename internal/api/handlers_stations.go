package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/tunedeck/tunedeck-go/internal/directory"
	"github.com/tunedeck/tunedeck-go/internal/models"
)

// searchStations proxies a directory search. Filters come from query
// parameters; "term" is accepted as an alias for "name".
func (h *Handlers) searchStations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		name = q.Get("term")
	}
	params := directory.SearchParams{
		Name:    name,
		Tag:     q.Get("tag"),
		Country: q.Get("country"),
		Limit:   intQuery(r, "limit"),
	}

	stations, err := h.dir.Search(r.Context(), params)
	if err != nil {
		writeError(w, models.ErrUpstream(err.Error()))
		return
	}
	applySort(stations, q.Get("sort"))
	writeJSON(w, http.StatusOK, stations)
}

// topStations returns the directory's most popular stations, optionally
// re-sorted by trend, listeners, or bitrate.
func (h *Handlers) topStations(w http.ResponseWriter, r *http.Request) {
	stations, err := h.dir.Top(r.Context(), intQuery(r, "limit"))
	if err != nil {
		writeError(w, models.ErrUpstream(err.Error()))
		return
	}
	applySort(stations, r.URL.Query().Get("sort"))
	writeJSON(w, http.StatusOK, stations)
}

func (h *Handlers) topTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.dir.TopTags(r.Context(), intQuery(r, "limit"))
	if err != nil {
		writeError(w, models.ErrUpstream(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (h *Handlers) getRecents(w http.ResponseWriter, r *http.Request) {
	stations, err := h.library.Recents(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stations)
}

func (h *Handlers) getFavorites(w http.ResponseWriter, r *http.Request) {
	stations, err := h.library.Favorites(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stations)
}

func (h *Handlers) addFavorite(w http.ResponseWriter, r *http.Request) {
	var req models.FavoriteRequest
	if appErr := decodeBody(r, &req); appErr != nil {
		writeError(w, appErr)
		return
	}
	station := req.Station.Normalize()
	if station.ID == "" {
		writeError(w, models.ErrBadRequest("station id is required"))
		return
	}
	if err := h.library.AddFavorite(r.Context(), station); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, station)
}

func (h *Handlers) removeFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	removed, err := h.library.RemoveFavorite(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if !removed {
		writeError(w, models.ErrNotFound("no favorite with id "+id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// applySort reorders directory records in place by the named key. Unknown
// keys leave the upstream order untouched.
func applySort(stations []models.StationRecord, key string) {
	switch key {
	case "clicktrend":
		directory.SortByClickTrend(stations)
	case "clickcount":
		directory.SortByListeners(stations)
	case "bitrate":
		directory.SortByBitrate(stations)
	}
}

func intQuery(r *http.Request, name string) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil {
		return 0
	}
	return n
}
