package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tunedeck/tunedeck-go/internal/api"
	"github.com/tunedeck/tunedeck-go/internal/auth"
	"github.com/tunedeck/tunedeck-go/internal/config"
	"github.com/tunedeck/tunedeck-go/internal/directory"
	"github.com/tunedeck/tunedeck-go/internal/events"
	"github.com/tunedeck/tunedeck-go/internal/models"
	"github.com/tunedeck/tunedeck-go/internal/session"
	"github.com/tunedeck/tunedeck-go/internal/view"
)

// fakeDirectory serves canned records and remembers the last search.
type fakeDirectory struct {
	stations   []models.StationRecord
	lastParams directory.SearchParams
}

func (f *fakeDirectory) Search(_ context.Context, params directory.SearchParams) ([]models.StationRecord, error) {
	f.lastParams = params
	return f.stations, nil
}

func (f *fakeDirectory) Top(context.Context, int) ([]models.StationRecord, error) {
	return f.stations, nil
}

func (f *fakeDirectory) TopTags(context.Context, int) ([]directory.TopTag, error) {
	return []directory.TopTag{{Name: "jazz", StationCount: 900}}, nil
}

// fakeLibrary is an in-memory favorites/recents store.
type fakeLibrary struct {
	recents   []models.Station
	favorites map[string]models.Station
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{favorites: map[string]models.Station{}}
}

func (f *fakeLibrary) Recents(context.Context) ([]models.Station, error) { return f.recents, nil }

func (f *fakeLibrary) Favorites(context.Context) ([]models.Station, error) {
	out := []models.Station{}
	for _, st := range f.favorites {
		out = append(out, st)
	}
	return out, nil
}

func (f *fakeLibrary) AddFavorite(_ context.Context, st models.Station) error {
	f.favorites[st.ID] = st
	return nil
}

func (f *fakeLibrary) RemoveFavorite(_ context.Context, id string) (bool, error) {
	_, ok := f.favorites[id]
	delete(f.favorites, id)
	return ok, nil
}

type testAPI struct {
	router http.Handler
	sess   *session.Session
	dir    *fakeDirectory
	lib    *fakeLibrary
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	bus := events.NewBus()
	sess, err := session.New(config.NewMemStore(), bus)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	authSvc, err := auth.NewService(t.TempDir())
	if err != nil {
		t.Fatalf("auth: %v", err)
	}
	t.Cleanup(authSvc.Close)

	dir := &fakeDirectory{}
	lib := newFakeLibrary()
	info := models.Info{Version: "test", Engine: "mock"}
	return &testAPI{
		router: api.NewRouter(sess, dir, lib, authSvc, bus, info),
		sess:   sess,
		dir:    dir,
		lib:    lib,
	}
}

func (a *testAPI) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		rd = bytes.NewReader(data)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	a.router.ServeHTTP(rr, req)
	return rr
}

func decodeState(t *testing.T, rr *httptest.ResponseRecorder) models.PlayerState {
	t.Helper()
	var st models.PlayerState
	if err := json.Unmarshal(rr.Body.Bytes(), &st); err != nil {
		t.Fatalf("decode state: %v (body %q)", err, rr.Body.String())
	}
	return st
}

func rawRecord() models.StationRecord {
	return models.StationRecord{
		StationUUID: "u1",
		Name:        "Jazz24",
		URL:         "http://a/s",
		URLResolved: "http://a/r",
		Tags:        "jazz,smooth",
	}
}

func TestGetPlayerDefaults(t *testing.T) {
	a := newTestAPI(t)
	rr := a.do(t, http.MethodGet, "/api/player", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	st := decodeState(t, rr)
	if st.IsBarOpen || st.Volume != models.DefaultVolume {
		t.Errorf("default state wrong: %+v", st)
	}
}

func TestPlayNormalizesAndOpensBar(t *testing.T) {
	a := newTestAPI(t)
	rr := a.do(t, http.MethodPost, "/api/player/play", models.PlayRequest{Station: rawRecord()})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d (body %q)", rr.Code, rr.Body.String())
	}
	st := decodeState(t, rr)
	if !st.IsBarOpen || st.CurrentStation == nil {
		t.Fatalf("play did not open the bar: %+v", st)
	}
	if st.CurrentStation.ResolvedURL != "http://a/r" || st.CurrentStation.Genre != "jazz" {
		t.Errorf("record not normalized: %+v", st.CurrentStation)
	}
}

func TestPlayRejectsUnplayableRecord(t *testing.T) {
	a := newTestAPI(t)
	rr := a.do(t, http.MethodPost, "/api/player/play",
		models.PlayRequest{Station: models.StationRecord{StationUUID: "u2", Name: "No URL"}})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rr.Code)
	}
	var appErr models.AppError
	if err := json.Unmarshal(rr.Body.Bytes(), &appErr); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if appErr.Code != "UNPLAYABLE" {
		t.Errorf("error code = %q", appErr.Code)
	}
}

func TestVolumeAndMuteEndpoints(t *testing.T) {
	a := newTestAPI(t)

	vol := 0.6
	st := decodeState(t, a.do(t, http.MethodPost, "/api/player/volume", models.VolumeRequest{Volume: &vol}))
	if st.Volume != 0.6 || st.IsMuted {
		t.Fatalf("after volume 0.6: %+v", st)
	}

	zero := 0.0
	st = decodeState(t, a.do(t, http.MethodPost, "/api/player/volume", models.VolumeRequest{Volume: &zero}))
	if !st.IsMuted || st.Volume != 0 {
		t.Fatalf("volume 0 must mute: %+v", st)
	}

	unmute := false
	st = decodeState(t, a.do(t, http.MethodPost, "/api/player/mute", models.MuteRequest{Muted: &unmute}))
	if st.IsMuted || st.Volume != 0.6 {
		t.Fatalf("unmute must restore 0.6: %+v", st)
	}

	rr := a.do(t, http.MethodPost, "/api/player/volume", map[string]any{})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("missing volume field: status = %d, want 400", rr.Code)
	}
}

func TestViewEndpointTracksModeChanges(t *testing.T) {
	a := newTestAPI(t)

	var layout view.Layout
	rr := a.do(t, http.MethodGet, "/api/view", nil)
	if err := json.Unmarshal(rr.Body.Bytes(), &layout); err != nil {
		t.Fatal(err)
	}
	if layout.Kind != view.KindHidden {
		t.Errorf("closed player view = %+v, want hidden", layout)
	}

	_ = a.do(t, http.MethodPost, "/api/player/play", models.PlayRequest{Station: rawRecord()})
	rr = a.do(t, http.MethodGet, "/api/view", nil)
	if err := json.Unmarshal(rr.Body.Bytes(), &layout); err != nil {
		t.Fatal(err)
	}
	if layout.Kind != view.KindStandard || layout.BottomInset == 0 {
		t.Errorf("open player view = %+v, want standard with inset", layout)
	}

	_ = a.do(t, http.MethodPost, "/api/player/size", nil)
	rr = a.do(t, http.MethodGet, "/api/view", nil)
	if err := json.Unmarshal(rr.Body.Bytes(), &layout); err != nil {
		t.Fatal(err)
	}
	if layout.Kind != view.KindMinimized || layout.BottomInset != 0 {
		t.Errorf("minimized view = %+v", layout)
	}
}

func TestSearchProxiesAndSorts(t *testing.T) {
	a := newTestAPI(t)
	a.dir.stations = []models.StationRecord{
		{StationUUID: "low", Name: "Low", Bitrate: 64},
		{StationUUID: "high", Name: "High", Bitrate: 320},
	}

	rr := a.do(t, http.MethodGet, "/api/stations/search?term=jazz&sort=bitrate", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if a.dir.lastParams.Name != "jazz" {
		t.Errorf("search params = %+v, want term mapped to name", a.dir.lastParams)
	}

	var got []models.StationRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].StationUUID != "high" {
		t.Errorf("sorted result = %+v", got)
	}
}

func TestFavoritesLifecycle(t *testing.T) {
	a := newTestAPI(t)

	rr := a.do(t, http.MethodPost, "/api/favorites", models.FavoriteRequest{Station: rawRecord()})
	if rr.Code != http.StatusCreated {
		t.Fatalf("add favorite: status = %d (body %q)", rr.Code, rr.Body.String())
	}

	rr = a.do(t, http.MethodGet, "/api/favorites", nil)
	var favs []models.Station
	if err := json.Unmarshal(rr.Body.Bytes(), &favs); err != nil {
		t.Fatal(err)
	}
	if len(favs) != 1 || favs[0].ID != "u1" {
		t.Fatalf("favorites = %+v", favs)
	}

	rr = a.do(t, http.MethodDelete, "/api/favorites/u1", nil)
	if rr.Code != http.StatusNoContent {
		t.Errorf("delete favorite: status = %d", rr.Code)
	}
	rr = a.do(t, http.MethodDelete, "/api/favorites/u1", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", rr.Code)
	}
}

func TestInfoEndpoint(t *testing.T) {
	a := newTestAPI(t)
	rr := a.do(t, http.MethodGet, "/api/info", nil)
	var info models.Info
	if err := json.Unmarshal(rr.Body.Bytes(), &info); err != nil {
		t.Fatal(err)
	}
	if info.Engine != "mock" {
		t.Errorf("info = %+v", info)
	}
}

func TestSSESendsInitialSnapshot(t *testing.T) {
	a := newTestAPI(t)
	srv := httptest.NewServer(a.router)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/subscribe", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}
	line, err := bufio.NewReader(resp.Body).ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(line, "data: ") {
		t.Fatalf("first SSE line = %q", line)
	}
	var st models.PlayerState
	if err := json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &st); err != nil {
		t.Fatalf("snapshot not valid state JSON: %v", err)
	}
}

func TestAPIKeyRequiredWhenConfigured(t *testing.T) {
	dir := t.TempDir()
	users := map[string]auth.User{"admin": {AccessKey: "k1"}}
	data, _ := json.Marshal(users)
	if err := os.WriteFile(filepath.Join(dir, "users.json"), data, 0644); err != nil {
		t.Fatal(err)
	}
	authSvc, err := auth.NewService(dir)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(authSvc.Close)

	bus := events.NewBus()
	sess, err := session.New(config.NewMemStore(), bus)
	if err != nil {
		t.Fatal(err)
	}
	router := api.NewRouter(sess, &fakeDirectory{}, newFakeLibrary(), authSvc, bus, models.Info{})

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/player", nil))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401 without key", rr.Code)
	}

	rr = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/player", nil)
	req.Header.Set("X-API-Key", "k1")
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with key", rr.Code)
	}
}
