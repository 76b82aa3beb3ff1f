package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/tunedeck/tunedeck-go/internal/models"
)

// Recorder watches published player states and appends a recents entry each
// time a new station's playback is confirmed. Intent alone is not enough; a
// station that never actually plays never enters the history.
type Recorder struct {
	repo *Repo

	lastID string
}

// NewRecorder creates a history recorder over the given repository.
func NewRecorder(repo *Repo) *Recorder {
	return &Recorder{repo: repo}
}

// Run consumes player state updates until ctx ends or the channel closes.
func (r *Recorder) Run(ctx context.Context, states <-chan models.PlayerState) {
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-states:
			if !ok {
				return
			}
			r.observe(ctx, state)
		}
	}
}

func (r *Recorder) observe(ctx context.Context, state models.PlayerState) {
	if !state.IsPlaying || state.CurrentStation == nil {
		if state.CurrentStation == nil {
			// Closed bar: the next play of the same station counts again.
			r.lastID = ""
		}
		return
	}
	st := *state.CurrentStation
	if st.ID == r.lastID {
		return
	}
	r.lastID = st.ID

	opCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := r.repo.TouchRecent(opCtx, st); err != nil {
		slog.Warn("history: failed to record station", "station", st.Name, "err", err)
	}
}
