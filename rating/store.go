package rating

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/maxts0gt/tacticore/storage"
	"github.com/maxts0gt/tacticore/tactics"
)

// StateKey is the store key the rating state lives under.
const StateKey = "rating_state"

const stateVersion = 1

type envelope struct {
	Version int    `json:"version"`
	State   *State `json:"state"`
}

// Load reads the state from the store. A missing key yields a fresh
// state. On a read or decode failure the fresh state is returned along
// with the error, so callers keep working defaults.
func Load(store storage.Store, key string) (*State, error) {
	raw, ok, err := store.Get(key)
	if err != nil {
		return NewState(), errors.WithMessage(err, "rating: load state")
	}
	if !ok {
		return NewState(), nil
	}
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return NewState(), errors.Wrap(err, "rating: decode state")
	}
	if env.Version != stateVersion || env.State == nil {
		return NewState(), errors.Errorf("rating: unsupported state version %d", env.Version)
	}
	if env.State.PerTheme == nil {
		env.State.PerTheme = make(map[tactics.Theme]Tally)
	}
	return env.State, nil
}

// Save writes the whole state back in one atomic value. The in-memory
// state is never touched, so a write failure cannot corrupt it.
func Save(store storage.Store, key string, s *State) error {
	data, err := json.Marshal(envelope{Version: stateVersion, State: s})
	if err != nil {
		return errors.Wrap(err, "rating: encode state")
	}
	if err := store.Set(key, string(data)); err != nil {
		return errors.WithMessage(err, "rating: save state")
	}
	return nil
}
