package watchlist

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// ItemState is what the watcher remembers about one watched portfolio.
type ItemState struct {
	LastRunID     string    `json:"last_run_id"`
	LastRunAt     time.Time `json:"last_run_at"`
	LastDate      time.Time `json:"last_date"`
	LastEquity    float64   `json:"last_equity"`
	LastRebalance time.Time `json:"last_rebalance,omitempty"`
	Runs          int       `json:"runs"`
}

// State is the persisted watch state, keyed by watch item name.
type State struct {
	Items     map[string]ItemState `json:"items"`
	UpdatedAt time.Time            `json:"updated_at"`
}

// LoadState reads the state from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{Items: map[string]ItemState{}}, nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.Items == nil {
		state.Items = map[string]ItemState{}
	}
	return &state, nil
}

// SaveState writes the state to a JSON file.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now().UTC()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(filePath, data, 0o644)
}
