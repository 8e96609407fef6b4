package watchlist

import (
	"sync"

	log "github.com/sirupsen/logrus"

	"TalmudBacktest/internal/model"
)

// Store tracks watch item state with concurrency safety. An empty file path
// keeps the state in memory only.
type Store struct {
	mu       sync.Mutex
	state    *State
	filePath string
}

// NewStore creates a Store, loading existing state from disk.
func NewStore(filePath string) (*Store, error) {
	state := &State{Items: map[string]ItemState{}}
	if filePath != "" {
		var err error
		if state, err = LoadState(filePath); err != nil {
			return nil, err
		}
	}
	return &Store{state: state, filePath: filePath}, nil
}

// Get returns a copy of the state of the named item.
func (s *Store) Get(name string) (ItemState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.state.Items[name]
	return st, ok
}

// Update records res as the latest run of the named item. It reports whether
// the run shows a rebalance later than any seen before; the first run of an
// item never does.
func (s *Store) Update(name string, res *model.Result) (newRebalance bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, seen := s.state.Items[name]
	next := ItemState{
		LastRunID:  res.ID,
		LastRunAt:  res.CreatedAt,
		LastEquity: res.FinalEquity(),
		Runs:       prev.Runs + 1,
	}
	if n := len(res.Curve); n > 0 {
		next.LastDate = res.Curve[n-1].Date
	}
	if n := len(res.Rebalances); n > 0 {
		next.LastRebalance = res.Rebalances[n-1]
	}
	newRebalance = seen && !next.LastRebalance.IsZero() && next.LastRebalance.After(prev.LastRebalance)

	s.state.Items[name] = next
	return newRebalance, s.save()
}

func (s *Store) save() error {
	if s.filePath == "" {
		return nil
	}
	if err := SaveState(s.filePath, s.state); err != nil {
		log.WithError(err).Error("save watch state")
		return err
	}
	return nil
}
