package watchlist

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TalmudBacktest/internal/model"
)

func result(id string, last time.Time, rebalances ...time.Time) *model.Result {
	return &model.Result{
		ID:         id,
		Curve:      []model.EquityPoint{{Date: last, TotalEquity: 123}},
		Rebalances: rebalances,
		CreatedAt:  last,
	}
}

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestStore_UpdateDetectsNewRebalance(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "watch.json")
	s, err := NewStore(path)
	require.NoError(t, err)

	fresh, err := s.Update("core", result("r1", d(2024, 12, 30), d(2024, 1, 2)))
	require.NoError(t, err)
	assert.False(t, fresh, "first run never alerts")

	fresh, err = s.Update("core", result("r2", d(2024, 12, 31), d(2024, 1, 2)))
	require.NoError(t, err)
	assert.False(t, fresh)

	fresh, err = s.Update("core", result("r3", d(2025, 1, 2), d(2024, 1, 2), d(2025, 1, 2)))
	require.NoError(t, err)
	assert.True(t, fresh)

	st, ok := s.Get("core")
	require.True(t, ok)
	assert.Equal(t, "r3", st.LastRunID)
	assert.Equal(t, 3, st.Runs)
	assert.Equal(t, d(2025, 1, 2), st.LastRebalance)
	assert.Equal(t, 123.0, st.LastEquity)

	// reloaded from disk
	again, err := NewStore(path)
	require.NoError(t, err)
	st2, ok := again.Get("core")
	require.True(t, ok)
	assert.Equal(t, st, st2)
}

func TestStore_MemoryOnly(t *testing.T) {
	s, err := NewStore("")
	require.NoError(t, err)
	_, err = s.Update("x", result("r1", d(2024, 1, 5)))
	require.NoError(t, err)
	_, ok := s.Get("missing")
	assert.False(t, ok)
}

func TestLoadState_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watch.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err := NewStore(path)
	assert.Error(t, err)
}
