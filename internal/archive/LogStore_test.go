package archive

import (
	"os"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gerritwatch/internal/models"
	"gerritwatch/internal/testutil"
)

func newTestLogStore(t *testing.T) *LogStore {
	t.Helper()
	return NewLogStore(testConfig(t.TempDir()), &testutil.MockCompressor{}, &testutil.MockLogger{}, &testutil.MockMetrics{})
}

// stateView flattens a LogState for diffing; Optional has unexported fields.
type stateView struct {
	Latest, Previous slotView
}

type slotView struct {
	Timestamp        *int64
	Merged           *[]int
	NewMergedPatches *[]int
	Urgent           *[]int
}

func viewSlot(s models.Slot) slotView {
	var v slotView
	if ts, ok := s.Timestamp.Get(); ok {
		v.Timestamp = &ts
	}
	if m, ok := s.Merged.Get(); ok {
		v.Merged = &m
	}
	if m, ok := s.NewMergedPatches.Get(); ok {
		v.NewMergedPatches = &m
	}
	if u, ok := s.UrgentPatches.Get(); ok {
		ids := models.UrgentIDs(u)
		v.Urgent = &ids
	}
	return v
}

func view(s *models.LogState) stateView {
	return stateView{Latest: viewSlot(s.Latest), Previous: viewSlot(s.Previous)}
}

func TestLogStore_MissingFileIsEmptyState(t *testing.T) {
	ls := newTestLogStore(t)
	state, err := ls.Read()
	require.NoError(t, err)
	assert.Equal(t, models.PhaseEmpty, state.Phase())
}

func TestLogStore_UpdateRotates(t *testing.T) {
	ls := newTestLogStore(t)
	urgent := models.ChangeRecord{ID: 1, Hashtags: []string{models.HashtagUrgent}}

	first, err := ls.Update(100, []models.ChangeRecord{urgent}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.PhasePartiallyPopulated, first.Phase())
	assert.False(t, first.Previous.Timestamp.IsSet())

	second, err := ls.Update(200, nil, []models.ChangeRecord{{ID: 1}})
	require.NoError(t, err)
	assert.Equal(t, models.PhasePopulated, second.Phase())

	// The old latest becomes previous unchanged.
	if diff := cmp.Diff(view(first).Latest, view(second).Previous); diff != "" {
		t.Errorf("previous slot mismatch (-want +got):\n%s", diff)
	}

	loaded, err := ls.Read()
	require.NoError(t, err)
	if diff := cmp.Diff(view(second), view(loaded)); diff != "" {
		t.Errorf("persisted state mismatch (-want +got):\n%s", diff)
	}
}

func TestLogStore_NewMergedPatches(t *testing.T) {
	ls := newTestLogStore(t)

	s1, err := ls.Update(100, nil, []models.ChangeRecord{{ID: 1}})
	require.NoError(t, err)
	newMerged, ok := s1.Latest.NewMergedPatches.Get()
	require.True(t, ok)
	assert.Empty(t, newMerged)

	s2, err := ls.Update(200, nil, []models.ChangeRecord{{ID: 1}, {ID: 2}, {ID: 3}})
	require.NoError(t, err)
	newMerged, _ = s2.Latest.NewMergedPatches.Get()
	assert.Equal(t, []int{2, 3}, newMerged)
}

func TestLogStore_StaleTimestampRejected(t *testing.T) {
	ls := newTestLogStore(t)
	_, err := ls.Update(200, nil, nil)
	require.NoError(t, err)

	for _, ts := range []int64{200, 150} {
		_, err = ls.Update(ts, nil, nil)
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrStaleTimestamp))
	}

	state, err := ls.Read()
	require.NoError(t, err)
	assert.Equal(t, int64(200), state.Latest.Timestamp.OrElse(0))
	assert.False(t, state.Previous.Timestamp.IsSet())
}

func TestLogStore_WritesHistoryCopy(t *testing.T) {
	ls := newTestLogStore(t)
	_, err := ls.Update(100, nil, nil)
	require.NoError(t, err)

	main, err := os.ReadFile(ls.Path())
	require.NoError(t, err)
	history, err := os.ReadFile(ls.HistoryPath(100))
	require.NoError(t, err)
	assert.Equal(t, main, history)
}

func TestLogStore_AbsentAndEmptyFieldsSurviveRoundTrip(t *testing.T) {
	ls := newTestLogStore(t)
	_, err := ls.Update(100, nil, nil)
	require.NoError(t, err)

	raw, err := os.ReadFile(ls.Path())
	require.NoError(t, err)
	assert.JSONEq(t, `{"latest":{"timestamp":100,"merged":[],"newMergedPatches":[],"urgentPatches":[]},"previous":{}}`, string(raw))
}

func TestLogStore_CorruptedFile(t *testing.T) {
	ls := newTestLogStore(t)
	require.NoError(t, os.MkdirAll(ls.dir, 0755))
	require.NoError(t, os.WriteFile(ls.Path(), []byte("{"), 0644))

	_, err := ls.Read()
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrPersistence))

	_, err = ls.Update(100, nil, nil)
	assert.True(t, errors.Is(err, models.ErrPersistence))
}

func TestLogStore_ZeroLengthFileIsEmptyState(t *testing.T) {
	for _, content := range []string{"", " \n"} {
		ls := newTestLogStore(t)
		require.NoError(t, os.MkdirAll(ls.dir, 0755))
		require.NoError(t, os.WriteFile(ls.Path(), []byte(content), 0644))

		state, err := ls.Read()
		require.NoError(t, err)
		assert.Equal(t, models.PhaseEmpty, state.Phase())

		state, err = ls.Update(100, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, models.PhasePartiallyPopulated, state.Phase())
	}
}
