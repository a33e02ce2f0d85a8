package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gerritwatch/internal/archive"
	"gerritwatch/internal/models"
	"gerritwatch/internal/providers"
	"gerritwatch/internal/services"
	"gerritwatch/internal/structures"
	"gerritwatch/internal/testutil"
)

// --- helpers ---

type apiFixture struct {
	logStore  *testutil.MockLogStore
	snapshots *testutil.MockSnapshotStore
	scheduler *testutil.MockScheduler
	cache     *testutil.MockCache
	ac        *ApiController
}

func newApiFixture() *apiFixture {
	f := &apiFixture{
		logStore:  &testutil.MockLogStore{},
		snapshots: testutil.NewMockSnapshotStore(),
		scheduler: &testutil.MockScheduler{},
		cache:     testutil.NewMockCache(),
	}
	delta := services.NewDeltaService(&structures.Config{Delta: structures.DeltaConfig{Mode: structures.DeltaModeUrgent}})
	f.ac = NewApiController(&testutil.MockLogger{}, f.logStore, f.snapshots, delta, f.scheduler, f.cache)
	return f
}

// cycle records one fetch in both the log store and the snapshot store.
func (f *apiFixture) cycle(t *testing.T, ts int64, open, merged []models.ChangeRecord) {
	t.Helper()
	require.NoError(t, f.snapshots.Write(models.CategoryOpen, ts, open))
	require.NoError(t, f.snapshots.Write(models.CategoryMerged, ts, merged))
	_, err := f.logStore.Update(ts, open, merged)
	require.NoError(t, err)
}

func urgent(id int) models.ChangeRecord {
	return models.ChangeRecord{ID: id, Subject: "s", Hashtags: []string{models.HashtagUrgent}}
}

func get(handler http.HandlerFunc, method string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/", nil)
	rr := httptest.NewRecorder()
	handler(rr, req)
	return rr
}

// --- GetState ---

func TestGetState_Empty(t *testing.T) {
	f := newApiFixture()
	rr := get(f.ac.GetState, http.MethodGet)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"latest":{},"previous":{}}`, rr.Body.String())
}

func TestGetState_ReadError(t *testing.T) {
	f := newApiFixture()
	f.logStore.ReadErr = models.MarkPersistence(errors.New("bad json"), "read")

	rr := get(f.ac.GetState, http.MethodGet)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

// --- GetDelta ---

func TestGetDelta_InsufficientHistory(t *testing.T) {
	f := newApiFixture()
	f.cycle(t, 100, []models.ChangeRecord{urgent(1)}, nil)

	rr := get(f.ac.GetDelta, http.MethodGet)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp models.DeltaResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, models.DeltaInsufficient, resp.Type)
}

func TestGetDelta_ComputesAndCaches(t *testing.T) {
	f := newApiFixture()
	f.cycle(t, 100, []models.ChangeRecord{urgent(1)}, nil)
	f.cycle(t, 200, []models.ChangeRecord{urgent(2)}, []models.ChangeRecord{{ID: 1}})

	rr := get(f.ac.GetDelta, http.MethodGet)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp models.DeltaResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	require.Len(t, resp.Add, 1)
	assert.Equal(t, 2, resp.Add[0].ID)
	require.Len(t, resp.Merge, 1)
	assert.Equal(t, 1, resp.Merge[0].ID)

	_, cached := f.cache.Get(providers.CycleKey(providers.CacheViewDelta, 200))
	assert.True(t, cached)
}

func TestGetDelta_MissingSnapshotIsNotFound(t *testing.T) {
	f := newApiFixture()
	_, err := f.logStore.Update(100, nil, nil)
	require.NoError(t, err)
	_, err = f.logStore.Update(200, nil, nil)
	require.NoError(t, err)

	rr := get(f.ac.GetDelta, http.MethodGet)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

// --- GetUrgent ---

func TestGetUrgent_ReturnsLatestPatches(t *testing.T) {
	f := newApiFixture()
	f.cycle(t, 100, []models.ChangeRecord{urgent(7), {ID: 8}}, nil)

	rr := get(f.ac.GetUrgent, http.MethodGet)
	require.Equal(t, http.StatusOK, rr.Code)

	var resp []models.UrgentPatch
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp, 1)
	assert.Equal(t, 7, resp[0].ID)
}

func TestGetUrgent_EmptyStateIsEmptyList(t *testing.T) {
	f := newApiFixture()
	rr := get(f.ac.GetUrgent, http.MethodGet)
	assert.Equal(t, "[]", rr.Body.String())
}

func TestGetUrgent_ServedFromCache(t *testing.T) {
	f := newApiFixture()
	f.cache.Set(providers.CycleKey(providers.CacheViewUrgent, 0), []byte(`["cached"]`))

	rr := get(f.ac.GetUrgent, http.MethodGet)
	assert.Equal(t, `["cached"]`, rr.Body.String())
}

// --- RunCycle ---

func TestRunCycle_ReturnsDelta(t *testing.T) {
	f := newApiFixture()
	f.scheduler.Result = models.NewDeltaResult(models.DeltaUrgent, nil, nil, []models.DeltaEntry{{ID: 4}})

	rr := get(f.ac.RunCycle, http.MethodPost)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, 1, f.scheduler.Triggered)

	var resp models.DeltaResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestRunCycle_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"in progress", archive.ErrCycleInProgress, http.StatusConflict},
		{"fetch", models.MarkFetch(errors.New("timeout"), "fetch open"), http.StatusBadGateway},
		{"persistence", models.MarkPersistence(errors.New("disk full"), "write"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newApiFixture()
			f.scheduler.Err = tt.err
			rr := get(f.ac.RunCycle, http.MethodPost)
			assert.Equal(t, tt.status, rr.Code)
		})
	}
}
