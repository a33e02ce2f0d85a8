package services

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gerritwatch/internal/models"
	"gerritwatch/internal/providers"
	"gerritwatch/internal/structures"
	"gerritwatch/internal/testutil"
)

type cycleFixture struct {
	fetcher   *testutil.MockFetcher
	snapshots *testutil.MockSnapshotStore
	logStore  *testutil.MockLogStore
	notifier  *testutil.MockNotifier
	metrics   *testutil.MockMetrics
	service   *CycleService
	clock     time.Time
}

func newCycleFixture() *cycleFixture {
	conf := &structures.Config{
		Monitor: structures.MonitorConfig{RecordCount: 10},
		Delta:   structures.DeltaConfig{Mode: structures.DeltaModeUrgent},
	}
	f := &cycleFixture{
		fetcher:   &testutil.MockFetcher{Data: map[string][]models.ChangeRecord{}},
		snapshots: testutil.NewMockSnapshotStore(),
		logStore:  &testutil.MockLogStore{},
		notifier:  &testutil.MockNotifier{},
		metrics:   &testutil.MockMetrics{},
		clock:     time.UnixMilli(1_700_000_000_000),
	}
	f.service = NewCycleService(conf, &testutil.MockLogger{}, f.metrics, f.fetcher, f.snapshots,
		f.logStore, NewDeltaService(conf), f.notifier).(*CycleService)
	f.service.now = func() time.Time {
		f.clock = f.clock.Add(time.Minute)
		return f.clock
	}
	return f
}

func TestCycle_FirstRunIsInsufficient(t *testing.T) {
	f := newCycleFixture()
	f.fetcher.Data[models.CategoryOpen] = []models.ChangeRecord{urgentRecord(1, "fix")}

	session, err := f.service.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, session.ID)
	assert.True(t, session.Delta.IsInsufficient())
	assert.ElementsMatch(t, []string{models.CategoryOpen, models.CategoryMerged}, f.snapshots.Writes)
	assert.True(t, f.snapshots.Exists(models.CategoryOpen, session.Timestamp))
	assert.Equal(t, 1, f.logStore.Updates)
	require.Len(t, f.notifier.Notifications, 1)
	assert.Equal(t, session.ID, f.notifier.Notifications[0].CycleID)
	assert.Equal(t, 1, f.metrics.Cycles[providers.CycleResultInsufficient])
}

func TestCycle_SecondRunReportsMerge(t *testing.T) {
	f := newCycleFixture()
	f.fetcher.Data[models.CategoryOpen] = []models.ChangeRecord{urgentRecord(1, "fix")}
	_, err := f.service.Run(context.Background())
	require.NoError(t, err)

	f.fetcher.Data[models.CategoryOpen] = []models.ChangeRecord{}
	f.fetcher.Data[models.CategoryMerged] = []models.ChangeRecord{{ID: 1}}
	session, err := f.service.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.DeltaUrgent, session.Delta.Type)
	assert.Equal(t, 1, session.Delta.Count)
	require.Len(t, session.Delta.Merge, 1)
	assert.Equal(t, 1, session.Delta.Merge[0].ID)
	assert.Equal(t, 1, f.metrics.Cycles[providers.CycleResultOK])
	assert.Equal(t, 1, f.metrics.DeltaItems["merge"])
	assert.Equal(t, session.Timestamp, f.metrics.LastCycle)
}

func TestCycle_SessionsAreIndependent(t *testing.T) {
	f := newCycleFixture()
	a, err := f.service.Run(context.Background())
	require.NoError(t, err)
	b, err := f.service.Run(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Greater(t, b.Timestamp, a.Timestamp)
}

func TestCycle_FetchErrorWritesNothing(t *testing.T) {
	f := newCycleFixture()
	f.fetcher.Errs = map[string]error{models.CategoryMerged: errors.New("connection refused")}

	_, err := f.service.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrFetch))
	assert.Empty(t, f.snapshots.Writes)
	assert.Equal(t, 0, f.logStore.Updates)
	assert.Empty(t, f.notifier.Notifications)
	assert.Equal(t, 1, f.metrics.Cycles[providers.CycleResultError])
}

func TestCycle_SnapshotErrorSkipsLogUpdate(t *testing.T) {
	f := newCycleFixture()
	f.snapshots.WriteErr = models.MarkPersistence(errors.New("disk full"), "write")

	_, err := f.service.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrPersistence))
	assert.Equal(t, 0, f.logStore.Updates)
}

func TestCycle_NotifyErrorIsReturned(t *testing.T) {
	f := newCycleFixture()
	f.notifier.Err = errors.New("webhook down")

	_, err := f.service.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "webhook down")
	assert.Equal(t, 1, f.logStore.Updates)
}
