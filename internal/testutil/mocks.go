package testutil

import (
	"context"
	"strconv"
	"sync"
	"time"

	"gerritwatch/internal/models"
	"gerritwatch/internal/providers"
)

// MockLogger implements providers.Logger and records calls.
type MockLogger struct {
	mu   sync.Mutex
	Logs []LogEntry
}

type LogEntry struct {
	Level  string
	Type   providers.TypeEnum
	Format string
	Args   []interface{}
}

func (m *MockLogger) record(level string, t providers.TypeEnum, format string, args ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Logs = append(m.Logs, LogEntry{Level: level, Type: t, Format: format, Args: args})
}

func (m *MockLogger) Errorf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("error", t, format, args...)
}
func (m *MockLogger) Warnf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("warn", t, format, args...)
}
func (m *MockLogger) Debugf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("debug", t, format, args...)
}
func (m *MockLogger) Infof(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("info", t, format, args...)
}
func (m *MockLogger) Fatalf(t providers.TypeEnum, format string, args ...interface{}) {
	m.record("fatal", t, format, args...)
}
func (m *MockLogger) Close() {}

// Count returns how many entries were logged at level.
func (m *MockLogger) Count(level string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.Logs {
		if e.Level == level {
			n++
		}
	}
	return n
}

// MockCache implements providers.CacheProviderInterface.
type MockCache struct {
	mu   sync.Mutex
	Data map[string][]byte
}

func NewMockCache() *MockCache {
	return &MockCache{Data: make(map[string][]byte)}
}

func (m *MockCache) Get(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	val, ok := m.Data[key]
	return val, ok
}

func (m *MockCache) Set(key string, value []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Data[key] = value
}

// MockCompressor implements interfaces.CompressorInterface with injectable behavior.
type MockCompressor struct {
	CompressFn   func([]byte) ([]byte, error)
	DecompressFn func([]byte) ([]byte, error)
}

func (m *MockCompressor) Compress(val []byte) ([]byte, error) {
	if m.CompressFn != nil {
		return m.CompressFn(val)
	}
	// Default: return as-is (identity)
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Decompress(val []byte) ([]byte, error) {
	if m.DecompressFn != nil {
		return m.DecompressFn(val)
	}
	out := make([]byte, len(val))
	copy(out, val)
	return out, nil
}

func (m *MockCompressor) Close() {}

// MockMetrics implements providers.MetricsProviderInterface and keeps counters
// tests can assert on.
type MockMetrics struct {
	mu          sync.Mutex
	Cycles      map[string]int
	DeltaItems  map[string]int
	ReaperFiles map[string]int
	Records     map[string]int
	LastCycle   int64
}

func (m *MockMetrics) init() {
	if m.Cycles == nil {
		m.Cycles = make(map[string]int)
		m.DeltaItems = make(map[string]int)
		m.ReaperFiles = make(map[string]int)
		m.Records = make(map[string]int)
	}
}

func (m *MockMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (m *MockMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (m *MockMetrics) IncCacheHits()                                    {}
func (m *MockMetrics) IncCacheMisses()                                  {}
func (m *MockMetrics) ObservePersistenceDuration(_ time.Duration)       {}
func (m *MockMetrics) ObserveCycleDuration(_ time.Duration)             {}

func (m *MockMetrics) SetRecordsTotal(category string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	m.Records[category] = count
}

func (m *MockMetrics) IncCyclesTotal(result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	m.Cycles[result]++
}

func (m *MockMetrics) SetLastCycleTimestamp(ts int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastCycle = ts
}

func (m *MockMetrics) SetDeltaItems(kind string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	m.DeltaItems[kind] = count
}

func (m *MockMetrics) AddReaperFiles(action string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.init()
	m.ReaperFiles[action] += count
}

// MockFetcher implements services.FetcherInterface. Records are served from
// Data keyed by category unless FetchFn is set.
type MockFetcher struct {
	mu      sync.Mutex
	Data    map[string][]models.ChangeRecord
	Errs    map[string]error
	FetchFn func(ctx context.Context, category string, count int) ([]models.ChangeRecord, error)
	Calls   []string
}

func (m *MockFetcher) Fetch(ctx context.Context, category string, count int) ([]models.ChangeRecord, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, category)
	m.mu.Unlock()

	if m.FetchFn != nil {
		return m.FetchFn(ctx, category, count)
	}
	if err := m.Errs[category]; err != nil {
		return nil, err
	}
	return m.Data[category], nil
}

// MockNotifier implements services.NotifierInterface.
type MockNotifier struct {
	mu            sync.Mutex
	Notifications []*models.Notification
	Err           error
}

func (m *MockNotifier) Notify(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Notifications = append(m.Notifications, n)
	return m.Err
}

// MockSnapshotStore implements interfaces.SnapshotStoreInterface in memory.
type MockSnapshotStore struct {
	mu       sync.Mutex
	Data     map[string][]models.ChangeRecord
	WriteErr error
	Writes   []string
}

func NewMockSnapshotStore() *MockSnapshotStore {
	return &MockSnapshotStore{Data: make(map[string][]models.ChangeRecord)}
}

func snapshotKey(category string, ts int64) string {
	return category + "@" + strconv.FormatInt(ts, 10)
}

func (m *MockSnapshotStore) Write(category string, ts int64, records []models.ChangeRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.WriteErr != nil {
		return m.WriteErr
	}
	m.Writes = append(m.Writes, category)
	m.Data[snapshotKey(category, ts)] = records
	return nil
}

func (m *MockSnapshotStore) Read(category string, ts int64) ([]models.ChangeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	records, ok := m.Data[snapshotKey(category, ts)]
	if !ok {
		return nil, models.ErrNotFound
	}
	return records, nil
}

func (m *MockSnapshotStore) Exists(category string, ts int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Data[snapshotKey(category, ts)]
	return ok
}

// MockLogStore implements interfaces.LogStoreInterface in memory, rotating
// like the file-backed store.
type MockLogStore struct {
	mu        sync.Mutex
	State     *models.LogState
	ReadErr   error
	UpdateErr error
	Updates   int
}

func (m *MockLogStore) Read() (*models.LogState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	if m.State == nil {
		return models.NewLogState(), nil
	}
	s := *m.State
	return &s, nil
}

func (m *MockLogStore) Update(ts int64, open, merged []models.ChangeRecord) (*models.LogState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	if m.State == nil {
		m.State = models.NewLogState()
	}
	m.Updates++
	m.State.Rotate(models.Slot{
		Timestamp:        models.Some(ts),
		Merged:           models.Some(models.Identities(merged)),
		NewMergedPatches: models.Some([]int{}),
		UrgentPatches:    models.Some(models.ExtractUrgent(open)),
	})
	s := *m.State
	return &s, nil
}

// MockScheduler implements interfaces.SchedulerInterface.
type MockScheduler struct {
	mu        sync.Mutex
	Result    *models.DeltaResult
	Err       error
	Triggered int
}

func (m *MockScheduler) Init()          {}
func (m *MockScheduler) Stop()          {}
func (m *MockScheduler) Restore() error { return nil }

func (m *MockScheduler) TriggerCycle(_ context.Context) (*models.DeltaResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Triggered++
	return m.Result, m.Err
}
