package providers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gerritwatch/internal/structures"
)

// local logger; testutil imports this package
type cacheTestLogger struct{}

func (m *cacheTestLogger) Errorf(_ TypeEnum, _ string, _ ...interface{}) {}
func (m *cacheTestLogger) Warnf(_ TypeEnum, _ string, _ ...interface{})  {}
func (m *cacheTestLogger) Debugf(_ TypeEnum, _ string, _ ...interface{}) {}
func (m *cacheTestLogger) Infof(_ TypeEnum, _ string, _ ...interface{})  {}
func (m *cacheTestLogger) Fatalf(_ TypeEnum, _ string, _ ...interface{}) {}
func (m *cacheTestLogger) Close()                                        {}

func cacheConfig(enabled bool, size int, interval time.Duration) *structures.Config {
	return &structures.Config{
		Cache:   structures.CacheConfig{Enabled: enabled, Size: size},
		Monitor: structures.MonitorConfig{Interval: interval},
	}
}

func TestNewCacheProvider_Selection(t *testing.T) {
	cases := []struct {
		name    string
		enabled bool
		size    int
		noop    bool
	}{
		{"disabled", false, 10, true},
		{"zero size", true, 0, true},
		{"enabled", true, 1, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewCacheProvider(cacheConfig(tc.enabled, tc.size, time.Minute), &cacheTestLogger{})
			if tc.noop {
				assert.IsType(t, &noopCache{}, c)
			} else {
				assert.IsType(t, &CacheProvider{}, c)
			}
		})
	}
}

func TestCacheProvider_TTLFollowsMonitorInterval(t *testing.T) {
	c := NewCacheProvider(cacheConfig(true, 1, 90*time.Second), &cacheTestLogger{}).(*CacheProvider)
	assert.Equal(t, 91, c.ttl)

	c = NewCacheProvider(cacheConfig(true, 1, 0), &cacheTestLogger{}).(*CacheProvider)
	assert.Equal(t, 2, c.ttl)
}

func TestCacheProvider_KeysPerCycle(t *testing.T) {
	c := NewCacheProvider(cacheConfig(true, 1, time.Minute), &cacheTestLogger{})

	first := CycleKey(CacheViewDelta, 1700000000000)
	second := CycleKey(CacheViewDelta, 1700000060000)

	c.Set(first, []byte(`{"type":"Urgent","count":1}`))

	body, ok := c.Get(first)
	require.True(t, ok)
	assert.JSONEq(t, `{"type":"Urgent","count":1}`, string(body))

	_, ok = c.Get(second)
	assert.False(t, ok, "a newer cycle must not reuse the previous answer")

	c.Set(first, []byte(`{"type":"Urgent","count":2}`))
	body, _ = c.Get(first)
	assert.JSONEq(t, `{"type":"Urgent","count":2}`, string(body))
}

func TestCycleKey(t *testing.T) {
	assert.Equal(t, "delta:1700000000000", CycleKey(CacheViewDelta, 1700000000000))
	assert.Equal(t, "urgent:0", CycleKey(CacheViewUrgent, 0))
	assert.NotEqual(t, CycleKey(CacheViewDelta, 5), CycleKey(CacheViewUrgent, 5))
}

func TestNoopCache_NeverStores(t *testing.T) {
	c := &noopCache{}
	c.Set("urgent:1", []byte("[]"))

	val, ok := c.Get("urgent:1")
	assert.False(t, ok)
	assert.Nil(t, val)
}

func TestCacheProvider_EntriesExpire(t *testing.T) {
	c := NewCacheProvider(cacheConfig(true, 1, time.Second), &cacheTestLogger{})

	c.Set("urgent:1", []byte("[]"))
	_, ok := c.Get("urgent:1")
	require.True(t, ok)

	time.Sleep(2100 * time.Millisecond)

	_, ok = c.Get("urgent:1")
	assert.False(t, ok)
}
