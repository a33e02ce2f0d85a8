package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	json "github.com/goccy/go-json"

	"gerritwatch/internal/archive/interfaces"
	"gerritwatch/internal/models"
	"gerritwatch/internal/providers"
	"gerritwatch/internal/structures"
)

// LogStore persists the two-slot log state as <dir>/<logFilename><ext> and
// keeps a <logFilename>-<timestamp><ext> copy of every update.
type LogStore struct {
	mu         sync.Mutex
	dir        string
	name       string
	ext        string
	compressor interfaces.CompressorInterface
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
}

func NewLogStore(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) *LogStore {
	return &LogStore{
		dir:        conf.DataDir,
		name:       conf.Monitor.LogFilename,
		ext:        conf.Monitor.DataFileExt,
		compressor: compressor,
		logger:     logger,
		metrics:    metrics,
	}
}

func (ls *LogStore) Path() string {
	return filepath.Join(ls.dir, ls.name+ls.ext)
}

func (ls *LogStore) HistoryPath(ts int64) string {
	return filepath.Join(ls.dir, ls.name+"-"+strconv.FormatInt(ts, 10)+ls.ext)
}

// Read loads the persisted state. A missing or zero-length file is the
// empty state.
func (ls *LogStore) Read() (*models.LogState, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	return ls.read()
}

func (ls *LogStore) read() (*models.LogState, error) {
	path := ls.Path()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return models.NewLogState(), nil
		}
		return nil, models.MarkPersistence(err, "read log state %s", path)
	}

	decompressed, err := ls.compressor.Decompress(data)
	if err != nil {
		return nil, models.MarkPersistence(err, "decompress log state %s", path)
	}

	state := models.NewLogState()
	if len(bytes.TrimSpace(decompressed)) == 0 {
		ls.logger.Warnf(providers.TypeCycle, "Log state %s is empty, starting from the empty state", path)
		return state, nil
	}
	if err := json.Unmarshal(decompressed, state); err != nil {
		return nil, models.MarkPersistence(err, "decode log state %s", path)
	}
	return state, nil
}

// Update rotates the persisted state for a new fetch cycle and returns it.
// The state is re-read first so a stale in-memory copy is never written back.
func (ls *LogStore) Update(ts int64, open, merged []models.ChangeRecord) (*models.LogState, error) {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	start := time.Now()
	state, err := ls.read()
	if err != nil {
		return nil, err
	}

	if latest, ok := state.Latest.Timestamp.Get(); ok && ts <= latest {
		return nil, errors.Mark(
			errors.Newf("fetch timestamp %d is not after latest %d", ts, latest),
			models.ErrStaleTimestamp,
		)
	}

	mergedIDs := models.Identities(merged)
	newMerged := newlyMerged(state.Latest, mergedIDs)

	state.Rotate(models.Slot{
		Timestamp:        models.Some(ts),
		Merged:           models.Some(mergedIDs),
		NewMergedPatches: models.Some(newMerged),
		UrgentPatches:    models.Some(models.ExtractUrgent(open)),
	})

	jsonData, err := json.Marshal(state)
	if err != nil {
		return nil, models.MarkPersistence(err, "encode log state")
	}
	data, err := ls.compressor.Compress(jsonData)
	if err != nil {
		return nil, models.MarkPersistence(err, "compress log state")
	}

	if err := os.MkdirAll(ls.dir, 0755); err != nil {
		return nil, models.MarkPersistence(err, "create data dir %s", ls.dir)
	}
	if err := writeFileAtomic(ls.Path(), data); err != nil {
		return nil, models.MarkPersistence(err, "write log state %s", ls.Path())
	}
	if err := writeFileAtomic(ls.HistoryPath(ts), data); err != nil {
		return nil, models.MarkPersistence(err, "write log history %s", ls.HistoryPath(ts))
	}

	ls.metrics.ObservePersistenceDuration(time.Since(start))
	ls.logger.Debugf(providers.TypeCycle, "Log state rotated to %d: %d merged, %d newly merged", ts, len(mergedIDs), len(newMerged))
	return state, nil
}

// newlyMerged returns ids in incoming that the outgoing slot did not yet know
// as merged. Without a baseline nothing is reported.
func newlyMerged(outgoing models.Slot, incoming []int) []int {
	known, ok := outgoing.Merged.Get()
	if !ok {
		return []int{}
	}
	knownSet := models.IDSet(known)
	out := make([]int, 0)
	for _, id := range incoming {
		if !knownSet.ContainsInt(id) {
			out = append(out, id)
		}
	}
	return out
}
