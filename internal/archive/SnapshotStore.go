package archive

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	json "github.com/goccy/go-json"

	"gerritwatch/internal/archive/interfaces"
	"gerritwatch/internal/models"
	"gerritwatch/internal/providers"
	"gerritwatch/internal/structures"
)

// Snapshot addresses one stored snapshot file.
type Snapshot struct {
	Category  string
	Timestamp int64
	Path      string
}

func (s Snapshot) Name() string {
	return filepath.Base(s.Path)
}

// SnapshotStore keeps one immutable file per (category, timestamp):
// <dir>/<logFilename>-<category>-<timestamp><ext>.
type SnapshotStore struct {
	dir        string
	prefix     string
	ext        string
	compressor interfaces.CompressorInterface
	logger     providers.Logger
	metrics    providers.MetricsProviderInterface
}

func NewSnapshotStore(conf *structures.Config, compressor interfaces.CompressorInterface, logger providers.Logger, metrics providers.MetricsProviderInterface) *SnapshotStore {
	return &SnapshotStore{
		dir:        conf.DataDir,
		prefix:     conf.Monitor.LogFilename,
		ext:        conf.Monitor.DataFileExt,
		compressor: compressor,
		logger:     logger,
		metrics:    metrics,
	}
}

func (s *SnapshotStore) Dir() string {
	return s.dir
}

func (s *SnapshotStore) Path(category string, ts int64) string {
	return filepath.Join(s.dir, s.prefix+"-"+category+"-"+strconv.FormatInt(ts, 10)+s.ext)
}

func (s *SnapshotStore) Exists(category string, ts int64) bool {
	_, err := os.Stat(s.Path(category, ts))
	return err == nil
}

// Write stores records for (category, ts). An existing snapshot is never
// overwritten.
func (s *SnapshotStore) Write(category string, ts int64, records []models.ChangeRecord) error {
	start := time.Now()
	path := s.Path(category, ts)

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return models.MarkPersistence(err, "create data dir %s", s.dir)
	}
	if _, err := os.Stat(path); err == nil {
		return errors.Mark(errors.Newf("snapshot %s already exists", path), models.ErrPersistence)
	}

	if records == nil {
		records = []models.ChangeRecord{}
	}
	jsonData, err := json.Marshal(records)
	if err != nil {
		return models.MarkPersistence(err, "encode %s snapshot", category)
	}
	data, err := s.compressor.Compress(jsonData)
	if err != nil {
		return models.MarkPersistence(err, "compress %s snapshot", category)
	}

	if err := writeFileAtomic(path, data); err != nil {
		return models.MarkPersistence(err, "write snapshot %s", path)
	}

	s.metrics.ObservePersistenceDuration(time.Since(start))
	s.logger.Debugf(providers.TypeCycle, "Wrote %d %s records to %s", len(records), category, path)
	return nil
}

func (s *SnapshotStore) Read(category string, ts int64) ([]models.ChangeRecord, error) {
	path := s.Path(category, ts)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, models.MarkNotFound(err, "snapshot %s", path)
		}
		return nil, models.MarkPersistence(err, "read snapshot %s", path)
	}

	decompressed, err := s.compressor.Decompress(data)
	if err != nil {
		return nil, models.MarkPersistence(err, "decompress snapshot %s", path)
	}

	var records []models.ChangeRecord
	if err := json.Unmarshal(decompressed, &records); err != nil {
		return nil, models.MarkPersistence(err, "decode snapshot %s", path)
	}
	return records, nil
}

// List returns the snapshots of a category in chronological order. Files
// whose name does not carry a numeric timestamp are ignored.
func (s *SnapshotStore) List(category string) ([]Snapshot, error) {
	namePrefix := s.prefix + "-" + category + "-"
	files, err := filepath.Glob(filepath.Join(s.dir, globEscape(namePrefix)+"*"+globEscape(s.ext)))
	if err != nil {
		return nil, err
	}

	snaps := make([]Snapshot, 0, len(files))
	for _, file := range files {
		base := filepath.Base(file)
		raw := strings.TrimSuffix(strings.TrimPrefix(base, namePrefix), s.ext)
		ts, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		snaps = append(snaps, Snapshot{Category: category, Timestamp: ts, Path: file})
	}

	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].Timestamp < snaps[j].Timestamp
	})
	return snaps, nil
}

func (s *SnapshotStore) Remove(snap Snapshot) error {
	return os.Remove(snap.Path)
}

// writeFileAtomic writes through a synced temp file and renames it into place.
func writeFileAtomic(fileName string, data []byte) error {
	tmpFile := fileName + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	_, err = file.Write(data)
	if err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}

	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}

	return os.Rename(tmpFile, fileName)
}

func globEscape(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`, `\`, `\\`)
	return r.Replace(s)
}
