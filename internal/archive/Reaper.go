package archive

import (
	"io"
	"os"

	"github.com/cespare/xxhash/v2"

	"gerritwatch/internal/models"
	"gerritwatch/internal/providers"
)

const (
	ReapKept    = "kept"
	ReapSkipped = "skipped"
	ReapDeleted = "deleted"
	ReapFailed  = "failed"
)

// Exclusions lists snapshots the reaper must leave alone, by timestamp or by
// file name.
type Exclusions struct {
	Timestamps map[int64]struct{}
	Files      map[string]struct{}
}

func NewExclusions() Exclusions {
	return Exclusions{
		Timestamps: make(map[int64]struct{}),
		Files:      make(map[string]struct{}),
	}
}

func (e Exclusions) excludes(snap Snapshot) bool {
	if _, ok := e.Timestamps[snap.Timestamp]; ok {
		return true
	}
	_, ok := e.Files[snap.Name()]
	return ok
}

type ReapReport struct {
	Category string
	DryRun   bool
	Kept     []string
	Skipped  []string
	Deleted  []string
	Failed   []string
}

type ReapOptions struct {
	Categories   []string
	ExcludeFiles []string
	DryRun       bool
}

type Reaper struct {
	store    *SnapshotStore
	logStore *LogStore
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
}

func NewReaper(store *SnapshotStore, logStore *LogStore, logger providers.Logger, metrics providers.MetricsProviderInterface) *Reaper {
	return &Reaper{
		store:    store,
		logStore: logStore,
		logger:   logger,
		metrics:  metrics,
	}
}

// Excludes collects the timestamps referenced by state. The default
// categories must have a snapshot at each of them; a missing one means the
// archive is incomplete and is reported as not found.
func (r *Reaper) Excludes(state *models.LogState) (Exclusions, error) {
	ex := NewExclusions()
	for _, ts := range state.Timestamps() {
		for _, category := range models.DefaultCategories {
			if !r.store.Exists(category, ts) {
				return ex, models.MarkNotFound(os.ErrNotExist, "snapshot %s referenced by log state", r.store.Path(category, ts))
			}
		}
		ex.Timestamps[ts] = struct{}{}
	}
	return ex, nil
}

// Run reaps the default categories plus opts.Categories against the current
// log state.
func (r *Reaper) Run(opts ReapOptions) ([]*ReapReport, error) {
	state, err := r.logStore.Read()
	if err != nil {
		return nil, err
	}
	ex, err := r.Excludes(state)
	if err != nil {
		return nil, err
	}
	for _, f := range opts.ExcludeFiles {
		ex.Files[f] = struct{}{}
	}

	categories := append([]string{}, models.DefaultCategories...)
	for _, c := range opts.Categories {
		if !contains(categories, c) {
			categories = append(categories, c)
		}
	}

	reports := make([]*ReapReport, 0, len(categories))
	for _, category := range categories {
		report, err := r.Reap(category, ex, opts.DryRun)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// Reap walks the snapshots of category oldest first and removes every file
// whose content equals the file processed just before it, so the oldest of a
// run of identical snapshots survives. Excluded files are skipped and break
// the run.
func (r *Reaper) Reap(category string, ex Exclusions, dryRun bool) (*ReapReport, error) {
	snaps, err := r.store.List(category)
	if err != nil {
		return nil, err
	}

	report := &ReapReport{Category: category, DryRun: dryRun}
	var lastHash uint64
	var lastFile string
	hasLast := false

	for _, snap := range snaps {
		name := snap.Name()
		if ex.excludes(snap) {
			r.logger.Debugf(providers.TypeReaper, "skipping %s / excluded file", name)
			report.Skipped = append(report.Skipped, name)
			hasLast = false
			continue
		}

		hash, err := hashFile(snap.Path)
		if err != nil {
			r.logger.Errorf(providers.TypeReaper, "Couldn't hash file %s: %s", name, err)
			report.Failed = append(report.Failed, name)
			hasLast = false
			continue
		}

		if hasLast && hash == lastHash {
			r.logger.Debugf(providers.TypeReaper, "deleting %s / hash matches %s", name, lastFile)
			switch {
			case dryRun:
				r.logger.Debugf(providers.TypeReaper, "dry run: not deleting file %s", name)
				report.Deleted = append(report.Deleted, name)
			default:
				if err := r.store.Remove(snap); err != nil {
					r.logger.Errorf(providers.TypeReaper, "Couldn't delete file %s: %s", name, err)
					report.Failed = append(report.Failed, name)
				} else {
					report.Deleted = append(report.Deleted, name)
				}
			}
		} else {
			r.logger.Debugf(providers.TypeReaper, "keeping %s", name)
			report.Kept = append(report.Kept, name)
			lastFile = name
		}
		lastHash = hash
		hasLast = true
	}

	r.metrics.AddReaperFiles(ReapKept, len(report.Kept))
	r.metrics.AddReaperFiles(ReapSkipped, len(report.Skipped))
	r.metrics.AddReaperFiles(ReapFailed, len(report.Failed))
	if !dryRun {
		r.metrics.AddReaperFiles(ReapDeleted, len(report.Deleted))
	}
	return report, nil
}

func hashFile(path string) (uint64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	h := xxhash.New()
	if _, err := io.Copy(h, f); err != nil {
		return 0, err
	}
	return h.Sum64(), nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
