package services

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"gerritwatch/internal/archive/interfaces"
	"gerritwatch/internal/models"
	"gerritwatch/internal/providers"
	"gerritwatch/internal/structures"
)

// Session carries everything one fetch cycle produced. A new session is
// created per cycle; nothing survives between cycles except what is on disk.
type Session struct {
	ID        string
	Timestamp int64
	Open      []models.ChangeRecord
	Merged    []models.ChangeRecord
	State     *models.LogState
	Delta     *models.DeltaResult
}

type CycleServiceInterface interface {
	Run(ctx context.Context) (*Session, error)
}

type CycleService struct {
	config    *structures.Config
	logger    providers.Logger
	metrics   providers.MetricsProviderInterface
	fetcher   FetcherInterface
	snapshots interfaces.SnapshotStoreInterface
	logStore  interfaces.LogStoreInterface
	delta     DeltaServiceInterface
	notifier  NotifierInterface
	now       func() time.Time
}

func NewCycleService(
	config *structures.Config,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
	fetcher FetcherInterface,
	snapshots interfaces.SnapshotStoreInterface,
	logStore interfaces.LogStoreInterface,
	delta DeltaServiceInterface,
	notifier NotifierInterface,
) CycleServiceInterface {
	return &CycleService{
		config:    config,
		logger:    logger,
		metrics:   metrics,
		fetcher:   fetcher,
		snapshots: snapshots,
		logStore:  logStore,
		delta:     delta,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Run executes fetch, snapshot write, log update, delta and notify. Any error
// ends the cycle; a fetch error leaves the archive and log state untouched.
func (cs *CycleService) Run(ctx context.Context) (*Session, error) {
	start := time.Now()
	session := &Session{
		ID:        uuid.NewString(),
		Timestamp: cs.now().UnixMilli(),
	}

	result := providers.CycleResultError
	defer func() {
		cs.metrics.IncCyclesTotal(result)
		cs.metrics.ObserveCycleDuration(time.Since(start))
	}()

	cs.logger.Infof(providers.TypeCycle, "[%s] cycle started at %d", session.ID, session.Timestamp)

	if err := cs.fetch(ctx, session); err != nil {
		return session, err
	}
	cs.metrics.SetRecordsTotal(models.CategoryOpen, len(session.Open))
	cs.metrics.SetRecordsTotal(models.CategoryMerged, len(session.Merged))

	if err := cs.snapshots.Write(models.CategoryOpen, session.Timestamp, session.Open); err != nil {
		return session, err
	}
	if err := cs.snapshots.Write(models.CategoryMerged, session.Timestamp, session.Merged); err != nil {
		return session, err
	}

	state, err := cs.logStore.Update(session.Timestamp, session.Open, session.Merged)
	if err != nil {
		return session, err
	}
	session.State = state
	cs.metrics.SetLastCycleTimestamp(session.Timestamp)

	delta, err := cs.delta.Delta(state, session.Open)
	if err != nil {
		return session, err
	}
	session.Delta = delta

	if delta.IsInsufficient() {
		cs.logger.Infof(providers.TypeCycle, "[%s] need at least two cycles to compare", session.ID)
	} else {
		cs.metrics.SetDeltaItems("add", len(delta.Add))
		cs.metrics.SetDeltaItems("drop", len(delta.Drop))
		cs.metrics.SetDeltaItems("merge", len(delta.Merge))
		cs.logger.Infof(providers.TypeCycle, "[%s] %s delta: %d added, %d dropped, %d merged",
			session.ID, delta.Type, len(delta.Add), len(delta.Drop), len(delta.Merge))
	}

	if err := cs.notifier.Notify(ctx, &models.Notification{
		CycleID:   session.ID,
		Timestamp: session.Timestamp,
		Delta:     delta,
		Urgent:    state.Latest.UrgentPatches.OrElse(nil),
	}); err != nil {
		return session, errors.Wrapf(err, "notify cycle %s", session.ID)
	}

	if delta.IsInsufficient() {
		result = providers.CycleResultInsufficient
	} else {
		result = providers.CycleResultOK
	}
	cs.logger.Infof(providers.TypeCycle, "[%s] cycle finished in %s", session.ID, time.Since(start))
	return session, nil
}

// fetch retrieves open and merged records concurrently and waits for both.
func (cs *CycleService) fetch(ctx context.Context, session *Session) error {
	count := cs.config.Monitor.RecordCount
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		records, err := cs.fetcher.Fetch(gctx, models.CategoryOpen, count)
		if err != nil {
			return asFetchError(err, models.CategoryOpen)
		}
		session.Open = records
		return nil
	})
	g.Go(func() error {
		records, err := cs.fetcher.Fetch(gctx, models.CategoryMerged, count)
		if err != nil {
			return asFetchError(err, models.CategoryMerged)
		}
		session.Merged = records
		return nil
	})

	if err := g.Wait(); err != nil {
		cs.logger.Errorf(providers.TypeCycle, "[%s] fetch failed: %s", session.ID, err)
		return err
	}
	cs.logger.Debugf(providers.TypeCycle, "[%s] fetched %d open and %d merged records", session.ID, len(session.Open), len(session.Merged))
	return nil
}

func asFetchError(err error, category string) error {
	if errors.Is(err, models.ErrFetch) {
		return err
	}
	return models.MarkFetch(err, "fetch %s", category)
}
