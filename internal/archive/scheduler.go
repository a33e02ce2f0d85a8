package archive

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/roylee0704/gron"
	"go.uber.org/atomic"

	"gerritwatch/internal/archive/interfaces"
	"gerritwatch/internal/models"
	"gerritwatch/internal/providers"
	"gerritwatch/internal/services"
	"gerritwatch/internal/structures"
)

// ErrCycleInProgress is returned by TriggerCycle while another cycle runs.
var ErrCycleInProgress = errors.New("fetch cycle already in progress")

type Scheduler struct {
	config   *structures.Config
	logger   providers.Logger
	cycle    services.CycleServiceInterface
	logStore *LogStore
	reaper   *Reaper
	cron     *gron.Cron
	opsMu    sync.Mutex
	running  atomic.Bool
}

func (s *Scheduler) Init() {
	s.cron = gron.New()

	s.cron.AddFunc(gron.Every(s.config.Monitor.Interval), func() {
		if _, err := s.TriggerCycle(context.Background()); err != nil && !errors.Is(err, ErrCycleInProgress) {
			s.logger.Errorf(providers.TypeCycle, "Scheduled cycle failed: %s", err)
		}
	})

	if s.config.Reaper.Interval > 0 {
		s.cron.AddFunc(gron.Every(s.config.Reaper.Interval), func() {
			s.opsMu.Lock()
			defer s.opsMu.Unlock()

			s.logger.Infof(providers.TypeReaper, "Reaping duplicate snapshots...")
			reports, err := s.reaper.Run(ReapOptions{
				Categories: s.config.Monitor.Categories,
				DryRun:     s.config.Reaper.DryRun,
			})
			if err != nil {
				s.logger.Errorf(providers.TypeReaper, "Reaper failed: %s", err)
				return
			}
			for _, r := range reports {
				s.logger.Infof(providers.TypeReaper, "%s: kept %d, skipped %d, deleted %d, failed %d",
					r.Category, len(r.Kept), len(r.Skipped), len(r.Deleted), len(r.Failed))
			}
		})
	}

	s.cron.Start()
}

func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}

// Restore checks that the persisted log state is readable before the first
// cycle runs.
func (s *Scheduler) Restore() error {
	state, err := s.logStore.Read()
	if err != nil {
		return err
	}
	latest := state.Latest.Timestamp.OrElse(0)
	s.logger.Infof(providers.TypeApp, "Log state %s is %s (latest %d)", s.logStore.Path(), state.Phase(), latest)
	return nil
}

// TriggerCycle runs one fetch cycle now. Cycles never overlap.
func (s *Scheduler) TriggerCycle(ctx context.Context) (*models.DeltaResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, ErrCycleInProgress
	}
	defer s.running.Store(false)

	s.opsMu.Lock()
	defer s.opsMu.Unlock()

	start := time.Now()
	session, err := s.cycle.Run(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Infof(providers.TypeCycle, "Cycle %s done in %s", session.ID, time.Since(start))
	return session.Delta, nil
}

func NewScheduler(config *structures.Config, logger providers.Logger, cycle services.CycleServiceInterface, logStore *LogStore, reaper *Reaper) interfaces.SchedulerInterface {
	return &Scheduler{
		config:   config,
		logger:   logger,
		cycle:    cycle,
		logStore: logStore,
		reaper:   reaper,
	}
}
