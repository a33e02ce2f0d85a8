package controllers

import (
	"net/http"

	"github.com/cockroachdb/errors"
	json "github.com/goccy/go-json"

	"gerritwatch/internal/archive"
	"gerritwatch/internal/archive/interfaces"
	"gerritwatch/internal/models"
	"gerritwatch/internal/providers"
	"gerritwatch/internal/services"
)

type ApiController struct {
	logger    providers.Logger
	logStore  interfaces.LogStoreInterface
	snapshots interfaces.SnapshotStoreInterface
	delta     services.DeltaServiceInterface
	scheduler interfaces.SchedulerInterface
	cache     providers.CacheProviderInterface
}

func NewApiController(
	logger providers.Logger,
	logStore interfaces.LogStoreInterface,
	snapshots interfaces.SnapshotStoreInterface,
	delta services.DeltaServiceInterface,
	scheduler interfaces.SchedulerInterface,
	cache providers.CacheProviderInterface,
) *ApiController {
	return &ApiController{
		logger:    logger,
		logStore:  logStore,
		snapshots: snapshots,
		delta:     delta,
		scheduler: scheduler,
		cache:     cache,
	}
}

// statusFor maps an error class to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, archive.ErrCycleInProgress):
		return http.StatusConflict
	case errors.Is(err, models.ErrFetch):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (ac *ApiController) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	ac.logger.Errorf(providers.GetLogTypeByRequestType(r.Method), "%s %s: %s", r.Method, r.URL.Path, err)
	http.Error(w, http.StatusText(status), status)
}

func (ac *ApiController) serveFromCacheOrCompute(w http.ResponseWriter, r *http.Request, cacheKey string, compute func() (any, error)) {
	if data, ok := ac.cache.Get(cacheKey); ok {
		writeJSON(w, http.StatusOK, data)
		return
	}

	result, err := compute()
	if err != nil {
		ac.fail(w, r, err)
		return
	}

	gson, err := json.Marshal(result)
	if err != nil {
		ac.fail(w, r, err)
		return
	}

	ac.cache.Set(cacheKey, gson)
	writeJSON(w, http.StatusOK, gson)
}

// readState loads the log state and the timestamp of its latest cycle, 0 when
// no cycle has completed.
func (ac *ApiController) readState() (*models.LogState, int64, error) {
	state, err := ac.logStore.Read()
	if err != nil {
		return nil, 0, err
	}
	return state, state.Latest.Timestamp.OrElse(0), nil
}

func (ac *ApiController) GetState(w http.ResponseWriter, r *http.Request) {
	state, _, err := ac.readState()
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	gson, err := json.Marshal(state)
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, gson)
}

// GetDelta recomputes the delta of the persisted state against the open
// snapshot of the latest cycle.
func (ac *ApiController) GetDelta(w http.ResponseWriter, r *http.Request) {
	state, latest, err := ac.readState()
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	ac.serveFromCacheOrCompute(w, r, providers.CycleKey(providers.CacheViewDelta, latest), func() (any, error) {
		var open []models.ChangeRecord
		if ts, ok := state.Latest.Timestamp.Get(); ok && state.Previous.Timestamp.IsSet() {
			records, err := ac.snapshots.Read(models.CategoryOpen, ts)
			if err != nil {
				return nil, err
			}
			open = records
		}
		return ac.delta.Delta(state, open)
	})
}

func (ac *ApiController) GetUrgent(w http.ResponseWriter, r *http.Request) {
	state, latest, err := ac.readState()
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	ac.serveFromCacheOrCompute(w, r, providers.CycleKey(providers.CacheViewUrgent, latest), func() (any, error) {
		return state.Latest.UrgentPatches.OrElse([]models.UrgentPatch{}), nil
	})
}

// RunCycle triggers a fetch cycle immediately and returns its delta.
func (ac *ApiController) RunCycle(w http.ResponseWriter, r *http.Request) {
	result, err := ac.scheduler.TriggerCycle(r.Context())
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	gson, err := json.Marshal(result)
	if err != nil {
		ac.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, gson)
}
