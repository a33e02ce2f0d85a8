package services

import (
	"github.com/cockroachdb/errors"

	"gerritwatch/internal/models"
	"gerritwatch/internal/structures"
)

type DeltaServiceInterface interface {
	Delta(state *models.LogState, open []models.ChangeRecord) (*models.DeltaResult, error)
}

type DeltaService struct {
	mode             string
	excludedReviewer string
}

func NewDeltaService(conf *structures.Config) DeltaServiceInterface {
	return &DeltaService{
		mode:             conf.Delta.Mode,
		excludedReviewer: conf.Delta.ExcludedReviewer,
	}
}

// Delta compares the latest slot of state with the previous one. open is the
// latest open-category fetch, used to resolve reviewers of added patches.
// Until both slots carry urgent patches the insufficient-history result is
// returned.
func (ds *DeltaService) Delta(state *models.LogState, open []models.ChangeRecord) (*models.DeltaResult, error) {
	if ds.mode != structures.DeltaModeUrgent && ds.mode != structures.DeltaModeFull {
		return nil, errors.Mark(errors.Newf("no delta mode enabled (got %q)", ds.mode), models.ErrConfiguration)
	}

	prevUrgent, okPrev := state.Previous.UrgentPatches.Get()
	nowUrgent, okNow := state.Latest.UrgentPatches.Get()
	if !okPrev || !okNow {
		return models.InsufficientHistory(), nil
	}

	var result *models.DeltaResult
	if ds.mode == structures.DeltaModeFull {
		result = ds.full(state)
	} else {
		result = ds.urgent(state, prevUrgent, nowUrgent, open)
	}
	result.Timestamp = state.Latest.Timestamp.OrElse(0)
	result.PreviousTimestamp = state.Previous.Timestamp.OrElse(0)
	return result, nil
}

// urgent classifies the symmetric difference of the two urgent lists. A patch
// that left the urgent list and shows up in the latest merged set is a merge,
// never a drop.
func (ds *DeltaService) urgent(state *models.LogState, prevUrgent, nowUrgent []models.UrgentPatch, open []models.ChangeRecord) *models.DeltaResult {
	prevSet := models.IDSet(models.UrgentIDs(prevUrgent))
	nowSet := models.IDSet(models.UrgentIDs(nowUrgent))
	mergedSet := models.IDSet(state.Latest.Merged.OrElse(nil))

	var add, drop, merge []models.DeltaEntry
	seen := make(map[int]struct{})

	for _, p := range prevUrgent {
		if nowSet.ContainsInt(p.ID) {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}

		if mergedSet.ContainsInt(p.ID) {
			merge = append(merge, models.EntryFromPatch(p))
		} else {
			drop = append(drop, models.EntryFromPatch(p))
		}
	}

	for _, p := range nowUrgent {
		if prevSet.ContainsInt(p.ID) {
			continue
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}

		entry := models.EntryFromPatch(p)
		entry.Reviewers = models.ReviewersFor(p.ID, open, ds.excludedReviewer)
		add = append(add, entry)
	}

	return models.NewDeltaResult(models.DeltaUrgent, add, drop, merge)
}

func (ds *DeltaService) full(state *models.LogState) *models.DeltaResult {
	ids := state.Latest.NewMergedPatches.OrElse(nil)
	merge := make([]models.DeltaEntry, 0, len(ids))
	for _, id := range ids {
		merge = append(merge, models.DeltaEntry{ID: id})
	}
	return models.NewDeltaResult(models.DeltaFull, nil, nil, merge)
}
