package resolve

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/snipsd/snipsd/internal/core/model"
	"github.com/snipsd/snipsd/internal/store"
)

// Resolver executes merge and delete-all decisions for a duplicate group
// against the snippet store. Deletes are dispatched concurrently, unordered,
// and all outcomes are awaited. There is no transactional atomicity: when only
// part of a group resolves, the successes stay deleted and the result reports
// the failures per id.
type Resolver struct {
	Store  store.SnippetStore
	Logger zerolog.Logger

	// OnComplete, when set, runs after every resolution attempt regardless
	// of outcome, so the caller can refresh its record snapshot.
	OnComplete func()
}

func NewResolver(st store.SnippetStore, logger zerolog.Logger) *Resolver {
	return &Resolver{Store: st, Logger: logger}
}

// Merge keeps one member of the group and deletes the rest. The survivor is
// left untouched: the coordinator only ever issues deletes, and callers that
// want the group's tags carried onto the keeper update it before invoking
// Merge.
func (r *Resolver) Merge(ctx context.Context, group model.DuplicateGroup, keepID int64) (model.ResolutionResult, error) {
	if !group.Contains(keepID) {
		return model.ResolutionResult{}, fmt.Errorf("keep id %d is not a member of the group", keepID)
	}
	defer r.complete()

	removeIDs := make([]int64, 0, len(group.Members)-1)
	for _, m := range group.Members {
		if m.ID != keepID {
			removeIDs = append(removeIDs, m.ID)
		}
	}

	result := model.ResolutionResult{KeepID: keepID}
	result.Deleted, result.Failed = r.deleteBatch(ctx, removeIDs)
	result.Outcome = outcomeOf(result)

	r.Logger.Info().
		Int64("keep", keepID).
		Int("deleted", len(result.Deleted)).
		Int("failed", len(result.Failed)).
		Str("outcome", string(result.Outcome)).
		Msg("merged duplicate group")

	return result, nil
}

// DeleteAll removes every member of the group.
func (r *Resolver) DeleteAll(ctx context.Context, group model.DuplicateGroup) (model.ResolutionResult, error) {
	defer r.complete()

	var result model.ResolutionResult
	result.Deleted, result.Failed = r.deleteBatch(ctx, group.IDs())
	result.Outcome = outcomeOf(result)

	r.Logger.Info().
		Int("deleted", len(result.Deleted)).
		Int("failed", len(result.Failed)).
		Str("outcome", string(result.Outcome)).
		Msg("deleted duplicate group")

	return result, nil
}

// deleteBatch fires one delete per id concurrently and awaits all outcomes.
// No retry, no rollback; the store collaborator owns mutation safety.
func (r *Resolver) deleteBatch(ctx context.Context, ids []int64) ([]int64, []model.FailedDelete) {
	errs := make([]error, len(ids))

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			errs[i] = r.Store.DeleteSnippet(ctx, id)
		}(i, id)
	}
	wg.Wait()

	var deleted []int64
	var failed []model.FailedDelete
	for i, id := range ids {
		if errs[i] != nil {
			failed = append(failed, model.FailedDelete{ID: id, Reason: errs[i].Error()})
			continue
		}
		deleted = append(deleted, id)
	}

	sort.Slice(deleted, func(i, j int) bool { return deleted[i] < deleted[j] })
	sort.Slice(failed, func(i, j int) bool { return failed[i].ID < failed[j].ID })
	return deleted, failed
}

func (r *Resolver) complete() {
	if r.OnComplete != nil {
		r.OnComplete()
	}
}

func outcomeOf(result model.ResolutionResult) model.ResolutionOutcome {
	switch {
	case len(result.Failed) == 0:
		return model.OutcomeResolved
	case len(result.Deleted) == 0:
		return model.OutcomeFailed
	default:
		return model.OutcomePartial
	}
}
