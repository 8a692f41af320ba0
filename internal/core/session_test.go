package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/snipsd/snipsd/internal/core/model"
)

func duplicateSnapshot() []model.Snippet {
	return []model.Snippet{
		{ID: 1, Name: "git amend", Content: "git commit --amend --no-edit"},
		{ID: 2, Name: "git amend!", Content: "git commit --amend --no-edit!"},
		{ID: 3, Name: "unrelated", Content: "SELECT count(*) FROM sessions"},
	}
}

func TestAnalyze_Standalone(t *testing.T) {
	groups, err := Analyze(context.Background(), duplicateSnapshot(), 0.85)
	require.NoError(t, err)

	require.Len(t, groups, 1)
	assert.Equal(t, []int64{1, 2}, groups[0].IDs())
}

func TestSession_FullReviewFlow(t *testing.T) {
	st := newMockStore(duplicateSnapshot()...)
	s := NewSession(st, zerolog.Nop())
	assert.Equal(t, StateIdle, s.State())

	runID, err := s.Start(duplicateSnapshot(), 0.85)
	require.NoError(t, err)
	assert.NotEmpty(t, runID)

	groups, err := s.Wait()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, StateReviewing, s.State())

	result, err := s.ResolveMerge(context.Background(), 0, 1)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeResolved, result.Outcome)
	assert.Equal(t, []int64{2}, result.Deleted)

	// Group leaves the pending list, session stays reviewable.
	assert.Empty(t, s.Groups())
	assert.Equal(t, StateReviewing, s.State())

	s.Close()
	assert.Equal(t, StateIdle, s.State())
}

func TestSession_BusyGuard(t *testing.T) {
	// A large synthetic snapshot keeps the background run busy long
	// enough to observe the guard reliably on any machine; if not, the
	// state assertions below still hold after Wait.
	var records []model.Snippet
	for i := int64(1); i <= 200; i++ {
		records = append(records, model.Snippet{
			ID:      i,
			Name:    "generated",
			Content: "some moderately long snippet content used for pairwise comparison load",
		})
	}

	s := NewSession(newMockStore(), zerolog.Nop())
	_, err := s.Start(records, 0.85)
	require.NoError(t, err)

	if s.State() == StateAnalyzing {
		_, err = s.Start(records, 0.85)
		assert.ErrorIs(t, err, ErrAnalysisInProgress)
	}

	_, err = s.Wait()
	require.NoError(t, err)
	assert.Equal(t, StateReviewing, s.State())

	// Once reviewing, a new run may replace the previous results.
	_, err = s.Start(duplicateSnapshot(), 0.85)
	assert.NoError(t, err)
	_, err = s.Wait()
	require.NoError(t, err)
}

func TestSession_ResolveRequiresReviewing(t *testing.T) {
	s := NewSession(newMockStore(), zerolog.Nop())

	_, err := s.ResolveDelete(context.Background(), 0)
	assert.ErrorIs(t, err, ErrNotReviewing)

	_, err = s.ResolveMerge(context.Background(), 0, 1)
	assert.ErrorIs(t, err, ErrNotReviewing)
}

func TestSession_ResolveBadIndex(t *testing.T) {
	s := NewSession(newMockStore(duplicateSnapshot()...), zerolog.Nop())
	_, err := s.Start(duplicateSnapshot(), 0.85)
	require.NoError(t, err)
	_, err = s.Wait()
	require.NoError(t, err)

	_, err = s.ResolveDelete(context.Background(), 5)
	assert.ErrorIs(t, err, ErrNoSuchGroup)
}

func TestSession_InvalidKeepLeavesGroupPending(t *testing.T) {
	s := NewSession(newMockStore(duplicateSnapshot()...), zerolog.Nop())
	_, err := s.Start(duplicateSnapshot(), 0.85)
	require.NoError(t, err)
	_, err = s.Wait()
	require.NoError(t, err)

	_, err = s.ResolveMerge(context.Background(), 0, 999)
	assert.Error(t, err)

	// The failed precondition must not consume the group.
	assert.Len(t, s.Groups(), 1)
	assert.Equal(t, StateReviewing, s.State())
}

func TestSession_PartialFailureSurfacesInResult(t *testing.T) {
	st := newMockStore(duplicateSnapshot()...)
	st.failDeletes[2] = errors.New("record locked")

	s := NewSession(st, zerolog.Nop())
	_, err := s.Start(duplicateSnapshot(), 0.85)
	require.NoError(t, err)
	_, err = s.Wait()
	require.NoError(t, err)

	result, err := s.ResolveDelete(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomePartial, result.Outcome)
	assert.Equal(t, []int64{1}, result.Deleted)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, int64(2), result.Failed[0].ID)
}

func TestSession_CloseDuringResolve(t *testing.T) {
	st := newMockStore(duplicateSnapshot()...)
	st.blockDeletes = make(chan struct{})

	s := NewSession(st, zerolog.Nop())
	_, err := s.Start(duplicateSnapshot(), 0.85)
	require.NoError(t, err)
	_, err = s.Wait()
	require.NoError(t, err)

	type resolveOut struct {
		result model.ResolutionResult
		err    error
	}
	done := make(chan resolveOut, 1)
	go func() {
		result, err := s.ResolveDelete(context.Background(), 0)
		done <- resolveOut{result, err}
	}()

	require.Eventually(t, func() bool { return s.State() == StateResolving },
		time.Second, 5*time.Millisecond)

	// Discard the session while the deletes are still stuck in the store.
	s.Close()
	assert.Equal(t, StateIdle, s.State())

	close(st.blockDeletes)

	out := <-done
	require.NoError(t, out.err)
	assert.Equal(t, model.OutcomeResolved, out.result.Outcome)

	// The closed session stays idle and empty; the late resolution must
	// not resurrect it.
	assert.Equal(t, StateIdle, s.State())
	assert.Empty(t, s.Groups())
}

func TestSession_MergePropagatesTagUnion(t *testing.T) {
	records := []model.Snippet{
		{ID: 1, Name: "git amend", Content: "git commit --amend --no-edit", Tags: []string{"git"}},
		{ID: 2, Name: "git amend!", Content: "git commit --amend --no-edit!", Tags: []string{"shell", "git"}},
	}
	st := newMockStore(records...)
	s := NewSession(st, zerolog.Nop())

	_, err := s.Start(records, 0.85)
	require.NoError(t, err)
	_, err = s.Wait()
	require.NoError(t, err)

	result, err := s.ResolveMerge(context.Background(), 0, 1)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeResolved, result.Outcome)
	assert.Empty(t, result.TagError)

	require.Len(t, st.updateCalls, 1)
	assert.Equal(t, []string{"git", "shell"}, st.updateCalls[0].Tags)
	assert.Equal(t, []string{"git", "shell"}, st.snippets[1].Tags)
}

func TestSession_MergeSkipsUpdateWhenKeeperHasAllTags(t *testing.T) {
	records := []model.Snippet{
		{ID: 1, Name: "git amend", Content: "git commit --amend --no-edit", Tags: []string{"git", "shell"}},
		{ID: 2, Name: "git amend!", Content: "git commit --amend --no-edit!", Tags: []string{"git"}},
	}
	st := newMockStore(records...)
	s := NewSession(st, zerolog.Nop())

	_, err := s.Start(records, 0.85)
	require.NoError(t, err)
	_, err = s.Wait()
	require.NoError(t, err)

	_, err = s.ResolveMerge(context.Background(), 0, 1)
	require.NoError(t, err)

	assert.Empty(t, st.updateCalls)
}

func TestSession_TagPropagationFailureDoesNotStopDeletes(t *testing.T) {
	records := []model.Snippet{
		{ID: 1, Name: "git amend", Content: "git commit --amend --no-edit"},
		{ID: 2, Name: "git amend!", Content: "git commit --amend --no-edit!", Tags: []string{"shell"}},
	}
	st := newMockStore(records...)
	st.updateErr = errors.New("store offline for updates")

	s := NewSession(st, zerolog.Nop())
	_, err := s.Start(records, 0.85)
	require.NoError(t, err)
	_, err = s.Wait()
	require.NoError(t, err)

	result, err := s.ResolveMerge(context.Background(), 0, 1)
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeResolved, result.Outcome)
	assert.Contains(t, result.TagError, "store offline")
	assert.Equal(t, []int64{2}, result.Deleted)
}

func TestSession_RestartReplacesPriorRun(t *testing.T) {
	s := NewSession(newMockStore(duplicateSnapshot()...), zerolog.Nop())

	first, err := s.Start(duplicateSnapshot(), 0.85)
	require.NoError(t, err)
	_, err = s.Wait()
	require.NoError(t, err)

	second, err := s.Start(duplicateSnapshot(), 0.85)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	groups, err := s.Wait()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, second, s.RunID())
}

func TestSession_RefreshHook(t *testing.T) {
	st := newMockStore(duplicateSnapshot()...)
	s := NewSession(st, zerolog.Nop())

	refreshed := 0
	s.SetRefreshHook(func() { refreshed++ })

	_, err := s.Start(duplicateSnapshot(), 0.85)
	require.NoError(t, err)
	_, err = s.Wait()
	require.NoError(t, err)

	_, err = s.ResolveDelete(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, refreshed)
}

func TestSession_WaitBeforeStart(t *testing.T) {
	s := NewSession(newMockStore(), zerolog.Nop())
	_, err := s.Wait()
	assert.Error(t, err)
}
