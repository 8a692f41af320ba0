package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/snipsd/snipsd/internal/core/cluster"
	"github.com/snipsd/snipsd/internal/core/model"
	"github.com/snipsd/snipsd/internal/core/resolve"
	"github.com/snipsd/snipsd/internal/store"
)

// SessionState is the review lifecycle:
//
//	Idle -> Analyzing -> Reviewing -> (Resolving -> Reviewing)* -> Idle
type SessionState string

const (
	StateIdle      SessionState = "idle"
	StateAnalyzing SessionState = "analyzing"
	StateReviewing SessionState = "reviewing"
	StateResolving SessionState = "resolving"
)

var (
	// ErrAnalysisInProgress guards against re-entering a busy session.
	ErrAnalysisInProgress = errors.New("analysis already in progress")
	// ErrNotReviewing is returned when a resolution is requested outside
	// the Reviewing state.
	ErrNotReviewing = errors.New("no analysis results to review")
	// ErrNoSuchGroup is returned for an out-of-range group index.
	ErrNoSuchGroup = errors.New("no such duplicate group")
)

// Session drives one duplicate-review pass over a caller-supplied snapshot.
// The snapshot and every derived group live only for the duration of the run:
// starting a new run or closing the session discards them. Analysis itself
// runs on a background goroutine so the invoking context stays responsive.
type Session struct {
	store    store.SnippetStore
	resolver *resolve.Resolver
	logger   zerolog.Logger

	mu     sync.Mutex
	state  SessionState
	runID  string
	groups []model.DuplicateGroup
	err    error
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSession creates an idle session resolving against the given store.
func NewSession(st store.SnippetStore, logger zerolog.Logger) *Session {
	return &Session{
		store:    st,
		resolver: resolve.NewResolver(st, logger),
		logger:   logger,
		state:    StateIdle,
	}
}

// SetRefreshHook registers a callback invoked after every resolution attempt,
// successful or not, so the caller can reload its record snapshot. The
// session never mutates the snapshot it analyzed.
func (s *Session) SetRefreshHook(fn func()) {
	s.resolver.OnComplete = fn
}

// Analyze is the synchronous engine entry point: it partitions the snapshot
// into duplicate groups without touching session state. Pass threshold <= 0
// for the default.
func Analyze(ctx context.Context, records []model.Snippet, threshold float64) ([]model.DuplicateGroup, error) {
	return cluster.NewBuilder(threshold).BuildGroups(ctx, records)
}

// Start launches a background analysis run over the snapshot and returns its
// run id. It fails with ErrAnalysisInProgress while a previous run is still
// analyzing or resolving. Results from any earlier run are discarded.
func (s *Session) Start(records []model.Snippet, threshold float64) (string, error) {
	s.mu.Lock()
	if s.state == StateAnalyzing || s.state == StateResolving {
		s.mu.Unlock()
		return "", ErrAnalysisInProgress
	}

	// Release the previous run's context before replacing it.
	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.state = StateAnalyzing
	s.runID = uuid.New().String()
	s.groups = nil
	s.err = nil
	s.done = make(chan struct{})
	runID := s.runID
	s.mu.Unlock()

	s.logger.Info().
		Str("run_id", runID).
		Int("records", len(records)).
		Float64("threshold", effectiveThreshold(threshold)).
		Msg("analysis started")

	go s.run(ctx, records, threshold)
	return runID, nil
}

func (s *Session) run(ctx context.Context, records []model.Snippet, threshold float64) {
	groups, err := Analyze(ctx, records, threshold)

	s.mu.Lock()
	defer s.mu.Unlock()
	defer close(s.done)

	if err != nil {
		// Reset the processing flag so the caller can retry.
		s.state = StateIdle
		s.err = err
		s.logger.Warn().Str("run_id", s.runID).Err(err).Msg("analysis aborted")
		return
	}

	s.groups = groups
	s.state = StateReviewing
	s.logger.Info().Str("run_id", s.runID).Int("groups", len(groups)).Msg("analysis complete")
}

// Wait blocks until the current run finishes and returns its groups.
func (s *Session) Wait() ([]model.DuplicateGroup, error) {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil, errors.New("no analysis has been started")
	}

	<-done

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]model.DuplicateGroup(nil), s.groups...), nil
}

// State reports the current lifecycle state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// RunID reports the id of the latest run, empty before the first.
func (s *Session) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// Groups returns a copy of the pending duplicate groups.
func (s *Session) Groups() []model.DuplicateGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.DuplicateGroup(nil), s.groups...)
}

// ResolveMerge resolves the pending group at index by keeping keepID and
// deleting the other members. The union of the group's tags is written onto
// the survivor through the store's update contract before the coordinator
// issues its deletes; a failed propagation is reported in the result and
// does not stop the deletes. The group leaves the pending list whatever the
// outcome; callers refresh their snapshot and re-analyze to pick up leftovers.
func (s *Session) ResolveMerge(ctx context.Context, index int, keepID int64) (model.ResolutionResult, error) {
	group, err := s.takeGroup(index)
	if err != nil {
		return model.ResolutionResult{}, err
	}
	if !group.Contains(keepID) {
		s.finishResolve(index, false)
		return model.ResolutionResult{}, fmt.Errorf("keep id %d is not a member of the group", keepID)
	}

	tagErr := s.propagateTags(ctx, group, keepID)
	if tagErr != nil {
		s.logger.Warn().Int64("keep", keepID).Err(tagErr).Msg("tag propagation failed")
	}

	result, err := s.resolver.Merge(ctx, group, keepID)
	if tagErr != nil {
		result.TagError = tagErr.Error()
	}
	s.finishResolve(index, err == nil)
	return result, err
}

// ResolveDelete resolves the pending group at index by deleting every member.
func (s *Session) ResolveDelete(ctx context.Context, index int) (model.ResolutionResult, error) {
	group, err := s.takeGroup(index)
	if err != nil {
		return model.ResolutionResult{}, err
	}

	result, err := s.resolver.DeleteAll(ctx, group)
	s.finishResolve(index, err == nil)
	return result, err
}

// Close cancels any running analysis and discards all session state.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	s.state = StateIdle
	s.groups = nil
	s.err = nil
}

func (s *Session) takeGroup(index int) (model.DuplicateGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateReviewing {
		return model.DuplicateGroup{}, ErrNotReviewing
	}
	if index < 0 || index >= len(s.groups) {
		return model.DuplicateGroup{}, ErrNoSuchGroup
	}

	s.state = StateResolving
	return s.groups[index], nil
}

func (s *Session) finishResolve(index int, resolved bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Close may have discarded the session while the resolver was still
	// blocked in the store; there is nothing left to bookkeep.
	if s.state != StateResolving {
		return
	}

	if resolved && index < len(s.groups) {
		s.groups = append(s.groups[:index:index], s.groups[index+1:]...)
	}
	s.state = StateReviewing
}

// propagateTags writes the union of every member's tags onto the survivor
// before the merge deletes the rest of the group. Skipped when the keeper
// already carries the full set. The resolution coordinator itself never
// updates records; the update contract is exercised only here.
func (s *Session) propagateTags(ctx context.Context, group model.DuplicateGroup, keepID int64) error {
	var keeper model.Snippet
	for _, m := range group.Members {
		if m.ID == keepID {
			keeper = m
			break
		}
	}

	union := make(map[string]bool, len(keeper.Tags))
	for _, m := range group.Members {
		for _, tag := range m.Tags {
			union[tag] = true
		}
	}
	if len(union) == len(keeper.Tags) {
		return nil
	}

	tags := make([]string, 0, len(union))
	for tag := range union {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	_, err := s.store.UpdateSnippet(ctx, keeper.ID, model.UpdateSnippetInput{
		Name:        keeper.Name,
		Content:     keeper.Content,
		Description: keeper.Description,
		Tags:        tags,
	})
	return err
}

func effectiveThreshold(threshold float64) float64 {
	if threshold <= 0 {
		return cluster.DefaultThreshold
	}
	return threshold
}
