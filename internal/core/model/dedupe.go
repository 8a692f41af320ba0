package model

// SimilarityScore is the outcome of comparing two snippets. Scores are
// ephemeral: recomputed on every analysis run and never persisted.
type SimilarityScore struct {
	RecordA  int64   `json:"record_a"`
	RecordB  int64   `json:"record_b"`
	Content  float64 `json:"content_similarity"`
	Name     float64 `json:"name_similarity"`
	Weighted float64 `json:"weighted"`
}

// DuplicateGroup is a set of snippets judged to be duplicates of each other
// during one analysis run. Members preserve input order, with the leader
// first. GroupSimilarity is the highest weighted score observed while the
// group was formed. Groups always have at least two members.
type DuplicateGroup struct {
	Members         []Snippet `json:"members"`
	GroupSimilarity float64   `json:"group_similarity"`
}

// IDs returns the ids of every member of the group.
func (g DuplicateGroup) IDs() []int64 {
	ids := make([]int64, len(g.Members))
	for i, m := range g.Members {
		ids[i] = m.ID
	}
	return ids
}

// Contains reports whether the group has a member with the given id.
func (g DuplicateGroup) Contains(id int64) bool {
	for _, m := range g.Members {
		if m.ID == id {
			return true
		}
	}
	return false
}

// ResolutionOutcome tags the overall result of resolving one group.
type ResolutionOutcome string

const (
	// OutcomeResolved means every requested delete succeeded.
	OutcomeResolved ResolutionOutcome = "resolved"
	// OutcomePartial means some deletes succeeded and some failed. The
	// successes are not rolled back; the store offers no compensating
	// primitive.
	OutcomePartial ResolutionOutcome = "partial"
	// OutcomeFailed means no delete succeeded.
	OutcomeFailed ResolutionOutcome = "failed"
)

// FailedDelete records one delete request that the store rejected.
type FailedDelete struct {
	ID     int64  `json:"id"`
	Reason string `json:"reason"`
}

// ResolutionResult is the per-group report returned by the resolution
// coordinator. Callers are expected to render per-item outcomes rather than
// abort the whole review session on a single failure.
type ResolutionResult struct {
	Outcome ResolutionOutcome `json:"outcome"`
	KeepID  int64             `json:"keep_id,omitempty"`
	Deleted []int64           `json:"deleted"`
	Failed  []FailedDelete    `json:"failed,omitempty"`
	// TagError is set when merge-time tag propagation onto the survivor
	// failed. Propagation failures do not stop the deletes.
	TagError string `json:"tag_error,omitempty"`
}
