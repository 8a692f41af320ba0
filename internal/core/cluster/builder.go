package cluster

import (
	"context"

	"github.com/snipsd/snipsd/internal/core/model"
	"github.com/snipsd/snipsd/internal/core/similarity"
)

// DefaultThreshold is the weighted-similarity cutoff for grouping when the
// caller does not override it.
const DefaultThreshold = 0.85

// Builder partitions a snapshot of snippets into duplicate groups using
// single-pass greedy leader clustering.
type Builder struct {
	Threshold float64
}

// NewBuilder returns a Builder with the given threshold, falling back to
// DefaultThreshold for non-positive values.
func NewBuilder(threshold float64) *Builder {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Builder{Threshold: threshold}
}

// BuildGroups iterates the snapshot in the order supplied, without sorting or
// re-ordering. Each unvisited record in turn becomes a leader and claims every
// later unvisited record whose weighted similarity is at or above the
// threshold (inclusive). Grouping is deterministic for a given input order but
// intentionally not transitive: a record claimed by an early leader is never
// reassigned to a later, tighter cluster.
//
// Singleton groups are never emitted. The ctx is checked between leader
// iterations so a large O(n^2) pass can be cancelled.
func (b *Builder) BuildGroups(ctx context.Context, records []model.Snippet) ([]model.DuplicateGroup, error) {
	visited := make(map[int64]bool, len(records))
	var groups []model.DuplicateGroup

	for i := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		leader := records[i]
		if visited[leader.ID] {
			continue
		}

		members := []model.Snippet{leader}
		maxSim := 0.0

		for j := i + 1; j < len(records); j++ {
			candidate := records[j]
			if visited[candidate.ID] {
				continue
			}

			score := similarity.Score(leader, candidate)
			if score.Weighted >= b.Threshold {
				members = append(members, candidate)
				visited[candidate.ID] = true
				if score.Weighted > maxSim {
					maxSim = score.Weighted
				}
			}
		}

		// A leader that claimed nobody forms no group and stays out of
		// the visited set.
		if len(members) > 1 {
			visited[leader.ID] = true
			groups = append(groups, model.DuplicateGroup{
				Members:         members,
				GroupSimilarity: maxSim,
			})
		}
	}

	return groups, nil
}
