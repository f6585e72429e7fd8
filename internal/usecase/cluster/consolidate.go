package cluster

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/bokjilink/poldex/internal/domain"
)

// ConsolidateStats summarizes one path compression pass.
type ConsolidateStats struct {
	DocumentsScanned int
	Updated          int
	Skipped          int
	CyclesBroken     int
}

// Consolidate flattens assignment chains so every document points directly
// at its cluster root and roots point at themselves. After this pass a
// single hop resolves any document to its canonical policy.
func (s *Service) Consolidate(ctx context.Context, dryRun bool) (ConsolidateStats, error) {
	nodes, err := s.repo.ListNodes(ctx)
	if err != nil {
		return ConsolidateStats{}, fmt.Errorf("list nodes: %w", err)
	}

	stats := ConsolidateStats{DocumentsScanned: len(nodes)}

	byID := make(map[int64]*Node, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}

	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		n := byID[id]

		root, cyclic := findRoot(byID, n)
		if cyclic {
			stats.CyclesBroken++
		}
		if n.PolicyID != nil && *n.PolicyID == root {
			continue
		}

		if !dryRun {
			switch err := s.repo.SetPolicyID(ctx, n.ID, root); {
			case err == nil:
			case errors.Is(err, domain.ErrLockContention):
				stats.Skipped++
				continue
			default:
				return stats, fmt.Errorf("set policy id %d: %w", n.ID, err)
			}
		}
		n.PolicyID = &root
		stats.Updated++
	}

	s.log.Info("consolidation complete",
		zap.Int("documents", stats.DocumentsScanned),
		zap.Int("updated", stats.Updated),
		zap.Int("skipped", stats.Skipped),
		zap.Int("cycles_broken", stats.CyclesBroken),
		zap.Bool("dry_run", dryRun),
	)
	return stats, nil
}

// findRoot walks the assignment chain from n. A document with no pointer or
// a dangling pointer is its own root. A cycle resolves to the first node the
// walk revisits, which keeps repeated consolidations stable.
func findRoot(byID map[int64]*Node, n *Node) (root int64, cyclic bool) {
	seen := map[int64]bool{}
	cur := n
	for {
		if cur.PolicyID == nil || *cur.PolicyID == cur.ID {
			return cur.ID, false
		}
		next, ok := byID[*cur.PolicyID]
		if !ok {
			return cur.ID, false
		}
		if seen[next.ID] {
			return next.ID, true
		}
		seen[cur.ID] = true
		cur = next
	}
}
