package cluster

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/bokjilink/poldex/internal/domain"
)

// Options tunes one clustering run.
type Options struct {
	// SimilarityThreshold is the minimum title cosine similarity for a
	// target to join a base's cluster.
	SimilarityThreshold float64
	// BatchSize bounds how many bases are processed between write phases.
	BatchSize int
	// Workers sizes the similarity worker pool.
	Workers int
	// ResetAll detaches every document before clustering from scratch.
	ResetAll bool
	// DryRun computes assignments without writing them.
	DryRun bool
}

// ApplyDefaults fills zero fields with production values.
func (o *Options) ApplyDefaults() {
	if o.SimilarityThreshold == 0 {
		o.SimilarityThreshold = 0.8
	}
	if o.BatchSize == 0 {
		o.BatchSize = 500
	}
	if o.Workers == 0 {
		o.Workers = 8
	}
}

// RunStats summarizes one clustering run.
type RunStats struct {
	DocumentsScanned int
	Bases            int
	Reassignments    int
	Skipped          int
}

// Service groups duplicate policy announcements by title similarity.
// Lower weight means a more authoritative source; authoritative documents
// become cluster bases and pull less authoritative near-duplicates in.
type Service struct {
	repo Repository
	log  *zap.Logger
}

// NewService creates a clustering service.
func NewService(repo Repository, log *zap.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// arena is the in-memory working state of one run. Writes during the run go
// through the arena first so that later batches compare against the intended
// assignment even before the store write lands.
type arena struct {
	mu sync.Mutex

	nodes map[int64]*Node

	// bestSim caches the strongest similarity seen per target this run.
	// A new base claims a target only with a strictly greater similarity,
	// which makes the outcome independent of worker scheduling.
	bestSim map[int64]float64

	// claimant records which base holds each target claimed this run.
	// Exact similarity ties resolve by base visit order against it;
	// assignments carried over from a previous run keep priority on a tie.
	claimant map[int64]*Node

	// dirty holds targets whose assignment changed in the current batch.
	dirty map[int64]int64
}

// Run executes one greedy clustering pass.
//
// Bases are visited in weight ascending, id ascending order. Each base
// considers only strictly heavier documents as targets, so cluster pointers
// always aim at an equal-or-more authoritative source and no pointer chain
// can revisit a weight level it came from.
func (s *Service) Run(ctx context.Context, opts Options) (RunStats, error) {
	opts.ApplyDefaults()

	nodes, err := s.repo.ListNodes(ctx)
	if err != nil {
		return RunStats{}, fmt.Errorf("list nodes: %w", err)
	}

	stats := RunStats{DocumentsScanned: len(nodes)}

	a := &arena{
		nodes:    make(map[int64]*Node, len(nodes)),
		bestSim:  make(map[int64]float64, len(nodes)),
		claimant: make(map[int64]*Node, len(nodes)),
	}
	for i := range nodes {
		n := nodes[i]
		a.nodes[n.ID] = &n
	}

	if opts.ResetAll {
		if !opts.DryRun {
			if err := s.repo.ClearPolicyIDs(ctx); err != nil {
				return stats, fmt.Errorf("clear policy ids: %w", err)
			}
		}
		for _, n := range a.nodes {
			n.PolicyID = nil
		}
	}

	bases := make([]*Node, 0, len(a.nodes))
	for _, n := range a.nodes {
		if len(n.TitleVector) > 0 {
			bases = append(bases, n)
		}
	}
	sort.Slice(bases, func(i, j int) bool {
		if bases[i].Weight != bases[j].Weight {
			return bases[i].Weight < bases[j].Weight
		}
		return bases[i].ID < bases[j].ID
	})
	stats.Bases = len(bases)

	pool, err := ants.NewPool(opts.Workers)
	if err != nil {
		return stats, fmt.Errorf("worker pool: %w", err)
	}
	defer pool.Release()

	for start := 0; start < len(bases); start += opts.BatchSize {
		end := start + opts.BatchSize
		if end > len(bases) {
			end = len(bases)
		}
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		a.dirty = make(map[int64]int64)

		var wg sync.WaitGroup
		for _, base := range bases[start:end] {
			base := base
			wg.Add(1)
			if err := pool.Submit(func() {
				defer wg.Done()
				s.assignTargets(a, base, opts.SimilarityThreshold)
			}); err != nil {
				wg.Done()
				return stats, fmt.Errorf("submit base %d: %w", base.ID, err)
			}
		}
		wg.Wait()

		written, skipped, err := s.writeBatch(ctx, a, opts.DryRun)
		if err != nil {
			return stats, err
		}
		stats.Reassignments += written
		stats.Skipped += skipped
	}

	s.log.Info("clustering run complete",
		zap.Int("documents", stats.DocumentsScanned),
		zap.Int("bases", stats.Bases),
		zap.Int("reassignments", stats.Reassignments),
		zap.Int("skipped", stats.Skipped),
		zap.Bool("dry_run", opts.DryRun),
	)
	return stats, nil
}

// assignTargets lets one base claim every strictly heavier document whose
// title similarity clears the threshold and beats the target's current best.
func (s *Service) assignTargets(a *arena, base *Node, threshold float64) {
	for _, target := range a.nodes {
		if target.Weight <= base.Weight || len(target.TitleVector) == 0 {
			continue
		}
		sim := domain.CosineSimilarity(base.TitleVector, target.TitleVector)
		if sim < threshold {
			continue
		}

		a.mu.Lock()
		old, ok := a.bestSim[target.ID]
		if !ok {
			old = a.currentSimLocked(target)
			a.bestSim[target.ID] = old
		}
		claim := sim > old
		if !claim && sim == old {
			cur, claimed := a.claimant[target.ID]
			claim = claimed && baseBefore(base, cur)
		}
		if claim {
			a.bestSim[target.ID] = sim
			a.claimant[target.ID] = base
			id := base.ID
			target.PolicyID = &id
			a.dirty[target.ID] = id
		}
		a.mu.Unlock()
	}
}

// baseBefore reports whether a precedes b in base visit order
// (weight ascending, id ascending).
func baseBefore(a, b *Node) bool {
	if a.Weight != b.Weight {
		return a.Weight < b.Weight
	}
	return a.ID < b.ID
}

// currentSimLocked seeds the best-sim cache for a target carrying an
// assignment from a previous run. Unknown or dangling assignments seed at
// negative infinity so any qualifying base can claim the target.
func (a *arena) currentSimLocked(target *Node) float64 {
	if target.PolicyID == nil {
		return math.Inf(-1)
	}
	base, ok := a.nodes[*target.PolicyID]
	if !ok || len(base.TitleVector) == 0 {
		return math.Inf(-1)
	}
	return domain.CosineSimilarity(base.TitleVector, target.TitleVector)
}

// writeBatch flushes the batch's changed assignments to the store. A locked
// row is skipped, not retried; the next run picks it up.
func (s *Service) writeBatch(ctx context.Context, a *arena, dryRun bool) (written, skipped int, err error) {
	ids := make([]int64, 0, len(a.dirty))
	for id := range a.dirty {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		policyID := a.dirty[id]
		if dryRun {
			written++
			continue
		}
		switch err := s.repo.SetPolicyID(ctx, id, policyID); {
		case err == nil:
			written++
		case errors.Is(err, domain.ErrLockContention):
			skipped++
			s.log.Debug("document locked, skipping", zap.Int64("doc_id", id))
		default:
			return written, skipped, fmt.Errorf("set policy id %d: %w", id, err)
		}
	}
	return written, skipped, nil
}
