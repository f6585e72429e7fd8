package cluster

import (
	"context"
	"testing"

	"github.com/bokjilink/poldex/internal/domain"
)

func TestRunAssignsSimilarHeavierDocument(t *testing.T) {
	// Base A (weight 2) and target T (weight 6), title similarity 0.92.
	repo := newMockRepo([]Node{
		{ID: 1, Weight: 2, TitleVector: unitVec(1)},
		{ID: 2, Weight: 6, TitleVector: unitVec(0.92)},
	})
	svc := NewService(repo, testLogger())

	stats, err := svc.Run(context.Background(), Options{SimilarityThreshold: 0.8})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Reassignments != 1 {
		t.Errorf("reassignments = %d, want 1", stats.Reassignments)
	}
	if got := repo.writes[2]; got != 1 {
		t.Errorf("doc 2 assigned to %d, want 1", got)
	}
	if _, ok := repo.writes[1]; ok {
		t.Error("the base must not be assigned anywhere")
	}
}

func TestRunBelowThresholdLeavesTargetAlone(t *testing.T) {
	repo := newMockRepo([]Node{
		{ID: 1, Weight: 2, TitleVector: unitVec(1)},
		{ID: 2, Weight: 6, TitleVector: unitVec(0.5)},
	})
	svc := NewService(repo, testLogger())

	stats, err := svc.Run(context.Background(), Options{SimilarityThreshold: 0.8})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Reassignments != 0 || len(repo.writes) != 0 {
		t.Errorf("expected no assignments, got %+v", repo.writes)
	}
}

func TestRunPrefersStrongestBase(t *testing.T) {
	// Two bases compete for one target; the closer one wins regardless of
	// processing order.
	repo := newMockRepo([]Node{
		{ID: 1, Weight: 1, TitleVector: unitVec(0.85)},
		{ID: 2, Weight: 2, TitleVector: unitVec(0.99)},
		{ID: 3, Weight: 6, TitleVector: unitVec(1)},
	})
	svc := NewService(repo, testLogger())

	if _, err := svc.Run(context.Background(), Options{SimilarityThreshold: 0.8}); err != nil {
		t.Fatal(err)
	}
	if got := repo.writes[3]; got != 2 {
		t.Errorf("doc 3 assigned to %d, want 2 (similarity 0.99 beats 0.85)", got)
	}
}

func TestRunEqualSimilarityTieBreaksByBaseOrder(t *testing.T) {
	// Two bases with identical title vectors tie exactly on the target;
	// the base visited first (lower id at equal weight) must win no
	// matter how the workers are scheduled.
	repo := newMockRepo([]Node{
		{ID: 5, Weight: 1, TitleVector: unitVec(0.9)},
		{ID: 2, Weight: 1, TitleVector: unitVec(0.9)},
		{ID: 9, Weight: 6, TitleVector: unitVec(1)},
	})
	svc := NewService(repo, testLogger())

	for i := 0; i < 20; i++ {
		repo.writes = map[int64]int64{}
		if _, err := svc.Run(context.Background(), Options{SimilarityThreshold: 0.8, Workers: 4, ResetAll: true}); err != nil {
			t.Fatal(err)
		}
		if got := repo.writes[9]; got != 2 {
			t.Fatalf("run %d: doc 9 assigned to %d, want 2 (earlier base wins an exact tie)", i, got)
		}
	}
}

func TestRunIsIdempotent(t *testing.T) {
	repo := newMockRepo([]Node{
		{ID: 1, Weight: 2, TitleVector: unitVec(1)},
		{ID: 2, Weight: 6, TitleVector: unitVec(0.92)},
	})
	svc := NewService(repo, testLogger())

	if _, err := svc.Run(context.Background(), Options{SimilarityThreshold: 0.8}); err != nil {
		t.Fatal(err)
	}
	stats, err := svc.Run(context.Background(), Options{SimilarityThreshold: 0.8})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Reassignments != 0 {
		t.Errorf("second run reassigned %d documents, want 0", stats.Reassignments)
	}
}

func TestRunDryRunWritesNothing(t *testing.T) {
	repo := newMockRepo([]Node{
		{ID: 1, Weight: 2, TitleVector: unitVec(1)},
		{ID: 2, Weight: 6, TitleVector: unitVec(0.92)},
	})
	svc := NewService(repo, testLogger())

	stats, err := svc.Run(context.Background(), Options{SimilarityThreshold: 0.8, DryRun: true})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Reassignments != 1 {
		t.Errorf("dry run should still count assignments, got %d", stats.Reassignments)
	}
	if len(repo.writes) != 0 {
		t.Errorf("dry run must not write, got %+v", repo.writes)
	}
}

func TestRunResetAllClearsFirst(t *testing.T) {
	repo := newMockRepo([]Node{
		{ID: 1, Weight: 2, TitleVector: unitVec(1)},
		{ID: 2, Weight: 6, PolicyID: ptr(99), TitleVector: unitVec(0.92)},
	})
	svc := NewService(repo, testLogger())

	if _, err := svc.Run(context.Background(), Options{SimilarityThreshold: 0.8, ResetAll: true}); err != nil {
		t.Fatal(err)
	}
	if !repo.cleared {
		t.Error("reset_all should clear assignments before clustering")
	}
	if got := repo.writes[2]; got != 1 {
		t.Errorf("doc 2 assigned to %d, want 1", got)
	}
}

func TestRunSkipsLockedRows(t *testing.T) {
	repo := newMockRepo([]Node{
		{ID: 1, Weight: 2, TitleVector: unitVec(1)},
		{ID: 2, Weight: 6, TitleVector: unitVec(0.92)},
	})
	repo.setPolicyIDFn = func(_ context.Context, docID, _ int64) error {
		if docID == 2 {
			return domain.ErrLockContention
		}
		return nil
	}
	svc := NewService(repo, testLogger())

	stats, err := svc.Run(context.Background(), Options{SimilarityThreshold: 0.8})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Skipped != 1 || stats.Reassignments != 0 {
		t.Errorf("skipped = %d, reassignments = %d, want 1 and 0", stats.Skipped, stats.Reassignments)
	}
}

func TestRunWeightMonotonicity(t *testing.T) {
	// Identical titles across three weight levels. Pointers must always go
	// from heavier to lighter, never sideways or back.
	repo := newMockRepo([]Node{
		{ID: 1, Weight: 1, TitleVector: unitVec(1)},
		{ID: 2, Weight: 3, TitleVector: unitVec(1)},
		{ID: 3, Weight: 5, TitleVector: unitVec(1)},
	})
	svc := NewService(repo, testLogger())

	if _, err := svc.Run(context.Background(), Options{SimilarityThreshold: 0.8}); err != nil {
		t.Fatal(err)
	}

	byID := map[int64]Node{}
	nodes, _ := repo.ListNodes(context.Background())
	for _, n := range nodes {
		byID[n.ID] = n
	}
	for _, n := range nodes {
		if n.PolicyID == nil {
			continue
		}
		base := byID[*n.PolicyID]
		if base.Weight >= n.Weight {
			t.Errorf("doc %d (weight %d) points at doc %d (weight %d)", n.ID, n.Weight, base.ID, base.Weight)
		}
	}
}
