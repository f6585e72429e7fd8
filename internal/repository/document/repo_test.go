package document

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/bokjilink/poldex/internal/db"
	"github.com/bokjilink/poldex/internal/domain"
)

func TestUpsertGetRoundTrip(t *testing.T) {
	store := newFakeStore()
	repo := testRepo(store)
	ctx := context.Background()

	doc := domain.Document{
		ID:           7,
		Title:        "청년 월세 지원",
		Requirements: "중위소득 120% 이하",
		Region:       "서울 특별시",
		Weight:       3,
		TitleVector:  []float32{1, 0, 0, 0},
	}
	if err := repo.Upsert(ctx, &doc); err != nil {
		t.Fatal(err)
	}

	got, err := repo.Get(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if got.Title != doc.Title || got.Weight != 3 || len(got.TitleVector) != 4 {
		t.Errorf("round trip mismatch: %+v", got)
	}

	// The stored form carries the normalized region tag for pushdown.
	var raw map[string]any
	if err := json.Unmarshal(store.json["poldex:doc:7"], &raw); err != nil {
		t.Fatal(err)
	}
	if raw["region_tag"] != "서울특별시" {
		t.Errorf("region_tag = %v, want normalized form", raw["region_tag"])
	}
}

func TestGetMissingDocument(t *testing.T) {
	repo := testRepo(newFakeStore())
	_, err := repo.Get(context.Background(), 404)
	if !errors.Is(err, domain.ErrDocumentNotFound) {
		t.Fatalf("err = %v, want ErrDocumentNotFound", err)
	}
}

func TestSetPolicyIDLockContention(t *testing.T) {
	store := newFakeStore()
	repo := testRepo(store)
	ctx := context.Background()

	if err := repo.Upsert(ctx, &domain.Document{ID: 1}); err != nil {
		t.Fatal(err)
	}

	store.locks["poldex:lock:doc:1"] = "other-writer"
	err := repo.SetPolicyID(ctx, 1, 99)
	if !errors.Is(err, domain.ErrLockContention) {
		t.Fatalf("err = %v, want ErrLockContention", err)
	}

	delete(store.locks, "poldex:lock:doc:1")
	if err := repo.SetPolicyID(ctx, 1, 99); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Get(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got.PolicyID == nil || *got.PolicyID != 99 {
		t.Errorf("policy_id = %v, want 99", got.PolicyID)
	}
	if len(store.locks) != 0 {
		t.Error("lock should be released after the write")
	}
}

func TestListNodesAndClear(t *testing.T) {
	store := newFakeStore()
	repo := testRepo(store)
	ctx := context.Background()

	pid := int64(1)
	for _, d := range []domain.Document{
		{ID: 1, Weight: 1, TitleVector: []float32{1, 0, 0, 0}},
		{ID: 2, Weight: 5, PolicyID: &pid, TitleVector: []float32{0, 1, 0, 0}},
	} {
		d := d
		if err := repo.Upsert(ctx, &d); err != nil {
			t.Fatal(err)
		}
	}

	nodes, err := repo.ListNodes(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(nodes))
	}

	if err := repo.ClearPolicyIDs(ctx); err != nil {
		t.Fatal(err)
	}
	got, err := repo.Get(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if got.PolicyID != nil {
		t.Errorf("policy_id should be cleared, got %v", *got.PolicyID)
	}
}

func TestSearchByVectorFieldMapping(t *testing.T) {
	store := newFakeStore()
	var gotQuery *db.KNNQuery
	store.searchKNNFn = func(_ context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
		gotQuery = q
		data, _ := json.Marshal(toJSON(&domain.Document{ID: 3, Title: "t", Region: "부산"}))
		return &db.SearchResult{
			Total:   1,
			Entries: []db.SearchEntry{{Key: "poldex:doc:3", Score: 0.91, Fields: map[string]string{"$": string(data)}}},
		}, nil
	}
	repo := testRepo(store)

	hits, err := repo.SearchByVector(context.Background(), domain.FieldTitle, []float32{1, 0, 0, 0}, 10, "부산")
	if err != nil {
		t.Fatal(err)
	}
	if gotQuery.VectorField != "title_vec" {
		t.Errorf("vector field = %q, want title_vec", gotQuery.VectorField)
	}
	if gotQuery.Region != "부산" || gotQuery.RegionField != "region_tag" {
		t.Errorf("region pushdown missing: %+v", gotQuery)
	}
	if len(hits) != 1 || hits[0].Document.ID != 3 || hits[0].Similarity != 0.91 {
		t.Errorf("hits = %+v", hits)
	}
}

func TestSearchByVectorStoreFailure(t *testing.T) {
	store := newFakeStore()
	store.searchKNNFn = func(context.Context, *db.KNNQuery) (*db.SearchResult, error) {
		return nil, &db.Error{Op: db.OpSearch, Err: errors.New("connection refused")}
	}
	repo := testRepo(store)

	_, err := repo.SearchByVector(context.Background(), domain.FieldRequirements, []float32{1}, 10, "")
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestEnsureIndexIdempotent(t *testing.T) {
	store := newFakeStore()
	repo := testRepo(store)
	ctx := context.Background()

	if err := repo.EnsureIndex(ctx); err != nil {
		t.Fatal(err)
	}
	if err := repo.EnsureIndex(ctx); err != nil {
		t.Fatalf("second EnsureIndex should tolerate an existing index, got %v", err)
	}
	if len(store.createdIndexes) != 1 {
		t.Fatalf("created %d indexes, want 1", len(store.createdIndexes))
	}
	if err := store.createdIndexes[0].Validate(); err != nil {
		t.Errorf("index definition invalid: %v", err)
	}
}
