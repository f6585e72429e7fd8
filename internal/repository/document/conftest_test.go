package document

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bokjilink/poldex/internal/db"
)

// fakeStore is an in-memory stand-in for the Redis store.
type fakeStore struct {
	json  map[string][]byte
	locks map[string]string

	createdIndexes []*db.IndexDefinition
	searchKNNFn    func(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error)

	jsonSetErr error
	scanErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		json:  map[string][]byte{},
		locks: map[string]string{},
	}
}

func (f *fakeStore) JSONSet(_ context.Context, key, path string, data []byte) error {
	if f.jsonSetErr != nil {
		return f.jsonSetErr
	}
	if path == "$" {
		f.json[key] = data
		return nil
	}
	// Partial set: tests only exercise $.policy_id.
	doc := string(f.json[key])
	if doc == "" {
		return db.ErrKeyNotFound
	}
	f.json[key] = []byte(setPolicyIDField(doc, string(data)))
	return nil
}

func (f *fakeStore) JSONSetMulti(ctx context.Context, items []db.JSONSetItem) error {
	for _, item := range items {
		if err := f.JSONSet(ctx, item.Key, item.Path, item.Data); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStore) JSONGet(_ context.Context, key string, _ ...string) ([]byte, error) {
	data, ok := f.json[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return data, nil
}

func (f *fakeStore) Del(_ context.Context, key string) error {
	delete(f.json, key)
	return nil
}

func (f *fakeStore) Exists(_ context.Context, key string) (bool, error) {
	_, ok := f.json[key]
	return ok, nil
}

func (f *fakeStore) Scan(_ context.Context, pattern string) ([]string, error) {
	if f.scanErr != nil {
		return nil, f.scanErr
	}
	prefix := strings.TrimSuffix(pattern, "*")
	var keys []string
	for k := range f.json {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (f *fakeStore) TryLock(_ context.Context, key string, _ time.Duration) (string, error) {
	if _, held := f.locks[key]; held {
		return "", db.ErrKeyExists
	}
	f.locks[key] = "token"
	return "token", nil
}

func (f *fakeStore) Unlock(_ context.Context, key, token string) error {
	if f.locks[key] == token {
		delete(f.locks, key)
	}
	return nil
}

func (f *fakeStore) CreateIndex(_ context.Context, def *db.IndexDefinition) error {
	for _, existing := range f.createdIndexes {
		if existing.Name == def.Name {
			return db.ErrIndexExists
		}
	}
	f.createdIndexes = append(f.createdIndexes, def)
	return nil
}

func (f *fakeStore) DropIndex(_ context.Context, _ string) error { return nil }

func (f *fakeStore) IndexExists(_ context.Context, name string) (bool, error) {
	for _, existing := range f.createdIndexes {
		if existing.Name == name {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) SearchKNN(ctx context.Context, q *db.KNNQuery) (*db.SearchResult, error) {
	if f.searchKNNFn != nil {
		return f.searchKNNFn(ctx, q)
	}
	return &db.SearchResult{}, nil
}

func (f *fakeStore) SearchList(_ context.Context, _, _ string, _, _ int, _ []string) (*db.SearchResult, error) {
	return &db.SearchResult{}, nil
}

func (f *fakeStore) SearchCount(_ context.Context, _, _ string) (int, error) {
	return len(f.json), nil
}

// setPolicyIDField rewrites the policy_id field in a raw JSON document.
func setPolicyIDField(doc, value string) string {
	start := strings.Index(doc, `"policy_id":`)
	if start < 0 {
		return doc
	}
	rest := doc[start+len(`"policy_id":`):]
	end := strings.IndexAny(rest, ",}")
	return doc[:start+len(`"policy_id":`)] + value + rest[end:]
}

func testRepo(store *fakeStore) *Repo {
	return NewRepo(store, Config{IndexName: "poldex-docs", VectorDim: 4}, zap.NewNop())
}
