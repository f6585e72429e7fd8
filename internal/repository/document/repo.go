package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/bokjilink/poldex/internal/db"
	"github.com/bokjilink/poldex/internal/domain"
	"github.com/bokjilink/poldex/internal/usecase/cluster"
	"github.com/bokjilink/poldex/internal/usecase/retrieval"
)

const (
	keyPrefix     = "poldex:doc:"
	lockKeyPrefix = "poldex:lock:doc:"

	defaultLockTTL = 5 * time.Second
)

// Field aliases in the FT schema.
const (
	aliasTitleVec = "title_vec"
	aliasReqVec   = "req_vec"
	aliasRegion   = "region_tag"
	aliasWeight   = "weight"
	aliasPolicyID = "policy_id"
)

// store is the narrow db surface the repository needs.
type store interface {
	db.JSONStore
	db.Locker
	db.IndexManager
	db.Searcher
}

// Repo persists policy documents as RedisJSON and serves vector search over
// them. It backs both the clustering and the retrieval services.
type Repo struct {
	store     store
	indexName string
	vectorDim int
	lockTTL   time.Duration
	log       *zap.Logger
}

// Config tunes the repository.
type Config struct {
	IndexName string
	VectorDim int
	LockTTL   time.Duration
}

// NewRepo creates a document repository.
func NewRepo(store store, cfg Config, log *zap.Logger) *Repo {
	if cfg.LockTTL == 0 {
		cfg.LockTTL = defaultLockTTL
	}
	return &Repo{
		store:     store,
		indexName: cfg.IndexName,
		vectorDim: cfg.VectorDim,
		lockTTL:   cfg.LockTTL,
		log:       log,
	}
}

// Compile-time checks against the usecase contracts.
var (
	_ cluster.Repository   = (*Repo)(nil)
	_ retrieval.Repository = (*Repo)(nil)
)

// EnsureIndex creates the FT index if it does not exist yet.
func (r *Repo) EnsureIndex(ctx context.Context) error {
	def := &db.IndexDefinition{
		Name:        r.indexName,
		StorageType: db.StorageJSON,
		Prefixes:    []string{keyPrefix},
		Fields: []db.IndexField{
			{Name: "$.id", Alias: "id", Type: db.IndexFieldNumeric},
			{Name: "$.region_tag", Alias: aliasRegion, Type: db.IndexFieldTag},
			{Name: "$.weight", Alias: aliasWeight, Type: db.IndexFieldNumeric},
			{Name: "$.policy_id", Alias: aliasPolicyID, Type: db.IndexFieldNumeric},
			{Name: "$.title_vec", Alias: aliasTitleVec, Type: db.IndexFieldVector,
				VectorAlgo: db.VectorHNSW, VectorDim: r.vectorDim, VectorDistance: db.DistanceCosine},
			{Name: "$.req_vec", Alias: aliasReqVec, Type: db.IndexFieldVector,
				VectorAlgo: db.VectorHNSW, VectorDim: r.vectorDim, VectorDistance: db.DistanceCosine},
		},
	}
	if err := r.store.CreateIndex(ctx, def); err != nil {
		if errors.Is(err, db.ErrIndexExists) {
			return nil
		}
		return fmt.Errorf("create document index: %w", err)
	}
	r.log.Info("document index created", zap.String("index", r.indexName))
	return nil
}

// Upsert writes a document in full.
func (r *Repo) Upsert(ctx context.Context, d *domain.Document) error {
	data, err := json.Marshal(toJSON(d))
	if err != nil {
		return fmt.Errorf("encode document %d: %w", d.ID, err)
	}
	if err := r.store.JSONSet(ctx, docKey(d.ID), "$", data); err != nil {
		return storeErr("upsert document", err)
	}
	return nil
}

// Get fetches one document by id.
func (r *Repo) Get(ctx context.Context, id int64) (domain.Document, error) {
	raw, err := r.store.JSONGet(ctx, docKey(id))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return domain.Document{}, domain.ErrDocumentNotFound
		}
		return domain.Document{}, storeErr("get document", err)
	}
	j, err := decodeDoc(raw)
	if err != nil {
		return domain.Document{}, err
	}
	return j.toDomain(), nil
}

// SearchByVector runs KNN over the chosen embedding field. A non-empty
// region is pushed down as a TAG pre-filter.
func (r *Repo) SearchByVector(
	ctx context.Context, field string, vector []float32, k int, region string,
) ([]retrieval.SearchHit, error) {
	alias := aliasReqVec
	if field == domain.FieldTitle {
		alias = aliasTitleVec
	}

	res, err := r.store.SearchKNN(ctx, &db.KNNQuery{
		IndexName:    r.indexName,
		VectorField:  alias,
		Vector:       vector,
		K:            k,
		Region:       region,
		RegionField:  aliasRegion,
		ReturnFields: []string{db.ScoreAlias, "$"},
	})
	if err != nil {
		return nil, storeErr("vector search", err)
	}

	hits := make([]retrieval.SearchHit, 0, len(res.Entries))
	for _, entry := range res.Entries {
		raw, ok := entry.Fields["$"]
		if !ok {
			continue
		}
		j, err := decodeDoc([]byte(raw))
		if err != nil {
			// One malformed document must not fail the whole search.
			r.log.Warn("skipping malformed document", zap.String("key", entry.Key), zap.Error(err))
			continue
		}
		hits = append(hits, retrieval.SearchHit{Document: j.toDomain(), Similarity: entry.Score})
	}
	return hits, nil
}

// ListNodes loads every document's clustering projection.
func (r *Repo) ListNodes(ctx context.Context) ([]cluster.Node, error) {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return nil, storeErr("scan documents", err)
	}

	nodes := make([]cluster.Node, 0, len(keys))
	for _, key := range keys {
		raw, err := r.store.JSONGet(ctx, key)
		if err != nil {
			if errors.Is(err, db.ErrKeyNotFound) {
				continue // deleted between scan and read
			}
			return nil, storeErr("get document", err)
		}
		j, err := decodeDoc(raw)
		if err != nil {
			r.log.Warn("skipping malformed document", zap.String("key", key), zap.Error(err))
			continue
		}
		nodes = append(nodes, cluster.Node{
			ID:          j.ID,
			Weight:      j.Weight,
			PolicyID:    j.PolicyID,
			TitleVector: j.TitleVec,
		})
	}
	return nodes, nil
}

// SetPolicyID points a document at its cluster root under a row lock.
func (r *Repo) SetPolicyID(ctx context.Context, docID, policyID int64) error {
	token, err := r.store.TryLock(ctx, lockKey(docID), r.lockTTL)
	if err != nil {
		if errors.Is(err, db.ErrKeyExists) {
			return domain.ErrLockContention
		}
		return storeErr("lock document", err)
	}
	defer func() {
		if err := r.store.Unlock(ctx, lockKey(docID), token); err != nil {
			r.log.Warn("unlock failed", zap.Int64("doc_id", docID), zap.Error(err))
		}
	}()

	if err := r.store.JSONSet(ctx, docKey(docID), "$.policy_id", []byte(strconv.FormatInt(policyID, 10))); err != nil {
		return storeErr("set policy id", err)
	}
	return nil
}

// ClearPolicyIDs detaches every document from its cluster.
func (r *Repo) ClearPolicyIDs(ctx context.Context) error {
	keys, err := r.store.Scan(ctx, keyPrefix+"*")
	if err != nil {
		return storeErr("scan documents", err)
	}
	items := make([]db.JSONSetItem, 0, len(keys))
	for _, key := range keys {
		items = append(items, db.JSONSetItem{Key: key, Path: "$.policy_id", Data: []byte("null")})
	}
	if err := r.store.JSONSetMulti(ctx, items); err != nil {
		return storeErr("clear policy ids", err)
	}
	return nil
}

func docKey(id int64) string {
	return keyPrefix + strconv.FormatInt(id, 10)
}

func lockKey(id int64) string {
	return lockKeyPrefix + strconv.FormatInt(id, 10)
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}
