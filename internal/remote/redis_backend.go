// Package remote implements the live document store on Redis: one hash of
// record documents per collection, a set per segment name as the
// name = X index, and a pub/sub channel announcing every write.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jengzang/sitetrack-backend-go/internal/config"
	"github.com/jengzang/sitetrack-backend-go/internal/logger"
	"github.com/jengzang/sitetrack-backend-go/internal/models"
)

const maxWatchRetries = 5

// RedisBackend is the remote document collection of segment records.
type RedisBackend struct {
	log        *logger.Logger
	rdb        *goredis.Client
	docsKey    string
	indexKey   string
	changesKey string
}

// Dial connects to the remote store described by cfg and verifies it with a ping.
func Dial(ctx context.Context, cfg config.RemoteConfig, log *logger.Logger) (*RedisBackend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Username:    cfg.Username,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return NewRedisBackend(rdb, cfg.Project, cfg.Collection, log), nil
}

// NewRedisBackend wraps an existing client.
func NewRedisBackend(rdb *goredis.Client, project, collection string, log *logger.Logger) *RedisBackend {
	if collection == "" {
		collection = "segments"
	}
	base := project + ":" + collection
	return &RedisBackend{
		log:        log.With("component", "RedisBackend", "collection", base),
		rdb:        rdb,
		docsKey:    base,
		indexKey:   base + ":name:",
		changesKey: base + ":changes",
	}
}

func (b *RedisBackend) Mode() models.Mode { return models.ModeLive }

// Load returns every document in the collection ordered by id.
func (b *RedisBackend) Load(ctx context.Context) ([]models.SegmentRecord, error) {
	docs, err := b.rdb.HGetAll(ctx, b.docsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read collection: %w", err)
	}

	ids := make([]string, 0, len(docs))
	for id := range docs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	recs := make([]models.SegmentRecord, 0, len(ids))
	for _, id := range ids {
		var rec models.SegmentRecord
		if err := json.Unmarshal([]byte(docs[id]), &rec); err != nil {
			b.log.Warn("skipping malformed document", "id", id, "error", err)
			continue
		}
		rec.ID = id
		recs = append(recs, rec.Normalized())
	}
	return recs, nil
}

// reader is the read side shared by the client and a watched transaction.
type reader interface {
	SMembers(ctx context.Context, key string) *goredis.StringSliceCmd
	HMGet(ctx context.Context, key string, fields ...string) *goredis.SliceCmd
}

// findByName answers "documents where name = X" through the name index.
// Ids whose document is gone or now carries another name are skipped.
func (b *RedisBackend) findByName(ctx context.Context, r reader, name string) ([]models.SegmentRecord, error) {
	ids, err := r.SMembers(ctx, b.indexKey+name).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read name index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	sort.Strings(ids)

	vals, err := r.HMGet(ctx, b.docsKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read documents: %w", err)
	}
	recs := make([]models.SegmentRecord, 0, len(vals))
	for i, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var rec models.SegmentRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			b.log.Warn("skipping malformed document", "id", ids[i], "error", err)
			continue
		}
		rec.ID = ids[i]
		if rec.Name != name {
			continue
		}
		recs = append(recs, rec.Normalized())
	}
	return recs, nil
}

func (b *RedisBackend) Put(ctx context.Context, rec models.SegmentRecord) error {
	return b.PutBatch(ctx, []models.SegmentRecord{rec})
}

// PutBatch writes all documents and their index entries in one MULTI/EXEC.
func (b *RedisBackend) PutBatch(ctx context.Context, recs []models.SegmentRecord) error {
	if len(recs) == 0 {
		return nil
	}

	docs := make([]interface{}, 0, len(recs)*2)
	for _, rec := range recs {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode document %s: %w", rec.ID, err)
		}
		docs = append(docs, rec.ID, string(raw))
	}

	_, err := b.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.HSet(ctx, b.docsKey, docs...)
		for _, rec := range recs {
			pipe.SAdd(ctx, b.indexKey+rec.Name, rec.ID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write documents: %w", err)
	}

	b.announce(ctx)
	return nil
}

// DeleteByName removes every document of a segment in one transaction and
// returns how many documents it removed. The name index is watched so a
// concurrent insert retries the delete.
func (b *RedisBackend) DeleteByName(ctx context.Context, name string) (int, error) {
	key := b.indexKey + name
	var removed int
	remove := func(tx *goredis.Tx) error {
		found, err := b.findByName(ctx, tx, name)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(found))
		for _, rec := range found {
			ids = append(ids, rec.ID)
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			if len(ids) > 0 {
				pipe.HDel(ctx, b.docsKey, ids...)
			}
			pipe.Del(ctx, key)
			return nil
		})
		removed = len(ids)
		return err
	}

	for i := 0; i < maxWatchRetries; i++ {
		err := b.rdb.Watch(ctx, remove, key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		if err != nil {
			return 0, fmt.Errorf("failed to delete segment %q: %w", name, err)
		}
		if removed > 0 {
			b.announce(ctx)
		}
		return removed, nil
	}
	return 0, fmt.Errorf("failed to delete segment %q: too much contention", name)
}

// Changes subscribes to the collection's change channel. Bursts of
// notifications collapse into a single pending tick.
func (b *RedisBackend) Changes(ctx context.Context) (<-chan struct{}, error) {
	sub := b.rdb.Subscribe(ctx, b.changesKey)

	// ensures subscription actually started
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("redis subscribe: %w", err)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok || m == nil {
					return
				}
				select {
				case out <- struct{}{}:
				default:
				}
			}
		}
	}()
	return out, nil
}

func (b *RedisBackend) Close() error {
	return b.rdb.Close()
}

// announce tells every subscriber, including this process, to reload.
func (b *RedisBackend) announce(ctx context.Context) {
	if err := b.rdb.Publish(ctx, b.changesKey, time.Now().UTC().Format(time.RFC3339Nano)).Err(); err != nil {
		b.log.Warn("failed to publish change notification", "error", err)
	}
}
