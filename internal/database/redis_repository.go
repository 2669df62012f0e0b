package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/James99309/stargirl-reader/internal/economy"
	"github.com/James99309/stargirl-reader/internal/vocabulary"
	"github.com/James99309/stargirl-reader/pkg/models"
)

// DefaultRedisPrefix namespaces every key the repository writes
const DefaultRedisPrefix = "reader"

// RedisRepository keeps records in a hash, their order in a list
// and progress as a JSON string
type RedisRepository struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// NewRedisClient parses the url and pings the server
func NewRedisClient(redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}
	return client, nil
}

// NewRedisRepository creates a new repository instance
func NewRedisRepository(client *redis.Client, prefix string, logger *zap.Logger) *RedisRepository {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisRepository{client: client, prefix: prefix, logger: logger}
}

func (r *RedisRepository) vocabularyKey() string { return r.prefix + ":vocabulary" }
func (r *RedisRepository) orderKey() string      { return r.prefix + ":vocabulary:order" }
func (r *RedisRepository) savedKey() string      { return r.prefix + ":saved" }
func (r *RedisRepository) progressKey() string   { return r.prefix + ":progress" }

// LoadVocabulary returns every record in insertion order. Entries that cannot
// be decoded are skipped.
func (r *RedisRepository) LoadVocabulary(ctx context.Context) (vocabulary.Snapshot, error) {
	order, err := r.client.LRange(ctx, r.orderKey(), 0, -1).Result()
	if err != nil {
		return vocabulary.Snapshot{}, fmt.Errorf("failed to get vocabulary order: %w", err)
	}
	entries, err := r.client.HGetAll(ctx, r.vocabularyKey()).Result()
	if err != nil {
		return vocabulary.Snapshot{}, fmt.Errorf("failed to get vocabulary: %w", err)
	}

	snap := vocabulary.Snapshot{Records: make([]models.VocabularyRecord, 0, len(order))}
	for _, key := range order {
		raw, ok := entries[key]
		if !ok {
			continue
		}
		var rec models.VocabularyRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			r.logger.Warn("Skipping corrupt vocabulary entry", zap.String("word", key), zap.Error(err))
			continue
		}
		snap.Records = append(snap.Records, rec)
	}

	saved, err := r.client.LRange(ctx, r.savedKey(), 0, -1).Result()
	if err != nil {
		return vocabulary.Snapshot{}, fmt.Errorf("failed to get saved words: %w", err)
	}
	snap.Saved = saved
	return snap, nil
}

// SaveRecord writes a record, appending its key to the order list when new
func (r *RedisRepository) SaveRecord(ctx context.Context, key string, record models.VocabularyRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode word %q: %w", key, err)
	}

	exists, err := r.client.HExists(ctx, r.vocabularyKey(), key).Result()
	if err != nil {
		return fmt.Errorf("failed to check word %q: %w", key, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, r.vocabularyKey(), key, data)
		if !exists {
			pipe.RPush(ctx, r.orderKey(), key)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save word %q: %w", key, err)
	}
	return nil
}

// DeleteRecord removes a record, its position and its saved marker
func (r *RedisRepository) DeleteRecord(ctx context.Context, key string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HDel(ctx, r.vocabularyKey(), key)
		pipe.LRem(ctx, r.orderKey(), 0, key)
		pipe.LRem(ctx, r.savedKey(), 0, key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete word %q: %w", key, err)
	}
	return nil
}

// SaveSavedWords replaces the ordered saved list
func (r *RedisRepository) SaveSavedWords(ctx context.Context, keys []string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.savedKey())
		if len(keys) > 0 {
			values := make([]interface{}, len(keys))
			for i, k := range keys {
				values[i] = k
			}
			pipe.RPush(ctx, r.savedKey(), values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save saved words: %w", err)
	}
	return nil
}

// LoadProgress returns the stored progress document, or nil if none exists
func (r *RedisRepository) LoadProgress(ctx context.Context) (*models.Progress, error) {
	raw, err := r.client.Get(ctx, r.progressKey()).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get progress: %w", err)
	}

	p := economy.InitialProgress()
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("%w: progress: %v", ErrCorrupt, err)
	}
	return &p, nil
}

// SaveProgress overwrites the progress document
func (r *RedisRepository) SaveProgress(ctx context.Context, progress models.Progress) error {
	data, err := json.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}
	if err := r.client.Set(ctx, r.progressKey(), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}

// Close closes the redis client
func (r *RedisRepository) Close() error {
	return r.client.Close()
}
