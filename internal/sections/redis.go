package sections

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lavrova/rfpdesk/internal/common"
)

const (
	templateKey = "rfpdesk:template"
	consentKey  = "rfpdesk:template:consent"
)

// RedisStore persists the template record so every instance observes the
// same template and consent state, across restarts. Replacement is
// optimistic: WATCH on the record key turns a concurrent overwrite into
// ErrVersionConflict instead of a lost update.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(redisURL string) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisStore{client: client}, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Client returns the underlying redis client (health checks).
func (s *RedisStore) Client() *redis.Client {
	return s.client
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Get(ctx context.Context) (*Record, error) {
	raw, err := s.client.Get(ctx, templateKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, common.ErrTemplateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get template record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("decode template record: %w", err)
	}
	return &rec, nil
}

func (s *RedisStore) Replace(ctx context.Context, sectionNames []string, expectVersion int64) (*Record, error) {
	next := &Record{
		Sections: append([]string(nil), sectionNames...),
		Version:  expectVersion + 1,
	}

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, templateKey).Result()
		var current int64
		switch {
		case errors.Is(err, redis.Nil):
			current = 0
		case err != nil:
			return fmt.Errorf("read current record: %w", err)
		default:
			var rec Record
			if err := json.Unmarshal([]byte(raw), &rec); err != nil {
				return fmt.Errorf("decode current record: %w", err)
			}
			current = rec.Version
		}

		if current != expectVersion {
			return common.ErrVersionConflict
		}

		payload, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, templateKey, payload, 0)
			return nil
		})
		return err
	}, templateKey)

	if errors.Is(err, redis.TxFailedErr) {
		return nil, common.ErrVersionConflict
	}
	if err != nil {
		return nil, err
	}
	return next, nil
}

func (s *RedisStore) ConsentGranted(ctx context.Context) (bool, error) {
	n, err := s.client.Exists(ctx, consentKey).Result()
	if err != nil {
		return false, fmt.Errorf("check consent flag: %w", err)
	}
	return n > 0, nil
}

func (s *RedisStore) GrantConsent(ctx context.Context) error {
	if err := s.client.Set(ctx, consentKey, "granted", 0).Err(); err != nil {
		return fmt.Errorf("set consent flag: %w", err)
	}
	return nil
}
