package repository

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/jmehdipour/balance-batch/internal/codec"
	"github.com/jmehdipour/balance-batch/internal/model"
)

// RedisRepository keeps customers as encoded lines in one list, in store order.
// Saving an empty collection deletes the key.
type RedisRepository struct {
	rdb   redis.Cmdable
	key   string
	codec codec.Codec
	log   *zap.Logger
}

func NewRedisRepository(rdb redis.Cmdable, key string, c codec.Codec, log *zap.Logger) *RedisRepository {
	return &RedisRepository{rdb: rdb, key: key, codec: c, log: orNop(log)}
}

var _ CustomersRepository = (*RedisRepository)(nil)

func (r *RedisRepository) LoadAll(ctx context.Context) ([]model.Customer, int, error) {
	n, err := r.rdb.Exists(ctx, r.key).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("exists %s: %w", r.key, err)
	}
	if n == 0 {
		return nil, 0, fmt.Errorf("%w: redis key %s", ErrSourceMissing, r.key)
	}

	lines, err := r.rdb.LRange(ctx, r.key, 0, -1).Result()
	if err != nil {
		return nil, 0, fmt.Errorf("lrange %s: %w", r.key, err)
	}

	dec := &recordDecoder{codec: r.codec, log: r.log, source: "redis:" + r.key}
	out := make([]model.Customer, 0, len(lines))
	for i, raw := range lines {
		if c, ok := dec.line(raw, i+1); ok {
			out = append(out, c)
		}
	}
	return out, dec.skipped, nil
}

func (r *RedisRepository) SaveAll(ctx context.Context, customers []model.Customer) error {
	if err := checkIDs(r.codec, customers); err != nil {
		return fmt.Errorf("save %s: %w", r.key, err)
	}
	vals := make([]any, 0, len(customers))
	for _, c := range customers {
		vals = append(vals, r.codec.FormatCustomer(c))
	}

	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.key)
		if len(vals) > 0 {
			p.RPush(ctx, r.key, vals...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save %s: %w", r.key, err)
	}
	return nil
}
