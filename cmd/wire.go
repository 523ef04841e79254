package cmd

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jmehdipour/balance-batch/internal/codec"
	"github.com/jmehdipour/balance-batch/internal/config"
	"github.com/jmehdipour/balance-batch/internal/db"
	"github.com/jmehdipour/balance-batch/internal/feed"
	"github.com/jmehdipour/balance-batch/internal/kafka"
	"github.com/jmehdipour/balance-batch/internal/repository"
)

// customerRepos returns the load and save repositories for the configured
// backend. For mysql and redis both are the same repository.
func customerRepos(cfg config.Config, log *zap.Logger) (src, sink repository.CustomersRepository, closeFn func(), err error) {
	c := newCodec(cfg)

	switch cfg.Storage.Backend {
	case config.BackendMySQL:
		dbx, err := db.NewMySQLConnection(cfg.MySQL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("mysql connect: %w", err)
		}
		repo, err := repository.NewMySQLRepository(dbx, cfg.MySQL.Table, cfg.MySQL.InsertBatch, log)
		if err != nil {
			_ = dbx.Close()
			return nil, nil, nil, err
		}
		return repo, repo, func() { _ = dbx.Close() }, nil

	case config.BackendRedis:
		rdb, err := db.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("redis connect: %w", err)
		}
		repo := repository.NewRedisRepository(rdb, cfg.Redis.Key, c, log)
		return repo, repo, func() { _ = rdb.Close() }, nil

	default:
		in := repository.NewFileRepository(cfg.Files.Customers, c,
			repository.WithLogger(log),
			repository.WithAtomicWrite(cfg.Files.AtomicWrite),
		)
		out := repository.NewFileRepository(cfg.Files.Output, c,
			repository.WithLogger(log),
			repository.WithAtomicWrite(cfg.Files.AtomicWrite),
		)
		return in, out, func() {}, nil
	}
}

// feedOpener defers opening the transaction source until the PROCESS stage.
func feedOpener(cfg config.Config) func(ctx context.Context) (feed.Feed, error) {
	c := newCodec(cfg)

	switch cfg.Feed.Source {
	case config.FeedKafka:
		return func(ctx context.Context) (feed.Feed, error) {
			consumer, err := kafka.NewBoundedConsumer(ctx, kafka.Config{
				Brokers:     cfg.Kafka.Brokers,
				Topic:       cfg.Kafka.Topic,
				Partition:   cfg.Kafka.Partition,
				MinBytes:    cfg.Kafka.MinBytes,
				MaxBytes:    cfg.Kafka.MaxBytes,
				MaxWait:     cfg.Kafka.MaxWait,
				IdleTimeout: cfg.Kafka.IdleTimeout,
			})
			if err != nil {
				return nil, err
			}
			return feed.NewKafkaFeed(consumer, c), nil
		}

	case config.FeedClickHouse:
		return func(ctx context.Context) (feed.Feed, error) {
			ch, err := db.NewClickHouseConnection(cfg.ClickHouse)
			if err != nil {
				return nil, fmt.Errorf("clickhouse connect: %w", err)
			}
			f, err := feed.QueryClickHouse(ctx, ch, cfg.ClickHouse.Table)
			if err != nil {
				_ = ch.Close()
				return nil, err
			}
			return ownedFeed{Feed: f, release: ch.Close}, nil
		}
	}

	return func(context.Context) (feed.Feed, error) {
		return feed.OpenFile(cfg.Files.Transactions, c)
	}
}

func newCodec(cfg config.Config) codec.Codec {
	c := codec.New(cfg.Files.Delimiter)
	c.MaxLineBytes = cfg.Files.MaxLineBytes
	return c
}

// ownedFeed releases the connection behind a feed when the feed is closed.
type ownedFeed struct {
	feed.Feed
	release func() error
}

func (f ownedFeed) Close() error {
	return errors.Join(f.Feed.Close(), f.release())
}
