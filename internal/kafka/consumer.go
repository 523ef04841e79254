package kafka

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/segmentio/kafka-go"
)

const defaultIdleTimeout = 10 * time.Second

type Config struct {
	Brokers     []string
	Topic       string
	Partition   int
	MinBytes    int           // default 1B
	MaxBytes    int           // default 10MB
	MaxWait     time.Duration // default 500ms
	IdleTimeout time.Duration // default 10s
}

// reader is the part of *kafka.Reader the consumer uses.
type reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Consumer reads one partition from its first offset up to the high-water
// mark seen when it was opened, then reports io.EOF. Messages produced
// after open belong to the next run.
//
// Offsets below the mark that hold transaction control records are never
// delivered, so a read that stays idle for the idle timeout also ends the
// partition.
type Consumer struct {
	r    reader
	next int64
	end  int64
	idle time.Duration
	done bool
}

type Message = kafka.Message

func NewBoundedConsumer(ctx context.Context, c Config) (*Consumer, error) {
	if len(c.Brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	if c.Topic == "" {
		return nil, errors.New("kafka: empty topic")
	}

	conn, err := kafka.DialLeader(ctx, "tcp", c.Brokers[0], c.Topic, c.Partition)
	if err != nil {
		return nil, fmt.Errorf("dial leader %s/%d: %w", c.Topic, c.Partition, err)
	}
	first, last, err := conn.ReadOffsets()
	_ = conn.Close()
	if err != nil {
		return nil, fmt.Errorf("read offsets %s/%d: %w", c.Topic, c.Partition, err)
	}

	min := c.MinBytes
	if min <= 0 {
		min = 1
	}
	max := c.MaxBytes
	if max <= 0 {
		max = 10 << 20 // 10MB
	}
	mw := c.MaxWait
	if mw <= 0 {
		mw = 500 * time.Millisecond
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   c.Brokers,
		Topic:     c.Topic,
		Partition: c.Partition,
		MinBytes:  min,
		MaxBytes:  max,
		MaxWait:   mw,
	})
	if err := r.SetOffset(first); err != nil {
		_ = r.Close()
		return nil, err
	}

	return newConsumer(r, first, last, c.IdleTimeout), nil
}

func newConsumer(r reader, first, end int64, idle time.Duration) *Consumer {
	if idle <= 0 {
		idle = defaultIdleTimeout
	}
	return &Consumer{r: r, next: first, end: end, idle: idle}
}

// Fetch returns the next message, or io.EOF once the captured high-water
// mark is reached or the partition stays idle for the idle timeout.
func (c *Consumer) Fetch(ctx context.Context) (Message, error) {
	if c.done || c.next >= c.end {
		return Message{}, io.EOF
	}

	rctx, cancel := context.WithTimeout(ctx, c.idle)
	defer cancel()

	m, err := c.r.ReadMessage(rctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			c.done = true
			return Message{}, io.EOF
		}
		return Message{}, err
	}
	c.next = m.Offset + 1
	return m, nil
}

func (c *Consumer) Close() error { return c.r.Close() }
