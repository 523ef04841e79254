package feed

import (
	"context"
	"strings"

	"github.com/jmehdipour/balance-batch/internal/codec"
	"github.com/jmehdipour/balance-batch/internal/kafka"
	"github.com/jmehdipour/balance-batch/internal/model"
)

// Fetcher is the part of kafka.Consumer the feed needs.
type Fetcher interface {
	Fetch(ctx context.Context) (kafka.Message, error)
	Close() error
}

// KafkaFeed decodes each message value as one transaction line.
type KafkaFeed struct {
	src   Fetcher
	codec codec.Codec
	n     int
}

var _ Feed = (*KafkaFeed)(nil)

func NewKafkaFeed(src Fetcher, c codec.Codec) *KafkaFeed {
	return &KafkaFeed{src: src, codec: c}
}

func (f *KafkaFeed) Next(ctx context.Context) (model.Transaction, error) {
	for {
		m, err := f.src.Fetch(ctx)
		if err != nil {
			return model.Transaction{}, err
		}
		f.n++
		raw := string(m.Value)
		if strings.TrimSpace(raw) == "" {
			continue
		}
		tx, err := f.codec.ParseTransaction(raw)
		if err != nil {
			return model.Transaction{}, &codec.LineError{Line: f.n, Raw: raw, Err: err}
		}
		return tx, nil
	}
}

func (f *KafkaFeed) Close() error { return f.src.Close() }
