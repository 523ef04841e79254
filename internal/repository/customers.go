package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jmehdipour/balance-batch/internal/codec"
	"github.com/jmehdipour/balance-batch/internal/metrics"
	"github.com/jmehdipour/balance-batch/internal/model"
)

// CustomersRepository loads and saves the whole customer collection in order.
// LoadAll also reports how many malformed records it skipped. SaveAll
// replaces whatever the backend held before.
type CustomersRepository interface {
	LoadAll(ctx context.Context) (customers []model.Customer, skipped int, err error)
	SaveAll(ctx context.Context, customers []model.Customer) error
}

// ErrSourceMissing is returned by LoadAll when the backend holds no collection at all.
var ErrSourceMissing = errors.New("customer source missing")

// recordDecoder parses customer records, skipping blanks and logging malformed ones.
type recordDecoder struct {
	codec   codec.Codec
	log     *zap.Logger
	source  string
	skipped int
}

// line decodes one encoded customer line; n is its 1-based position.
func (d *recordDecoder) line(raw string, n int) (model.Customer, bool) {
	if strings.TrimSpace(raw) == "" {
		return model.Customer{}, false
	}
	c, err := d.codec.ParseCustomer(raw)
	if err != nil {
		d.skip(n, err, zap.String("raw", raw))
		return model.Customer{}, false
	}
	return c, true
}

// fields decodes one customer stored as separate columns.
func (d *recordDecoder) fields(id, balance string, n int) (model.Customer, bool) {
	c, err := codec.ParseCustomerFields(id, balance)
	if err != nil {
		d.skip(n, err, zap.String("customer_id", id), zap.String("balance", balance))
		return model.Customer{}, false
	}
	return c, true
}

func (d *recordDecoder) skip(n int, err error, fields ...zap.Field) {
	d.skipped++
	metrics.LinesSkippedTotal.WithLabelValues("customers").Inc()
	d.log.Warn("skipping malformed customer record", append([]zap.Field{
		zap.String("source", d.source),
		zap.Int("line", n),
		zap.Error(err),
	}, fields...)...)
}

// checkIDs rejects a collection whose ids would not read back as written.
func checkIDs(c codec.Codec, customers []model.Customer) error {
	for i, cu := range customers {
		if err := c.CheckID(cu.ID); err != nil {
			return fmt.Errorf("customer %d: %w", i+1, err)
		}
	}
	return nil
}

func orNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
