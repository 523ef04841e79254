package feed

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/jmehdipour/balance-batch/internal/codec"
	"github.com/jmehdipour/balance-batch/internal/model"
)

var chTableRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// Rows is the part of *sqlx.Rows the ClickHouse feed reads.
type Rows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
	Close() error
}

// ClickHouseFeed streams transactions from a table ordered by seq. Each row
// carries customer_id, type and amount; amount is read as text so its scale
// survives. Row numbers stand in for line numbers in a *codec.LineError.
type ClickHouseFeed struct {
	rows Rows
	n    int
	done bool
}

var _ Feed = (*ClickHouseFeed)(nil)

func NewClickHouseFeed(rows Rows) *ClickHouseFeed {
	return &ClickHouseFeed{rows: rows}
}

// QueryClickHouse runs the feed query against table and returns the open feed.
func QueryClickHouse(ctx context.Context, ch *sqlx.DB, table string) (*ClickHouseFeed, error) {
	if !chTableRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	q := fmt.Sprintf(`SELECT customer_id, type, toString(amount) AS amount FROM %s ORDER BY seq`, table)
	rows, err := ch.QueryxContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query transactions %s: %w", table, err)
	}
	return NewClickHouseFeed(rows), nil
}

func (f *ClickHouseFeed) Next(ctx context.Context) (model.Transaction, error) {
	if f.done {
		return model.Transaction{}, io.EOF
	}
	if err := ctx.Err(); err != nil {
		f.done = true
		return model.Transaction{}, err
	}
	if !f.rows.Next() {
		f.done = true
		if err := f.rows.Err(); err != nil {
			return model.Transaction{}, fmt.Errorf("read transactions: %w", err)
		}
		return model.Transaction{}, io.EOF
	}
	f.n++

	var id, typ, amount string
	if err := f.rows.Scan(&id, &typ, &amount); err != nil {
		return model.Transaction{}, &codec.LineError{Line: f.n, Err: err}
	}
	tx, err := codec.ParseTransactionFields(id, typ, amount)
	if err != nil {
		raw := strings.Join([]string{id, typ, amount}, ",")
		return model.Transaction{}, &codec.LineError{Line: f.n, Raw: raw, Err: err}
	}
	return tx, nil
}

func (f *ClickHouseFeed) Close() error {
	f.done = true
	return f.rows.Close()
}
