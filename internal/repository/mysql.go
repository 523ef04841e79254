package repository

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/jmehdipour/balance-batch/internal/codec"
	"github.com/jmehdipour/balance-batch/internal/model"
)

const defaultInsertBatch = 500

var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// MySQLRepository keeps customers in one table; seq preserves load order.
// Balances are stored in codec.FormatAmount form so no precision is lost.
type MySQLRepository struct {
	db    *sqlx.DB
	table string
	batch int
	log   *zap.Logger
}

type customerRow struct {
	ID      string `db:"customer_id"`
	Balance string `db:"balance"`
}

func NewMySQLRepository(db *sqlx.DB, table string, batch int, log *zap.Logger) (*MySQLRepository, error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if batch <= 0 {
		batch = defaultInsertBatch
	}
	return &MySQLRepository{db: db, table: table, batch: batch, log: orNop(log)}, nil
}

var _ CustomersRepository = (*MySQLRepository)(nil)

func (r *MySQLRepository) LoadAll(ctx context.Context) ([]model.Customer, int, error) {
	var rows []customerRow
	q := fmt.Sprintf(`SELECT customer_id, balance FROM %s ORDER BY seq`, r.table)
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, 0, fmt.Errorf("select customers: %w", err)
	}

	dec := &recordDecoder{log: r.log, source: "mysql:" + r.table}
	out := make([]model.Customer, 0, len(rows))
	for i, row := range rows {
		if c, ok := dec.fields(row.ID, row.Balance, i+1); ok {
			out = append(out, c)
		}
	}
	return out, dec.skipped, nil
}

// SaveAll replaces the table contents in a single transaction.
func (r *MySQLRepository) SaveAll(ctx context.Context, customers []model.Customer) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s`, r.table)); err != nil {
		return fmt.Errorf("clear customers: %w", err)
	}

	for start := 0; start < len(customers); start += r.batch {
		end := min(start+r.batch, len(customers))
		if err := r.insertBatch(ctx, tx, start, customers[start:end]); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit customers: %w", err)
	}
	return nil
}

func (r *MySQLRepository) insertBatch(ctx context.Context, tx *sqlx.Tx, offset int, rows []model.Customer) error {
	var sb strings.Builder
	args := make([]any, 0, len(rows)*3)

	sb.WriteString("INSERT INTO ")
	sb.WriteString(r.table)
	sb.WriteString(" (seq, customer_id, balance) VALUES ")
	for i, c := range rows {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString("(?, ?, ?)")
		args = append(args, offset+i+1, c.ID, codec.FormatAmount(c.Balance))
	}

	if _, err := tx.ExecContext(ctx, sb.String(), args...); err != nil {
		return fmt.Errorf("insert customers [%d,%d): %w", offset, offset+len(rows), err)
	}
	return nil
}
