// Package applier applies transactions to the customers of a store.
package applier

import (
	"go.uber.org/zap"

	"github.com/jmehdipour/balance-batch/internal/codec"
	"github.com/jmehdipour/balance-batch/internal/metrics"
	"github.com/jmehdipour/balance-batch/internal/model"
	"github.com/jmehdipour/balance-batch/internal/store"
)

type Outcome int

const (
	Applied Outcome = iota
	NotFound
	UnknownType
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case NotFound:
		return "not_found"
	case UnknownType:
		return "unknown_type"
	default:
		return "unknown"
	}
}

// Applier mutates balances in place. Failures are logged, never returned.
type Applier struct {
	log *zap.Logger
}

func New(log *zap.Logger) *Applier {
	if log == nil {
		log = zap.NewNop()
	}
	return &Applier{log: log}
}

// Apply looks up tx.CustomerID (first match) and adjusts its balance.
// Balances may go negative.
func (a *Applier) Apply(tx model.Transaction, s *store.Store) Outcome {
	out := a.apply(tx, s)
	metrics.TransactionsTotal.WithLabelValues(out.String()).Inc()
	return out
}

func (a *Applier) apply(tx model.Transaction, s *store.Store) Outcome {
	c, ok := s.Find(tx.CustomerID)
	if !ok {
		a.log.Warn("customer not found",
			zap.String("customer_id", tx.CustomerID),
			zap.String("type", tx.Type.String()),
			zap.String("amount", codec.FormatAmount(tx.Amount)),
		)
		return NotFound
	}

	switch tx.Type.Kind() {
	case model.TxKindAdd:
		c.Balance = c.Balance.Add(tx.Amount)
	case model.TxKindSubtract:
		c.Balance = c.Balance.Sub(tx.Amount)
	default:
		a.log.Warn("unknown transaction type",
			zap.String("type", tx.Type.String()),
			zap.String("customer_id", tx.CustomerID),
		)
		return UnknownType
	}

	a.log.Debug("transaction applied",
		zap.String("customer_id", c.ID),
		zap.String("type", tx.Type.String()),
		zap.String("amount", codec.FormatAmount(tx.Amount)),
		zap.String("balance", codec.FormatAmount(c.Balance)),
	)
	return Applied
}
