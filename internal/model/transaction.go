package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

type TxKind uint8

const (
	TxKindUnrecognized TxKind = iota
	TxKindAdd
	TxKindSubtract
)

// TxType is a closed variant: ADD, SUBTRACT, or an unrecognized token kept verbatim.
type TxType struct {
	kind  TxKind
	token string
}

var (
	TxAdd      = TxType{kind: TxKindAdd, token: "ADD"}
	TxSubtract = TxType{kind: TxKindSubtract, token: "SUBTRACT"}
)

// TxUnrecognized wraps a token that is neither ADD nor SUBTRACT.
func TxUnrecognized(token string) TxType {
	return TxType{kind: TxKindUnrecognized, token: token}
}

// ParseTxType is case-sensitive on the trimmed token.
// Returns (value, true) for ADD/SUBTRACT; otherwise (unrecognized(token), false).
func ParseTxType(s string) (TxType, bool) {
	switch tok := strings.TrimSpace(s); tok {
	case "ADD":
		return TxAdd, true
	case "SUBTRACT":
		return TxSubtract, true
	default:
		return TxUnrecognized(tok), false
	}
}

func (t TxType) Kind() TxKind { return t.kind }
func (t TxType) String() string { return t.token }

func (t TxType) Valid() bool {
	return t.kind == TxKindAdd || t.kind == TxKindSubtract
}

// Transaction is one line of the transaction file. Never persisted.
type Transaction struct {
	CustomerID string
	Type       TxType
	Amount     decimal.Decimal
}
