package model

import "github.com/shopspring/decimal"

// Customer is one record of the customer master file.
type Customer struct {
	ID      string          `db:"customer_id"`
	Balance decimal.Decimal `db:"balance"`
}

// Equal compares by identifier and balance value (1.5 == 1.50).
func (c Customer) Equal(o Customer) bool {
	return c.ID == o.ID && c.Balance.Equal(o.Balance)
}
