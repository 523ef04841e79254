// Package codec encodes customers and transactions as delimiter-separated lines.
package codec

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/jmehdipour/balance-batch/internal/model"
	"github.com/shopspring/decimal"
)

const DefaultDelimiter = ","

// minScale is the fraction digit count balances are written with unless they carry more.
const minScale = 2

var (
	ErrFieldCount = errors.New("unexpected field count")
	ErrEmptyID    = errors.New("empty customer id")
	ErrAmount     = errors.New("invalid amount")
	ErrIDPadding  = errors.New("customer id has leading or trailing whitespace")
	ErrIDReserved = errors.New("customer id contains the delimiter or a line break")
)

// LineError reports a line that did not parse. Line is 1-based.
type LineError struct {
	Line int
	Raw  string
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Codec parses and formats records with a fixed delimiter. MaxLineBytes
// bounds one input line; zero means DefaultMaxLineBytes.
type Codec struct {
	Delimiter    string
	MaxLineBytes int
}

func New(delim string) Codec {
	if delim == "" {
		delim = DefaultDelimiter
	}
	return Codec{Delimiter: delim}
}

func (c Codec) delim() string {
	if c.Delimiter == "" {
		return DefaultDelimiter
	}
	return c.Delimiter
}

// ParseCustomer parses "<id><delim><balance>".
func (c Codec) ParseCustomer(line string) (model.Customer, error) {
	fields, err := c.split(line, 2)
	if err != nil {
		return model.Customer{}, err
	}
	return ParseCustomerFields(fields[0], fields[1])
}

// ParseCustomerFields builds a customer from already separated columns.
func ParseCustomerFields(id, balance string) (model.Customer, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Customer{}, ErrEmptyID
	}
	bal, err := parseAmount(strings.TrimSpace(balance))
	if err != nil {
		return model.Customer{}, err
	}
	return model.Customer{ID: id, Balance: bal}, nil
}

// FormatCustomer is the inverse of ParseCustomer for every customer CheckID accepts.
func (c Codec) FormatCustomer(cu model.Customer) string {
	return cu.ID + c.delim() + FormatAmount(cu.Balance)
}

// CheckID reports whether id survives FormatCustomer followed by ParseCustomer.
func (c Codec) CheckID(id string) error {
	switch {
	case id == "":
		return ErrEmptyID
	case strings.TrimSpace(id) != id:
		return fmt.Errorf("%w: %q", ErrIDPadding, id)
	case strings.Contains(id, c.delim()), strings.ContainsAny(id, "\r\n"):
		return fmt.Errorf("%w: %q", ErrIDReserved, id)
	}
	return nil
}

// NewLineReader reads r line by line with the codec's line limit.
func (c Codec) NewLineReader(r io.Reader) *LineReader {
	return NewLineReader(r, c.MaxLineBytes)
}

// ParseTransaction parses "<id><delim><type><delim><amount>".
// An unknown type token is not an error; it becomes model.TxUnrecognized.
func (c Codec) ParseTransaction(line string) (model.Transaction, error) {
	fields, err := c.split(line, 3)
	if err != nil {
		return model.Transaction{}, err
	}
	return ParseTransactionFields(fields[0], fields[1], fields[2])
}

// ParseTransactionFields builds a transaction from already separated columns.
func ParseTransactionFields(id, typ, amount string) (model.Transaction, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return model.Transaction{}, ErrEmptyID
	}
	amt, err := parseAmount(strings.TrimSpace(amount))
	if err != nil {
		return model.Transaction{}, err
	}
	t, _ := model.ParseTxType(typ)
	return model.Transaction{CustomerID: id, Type: t, Amount: amt}, nil
}

// FormatTransaction is the inverse of ParseTransaction.
func (c Codec) FormatTransaction(tx model.Transaction) string {
	d := c.delim()
	return tx.CustomerID + d + tx.Type.String() + d + FormatAmount(tx.Amount)
}

// FormatAmount writes at least two fraction digits, more when d needs them.
// Trailing zeros beyond two digits are dropped, so 1.5000 prints as 1.50.
func FormatAmount(d decimal.Decimal) string {
	s := d.String() // trailing zeros trimmed
	if i := strings.IndexByte(s, '.'); i >= 0 && len(s)-i-1 > minScale {
		return s
	}
	return d.StringFixed(minScale)
}

func (c Codec) split(line string, want int) ([]string, error) {
	fields := strings.Split(line, c.delim())
	if len(fields) != want {
		return nil, fmt.Errorf("%w: got %d, want %d", ErrFieldCount, len(fields), want)
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	if fields[0] == "" {
		return nil, ErrEmptyID
	}
	return fields, nil
}

func parseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w %q", ErrAmount, s)
	}
	return d, nil
}
