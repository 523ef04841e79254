// Package feed produces the transactions of one run. A feed is finite and
// is read once.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jmehdipour/balance-batch/internal/codec"
	"github.com/jmehdipour/balance-batch/internal/model"
)

// Feed yields transactions until io.EOF. A *codec.LineError means one input
// line was skipped and the feed can keep going; any other error ends it.
type Feed interface {
	Next(ctx context.Context) (model.Transaction, error)
	Close() error
}

// LineFeed reads one transaction per line. Blank lines are ignored, and a
// line over the codec's limit is reported like any other malformed line.
type LineFeed struct {
	lr     *codec.LineReader
	codec  codec.Codec
	closer io.Closer
	done   bool
}

var _ Feed = (*LineFeed)(nil)

func NewLineFeed(r io.Reader, c codec.Codec) *LineFeed {
	f := &LineFeed{lr: c.NewLineReader(r), codec: c}
	if rc, ok := r.(io.Closer); ok {
		f.closer = rc
	}
	return f
}

// OpenFile opens path as a LineFeed; the caller closes it.
func OpenFile(path string, c codec.Codec) (*LineFeed, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open transactions %s: %w", path, err)
	}
	return NewLineFeed(fh, c), nil
}

func (f *LineFeed) Next(ctx context.Context) (model.Transaction, error) {
	if f.done {
		return model.Transaction{}, io.EOF
	}
	for {
		if err := ctx.Err(); err != nil {
			f.done = true
			return model.Transaction{}, err
		}
		raw, err := f.lr.Next()
		if errors.Is(err, io.EOF) {
			f.done = true
			return model.Transaction{}, io.EOF
		}
		var lineErr *codec.LineError
		if errors.As(err, &lineErr) {
			return model.Transaction{}, lineErr
		}
		if err != nil {
			f.done = true
			return model.Transaction{}, fmt.Errorf("read transactions: %w", err)
		}
		if strings.TrimSpace(raw) == "" {
			continue
		}
		tx, err := f.codec.ParseTransaction(raw)
		if err != nil {
			return model.Transaction{}, &codec.LineError{Line: f.lr.Line(), Raw: raw, Err: err}
		}
		return tx, nil
	}
}

func (f *LineFeed) Close() error {
	f.done = true
	if f.closer == nil {
		return nil
	}
	return f.closer.Close()
}
