package repository

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jmehdipour/balance-batch/internal/codec"
	"github.com/jmehdipour/balance-batch/internal/model"
)

// FileRepository keeps customers in a line-oriented text file.
type FileRepository struct {
	path   string
	codec  codec.Codec
	atomic bool
	log    *zap.Logger
}

type FileOption func(*FileRepository)

// WithAtomicWrite makes SaveAll write a temp file and rename it over path.
func WithAtomicWrite(enabled bool) FileOption {
	return func(r *FileRepository) { r.atomic = enabled }
}

func WithLogger(l *zap.Logger) FileOption {
	return func(r *FileRepository) { r.log = orNop(l) }
}

func NewFileRepository(path string, c codec.Codec, opts ...FileOption) *FileRepository {
	r := &FileRepository{
		path:   path,
		codec:  c,
		atomic: true,
		log:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var _ CustomersRepository = (*FileRepository)(nil)

func (r *FileRepository) Path() string { return r.path }

// LoadAll reads every well-formed line. Malformed lines, including lines over
// the codec's length limit, are skipped with a warning.
func (r *FileRepository) LoadAll(ctx context.Context) ([]model.Customer, int, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, 0, fmt.Errorf("open customers %s: %w", r.path, err)
	}
	defer f.Close()

	dec := &recordDecoder{codec: r.codec, log: r.log, source: r.path}
	lr := r.codec.NewLineReader(f)
	var out []model.Customer

	for {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		raw, err := lr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var lineErr *codec.LineError
		if errors.As(err, &lineErr) {
			dec.skip(lineErr.Line, lineErr.Err, zap.String("raw", lineErr.Raw))
			continue
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read customers %s: %w", r.path, err)
		}
		if c, ok := dec.line(raw, lr.Line()); ok {
			out = append(out, c)
		}
	}
	return out, dec.skipped, nil
}

// SaveAll overwrites the file in full, one customer per line. Nothing is
// written when an id fails codec.CheckID.
func (r *FileRepository) SaveAll(ctx context.Context, customers []model.Customer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := checkIDs(r.codec, customers); err != nil {
		return fmt.Errorf("save customers %s: %w", r.path, err)
	}
	if !r.atomic {
		f, err := os.Create(r.path)
		if err != nil {
			return fmt.Errorf("create customers %s: %w", r.path, err)
		}
		if err := r.write(f, customers); err != nil {
			_ = f.Close()
			return err
		}
		return f.Close()
	}

	dir, base := filepath.Split(r.path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp for %s: %w", r.path, err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }() // no-op after a successful rename

	if err := r.write(tmp, customers); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmpPath, err)
	}

	mode := fs.FileMode(0o644)
	if st, err := os.Stat(r.path); err == nil {
		mode = st.Mode().Perm()
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		return fmt.Errorf("chmod %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, r.path); err != nil {
		return fmt.Errorf("rename %s -> %s: %w", tmpPath, r.path, err)
	}
	return nil
}

func (r *FileRepository) write(f *os.File, customers []model.Customer) error {
	w := bufio.NewWriter(f)
	for _, c := range customers {
		if _, err := w.WriteString(r.codec.FormatCustomer(c)); err != nil {
			return fmt.Errorf("write customers %s: %w", r.path, err)
		}
		if err := w.WriteByte('\n'); err != nil {
			return fmt.Errorf("write customers %s: %w", r.path, err)
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush customers %s: %w", r.path, err)
	}
	return nil
}
