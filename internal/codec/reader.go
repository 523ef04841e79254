package codec

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// DefaultMaxLineBytes bounds a single input line when no limit is configured.
const DefaultMaxLineBytes = 64 << 10

// rawPrefix is how much of an over-long line LineError.Raw keeps.
const rawPrefix = 64

var ErrLineTooLong = errors.New("line too long")

// LineReader yields lines without their terminator. A line longer than the
// limit is consumed in full and reported as a *LineError wrapping
// ErrLineTooLong, so the caller can skip it and keep reading.
type LineReader struct {
	r   *bufio.Reader
	max int
	n   int
}

func NewLineReader(r io.Reader, maxLineBytes int) *LineReader {
	if maxLineBytes <= 0 {
		maxLineBytes = DefaultMaxLineBytes
	}
	return &LineReader{r: bufio.NewReader(r), max: maxLineBytes}
}

// Line is the 1-based number of the line last returned.
func (lr *LineReader) Line() int { return lr.n }

// Next returns io.EOF once the input is exhausted; other errors come from the reader.
func (lr *LineReader) Next() (string, error) {
	var (
		buf     []byte
		prefix  []byte
		size    int
		tooLong bool
	)
	for {
		chunk, err := lr.r.ReadSlice('\n')
		size += len(chunk)
		if prefix == nil && len(chunk) > 0 {
			prefix = append([]byte(nil), chunk[:min(len(chunk), rawPrefix)]...)
		}
		// +2 leaves room for a \r\n terminator
		if !tooLong && size > lr.max+2 {
			tooLong, buf = true, nil
		}
		if !tooLong {
			buf = append(buf, chunk...)
		}

		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		if errors.Is(err, io.EOF) && size == 0 {
			return "", io.EOF
		}
		break
	}

	lr.n++
	line := bytes.TrimSuffix(buf, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if tooLong || len(line) > lr.max {
		return "", &LineError{
			Line: lr.n,
			Raw:  string(bytes.TrimRight(prefix, "\r\n")),
			Err:  fmt.Errorf("%w: over %d bytes", ErrLineTooLong, lr.max),
		}
	}
	return string(line), nil
}
