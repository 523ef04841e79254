package codec

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, lr *LineReader) ([]string, []*LineError) {
	t.Helper()
	var lines []string
	var bad []*LineError
	for {
		line, err := lr.Next()
		if errors.Is(err, io.EOF) {
			return lines, bad
		}
		var le *LineError
		if errors.As(err, &le) {
			bad = append(bad, le)
			continue
		}
		require.NoError(t, err)
		lines = append(lines, line)
	}
}

func TestLineReaderSplitsLines(t *testing.T) {
	lr := NewLineReader(strings.NewReader("a\r\nb\n\nc"), 0)
	lines, bad := readAll(t, lr)
	assert.Equal(t, []string{"a", "b", "", "c"}, lines)
	assert.Empty(t, bad)
	assert.Equal(t, 4, lr.Line())
}

func TestLineReaderSkipsOverlongLine(t *testing.T) {
	in := "C1,100.00\n" + strings.Repeat("x", 70000) + "\nC2,50.00\n"
	lr := NewLineReader(strings.NewReader(in), 0)

	lines, bad := readAll(t, lr)
	assert.Equal(t, []string{"C1,100.00", "C2,50.00"}, lines)
	require.Len(t, bad, 1)
	assert.Equal(t, 2, bad[0].Line)
	assert.ErrorIs(t, bad[0], ErrLineTooLong)
	assert.Len(t, bad[0].Raw, rawPrefix)
}

func TestLineReaderLimitIsExact(t *testing.T) {
	in := strings.Repeat("y", 8) + "\n" + strings.Repeat("z", 9) + "\r\n" + "ok"
	lines, bad := readAll(t, NewLineReader(strings.NewReader(in), 8))

	assert.Equal(t, []string{"yyyyyyyy", "ok"}, lines)
	require.Len(t, bad, 1)
	assert.Equal(t, 2, bad[0].Line)
}

func TestLineReaderOverlongLastLine(t *testing.T) {
	in := "C1,1\n" + strings.Repeat("x", 5000)
	lines, bad := readAll(t, NewLineReader(strings.NewReader(in), 100))

	assert.Equal(t, []string{"C1,1"}, lines)
	require.Len(t, bad, 1)
	assert.Equal(t, 2, bad[0].Line)
}
