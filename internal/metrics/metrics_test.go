package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteTextfile(t *testing.T) {
	TransactionsTotal.WithLabelValues("applied").Inc()

	path := filepath.Join(t.TempDir(), "balbatch.prom")
	require.NoError(t, WriteTextfile(path))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), `balbatch_transactions_total{outcome="applied"}`)
	assert.Contains(t, string(b), "balbatch_last_run_timestamp_seconds")
}
