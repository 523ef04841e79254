package batch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jmehdipour/balance-batch/internal/codec"
	"github.com/jmehdipour/balance-batch/internal/feed"
	"github.com/jmehdipour/balance-batch/internal/model"
	"github.com/jmehdipour/balance-batch/internal/repository"
)

type fixture struct {
	dir       string
	customers string
	txs       string
	output    string
	logs      *observer.ObservedLogs
	proc      *Processor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	f := &fixture{
		dir:       dir,
		customers: filepath.Join(dir, "customers.dat"),
		txs:       filepath.Join(dir, "transactions.dat"),
		output:    filepath.Join(dir, "out.dat"),
	}

	core, logs := observer.New(zapcore.WarnLevel)
	log := zap.New(core)
	c := codec.New(",")
	f.logs = logs
	f.proc = NewProcessor(
		repository.NewFileRepository(f.customers, c, repository.WithLogger(log)),
		repository.NewFileRepository(f.output, c, repository.WithLogger(log)),
		func(context.Context) (feed.Feed, error) { return feed.OpenFile(f.txs, c) },
		log,
	)
	f.proc.now = func() time.Time { return time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC) }
	return f
}

func (f *fixture) write(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func (f *fixture) readOutput(t *testing.T) string {
	t.Helper()
	b, err := os.ReadFile(f.output)
	require.NoError(t, err)
	return string(b)
}

func messages(logs *observer.ObservedLogs) []string {
	var out []string
	for _, e := range logs.All() {
		out = append(out, e.Message)
	}
	return out
}

func TestRunEndToEnd(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.customers, "C1,100.00\nC2,50.00\n")
	f.write(t, f.txs, "C1,ADD,25.00\nC2,SUBTRACT,10.00\nC3,ADD,5.00\nC1,MULTIPLY,2.00\n")

	rep := f.proc.Run(context.Background())

	assert.Equal(t, "C1,125.00\nC2,40.00\n", f.readOutput(t))
	assert.Equal(t, 2, rep.Loaded)
	assert.Equal(t, 2, rep.Saved)
	assert.Equal(t, 2, rep.Applied)
	assert.Equal(t, 1, rep.NotFound)
	assert.Equal(t, 1, rep.UnknownType)
	assert.Zero(t, rep.Malformed)
	assert.NotEmpty(t, rep.RunID)

	require.Equal(t, []string{"customer not found", "unknown transaction type"}, messages(f.logs))
	all := f.logs.All()
	assert.Equal(t, "C3", all[0].ContextMap()["customer_id"])
	assert.Equal(t, "MULTIPLY", all[1].ContextMap()["type"])
	assert.Equal(t, rep.RunID, all[0].ContextMap()["run_id"])
}

func TestRunEmptyAndAbsentInputs(t *testing.T) {
	f := newFixture(t)

	rep := f.proc.Run(context.Background())

	assert.Empty(t, f.readOutput(t))
	assert.True(t, rep.SourceUnavailable)
	assert.True(t, rep.FeedUnavailable)
	assert.False(t, rep.SaveFailed)
	assert.Equal(t, []string{
		"customer source unavailable, starting with an empty store",
		"transaction source unavailable, nothing to process",
	}, messages(f.logs))
}

func TestRunPreservesOrderAndDuplicates(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.customers, "Z,1\nA,2\nZ,3\nM,4\n")
	f.write(t, f.txs, "Z,ADD,10\nM,SUBTRACT,5\n")

	f.proc.Run(context.Background())

	assert.Equal(t, "Z,11.00\nA,2.00\nZ,3.00\nM,-1.00\n", f.readOutput(t))
	assert.Zero(t, f.logs.Len())
}

func TestRunSkipsMalformedTransactions(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.customers, "C1,0\n")
	f.write(t, f.txs, "C1,ADD,1\nC1;ADD;2\nC1,ADD,abc\nC1,ADD,3\n")

	rep := f.proc.Run(context.Background())

	assert.Equal(t, "C1,4.00\n", f.readOutput(t))
	assert.Equal(t, 2, rep.Malformed)
	assert.Equal(t, 2, rep.Applied)
	assert.Equal(t, 2, f.logs.FilterMessage("skipping malformed transaction record").Len())
}

func TestRunSinkUnwritable(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.customers, "C1,1\n")
	f.proc.Sink = repository.NewFileRepository(filepath.Join(f.dir, "missing", "out.dat"), codec.New(","))

	rep := f.proc.Run(context.Background())

	assert.True(t, rep.SaveFailed)
	assert.Zero(t, rep.Saved)
	assert.Equal(t, 1, f.logs.FilterMessage("customer sink unwritable").Len())
}

type brokenFeed struct{ calls int }

func (b *brokenFeed) Next(context.Context) (model.Transaction, error) {
	b.calls++
	if b.calls == 1 {
		tx, _ := codec.New(",").ParseTransaction("C1,ADD,1")
		return tx, nil
	}
	return model.Transaction{}, errors.New("disk on fire")
}

func (b *brokenFeed) Close() error { return nil }

func TestRunFeedFailureStillSaves(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.customers, "C1,1\n")
	bf := &brokenFeed{}
	f.proc.OpenFeed = func(context.Context) (feed.Feed, error) { return bf, nil }

	rep := f.proc.Run(context.Background())

	assert.True(t, rep.FeedAborted)
	assert.Equal(t, 1, rep.Applied)
	assert.Equal(t, 2, bf.calls)
	assert.Equal(t, "C1,2.00\n", f.readOutput(t))
}

func TestRunInPlaceOverwrite(t *testing.T) {
	f := newFixture(t)
	c := codec.New(",")
	same := repository.NewFileRepository(f.customers, c)
	f.proc.Source, f.proc.Sink = same, same
	f.write(t, f.customers, "C1,10\n")
	f.write(t, f.txs, "C1,SUBTRACT,2.5\n")

	f.proc.Run(context.Background())

	b, err := os.ReadFile(f.customers)
	require.NoError(t, err)
	assert.Equal(t, "C1,7.50\n", string(b))
}

func TestRunOverlongLinesAreSkippedNotFatal(t *testing.T) {
	f := newFixture(t)
	c := codec.New(",")
	same := repository.NewFileRepository(f.customers, c, repository.WithLogger(f.proc.Log))
	f.proc.Source, f.proc.Sink = same, same
	long := strings.Repeat("x", 70000)
	f.write(t, f.customers, "C1,100.00\n"+long+"\nC2,50.00\n")
	f.write(t, f.txs, "C1,ADD,1\n"+long+"\nC2,ADD,2\n")

	rep := f.proc.Run(context.Background())

	b, err := os.ReadFile(f.customers)
	require.NoError(t, err)
	assert.Equal(t, "C1,101.00\nC2,52.00\n", string(b))
	assert.False(t, rep.SourceUnavailable)
	assert.False(t, rep.FeedAborted)
	assert.Equal(t, 1, rep.MalformedCustomers)
	assert.Equal(t, 1, rep.Malformed)
	assert.Equal(t, 2, rep.Applied)
}

func TestRunCountsMalformedCustomers(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.customers, "C1,1\nbroken\nC2,x\nC3,3\n")
	f.write(t, f.txs, "")

	rep := f.proc.Run(context.Background())

	assert.Equal(t, 2, rep.Loaded)
	assert.Equal(t, 2, rep.MalformedCustomers)
	assert.Zero(t, rep.Malformed)
	assert.Equal(t, 2, f.logs.FilterMessage("skipping malformed customer record").Len())
	assert.Equal(t, "C1,1.00\nC3,3.00\n", f.readOutput(t))
}
