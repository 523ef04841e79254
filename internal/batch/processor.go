// Package batch runs the LOAD -> PROCESS -> SAVE pipeline.
package batch

import (
	"context"
	"errors"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/jmehdipour/balance-batch/internal/applier"
	"github.com/jmehdipour/balance-batch/internal/codec"
	"github.com/jmehdipour/balance-batch/internal/feed"
	"github.com/jmehdipour/balance-batch/internal/metrics"
	"github.com/jmehdipour/balance-batch/internal/repository"
	"github.com/jmehdipour/balance-batch/internal/store"
	"github.com/jmehdipour/balance-batch/internal/util"
)

// Processor wires the pipeline stages. Source and Sink may be the same repository.
type Processor struct {
	Source   repository.CustomersRepository
	Sink     repository.CustomersRepository
	OpenFeed func(ctx context.Context) (feed.Feed, error)
	Log      *zap.Logger

	now func() time.Time
}

func NewProcessor(
	source, sink repository.CustomersRepository,
	openFeed func(ctx context.Context) (feed.Feed, error),
	log *zap.Logger,
) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Processor{
		Source:   source,
		Sink:     sink,
		OpenFeed: openFeed,
		Log:      log,
		now:      time.Now,
	}
}

// Report summarises one run.
type Report struct {
	RunID string

	Loaded             int
	Saved              int
	Applied            int
	NotFound           int
	UnknownType        int
	Malformed          int // transaction records skipped
	MalformedCustomers int // customer records skipped on load

	SourceUnavailable bool
	FeedUnavailable   bool
	FeedAborted       bool
	SaveFailed        bool
}

// Run always completes all three stages. Every failure is logged and
// reflected in the report; none is returned.
func (p *Processor) Run(ctx context.Context) Report {
	now := p.now
	if now == nil {
		now = time.Now
	}
	rep := Report{RunID: util.NewRunIDAt(now())}
	log := p.Log.With(zap.String("run_id", rep.RunID))

	// 1) LOAD
	customers, skipped, err := p.Source.LoadAll(ctx)
	if err != nil {
		log.Warn("customer source unavailable, starting with an empty store", zap.Error(err))
		customers, skipped = nil, 0
		rep.SourceUnavailable = true
	}
	rep.MalformedCustomers = skipped
	st := store.New(customers)
	rep.Loaded = st.Len()
	metrics.Customers.WithLabelValues("loaded").Set(float64(rep.Loaded))

	// 2) PROCESS
	p.process(ctx, log, st, &rep)

	// 3) SAVE
	if err := p.Sink.SaveAll(ctx, st.All()); err != nil {
		log.Warn("customer sink unwritable", zap.Error(err))
		rep.SaveFailed = true
	} else {
		rep.Saved = st.Len()
		metrics.Customers.WithLabelValues("saved").Set(float64(rep.Saved))
	}
	metrics.LastRunTimestamp.SetToCurrentTime()

	log.Info("run finished",
		zap.Int("loaded", rep.Loaded),
		zap.Int("applied", rep.Applied),
		zap.Int("not_found", rep.NotFound),
		zap.Int("unknown_type", rep.UnknownType),
		zap.Int("malformed", rep.Malformed),
		zap.Int("malformed_customers", rep.MalformedCustomers),
		zap.Int("saved", rep.Saved),
	)
	return rep
}

func (p *Processor) process(ctx context.Context, log *zap.Logger, st *store.Store, rep *Report) {
	f, err := p.OpenFeed(ctx)
	if err != nil {
		log.Warn("transaction source unavailable, nothing to process", zap.Error(err))
		rep.FeedUnavailable = true
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Warn("close transaction source", zap.Error(err))
		}
	}()

	ap := applier.New(log)
	for {
		tx, err := f.Next(ctx)
		if errors.Is(err, io.EOF) {
			return
		}
		var le *codec.LineError
		if errors.As(err, &le) {
			rep.Malformed++
			metrics.TransactionsTotal.WithLabelValues("malformed").Inc()
			metrics.LinesSkippedTotal.WithLabelValues("transactions").Inc()
			log.Warn("skipping malformed transaction record",
				zap.Int("line", le.Line),
				zap.String("raw", le.Raw),
				zap.Error(le.Err),
			)
			continue
		}
		if err != nil {
			log.Warn("transaction source failed, remaining transactions skipped", zap.Error(err))
			rep.FeedAborted = true
			return
		}

		switch ap.Apply(tx, st) {
		case applier.Applied:
			rep.Applied++
		case applier.NotFound:
			rep.NotFound++
		case applier.UnknownType:
			rep.UnknownType++
		}
	}
}
