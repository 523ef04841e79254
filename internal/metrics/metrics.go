package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balbatch_transactions_total",
			Help: "Transactions processed by outcome",
		},
		[]string{"outcome"}, // applied|not_found|unknown_type|malformed
	)

	LinesSkippedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "balbatch_lines_skipped_total",
			Help: "Input lines skipped because they did not parse",
		},
		[]string{"source"}, // customers|transactions
	)

	Customers = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "balbatch_customers",
			Help: "Customer records loaded and saved by the last run",
		},
		[]string{"stage"}, // loaded|saved
	)

	LastRunTimestamp = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "balbatch_last_run_timestamp_seconds",
			Help: "Unix time the last run finished",
		},
	)
)

func MustRegister(r prometheus.Registerer) {
	r.MustRegister(
		TransactionsTotal,
		LinesSkippedTotal,
		Customers,
		LastRunTimestamp,
	)
}

// WriteTextfile registers the collectors on a fresh registry and writes them
// in the node-exporter textfile format.
func WriteTextfile(path string) error {
	reg := prometheus.NewRegistry()
	MustRegister(reg)
	return prometheus.WriteToTextfile(path, reg)
}
