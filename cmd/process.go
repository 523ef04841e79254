package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jmehdipour/balance-batch/internal/batch"
	"github.com/jmehdipour/balance-batch/internal/config"
	"github.com/jmehdipour/balance-batch/internal/metrics"
)

var processFlags struct {
	customers    string
	transactions string
	output       string
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Load customers, apply transactions, save customers",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		applyFileFlags(&cfg.Files)

		src, sink, closeRepos, err := customerRepos(cfg, log)
		if err != nil {
			return err
		}
		defer closeRepos()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		log.Info("run starting",
			zap.String("backend", string(cfg.Storage.Backend)),
			zap.String("feed", string(cfg.Feed.Source)),
			zap.String("customers", cfg.Files.Customers),
			zap.String("transactions", cfg.Files.Transactions),
			zap.String("output", cfg.Files.Output),
		)

		batch.NewProcessor(src, sink, feedOpener(cfg), log).Run(ctx)

		if cfg.Metrics.Textfile != "" {
			if err := metrics.WriteTextfile(cfg.Metrics.Textfile); err != nil {
				log.Warn("write metrics textfile", zap.String("path", cfg.Metrics.Textfile), zap.Error(err))
			}
		}
		return nil
	},
}

// Defaults live in config (files.*); an empty flag leaves the config value alone.
func init() {
	f := processCmd.Flags()
	f.StringVar(&processFlags.customers, "customers", "", "customer input file (default from config files.customers)")
	f.StringVar(&processFlags.transactions, "transactions", "", "transaction input file (default from config files.transactions)")
	f.StringVar(&processFlags.output, "output", "", "customer output file, overwritten (default from config files.output)")
}

func applyFileFlags(files *config.FilesConfig) {
	if processFlags.customers != "" {
		files.Customers = processFlags.customers
	}
	if processFlags.transactions != "" {
		files.Transactions = processFlags.transactions
	}
	if processFlags.output != "" {
		files.Output = processFlags.output
	}
}
