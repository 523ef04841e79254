package cmd

import (
	"fmt"
	"os"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jmehdipour/balance-batch/internal/codec"
	"github.com/jmehdipour/balance-batch/internal/model"
)

var seedTransactions bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write demo customers (and optionally transactions) to the configured storage",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		// the seed targets the input side, so point the file sink at it
		cfg.Files.Output = cfg.Files.Customers
		_, sink, closeRepos, err := customerRepos(cfg, log)
		if err != nil {
			return err
		}
		defer closeRepos()

		if err := sink.SaveAll(cmd.Context(), demoCustomers()); err != nil {
			return fmt.Errorf("seed customers: %w", err)
		}
		log.Info("seeded customers", zap.Int("count", len(demoCustomers())))

		if seedTransactions {
			if err := writeDemoTransactions(cfg.Files.Transactions, newCodec(cfg)); err != nil {
				return err
			}
			log.Info("seeded transactions", zap.String("path", cfg.Files.Transactions))
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedTransactions, "with-transactions", false, "also write a demo transaction file")
}

// demoCustomers is deterministic so repeated seeds are idempotent.
func demoCustomers() []model.Customer {
	return []model.Customer{
		{ID: "C1", Balance: decimal.RequireFromString("100.00")},
		{ID: "C2", Balance: decimal.RequireFromString("50.00")},
		{ID: "C3", Balance: decimal.RequireFromString("0.00")},
		{ID: "C4", Balance: decimal.RequireFromString("-15.25")},
		{ID: "C5", Balance: decimal.RequireFromString("1000000.00")},
	}
}

func demoTransactions() []model.Transaction {
	return []model.Transaction{
		{CustomerID: "C1", Type: model.TxAdd, Amount: decimal.RequireFromString("25.00")},
		{CustomerID: "C2", Type: model.TxSubtract, Amount: decimal.RequireFromString("10.00")},
		{CustomerID: "C9", Type: model.TxAdd, Amount: decimal.RequireFromString("5.00")},
		{CustomerID: "C1", Type: model.TxUnrecognized("MULTIPLY"), Amount: decimal.RequireFromString("2.00")},
		{CustomerID: "C4", Type: model.TxAdd, Amount: decimal.RequireFromString("15.25")},
	}
}

func writeDemoTransactions(path string, c codec.Codec) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	for _, tx := range demoTransactions() {
		if _, err := fmt.Fprintln(f, c.FormatTransaction(tx)); err != nil {
			_ = f.Close()
			return fmt.Errorf("write %s: %w", path, err)
		}
	}
	return f.Close()
}
