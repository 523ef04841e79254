package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jmehdipour/balance-batch/internal/config"
	"github.com/jmehdipour/balance-batch/internal/db"
	"github.com/jmehdipour/balance-batch/migrations"
)

var migrateClickHouse bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the customer table for the mysql backend",
	Long: "Create the customer table for the mysql backend.\n" +
		"With --clickhouse, create the transactions table for the clickhouse feed instead.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		if migrateClickHouse {
			return migrateTransactions(cmd, cfg, log)
		}

		sqlDB, err := db.NewMySQLConnection(cfg.MySQL)
		if err != nil {
			return fmt.Errorf("open db: %w", err)
		}
		defer sqlDB.Close()

		stmt, err := migrations.Render("001_init.sql", cfg.MySQL.Table)
		if err != nil {
			return err
		}
		if _, err := sqlDB.ExecContext(cmd.Context(), stmt); err != nil {
			return fmt.Errorf("exec migration: %w", err)
		}

		log.Info("migration complete", zap.String("table", cfg.MySQL.Table))
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateClickHouse, "clickhouse", false, "create the clickhouse transactions table")
}

func migrateTransactions(cmd *cobra.Command, cfg config.Config, log *zap.Logger) error {
	ch, err := db.NewClickHouseConnection(cfg.ClickHouse)
	if err != nil {
		return fmt.Errorf("open clickhouse: %w", err)
	}
	defer ch.Close()

	stmt, err := migrations.Render("002_clickhouse_transactions.sql", cfg.ClickHouse.Table)
	if err != nil {
		return err
	}
	if _, err := ch.ExecContext(cmd.Context(), stmt); err != nil {
		return fmt.Errorf("exec migration: %w", err)
	}

	log.Info("migration complete", zap.String("table", cfg.ClickHouse.Table))
	return nil
}
