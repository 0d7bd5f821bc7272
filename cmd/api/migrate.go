package main

import (
	"fmt"

	"github.com/SergeiKhy/campaign-dashboard/internal/config"
	"github.com/SergeiKhy/campaign-dashboard/internal/repository"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	RunE:  runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFile(envFile)
	if err != nil {
		return err
	}

	if err := repository.Migrate(cfg.DB.DSN()); err != nil {
		return err
	}

	fmt.Println("Migrations completed successfully")
	return nil
}
