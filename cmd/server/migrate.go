package main

import (
	"blood-donation-backend/internal/database"

	"github.com/urfave/cli/v2"
)

var migrateCommand = &cli.Command{
	Name:   "migrate",
	Usage:  "Create or update the database schema",
	Action: migrate,
}

func migrate(cCtx *cli.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	db, err := database.Connect(cCtx.Context, cfg, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if err := database.Migrate(cCtx.Context, db); err != nil {
		return err
	}
	log.Info("migration complete")
	return nil
}
