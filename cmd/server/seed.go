package main

import (
	"blood-donation-backend/internal/database"

	"github.com/urfave/cli/v2"
)

var seedCommand = &cli.Command{
	Name:  "seed",
	Usage: "Create the initial admin account",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "email",
			Usage:    "Admin email",
			EnvVars:  []string{"ADMIN_EMAIL"},
			Required: true,
		},
		&cli.StringFlag{
			Name:     "password",
			Usage:    "Admin password (min 8 characters)",
			EnvVars:  []string{"ADMIN_PASSWORD"},
			Required: true,
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "Admin full name",
			Value: "Administrator",
		},
		&cli.BoolFlag{
			Name:  "migrate",
			Usage: "Run migrations first",
			Value: true,
		},
	},
	Action: seed,
}

func seed(cCtx *cli.Context) error {
	cfg, log, err := bootstrap()
	if err != nil {
		return err
	}

	db, err := database.Connect(cCtx.Context, cfg, log)
	if err != nil {
		return err
	}
	defer database.Close(db)

	if cCtx.Bool("migrate") {
		if err := database.Migrate(cCtx.Context, db); err != nil {
			return err
		}
	}

	created, err := database.SeedAdmin(cCtx.Context, db, database.AdminSeed{
		Email:    cCtx.String("email"),
		Password: cCtx.String("password"),
		FullName: cCtx.String("name"),
	})
	if err != nil {
		return err
	}
	if !created {
		log.Info("admin already exists, nothing to do", "email", cCtx.String("email"))
		return nil
	}
	log.Info("admin account created", "email", cCtx.String("email"))
	return nil
}
