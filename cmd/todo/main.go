package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/Brajnn/ToDoAPI/internal/config"
	"github.com/Brajnn/ToDoAPI/shared/logger"
)

const serviceName = "todo"

func main() {
	var (
		configPath string
		cfg        *config.Config
		steps      int
	)

	app := &cli.Command{
		Name:  serviceName,
		Usage: "To-do list REST service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to TOML config file (environment variables take precedence)",
				Sources:     cli.EnvVars("TODO_CONFIG"),
				Destination: &configPath,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			loaded, err := config.Load(configPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			cfg = loaded
			logger.Init(serviceName, cfg.LogLevel)
			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "serve",
				Usage: "run HTTP API and gRPC health servers",
				Action: func(ctx context.Context, c *cli.Command) error {
					return serve(ctx, cfg)
				},
			},
			{
				Name:  "migrate",
				Usage: "manage database schema",
				Commands: []*cli.Command{
					{
						Name:  "up",
						Usage: "apply all pending migrations",
						Action: func(ctx context.Context, c *cli.Command) error {
							return migrateUp(ctx, cfg)
						},
					},
					{
						Name:  "down",
						Usage: "revert the most recent migrations",
						Flags: []cli.Flag{
							&cli.IntFlag{
								Name:        "steps",
								Aliases:     []string{"n"},
								Usage:       "number of migrations to revert",
								Value:       1,
								Destination: &steps,
							},
						},
						Action: func(ctx context.Context, c *cli.Command) error {
							return migrateDown(ctx, cfg, steps)
						},
					},
				},
			},
		},
		// без подкоманды запускается сервер
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() > 0 {
				return fmt.Errorf("unknown command %q. Run '%s --help' for usage", c.Args().First(), serviceName)
			}
			return serve(ctx, cfg)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Logger.WithError(err).Fatal("todo service failed")
	}
}
