package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	"github.com/sakif/tagged-snippets/internal/config"
	"github.com/sakif/tagged-snippets/internal/repository"
	"github.com/sakif/tagged-snippets/internal/server"
	"github.com/sakif/tagged-snippets/internal/service"
)

// env bundles what every command needs once config is loaded.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	store  repository.Store
}

// openEnv loads config, builds the logger, opens the store and applies
// pending migrations. The caller owns env.store.
func openEnv(c *cli.Context) (*env, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}
	logger := setupLogger(cfg.Env, cfg.LogLevel)

	store, err := server.OpenStore(c.Context, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if err := store.Migrate(c.Context); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrating: %w", err)
	}

	return &env{cfg: cfg, logger: logger, store: store}, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API",
		Action: func(c *cli.Context) error {
			e, err := openEnv(c)
			if err != nil {
				return err
			}

			srv, err := server.New(e.cfg, e.store, e.logger)
			if err != nil {
				e.store.Close()
				return err
			}
			// Start closes the store on the way out.
			return srv.Start(c.Context)
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply pending schema migrations and exit",
		Action: func(c *cli.Context) error {
			e, err := openEnv(c)
			if err != nil {
				return err
			}
			defer e.store.Close()

			e.logger.Info("migrations applied", slog.String("storage", e.cfg.Storage.Driver))
			return nil
		},
	}
}

func userCommand() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage login accounts",
		Subcommands: []*cli.Command{
			{
				Name:  "create",
				Usage: "Create an active account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true},
					&cli.StringFlag{
						Name:     "password",
						Aliases:  []string{"p"},
						Usage:    "plaintext password (prefer SNIPPETS_PASSWORD over the flag)",
						EnvVars:  []string{"SNIPPETS_PASSWORD"},
						Required: true,
					},
					&cli.StringFlag{Name: "email"},
					&cli.StringFlag{Name: "first-name"},
					&cli.StringFlag{Name: "last-name"},
				},
				Action: userCreate,
			},
			{
				Name:      "deactivate",
				Usage:     "Disable login for an account",
				ArgsUsage: "USERNAME",
				Action:    userSetActive(false),
			},
			{
				Name:      "activate",
				Usage:     "Re-enable login for an account",
				ArgsUsage: "USERNAME",
				Action:    userSetActive(true),
			},
		},
	}
}

func userCreate(c *cli.Context) error {
	return withUsers(c, func(ctx context.Context, users *service.UserService) error {
		user, err := users.Create(ctx, service.NewUserInput{
			Username:  c.String("username"),
			Password:  c.String("password"),
			Email:     c.String("email"),
			FirstName: c.String("first-name"),
			LastName:  c.String("last-name"),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "created user %q (id %d)\n", user.Username, user.ID)
		return nil
	})
}

func userSetActive(active bool) cli.ActionFunc {
	return func(c *cli.Context) error {
		username := c.Args().First()
		if username == "" {
			return errors.New("USERNAME is required")
		}
		return withUsers(c, func(ctx context.Context, users *service.UserService) error {
			if err := users.SetActive(ctx, username, active); err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "user %q active=%t\n", username, active)
			return nil
		})
	}
}

func withUsers(c *cli.Context, fn func(context.Context, *service.UserService) error) error {
	e, err := openEnv(c)
	if err != nil {
		return err
	}
	defer e.store.Close()

	svc, err := server.NewServices(e.cfg, e.store, e.logger)
	if err != nil {
		return err
	}
	return fn(c.Context, svc.Users)
}
