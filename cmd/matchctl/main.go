package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v2"

	"bloodbridge/config"
	"bloodbridge/internal/adapters/auth"
	"bloodbridge/internal/app"
	"bloodbridge/internal/domain"
	"bloodbridge/internal/repository/postgres"
)

func main() {
	cliApp := &cli.App{
		Name:  "matchctl",
		Usage: "Operate the donor matching service",
		Commands: []*cli.Command{
			migrateCmd,
			matchCmd,
			expandCmd,
			tokenCmd,
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

var migrateCmd = &cli.Command{
	Name:  "migrate",
	Usage: "Apply the database schema and create the alert topic",
	Action: func(ctx *cli.Context) error {
		cfg, logger, err := load()
		if err != nil {
			return err
		}
		a, err := app.New(ctx.Context, cfg, logger, prometheus.NewRegistry())
		if err != nil {
			return err
		}
		defer a.Close()

		if err := postgres.Migrate(ctx.Context, a.DB); err != nil {
			return err
		}
		logger.Info("schema applied")

		switch err := app.EnsureAlertTopic(ctx.Context, cfg); {
		case errors.Is(err, app.ErrNoBrokers):
			logger.Info("skipping alert topic", "reason", err)
		case err != nil:
			return err
		default:
			logger.Info("alert topic ready", "topic", cfg.Kafka.AlertTopic)
		}
		return nil
	},
}

var matchCmd = &cli.Command{
	Name:  "match",
	Usage: "Match, store and notify donors for a blood request",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "request",
			Required: true,
			Usage:    "blood request ID (UUID)",
		},
	},
	Action: func(ctx *cli.Context) error {
		requestID, err := parseRequestID(ctx.String("request"))
		if err != nil {
			return err
		}
		return withApp(ctx, func(a *app.App) error {
			result, err := a.Dispatch.DispatchMatches(ctx.Context, requestID)
			if err != nil {
				return err
			}
			return printResult(result)
		})
	},
}

var expandCmd = &cli.Command{
	Name:  "expand",
	Usage: "Re-run matching for a blood request with a wider radius",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "request",
			Required: true,
			Usage:    "blood request ID (UUID)",
		},
		&cli.Float64Flag{
			Name:     "radius",
			Required: true,
			Usage:    "search radius in km (0-500]",
		},
	},
	Action: func(ctx *cli.Context) error {
		requestID, err := parseRequestID(ctx.String("request"))
		if err != nil {
			return err
		}
		radius := ctx.Float64("radius")
		if radius <= 0 {
			return errors.New("invalid radius")
		}
		return withApp(ctx, func(a *app.App) error {
			result, err := a.Dispatch.ExpandSearch(ctx.Context, requestID, radius)
			if err != nil {
				return err
			}
			return printResult(result)
		})
	},
}

var tokenCmd = &cli.Command{
	Name:  "token",
	Usage: "Mint a development JWT for the API",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "subject",
			Required: true,
			Usage:    "user ID placed in the sub claim",
		},
		&cli.StringSliceFlag{
			Name:  "role",
			Value: cli.NewStringSlice("coordinator"),
			Usage: "role claim, repeatable",
		},
		&cli.DurationFlag{
			Name:  "ttl",
			Value: 24 * time.Hour,
			Usage: "token lifetime",
		},
	},
	Action: func(ctx *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ttl := ctx.Duration("ttl")
		token, err := auth.NewJWTIssuer(cfg.JWTSecret).Issue(ctx.String("subject"), "", ctx.StringSlice("role"), ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(ctx.App.Writer, token)
		fmt.Fprintf(ctx.App.ErrWriter, "expires %s\n", humanize.Time(time.Now().Add(ttl)))
		return nil
	},
}

func load() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	return cfg, config.NewLogger(cfg, os.Stderr), nil
}

func withApp(ctx *cli.Context, fn func(*app.App) error) error {
	cfg, logger, err := load()
	if err != nil {
		return err
	}
	a, err := app.New(ctx.Context, cfg, logger, prometheus.NewRegistry())
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func parseRequestID(raw string) (string, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid request ID %q: %w", raw, err)
	}
	return id.String(), nil
}

func printResult(result *domain.MatchResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
