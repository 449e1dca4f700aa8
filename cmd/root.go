package cmd

import (
	"fmt"
	"solo/config"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// Version is reported by the CLI and in the generator element of every feed
var Version = "0.4.6"

func RootApp() *cli.App {
	return &cli.App{
		Name:    "solo",
		Usage:   "A small blog serving Atom and RSS feeds of its articles",
		Version: Version,
		Description: `Solo stores articles, tags, users and links in SQLite or PostgreSQL
		and serves Atom 1.0 and RSS 2.0 feeds of the latest published articles,
		for the whole blog or a single tag. A JSON console manages links and
		articles for logged in users.

		Flags can generally be set via environment variables, e.g.:

		--config => SOLO_CONFIG=solo.toml
		--database-dsn => SOLO_DATABASE_DSN=solo.db
		`,
		Commands: []*cli.Command{
			serveCmd(),
			migrateCmd(),
			rollbackCmd(),
			initCmd(),
			userCmd(),
		},
		Action: func(ctx *cli.Context) error {
			// Show help if no command is specified
			return ctx.App.Run([]string{"", "help"})
		},
	}
}

// Flags shared by every command touching the database
func storeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the TOML configuration file",
			EnvVars: []string{"SOLO_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "database-driver",
			Usage:   "Database driver, sqlite or postgres",
			EnvVars: []string{"SOLO_DATABASE_DRIVER"},
		},
		&cli.StringFlag{
			Name:    "database-dsn",
			Usage:   "SQLite file path or PostgreSQL connection string",
			EnvVars: []string{"SOLO_DATABASE_DSN"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level (debug, info, warn, error)",
			EnvVars: []string{"SOLO_LOG_LEVEL"},
		},
	}
}

// loadConfig reads the configuration file and applies flag overrides
func loadConfig(ctx *cli.Context) (*config.TomlConfig, error) {
	cfg, err := config.LoadConfig(ctx.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if ctx.IsSet("database-driver") {
		cfg.Database.Driver = ctx.String("database-driver")
	}
	if ctx.IsSet("database-dsn") {
		cfg.Database.DSN = ctx.String("database-dsn")
	}
	if ctx.IsSet("log-level") {
		cfg.Log.Level = ctx.String("log-level")
	}

	if err := setupLogging(cfg.Log); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setupLogging(cfg config.TomlLog) error {
	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	log.SetLevel(level)

	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
