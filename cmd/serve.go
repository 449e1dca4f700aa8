package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"solo/db"
	"solo/server"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the blog feeds and console",
		Description: `Starts the Solo HTTP server.

Serves the Atom and RSS feeds of the latest published articles, the tag feeds,
the JSON console and Prometheus metrics on /metrics.`,
		Flags: append(storeFlags(),
			&cli.StringFlag{
				Name:    "address",
				Aliases: []string{"a"},
				Usage:   "Address to listen on",
				EnvVars: []string{"SOLO_ADDRESS"},
			},
			&cli.BoolFlag{
				Name:    "migrate",
				Usage:   "Run database migrations before serving",
				EnvVars: []string{"SOLO_MIGRATE"},
				Value:   true,
			},
			&cli.DurationFlag{
				Name:    "connect-timeout",
				Usage:   "How long to wait for the database at startup",
				EnvVars: []string{"SOLO_CONNECT_TIMEOUT"},
				Value:   30 * time.Second,
			},
		),
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}
			if ctx.IsSet("address") {
				cfg.Server.Address = ctx.String("address")
			}

			timeout, err := cfg.StoreTimeout()
			if err != nil {
				return err
			}

			if ctx.Bool("migrate") {
				if err := db.Migrate(cfg.Database.Driver, cfg.Database.DSN); err != nil {
					return fmt.Errorf("failed to migrate database: %w", err)
				}
			}

			store, err := db.Open(ctx.Context, cfg.Database.Driver, cfg.Database.DSN, ctx.Duration("connect-timeout"))
			if err != nil {
				return err
			}
			defer store.Close()

			app := server.Server(&server.ServerConfig{
				Store:         store,
				Version:       Version,
				StoreTimeout:  timeout,
				SessionSecure: cfg.Server.SessionSecure,
			})

			// Graceful shutdown
			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

			go func() {
				<-sig
				log.Info("Gracefully shutting down...")
				if err := app.ShutdownWithTimeout(60 * time.Second); err != nil {
					log.WithFields(log.Fields{
						"error": err,
					}).Error("Server shutdown failed")
				}
			}()

			log.WithFields(log.Fields{
				"address": cfg.Server.Address,
				"version": Version,
			}).Info("Starting server")

			if err := app.Listen(cfg.Server.Address); err != nil {
				return err
			}

			log.Info("Done!")
			return nil
		},
	}
}
