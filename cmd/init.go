package cmd

import (
	"errors"
	"fmt"
	"solo/db"
	"solo/models"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize the blog",
		Description: `Migrates the database and stores the blog preference from the [blog]
section of the configuration. Feeds are unavailable until the blog is initialized.

An existing preference is kept unless --force is given. When --admin-email is set
and no user exists yet, an admin user is created and its password is prompted for.`,
		Flags: append(storeFlags(),
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing preference",
			},
			&cli.StringFlag{
				Name:    "admin-email",
				Usage:   "Email of the admin user to create",
				EnvVars: []string{"SOLO_ADMIN_EMAIL"},
			},
			&cli.StringFlag{
				Name:    "admin-name",
				Usage:   "Name of the admin user to create",
				EnvVars: []string{"SOLO_ADMIN_NAME"},
				Value:   "admin",
			},
		),
		Action: func(ctx *cli.Context) error {
			cfg, err := loadConfig(ctx)
			if err != nil {
				return err
			}

			if err := db.Migrate(cfg.Database.Driver, cfg.Database.DSN); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}

			store, err := db.Open(ctx.Context, cfg.Database.Driver, cfg.Database.DSN, 30*time.Second)
			if err != nil {
				return err
			}
			defer store.Close()

			_, err = store.GetPreference(ctx.Context)
			switch {
			case err == nil && !ctx.Bool("force"):
				log.Info("Blog already initialized, keeping preference")
			case err == nil || errors.Is(err, models.ErrNotFound):
				pref := models.Preference{
					BlogTitle:      cfg.Blog.Title,
					BlogSubtitle:   cfg.Blog.Subtitle,
					BlogHost:       cfg.Blog.Host,
					TimeZoneId:     cfg.Blog.TimeZone,
					LocaleString:   cfg.Blog.Locale,
					FeedOutputMode: cfg.Blog.FeedOutputMode,
				}
				if err := store.SavePreference(ctx.Context, pref); err != nil {
					return err
				}
				log.WithFields(log.Fields{
					"title": pref.BlogTitle,
					"host":  pref.BlogHost,
				}).Info("Saved blog preference")
			default:
				return err
			}

			email := ctx.String("admin-email")
			if email == "" {
				return nil
			}

			count, err := store.CountUsers(ctx.Context)
			if err != nil {
				return err
			}
			if count > 0 {
				log.Info("Users already exist, skipping admin creation")
				return nil
			}

			password, err := askPassword()
			if err != nil {
				return err
			}

			_, err = store.CreateUser(ctx.Context, models.User{
				Name:  ctx.String("admin-name"),
				Email: email,
				Role:  models.AdminRole,
			}, password)
			return err
		},
	}
}
