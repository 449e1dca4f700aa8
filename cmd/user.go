package cmd

import (
	"errors"
	"fmt"
	"solo/db"
	"solo/models"
	"time"

	"github.com/cqroot/prompt"
	"github.com/cqroot/prompt/input"
	"github.com/urfave/cli/v2"
)

func userCmd() *cli.Command {
	return &cli.Command{
		Name:  "user",
		Usage: "Manage blog users",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a user",
				Description: `Adds a user to the blog. The password is prompted for.

With more than one user, feed entries are attributed to the author of each
article instead of the single blog user.`,
				Flags: append(storeFlags(),
					&cli.StringFlag{
						Name:    "email",
						Aliases: []string{"e"},
						Usage:   "Email of the user, used to log in",
					},
					&cli.StringFlag{
						Name:    "name",
						Aliases: []string{"n"},
						Usage:   "Display name of the user",
					},
					&cli.BoolFlag{
						Name:  "admin",
						Usage: "Give the user the admin role",
					},
				),
				Action: func(ctx *cli.Context) error {
					cfg, err := loadConfig(ctx)
					if err != nil {
						return err
					}

					email := ctx.String("email")
					if email == "" {
						email, err = prompt.New().Ask("Email:").Input("admin@b3log.org")
						if err != nil {
							return err
						}
					}

					name := ctx.String("name")
					if name == "" {
						name, err = prompt.New().Ask("Name:").Input("admin")
						if err != nil {
							return err
						}
					}

					password, err := askPassword()
					if err != nil {
						return err
					}

					store, err := db.Open(ctx.Context, cfg.Database.Driver, cfg.Database.DSN, 30*time.Second)
					if err != nil {
						return err
					}
					defer store.Close()

					role := models.DefaultRole
					if ctx.Bool("admin") {
						role = models.AdminRole
					}

					id, err := store.CreateUser(ctx.Context, models.User{
						Name:  name,
						Email: email,
						Role:  role,
					}, password)
					if err != nil {
						return err
					}

					fmt.Println("Added user", id)
					return nil
				},
			},
		},
	}
}

func askPassword() (string, error) {
	password, err := prompt.New().Ask("Password:").Input("", input.WithEchoMode(input.EchoNone))
	if err != nil {
		return "", err
	}

	confirm, err := prompt.New().Ask("Repeat password:").Input("", input.WithEchoMode(input.EchoNone))
	if err != nil {
		return "", err
	}

	if password != confirm {
		return "", errors.New("passwords do not match")
	}
	return password, nil
}
