package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/alanbriolat/spotdown/async"
	"github.com/alanbriolat/spotdown/internal/backend"
	"github.com/alanbriolat/spotdown/internal/media"
	"github.com/alanbriolat/spotdown/internal/preference"
	"github.com/alanbriolat/spotdown/internal/session"
)

func infoCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "look up a track, album or playlist",
		ArgsUsage: "URL",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return cli.Exit("expected exactly one URL", 2)
			}
			resolver := session.NewResolver(env.client)
			result := async.RunResult(func() (media.ResolvedItem, error) {
				return resolver.Resolve(c.Context, c.Args().First())
			})
			select {
			case r := <-result:
				item, err := r.Parts()
				if err != nil {
					return err
				}
				printItem(c.App.Writer, item)
				return nil
			case <-c.Context.Done():
				return c.Context.Err()
			}
		},
	}
}

func printItem(w io.Writer, item media.ResolvedItem) {
	d := item.Display()
	fmt.Fprintf(w, "%s\n%s\n", d.Title, d.Subtitle)
	if item.Kind == media.KindSingle && item.Single.Album != "" {
		fmt.Fprintf(w, "Album: %s\n", item.Single.Album)
	}
	fmt.Fprintf(w, "Cover: %s\n", d.Cover())
}

func qualityCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:      "quality",
		Usage:     "show or set the download quality",
		ArgsUsage: "[TIER]",
		Action: func(c *cli.Context) error {
			db, err := env.Database()
			if err != nil {
				return err
			}
			if c.NArg() > 0 {
				q, err := preference.ParseQuality(c.Args().First())
				if err != nil {
					return err
				}
				if err := preference.WriteQuality(db, q); err != nil {
					return err
				}
			}
			current, err := preference.ReadQuality(db)
			if errors.Is(err, preference.ErrInvalidQuality) {
				fmt.Fprintf(c.App.ErrWriter, "warning: %v, using %s\n", err, current)
			} else if err != nil {
				return err
			}
			for _, q := range preference.Qualities() {
				marker := " "
				if q == current {
					marker = "*"
				}
				fmt.Fprintf(c.App.Writer, "%s %s\n", marker, q)
			}
			return nil
		},
	}
}

func settingsCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "show or change the server's resolver credentials",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "show the current credentials",
				Action: func(c *cli.Context) error {
					settings, err := env.client.GetSettings(c.Context)
					if err != nil {
						return err
					}
					printSettings(c.App.Writer, settings.Masked())
					return nil
				},
			},
			{
				Name:  "set",
				Usage: "replace the credentials",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "client-id", Required: true},
					&cli.StringFlag{Name: "client-secret", Required: true},
				},
				Action: func(c *cli.Context) error {
					settings := backend.Settings{
						ClientID:     strings.TrimSpace(c.String("client-id")),
						ClientSecret: strings.TrimSpace(c.String("client-secret")),
					}
					if err := env.client.SaveSettings(c.Context, settings); err != nil {
						return err
					}
					printSettings(c.App.Writer, settings.Masked())
					return nil
				},
			},
		},
	}
}

func printSettings(w io.Writer, settings backend.Settings) {
	fmt.Fprintf(w, "Client ID:     %s\nClient secret: %s\n", settings.ClientID, settings.ClientSecret)
}

func historyCommand(env *environment) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "list finished downloads",
		Action: func(c *cli.Context) error {
			db, err := env.Database()
			if err != nil {
				return err
			}
			records, err := db.ListTasks()
			if err != nil {
				return err
			}
			return printHistory(c.App.Writer, records)
		},
	}
}

func printHistory(w io.Writer, records []session.TaskRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "FINISHED\tSTATUS\tQUALITY\tTITLE\tDETAIL")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.FinishedAt.Local().Format("2006-01-02 15:04:05"), r.Status, r.Quality, r.Title, r.ErrorDetail)
	}
	return tw.Flush()
}
