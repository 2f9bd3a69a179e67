// cmd/clubctl is the operator tool of the club service.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/volei/internal/auth"
	"github.com/jason-s-yu/volei/internal/config"
	"github.com/jason-s-yu/volei/internal/database"
	"github.com/jason-s-yu/volei/internal/ledger"
	"github.com/jason-s-yu/volei/internal/models"
	"github.com/jason-s-yu/volei/internal/rating"
	"github.com/jason-s-yu/volei/internal/reminders"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		logrus.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "clubctl",
		Usage: "operate the volleyball club service",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "path to the YAML config file"},
		},
		Commands: []*cli.Command{
			tokenCommand(),
			ledgerCommand(),
			ratingCommand(),
			queueCommand(),
		},
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	return config.Load(c.String("config"))
}

// openStore connects to Postgres for commands that read club data.
func openStore(c *cli.Context, cfg *config.Config) (*database.Store, func(), error) {
	if err := cfg.RequireDatabase(); err != nil {
		return nil, nil, err
	}
	pool, err := database.Connect(c.Context, cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, err
	}
	return database.New(pool), pool.Close, nil
}

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "development tokens",
		Subcommands: []*cli.Command{
			{
				Name:  "issue",
				Usage: "sign a token for a user with the configured secret",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "user", Required: true, Usage: "auth user id"},
					&cli.StringFlag{Name: "email"},
					&cli.DurationFlag{Name: "ttl", Usage: "token lifetime (defaults to jwt.ttl)"},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					if err := cfg.RequireJWT(); err != nil {
						return err
					}
					userID, err := uuid.Parse(c.String("user"))
					if err != nil {
						return fmt.Errorf("invalid user id: %w", err)
					}
					ttl := c.Duration("ttl")
					if ttl == 0 {
						ttl = cfg.JWT.TTL
					}

					token, err := auth.NewVerifier(cfg.JWT.Secret, cfg.JWT.Issuer).CreateToken(userID, c.String("email"), ttl)
					if err != nil {
						return err
					}
					fmt.Fprintln(c.App.Writer, token)
					return nil
				},
			},
		},
	}
}

func ledgerCommand() *cli.Command {
	return &cli.Command{
		Name:  "ledger",
		Usage: "club cash book",
		Subcommands: []*cli.Command{
			{
				Name:  "export",
				Usage: "write a month of the ledger to an xlsx workbook",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "month", Usage: "reference month, YYYY-MM (defaults to the current month)"},
					&cli.StringFlag{Name: "out", Usage: "output file (defaults to ledger-<month>.xlsx)"},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					loc, err := cfg.Location()
					if err != nil {
						return err
					}
					month := c.String("month")
					if month == "" {
						month = time.Now().In(loc).Format(models.MonthLayout)
					}
					if _, err := time.Parse(models.MonthLayout, month); err != nil {
						return fmt.Errorf("invalid month %q, want YYYY-MM", month)
					}
					out := c.String("out")
					if out == "" {
						out = fmt.Sprintf("ledger-%s.xlsx", month)
					}

					store, closeStore, err := openStore(c, cfg)
					if err != nil {
						return err
					}
					defer closeStore()

					members, err := store.ListPlayers(c.Context, false)
					if err != nil {
						return err
					}
					payments, err := store.PaymentsForMonth(c.Context, month)
					if err != nil {
						return err
					}
					withdrawals, err := store.WithdrawalsForMonth(c.Context, month, loc)
					if err != nil {
						return err
					}
					names := make(map[uuid.UUID]string, len(members))
					for _, m := range members {
						names[m.ID] = m.Name
					}
					summary := ledger.Summarize(month, members, payments, withdrawals)

					f, err := os.Create(out)
					if err != nil {
						return err
					}
					if err := ledger.ExportXLSX(f, summary, payments, withdrawals, names); err != nil {
						f.Close()
						return err
					}
					if err := f.Close(); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "wrote %s (balance %.2f, %d pending)\n",
						out, float64(summary.BalanceCents)/100, len(summary.Pending))
					return nil
				},
			},
		},
	}
}

func ratingCommand() *cli.Command {
	return &cli.Command{
		Name:  "rating",
		Usage: "player ratings",
		Subcommands: []*cli.Command{
			{
				Name:  "chart",
				Usage: "render a player's rating history as PNG",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "player", Required: true, Usage: "player id"},
					&cli.StringFlag{Name: "out", Usage: "output file (defaults to rating-<player>.png)"},
				},
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					playerID, err := uuid.Parse(c.String("player"))
					if err != nil {
						return fmt.Errorf("invalid player id: %w", err)
					}
					out := c.String("out")
					if out == "" {
						out = fmt.Sprintf("rating-%s.png", playerID)
					}

					store, closeStore, err := openStore(c, cfg)
					if err != nil {
						return err
					}
					defer closeStore()

					history, err := store.RatingHistory(c.Context, playerID)
					if err != nil {
						return err
					}
					png, err := rating.HistoryChart(history)
					if err != nil {
						return err
					}
					if err := os.WriteFile(out, png, 0o644); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "wrote %s (%d changes)\n", out, len(history))
					return nil
				},
			},
		},
	}
}

func queueCommand() *cli.Command {
	return &cli.Command{
		Name:  "queue",
		Usage: "reminder job queue",
		Subcommands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "apply the job queue migrations",
				Action: func(c *cli.Context) error {
					cfg, err := loadConfig(c)
					if err != nil {
						return err
					}
					if err := cfg.RequireDatabase(); err != nil {
						return err
					}
					pool, err := database.Connect(c.Context, cfg.Postgres.DSN)
					if err != nil {
						return err
					}
					defer pool.Close()

					n, err := reminders.Migrate(c.Context, pool)
					if err != nil {
						return err
					}
					if n == 0 {
						fmt.Fprintln(c.App.Writer, "job queue schema is up to date")
						return nil
					}
					fmt.Fprintf(c.App.Writer, "applied %d job queue migrations\n", n)
					return nil
				},
			},
		},
	}
}
