package main

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/DaanHessen/pointboard/internal/logging"
	"github.com/DaanHessen/pointboard/internal/store"
	"github.com/DaanHessen/pointboard/internal/ui"
	"github.com/DaanHessen/pointboard/internal/util"
)

var (
	version      = "0.1.0"
	seedAlphabet = base32.NewEncoding("abcdefghijklmnopqrstuvwxyz234567").WithPadding(base32.NoPadding)
)

type app struct {
	v       *viper.Viper
	cfgFile string
	verbose bool
	cfg     util.Config
	log     *zap.Logger
}

func main() {
	// Load .env file if it exists (ignore error if file doesn't exist)
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}
	root := &cobra.Command{
		Use:               "pointboard",
		Short:             "Fundraising points board for the terminal",
		Long:              "pointboard tracks points for four grades and the whole school against a shared goal.",
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				_ = a.log.Sync()
			}
		},
		RunE: a.runBoard,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default ./pointboard.yaml)")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")
	flags.String("store", "file", "storage backend: file|memory|postgres")
	flags.String("data-dir", "", "directory for the board file and log")
	flags.String("dsn", "", "PostgreSQL DSN (store=postgres)")
	flags.Int("goal", 0, "points goal")
	flags.String("lang", "", "language: en|he")
	flags.String("theme", "", "color theme")
	flags.String("seed", "", "seed for the ambient animation")
	for key, name := range map[string]string{
		"store":    "store",
		"data_dir": "data-dir",
		"dsn":      "dsn",
		"goal":     "goal",
		"language": "lang",
		"theme":    "theme",
		"seed":     "seed",
	} {
		_ = a.v.BindPFlag(key, flags.Lookup(name))
	}

	root.AddCommand(a.showCmd(), a.addCmd(), a.resetCmd(), a.migrateCmd(), versionCmd())
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := util.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	log, err := logging.New(cfg.Log, a.verbose)
	if err != nil {
		return err
	}
	a.log = log
	a.log.Debug("config loaded", zap.String("store", cfg.Store), zap.String("data_dir", cfg.DataDir))
	return nil
}

func (a *app) runBoard(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	b, err := openBoard(ctx, a.cfg, a.log)
	if err != nil {
		return err
	}
	defer b.Close()

	cfg := a.cfg
	if strings.TrimSpace(cfg.Seed) == "" {
		if cfg.Seed, err = generateSeed(); err != nil {
			return errors.Wrap(err, "generate seed")
		}
	}
	a.log.Info("board starting", zap.String("store", cfg.Store), zap.String("key", b.repo.Key()))
	return ui.Run(ctx, ui.Options{
		Config:    cfg,
		Session:   b.sess,
		Repo:      b.repo,
		Watcher:   b.watcher,
		Book:      b.book,
		Announcer: b.announcer,
		Log:       a.log,
	})
}

func (a *app) showCmd() *cobra.Command {
	var plain bool
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current standings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := openBoard(cmd.Context(), a.cfg, a.log)
			if err != nil {
				return err
			}
			defer b.Close()
			md := b.standings()
			if plain {
				fmt.Fprint(cmd.OutOrStdout(), md)
				return nil
			}
			out, err := glamour.Render(md, "auto")
			if err != nil {
				out = md
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print raw markdown")
	return cmd
}

func (a *app) addCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <counter> <delta>",
		Short: "Change a counter by delta and save",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			delta, err := strconv.Atoi(args[1])
			if err != nil {
				return errors.Wrapf(err, "delta %q", args[1])
			}
			b, err := openBoard(cmd.Context(), a.cfg, a.log)
			if err != nil {
				return err
			}
			defer b.Close()
			msg, err := b.apply(cmd.Context(), args[0], delta)
			if err != nil {
				return err
			}
			c, _ := b.sess.Counter(args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", c.Name, b.book.Points(c.Points))
			if msg != "" {
				fmt.Fprintln(cmd.OutOrStdout(), msg)
			}
			return nil
		},
	}
}

func (a *app) resetCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Zero every counter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("refusing to reset without --yes")
			}
			b, err := openBoard(cmd.Context(), a.cfg, a.log)
			if err != nil {
				return err
			}
			defer b.Close()
			b.sess.Reset()
			if err := b.repo.Save(cmd.Context(), b.sess.StatePtr()); err != nil {
				return err
			}
			a.log.Info("board reset from cli")
			fmt.Fprintln(cmd.OutOrStdout(), "All counters reset to 0")
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func (a *app) migrateCmd() *cobra.Command {
	run := func(up bool) func(cmd *cobra.Command, args []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			migrator, err := store.NewMigrator(a.cfg.DSN)
			if err != nil {
				return err
			}
			if up {
				if err := migrator.Up(ctx); err != nil && err != store.ErrNoChange {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied")
				return nil
			}
			if err := migrator.Down(ctx); err != nil && err != store.ErrNoChange {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations rolled back")
			return nil
		}
	}
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the postgres schema",
	}
	cmd.AddCommand(
		&cobra.Command{Use: "up", Short: "Apply migrations", Args: cobra.NoArgs, RunE: run(true)},
		&cobra.Command{Use: "down", Short: "Roll back migrations", Args: cobra.NoArgs, RunE: run(false)},
	)
	return cmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		// no config or log file needed
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "pointboard", version)
		},
	}
}

func generateSeed() (string, error) {
	buf := make([]byte, 10) // 16 characters base32
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return strings.ToLower(seedAlphabet.EncodeToString(buf)), nil
}
