// Package main provides hydroctl, a command line client for the hydrology viewer data
// pipeline: station id normalization, catalogs, view composition and chart rendering.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hydroviewer/hydroviewer/internal/app"
	"github.com/hydroviewer/hydroviewer/internal/config"
	"github.com/hydroviewer/hydroviewer/internal/view"
)

// Version is set at compile time via ldflags.
var Version = "dev"

// cli carries state shared by subcommands.
type cli struct {
	v      *viper.Viper
	logger zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:           "hydroctl",
		Short:         "Inspect and render hydrology viewer data",
		Long:          "Normalizes station ids, lists catalogs, composes station views and renders panel charts from the static bundle or the live backend.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level, err := zerolog.ParseLevel(c.v.GetString("log-level"))
			if err != nil {
				return fmt.Errorf("log level: %w", err)
			}
			c.logger = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr(), TimeFormat: time.Kitchen}).
				Level(level).
				With().
				Timestamp().
				Logger()
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.String("page-url", "http://localhost:8080/", "URL the viewer page is served from")
	flags.String("static-dir", "", "read the static bundle from this directory")
	flags.String("api-base", "", `backend origin ("off" for static-only; default derived from page-url)`)
	flags.String("axis-min", view.DefaultAxisMin, "chart x axis lower bound")
	flags.String("axis-max", view.DefaultAxisMax, "chart x axis upper bound")
	flags.String("log-level", "warn", "log level")

	c.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	c.v.AutomaticEnv()
	_ = c.v.BindPFlags(flags)

	root.AddCommand(
		newIDsCmd(),
		newStationsCmd(c),
		newViewCmd(c),
		newRenderCmd(c),
		newPreloadCmd(c),
	)
	return root
}

// pipeline builds the data pipeline from flags and environment.
func (c *cli) pipeline(settings view.SettingsSource) (*app.Pipeline, error) {
	pageURL := c.v.GetString("page-url")
	return app.New(app.Options{
		PageURL:   pageURL,
		StaticDir: c.v.GetString("static-dir"),
		APIBase:   config.ResolveAPIBase(pageURL, c.v.GetString("api-base")),
		AxisMin:   c.v.GetString("axis-min"),
		AxisMax:   c.v.GetString("axis-max"),
		Settings:  settings,
		Logger:    c.logger,
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
