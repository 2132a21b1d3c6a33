package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hydroviewer/hydroviewer/internal/render"
	"github.com/hydroviewer/hydroviewer/internal/selection"
	"github.com/hydroviewer/hydroviewer/internal/view"
)

var errNoStation = errors.New("exactly one of --discharge or --tide is required")

// target is the selection shared by view and render.
type target struct {
	discharge string
	tide      string
	storm     string
	charts    bool
}

func (t *target) bind(cmd *cobra.Command) {
	cmd.Flags().StringVar(&t.discharge, "discharge", "", "discharge station id")
	cmd.Flags().StringVar(&t.tide, "tide", "", "NOAA tide station id")
	cmd.Flags().StringVar(&t.storm, "storm", "", "storm id to filter charts by")
	cmd.Flags().BoolVar(&t.charts, "charts", false, "draw every panel as a chart instead of pre-rendered figures")
}

func (t *target) request() (view.Request, error) {
	var e selection.Event
	switch {
	case t.discharge != "" && t.tide == "":
		e = selection.SelectDischarge(t.discharge)
	case t.tide != "" && t.discharge == "":
		e = selection.SelectTide(t.tide)
	default:
		return view.Request{}, errNoStation
	}
	state, effects := selection.Apply(selection.Unselected, e)
	if len(effects) == 0 {
		return view.Request{}, fmt.Errorf("invalid station id %q", e.StationID)
	}
	return view.Request{Selection: state, StormID: t.storm}, nil
}

func (t *target) settings() view.SettingsSource {
	if !t.charts {
		return nil
	}
	return allCharts{}
}

// allCharts draws every panel as a chart with every domain enabled.
type allCharts struct{}

func (allCharts) ViewSettings(context.Context) view.Settings {
	s := view.Settings{Strategies: make(map[view.PanelID]view.Strategy)}
	for _, id := range view.PanelOrder() {
		s.Strategies[id] = view.StrategyChart
	}
	return s
}

func (c *cli) compose(ctx context.Context, t *target) (view.View, error) {
	req, err := t.request()
	if err != nil {
		return view.View{}, err
	}
	p, err := c.pipeline(t.settings())
	if err != nil {
		return view.View{}, err
	}
	return p.Composer.Compose(ctx, req), nil
}

func newViewCmd(c *cli) *cobra.Command {
	var t target

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Compose the view for a station and print it as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := c.compose(cmd.Context(), &t)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(v)
		},
	}
	t.bind(cmd)
	return cmd
}

func newRenderCmd(c *cli) *cobra.Command {
	var (
		t     target
		panel string
		out   string
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render one panel chart of a station view to PNG",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := c.compose(cmd.Context(), &t)
			if err != nil {
				return err
			}
			p, ok := v.Panel(view.PanelID(panel))
			if !ok {
				return fmt.Errorf("unknown panel %q", panel)
			}
			if p.State != view.StateChart || p.Chart == nil {
				return fmt.Errorf("panel %s has no chart (%s: %s)", panel, p.State, p.Message)
			}

			png, err := render.NewRenderer(render.GoChart{}, c.logger).Draw(*p.Chart)
			if err != nil {
				return err
			}
			if out == "-" {
				_, err = cmd.OutOrStdout().Write(png)
				return err
			}
			if err := os.WriteFile(out, png, 0o644); err != nil {
				return fmt.Errorf("writing %s: %w", out, err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%d bytes)\n", out, len(png))
			return nil
		},
	}
	t.bind(cmd)
	cmd.Flags().StringVar(&panel, "panel", string(view.PanelDischarge), "panel id")
	cmd.Flags().StringVarP(&out, "out", "o", "chart.png", `output file, "-" for stdout`)
	return cmd
}
