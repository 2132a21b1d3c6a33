// Package app assembles the data pipeline shared by the API server, the worker and
// the CLI: upstream clients, the domain resolver and the view composer.
package app

import (
	"errors"
	"fmt"
	"net/url"
	"os"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"

	"github.com/hydroviewer/hydroviewer/internal/maplayer"
	"github.com/hydroviewer/hydroviewer/internal/provider/resilience"
	"github.com/hydroviewer/hydroviewer/internal/source"
	"github.com/hydroviewer/hydroviewer/internal/source/live"
	"github.com/hydroviewer/hydroviewer/internal/source/static"
	"github.com/hydroviewer/hydroviewer/internal/view"
)

// Options configures the pipeline.
type Options struct {
	// PageURL locates the static bundle unless StaticDir is set.
	PageURL string

	// StaticDir serves the bundle from disk. Figure URLs still resolve under PageURL.
	StaticDir string

	// APIBase is the backend origin. Empty means static-only.
	APIBase string

	AxisMin string
	AxisMax string

	// Settings supplies enabled domains and render strategies (optional).
	Settings view.SettingsSource

	// Metrics records resolver instruments (optional).
	Metrics *source.Metrics

	// Registry tracks upstream health (default: a new registry).
	Registry *resilience.Registry

	Clock  clockwork.Clock
	Logger zerolog.Logger
}

// Pipeline is the assembled data pipeline.
type Pipeline struct {
	Registry *resilience.Registry
	Static   static.Fetcher
	Live     *live.Client // nil when static-only
	Resolver *source.Resolver
	Composer *view.Composer
}

// New builds the pipeline.
func New(opts Options) (*Pipeline, error) {
	clock := opts.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	registry := opts.Registry
	if registry == nil {
		registry = resilience.NewRegistryWithClock(clock)
	}

	fetcher, err := newFetcher(opts, registry)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{Registry: registry, Static: fetcher}

	var liveAPI source.LiveAPI
	if opts.APIBase != "" {
		cfg := resilience.DefaultClientConfig(live.UpstreamName)
		cfg.Registry = registry
		p.Live = live.NewClient(live.ClientConfig{
			BaseURL:    opts.APIBase,
			HTTPClient: resilience.NewClient(cfg),
			Clock:      clock,
			Logger:     opts.Logger,
		})
		liveAPI = p.Live
	}

	p.Resolver = source.NewResolver(source.ResolverConfig{
		Live:    liveAPI,
		Static:  fetcher,
		Logger:  opts.Logger,
		Clock:   clock,
		Metrics: opts.Metrics,
	})
	p.Composer = view.NewComposer(view.ComposerConfig{
		Source:   p.Resolver,
		Images:   fetcher,
		Settings: opts.Settings,
		AxisMin:  opts.AxisMin,
		AxisMax:  opts.AxisMax,
		Logger:   opts.Logger,
	})

	opts.Logger.Info().
		Str("mode", p.Mode()).
		Str("api_base", opts.APIBase).
		Str("static_dir", opts.StaticDir).
		Str("page_url", opts.PageURL).
		Msg("data pipeline ready")
	return p, nil
}

// Overlays returns the overlay source, or nil when static-only.
func (p *Pipeline) Overlays() maplayer.OverlayAPI {
	if p.Live == nil {
		return nil
	}
	return p.Live
}

// Mode is "live" with a backend and "static" without.
func (p *Pipeline) Mode() string {
	if p.Live != nil {
		return string(source.OriginLive)
	}
	return string(source.OriginStatic)
}

func newFetcher(opts Options, registry *resilience.Registry) (static.Fetcher, error) {
	if opts.StaticDir != "" {
		info, err := os.Stat(opts.StaticDir)
		if err != nil {
			return nil, fmt.Errorf("static dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("static dir %s: %w", opts.StaticDir, errNotDir)
		}
		return static.NewFSFetcher(os.DirFS(opts.StaticDir), pageBase(opts.PageURL)), nil
	}

	cfg := resilience.DefaultClientConfig(static.UpstreamName)
	cfg.Registry = registry
	fetcher, err := static.NewHTTPFetcher(opts.PageURL, resilience.NewClient(cfg))
	if err != nil {
		return nil, fmt.Errorf("static fetcher: %w", err)
	}
	return fetcher, nil
}

var errNotDir = errors.New("not a directory")

// pageBase is the browser-facing prefix for bundle assets served next to the page.
func pageBase(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return ""
	}
	base := static.BasePath(u.Path)
	if base == "" {
		base = "/"
	}
	return u.Scheme + "://" + u.Host + base
}
