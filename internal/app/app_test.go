package app_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroviewer/hydroviewer/internal/app"
)

func TestNew_StaticDir(t *testing.T) {
	p, err := app.New(app.Options{
		PageURL:   "http://localhost:8080/hydro/index.html",
		StaticDir: t.TempDir(),
		Clock:     clockwork.NewFakeClock(),
		Logger:    zerolog.Nop(),
	})
	require.NoError(t, err)

	assert.Equal(t, "static", p.Mode())
	assert.Nil(t, p.Live)
	assert.Nil(t, p.Overlays())
	assert.False(t, p.Resolver.LiveEnabled())
	assert.Equal(t, "http://localhost:8080/hydro/figures/vtec/01108000.png", p.Static.URL("figures/vtec/01108000.png"))
	assert.Equal(t, 0, p.Registry.Count())
}

func TestNew_LiveBackend(t *testing.T) {
	p, err := app.New(app.Options{
		PageURL: "http://localhost:8080/",
		APIBase: "http://127.0.0.1:8000",
		Logger:  zerolog.Nop(),
	})
	require.NoError(t, err)

	assert.Equal(t, "live", p.Mode())
	require.NotNil(t, p.Live)
	assert.NotNil(t, p.Overlays())
	assert.True(t, p.Resolver.LiveEnabled())
	assert.Equal(t, "http://127.0.0.1:8000", p.Live.BaseURL())
	assert.Equal(t, 2, p.Registry.Count())
	assert.Equal(t, "http://localhost:8080/data/stations.json", p.Static.URL("data/stations.json"))
}

func TestNew_Errors(t *testing.T) {
	file := filepath.Join(t.TempDir(), "bundle.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0o600))

	tests := []struct {
		name string
		opts app.Options
	}{
		{"file page url", app.Options{PageURL: "file:///srv/hydro/index.html"}},
		{"missing static dir", app.Options{StaticDir: filepath.Join(t.TempDir(), "missing")}},
		{"static dir is a file", app.Options{StaticDir: file}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Logger = zerolog.Nop()
			_, err := app.New(tt.opts)
			assert.Error(t, err)
		})
	}
}
