package static_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroviewer/hydroviewer/internal/provider/resilience"
	"github.com/hydroviewer/hydroviewer/internal/source/static"
)

func TestBasePath(t *testing.T) {
	tests := []struct {
		page string
		want string
	}{
		{"", ""},
		{"/", ""},
		{"/index.html", ""},
		{"/hydro/", "/hydro/"},
		{"/hydro/index.html", "/hydro/"},
		{"/hydro/deep/page.html", "/hydro/"},
	}
	for _, tt := range tests {
		t.Run(tt.page, func(t *testing.T) {
			assert.Equal(t, tt.want, static.BasePath(tt.page))
		})
	}
}

func TestDocumentPath(t *testing.T) {
	assert.Equal(t, "data/storms_data.json", static.DocumentPath("storms_data"))
}

func testClient() *resilience.Client {
	return resilience.NewClient(resilience.ClientConfig{
		Name:            "static-test",
		Timeout:         2 * time.Second,
		InitialInterval: 5 * time.Millisecond,
		MaxInterval:     10 * time.Millisecond,
	})
}

func TestHTTPFetcher_ResolvesUnderSubPath(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/hydro/data/storms_data.json":
			_, _ = w.Write([]byte(`{"storms":[]}`))
		case "/hydro/images/vtec/vtec_timeline_8454000.png":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	f, err := static.NewHTTPFetcher(server.URL+"/hydro/index.html", testClient())
	require.NoError(t, err)

	assert.Equal(t, server.URL+"/hydro/data/storms_data.json", f.URL("data/storms_data.json"))

	body, err := f.Fetch(context.Background(), static.DocumentPath("storms_data"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"storms":[]}`, string(body))

	_, err = f.Fetch(context.Background(), static.DocumentPath("vtec_data"))
	assert.ErrorIs(t, err, static.ErrNotFound)

	ok, err := f.Exists(context.Background(), "images/vtec/vtec_timeline_8454000.png")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.Exists(context.Background(), "images/vtec/vtec_timeline_01108000.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHTTPFetcher_RootPage(t *testing.T) {
	f, err := static.NewHTTPFetcher("http://127.0.0.1:8080/index.html", testClient())
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080/data/discharge_data.json", f.URL("data/discharge_data.json"))
}

func TestNewHTTPFetcher_RejectsFileScheme(t *testing.T) {
	_, err := static.NewHTTPFetcher("file:///home/me/index.html", nil)
	assert.Error(t, err)
}

func TestFSFetcher(t *testing.T) {
	fsys := fstest.MapFS{
		"data/storms_data.json":        {Data: []byte(`{"storms":[]}`)},
		"images/noaa/8454000_wind.png": {Data: []byte{0x89, 'P', 'N', 'G'}},
	}
	f := static.NewFSFetcher(fsys, "/static/")

	body, err := f.Fetch(context.Background(), "data/storms_data.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"storms":[]}`, string(body))

	_, err = f.Fetch(context.Background(), "data/vtec_data.json")
	assert.ErrorIs(t, err, static.ErrNotFound)

	ok, err := f.Exists(context.Background(), "images/noaa/8454000_wind.png")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.Exists(context.Background(), "images/noaa/8454000_humidity.png")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.Exists(context.Background(), "../etc/passwd")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.Equal(t, "/static/images/noaa/8454000_wind.png", f.URL("images/noaa/8454000_wind.png"))
}
