// Package static reads the bundled data documents and figure images that ship with a
// deployment, either over HTTP relative to the page location or from a local directory.
package static

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"path"
	"strings"

	"github.com/hydroviewer/hydroviewer/internal/provider/resilience"
)

// UpstreamName identifies the page host in the upstream registry.
const UpstreamName = "static-data"

// ErrNotFound is returned when a document or image is absent from the bundle.
var ErrNotFound = errors.New("static asset not found")

// Fetcher reads assets addressed relative to the deployment base path.
type Fetcher interface {
	// Fetch returns the bytes of the asset at rel, e.g. "data/vtec_data.json".
	Fetch(ctx context.Context, rel string) ([]byte, error)

	// Exists reports whether the asset at rel is present.
	Exists(ctx context.Context, rel string) (bool, error)

	// URL returns the address a browser would use for rel.
	URL(rel string) string
}

// DocumentPath returns the relative path of a named data document.
func DocumentPath(name string) string {
	return "data/" + name + ".json"
}

// BasePath derives the deployment base path from the page path. A page served from a
// sub-path such as /hydro/index.html uses "/hydro/"; a page at the root uses "".
func BasePath(pagePath string) string {
	if pagePath == "" || pagePath == "/" || pagePath == "/index.html" {
		return ""
	}
	first := strings.SplitN(strings.TrimPrefix(pagePath, "/"), "/", 2)[0]
	if first == "" {
		return ""
	}
	return "/" + first + "/"
}

// HTTPFetcher reads assets from the host that serves the page.
type HTTPFetcher struct {
	origin   string
	basePath string
	client   *resilience.Client
}

// NewHTTPFetcher creates a fetcher for the page at pageURL.
func NewHTTPFetcher(pageURL string, client *resilience.Client) (*HTTPFetcher, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parsing page url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("page url %q: unsupported scheme %q", pageURL, u.Scheme)
	}
	if client == nil {
		client = resilience.NewClient(resilience.DefaultClientConfig(UpstreamName))
	}
	return &HTTPFetcher{
		origin:   u.Scheme + "://" + u.Host,
		basePath: BasePath(u.Path),
		client:   client,
	}, nil
}

// URL returns the absolute URL for rel.
func (f *HTTPFetcher) URL(rel string) string {
	base := f.basePath
	if base == "" {
		base = "/"
	}
	return f.origin + base + strings.TrimPrefix(rel, "/")
}

// Fetch downloads the asset at rel.
func (f *HTTPFetcher) Fetch(ctx context.Context, rel string) ([]byte, error) {
	body, err := f.client.Get(ctx, f.URL(rel))
	if err != nil {
		if errors.Is(err, resilience.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", rel, ErrNotFound)
		}
		return nil, fmt.Errorf("fetching %s: %w", rel, err)
	}
	return body, nil
}

// Exists issues a HEAD request for rel.
func (f *HTTPFetcher) Exists(ctx context.Context, rel string) (bool, error) {
	ok, err := f.client.Head(ctx, f.URL(rel))
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", rel, err)
	}
	return ok, nil
}

// FSFetcher reads assets from a file system rooted at the deployment base.
type FSFetcher struct {
	fsys      fs.FS
	urlPrefix string
}

// NewFSFetcher creates a fetcher over fsys. urlPrefix is prepended to relative paths
// when building browser URLs and may be empty.
func NewFSFetcher(fsys fs.FS, urlPrefix string) *FSFetcher {
	return &FSFetcher{fsys: fsys, urlPrefix: urlPrefix}
}

// URL returns rel under the configured prefix.
func (f *FSFetcher) URL(rel string) string {
	return f.urlPrefix + strings.TrimPrefix(rel, "/")
}

// Fetch reads the asset at rel.
func (f *FSFetcher) Fetch(_ context.Context, rel string) ([]byte, error) {
	name, err := cleanRel(rel)
	if err != nil {
		return nil, err
	}
	data, err := fs.ReadFile(f.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", rel, ErrNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", rel, err)
	}
	return data, nil
}

// Exists reports whether rel names a regular file.
func (f *FSFetcher) Exists(_ context.Context, rel string) (bool, error) {
	name, err := cleanRel(rel)
	if err != nil {
		return false, nil
	}
	info, err := fs.Stat(f.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("checking %s: %w", rel, err)
	}
	return info.Mode().IsRegular(), nil
}

func cleanRel(rel string) (string, error) {
	name := path.Clean(strings.TrimPrefix(rel, "/"))
	if !fs.ValidPath(name) {
		return "", fmt.Errorf("%s: %w", rel, ErrNotFound)
	}
	return name, nil
}
