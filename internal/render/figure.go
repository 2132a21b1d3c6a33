package render

import (
	"context"

	"github.com/hydroviewer/hydroviewer/internal/source/static"
)

// NoDataText is the placeholder text for a missing figure.
const NoDataText = "No data"

// Figure is a pre-rendered image reference or its placeholder.
type Figure struct {
	Path        string `json:"path,omitempty"`
	URL         string `json:"url,omitempty"`
	Placeholder bool   `json:"placeholder"`
	Text        string `json:"text,omitempty"`
}

// Placeholder is the figure shown when no image is available.
func Placeholder() Figure {
	return Figure{Placeholder: true, Text: NoDataText}
}

// ResolveFigure checks that the image at rel exists. An empty rel, a missing image or
// a failed check all yield the placeholder.
func ResolveFigure(ctx context.Context, fetcher static.Fetcher, rel string) Figure {
	if rel == "" || fetcher == nil {
		return Placeholder()
	}
	ok, err := fetcher.Exists(ctx, rel)
	if err != nil || !ok {
		return Placeholder()
	}
	return Figure{Path: rel, URL: fetcher.URL(rel)}
}
