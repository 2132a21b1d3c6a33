package render

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ErrDrawFailed wraps any backend failure, including panics.
var ErrDrawFailed = errors.New("chart draw failed")

// Renderer draws specs through a backend and contains its failures.
type Renderer struct {
	backend Backend
	logger  zerolog.Logger
}

// NewRenderer creates a renderer. A nil backend uses GoChart.
func NewRenderer(backend Backend, logger zerolog.Logger) *Renderer {
	if backend == nil {
		backend = GoChart{}
	}
	return &Renderer{backend: backend, logger: logger}
}

// Draw renders spec to PNG bytes. Backend errors and panics are returned as
// ErrDrawFailed and never propagate further.
func (r *Renderer) Draw(spec Spec) (png []byte, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error().
				Interface("panic", rec).
				Str("title", spec.Title).
				Msg("chart backend panicked")
			png = nil
			err = fmt.Errorf("%w: panic: %v", ErrDrawFailed, rec)
		}
	}()

	var buf bytes.Buffer
	if err := r.backend.Draw(&buf, spec); err != nil {
		r.logger.Warn().Err(err).Str("title", spec.Title).Msg("chart draw failed")
		return nil, fmt.Errorf("%w: %w", ErrDrawFailed, err)
	}
	return buf.Bytes(), nil
}
