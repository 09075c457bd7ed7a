package bundle

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// Handle serves the current bundle to evaluations and supports atomic
// reloads. Readers call Current once per evaluation and keep that pointer
// for the whole run, so a concurrent reload never mixes table versions
// within a single result.
type Handle struct {
	dir     string
	current atomic.Pointer[Bundle]
	logger  *slog.Logger
}

// NewHandle loads the bundle from dir and returns a serving handle.
func NewHandle(dir string, logger *slog.Logger) (*Handle, error) {
	b, err := Load(dir)
	if err != nil {
		return nil, err
	}
	h := &Handle{dir: dir, logger: logger}
	h.current.Store(b)
	return h, nil
}

// Current returns the bundle in effect. The returned bundle is immutable
// and safe to use after a reload replaces it.
func (h *Handle) Current() *Bundle {
	return h.current.Load()
}

// Reload loads the bundle directory again and swaps it in. On any load or
// validation error the previous bundle stays in effect.
func (h *Handle) Reload(ctx context.Context) error {
	next, err := Load(h.dir)
	if err != nil {
		h.logger.ErrorContext(ctx, "bundle reload rejected", "dir", h.dir, "error", err)
		return err
	}

	prev := h.current.Swap(next)
	h.logger.InfoContext(ctx, "bundle reloaded",
		"version", next.Version(),
		"fingerprint", next.Fingerprint(),
		"previous_fingerprint", prev.Fingerprint(),
	)
	return nil
}
