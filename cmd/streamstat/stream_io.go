package main

import (
	"context"
	"io"

	"github.com/jingkaihe/streamstat/internal/errx"
)

// copyStream opens target read-only through the app's registry and copies
// it to w.
func (a *app) copyStream(ctx context.Context, w io.Writer, target string) (err error) {
	h, err := a.registry.Open(ctx, target, "rb")
	if err != nil {
		return errx.With(ErrOpenStream, ": %s: %w", target, err)
	}
	defer func() {
		if closeErr := h.Close(); closeErr != nil && err == nil {
			err = errx.With(ErrCopyStream, ": close %s: %w", target, closeErr)
		}
	}()

	if _, err := io.Copy(w, h); err != nil {
		return errx.With(ErrCopyStream, ": %s: %w", target, err)
	}
	return nil
}
