//go:build !windows

package service

import (
	"context"

	"github.com/quickfind/quickfind/pkg/errdefs"
)

// Serve is unreachable off Windows: named pipes are a Windows IPC
// primitive. Kept so cmd/quickfind builds everywhere for development
// and testing against the in-memory pieces.
func (w *Worker) Serve(ctx context.Context) error {
	return errdefs.ErrUnsupportedPlatform
}
