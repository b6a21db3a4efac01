package service

import (
	"context"

	"github.com/containerd/log"
	"golang.org/x/sync/errgroup"

	"github.com/quickfind/quickfind/internal/config"
)

// Start runs the indexing worker and the query server side by side
// until ctx is cancelled, returning the first error either produced.
func Start(ctx context.Context, cfg config.Config) error {
	w := NewWorker(cfg)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := w.Run(ctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})
	g.Go(func() error {
		err := w.Serve(ctx)
		if err == context.Canceled {
			return nil
		}
		return err
	})

	log.G(ctx).WithField("pipe", cfg.PipeName).WithField("drive", cfg.DriveLetter).Info("quickfind service started")
	return g.Wait()
}
