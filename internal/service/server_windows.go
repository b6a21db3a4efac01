//go:build windows

package service

import (
	"context"

	winio "github.com/Microsoft/go-winio"
	"github.com/pkg/errors"
)

// Serve listens on the configured named pipe and dispatches one
// connection at a time, following the single-instance, message-mode
// contract original_source/quickfind_server.c builds with
// CreateNamedPipeA(..., PIPE_TYPE_MESSAGE | PIPE_READMODE_MESSAGE, 1,
// ...). It returns when ctx is cancelled or the listener fails.
func (w *Worker) Serve(ctx context.Context) error {
	cfg := &winio.PipeConfig{
		SecurityDescriptor: "D:P(A;;GA;;;WD)", // everyone, full access, no inheritance
		MessageMode:        true,
	}
	l, err := winio.ListenPipe(w.cfg.PipeName, cfg)
	if err != nil {
		return errors.Wrap(err, "service: listen on pipe")
	}

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	// winio.PipeConfig has no max-instance setting, so the single-instance
	// contract is enforced here instead: handleConn runs synchronously, and
	// the loop does not call Accept again until it returns, refusing a
	// second client until the current one disconnects.
	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				return errors.Wrap(err, "service: accept pipe connection")
			}
		}
		w.handleConn(ctx, conn)
	}
}
