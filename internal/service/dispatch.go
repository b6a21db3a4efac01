package service

import (
	"context"
	"io"
	"net"
	"time"

	"github.com/containerd/log"

	"github.com/quickfind/quickfind/internal/index"
	"github.com/quickfind/quickfind/internal/ipc"
	"github.com/quickfind/quickfind/internal/metrics"
	"github.com/quickfind/quickfind/pkg/errdefs"
)

// handleConn serves exactly one request per connection: quickfind
// clients open a pipe, send one query, read one response, and close,
// following the request/response shape in
// original_source/quickfind_client.h.
func (w *Worker) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	req, err := ipc.ReadRequest(conn)
	if err != nil {
		log.G(ctx).WithError(err).Debug("failed to read request")
		_ = ipc.WriteResponse(conn, errdefs.Code(err), ipc.QueryResponse{})
		return
	}

	start := time.Now()
	result := w.runQuery(req)
	metrics.QueryDuration.Observe(time.Since(start).Seconds())

	code := errdefs.OK
	if result.FoundCount == 0 {
		code = errdefs.NoResult
	}

	resp := ipc.QueryResponse{
		FoundCount:  uint64(result.FoundCount),
		ReturnCount: uint32(len(result.Items)),
		Items:       result.Items,
	}
	if writeErr := ipc.WriteResponse(conn, code, resp); writeErr != nil {
		if errdefs.Is(writeErr, errdefs.ErrOutOfMemory) {
			_ = ipc.WriteResponse(conn, errdefs.OutOfMemory, ipc.QueryResponse{})
			return
		}
		if writeErr != io.EOF {
			log.G(ctx).WithError(writeErr).Debug("failed to write response")
		}
	}
}

func (w *Worker) runQuery(req ipc.QueryRequest) index.Result {
	store, mu := w.Store()
	mu.RLock()
	defer mu.RUnlock()

	q := index.Query{
		Text:        req.Text,
		Flags:       req.Flags,
		ReturnCount: int(req.ReturnCount),
		SkipCount:   int(req.SkipCount),
		StopCount:   int(req.StopCount),
	}
	return index.Run(store, q, w.DriveLetter())
}
