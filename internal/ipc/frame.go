// Package ipc implements the quickfind wire protocol: a fixed-layout
// header followed by a body of up to 1 MiB, carried over a local named
// pipe. It is kept small and self-contained so swapping it for an
// external framing library only touches here.
//
// The layout is grounded verbatim in
// _examples/original_source/quickfind_shared.h's msg/msg_query_request/
// msg_query_response structs.
package ipc

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"

	"github.com/quickfind/quickfind/internal/index"
	"github.com/quickfind/quickfind/pkg/errdefs"
)

// MessageType is the header's type field.
type MessageType uint32

const (
	MsgNone MessageType = iota
	MsgQueryRequest
	MsgQueryResponse
)

// MaxBodySize is the 1 MiB cap a frame body may not exceed.
const MaxBodySize = 1 << 20

// headerSize is type(4) + error(4) + union(24: request/response overlap
// at 24 bytes, the request's widest shape) + body_size(4).
const headerSize = 4 + 4 + 24 + 4

// QueryRequest is the union member carried by a MsgQueryRequest frame.
type QueryRequest struct {
	ReturnCount uint32
	SkipCount   uint64
	StopCount   uint64
	Flags       index.Flags
	Text        string
}

// QueryResponse is the union member carried by a MsgQueryResponse frame.
type QueryResponse struct {
	FoundCount  uint64
	ReturnCount uint32
	Items       []index.ResultItem
}

// ReadRequest decodes one request frame from r.
func ReadRequest(r io.Reader) (QueryRequest, error) {
	var hdr [headerSize]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return QueryRequest{}, errors.Wrap(errdefs.ErrShortFrame, err.Error())
	}

	typ := MessageType(binary.LittleEndian.Uint32(hdr[0:4]))
	if typ != MsgQueryRequest {
		return QueryRequest{}, errdefs.ErrUnknownType
	}

	req := QueryRequest{
		ReturnCount: binary.LittleEndian.Uint32(hdr[8:12]),
		SkipCount:   binary.LittleEndian.Uint64(hdr[12:20]),
		StopCount:   binary.LittleEndian.Uint64(hdr[20:28]),
		Flags:       index.Flags(binary.LittleEndian.Uint32(hdr[28:32])),
	}
	bodySize := binary.LittleEndian.Uint32(hdr[32:36])
	if bodySize > MaxBodySize {
		return QueryRequest{}, errdefs.ErrBodyTooLarge
	}

	body := make([]byte, bodySize)
	if _, err := io.ReadFull(r, body); err != nil {
		return QueryRequest{}, errors.Wrap(errdefs.ErrShortFrame, err.Error())
	}
	req.Text = string(body)
	return req, nil
}

// WriteResponse encodes and writes a response frame carrying every
// item in resp as a packed QueryResultItem sequence. If the packed
// items exceed MaxBodySize, nothing is written and ErrOutOfMemory is
// returned; this function never silently drops an item.
func WriteResponse(w io.Writer, code errdefs.WireCode, resp QueryResponse) error {
	body, err := encodeResultItems(resp.Items)
	if err != nil {
		return err
	}
	if len(body) > MaxBodySize {
		return errdefs.ErrOutOfMemory
	}

	var hdr [headerSize]byte
	binary.LittleEndian.PutUint32(hdr[0:4], uint32(MsgQueryResponse))
	binary.LittleEndian.PutUint32(hdr[4:8], uint32(code))
	binary.LittleEndian.PutUint64(hdr[8:16], resp.FoundCount)
	binary.LittleEndian.PutUint32(hdr[16:20], resp.ReturnCount)
	binary.LittleEndian.PutUint32(hdr[32:36], uint32(len(body)))

	if _, err := w.Write(hdr[:]); err != nil {
		return errors.Wrap(errdefs.ErrIO, err.Error())
	}
	if _, err := w.Write(body); err != nil {
		return errors.Wrap(errdefs.ErrIO, err.Error())
	}
	return nil
}

// encodeResultItems packs QueryResultItem{id, attributes, path_size,
// path[...]} entries.
func encodeResultItems(items []index.ResultItem) ([]byte, error) {
	var out []byte
	for _, it := range items {
		pathBytes := append([]byte(it.Path), 0) // "including NUL"
		var entry [8 + 4 + 4]byte
		binary.LittleEndian.PutUint64(entry[0:8], uint64(it.Id))
		binary.LittleEndian.PutUint32(entry[8:12], it.Attributes)
		binary.LittleEndian.PutUint32(entry[12:16], uint32(len(pathBytes)))
		out = append(out, entry[:]...)
		out = append(out, pathBytes...)
		if len(out) > MaxBodySize {
			return nil, errdefs.ErrOutOfMemory
		}
	}
	return out, nil
}

// DecodeResultItems is the client-side inverse of encodeResultItems,
// used by tests that exercise the wire format round-trip.
func DecodeResultItems(body []byte) ([]index.ResultItem, error) {
	var items []index.ResultItem
	pos := 0
	for pos+16 <= len(body) {
		id := index.RecordId(binary.LittleEndian.Uint64(body[pos : pos+8]))
		attrs := binary.LittleEndian.Uint32(body[pos+8 : pos+12])
		pathSize := int(binary.LittleEndian.Uint32(body[pos+12 : pos+16]))
		pos += 16
		if pos+pathSize > len(body) || pathSize == 0 {
			return nil, errors.New("ipc: truncated result item")
		}
		path := string(body[pos : pos+pathSize-1]) // drop trailing NUL
		pos += pathSize
		items = append(items, index.ResultItem{Id: id, Attributes: attrs, Path: path})
	}
	return items, nil
}
