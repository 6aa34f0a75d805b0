/*
author: akashmaji
email: akashmaji@iisc.ac.in
file: respkv/internal/server/handler.go
*/

// Package server wires the codec, command parser, store, and expiry
// scheduler together into a running connection handler and listener,
// grounded on the teacher's accept-loop/handleOneConnection shape.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/akashmaji946/respkv/internal/command"
	"github.com/akashmaji946/respkv/internal/expiry"
	"github.com/akashmaji946/respkv/internal/logging"
	"github.com/akashmaji946/respkv/internal/resp"
	"github.com/akashmaji946/respkv/internal/store"
)

// readChunkSize is how much is read from the connection per Read call;
// the resp.Buffer reassembles frames across however many chunks a
// message actually arrives in.
const readChunkSize = 4096

// connHandler drives a single connection for its lifetime: read frame,
// parse command, execute, write reply, repeat, strictly in that order so
// replies are never reordered relative to their requests.
type connHandler struct {
	conn  net.Conn
	id    string
	store *store.Store
	sched *expiry.Scheduler
	log   *logging.Logger

	buf resp.Buffer
}

func newConnHandler(conn net.Conn, s *store.Store, sched *expiry.Scheduler, log *logging.Logger) *connHandler {
	return &connHandler{
		conn:  conn,
		id:    uuid.NewString(),
		store: s,
		sched: sched,
		log:   log,
	}
}

// serve runs the read-parse-execute-reply loop until the connection is
// closed or ctx is cancelled.
func (h *connHandler) serve(ctx context.Context) {
	h.log.Info("[%s] accepted connection from %s", h.id, h.conn.RemoteAddr())
	defer func() {
		h.conn.Close()
		h.log.Info("[%s] closed connection from %s", h.id, h.conn.RemoteAddr())
	}()

	// Closing the connection on cancellation unblocks a pending Read.
	stop := context.AfterFunc(ctx, func() { h.conn.Close() })
	defer stop()

	chunk := make([]byte, readChunkSize)
	for {
		frame, err := h.nextFrame(chunk)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				return
			}
			// Framing error: best-effort error reply, then close — recovery
			// from a corrupted byte stream is ambiguous, per spec.md §4.6.
			h.writeError(err)
			return
		}

		reply := h.execute(ctx, frame)
		if err := h.writeValue(reply); err != nil {
			h.log.Warn("[%s] write error: %v", h.id, err)
			return
		}
	}
}

// nextFrame reads from the connection, appending to h.buf, until a full
// RESP value can be decoded or a fatal error/EOF occurs.
func (h *connHandler) nextFrame(chunk []byte) (resp.Value, error) {
	for {
		v, n, err := h.buf.Decode()
		if err == nil {
			h.buf.Advance(n)
			return v, nil
		}
		if !errors.Is(err, resp.ErrIncomplete) {
			return resp.Value{}, err
		}

		n, readErr := h.conn.Read(chunk)
		if n > 0 {
			h.buf.Append(chunk[:n])
		}
		if readErr != nil {
			if n > 0 && errors.Is(readErr, io.EOF) {
				// Let the next loop iteration try to decode what we got
				// before reporting EOF.
				continue
			}
			return resp.Value{}, readErr
		}
	}
}

// execute parses frame into a command and runs it against the store,
// producing the reply value per spec.md §4.6's reply mapping. Parse and
// execution errors both become a SimpleError reply; the connection stays
// open for command errors.
func (h *connHandler) execute(ctx context.Context, frame resp.Value) resp.Value {
	cmd, err := command.Parse(frame)
	if err != nil {
		return resp.NewSimpleError(err.Error())
	}

	switch cmd.Kind {
	case command.Ping:
		return resp.NewSimpleString("PONG")

	case command.Echo:
		return resp.NewBulkString(cmd.Value)

	case command.Get:
		value, ok := h.store.Get(string(cmd.Key))
		if !ok {
			return resp.NewNullBulkString()
		}
		return resp.NewBulkString(value)

	case command.Set:
		return h.executeSet(ctx, cmd)

	case command.RPush:
		n := h.store.RPush(string(cmd.Key), cmd.Elements)
		return resp.NewInteger(int64(n))

	default:
		return resp.NewSimpleError("internal error: unhandled command kind")
	}
}

func (h *connHandler) executeSet(ctx context.Context, cmd command.Command) resp.Value {
	var deadline time.Time
	if cmd.HasTTL {
		deadline = time.Now().Add(cmd.TTL)
	}

	h.store.Set(string(cmd.Key), cmd.Value, deadline)

	if cmd.HasTTL {
		evt := expiry.Event{Key: string(cmd.Key), Deadline: deadline}
		if err := h.sched.Notify(ctx, evt); err != nil {
			h.log.Warn("[%s] could not notify scheduler: %v", h.id, err)
		}
	}

	return resp.NewSimpleString("OK")
}

func (h *connHandler) writeValue(v resp.Value) error {
	out := resp.Encode(v, nil)
	_, err := h.conn.Write(out)
	return err
}

func (h *connHandler) writeError(err error) {
	_ = h.writeValue(resp.NewSimpleError(err.Error()))
}
