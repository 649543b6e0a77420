package main

import (
	"context"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Worker serves exactly one request on one connection and then closes it.
type Worker struct {
	srv     *Server
	conn    net.Conn
	log     zerolog.Logger
	raw     []byte
	req     *Request
	res     *Response
	started time.Time
}

type stateFunc func(*Worker) stateFunc

func NewWorker(srv *Server) *Worker {
	return &Worker{srv: srv, log: srv.log}
}

// Start runs the worker to completion. The worker takes the ownership of
// conn and closes it on every path.
func (w *Worker) Start(conn net.Conn) {
	w.conn = conn
	w.started = time.Now()
	fields := w.log.With().Str("conn", uuid.NewString())
	if addr := conn.RemoteAddr(); addr != nil {
		fields = fields.Str("remote", addr.String())
	}
	w.log = fields.Logger()

	for state := waitForRequest; state != nil; {
		state = state(w)
	}
}

func (w *Worker) dispatch() (res *Response) {
	defer func() {
		if p := recover(); p != nil {
			w.log.Warn().Interface("panic", p).Msg("dispatch panicked, dropping connection")
			res = nil
		}
	}()
	return w.srv.router.Dispatch(w.log.WithContext(w.srv.ctx), w.req)
}

// state funcs

func waitForRequest(w *Worker) stateFunc {
	w.log.Debug().Msg("waiting request")
	cfg := &w.srv.cfg
	if cfg.ReadTimeout > 0 {
		if err := w.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout)); err != nil {
			w.log.Warn().Err(err).Msg("cannot set read deadline")
		}
	}
	// Shutdown expires the read deadline; closing stays with finishWorker.
	unblock := context.AfterFunc(w.srv.ctx, func() {
		w.conn.SetReadDeadline(time.Now())
	})
	r := NewRequestReader(w.conn, cfg.ReadBufferSize, cfg.MaxRequestBytes, cfg.SingleRead)
	raw, err := r.ReadRequest()
	unblock()
	if err != nil {
		w.log.Warn().Err(err).Msg("reading request failed")
		return finishWorker
	}
	if len(raw) == 0 {
		w.log.Debug().Msg("peer sent nothing")
		return finishWorker
	}
	w.raw = raw
	return parseRequest
}

func parseRequest(w *Worker) stateFunc {
	req, err := ParseRequest(w.raw)
	if err != nil {
		w.log.Warn().Err(err).Msg("dropping unparsable request")
		return finishWorker
	}
	w.req = req
	w.log = w.log.With().Str("method", req.Method).Str("path", req.Path).Logger()
	return dispatchRequest
}

func dispatchRequest(w *Worker) stateFunc {
	w.res = w.dispatch()
	if w.res == nil {
		return finishWorker
	}
	return sendResponse
}

func sendResponse(w *Worker) stateFunc {
	n, err := WriteResponse(w.conn, w.res)
	if err != nil {
		w.log.Warn().Err(err).Int("status", w.res.Status).Msg("writing response failed")
		return finishWorker
	}
	w.log.Info().
		Int("status", w.res.Status).
		Int("bytes", n).
		Dur("duration", time.Since(w.started)).
		Msg("served")
	return finishWorker
}

func finishWorker(w *Worker) stateFunc {
	if err := w.conn.Close(); err != nil {
		w.log.Debug().Err(err).Msg("close failed")
	}
	w.log.Debug().Msg("worker finished")
	return nil
}
