// Package engine orchestrates a single connection from the first byte
// through response completion: buffering, header detection, dispatch, and
// teardown.
package engine

import (
	"log/slog"
	"net"

	"github.com/dcluna/elnode/config"
	"github.com/dcluna/elnode/http"
	"github.com/dcluna/elnode/http/method"
	"github.com/dcluna/elnode/http/mime"
	"github.com/dcluna/elnode/http/status"
	"github.com/dcluna/elnode/internal/tcp"
	"github.com/dcluna/elnode/router"
	"github.com/dchest/uniuri"
)

type Engine struct {
	handler router.Handler
	cfg     *config.Config
	log     *slog.Logger
}

func New(handler router.Handler, cfg *config.Config, log *slog.Logger) *Engine {
	return &Engine{
		handler: handler,
		cfg:     cfg,
		log:     log,
	}
}

// Serve owns one accepted connection. It feeds socket deliveries into the
// connection until the header terminator shows up, dispatches the handler
// exactly once, and then watches the socket for a remote disconnect while
// the response — possibly produced by a child process — is streamed out.
func (e *Engine) Serve(netConn net.Conn) {
	client := tcp.NewClient(netConn, e.cfg.NET.ReadTimeout, make([]byte, e.cfg.NET.ReadBufferSize))
	conn := http.NewConn(uniuri.NewLen(8), client, e.cfg, e.log)
	log := e.log.With("conn", conn.ID(), "remote", conn.Remote().String())

	if !e.buffer(client, conn, log) {
		return
	}

	if conn.Path() == "" {
		// the resource failed path extraction; the handler never runs
		log.Debug("no path extracted", "request", conn.RequestLine())
		e.reject(client, conn)
		return
	}

	e.awaitBody(client, conn)
	e.dispatch(conn, log)

	// release the socket the moment the response completes, whichever
	// goroutine completes it
	go func() {
		<-conn.Done()
		_ = client.Close()
	}()

	// the connection stays open until the peer disconnects or the handler
	// (or its child process) ends the response; a handler that never does
	// either keeps it alive, which is the engine's documented behavior
	for {
		data, err := client.Read()
		if err != nil || len(data) == 0 {
			conn.Teardown()
			return
		}

		// late deliveries are body bytes at most; never a new request
		_, _ = conn.Receive(data)
	}
}

// buffer accumulates deliveries until the header section is complete. It
// reports false when the connection is already finished: either the peer
// disconnected mid-head or the request was malformed and rejected.
func (e *Engine) buffer(client tcp.Client, conn *http.Conn, log *slog.Logger) bool {
	for {
		data, err := client.Read()
		if err != nil || len(data) == 0 {
			conn.Teardown()
			return false
		}

		ready, perr := conn.Receive(data)
		if perr != nil {
			log.Debug("malformed request", "error", perr)
			e.reject(client, conn)
			return false
		}

		if ready {
			return true
		}
	}
}

// reject answers 400 through the ordinary response path and drops the
// connection.
func (e *Engine) reject(client tcp.Client, conn *http.Conn) {
	_ = conn.Start(status.BadRequest, http.Header{Key: "Content-type", Value: mime.HTML})
	_ = conn.Return([]byte("<h1>Bad Request</h1>"))
	_ = client.Close()
}

// awaitBody keeps reading until the announced Content-Length worth of body
// bytes is buffered, so POST parameters are available to the handler. Best
// effort: a read failure or an absent Content-Length dispatches with
// whatever arrived.
func (e *Engine) awaitBody(client tcp.Client, conn *http.Conn) {
	if conn.Method() != method.POST {
		return
	}

	length, ok := conn.ContentLength()
	if !ok {
		return
	}

	if length > e.cfg.Body.MaxSize {
		length = e.cfg.Body.MaxSize
	}

	for len(conn.Body()) < length {
		data, err := client.Read()
		if err != nil || len(data) == 0 {
			return
		}

		if _, err = conn.Receive(data); err != nil {
			return
		}
	}
}

// dispatch hands the connection to the handler, converting an escaped panic
// into a best-effort 500. If headers were already sent when the handler
// blew up, the write may corrupt the stream; the connection dies right
// after either way.
func (e *Engine) dispatch(conn *http.Conn, log *slog.Logger) {
	defer func() {
		if r := recover(); r == nil {
			return
		} else if conn.State() == http.Idle {
			log.Error("handler panicked", "request", conn.RequestLine(), "panic", r)
			_ = conn.Start(status.ServerError, http.Header{Key: "Content-type", Value: mime.HTML})
			_ = conn.Return([]byte("<h1>Server Error</h1>"))
		} else {
			log.Error("handler panicked mid-response", "request", conn.RequestLine(), "panic", r)
			_ = conn.End()
		}
	}()

	e.handler(conn)
}
