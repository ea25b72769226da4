package http

import (
	"log/slog"
	"net"
	"strconv"
	"sync"

	"github.com/dcluna/elnode/config"
	"github.com/dcluna/elnode/http/method"
	"github.com/dcluna/elnode/http/mime"
	"github.com/dcluna/elnode/http/status"
	"github.com/dcluna/elnode/internal/buffer"
	"github.com/dcluna/elnode/internal/parser"
	"github.com/dcluna/elnode/internal/tcp"
	"github.com/indigo-web/utils/uf"
	json "github.com/json-iterator/go"
)

// State is the position of a connection's response inside its lifecycle.
type State uint8

const (
	Idle State = iota + 1
	HeaderSent
	Streaming
	Ended
)

// Header is a single response header.
type Header struct {
	Key, Value string
}

// Child is a child process linked to a connection. The connection holds a
// non-owning reference: the process lifetime belongs to whoever spawned it,
// the connection only needs to be able to kill it on teardown.
type Child interface {
	Kill() error
}

var chunkedFinalizer = []byte("0\r\n\r\n")

// Conn is the server-side state of one accepted socket, from the first byte
// to response completion. Handlers receive it and must eventually call Start
// and then Send/Return/End, or delegate body production to process.Attach.
//
// The response side is a strict state machine: Idle -> HeaderSent ->
// Streaming -> Ended. All response operations are safe to call concurrently
// with the child process pump; per-connection chunk ordering follows the
// order of Send calls.
type Conn struct {
	mu     sync.Mutex
	client tcp.Client
	log    *slog.Logger
	id     string

	buf       *buffer.Accumulator
	headLimit int
	headerEnd int
	req       *parser.Request

	params       Params
	parsedParams bool

	match *Match

	state   State
	closed  bool
	done    chan struct{}
	child   Child
	scratch []byte
}

func NewConn(id string, client tcp.Client, cfg *config.Config, log *slog.Logger) *Conn {
	return &Conn{
		client:    client,
		log:       log,
		id:        id,
		buf:       buffer.New(cfg.Head.Prealloc, cfg.Head.MaxSize+cfg.Body.MaxSize),
		headLimit: cfg.Head.MaxSize,
		headerEnd: -1,
		state:     Idle,
		done:      make(chan struct{}),
	}
}

// ID identifies the connection in diagnostics.
func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) Remote() net.Addr {
	return c.client.Remote()
}

// Logger returns the connection-scoped logger for handlers and the process
// bridge to emit diagnostics through.
func (c *Conn) Logger() *slog.Logger {
	return c.log
}

// Receive feeds bytes read from the socket into the connection. It reports
// whether this delivery completed the header section, which happens at most
// once per connection: bytes arriving afterwards belong to the POST body and
// never re-trigger parsing, there is no pipelining support. Safe to call
// while another goroutine ends the response: the accumulator is released at
// that point, so late bytes are simply dropped.
func (c *Conn) Receive(data []byte) (ready bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.state == Ended {
		return false, nil
	}

	if c.headerEnd >= 0 {
		// body bytes; overflowing the accumulator only drops them
		c.buf.Append(data)
		return false, nil
	}

	if !c.buf.Append(data) || c.buf.Len() > c.headLimit {
		return false, status.ErrTooLarge
	}

	end := c.buf.HeaderEnd()
	if end == -1 {
		return false, nil
	}

	c.headerEnd = end
	c.req, err = parser.Parse(c.buf.Bytes()[:end])

	return true, err
}

// RequestLine returns the raw status line once the head is parsed.
func (c *Conn) RequestLine() string {
	if c.req == nil {
		return ""
	}

	return c.req.StatusLine
}

func (c *Conn) Method() method.Method {
	if c.req == nil {
		return method.Unknown
	}

	return c.req.Method
}

// Path is empty until the header section is complete, and stays empty when
// the resource failed path extraction.
func (c *Conn) Path() string {
	if c.req == nil {
		return ""
	}

	return c.req.Path
}

// Query returns the raw query string. A present-but-empty query ("/path?")
// is distinguished from an absent one by the second return value.
func (c *Conn) Query() (string, bool) {
	if c.req == nil {
		return "", false
	}

	return c.req.Query, c.req.HasQuery
}

// Header looks up a request header case-insensitively; the first occurrence
// of a name wins.
func (c *Conn) Header(name string) (string, bool) {
	if c.req == nil {
		return "", false
	}

	return c.req.Header(name)
}

func (c *Conn) ContentLength() (int, bool) {
	if c.req == nil {
		return 0, false
	}

	return c.req.ContentLength()
}

// Body returns the POST body bytes buffered so far: everything received
// after the header terminator.
func (c *Conn) Body() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.headerEnd < 0 {
		return nil
	}

	raw := c.buf.Bytes()
	from := c.headerEnd + 4
	if from > len(raw) {
		return nil
	}

	return raw[from:]
}

// Params returns the request parameters, computed lazily on first access and
// cached. Query parameters come first; for POST requests the body is parsed
// with the same query parser and merged in, duplicated keys becoming
// (query-value, body-value) pairs. Must not be called before the header
// section is complete.
func (c *Conn) Params() Params {
	if c.parsedParams {
		return c.params
	}

	if c.req == nil {
		return nil
	}

	params := make(Params)
	if query, has := c.Query(); has {
		params = parseQuery(query)
	}

	if c.Method() == method.POST {
		if body := c.Body(); len(body) > 0 {
			params = mergeParams(params, parseQuery(uf.B2S(body)))
		}
	}

	c.params = params
	c.parsedParams = true

	return c.params
}

// Param is a shorthand for Params()[name].
func (c *Conn) Param(name string) Param {
	return c.Params()[name]
}

// SetMatch records which route matched; called by the dispatcher right
// before the handler runs.
func (c *Conn) SetMatch(m *Match) {
	c.match = m
}

// Match returns the dispatch match, or nil when no dispatcher ran.
func (c *Conn) Match() *Match {
	return c.match
}

// State returns the current response state.
func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Closed reports whether the response has ended or the connection was torn
// down; no more bytes can be written either way.
func (c *Conn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closed || c.state == Ended
}

// Done is closed once the response has ended or the connection was torn
// down. The engine releases the socket at that point.
func (c *Conn) Done() <-chan struct{} {
	return c.done
}

// Start writes the status line and the header block, injecting
// Transfer-Encoding: chunked ahead of the caller-supplied headers. Valid
// only once per connection: a second Start is answered with
// status.ErrResponseStarted instead of corrupting the stream.
func (c *Conn) Start(code status.Code, headers ...Header) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return status.ErrConnectionClosed
	}

	if c.state != Idle {
		return status.ErrResponseStarted
	}

	buff := c.scratch[:0]
	buff = append(buff, "HTTP/1.1 "...)
	buff = strconv.AppendUint(buff, uint64(code), 10)
	buff = append(buff, ' ')
	buff = append(buff, status.Text(code)...)
	buff = append(buff, "\r\nTransfer-Encoding: chunked\r\n"...)

	for _, h := range headers {
		buff = append(buff, h.Key...)
		buff = append(buff, ": "...)
		buff = append(buff, h.Value...)
		buff = append(buff, "\r\n"...)
	}

	buff = append(buff, "\r\n"...)
	c.scratch = buff

	if err := c.client.Write(buff); err != nil {
		c.failLocked()
		return err
	}

	c.state = HeaderSent

	return nil
}

// Send frames b as a single chunk: its length in hexadecimal, CRLF, the
// bytes, CRLF. An empty b is a no-op, since a zero-length chunk would read
// as the stream terminator, which only End may write.
func (c *Conn) Send(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.sendLocked(b)
}

func (c *Conn) sendLocked(b []byte) error {
	if c.closed {
		return status.ErrConnectionClosed
	}

	switch c.state {
	case HeaderSent, Streaming:
	case Idle:
		return status.ErrNotStarted
	default:
		return status.ErrConnectionClosed
	}

	if len(b) == 0 {
		return nil
	}

	buff := c.scratch[:0]
	buff = strconv.AppendUint(buff, uint64(len(b)), 16)
	buff = append(buff, '\r', '\n')
	buff = append(buff, b...)
	buff = append(buff, '\r', '\n')
	c.scratch = buff

	if err := c.client.Write(buff); err != nil {
		c.failLocked()
		return err
	}

	c.state = Streaming

	return nil
}

// End writes the terminating chunk and completes the response, releasing the
// request buffer. Ending an already ended or torn down connection is a
// no-op, never a fault.
func (c *Conn) End() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.endLocked()
}

func (c *Conn) endLocked() error {
	if c.closed || c.state == Ended {
		return nil
	}

	if c.state == Idle {
		return status.ErrNotStarted
	}

	err := c.client.Write(chunkedFinalizer)
	c.state = Ended
	c.buf.Release()
	close(c.done)

	return err
}

// Return sends the final body and completes the response.
func (c *Conn) Return(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.sendLocked(b); err != nil {
		return err
	}

	return c.endLocked()
}

// JSON renders v and returns it as a complete application/json response.
func (c *Conn) JSON(code status.Code, v any) error {
	body, err := json.Marshal(v)
	if err != nil {
		return err
	}

	if err = c.Start(code, Header{Key: "Content-type", Value: mime.JSON}); err != nil {
		return err
	}

	return c.Return(body)
}

// LinkChild attaches a child process to the connection. The link is a single
// slot: attaching while another child is active is rejected, delegating
// twice is unsupported rather than queued.
func (c *Conn) LinkChild(child Child) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || c.state == Ended {
		return status.ErrConnectionClosed
	}

	if c.child != nil {
		return status.ErrChildActive
	}

	c.child = child

	return nil
}

// UnlinkChild clears the child slot; called by the bridge once the process
// exited.
func (c *Conn) UnlinkChild() {
	c.mu.Lock()
	c.child = nil
	c.mu.Unlock()
}

// Teardown releases the connection after a remote disconnect or a server
// stop: the buffer is freed, a linked child process is killed, and no
// further bytes are written. Safe to call multiple times.
func (c *Conn) Teardown() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	child := c.teardownLocked()
	c.mu.Unlock()

	if child != nil {
		if err := child.Kill(); err != nil {
			c.log.Debug("failed to kill child process", "conn", c.id, "error", err)
		}
	}

	_ = c.client.Close()
}

// failLocked tears the connection down after a write error: the peer is
// gone, so the response cannot be salvaged.
func (c *Conn) failLocked() {
	if child := c.teardownLocked(); child != nil {
		_ = child.Kill()
	}

	_ = c.client.Close()
}

func (c *Conn) teardownLocked() Child {
	c.closed = true
	child := c.child
	c.child = nil
	c.buf.Release()

	if c.state != Ended {
		c.state = Ended
		close(c.done)
	}

	return child
}
