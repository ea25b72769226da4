// Package router implements the path dispatcher: an ordered table of
// anchored regular expressions, each paired with a handler.
package router

import (
	"regexp"
	"strings"

	"github.com/dcluna/elnode/http"
	"github.com/dcluna/elnode/http/mime"
	"github.com/dcluna/elnode/http/status"
)

// Handler processes a single request over its connection. It must
// eventually call Start and then Send/Return/End on the Conn, or delegate
// body production to the process bridge.
type Handler func(*http.Conn)

// Route pairs a pattern with its handler. Patterns are matched as anchored
// regular expressions: "^/" is prepended at compile time.
type Route struct {
	Pattern string
	Handler Handler
}

// Table is an ordered route table. Order is significant: the first match
// wins, there is no priority beyond declaration order.
type Table []Route

type route struct {
	pattern string
	re      *regexp.Regexp
	handler Handler
}

// Dispatcher matches request paths against its table. Its Dispatch method
// is itself a Handler, so dispatchers nest for hierarchical mounting.
type Dispatcher struct {
	routes   []route
	fallback Handler
}

// New compiles the table. Tables are built at setup time, so a pattern that
// does not compile panics right away.
func New(table Table) *Dispatcher {
	d := &Dispatcher{routes: make([]route, 0, len(table))}

	for _, r := range table {
		d.routes = append(d.routes, route{
			pattern: r.Pattern,
			re:      regexp.MustCompile("^/" + r.Pattern),
			handler: r.Handler,
		})
	}

	return d
}

// Fallback replaces the built-in 404 handler.
func (d *Dispatcher) Fallback(h Handler) *Dispatcher {
	d.fallback = h
	return d
}

// Dispatch normalizes the request path and invokes the first matching
// route. A path ending neither in a slash nor in a dotted extension
// short-circuits into a 302 toward path+"/" without consulting the table.
// Matching runs against the raw, un-rewritten path; the captured groups are
// recorded on the connection for the handler.
func (d *Dispatcher) Dispatch(conn *http.Conn) {
	path := conn.Path()
	if !normalized(path) {
		Redirect(conn, path+"/")
		return
	}

	for _, r := range d.routes {
		groups := r.re.FindStringSubmatch(path)
		if groups == nil {
			continue
		}

		conn.SetMatch(&http.Match{Pattern: r.pattern, Groups: groups})
		r.handler(conn)

		return
	}

	if d.fallback != nil {
		d.fallback(conn)
		return
	}

	NotFound(conn)
}

// normalized reports whether the path ends in a slash or its last segment
// carries an extension.
func normalized(path string) bool {
	if strings.HasSuffix(path, "/") {
		return true
	}

	last := path[strings.LastIndexByte(path, '/')+1:]

	return strings.Contains(last, ".")
}

// Redirect answers with a 302 toward location.
func Redirect(conn *http.Conn, location string) {
	_ = conn.Start(status.Redirect,
		http.Header{Key: "Location", Value: location},
		http.Header{Key: "Content-type", Value: mime.HTML},
	)
	_ = conn.Return([]byte("<h1>Redirecting you to " + location + "</h1>"))
}

// NotFound is the built-in fallback handler.
func NotFound(conn *http.Conn) {
	_ = conn.Start(status.NotFound, http.Header{Key: "Content-type", Value: mime.HTML})
	_ = conn.Return([]byte("<h1>Not Found</h1>"))
}
