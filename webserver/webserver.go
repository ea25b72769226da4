// Package webserver is the static-file collaborator: it serves a docroot
// through the same generic primitives any handler uses, streaming files as
// chunks and rendering directory indexes.
package webserver

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dcluna/elnode/http"
	"github.com/dcluna/elnode/http/mime"
	"github.com/dcluna/elnode/http/status"
	"github.com/dcluna/elnode/router"
)

const fileBufferSize = 32 * 1024

type Webserver struct {
	docroot string
	log     *slog.Logger
}

func New(docroot string, log *slog.Logger) *Webserver {
	return &Webserver{
		docroot: docroot,
		log:     log,
	}
}

// Handler adapts the webserver to the dispatcher. When the route pattern
// captured a group, the first group is taken as the path below the docroot,
// which is how a webserver is mounted under a prefix.
func (w *Webserver) Handler() router.Handler {
	return w.serve
}

func (w *Webserver) serve(conn *http.Conn) {
	pathinfo := conn.Path()
	if m := conn.Match(); m != nil && len(m.Groups) > 1 {
		pathinfo = "/" + m.Group(1)
	}

	target, ok := w.resolve(pathinfo)
	if !ok {
		router.NotFound(conn)
		return
	}

	info, err := os.Stat(target)
	if err != nil {
		router.NotFound(conn)
		return
	}

	if info.IsDir() {
		w.serveDir(conn, target)
		return
	}

	w.serveFile(conn, target)
}

// resolve maps a request path below the docroot, refusing anything that
// would escape it.
func (w *Webserver) resolve(pathinfo string) (string, bool) {
	rel := filepath.Clean(strings.TrimPrefix(pathinfo, "/"))
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", false
	}

	return filepath.Join(w.docroot, rel), true
}

// serveFile streams the file out in fixed-size chunks.
func (w *Webserver) serveFile(conn *http.Conn, target string) {
	file, err := os.Open(target)
	if err != nil {
		router.NotFound(conn)
		return
	}
	defer file.Close()

	err = conn.Start(status.OK, http.Header{
		Key:   "Content-type",
		Value: mime.ByExtension(filepath.Ext(target)),
	})
	if err != nil {
		return
	}

	buff := make([]byte, fileBufferSize)

	for {
		n, rerr := file.Read(buff)
		if n > 0 {
			if conn.Send(buff[:n]) != nil {
				return
			}
		}

		if rerr != nil {
			break
		}
	}

	_ = conn.End()
}

// serveDir prefers the directory's index.html; otherwise it renders a
// listing, as JSON when the request asks for format=json.
func (w *Webserver) serveDir(conn *http.Conn, target string) {
	index := filepath.Join(target, "index.html")
	if info, err := os.Stat(index); err == nil && !info.IsDir() {
		w.serveFile(conn, index)
		return
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		router.NotFound(conn)
		return
	}

	listing := makeListing(filepath.Base(target), entries)

	if conn.Param("format").Value() == "json" {
		if err = conn.JSON(status.OK, listing); err != nil {
			w.log.Debug("failed to render directory listing", "dir", target, "error", err)
		}

		return
	}

	w.renderIndex(conn, listing)
}
