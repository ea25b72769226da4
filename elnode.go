// Package elnode is a minimal, embeddable asynchronous HTTP server engine.
// It accepts TCP connections, incrementally parses HTTP/1.x requests, routes
// them through a regex dispatcher, and streams chunked responses back —
// including responses piped straight out of a child process.
package elnode

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sort"
	"sync"

	"github.com/dcluna/elnode/config"
	"github.com/dcluna/elnode/http/status"
	"github.com/dcluna/elnode/internal/engine"
	"github.com/dcluna/elnode/internal/tcp"
	"github.com/dcluna/elnode/logging"
	"github.com/dcluna/elnode/router"
)

var (
	ErrPortBusy     = errors.New("a server is already listening on this port")
	ErrNotListening = errors.New("no server is listening on this port")
)

// Registry owns the listening servers, keyed by port. It replaces ambient
// global socket bookkeeping with an explicit object: the connection engine
// never mutates it, only the administrative Start/Stop calls below do.
type Registry struct {
	mu      sync.Mutex
	servers map[uint16]*Server
	cfg     *config.Config
	log     *slog.Logger
}

func NewRegistry(options ...Option) *Registry {
	r := &Registry{
		servers: map[uint16]*Server{},
		cfg:     config.Default(),
		log:     logging.Nop(),
	}

	for _, option := range options {
		option(r)
	}

	return r
}

// Start binds the port and begins serving handler on it. Port 0 picks a
// free port; the chosen one is available via Server.Port(). The call does
// not block: the accept loop runs on its own goroutine.
func (r *Registry) Start(port uint16, handler router.Handler) (*Server, error) {
	if _, busy := r.Lookup(port); busy {
		return nil, ErrPortBusy
	}

	sock, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, err
	}

	port = uint16(sock.Addr().(*net.TCPAddr).Port)

	r.mu.Lock()
	srv := &Server{
		port: port,
		tcp:  tcp.NewServer(sock, engine.New(handler, r.cfg, r.log).Serve),
		done: make(chan struct{}),
	}
	r.servers[port] = srv
	r.mu.Unlock()

	r.log.Info("server started", "port", port)

	go func() {
		srv.err = srv.tcp.Start()
		r.remove(port)
		close(srv.done)
	}()

	return srv, nil
}

// Lookup returns the server listening on port, if any.
func (r *Registry) Lookup(port uint16) (*Server, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	srv, found := r.servers[port]

	return srv, found
}

// Stop shuts the server on port down and removes it from the registry.
func (r *Registry) Stop(port uint16) error {
	srv, found := r.Lookup(port)
	if !found {
		return ErrNotListening
	}

	srv.Stop()
	r.log.Info("server stopped", "port", port)

	return nil
}

// Ports lists the busy ports in ascending order.
func (r *Registry) Ports() []uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	ports := make([]uint16, 0, len(r.servers))
	for port := range r.servers {
		ports = append(ports, port)
	}

	sort.Slice(ports, func(i, j int) bool { return ports[i] < ports[j] })

	return ports
}

// StopAll shuts every server down.
func (r *Registry) StopAll() {
	for _, port := range r.Ports() {
		_ = r.Stop(port)
	}
}

func (r *Registry) remove(port uint16) {
	r.mu.Lock()
	delete(r.servers, port)
	r.mu.Unlock()
}

// Server is one listening socket plus its accept loop.
type Server struct {
	port uint16
	tcp  *tcp.Server
	done chan struct{}
	err  error
}

func (s *Server) Port() uint16 {
	return s.port
}

// Stop closes the listener and every connection being served. It returns
// once Wait would.
func (s *Server) Stop() {
	s.tcp.Stop()
	<-s.done
}

// Wait blocks until the accept loop finishes. An ordinary shutdown yields
// nil.
func (s *Server) Wait() error {
	<-s.done

	if s.err == status.ErrShutdown {
		return nil
	}

	return s.err
}
