package tcp

import (
	"net"
	"sync"
	"sync/atomic"

	"github.com/dcluna/elnode/http/status"
)

type OnConn func(net.Conn)

// Server is a bare TCP accept loop, starting a goroutine with the onConn
// callback for each accepted connection.
type Server struct {
	sock     net.Listener
	onConn   OnConn
	wg       sync.WaitGroup
	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	shutdown atomic.Bool
}

func NewServer(sock net.Listener, onConn OnConn) *Server {
	return &Server{
		sock:   sock,
		onConn: onConn,
		conns:  map[net.Conn]struct{}{},
	}
}

// Start blocks serving the listener until it is closed. After the accept
// loop breaks, Start waits for all connection goroutines to finish. When the
// listener was closed via Stop, status.ErrShutdown is returned.
func (s *Server) Start() error {
	for {
		conn, err := s.sock.Accept()
		if err != nil {
			s.wg.Wait()

			if s.shutdown.Load() {
				return status.ErrShutdown
			}

			return err
		}

		s.track(conn)
		s.wg.Add(1)

		go func(conn net.Conn) {
			defer s.wg.Done()
			defer s.untrack(conn)

			s.onConn(conn)
		}(conn)
	}
}

// Stop closes the listener and every connection currently being served. The
// pending Start call then returns once the per-connection goroutines notice
// their sockets are gone.
func (s *Server) Stop() {
	s.shutdown.Store(true)
	_ = s.sock.Close()

	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.conns {
		_ = conn.Close()
	}
}

func (s *Server) track(conn net.Conn) {
	s.mu.Lock()
	s.conns[conn] = struct{}{}
	s.mu.Unlock()
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}
