// Package process bridges a child process to a connection: the child's
// stdout is forwarded verbatim into the chunked response, and the response
// is terminated when the child exits. This is the engine's sole mechanism
// for offloading long-running work.
package process

import (
	"io"
	"os/exec"

	"github.com/dcluna/elnode/http"
)

const pumpBufferSize = 4096

// Bridge links one spawned process with one connection. The connection
// keeps a non-owning reference back for teardown; the process lifetime is
// owned here.
type Bridge struct {
	conn    *http.Conn
	cmd     *exec.Cmd
	command string
	done    chan struct{}
}

// Attach spawns command with args, inheriting the host environment, and
// arms the forwarding pump. The connection must already have its response
// started. Only one child may be linked to a connection at a time: a second
// Attach while one is active fails with status.ErrChildActive.
func Attach(conn *http.Conn, command string, args ...string) (*Bridge, error) {
	cmd := exec.Command(command, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}

	b := &Bridge{
		conn:    conn,
		cmd:     cmd,
		command: command,
		done:    make(chan struct{}),
	}

	if err = conn.LinkChild(b); err != nil {
		return nil, err
	}

	if err = cmd.Start(); err != nil {
		conn.UnlinkChild()
		return nil, err
	}

	go b.pump(stdout)

	return b, nil
}

// pump forwards the child's output into the connection and finalizes the
// response once the child exits, no matter how it exited.
func (b *Bridge) pump(stdout io.Reader) {
	defer close(b.done)

	buff := make([]byte, pumpBufferSize)

	for {
		n, err := stdout.Read(buff)
		if n > 0 {
			// a closed connection just swallows the output: the child may
			// keep running, nobody signals back-pressure to it
			_ = b.conn.Send(buff[:n])
		}

		if err != nil {
			break
		}
	}

	waitErr := b.cmd.Wait()
	b.conn.UnlinkChild()

	if waitErr != nil {
		b.conn.Logger().Warn("child process failed",
			"conn", b.conn.ID(), "command", b.command, "error", waitErr,
		)
	}

	// idempotent: a no-op if the connection is already closed or ended
	_ = b.conn.End()
}

// Kill terminates the child process. The pump then observes EOF on the pipe
// and finishes on its own.
func (b *Bridge) Kill() error {
	if b.cmd.Process == nil {
		return nil
	}

	return b.cmd.Process.Kill()
}

// Done is closed once the child exited and the response was finalized.
func (b *Bridge) Done() <-chan struct{} {
	return b.done
}
