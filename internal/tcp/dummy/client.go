// Package dummy implements in-memory tcp.Client substitutes for tests.
package dummy

import (
	"io"
	"net"

	"github.com/dcluna/elnode/internal/tcp"
)

// Client replays the given pieces one Read at a time, then reports io.EOF.
// Everything written is accumulated in Written.
type Client struct {
	pieces   [][]byte
	takeback []byte
	Written  []byte
	Closed   bool
}

func New(pieces ...[]byte) *Client {
	return &Client{pieces: pieces}
}

var _ tcp.Client = &Client{}

func (c *Client) Read() ([]byte, error) {
	if len(c.takeback) > 0 {
		takeback := c.takeback
		c.takeback = nil

		return takeback, nil
	}

	if len(c.pieces) == 0 {
		return nil, io.EOF
	}

	piece := c.pieces[0]
	c.pieces = c.pieces[1:]

	return piece, nil
}

func (c *Client) Unread(takeback []byte) {
	c.takeback = takeback
}

func (c *Client) Write(b []byte) error {
	if c.Closed {
		return io.ErrClosedPipe
	}

	c.Written = append(c.Written, b...)
	return nil
}

func (c *Client) Remote() net.Addr {
	return &net.TCPAddr{}
}

func (c *Client) Close() error {
	c.Closed = true
	return nil
}
