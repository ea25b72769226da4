package engine

import (
	"io"
	"net"
	"testing"
	"time"

	"github.com/dcluna/elnode/config"
	"github.com/dcluna/elnode/http"
	"github.com/dcluna/elnode/http/status"
	"github.com/dcluna/elnode/internal/testutil"
	"github.com/dcluna/elnode/logging"
	"github.com/dcluna/elnode/router"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, handler router.Handler) net.Conn {
	t.Helper()

	server, client := net.Pipe()
	e := New(handler, config.Default(), logging.Nop())

	go e.Serve(server)
	t.Cleanup(func() { _ = client.Close() })

	return client
}

func exchange(t *testing.T, handler router.Handler, request string) []byte {
	t.Helper()

	client := serve(t, handler)

	_, err := client.Write([]byte(request))
	require.NoError(t, err)

	response, err := io.ReadAll(client)
	require.NoError(t, err)

	return response
}

func TestEngine_Roundtrip(t *testing.T) {
	response := exchange(t, func(conn *http.Conn) {
		_ = conn.Start(status.OK, http.Header{Key: "Content-type", Value: "text/plain"})
		_ = conn.Return([]byte("it works"))
	}, "GET /anything/ HTTP/1.1\r\nHost: localhost\r\n\r\n")

	head, body := testutil.SplitResponse(t, response)
	require.Contains(t, string(head), "HTTP/1.1 200 Ok")
	require.Contains(t, string(head), "Transfer-Encoding: chunked")
	require.Equal(t, "it works", string(testutil.DecodeChunked(t, body)))
}

func TestEngine_FragmentedDelivery(t *testing.T) {
	client := serve(t, func(conn *http.Conn) {
		_ = conn.Start(status.OK)
		_ = conn.Return([]byte(conn.Path()))
	})

	for _, piece := range []string{"GET /split", "/path/ HT", "TP/1.1\r\nHost: x", "\r\n\r\n"} {
		_, err := client.Write([]byte(piece))
		require.NoError(t, err)
	}

	response, err := io.ReadAll(client)
	require.NoError(t, err)

	_, body := testutil.SplitResponse(t, response)
	require.Equal(t, "/split/path/", string(testutil.DecodeChunked(t, body)))
}

func TestEngine_MalformedRequest(t *testing.T) {
	handled := false

	response := exchange(t, func(conn *http.Conn) {
		handled = true
	}, "NONSENSE\r\n\r\n")

	require.False(t, handled)
	head, body := testutil.SplitResponse(t, response)
	require.Contains(t, string(head), "HTTP/1.1 400 Bad Request")
	require.Equal(t, "<h1>Bad Request</h1>", string(testutil.DecodeChunked(t, body)))
}

func TestEngine_UnextractablePath(t *testing.T) {
	handled := false

	response := exchange(t, func(conn *http.Conn) {
		handled = true
	}, "GET /with%20percent HTTP/1.1\r\n\r\n")

	require.False(t, handled)
	require.Contains(t, string(response), "HTTP/1.1 400 Bad Request")
}

func TestEngine_PanickingHandler(t *testing.T) {
	response := exchange(t, func(conn *http.Conn) {
		panic("boom")
	}, "GET /boom/ HTTP/1.1\r\n\r\n")

	head, body := testutil.SplitResponse(t, response)
	require.Contains(t, string(head), "HTTP/1.1 500 Server Error")
	require.Equal(t, "<h1>Server Error</h1>", string(testutil.DecodeChunked(t, body)))
}

func TestEngine_DispatcherIntegration(t *testing.T) {
	d := router.New(router.Table{
		{Pattern: "hello/$", Handler: func(conn *http.Conn) {
			_ = conn.Start(status.OK)
			_ = conn.Return([]byte("hi"))
		}},
	})

	response := exchange(t, d.Dispatch, "GET /nothing/ HTTP/1.1\r\n\r\n")
	require.Contains(t, string(response), "HTTP/1.1 404 Not Found")

	response = exchange(t, d.Dispatch, "GET /hello HTTP/1.1\r\n\r\n")
	require.Contains(t, string(response), "HTTP/1.1 302 Redirect")
	require.Contains(t, string(response), "Location: /hello/")
}

func TestEngine_PostBody(t *testing.T) {
	client := serve(t, func(conn *http.Conn) {
		query, body, _ := conn.Param("a").Pair()

		_ = conn.Start(status.OK)
		_ = conn.Return([]byte(query + body + conn.Param("b").Value()))
	})

	_, err := client.Write([]byte("POST /form/?a=1 HTTP/1.1\r\nContent-Length: 7\r\n\r\n"))
	require.NoError(t, err)

	// the body trails in a separate delivery; dispatch waits for it
	time.Sleep(10 * time.Millisecond)
	_, err = client.Write([]byte("a=2&b=3"))
	require.NoError(t, err)

	response, err := io.ReadAll(client)
	require.NoError(t, err)

	_, body := testutil.SplitResponse(t, response)
	require.Equal(t, "123", string(testutil.DecodeChunked(t, body)))
}

func TestEngine_EarlyDisconnect(t *testing.T) {
	handled := make(chan struct{})

	client := serve(t, func(conn *http.Conn) {
		close(handled)
	})

	_, err := client.Write([]byte("GET /partial"))
	require.NoError(t, err)
	require.NoError(t, client.Close())

	select {
	case <-handled:
		t.Fatal("handler must not run for an incomplete request")
	case <-time.After(100 * time.Millisecond):
	}
}
