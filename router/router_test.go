package router

import (
	"testing"

	"github.com/dcluna/elnode/config"
	"github.com/dcluna/elnode/http"
	"github.com/dcluna/elnode/internal/tcp/dummy"
	"github.com/dcluna/elnode/internal/testutil"
	"github.com/dcluna/elnode/logging"
	"github.com/stretchr/testify/require"
)

func connFor(t *testing.T, path string) (*http.Conn, *dummy.Client) {
	t.Helper()

	client := dummy.New()
	conn := http.NewConn("test", client, config.Default(), logging.Nop())

	ready, err := conn.Receive([]byte("GET " + path + " HTTP/1.1\r\n\r\n"))
	require.NoError(t, err)
	require.True(t, ready)

	return conn, client
}

func named(name string, hits *[]string) Handler {
	return func(conn *http.Conn) {
		*hits = append(*hits, name)
		_ = conn.Start(200)
		_ = conn.Return([]byte(name))
	}
}

func TestDispatcher_Order(t *testing.T) {
	var hits []string

	d := New(Table{
		{Pattern: "$", Handler: named("A", &hits)},
		{Pattern: "foo/$", Handler: named("B", &hits)},
	}).Fallback(named("F", &hits))

	for path, want := range map[string]string{
		"/":     "A",
		"/foo/": "B",
		"/bar/": "F",
	} {
		hits = hits[:0]
		conn, _ := connFor(t, path)
		d.Dispatch(conn)
		require.Equal(t, []string{want}, hits, path)
	}
}

func TestDispatcher_Normalization(t *testing.T) {
	var hits []string

	d := New(Table{
		{Pattern: "$", Handler: named("A", &hits)},
		{Pattern: "foo/$", Handler: named("B", &hits)},
	}).Fallback(named("F", &hits))

	conn, client := connFor(t, "/foo")
	d.Dispatch(conn)

	// the redirect short-circuits: no route nor the fallback runs
	require.Empty(t, hits)

	head, _ := testutil.SplitResponse(t, client.Written)
	require.Contains(t, string(head), "HTTP/1.1 302 Redirect")
	require.Contains(t, string(head), "Location: /foo/")

	// a dotted extension counts as normalized
	conn, _ = connFor(t, "/foo/file.txt")
	d.Dispatch(conn)
	require.Equal(t, []string{"F"}, hits)
}

func TestDispatcher_BuiltinNotFound(t *testing.T) {
	d := New(Table{})

	conn, client := connFor(t, "/nowhere/")
	d.Dispatch(conn)

	head, body := testutil.SplitResponse(t, client.Written)
	require.Contains(t, string(head), "HTTP/1.1 404 Not Found")
	require.Contains(t, string(head), "Content-type: text/html")
	require.Equal(t, "<h1>Not Found</h1>", string(testutil.DecodeChunked(t, body)))
}

func TestDispatcher_MatchGroups(t *testing.T) {
	var match *http.Match

	d := New(Table{
		{Pattern: "wiki/(.*)", Handler: func(conn *http.Conn) {
			match = conn.Match()
			_ = conn.Start(200)
			_ = conn.End()
		}},
	})

	conn, _ := connFor(t, "/wiki/some/page.html")
	d.Dispatch(conn)

	require.NotNil(t, match)
	require.Equal(t, "wiki/(.*)", match.Pattern)
	require.Equal(t, "some/page.html", match.Group(1))
	require.Equal(t, "/wiki/some/page.html", match.Group(0))
	require.Empty(t, match.Group(7))
}

func TestDispatcher_Nested(t *testing.T) {
	var got string

	inner := New(Table{
		{Pattern: "mount/inner/$", Handler: func(conn *http.Conn) {
			got = conn.Match().Pattern
			_ = conn.Start(200)
			_ = conn.End()
		}},
	})

	outer := New(Table{
		{Pattern: "mount/", Handler: inner.Dispatch},
	})

	conn, _ := connFor(t, "/mount/inner/")
	outer.Dispatch(conn)

	require.Equal(t, "mount/inner/$", got)
}
