// Package testutil holds helpers shared by the protocol tests.
package testutil

import (
	"bytes"
	"io"
	"testing"

	"github.com/indigo-web/chunkedbody"
	"github.com/stretchr/testify/require"
)

// SplitResponse cuts a raw response into the preamble (status line plus
// headers) and the chunked body that follows the blank line.
func SplitResponse(t *testing.T, raw []byte) (head, body []byte) {
	t.Helper()

	idx := bytes.Index(raw, []byte("\r\n\r\n"))
	require.NotEqual(t, -1, idx, "response carries no header terminator")

	return raw[:idx], raw[idx+4:]
}

// DecodeChunked feeds a complete chunked stream through the same parser the
// engine reads chunked bodies with and returns the reassembled payload.
func DecodeChunked(t *testing.T, data []byte) []byte {
	t.Helper()

	parser := chunkedbody.NewParser(chunkedbody.DefaultSettings())

	var body []byte
	for {
		chunk, extra, err := parser.Parse(data, false)
		body = append(body, chunk...)

		switch err {
		case nil:
			require.NotEmpty(t, extra, "incomplete chunked stream")
			data = extra
		case io.EOF:
			return body
		default:
			t.Fatalf("malformed chunked stream: %s", err)
		}
	}
}
