package parser

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dcluna/elnode/http/method"
	"github.com/dcluna/elnode/http/status"
	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/utils/uf"
)

// The parser is deliberately permissive: it recognizes exactly the shapes
// below and silently drops everything else, matching the engine's best-effort
// contract. No percent-decoding, no continuation lines.
var (
	statusLine = regexp.MustCompile(`^(GET|POST|HEAD) (.+) HTTP/([0-9.]+)$`)
	resource   = regexp.MustCompile(`^(/[A-Za-z0-9_/.-]*)(\?(.*))?$`)
	headerLine = regexp.MustCompile(`^([A-Za-z0-9_-]+): ?(.*)$`)
)

type Header struct {
	Key, Value string
}

// Request is the outcome of parsing a complete header section. All fields
// are computed exactly once; accessors only read the cached values.
type Request struct {
	StatusLine string
	Method     method.Method
	// Path is empty when the resource failed path/query extraction. The
	// engine answers such requests with 400.
	Path     string
	Query    string
	HasQuery bool
	Proto    string
	headers  []Header
}

// Parse consumes the header section of a request: everything before the
// CRLFCRLF terminator. A malformed status line is a parse error; malformed
// header lines are dropped silently.
func Parse(head []byte) (*Request, error) {
	lines := strings.Split(uf.B2S(head), "\r\n")

	m := statusLine.FindStringSubmatch(lines[0])
	if m == nil {
		return nil, status.ErrBadStatusLine
	}

	req := &Request{
		StatusLine: lines[0],
		Method:     method.Parse(m[1]),
		Proto:      m[3],
	}

	if r := resource.FindStringSubmatch(m[2]); r != nil {
		req.Path = r[1]
		if r[2] != "" {
			req.Query = r[3]
			req.HasQuery = true
		}
	}

	for _, line := range lines[1:] {
		h := headerLine.FindStringSubmatch(line)
		if h == nil {
			continue
		}

		req.headers = append(req.headers, Header{Key: h[1], Value: h[2]})
	}

	return req, nil
}

// Header returns the value of the first header carrying the name. The lookup
// is case-insensitive; duplicates beyond the first are unreachable.
func (r *Request) Header(name string) (string, bool) {
	for _, h := range r.headers {
		if strcomp.EqualFold(h.Key, name) {
			return h.Value, true
		}
	}

	return "", false
}

func (r *Request) Headers() []Header {
	return r.headers
}

// ContentLength reads the Content-Length header, if present and numeric.
func (r *Request) ContentLength() (int, bool) {
	value, found := r.Header("Content-Length")
	if !found {
		return 0, false
	}

	length, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || length < 0 {
		return 0, false
	}

	return length, true
}
