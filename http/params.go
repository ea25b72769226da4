package http

import "strings"

// Param is a single request parameter. A key given without '=' carries no
// value at all, which is distinct from a key with an empty value.
type Param struct {
	vals []string
	null bool
}

// IsNull reports whether the key was present but valueless, as in "?debug".
// For a merged pair it reports that at least one side was valueless.
func (p Param) IsNull() bool {
	return p.null
}

// Value returns the first value of the parameter, or "" for a null one.
func (p Param) Value() string {
	if len(p.vals) == 0 {
		return ""
	}

	return p.vals[0]
}

// Values returns every value of the parameter. Two values mean the key
// appeared in both the query string and the POST body.
func (p Param) Values() []string {
	return p.vals
}

// Pair splits a duplicated key into its query-side and body-side values. A
// valueless side comes back as ""; IsNull distinguishes it from an empty one.
func (p Param) Pair() (query, body string, ok bool) {
	if len(p.vals) != 2 {
		return "", "", false
	}

	return p.vals[0], p.vals[1], true
}

type Params map[string]Param

// parseQuery splits raw on '&', then each pair on the first '='. Values pass
// through raw: no percent-decoding or unescaping is attempted. The first
// occurrence of a key wins within a single source.
func parseQuery(raw string) Params {
	params := make(Params)

	for _, pair := range strings.Split(raw, "&") {
		if pair == "" {
			continue
		}

		key, value, found := strings.Cut(pair, "=")
		if _, dup := params[key]; dup {
			continue
		}

		if !found {
			params[key] = Param{null: true}
			continue
		}

		params[key] = Param{vals: []string{value}}
	}

	return params
}

// mergeParams combines query parameters with POST body parameters. A key
// present in both sources becomes the (query-value, body-value) pair instead
// of the body overwriting the query; handlers rely on this asymmetry to
// detect duplicated keys.
func mergeParams(query, body Params) Params {
	merged := make(Params, len(query)+len(body))

	for key, value := range query {
		merged[key] = value
	}

	for key, bodyValue := range body {
		queryValue, found := merged[key]
		if !found {
			merged[key] = bodyValue
			continue
		}

		merged[key] = Param{
			vals: []string{queryValue.Value(), bodyValue.Value()},
			null: queryValue.null || bodyValue.null,
		}
	}

	return merged
}
