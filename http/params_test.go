package http

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseQuery(t *testing.T) {
	t.Run("null vs empty", func(t *testing.T) {
		params := parseQuery("a=1&b=&c")
		require.Len(t, params, 3)

		require.False(t, params["a"].IsNull())
		require.Equal(t, "1", params["a"].Value())

		require.False(t, params["b"].IsNull())
		require.Equal(t, "", params["b"].Value())
		require.Len(t, params["b"].Values(), 1)

		require.True(t, params["c"].IsNull())
		require.Empty(t, params["c"].Values())
	})

	t.Run("raw values", func(t *testing.T) {
		// no percent-decoding is attempted, values pass through untouched
		params := parseQuery("name=hello%20world&eq=a=b")
		require.Equal(t, "hello%20world", params["name"].Value())
		require.Equal(t, "a=b", params["eq"].Value())
	})

	t.Run("first key wins", func(t *testing.T) {
		params := parseQuery("a=1&a=2")
		require.Equal(t, "1", params["a"].Value())
	})

	t.Run("empty input", func(t *testing.T) {
		require.Empty(t, parseQuery(""))
		require.Empty(t, parseQuery("&&"))
	})
}

func TestMergeParams(t *testing.T) {
	merged := mergeParams(parseQuery("a=1"), parseQuery("a=2&b=3"))
	require.Len(t, merged, 2)

	query, body, ok := merged["a"].Pair()
	require.True(t, ok)
	require.Equal(t, "1", query)
	require.Equal(t, "2", body)
	require.Equal(t, []string{"1", "2"}, merged["a"].Values())

	require.Equal(t, "3", merged["b"].Value())
	_, _, ok = merged["b"].Pair()
	require.False(t, ok)
}

func TestMergeParams_NullSide(t *testing.T) {
	// a valueless query key duplicated in the body keeps its null marker
	merged := mergeParams(parseQuery("debug"), parseQuery("debug=1"))

	require.True(t, merged["debug"].IsNull())

	query, body, ok := merged["debug"].Pair()
	require.True(t, ok)
	require.Equal(t, "", query)
	require.Equal(t, "1", body)
}
