package method

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	assert.Equal(t, GET, Parse("GET"))
	assert.Equal(t, POST, Parse("POST"))
	assert.Equal(t, HEAD, Parse("HEAD"))
	assert.Equal(t, Unknown, Parse("get"))
	assert.Equal(t, Unknown, Parse("DELETE"))
	assert.Equal(t, Unknown, Parse(""))
}
