package status

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestText(t *testing.T) {
	assert.Equal(t, "Ok", Text(OK))
	assert.Equal(t, "Redirect", Text(Redirect))
	assert.Equal(t, "Bad Request", Text(BadRequest))
	assert.Equal(t, "Authenticate", Text(Authenticate))
	assert.Equal(t, "Not Found", Text(NotFound))
	assert.Equal(t, "Server Error", Text(ServerError))
	assert.Empty(t, Text(Code(999)))
}
