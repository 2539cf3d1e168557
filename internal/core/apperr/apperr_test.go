package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeOf(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, CodeOf(NotFound("x")))
	assert.Equal(t, http.StatusForbidden, CodeOf(fmt.Errorf("wrap: %w", Forbidden("no"))))
	assert.Equal(t, http.StatusInternalServerError, CodeOf(errors.New("boom")))
}

func TestError_MessageAndUnwrap(t *testing.T) {
	cause := errors.New("db down")
	e := Internal("list failed", cause)
	assert.Equal(t, "list failed", e.Error())
	assert.ErrorIs(t, e, cause)

	bare := &Error{Code: http.StatusConflict}
	assert.Equal(t, "Conflict", bare.Error())
}

func TestWithField(t *testing.T) {
	e := BadRequest("invalid input").WithField("email", "required")
	require.NotNil(t, As(e))
	assert.Equal(t, map[string]string{"email": "required"}, As(e).Fields)
	assert.True(t, IsNotFound(NotFound("")))
	assert.False(t, IsForbidden(Unauthorized("")))
	assert.True(t, IsUnauthorized(Unauthorized("")))
}
