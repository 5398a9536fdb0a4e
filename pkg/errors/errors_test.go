package errors_test

import (
	"net/http"
	"testing"

	"github.com/nyxwave/fleetmesh/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAndHTTPStatus(t *testing.T) {
	cases := []struct {
		code errors.Code
		want int
	}{
		{errors.CodeNotFound, http.StatusNotFound},
		{errors.CodeConflict, http.StatusConflict},
		{errors.CodeAlreadyExists, http.StatusConflict},
		{errors.CodeInvalidArgument, http.StatusBadRequest},
		{errors.CodeInternal, http.StatusInternalServerError},
	}
	for _, c := range cases {
		err := errors.New(c.code, "boom", nil)
		assert.Equal(t, c.want, err.HTTPStatus())
	}
}

func TestWrapPreservesCode(t *testing.T) {
	base := errors.NotFound("twin missing", nil)
	wrapped := errors.Wrap(base, "patch failed")

	require.Equal(t, errors.CodeNotFound, wrapped.Code)
	assert.ErrorIs(t, wrapped, base)
}

func TestWrapPlainError(t *testing.T) {
	wrapped := errors.Wrap(assertErr{}, "store failure")
	assert.Equal(t, errors.CodeInternal, wrapped.Code)
}

type assertErr struct{}

func (assertErr) Error() string { return "plain" }

func TestCodeOfUnwrappedError(t *testing.T) {
	assert.Equal(t, errors.CodeInternal, errors.CodeOf(assertErr{}))
	assert.Equal(t, errors.CodeConflict, errors.CodeOf(errors.Conflict("x", nil)))
}
