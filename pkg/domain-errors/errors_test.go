package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errCause = errors.New("cause")

func TestWrap(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
	})

	t.Run("cause remains reachable", func(t *testing.T) {
		err := Wrap(errCause, CodeConflict, "asset already registered")
		require.Error(t, err)
		assert.ErrorIs(t, err, errCause)
		assert.True(t, HasCode(err, CodeConflict))
		assert.Equal(t, "asset already registered: cause", err.Error())
	})

	t.Run("code survives fmt wrapping", func(t *testing.T) {
		err := fmt.Errorf("dispatch: %w", New(CodeNotFound, "asset not found"))
		assert.True(t, Is(err, CodeNotFound))
		assert.False(t, Is(err, CodeConflict))
	})
}

func TestHasCode_PlainError(t *testing.T) {
	assert.False(t, HasCode(errCause, CodeInternal))
	assert.False(t, HasCode(nil, CodeInternal))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeBadRequest:       http.StatusBadRequest,
		CodeValidation:       http.StatusBadRequest,
		CodeUnauthorized:     http.StatusUnauthorized,
		CodeForbidden:        http.StatusForbidden,
		CodeNotFound:         http.StatusNotFound,
		CodeConflict:         http.StatusConflict,
		CodeCapacityExceeded: http.StatusConflict,
		CodeOverflow:         http.StatusInternalServerError,
		CodeTimeout:          http.StatusGatewayTimeout,
		CodeInternal:         http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), string(code))
	}
}
