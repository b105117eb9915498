package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindMatchingThroughWrapping(t *testing.T) {
	base := NotFound("document %s not found", "abc")
	wrapped := fmt.Errorf("loading detail: %w", base)

	assert.True(t, errors.Is(wrapped, NotFound("anything")))
	assert.False(t, errors.Is(wrapped, Forbidden("anything")))
	assert.Equal(t, KindNotFound, KindOf(wrapped))
}

func TestHTTPStatusMapping(t *testing.T) {
	cases := map[error]int{
		NotFound("x"):               http.StatusNotFound,
		Forbidden("x"):              http.StatusForbidden,
		InvalidState("x"):           http.StatusBadRequest,
		Validation("x"):             http.StatusBadRequest,
		Conflict("x"):               http.StatusConflict,
		Busy("x"):                   http.StatusServiceUnavailable,
		errors.New("plain failure"): http.StatusInternalServerError,
	}

	for err, want := range cases {
		assert.Equal(t, want, HTTPStatus(err), err.Error())
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("lock_not_available")
	err := Wrap(KindBusy, cause, "document is being processed")

	assert.Equal(t, KindBusy, KindOf(err))
	assert.ErrorIs(t, err, cause)
}
