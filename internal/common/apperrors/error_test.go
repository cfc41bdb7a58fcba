package apperrors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorHierarchy(t *testing.T) {
	base := New("store error").SetStatusCode(http.StatusInternalServerError)
	notFound := base.New("not found").SetStatusCode(http.StatusNotFound)
	langNotFound := notFound.New("language not found")

	assert.True(t, errors.Is(langNotFound, notFound))
	assert.True(t, errors.Is(langNotFound, base))
	assert.False(t, errors.Is(notFound, langNotFound))
	assert.Equal(t, http.StatusNotFound, langNotFound.StatusCode())
}

func TestErrorAll(t *testing.T) {
	base := New("validation failed").SetExpandError(true)
	wrapped := errors.New("tag too long")
	err := base.New("invalid release").SetExpandError(true).Err(wrapped)

	assert.Equal(t, "invalid release: tag too long", err.ErrorAll())
	assert.True(t, errors.Is(err, wrapped))
}
