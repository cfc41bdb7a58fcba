package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestNormalize(t *testing.T) {
	assert.Equal(t, DefaultPageLimit, PageRequest{}.Normalize().Limit)
	assert.Equal(t, DefaultPageLimit, PageRequest{Limit: -5}.Normalize().Limit)
	assert.Equal(t, 25, PageRequest{Limit: 25}.Normalize().Limit)
	assert.Equal(t, MaxPageLimit, PageRequest{Limit: 5000}.Normalize().Limit)
}
