package omitnilpointers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOmitNilPointers(t *testing.T) {
	name := "Mine"
	var unset *bool

	got := OmitNilPointers(map[string]any{
		"name":    &name,
		"linked":  unset,
		"nothing": nil,
		"count":   3,
	})

	assert.Equal(t, map[string]any{"name": "Mine", "count": 3}, got)
}
