package ident

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUUIDIsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for range 100 {
		id := UUID()
		_, err := uuid.Parse(id)
		require.NoError(t, err)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestSequence(t *testing.T) {
	next := Sequence("item")
	assert.Equal(t, "item-1", next())
	assert.Equal(t, "item-2", next())

	other := Sequence("area")
	assert.Equal(t, "area-1", other())
}
