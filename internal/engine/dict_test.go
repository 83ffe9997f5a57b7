package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDictPutAssignsDenseIDs(t *testing.T) {
	d := NewDict()

	assert.Equal(t, uint32(0), d.Put("Russia"))
	assert.Equal(t, uint32(1), d.Put("Egypt"))
	assert.Equal(t, uint32(2), d.Put("Cyprus"))
	assert.Equal(t, 3, d.Len())

	// Repeated puts return the original id and add nothing.
	assert.Equal(t, uint32(1), d.Put("Egypt"))
	assert.Equal(t, uint32(0), d.Put("Russia"))
	assert.Equal(t, 3, d.Len())
}

func TestDictRoundTrip(t *testing.T) {
	d := NewDict()
	for _, s := range []string{"Anna", "Boris", "Anna", "Vera"} {
		id := d.Put(s)
		got, ok := d.Get(id)
		require.True(t, ok)
		assert.Equal(t, s, got)
	}
}

func TestDictGetOutOfRange(t *testing.T) {
	d := NewDict()
	d.Put("Moscow")

	_, ok := d.Get(1)
	assert.False(t, ok)
	_, ok = d.Get(42)
	assert.False(t, ok)
}

func TestDictExists(t *testing.T) {
	d := NewDict()
	d.Put("Russia")

	assert.True(t, d.Exists("Russia"))
	assert.False(t, d.Exists("Atlantis"))
	assert.False(t, d.Exists(""))

	id, ok := d.ID("Russia")
	require.True(t, ok)
	assert.Equal(t, uint32(0), id)
	_, ok = d.ID("Atlantis")
	assert.False(t, ok)
}
