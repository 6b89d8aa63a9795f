package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomStore(t *testing.T) {
	s := NewRoomStore()
	assert.Equal(t, 0, s.Len())

	s.Add(&Room{Code: "abc"})
	s.Add(&Room{Code: "def"})

	r, exists := s.Get("abc")
	require.True(t, exists)
	assert.Equal(t, "abc", r.Code)

	_, exists = s.Get("nope")
	assert.False(t, exists)

	assert.Len(t, s.Rooms(), 2)

	s.Delete("abc")
	_, exists = s.Get("abc")
	assert.False(t, exists)
	assert.Equal(t, 1, s.Len())
}
