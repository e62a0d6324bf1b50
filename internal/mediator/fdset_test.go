package mediator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFdSet(t *testing.T) {
	var s fdSet
	s.zero()
	require.False(t, s.isSet(0))
	require.False(t, s.isSet(63))
	require.False(t, s.isSet(64))

	s.add(0)
	s.add(64)
	s.add(130)
	require.True(t, s.isSet(0))
	require.True(t, s.isSet(64))
	require.True(t, s.isSet(130))
	require.False(t, s.isSet(1))
	require.False(t, s.isSet(65))
}
