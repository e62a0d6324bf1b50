package ringbuf

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppendAndDrain(t *testing.T) {
	var b Buffer
	b.Append([]byte("hello"))
	require.Equal(t, 5, b.Len())
	require.Equal(t, "hello", string(b.Bytes()))

	var out bytes.Buffer
	require.NoError(t, b.DrainTo(&out))
	require.Equal(t, "hello", out.String())
	require.Equal(t, 0, b.Len())
}

func TestReadByte(t *testing.T) {
	var b Buffer
	b.Append([]byte("ab"))

	c, ok := b.ReadByte()
	require.True(t, ok)
	require.Equal(t, byte('a'), c)
	require.Equal(t, 1, b.Len())

	c, ok = b.ReadByte()
	require.True(t, ok)
	require.Equal(t, byte('b'), c)
	require.Equal(t, 0, b.Len())

	_, ok = b.ReadByte()
	require.False(t, ok)
}

func TestAppendGrowsAndCompacts(t *testing.T) {
	var b Buffer
	for i := 0; i < 10; i++ {
		b.Append(bytes.Repeat([]byte{'x'}, 20))
	}
	require.Equal(t, 200, b.Len())

	var out bytes.Buffer
	require.NoError(t, b.DrainTo(&out))
	require.Equal(t, 200, out.Len())
	require.Equal(t, 0, b.Len())

	// Appending after a full drain should reuse the reclaimed space rather
	// than growing indefinitely.
	b.Append([]byte("after-drain"))
	require.Equal(t, "after-drain", string(b.Bytes()))
}

func TestClear(t *testing.T) {
	var b Buffer
	b.Append([]byte("data"))
	b.Clear()
	require.Equal(t, 0, b.Len())
	require.Empty(t, b.Bytes())
}
