package editor

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistoryLoadStifleRewrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app_history")

	var h history
	require.NoError(t, h.LoadFile(path, 3))
	defer h.Close()

	// LoadFile writes the (empty) file back out immediately so a later
	// incremental append always has something to build on.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Empty(t, data)

	h.Add("one")
	h.Add("two")
	h.Add("three")
	h.Add("four") // pushes "one" out once trimmed to maxSize 3

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "two\nthree\nfour\n", string(data))
}

func TestHistoryLoadFileRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app_history")
	require.NoError(t, os.WriteFile(path, []byte("alpha\nbeta\\nbravo\ngamma\n"), 0600))

	var h history
	require.NoError(t, h.LoadFile(path, -1))
	defer h.Close()

	require.Equal(t, "[gamma, beta\nbravo, alpha]", h.String())
}

func TestHistoryAddDuplicateElided(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app_history")

	var h history
	require.NoError(t, h.LoadFile(path, -1))
	defer h.Close()

	h.Add("repeat")
	h.Add("repeat")
	require.Equal(t, "[repeat]", h.String())
}

func TestHistoryDisabled(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app_history")

	var h history
	require.NoError(t, h.LoadFile(path, 0))
	defer h.Close()

	h.Add("never stored")
	require.Equal(t, "[]", h.String())

	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))
}
