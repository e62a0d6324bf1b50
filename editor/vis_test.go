package editor

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHistoryLineRoundtrip(t *testing.T) {
	testCases := []string{
		`plain text`,
		`back\slash`,
		"multi\nline\nentry",
		`trailing backslash\`,
		"",
	}
	for _, c := range testCases {
		t.Run("", func(t *testing.T) {
			e := encodeHistoryLine(c)
			require.NotContains(t, e, "\n")
			d, err := decodeHistoryLine(e)
			require.NoError(t, err)
			require.Equal(t, c, d)
		})
	}
}

func TestHistoryLineDecode(t *testing.T) {
	testCases := []struct {
		encoded  string
		expected string
	}{
		{`\\`, `\`},
		{`\n`, "\n"},
		{`a\nb`, "a\nb"},
		{`a\\b`, `a\b`},
		{`\q`, `\q`}, // unknown escape is passed through verbatim
	}
	for _, c := range testCases {
		t.Run("", func(t *testing.T) {
			d, err := decodeHistoryLine(c.encoded)
			require.NoError(t, err)
			require.Equal(t, c.expected, d)
		})
	}
}
