package mediator

import (
	"syscall"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifySignal(t *testing.T) {
	require.Equal(t, signalResize, classifySignal(syscall.SIGWINCH))
	require.Equal(t, signalContinue, classifySignal(syscall.SIGCONT))
	require.Equal(t, signalFatal, classifySignal(syscall.SIGTERM))
	require.Equal(t, signalFatal, classifySignal(syscall.SIGINT))
	require.Equal(t, signalFatal, classifySignal(syscall.SIGUSR1))
}

func TestIsInterrupt(t *testing.T) {
	const vintr, vquit byte = 3, 28 // ^C, ^\

	require.True(t, isInterrupt(vintr, vintr, vquit))
	require.True(t, isInterrupt(vquit, vintr, vquit))
	require.False(t, isInterrupt('a', vintr, vquit))
	require.False(t, isInterrupt('\r', vintr, vquit))
}

func TestTrailingLine(t *testing.T) {
	cases := []struct {
		name          string
		chunk         string
		startsNewLine bool
		tail          string
	}{
		{"no newline", "prompt> ", false, "prompt> "},
		{"single trailing newline", "hello\n", true, ""},
		{"newline then partial prompt", "hello\nworld> ", true, "world> "},
		{"multiple newlines", "a\nb\nc> ", true, "c> "},
		{"empty chunk", "", false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			startsNewLine, tail := trailingLine([]byte(tc.chunk))
			require.Equal(t, tc.startsNewLine, startsNewLine)
			require.Equal(t, tc.tail, string(tail))
		})
	}
}
