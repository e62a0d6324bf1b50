// Package mediator implements the pty-mediated child session: it allocates
// a pseudo-terminal, starts the target program attached to the slave side,
// and runs the event loop that multiplexes stdin, the pty master, and
// signals so that an editor.Editor can be interposed between the user's
// keyboard and the child's line-buffered reads.
package mediator

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// getTermios reads the termios settings for fd.
func getTermios(fd int) (*unix.Termios, error) {
	t, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, fmt.Errorf("tcgetattr: %w", err)
	}
	return t, nil
}

// setTermios applies t to fd immediately (TCSANOW semantics).
func setTermios(fd int, t *unix.Termios) error {
	if err := unix.IoctlSetTermios(fd, unix.TCSETS, t); err != nil {
		return fmt.Errorf("tcsetattr: %w", err)
	}
	return nil
}

// getWinsize reads the window size for fd.
func getWinsize(fd int) (*unix.Winsize, error) {
	w, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return nil, fmt.Errorf("ioctl TIOCGWINSZ: %w", err)
	}
	return w, nil
}

// setWinsize applies w to fd.
func setWinsize(fd int, w *unix.Winsize) error {
	if err := unix.IoctlSetWinsize(fd, unix.TIOCSWINSZ, w); err != nil {
		return fmt.Errorf("ioctl TIOCSWINSZ: %w", err)
	}
	return nil
}

// withoutEcho returns a copy of t with ECHO cleared, for installing on the
// slave side so the child's terminal doesn't double-echo what the editor
// already echoed on our side.
func withoutEcho(t unix.Termios) unix.Termios {
	t.Lflag &^= unix.ECHO
	return t
}

// readingTermios returns a copy of t with VINTR and VQUIT disabled (set to
// the POSIX _POSIX_VDISABLE value of 0 on Linux), so that ^C and ^\ reach
// us as ordinary bytes to forward to the pty rather than generating
// signals against our own process group.
func readingTermios(t unix.Termios) unix.Termios {
	t.Cc[unix.VINTR] = 0
	t.Cc[unix.VQUIT] = 0
	return t
}
