package mediator

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// runIteration runs a single pass of the event loop: it waits for stdin,
// the pty master, or a pending signal to become readable, in that priority
// order, and handles whichever is ready. It is the direct translation of
// with-readline.c's eventloop(): both the outer session loop and
// bridgeReader.Read call it repeatedly, the latter playing the role of
// getc_callback looping over eventloop() until a keyboard byte shows up.
func (s *Session) runIteration() error {
	if s.ptm == nil {
		return nil
	}

	stdinFd := unix.Stdin
	ptmFd := int(s.ptm.Fd())
	sigFd := int(s.sig.r.Fd())

	var rfds fdSet
	rfds.zero()
	rfds.add(stdinFd)
	rfds.add(ptmFd)
	rfds.add(sigFd)
	max := ptmFd
	if sigFd > max {
		max = sigFd
	}

	n, err := unix.Select(max+1, &rfds.set, nil, nil, nil)
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil
		}
		return fmt.Errorf("select: %w", err)
	}
	if n == 0 {
		return nil
	}

	if rfds.isSet(stdinFd) {
		return s.handleStdin()
	}
	if rfds.isSet(ptmFd) {
		return s.handleMaster()
	}
	if rfds.isSet(sigFd) {
		return s.handleSignal()
	}
	return nil
}

// handleStdin reads a single keyboard byte. with-readline reads one byte at
// a time here deliberately: a human typist never outpaces it, and doing so
// keeps VINTR/VQUIT detection simple.
func (s *Session) handleStdin() error {
	var buf [1]byte
	n, err := unix.Read(unix.Stdin, buf[:])
	if err != nil {
		if errors.Is(err, unix.EINTR) {
			return nil
		}
		return fmt.Errorf("reading from standard input: %w", err)
	}
	if n == 0 {
		s.ptm.Close()
		s.ptm = nil
		return nil
	}
	ch := buf[0]
	if isInterrupt(ch, s.origTermios.Cc[unix.VINTR], s.origTermios.Cc[unix.VQUIT]) {
		return s.writeAll(buf[:])
	}
	s.input.Append(buf[:])
	return nil
}

// isInterrupt reports whether ch is the terminal's configured interrupt or
// quit character, in which case it bypasses the input buffer and goes
// straight to the child: the user is signaling the child process, not
// typing text for it to read.
func isInterrupt(ch, vintr, vquit byte) bool {
	return ch == vintr || ch == vquit
}

// handleMaster copies the child's output straight to our stdout and tracks
// the text written since the child's last newline (the not-yet-terminated
// line), so it can be replayed to the editor as already-displayed prompt
// text.
func (s *Session) handleMaster() error {
	var buf [4096]byte
	n, err := s.ptm.Read(buf[:])
	if err != nil {
		// EIO is what Linux pty masters return once every slave descriptor
		// has been closed; a closed file handle means we beat the child to
		// the punch via stdin EOF. Either way, the session is over.
		if errors.Is(err, syscall.EIO) || errors.Is(err, syscall.EBADF) {
			s.ptm.Close()
			s.ptm = nil
			return nil
		}
		if errors.Is(err, syscall.EINTR) {
			return nil
		}
		return fmt.Errorf("reading master: %w", err)
	}
	if n == 0 {
		s.ptm.Close()
		s.ptm = nil
		return nil
	}

	if _, err := s.stdout.Write(buf[:n]); err != nil {
		return fmt.Errorf("writing to standard output: %w", err)
	}

	startsNewLine, tail := trailingLine(buf[:n])
	if startsNewLine {
		s.line.Clear()
	}
	s.line.Append(tail)
	return nil
}

// trailingLine finds the portion of chunk after its last newline: the part
// of the child's output that begins a new, not-yet-terminated line.
// startsNewLine is true when chunk contains at least one newline, meaning
// whatever was buffered from before this chunk belongs to an already
// completed line and should be discarded rather than appended to.
func trailingLine(chunk []byte) (startsNewLine bool, tail []byte) {
	cut := len(chunk)
	for cut > 0 && chunk[cut-1] != '\n' {
		cut--
	}
	return cut != 0, chunk[cut:]
}

// handleSignal drains one byte from the signal self-pipe and acts on it.
func (s *Session) handleSignal() error {
	var buf [1]byte
	n, err := s.sig.r.Read(buf[:])
	if err != nil {
		return fmt.Errorf("reading from signal pipe: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("signal pipe unexpectedly reached EOF")
	}

	sig := syscall.Signal(buf[0])
	switch classifySignal(sig) {
	case signalResize:
		return s.resize()
	case signalContinue:
		if err := setTermios(unix.Stdin, &s.readingTermios); err != nil {
			return err
		}
		return s.resize()
	default:
		_ = setTermios(unix.Stdin, &s.origTermios)
		if err := reraiseDefault(sig); err != nil {
			return fmt.Errorf("error calling kill: %w", err)
		}
		return nil
	}
}

// signalClass names how handleSignal should react to a caught signal.
type signalClass int

const (
	signalFatal signalClass = iota
	signalResize
	signalContinue
)

// classifySignal sorts a caught signal into one of the three reactions the
// original's eventloop() switches on: SIGWINCH just propagates the new
// window size, SIGCONT additionally restores the reading termios (a stopped
// and resumed shell may have left the terminal in the foreground job's
// mode), and anything else is one of fatalSignals, meaning the terminal
// should be restored and the signal allowed to take its default action.
func classifySignal(sig syscall.Signal) signalClass {
	switch sig {
	case syscall.SIGWINCH:
		return signalResize
	case syscall.SIGCONT:
		return signalContinue
	default:
		return signalFatal
	}
}

// resize propagates the controlling terminal's current size to the pty
// master, for the child to pick up.
func (s *Session) resize() error {
	w, err := getWinsize(unix.Stdin)
	if err != nil {
		return err
	}
	if s.ptm != nil {
		if err := setWinsize(int(s.ptm.Fd()), w); err != nil {
			return err
		}
	}
	if s.onResize != nil {
		s.onResize(int(w.Col), int(w.Row))
	}
	return nil
}
