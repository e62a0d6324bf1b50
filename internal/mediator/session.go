package mediator

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/sys/unix"

	"github.com/withreadline/withreadline/internal/ringbuf"
)

// Session mediates between the controlling terminal (fd 0/1) and a child
// process attached to the slave side of a pty. It corresponds to the single
// translation unit of with-readline.c: the package-level ptm, sigpipe,
// input, and line state there become fields here so multiple sessions
// could in principle coexist in one process.
type Session struct {
	ptm *os.File // master side; nil once the child's terminal has gone away
	pts *os.File // slave side; only held open long enough to start the child

	cmd *exec.Cmd

	origTermios    unix.Termios // terminal mode in effect when we started
	readingTermios unix.Termios // origTermios with VINTR/VQUIT disabled

	input ringbuf.Buffer // stdin bytes not yet consumed by the editor
	line  ringbuf.Buffer // trailing line of the child's most recent output

	sig *signalPipe

	stdout *os.File

	// onResize, if set, is invoked with the controlling terminal's current
	// dimensions whenever they change, so an editor.Editor driven with
	// WithManagedTerminal(false) can be kept in sync without installing a
	// competing SIGWINCH handler of its own.
	onResize func(width, height int)
}

// SetResizeHandler installs fn to be called with the terminal's current
// size immediately, and again on every later SIGWINCH/SIGCONT.
func (s *Session) SetResizeHandler(fn func(width, height int)) error {
	s.onResize = fn
	return s.resize()
}

// NewSession allocates a pty, verifies the slave's permissions, and starts
// name/args attached to it. The child inherits the current window size and
// the caller's terminal settings with echo disabled, since the caller's own
// line editor is responsible for echoing keystrokes.
func NewSession(name string, args []string) (*Session, error) {
	ptm, pts, err := pty.Open()
	if err != nil {
		return nil, fmt.Errorf("allocating pty: %w", err)
	}

	if err := checkSlavePermissions(pts); err != nil {
		ptm.Close()
		pts.Close()
		return nil, err
	}

	orig, err := getTermios(unix.Stdin)
	if err != nil {
		ptm.Close()
		pts.Close()
		return nil, err
	}
	w, err := getWinsize(unix.Stdin)
	if err != nil {
		ptm.Close()
		pts.Close()
		return nil, err
	}
	if err := setWinsize(int(pts.Fd()), w); err != nil {
		ptm.Close()
		pts.Close()
		return nil, err
	}
	slaveTermios := withoutEcho(*orig)
	if err := setTermios(int(pts.Fd()), &slaveTermios); err != nil {
		ptm.Close()
		pts.Close()
		return nil, err
	}

	cmd := exec.Command(name, args...)
	cmd.Stdin = pts
	cmd.Stdout = pts
	cmd.Stderr = pts
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
		Ctty:    0,
	}

	if err := cmd.Start(); err != nil {
		ptm.Close()
		pts.Close()
		return nil, fmt.Errorf("starting %s: %w", name, err)
	}
	// The child now holds its own copy of the slave (dup'd across fork); our
	// copy would otherwise keep the pty open after the child exits.
	pts.Close()

	s := &Session{
		ptm:         ptm,
		cmd:         cmd,
		origTermios: *orig,
		sig:         newSignalPipe(),
		stdout:      os.Stdout,
	}
	s.readingTermios = readingTermios(*orig)
	if err := setTermios(unix.Stdin, &s.readingTermios); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Reader returns an io.Reader suitable for use as editor.WithInput: each
// call to Read blocks, running the event loop as needed, until at least one
// byte of genuine keyboard input (not a pass-through control character, not
// master output, not a signal) is available.
func (s *Session) Reader() *bridgeReader {
	return &bridgeReader{s: s}
}

// PendingLine returns the trailing line of the child's most recent output
// and clears it, for use as the already-prompted prefix text passed to
// editor.ReadLine.
func (s *Session) PendingLine() string {
	text := string(s.line.Bytes())
	s.line.Clear()
	return text
}

// HasInput reports whether at least one byte of keyboard input is queued
// for the editor, mirroring with-readline's `input.start != input.end`
// check in its outer loop.
func (s *Session) HasInput() bool {
	return s.input.Len() > 0
}

// Alive reports whether the master side is still open. Once it closes (the
// child exited and released its last reference to the slave, or stdin hit
// EOF), the mediator's main loop should stop calling into the editor.
func (s *Session) Alive() bool {
	return s.ptm != nil
}

// WriteLine forwards a completed line of editor input to the child,
// followed by a carriage return, exactly as with-readline feeds readline's
// result back down the pty.
func (s *Session) WriteLine(text string) error {
	return s.writeAll(append([]byte(text), '\r'))
}

// SendEOF forwards the VEOF character from the terminal settings saved at
// startup (not a hardcoded ^D), used when the
// editor reports end-of-input (Ctrl-D on an empty line) rather than a
// completed line.
func (s *Session) SendEOF() error {
	return s.writeAll([]byte{s.origTermios.Cc[unix.VEOF]})
}

func (s *Session) writeAll(b []byte) error {
	if s.ptm == nil {
		return nil
	}
	for len(b) > 0 {
		n, err := s.ptm.Write(b)
		if err != nil {
			return fmt.Errorf("writing to pty master: %w", err)
		}
		b = b[n:]
	}
	return nil
}

// Close restores the original terminal settings and releases the master
// side, if still open.
func (s *Session) Close() error {
	if s.sig != nil {
		s.sig.stop()
	}
	_ = setTermios(unix.Stdin, &s.origTermios)
	if s.ptm != nil {
		err := s.ptm.Close()
		s.ptm = nil
		return err
	}
	return nil
}

// Wait blocks until the child exits and returns an exit code in the shell
// convention: the child's own status, or 128+signal if it died from a
// signal, mirroring with-readline's WIFEXITED/WIFSIGNALED handling. name is
// used only to label a "killed by signal" message written to stderr, as
// with-readline labels it with argv[optind].
func (s *Session) Wait(name string) int {
	err := s.cmd.Wait()
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintf(os.Stderr, "FATAL: error waiting for %s: %v\n", name, err)
		return 1
	}
	status, ok := exitErr.Sys().(syscall.WaitStatus)
	if !ok {
		fmt.Fprintf(os.Stderr, "FATAL: cannot parse wait status for %s\n", name)
		return 1
	}
	code, msg := exitCode(status)
	if msg != "" {
		fmt.Fprintf(os.Stderr, "%s: %s\n", name, msg)
	}
	return code
}

// exitCode maps a raw wait status to a shell-convention exit code: the
// child's own status if it exited normally, or 128+signal if a signal
// killed it, mirroring with-readline's WIFEXITED/WIFSIGNALED handling. msg
// is non-empty only in the signaled case, naming the signal and whether it
// dumped core.
func exitCode(status syscall.WaitStatus) (code int, msg string) {
	if status.Signaled() {
		cored := ""
		if status.CoreDump() {
			cored = " (core dumped)"
		}
		return 128 + int(status.Signal()), fmt.Sprintf("%s%s", status.Signal(), cored)
	}
	return status.ExitStatus(), ""
}
