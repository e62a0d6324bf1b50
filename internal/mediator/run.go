package mediator

import (
	"errors"
	"io"
	"os"

	"github.com/withreadline/withreadline/editor"
)

// Run drives the session's main loop: it waits for keyboard input to
// arrive, hands readline duty to ed with the child's most recent output
// line as already-displayed prompt text, and forwards the result (or an
// EOF byte) down the pty. It returns once the controlling terminal or the
// pty master has gone away, mirroring with-readline's `while(ptm != -1)`
// loop.
func Run(s *Session, ed *editor.Editor) error {
	if err := s.SetResizeHandler(ed.Resize); err != nil {
		return err
	}

	for s.Alive() {
		for !s.HasInput() && s.Alive() {
			if err := s.runIteration(); err != nil {
				return err
			}
		}
		if !s.Alive() {
			break
		}

		prompt := s.PendingLine()
		text, err := ed.ReadLine(prompt, true)
		if err != nil {
			if errors.Is(err, io.EOF) {
				if werr := s.SendEOF(); werr != nil {
					return werr
				}
				ed.ClearLine()
				continue
			}
			return err
		}

		if werr := s.WriteLine(text); werr != nil {
			return werr
		}
		ed.ClearLine()
	}
	return nil
}

// FatalErrorPrefix is prepended to uncaught errors before the process
// exits, matching with-readline's fatal()'s "FATAL: " prefix.
const FatalErrorPrefix = "FATAL: "

// Fatal prints msg to stderr in with-readline's fatal() format and exits
// with status 1.
func Fatal(msg string) {
	os.Stderr.WriteString(FatalErrorPrefix + msg + "\n")
	os.Exit(1)
}
