package mediator

import "io"

// bridgeReader adapts a Session's event loop to the io.Reader interface
// expected by editor.WithInput: it is the Go analogue of with-readline's
// getc_callback, which loops calling eventloop() until the keyboard input
// buffer has at least one byte ready.
type bridgeReader struct {
	s *Session
}

func (r *bridgeReader) Read(p []byte) (int, error) {
	for r.s.input.Len() == 0 {
		if err := r.s.runIteration(); err != nil {
			return 0, err
		}
		if r.s.ptm == nil {
			return 0, io.EOF
		}
	}
	n := 0
	for n < len(p) {
		c, ok := r.s.input.ReadByte()
		if !ok {
			break
		}
		p[n] = c
		n++
	}
	return n, nil
}
