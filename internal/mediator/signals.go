package mediator

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sys/unix"
)

// fatalSignals lists the signals that, if delivered to us, should restore
// the original terminal settings before we let the default action happen.
// with-readline's list is conditional on what the target platform defines;
// on Linux that resolves to this set, minus SIGLOST, which Linux doesn't
// have.
var fatalSignals = []os.Signal{
	syscall.SIGHUP,
	syscall.SIGINT,
	syscall.SIGPIPE,
	syscall.SIGALRM,
	syscall.SIGTERM,
	syscall.SIGUSR1,
	syscall.SIGUSR2,
	syscall.SIGPOLL,
	syscall.SIGPROF,
	syscall.SIGVTALRM,
}

// signalPipe is the Go equivalent of with-readline's self-pipe sigpipe[2]:
// a forwarding goroutine turns asynchronous os/signal delivery into a
// single byte written down a real pipe, so the event loop's select can
// watch it on equal footing with stdin and the pty master instead of
// needing a separate select/channel path just for signals.
type signalPipe struct {
	r, w  *os.File
	sigCh chan os.Signal
}

func newSignalPipe() *signalPipe {
	r, w, err := os.Pipe()
	if err != nil {
		// A plain os.Pipe() failing means the process is nearly out of file
		// descriptors; there is no graceful degradation from here.
		panic(err)
	}
	sp := &signalPipe{r: r, w: w, sigCh: make(chan os.Signal, 16)}
	watched := []os.Signal{syscall.SIGWINCH, syscall.SIGCONT}
	for _, sig := range fatalSignals {
		if isIgnored(sig.(syscall.Signal)) {
			continue
		}
		watched = append(watched, sig)
	}
	signal.Notify(sp.sigCh, watched...)
	go sp.forward()
	return sp
}

// isIgnored reports whether sig's current disposition is SIG_IGN, the Go
// equivalent of with-readline's catch_signal(sig, always=0) probe: a parent
// that has deliberately ignored a signal before exec'ing us (e.g. SIGPIPE in
// some shells) should have that disposition respected rather than overridden
// by our own handler.
func isIgnored(sig syscall.Signal) bool {
	var old unix.Sigaction
	if err := unix.Sigaction(int(sig), nil, &old); err != nil {
		// A failed query is not treated as fatal: we can't safely decide
		// whether to install our handler, so the signal is left unclaimed.
		return true
	}
	return old.Handler == uintptr(unix.SIG_IGN)
}

func (sp *signalPipe) forward() {
	for sig := range sp.sigCh {
		if n, ok := sig.(syscall.Signal); ok {
			sp.w.Write([]byte{byte(n)})
		}
	}
}

func (sp *signalPipe) stop() {
	signal.Stop(sp.sigCh)
	close(sp.sigCh)
	sp.r.Close()
	sp.w.Close()
}

// reraiseDefault restores sig's default disposition and re-sends it to this
// process, the Go equivalent of with-readline's unblock+signal(SIG_DFL)+
// kill(getpid(), sig) dance: having already cleaned up the terminal, we
// want the signal's ordinary effect (usually termination) to proceed as if
// we had never caught it.
func reraiseDefault(sig syscall.Signal) error {
	signal.Reset(sig)
	return syscall.Kill(syscall.Getpid(), sig)
}
