// Command with-readline runs another program with its standard input
// mediated by a line editor: keystrokes are gathered and edited locally,
// with history and the usual editing commands, and only complete lines are
// forwarded to the program being run. The program itself decides what its
// prompt looks like; with-readline just echoes it and holds keyboard input
// back from the program until Enter is pressed.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/withreadline/withreadline/editor"
	"github.com/withreadline/withreadline/internal/mediator"
)

const version = "0.1.0"

func usage() {
	fmt.Fprint(os.Stderr, `Usage:
  with-readline [OPTIONS] -- COMMAND ARGS...
Options:
  --application APP, -a APP      Set application name
  --history ENTRIES, -H ENTRIES  Maximum history to retain
  --help, -h                     Display usage message
  --version, -V                  Display version number
`)
}

func fatalf(format string, args ...interface{}) {
	mediator.Fatal(fmt.Sprintf(format, args...))
}

func convertNum(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("not a valid integer %q", s)
	}
	if n < 0 {
		return 0, fmt.Errorf("integer %d out of range [0,...]", n)
	}
	return n, nil
}

func main() {
	flags := pflag.NewFlagSet("with-readline", pflag.ContinueOnError)
	flags.Usage = usage
	// Mirrors with-readline's getopt_long optstring "+hVa:H:": option
	// parsing stops at the first non-option argument, which is the command
	// to run.
	flags.SetInterspersed(false)

	app := flags.StringP("application", "a", "", "application name used for the history file and readline settings")
	historySize := flags.StringP("history", "H", "", "maximum number of history entries to retain")
	help := flags.BoolP("help", "h", false, "display usage message")
	showVersion := flags.BoolP("version", "V", false, "display version number")

	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	if *help {
		usage()
		os.Exit(0)
	}
	if *showVersion {
		fmt.Printf("with-readline version %s\n", version)
		os.Exit(0)
	}

	args := flags.Args()
	if len(args) == 0 {
		fatalf("no command specified")
	}
	command, commandArgs := args[0], args[1:]

	maxHistory := 0
	if *historySize != "" {
		n, err := convertNum(*historySize)
		if err != nil {
			fatalf("%v", err)
		}
		maxHistory = n
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		// Not attached to a terminal: there is nothing to mediate, so run
		// the command directly in our place rather than paying for a pty.
		if err := mediator.SurrenderPrivilege(); err != nil {
			fatalf("%v", err)
		}
		path, err := exec.LookPath(command)
		if err != nil {
			fatalf("%v", err)
		}
		// A literal execve: no fork, since there is no pty setup left to do
		// in between.
		if err := syscall.Exec(path, args, os.Environ()); err != nil {
			fatalf("%v", err)
		}
		return
	}

	sess, err := mediator.NewSession(command, commandArgs)
	if err != nil {
		fatalf("%v", err)
	}
	defer sess.Close()

	if err := mediator.SurrenderPrivilege(); err != nil {
		fatalf("%v", err)
	}

	appName := *app
	if appName == "" {
		appName = filepath.Base(command)
	}

	home, ok := os.LookupEnv("HOME")
	if !ok {
		fatalf("HOME is not set")
	}
	histFile := filepath.Join(home, "."+appName+"_history")

	if maxHistory == 0 {
		if hfs, ok := os.LookupEnv("HISTFILESIZE"); ok {
			n, err := convertNum(hfs)
			if err != nil {
				fatalf("%v", err)
			}
			maxHistory = n
		} else {
			maxHistory = 500
		}
	}

	ed := editor.New(
		editor.WithInput(sess.Reader()),
		editor.WithOutput(os.Stdout),
		editor.WithManagedTerminal(false),
	)
	defer ed.Close()

	if err := ed.LoadHistory(histFile, maxHistory); err != nil {
		fatalf("error reading %s: %v", histFile, err)
	}

	if err := mediator.Run(sess, ed); err != nil {
		fatalf("%v", err)
	}

	// os.Exit skips deferred calls, so restore the terminal and release the
	// history file explicitly before exiting.
	sess.Close()
	ed.Close()
	os.Exit(sess.Wait(filepath.Base(command)))
}
