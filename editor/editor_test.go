package editor

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
)

// TestEditor drives the editor purely through its key-dispatch path and
// asserts on screen.Text()/screen.Position() — plain, hand-traceable data —
// rather than a rendered ANSI terminal grid. A mediator only ever needs the
// accepted text and cursor position; it never inspects escape sequences
// directly, so that's what these fixtures check.
func TestEditor(t *testing.T) {
	var p *Editor

	inputRE := regexp.MustCompile(`<[^>]*>`)
	inputReplacements := map[string]string{
		"<Control-a>": string(rune(keyCtrlA)),
		"<Control-b>": string(rune(keyCtrlB)),
		"<Control-d>": string(rune(keyCtrlD)),
		"<Control-e>": string(rune(keyCtrlE)),
		"<Control-k>": string(rune(keyCtrlK)),
		"<Control-u>": string(rune(keyCtrlU)),
		"<Control-w>": string(rune(keyCtrlW)),
		"<Control-y>": string(rune(keyCtrlY)),
		"<Backspace>": "\x7f",
		"<Down>":      "\x1b[B",
		"<Left>":      "\x1b[D",
		"<Right>":     "\x1b[C",
		"<Up>":        "\x1b[A",
	}
	replace := func(src string) string {
		if r, ok := inputReplacements[src]; ok {
			return r
		}
		return src
	}

	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		datadriven.RunTest(t, path, func(t *testing.T, td *datadriven.TestData) string {
			switch td.Cmd {
			case "new":
				width, height := 80, 24
				prefix := ""
				for _, arg := range td.CmdArgs {
					switch arg.Key {
					case "width":
						width, _ = strconv.Atoi(arg.Vals[0])
					case "height":
						height, _ = strconv.Atoi(arg.Vals[0])
					case "prefix":
						prefix = arg.Vals[0]
					}
				}
				p = New(WithOutput(&strings.Builder{}), WithSize(width, height))
				p.mu.state.screen.Reset([]rune(prefix), false)
				return ""

			case "history-add":
				for _, line := range strings.Split(strings.TrimRight(td.Input, "\n"), "\n") {
					p.mu.state.history.Add(line)
				}
				return ""

			case "input":
				input := inputRE.ReplaceAllStringFunc(td.Input, replace)
				p.inBytes = []byte(input)
				p.mu.Lock()
				for len(p.inBytes) > 0 {
					if _, err := p.processInputLocked(); err != nil {
						p.mu.Unlock()
						return fmt.Sprintf("error: %v\n", err)
					}
				}
				text := string(p.mu.state.screen.Text())
				pos := p.mu.state.screen.Position()
				p.mu.Unlock()
				return fmt.Sprintf("text: %q\npos: %d\n", text, pos)

			case "history":
				return p.mu.state.history.String() + "\n"
			}
			return fmt.Sprintf("unknown command: %s\n", td.Cmd)
		})
	})
}
