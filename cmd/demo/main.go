package main

import (
	"fmt"
	"log"
	"strings"

	"github.com/withreadline/withreadline/editor"
)

func inputFinished(text string) bool {
	text = strings.TrimSpace(text)
	return strings.HasSuffix(text, ";")
}

func main() {
	fmt.Printf(`# command line demo
# - multi-line input terminated by a trailing semicolon
# - standard navigation and editing commands
# - history browsing and search
# - kill ring
`)

	p := editor.New(editor.WithInputFinished(inputFinished))
	for {
		_, err := p.ReadLine("demo> ", false)
		if err != nil {
			log.Fatal(err)
		}
	}
}
