//go:build !windows

package config

import (
	"os"
	"strings"

	"golang.org/x/term"
)

// SafeName turns arbitrary text (variable or file name) into something
// usable as a single path element, fallback is returned when nothing remains.
func SafeName(in, fallback string) string {
	out := strings.TrimLeft(strings.Map(func(sym rune) rune {
		switch sym {
		case os.PathSeparator, os.PathListSeparator:
			return '_'
		}
		return sym
	}, in), "._")
	if len(out) == 0 {
		return fallback
	}
	return out
}

// EnableColorOutput checks if colorized output is possible.
func EnableColorOutput(stream *os.File) bool {
	return term.IsTerminal(int(stream.Fd()))
}
