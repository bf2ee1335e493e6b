// Package gcode provides the parsed command model for G-code post-processing.
// Lines are parsed into structured commands while retaining the verbatim
// source text, so untouched lines can be written back byte for byte.
package gcode

import (
	"strconv"
	"strings"
)

// Command is one parsed G-code line.
//
// A command with TextOnly set carries no machine meaning: the line was empty,
// a pure comment, or unparseable. Such lines must be written through verbatim
// and never affect machine state.
type Command struct {
	// Letter is the command word letter ('G', 'M', 'T', ...), upper-cased.
	Letter byte

	// Number is the integer command number (1 for G1, 92 for G92).
	Number int

	// Params maps parameter letters to their values. Parameters written
	// without a value ("flags") map to 0.
	Params map[byte]float64

	// Comment is the inline comment text after ';', without the semicolon,
	// or the text of the first parenthesised comment.
	Comment string

	// Text is the original line exactly as read, without the line ending.
	Text string

	// TextOnly marks lines that carry no command: blanks, comments, and
	// lines the parser could not understand.
	TextOnly bool
}

// Name returns the canonical command name, e.g. "G1" or "M104".
// TextOnly commands have no name.
func (c *Command) Name() string {
	if c.TextOnly {
		return ""
	}
	return string(c.Letter) + strconv.Itoa(c.Number)
}

// Is reports whether the command is the given letter/number pair.
func (c *Command) Is(letter byte, number int) bool {
	return !c.TextOnly && c.Letter == letter && c.Number == number
}

// IsLinearMove reports whether the command is a G0 or G1.
func (c *Command) IsLinearMove() bool {
	return c.Is('G', 0) || c.Is('G', 1)
}

// IsArcMove reports whether the command is a G2 or G3.
func (c *Command) IsArcMove() bool {
	return c.Is('G', 2) || c.Is('G', 3)
}

// Param returns the value of a parameter and whether it was present.
func (c *Command) Param(letter byte) (float64, bool) {
	v, ok := c.Params[letter]
	return v, ok
}

// HasParam reports whether the parameter letter was present on the line.
func (c *Command) HasParam(letter byte) bool {
	_, ok := c.Params[letter]
	return ok
}

// FormatFloat renders a coordinate value the way slicers write them: fixed
// precision with trailing zeros and a dangling decimal point removed.
func FormatFloat(v float64, precision int) string {
	s := strconv.FormatFloat(v, 'f', precision, 64)
	if !strings.Contains(s, ".") {
		return s
	}
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	// FormatFloat can produce "-0" for tiny negative values.
	if s == "-0" {
		return "0"
	}
	return s
}
