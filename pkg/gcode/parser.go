package gcode

import (
	"strconv"

	"arcwelder-go/pkg/pool"
)

// Parse turns one source line into a Command. The parser is tolerant: case
// and whitespace do not matter, parameters may omit their value, and inline
// comments (";" to end of line, or parenthesised) are captured. A line the
// parser cannot understand is returned as a TextOnly command so the caller
// can pass it through unchanged.
func Parse(line string) *Command {
	cmd := &Command{Text: trimEOL(line)}

	s := cmd.Text
	i := 0
	n := len(s)

	skipSpace := func() {
		for i < n && (s[i] == ' ' || s[i] == '\t') {
			i++
		}
	}

	// readWord scans one letter/value pair starting at i. A missing value
	// parses as 0 (a flag parameter).
	readWord := func() (byte, float64, bool) {
		letter := upper(s[i])
		i++
		start := i
		for i < n {
			ch := s[i]
			if (ch >= '0' && ch <= '9') || ch == '.' || ch == '-' || ch == '+' {
				i++
				continue
			}
			break
		}
		if start == i {
			return letter, 0, true
		}
		v, err := strconv.ParseFloat(s[start:i], 64)
		if err != nil {
			return letter, 0, false
		}
		return letter, v, true
	}

	skipSpace()
	if i >= n || s[i] == ';' {
		// Blank line or pure comment.
		cmd.TextOnly = true
		if i < n {
			cmd.Comment = s[i+1:]
		}
		return cmd
	}

	if !isLetter(s[i]) {
		cmd.TextOnly = true
		return cmd
	}

	letter, value, ok := readWord()
	if !ok || value != float64(int(value)) {
		// Unparseable command word, or a dotted command number (G92.1 and
		// friends) that we do not interpret. Pass the line through.
		cmd.TextOnly = true
		return cmd
	}

	// A leading line number (N word) is not a command; the word after it is.
	if letter == 'N' {
		skipSpace()
		if i >= n || !isLetter(s[i]) {
			cmd.TextOnly = true
			return cmd
		}
		letter, value, ok = readWord()
		if !ok || value != float64(int(value)) {
			cmd.TextOnly = true
			return cmd
		}
	}

	cmd.Letter = letter
	cmd.Number = int(value)
	cmd.Params = pool.GetParams()

	for {
		skipSpace()
		if i >= n {
			break
		}
		ch := s[i]
		if ch == ';' {
			cmd.Comment = s[i+1:]
			break
		}
		if ch == '*' {
			// Checksum word: everything after it is transport framing.
			break
		}
		if ch == '(' {
			// Parenthesised comment; scan to the closing brace.
			end := i + 1
			for end < n && s[end] != ')' {
				end++
			}
			if cmd.Comment == "" {
				cmd.Comment = s[i+1 : end]
			}
			if end < n {
				end++
			}
			i = end
			continue
		}
		if !isLetter(ch) {
			return passThrough(cmd)
		}
		p, v, ok := readWord()
		if !ok {
			return passThrough(cmd)
		}
		cmd.Params[p] = v
	}

	return cmd
}

// passThrough demotes a partially parsed command to a verbatim text line and
// releases its parameter map.
func passThrough(cmd *Command) *Command {
	cmd.TextOnly = true
	cmd.Letter = 0
	cmd.Number = 0
	cmd.Comment = ""
	Recycle(cmd)
	return cmd
}

// Recycle returns the command's parameter map to the shared pool. Callers
// must not touch Params afterwards; the welder recycles each command once its
// fate is decided.
func Recycle(cmd *Command) {
	if cmd == nil || cmd.Params == nil {
		return
	}
	pool.PutParams(cmd.Params)
	cmd.Params = nil
}

func trimEOL(line string) string {
	for len(line) > 0 {
		last := line[len(line)-1]
		if last == '\n' || last == '\r' {
			line = line[:len(line)-1]
			continue
		}
		break
	}
	return line
}

func isLetter(ch byte) bool {
	return (ch >= 'A' && ch <= 'Z') || (ch >= 'a' && ch <= 'z')
}

func upper(ch byte) byte {
	if ch >= 'a' && ch <= 'z' {
		return ch - 32
	}
	return ch
}
