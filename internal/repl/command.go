package repl

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// Verbs understood by the loop.
const (
	VerbSetCPS = "setcps"
	VerbPlay   = "play"
	VerbStop   = "stop"
	VerbQuit   = "quit"
)

// Command is one parsed input line.
type Command struct {
	Verb   string
	Arg    string
	HasArg bool
}

// Parse splits a line into a lower-cased verb and the remainder after the
// first run of whitespace. Blank lines report false.
func Parse(line string) (Command, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, false
	}

	idx := strings.IndexFunc(line, unicode.IsSpace)
	if idx < 0 {
		return Command{Verb: strings.ToLower(line)}, true
	}

	arg := strings.TrimLeftFunc(line[idx:], unicode.IsSpace)
	return Command{
		Verb:   strings.ToLower(line[:idx]),
		Arg:    arg,
		HasArg: arg != "",
	}, true
}

// IsQuit reports whether the whole line is the quit command.
func IsQuit(line string) bool {
	return strings.EqualFold(strings.TrimSpace(line), VerbQuit)
}

// ParseFloat parses the longest numeric prefix of s. Input without one
// yields 0. Underscores are accepted between digits.
func ParseFloat(s string) float64 {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	var b strings.Builder
	i := 0

	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		b.WriteByte(s[i])
		i++
	}

	intDigits := scanDigits(s, &i, &b)

	// Fraction needs at least one digit after the point.
	hasFrac := i+1 < len(s) && s[i] == '.' && isDigit(s[i+1])
	if intDigits == 0 && !hasFrac {
		return 0
	}
	if hasFrac {
		if intDigits == 0 {
			b.WriteByte('0')
		}
		b.WriteByte('.')
		i++
		scanDigits(s, &i, &b)
	}

	// Exponent is only taken when complete.
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		j := i + 1
		var exp strings.Builder
		exp.WriteByte('e')
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			exp.WriteByte(s[j])
			j++
		}
		if scanDigits(s, &j, &exp) > 0 {
			b.WriteString(exp.String())
		}
	}

	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0
	}
	// Out of range values come back as ±Inf.
	return v
}

// scanDigits copies digits starting at s[*i] into b, skipping single
// underscores that sit between two digits, and returns the digit count.
func scanDigits(s string, i *int, b *strings.Builder) int {
	n := 0
	for *i < len(s) {
		c := s[*i]
		switch {
		case isDigit(c):
			b.WriteByte(c)
			n++
			*i++
		case c == '_' && n > 0 && *i+1 < len(s) && isDigit(s[*i+1]):
			*i++
		default:
			return n
		}
	}
	return n
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
