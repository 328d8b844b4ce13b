package gcode

import (
	"strconv"
	"strings"
)

// Kind is the closed set of line variants the rewriter distinguishes.
type Kind int

const (
	KindOther       Kind = iota // Any other command (M-codes, G28, T0, ...)
	KindComment                 // Blank line or ";..." comment
	KindTravel                  // G0: positioning move
	KindLinear                  // G1: controlled linear move
	KindArc                     // G2/G3: arc move
	KindSetPosition             // G92: set position register
)

func (k Kind) String() string {
	switch k {
	case KindComment:
		return "Comment"
	case KindTravel:
		return "Travel"
	case KindLinear:
		return "Linear"
	case KindArc:
		return "Arc"
	case KindSetPosition:
		return "SetPosition"
	default:
		return "Other"
	}
}

type param struct {
	letter byte
	value  string
}

// Line is a single tokenized line of gcode.
type Line struct {
	Raw     string
	Kind    Kind
	Command string // normalized command word, e.g. "G1" or "M104"; empty for comments
	Comment string // text after ';', without the ';'
	params  []param
}

// Tokenize classifies a raw line and splits its command part into parameters.
// Everything after the first ';' is comment text and never yields parameters.
func Tokenize(raw string) Line {
	l := Line{Raw: raw}
	code := raw
	if idx := strings.IndexByte(raw, ';'); idx >= 0 {
		l.Comment = raw[idx+1:]
		code = raw[:idx]
	}
	fields := strings.Fields(code)
	if len(fields) == 0 {
		l.Kind = KindComment
		return l
	}

	l.Command = normalizeCommand(fields[0])
	switch l.Command {
	case "G0":
		l.Kind = KindTravel
	case "G1":
		l.Kind = KindLinear
	case "G2", "G3":
		l.Kind = KindArc
	case "G92":
		l.Kind = KindSetPosition
	default:
		l.Kind = KindOther
	}

	for _, f := range fields[1:] {
		l.params = append(l.params, param{letter: upper(f[0]), value: f[1:]})
	}
	return l
}

// normalizeCommand upper-cases a command word and strips leading zeros from
// its number so that "g01" and "G1" compare equal.
func normalizeCommand(word string) string {
	if len(word) < 2 {
		return strings.ToUpper(word)
	}
	num := strings.TrimLeft(word[1:], "0")
	if num == "" {
		num = "0"
	}
	return string(upper(word[0])) + num
}

func upper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

// IsMotion reports whether the line is a G0, G1, G2 or G3 move.
func (l Line) IsMotion() bool {
	return l.Kind == KindTravel || l.Kind == KindLinear || l.Kind == KindArc
}

// Has reports whether the line carries a parameter for the given letter.
func (l Line) Has(letter byte) bool {
	letter = upper(letter)
	for _, p := range l.params {
		if p.letter == letter {
			return true
		}
	}
	return false
}

// Value returns the numeric value of the given parameter.
func (l Line) Value(letter byte) (float64, bool) {
	letter = upper(letter)
	for _, p := range l.params {
		if p.letter == letter {
			return parseNumber(p.value)
		}
	}
	return 0, false
}

// parseNumber parses an optionally signed, optionally fractional decimal
// prefix of s. Trailing garbage after the numeric run is ignored.
func parseNumber(s string) (float64, bool) {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0, false
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s[:i], "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Uncomment returns the move hidden behind a leading ';' when the line is a
// commented-out G0-G3 command, and the line unchanged otherwise.
func Uncomment(raw string) string {
	trimmed := strings.TrimLeft(raw, " \t")
	if len(trimmed) >= 3 && trimmed[0] == ';' && upper(trimmed[1]) == 'G' {
		switch trimmed[2] {
		case '0', '1', '2', '3':
			if len(trimmed) == 3 || trimmed[3] == ' ' || trimmed[3] == '\t' {
				return trimmed[1:]
			}
		}
	}
	return raw
}

// CommentOut disables a motion line by prefixing it with ';'. Other lines
// are returned unchanged.
func CommentOut(raw string) string {
	if Tokenize(raw).IsMotion() {
		return ";" + raw
	}
	return raw
}
