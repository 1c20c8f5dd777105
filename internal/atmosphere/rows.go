package atmosphere

import (
	"fmt"
	"strconv"
	"strings"
)

// Columns is the number of numeric columns in every profile row: altitude
// followed by the dependent value.
const Columns = 2

// RowError describes a profile text block that could not be parsed.
type RowError struct {
	Line   int    // 1-based line in the text block
	Row    int    // 1-based index of the row being parsed
	Token  string // offending token, if any
	Reason string
}

func (e *RowError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("line %d, row %d: %s: %q", e.Line, e.Row, e.Reason, e.Token)
	}
	return fmt.Sprintf("line %d, row %d: %s", e.Line, e.Row, e.Reason)
}

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokOpen
	tokClose
	tokNewline
)

type token struct {
	kind tokenKind
	text string
	line int
}

func isSeparator(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == ','
}

func isDelimiter(c byte) bool {
	return isSeparator(c) || c == '[' || c == ']' || c == '\n'
}

// tokenize splits a profile text block into brackets, newlines and numeric
// words. Spaces, tabs, carriage returns and commas only separate words.
func tokenize(s string) []token {
	var toks []token
	line := 1
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '[':
			toks = append(toks, token{kind: tokOpen, text: "[", line: line})
			i++
		case c == ']':
			toks = append(toks, token{kind: tokClose, text: "]", line: line})
			i++
		case c == '\n':
			toks = append(toks, token{kind: tokNewline, line: line})
			line++
			i++
		case isSeparator(c):
			i++
		default:
			j := i
			for j < len(s) && !isDelimiter(s[j]) {
				j++
			}
			toks = append(toks, token{kind: tokNumber, text: s[i:j], line: line})
			i = j
		}
	}
	return toks
}

// ParseRows parses a profile text block into samples.
//
// A row is a run of numbers terminated by a closing bracket, an opening
// bracket, or (outside brackets) a newline or the end of the text. This
// accepts "[0 101325][1000 89875]", one row per line with or without
// brackets, and NumPy's nested "[[0 101325]\n [1000 89875]]" rendering.
// Every row must have exactly Columns numbers.
func ParseRows(text string) ([]Sample, error) {
	var (
		samples []Sample
		row     []float64
		rowLine int
		depth   int
	)

	flush := func() error {
		if len(row) == 0 {
			return nil
		}
		if len(row) != Columns {
			return &RowError{
				Line:   rowLine,
				Row:    len(samples) + 1,
				Reason: fmt.Sprintf("expected %d columns, got %d", Columns, len(row)),
			}
		}
		samples = append(samples, Sample{Altitude: row[0], Value: row[1]})
		row = row[:0]
		return nil
	}

	for _, tok := range tokenize(text) {
		switch tok.kind {
		case tokOpen:
			if err := flush(); err != nil {
				return nil, err
			}
			depth++
		case tokClose:
			if depth == 0 {
				return nil, &RowError{Line: tok.line, Row: len(samples) + 1, Token: tok.text, Reason: "unbalanced bracket"}
			}
			if err := flush(); err != nil {
				return nil, err
			}
			depth--
		case tokNewline:
			if depth == 0 {
				if err := flush(); err != nil {
					return nil, err
				}
			}
		case tokNumber:
			v, err := strconv.ParseFloat(tok.text, 64)
			if err != nil || !finite(v) {
				return nil, &RowError{Line: tok.line, Row: len(samples) + 1, Token: tok.text, Reason: "invalid number"}
			}
			if len(row) == 0 {
				rowLine = tok.line
			}
			row = append(row, v)
		}
	}

	if depth != 0 {
		return nil, &RowError{Line: strings.Count(text, "\n") + 1, Row: len(samples) + 1, Token: "[", Reason: "unbalanced bracket"}
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, ErrEmptyProfile
	}
	return samples, nil
}

// ParseProfile parses a text block and builds a validated Profile from it.
func ParseProfile(text string) (Profile, error) {
	samples, err := ParseRows(text)
	if err != nil {
		return Profile{}, err
	}
	return NewProfile(samples)
}

// FormatRows renders a profile as one bracketed row per line. Numbers use the
// shortest representation that parses back to the same float64.
func FormatRows(p Profile) string {
	var b strings.Builder
	for i, s := range p.samples {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteByte('[')
		b.WriteString(strconv.FormatFloat(s.Altitude, 'g', -1, 64))
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(s.Value, 'g', -1, 64))
		b.WriteByte(']')
	}
	return b.String()
}
