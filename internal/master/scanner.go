// Package master implements the RFC 1035 master-file tokenizer and entry
// parser: the part of reading a zone file that is specific to this format
// (comments, quoting, escapes, parenthesized continuations, directives,
// and owner/TTL/class inheritance). Turning a resolved record's RDATA
// text into typed wire data is delegated to github.com/miekg/dns.
package master

import (
	"bufio"
	"fmt"
	"io"
)

// Position locates a token within a master file for error reporting.
type Position struct {
	Line   int
	Column int
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// SyntaxError reports a malformed master-file construct at a position.
type SyntaxError struct {
	Pos Position
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Scanner splits a master file into logical entries: sequences of
// whitespace-separated words terminated by a newline at parenthesis
// nesting depth zero. It honors quoted strings, backslash escapes, and
// ';'-led comments.
type Scanner struct {
	r        *bufio.Reader
	line     int
	col      int
	lastRune rune
}

// NewScanner wraps r for master-file tokenizing.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReader(r), line: 1, col: 0}
}

func (s *Scanner) pos() Position {
	return Position{Line: s.line, Column: s.col}
}

func (s *Scanner) readRune() (rune, error) {
	c, _, err := s.r.ReadRune()
	if err != nil {
		return 0, err
	}
	s.lastRune = c
	if c == '\n' {
		s.line++
		s.col = 0
	} else {
		s.col++
	}
	return c, nil
}

func (s *Scanner) unreadRune() {
	_ = s.r.UnreadRune()
	if s.lastRune == '\n' {
		s.line--
	} else {
		s.col--
	}
}

// NextEntry reads one logical entry (up to an unparenthesized newline or
// EOF) and returns its words, already quote- and escape-resolved.
// indented reports whether the entry's first word was preceded by
// leading whitespace on its line, the cue that a record's owner field
// was omitted and should be inherited from the previous record. eof
// reports that no entry was found because the input is exhausted.
func (s *Scanner) NextEntry() (words []string, indented bool, eof bool, pos Position, err error) {
	pos = s.pos()
	parens := 0
	sawAnyByte := false
	firstWord := true

	for {
		c, rerr := s.readRune()
		if rerr != nil {
			if rerr == io.EOF {
				if !sawAnyByte {
					return nil, false, true, pos, nil
				}
				if parens > 0 {
					return nil, false, false, pos, &SyntaxError{pos, "unexpected end of file inside parenthesized group"}
				}
				return words, indented, false, pos, nil
			}
			return nil, false, false, pos, rerr
		}
		sawAnyByte = true

		switch {
		case c == ';':
			s.skipComment()
		case c == '\n':
			if parens == 0 {
				return words, indented, false, pos, nil
			}
		case c == '(':
			parens++
		case c == ')':
			parens--
			if parens < 0 {
				return nil, false, false, pos, &SyntaxError{s.pos(), "unbalanced close parenthesis"}
			}
		case c == ' ' || c == '\t' || c == '\r':
			if firstWord && len(words) == 0 {
				indented = true
			}
		case c == '"':
			word, werr := s.scanQuoted()
			if werr != nil {
				return nil, false, false, pos, werr
			}
			words = append(words, word)
			firstWord = false
		default:
			s.unreadRune()
			word, werr := s.scanWord()
			if werr != nil {
				return nil, false, false, pos, werr
			}
			words = append(words, word)
			firstWord = false
		}
	}
}

// skipComment consumes up to (but not including) the next newline, so
// the caller's main loop still sees and handles that newline itself.
func (s *Scanner) skipComment() {
	for {
		c, err := s.readRune()
		if err != nil {
			return
		}
		if c == '\n' {
			s.unreadRune()
			return
		}
	}
}

func isWordBoundary(c rune) bool {
	switch c {
	case ' ', '\t', '\r', '\n', ';', '(', ')', '"':
		return true
	}
	return false
}

func (s *Scanner) scanWord() (string, error) {
	var b []byte
	for {
		c, err := s.readRune()
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", err
		}
		if c == '\\' {
			raw, derr := s.scanEscape()
			if derr != nil {
				return "", derr
			}
			b = append(b, raw...)
			continue
		}
		if isWordBoundary(c) {
			s.unreadRune()
			break
		}
		b = append(b, byte(c))
	}
	return string(b), nil
}

func (s *Scanner) scanQuoted() (string, error) {
	var b []byte
	for {
		c, err := s.readRune()
		if err != nil {
			return "", &SyntaxError{s.pos(), "unterminated quoted string"}
		}
		if c == '"' {
			return string(b), nil
		}
		if c == '\n' {
			return "", &SyntaxError{s.pos(), "unterminated quoted string"}
		}
		if c == '\\' {
			raw, derr := s.scanEscape()
			if derr != nil {
				return "", derr
			}
			b = append(b, raw...)
			continue
		}
		b = append(b, byte(c))
	}
}

// scanEscape reads the character(s) following a backslash already
// consumed by the caller — either a 3-digit decimal byte value or a
// single literal character — and validates it, but hands back the
// original "\DDD" or "\X" text unchanged rather than decoding it. Names
// and RDATA each interpret an escape in their own way (a name's \.
// protects a label boundary; a wire type's \X is just that byte), so
// the scanner has no business collapsing it before that interpretation
// happens downstream.
func (s *Scanner) scanEscape() (string, error) {
	c, err := s.readRune()
	if err != nil {
		return "", &SyntaxError{s.pos(), "escape sequence runs past end of file"}
	}
	if c >= '0' && c <= '9' {
		digits := []rune{c}
		for i := 0; i < 2; i++ {
			d, derr := s.readRune()
			if derr != nil || d < '0' || d > '9' {
				return "", &SyntaxError{s.pos(), "incomplete \\DDD escape"}
			}
			digits = append(digits, d)
		}
		val := 0
		for _, d := range digits {
			val = val*10 + int(d-'0')
		}
		if val > 255 {
			return "", &SyntaxError{s.pos(), "\\DDD escape out of byte range"}
		}
		return "\\" + string(digits), nil
	}
	return "\\" + string(c), nil
}
