package interpreter

import (
	"context"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pkg/errors"

	"falcon/interpreter-go/pkg/eval"
)

const (
	snippetNewline = "endl"
	snippetSpace   = "ws"
)

// Resolve expands the inline constructs of text:
//
//	\c         the character c, verbatim
//	$name      the value of name; the name runs to the next whitespace
//	!expr!     the value of the arithmetic expression
//	;line;     the output of line run as a statement; ;endl; and ;ws; give "\n" and " "
//
// Everything else is copied unchanged.
func (i *Interpreter) Resolve(ctx context.Context, text string) (string, error) {
	var out strings.Builder
	out.Grow(len(text))
	escaped := false
	for pos := 0; pos < len(text); {
		r, size := utf8.DecodeRuneInString(text[pos:])
		if escaped {
			out.WriteString(text[pos : pos+size])
			escaped = false
			pos += size
			continue
		}
		switch r {
		case '\\':
			escaped = true
			pos += size
		case '$':
			end := nameEnd(text, pos+size)
			value, err := i.vars.Get(text[pos+size : end])
			if err != nil {
				return "", errors.Wrapf(err, "failed to read variable %q", text[pos+size:end])
			}
			out.WriteString(value)
			pos = end
		case '!':
			body, next, err := enclosed(text, pos, '!')
			if err != nil {
				return "", err
			}
			n, err := eval.Evaluate(body, i.vars)
			if err != nil {
				return "", err
			}
			out.WriteString(n.String())
			pos = next
		case ';':
			body, next, err := enclosed(text, pos, ';')
			if err != nil {
				return "", err
			}
			s, err := i.snippet(ctx, body)
			if err != nil {
				return "", err
			}
			out.WriteString(s)
			pos = next
		default:
			out.WriteString(text[pos : pos+size])
			pos += size
		}
	}
	return out.String(), nil
}

// nameEnd returns the offset of the first whitespace at or after start.
func nameEnd(text string, start int) int {
	if idx := strings.IndexFunc(text[start:], unicode.IsSpace); idx >= 0 {
		return start + idx
	}
	return len(text)
}

// enclosed returns the text between the delimiter at open and its closing partner,
// and the offset just past the closing delimiter.
func enclosed(text string, open int, delim byte) (string, int, error) {
	closing := strings.IndexByte(text[open+1:], delim)
	if closing < 0 {
		return "", 0, UnterminatedDelimiter.Errorf("unterminated %q opened at offset %d", delim, open)
	}
	closing += open + 1
	return text[open+1 : closing], closing + 1, nil
}

// snippet runs body as a statement and returns its textual output; void results
// contribute nothing.
func (i *Interpreter) snippet(ctx context.Context, body string) (string, error) {
	switch body {
	case snippetNewline:
		return "\n", nil
	case snippetSpace:
		return " ", nil
	}
	res, err := i.ExecLine(ctx, body)
	if err != nil {
		if IsCommandNotFound(err) {
			return fmt.Sprintf("Error: %v", err), nil
		}
		return "", err
	}
	s, _ := res.Value()
	return s, nil
}
