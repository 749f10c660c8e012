// Package template implements the ${path} extraction templates and the
// row-alignment algorithm that turns one JSON document into zero or more
// output lines.
package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ohler55/ojg/oj"
)

// A segment is either literal text or a placeholder path expression.
// Concatenating segment outputs in order reconstructs the template.
type segment struct {
	text        string
	expr        string
	placeholder bool
}

// Template is a compiled ordered sequence of literal and placeholder
// segments. A template with zero placeholders is a constant.
type Template struct {
	raw          string
	segments     []segment
	placeholders int
}

// Compile parses a template string. Placeholders are ${expr} spans; an
// unterminated ${ is kept as literal text, an empty ${} is an error.
func Compile(raw string) (*Template, error) {
	t := &Template{raw: raw}
	rest := raw
	for {
		open := strings.Index(rest, "${")
		if open < 0 {
			break
		}
		closing := strings.Index(rest[open:], "}")
		if closing < 0 {
			break
		}
		expr := rest[open+2 : open+closing]
		if expr == "" {
			return nil, fmt.Errorf("empty placeholder in template %q", raw)
		}
		if open > 0 {
			t.segments = append(t.segments, segment{text: rest[:open]})
		}
		t.segments = append(t.segments, segment{expr: expr, placeholder: true})
		t.placeholders++
		rest = rest[open+closing+1:]
	}
	if rest != "" {
		t.segments = append(t.segments, segment{text: rest})
	}
	return t, nil
}

// Placeholders returns the number of placeholder segments.
func (t *Template) Placeholders() int {
	return t.placeholders
}

// String returns the original template text.
func (t *Template) String() string {
	return t.raw
}

// renderValue converts one matched value into its substitution text.
// Scalars render in canonical JSON form except strings, which substitute
// verbatim; composite values render as compact JSON.
func renderValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	default:
		return oj.JSON(val)
	}
}
