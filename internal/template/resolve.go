package template

import (
	"fmt"
	"strings"

	"github.com/jsonharvest/crawler/internal/crawler"
)

// Result is the outcome of resolving one template against one document.
// PartialRows counts rows where a multi-valued placeholder ran short of the
// row count and the empty string was substituted; callers should surface
// that as a warning, not a failure.
type Result struct {
	Records     []string
	PartialRows int
}

// Resolve evaluates every placeholder against doc and zips the matches into
// output rows.
//
// Each placeholder's matches are classified as broadcast (at most one value)
// or multi (more than one). The row count is the longest multi length, or 1
// when every placeholder broadcasts. Row i substitutes a multi placeholder's
// i-th value and a broadcast placeholder's single value into every row;
// positional zipping, never a cross product, so several placeholders pulled
// off the same parent array stay correlated. A multi placeholder shorter
// than the row count pads with the empty string, as does a broadcast
// placeholder that matched nothing.
//
// When the template has placeholders and none of them matched anything the
// document yields no rows at all, rather than one all-blank row.
func (t *Template) Resolve(doc any, eval crawler.Evaluator) (Result, error) {
	if t.placeholders == 0 {
		return Result{Records: []string{t.raw}}, nil
	}

	matches := make([][]any, 0, t.placeholders)
	anyMatched := false
	for _, seg := range t.segments {
		if !seg.placeholder {
			continue
		}
		values, err := eval.Evaluate(doc, seg.expr)
		if err != nil {
			return Result{}, fmt.Errorf("evaluate %q: %w", seg.expr, err)
		}
		if len(values) > 0 {
			anyMatched = true
		}
		matches = append(matches, values)
	}
	if !anyMatched {
		return Result{}, nil
	}

	rowCount := 1
	for _, values := range matches {
		if len(values) > rowCount {
			rowCount = len(values)
		}
	}

	result := Result{Records: make([]string, 0, rowCount)}
	for row := 0; row < rowCount; row++ {
		var b strings.Builder
		partial := false
		next := 0
		for _, seg := range t.segments {
			if !seg.placeholder {
				b.WriteString(seg.text)
				continue
			}
			values := matches[next]
			next++
			switch {
			case len(values) > 1:
				if row < len(values) {
					b.WriteString(renderValue(values[row]))
				} else {
					partial = true
				}
			case len(values) == 1:
				b.WriteString(renderValue(values[0]))
			default:
				// matched nothing; substitute empty
			}
		}
		if partial {
			result.PartialRows++
		}
		result.Records = append(result.Records, b.String())
	}
	return result, nil
}
