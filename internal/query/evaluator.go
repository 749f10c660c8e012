// Package query implements the path expression evaluator on JSONPath.
package query

import (
	"fmt"
	"sync"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
)

// Evaluator resolves JSONPath expressions against parsed documents. Parsed
// expressions are cached; templates evaluate the same handful of paths for
// every fetched document.
type Evaluator struct {
	mu    sync.Mutex
	cache map[string]jp.Expr
}

// New constructs an Evaluator.
func New() *Evaluator {
	return &Evaluator{cache: make(map[string]jp.Expr)}
}

// Evaluate returns the values matched by expr in document order. An
// expression that matches nothing returns an empty slice.
func (e *Evaluator) Evaluate(doc any, expr string) ([]any, error) {
	x, err := e.parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse path %q: %w", expr, err)
	}
	return x.Get(doc), nil
}

func (e *Evaluator) parse(expr string) (jp.Expr, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if x, ok := e.cache[expr]; ok {
		return x, nil
	}
	x, err := jp.ParseString(expr)
	if err != nil {
		return nil, err
	}
	e.cache[expr] = x
	return x, nil
}

// ParseDocument parses a JSON response body into the generic document form
// the evaluator walks.
func ParseDocument(body []byte) (any, error) {
	doc, err := oj.Parse(body)
	if err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return doc, nil
}
