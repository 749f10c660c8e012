package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEvaluate_WildcardReturnsDocumentOrder(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`{"items":[{"id":1,"name":"Item 1"},{"id":2,"name":"Item 2"}]}`))
	require.NoError(t, err)

	e := New()
	ids, err := e.Evaluate(doc, "items[*].id")
	require.NoError(t, err)
	require.Equal(t, []any{int64(1), int64(2)}, ids)

	names, err := e.Evaluate(doc, "items[*].name")
	require.NoError(t, err)
	require.Equal(t, []any{"Item 1", "Item 2"}, names)
}

func TestEvaluate_SingleMatch(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`{"data":{"nextPage":"https://x/2"}}`))
	require.NoError(t, err)

	values, err := New().Evaluate(doc, "data.nextPage")
	require.NoError(t, err)
	require.Equal(t, []any{"https://x/2"}, values)
}

func TestEvaluate_NoMatchIsEmptyNotError(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`{"a":1}`))
	require.NoError(t, err)

	values, err := New().Evaluate(doc, "missing.path")
	require.NoError(t, err)
	require.Empty(t, values)
}

func TestEvaluate_BadExpressionFails(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`{"a":1}`))
	require.NoError(t, err)

	_, err = New().Evaluate(doc, "items[")
	require.Error(t, err)
}

func TestEvaluate_CacheServesRepeatedExpressions(t *testing.T) {
	t.Parallel()

	doc, err := ParseDocument([]byte(`{"n":5}`))
	require.NoError(t, err)

	e := New()
	for i := 0; i < 3; i++ {
		values, err := e.Evaluate(doc, "n")
		require.NoError(t, err)
		require.Equal(t, []any{int64(5)}, values)
	}
}

func TestParseDocument_RejectsNonJSON(t *testing.T) {
	t.Parallel()

	_, err := ParseDocument([]byte(`<html>not json</html>`))
	require.Error(t, err)
}
