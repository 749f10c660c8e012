package template

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompile_CountsPlaceholders(t *testing.T) {
	t.Parallel()

	tpl, err := Compile(`a ${x} b ${y.z} c`)
	require.NoError(t, err)
	require.Equal(t, 2, tpl.Placeholders())
	require.Equal(t, `a ${x} b ${y.z} c`, tpl.String())
}

func TestCompile_EmptyPlaceholderFails(t *testing.T) {
	t.Parallel()

	_, err := Compile(`before ${} after`)
	require.ErrorContains(t, err, "empty placeholder")
}

func TestCompile_UnterminatedPlaceholderStaysLiteral(t *testing.T) {
	t.Parallel()

	tpl, err := Compile(`broken ${tail`)
	require.NoError(t, err)
	require.Zero(t, tpl.Placeholders())

	result, err := tpl.Resolve(nil, &fakeEvaluator{})
	require.NoError(t, err)
	require.Equal(t, []string{`broken ${tail`}, result.Records)
}

func TestCompile_AdjacentPlaceholders(t *testing.T) {
	t.Parallel()

	tpl, err := Compile(`${a}${b}`)
	require.NoError(t, err)
	require.Equal(t, 2, tpl.Placeholders())

	eval := &fakeEvaluator{values: map[string][]any{
		"a": {"left"},
		"b": {"right"},
	}}
	result, err := tpl.Resolve(nil, eval)
	require.NoError(t, err)
	require.Equal(t, []string{"leftright"}, result.Records)
}
