package expressions

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acso/flowcanvas/pkg/schema"
)

func TestCELEngine_GuardOverVars(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	scope := map[string]any{
		ScopeVars: map[string]any{"severity": "high"},
	}

	out, err := e.Evaluate(context.Background(), `vars.severity == "high"`, scope)
	require.NoError(t, err)
	assert.Equal(t, true, out)

	out, err = e.Evaluate(context.Background(), `vars.severity == "low"`, scope)
	require.NoError(t, err)
	assert.Equal(t, false, out)
}

func TestCELEngine_DefaultsMissingScope(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	// No scope at all: path is empty, decision defaults to false.
	out, err := e.Evaluate(context.Background(), `size(path) == 0 && decision == false`, nil)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestCELEngine_CompileError(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	err = e.Compile(`vars.severity ==`)
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))

	_, err = e.Evaluate(context.Background(), "", nil)
	require.Error(t, err)
}

func TestCELEngine_CachesPrograms(t *testing.T) {
	e, err := NewCELEngine()
	require.NoError(t, err)

	const expr = `decision == true`
	require.NoError(t, e.Compile(expr))
	e.mu.RLock()
	_, cached := e.cache[expr]
	e.mu.RUnlock()
	assert.True(t, cached)
}

func TestExprEngine_DecisionConditions(t *testing.T) {
	e := NewExprEngine()

	env := map[string]any{
		ScopeVars:   map[string]any{"count": 5},
		ScopeOutput: map[string]any{"status": 200},
	}

	out, err := e.Evaluate(context.Background(), `vars.count > 3`, env)
	require.NoError(t, err)
	assert.Equal(t, true, out)

	out, err = e.Evaluate(context.Background(), `output.status == 200`, env)
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestExprEngine_UndefinedVariablesAllowed(t *testing.T) {
	e := NewExprEngine()

	// Compiles even though nothing declares `whatever`.
	require.NoError(t, e.Compile(`whatever == nil`))

	out, err := e.Evaluate(context.Background(), `whatever == nil`, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestExprEngine_CompileError(t *testing.T) {
	e := NewExprEngine()
	err := e.Compile(`vars.count >`)
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))

	require.Error(t, e.Compile(""))
}

func TestGoJQEngine_SingleOutput(t *testing.T) {
	e := NewGoJQEngine()

	out, err := e.Evaluate(context.Background(), ".status", map[string]any{"status": 200})
	require.NoError(t, err)
	assert.Equal(t, 200, out)
}

func TestGoJQEngine_MultipleOutputs(t *testing.T) {
	e := NewGoJQEngine()

	out, err := e.Evaluate(context.Background(), ".items[]", map[string]any{
		"items": []any{"a", "b"},
	})
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b"}, out)
}

func TestGoJQEngine_MissingKeyYieldsNil(t *testing.T) {
	e := NewGoJQEngine()

	out, err := e.Evaluate(context.Background(), ".missing", map[string]any{"status": 200})
	require.NoError(t, err)
	assert.Nil(t, out)
}

func TestGoJQEngine_ParseError(t *testing.T) {
	e := NewGoJQEngine()
	_, err := e.Evaluate(context.Background(), ".[qq", map[string]any{})
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(false))
	assert.True(t, Truthy(true))
	assert.True(t, Truthy("yes"))
	assert.True(t, Truthy(0), "non-bool non-nil values pass")
}
