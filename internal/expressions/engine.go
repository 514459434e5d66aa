// Package expressions evaluates the guard and branching expressions carried
// by graphs: connection conditions (CEL), decision-node conditions (expr)
// and simulated-response extraction (jq).
package expressions

import "context"

// Engine evaluates an expression against a scope of named variables.
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, expression string, data map[string]any) (any, error)
}

// Scope variable names exposed to guard conditions during simulation.
const (
	ScopeVars     = "vars"     // graph variables map
	ScopeNode     = "node"     // current node metadata (id, type, label)
	ScopePath     = "path"     // visited node ids so far
	ScopeOutput   = "output"   // previous node's simulated output
	ScopeDecision = "decision" // most recent decision-node result
)

// scopeKeys lists every variable the CEL environment declares.
var scopeKeys = []string{ScopeVars, ScopeNode, ScopePath, ScopeOutput, ScopeDecision}

// Truthy folds an evaluation result to a boolean the way the simulator
// interprets guards: nil and false fail, everything else passes.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	default:
		return true
	}
}
