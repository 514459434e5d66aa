// Package validation computes on-demand graph diagnostics. Results never
// block editing, and simulation is deliberately not gated on a clean result:
// analysts test partially-wired flows, and the simulator surfaces stalls on
// its own.
package validation

import (
	"github.com/go-playground/validator/v10"

	"github.com/acso/flowcanvas/internal/expressions"
	"github.com/acso/flowcanvas/pkg/schema"
)

// GraphValidator orchestrates the three-stage validation pipeline:
// 1. Structural (shape of the graph document)
// 2. Semantic (start/end presence, endpoint refs, typed configs, guards)
// 3. Connectivity (reachability, intermediate-node degrees, cycles)
type GraphValidator struct {
	configs *validator.Validate
	cel     *expressions.CELEngine
	expr    *expressions.ExprEngine
}

// NewGraphValidator creates a GraphValidator with its own config-tag
// validator and expression compilers.
func NewGraphValidator() (*GraphValidator, error) {
	cel, err := expressions.NewCELEngine()
	if err != nil {
		return nil, err
	}
	return &GraphValidator{
		configs: validator.New(validator.WithRequiredStructEnabled()),
		cel:     cel,
		expr:    expressions.NewExprEngine(),
	}, nil
}

// Validate runs the full pipeline and returns an aggregated result.
// Structural errors short-circuit: semantic and connectivity are skipped.
// Semantic errors skip connectivity, since degree analysis over a graph
// with dangling references is meaningless.
func (gv *GraphValidator) Validate(g *schema.Graph) *schema.ValidationResult {
	if g == nil {
		r := &schema.ValidationResult{}
		r.AddError("/", schema.ErrCodeValidation, "graph is nil")
		return r
	}

	result := validateStructural(g)
	if !result.Valid() {
		return result
	}

	result.Merge(gv.validateSemantic(g))

	if result.Valid() {
		result.Merge(validateConnectivity(g))
	}

	return result
}

// Annotate runs Validate and additionally distributes node-scoped issues
// onto per-node validation verdicts, returning them keyed by node id for
// the canvas to render badges from.
func (gv *GraphValidator) Annotate(g *schema.Graph) (map[string]*schema.NodeValidation, *schema.ValidationResult) {
	result := gv.Validate(g)
	verdicts := make(map[string]*schema.NodeValidation, len(g.Nodes))
	for id := range g.Nodes {
		verdicts[id] = &schema.NodeValidation{Valid: true}
	}
	for _, issue := range result.Errors {
		if v, ok := verdicts[issue.Path]; ok {
			v.Valid = false
			v.Errors = append(v.Errors, issue.Message)
		}
	}
	return verdicts, result
}

// validateStructural checks the document shape: ids present and consistent
// with their map keys, recognized node types, port lists matching type.
func validateStructural(g *schema.Graph) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	if g.ID == "" {
		result.AddError("/id", schema.ErrCodeValidation, "graph has no id")
	}
	for key, n := range g.Nodes {
		if n == nil || n.ID == "" {
			result.AddError(key, schema.ErrCodeValidation, "node has no id")
			continue
		}
		if n.ID != key {
			result.AddError(key, schema.ErrCodeValidation, "node id does not match its key")
		}
		if !n.Type.Valid() {
			result.AddError(n.ID, schema.ErrCodeValidation, "unknown node type "+string(n.Type))
		}
	}
	for key, c := range g.Connections {
		if c == nil || c.ID == "" {
			result.AddError(key, schema.ErrCodeValidation, "connection has no id")
			continue
		}
		if c.ID != key {
			result.AddError(key, schema.ErrCodeValidation, "connection id does not match its key")
		}
	}
	return result
}
