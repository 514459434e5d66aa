package validation

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/acso/flowcanvas/pkg/schema"
)

// validateSemantic checks meaning: exactly one start node, at least one end
// node, connection endpoints and ports resolve, typed configs decode and
// pass their tag constraints, and guard expressions compile.
func (gv *GraphValidator) validateSemantic(g *schema.Graph) *schema.ValidationResult {
	result := &schema.ValidationResult{}

	starts := g.StartNodes()
	switch {
	case len(starts) == 0:
		result.AddError("/nodes", schema.ErrCodeValidation, "graph has no start node")
	case len(starts) > 1:
		result.AddError("/nodes", schema.ErrCodeValidation,
			fmt.Sprintf("graph has %d start nodes, expected exactly one", len(starts)))
	}

	ends := 0
	for _, n := range g.Nodes {
		if n.Type == schema.NodeTypeEnd {
			ends++
		}
	}
	if ends == 0 {
		result.AddError("/nodes", schema.ErrCodeValidation, "graph has no end node")
	}

	for _, n := range g.Nodes {
		gv.validateNodeConfig(n, result)
	}

	for _, c := range g.Connections {
		gv.validateConnection(g, c, result)
	}

	return result
}

// validateNodeConfig decodes the typed config variant and applies its
// validate tags. Decision conditions additionally must compile as expr.
func (gv *GraphValidator) validateNodeConfig(n *schema.Node, result *schema.ValidationResult) {
	cfg, err := schema.DecodeConfig(n.Type, n.Config)
	if err != nil {
		result.AddError(n.ID, schema.ErrCodeValidation, err.Error())
		return
	}
	if cfg == nil {
		return
	}

	if err := gv.configs.Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range verrs {
				result.AddError(n.ID, schema.ErrCodeValidation,
					fmt.Sprintf("%s config field %s fails %q", n.Type, fe.Field(), fe.Tag()))
			}
		} else {
			result.AddError(n.ID, schema.ErrCodeValidation, err.Error())
		}
		return
	}

	if dc, ok := cfg.(*schema.DecisionConfig); ok {
		if err := gv.expr.Compile(dc.Condition); err != nil {
			result.AddError(n.ID, schema.ErrCodeValidation,
				fmt.Sprintf("decision condition does not compile: %s", reason(err)))
		}
	}
}

// validateConnection checks endpoint references, port names, self-loops and
// guard compilability. The model rejects most of these at creation; imported
// documents bypass the model, so they are re-checked here.
func (gv *GraphValidator) validateConnection(g *schema.Graph, c *schema.Connection, result *schema.ValidationResult) {
	src, srcOK := g.Nodes[c.Source]
	if !srcOK {
		result.AddError(c.ID, schema.ErrCodeInvalidConnection,
			fmt.Sprintf("connection references missing source node %s", c.Source))
	}
	dst, dstOK := g.Nodes[c.Target]
	if !dstOK {
		result.AddError(c.ID, schema.ErrCodeInvalidConnection,
			fmt.Sprintf("connection references missing target node %s", c.Target))
	}
	if c.Source == c.Target && c.Source != "" {
		result.AddError(c.ID, schema.ErrCodeInvalidConnection, "connection is a self-loop")
	}
	if srcOK && !src.HasOutputPort(c.SourcePort) {
		result.AddError(c.ID, schema.ErrCodeInvalidConnection,
			fmt.Sprintf("source node %s has no output port %q", c.Source, c.SourcePort))
	}
	if dstOK && !dst.HasInputPort(c.TargetPort) {
		result.AddError(c.ID, schema.ErrCodeInvalidConnection,
			fmt.Sprintf("target node %s has no input port %q", c.Target, c.TargetPort))
	}

	if c.Condition != "" {
		if err := gv.cel.Compile(c.Condition); err != nil {
			result.AddError(c.ID, schema.ErrCodeValidation,
				fmt.Sprintf("guard condition does not compile: %s", reason(err)))
		}
	}
}

func reason(err error) string {
	if de, ok := err.(*schema.DesignError); ok {
		return de.Message
	}
	return err.Error()
}
