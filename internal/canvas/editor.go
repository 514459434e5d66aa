package canvas

import (
	"github.com/acso/flowcanvas/internal/graph"
	"github.com/acso/flowcanvas/pkg/schema"
)

// Editor is the node properties form. It edits a local copy of the node so
// partial edits are invisible to the shared model until an explicit Save;
// Cancel discards the draft without touching the model.
type Editor struct {
	model *graph.Model
	draft *schema.Node
}

// NewEditor creates an editor with no open draft.
func NewEditor(model *graph.Model) *Editor {
	return &Editor{model: model}
}

// Open loads a node into a fresh draft, replacing any previous draft.
func (e *Editor) Open(nodeID string) error {
	n, ok := e.model.GetNode(nodeID)
	if !ok {
		return schema.NewErrorf(schema.ErrCodeNotFound, "node %s does not exist", nodeID)
	}
	e.draft = n
	return nil
}

// Editing reports whether a draft is open.
func (e *Editor) Editing() bool {
	return e.draft != nil
}

// Draft returns the draft node, or nil when no draft is open. The returned
// node is the editor's working copy; mutate it through the setters.
func (e *Editor) Draft() *schema.Node {
	return e.draft
}

// SetLabel updates the draft label.
func (e *Editor) SetLabel(label string) {
	if e.draft != nil {
		e.draft.Label = label
	}
}

// SetDescription updates the draft description.
func (e *Editor) SetDescription(desc string) {
	if e.draft != nil {
		e.draft.Description = desc
	}
}

// SetConfig replaces the draft's typed configuration. Rejected for node
// types that carry no type-specific form (start, end, merge, parallel).
func (e *Editor) SetConfig(cfg any) error {
	if e.draft == nil {
		return schema.NewError(schema.ErrCodeConflict, "no draft open")
	}
	if !schema.Configurable(e.draft.Type) {
		return schema.NewErrorf(schema.ErrCodeValidation, "%s nodes have no type-specific config", e.draft.Type).WithNode(e.draft.ID)
	}
	raw, err := schema.EncodeConfig(cfg)
	if err != nil {
		return err
	}
	e.draft.Config = raw
	return nil
}

// Save merges the draft back into the model and closes it. The node's type
// is never part of the merge. Saving a draft whose node was deleted
// meanwhile is a silent no-op, matching UpdateNode semantics.
func (e *Editor) Save() {
	if e.draft == nil {
		return
	}
	e.model.UpdateNode(e.draft.ID, graph.NodeUpdate{
		Label:       &e.draft.Label,
		Description: &e.draft.Description,
		Config:      e.draft.Config,
	})
	e.draft = nil
}

// Cancel discards the draft. No model mutation.
func (e *Editor) Cancel() {
	e.draft = nil
}
