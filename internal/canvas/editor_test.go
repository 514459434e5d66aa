package canvas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acso/flowcanvas/internal/graph"
	"github.com/acso/flowcanvas/pkg/schema"
)

func TestEditor_OpenUnknownNode(t *testing.T) {
	m := graph.NewModel("editor test", nil)
	e := NewEditor(m)

	err := e.Open("ghost")
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeNotFound, schema.CodeOf(err))
	assert.False(t, e.Editing())
}

func TestEditor_DraftIsolatedUntilSave(t *testing.T) {
	m := graph.NewModel("editor test", nil)
	n := m.AddNode(schema.NodeTypeTask)
	e := NewEditor(m)

	require.NoError(t, e.Open(n.ID))
	e.SetLabel("Rotate credentials")
	e.SetDescription("runs the rotation playbook")

	got, _ := m.GetNode(n.ID)
	assert.Equal(t, "Task", got.Label, "model untouched while draft is open")

	e.Save()
	assert.False(t, e.Editing())

	got, _ = m.GetNode(n.ID)
	assert.Equal(t, "Rotate credentials", got.Label)
	assert.Equal(t, "runs the rotation playbook", got.Description)
}

func TestEditor_CancelDiscards(t *testing.T) {
	m := graph.NewModel("editor test", nil)
	n := m.AddNode(schema.NodeTypeTask)
	e := NewEditor(m)

	require.NoError(t, e.Open(n.ID))
	e.SetLabel("discarded")
	e.Cancel()

	assert.False(t, e.Editing())
	got, _ := m.GetNode(n.ID)
	assert.Equal(t, "Task", got.Label)
}

func TestEditor_SetConfigTyped(t *testing.T) {
	m := graph.NewModel("editor test", nil)
	n := m.AddNode(schema.NodeTypeDecision)
	e := NewEditor(m)

	require.NoError(t, e.Open(n.ID))
	require.NoError(t, e.SetConfig(&schema.DecisionConfig{Condition: `vars.severity == "high"`}))
	e.Save()

	got, _ := m.GetNode(n.ID)
	cfg, err := schema.DecodeConfig(schema.NodeTypeDecision, got.Config)
	require.NoError(t, err)
	assert.Equal(t, `vars.severity == "high"`, cfg.(*schema.DecisionConfig).Condition)
}

func TestEditor_SetConfigRejectedForPlainTypes(t *testing.T) {
	m := graph.NewModel("editor test", nil)
	n := m.AddNode(schema.NodeTypeMerge)
	e := NewEditor(m)

	require.NoError(t, e.Open(n.ID))
	err := e.SetConfig(map[string]any{"anything": true})
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeValidation, schema.CodeOf(err))
}

func TestEditor_SaveAfterNodeDeleted(t *testing.T) {
	m := graph.NewModel("editor test", nil)
	n := m.AddNode(schema.NodeTypeTask)
	e := NewEditor(m)

	require.NoError(t, e.Open(n.ID))
	e.SetLabel("late edit")
	m.DeleteNode(n.ID)

	e.Save() // silent no-op
	assert.Equal(t, 0, m.NodeCount())
	assert.False(t, e.Editing())
}

func TestEditor_ReopenReplacesDraft(t *testing.T) {
	m := graph.NewModel("editor test", nil)
	a := m.AddNode(schema.NodeTypeTask)
	b := m.AddNode(schema.NodeTypeDelay)
	e := NewEditor(m)

	require.NoError(t, e.Open(a.ID))
	e.SetLabel("abandoned")
	require.NoError(t, e.Open(b.ID))

	assert.Equal(t, b.ID, e.Draft().ID)
	e.Save()

	got, _ := m.GetNode(a.ID)
	assert.Equal(t, "Task", got.Label, "abandoned draft never reached the model")
}
