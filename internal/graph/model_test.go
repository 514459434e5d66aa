package graph

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/acso/flowcanvas/pkg/schema"
)

func newTestModel(t *testing.T) *Model {
	t.Helper()
	return NewModel("test graph", nil)
}

func TestAddNode_Defaults(t *testing.T) {
	m := newTestModel(t)

	n := m.AddNode(schema.NodeTypeTask)
	require.NotEmpty(t, n.ID)
	assert.Equal(t, schema.NodeTypeTask, n.Type)
	assert.Equal(t, "Task", n.Label)
	assert.Len(t, n.Inputs, 1)
	assert.Len(t, n.Outputs, 1)
	assert.Equal(t, 1, m.NodeCount())
}

func TestAddNode_StartHasNoInputs(t *testing.T) {
	m := newTestModel(t)

	start := m.AddNode(schema.NodeTypeStart)
	assert.Empty(t, start.Inputs)
	assert.Len(t, start.Outputs, 1)

	end := m.AddNode(schema.NodeTypeEnd)
	assert.Len(t, end.Inputs, 1)
	assert.Empty(t, end.Outputs)
}

func TestUpdateNode_PartialMerge(t *testing.T) {
	m := newTestModel(t)
	n := m.AddNode(schema.NodeTypeTask)

	label := "Run backup"
	m.UpdateNode(n.ID, NodeUpdate{Label: &label})

	got, ok := m.GetNode(n.ID)
	require.True(t, ok)
	assert.Equal(t, "Run backup", got.Label)
	assert.Equal(t, schema.NodeTypeTask, got.Type, "type is immutable")
	assert.Empty(t, got.Description, "untouched fields stay")
}

func TestUpdateNode_AbsentIsNoop(t *testing.T) {
	m := newTestModel(t)
	label := "ghost"
	m.UpdateNode("missing", NodeUpdate{Label: &label})
	assert.Equal(t, 0, m.NodeCount())
}

func TestUpdateNode_PositionWrite(t *testing.T) {
	m := newTestModel(t)
	n := m.AddNode(schema.NodeTypeTask)

	pos := schema.Position{X: 120, Y: 80}
	m.UpdateNode(n.ID, NodeUpdate{Position: &pos})
	// Writing the same position again is harmless.
	m.UpdateNode(n.ID, NodeUpdate{Position: &pos})

	got, _ := m.GetNode(n.ID)
	assert.Equal(t, pos, got.Position)
}

func TestDeleteNode_CascadesConnections(t *testing.T) {
	m := newTestModel(t)
	a := m.AddNode(schema.NodeTypeStart)
	b := m.AddNode(schema.NodeTypeTask)
	c := m.AddNode(schema.NodeTypeEnd)

	_, err := m.AddConnection(a.ID, "", b.ID, "")
	require.NoError(t, err)
	_, err = m.AddConnection(b.ID, "", c.ID, "")
	require.NoError(t, err)
	require.Equal(t, 2, m.ConnectionCount())

	m.DeleteNode(b.ID)

	assert.Equal(t, 2, m.NodeCount())
	assert.Equal(t, 0, m.ConnectionCount(), "both attached connections removed")
}

func TestAddConnection_RejectsSelfLoop(t *testing.T) {
	m := newTestModel(t)
	n := m.AddNode(schema.NodeTypeTask)
	before := m.ConnectionCount()

	_, err := m.AddConnection(n.ID, "", n.ID, "")
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeInvalidConnection, schema.CodeOf(err))
	assert.Equal(t, before, m.ConnectionCount(), "graph unchanged after rejection")
}

func TestAddConnection_RejectsMissingEndpoints(t *testing.T) {
	m := newTestModel(t)
	n := m.AddNode(schema.NodeTypeTask)

	_, err := m.AddConnection(n.ID, "", "ghost", "")
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeInvalidConnection, schema.CodeOf(err))

	_, err = m.AddConnection("ghost", "", n.ID, "")
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeInvalidConnection, schema.CodeOf(err))
}

func TestAddConnection_RejectsBadPorts(t *testing.T) {
	m := newTestModel(t)
	start := m.AddNode(schema.NodeTypeStart)
	end := m.AddNode(schema.NodeTypeEnd)

	// End nodes have no output port to draw from.
	_, err := m.AddConnection(end.ID, "", start.ID, "")
	require.Error(t, err)
	assert.Equal(t, schema.ErrCodeInvalidConnection, schema.CodeOf(err))
}

func TestAddConnection_SequencesInCreationOrder(t *testing.T) {
	m := newTestModel(t)
	a := m.AddNode(schema.NodeTypeDecision)
	b := m.AddNode(schema.NodeTypeTask)
	c := m.AddNode(schema.NodeTypeTask)

	first, err := m.AddConnection(a.ID, "", b.ID, "")
	require.NoError(t, err)
	second, err := m.AddConnection(a.ID, "", c.ID, "")
	require.NoError(t, err)
	assert.Less(t, first.Seq, second.Seq)

	out := m.Snapshot().Outgoing(a.ID)
	require.Len(t, out, 2)
	assert.Equal(t, b.ID, out[0].Target)
	assert.Equal(t, c.ID, out[1].Target)
}

func TestUpdateConnection(t *testing.T) {
	m := newTestModel(t)
	a := m.AddNode(schema.NodeTypeStart)
	b := m.AddNode(schema.NodeTypeEnd)
	conn, err := m.AddConnection(a.ID, "", b.ID, "")
	require.NoError(t, err)

	cond := `vars.severity == "high"`
	label := "high severity"
	m.UpdateConnection(conn.ID, ConnectionUpdate{Condition: &cond, Label: &label})

	got := m.Snapshot().Connections[conn.ID]
	require.NotNil(t, got)
	assert.Equal(t, cond, got.Condition)
	assert.Equal(t, label, got.Label)
}

func TestSnapshot_IsolatedFromModel(t *testing.T) {
	m := newTestModel(t)
	n := m.AddNode(schema.NodeTypeTask)

	snap := m.Snapshot()
	snap.Nodes[n.ID].Label = "mutated copy"
	m.DeleteNode(n.ID)

	assert.Equal(t, "mutated copy", snap.Nodes[n.ID].Label)
	assert.Equal(t, 0, m.NodeCount())
}

func TestFromGraph_ResumesSeqCounter(t *testing.T) {
	m := newTestModel(t)
	a := m.AddNode(schema.NodeTypeDecision)
	b := m.AddNode(schema.NodeTypeTask)
	_, err := m.AddConnection(a.ID, "", b.ID, "")
	require.NoError(t, err)

	restored := FromGraph(m.Snapshot(), nil)
	c := restored.AddNode(schema.NodeTypeTask)
	conn, err := restored.AddConnection(a.ID, "", c.ID, "")
	require.NoError(t, err)
	assert.Equal(t, 1, conn.Seq, "new connections continue after imported ones")
}

func TestSetVariable(t *testing.T) {
	m := newTestModel(t)
	m.SetVariable("severity", "high")
	assert.Equal(t, "high", m.Snapshot().Variables["severity"])
}

func TestUpdateNode_ConfigCopied(t *testing.T) {
	m := newTestModel(t)
	n := m.AddNode(schema.NodeTypeTask)

	raw := json.RawMessage(`{"command":"backup.sh","timeout_seconds":60}`)
	m.UpdateNode(n.ID, NodeUpdate{Config: raw})
	raw[2] = 'X' // caller's buffer, not ours

	got, _ := m.GetNode(n.ID)
	assert.JSONEq(t, `{"command":"backup.sh","timeout_seconds":60}`, string(got.Config))
}

func TestMutationHook(t *testing.T) {
	m := newTestModel(t)
	var actions []string
	m.SetMutationHook(func(action string) { actions = append(actions, action) })

	a := m.AddNode(schema.NodeTypeStart)
	b := m.AddNode(schema.NodeTypeEnd)
	conn, err := m.AddConnection(a.ID, "", b.ID, "")
	require.NoError(t, err)
	label := "done"
	m.UpdateConnection(conn.ID, ConnectionUpdate{Label: &label})
	m.DeleteConnection(conn.ID)
	m.DeleteNode(b.ID)

	assert.Equal(t, []string{
		"node_added", "node_added", "connection_added",
		"connection_updated", "connection_deleted", "node_deleted",
	}, actions)
}

func TestMutationHook_NotFiredOnNoOps(t *testing.T) {
	m := newTestModel(t)
	var actions []string
	m.SetMutationHook(func(action string) { actions = append(actions, action) })

	m.UpdateNode("ghost", NodeUpdate{})
	m.DeleteNode("ghost")
	m.DeleteConnection("ghost")
	a := m.AddNode(schema.NodeTypeTask)
	_, err := m.AddConnection(a.ID, "", a.ID, "")
	require.Error(t, err)

	assert.Equal(t, []string{"node_added"}, actions, "rejected or absent mutations stay silent")
}
