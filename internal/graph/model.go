// Package graph holds the in-memory workflow graph model mutated by the
// canvas. All mutations are synchronous and atomic with respect to a single
// event-handler invocation; the mutex exists so background simulation
// snapshots and scheduler reads stay consistent.
package graph

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/acso/flowcanvas/pkg/schema"
)

// Model owns a single graph and serializes access to it.
type Model struct {
	mu     sync.Mutex
	g      *schema.Graph
	seq    int // creation counter for connection ordering
	logger *slog.Logger

	// onMutate, when set, is invoked after every successful mutation while
	// the model lock is held. It must not call back into the model.
	onMutate func(action string)
}

// SetMutationHook registers a callback fired after every successful
// mutation, e.g. to publish graph_mutated events for live edit feeds.
func (m *Model) SetMutationHook(fn func(action string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onMutate = fn
}

// NewModel creates a Model around an empty graph.
func NewModel(name string, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	now := time.Now().UTC()
	return &Model{
		g: &schema.Graph{
			ID:          uuid.New().String(),
			Name:        name,
			Version:     "1.0.0",
			Nodes:       make(map[string]*schema.Node),
			Connections: make(map[string]*schema.Connection),
			Variables:   make(map[string]any),
			Metadata:    schema.Metadata{CreatedAt: now, UpdatedAt: now},
		},
		logger: logger,
	}
}

// FromGraph wraps an existing graph (e.g. an imported one) in a Model.
func FromGraph(g *schema.Graph, logger *slog.Logger) *Model {
	if logger == nil {
		logger = slog.Default()
	}
	m := &Model{g: g.Clone(), logger: logger}
	if m.g.Nodes == nil {
		m.g.Nodes = make(map[string]*schema.Node)
	}
	if m.g.Connections == nil {
		m.g.Connections = make(map[string]*schema.Connection)
	}
	for _, c := range m.g.Connections {
		if c.Seq >= m.seq {
			m.seq = c.Seq + 1
		}
	}
	return m
}

// ID returns the graph id.
func (m *Model) ID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.g.ID
}

// Snapshot returns a deep copy of the graph. Simulation runs operate on
// snapshots so concurrent canvas edits cannot dangle mid-run.
func (m *Model) Snapshot() *schema.Graph {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.g.Clone()
}

// NodeUpdate describes a partial node mutation. Nil fields are left
// untouched. There is deliberately no Type field: a node's type fixes its
// port lists at creation and cannot change once connections are wired.
type NodeUpdate struct {
	Label       *string
	Description *string
	Position    *schema.Position
	Config      json.RawMessage
	Validation  *schema.NodeValidation
}

// AddNode constructs a new node of the given type with a generated id, a
// default label, an empty config bag and port lists fixed by the type, then
// appends it to the graph. Returns a copy of the stored node.
func (m *Model) AddNode(t schema.NodeType) *schema.Node {
	m.mu.Lock()
	defer m.mu.Unlock()

	inputs, outputs := schema.PortsFor(t)
	n := &schema.Node{
		ID:      uuid.New().String(),
		Type:    t,
		Label:   schema.DefaultLabel(t),
		Inputs:  inputs,
		Outputs: outputs,
	}
	m.g.Nodes[n.ID] = n
	m.touch("node_added")
	return n.Clone()
}

// GetNode returns a copy of the node, or false when absent.
func (m *Model) GetNode(id string) (*schema.Node, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n, ok := m.g.Nodes[id]
	if !ok {
		return nil, false
	}
	return n.Clone(), true
}

// UpdateNode merges the update into the node. No-op when the id is absent.
func (m *Model) UpdateNode(id string, update NodeUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.g.Nodes[id]
	if !ok {
		return
	}
	if update.Label != nil {
		n.Label = *update.Label
	}
	if update.Description != nil {
		n.Description = *update.Description
	}
	if update.Position != nil {
		n.Position = *update.Position
	}
	if update.Config != nil {
		n.Config = append(json.RawMessage(nil), update.Config...)
	}
	if update.Validation != nil {
		v := *update.Validation
		n.Validation = &v
	}
	m.touch("node_updated")
}

// DeleteNode removes the node and cascades: every connection whose source or
// target is id is removed with it. No-op when the id is absent.
func (m *Model) DeleteNode(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.g.Nodes[id]; !ok {
		return
	}
	delete(m.g.Nodes, id)
	for cid, c := range m.g.Connections {
		if c.Source == id || c.Target == id {
			delete(m.g.Connections, cid)
		}
	}
	m.touch("node_deleted")
}

// AddConnection creates a directed connection between two nodes. Self-loops
// and absent endpoints are rejected with INVALID_CONNECTION; the caller is
// expected to surface the rejection rather than drop it silently.
func (m *Model) AddConnection(source string, sourcePort schema.Port, target string, targetPort schema.Port) (*schema.Connection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if source == target {
		m.logger.Debug("connection rejected: self-loop", slog.String("graph_id", m.g.ID), slog.String("node_id", source))
		return nil, schema.NewError(schema.ErrCodeInvalidConnection, "connection source and target are the same node").WithNode(source)
	}
	src, ok := m.g.Nodes[source]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeInvalidConnection, "source node %s does not exist", source)
	}
	dst, ok := m.g.Nodes[target]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeInvalidConnection, "target node %s does not exist", target)
	}
	if !src.HasOutputPort(sourcePort) {
		return nil, schema.NewErrorf(schema.ErrCodeInvalidConnection, "node %s has no output port %q", source, sourcePort).WithNode(source)
	}
	if !dst.HasInputPort(targetPort) {
		return nil, schema.NewErrorf(schema.ErrCodeInvalidConnection, "node %s has no input port %q", target, targetPort).WithNode(target)
	}

	c := &schema.Connection{
		ID:         uuid.New().String(),
		Source:     source,
		SourcePort: sourcePort,
		Target:     target,
		TargetPort: targetPort,
		Seq:        m.seq,
	}
	m.seq++
	m.g.Connections[c.ID] = c
	m.touch("connection_added")
	return cloneConnection(c), nil
}

// ConnectionUpdate describes a partial connection mutation.
type ConnectionUpdate struct {
	Condition *string
	Label     *string
}

// UpdateConnection merges the update into the connection. No-op when absent.
func (m *Model) UpdateConnection(id string, update ConnectionUpdate) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.g.Connections[id]
	if !ok {
		return
	}
	if update.Condition != nil {
		c.Condition = *update.Condition
	}
	if update.Label != nil {
		c.Label = *update.Label
	}
	m.touch("connection_updated")
}

// DeleteConnection removes the connection by id. No cascade: connections own
// no children.
func (m *Model) DeleteConnection(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.g.Connections[id]; !ok {
		return
	}
	delete(m.g.Connections, id)
	m.touch("connection_deleted")
}

// SetVariable sets a graph variable visible to guard conditions.
func (m *Model) SetVariable(key string, value any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.g.Variables[key] = value
	m.touch("variable_set")
}

// NodeCount returns the number of nodes.
func (m *Model) NodeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.g.Nodes)
}

// ConnectionCount returns the number of connections.
func (m *Model) ConnectionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.g.Connections)
}

// touch bumps the updated timestamp and fires the mutation hook. Callers
// hold the lock.
func (m *Model) touch(action string) {
	m.g.Metadata.UpdatedAt = time.Now().UTC()
	if m.onMutate != nil {
		m.onMutate(action)
	}
}

func cloneConnection(c *schema.Connection) *schema.Connection {
	cc := *c
	return &cc
}
