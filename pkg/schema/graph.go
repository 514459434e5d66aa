package schema

import (
	"encoding/json"
	"time"
)

// NodeType enumerates the kinds of nodes available on the designer palette.
type NodeType string

const (
	NodeTypeStart        NodeType = "start"
	NodeTypeEnd          NodeType = "end"
	NodeTypeTask         NodeType = "task"
	NodeTypeDecision     NodeType = "decision"
	NodeTypeParallel     NodeType = "parallel"
	NodeTypeMerge        NodeType = "merge"
	NodeTypeDelay        NodeType = "delay"
	NodeTypeAPI          NodeType = "api"
	NodeTypeNotification NodeType = "notification"
)

// AllNodeTypes lists every palette entry in display order.
var AllNodeTypes = []NodeType{
	NodeTypeStart, NodeTypeEnd, NodeTypeTask, NodeTypeDecision,
	NodeTypeParallel, NodeTypeMerge, NodeTypeDelay, NodeTypeAPI,
	NodeTypeNotification,
}

// Valid reports whether t is a recognized node type.
func (t NodeType) Valid() bool {
	for _, k := range AllNodeTypes {
		if t == k {
			return true
		}
	}
	return false
}

// Port is a named attachment point on a node.
type Port string

const (
	PortInput  Port = "input"
	PortOutput Port = "output"
)

// PortsFor returns the port lists fixed by a node's type at creation time.
// Start nodes have no inputs, end nodes have no outputs, everything else
// carries one input and one output port.
func PortsFor(t NodeType) (inputs, outputs []Port) {
	switch t {
	case NodeTypeStart:
		return nil, []Port{PortOutput}
	case NodeTypeEnd:
		return []Port{PortInput}, nil
	default:
		return []Port{PortInput}, []Port{PortOutput}
	}
}

// DefaultLabel returns the canvas label for a freshly added node.
func DefaultLabel(t NodeType) string {
	switch t {
	case NodeTypeStart:
		return "Start"
	case NodeTypeEnd:
		return "End"
	case NodeTypeTask:
		return "Task"
	case NodeTypeDecision:
		return "Decision"
	case NodeTypeParallel:
		return "Parallel"
	case NodeTypeMerge:
		return "Merge"
	case NodeTypeDelay:
		return "Delay"
	case NodeTypeAPI:
		return "API Call"
	case NodeTypeNotification:
		return "Notification"
	default:
		return string(t)
	}
}

// Position is a point in unscaled canvas coordinates. Zoom is applied at
// render time only and never alters stored positions.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// NodeValidation is the per-node validation verdict shown on the canvas.
type NodeValidation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Node is a typed vertex in the workflow graph.
type Node struct {
	ID          string          `json:"id"`
	Type        NodeType        `json:"type"`
	Position    Position        `json:"position"`
	Label       string          `json:"label"`
	Description string          `json:"description,omitempty"`
	Config      json.RawMessage `json:"config,omitempty"`
	Inputs      []Port          `json:"inputs,omitempty"`
	Outputs     []Port          `json:"outputs,omitempty"`
	Validation  *NodeValidation `json:"validation,omitempty"`
}

// Clone returns a deep copy of the node.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := *n
	c.Inputs = append([]Port(nil), n.Inputs...)
	c.Outputs = append([]Port(nil), n.Outputs...)
	c.Config = append(json.RawMessage(nil), n.Config...)
	if n.Validation != nil {
		v := *n.Validation
		v.Errors = append([]string(nil), n.Validation.Errors...)
		c.Validation = &v
	}
	return &c
}

// HasOutputPort reports whether p is one of the node's output ports.
// The empty port name is accepted as "the default port".
func (n *Node) HasOutputPort(p Port) bool {
	if p == "" {
		return len(n.Outputs) > 0
	}
	for _, o := range n.Outputs {
		if o == p {
			return true
		}
	}
	return false
}

// HasInputPort reports whether p is one of the node's input ports.
func (n *Node) HasInputPort(p Port) bool {
	if p == "" {
		return len(n.Inputs) > 0
	}
	for _, i := range n.Inputs {
		if i == p {
			return true
		}
	}
	return false
}

// Connection is a directed edge between two nodes. Condition is a CEL guard
// evaluated by the simulator when choosing the next node; an empty condition
// always passes. Seq is the creation-order tiebreak the simulator uses to
// pick "the first" outgoing connection deterministically.
type Connection struct {
	ID         string `json:"id"`
	Source     string `json:"source"`
	SourcePort Port   `json:"source_port,omitempty"`
	Target     string `json:"target"`
	TargetPort Port   `json:"target_port,omitempty"`
	Condition  string `json:"condition,omitempty"`
	Label      string `json:"label,omitempty"`
	Seq        int    `json:"seq,omitempty"`
}

// Metadata carries graph bookkeeping fields.
type Metadata struct {
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Author    string    `json:"author,omitempty"`
	Tags      []string  `json:"tags,omitempty"`
}

// Graph is the complete workflow: nodes and connections keyed by id, plus a
// free-form variables map exposed to guard conditions during simulation.
type Graph struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	Description string                 `json:"description,omitempty"`
	Version     string                 `json:"version,omitempty"`
	Nodes       map[string]*Node       `json:"nodes"`
	Connections map[string]*Connection `json:"connections"`
	Variables   map[string]any         `json:"variables,omitempty"`
	Metadata    Metadata               `json:"metadata"`
}

// Clone returns a deep copy of the graph. The simulator runs on clones so
// that canvas edits during a run cannot dangle mid-walk.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return nil
	}
	c := *g
	c.Nodes = make(map[string]*Node, len(g.Nodes))
	for id, n := range g.Nodes {
		c.Nodes[id] = n.Clone()
	}
	c.Connections = make(map[string]*Connection, len(g.Connections))
	for id, conn := range g.Connections {
		cc := *conn
		c.Connections[id] = &cc
	}
	c.Variables = make(map[string]any, len(g.Variables))
	for k, v := range g.Variables {
		c.Variables[k] = v
	}
	c.Metadata.Tags = append([]string(nil), g.Metadata.Tags...)
	return &c
}

// Outgoing returns the connections whose source is nodeID, in creation order.
func (g *Graph) Outgoing(nodeID string) []*Connection {
	var out []*Connection
	for _, c := range g.Connections {
		if c.Source == nodeID {
			out = append(out, c)
		}
	}
	// Insertion sort on Seq; outgoing fans are small.
	for i := 1; i < len(out); i++ {
		key := out[i]
		j := i - 1
		for j >= 0 && out[j].Seq > key.Seq {
			out[j+1] = out[j]
			j--
		}
		out[j+1] = key
	}
	return out
}

// StartNodes returns every node of type start.
func (g *Graph) StartNodes() []*Node {
	var starts []*Node
	for _, n := range g.Nodes {
		if n.Type == NodeTypeStart {
			starts = append(starts, n)
		}
	}
	return starts
}
