package simulator

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/acso/flowcanvas/pkg/schema"
)

// LogEntry is one line of a run's textual step log.
type LogEntry struct {
	Time    time.Time `json:"time"`
	NodeID  string    `json:"node_id,omitempty"`
	Message string    `json:"message"`
}

// Run is the ephemeral state of one simulation: the visited path, the
// currently active node and the step log. Nothing here outlives the session.
type Run struct {
	ID      string
	GraphID string

	// gen is the cancellation generation. Stop bumps it; every deferred
	// step compares it against the value captured at start before acting,
	// so timers already queued when Stop fires become no-ops.
	gen atomic.Uint64

	mu      sync.Mutex
	status  schema.RunStatus
	path    []string
	current string
	log     []LogEntry
	nodes   map[string]schema.NodeRunStatus

	cancel func()
	done   chan struct{}
}

func newRun(id, graphID string, cancel func()) *Run {
	return &Run{
		ID:      id,
		GraphID: graphID,
		status:  schema.RunStatusRunning,
		nodes:   make(map[string]schema.NodeRunStatus),
		cancel:  cancel,
		done:    make(chan struct{}),
	}
}

// Status returns the run's lifecycle state.
func (r *Run) Status() schema.RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Path returns a copy of the visited node ids in order.
func (r *Run) Path() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.path))
	copy(out, r.path)
	return out
}

// Current returns the id of the node currently marked active, or "".
func (r *Run) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Log returns a copy of the step log.
func (r *Run) Log() []LogEntry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]LogEntry, len(r.log))
	copy(out, r.log)
	return out
}

// Done is closed when the run reaches a terminal status.
func (r *Run) Done() <-chan struct{} {
	return r.done
}

// NodeStatuses returns a copy of the per-node statuses for canvas badges.
func (r *Run) NodeStatuses() map[string]schema.NodeRunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]schema.NodeRunStatus, len(r.nodes))
	for id, s := range r.nodes {
		out[id] = s
	}
	return out
}

// initNodes seeds every node as pending.
func (r *Run) initNodes(ids []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		r.nodes[id] = schema.NodeRunPending
	}
}

// visit marks a node active and appends it to the path.
func (r *Run) visit(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = nodeID
	r.path = append(r.path, nodeID)
	r.nodes[nodeID] = schema.NodeRunActive
}

// markVisited records that a node's simulated effect was applied.
func (r *Run) markVisited(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nodes[nodeID] = schema.NodeRunVisited
}

// markSkipped flags a branch target whose guard evaluated false. A node the
// walk already reached keeps its status.
func (r *Run) markSkipped(nodeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.nodes[nodeID] == schema.NodeRunPending {
		r.nodes[nodeID] = schema.NodeRunSkipped
	}
}

// append adds a log line.
func (r *Run) append(nodeID, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, LogEntry{Time: time.Now().UTC(), NodeID: nodeID, Message: message})
}

// finish transitions the run to a terminal status, once. Returns false when
// the run already terminated (e.g. Stop raced the final step).
func (r *Run) finish(status schema.RunStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !schema.CanTransition(r.status, status) {
		return false
	}
	r.status = status
	r.current = ""
	close(r.done)
	return true
}
