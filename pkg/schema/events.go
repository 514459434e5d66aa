package schema

// Event type constants for the live event stream.
const (
	EventRunStarted         = "run_started"
	EventRunCompleted       = "run_completed"
	EventRunStalled         = "run_stalled"
	EventRunCancelled       = "run_cancelled"
	EventNodeActivated      = "node_activated"
	EventNodeCompleted      = "node_completed"
	EventConditionEvaluated = "condition_evaluated"
	EventGraphMutated       = "graph_mutated"
	EventNotificationSent   = "notification_sent"
)

// RunStatus represents the lifecycle state of a simulation run.
// Stalled is terminal and distinct from completed: the walk reached a
// non-end node with no outgoing connection.
type RunStatus string

const (
	RunStatusNotStarted RunStatus = "not_started"
	RunStatusRunning    RunStatus = "running"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusStalled    RunStatus = "stalled"
	RunStatusCancelled  RunStatus = "cancelled"
)

// Terminal reports whether the status admits no further transitions.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusStalled, RunStatusCancelled:
		return true
	}
	return false
}

// ValidRunTransitions defines the allowed run state transitions.
var ValidRunTransitions = map[RunStatus][]RunStatus{
	RunStatusNotStarted: {RunStatusRunning, RunStatusCancelled},
	RunStatusRunning:    {RunStatusCompleted, RunStatusStalled, RunStatusCancelled},
	RunStatusCompleted:  {},
	RunStatusStalled:    {},
	RunStatusCancelled:  {},
}

// CanTransition reports whether from -> to is an allowed run transition.
func CanTransition(from, to RunStatus) bool {
	for _, a := range ValidRunTransitions[from] {
		if a == to {
			return true
		}
	}
	return false
}

// NodeRunStatus is the per-node state surfaced on the canvas during a run.
// Skipped marks a branch target whose guard evaluated false.
type NodeRunStatus string

const (
	NodeRunPending NodeRunStatus = "pending"
	NodeRunActive  NodeRunStatus = "active"
	NodeRunVisited NodeRunStatus = "visited"
	NodeRunSkipped NodeRunStatus = "skipped"
)
