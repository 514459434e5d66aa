// Package simulator walks a graph snapshot from its start node to visually
// approximate execution. It is not a task runner: api nodes never perform
// HTTP, task nodes never spawn processes; every step is a timed log line.
package simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/acso/flowcanvas/internal/expressions"
	"github.com/acso/flowcanvas/internal/logging"
	"github.com/acso/flowcanvas/internal/notify"
	"github.com/acso/flowcanvas/internal/streaming"
	"github.com/acso/flowcanvas/pkg/schema"
)

// DefaultStepDelay is the wall-clock pause between simulated steps.
const DefaultStepDelay = time.Second

// DefaultMaxSteps bounds a run so a drawn cycle cannot spin forever.
const DefaultMaxSteps = 1000

// Options tune a single run.
type Options struct {
	StepDelay time.Duration // 0 means DefaultStepDelay
	MaxSteps  int           // 0 means DefaultMaxSteps
}

// Simulator starts and tracks runs. Safe for concurrent use; each run steps
// on its own goroutine over its own graph snapshot.
type Simulator struct {
	hub      streaming.EventHub
	notifier notify.Notifier
	logger   *slog.Logger

	cel  *expressions.CELEngine
	expr *expressions.ExprEngine
	jq   *expressions.GoJQEngine

	// mu guards the runs map.
	mu   sync.Mutex
	runs map[string]*Run
}

// NewSimulator creates a Simulator publishing to hub and toasting outcomes
// through notifier.
func NewSimulator(hub streaming.EventHub, notifier notify.Notifier, logger *slog.Logger) (*Simulator, error) {
	cel, err := expressions.NewCELEngine()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Simulator{
		hub:      hub,
		notifier: notifier,
		logger:   logger,
		cel:      cel,
		expr:     expressions.NewExprEngine(),
		jq:       expressions.NewGoJQEngine(),
		runs:     make(map[string]*Run),
	}, nil
}

// Start begins a run over the snapshot. The graph must have exactly one
// start node; zero or several is a validation error, not undefined behavior.
func (s *Simulator) Start(ctx context.Context, g *schema.Graph, opts Options) (*Run, error) {
	starts := g.StartNodes()
	if len(starts) != 1 {
		return nil, schema.NewErrorf(schema.ErrCodeValidation,
			"graph must have exactly one start node, found %d", len(starts))
	}
	if opts.StepDelay <= 0 {
		opts.StepDelay = DefaultStepDelay
	}
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = DefaultMaxSteps
	}

	runCtx, cancel := context.WithCancel(ctx)
	run := newRun(uuid.New().String(), g.ID, cancel)
	ids := make([]string, 0, len(g.Nodes))
	for id := range g.Nodes {
		ids = append(ids, id)
	}
	run.initNodes(ids)

	s.mu.Lock()
	s.runs[run.ID] = run
	s.mu.Unlock()

	s.publish(runCtx, run, "", schema.EventRunStarted, nil)
	run.append("", fmt.Sprintf("simulation started for %q", g.Name))

	go s.walk(runCtx, run, g, starts[0], opts)
	return run, nil
}

// Run returns a tracked run by id.
func (s *Simulator) Run(runID string) (*Run, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.runs[runID]
	return r, ok
}

// Stop cancels a run. Bumping the generation first makes any timer step
// already queued a no-op; the context cancel then wakes the walker promptly.
func (s *Simulator) Stop(runID string) bool {
	s.mu.Lock()
	run, ok := s.runs[runID]
	s.mu.Unlock()
	if !ok {
		return false
	}
	run.gen.Add(1)
	run.cancel()
	return true
}

// walk is the stepping loop. Each iteration marks the current node active,
// waits the step delay, applies the node's simulated effect, then follows
// the first outgoing connection whose guard passes.
func (s *Simulator) walk(ctx context.Context, run *Run, g *schema.Graph, start *schema.Node, opts Options) {
	ctx = logging.WithRunID(logging.WithGraphID(ctx, g.ID), run.ID)
	log := logging.LogWith(ctx, s.logger)
	startGen := run.gen.Load()

	vars := make(map[string]any, len(g.Variables))
	for k, v := range g.Variables {
		vars[k] = v
	}
	var output any
	var decision any

	current := start
	for steps := 0; ; steps++ {
		if steps >= opts.MaxSteps {
			run.append(current.ID, fmt.Sprintf("aborted after %d steps; graph likely contains a cycle", opts.MaxSteps))
			s.terminate(ctx, run, schema.RunStatusStalled, "Simulation aborted: step limit reached")
			return
		}

		run.visit(current.ID)
		run.append(current.ID, fmt.Sprintf("activated %q (%s)", current.Label, current.Type))
		s.publish(ctx, run, current.ID, schema.EventNodeActivated, current.Label)

		if !s.wait(ctx, run, startGen, opts.StepDelay) {
			s.terminate(ctx, run, schema.RunStatusCancelled, "Simulation stopped")
			return
		}

		output, decision = s.applyNode(ctx, run, current, vars, output, decision)
		run.markVisited(current.ID)
		s.publish(ctx, run, current.ID, schema.EventNodeCompleted, nil)

		if current.Type == schema.NodeTypeEnd {
			run.append(current.ID, "reached end node")
			s.terminate(ctx, run, schema.RunStatusCompleted, "Simulation completed")
			return
		}

		scope := map[string]any{
			expressions.ScopeVars:     vars,
			expressions.ScopeNode:     nodeScope(current),
			expressions.ScopePath:     run.Path(),
			expressions.ScopeOutput:   output,
			expressions.ScopeDecision: decision,
		}
		next := s.pickNext(ctx, g, current, scope, run)
		if next == nil {
			run.append(current.ID, fmt.Sprintf("stalled: no outgoing connection from %q", current.Label))
			log.Warn("run stalled", slog.String("node_id", current.ID))
			s.terminate(ctx, run, schema.RunStatusStalled,
				fmt.Sprintf("Simulation stalled at %q: no outgoing connection", current.Label))
			return
		}
		current = next
	}
}

// wait blocks for the step delay. Returns false when the run was cancelled;
// the generation check catches a Stop that fired while the timer was queued.
func (s *Simulator) wait(ctx context.Context, run *Run, startGen uint64, delay time.Duration) bool {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
	}
	return run.gen.Load() == startGen
}

// applyNode performs the node's simulated effect and returns the updated
// output and decision values.
func (s *Simulator) applyNode(ctx context.Context, run *Run, n *schema.Node, vars map[string]any, output, decision any) (any, any) {
	cfg, err := schema.DecodeConfig(n.Type, n.Config)
	if err != nil {
		run.append(n.ID, fmt.Sprintf("config ignored: %s", err.Error()))
		return output, decision
	}

	switch c := cfg.(type) {
	case *schema.TaskConfig:
		run.append(n.ID, fmt.Sprintf("executed %q (timeout %ds, simulated)", c.Command, c.TimeoutSeconds))
	case *schema.DelayConfig:
		run.append(n.ID, fmt.Sprintf("waited %ds (simulated time)", c.DelaySeconds))
	case *schema.DecisionConfig:
		decision = s.evalDecision(ctx, run, n, c, vars, output)
	case *schema.APIConfig:
		output = s.simulateAPI(ctx, run, n, c, vars)
	case *schema.NotificationConfig:
		if s.notifier != nil {
			s.notifier.Show(c.Message, notify.SeverityInfo)
		}
		run.append(n.ID, fmt.Sprintf("notified %s via %s (simulated)", c.Recipients, c.Channel))
	default:
		run.append(n.ID, "passed through")
	}
	return output, decision
}

// evalDecision evaluates the decision-node condition with expr. A condition
// that fails to evaluate counts as false, mirroring the console's lenient
// branching.
func (s *Simulator) evalDecision(ctx context.Context, run *Run, n *schema.Node, c *schema.DecisionConfig, vars map[string]any, output any) any {
	env := map[string]any{
		expressions.ScopeVars:   vars,
		expressions.ScopeOutput: output,
		expressions.ScopePath:   run.Path(),
	}
	result, err := s.expr.Evaluate(ctx, c.Condition, env)
	if err != nil {
		run.append(n.ID, fmt.Sprintf("decision condition failed: %s", reason(err)))
		result = false
	} else {
		run.append(n.ID, fmt.Sprintf("decision %q evaluated to %v", c.Condition, result))
	}
	s.publish(ctx, run, n.ID, schema.EventConditionEvaluated, result)
	return result
}

// simulateAPI fabricates a response for the api node and jq-extracts the
// simulated status into the run's variables. No request leaves the process.
func (s *Simulator) simulateAPI(ctx context.Context, run *Run, n *schema.Node, c *schema.APIConfig, vars map[string]any) any {
	response := map[string]any{
		"status": 200,
		"method": string(c.Method),
		"url":    c.URL,
	}
	if c.Body != "" {
		var body any
		if err := json.Unmarshal([]byte(c.Body), &body); err == nil {
			response["body"] = body
		}
	}

	if status, err := s.jq.Evaluate(ctx, ".status", response); err == nil {
		vars["last_api_status"] = status
	}
	run.append(n.ID, fmt.Sprintf("%s %s -> 200 (simulated)", c.Method, c.URL))
	return response
}

// pickNext chooses the next node. A decision node tries its guarded
// connections first (creation order, first truthy wins) and only falls back
// to the first unguarded one; every other node type takes the first
// connection in creation order whose guard passes, an empty guard passing
// immediately. A guard that fails to evaluate is treated as false and logged
// rather than aborting the run; its target is flagged skipped.
func (s *Simulator) pickNext(ctx context.Context, g *schema.Graph, current *schema.Node, scope map[string]any, run *Run) *schema.Node {
	outgoing := g.Outgoing(current.ID)

	if current.Type == schema.NodeTypeDecision {
		for _, conn := range outgoing {
			if conn.Condition == "" {
				continue
			}
			if target := s.follow(ctx, g, current, conn, scope, run); target != nil {
				return target
			}
		}
		for _, conn := range outgoing {
			if conn.Condition != "" {
				continue
			}
			if target, ok := g.Nodes[conn.Target]; ok {
				return target
			}
		}
		return nil
	}

	for _, conn := range outgoing {
		if conn.Condition == "" {
			if target, ok := g.Nodes[conn.Target]; ok {
				return target
			}
			continue
		}
		if target := s.follow(ctx, g, current, conn, scope, run); target != nil {
			return target
		}
	}
	return nil
}

// follow evaluates a guarded connection and returns its target when the
// guard is truthy, nil otherwise.
func (s *Simulator) follow(ctx context.Context, g *schema.Graph, current *schema.Node, conn *schema.Connection, scope map[string]any, run *Run) *schema.Node {
	target, ok := g.Nodes[conn.Target]
	if !ok {
		return nil
	}
	result, err := s.cel.Evaluate(ctx, conn.Condition, scope)
	if err != nil {
		run.append(current.ID, fmt.Sprintf("guard %q failed: %s", conn.Condition, reason(err)))
		run.markSkipped(target.ID)
		return nil
	}
	s.publish(ctx, run, current.ID, schema.EventConditionEvaluated, result)
	if !expressions.Truthy(result) {
		run.markSkipped(target.ID)
		return nil
	}
	return target
}

// terminate moves the run to a terminal state and reports the outcome.
func (s *Simulator) terminate(ctx context.Context, run *Run, status schema.RunStatus, toast string) {
	if !run.finish(status) {
		return
	}
	var event string
	var severity notify.Severity
	switch status {
	case schema.RunStatusCompleted:
		event, severity = schema.EventRunCompleted, notify.SeveritySuccess
	case schema.RunStatusStalled:
		event, severity = schema.EventRunStalled, notify.SeverityWarning
	default:
		event, severity = schema.EventRunCancelled, notify.SeverityInfo
	}
	s.publish(context.WithoutCancel(ctx), run, "", event, string(status))
	if s.notifier != nil {
		s.notifier.Show(toast, severity)
	}
}

func (s *Simulator) publish(ctx context.Context, run *Run, nodeID, eventType string, payload any) {
	if s.hub == nil {
		return
	}
	_ = s.hub.Publish(ctx, streaming.StreamEvent{
		GraphID:   run.GraphID,
		RunID:     run.ID,
		NodeID:    nodeID,
		EventType: eventType,
		Payload:   payload,
	})
}

func nodeScope(n *schema.Node) map[string]any {
	return map[string]any{
		"id":    n.ID,
		"type":  string(n.Type),
		"label": n.Label,
	}
}

func reason(err error) string {
	if de, ok := err.(*schema.DesignError); ok {
		return de.Message
	}
	return err.Error()
}
