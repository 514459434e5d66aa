// Package designer is the application root of the workflow designer: it
// owns the graph registry, per-graph canvas sessions and property editors,
// the validator, the simulator and the capability gating around all of them.
// Every collaborator is constructed here and passed down explicitly; nothing
// lives in package-level state.
package designer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/acso/flowcanvas/internal/access"
	"github.com/acso/flowcanvas/internal/canvas"
	"github.com/acso/flowcanvas/internal/codec"
	"github.com/acso/flowcanvas/internal/graph"
	"github.com/acso/flowcanvas/internal/logging"
	"github.com/acso/flowcanvas/internal/notify"
	"github.com/acso/flowcanvas/internal/simulator"
	"github.com/acso/flowcanvas/internal/streaming"
	"github.com/acso/flowcanvas/internal/validation"
	"github.com/acso/flowcanvas/pkg/schema"
)

// Deps holds the collaborators a Designer needs. Nil Access denies nothing;
// nil Hub and Notifier disable streaming and toasts.
type Deps struct {
	Access    access.Checker
	Notifier  notify.Notifier
	Hub       streaming.EventHub
	Logger    *slog.Logger
	StepDelay time.Duration
}

// workspace bundles a graph with its interaction state.
type workspace struct {
	model   *graph.Model
	session *canvas.Session
	editor  *canvas.Editor
}

// Designer is the console's designer service.
type Designer struct {
	access    access.Checker
	notifier  notify.Notifier
	hub       streaming.EventHub
	logger    *slog.Logger
	stepDelay time.Duration

	validator *validation.GraphValidator
	codec     *codec.Codec
	sim       *simulator.Simulator

	mu     sync.Mutex
	graphs map[string]*workspace
}

// New creates a Designer.
func New(deps Deps) (*Designer, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	gv, err := validation.NewGraphValidator()
	if err != nil {
		return nil, err
	}
	c, err := codec.NewCodec()
	if err != nil {
		return nil, err
	}
	sim, err := simulator.NewSimulator(deps.Hub, deps.Notifier, logger)
	if err != nil {
		return nil, err
	}
	return &Designer{
		access:    deps.Access,
		notifier:  deps.Notifier,
		hub:       deps.Hub,
		logger:    logger,
		stepDelay: deps.StepDelay,
		validator: gv,
		codec:     c,
		sim:       sim,
		graphs:    make(map[string]*workspace),
	}, nil
}

// NewGraph creates an empty graph and returns its id.
func (d *Designer) NewGraph(name string) (string, error) {
	if err := d.allowed(access.ActionEdit); err != nil {
		return "", err
	}
	return d.register(graph.NewModel(name, d.logger)), nil
}

// SampleGraph seeds the demo incident-response graph and returns its id.
func (d *Designer) SampleGraph() (string, error) {
	if err := d.allowed(access.ActionEdit); err != nil {
		return "", err
	}
	return d.register(graph.Sample(d.logger)), nil
}

// Import parses, schema-validates and registers an exported graph document.
func (d *Designer) Import(data []byte) (string, error) {
	if err := d.allowed(access.ActionEdit); err != nil {
		return "", err
	}
	g, err := d.codec.Import(data)
	if err != nil {
		return "", err
	}
	return d.register(graph.FromGraph(g, d.logger)), nil
}

// Export serializes a graph for download.
func (d *Designer) Export(graphID string) ([]byte, error) {
	if err := d.allowed(access.ActionView); err != nil {
		return nil, err
	}
	ws, err := d.workspace(graphID)
	if err != nil {
		return nil, err
	}
	return d.codec.Export(ws.model.Snapshot())
}

// Graph returns a deep copy of the graph.
func (d *Designer) Graph(graphID string) (*schema.Graph, error) {
	if err := d.allowed(access.ActionView); err != nil {
		return nil, err
	}
	ws, err := d.workspace(graphID)
	if err != nil {
		return nil, err
	}
	return ws.model.Snapshot(), nil
}

// DeleteGraph drops a graph and its interaction state.
func (d *Designer) DeleteGraph(graphID string) error {
	if err := d.allowed(access.ActionEdit); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.graphs[graphID]; !ok {
		return schema.NewErrorf(schema.ErrCodeNotFound, "graph %s does not exist", graphID)
	}
	delete(d.graphs, graphID)
	return nil
}

// GraphIDs lists registered graph ids.
func (d *Designer) GraphIDs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	ids := make([]string, 0, len(d.graphs))
	for id := range d.graphs {
		ids = append(ids, id)
	}
	return ids
}

// Model returns the mutable graph model for direct edits (palette drops,
// programmatic mutation). Gated on edit.
func (d *Designer) Model(graphID string) (*graph.Model, error) {
	if err := d.allowed(access.ActionEdit); err != nil {
		return nil, err
	}
	ws, err := d.workspace(graphID)
	if err != nil {
		return nil, err
	}
	return ws.model, nil
}

// Session returns the canvas interaction session for a graph.
func (d *Designer) Session(graphID string) (*canvas.Session, error) {
	if err := d.allowed(access.ActionEdit); err != nil {
		return nil, err
	}
	ws, err := d.workspace(graphID)
	if err != nil {
		return nil, err
	}
	return ws.session, nil
}

// Editor returns the node properties editor for a graph.
func (d *Designer) Editor(graphID string) (*canvas.Editor, error) {
	if err := d.allowed(access.ActionEdit); err != nil {
		return nil, err
	}
	ws, err := d.workspace(graphID)
	if err != nil {
		return nil, err
	}
	return ws.editor, nil
}

// Validate runs the validation pipeline and writes per-node verdicts back
// onto the graph for canvas badges. Editing is never blocked by the result.
func (d *Designer) Validate(graphID string) (*schema.ValidationResult, error) {
	if err := d.allowed(access.ActionView); err != nil {
		return nil, err
	}
	ws, err := d.workspace(graphID)
	if err != nil {
		return nil, err
	}
	verdicts, result := d.validator.Annotate(ws.model.Snapshot())
	for id, v := range verdicts {
		ws.model.UpdateNode(id, graph.NodeUpdate{Validation: v})
	}
	return result, nil
}

// Simulate starts a run over a snapshot of the graph. Validation is
// deliberately not a precondition: partially-wired graphs are allowed to
// run and stall visibly.
func (d *Designer) Simulate(ctx context.Context, graphID string) (string, error) {
	if err := d.allowed(access.ActionSimulate); err != nil {
		return "", err
	}
	ws, err := d.workspace(graphID)
	if err != nil {
		return "", err
	}
	ctx = logging.WithGraphID(ctx, graphID)
	run, err := d.sim.Start(ctx, ws.model.Snapshot(), simulator.Options{StepDelay: d.stepDelay})
	if err != nil {
		return "", err
	}
	return run.ID, nil
}

// Run returns a tracked simulation run.
func (d *Designer) Run(runID string) (*simulator.Run, error) {
	run, ok := d.sim.Run(runID)
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "run %s does not exist", runID)
	}
	return run, nil
}

// StopRun cancels a simulation run.
func (d *Designer) StopRun(runID string) error {
	if !d.sim.Stop(runID) {
		return schema.NewErrorf(schema.ErrCodeNotFound, "run %s does not exist", runID)
	}
	return nil
}

// register stores a workspace around the model and returns the graph id.
// Every model mutation is published as graph_mutated so subscribed canvases
// can refresh live.
func (d *Designer) register(m *graph.Model) string {
	ws := &workspace{
		model:   m,
		session: canvas.NewSession(m, d.notifier, d.logger),
		editor:  canvas.NewEditor(m),
	}
	id := m.ID()
	if d.hub != nil {
		m.SetMutationHook(func(action string) {
			_ = d.hub.Publish(context.Background(), streaming.StreamEvent{
				GraphID:   id,
				EventType: schema.EventGraphMutated,
				Payload:   map[string]any{"action": action},
			})
		})
	}
	d.mu.Lock()
	d.graphs[id] = ws
	d.mu.Unlock()
	return id
}

func (d *Designer) workspace(graphID string) (*workspace, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	ws, ok := d.graphs[graphID]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "graph %s does not exist", graphID)
	}
	return ws, nil
}

// allowed checks the capability for an action on the workflows resource.
// A nil checker denies nothing: gating is UI visibility, not enforcement.
func (d *Designer) allowed(action string) error {
	if d.access == nil {
		return nil
	}
	if !d.access.HasPermission(access.ResourceWorkflows, action) {
		return schema.NewErrorf(schema.ErrCodePermission, "missing %s:%s capability", access.ResourceWorkflows, action)
	}
	return nil
}
