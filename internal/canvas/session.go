// Package canvas owns the ephemeral interaction state of the designer
// surface: drag state, in-progress connection draws, zoom and selection.
// None of it is persisted; reload loses it by design.
package canvas

import (
	"fmt"
	"log/slog"

	"github.com/acso/flowcanvas/internal/graph"
	"github.com/acso/flowcanvas/internal/notify"
	"github.com/acso/flowcanvas/pkg/schema"
)

// Mode is the interaction state machine's current state.
type Mode string

const (
	ModeIdle       Mode = "idle"
	ModeDragging   Mode = "dragging"
	ModeConnecting Mode = "connecting"
)

// Zoom bounds. Fit resets to 1.0. Zoom scales rendering only; stored node
// positions stay in unscaled canvas coordinates.
const (
	MinZoom = 0.5
	MaxZoom = 2.0
)

// Session is the per-graph interaction state machine. It is driven by a
// single UI event loop: handlers are never invoked concurrently, so the
// session carries no lock of its own (the model it writes through to does).
type Session struct {
	model    *graph.Model
	notifier notify.Notifier
	logger   *slog.Logger

	mode          Mode
	dragNode      string
	dragOffset    schema.Position
	connectSource string
	connectPort   schema.Port
	selected      string
	zoom          float64
}

// NewSession creates an idle session at zoom 1.0.
func NewSession(model *graph.Model, notifier notify.Notifier, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		model:    model,
		notifier: notifier,
		logger:   logger,
		mode:     ModeIdle,
		zoom:     1.0,
	}
}

// Mode returns the current interaction state.
func (s *Session) Mode() Mode {
	return s.mode
}

// PointerDown on a node body captures the pointer offset, marks the node
// selected and transitions to Dragging. No-op for unknown nodes.
func (s *Session) PointerDown(nodeID string, pointer schema.Position) {
	n, ok := s.model.GetNode(nodeID)
	if !ok {
		return
	}
	s.mode = ModeDragging
	s.dragNode = nodeID
	s.dragOffset = schema.Position{X: pointer.X - n.Position.X, Y: pointer.Y - n.Position.Y}
	s.selected = nodeID
}

// PointerMove while Dragging writes the new position through to the model on
// every move event. Eager writes keep the node under the pointer; batching
// would only matter if a persistence layer existed.
func (s *Session) PointerMove(pointer schema.Position) {
	if s.mode != ModeDragging {
		return
	}
	pos := schema.Position{X: pointer.X - s.dragOffset.X, Y: pointer.Y - s.dragOffset.Y}
	s.model.UpdateNode(s.dragNode, graph.NodeUpdate{Position: &pos})
}

// PointerUp ends a drag. The last PointerMove already committed the final
// position; no further model writes happen here.
func (s *Session) PointerUp() {
	if s.mode != ModeDragging {
		return
	}
	s.mode = ModeIdle
	s.dragNode = ""
}

// ClickOutputHandle starts a connection draw from the node's output port.
func (s *Session) ClickOutputHandle(nodeID string, port schema.Port) {
	if _, ok := s.model.GetNode(nodeID); !ok {
		return
	}
	s.mode = ModeConnecting
	s.connectSource = nodeID
	s.connectPort = port
}

// ClickInputHandle completes a pending connection draw onto the node's input
// port. Clicking the draw-start node discards the pending connection (the
// self-loop rejection); either way the session returns to Idle. The rejection
// is surfaced as a toast rather than dropped silently.
func (s *Session) ClickInputHandle(nodeID string, port schema.Port) (*schema.Connection, error) {
	if s.mode != ModeConnecting {
		return nil, nil
	}
	source, sourcePort := s.connectSource, s.connectPort
	s.mode = ModeIdle
	s.connectSource = ""
	s.connectPort = ""

	conn, err := s.model.AddConnection(source, sourcePort, nodeID, port)
	if err != nil {
		s.logger.Warn("connection rejected", slog.String("source", source), slog.String("target", nodeID), slog.String("error", err.Error()))
		if s.notifier != nil {
			s.notifier.Show(fmt.Sprintf("Connection rejected: %s", reason(err)), notify.SeverityWarning)
		}
		return nil, err
	}
	return conn, nil
}

// Select marks a node for the properties panel. Selecting does not alter the
// drag/connect state machine.
func (s *Session) Select(nodeID string) {
	if _, ok := s.model.GetNode(nodeID); !ok {
		return
	}
	s.selected = nodeID
}

// Selected returns the node id shown in the properties panel, or "".
func (s *Session) Selected() string {
	return s.selected
}

// ClearSelection empties the properties panel.
func (s *Session) ClearSelection() {
	s.selected = ""
}

// DeleteNode removes the node through the model (cascading its connections)
// and clears the selection if it pointed at the deleted node.
func (s *Session) DeleteNode(nodeID string) {
	s.model.DeleteNode(nodeID)
	if s.selected == nodeID {
		s.selected = ""
	}
	if s.mode == ModeDragging && s.dragNode == nodeID {
		s.mode = ModeIdle
		s.dragNode = ""
	}
	if s.mode == ModeConnecting && s.connectSource == nodeID {
		s.mode = ModeIdle
		s.connectSource = ""
		s.connectPort = ""
	}
}

// Zoom returns the current zoom factor.
func (s *Session) Zoom() float64 {
	return s.zoom
}

// SetZoom clamps the zoom factor to [MinZoom, MaxZoom].
func (s *Session) SetZoom(z float64) {
	if z < MinZoom {
		z = MinZoom
	}
	if z > MaxZoom {
		z = MaxZoom
	}
	s.zoom = z
}

// ZoomBy adjusts the zoom factor by delta, clamped.
func (s *Session) ZoomBy(delta float64) {
	s.SetZoom(s.zoom + delta)
}

// Fit resets zoom to 1.0.
func (s *Session) Fit() {
	s.zoom = 1.0
}

// reason strips the structured prefix for user-facing toasts.
func reason(err error) string {
	if de, ok := err.(*schema.DesignError); ok {
		return de.Message
	}
	return err.Error()
}
