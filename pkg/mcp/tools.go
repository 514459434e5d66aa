package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/acso/flowcanvas/internal/graph"
	"github.com/acso/flowcanvas/pkg/schema"
)

// handleCreate creates a new graph (empty or the sample).
func (s *FlowcanvasServer) handleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var graphID string
	var err error
	if req.GetBool("sample", false) {
		graphID, err = s.designer.SampleGraph()
	} else {
		graphID, err = s.designer.NewGraph(req.GetString("name", "Untitled Workflow"))
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("create failed: %v", err)), nil
	}
	return marshalResult(map[string]any{"graph_id": graphID})
}

// handleNodeAdd adds a node and optionally positions and configures it.
func (s *FlowcanvasServer) handleNodeAdd(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graphID, err := req.RequireString("graph_id")
	if err != nil {
		return mcp.NewToolResultError("graph_id is required"), nil
	}
	typeStr, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError("type is required"), nil
	}
	nodeType := schema.NodeType(typeStr)
	if !nodeType.Valid() {
		return mcp.NewToolResultError(fmt.Sprintf("unknown node type %q", typeStr)), nil
	}

	model, err := s.designer.Model(graphID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("graph lookup failed: %v", err)), nil
	}

	node := model.AddNode(nodeType)

	update := graph.NodeUpdate{}
	if label := req.GetString("label", ""); label != "" {
		update.Label = &label
	}
	x := req.GetFloat("x", 0)
	y := req.GetFloat("y", 0)
	if x != 0 || y != 0 {
		update.Position = &schema.Position{X: x, Y: y}
	}
	if cfg := mcp.ParseStringMap(req, "config", nil); cfg != nil {
		raw, err := json.Marshal(cfg)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid config: %v", err)), nil
		}
		update.Config = raw
	}
	model.UpdateNode(node.ID, update)

	added, _ := model.GetNode(node.ID)
	return marshalResult(added)
}

// handleNodeUpdate applies a partial update to an existing node. Only the
// arguments present in the call are merged.
func (s *FlowcanvasServer) handleNodeUpdate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graphID, err := req.RequireString("graph_id")
	if err != nil {
		return mcp.NewToolResultError("graph_id is required"), nil
	}
	nodeID, err := req.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError("node_id is required"), nil
	}

	model, err := s.designer.Model(graphID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("graph lookup failed: %v", err)), nil
	}
	existing, ok := model.GetNode(nodeID)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("node %s not found", nodeID)), nil
	}

	args := req.GetArguments()
	update := graph.NodeUpdate{}
	if _, present := args["label"]; present {
		label := req.GetString("label", "")
		update.Label = &label
	}
	if _, present := args["description"]; present {
		description := req.GetString("description", "")
		update.Description = &description
	}
	_, hasX := args["x"]
	_, hasY := args["y"]
	if hasX || hasY {
		pos := existing.Position
		if hasX {
			pos.X = req.GetFloat("x", pos.X)
		}
		if hasY {
			pos.Y = req.GetFloat("y", pos.Y)
		}
		update.Position = &pos
	}
	if cfg := mcp.ParseStringMap(req, "config", nil); cfg != nil {
		raw, err := json.Marshal(cfg)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid config: %v", err)), nil
		}
		update.Config = raw
	}
	model.UpdateNode(nodeID, update)

	updated, _ := model.GetNode(nodeID)
	return marshalResult(updated)
}

// handleNodeDelete removes a node; connections touching it go with it.
func (s *FlowcanvasServer) handleNodeDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graphID, err := req.RequireString("graph_id")
	if err != nil {
		return mcp.NewToolResultError("graph_id is required"), nil
	}
	nodeID, err := req.RequireString("node_id")
	if err != nil {
		return mcp.NewToolResultError("node_id is required"), nil
	}

	model, err := s.designer.Model(graphID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("graph lookup failed: %v", err)), nil
	}
	if _, ok := model.GetNode(nodeID); !ok {
		return mcp.NewToolResultError(fmt.Sprintf("node %s not found", nodeID)), nil
	}
	model.DeleteNode(nodeID)

	return marshalResult(map[string]any{"deleted": nodeID})
}

// handleConnect draws a connection between two nodes.
func (s *FlowcanvasServer) handleConnect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graphID, err := req.RequireString("graph_id")
	if err != nil {
		return mcp.NewToolResultError("graph_id is required"), nil
	}
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError("source is required"), nil
	}
	target, err := req.RequireString("target")
	if err != nil {
		return mcp.NewToolResultError("target is required"), nil
	}

	model, err := s.designer.Model(graphID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("graph lookup failed: %v", err)), nil
	}

	conn, err := model.AddConnection(source,
		schema.Port(req.GetString("source_port", "")),
		target,
		schema.Port(req.GetString("target_port", "")))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("connection rejected: %v", err)), nil
	}

	condition := req.GetString("condition", "")
	label := req.GetString("label", "")
	if condition != "" || label != "" {
		update := graph.ConnectionUpdate{}
		if condition != "" {
			update.Condition = &condition
		}
		if label != "" {
			update.Label = &label
		}
		model.UpdateConnection(conn.ID, update)
	}

	return marshalResult(conn)
}

// handleDisconnect removes a connection.
func (s *FlowcanvasServer) handleDisconnect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graphID, err := req.RequireString("graph_id")
	if err != nil {
		return mcp.NewToolResultError("graph_id is required"), nil
	}
	connID, err := req.RequireString("connection_id")
	if err != nil {
		return mcp.NewToolResultError("connection_id is required"), nil
	}

	model, err := s.designer.Model(graphID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("graph lookup failed: %v", err)), nil
	}
	model.DeleteConnection(connID)

	return marshalResult(map[string]any{"deleted": connID})
}

// handleGraph returns the full graph document.
func (s *FlowcanvasServer) handleGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graphID, err := req.RequireString("graph_id")
	if err != nil {
		return mcp.NewToolResultError("graph_id is required"), nil
	}
	g, err := s.designer.Graph(graphID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("graph lookup failed: %v", err)), nil
	}
	return marshalResult(g)
}

// handleValidate runs the validation pipeline.
func (s *FlowcanvasServer) handleValidate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graphID, err := req.RequireString("graph_id")
	if err != nil {
		return mcp.NewToolResultError("graph_id is required"), nil
	}
	result, err := s.designer.Validate(graphID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("validation failed: %v", err)), nil
	}
	return marshalResult(result)
}

// handleSimulate starts a run, waits for it to finish and returns the path,
// status and step log. Tool calls are synchronous, so blocking here gives the
// agent the full outcome in one round trip.
func (s *FlowcanvasServer) handleSimulate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graphID, err := req.RequireString("graph_id")
	if err != nil {
		return mcp.NewToolResultError("graph_id is required"), nil
	}
	runID, err := s.designer.Simulate(ctx, graphID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("simulation failed to start: %v", err)), nil
	}
	run, err := s.designer.Run(runID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("run lookup failed: %v", err)), nil
	}

	select {
	case <-run.Done():
	case <-ctx.Done():
		_ = s.designer.StopRun(runID)
		<-run.Done()
	}

	return marshalResult(map[string]any{
		"run_id": runID,
		"status": run.Status(),
		"path":   run.Path(),
		"nodes":  run.NodeStatuses(),
		"log":    run.Log(),
	})
}

// handleExport returns the graph's JSON download document.
func (s *FlowcanvasServer) handleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graphID, err := req.RequireString("graph_id")
	if err != nil {
		return mcp.NewToolResultError("graph_id is required"), nil
	}
	data, err := s.designer.Export(graphID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("export failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// handleSchedule registers a recurring smoke-run for a graph.
func (s *FlowcanvasServer) handleSchedule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	graphID, err := req.RequireString("graph_id")
	if err != nil {
		return mcp.NewToolResultError("graph_id is required"), nil
	}
	cronExpr, err := req.RequireString("cron")
	if err != nil {
		return mcp.NewToolResultError("cron is required"), nil
	}
	if s.scheduler == nil {
		return mcp.NewToolResultError("scheduling is disabled on this server"), nil
	}
	if _, err := s.designer.Graph(graphID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("graph lookup failed: %v", err)), nil
	}

	job, err := s.scheduler.AddJob(uuid.New().String(), graphID, cronExpr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("schedule failed: %v", err)), nil
	}
	return marshalResult(map[string]any{
		"job_id":      job.ID,
		"graph_id":    job.GraphID,
		"cron":        job.CronExpression,
		"next_run_at": job.NextRunAt,
	})
}

func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
