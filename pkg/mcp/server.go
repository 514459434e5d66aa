// Package mcp exposes the workflow designer over the Model Context Protocol
// so agents can build, validate and simulate graphs through tool calls.
package mcp

import (
	"context"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/acso/flowcanvas/internal/designer"
	"github.com/acso/flowcanvas/internal/scheduler"
)

// FlowcanvasServerDeps holds the dependencies for creating a FlowcanvasServer.
// Scheduler is optional; without it the canvas.schedule tool is still
// registered but reports that scheduling is disabled.
type FlowcanvasServerDeps struct {
	Designer  *designer.Designer
	Scheduler *scheduler.Scheduler
	Logger    *slog.Logger
}

// FlowcanvasServer wraps an MCP server with designer tool handlers.
type FlowcanvasServer struct {
	designer  *designer.Designer
	scheduler *scheduler.Scheduler
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// NewFlowcanvasServer creates a new FlowcanvasServer with all tools registered.
func NewFlowcanvasServer(deps FlowcanvasServerDeps) *FlowcanvasServer {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}

	s := &FlowcanvasServer{
		designer:  deps.Designer,
		scheduler: deps.Scheduler,
		logger:    logger,
	}

	mcpSrv := server.NewMCPServer(
		"flowcanvas",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Flowcanvas is a visual workflow designer. Use canvas.create to start a graph, canvas.node.add and canvas.connect to build it, canvas.validate to check it, canvas.simulate to walk it, and canvas.export to download the JSON document."),
	)

	mcpSrv.AddTools(s.tools()...)
	s.mcpServer = mcpSrv
	return s
}

// Serve starts the stdio transport and blocks until ctx is cancelled or stdin closes.
func (s *FlowcanvasServer) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcpServer)
	return stdio.Listen(ctx, os.Stdin, os.Stdout)
}

// MCPServer returns the underlying MCPServer for testing or custom transports.
func (s *FlowcanvasServer) MCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *FlowcanvasServer) tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: createTool(), Handler: s.handleCreate},
		{Tool: nodeAddTool(), Handler: s.handleNodeAdd},
		{Tool: nodeUpdateTool(), Handler: s.handleNodeUpdate},
		{Tool: nodeDeleteTool(), Handler: s.handleNodeDelete},
		{Tool: connectTool(), Handler: s.handleConnect},
		{Tool: disconnectTool(), Handler: s.handleDisconnect},
		{Tool: graphTool(), Handler: s.handleGraph},
		{Tool: validateTool(), Handler: s.handleValidate},
		{Tool: simulateTool(), Handler: s.handleSimulate},
		{Tool: exportTool(), Handler: s.handleExport},
		{Tool: scheduleTool(), Handler: s.handleSchedule},
	}
}

// --- Tool definitions ---

func createTool() mcp.Tool {
	return mcp.NewTool("canvas.create",
		mcp.WithDescription("Create a new workflow graph (empty, or the incident-response sample)"),
		mcp.WithString("name", mcp.Description("Name of the new graph (ignored when sample=true)")),
		mcp.WithBoolean("sample", mcp.Description("Seed the demo incident-response graph instead of an empty one")),
	)
}

func nodeAddTool() mcp.Tool {
	return mcp.NewTool("canvas.node.add",
		mcp.WithDescription("Add a node to a graph"),
		mcp.WithString("graph_id", mcp.Required(), mcp.Description("ID of the graph")),
		mcp.WithString("type", mcp.Required(), mcp.Description("Node type: start, end, task, decision, parallel, merge, delay, api or notification")),
		mcp.WithString("label", mcp.Description("Display label (defaults to the type's palette label)")),
		mcp.WithNumber("x", mcp.Description("Canvas x coordinate")),
		mcp.WithNumber("y", mcp.Description("Canvas y coordinate")),
		mcp.WithObject("config", mcp.Description("Type-specific configuration object")),
	)
}

func nodeUpdateTool() mcp.Tool {
	return mcp.NewTool("canvas.node.update",
		mcp.WithDescription("Update a node's label, description, position or config"),
		mcp.WithString("graph_id", mcp.Required(), mcp.Description("ID of the graph")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("ID of the node")),
		mcp.WithString("label", mcp.Description("New display label")),
		mcp.WithString("description", mcp.Description("New description")),
		mcp.WithNumber("x", mcp.Description("New canvas x coordinate")),
		mcp.WithNumber("y", mcp.Description("New canvas y coordinate")),
		mcp.WithObject("config", mcp.Description("Type-specific configuration object")),
	)
}

func nodeDeleteTool() mcp.Tool {
	return mcp.NewTool("canvas.node.delete",
		mcp.WithDescription("Delete a node and every connection attached to it"),
		mcp.WithString("graph_id", mcp.Required(), mcp.Description("ID of the graph")),
		mcp.WithString("node_id", mcp.Required(), mcp.Description("ID of the node")),
	)
}

func connectTool() mcp.Tool {
	return mcp.NewTool("canvas.connect",
		mcp.WithDescription("Connect two nodes (output port to input port)"),
		mcp.WithString("graph_id", mcp.Required(), mcp.Description("ID of the graph")),
		mcp.WithString("source", mcp.Required(), mcp.Description("Source node ID")),
		mcp.WithString("target", mcp.Required(), mcp.Description("Target node ID")),
		mcp.WithString("source_port", mcp.Description("Source output port (default: the node's default output)")),
		mcp.WithString("target_port", mcp.Description("Target input port (default: the node's default input)")),
		mcp.WithString("condition", mcp.Description("Guard expression evaluated during simulation")),
		mcp.WithString("label", mcp.Description("Display label for the connection")),
	)
}

func disconnectTool() mcp.Tool {
	return mcp.NewTool("canvas.disconnect",
		mcp.WithDescription("Delete a connection"),
		mcp.WithString("graph_id", mcp.Required(), mcp.Description("ID of the graph")),
		mcp.WithString("connection_id", mcp.Required(), mcp.Description("ID of the connection")),
	)
}

func graphTool() mcp.Tool {
	return mcp.NewTool("canvas.graph",
		mcp.WithDescription("Return the full graph document"),
		mcp.WithString("graph_id", mcp.Required(), mcp.Description("ID of the graph")),
	)
}

func validateTool() mcp.Tool {
	return mcp.NewTool("canvas.validate",
		mcp.WithDescription("Run the validation pipeline over a graph and return errors and warnings"),
		mcp.WithString("graph_id", mcp.Required(), mcp.Description("ID of the graph")),
	)
}

func simulateTool() mcp.Tool {
	return mcp.NewTool("canvas.simulate",
		mcp.WithDescription("Start a simulation run and wait for it to finish"),
		mcp.WithString("graph_id", mcp.Required(), mcp.Description("ID of the graph")),
	)
}

func exportTool() mcp.Tool {
	return mcp.NewTool("canvas.export",
		mcp.WithDescription("Export a graph as its JSON download document"),
		mcp.WithString("graph_id", mcp.Required(), mcp.Description("ID of the graph")),
	)
}

func scheduleTool() mcp.Tool {
	return mcp.NewTool("canvas.schedule",
		mcp.WithDescription("Register a recurring simulation smoke-run for a graph"),
		mcp.WithString("graph_id", mcp.Required(), mcp.Description("ID of the graph")),
		mcp.WithString("cron", mcp.Required(), mcp.Description("Cron expression (minute hour dom month dow)")),
	)
}
