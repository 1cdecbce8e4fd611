package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/aretw0/cascade"
	"github.com/aretw0/cascade/internal/logging"
	"github.com/aretw0/cascade/internal/presentation/graph"
	"github.com/aretw0/cascade/pkg/domain"
	"github.com/aretw0/cascade/pkg/flow"
	"github.com/aretw0/cascade/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// FlowURI is the resource holding the Mermaid rendering of the flow.
const FlowURI = "cascade://flow"

// Pipeline is the part of the cascade engine exposed to MCP clients.
type Pipeline interface {
	Graph() *flow.Graph
	RunArtifact(ctx context.Context, path string) (*domain.RunReport, error)
}

// Server wraps a pipeline and exposes it as an MCP Server.
type Server struct {
	pipeline  Pipeline
	runs      ports.RunStore
	known     func(string) bool
	root      string
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithRunStore enables the list_runs and get_run tools.
func WithRunStore(s ports.RunStore) Option {
	return func(srv *Server) {
		srv.runs = s
	}
}

// WithKnown sets the check validate_flow applies to step names.
// Without it only the structure of a proposed flow is checked.
func WithKnown(known func(string) bool) Option {
	return func(srv *Server) {
		srv.known = known
	}
}

// WithRoot sets the directory run_pipeline inputs must live in.
func WithRoot(dir string) Option {
	return func(srv *Server) {
		srv.root = dir
	}
}

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) Option {
	return func(srv *Server) {
		srv.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(p Pipeline, opts ...Option) *Server {
	s := &Server{
		pipeline:  p,
		root:      ".",
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("cascade-mcp", strings.TrimSpace(cascade.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server, e.g. to serve it over another transport.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// FlowResult is the structured payload of get_flow.
type FlowResult struct {
	Steps   []string            `json:"steps" jsonschema_description:"Every step of the flow, sorted"`
	Entries []string            `json:"entries" jsonschema_description:"Steps triggered by the input artifact"`
	Edges   map[string][]string `json:"edges" jsonschema_description:"Step to ordered downstream steps"`
	Mermaid string              `json:"mermaid" jsonschema_description:"Mermaid flowchart of the flow"`
}

func (s *Server) registerTools() {
	// TOOL: get_flow
	s.mcpServer.AddTool(mcp.NewTool("get_flow",
		mcp.WithDescription("Get the flow graph: steps, entry steps, edges and a Mermaid rendering."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		g := s.pipeline.Graph()
		return jsonResult(FlowResult{
			Steps:   g.Steps(),
			Entries: g.Entries(),
			Edges:   g.Edges(),
			Mermaid: graph.GenerateMermaid(g, nil),
		})
	})

	// TOOL: validate_flow
	s.mcpServer.AddTool(mcp.NewTool("validate_flow",
		mcp.WithDescription("Validate a proposed flow. Reports cycles, unknown steps and reserved names. Without a flow, validates the loaded one."),
		mcp.WithString("flow", mcp.Description(`JSON object mapping each step to its downstream steps, e.g. {"doc":["brd"]}`)),
	), s.handleValidateFlow)

	// TOOL: run_pipeline
	s.mcpServer.AddTool(mcp.NewTool("run_pipeline",
		mcp.WithDescription("Run the pipeline over one input artifact and return the run report."),
		mcp.WithString("artifact", mcp.Required(), mcp.Description("Input file path, relative to the repository folder")),
	), s.handleRunPipeline)

	if s.runs == nil {
		return
	}

	// TOOL: list_runs
	s.mcpServer.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List the IDs of stored run reports."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ids, err := s.runs.List(ctx)
		if err != nil {
			return mcp.NewToolResultErrorFromErr("list failed", err), nil
		}
		return jsonResult(ids)
	})

	// TOOL: get_run
	s.mcpServer.AddTool(mcp.NewTool("get_run",
		mcp.WithDescription("Get a stored run report."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run identifier")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		runID, err := request.RequireString("run_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		report, err := s.runs.Load(ctx, runID)
		if err != nil {
			return mcp.NewToolResultErrorFromErr("load failed", err), nil
		}
		return jsonResult(newRunResult(report))
	})
}

func (s *Server) handleValidateFlow(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g := s.pipeline.Graph()
	if raw := request.GetString("flow", ""); raw != "" {
		var edges map[string][]string
		if err := json.Unmarshal([]byte(raw), &edges); err != nil {
			return mcp.NewToolResultErrorFromErr("flow is not a JSON object of string arrays", err), nil
		}
		g = flow.New(edges)
	}

	if g.Has(domain.InputContentKey) {
		return mcp.NewToolResultErrorf("invalid flow: %q is a reserved name", domain.InputContentKey), nil
	}
	if err := g.Validate(s.known); err != nil {
		return mcp.NewToolResultError("invalid flow: " + err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("flow is valid: %d steps, entries %v", len(g.Steps()), g.Entries())), nil
}

// RunResult is a run report with its derived status.
type RunResult struct {
	*domain.RunReport
	Status domain.RunStatus `json:"status"`
}

func newRunResult(r *domain.RunReport) RunResult {
	return RunResult{RunReport: r, Status: r.Status()}
}

func (s *Server) handleRunPipeline(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	artifact, err := request.RequireString("artifact")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if !filepath.IsLocal(artifact) {
		return mcp.NewToolResultError("artifact must be a relative path inside the repository"), nil
	}

	report, err := s.pipeline.RunArtifact(ctx, filepath.Join(s.root, artifact))
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return mcp.NewToolResultErrorFromErr("run failed", err), nil
	}
	s.logger.Info("MCP run finished", "artifact", artifact, "status", report.Status())
	return jsonResult(newRunResult(report))
}

func (s *Server) registerResources() {
	// EXPOSE: cascade://flow
	s.mcpServer.AddResource(mcp.NewResource(FlowURI, "Flow Graph",
		mcp.WithResourceDescription("Mermaid flowchart of the loaded flow"),
		mcp.WithMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      FlowURI,
				MIMEType: "text/vnd.mermaid",
				Text:     graph.GenerateMermaid(s.pipeline.Graph(), nil),
			},
		}, nil
	})
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultErrorFromErr("encode failed", err), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}
