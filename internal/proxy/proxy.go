// Package proxy implements the caller-facing MCP protocol surface. Each
// tool call translates into exactly one HTTP request to the execution
// gateway; the proxy keeps no pipeline state of its own.
package proxy

import (
	"context"
	"log/slog"

	"github.com/jarscope/jarscope/internal/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// GatewayClient is the forwarding surface the proxy needs from the
// gateway's HTTP client.
type GatewayClient interface {
	Analyze(ctx context.Context, req pipeline.ResolutionRequest) (*pipeline.AnalysisResult, error)
	Decompile(ctx context.Context, req pipeline.DecompileRequest) (*pipeline.DecompiledUnit, error)
	FindAndDecompile(ctx context.Context, req pipeline.ResolutionRequest) (*pipeline.CombinedResult, error)
	Healthy(ctx context.Context) bool
	BaseURL() string
}

// Service holds the gateway client used by the MCP tool handlers.
type Service struct {
	client GatewayClient
	log    *slog.Logger
}

// NewService creates a Service forwarding to client.
func NewService(client GatewayClient, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{client: client, log: log.With("component", "proxy")}
}

// AnalyzeDependency forwards a resolve+locate request to the gateway.
func (s *Service) AnalyzeDependency(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AnalyzeInput,
) (*mcp.CallToolResult, AnalyzeOutput, error) {
	s.log.Info("forwarding analyze request", "dependencies", len(input.Dependencies))

	result, err := s.client.Analyze(ctx, pipeline.ResolutionRequest{
		Dependencies:  input.Dependencies,
		TargetClasses: input.TargetClasses,
		Repositories:  input.Repositories,
		WorkDir:       input.WorkDir,
	})
	if err != nil {
		return nil, AnalyzeOutput{}, err
	}
	return nil, AnalyzeOutput{Result: result}, nil
}

// DecompileClass forwards a decompile-one request to the gateway.
func (s *Service) DecompileClass(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DecompileInput,
) (*mcp.CallToolResult, DecompileOutput, error) {
	s.log.Info("forwarding decompile request", "entry", input.ClassFilePath)

	unit, err := s.client.Decompile(ctx, pipeline.DecompileRequest{
		JarPath:       input.JarPath,
		ClassFilePath: input.ClassFilePath,
	})
	if err != nil {
		return nil, DecompileOutput{}, err
	}
	return nil, DecompileOutput{Unit: unit}, nil
}

// FindAndDecompile forwards a one-shot resolve+locate+decompile request.
func (s *Service) FindAndDecompile(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input FindAndDecompileInput,
) (*mcp.CallToolResult, FindAndDecompileOutput, error) {
	s.log.Info("forwarding find_and_decompile request", "targets", len(input.TargetClasses))

	result, err := s.client.FindAndDecompile(ctx, pipeline.ResolutionRequest{
		Dependencies:  input.Dependencies,
		TargetClasses: input.TargetClasses,
		Repositories:  input.Repositories,
		WorkDir:       input.WorkDir,
	})
	if err != nil {
		return nil, FindAndDecompileOutput{}, err
	}
	return nil, FindAndDecompileOutput{Result: result}, nil
}

// NewMCPServer creates an MCP server with the three pipeline tools registered.
func NewMCPServer(svc *Service) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "jarscope-proxy",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "analyze_maven_dependency",
		Description: "Resolve Maven coordinates (plus their transitive dependencies), then locate the given simple class names inside the downloaded jars. Returns every matching location per name, the jar inventory, and a found/missing summary.",
	}, svc.AnalyzeDependency)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "decompile_class",
		Description: "Decompile one class entry from a previously resolved jar. Takes the jar path and the class entry path from an earlier analyze result and returns the decompiled source text.",
	}, svc.DecompileClass)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "find_and_decompile",
		Description: "One-shot pipeline: resolve the coordinates, locate the target class names, and decompile every match. Per-class decompilation failures are recorded inline and do not fail the call.",
	}, svc.FindAndDecompile)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}
