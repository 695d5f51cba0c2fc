package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/benny2744/capstone-status/internal/batch"
	"github.com/benny2744/capstone-status/internal/config"
	"github.com/benny2744/capstone-status/internal/descriptions"
	"github.com/benny2744/capstone-status/internal/pdf/security"
	"github.com/benny2744/capstone-status/internal/report"
)

// Tool names
const (
	ToolDecodeFile      = "report_decode_file"
	ToolDecodePage      = "report_decode_page"
	ToolDecodeDirectory = "report_decode_directory"
	ToolServerInfo      = "report_server_info"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	processor *batch.Processor
	paths     *security.PathValidator
	logger    *zap.Logger
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance. Every path a tool receives
// is resolved through paths.
func NewServer(cfg *config.Config, processor *batch.Processor, paths *security.PathValidator, logger *zap.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if processor == nil {
		return nil, fmt.Errorf("processor cannot be nil")
	}
	if paths == nil {
		return nil, fmt.Errorf("path validator cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		processor: processor,
		paths:     paths,
		logger:    logger,
		mcpServer: mcpServer,
	}
	s.registerTools()

	return s, nil
}

func (s *Server) registerTools() {
	decodeFileTool := mcp.NewTool(
		ToolDecodeFile,
		mcp.WithDescription(descriptions.DecodeFileDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the report PDF, absolute or relative to the reports directory"),
		),
	)
	s.mcpServer.AddTool(decodeFileTool, s.handleDecodeFile)

	decodePageTool := mcp.NewTool(
		ToolDecodePage,
		mcp.WithDescription(descriptions.DecodePageDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the report PDF, absolute or relative to the reports directory"),
		),
		mcp.WithNumber("page",
			mcp.Required(),
			mcp.Description("Page number, starting at 1"),
		),
	)
	s.mcpServer.AddTool(decodePageTool, s.handleDecodePage)

	decodeDirectoryTool := mcp.NewTool(
		ToolDecodeDirectory,
		mcp.WithDescription(descriptions.DecodeDirectoryDescription),
		mcp.WithString("directory",
			mcp.Description("Directory to scan (defaults to the reports directory)"),
		),
		mcp.WithString("pattern",
			mcp.Description("File name pattern (defaults to the configured pattern)"),
		),
		mcp.WithBoolean("write",
			mcp.Description("Also write the student records to the configured output file"),
		),
	)
	s.mcpServer.AddTool(decodeDirectoryTool, s.handleDecodeDirectory)

	serverInfoTool := mcp.NewTool(
		ToolServerInfo,
		mcp.WithDescription(descriptions.ServerInfoDescription),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

func (s *Server) handleDecodeFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resolved, err := s.paths.ResolveFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := s.processor.ProcessDocument(ctx, resolved)
	if err != nil {
		if errors.Is(err, batch.ErrUnidentified) {
			return mcp.NewToolResultError(fmt.Sprintf("%s: %v", resolved, err)), nil
		}
		s.logger.Warn("decode failed", zap.String("path", resolved), zap.Error(err))
		return mcp.NewToolResultError(err.Error()), nil
	}

	body, err := report.Marshal(res.Student)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(s.formatDocumentResult(res) + "\n" + string(body)), nil
}

func (s *Server) handleDecodePage(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	page, err := request.RequireInt("page")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	resolved, err := s.paths.ResolveFile(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	pr, err := s.processor.ExplainPage(resolved, page)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	body, err := report.Marshal(pr)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

func (s *Server) handleDecodeDirectory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	directory := s.config.ReportDirectory
	if dir, ok := args["directory"].(string); ok && dir != "" {
		directory = dir
	}
	pattern := s.config.Pattern
	if p, ok := args["pattern"].(string); ok && p != "" {
		pattern = p
	}
	write, _ := args["write"].(bool)

	resolved, err := s.paths.ResolveDirectory(directory)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summary, err := s.processor.ProcessDirectory(ctx, resolved, pattern)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	text := formatSummary(summary)
	if write {
		store := report.NewStore(s.config.OutputFile)
		if err := store.Write(summary.Students); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("decoded %d documents but failed to write output: %v", summary.Succeeded, err)), nil
		}
		text += fmt.Sprintf("Output written to: %s\n", store.Path())
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(s.formatServerInfo()), nil
}

func (s *Server) formatDocumentResult(res *batch.DocumentResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Decoded report: %s\n", res.Path)
	fmt.Fprintf(&b, "Student: %s (%s)\n", res.Student.ChineseName, res.Student.EnglishName)
	fmt.Fprintf(&b, "Pages: %d\n", res.Pages)
	fmt.Fprintf(&b, "Courses: %d\n", len(res.Student.Courses))
	if res.DefaultedGrades > 0 {
		fmt.Fprintf(&b, "Defaulted grades: %d (no indicator found, reported as %s)\n",
			res.DefaultedGrades, report.GradeLabel(s.config.DefaultGrade))
	}
	for _, e := range res.PageErrors {
		fmt.Fprintf(&b, "Page error: %s\n", e)
	}
	if res.Cached {
		b.WriteString("Served from cache\n")
	}
	return b.String()
}

func formatSummary(sum *batch.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Documents: %d\n", sum.Documents)
	fmt.Fprintf(&b, "Succeeded: %d\n", sum.Succeeded)
	if sum.Cached > 0 {
		fmt.Fprintf(&b, "Cached: %d\n", sum.Cached)
	}
	fmt.Fprintf(&b, "Students: %d\n", len(sum.Students))
	fmt.Fprintf(&b, "Pages: %d\n", sum.Pages)
	fmt.Fprintf(&b, "Courses: %d\n", sum.Courses)
	fmt.Fprintf(&b, "Defaulted grades: %d\n", sum.DefaultedGrades)
	if sum.Cancelled {
		b.WriteString("Run was cancelled before every document was processed\n")
	}
	if len(sum.Skipped) > 0 {
		b.WriteString("\nSkipped (file name does not identify a student):\n")
		for _, path := range sum.Skipped {
			fmt.Fprintf(&b, "  • %s\n", path)
		}
	}
	if len(sum.Failures) > 0 {
		b.WriteString("\nFailures:\n")
		for _, f := range sum.Failures {
			fmt.Fprintf(&b, "  • %s: %s\n", f.Path, f.Error)
		}
	}
	return b.String()
}

func (s *Server) formatServerInfo() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n\n", s.config.ServerName, s.config.Version)
	fmt.Fprintf(&b, "Reports directory: %s\n", s.paths.Root())
	fmt.Fprintf(&b, "Pattern: %s\n", s.config.Pattern)
	fmt.Fprintf(&b, "Output file: %s\n", s.config.OutputFile)
	fmt.Fprintf(&b, "Band strategy: %s\n", s.config.Strategy)
	fmt.Fprintf(&b, "Slot tolerance: %.1f\n", s.config.Tolerance)
	fmt.Fprintf(&b, "Default grade: %s\n", report.GradeLabel(s.config.DefaultGrade))
	fmt.Fprintf(&b, "Workers: %d\n", s.config.Workers)

	b.WriteString("\nAvailable Tools:\n")
	for _, tool := range []struct{ name, usage string }{
		{ToolDecodeFile, "path: report PDF"},
		{ToolDecodePage, "path: report PDF, page: page number"},
		{ToolDecodeDirectory, "directory, pattern, write (all optional)"},
		{ToolServerInfo, "no parameters"},
	} {
		fmt.Fprintf(&b, "  • %s (%s)\n", tool.name, tool.usage)
	}
	return b.String()
}

// Run serves MCP over standard I/O until the client disconnects
func (s *Server) Run(ctx context.Context) error {
	return s.runStdioMode(ctx)
}

func (s *Server) runStdioMode(_ context.Context) error {
	s.logger.Debug("starting MCP server in stdio mode",
		zap.String("directory", s.paths.Root()),
		zap.String("pattern", s.config.Pattern))

	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
