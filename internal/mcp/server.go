// Package mcp exposes annotation over the Model Context Protocol so agents
// and editors can annotate source without shelling out to the CLI.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/standardbeagle/puremark/internal/config"
	"github.com/standardbeagle/puremark/internal/pipeline"
	"github.com/standardbeagle/puremark/internal/purity"
	"github.com/standardbeagle/puremark/internal/transform"
	"github.com/standardbeagle/puremark/internal/version"
)

// Server wraps an MCP server with the annotation tool set.
type Server struct {
	server *mcp.Server
	cfg    *config.Config
}

// NewServer creates the MCP server and registers all tools. cfg supplies
// the defaults used when a tool call does not override them.
func NewServer(cfg *config.Config) *Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "puremark-mcp-server",
		Version: version.Version,
	}, nil)

	s := &Server{server: server, cfg: cfg}
	s.registerTools()
	return s
}

// Run serves MCP over stdio until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	s.server.AddTool(&mcp.Tool{
		Name:        "annotate_source",
		Description: "Annotate eligible top-level calls and constructor invocations in a source snippet with /*#__PURE__*/ markers. Returns the rewritten source and per-verdict counts. Idempotent: already annotated input comes back unchanged.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"source": {
					Type:        "string",
					Description: "JavaScript or TypeScript source text",
				},
				"filename": {
					Type:        "string",
					Description: "File name used to pick the grammar by extension (default input.js)",
				},
				"denylist_extend": {
					Type:        "array",
					Description: "Extra callee names to treat as side-effecting helpers",
					Items:       &jsonschema.Schema{Type: "string"},
				},
				"verify": {
					Type:        "boolean",
					Description: "Re-parse the rewritten output as a syntax check",
				},
			},
			Required: []string{"source"},
		},
	}, s.handleAnnotateSource)

	s.server.AddTool(&mcp.Tool{
		Name:        "classify_calls",
		Description: "Classify every call-like expression in a source snippet without rewriting. Reports line, callee, argument count and the verdict (eligible, not-top-level, has-arguments, denylisted-callee) for each site.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"source": {
					Type:        "string",
					Description: "JavaScript or TypeScript source text",
				},
				"filename": {
					Type:        "string",
					Description: "File name used to pick the grammar by extension (default input.js)",
				},
				"denylist_extend": {
					Type:        "array",
					Description: "Extra callee names to treat as side-effecting helpers",
					Items:       &jsonschema.Schema{Type: "string"},
				},
			},
			Required: []string{"source"},
		},
	}, s.handleClassifyCalls)

	s.server.AddTool(&mcp.Tool{
		Name:        "annotate_project",
		Description: "Run the annotation pass over a whole project tree. With check true, reports which files would change without writing.",
		InputSchema: &jsonschema.Schema{
			Type: "object",
			Properties: map[string]*jsonschema.Schema{
				"root": {
					Type:        "string",
					Description: "Project root directory (default: configured root)",
				},
				"check": {
					Type:        "boolean",
					Description: "Report only, do not rewrite files",
				},
			},
		},
	}, s.handleAnnotateProject)
}

type sourceParams struct {
	Source         string   `json:"source"`
	Filename       string   `json:"filename"`
	DenylistExtend []string `json:"denylist_extend"`
	Verify         bool     `json:"verify"`
}

func (p *sourceParams) options(cfg *config.Config) (string, transform.Options) {
	filename := p.Filename
	if filename == "" {
		filename = "input.js"
	}

	denylist := purity.DefaultDenylist()
	if cfg != nil {
		denylist = cfg.Denylist.Resolve()
	}
	if len(p.DenylistExtend) > 0 {
		denylist = denylist.Extend(p.DenylistExtend...)
	}

	return filename, transform.Options{Denylist: denylist, Verify: p.Verify}
}

func (s *Server) handleAnnotateSource(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params sourceParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("annotate_source", fmt.Errorf("invalid parameters: %w", err))
	}
	if params.Source == "" {
		return createErrorResponse("annotate_source", fmt.Errorf("source is required"))
	}

	filename, opts := params.options(s.cfg)
	out, stats, err := transform.New().Source(filename, []byte(params.Source), opts)
	if err != nil {
		return createErrorResponse("annotate_source", err)
	}

	return createJSONResponse(map[string]interface{}{
		"success": true,
		"source":  string(out),
		"changed": string(out) != params.Source,
		"stats":   stats,
	})
}

func (s *Server) handleClassifyCalls(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params sourceParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("classify_calls", fmt.Errorf("invalid parameters: %w", err))
	}
	if params.Source == "" {
		return createErrorResponse("classify_calls", fmt.Errorf("source is required"))
	}

	filename, opts := params.options(s.cfg)
	reports, stats, err := transform.New().Inspect(filename, []byte(params.Source), opts)
	if err != nil {
		return createErrorResponse("classify_calls", err)
	}

	return createJSONResponse(map[string]interface{}{
		"success": true,
		"sites":   reports,
		"stats":   stats,
	})
}

type projectParams struct {
	Root  string `json:"root"`
	Check bool   `json:"check"`
}

func (s *Server) handleAnnotateProject(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var params projectParams
	if err := json.Unmarshal(req.Params.Arguments, &params); err != nil {
		return createErrorResponse("annotate_project", fmt.Errorf("invalid parameters: %w", err))
	}

	cfg := s.cfg
	if params.Root != "" {
		loaded, err := config.Load(params.Root)
		if err != nil {
			return createErrorResponse("annotate_project", err)
		}
		cfg = loaded
	}
	if cfg == nil {
		return createErrorResponse("annotate_project", fmt.Errorf("no project root configured"))
	}

	mode := pipeline.ModeAnnotate
	if params.Check {
		mode = pipeline.ModeCheck
	}

	opts := transform.Options{Denylist: cfg.Denylist.Resolve(), Verify: cfg.Verify}
	summary, results, err := pipeline.NewRunner(cfg, opts, mode).Run(ctx)
	if err != nil {
		return createErrorResponse("annotate_project", err)
	}

	changed := make([]string, 0, summary.Changed)
	failures := make(map[string]string)
	for _, res := range results {
		if res.Err != nil {
			failures[res.Path] = res.Err.Error()
			continue
		}
		if res.Changed {
			changed = append(changed, res.Path)
		}
	}

	return createJSONResponse(map[string]interface{}{
		"success":  true,
		"root":     cfg.Project.Root,
		"summary":  summary,
		"changed":  changed,
		"failures": failures,
	})
}
