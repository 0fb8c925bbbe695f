package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"adokpi/internal/azdo"
	"adokpi/internal/config"
	"adokpi/internal/scoring"

	"github.com/rs/zerolog/log"
)

// JSONRPCRequest represents a standard MCP/JSON-RPC request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a standard MCP/JSON-RPC response.
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

// ProjectFetcher pulls a project's work items with their histories.
type ProjectFetcher interface {
	FetchProject(ctx context.Context, q azdo.Query) ([]scoring.ItemInput, []scoring.Diagnostic, error)
}

// Server holds the state for the MCP server.
type Server struct {
	client   azdo.Client
	fetcher  ProjectFetcher
	analysis config.Analysis

	// Session cache of analysis runs, keyed by project name. Fetching a
	// backlog is slow; consecutive tool calls on the same project reuse it.
	cacheMutex sync.Mutex
	cache      map[string]*cachedResult
	cacheTTL   time.Duration
}

type cachedResult struct {
	result     scoring.Result
	expiration time.Time
}

// NewServer creates a new MCP server.
func NewServer(client azdo.Client, fetcher ProjectFetcher, analysis config.Analysis) *Server {
	return &Server{
		client:   client,
		fetcher:  fetcher,
		analysis: analysis,
		cache:    make(map[string]*cachedResult),
		cacheTTL: 10 * time.Minute,
	}
}

// Serve starts the JSON-RPC loop over Stdio.
func (s *Server) Serve(ctx context.Context) error {
	reader := bufio.NewReader(os.Stdin)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		var req JSONRPCRequest
		if err := json.Unmarshal(line, &req); err != nil {
			log.Error().Err(err).Msg("Failed to unmarshal request")
			continue
		}

		s.handleRequest(ctx, req)
	}
}

func (s *Server) handleRequest(ctx context.Context, req JSONRPCRequest) {
	var result interface{}
	var errRes interface{}

	switch req.Method {
	case "initialize":
		result = map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities":    map[string]interface{}{},
			"serverInfo": map[string]interface{}{
				"name":    "adokpi",
				"version": "0.1.0",
			},
		}
	case "tools/list":
		result = s.listTools()
	case "tools/call":
		result, errRes = s.callTool(ctx, req.Params)
	default:
		errRes = map[string]interface{}{
			"code":    -32601,
			"message": fmt.Sprintf("Method %s not found", req.Method),
		}
	}

	resp := JSONRPCResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result:  result,
		Error:   errRes,
	}

	out, _ := json.Marshal(resp)
	fmt.Fprintf(os.Stdout, "%s\n", out)
}

func (s *Server) listTools() interface{} {
	return map[string]interface{}{
		"tools": []interface{}{
			map[string]interface{}{
				"name":        "list_projects",
				"description": "List the Azure DevOps projects available in the configured organization, optionally filtered by name.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"filter": map[string]interface{}{"type": "string", "description": "Case-insensitive substring of the project name"},
					},
				},
			},
			map[string]interface{}{
				"name":        "analyze_work_items",
				"description": "Run the time accounting and efficiency analysis over a project's work items. Returns per-item scores, the organization summary and process bottlenecks.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"project": map[string]interface{}{"type": "string"},
						"states":  map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
						"types":   map[string]interface{}{"type": "array", "items": map[string]interface{}{"type": "string"}},
						"from":    map[string]interface{}{"type": "string", "description": "Inclusive lower bound on the configured date field (YYYY-MM-DD)"},
						"to":      map[string]interface{}{"type": "string", "description": "Inclusive upper bound on the configured date field (YYYY-MM-DD)"},
					},
					"required": []string{"project"},
				},
			},
			map[string]interface{}{
				"name":        "assignee_scores",
				"description": "Return the per-assignee productivity aggregates for a project, optionally narrowed to a single assignee.",
				"inputSchema": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"project":  map[string]interface{}{"type": "string"},
						"assignee": map[string]interface{}{"type": "string"},
					},
					"required": []string{"project"},
				},
			},
		},
	}
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (interface{}, interface{}) {
	var call struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}
	if err := json.Unmarshal(params, &call); err != nil {
		return nil, map[string]interface{}{"code": -32602, "message": "Invalid params"}
	}

	var data interface{}
	var err error

	switch call.Name {
	case "list_projects":
		data, err = s.handleListProjects(ctx, call.Arguments)
	case "analyze_work_items":
		data, err = s.handleAnalyze(ctx, call.Arguments)
	case "assignee_scores":
		data, err = s.handleAssigneeScores(ctx, call.Arguments)
	default:
		return nil, map[string]interface{}{"code": -32601, "message": "Tool not found"}
	}

	if err != nil {
		return nil, map[string]interface{}{"code": -32000, "message": err.Error()}
	}

	return map[string]interface{}{
		"content": []interface{}{
			map[string]interface{}{
				"type": "text",
				"text": s.formatResult(data),
			},
		},
	}, nil
}

func (s *Server) formatResult(data interface{}) string {
	out, _ := json.MarshalIndent(data, "", "  ")
	return string(out)
}
