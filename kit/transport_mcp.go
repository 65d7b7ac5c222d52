package kit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/adswap/idgen"
)

// MCPOption configures RegisterMCPTool.
type MCPOption func(*mcpConfig)

type mcpConfig struct {
	logger *slog.Logger
	newID  idgen.Generator
}

// WithMCPLogger sets the logger for call and failure records.
func WithMCPLogger(l *slog.Logger) MCPOption {
	return func(c *mcpConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMCPRequestID sets the generator for per-call request IDs.
// Default: idgen.Default.
func WithMCPRequestID(gen idgen.Generator) MCPOption {
	return func(c *mcpConfig) {
		if gen != nil {
			c.newID = gen
		}
	}
}

// RegisterMCPTool registers handle as tool on srv.
//
// The call's arguments are decoded into a Req; absent arguments leave it
// zero. If *Req implements Validator it runs before handle. The handler's
// context carries transport "mcp" and a fresh request ID. Decode,
// validation and handler errors become tool errors, never protocol errors.
// The response is returned as one JSON text content.
func RegisterMCPTool[Req any](srv *mcp.Server, tool *mcp.Tool, handle Handler[Req], opts ...MCPOption) {
	cfg := mcpConfig{logger: slog.Default(), newID: idgen.New}
	for _, o := range opts {
		o(&cfg)
	}

	srv.AddTool(tool, func(ctx context.Context, call *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := cfg.newID()
		ctx = WithRequestID(WithTransport(ctx, "mcp"), id)
		log := cfg.logger.With("tool", tool.Name, "request_id", id)

		req, err := decodeArgs[Req](call.Params.Arguments)
		if err != nil {
			log.Warn("kit: mcp invalid arguments", "error", err)
			return toolError(fmt.Errorf("invalid arguments: %w", err)), nil
		}

		start := time.Now()
		resp, err := handle(ctx, req)
		if err != nil {
			log.Warn("kit: mcp tool failed", "error", err, "duration", time.Since(start))
			return toolError(err), nil
		}

		data, err := json.Marshal(resp)
		if err != nil {
			return toolError(fmt.Errorf("marshal: %w", err)), nil
		}
		log.Debug("kit: mcp tool served", "duration", time.Since(start), "bytes", len(data))
		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
		}, nil
	})
}

func decodeArgs[Req any](raw json.RawMessage) (*Req, error) {
	req := new(Req)
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, req); err != nil {
			return nil, err
		}
	}
	if v, ok := any(req).(Validator); ok {
		if err := v.Validate(); err != nil {
			return nil, err
		}
	}
	return req, nil
}

func toolError(err error) *mcp.CallToolResult {
	var res mcp.CallToolResult
	res.SetError(err)
	return &res
}
