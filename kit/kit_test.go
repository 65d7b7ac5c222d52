package kit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var testImpl = &mcp.Implementation{Name: "kit-test", Version: "0.1.0"}

type echoRequest struct {
	Msg string `json:"msg"`
}

func (r *echoRequest) Validate() error {
	if r.Msg == "reject" {
		return errors.New("msg rejected")
	}
	return nil
}

func session(t *testing.T, handle Handler[echoRequest], opts ...MCPOption) *mcp.ClientSession {
	t.Helper()
	srv := mcp.NewServer(testImpl, nil)
	RegisterMCPTool(srv, &mcp.Tool{
		Name: "echo",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{"msg": map[string]any{"type": "string"}},
		},
	}, handle, opts...)

	serverT, clientT := mcp.NewInMemoryTransports()
	ctx := context.Background()
	go func() {
		_ = srv.Run(ctx, serverT)
	}()

	client := mcp.NewClient(testImpl, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { cs.Close() })
	return cs
}

func echo(ctx context.Context, req *echoRequest) (any, error) {
	return map[string]string{
		"msg":        req.Msg,
		"transport":  GetTransport(ctx),
		"request_id": GetRequestID(ctx),
	}, nil
}

func call(t *testing.T, cs *mcp.ClientSession, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: "echo", Arguments: args})
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func decodeText(t *testing.T, res *mcp.CallToolResult) map[string]string {
	t.Helper()
	if res.IsError {
		t.Fatalf("tool error: %+v", res.Content)
	}
	var got map[string]string
	if err := json.Unmarshal([]byte(res.Content[0].(*mcp.TextContent).Text), &got); err != nil {
		t.Fatal(err)
	}
	return got
}

func TestRegisterMCPTool(t *testing.T) {
	cs := session(t, echo, WithMCPRequestID(func() string { return "req_1" }))
	got := decodeText(t, call(t, cs, map[string]any{"msg": "hi"}))
	if got["msg"] != "hi" || got["transport"] != "mcp" || got["request_id"] != "req_1" {
		t.Errorf("response: %v", got)
	}
}

func TestRegisterMCPTool_FreshRequestIDs(t *testing.T) {
	cs := session(t, echo)
	a := decodeText(t, call(t, cs, map[string]any{"msg": "a"}))["request_id"]
	b := decodeText(t, call(t, cs, map[string]any{"msg": "b"}))["request_id"]
	if a == "" || a == b {
		t.Errorf("request ids: %q, %q", a, b)
	}
}

func TestRegisterMCPTool_AbsentArguments(t *testing.T) {
	cs := session(t, echo)
	if got := decodeText(t, call(t, cs, nil)); got["msg"] != "" {
		t.Errorf("msg: got %q", got["msg"])
	}
}

func TestRegisterMCPTool_ValidateRejects(t *testing.T) {
	called := false
	cs := session(t, func(ctx context.Context, req *echoRequest) (any, error) {
		called = true
		return echo(ctx, req)
	})
	res := call(t, cs, map[string]any{"msg": "reject"})
	if !res.IsError {
		t.Fatal("expected tool error")
	}
	if called {
		t.Error("handler ran after failed validation")
	}
}

func TestRegisterMCPTool_HandlerError(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	cs := session(t, func(context.Context, *echoRequest) (any, error) {
		return nil, errors.New("boom")
	}, WithMCPLogger(logger), WithMCPRequestID(func() string { return "req_9" }))

	if res := call(t, cs, map[string]any{"msg": "hi"}); !res.IsError {
		t.Error("expected tool error")
	}
	out := logs.String()
	for _, want := range []string{"kit: mcp tool failed", "tool=echo", "request_id=req_9", "error=boom"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}
}

func TestContext_Transport(t *testing.T) {
	ctx := context.Background()
	if v := GetTransport(ctx); v != "http" {
		t.Fatalf("default transport: got %q, want 'http'", v)
	}
	if v := GetTransport(WithTransport(ctx, "mcp")); v != "mcp" {
		t.Fatalf("transport: got %q", v)
	}
}

func TestContext_RequestID(t *testing.T) {
	if v := GetRequestID(context.Background()); v != "" {
		t.Fatalf("request_id default: got %q", v)
	}
	ctx := WithRequestID(context.Background(), "req_abc")
	if v := GetRequestID(ctx); v != "req_abc" {
		t.Fatalf("request_id: got %q", v)
	}
}
