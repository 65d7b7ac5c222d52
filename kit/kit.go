// Package kit holds the transport glue shared by the adswap surfaces: the
// typed handler shape the MCP tools are registered with, and the
// request-scoped values both HTTP and MCP attach to the context.
package kit

import "context"

// Handler serves one decoded request of type Req. The returned value must
// be JSON-encodable.
type Handler[Req any] func(ctx context.Context, req *Req) (any, error)

// Validator is implemented by requests that check their own fields once
// decoded.
type Validator interface {
	Validate() error
}
