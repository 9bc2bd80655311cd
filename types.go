package mediator

import (
	"context"
	"net/http"
)

// Call is what flows down the pipeline: the request instance together
// with the descriptor of its type.
type Call struct {
	Descriptor *Descriptor
	Request    any

	// Inbound is set only on the server side.  It is the one documented
	// way for a middleware to answer the wire request directly: anything
	// written to Inbound.Writer marks the response as started and the
	// server will then not write the pipeline's result.
	Inbound *Inbound
}

// Inbound gives server-side middleware access to the wire request.
type Inbound struct {
	Writer  http.ResponseWriter
	Request *http.Request
}

// WithRequest returns a copy of the call carrying a different request
// instance of the same type.  Middleware use it to transform the request
// before calling next.
func (c Call) WithRequest(req any) Call {
	c.Request = req
	return c
}

// Next invokes the remainder of the pipeline.  It is handed to each
// Middleware; calling it more than once re-runs everything downstream.
type Next func(ctx context.Context, call Call) (HTTPResult[any], error)

// Middleware handlers wrap all downstream stages.  A middleware may:
//
//   - look at or replace the request before calling next,
//   - look at or replace the result after next returns,
//   - return a result without calling next at all (short-circuit),
//   - call next inside a failure boundary and translate faults into results.
//
// The error return is not for domain failures; those are HTTPResult values.
// It carries cancellation (ctx.Err()) and unexpected faults that the
// exception boundary has not yet translated.
type Middleware interface {
	Handle(ctx context.Context, call Call, next Next) (HTTPResult[any], error)
}

// MiddlewareFunc adapts a function to Middleware.
type MiddlewareFunc func(ctx context.Context, call Call, next Next) (HTTPResult[any], error)

func (f MiddlewareFunc) Handle(ctx context.Context, call Call, next Next) (HTTPResult[any], error) {
	return f(ctx, call, next)
}

// Terminal is the last stage of a pipeline.  It never calls a further
// stage.  On the client it is the transport; on the server it is the
// handler dispatch table.
type Terminal interface {
	Serve(ctx context.Context, call Call) (HTTPResult[any], error)
}

// TerminalFunc adapts a function to Terminal.
type TerminalFunc func(ctx context.Context, call Call) (HTTPResult[any], error)

func (f TerminalFunc) Serve(ctx context.Context, call Call) (HTTPResult[any], error) {
	return f(ctx, call)
}

// HandlerFunc is an in-process request handler.  Expected failures are
// returned as failed results; a returned error (or a panic) is an
// unexpected fault and is translated by the exception boundary.
type HandlerFunc[Req any, Resp any] func(ctx context.Context, req Req) (HTTPResult[Resp], error)
