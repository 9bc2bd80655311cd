package mediator

import (
	"context"
	"fmt"
)

// Pipeline is an ordered chain of middleware in front of a terminal.  It
// is composed once by NewPipeline and then only read, so a single
// Pipeline may run any number of calls concurrently.
type Pipeline struct {
	registry *Registry
	names    []string
	run      Next
}

// NewPipeline composes the middleware, outermost first, in front of the
// terminal.  The registry is frozen: the set of request types cannot change
// once a pipeline serves them.
//
// NewPipeline panics if the terminal or any middleware is nil.
func NewPipeline(registry *Registry, terminal Terminal, middleware ...Middleware) *Pipeline {
	if registry == nil {
		panic("mediator: a registry must be provided")
	}
	if terminal == nil {
		panic("mediator: a terminal must be provided")
	}
	registry.Freeze()

	names := make([]string, 0, len(middleware)+1)
	for i, m := range middleware {
		if m == nil {
			panic(fmt.Sprintf("mediator: middleware #%d is nil", i))
		}
		names = append(names, describe(m))
	}
	names = append(names, describe(terminal))

	// Wrap from the inside out so that middleware[0] runs first.
	f := Next(terminal.Serve)
	for i := len(middleware) - 1; i >= 0; i-- {
		inner := f
		m := middleware[i]
		f = func(ctx context.Context, call Call) (HTTPResult[any], error) {
			return m.Handle(ctx, call, inner)
		}
	}

	return &Pipeline{
		registry: registry,
		names:    names,
		run:      f,
	}
}

// Registry returns the (frozen) registry the pipeline serves.
func (p *Pipeline) Registry() *Registry { return p.registry }

// Stages describes the stages in execution order; the terminal is last.
func (p *Pipeline) Stages() []string {
	return append([]string(nil), p.names...)
}

// Run executes the pipeline for an already-described call.  It is the
// untyped entry point used by the server.
func (p *Pipeline) Run(ctx context.Context, call Call) (HTTPResult[any], error) {
	if call.Descriptor == nil {
		call.Descriptor = p.registry.mustLookup(call.Request)
	}
	if err := ctx.Err(); err != nil {
		return HTTPResult[any]{}, err
	}
	return p.run(ctx, call)
}

// Execute runs req through the pipeline and returns the typed result.
//
// The error is non-nil only for cancellation, or for faults when no
// exception boundary is installed.  Every other failure is a failed
// HTTPResult.  Execute panics with a *ConfigError if the request type is
// not registered.
func Execute[Resp any](ctx context.Context, p *Pipeline, req Request[Resp]) (HTTPResult[Resp], error) {
	d := p.registry.mustLookup(req)
	r, err := p.Run(ctx, Call{Descriptor: d, Request: req})
	if err != nil {
		return HTTPResult[Resp]{}, err
	}
	return restore[Resp](r), nil
}

type describer interface {
	Describe() string
}

func describe(stage any) string {
	if d, ok := stage.(describer); ok {
		return d.Describe()
	}
	return fmt.Sprintf("%T", stage)
}
