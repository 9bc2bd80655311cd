package mediator

import (
	"context"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
)

type erasedHandler func(ctx context.Context, req any) (HTTPResult[any], error)

// Dispatcher is the server-side terminal: a table of in-process handlers
// keyed by request type.  Handlers are added with Handle before the
// dispatcher is checked against a registry (Server.Start does that);
// after that the table is read-only.
type Dispatcher struct {
	lock     sync.Mutex
	handlers map[reflect.Type]erasedHandler
	frozen   atomic.Bool
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[reflect.Type]erasedHandler)}
}

// Handle binds the handler for request type Req.  Binding a second handler
// for the same type panics.
func Handle[Req Request[Resp], Resp any](d *Dispatcher, h HandlerFunc[Req, Resp]) *Dispatcher {
	t := reflect.TypeOf((*Req)(nil)).Elem()
	if h == nil {
		configPanicf(t.String(), "nil handler")
	}
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.frozen.Load() {
		configPanicf(t.String(), "dispatcher is already in use")
	}
	if _, found := d.handlers[t]; found {
		configPanicf(t.String(), "handler already registered")
	}
	d.handlers[t] = func(ctx context.Context, req any) (HTTPResult[any], error) {
		typed, ok := req.(Req)
		if !ok {
			return HTTPResult[any]{}, fmt.Errorf("mediator: handler for %s received a %T", t, req)
		}
		r, err := h(ctx, typed)
		if err != nil {
			return HTTPResult[any]{}, err
		}
		if r.statusCode == 0 {
			return HTTPResult[any]{}, fmt.Errorf("mediator: handler for %s returned an unbuilt result", t)
		}
		return erase(r), nil
	}
	return d
}

// Check verifies that every descriptor in the registry has a handler and
// freezes the dispatcher.  It panics with a *ConfigError naming the first
// request type without one.
func (d *Dispatcher) Check(r *Registry) {
	d.lock.Lock()
	defer d.lock.Unlock()
	for _, desc := range r.Descriptors() {
		if _, found := d.handlers[desc.requestType]; !found {
			configPanicf(desc.requestType.String(), "no handler registered")
		}
	}
	d.frozen.Store(true)
}

func (d *Dispatcher) lookup(t reflect.Type) (erasedHandler, bool) {
	if !d.frozen.Load() {
		d.lock.Lock()
		defer d.lock.Unlock()
	}
	h, found := d.handlers[t]
	return h, found
}

// Serve invokes the handler bound to the call's request type.
func (d *Dispatcher) Serve(ctx context.Context, call Call) (HTTPResult[any], error) {
	h, found := d.lookup(call.Descriptor.requestType)
	if !found {
		configPanicf(call.Descriptor.requestType.String(), "no handler registered")
	}
	return h(ctx, call.Request)
}

func (d *Dispatcher) Describe() string { return "dispatch" }
