package mediator

import (
	"fmt"
	"reflect"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Descriptor is the immutable routing record for one request type.
// Descriptors are produced by Register and never change afterwards.
type Descriptor struct {
	origin         string
	requestType    reflect.Type
	responseType   reflect.Type
	route          Route
	metadata       []any
	decodeRequest  func(jsontext.Value) (any, error)
	decodeResponse func(jsontext.Value) (any, error)
}

func (d *Descriptor) RequestType() reflect.Type  { return d.requestType }
func (d *Descriptor) ResponseType() reflect.Type { return d.responseType }
func (d *Descriptor) Route() Route               { return d.route }

// Metadata returns a copy of the annotations given at registration, in
// the order they were given.
func (d *Descriptor) Metadata() []any {
	if len(d.metadata) == 0 {
		return nil
	}
	return append([]any(nil), d.metadata...)
}

// Annotation finds the first metadata value that can be assigned to
// *target and stores it there.  target must be a non-nil pointer.
//
//	var policy AuthorizationPolicy
//	if d.Annotation(&policy) { ... }
func (d *Descriptor) Annotation(target any) bool {
	tv := reflect.ValueOf(target)
	if tv.Kind() != reflect.Ptr || tv.IsNil() {
		panic("mediator: Annotation target must be a non-nil pointer")
	}
	want := tv.Type().Elem()
	for _, m := range d.metadata {
		if m == nil {
			continue
		}
		mv := reflect.ValueOf(m)
		if mv.Type().AssignableTo(want) {
			tv.Elem().Set(mv)
			return true
		}
	}
	return false
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("%s %s -> %s", d.route, d.requestType, d.responseType)
}

// Registry is the set of request types a module exposes.  It plays the
// part of a module scan: every request type registers itself, usually
// from an init function next to the type, and the registry remembers the
// order for deterministic route installation.
//
// Registration is guarded by a lock.  Once a pipeline, client or server has
// been built from a registry it is frozen and read without locking.
type Registry struct {
	Name        string
	lock        sync.Mutex
	descriptors []*Descriptor
	byType      map[reflect.Type]*Descriptor
	byRoute     map[Route]*Descriptor
	frozen      atomic.Bool
}

// NewRegistry creates an empty registry.  The name is only used in
// error messages.
func NewRegistry(name string) *Registry {
	return &Registry{
		Name:    name,
		byType:  make(map[reflect.Type]*Descriptor),
		byRoute: make(map[Route]*Descriptor),
	}
}

// Register adds the request type Req, answering Resp, to the registry.
// The verb and URI template come from Req's Route method.  The metadata
// values are kept verbatim on the descriptor.
//
// Register panics with a *ConfigError when Req is already registered, when
// another type claims the same verb and template, when the verb is not one
// of GET, DELETE, POST, PUT and PATCH, or when the registry is frozen.
func Register[Req Request[Resp], Resp any](r *Registry, metadata ...any) *Descriptor {
	reqType := reflect.TypeOf((*Req)(nil)).Elem()
	switch reqType.Kind() {
	case reflect.Ptr, reflect.Interface:
		configPanicf(reqType.String(), "request types must be concrete non-pointer types")
	}
	var zero Req
	route := zero.Route()
	route.Method = strings.ToUpper(strings.TrimSpace(route.Method))
	if !isSupportedMethod(route.Method) {
		configPanicf(reqType.String(), "unsupported verb %q", route.Method)
	}
	if strings.TrimSpace(route.Template) == "" {
		configPanicf(reqType.String(), "empty URI template")
	}
	d := &Descriptor{
		origin:       r.Name,
		requestType:  reqType,
		responseType: reflect.TypeOf((*Resp)(nil)).Elem(),
		route:        route,
		decodeRequest: func(raw jsontext.Value) (any, error) {
			var req Req
			if err := json.Unmarshal(raw, &req); err != nil {
				return nil, err
			}
			return req, nil
		},
		decodeResponse: func(raw jsontext.Value) (any, error) {
			var resp Resp
			if err := json.Unmarshal(raw, &resp); err != nil {
				return nil, err
			}
			return resp, nil
		},
	}
	if len(metadata) > 0 {
		d.metadata = append([]any(nil), metadata...)
	}
	r.add(d)
	return d
}

func (r *Registry) add(d *Descriptor) {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.frozen.Load() {
		configPanicf(d.requestType.String(), "registry %q is frozen", r.Name)
	}
	if prev, found := r.byType[d.requestType]; found {
		configPanicf(d.requestType.String(), "already registered (%s) in %q", prev.route, prev.origin)
	}
	if prev, found := r.byRoute[d.route]; found {
		configPanicf(d.requestType.String(), "route %s already claimed by %s", d.route, prev.requestType)
	}
	r.descriptors = append(r.descriptors, d)
	r.byType[d.requestType] = d
	r.byRoute[d.route] = d
}

// Include copies the descriptors of other modules into r, after the ones
// already present and in their registration order.
func (r *Registry) Include(others ...*Registry) *Registry {
	for _, other := range others {
		if other == nil || other == r {
			continue
		}
		for _, d := range other.Descriptors() {
			r.add(d)
		}
	}
	return r
}

// Descriptors returns the registered descriptors in registration order.
func (r *Registry) Descriptors() []*Descriptor {
	if !r.isFrozen() {
		r.lock.Lock()
		defer r.lock.Unlock()
	}
	return append([]*Descriptor(nil), r.descriptors...)
}

// Lookup finds the descriptor of a request type.
func (r *Registry) Lookup(t reflect.Type) (*Descriptor, bool) {
	if !r.isFrozen() {
		r.lock.Lock()
		defer r.lock.Unlock()
	}
	d, found := r.byType[t]
	return d, found
}

func (r *Registry) mustLookup(req any) *Descriptor {
	if req == nil {
		configPanicf("", "nil request")
	}
	t := reflect.TypeOf(req)
	d, found := r.Lookup(t)
	if !found {
		configPanicf(t.String(), "request type is not registered in %q", r.Name)
	}
	return d
}

// Freeze stops further registration.  It is called by NewPipeline,
// NewClient and NewServer; calling it more than once is harmless.
func (r *Registry) Freeze() *Registry {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.frozen.Store(true)
	return r
}

func (r *Registry) isFrozen() bool {
	return r.frozen.Load()
}
