package mediator_test

import (
	"net/http"
	"reflect"
	"testing"

	"github.com/BlueOwlOpenSource/mediator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type policy struct {
	Role string
}

type PingAgain struct {
	mediator.Returns[Pong]
}

func (PingAgain) Route() mediator.Route {
	return mediator.Route{Method: http.MethodGet, Template: "/ping"}
}

type Head struct {
	mediator.Returns[Pong]
}

func (Head) Route() mediator.Route {
	return mediator.Route{Method: http.MethodHead, Template: "/head"}
}

type Untemplated struct {
	mediator.Returns[Pong]
}

func (Untemplated) Route() mediator.Route {
	return mediator.Route{Method: http.MethodPut}
}

type Lowercase struct {
	mediator.Returns[Pong]
}

func (Lowercase) Route() mediator.Route {
	return mediator.Route{Method: "patch", Template: "/lower"}
}

func TestRegisterKeepsOrder(t *testing.T) {
	t.Parallel()
	r := testRegistry("order")
	var types []reflect.Type
	var routes []string
	for _, d := range r.Descriptors() {
		types = append(types, d.RequestType())
		routes = append(routes, d.Route().String())
	}
	assert.Equal(t, []reflect.Type{
		reflect.TypeOf((*Ping)(nil)).Elem(),
		reflect.TypeOf((*Echo)(nil)).Elem(),
		reflect.TypeOf((*Drop)(nil)).Elem(),
		reflect.TypeOf((*Throw)(nil)).Elem(),
	}, types)
	assert.Equal(t, []string{"GET /ping", "POST /echo", "DELETE /items", "GET /throw"}, routes)

	d, found := r.Lookup(reflect.TypeOf((*Echo)(nil)).Elem())
	require.True(t, found)
	assert.Equal(t, reflect.TypeOf((*Echoed)(nil)).Elem(), d.ResponseType())
	assert.False(t, d.Route().Bodyless())

	_, found = r.Lookup(reflect.TypeOf((*PingAgain)(nil)).Elem())
	assert.False(t, found)
}

func TestRegisterNormalizesVerb(t *testing.T) {
	t.Parallel()
	r := mediator.NewRegistry("verbs")
	d := mediator.Register[Lowercase, Pong](r)
	assert.Equal(t, http.MethodPatch, d.Route().Method)
}

func TestDescriptorMetadata(t *testing.T) {
	t.Parallel()
	r := mediator.NewRegistry("metadata")
	d := mediator.Register[Ping, Pong](r, policy{Role: "admin"}, 7)

	md := d.Metadata()
	require.Len(t, md, 2)
	md[0] = nil
	assert.Equal(t, policy{Role: "admin"}, d.Metadata()[0], "Metadata returns a copy")

	var p policy
	assert.True(t, d.Annotation(&p))
	assert.Equal(t, "admin", p.Role)
	var n int
	assert.True(t, d.Annotation(&n))
	assert.Equal(t, 7, n)
	var s string
	assert.False(t, d.Annotation(&s))

	bare := mediator.Register[Echo, Echoed](r)
	assert.Nil(t, bare.Metadata())
	assert.Panics(t, func() { bare.Annotation(p) })
}

func TestRegisterRejectsMistakes(t *testing.T) {
	t.Parallel()
	r := mediator.NewRegistry("mistakes")
	mediator.Register[Ping, Pong](r)

	ce := requireConfigError(t, func() { mediator.Register[Ping, Pong](r) })
	assert.Contains(t, ce.Problem, "already registered")

	ce = requireConfigError(t, func() { mediator.Register[PingAgain, Pong](r) })
	assert.Contains(t, ce.Problem, "already claimed")

	ce = requireConfigError(t, func() { mediator.Register[Head, Pong](r) })
	assert.Contains(t, ce.Problem, "unsupported verb")

	ce = requireConfigError(t, func() { mediator.Register[Untemplated, Pong](r) })
	assert.Contains(t, ce.Problem, "empty URI template")

	ce = requireConfigError(t, func() { mediator.Register[*Ping, Pong](r) })
	assert.Contains(t, ce.Problem, "non-pointer")

	assert.Len(t, r.Descriptors(), 1, "failed registrations leave the registry untouched")
}

func TestRegistryFreeze(t *testing.T) {
	t.Parallel()
	r := mediator.NewRegistry("frozen")
	mediator.Register[Ping, Pong](r)
	r.Freeze().Freeze()
	ce := requireConfigError(t, func() { mediator.Register[Echo, Echoed](r) })
	assert.Contains(t, ce.Problem, "frozen")
	assert.Len(t, r.Descriptors(), 1)
}

func TestRegistryInclude(t *testing.T) {
	t.Parallel()
	counter := mediator.NewRegistry("counter")
	mediator.Register[Ping, Pong](counter)
	items := mediator.NewRegistry("items")
	mediator.Register[Echo, Echoed](items)
	mediator.Register[Drop, Dropped](items)

	all := mediator.NewRegistry("all").Include(counter, items, nil)
	var routes []string
	for _, d := range all.Descriptors() {
		routes = append(routes, d.Route().String())
	}
	assert.Equal(t, []string{"GET /ping", "POST /echo", "DELETE /items"}, routes)

	requireConfigError(t, func() { all.Include(counter) })
}
