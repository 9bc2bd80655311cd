package mediator

import (
	"net/http"
	"strings"
)

// RequestParam is the query key that carries the JSON-encoded request
// for body-less verbs (GET, DELETE).
const RequestParam = "request"

// Route is the static routing metadata of a request type: the HTTP verb
// and the URI template relative to the API base.
type Route struct {
	Method   string
	Template string
}

func (r Route) String() string {
	return r.Method + " " + r.Template
}

// Bodyless reports whether the request is sent as a query parameter
// rather than as the message body.
func (r Route) Bodyless() bool {
	return IsBodyless(r.Method)
}

// Request is implemented by every request type.  Both methods are
// type-level: they are called on the zero value and must not look at
// instance data.
//
// Route supplies the verb and URI template.  Response exists only to bind
// the response type; embedding Returns[Resp] provides it.
//
//	type Ping struct {
//		mediator.Returns[Pong]
//		Count int
//	}
//
//	func (Ping) Route() mediator.Route { return mediator.Route{Method: http.MethodGet, Template: "/ping"} }
type Request[Resp any] interface {
	Route() Route
	Response() Resp
}

// Returns is embedded in request types to declare their response type.
// It has no fields, so it adds nothing to the request's JSON.
type Returns[Resp any] struct{}

func (Returns[Resp]) Response() Resp {
	var r Resp
	return r
}

// IsBodyless is true for the retrieval/removal verbs whose requests travel
// in the query string.
func IsBodyless(method string) bool {
	switch method {
	case http.MethodGet, http.MethodDelete:
		return true
	}
	return false
}

func isSupportedMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodDelete, http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	}
	return false
}

// joinPath joins an API base (or base URI) and a template with exactly one
// slash between them.
func joinPath(base, template string) string {
	if base == "" {
		return "/" + strings.TrimLeft(template, "/")
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(template, "/")
}
