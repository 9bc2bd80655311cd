/*
Package mediator is a typed request/response mediator.  Callers send
strongly-typed request values; each request type is statically bound to
one response type, an HTTP verb and a URI template.  Requests pass through
an ordered middleware pipeline and then either travel over HTTP to a remote
server (client side) or reach an in-process handler (server side).

Why?

Uniform cross-cutting concerns: validation, fault translation and logging
are middleware, written once and shared by every request type.

Explicit wire contract: the verb decides the encoding (query string for
GET and DELETE, body for POST, PUT and PATCH) and every reply is the same
result envelope, so client and server agree on status codes by construction.

Failures are values: a send always yields an HTTPResult.  Only cancellation
and programming mistakes travel any other way.

# Terminology

Request type is a plain data type implementing Request[Resp].  Its Route
method supplies the verb and URI template; embedding Returns[Resp] binds the
response type.

Descriptor is the immutable record a Registry keeps for each request type.

Middleware wraps all downstream stages.  The first middleware in the list
is invoked first.

Terminal is the last stage.  It never calls a further stage: on the client
it is the Transport, on the server the Dispatcher.

Short-circuit is a middleware returning a result without calling next.

# Registering request types

Each module keeps a Registry and registers its request types next to their
definitions:

	var Requests = mediator.NewRegistry("counter")

	type Ping struct {
		mediator.Returns[Pong]
		Count int
	}

	type Pong struct {
		NewCount int
	}

	func (Ping) Route() mediator.Route {
		return mediator.Route{Method: http.MethodGet, Template: "/ping"}
	}

	func init() {
		mediator.Register[Ping, Pong](Requests)
	}

A Go type has exactly one Response method, so a request type can never
answer two response types.

# Pipelines

A Pipeline is composed once and then only read.  Every call walks the same
stages in the same order; only the request differs.  Two middleware are
expected ahead of the terminal, in this order:

Recover is the exception boundary.  Panics and errors from later stages
become failed results carrying UnexpectedErrorMessage, with the original
fault kept as the Error's cause.  Use Recover (400) on clients and
RecoverWithStatus(500) on servers.

Validate runs the validators for the request type and short-circuits with
400 when any of them report failures.

The error return of a stage is reserved for cancellation and for faults the
boundary has not yet translated.

Client

	client := mediator.NewClient(cfg.Client, Requests, mediator.DefaultClientMiddleware(logger, nil)...)
	result, err := mediator.Send[Pong](ctx, client, Ping{Count: 101})

Server

	dispatcher := mediator.NewDispatcher()
	mediator.Handle(dispatcher, func(ctx context.Context, p Ping) (mediator.HTTPResult[Pong], error) {
		return mediator.OkStatus(Pong{NewCount: p.Count + 1}), nil
	})
	server := mediator.NewServer("counter", cfg.Server, Requests, dispatcher,
		mediator.DefaultServerMiddleware(logger, nil)...)
	server.StartMux(router)

A server middleware may answer the wire request itself by writing to
Call.Inbound.Writer.  That is the only way to bypass the result envelope:
once anything has been written the server does not write again.
*/
package mediator
