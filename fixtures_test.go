package mediator_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"testing"

	"github.com/BlueOwlOpenSource/mediator"
	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/require"
)

type Ping struct {
	mediator.Returns[Pong]
	Count int `json:"Count"`
}

type Pong struct {
	NewCount int `json:"NewCount"`
}

func (Ping) Route() mediator.Route {
	return mediator.Route{Method: http.MethodGet, Template: "/ping"}
}

type Echo struct {
	mediator.Returns[Echoed]
	Text string `json:"Text"`
}

type Echoed struct {
	Text string `json:"Text"`
}

func (Echo) Route() mediator.Route {
	return mediator.Route{Method: http.MethodPost, Template: "/echo"}
}

func (e Echo) Validate(ctx context.Context) []mediator.ValidationFailure {
	if e.Text == "" {
		return []mediator.ValidationFailure{{Field: "Text", Message: "is required"}}
	}
	return nil
}

type Drop struct {
	mediator.Returns[Dropped]
	ID string `json:"ID"`
}

type Dropped struct {
	ID string `json:"ID"`
}

func (Drop) Route() mediator.Route {
	return mediator.Route{Method: http.MethodDelete, Template: "/items"}
}

type Throw struct {
	mediator.Returns[Pong]
}

func (Throw) Route() mediator.Route {
	return mediator.Route{Method: http.MethodGet, Template: "/throw"}
}

// testRegistry registers Ping, Echo, Drop and Throw in that order.  Every
// test gets its own registry since building a pipeline freezes it.
func testRegistry(name string) *mediator.Registry {
	r := mediator.NewRegistry(name)
	mediator.Register[Ping, Pong](r)
	mediator.Register[Echo, Echoed](r)
	mediator.Register[Drop, Dropped](r)
	mediator.Register[Throw, Pong](r)
	return r
}

// testDispatcher answers every request type in testRegistry.  Throw
// panics.
func testDispatcher() *mediator.Dispatcher {
	d := mediator.NewDispatcher()
	mediator.Handle[Ping, Pong](d, func(ctx context.Context, p Ping) (mediator.HTTPResult[Pong], error) {
		return mediator.OkStatus(Pong{NewCount: p.Count + 1}), nil
	})
	mediator.Handle[Echo, Echoed](d, func(ctx context.Context, e Echo) (mediator.HTTPResult[Echoed], error) {
		return mediator.Ok(Echoed{Text: e.Text}, http.StatusCreated), nil
	})
	mediator.Handle[Drop, Dropped](d, func(ctx context.Context, req Drop) (mediator.HTTPResult[Dropped], error) {
		if req.ID == "missing" {
			return mediator.Fail[Dropped](mediator.ErrorWithCode("not_found", "No such item."), http.StatusNotFound), nil
		}
		return mediator.OkStatus(Dropped{ID: req.ID}), nil
	})
	mediator.Handle[Throw, Pong](d, func(ctx context.Context, _ Throw) (mediator.HTTPResult[Pong], error) {
		panic("handler exploded")
	})
	return d
}

func panicValue(f func()) (v any) {
	defer func() {
		v = recover()
	}()
	f()
	return nil
}

func requireConfigError(t *testing.T, f func()) *mediator.ConfigError {
	t.Helper()
	v := panicValue(f)
	ce, ok := v.(*mediator.ConfigError)
	require.Truef(t, ok, "expected a *ConfigError panic, got %T: %v", v, v)
	return ce
}

func requireBadResult(t *testing.T, f func()) *mediator.BadResultError {
	t.Helper()
	v := panicValue(f)
	bad, ok := v.(*mediator.BadResultError)
	require.Truef(t, ok, "expected a *BadResultError panic, got %T: %v", v, v)
	return bad
}

func readResult[T any](t *testing.T, res *http.Response) mediator.HTTPResult[T] {
	t.Helper()
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	var r mediator.HTTPResult[T]
	require.NoError(t, json.Unmarshal(body, &r), fmt.Sprintf("body: %s", body))
	return r
}
