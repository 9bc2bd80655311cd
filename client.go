package mediator

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/go-json-experiment/json"
)

// ClientConfig configures the client side.
type ClientConfig struct {
	// BaseURI is prefixed to every request's URI template, e.g.
	// "https://api.example.com/api".
	BaseURI string `yaml:"base_uri"`
	// Timeout bounds one outbound call when HTTPClient is not supplied.
	Timeout time.Duration `yaml:"timeout"`
	// HTTPClient, when set, is used as-is.
	HTTPClient *http.Client `yaml:"-"`
}

// Transport is the client-side terminal.  It turns a call into exactly one
// HTTP request, sends it and reads the reply into a result.  It never
// retries.
type Transport struct {
	baseURI string
	client  *http.Client
}

// NewTransport panics with a *ConfigError if BaseURI is not an absolute URI.
func NewTransport(cfg ClientConfig) *Transport {
	u, err := url.Parse(cfg.BaseURI)
	if err != nil || !u.IsAbs() {
		configPanicf("client", "base URI %q is not absolute", cfg.BaseURI)
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &Transport{
		baseURI: cfg.BaseURI,
		client:  client,
	}
}

func (t *Transport) Describe() string { return "transport(" + t.baseURI + ")" }

// Serve sends the call.  GET and DELETE requests travel as the JSON value
// of the "request" query parameter; POST, PUT and PATCH requests are the
// JSON body.
//
// Replies that cannot be read (no body, a body that is not a result
// envelope, a value that does not decode into the response type) become
// failed results.  A transport error is returned as an error so that the
// exception boundary can translate it; if ctx is done the context's error
// is returned instead.
func (t *Transport) Serve(ctx context.Context, call Call) (HTTPResult[any], error) {
	d := call.Descriptor
	payload, err := json.Marshal(call.Request)
	if err != nil {
		return HTTPResult[any]{}, fmt.Errorf("mediator: encode %s: %w", d.requestType, err)
	}

	target := joinPath(t.baseURI, d.route.Template)
	var body io.Reader
	if d.route.Bodyless() {
		u, err := url.Parse(target)
		if err != nil {
			return HTTPResult[any]{}, err
		}
		q := u.Query()
		q.Set(RequestParam, string(payload))
		u.RawQuery = q.Encode()
		target = u.String()
	} else {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, d.route.Method, target, body)
	if err != nil {
		return HTTPResult[any]{}, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := t.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return HTTPResult[any]{}, ctxErr
		}
		return HTTPResult[any]{}, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return HTTPResult[any]{}, ctxErr
		}
		return HTTPResult[any]{}, err
	}
	return parseReply(d, res.StatusCode, raw), nil
}

func parseReply(d *Descriptor, status int, raw []byte) HTTPResult[any] {
	if len(bytes.TrimSpace(raw)) == 0 {
		if status == http.StatusNoContent {
			return Ok[any](nil, status)
		}
		if isErrorStatus(status) {
			return Fail[any](ErrorWithCode(CodeHTTPStatus, http.StatusText(status)), status)
		}
		return Fail[any](ErrorWithCode(CodeEmptyResponse, "The server returned an empty response."), http.StatusBadRequest)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return malformedReply(status, err)
	}
	switch {
	case isSuccessStatus(status):
		if !env.IsOk {
			return malformedReply(status, fmt.Errorf("mediator: status %d with a failed envelope", status))
		}
		r, err := fromEnvelope(env, d.decodeResponse)
		if err != nil {
			return malformedReply(status, err)
		}
		return Ok(r.value, status)
	case isErrorStatus(status):
		if env.IsOk || env.Error == nil {
			return malformedReply(status, fmt.Errorf("mediator: status %d without an error envelope", status))
		}
		return Fail[any](ErrorWithCode(env.Error.Code, env.Error.Message), status)
	default:
		return malformedReply(status, fmt.Errorf("mediator: unexpected status %d", status))
	}
}

func malformedReply(status int, cause error) HTTPResult[any] {
	if !isErrorStatus(status) {
		status = http.StatusBadGateway
	}
	return Fail[any](ErrorWithCause(CodeMalformedResponse, "The server returned a response that could not be read.", cause), status)
}

// Client sends requests to a remote server through a pipeline that ends
// in a Transport.
type Client struct {
	pipeline *Pipeline
}

// NewClient builds the client pipeline: the given middleware in order,
// then the transport.  The registry is frozen.
func NewClient(cfg ClientConfig, registry *Registry, middleware ...Middleware) *Client {
	return &Client{
		pipeline: NewPipeline(registry, NewTransport(cfg), middleware...),
	}
}

// DefaultClientMiddleware is the usual client chain: the exception
// boundary (400), call logging and validation.
func DefaultClientMiddleware(logger Logger, validators *Validators) []Middleware {
	return []Middleware{
		Recover(),
		LogCalls(logger),
		Validate(validators),
	}
}

func (c *Client) Pipeline() *Pipeline { return c.pipeline }

// Send runs req through the client pipeline.  The error is non-nil only
// when ctx is done (or when the pipeline has no exception boundary).
func Send[Resp any](ctx context.Context, c *Client, req Request[Resp]) (HTTPResult[Resp], error) {
	return Execute(ctx, c.pipeline, req)
}
