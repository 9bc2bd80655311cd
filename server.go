package mediator

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-json-experiment/json"
	"github.com/gorilla/mux"
)

// ServerConfig configures the server side.
type ServerConfig struct {
	// Addr is the listen address used by ListenAndServe.
	Addr string `yaml:"addr"`
	// APIBase is prefixed to every request's URI template, e.g. "/api".
	APIBase string `yaml:"api_base"`
	// MaxBodyBytes bounds request bodies; zero means DefaultMaxBodyBytes.
	MaxBodyBytes int64 `yaml:"max_body_bytes"`
}

const DefaultMaxBodyBytes = 1 << 20

// RouteBinder installs one route.  It is the hook for routers other than
// gorilla/mux and gin, e.g. http.ServeMux:
//
//	server.Start(func(method, path string, h http.HandlerFunc) {
//		serveMux.HandleFunc(method+" "+path, h)
//	})
type RouteBinder func(method, path string, h http.HandlerFunc)

// InstalledRoute records one route installed by Start.
type InstalledRoute struct {
	Method     string
	Path       string
	Descriptor *Descriptor
}

// Server answers wire requests for every request type in a registry.
// Like a pre-registered service it does nothing until it is started: Start
// checks that every request type has a handler and then installs one route
// per descriptor, in registration order.
type Server struct {
	Name       string
	config     ServerConfig
	registry   *Registry
	dispatcher *Dispatcher
	pipeline   *Pipeline
	logger     Logger
	lock       sync.Mutex
	started    bool
	routes     []InstalledRoute
}

// NewServer builds the server pipeline: the given middleware in order,
// then the dispatcher.  The registry is frozen.
func NewServer(name string, cfg ServerConfig, registry *Registry, dispatcher *Dispatcher, middleware ...Middleware) *Server {
	if dispatcher == nil {
		panic("mediator: a dispatcher must be provided")
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	return &Server{
		Name:       name,
		config:     cfg,
		registry:   registry,
		dispatcher: dispatcher,
		pipeline:   NewPipeline(registry, dispatcher, middleware...),
		logger:     NopLogger{},
	}
}

// DefaultServerMiddleware is the usual server chain: the exception
// boundary (500), call logging and validation.
func DefaultServerMiddleware(logger Logger, validators *Validators) []Middleware {
	return []Middleware{
		RecoverWithStatus(http.StatusInternalServerError),
		LogCalls(logger),
		Validate(validators),
	}
}

// WithLogger sets the logger used for route installation and for calls
// that end without a result.
func (s *Server) WithLogger(logger Logger) *Server {
	s.lock.Lock()
	defer s.lock.Unlock()
	if logger == nil {
		logger = NopLogger{}
	}
	s.logger = logger
	return s
}

func (s *Server) Pipeline() *Pipeline { return s.pipeline }

// Start installs the routes with binder.  Start may only be called once.
func (s *Server) Start(binder RouteBinder) *Server {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.started {
		panic("duplicate call to Start()")
	}
	s.dispatcher.Check(s.registry)
	for _, d := range s.registry.Descriptors() {
		path := joinPath(s.config.APIBase, d.route.Template)
		binder(d.route.Method, path, s.Handler(d))
		s.routes = append(s.routes, InstalledRoute{Method: d.route.Method, Path: path, Descriptor: d})
		s.logger.Logf(LevelInfo, "%s: installed %s %s (%s)", s.Name, d.route.Method, path, d.requestType)
	}
	s.started = true
	return s
}

// StartMux installs the routes on a gorilla/mux router, each restricted to
// its verb.
func (s *Server) StartMux(router *mux.Router) *Server {
	return s.Start(func(method, path string, h http.HandlerFunc) {
		router.HandleFunc(path, h).Methods(method)
	})
}

// StartGin installs the routes on a gin engine.
func (s *Server) StartGin(engine *gin.Engine) *Server {
	return s.Start(func(method, path string, h http.HandlerFunc) {
		engine.Handle(method, path, func(c *gin.Context) {
			h(c.Writer, c.Request)
		})
	})
}

// Routes lists the installed routes in installation order.
func (s *Server) Routes() []InstalledRoute {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]InstalledRoute(nil), s.routes...)
}

// Handler returns the wire handler for one descriptor.  It binds the
// request, runs the pipeline and writes the result envelope unless the
// response has already been started through Call.Inbound.
func (s *Server) Handler(d *Descriptor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tw := &trackingWriter{ResponseWriter: w}
		req, failed := s.bind(d, tw, r)
		if failed != nil {
			s.write(tw, *failed)
			return
		}

		ctx := r.Context()
		result, err := s.pipeline.Run(ctx, Call{
			Descriptor: d,
			Request:    req,
			Inbound:    &Inbound{Writer: tw, Request: r},
		})
		if err != nil {
			if isCancellation(ctx, err) {
				s.logger.Logf(LevelDebug, "%s %s: abandoned: %v", d.route.Method, r.URL.Path, err)
				return
			}
			s.logger.Logf(LevelError, "%s %s: untranslated fault: %v", d.route.Method, r.URL.Path, err)
			result = InternalError[any](ErrorWithCause(CodeUnexpected, UnexpectedErrorMessage, err))
		}
		if tw.started {
			return
		}
		s.write(tw, result)
	}
}

func (s *Server) bind(d *Descriptor, w http.ResponseWriter, r *http.Request) (any, *HTTPResult[any]) {
	var raw []byte
	if d.route.Bodyless() {
		values, present := r.URL.Query()[RequestParam]
		if !present || len(values) == 0 {
			return nil, noRequest()
		}
		raw = []byte(values[0])
	} else {
		if r.Body == nil || r.Body == http.NoBody {
			return nil, noRequest()
		}
		b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
		if err != nil {
			failed := BadRequest[any](ErrorWithCause(CodeMalformedRequest, "The request body could not be read.", err))
			return nil, &failed
		}
		raw = b
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, jsonNull) {
		return nil, noRequest()
	}
	req, err := d.decodeRequest(raw)
	if err != nil {
		failed := BadRequest[any](ErrorWithCause(CodeMalformedRequest, "The request could not be read.", err))
		return nil, &failed
	}
	return req, nil
}

func noRequest() *HTTPResult[any] {
	failed := BadRequest[any](ErrorWithCause(CodeNoRequest, "No request was provided.", ErrNoRequest))
	return &failed
}

func (s *Server) write(w http.ResponseWriter, result HTTPResult[any]) {
	// 204 replies carry no body; the client reads them as an ok result
	// with the zero value.
	if result.statusCode == http.StatusNoContent {
		w.WriteHeader(result.statusCode)
		return
	}
	body, err := json.Marshal(result)
	if err != nil {
		s.logger.Logf(LevelError, "encode result: %v", err)
		result = InternalError[any](ErrorWithCause(CodeUnexpected, UnexpectedErrorMessage, err))
		body, _ = json.Marshal(result)
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(result.statusCode)
	if _, err := w.Write(body); err != nil {
		s.logger.Logf(LevelDebug, "write result: %v", err)
	}
}

// trackingWriter remembers whether anything has been sent.
type trackingWriter struct {
	http.ResponseWriter
	started bool
}

func (w *trackingWriter) WriteHeader(status int) {
	w.started = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *trackingWriter) Write(b []byte) (int, error) {
	w.started = true
	return w.ResponseWriter.Write(b)
}

func (w *trackingWriter) Flush() {
	w.started = true
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *trackingWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// ListenAndServe serves handler on cfg.Addr until ctx is done, then shuts
// down gracefully within shutdownTimeout.
func ListenAndServe(ctx context.Context, cfg ServerConfig, handler http.Handler, shutdownTimeout time.Duration) error {
	addr := cfg.Addr
	if addr == "" {
		addr = ":8080"
	}
	srv := &http.Server{Addr: addr, Handler: handler}
	errs := make(chan error, 1)
	go func() { errs <- srv.ListenAndServe() }()
	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errs; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
