package mediator

import (
	"context"
	"net/http"
	"reflect"
	"strings"
	"sync"
)

// ValidationFailure is one problem found by a validator.
type ValidationFailure struct {
	Field   string
	Message string
}

func (f ValidationFailure) String() string {
	if f.Field == "" {
		return f.Message
	}
	return f.Field + ": " + f.Message
}

// Validatable requests check themselves.  The validation middleware runs
// Validate in addition to any validators registered for the type.
type Validatable interface {
	Validate(ctx context.Context) []ValidationFailure
}

type validatorFunc func(ctx context.Context, req any) []ValidationFailure

// Validators holds the validators registered per request type.
type Validators struct {
	lock   sync.RWMutex
	byType map[reflect.Type][]validatorFunc
}

func NewValidators() *Validators {
	return &Validators{byType: make(map[reflect.Type][]validatorFunc)}
}

// AddValidator registers a validator for request type Req.  Validators for
// one type run in the order they were added.
func AddValidator[Req any](v *Validators, fn func(ctx context.Context, req Req) []ValidationFailure) *Validators {
	if fn == nil {
		panic("mediator: nil validator")
	}
	t := reflect.TypeOf((*Req)(nil)).Elem()
	v.lock.Lock()
	defer v.lock.Unlock()
	v.byType[t] = append(v.byType[t], func(ctx context.Context, req any) []ValidationFailure {
		typed, ok := req.(Req)
		if !ok {
			return nil
		}
		return fn(ctx, typed)
	})
	return v
}

func (v *Validators) forType(t reflect.Type) []validatorFunc {
	if v == nil {
		return nil
	}
	v.lock.RLock()
	defer v.lock.RUnlock()
	return v.byType[t]
}

type validation struct {
	validators *Validators
}

// Validate returns the validation middleware.  When any validator reports
// failures it answers 400 with CodeValidation and does not call next.
// validators may be nil, in which case only Validatable requests are
// checked.
func Validate(validators *Validators) Middleware {
	return validation{validators: validators}
}

func (validation) Describe() string { return "validate" }

func (m validation) Handle(ctx context.Context, call Call, next Next) (HTTPResult[any], error) {
	var failures []ValidationFailure
	if self, ok := call.Request.(Validatable); ok {
		failures = append(failures, self.Validate(ctx)...)
	}
	for _, fn := range m.validators.forType(call.Descriptor.requestType) {
		failures = append(failures, fn(ctx, call.Request)...)
	}
	if len(failures) == 0 {
		return next(ctx, call)
	}
	messages := make([]string, 0, len(failures))
	for _, f := range failures {
		messages = append(messages, f.String())
	}
	return Fail[any](ErrorWithCode(CodeValidation, strings.Join(messages, "; ")), http.StatusBadRequest), nil
}
