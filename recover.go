package mediator

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

type recoverer struct {
	status int
}

// Recover is the exception boundary for client pipelines: any panic or
// error raised by a later stage becomes a failed result with status 400,
// UnexpectedErrorMessage as its message and the fault as its cause.
//
// It must be the first middleware so that nothing escapes the pipeline.
// Cancellation is not a failure and is passed outward as an error.
// Configuration faults (*BadResultError, *ConfigError) are re-raised.
func Recover() Middleware {
	return RecoverWithStatus(http.StatusBadRequest)
}

// RecoverWithStatus is Recover with a chosen status code.  Servers use 500
// since the fault originates on their side.
func RecoverWithStatus(status int) Middleware {
	if !isErrorStatus(status) {
		panic(&BadResultError{StatusCode: status})
	}
	return recoverer{status: status}
}

func (m recoverer) Describe() string { return fmt.Sprintf("recover(%d)", m.status) }

func (m recoverer) Handle(ctx context.Context, call Call, next Next) (result HTTPResult[any], err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		fault := asFault(r)
		if isConfigFault(fault) {
			panic(r)
		}
		result, err = m.translate(ctx, fault)
	}()
	result, err = next(ctx, call)
	if err != nil {
		return m.translate(ctx, err)
	}
	return result, nil
}

func (m recoverer) translate(ctx context.Context, fault error) (HTTPResult[any], error) {
	if isCancellation(ctx, fault) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return HTTPResult[any]{}, ctxErr
		}
		return HTTPResult[any]{}, fault
	}
	return Fail[any](ErrorWithCause(CodeUnexpected, UnexpectedErrorMessage, fault), m.status), nil
}

func asFault(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return &PanicError{Value: r}
}

func isConfigFault(err error) bool {
	var bad *BadResultError
	var cfg *ConfigError
	return errors.As(err, &bad) || errors.As(err, &cfg)
}

func isCancellation(ctx context.Context, err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	return ctx.Err() != nil
}
