package mediator

import (
	"fmt"
	"net/http"
	"reflect"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// HTTPResult is the outcome of sending a request: either a value with a
// 2xx status code or an Error with a 4xx/5xx status code.
//
// Results are only built with Ok or Fail, which enforce the status code
// ranges.  The zero HTTPResult is not a valid result.
type HTTPResult[T any] struct {
	statusCode int
	ok         bool
	value      T
	err        Error
}

// Ok builds a successful result.  It panics with a *BadResultError unless
// statusCode is in 200-299.
func Ok[T any](value T, statusCode int) HTTPResult[T] {
	if !isSuccessStatus(statusCode) {
		panic(&BadResultError{StatusCode: statusCode, Ok: true})
	}
	return HTTPResult[T]{statusCode: statusCode, ok: true, value: value}
}

// Fail builds a failed result.  It panics with a *BadResultError unless
// statusCode is in 400-599.
func Fail[T any](err Error, statusCode int) HTTPResult[T] {
	if !isErrorStatus(statusCode) {
		panic(&BadResultError{StatusCode: statusCode, Ok: false})
	}
	if err.IsZero() {
		err = ErrorFrom("")
	}
	return HTTPResult[T]{statusCode: statusCode, err: err}
}

// OkStatus is Ok with 200.
func OkStatus[T any](value T) HTTPResult[T] { return Ok(value, http.StatusOK) }

// BadRequest is Fail with 400.
func BadRequest[T any](err Error) HTTPResult[T] { return Fail[T](err, http.StatusBadRequest) }

// InternalError is Fail with 500.
func InternalError[T any](err Error) HTTPResult[T] {
	return Fail[T](err, http.StatusInternalServerError)
}

func isSuccessStatus(code int) bool { return code >= 200 && code <= 299 }
func isErrorStatus(code int) bool   { return code >= 400 && code <= 599 }

func (r HTTPResult[T]) StatusCode() int { return r.statusCode }
func (r HTTPResult[T]) IsOk() bool      { return r.ok }

// Value is the result value, or the zero T for failed results.
func (r HTTPResult[T]) Value() T { return r.value }

// Err is the result error, or the zero Error for successful results.
func (r HTTPResult[T]) Err() Error { return r.err }

// Unwrap returns the value, the error and whether the result is ok.
func (r HTTPResult[T]) Unwrap() (T, Error, bool) { return r.value, r.err, r.ok }

func (r HTTPResult[T]) String() string {
	if r.ok {
		return fmt.Sprintf("Ok(%v, %d)", r.value, r.statusCode)
	}
	return fmt.Sprintf("Error(%s, %d)", r.err.Error(), r.statusCode)
}

// Select maps the value of a successful result with f.  Failed results are
// passed through with their error and status code untouched.
func Select[T, U any](r HTTPResult[T], f func(T) U) HTTPResult[U] {
	if !r.ok {
		return HTTPResult[U]{statusCode: r.statusCode, err: r.err}
	}
	return HTTPResult[U]{statusCode: r.statusCode, ok: true, value: f(r.value)}
}

// Equal compares status codes and then either the values or the errors.
// Values are compared with their own Equal method when T has one.
func (r HTTPResult[T]) Equal(other HTTPResult[T]) bool {
	if r.statusCode != other.statusCode || r.ok != other.ok {
		return false
	}
	if !r.ok {
		return r.err.Equal(other.err)
	}
	if eq, ok := any(r.value).(interface{ Equal(T) bool }); ok {
		return eq.Equal(other.value)
	}
	return reflect.DeepEqual(r.value, other.value)
}

type envelope struct {
	StatusCode int            `json:"StatusCode"`
	IsOk       bool           `json:"IsOk"`
	Value      jsontext.Value `json:"Value"`
	Error      *wireError     `json:"Error"`
}

var jsonNull = jsontext.Value("null")

// MarshalJSON writes the result envelope:
//
//	{"StatusCode": 200, "IsOk": true, "Value": {...}, "Error": null}
//	{"StatusCode": 400, "IsOk": false, "Value": null, "Error": {"Code": "...", "Message": "..."}}
func (r HTTPResult[T]) MarshalJSON() ([]byte, error) {
	env := envelope{StatusCode: r.statusCode, IsOk: r.ok, Value: jsonNull}
	if r.ok {
		v, err := json.Marshal(r.value)
		if err != nil {
			return nil, err
		}
		env.Value = v
	} else {
		env.Error = &wireError{Code: r.err.code, Message: r.err.message}
	}
	return json.Marshal(env)
}

// UnmarshalJSON reads a result envelope.  Envelopes whose status code
// does not agree with IsOk are rejected with an error.
func (r *HTTPResult[T]) UnmarshalJSON(b []byte) error {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	decoded, err := fromEnvelope(env, func(raw jsontext.Value) (T, error) {
		var v T
		err := json.Unmarshal(raw, &v)
		return v, err
	})
	if err != nil {
		return err
	}
	*r = decoded
	return nil
}

func fromEnvelope[T any](env envelope, decode func(jsontext.Value) (T, error)) (HTTPResult[T], error) {
	if env.IsOk {
		if !isSuccessStatus(env.StatusCode) {
			return HTTPResult[T]{}, fmt.Errorf("mediator: envelope is ok but has status code %d", env.StatusCode)
		}
		var v T
		if len(env.Value) > 0 {
			var err error
			if v, err = decode(env.Value); err != nil {
				return HTTPResult[T]{}, fmt.Errorf("mediator: envelope value: %w", err)
			}
		}
		return Ok(v, env.StatusCode), nil
	}
	if !isErrorStatus(env.StatusCode) {
		return HTTPResult[T]{}, fmt.Errorf("mediator: envelope is not ok but has status code %d", env.StatusCode)
	}
	if env.Error == nil {
		return HTTPResult[T]{}, fmt.Errorf("mediator: envelope is not ok but carries no error")
	}
	return Fail[T](ErrorWithCode(env.Error.Code, env.Error.Message), env.StatusCode), nil
}

func erase[T any](r HTTPResult[T]) HTTPResult[any] {
	return HTTPResult[any]{statusCode: r.statusCode, ok: r.ok, value: r.value, err: r.err}
}

func restore[T any](r HTTPResult[any]) HTTPResult[T] {
	if !r.ok {
		return HTTPResult[T]{statusCode: r.statusCode, err: r.err}
	}
	var v T
	if r.value != nil {
		typed, ok := r.value.(T)
		if !ok {
			configPanicf(fmt.Sprintf("%T", v), "pipeline produced a %T value", r.value)
		}
		v = typed
	}
	return HTTPResult[T]{statusCode: r.statusCode, ok: true, value: v}
}
