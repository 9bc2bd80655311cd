package mediator_test

import (
	"errors"
	"io"
	"testing"

	"github.com/BlueOwlOpenSource/mediator"
	"github.com/go-json-experiment/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorDefaults(t *testing.T) {
	t.Parallel()
	e := mediator.ErrorWithCode("  ", "")
	assert.Equal(t, mediator.DefaultErrorCode, e.Code())
	assert.Equal(t, mediator.DefaultErrorMessage, e.Message())
	assert.Equal(t, "error: An error occurred.", e.Error())

	e = mediator.ErrorFrom("Something broke.")
	assert.Equal(t, "error", e.Code())
	assert.Equal(t, "Something broke.", e.Message())
	assert.Nil(t, e.CausedBy())
	assert.False(t, e.IsZero())
	assert.True(t, mediator.Error{}.IsZero())
}

func TestErrorEquality(t *testing.T) {
	t.Parallel()
	a := mediator.ErrorWithCause("Not_Found", "No such ping.", errors.New("row missing"))
	b := mediator.ErrorWithCode("not_found", "No such ping.")
	assert.True(t, a.Equal(b), "codes compare without case, causes are ignored")
	assert.True(t, b.Equal(a))
	assert.False(t, a.Equal(mediator.ErrorWithCode("not_found", "no such ping.")), "messages compare exactly")
	assert.False(t, a.Equal(mediator.ErrorWithCode("gone", "No such ping.")))
}

func TestErrorCause(t *testing.T) {
	t.Parallel()
	e := mediator.ErrorWithCause("io", "Could not read.", io.ErrUnexpectedEOF)
	assert.Equal(t, io.ErrUnexpectedEOF, e.CausedBy())
	assert.True(t, errors.Is(e, io.ErrUnexpectedEOF))
}

func TestErrorWireForm(t *testing.T) {
	t.Parallel()
	e := mediator.ErrorWithCause("not_found", "No such ping.", errors.New("never sent"))
	b, err := json.Marshal(e)
	require.NoError(t, err)
	assert.JSONEq(t, `{"Code":"not_found","Message":"No such ping."}`, string(b))

	var back mediator.Error
	require.NoError(t, json.Unmarshal([]byte(`{"Code":"","Message":"Lost."}`), &back))
	assert.Equal(t, mediator.DefaultErrorCode, back.Code())
	assert.Equal(t, "Lost.", back.Message())
}

func TestFaultMessages(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "mediator: bad result: ok status code must be 200-299, got 302",
		(&mediator.BadResultError{StatusCode: 302, Ok: true}).Error())
	assert.Equal(t, "mediator: bad result: error status code must be 400-599, got 200",
		(&mediator.BadResultError{StatusCode: 200}).Error())
	assert.Equal(t, "mediator: Ping: no handler registered",
		(&mediator.ConfigError{Subject: "Ping", Problem: "no handler registered"}).Error())
	assert.Equal(t, "panic: boom", (&mediator.PanicError{Value: "boom"}).Error())
}
