// Package compute defines the contract a stateless request handler must
// satisfy to be pluggable behind the ingress router, and the invoker that
// bounds every invocation with a timeout and a trace span.
package compute

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// Envelope is the normalized request passed to a handler.
type Envelope struct {
	RequestID string
	Method    string
	Path      string
	Protocol  string
	SourceIP  string
	Headers   map[string]string
	Body      []byte
}

// Result is a handler's successful outcome.
type Result struct {
	Status int
	Body   []byte
}

// FailureKind classifies a handler failure for status mapping and logging.
type FailureKind int

const (
	FailureValidation FailureKind = iota
	FailureStorage
	FailureTimeout
	FailureInternal
)

func (k FailureKind) String() string {
	switch k {
	case FailureValidation:
		return "validation"
	case FailureStorage:
		return "storage"
	case FailureTimeout:
		return "timeout"
	default:
		return "internal"
	}
}

// Failure is a typed handler error.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("%s failure: %s", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// AsFailure extracts a Failure from an error chain; anything untyped is an
// internal failure.
func AsFailure(err error) *Failure {
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Kind: FailureInternal, Err: err}
}

// Handler is the compute contract. Implementations are stateless; all shared
// resources are injected at construction, never looked up ambiently.
type Handler interface {
	Handle(ctx context.Context, env Envelope) (Result, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, env Envelope) (Result, error)

func (f HandlerFunc) Handle(ctx context.Context, env Envelope) (Result, error) {
	return f(ctx, env)
}

// Invoker runs a handler under a bounded duration and wraps each invocation
// in a span so latency and faults are observable downstream.
type Invoker struct {
	Handler Handler
	Timeout time.Duration
	Tracer  trace.Tracer
}

type invokeOutcome struct {
	result Result
	err    error
}

// Invoke runs the handler. Exceeding the timeout abandons the in-flight
// invocation and reports a timeout failure; any write the handler already
// issued is not rolled back. A panicking handler becomes an internal failure.
func (i *Invoker) Invoke(ctx context.Context, env Envelope) (Result, error) {
	ctx, span := i.Tracer.Start(ctx, "invoke",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			semconv.HTTPMethodKey.String(env.Method),
			semconv.HTTPTargetKey.String(env.Path),
			attribute.String("request.id", env.RequestID),
		))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, i.Timeout)
	defer cancel()

	done := make(chan invokeOutcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- invokeOutcome{err: &Failure{Kind: FailureInternal, Err: fmt.Errorf("handler panic: %v", r)}}
			}
		}()

		result, err := i.Handler.Handle(ctx, env)
		done <- invokeOutcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil {
			return Result{}, spanError(span, out.err)
		}
		return out.result, nil
	case <-ctx.Done():
		err := &Failure{Kind: FailureTimeout, Err: fmt.Errorf("invocation exceeded %s: %w", i.Timeout, ctx.Err())}
		return Result{}, spanError(span, err)
	}
}

func spanError(span trace.Span, err error) error {
	span.SetStatus(codes.Error, err.Error())
	span.RecordError(err)
	return err
}
