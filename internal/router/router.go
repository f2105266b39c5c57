// Package router is the ingress of the write path: it matches an inbound
// request against the registered route bindings by exact method+path
// equality, invokes the bound compute contract, and records exactly one
// access log record per request attempt, matched or not.
package router

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/filmstack/catalog/internal/accesslog"
	"github.com/filmstack/catalog/internal/compute"
)

// ErrNoPipeline is returned when a router is constructed without an access
// log pipeline. The log sink must exist before the router can take traffic.
var ErrNoPipeline = errors.New("router requires an access log pipeline")

// AccessLogger is the slice of the logging pipeline the router needs.
type AccessLogger interface {
	Write(ctx context.Context, rec accesslog.Record)
}

// Binding identifies one registered route.
type Binding struct {
	Method string
	Path   string
}

func (b Binding) key() string {
	return b.Method + " " + b.Path
}

// Response is the router's terminal outcome for one request.
type Response struct {
	Status           int
	Body             []byte
	IntegrationError string
}

// Router dispatches requests to bound compute invokers.
type Router struct {
	bindings map[Binding]*compute.Invoker
	logs     AccessLogger
	logger   *slog.Logger
	now      func() time.Time
}

// New builds a router. The pipeline is required: a stage without its log
// sink must fail to construct, not log nothing.
func New(logs AccessLogger, logger *slog.Logger) (*Router, error) {
	if logs == nil {
		return nil, ErrNoPipeline
	}

	return &Router{
		bindings: map[Binding]*compute.Invoker{},
		logs:     logs,
		logger:   logger,
		now:      time.Now,
	}, nil
}

// Bind registers a compute invoker for an exact method+path.
func (r *Router) Bind(method, path string, inv *compute.Invoker) {
	r.bindings[Binding{Method: method, Path: path}] = inv
}

// Dispatch resolves and executes one request, then records its outcome.
// Unmatched routes are rejected without touching compute.
func (r *Router) Dispatch(ctx context.Context, env compute.Envelope) Response {
	started := r.now()

	resp := r.dispatch(ctx, Binding{Method: env.Method, Path: env.Path}, env)

	r.record(ctx, env, started, resp)
	return resp
}

// Reject produces a terminal response for a request an adapter could not
// turn into a full envelope. The rejection is recorded like any other
// outcome: every request attempt yields exactly one access record.
func (r *Router) Reject(ctx context.Context, env compute.Envelope, status int, description string) Response {
	started := r.now()

	r.logger.Warn("rejecting request", "requestId", env.RequestID, "status", status, "description", description)
	resp := Response{Status: status, Body: errorBody(description)}

	r.record(ctx, env, started, resp)
	return resp
}

func (r *Router) record(ctx context.Context, env compute.Envelope, started time.Time, resp Response) {
	r.logs.Write(ctx, accesslog.Record{
		RequestID:        env.RequestID,
		SourceIP:         env.SourceIP,
		Time:             started,
		Protocol:         env.Protocol,
		Method:           env.Method,
		RouteKey:         Binding{Method: env.Method, Path: env.Path}.key(),
		Status:           resp.Status,
		ResponseSize:     len(resp.Body),
		IntegrationError: resp.IntegrationError,
	})
}

func (r *Router) dispatch(ctx context.Context, binding Binding, env compute.Envelope) Response {
	inv, ok := r.bindings[binding]
	if !ok {
		r.logger.Warn("no binding for route", "requestId", env.RequestID, "routeKey", binding.key())
		return Response{
			Status: http.StatusNotFound,
			Body:   errorBody("no route for " + binding.key()),
		}
	}

	result, err := inv.Invoke(ctx, env)
	if err != nil {
		return r.failureResponse(env, err)
	}

	return Response{Status: result.Status, Body: result.Body}
}

func (r *Router) failureResponse(env compute.Envelope, err error) Response {
	f := compute.AsFailure(err)

	switch f.Kind {
	case compute.FailureValidation:
		return Response{
			Status: http.StatusBadRequest,
			Body:   errorBody(f.Err.Error()),
		}
	default:
		r.logger.Error("compute invocation failed",
			"requestId", env.RequestID,
			"kind", f.Kind.String(),
			"error", f.Err,
		)
		return Response{
			Status:           http.StatusBadGateway,
			Body:             errorBody("upstream failure"),
			IntegrationError: f.Error(),
		}
	}
}

type errorResponse struct {
	Description string `json:"description"`
}

func errorBody(description string) []byte {
	body, err := json.Marshal(errorResponse{Description: description})
	if err != nil {
		return []byte(`{"description":"internal error"}`)
	}
	return body
}
