package compute

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/filmstack/catalog/internal/catalog"
	"github.com/filmstack/catalog/internal/tracing"
	"go.opentelemetry.io/otel/trace"
)

// EntryStore is the slice of the storage schema the upsert handler needs.
type EntryStore interface {
	TableName() string
	Upsert(ctx context.Context, entry catalog.Entry) error
}

// UpsertEntry is the handler behind the catalog write route: it decodes a
// CatalogEntry from the request body and upserts it by (year, title).
type UpsertEntry struct {
	Store  EntryStore
	Logger *slog.Logger
}

func (h *UpsertEntry) Handle(ctx context.Context, env Envelope) (Result, error) {
	var entry catalog.Entry
	if err := json.Unmarshal(env.Body, &entry); err != nil {
		return Result{}, &Failure{Kind: FailureValidation, Err: fmt.Errorf("decode entry: %w", err)}
	}

	if err := entry.Validate(); err != nil {
		return Result{}, &Failure{Kind: FailureValidation, Err: err}
	}

	h.Logger.Info("creating entry",
		"requestId", env.RequestID,
		"traceId", tracing.XRayTraceID(trace.SpanFromContext(ctx)),
		"table", h.Store.TableName(),
		"year", entry.Year,
		"title", entry.Title,
	)

	if err := h.Store.Upsert(ctx, entry); err != nil {
		return Result{}, &Failure{Kind: FailureStorage, Err: err}
	}

	body, err := json.Marshal(entry)
	if err != nil {
		return Result{}, &Failure{Kind: FailureInternal, Err: fmt.Errorf("encode entry: %w", err)}
	}

	return Result{Status: http.StatusCreated, Body: body}, nil
}
