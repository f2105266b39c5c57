package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/filmstack/catalog/internal/accesslog"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"
)

// Relay drains the access-log queue into the retained sink, discarding
// records that have aged past the retention window.
type Relay struct {
	SQS    *sqs.Client
	Sink   *slog.Logger
	Tracer trace.Tracer

	QueueName string
	QueueURL  string
	Retention time.Duration
}

func (r *Relay) ReceiveAndRelay(ctx context.Context) error {
	relayBatch := func(ctx context.Context) error {
		ctx, span := r.Tracer.Start(ctx, "relayBatch",
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(semconv.MessagingSystemKey.String("AmazonSQS")),
			trace.WithAttributes(semconv.MessagingSourceNameKey.String(r.QueueName)))
		defer span.End()

		msgs, err := r.receiveMessages(ctx)
		if err != nil {
			return spanErrorf(span, "receive messages: %w", err)
		}

		for _, msg := range msgs {
			if err := r.relayMessage(ctx, msg); err != nil {
				return spanErrorf(span, "relay message %q: %w", aws.ToString(msg.MessageId), err)
			}
		}

		return nil
	}

	for {
		if err := relayBatch(ctx); err != nil {
			log.Printf("error: %s", err)
		}
	}
}

func spanErrorf(span trace.Span, format string, a ...any) error {
	err := fmt.Errorf(format, a...)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func (r *Relay) receiveMessages(ctx context.Context) ([]types.Message, error) {
	res, err := r.SQS.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(r.QueueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     20,
	})
	if err != nil {
		return nil, err
	}

	return res.Messages, nil
}

func (r *Relay) relayMessage(ctx context.Context, msg types.Message) error {
	ctx, span := r.Tracer.Start(ctx, "relayMessage",
		trace.WithAttributes(semconv.MessagingMessageIDKey.String(aws.ToString(msg.MessageId))))
	defer span.End()

	var rec accesslog.Record
	if err := json.Unmarshal([]byte(aws.ToString(msg.Body)), &rec); err != nil {
		return spanErrorf(span, "unmarshal record: %w", err)
	}

	if time.Since(rec.Time) > r.Retention {
		r.Sink.Info("record past retention, discarding", "requestId", rec.RequestID, "time", rec.Time)
	} else {
		r.Sink.Info("access",
			"requestId", rec.RequestID,
			"sourceIp", rec.SourceIP,
			"time", rec.Time,
			"protocol", rec.Protocol,
			"method", rec.Method,
			"routeKey", rec.RouteKey,
			"status", rec.Status,
			"responseSize", rec.ResponseSize,
			"integrationError", rec.IntegrationError,
		)
	}

	if err := r.deleteMessage(ctx, msg.ReceiptHandle); err != nil {
		return spanErrorf(span, "delete message: %w", err)
	}

	return nil
}

func (r *Relay) deleteMessage(ctx context.Context, receiptHandle *string) error {
	_, err := r.SQS.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(r.QueueURL),
		ReceiptHandle: receiptHandle,
	})

	return err
}
