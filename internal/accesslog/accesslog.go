// Package accesslog records one durable AccessLogRecord per inbound request.
// Every record is emitted as a structured log line; when a queue is
// configured the record is also delivered to the durable sink, best-effort,
// so a sink outage never fails the request it describes.
package accesslog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Record is the routing/security/outcome metadata of one request attempt.
type Record struct {
	RequestID        string    `json:"requestId"`
	SourceIP         string    `json:"sourceIp"`
	Time             time.Time `json:"time"`
	Protocol         string    `json:"protocol"`
	Method           string    `json:"method"`
	RouteKey         string    `json:"routeKey"`
	Status           int       `json:"status"`
	ResponseSize     int       `json:"responseSize"`
	IntegrationError string    `json:"integrationError,omitempty"`
}

// SQSClient defines the SQS operations the pipeline uses.
type SQSClient interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

var _ SQSClient = (*sqs.Client)(nil)

// Pipeline delivers access log records. With no queue client it is log-only,
// which is the shape tests and local runs use.
type Pipeline struct {
	client   SQSClient
	queueURL string
	logger   *slog.Logger
}

// New builds a pipeline that logs records and forwards them to queueURL.
// A nil client disables forwarding.
func New(client SQSClient, queueURL string, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		client:   client,
		queueURL: queueURL,
		logger:   logger,
	}
}

// ResolveQueueURL looks up the URL for the access-log queue by name.
func ResolveQueueURL(ctx context.Context, client *sqs.Client, queueName string) (string, error) {
	res, err := client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{
		QueueName: aws.String(queueName),
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(res.QueueUrl), nil
}

// Write emits one record. The log line always happens; queue delivery is
// best-effort and its failure is reported only through the logger.
func (p *Pipeline) Write(ctx context.Context, rec Record) {
	p.logger.Info("access",
		"requestId", rec.RequestID,
		"sourceIp", rec.SourceIP,
		"protocol", rec.Protocol,
		"method", rec.Method,
		"routeKey", rec.RouteKey,
		"status", rec.Status,
		"responseSize", rec.ResponseSize,
		"integrationError", rec.IntegrationError,
	)

	if p.client == nil {
		return
	}

	body, err := json.Marshal(rec)
	if err != nil {
		p.logger.Error("failed to marshal access record", "error", err, "requestId", rec.RequestID)
		return
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueURL),
		MessageBody: aws.String(string(body)),
	})
	if err != nil {
		p.logger.Error("failed to deliver access record", "error", err, "requestId", rec.RequestID)
	}
}
