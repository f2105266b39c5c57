package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/filmstack/catalog/internal/accesslog"
	"github.com/filmstack/catalog/internal/config"
	"github.com/filmstack/catalog/internal/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/otel"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("unable to load config: %s", err)
	}
	if cfg.AccessLogQueue == "" {
		log.Fatalf("ACCESS_LOG_QUEUE is not set")
	}

	ctx := context.Background()

	if err := tracing.Setup(ctx, config.ServiceName()+"-relay"); err != nil {
		log.Fatalf("unable to setup tracer: %s", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("unable to load aws config: %s", err)
	}
	otelaws.AppendMiddlewares(&awsCfg.APIOptions)

	sqsClient := sqs.NewFromConfig(awsCfg)
	queueURL, err := accesslog.ResolveQueueURL(ctx, sqsClient, cfg.AccessLogQueue)
	if err != nil {
		log.Fatalf("unable to resolve queue %q: %s", cfg.AccessLogQueue, err)
	}

	r := &Relay{
		SQS:       sqsClient,
		Sink:      slog.New(slog.NewJSONHandler(os.Stdout, nil)),
		Tracer:    otel.Tracer(""),
		QueueName: cfg.AccessLogQueue,
		QueueURL:  queueURL,
		Retention: time.Duration(cfg.RetentionDays) * 24 * time.Hour,
	}

	log.Printf("Waiting for access records from %s", r.QueueURL)

	if err := r.ReceiveAndRelay(ctx); err != nil {
		log.Fatalf("unable to receive and relay: %s", err)
	}
}
