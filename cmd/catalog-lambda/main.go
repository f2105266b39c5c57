package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/filmstack/catalog/internal/accesslog"
	"github.com/filmstack/catalog/internal/compute"
	"github.com/filmstack/catalog/internal/config"
	"github.com/filmstack/catalog/internal/router"
	"github.com/filmstack/catalog/internal/security"
	"github.com/filmstack/catalog/internal/store"
	"github.com/filmstack/catalog/internal/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/otel"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("unable to load config: %s", err)
	}
	log.Printf("Using %q as the catalog table", cfg.Table)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// The collector sidecar is optional in Lambda; spans fall back to the
	// noop tracer when it is absent.
	if err := tracing.Setup(ctx, config.ServiceName()); err != nil {
		log.Printf("tracer unavailable, continuing without export: %s", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("unable to load aws config: %s", err)
	}
	otelaws.AppendMiddlewares(&awsCfg.APIOptions)

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	caps, err := security.NewCapabilitySet(cfg.Table, cfg.LogGroup, cfg.TraceGroup)
	if err != nil {
		log.Fatalf("unable to build capability set: %s", err)
	}

	entries, err := store.New(dynamodb.NewFromConfig(awsCfg), cfg.Table, caps, logger)
	if err != nil {
		log.Fatalf("unable to build store: %s", err)
	}

	var pipeline *accesslog.Pipeline
	if cfg.AccessLogQueue != "" {
		sqsClient := sqs.NewFromConfig(awsCfg)
		queueURL, err := accesslog.ResolveQueueURL(ctx, sqsClient, cfg.AccessLogQueue)
		if err != nil {
			log.Fatalf("unable to resolve access log queue %q: %s", cfg.AccessLogQueue, err)
		}
		pipeline = accesslog.New(sqsClient, queueURL, logger)
	} else {
		pipeline = accesslog.New(nil, "", logger)
	}

	rt, err := router.New(pipeline, logger)
	if err != nil {
		log.Fatalf("unable to build router: %s", err)
	}

	rt.Bind(http.MethodPost, "/movies", &compute.Invoker{
		Handler: &compute.UpsertEntry{Store: entries, Logger: logger},
		Timeout: cfg.ComputeTimeout,
		Tracer:  otel.Tracer(""),
	})

	lambda.Start(rt.HandleAPIGateway)
}
