package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/acm"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/filmstack/catalog/internal/accesslog"
	"github.com/filmstack/catalog/internal/compute"
	"github.com/filmstack/catalog/internal/config"
	"github.com/filmstack/catalog/internal/domainbind"
	"github.com/filmstack/catalog/internal/router"
	"github.com/filmstack/catalog/internal/security"
	"github.com/filmstack/catalog/internal/store"
	"github.com/filmstack/catalog/internal/topology"
	"github.com/filmstack/catalog/internal/tracing"
	"go.opentelemetry.io/contrib/instrumentation/github.com/aws/aws-sdk-go-v2/otelaws"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("unable to load config: %s", err)
	}
	log.Printf("Using %q as the catalog table", cfg.Table)

	// Timeout for setup functions
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := tracing.Setup(ctx, config.ServiceName()); err != nil {
		log.Fatalf("unable to setup tracer: %s", err)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		log.Fatalf("unable to load aws config: %s", err)
	}
	otelaws.AppendMiddlewares(&awsCfg.APIOptions)

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	// The boundary is constructed before anything that touches the store.
	caps, err := security.NewCapabilitySet(cfg.Table, cfg.LogGroup, cfg.TraceGroup)
	if err != nil {
		log.Fatalf("unable to build capability set: %s", err)
	}

	entries, err := store.New(dynamodb.NewFromConfig(awsCfg), cfg.Table, caps, logger)
	if err != nil {
		log.Fatalf("unable to build store: %s", err)
	}

	// The access log pipeline must exist before the router.
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

	if cfg.Hostname != "" {
		binding := domainbind.New(topology.Domain{
			Hostname:       cfg.Hostname,
			CertificateARN: cfg.CertificateARN,
			HostedZoneID:   cfg.HostedZoneID,
			EndpointTarget: cfg.EndpointTarget,
			EndpointZoneID: cfg.EndpointZoneID,
			TLSPolicy:      cfg.TLSPolicy,
		}, acm.NewFromConfig(awsCfg), route53.NewFromConfig(awsCfg), logger)

		if err := binding.Activate(ctx); err != nil {
			log.Fatalf("unable to activate domain binding for %q: %s", cfg.Hostname, err)
		}
	}

	mux := http.NewServeMux()

	// Simple health check endpoint
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
	})

	mux.Handle("/", otelhttp.NewHandler(rt, "catalog"))

	log.Printf("Starting server on :8080")
	if err := http.ListenAndServe(":8080", mux); err != nil {
		log.Fatalf("error serving: %s", err)
	}
}
