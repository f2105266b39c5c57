// Package config collects the runtime configuration of the catalog write
// path from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

const (
	defaultServiceName    = "catalog"
	defaultComputeTimeout = 10 * time.Second
	defaultRetentionDays  = 7
)

// Config is the environment-derived runtime configuration.
type Config struct {
	// Table is the catalog table name, the storage resource identity.
	Table string

	// AccessLogQueue is the name of the durable access-log queue. Empty
	// disables queue delivery.
	AccessLogQueue string

	// LogGroup and TraceGroup name the log and trace sinks the security
	// boundary grants access to.
	LogGroup   string
	TraceGroup string

	// ComputeTimeout bounds every compute invocation.
	ComputeTimeout time.Duration

	// RetentionDays is the access-log retention window.
	RetentionDays int

	// Domain binding settings; Hostname empty means no custom domain.
	Hostname       string
	CertificateARN string
	HostedZoneID   string
	EndpointTarget string
	EndpointZoneID string
	TLSPolicy      string
}

// FromEnv loads the configuration. CATALOG_TABLE is required; everything
// else has a default or is optional.
func FromEnv() (Config, error) {
	table, ok := os.LookupEnv("CATALOG_TABLE")
	if !ok {
		return Config{}, fmt.Errorf("CATALOG_TABLE is not set")
	}

	cfg := Config{
		Table:          table,
		AccessLogQueue: os.Getenv("ACCESS_LOG_QUEUE"),
		LogGroup:       envOr("LOG_GROUP", table+"-access-log"),
		TraceGroup:     envOr("TRACE_GROUP", table+"-traces"),
		ComputeTimeout: defaultComputeTimeout,
		RetentionDays:  defaultRetentionDays,
		Hostname:       os.Getenv("DOMAIN_HOSTNAME"),
		CertificateARN: os.Getenv("DOMAIN_CERTIFICATE_ARN"),
		HostedZoneID:   os.Getenv("DOMAIN_HOSTED_ZONE_ID"),
		EndpointTarget: os.Getenv("DOMAIN_ENDPOINT_TARGET"),
		EndpointZoneID: os.Getenv("DOMAIN_ENDPOINT_ZONE_ID"),
		TLSPolicy:      os.Getenv("DOMAIN_TLS_POLICY"),
	}

	if v, ok := os.LookupEnv("COMPUTE_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse COMPUTE_TIMEOUT: %w", err)
		}
		cfg.ComputeTimeout = d
	}

	if v, ok := os.LookupEnv("ACCESS_LOG_RETENTION_DAYS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return Config{}, fmt.Errorf("invalid ACCESS_LOG_RETENTION_DAYS %q", v)
		}
		cfg.RetentionDays = n
	}

	return cfg, nil
}

// ServiceName derives the service name reported to the trace sink.
func ServiceName() string {
	return envOr("SERVICE_NAME", defaultServiceName)
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
