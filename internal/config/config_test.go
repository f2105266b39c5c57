package config

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"
)

func TestFromEnvRequiresTable(t *testing.T) {
	_, err := FromEnv()
	assert.ErrorContains(t, err, "CATALOG_TABLE")
}

func TestFromEnvDefaults(t *testing.T) {
	t.Setenv("CATALOG_TABLE", "movies")

	cfg, err := FromEnv()
	assert.NilError(t, err)
	assert.Equal(t, "movies", cfg.Table)
	assert.Equal(t, "movies-access-log", cfg.LogGroup)
	assert.Equal(t, "movies-traces", cfg.TraceGroup)
	assert.Equal(t, 10*time.Second, cfg.ComputeTimeout)
	assert.Equal(t, 7, cfg.RetentionDays)
	assert.Equal(t, "", cfg.Hostname)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("CATALOG_TABLE", "movies")
	t.Setenv("COMPUTE_TIMEOUT", "2s")
	t.Setenv("ACCESS_LOG_RETENTION_DAYS", "14")
	t.Setenv("ACCESS_LOG_QUEUE", "movies-access-log")
	t.Setenv("DOMAIN_HOSTNAME", "movies.example.com")

	cfg, err := FromEnv()
	assert.NilError(t, err)
	assert.Equal(t, 2*time.Second, cfg.ComputeTimeout)
	assert.Equal(t, 14, cfg.RetentionDays)
	assert.Equal(t, "movies-access-log", cfg.AccessLogQueue)
	assert.Equal(t, "movies.example.com", cfg.Hostname)
}

func TestFromEnvRejectsBadOverrides(t *testing.T) {
	t.Setenv("CATALOG_TABLE", "movies")

	t.Setenv("COMPUTE_TIMEOUT", "soon")
	_, err := FromEnv()
	assert.ErrorContains(t, err, "COMPUTE_TIMEOUT")

	t.Setenv("COMPUTE_TIMEOUT", "2s")
	t.Setenv("ACCESS_LOG_RETENTION_DAYS", "-1")
	_, err = FromEnv()
	assert.ErrorContains(t, err, "ACCESS_LOG_RETENTION_DAYS")
}

func TestServiceName(t *testing.T) {
	assert.Equal(t, "catalog", ServiceName())

	t.Setenv("SERVICE_NAME", "movies-api")
	assert.Equal(t, "movies-api", ServiceName())
}
