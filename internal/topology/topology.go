// Package topology describes the managed-service layout of the catalog
// write path: the table and its key schema, the single route binding, the
// custom domain binding, and the access-log retention window. The document
// is the source of truth that every component is constructed from.
package topology

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gopkg.in/yaml.v3"
)

// Attribute kinds understood by the key schema.
const (
	KindString = "S"
	KindNumber = "N"
)

// TLS policies accepted for a domain binding. Anything older than 1.2 is
// rejected at validation time.
const (
	TLSPolicy12 = "TLS_1_2"
	TLSPolicy13 = "TLS_1_3"
)

var ErrInvalidTopology = errors.New("invalid topology")

// Document is the root of a topology manifest.
type Document struct {
	Table     Table     `yaml:"table"`
	Route     Route     `yaml:"route"`
	Domain    Domain    `yaml:"domain"`
	AccessLog AccessLog `yaml:"accessLog"`
}

// Table describes the catalog table and its composite primary key.
type Table struct {
	Name         string `yaml:"name"`
	PartitionKey KeyDef `yaml:"partitionKey"`
	SortKey      KeyDef `yaml:"sortKey"`
}

// KeyDef is one key attribute definition.
type KeyDef struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
}

// Route is the single static method+path binding served by the router.
type Route struct {
	Method string `yaml:"method"`
	Path   string `yaml:"path"`
	Target string `yaml:"target"`
}

// Domain binds a hostname to the router's endpoint behind a validated
// certificate.
type Domain struct {
	Hostname       string `yaml:"hostname"`
	CertificateARN string `yaml:"certificateArn"`
	HostedZoneID   string `yaml:"hostedZoneId"`
	// EndpointTarget is the DNS name of the router's current endpoint. The
	// hostname is published as an alias to it, never as a static address.
	EndpointTarget string `yaml:"endpointTarget"`
	// EndpointZoneID is the hosted zone of the endpoint target, required for
	// alias records.
	EndpointZoneID string `yaml:"endpointZoneId"`
	TLSPolicy      string `yaml:"tlsPolicy"`
}

// AccessLog configures the durable access-log sink.
type AccessLog struct {
	QueueName     string `yaml:"queueName"`
	RetentionDays int    `yaml:"retentionDays"`
}

// Parse decodes and validates a topology manifest.
func Parse(data []byte) (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal topology: %w", err)
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}

	return &doc, nil
}

// Validate checks the whole document for internal consistency.
func (d *Document) Validate() error {
	if d.Table.Name == "" {
		return fmt.Errorf("%w: table name is required", ErrInvalidTopology)
	}
	if err := d.Table.PartitionKey.validate("partition key"); err != nil {
		return err
	}
	if err := d.Table.SortKey.validate("sort key"); err != nil {
		return err
	}

	switch d.Route.Method {
	case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
	default:
		return fmt.Errorf("%w: unknown route method %q", ErrInvalidTopology, d.Route.Method)
	}
	if !strings.HasPrefix(d.Route.Path, "/") {
		return fmt.Errorf("%w: route path %q must start with /", ErrInvalidTopology, d.Route.Path)
	}
	if d.Route.Target == "" {
		return fmt.Errorf("%w: route target is required", ErrInvalidTopology)
	}

	if d.Domain.Hostname != "" {
		if d.Domain.CertificateARN == "" {
			return fmt.Errorf("%w: domain %q has no certificate", ErrInvalidTopology, d.Domain.Hostname)
		}
		if d.Domain.EndpointTarget == "" {
			return fmt.Errorf("%w: domain %q has no endpoint target", ErrInvalidTopology, d.Domain.Hostname)
		}
		switch d.Domain.TLSPolicy {
		case "", TLSPolicy12, TLSPolicy13:
		default:
			return fmt.Errorf("%w: tls policy %q is below the TLS 1.2 floor", ErrInvalidTopology, d.Domain.TLSPolicy)
		}
	}

	if d.AccessLog.RetentionDays < 0 {
		return fmt.Errorf("%w: negative access log retention", ErrInvalidTopology)
	}

	return nil
}

func (k KeyDef) validate(role string) error {
	if k.Name == "" {
		return fmt.Errorf("%w: %s name is required", ErrInvalidTopology, role)
	}
	if k.Kind != KindString && k.Kind != KindNumber {
		return fmt.Errorf("%w: %s kind %q must be %q or %q", ErrInvalidTopology, role, k.Kind, KindString, KindNumber)
	}
	return nil
}
