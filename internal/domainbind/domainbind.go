// Package domainbind binds the custom hostname to the router's endpoint.
// The binding stays inactive until its certificate is validated for exactly
// the served hostname; only then is the DNS alias published.
package domainbind

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/acm"
	acmtypes "github.com/aws/aws-sdk-go-v2/service/acm/types"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/filmstack/catalog/internal/topology"
)

var (
	// ErrCertificateNotValidated is returned while the certificate is still
	// pending validation or has failed it.
	ErrCertificateNotValidated = errors.New("certificate is not validated")

	// ErrDomainMismatch is returned when the certificate's validated domain
	// differs from the served hostname.
	ErrDomainMismatch = errors.New("certificate domain does not match hostname")

	// ErrTLSPolicyTooLow is returned for a security policy below TLS 1.2.
	ErrTLSPolicyTooLow = errors.New("tls policy below the TLS 1.2 floor")

	// ErrNotActive is returned when the binding is asked to serve before
	// activation completed.
	ErrNotActive = errors.New("domain binding is not active")
)

// ACMClient defines the certificate operations the binding uses.
type ACMClient interface {
	DescribeCertificate(ctx context.Context, params *acm.DescribeCertificateInput, optFns ...func(*acm.Options)) (*acm.DescribeCertificateOutput, error)
}

// Route53Client defines the DNS operations the binding uses.
type Route53Client interface {
	ChangeResourceRecordSets(ctx context.Context, params *route53.ChangeResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error)
}

var (
	_ ACMClient     = (*acm.Client)(nil)
	_ Route53Client = (*route53.Client)(nil)
)

// Binding associates one hostname with the router's endpoint target.
type Binding struct {
	spec   topology.Domain
	acm    ACMClient
	dns    Route53Client
	logger *slog.Logger

	mu     sync.Mutex
	active bool
}

// New builds an inactive binding from its topology spec.
func New(spec topology.Domain, acmClient ACMClient, dnsClient Route53Client, logger *slog.Logger) *Binding {
	return &Binding{
		spec:   spec,
		acm:    acmClient,
		dns:    dnsClient,
		logger: logger,
	}
}

// Active reports whether the binding has been activated.
func (b *Binding) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.active
}

// Hostname returns the served hostname, or ErrNotActive before activation so
// an unvalidated binding cannot be handed out to serve traffic.
func (b *Binding) Hostname() (string, error) {
	if !b.Active() {
		return "", fmt.Errorf("%s: %w", b.spec.Hostname, ErrNotActive)
	}
	return b.spec.Hostname, nil
}

// Activate validates the certificate and publishes the alias record. The
// binding serves nothing until this succeeds.
func (b *Binding) Activate(ctx context.Context) error {
	if err := checkTLSPolicy(b.spec.TLSPolicy); err != nil {
		return err
	}

	if err := b.checkCertificate(ctx); err != nil {
		return err
	}

	if err := b.upsertAlias(ctx); err != nil {
		return err
	}

	b.mu.Lock()
	b.active = true
	b.mu.Unlock()

	b.logger.Info("domain binding active",
		"hostname", b.spec.Hostname,
		"endpointTarget", b.spec.EndpointTarget,
		"tlsPolicy", b.spec.TLSPolicy,
	)
	return nil
}

func checkTLSPolicy(policy string) error {
	switch policy {
	case "", topology.TLSPolicy12, topology.TLSPolicy13:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrTLSPolicyTooLow, policy)
	}
}

func (b *Binding) checkCertificate(ctx context.Context) error {
	out, err := b.acm.DescribeCertificate(ctx, &acm.DescribeCertificateInput{
		CertificateArn: aws.String(b.spec.CertificateARN),
	})
	if err != nil {
		return fmt.Errorf("describe certificate: %w", err)
	}

	cert := out.Certificate
	if cert == nil || cert.Status != acmtypes.CertificateStatusIssued {
		return fmt.Errorf("%w: certificate %s", ErrCertificateNotValidated, b.spec.CertificateARN)
	}

	if aws.ToString(cert.DomainName) != b.spec.Hostname {
		return fmt.Errorf("%w: certificate covers %q, binding serves %q",
			ErrDomainMismatch, aws.ToString(cert.DomainName), b.spec.Hostname)
	}

	return nil
}

// upsertAlias publishes the hostname as an alias to the endpoint target so
// endpoint rotation never needs a DNS change.
func (b *Binding) upsertAlias(ctx context.Context) error {
	_, err := b.dns.ChangeResourceRecordSets(ctx, &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(b.spec.HostedZoneID),
		ChangeBatch: &r53types.ChangeBatch{
			Comment: aws.String("catalog write path domain binding"),
			Changes: []r53types.Change{
				{
					Action: r53types.ChangeActionUpsert,
					ResourceRecordSet: &r53types.ResourceRecordSet{
						Name: aws.String(b.spec.Hostname),
						Type: r53types.RRTypeA,
						AliasTarget: &r53types.AliasTarget{
							DNSName:              aws.String(b.spec.EndpointTarget),
							HostedZoneId:         aws.String(b.spec.EndpointZoneID),
							EvaluateTargetHealth: false,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("upsert alias record: %w", err)
	}

	return nil
}
