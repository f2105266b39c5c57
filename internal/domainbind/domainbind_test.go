package domainbind

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/acm"
	acmtypes "github.com/aws/aws-sdk-go-v2/service/acm/types"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	r53types "github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/filmstack/catalog/internal/topology"
	"gotest.tools/v3/assert"
)

type mockACMClient struct {
	describeFunc func(ctx context.Context, params *acm.DescribeCertificateInput, optFns ...func(*acm.Options)) (*acm.DescribeCertificateOutput, error)
}

func (m *mockACMClient) DescribeCertificate(ctx context.Context, params *acm.DescribeCertificateInput, optFns ...func(*acm.Options)) (*acm.DescribeCertificateOutput, error) {
	return m.describeFunc(ctx, params, optFns...)
}

type mockRoute53Client struct {
	changes []*route53.ChangeResourceRecordSetsInput
	err     error
}

func (m *mockRoute53Client) ChangeResourceRecordSets(ctx context.Context, params *route53.ChangeResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.changes = append(m.changes, params)
	return &route53.ChangeResourceRecordSetsOutput{}, nil
}

func issuedCert(domain string) *mockACMClient {
	return &mockACMClient{
		describeFunc: func(ctx context.Context, params *acm.DescribeCertificateInput, optFns ...func(*acm.Options)) (*acm.DescribeCertificateOutput, error) {
			return &acm.DescribeCertificateOutput{
				Certificate: &acmtypes.CertificateDetail{
					Status:     acmtypes.CertificateStatusIssued,
					DomainName: aws.String(domain),
				},
			}, nil
		},
	}
}

func pendingCert() *mockACMClient {
	return &mockACMClient{
		describeFunc: func(ctx context.Context, params *acm.DescribeCertificateInput, optFns ...func(*acm.Options)) (*acm.DescribeCertificateOutput, error) {
			return &acm.DescribeCertificateOutput{
				Certificate: &acmtypes.CertificateDetail{
					Status: acmtypes.CertificateStatusPendingValidation,
				},
			}, nil
		},
	}
}

func testSpec() topology.Domain {
	return topology.Domain{
		Hostname:       "movies.example.com",
		CertificateARN: "arn:aws:acm:us-west-2:111122223333:certificate/abc",
		HostedZoneID:   "Z0123456789",
		EndpointTarget: "d-abc123.execute-api.us-west-2.amazonaws.com",
		EndpointZoneID: "Z2OJLYMUO9EFXC",
		TLSPolicy:      topology.TLSPolicy12,
	}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestActivate(t *testing.T) {
	dns := &mockRoute53Client{}
	b := New(testSpec(), issuedCert("movies.example.com"), dns, newTestLogger())

	assert.Assert(t, !b.Active())
	assert.NilError(t, b.Activate(context.Background()))
	assert.Assert(t, b.Active())

	hostname, err := b.Hostname()
	assert.NilError(t, err)
	assert.Equal(t, "movies.example.com", hostname)

	// The published record must be an alias to the endpoint target, not a
	// static address.
	assert.Equal(t, 1, len(dns.changes))
	change := dns.changes[0].ChangeBatch.Changes[0]
	assert.Equal(t, r53types.ChangeActionUpsert, change.Action)
	rrs := change.ResourceRecordSet
	assert.Equal(t, "movies.example.com", aws.ToString(rrs.Name))
	assert.Assert(t, rrs.AliasTarget != nil)
	assert.Equal(t, "d-abc123.execute-api.us-west-2.amazonaws.com", aws.ToString(rrs.AliasTarget.DNSName))
	assert.Equal(t, 0, len(rrs.ResourceRecords))
}

func TestActivateRefusesUnvalidatedCertificate(t *testing.T) {
	dns := &mockRoute53Client{}
	b := New(testSpec(), pendingCert(), dns, newTestLogger())

	err := b.Activate(context.Background())
	assert.Assert(t, errors.Is(err, ErrCertificateNotValidated))
	assert.Assert(t, !b.Active())
	assert.Equal(t, 0, len(dns.changes), "no DNS change before validation")

	_, err = b.Hostname()
	assert.Assert(t, errors.Is(err, ErrNotActive))
}

func TestActivateRefusesDomainMismatch(t *testing.T) {
	dns := &mockRoute53Client{}
	b := New(testSpec(), issuedCert("other.example.com"), dns, newTestLogger())

	err := b.Activate(context.Background())
	assert.Assert(t, errors.Is(err, ErrDomainMismatch))
	assert.Assert(t, !b.Active())
	assert.Equal(t, 0, len(dns.changes))
}

func TestActivateRefusesLowTLSPolicy(t *testing.T) {
	spec := testSpec()
	spec.TLSPolicy = "TLS_1_0"
	b := New(spec, issuedCert("movies.example.com"), &mockRoute53Client{}, newTestLogger())

	err := b.Activate(context.Background())
	assert.Assert(t, errors.Is(err, ErrTLSPolicyTooLow))
	assert.Assert(t, !b.Active())
}

func TestActivateReportsDNSFailure(t *testing.T) {
	dns := &mockRoute53Client{err: errors.New("zone not found")}
	b := New(testSpec(), issuedCert("movies.example.com"), dns, newTestLogger())

	err := b.Activate(context.Background())
	assert.Assert(t, err != nil)
	assert.Assert(t, !b.Active())
}
