package topology

import (
	"errors"
	"testing"

	"gotest.tools/v3/assert"
)

const manifest = `
table:
  name: movies
  partitionKey:
    name: year
    kind: N
  sortKey:
    name: title
    kind: S
route:
  method: POST
  path: /movies
  target: upsert-movie
domain:
  hostname: movies.example.com
  certificateArn: arn:aws:acm:us-west-2:111122223333:certificate/abc
  hostedZoneId: Z0123456789
  endpointTarget: d-abc123.execute-api.us-west-2.amazonaws.com
  endpointZoneId: Z2OJLYMUO9EFXC
  tlsPolicy: TLS_1_2
accessLog:
  queueName: movies-access-log
  retentionDays: 7
`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(manifest))
	assert.NilError(t, err)

	assert.Equal(t, "movies", doc.Table.Name)
	assert.Equal(t, KeyDef{Name: "year", Kind: KindNumber}, doc.Table.PartitionKey)
	assert.Equal(t, KeyDef{Name: "title", Kind: KindString}, doc.Table.SortKey)
	assert.Equal(t, "POST", doc.Route.Method)
	assert.Equal(t, "/movies", doc.Route.Path)
	assert.Equal(t, "movies.example.com", doc.Domain.Hostname)
	assert.Equal(t, 7, doc.AccessLog.RetentionDays)
}

func TestParseRejectsBadDocuments(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Document)
	}{
		{"missing table name", func(d *Document) { d.Table.Name = "" }},
		{"bad key kind", func(d *Document) { d.Table.PartitionKey.Kind = "B" }},
		{"unknown method", func(d *Document) { d.Route.Method = "FETCH" }},
		{"relative path", func(d *Document) { d.Route.Path = "movies" }},
		{"missing target", func(d *Document) { d.Route.Target = "" }},
		{"domain without certificate", func(d *Document) { d.Domain.CertificateARN = "" }},
		{"domain without endpoint", func(d *Document) { d.Domain.EndpointTarget = "" }},
		{"tls policy below floor", func(d *Document) { d.Domain.TLSPolicy = "TLS_1_0" }},
		{"negative retention", func(d *Document) { d.AccessLog.RetentionDays = -1 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			doc, err := Parse([]byte(manifest))
			assert.NilError(t, err)

			tc.mutate(doc)
			err = doc.Validate()
			assert.Assert(t, errors.Is(err, ErrInvalidTopology), "expected ErrInvalidTopology, got %v", err)
		})
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("table: ["))
	assert.Assert(t, err != nil)
}
