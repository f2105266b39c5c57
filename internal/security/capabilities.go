// Package security models the least-privilege boundary the compute handler
// runs under. The capability set is enumerated and checked at construction,
// so a mis-scoped grant fails before the service takes traffic instead of
// being discovered at runtime.
package security

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Action is one platform operation a capability can grant.
type Action string

const (
	ActionStoreRead   Action = "store:read"
	ActionStoreWrite  Action = "store:write"
	ActionStoreUpdate Action = "store:update"
	ActionLogWrite    Action = "log:write"
	ActionTraceWrite  Action = "trace:write"
)

var (
	// ErrAuthorizationDenied is returned for any action/resource pair
	// outside the granted set.
	ErrAuthorizationDenied = errors.New("authorization denied")

	// ErrInvalidGrant is returned when a capability set is constructed with
	// an empty or wildcard resource.
	ErrInvalidGrant = errors.New("invalid capability grant")
)

// CapabilitySet is the full permission surface of the compute execution
// context: the one catalog table, the log sink, and the trace sink.
type CapabilitySet struct {
	grants map[Action]string
}

// NewCapabilitySet builds the boundary for one table and one log sink.
// Resources must be specific identities; wildcards are rejected.
func NewCapabilitySet(tableResource, logResource, traceResource string) (*CapabilitySet, error) {
	for _, r := range []string{tableResource, logResource, traceResource} {
		if r == "" {
			return nil, fmt.Errorf("%w: empty resource", ErrInvalidGrant)
		}
		if strings.Contains(r, "*") {
			return nil, fmt.Errorf("%w: wildcard resource %q", ErrInvalidGrant, r)
		}
	}

	return &CapabilitySet{
		grants: map[Action]string{
			ActionStoreRead:   tableResource,
			ActionStoreWrite:  tableResource,
			ActionStoreUpdate: tableResource,
			ActionLogWrite:    logResource,
			ActionTraceWrite:  traceResource,
		},
	}, nil
}

// Authorize checks one action against one resource identity.
func (c *CapabilitySet) Authorize(action Action, resource string) error {
	granted, ok := c.grants[action]
	if !ok {
		return fmt.Errorf("%w: action %q is not granted", ErrAuthorizationDenied, action)
	}
	if granted != resource {
		return fmt.Errorf("%w: action %q is not granted on %q", ErrAuthorizationDenied, action, resource)
	}
	return nil
}

// StoreResource returns the identity of the single storage resource the set
// grants access to.
func (c *CapabilitySet) StoreResource() string {
	return c.grants[ActionStoreWrite]
}

type policyStatement struct {
	Effect   string   `json:"Effect"`
	Action   []string `json:"Action"`
	Resource []string `json:"Resource"`
}

type policyDocument struct {
	Version   string            `json:"Version"`
	Statement []policyStatement `json:"Statement"`
}

// PolicyDocument renders the IAM policy equivalent to the capability set,
// with every statement scoped to a specific ARN in the given region and
// account.
func (c *CapabilitySet) PolicyDocument(region, accountID string) ([]byte, error) {
	if region == "" || accountID == "" {
		return nil, fmt.Errorf("%w: region and account are required to render ARNs", ErrInvalidGrant)
	}

	doc := policyDocument{
		Version: "2012-10-17",
		Statement: []policyStatement{
			{
				Effect: "Allow",
				Action: []string{"dynamodb:GetItem", "dynamodb:PutItem", "dynamodb:UpdateItem"},
				Resource: []string{
					fmt.Sprintf("arn:aws:dynamodb:%s:%s:table/%s", region, accountID, c.grants[ActionStoreWrite]),
				},
			},
			{
				Effect: "Allow",
				Action: []string{"logs:CreateLogStream", "logs:PutLogEvents"},
				Resource: []string{
					fmt.Sprintf("arn:aws:logs:%s:%s:log-group:%s:log-stream:", region, accountID, c.grants[ActionLogWrite]),
				},
			},
			{
				Effect:   "Allow",
				Action:   []string{"xray:PutTraceSegments", "xray:PutTelemetryRecords"},
				Resource: []string{fmt.Sprintf("arn:aws:xray:%s:%s:group/%s", region, accountID, c.grants[ActionTraceWrite])},
			},
		},
	}

	return json.MarshalIndent(doc, "", "  ")
}
