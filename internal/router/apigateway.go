package router

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/filmstack/catalog/internal/catalog"
	"github.com/filmstack/catalog/internal/compute"
)

// HandleAPIGateway adapts an API Gateway proxy event to the router's
// envelope. The gateway's own request ID is reused so access records line up
// with the platform's logs.
func (r *Router) HandleAPIGateway(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	requestID := req.RequestContext.RequestID
	if requestID == "" {
		requestID = catalog.NewRequestID()
	}

	resp := r.Dispatch(ctx, compute.Envelope{
		RequestID: requestID,
		Method:    req.HTTPMethod,
		Path:      req.Path,
		Protocol:  req.RequestContext.Protocol,
		SourceIP:  req.RequestContext.Identity.SourceIP,
		Headers:   req.Headers,
		Body:      []byte(req.Body),
	})

	return events.APIGatewayProxyResponse{
		StatusCode: resp.Status,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       string(resp.Body),
	}, nil
}
