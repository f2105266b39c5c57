package router

import (
	"io"
	"net"
	"net/http"

	"github.com/filmstack/catalog/internal/catalog"
	"github.com/filmstack/catalog/internal/compute"
)

// ServeHTTP adapts a net/http request to the router's envelope. Request IDs
// come from the X-Request-Id header when a fronting proxy set one, otherwise
// a new one is minted here.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	requestID := req.Header.Get("X-Request-Id")
	if requestID == "" {
		requestID = catalog.NewRequestID()
	}

	sourceIP := req.RemoteAddr
	if host, _, splitErr := net.SplitHostPort(req.RemoteAddr); splitErr == nil {
		sourceIP = host
	}

	headers := make(map[string]string, len(req.Header))
	for name := range req.Header {
		headers[name] = req.Header.Get(name)
	}

	env := compute.Envelope{
		RequestID: requestID,
		Method:    req.Method,
		Path:      req.URL.Path,
		Protocol:  req.Proto,
		SourceIP:  sourceIP,
		Headers:   headers,
	}

	var resp Response
	body, err := io.ReadAll(req.Body)
	if err != nil {
		resp = r.Reject(req.Context(), env, http.StatusBadRequest, "unable to read request body")
	} else {
		env.Body = body
		resp = r.Dispatch(req.Context(), env)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(resp.Status)
	if _, err := w.Write(resp.Body); err != nil {
		r.logger.Error("failed to write response", "requestId", requestID, "error", err)
	}
}
