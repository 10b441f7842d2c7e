package core

import (
	"context"
	"maps"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
)

// LambdaHandler is the signature lambda.Start expects for API Gateway HTTP
// API (payload format 2.0) integrations.
type LambdaHandler func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

// NewLambdaHandler serves API Gateway v2 HTTP events through h, the same
// router used in HTTP mode.
//
// Event translation is delegated to aws-lambda-go-api-proxy:
//   - Base64 request bodies are decoded before they reach h.
//   - Non-UTF-8 response bodies (gzip) are returned base64 encoded.
//   - Set-Cookie response headers are moved into the event's Cookies list.
//
// The API Gateway request ID seeds X-Request-Id when the caller sent none,
// so access logs correlate with the gateway's own logs.
func NewLambdaHandler(h http.Handler) LambdaHandler {
	adapter := httpadapter.NewV2(h)
	return func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		if id := req.RequestContext.RequestID; id != "" && !hasHeader(req.Headers, requestIDHeader) {
			headers := make(map[string]string, len(req.Headers)+1)
			maps.Copy(headers, req.Headers)
			headers[requestIDHeader] = id
			req.Headers = headers
		}
		return adapter.ProxyWithContext(ctx, req)
	}
}

// hasHeader reports whether name is present in an event header map, whose
// keys arrive lowercased from API Gateway but may be mixed case in tests.
func hasHeader(headers map[string]string, name string) bool {
	canonical := http.CanonicalHeaderKey(name)
	for k := range headers {
		if http.CanonicalHeaderKey(k) == canonical {
			return true
		}
	}
	return false
}
