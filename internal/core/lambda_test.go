package core

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func v2Event(method, path, query, body string) events.APIGatewayV2HTTPRequest {
	return events.APIGatewayV2HTTPRequest{
		RawPath:        path,
		RawQueryString: query,
		Headers:        map[string]string{"content-type": "application/json"},
		Body:           body,
		RequestContext: events.APIGatewayV2HTTPRequestContext{
			RequestID:  "apigw-req-1",
			DomainName: "api.example.com",
			HTTP: events.APIGatewayV2HTTPRequestContextHTTPDescription{
				Method:   method,
				Path:     path,
				SourceIP: "203.0.113.7",
			},
		},
	}
}

func TestLambdaHandler_TranslatesRequestAndResponse(t *testing.T) {
	var got *http.Request
	var gotBody string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Type", "application/json")
		w.Header().Add("Set-Cookie", "a=1")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"ok":true}`))
	})

	ev := v2Event(http.MethodPost, "/v1/evaluations", "verbose=1", `{"facts":{}}`)
	resp, err := NewLambdaHandler(h)(context.Background(), ev)
	require.NoError(t, err)

	require.NotNil(t, got)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/v1/evaluations", got.URL.Path)
	assert.Equal(t, "1", got.URL.Query().Get("verbose"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Equal(t, "apigw-req-1", got.Header.Get("X-Request-Id"))
	assert.Equal(t, `{"facts":{}}`, gotBody)
	assert.Len(t, ev.Headers, 1, "caller's header map must not be mutated")

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Headers["Content-Type"])
	assert.Equal(t, []string{"a=1"}, resp.Cookies)
	assert.False(t, resp.IsBase64Encoded)
	assert.Equal(t, `{"ok":true}`, resp.Body)
}

func TestLambdaHandler_KeepsCallerRequestID(t *testing.T) {
	var gotID string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get("X-Request-Id")
		w.WriteHeader(http.StatusNoContent)
	})

	ev := v2Event(http.MethodGet, "/v1/rules", "", "")
	ev.Headers["x-request-id"] = "client-id"

	_, err := NewLambdaHandler(h)(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, "client-id", gotID)
}

func TestLambdaHandler_DecodesEscapedPath(t *testing.T) {
	var gotPath string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	})

	_, err := NewLambdaHandler(h)(context.Background(), v2Event(http.MethodGet, "/forecast/S%C3%A3o%20Paulo", "", ""))
	require.NoError(t, err)
	assert.Equal(t, "/forecast/São Paulo", gotPath)
}

func TestLambdaHandler_Base64Body(t *testing.T) {
	var gotBody string
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		w.Header().Set("Content-Encoding", "gzip")
		_, _ = w.Write([]byte{0x1f, 0x8b, 0x08})
	})

	ev := v2Event(http.MethodPost, "/v1/advisories/batch", "", base64.StdEncoding.EncodeToString([]byte(`{"cities":["Oslo"]}`)))
	ev.IsBase64Encoded = true

	resp, err := NewLambdaHandler(h)(context.Background(), ev)
	require.NoError(t, err)

	assert.Equal(t, `{"cities":["Oslo"]}`, gotBody)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, resp.IsBase64Encoded)
	raw, err := base64.StdEncoding.DecodeString(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0x8b, 0x08}, raw)
}

func TestLambdaHandler_InvalidBase64(t *testing.T) {
	ev := v2Event(http.MethodPost, "/", "", "!!not base64!!")
	ev.IsBase64Encoded = true

	_, err := NewLambdaHandler(http.NotFoundHandler())(context.Background(), ev)
	assert.Error(t, err)
}

func TestLambdaHandler_ServesRouter(t *testing.T) {
	srv := newTestServerForRoutes(t)
	srv.MountRoutes()

	resp, err := NewLambdaHandler(srv.Handler())(context.Background(), v2Event(http.MethodGet, "/health", "", ""))
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"healthy"}`, resp.Body)
	assert.Equal(t, "apigw-req-1", resp.Headers["X-Request-Id"])
	assert.Equal(t, "nosniff", resp.Headers["X-Content-Type-Options"])
}
