// Package rentri is the low-level HTTP transport against the Registry: one
// authenticated JSON exchange per call, addressed by logical service, with an
// explicit retry policy and a typed error taxonomy.
package rentri

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"rentrihub/internal/certstore"
)

// Service names a logical Registry service family, each mapped to a fixed
// URL path prefix.
type Service string

const (
	ServiceAnagrafiche  Service = "anagrafiche"
	ServiceDatiRegistri Service = "dati-registri"
	ServiceFormulari    Service = "formulari"
	ServiceCodifiche    Service = "codifiche"
)

var servicePaths = map[Service]string{
	ServiceAnagrafiche:  "/anagrafiche/v1.0",
	ServiceDatiRegistri: "/dati-registri/v1.0",
	ServiceFormulari:    "/formulari/v1.0",
	ServiceCodifiche:    "/codifiche/v1.0",
}

// Wire header names. Digest and the integrity signature accompany every
// signed write; the paging headers drive pull-side pagination.
const (
	HeaderDigest             = "Digest"
	HeaderIntegritySignature = "Agid-JWT-Signature"
	HeaderPagingPage         = "Paging-Page"
	HeaderPagingPageSize     = "Paging-PageSize"
	HeaderPagingPageCount    = "Paging-PageCount"
)

// TokenSource supplies bearer tokens for a certificate; implemented by the
// signing package.
type TokenSource interface {
	BearerToken(ctx context.Context, cert *certstore.OperatorCertificate) (string, error)
}

// Request describes one exchange. Body may be any JSON-serializable value;
// pass pre-serialized []byte when a digest or integrity signature was
// computed over exact bytes, so body and signature cannot diverge.
type Request struct {
	Method  string
	Service Service
	// Path is appended to the service path prefix and must start with "/".
	Path    string
	Query   url.Values
	Body    any
	Headers http.Header
	// Timeout overrides the client default for this exchange.
	Timeout time.Duration
	// AcceptableStatuses lists non-2xx statuses treated as success. Some
	// endpoints return client-error-looking codes for legitimate
	// "not configured" states outside production.
	AcceptableStatuses []int
	// SkipAuth omits the Authorization header for the few endpoints the
	// Registry serves without authentication, codifiche lookups among them.
	SkipAuth bool
	// Certificate signs the exchange; required unless SkipAuth.
	Certificate *certstore.OperatorCertificate
	// Retry is the retry policy; zero value means a single attempt.
	Retry Policy
}

// Response is the parsed result of a successful exchange.
type Response struct {
	Status  int
	Headers http.Header
	Body    []byte
	// JSON holds the opportunistically parsed body; nil when the body is
	// empty or not valid JSON. That is not an error: some endpoints return
	// empty bodies on success.
	JSON map[string]any
}

// Client performs authenticated exchanges against one Registry environment.
type Client struct {
	httpClient *http.Client
	baseURL    string
	tokens     TokenSource
	timeout    time.Duration
	logger     *slog.Logger
	tracer     trace.Tracer
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client; tests point it at a
// local server.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the default per-attempt timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

func NewClient(baseURL string, tokens TokenSource, logger *slog.Logger, opts ...ClientOption) *Client {
	c := &Client{
		httpClient: &http.Client{},
		baseURL:    baseURL,
		tokens:     tokens,
		timeout:    30 * time.Second,
		logger:     logger,
		tracer:     otel.Tracer("rentrihub/rentri"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs the exchange under the request's retry policy.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	ctx, span := c.tracer.Start(ctx, "rentri.request",
		trace.WithAttributes(
			attribute.String("rentri.service", string(req.Service)),
			attribute.String("http.method", req.Method),
		))
	defer span.End()

	bodyBytes, err := serializeBody(req.Body)
	if err != nil {
		return nil, fmt.Errorf("serialize request body: %w", err)
	}

	policy := req.Retry.normalized()

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		resp, err := c.attempt(ctx, req, bodyBytes)
		if err == nil {
			span.SetAttributes(attribute.Int("http.status_code", resp.Status))
			return resp, nil
		}
		lastErr = err

		if attempt == policy.MaxAttempts || !policy.Retryable(err) {
			break
		}

		c.logger.Warn("registry request failed, retrying",
			slog.String("service", string(req.Service)),
			slog.String("path", req.Path),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()))

		if sleepErr := policy.Sleep(ctx, policy.Backoff(attempt)); sleepErr != nil {
			return nil, &TransportError{Err: sleepErr}
		}
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, req Request, body []byte) (*Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	target, err := c.buildURL(req)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	for name, values := range req.Headers {
		for _, v := range values {
			httpReq.Header.Add(name, v)
		}
	}
	if !req.SkipAuth {
		token, err := c.tokens.BearerToken(ctx, req.Certificate)
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if !statusOK(httpResp.StatusCode, req.AcceptableStatuses) {
		return nil, &RejectionError{Status: httpResp.StatusCode, Body: respBody}
	}

	resp := &Response{
		Status:  httpResp.StatusCode,
		Headers: httpResp.Header,
		Body:    respBody,
	}
	// Parse failure is tolerated: not every success body is JSON.
	var parsed map[string]any
	if json.Unmarshal(respBody, &parsed) == nil {
		resp.JSON = parsed
	}
	return resp, nil
}

func (c *Client) buildURL(req Request) (string, error) {
	prefix, ok := servicePaths[req.Service]
	if !ok {
		return "", fmt.Errorf("unknown registry service %q", req.Service)
	}
	target := c.baseURL + prefix + req.Path
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}
	return target, nil
}

func serializeBody(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	default:
		return json.Marshal(b)
	}
}

func statusOK(status int, acceptable []int) bool {
	if status >= 200 && status < 300 {
		return true
	}
	for _, s := range acceptable {
		if status == s {
			return true
		}
	}
	return false
}
