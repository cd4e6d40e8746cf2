package http

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"time"

	ctxutil "tho/simplercv/internal/infrastructure/context"
	"tho/simplercv/internal/infrastructure/security"
)

// TracedClient wraps an HTTP client and logs every outbound call with
// credentials stripped from URLs, headers and bodies.
type TracedClient struct {
	client      *http.Client
	log         *slog.Logger
	provider    string
	operation   string
	logBodies   bool
	maxBodySize int
}

// TracedClientConfig holds configuration for the traced HTTP client.
type TracedClientConfig struct {
	Timeout     time.Duration
	Operation   string
	LogBodies   bool
	MaxBodySize int
	Transport   http.RoundTripper // Overrides the pooled default, mostly for tests
}

// NewTracedClient creates a traced client for one upstream provider.
func NewTracedClient(cfg TracedClientConfig, log *slog.Logger, provider string) *TracedClient {
	if cfg.MaxBodySize == 0 {
		cfg.MaxBodySize = 16384
	}
	if cfg.Operation == "" {
		cfg.Operation = "request"
	}

	transport := cfg.Transport
	if transport == nil {
		// The RCV endpoint can take most of the client timeout before sending headers.
		responseHeaderTimeout := cfg.Timeout
		if responseHeaderTimeout <= 0 {
			responseHeaderTimeout = 60 * time.Second
		}
		transport = &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   2,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: responseHeaderTimeout,
			ExpectContinueTimeout: time.Second,
		}
	}

	return &TracedClient{
		client: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: transport,
		},
		log:         log,
		provider:    provider,
		operation:   cfg.Operation,
		logBodies:   cfg.LogBodies,
		maxBodySize: cfg.MaxBodySize,
	}
}

// Do executes req, logging the request and its outcome. Request and
// response bodies are buffered so both the log and the caller can read them.
func (c *TracedClient) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	if id := ctxutil.GetCorrelationID(ctx); id != "" {
		req.Header.Set("X-Correlation-ID", id)
	}

	var requestBody []byte
	if req.Body != nil {
		var err error
		requestBody, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
		req.Body = io.NopCloser(bytes.NewReader(requestBody))
	}

	url := security.SanitizeURL(req.URL.String())
	attrs := []any{
		"provider", c.provider,
		"operation", c.operation,
		"method", req.Method,
		"url", url,
	}

	requestAttrs := attrs
	if c.logBodies && len(requestBody) > 0 {
		requestAttrs = append(requestAttrs, "request_body", string(security.SanitizeBody(requestBody, c.maxBodySize)))
	}
	c.log.InfoContext(ctx, "provider_request", requestAttrs...)
	c.log.DebugContext(ctx, "provider_request_headers", "headers", security.SanitizeHeaders(req.Header))

	start := time.Now()
	resp, err := c.client.Do(req)
	attrs = append(attrs, "duration_ms", time.Since(start).Milliseconds())

	if err != nil {
		c.log.ErrorContext(ctx, "provider_request_failed", append(attrs, "error", err.Error())...)
		return nil, err
	}

	responseBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(responseBody))
	if readErr != nil {
		c.log.ErrorContext(ctx, "provider_response_unreadable", append(attrs, "status", resp.StatusCode, "error", readErr.Error())...)
		return resp, readErr
	}

	attrs = append(attrs, "status", resp.StatusCode, "response_size_bytes", len(responseBody))
	if c.logBodies && len(responseBody) > 0 {
		attrs = append(attrs, "response_body", string(security.SanitizeBody(responseBody, c.maxBodySize)))
	}

	switch {
	case resp.StatusCode >= 500:
		c.log.ErrorContext(ctx, "provider_response", attrs...)
	case resp.StatusCode >= 400:
		c.log.WarnContext(ctx, "provider_response", attrs...)
	default:
		c.log.InfoContext(ctx, "provider_response", attrs...)
	}

	return resp, nil
}
