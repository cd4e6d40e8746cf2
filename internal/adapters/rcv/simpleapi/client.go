package simpleapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	"tho/simplercv/internal/core/invoice"
	"tho/simplercv/internal/core/rcv"
)

const (
	// DefaultBaseURL is the public SimpleAPI host.
	DefaultBaseURL = "https://servicios.simpleapi.cl"

	// ambienteProduccion selects the SII production environment.
	ambienteProduccion = 1

	maxErrorBody = 4096
)

// HTTPClient is satisfied by *http.Client and the traced client.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client implements rcv.Fetcher against the SimpleAPI RCV endpoint.
type Client struct {
	baseURL string
	http    HTTPClient
	limiter *rate.Limiter
	breaker *Breaker
	log     *slog.Logger
}

// Option customizes a Client.
type Option func(*Client)

// WithLimiter throttles outbound calls. SimpleAPI plans carry per-minute
// quotas and each call logs into the SII on the user's behalf.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// WithBreaker fails fast after repeated SimpleAPI failures.
func WithBreaker(b *Breaker) Option {
	return func(c *Client) { c.breaker = b }
}

// NewClient creates a SimpleAPI client. An empty baseURL uses DefaultBaseURL.
func NewClient(baseURL string, httpClient HTTPClient, log *slog.Logger, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     log,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type documentsRequest struct {
	RutUsuario  string `json:"RutUsuario"`
	PasswordSII string `json:"PasswordSII"`
	RutEmpresa  string `json:"RutEmpresa"`
	Ambiente    int    `json:"Ambiente"`
}

// Entries stay raw so each one is decoded on its own.
type documentsResponse struct {
	Ventas *struct {
		DetalleVentas []json.RawMessage `json:"detalleVentas"`
	} `json:"ventas"`
	Compras *struct {
		DetalleCompras []json.RawMessage `json:"detalleCompras"`
	} `json:"compras"`
}

// FetchDocuments retrieves sales and purchases for the period in one call.
// Month and year are passed through as given. A non-2xx answer becomes
// *rcv.RemoteAPIError carrying the raw body; there is no retry.
func (c *Client) FetchDocuments(ctx context.Context, period rcv.Period, creds rcv.Credentials) (*rcv.Documents, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for SimpleAPI quota: %w", err)
		}
	}

	if c.breaker == nil {
		return c.fetch(ctx, period, creds)
	}

	var docs *rcv.Documents
	err := c.breaker.Execute(ctx, func() error {
		var err error
		docs, err = c.fetch(ctx, period, creds)
		return err
	})
	if errors.Is(err, ErrCircuitOpen) {
		c.log.WarnContext(ctx, "SimpleAPI call skipped, circuit open", "periodo", period.String())
	}
	return docs, err
}

func (c *Client) fetch(ctx context.Context, period rcv.Period, creds rcv.Credentials) (*rcv.Documents, error) {
	endpoint := fmt.Sprintf("%s/api/RCV/ventas/%s/%s", c.baseURL, url.PathEscape(period.Month), url.PathEscape(period.Year))

	payload, err := json.Marshal(documentsRequest{
		RutUsuario:  creds.RutUsuario,
		PasswordSII: creds.PasswordSII,
		RutEmpresa:  creds.RutEmpresa,
		Ambiente:    ambienteProduccion,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", creds.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.log.DebugContext(ctx, "Consulting SimpleAPI RCV", "periodo", period.String())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("SimpleAPI request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &rcv.RemoteAPIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var decoded documentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("parse SimpleAPI response: %w", err)
	}

	docs := &rcv.Documents{
		Ventas:  []invoice.RemoteDocument{},
		Compras: []invoice.RemoteDocument{},
	}
	if decoded.Ventas != nil && decoded.Ventas.DetalleVentas != nil {
		docs.Ventas = invoice.DecodeDocuments(decoded.Ventas.DetalleVentas)
	}
	if decoded.Compras != nil && decoded.Compras.DetalleCompras != nil {
		docs.Compras = invoice.DecodeDocuments(decoded.Compras.DetalleCompras)
	}

	c.log.InfoContext(ctx, "SimpleAPI RCV fetched",
		"periodo", period.String(),
		"ventas", len(docs.Ventas),
		"compras", len(docs.Compras),
	)
	return docs, nil
}
