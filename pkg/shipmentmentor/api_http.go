package shipmentmentor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// TokenHeader carries the access token on every request.
const TokenHeader = "sm-api-token"

// maxErrorBody bounds how much of a non-2xx body is kept in the error.
const maxErrorBody = 4096

// HTTPAPIClient is the production implementation of APIClient using HTTP.
type HTTPAPIClient struct {
	baseURL     string
	accessToken string
	userAgent   string
	httpClient  *http.Client
}

// HTTPAPIClientConfig holds configuration for the HTTP client.
type HTTPAPIClientConfig struct {
	BaseURL     string
	AccessToken string
	UserAgent   string
	// Timeout is applied to the whole request. Zero imposes none; the
	// caller's context still applies.
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewHTTPAPIClient creates a new HTTP-based API client.
func NewHTTPAPIClient(cfg HTTPAPIClientConfig) *HTTPAPIClient {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = "shipmentmentor-go/" + Version
	}

	return &HTTPAPIClient{
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		accessToken: cfg.AccessToken,
		userAgent:   userAgent,
		httpClient:  httpClient,
	}
}

// BaseURL returns the endpoint requests are sent to.
func (c *HTTPAPIClient) BaseURL() string {
	return c.baseURL
}

// CreateShipment posts to /v1/shipment/create/.
func (c *HTTPAPIClient) CreateShipment(ctx context.Context, s *Shipment) (json.RawMessage, error) {
	return c.Call(ctx, http.MethodPost, PathShipmentCreate, s)
}

// UpdateShipment posts to /v1/shipment/update/.
func (c *HTTPAPIClient) UpdateShipment(ctx context.Context, u *ShipmentUpdate) (json.RawMessage, error) {
	return c.Call(ctx, http.MethodPost, PathShipmentUpdate, u)
}

// AddTracking posts to /v1/trackings/add/.
func (c *HTTPAPIClient) AddTracking(ctx context.Context, t *Tracking) (json.RawMessage, error) {
	return c.Call(ctx, http.MethodPost, PathTrackingAdd, t)
}

// Call sends body to path and unwraps the response envelope. method
// defaults to POST; the body is only sent for POST.
func (c *HTTPAPIClient) Call(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.parseError(resp)
	}

	return unwrapEnvelope(resp.Body)
}

// doRequest performs an HTTP request with proper headers and authentication.
func (c *HTTPAPIClient) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	if c.accessToken == "" {
		return nil, newError(KindConfiguration, "access token is not configured").withCause(ErrMissingAccessToken)
	}

	method = strings.ToUpper(method)
	if method == "" {
		method = http.MethodPost
	}

	var bodyReader io.Reader
	if method == http.MethodPost && body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, newError(KindValidation, "failed to marshal request body").withCause(err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, newError(KindTransport, "failed to create request").withCause(err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(TokenHeader, c.accessToken)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, newError(KindTransport, "").withCause(err)
	}
	return resp, nil
}

// parseError turns a non-2xx response into a transport error, keeping the
// envelope message when the body carries one.
func (c *HTTPAPIClient) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	msg := strings.TrimSpace(string(body))
	var env Envelope
	if err := json.Unmarshal(body, &env); err == nil && env.Message != "" {
		msg = env.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return newError(KindTransport, fmt.Sprintf("unexpected status %d", resp.StatusCode)).
		withStatusCode(resp.StatusCode).
		withCause(errors.New(msg))
}

func unwrapEnvelope(r io.Reader) (json.RawMessage, error) {
	var env Envelope
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, newError(KindMalformedResponse, "failed to decode response envelope").withCause(err)
	}

	switch env.Status {
	case StatusSuccess:
		return env.Payload, nil
	case "":
		return nil, newError(KindMalformedResponse, "response envelope has no status")
	default:
		return nil, newError(KindRemote, remoteMessage(env.Status, env.Message))
	}
}

var _ APIClient = (*HTTPAPIClient)(nil)
