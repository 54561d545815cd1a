// Package upstream implements the provider client: an OAuth2
// client-credentials token exchange followed by a single authenticated
// GraphQL call.
package upstream

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
	"os"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/bolivarlabs/consulta-gateway/internal/domain"
)

const (
	defaultAuthURL    = "https://api-conecta.segurosbolivar.com/prod/oauth2/token"
	defaultGraphQLURL = "https://api-conecta.segurosbolivar.com/prod/api/dataops/graphql/cliente"

	tokenTimeout = 30 * time.Second
	queryTimeout = 60 * time.Second

	// tokenExpirySlack renews cached tokens this long before they expire.
	tokenExpirySlack = 30 * time.Second
)

// Credentials holds the deployment-fixed provider credentials.
type Credentials struct {
	ClientID     string
	ClientSecret string
	UserKey      string
	APIKey       string
}

// CredentialsFromEnv reads the provider credentials from the
// environment. They are fixed per deployment, never per request.
func CredentialsFromEnv() Credentials {
	return Credentials{
		ClientID:     os.Getenv("UPSTREAM_CLIENT_ID"),
		ClientSecret: os.Getenv("UPSTREAM_CLIENT_SECRET"),
		UserKey:      os.Getenv("UPSTREAM_USER_KEY"),
		APIKey:       os.Getenv("UPSTREAM_API_KEY"),
	}
}

// Option configures the client.
type Option func(*Client)

// WithAuthURL sets a custom token endpoint.
func WithAuthURL(u string) Option {
	return func(c *Client) { c.authURL = u }
}

// WithGraphQLURL sets a custom GraphQL endpoint.
func WithGraphQLURL(u string) Option {
	return func(c *Client) { c.graphqlURL = u }
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) { c.httpClient = httpClient }
}

// WithTokenCache enables expiry-aware token reuse across requests.
// Off by default: the baseline behavior fetches a fresh token per query.
func WithTokenCache() Option {
	return func(c *Client) { c.cacheTokens = true }
}

// WithMaxRetries enables bounded retry-with-backoff on transient
// failures of the GraphQL call. Zero (the default) disables retries.
// Token exchange failures and provider rejections below 500 are
// never retried.
func WithMaxRetries(n uint64) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Client implements domain.Client against the provider's HTTP surface.
// It is safe for concurrent use; all configuration is read-only after New.
type Client struct {
	authURL     string
	graphqlURL  string
	creds       Credentials
	httpClient  *http.Client
	logger      *slog.Logger
	maxRetries  uint64
	cacheTokens bool

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// New creates a provider client with the production endpoints.
func New(creds Credentials, opts ...Option) *Client {
	c := &Client{
		authURL:    defaultAuthURL,
		graphqlURL: defaultGraphQLURL,
		creds:      creds,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	return c
}

// Query runs the full provider round trip for a classified request:
// token acquisition then the GraphQL call. The returned error wraps
// domain.ErrUpstreamAuth or domain.ErrUpstreamTransport.
func (c *Client) Query(ctx context.Context, kind domain.QueryKind, params domain.Params) (*domain.QueryResult, error) {
	query, err := buildQuery(kind, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamTransport, err)
	}

	token, err := c.acquireToken(ctx)
	if err != nil {
		return nil, err
	}

	if c.maxRetries == 0 {
		return c.postQuery(ctx, token, query)
	}

	return backoff.RetryWithData(
		func() (*domain.QueryResult, error) {
			res, err := c.postQuery(ctx, token, query)
			if err != nil && !retryable(err) {
				return nil, backoff.Permanent(err)
			}
			return res, err
		},
		backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), c.maxRetries), ctx),
	)
}

// statusError records the HTTP status of a rejected GraphQL call so the
// retry path can tell transient rejections from deterministic ones.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("status %d", e.status)
}

// retryable reports whether a failed GraphQL call may succeed on a
// later attempt. Provider rejections below 500 are deterministic and
// repeating them only burns the retry budget.
func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.status >= http.StatusInternalServerError
	}
	return true
}

func (c *Client) acquireToken(ctx context.Context) (string, error) {
	if c.cacheTokens {
		c.mu.Lock()
		if c.token != "" && time.Now().Before(c.tokenExpiry) {
			token := c.token
			c.mu.Unlock()
			return token, nil
		}
		c.mu.Unlock()
	}

	ctx, cancel := context.WithTimeout(ctx, tokenTimeout)
	defer cancel()

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.creds.ClientID},
		"client_secret": {c.creds.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamAuth, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUpstreamAuth, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: reading token response: %v", domain.ErrUpstreamAuth, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("token exchange rejected", slog.Int("status", resp.StatusCode))
		return "", fmt.Errorf("%w: status %d", domain.ErrUpstreamAuth, resp.StatusCode)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", fmt.Errorf("%w: decoding token response: %v", domain.ErrUpstreamAuth, err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access_token", domain.ErrUpstreamAuth)
	}

	if c.cacheTokens && tok.ExpiresIn > 0 {
		c.mu.Lock()
		c.token = tok.AccessToken
		c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn)*time.Second - tokenExpirySlack)
		c.mu.Unlock()
	}

	return tok.AccessToken, nil
}

func (c *Client) postQuery(ctx context.Context, token, query string) (*domain.QueryResult, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	payload, err := json.Marshal(map[string]string{"query": query})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamTransport, err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("x-user-key", c.creds.UserKey)
	req.Header.Set("x-api-key", c.creds.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamTransport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrUpstreamTransport, err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("graphql call rejected",
			slog.Int("status", resp.StatusCode),
			slog.Int("body_bytes", len(body)),
		)
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamTransport, &statusError{status: resp.StatusCode})
	}

	var out struct {
		Data   map[string]any `json:"data"`
		Errors any            `json:"errors"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", domain.ErrUpstreamTransport, err)
	}

	return &domain.QueryResult{Data: out.Data, Errors: out.Errors}, nil
}
