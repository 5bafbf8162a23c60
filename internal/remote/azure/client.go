// Package azure implements remote.Port against Azure Resource Manager and the
// Cosmos DB SQL data plane.
//
// Management calls use the bearer token of the subscription's tenant. Data
// plane calls are signed with the account's primary master key, which is
// fetched once per ListDatabases call and carried in the returned handles.
// Throttled responses are retried honoring the service's retry hints.
package azure

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/imamik/cosmoclear/internal/remote"
	"github.com/imamik/cosmoclear/internal/session"
	"github.com/imamik/cosmoclear/internal/util/retry"
)

const (
	defaultTimeout       = 120 * time.Second
	defaultManagementURL = "https://management.azure.com"
	defaultMaxRetries    = 5
	userAgent            = "cosmoclear"
)

var _ remote.Port = (*Client)(nil)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	HTTPClient    *http.Client
	ManagementURL string
	Logger        *slog.Logger

	MaxRetries int
	RetryDelay time.Duration

	// Now is the clock used to date data-plane requests.
	Now func() time.Time
}

// Client talks to Azure on behalf of the session held by a store.
type Client struct {
	store         *session.Store
	http          *http.Client
	managementURL string
	log           *slog.Logger
	retryOpts     []retry.Option
	now           func() time.Time

	mu      sync.Mutex
	tenants map[string]string // subscription id -> tenant id
}

// New creates a client.
func New(store *session.Store, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	managementURL := strings.TrimRight(strings.TrimSpace(opts.ManagementURL), "/")
	if managementURL == "" {
		managementURL = defaultManagementURL
	}
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	retryOpts := []retry.Option{retry.WithMaxRetries(maxRetries)}
	if opts.RetryDelay > 0 {
		retryOpts = append(retryOpts, retry.WithInitialDelay(opts.RetryDelay), retry.WithMaxDelay(opts.RetryDelay*8))
	}

	return &Client{
		store:         store,
		http:          httpClient,
		managementURL: managementURL,
		log:           log,
		retryOpts:     retryOpts,
		now:           now,
		tenants:       make(map[string]string),
	}
}

type reply struct {
	body   []byte
	header http.Header
}

// send executes the request built by build, retrying throttled responses.
// build runs once per attempt so that dates and signatures are fresh.
func (c *Client) send(ctx context.Context, op string, build func() (*http.Request, error)) (reply, error) {
	var out reply
	attempt := 0
	err := retry.WithExponentialBackoff(ctx, func() error {
		attempt++
		req, err := build()
		if err != nil {
			return retry.Fatal(err)
		}
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", userAgent)

		resp, err := c.http.Do(req)
		if err != nil {
			return retry.Fatal(err)
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
			if readErr != nil {
				return retry.Fatal(readErr)
			}
			apiErr := newAPIError(op, req.URL.String(), resp, body)
			if isThrottled(resp.StatusCode) {
				c.log.Debug("request throttled", "op", op, "attempt", attempt, "status", resp.StatusCode)
				return retry.After(apiErr, retryAfter(resp.Header))
			}
			return retry.Fatal(apiErr)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.Fatal(err)
		}
		out = reply{body: body, header: resp.Header}
		return nil
	}, c.retryOpts...)
	return out, err
}

// credential resolves the credential of the tenant owning a subscription.
func (c *Client) credential(tenantID string) (*session.Credential, error) {
	s, err := c.store.Current()
	if err != nil {
		return nil, err
	}
	return s.Credential(tenantID)
}

func (c *Client) rememberTenant(subscriptionID, tenantID string) {
	c.mu.Lock()
	c.tenants[subscriptionID] = tenantID
	c.mu.Unlock()
}

func (c *Client) tenantOf(subscriptionID string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tenants[subscriptionID]
	return t, ok
}

func isThrottled(status int) bool {
	return status == http.StatusTooManyRequests || status == http.StatusServiceUnavailable
}

// retryAfter reads the data-plane millisecond hint or the standard
// Retry-After seconds.
func retryAfter(h http.Header) time.Duration {
	if v := strings.TrimSpace(h.Get("x-ms-retry-after-ms")); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	if v := strings.TrimSpace(h.Get("Retry-After")); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return 0
}
