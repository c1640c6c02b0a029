package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const defaultTimeout = 30 * time.Second

// Notifier receives user-visible events. The default implementation discards
// everything.
type Notifier interface {
	// Notify is called once per surfaced failure with a readable message.
	Notify(message string, err error)
	// SessionExpired is called when a refresh fails and credentials are
	// cleared.
	SessionExpired()
}

type noopNotifier struct{}

func (noopNotifier) Notify(string, error) {}
func (noopNotifier) SessionExpired()      {}

// Client talks to a DBLens API server. All methods are safe for concurrent
// use; token refresh is single-flight with a FIFO wait queue.
type Client struct {
	baseURL  string
	http     *http.Client
	store    TokenStore
	notifier Notifier

	refreshMu sync.Mutex
	// refreshWaiters is the FIFO queue of requests parked behind an
	// in-flight refresh. Non-nil exactly while a refresh is pending.
	refreshWaiters []chan error
}

type Option func(*Client)

// WithHTTPClient swaps the underlying transport, mostly for tests.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithNotifier(n Notifier) Option {
	return func(c *Client) { c.notifier = n }
}

func WithStore(s TokenStore) Option {
	return func(c *Client) { c.store = s }
}

// WithTimeout overrides the default 30s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New builds a client. baseURL includes the API prefix, e.g.
// "https://dblens.example.com/api/v1".
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: defaultTimeout},
		store:    NewMemoryStore(),
		notifier: noopNotifier{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Store exposes the injected session storage.
func (c *Client) Store() TokenStore { return c.store }

// SetOrganization scopes subsequent requests to one organization. Empty
// clears the scope.
func (c *Client) SetOrganization(orgID string) {
	if orgID == "" {
		c.store.Delete(KeyOrganizationID)
		return
	}
	c.store.Set(KeyOrganizationID, orgID)
}

func (c *Client) setTokens(pair *TokenPair) {
	c.store.Set(KeyAccessToken, pair.AccessToken)
	c.store.Set(KeyRefreshToken, pair.RefreshToken)
	if pair.User != nil {
		if raw, err := json.Marshal(pair.User); err == nil {
			c.store.Set(KeyUser, string(raw))
		}
	}
}

func (c *Client) clearCredentials() {
	c.store.Delete(KeyAccessToken)
	c.store.Delete(KeyRefreshToken)
	c.store.Delete(KeyUser)
}

// CachedUser returns the user snapshot saved at login, without a network
// call.
func (c *Client) CachedUser() (*User, bool) {
	raw, ok := c.store.Get(KeyUser)
	if !ok {
		return nil, false
	}
	var user User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		return nil, false
	}
	return &user, true
}

// apiEnvelope is the server's uniform response wrapper.
type apiEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// do runs one API call end to end: marshal, send with gateway backoff,
// refresh-and-replay on 401, decode the envelope into out.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	retried401 := false
	bo := newBackOff(retryBaseDelay)

	for attempt := 0; ; attempt++ {
		envelope, apiErr := c.send(ctx, method, path, payload)
		if apiErr == nil {
			return decodeData(envelope, out)
		}

		// One refresh-and-replay per request, tracked by a per-request
		// flag.
		if apiErr.Class == ClassAuth && !retried401 && !isAuthPath(path) {
			retried401 = true
			if err := c.awaitRefresh(ctx); err != nil {
				c.notifier.Notify(apiErr.Message, apiErr)
				return apiErr
			}
			attempt--
			continue
		}

		if retry, _ := ShouldRetry(attempt, apiErr.Class); retry {
			if err := sleepCtx(ctx, bo.NextBackOff()); err != nil {
				return err
			}
			continue
		}

		c.notifier.Notify(apiErr.Message, apiErr)
		return apiErr
	}
}

// send performs a single HTTP round trip and maps every failure mode to an
// APIError.
func (c *Client) send(ctx context.Context, method, path string, payload []byte) (*apiEnvelope, *APIError) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &APIError{Class: ClassUnknown, Message: "invalid request", cause: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token, ok := c.store.Get(KeyAccessToken); ok && token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if orgID, ok := c.store.Get(KeyOrganizationID); ok && orgID != "" {
		req.Header.Set("X-Organization-ID", orgID)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, transportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, transportError(err)
	}

	var envelope apiEnvelope
	if len(raw) > 0 {
		// Non-JSON bodies (proxy error pages) are tolerated.
		_ = json.Unmarshal(raw, &envelope)
	}

	if resp.StatusCode >= 400 {
		return nil, httpError(resp.StatusCode, &envelope)
	}
	return &envelope, nil
}

// awaitRefresh runs the single-flight refresh. The first caller performs the
// exchange; everyone else is parked in FIFO order and woken with its outcome.
func (c *Client) awaitRefresh(ctx context.Context) error {
	c.refreshMu.Lock()
	if c.refreshWaiters != nil {
		wait := make(chan error, 1)
		c.refreshWaiters = append(c.refreshWaiters, wait)
		c.refreshMu.Unlock()

		select {
		case err := <-wait:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.refreshWaiters = []chan error{}
	c.refreshMu.Unlock()

	err := c.refresh(ctx)

	c.refreshMu.Lock()
	waiters := c.refreshWaiters
	c.refreshWaiters = nil
	c.refreshMu.Unlock()

	for _, w := range waiters {
		w <- err
	}
	return err
}

// refresh exchanges the stored refresh token for a new pair. Failure clears
// credentials and signals session expiry.
func (c *Client) refresh(ctx context.Context) error {
	refreshToken, ok := c.store.Get(KeyRefreshToken)
	if !ok || refreshToken == "" {
		c.clearCredentials()
		c.notifier.SessionExpired()
		return &APIError{StatusCode: 401, Class: ClassAuth, Message: "Session expired. Please log in again."}
	}

	payload, _ := json.Marshal(map[string]string{"refresh_token": refreshToken})
	envelope, apiErr := c.send(ctx, http.MethodPost, "/auth/refresh", payload)
	if apiErr != nil {
		c.clearCredentials()
		c.notifier.SessionExpired()
		return apiErr
	}

	var pair TokenPair
	if err := json.Unmarshal(envelope.Data, &pair); err != nil {
		c.clearCredentials()
		c.notifier.SessionExpired()
		return err
	}
	c.setTokens(&pair)
	return nil
}

func decodeData(envelope *apiEnvelope, out interface{}) error {
	if out == nil || envelope == nil || len(envelope.Data) == 0 {
		return nil
	}
	return json.Unmarshal(envelope.Data, out)
}

// isAuthPath guards against refresh loops: 401s from the auth endpoints
// themselves are final.
func isAuthPath(path string) bool {
	return strings.HasPrefix(path, "/auth/login") ||
		strings.HasPrefix(path, "/auth/register") ||
		strings.HasPrefix(path, "/auth/refresh")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func pathEscape(segment string) string {
	return url.PathEscape(segment)
}

func queryString(params map[string]string) string {
	values := url.Values{}
	for k, v := range params {
		if v != "" {
			values.Set(k, v)
		}
	}
	if len(values) == 0 {
		return ""
	}
	return "?" + values.Encode()
}
