package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	expired  int
}

func (n *recordingNotifier) Notify(message string, err error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, message)
}

func (n *recordingNotifier) SessionExpired() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.expired++
}

func (n *recordingNotifier) expiredCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.expired
}

func writeEnvelope(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "success",
		"data":   data,
	})
}

func writeError(w http.ResponseWriter, status int, message, detail string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":  "error",
		"message": message,
		"error":   detail,
	})
}

func seededClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	c := New(baseURL, opts...)
	c.Store().Set(KeyAccessToken, "stale")
	c.Store().Set(KeyRefreshToken, "refresh-1")
	return c
}

func TestRefreshIsSingleFlight(t *testing.T) {
	const workers = 8

	// The barrier holds every 401 until all workers have arrived, so the
	// whole pack races into the refresh path at once.
	var arrived int32
	barrier := make(chan struct{})

	var refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
		time.Sleep(50 * time.Millisecond)
		writeEnvelope(w, http.StatusOK, TokenPair{AccessToken: "fresh", RefreshToken: "refresh-2"})
	})
	mux.HandleFunc("/databases", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer fresh" {
			if atomic.AddInt32(&arrived, 1) == workers {
				close(barrier)
			}
			<-barrier
			writeError(w, http.StatusUnauthorized, "token expired", "")
			return
		}
		writeEnvelope(w, http.StatusOK, []Connection{{ID: "c1", Name: "primary"}})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := seededClient(t, srv.URL)

	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.ListDatabases(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(&refreshCalls))

	token, ok := c.Store().Get(KeyRefreshToken)
	require.True(t, ok)
	assert.Equal(t, "refresh-2", token)
}

func TestRefreshFailureRejectsAllWaiters(t *testing.T) {
	const workers = 5

	var arrived int32
	barrier := make(chan struct{})

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(30 * time.Millisecond)
		writeError(w, http.StatusUnauthorized, "refresh token revoked", "")
	})
	mux.HandleFunc("/databases", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&arrived, 1) == workers {
			close(barrier)
		}
		<-barrier
		writeError(w, http.StatusUnauthorized, "token expired", "")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	notifier := &recordingNotifier{}
	c := seededClient(t, srv.URL, WithNotifier(notifier))

	errs := make(chan error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.ListDatabases(context.Background())
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.Error(t, err)
		assert.True(t, IsSessionExpired(err))
	}
	assert.Equal(t, 1, notifier.expiredCount())

	_, ok := c.Store().Get(KeyAccessToken)
	assert.False(t, ok, "credentials should be cleared after a failed refresh")
}

func TestAuthEndpointsAreNotReplayed(t *testing.T) {
	var loginCalls, refreshCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&loginCalls, 1)
		writeError(w, http.StatusUnauthorized, "invalid username or password", "")
	})
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&refreshCalls, 1)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&loginCalls))
	assert.EqualValues(t, 0, atomic.LoadInt32(&refreshCalls))
}

func TestGatewayErrorsRetriedTwice(t *testing.T) {
	origDelay := retryBaseDelay
	retryBaseDelay = 5 * time.Millisecond
	defer func() { retryBaseDelay = origDelay }()

	t.Run("recovers", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if atomic.AddInt32(&calls, 1) <= 2 {
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			writeEnvelope(w, http.StatusOK, []Connection{})
		}))
		defer srv.Close()

		c := New(srv.URL)
		_, err := c.ListDatabases(context.Background())
		assert.NoError(t, err)
		assert.EqualValues(t, 3, atomic.LoadInt32(&calls))
	})

	t.Run("gives up", func(t *testing.T) {
		var calls int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c := New(srv.URL)
		_, err := c.ListDatabases(context.Background())
		require.Error(t, err)
		apiErr := err.(*APIError)
		assert.Equal(t, ClassGateway, apiErr.Class)
		assert.EqualValues(t, 3, atomic.LoadInt32(&calls), "one try plus two retries")
	})
}

func TestShouldRetryPolicy(t *testing.T) {
	retry, delay := ShouldRetry(0, ClassGateway)
	assert.True(t, retry)
	assert.Equal(t, retryBaseDelay, delay)

	retry, delay = ShouldRetry(1, ClassGateway)
	assert.True(t, retry)
	assert.Equal(t, 2*retryBaseDelay, delay)

	retry, _ = ShouldRetry(2, ClassGateway)
	assert.False(t, retry, "two extra attempts is the cap")

	for _, class := range []ErrorClass{ClassServer, ClassValidation, ClassAuth, ClassNetwork, ClassTimeout} {
		retry, _ = ShouldRetry(0, class)
		assert.False(t, retry, "class %d must not retry", class)
	}
}

func TestValidationDetailConcatenated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusUnprocessableEntity, "name is required", "port must be at most 65535")
	}))
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.CreateDatabase(context.Background(), ConnectionInput{})
	require.Error(t, err)

	apiErr := err.(*APIError)
	assert.Equal(t, ClassValidation, apiErr.Class)
	assert.Equal(t, 422, apiErr.StatusCode)
	assert.Equal(t, "name is required; port must be at most 65535", apiErr.Detail)
}

func TestStatusClassMapping(t *testing.T) {
	cases := map[int]ErrorClass{
		400: ClassValidation,
		403: ClassForbidden,
		404: ClassNotFound,
		409: ClassConflict,
		422: ClassValidation,
		500: ClassServer,
		502: ClassGateway,
		503: ClassGateway,
		504: ClassGateway,
	}
	for status, class := range cases {
		assert.Equal(t, class, classForStatus(status), "status %d", status)
	}
}

func TestTimeoutAndNetworkAreDistinguished(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		writeEnvelope(w, http.StatusOK, []Connection{})
	}))
	defer slow.Close()

	c := New(slow.URL, WithTimeout(20*time.Millisecond))
	_, err := c.ListDatabases(context.Background())
	require.Error(t, err)
	apiErr := err.(*APIError)
	assert.Equal(t, ClassTimeout, apiErr.Class)
	assert.Equal(t, "Request timed out", apiErr.Message)

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	c = New(deadURL)
	_, err = c.ListDatabases(context.Background())
	require.Error(t, err)
	apiErr = err.(*APIError)
	assert.Equal(t, ClassNetwork, apiErr.Class)
}

func TestRequestHeaders(t *testing.T) {
	var gotAuth, gotOrg string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotOrg = r.Header.Get("X-Organization-ID")
		writeEnvelope(w, http.StatusOK, []Connection{})
	}))
	defer srv.Close()

	c := New(srv.URL)
	c.Store().Set(KeyAccessToken, "tok-123")
	c.SetOrganization("org-42")

	_, err := c.ListDatabases(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer tok-123", gotAuth)
	assert.Equal(t, "org-42", gotOrg)

	c.SetOrganization("")
	_, err = c.ListDatabases(context.Background())
	require.NoError(t, err)
	assert.Empty(t, gotOrg)
}

func TestQueryHistoryCappedNewestFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, QueryResult{RowCount: 0})
	}))
	defer srv.Close()

	c := New(srv.URL)
	for i := 0; i < historyLimit+10; i++ {
		_, err := c.Query(context.Background(), "c1", fmt.Sprintf("SELECT %d", i), 100)
		require.NoError(t, err)
	}

	history := c.QueryHistory()
	require.Len(t, history, historyLimit)
	assert.Equal(t, fmt.Sprintf("SELECT %d", historyLimit+9), history[0].Query)
	assert.True(t, history[0].Success)

	c.ClearQueryHistory()
	assert.Empty(t, c.QueryHistory())
}

func TestLoginStoresTokensAndUser(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, TokenPair{
			AccessToken:  "acc",
			RefreshToken: "ref",
			User:         &User{ID: "u1", Username: "alice", Role: "admin"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL)
	pair, err := c.Login(context.Background(), "alice", "secret")
	require.NoError(t, err)
	assert.Equal(t, "acc", pair.AccessToken)

	user, ok := c.CachedUser()
	require.True(t, ok)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "admin", user.Role)
}

func TestSetupRequiredPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/setup-status" {
			http.NotFound(w, r)
			return
		}
		writeEnvelope(w, http.StatusOK, map[string]bool{"setup_required": true})
	}))
	defer srv.Close()

	required, err := New(srv.URL).SetupRequired(context.Background())
	require.NoError(t, err)
	assert.True(t, required)
}
