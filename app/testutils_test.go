package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sushihentaime/inkpost/internal/blogservice"
	"github.com/sushihentaime/inkpost/internal/common"
	"github.com/sushihentaime/inkpost/internal/ratelimit"
	"github.com/sushihentaime/inkpost/internal/userservice"
)

type testServer struct {
	*httptest.Server
}

func newTestServer(t *testing.T, h http.Handler) *testServer {
	ts := httptest.NewServer(h)

	t.Cleanup(ts.Close)

	return &testServer{ts}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() *Config {
	return &Config{
		Port:         "8080",
		Environment:  "testing",
		Version:      "1.0.0",
		CacheBackend: "memory",
		CacheTTL:     blogservice.DefaultCacheTTL,
	}
}

type testApplication struct {
	*application
	db    *sql.DB
	cache *common.MemoryCache
	mb    *common.MockProducer
}

// newTestApplication wires the services against a postgres container and an
// in-memory cache. A zero rateLimit disables the limiter.
func newTestApplication(t *testing.T, rateLimit int) *testApplication {
	db := common.TestDB(t)
	cache := common.NewMemoryCache(5*time.Minute, 10*time.Minute)
	mb := &common.MockProducer{}
	logger := testLogger()

	app := &application{
		config:      testConfig(),
		logger:      logger,
		userService: userservice.NewUserService(db, mb, logger),
		blogService: blogservice.NewBlogService(db, cache, 0, logger),
		checks:      []dependencyCheck{{name: "database", check: db.PingContext}, cacheCheck(cache)},
	}

	if rateLimit > 0 {
		app.config.RateLimitEnabled = true
		app.limiter = ratelimit.New(cache, rateLimit, time.Minute)
	}

	return &testApplication{application: app, db: db, cache: cache, mb: mb}
}

func readResponse(t *testing.T, res *http.Response) (int, http.Header, envelope) {
	defer res.Body.Close()

	responseBody, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	var envelope envelope
	err = json.Unmarshal(responseBody, &envelope)
	if err != nil {
		t.Fatalf("could not decode %q: %v", responseBody, err)
	}

	return res.StatusCode, res.Header, envelope
}

func (ts *testServer) do(t *testing.T, method, path string, token *string, payload any) (int, http.Header, envelope) {
	var body io.Reader
	if payload != nil {
		jsonPayload, err := json.Marshal(payload)
		if err != nil {
			t.Fatal(err)
		}
		body = bytes.NewReader(jsonPayload)
	}

	req, err := http.NewRequest(method, ts.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}

	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != nil {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", *token))
	}

	res, err := ts.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}

	return readResponse(t, res)
}

func (ts *testServer) get(t *testing.T, path string, token *string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodGet, path, token, nil)
}

func (ts *testServer) post(t *testing.T, path string, token *string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPost, path, token, payload)
}

func (ts *testServer) put(t *testing.T, path string, token *string, payload any) (int, http.Header, envelope) {
	return ts.do(t, http.MethodPut, path, token, payload)
}

func (ts *testServer) delete(t *testing.T, path string, token *string) (int, http.Header, envelope) {
	return ts.do(t, http.MethodDelete, path, token, nil)
}

// registerAndLogin creates an account through the API and returns its access token.
func (ts *testServer) registerAndLogin(t *testing.T, username string, role userservice.Role) *string {
	t.Helper()

	code, _, body := ts.post(t, "/v1/users/register", nil, map[string]any{
		"username": username,
		"email":    username + "@example.com",
		"password": "password123",
		"role":     role,
	})
	require.Equal(t, http.StatusCreated, code, body)

	code, _, body = ts.post(t, "/v1/users/login", nil, map[string]any{
		"username": username,
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, code, body)

	token := body["token"].(map[string]any)["token"].(string)
	return &token
}

// createBlog creates a post through the API and returns its id.
func (ts *testServer) createBlog(t *testing.T, token *string, title string, tags ...string) string {
	t.Helper()

	if tags == nil {
		tags = []string{}
	}

	code, _, body := ts.post(t, "/v1/blogs", token, map[string]any{
		"title":   title,
		"content": "This is the body of " + title,
		"tags":    tags,
	})
	require.Equal(t, http.StatusCreated, code, body)

	return body["blog"].(map[string]any)["id"].(string)
}

func cleanupDB(t *testing.T, db *sql.DB) {
	for _, table := range []string{"blogs", "tokens", "users"} {
		_, err := db.ExecContext(context.Background(), "DELETE FROM "+table)
		require.NoError(t, err)
	}
}
