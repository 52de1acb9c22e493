package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"goomer/internal/auth"
	"goomer/internal/domain/storage"
	"goomer/internal/domain/users"
	"goomer/internal/media"
	"goomer/internal/metrics"
	"goomer/internal/ratelimiter"
	"goomer/internal/service"
)

type testApp struct {
	*application
	media   *media.Memory
	handler http.Handler
}

func newTestApplication(t *testing.T, cfg config) *testApp {
	t.Helper()

	logger := zap.NewNop().Sugar()
	store := storage.NewMemoryContainer()
	mediaStore := media.NewMemory("")

	if cfg.rateLimiter.RequestsPerTimeFrame == 0 {
		cfg.rateLimiter = ratelimiter.Config{RequestsPerTimeFrame: 20, TimeFrame: 5 * time.Second}
	}
	if cfg.auth.token.accessTokenExp == 0 {
		cfg.auth.token.accessTokenExp = time.Hour
	}
	if cfg.corsOrigins == nil {
		cfg.corsOrigins = []string{"http://*"}
	}
	cfg.auth.basic = basicConfig{user: "ops", pass: "secret"}

	limiter := ratelimiter.NewTokenBucketLimiter(cfg.rateLimiter)
	t.Cleanup(limiter.Close)

	app := &application{
		config:  cfg,
		store:   store,
		reviews: service.NewReviewService(store.Reviews, mediaStore, nil, logger, service.Options{}),
		logger:  logger,
		authenticator: auth.NewJWTAuthenticator(
			"access-secret", "refresh-secret", "goomer", "goomer",
			cfg.auth.token.accessTokenExp, 24*time.Hour,
		),
		rateLimiter: limiter,
		registry:    metrics.InitRegistry(),
	}

	return &testApp{application: app, media: mediaStore, handler: app.mount()}
}

// createUser stores an account and returns it with a valid access token.
func (ta *testApp) createUser(t *testing.T, email, role string) (*users.User, string) {
	t.Helper()

	u := &users.User{Name: "Test User", Email: email, Role: role}
	if err := u.Password.Set("password123"); err != nil {
		t.Fatal(err)
	}
	if err := ta.store.Users.Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}

	token, _, err := ta.authenticator.GenerateTokens(auth.Identity{UID: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		t.Fatal(err)
	}
	return u, token
}

func (ta *testApp) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	ta.handler.ServeHTTP(rr, req)
	return rr
}

func checkResponseCode(t *testing.T, expected, actual int, body string) {
	t.Helper()
	if expected != actual {
		t.Fatalf("expected response code %d, got %d: %s", expected, actual, body)
	}
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}
