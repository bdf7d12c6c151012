//go:build e2e

package e2e_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/attestly/certify-backend/internal/adapter/postgres"
	accountrepo "github.com/attestly/certify-backend/internal/adapter/postgres/account"
	applicationrepo "github.com/attestly/certify-backend/internal/adapter/postgres/application"
	auditrepo "github.com/attestly/certify-backend/internal/adapter/postgres/audit"
	certificaterepo "github.com/attestly/certify-backend/internal/adapter/postgres/certificate"
	decisionrepo "github.com/attestly/certify-backend/internal/adapter/postgres/decision"
	notificationrepo "github.com/attestly/certify-backend/internal/adapter/postgres/notification"
	reviewentryrepo "github.com/attestly/certify-backend/internal/adapter/postgres/reviewentry"
	standardrepo "github.com/attestly/certify-backend/internal/adapter/postgres/standard"
	"github.com/attestly/certify-backend/internal/adapter/postgres/testhelper"
	authpkg "github.com/attestly/certify-backend/internal/auth"
	"github.com/attestly/certify-backend/internal/config"
	"github.com/attestly/certify-backend/internal/domain"
	"github.com/attestly/certify-backend/internal/service/catalog"
	"github.com/attestly/certify-backend/internal/service/certnum"
	"github.com/attestly/certify-backend/internal/service/outbox"
	"github.com/attestly/certify-backend/internal/service/workflow"
	"github.com/attestly/certify-backend/internal/transport/middleware"
	"github.com/attestly/certify-backend/internal/transport/rest"
)

// ---------------------------------------------------------------------------
// testServer wraps the full-stack HTTP server for E2E tests.
// ---------------------------------------------------------------------------

type testServer struct {
	URL    string
	Client *http.Client
	Pool   *pgxpool.Pool
	jwt    *authpkg.JWTManager
}

// testLogWriter adapts testing.T to io.Writer for slog.
type testLogWriter struct{ t *testing.T }

func (w testLogWriter) Write(p []byte) (int, error) {
	w.t.Helper()
	w.t.Log(string(p))
	return len(p), nil
}

// setupTestServer bootstraps the full application stack backed by a real
// PostgreSQL container (shared via testhelper).
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	// 1. Get pool from testcontainers-backed helper.
	pool := testhelper.SetupTestDB(t)

	// 2. Infrastructure.
	logger := slog.New(slog.NewTextHandler(testLogWriter{t}, nil))
	txm := postgres.NewTxManager(pool)

	// 3. Repositories.
	accountRepo := accountrepo.New(pool)
	applicationRepo := applicationrepo.New(pool)
	auditRepo := auditrepo.New(pool)
	certificateRepo := certificaterepo.New(pool)
	decisionRepo := decisionrepo.New(pool)
	notificationRepo := notificationrepo.New(pool)
	reviewEntryRepo := reviewentryrepo.New(pool)
	standardRepo := standardrepo.New(pool)

	// 4. JWT manager with a test secret (>= 32 chars).
	jwtMgr := authpkg.NewJWTManager("test-secret-at-least-32-chars-long!!", "test-issuer")

	// 5. Services.
	numbers := certnum.NewGenerator(certificateRepo, certificateRepo, "TST", 10, 10)

	workflowSvc := workflow.NewService(
		logger, applicationRepo, certificateRepo, reviewEntryRepo,
		decisionRepo, standardRepo, accountRepo, notificationRepo,
		auditRepo, numbers, txm,
	)
	catalogSvc := catalog.NewService(logger, standardRepo)
	outboxSvc := outbox.NewService(logger, notificationRepo)

	// 6. Router + middleware chain.
	mux := rest.NewRouter(rest.Handlers{
		Applications: rest.NewApplicationHandler(workflowSvc, logger),
		Certificates: rest.NewCertificateHandler(workflowSvc, logger),
		Standards:    rest.NewStandardHandler(catalogSvc, logger),
		Outbox:       rest.NewOutboxHandler(outboxSvc, logger),
		Health:       rest.NewHealthHandler(pool, "e2e"),
	})

	handler := middleware.Chain(
		middleware.RequestID,
		middleware.Recovery(logger),
		middleware.CORS(config.CORSConfig{AllowedOrigins: "*"}),
		middleware.Auth(jwtMgr),
	)(mux)

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return &testServer{
		URL:    srv.URL,
		Client: srv.Client(),
		Pool:   pool,
		jwt:    jwtMgr,
	}
}

// tokenFor mints a short-lived access token for the given account.
func (s *testServer) tokenFor(t *testing.T, acc *domain.Account) string {
	t.Helper()

	token, err := s.jwt.SignAccessToken(acc.ID, acc.Role, 15*time.Minute)
	require.NoError(t, err)
	return token
}

// do issues an HTTP request with an optional bearer token and JSON body and
// decodes the JSON response into a generic map.
func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var reqBody *bytes.Buffer
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(raw)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, s.URL+path, reqBody)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := s.Client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var result map[string]any
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&result),
			"decode %s %s response", method, path)
	}
	return resp.StatusCode, result
}

// str extracts a string field from a decoded JSON object, failing the test
// if it is absent or not a string.
func str(t *testing.T, obj map[string]any, field string) string {
	t.Helper()

	v, ok := obj[field].(string)
	require.True(t, ok, "expected string field %q, got %T", field, obj[field])
	return v
}

// criterionIDs extracts the criterion ids of a standard response in position
// order.
func criterionIDs(t *testing.T, std map[string]any) []string {
	t.Helper()

	raw, ok := std["criteria"].([]any)
	require.True(t, ok, "expected criteria array")

	ids := make([]string, 0, len(raw))
	for _, item := range raw {
		c, ok := item.(map[string]any)
		require.True(t, ok)
		ids = append(ids, str(t, c, "id"))
	}
	return ids
}

// yesResponse builds a criteria response payload answering YES for every
// given criterion.
func yesResponse(ids []string) map[string]any {
	responses := make(map[string]any, len(ids))
	for _, id := range ids {
		responses[id] = map[string]any{"meets": "YES", "notes": "evidence attached"}
	}
	return responses
}
