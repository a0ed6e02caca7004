//go:build integration

package e2e

// End-to-end tests against real Postgres + Redis via testcontainers.
// Run with: go test -tags integration ./tests/e2e/... -v

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Mike861205/cajavscode-sub001/internal/config"
	"github.com/Mike861205/cajavscode-sub001/internal/infra"
	"github.com/Mike861205/cajavscode-sub001/internal/model"
	"github.com/Mike861205/cajavscode-sub001/internal/repository"
	"github.com/Mike861205/cajavscode-sub001/internal/router"
	"github.com/Mike861205/cajavscode-sub001/internal/worker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcPostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	tcRedis "github.com/testcontainers/testcontainers-go/modules/redis"
	"golang.org/x/crypto/bcrypt"
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return bytes.NewBuffer(b)
}

func do(t *testing.T, srv *httptest.Server, method, path string, body *bytes.Buffer, token string) *http.Response {
	t.Helper()
	var req *http.Request
	var err error
	if body != nil {
		req, err = http.NewRequest(method, srv.URL+path, body)
	} else {
		req, err = http.NewRequest(method, srv.URL+path, nil)
	}
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

// ── Test Suite Setup ─────────────────────────────────────────────────────────

type testEnv struct {
	server *httptest.Server
	token  string // supervisor JWT
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	pgC, err := tcPostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcPostgres.WithDatabase("register_test"),
		tcPostgres.WithUsername("register"),
		tcPostgres.WithPassword("register"),
		testcontainers.WithWaitStrategy(
			tcPostgres.BasicWaitStrategies()...,
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgC.Terminate(ctx) })

	pgURL, err := pgC.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	rdC, err := tcRedis.RunContainer(ctx,
		testcontainers.WithImage("redis:7-alpine"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdC.Terminate(ctx) })

	rdURL, err := rdC.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		Port:               8000,
		Env:                "test",
		JWTSecret:          "test-secret-key",
		JWTExpirationHours: 8,
		JWTRefreshHours:    24,
		DatabaseURL:        pgURL,
		RedisURL:           rdURL,
		WorkerPoolSize:     1,
		ReportStoragePath:  t.TempDir(),
		DefaultCurrency:    "MXN",
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	require.NoError(t, err)

	rdb, err := infra.NewRedis(cfg.RedisURL)
	require.NoError(t, err)

	require.NoError(t, infra.RunMigrations(db))

	denomRepo := repository.NewDenominationRepository(db)
	require.NoError(t, denomRepo.Seed(ctx, model.DefaultMXNDenominations()))

	// Seed a tenant and a supervisor user
	branch := "Main Branch"
	tenant := &model.Tenant{Name: "E2E Store", Currency: "MXN", BranchName: &branch, Active: true}
	require.NoError(t, db.WithContext(ctx).Create(tenant).Error)

	hash, err := bcrypt.GenerateFromPassword([]byte("register2026"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, db.WithContext(ctx).Create(&model.User{
		TenantID:     tenant.ID,
		Username:     "supervisor.e2e",
		FullName:     "Supervisor E2E",
		PasswordHash: string(hash),
		Role:         "supervisor",
		Active:       true,
	}).Error)

	dispatcher := worker.NewDispatcher(rdb)
	r, _, _ := router.New(cfg, db, rdb, dispatcher)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	loginResp := do(t, srv, "POST", "/v1/auth/login",
		jsonBody(t, map[string]string{"username": "supervisor.e2e", "password": "register2026"}),
		"",
	)
	require.Equal(t, http.StatusOK, loginResp.StatusCode)
	var loginBody struct {
		AccessToken string `json:"access_token"`
	}
	decodeJSON(t, loginResp, &loginBody)
	require.NotEmpty(t, loginBody.AccessToken)

	return &testEnv{server: srv, token: loginBody.AccessToken}
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestE2E_FullShiftCycle(t *testing.T) {
	env := setupTestEnv(t)

	// 1. Open the shift
	openResp := do(t, env.server, "POST", "/v1/register/open",
		jsonBody(t, map[string]any{"opening_amount": "1000"}),
		env.token,
	)
	require.Equal(t, http.StatusCreated, openResp.StatusCode)
	var shift struct {
		ID            string `json:"id"`
		Status        string `json:"status"`
		CurrentAmount string `json:"current_amount"`
	}
	decodeJSON(t, openResp, &shift)
	assert.Equal(t, "open", shift.Status)

	// 2. Record a cash sale
	saleResp := do(t, env.server, "POST", "/v1/sales",
		jsonBody(t, map[string]any{
			"shift_id": shift.ID,
			"total":    "250.50",
			"payments": []map[string]any{
				{"method": "cash", "amount": "250.50"},
			},
		}), env.token)
	require.Equal(t, http.StatusCreated, saleResp.StatusCode)
	var sale struct {
		ID           string `json:"id"`
		TicketNumber int64  `json:"ticket_number"`
		Status       string `json:"status"`
	}
	decodeJSON(t, saleResp, &sale)
	assert.Equal(t, "completed", sale.Status)
	assert.Equal(t, int64(1), sale.TicketNumber)

	// 3. Post an expense movement
	movResp := do(t, env.server, "POST", "/v1/register/movements",
		jsonBody(t, map[string]any{
			"shift_id": shift.ID,
			"type":     "expense",
			"amount":   "100",
		}), env.token)
	require.Equal(t, http.StatusCreated, movResp.StatusCode)

	// 4. Summary reflects 1000 + 250.50 - 100
	sumResp := do(t, env.server, "GET", "/v1/register/"+shift.ID+"/summary", nil, env.token)
	require.Equal(t, http.StatusOK, sumResp.StatusCode)
	var summary struct {
		ExpectedBalance string `json:"expected_balance"`
	}
	decodeJSON(t, sumResp, &summary)
	assert.Equal(t, "1150.5", summary.ExpectedBalance)

	// 5. Close with an exact count: $1000x1 + $100x1 + $50x1 + 0.50 in coins
	closeResp := do(t, env.server, "POST", "/v1/register/close",
		jsonBody(t, map[string]any{
			"shift_id":      shift.ID,
			"counted_bills": map[string]int{"1000": 1, "100": 1, "50": 1},
			"counted_coins": "0.50",
		}), env.token)
	require.Equal(t, http.StatusOK, closeResp.StatusCode)
	var closed struct {
		Shift struct {
			Status       string `json:"status"`
			ReportStatus string `json:"report_status"`
		} `json:"shift"`
		Reconciliation struct {
			Difference string `json:"difference"`
			Label      string `json:"label"`
		} `json:"reconciliation"`
	}
	decodeJSON(t, closeResp, &closed)
	assert.Equal(t, "closed", closed.Shift.Status)
	assert.Equal(t, "pending", closed.Shift.ReportStatus)
	assert.Equal(t, "0", closed.Reconciliation.Difference)
	assert.Empty(t, closed.Reconciliation.Label)

	// 6. Closed shift serves a report and a PDF
	repResp := do(t, env.server, "GET", "/v1/register/"+shift.ID+"/report", nil, env.token)
	require.Equal(t, http.StatusOK, repResp.StatusCode)
	repResp.Body.Close()

	pdfResp := do(t, env.server, "GET", "/v1/register/"+shift.ID+"/report.pdf", nil, env.token)
	require.Equal(t, http.StatusOK, pdfResp.StatusCode)
	assert.Equal(t, "application/pdf", pdfResp.Header.Get("Content-Type"))
	pdfResp.Body.Close()

	// 7. History lists the closed shift
	histResp := do(t, env.server, "GET", "/v1/register/history", nil, env.token)
	require.Equal(t, http.StatusOK, histResp.StatusCode)
	var hist struct {
		Total int64 `json:"total"`
	}
	decodeJSON(t, histResp, &hist)
	assert.Equal(t, int64(1), hist.Total)
}

func TestE2E_SecondOpenRejected(t *testing.T) {
	env := setupTestEnv(t)

	first := do(t, env.server, "POST", "/v1/register/open",
		jsonBody(t, map[string]any{"opening_amount": "500"}), env.token)
	require.Equal(t, http.StatusCreated, first.StatusCode)
	first.Body.Close()

	second := do(t, env.server, "POST", "/v1/register/open",
		jsonBody(t, map[string]any{"opening_amount": "500"}), env.token)
	assert.Equal(t, http.StatusConflict, second.StatusCode)
	second.Body.Close()
}

func TestE2E_CloseTwiceRejected(t *testing.T) {
	env := setupTestEnv(t)

	openResp := do(t, env.server, "POST", "/v1/register/open",
		jsonBody(t, map[string]any{"opening_amount": "100"}), env.token)
	require.Equal(t, http.StatusCreated, openResp.StatusCode)
	var shift struct {
		ID string `json:"id"`
	}
	decodeJSON(t, openResp, &shift)

	closeBody := map[string]any{
		"shift_id":      shift.ID,
		"counted_bills": map[string]int{"100": 1},
		"counted_coins": "0",
	}
	first := do(t, env.server, "POST", "/v1/register/close", jsonBody(t, closeBody), env.token)
	require.Equal(t, http.StatusOK, first.StatusCode)
	first.Body.Close()

	second := do(t, env.server, "POST", "/v1/register/close", jsonBody(t, closeBody), env.token)
	assert.Equal(t, http.StatusConflict, second.StatusCode)
	second.Body.Close()

	// Ledger is frozen after close
	movResp := do(t, env.server, "POST", "/v1/register/movements",
		jsonBody(t, map[string]any{
			"shift_id": shift.ID,
			"type":     "income",
			"amount":   "10",
		}), env.token)
	assert.Equal(t, http.StatusConflict, movResp.StatusCode)
	movResp.Body.Close()
}

func TestE2E_UnknownDenominationRejected(t *testing.T) {
	env := setupTestEnv(t)

	openResp := do(t, env.server, "POST", "/v1/register/open",
		jsonBody(t, map[string]any{"opening_amount": "100"}), env.token)
	require.Equal(t, http.StatusCreated, openResp.StatusCode)
	var shift struct {
		ID string `json:"id"`
	}
	decodeJSON(t, openResp, &shift)

	// $25 is not a configured MXN bill
	closeResp := do(t, env.server, "POST", "/v1/register/close",
		jsonBody(t, map[string]any{
			"shift_id":      shift.ID,
			"counted_bills": map[string]int{"25": 4},
			"counted_coins": "0",
		}), env.token)
	assert.Equal(t, http.StatusUnprocessableEntity, closeResp.StatusCode)
	closeResp.Body.Close()

	// The shift is still open and closable with a valid count
	activeResp := do(t, env.server, "GET", "/v1/register/active", nil, env.token)
	assert.Equal(t, http.StatusOK, activeResp.StatusCode)
	activeResp.Body.Close()
}
