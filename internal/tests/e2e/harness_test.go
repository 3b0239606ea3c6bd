package e2e

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	common_api "padtracker-console/internal/common/api"
	"padtracker-console/internal/config"
	"padtracker-console/internal/features/auth"
	"padtracker-console/internal/features/dashboard"
	"padtracker-console/internal/features/grid"
	"padtracker-console/internal/features/history"
	"padtracker-console/internal/features/menu"
	"padtracker-console/internal/features/report"
	"padtracker-console/internal/features/resource"
	"padtracker-console/internal/features/saved_report"
	"padtracker-console/internal/features/system"
	"padtracker-console/internal/middleware"
	"padtracker-console/internal/session"
	"padtracker-console/internal/store"
	"padtracker-console/internal/tests/upstreamfake"
	"padtracker-console/internal/upstream"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type harness struct {
	t        *testing.T
	app      *fiber.App
	upstream *upstreamfake.Server
}

// newHarness wires the console the way cmd/api does, against a fake upstream and an
// in-memory session store.
func newHarness(t *testing.T) *harness {
	t.Helper()
	fake := upstreamfake.New(t)
	cfg := &config.Config{
		JWTSecret:       "e2e-secret",
		CORSOrigins:     "http://localhost:5173",
		SessionStore:    "memory",
		SessionTTL:      time.Hour,
		UpstreamURL:     fake.URL,
		UpstreamTimeout: 5 * time.Second,
		GridDebounce:    10 * time.Millisecond,
	}
	logger := zap.NewNop()

	workspaces := store.NewRegistry()
	t.Cleanup(workspaces.CloseAll)
	client := upstream.NewClient(cfg, logger, session.TokenFromContext)
	sessions := session.NewService(session.NewMemoryStore(), workspaces, client, cfg, logger)

	reports := report.NewReportService(client, logger)
	saved := saved_report.NewSavedReportService(client, reports, logger)
	resourceApi, err := resource.NewResourceApi(client, workspaces, grid.DefaultDisplayRules(), cfg, sessions, logger)
	require.NoError(t, err)

	routes := []common_api.Route{
		auth.NewAuthApi(auth.NewAuthController(auth.NewAuthService(client, sessions, logger), sessions), cfg, sessions, logger),
		dashboard.NewDashboardApi(dashboard.NewDashboardController(dashboard.NewDashboardService(client, logger), workspaces), cfg, sessions, logger),
		menu.NewMenuApi(cfg, sessions, logger),
		report.NewReportApi(report.NewReportController(reports, workspaces), cfg, sessions, logger),
		saved_report.NewSavedReportApi(saved_report.NewSavedReportController(saved, workspaces), cfg, sessions, logger),
		history.NewHistoryApi(history.NewHistoryController(history.NewHistoryService(client, sessions, cfg, logger), workspaces), cfg, sessions, logger),
		resourceApi,
		system.NewHealthApi(workspaces),
	}

	app := fiber.New(fiber.Config{ErrorHandler: common_api.ErrorHandler})
	app.Use(middleware.CORSMiddleware(cfg))
	for _, r := range routes {
		r.Setup(app)
	}
	return &harness{t: t, app: app, upstream: fake}
}

type response struct {
	Status int
	Header http.Header
	Body   []byte
}

func (r response) JSON(t *testing.T) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(r.Body, &out), string(r.Body))
	return out
}

func (h *harness) do(method, path, token string, body any) response {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middleware.CookieName, Value: token})
	}
	resp, err := h.app.Test(req, 10_000)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(h.t, err)
	return response{Status: resp.StatusCode, Header: resp.Header, Body: raw}
}

// login runs the OTP flow for mobile and returns the console token.
func (h *harness) login(mobile, role string) string {
	h.t.Helper()
	if role != "" {
		h.upstream.SetRole(mobile, role)
	}
	resp := h.do(http.MethodPost, "/api/auth/send-otp", "", map[string]string{"mobile": mobile})
	require.Equal(h.t, http.StatusOK, resp.Status, string(resp.Body))

	resp = h.do(http.MethodPost, "/api/auth/verify-otp", "", map[string]string{"mobile": mobile, "otp": upstreamfake.ValidOTP})
	require.Equal(h.t, http.StatusOK, resp.Status, string(resp.Body))
	token, _ := resp.JSON(h.t)["authToken"].(string)
	require.NotEmpty(h.t, token)
	return token
}

// dig walks nested JSON objects.
func dig(v any, keys ...string) any {
	for _, k := range keys {
		m, ok := v.(map[string]any)
		if !ok {
			return nil
		}
		v = m[k]
	}
	return v
}
