package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/groovoo/service-desk/internal/api/http/handlers"
	"github.com/groovoo/service-desk/internal/auth"
	"github.com/groovoo/service-desk/internal/config"
	"github.com/groovoo/service-desk/internal/events"
	"github.com/groovoo/service-desk/internal/observability"
	"github.com/groovoo/service-desk/internal/persistence"
	"github.com/groovoo/service-desk/internal/repository/memory"
	"github.com/groovoo/service-desk/internal/service"
	"github.com/groovoo/service-desk/internal/storage"
)

type testServer struct {
	t   *testing.T
	app *fiber.App
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	logger := zap.NewNop()
	store := memory.NewStore()
	blobs, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	dispatcher := events.NewInMemoryDispatcher()
	service.NewNotificationService(dispatcher, logger, config.NotificationConfig{}).RegisterHandlers()

	authService := service.NewAuthService(config.AuthConfig{JWTSecret: "test", AccessTokenTTLMinutes: 5, BcryptCost: 4},
		service.AuthDependencies{UserRepo: store.Users()})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:     store.Tickets(),
		CommentRepo:    store.Comments(),
		AttachmentRepo: store.Attachments(),
		HistoryRepo:    store.StatusChanges(),
		Transactor:     store.Transactor(),
		Blobs:          blobs,
		AllowList:      storage.NewAllowList(storage.DefaultAllowedExtensions),
		Dispatcher:     dispatcher,
		Logger:         logger,
	})

	metrics := observability.NewMetrics()
	app := NewApp("service-desk-test", 4*1024*1024)
	RegisterMiddlewares(app, logger, metrics, 0)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("service-desk", "test", &persistence.Postgres{}, &persistence.Redis{}, metrics),
		Users:          handlers.NewUsersHandler(authService),
		Dashboard:      handlers.NewDashboardHandler(service.NewDashboardService(store.Tickets())),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Export:         handlers.NewExportHandler(service.NewExportService(store.Tickets(), nil)),
		AuthMiddleware: auth.NewAuthMiddleware(authService.Resolver()),
	})
	return &testServer{t: t, app: app}
}

func (s *testServer) do(req *nethttp.Request, token string) (*nethttp.Response, []byte) {
	s.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(s.t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(s.t, err)
	_ = resp.Body.Close()
	return resp, body
}

func (s *testServer) json(method, path, token string, payload any) (*nethttp.Response, map[string]any) {
	s.t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(s.t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", fiber.MIMEApplicationJSON)
	}
	resp, raw := s.do(req, token)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), fiber.MIMEApplicationJSON) {
		require.NoError(s.t, json.Unmarshal(raw, &out), string(raw))
	}
	return resp, out
}

func (s *testServer) register(username string) string {
	s.t.Helper()
	resp, body := s.json(nethttp.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"password": "secret-" + username,
	})
	require.Equal(s.t, nethttp.StatusCreated, resp.StatusCode, body)
	return body["data"].(map[string]any)["auth"].(map[string]any)["token"].(string)
}

func ticketPayload(title string) map[string]string {
	return map[string]string{
		"title":          title,
		"description":    "Broken since morning",
		"priority":       "High",
		"tags":           "VIP, rush",
		"client_name":    "ACME",
		"client_contact": "ops@acme.test",
		"channel":        "email",
		"category":       "Hardware",
	}
}

func (s *testServer) createTicket(token, title string) string {
	s.t.Helper()
	resp, body := s.json(nethttp.MethodPost, "/tickets", token, ticketPayload(title))
	require.Equal(s.t, nethttp.StatusCreated, resp.StatusCode, body)
	return data(body)["id"].(string)
}

func data(body map[string]any) map[string]any {
	return body["data"].(map[string]any)
}

func errorCode(body map[string]any) string {
	return body["error"].(map[string]any)["code"].(string)
}

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	resp, body := s.json(nethttp.MethodGet, "/health/live", "", nil)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "alive", body["status"])

	resp, body = s.json(nethttp.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "in-memory", deps["postgres"])
	assert.Equal(t, "in-memory", deps["redis"])

	resp, body = s.json(nethttp.MethodGet, "/health/metrics", "", nil)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, data(body), "requests")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	for _, path := range []string{"/dashboard", "/tickets/archived", "/export/csv"} {
		resp, body := s.json(nethttp.MethodGet, path, "", nil)
		assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode, path)
		assert.Equal(t, "UNAUTHORIZED", errorCode(body), path)
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	s := newTestServer(t)
	s.register("alice")

	resp, body := s.json(nethttp.MethodPost, "/auth/register", "", map[string]string{"username": "alice", "password": "x"})
	assert.Equal(t, nethttp.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", errorCode(body))

	resp, body = s.json(nethttp.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "nope"})
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)

	resp, body = s.json(nethttp.MethodPost, "/auth/login", "", map[string]string{"username": "alice", "password": "secret-alice"})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	token := data(body)["auth"].(map[string]any)["token"].(string)

	resp, _ = s.json(nethttp.MethodGet, "/dashboard", token, nil)
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)

	resp, _ = s.json(nethttp.MethodPost, "/auth/logout", token, nil)
	assert.Equal(t, nethttp.StatusNoContent, resp.StatusCode)

	resp, _ = s.json(nethttp.MethodGet, "/dashboard", token, nil)
	assert.Equal(t, nethttp.StatusUnauthorized, resp.StatusCode)
}

func TestCreateTicketValidationEchoesSubmittedValues(t *testing.T) {
	s := newTestServer(t)
	token := s.register("alice")

	payload := ticketPayload("Half filled")
	delete(payload, "client_name")
	resp, body := s.json(nethttp.MethodPost, "/tickets", token, payload)
	require.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)

	errBody := body["error"].(map[string]any)
	assert.Equal(t, "VALIDATION_FAILED", errBody["code"])
	details := errBody["details"].(map[string]any)
	assert.Equal(t, []any{"client_name"}, details["missing"])
	assert.Equal(t, "Half filled", details["submitted"].(map[string]any)["title"])
}

func TestTicketLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")
	id := s.createTicket(alice, "Printer jam")

	resp, body := s.json(nethttp.MethodGet, "/tickets/"+id, alice, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "Open", data(body)["status"])
	assert.Equal(t, []any{"VIP", "rush"}, data(body)["tag_list"])

	resp, body = s.json(nethttp.MethodGet, "/tickets/"+id, bob, nil)
	assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "FORBIDDEN", errorCode(body))

	resp, _ = s.json(nethttp.MethodGet, "/tickets/does-not-exist", alice, nil)
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)

	resp, body = s.json(nethttp.MethodPost, "/tickets/"+id, alice, map[string]string{"comment": "on it", "status": "Waiting"})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "Waiting", data(body)["status"])
	assert.Len(t, data(body)["comments"], 1)
	assert.Len(t, data(body)["history"], 1)

	resp, body = s.json(nethttp.MethodPost, "/tickets/"+id, alice, map[string]string{"status": "Urgent"})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "Waiting", data(body)["status"])

	resp, _ = s.json(nethttp.MethodPost, "/tickets/"+id+"/archive", bob, nil)
	assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode)

	resp, body = s.json(nethttp.MethodPost, "/tickets/"+id+"/archive", alice, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "Archived", data(body)["status"])

	resp, body = s.json(nethttp.MethodGet, "/tickets/archived", alice, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"], 1)

	resp, body = s.json(nethttp.MethodPost, "/tickets/"+id+"/reopen", alice, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "Open", data(body)["status"])
}

func TestEditTicket(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	id := s.createTicket(alice, "Old title")

	payload := ticketPayload("New title")
	payload["priority"] = "Low"
	resp, body := s.json(nethttp.MethodPut, "/tickets/"+id, alice, payload)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "New title", data(body)["title"])
	assert.Equal(t, "Low", data(body)["priority"])
	assert.Equal(t, "Open", data(body)["status"])
}

func TestDashboardOverHTTP(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	s.createTicket(alice, "Printer jam")
	vpn := s.createTicket(alice, "VPN down")

	resp, body := s.json(nethttp.MethodGet, "/dashboard?q=vpn", alice, nil)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	d := data(body)
	tickets := d["tickets"].([]any)
	require.Len(t, tickets, 1)
	assert.Equal(t, vpn, tickets[0].(map[string]any)["id"])
	assert.Equal(t, []any{"Hardware"}, d["categories"])
	assert.Equal(t, []any{"VIP", "rush"}, d["tags"])
	counts := d["status_counts"].([]any)
	require.Len(t, counts, 4)
	assert.Equal(t, float64(2), counts[0].(map[string]any)["count"])
	assert.Equal(t, "vpn", d["query"].(map[string]any)["q"])
}

func TestExportOverHTTP(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	s.createTicket(alice, "First")
	s.createTicket(alice, "Second")

	resp, raw := s.do(httptest.NewRequest(nethttp.MethodGet, "/export/csv", nil), alice)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/csv")
	assert.Regexp(t, `attachment; filename="tickets_open_\d{14}\.csv"`, resp.Header.Get("Content-Disposition"))
	assert.Len(t, strings.Split(strings.TrimRight(string(raw), "\n"), "\n"), 3)

	resp, raw = s.do(httptest.NewRequest(nethttp.MethodGet, "/export/markdown", nil), alice)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/markdown")
	assert.True(t, strings.HasPrefix(string(raw), "# Open Tickets\n\n## Ticket "))
}

func TestMultipartUploadAndDownload(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	bob := s.register("bob")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range ticketPayload("With scan") {
		require.NoError(t, w.WriteField(k, v))
	}
	part, err := w.CreateFormFile("attachments", "scan.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.7"))
	require.NoError(t, err)
	part, err = w.CreateFormFile("attachments", "notes.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("ignored"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(nethttp.MethodPost, "/tickets", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	resp, raw := s.do(req, alice)
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode, string(raw))

	var created map[string]any
	require.NoError(t, json.Unmarshal(raw, &created))
	attachments := data(created)["attachments"].([]any)
	require.Len(t, attachments, 1)
	att := attachments[0].(map[string]any)
	assert.Equal(t, "scan.pdf", att["file_name"])

	resp, raw = s.do(httptest.NewRequest(nethttp.MethodGet, att["url"].(string), nil), alice)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	assert.Equal(t, "%PDF-1.7", string(raw))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "scan.pdf")

	resp, _ = s.do(httptest.NewRequest(nethttp.MethodGet, att["url"].(string), nil), bob)
	assert.Equal(t, nethttp.StatusForbidden, resp.StatusCode)
}

func TestUpdateTicketWithFormEncoding(t *testing.T) {
	s := newTestServer(t)
	alice := s.register("alice")
	id := s.createTicket(alice, "Form post")

	form := url.Values{"comment": {"via form"}, "status": {"Resolved"}}
	req := httptest.NewRequest(nethttp.MethodPost, "/tickets/"+id, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", fiber.MIMEApplicationForm)
	resp, raw := s.do(req, alice)
	require.Equal(t, nethttp.StatusOK, resp.StatusCode, string(raw))

	var body map[string]any
	require.NoError(t, json.Unmarshal(raw, &body))
	assert.Equal(t, "Resolved", data(body)["status"])
}

func TestUnknownRouteUsesErrorEnvelope(t *testing.T) {
	s := newTestServer(t)
	resp, body := s.json(nethttp.MethodGet, "/nope", "", nil)
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", errorCode(body))
}
