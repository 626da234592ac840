package bootstrap_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"triage-backend/internal/bootstrap"
	"triage-backend/internal/llm"
	"triage-backend/internal/shared/config"
)

const adminToken = "admin-secret"

func newApp(t *testing.T) *bootstrap.App {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := config.Config{
		Port:             "0",
		CORSAllowOrigin:  []string{"http://localhost:3000"},
		Env:              "dev",
		AdminUploadToken: adminToken,
		LLMProvider:      "none",
	}
	app, err := bootstrap.BuildWithClient(cfg, llm.PlaceholderClient{})
	if err != nil {
		t.Fatalf("bootstrap build: %v", err)
	}
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func TestBuildUsesMemoryStoreWithoutDatabase(t *testing.T) {
	app := newApp(t)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if body["ok"] != true || body["database"] != "memory" {
		t.Fatalf("unexpected health: %v", body)
	}
}

func TestBuildRequiresDatabaseOutsideDev(t *testing.T) {
	_, err := bootstrap.BuildWithClient(config.Config{Env: "production"}, llm.PlaceholderClient{})
	if err == nil {
		t.Fatalf("expected error without DATABASE_URL in production")
	}
}

func TestUploadDegradesAndIsListed(t *testing.T) {
	app := newApp(t)

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "incident.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte("Forklift near-miss in bay 4\nNo injuries.")); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("X-Admin-Token", adminToken)
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var created struct {
		ID         string `json:"id"`
		Title      string `json:"title"`
		Summary    string `json:"summary"`
		Department string `json:"department"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode upload: %v", err)
	}
	if created.ID == "" || created.Title != "Forklift near-miss in bay 4" {
		t.Fatalf("unexpected upload response: %+v", created)
	}
	if created.Summary != "Summary generation failed. Please try again." || created.Department != "General" {
		t.Fatalf("expected fallbacks, got %+v", created)
	}

	list := httptest.NewRecorder()
	app.Router.ServeHTTP(list, httptest.NewRequest(http.MethodGet, "/api/v1/documents?department=General", nil))
	var listed struct {
		Documents []struct {
			ID string `json:"id"`
		} `json:"documents"`
	}
	if err := json.NewDecoder(list.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(listed.Documents) != 1 || listed.Documents[0].ID != created.ID {
		t.Fatalf("expected uploaded document listed, got %+v", listed.Documents)
	}

	stats := httptest.NewRecorder()
	app.Router.ServeHTTP(stats, httptest.NewRequest(http.MethodGet, "/api/v1/stats", nil))
	if !strings.Contains(stats.Body.String(), `"pendingReview":1`) {
		t.Fatalf("expected one pending document in stats, got %s", stats.Body.String())
	}
}

func TestProtectedRoutesRejectMissingToken(t *testing.T) {
	app := newApp(t)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodPost, "/api/v1/documents"},
		{http.MethodPatch, "/api/v1/documents/abc"},
		{http.MethodDelete, "/api/v1/documents/abc"},
		{http.MethodPatch, "/api/v1/documents/abc/review"},
		{http.MethodPost, "/api/v1/upload"},
	} {
		resp := httptest.NewRecorder()
		app.Router.ServeHTTP(resp, httptest.NewRequest(tc.method, tc.path, strings.NewReader(`{}`)))
		if resp.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", tc.method, tc.path, resp.Code)
		}
	}
}

func TestMetricsExposed(t *testing.T) {
	app := newApp(t)

	app.Router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/documents", nil))
	resp := httptest.NewRecorder()
	app.Router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "triage_http_requests_total") {
		t.Fatalf("expected request counter in exposition")
	}
}
