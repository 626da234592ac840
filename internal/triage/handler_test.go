package triage

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"triage-backend/internal/llm"
	"triage-backend/internal/shared/server/middleware"
)

func newTriageRouter(t *testing.T, client llm.Client, maxUpload int64) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	p, _ := newTestPipeline(client)
	h := NewHandler(p, maxUpload)

	router := gin.New()
	api := router.Group("/api/v1")
	protected := api.Group("")
	protected.Use(middleware.AdminToken("tok"))
	h.RegisterRoutes(api, protected)
	return router
}

func multipartBody(t *testing.T, fileName, contentType string, data []byte, language string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+fileName+`"`)
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if language != "" {
		if err := writer.WriteField("language", language); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadEndpointReturnsTriageResult(t *testing.T) {
	router := newTriageRouter(t, &fakeClient{summary: "an image", cat: llm.FallbackCategorization()}, 0)

	body, contentType := multipartBody(t, "photo.png", "image/png", make([]byte, 2048), "english")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set(middleware.AdminTokenHeader, "tok")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	for _, key := range []string{"id", "title", "summary", "department", "priority", "category", "tags", "actionItems", "deadline", "stakeholders"} {
		if _, ok := out[key]; !ok {
			t.Fatalf("missing key %q in %v", key, out)
		}
	}
	if out["title"] != "photo" || out["summary"] != "an image" {
		t.Fatalf("unexpected response: %v", out)
	}
}

func TestUploadEndpointRequiresToken(t *testing.T) {
	router := newTriageRouter(t, &fakeClient{}, 0)

	body, contentType := multipartBody(t, "a.txt", "text/plain", []byte("hello"), "")
	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload", body)
	req.Header.Set("Content-Type", contentType)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.Code)
	}
}

func TestUploadEndpointValidation(t *testing.T) {
	router := newTriageRouter(t, &fakeClient{}, 64)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/upload?token=tok", strings.NewReader("not multipart"))
	req.Header.Set("Content-Type", "text/plain")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without file, got %d", resp.Code)
	}

	body, contentType := multipartBody(t, "big.txt", "text/plain", bytes.Repeat([]byte("x"), 1024), "")
	req = httptest.NewRequest(http.MethodPost, "/api/v1/upload?token=tok", body)
	req.Header.Set("Content-Type", contentType)
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized upload, got %d", resp.Code)
	}
}

func TestSummarizeNoStreamPersists(t *testing.T) {
	router := newTriageRouter(t, &fakeClient{err: llm.ErrNotImplemented}, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/summarize", strings.NewReader(`{"content":"Boiler pressure log","language":"english"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(NoStreamHeader, "1")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}
	var out Result
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.ID == "" || out.Summary != FallbackSummary || out.Department != "General" {
		t.Fatalf("unexpected result: %+v", out)
	}
}

func TestSummarizeStreamsPlainText(t *testing.T) {
	router := newTriageRouter(t, &fakeClient{chunks: []string{"Boiler ", "is ", "fine."}}, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/summarize", strings.NewReader(`{"content":"Boiler pressure log"}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if ct := resp.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("expected text/plain, got %q", ct)
	}
	if resp.Body.String() != "Boiler is fine." {
		t.Fatalf("unexpected body: %q", resp.Body.String())
	}
}

func TestSummarizeRejectsEmptyContent(t *testing.T) {
	router := newTriageRouter(t, &fakeClient{}, 0)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/summarize", strings.NewReader(`{"content":"  "}`))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "content is required") {
		t.Fatalf("unexpected body: %s", resp.Body.String())
	}
}
