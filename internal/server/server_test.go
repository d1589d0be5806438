package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Guidantas28/blog-generator/internal/automation"
	"github.com/Guidantas28/blog-generator/internal/database"
	"github.com/Guidantas28/blog-generator/internal/logging"
	"github.com/Guidantas28/blog-generator/internal/metrics"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

type stubRunner struct {
	result *automation.RunResult
	err    error
	calls  int

	published  *automation.PublishResult
	publishErr error
	requests   []automation.PublishRequest
}

func (s *stubRunner) RunDue(context.Context) (*automation.RunResult, error) {
	s.calls++
	return s.result, s.err
}

func (s *stubRunner) Publish(_ context.Context, req automation.PublishRequest) (*automation.PublishResult, error) {
	s.requests = append(s.requests, req)
	return s.published, s.publishErr
}

func newTestServer(t *testing.T, runner Runner, secret string) (*Server, *metrics.Metrics) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	srv := New(runner, openTestDB(t), Options{
		CronSecret: secret,
		Metrics:    m,
		Gatherer:   reg,
		Logger:     logging.Discard(),
	})
	return srv, m
}

func serve(srv *Server, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthRoute(t *testing.T) {
	srv, _ := newTestServer(t, &stubRunner{}, "")

	rec := serve(srv, "GET", "/health", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"ok"`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestRunAutomationRequiresSecret(t *testing.T) {
	runner := &stubRunner{result: &automation.RunResult{Message: automation.MessageDone}}
	srv, _ := newTestServer(t, runner, "s3cret")

	for _, auth := range []string{"", "Bearer wrong", "s3cret", "Basic s3cret"} {
		rec := serve(srv, "GET", "/api/run-automation", auth)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("auth %q: expected 401, got %d", auth, rec.Code)
		}
		if strings.TrimSpace(rec.Body.String()) != `{"error":"unauthorized"}` {
			t.Errorf("auth %q: unexpected body %s", auth, rec.Body.String())
		}
	}
	if runner.calls != 0 {
		t.Errorf("runner should not run without auth, ran %d times", runner.calls)
	}

	rec := serve(srv, "POST", "/api/run-automation", "Bearer s3cret")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if runner.calls != 1 {
		t.Errorf("expected 1 run, got %d", runner.calls)
	}
}

func TestRunAutomationOpenWithoutSecret(t *testing.T) {
	runner := &stubRunner{result: &automation.RunResult{
		Message:   automation.MessageDone,
		Processed: 2,
		Succeeded: 1,
		Failed:    1,
		Details: []automation.Detail{
			{AutomationID: "a1", SiteID: "s1", Status: automation.DetailSuccess, Message: "post created: Pão"},
			{AutomationID: "a2", SiteID: "s2", Status: automation.DetailError, Message: "no trends found"},
		},
	}}
	srv, _ := newTestServer(t, runner, "")

	rec := serve(srv, "GET", "/api/run-automation", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body struct {
		Message   string `json:"message"`
		Processed int    `json:"processed"`
		Succeeded int    `json:"succeeded"`
		Failed    int    `json:"failed"`
		Details   []struct {
			AutomationID string `json:"automationId"`
			SiteID       string `json:"siteId"`
			Status       string `json:"status"`
			Message      string `json:"message"`
		} `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if body.Message != "processing complete" || body.Processed != 2 || body.Succeeded != 1 || body.Failed != 1 {
		t.Errorf("unexpected summary: %+v", body)
	}
	if len(body.Details) != 2 || body.Details[1].Message != "no trends found" || body.Details[0].SiteID != "s1" {
		t.Errorf("unexpected details: %+v", body.Details)
	}
}

func TestRunAutomationErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"list failure", errors.New("listing automations: disk I/O error"), http.StatusInternalServerError},
		{"busy", automation.ErrRunInProgress, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, &stubRunner{err: tt.err}, "")
			rec := serve(srv, "GET", "/api/run-automation", "")
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d", tt.want, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), `"error"`) {
				t.Errorf("expected error body, got %s", rec.Body.String())
			}
		})
	}
}

func TestListExecutionsRoute(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	site, err := db.InsertSite(ctx, database.Site{UserID: "u", Name: "n", URL: "https://x.example", Username: "a", PasswordEncrypted: "cA=="})
	if err != nil {
		t.Fatalf("InsertSite: %v", err)
	}
	auto, err := db.InsertAutomation(ctx, database.AutomationSetting{UserID: "u", SiteID: site.ID, BusinessCategory: "c", DaysPerWeek: 1, Frequency: "weekly"})
	if err != nil {
		t.Fatalf("InsertAutomation: %v", err)
	}
	exec, _ := db.CreateExecution(ctx, auto.ID, "u", site.ID)
	if err := db.FailExecution(ctx, exec.ID, "no trends found"); err != nil {
		t.Fatalf("FailExecution: %v", err)
	}

	srv := New(&stubRunner{}, db, Options{Logger: logging.Discard(), Gatherer: prometheus.NewRegistry()})

	rec := serve(srv, "GET", "/api/executions?automation_id="+auto.ID, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `"status":"failed"`) || !strings.Contains(body, `"errorMessage":"no trends found"`) {
		t.Errorf("unexpected body: %s", body)
	}

	rec = serve(srv, "GET", "/api/executions?limit=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", rec.Code)
	}

	rec = serve(srv, "GET", "/api/executions?status=done", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown status, got %d", rec.Code)
	}

	rec = serve(srv, "GET", "/api/executions?status=failed&user_id=someone-else", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if strings.TrimSpace(rec.Body.String()) != `{"executions":[]}` {
		t.Errorf("expected no executions for another user, got %s", rec.Body.String())
	}
}

func TestListExecutionsRequiresSecret(t *testing.T) {
	srv, _ := newTestServer(t, &stubRunner{}, "s3cret")

	for _, auth := range []string{"", "Bearer wrong"} {
		rec := serve(srv, "GET", "/api/executions", auth)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("auth %q: expected 401, got %d", auth, rec.Code)
		}
		if strings.Contains(rec.Body.String(), "executions") {
			t.Errorf("auth %q: history leaked: %s", auth, rec.Body.String())
		}
	}

	rec := serve(srv, "GET", "/api/executions", "Bearer s3cret")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 with token, got %d", rec.Code)
	}
}

func servePublish(srv *Server, body, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/api/publish", strings.NewReader(body))
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestPublishRoute(t *testing.T) {
	runner := &stubRunner{published: &automation.PublishResult{Title: "Broa", Status: "publish", Topic: "Broa de milho", PostID: "p1", WordPressID: 42}}
	srv, _ := newTestServer(t, runner, "s3cret")

	rec := servePublish(srv, `{"siteId":"s1","topic":"Broa de milho"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401 without token, got %d", rec.Code)
	}
	if len(runner.requests) != 0 {
		t.Fatalf("publish should not run without auth")
	}

	rec = servePublish(srv, `{"siteId":"s1","topic":"Broa de milho","draft":true}`, "Bearer s3cret")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), `"wordpressPostId":42`) {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
	if len(runner.requests) != 1 || runner.requests[0].SiteID != "s1" || !runner.requests[0].Draft {
		t.Errorf("unexpected request: %+v", runner.requests)
	}
}

func TestPublishRouteErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
		want int
	}{
		{"bad json", `{`, nil, http.StatusBadRequest},
		{"no site", `{"topic":"x"}`, nil, http.StatusBadRequest},
		{"no topic", `{"siteId":"s1"}`, automation.ErrTopicRequired, http.StatusBadRequest},
		{"unknown site", `{"siteId":"s9","topic":"x"}`, fmt.Errorf("loading site: %w", database.ErrNotFound), http.StatusNotFound},
		{"wordpress", `{"siteId":"s1","topic":"x"}`, errors.New("wordpress returned 403"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := newTestServer(t, &stubRunner{publishErr: tt.err}, "")
			rec := servePublish(srv, tt.body, "")
			if rec.Code != tt.want {
				t.Errorf("expected %d, got %d: %s", tt.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestMetricsRoute(t *testing.T) {
	srv, m := newTestServer(t, &stubRunner{}, "")

	serve(srv, "GET", "/health", "")
	if got := testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("GET", "/health", "200")); got != 1 {
		t.Errorf("expected 1 recorded request, got %v", got)
	}

	rec := serve(srv, "GET", "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "bloggen_http_requests_total") {
		t.Error("expected http request counter in metrics output")
	}
}
