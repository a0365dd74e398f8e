package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	mdwlog "github.com/msto63/lexana/foundation/core/log"
	"github.com/msto63/lexana/internal/analyzer/service"
	"github.com/msto63/lexana/internal/analyzer/store"
	"github.com/msto63/lexana/pkg/core/health"
	"github.com/msto63/lexana/pkg/core/logging"
)

func newTestService(t *testing.T, hist store.HistoryStore) *service.Service {
	t.Helper()
	svc, err := service.NewService(service.Config{
		Store:  hist,
		Logger: logging.Wrap("test", mdwlog.NewNop()),
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return svc
}

func newTestServer(t *testing.T, hist store.HistoryStore, registry *health.Registry) *httptest.Server {
	t.Helper()
	svc := newTestService(t, hist)
	srv := httptest.NewServer(NewRouter(NewHandler("test", svc, registry), NewWebSocketHandler(svc)))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s error = %v", url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHandler_Analyze(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantCode   string
	}{
		{"accepted", `{"input":"(a + b) * c"}`, http.StatusOK, ""},
		{"lexical error", `{"input":"3 & 4"}`, http.StatusUnprocessableEntity, "LEXICAL"},
		{"syntax error", `{"input":"3 + 4 *"}`, http.StatusUnprocessableEntity, "SYNTAX"},
		{"trailing input", `{"input":"a b"}`, http.StatusUnprocessableEntity, "TRAILING_INPUT"},
		{"malformed body", `{"input":`, http.StatusBadRequest, "INVALID_INPUT"},
		{"unknown field", `{"expr":"a"}`, http.StatusBadRequest, "INVALID_INPUT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/api/v1/analyze", tt.body)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantStatus)
			}

			var body struct {
				Accepted bool   `json:"accepted"`
				Code     string `json:"code"`
				Error    *struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode error = %v", err)
			}

			code := body.Code
			if body.Error != nil {
				code = body.Error.Code
			}
			if code != tt.wantCode {
				t.Errorf("code = %q, want %q", code, tt.wantCode)
			}
			if tt.wantCode == "" && !body.Accepted {
				t.Error("accepted = false")
			}
		})
	}
}

func TestHandler_AnalyzeMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	resp, err := http.Get(srv.URL + "/api/v1/analyze")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestHandler_Batch(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	resp := postJSON(t, srv.URL+"/api/v1/batch", `{"inputs":["a + b","3 &","(x)"]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body BatchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if body.Accepted != 2 || body.Rejected != 1 || len(body.Results) != 3 {
		t.Errorf("batch = %+v", body)
	}

	resp = postJSON(t, srv.URL+"/api/v1/batch", `{"inputs":[]}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("empty batch status = %d, want 400", resp.StatusCode)
	}
}

func TestHandler_History(t *testing.T) {
	hist := store.NewMemoryStore()
	srv := newTestServer(t, hist, nil)

	for _, input := range []string{"a", "b + c", "3 &"} {
		postJSON(t, srv.URL+"/api/v1/analyze", `{"input":"`+input+`"}`)
	}

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"all", "", 3},
		{"accepted", "?accepted=true", 2},
		{"rejected", "?accepted=false", 1},
		{"limit", "?limit=1", 1},
		{"contains", "?contains=%2B", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/api/v1/history" + tt.query)
			if err != nil {
				t.Fatalf("GET error = %v", err)
			}
			defer resp.Body.Close()

			var body HistoryResponse
			if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode error = %v", err)
			}
			if body.Total != tt.want {
				t.Errorf("total = %d, want %d", body.Total, tt.want)
			}
		})
	}

	resp, err := http.Get(srv.URL + "/api/v1/history?limit=abc")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid limit status = %d, want 400", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/api/v1/history/missing")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing record status = %d, want 404", resp.StatusCode)
	}
}

func TestHandler_HistoryDisabled(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	resp, err := http.Get(srv.URL + "/api/v1/history")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestHandler_Health(t *testing.T) {
	registry := health.NewRegistry("lexana", "test")
	registry.Register(health.AlwaysHealthy("analyzer"))
	srv := newTestServer(t, nil, registry)

	resp, err := http.Get(srv.URL + "/health")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var body HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if body.Status != health.StatusHealthy || len(body.Checks) != 1 {
		t.Errorf("health = %+v", body)
	}
}

type failingPinger struct{}

func (failingPinger) Ping(ctx context.Context) error { return errors.New("database is locked") }

func TestHandler_HealthUnhealthy(t *testing.T) {
	registry := health.NewRegistry("lexana", "test")
	registry.Register(health.PingCheck("history", failingPinger{}, true))
	srv := newTestServer(t, nil, registry)

	resp, err := http.Get(srv.URL + "/api/v1/health")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", resp.StatusCode)
	}
}

func TestHandler_NotFound(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	resp, err := http.Get(srv.URL + "/api/v1/nope")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}
