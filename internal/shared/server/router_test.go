package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"resume-optimizer/internal/optimize"
	"resume-optimizer/internal/render"
	"resume-optimizer/internal/shared/config"
	"resume-optimizer/internal/shared/server/middleware"
	"resume-optimizer/internal/usage"
	"resume-optimizer/mocks"
)

func testRouter(cfg config.Config) *gin.Engine {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := NewRouter(RouterDeps{
		Config:          cfg,
		OptimizeHandler: optimize.NewHandler(&optimize.Service{}, 1<<20),
		UsageHandler:    usage.NewHandler(usage.NewService(3)),
		RateLimiter:     middleware.NewRateLimiter(func() time.Time { return now }),
	})
	gin.SetMode(gin.TestMode)
	return r
}

func TestHealth(t *testing.T) {
	r := testRouter(config.Config{Env: "dev", GenerateRatePerMin: 6, GenerateBurst: 3})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["ok"] != true {
		t.Fatalf("unexpected body: %v", body)
	}
	if resp.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected X-Request-Id header")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	r := testRouter(config.Config{Env: "dev", GenerateRatePerMin: 6, GenerateBurst: 3})

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/api/v1/metrics", nil))

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), "optimize_started_total") {
		t.Fatalf("expected optimize counters, got %s", resp.Body.String())
	}
}

func TestDevRoutesOnlyInDev(t *testing.T) {
	cases := map[string]int{"dev": http.StatusOK, "prod": http.StatusNotFound}
	for env, want := range cases {
		r := testRouter(config.Config{Env: env, GenerateRatePerMin: 6, GenerateBurst: 3})
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/api/v1/dev/usage/reset", nil))
		if resp.Code != want {
			t.Fatalf("env %s: expected %d, got %d", env, want, resp.Code)
		}
	}
}

func TestGenerateRoutesAreRateLimited(t *testing.T) {
	r := testRouter(config.Config{Env: "dev", GenerateRatePerMin: 1, GenerateBurst: 1})

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Client-Id", "client-1")
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}
	if codes[0] == http.StatusTooManyRequests {
		t.Fatalf("first request should pass the limiter")
	}
	if codes[1] != http.StatusTooManyRequests {
		t.Fatalf("expected second request 429, got %d", codes[1])
	}
}

func optimizeRequest(t *testing.T, clientLabel, forwardedFor string) *http.Request {
	t.Helper()
	doc, err := render.WriteDocument("Jane Doe\nEngineer")
	require.NoError(t, err)

	body := new(bytes.Buffer)
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "resume.docx")
	require.NoError(t, err)
	_, err = part.Write(doc)
	require.NoError(t, err)
	require.NoError(t, writer.WriteField("mode", "REWRITE"))
	require.NoError(t, writer.WriteField("jobDescription", "Needs Python skills"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.RemoteAddr = "203.0.113.5:40000"
	req.Header.Set("X-Client-Id", clientLabel)
	if forwardedFor != "" {
		req.Header.Set("X-Forwarded-For", forwardedFor)
	}
	return req
}

func TestQuotaCannotBeResetByRotatingClientHeaders(t *testing.T) {
	gen := new(mocks.MockGenerator)
	gen.On("Complete", mock.Anything, mock.Anything).Return("Jane Doe\nPython Engineer", nil)
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	r := NewRouter(RouterDeps{
		Config:          config.Config{Env: "production", GenerateRatePerMin: 600, GenerateBurst: 100},
		OptimizeHandler: optimize.NewHandler(&optimize.Service{Generator: gen, Quota: usage.NewService(1)}, 1<<20),
		RateLimiter:     middleware.NewRateLimiter(func() time.Time { return now }),
	})

	codes := make([]int, 0, 5)
	for i := 0; i < 5; i++ {
		req := optimizeRequest(t, fmt.Sprintf("browser-%d", i), fmt.Sprintf("198.51.100.%d", i+1))
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}

	assert.Equal(t, []int{
		http.StatusOK,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
		http.StatusTooManyRequests,
	}, codes)
	gen.AssertNumberOfCalls(t, "Complete", 1)
}

func TestGenerateRateLimitCannotBeResetByRotatingClientHeaders(t *testing.T) {
	r := testRouter(config.Config{Env: "dev", GenerateRatePerMin: 1, GenerateBurst: 1})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", strings.NewReader("{}"))
		req.Header.Set("Content-Type", "application/json")
		req.RemoteAddr = "203.0.113.5:40000"
		req.Header.Set("X-Client-Id", fmt.Sprintf("spoof-%d", i))
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("198.51.100.%d", i+1))
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		codes = append(codes, resp.Code)
	}
	if codes[0] == http.StatusTooManyRequests {
		t.Fatalf("first request should pass the limiter")
	}
	if codes[1] != http.StatusTooManyRequests || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("expected rotated headers to share one bucket, got %v", codes)
	}
}

func TestAddr(t *testing.T) {
	cases := map[string]string{"": ":8080", "9000": ":9000", ":7000": ":7000"}
	for in, want := range cases {
		if got := Addr(in); got != want {
			t.Fatalf("Addr(%q) = %q, want %q", in, got, want)
		}
	}
}
