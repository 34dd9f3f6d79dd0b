package gemini

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"resume-optimizer/internal/llm"
)

func TestNewRequiresCredentialAndModel(t *testing.T) {
	if _, err := New(context.Background(), "", "gemini-1.5-flash", 0); !errors.Is(err, llm.ErrMissingCredential) {
		t.Fatalf("expected ErrMissingCredential, got %v", err)
	}
	if _, err := New(context.Background(), "key", "", 0); !errors.Is(err, llm.ErrMissingModel) {
		t.Fatalf("expected ErrMissingModel, got %v", err)
	}
}

func TestCompleteReturnsCandidateText(t *testing.T) {
	var path, body string
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Jane Doe\n"},{"text":"Engineer"}]}}],"usageMetadata":{"promptTokenCount":5,"candidatesTokenCount":2,"totalTokenCount":7}}`))
	}))
	defer srv.Close()

	client, err := New(context.Background(), "key", "gemini-1.5-flash", time.Second, WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	text, err := client.Complete(context.Background(), "Needs Python skills")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "Jane Doe\nEngineer" {
		t.Fatalf("unexpected text %q", text)
	}
	if calls != 1 {
		t.Fatalf("expected one call, got %d", calls)
	}
	if !strings.HasSuffix(path, "models/gemini-1.5-flash:generateContent") {
		t.Fatalf("unexpected path %q", path)
	}
	if !strings.Contains(body, "Needs Python skills") {
		t.Fatalf("prompt missing from request body: %s", body)
	}
}

func TestCompleteWrapsProviderError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":400,"message":"boom","status":"INVALID_ARGUMENT"}}`))
	}))
	defer srv.Close()

	client, err := New(context.Background(), "key", "gemini-1.5-flash", time.Second, WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.Complete(context.Background(), "p"); !errors.Is(err, llm.ErrGeneration) {
		t.Fatalf("expected ErrGeneration, got %v", err)
	}
}

func TestCompleteKeepsSurroundingBlankLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"\nJane Doe\nEngineer\n\n"}]}}]}`))
	}))
	defer srv.Close()

	client, err := New(context.Background(), "key", "gemini-1.5-flash", time.Second, WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	text, err := client.Complete(context.Background(), "p")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if text != "\nJane Doe\nEngineer\n\n" {
		t.Fatalf("expected raw model text, got %q", text)
	}
}

func TestCompleteRejectsBlankText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":" \n "}]}}]}`))
	}))
	defer srv.Close()

	client, err := New(context.Background(), "key", "gemini-1.5-flash", time.Second, WithBaseURL(srv.URL+"/"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := client.Complete(context.Background(), "p"); !errors.Is(err, llm.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}
