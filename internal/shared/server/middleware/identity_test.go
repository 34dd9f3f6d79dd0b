package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func serveIdentity(t *testing.T, header string) (string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	if err := router.SetTrustedProxies(nil); err != nil {
		t.Fatalf("trusted proxies: %v", err)
	}
	router.Use(Identity())
	var id, label string
	router.GET("/whoami", func(c *gin.Context) {
		id = ClientIDFromContext(c)
		label = ClientLabelFromContext(c)
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.RemoteAddr = "10.1.2.3:5555"
	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	if header != "" {
		req.Header.Set("X-Client-Id", header)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
	return id, label
}

func TestIdentityKeysOnClientIP(t *testing.T) {
	id, label := serveIdentity(t, "")
	if id != "ip:10.1.2.3" {
		t.Fatalf("unexpected client id: %q", id)
	}
	if label != "" {
		t.Fatalf("expected no label, got %q", label)
	}
}

func TestIdentityHeaderIsLabelOnly(t *testing.T) {
	for _, header := range []string{"browser-1", "browser-2"} {
		id, label := serveIdentity(t, "  "+header+" ")
		if id != "ip:10.1.2.3" {
			t.Fatalf("header %s changed client id: %q", header, id)
		}
		if label != header {
			t.Fatalf("unexpected label: %q", label)
		}
	}
}

func TestIdentityTruncatesLongLabel(t *testing.T) {
	_, label := serveIdentity(t, strings.Repeat("x", 300))
	if len(label) != maxClientLabelLen {
		t.Fatalf("expected %d chars, got %d", maxClientLabelLen, len(label))
	}
}

func TestIdentityAllowsOptionsWithoutIdentity(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Identity())
	router.OPTIONS("/api/v1/optimize", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/optimize", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	if resp.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.Code)
	}
}
