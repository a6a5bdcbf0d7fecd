package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"":      slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestMiddleware_LogsRouteAndStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	router := gin.New()
	router.Use(Middleware(logger))
	router.GET("/emergencies/:category", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/emergencies/fire", nil)
	router.ServeHTTP(w, req)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log line: %v", err)
	}
	if entry["route"] != "/emergencies/:category" {
		t.Errorf("expected route template, got %v", entry["route"])
	}
	if entry["level"] != "WARN" {
		t.Errorf("expected WARN for 404, got %v", entry["level"])
	}
	if entry["status"].(float64) != 404 {
		t.Errorf("expected status 404, got %v", entry["status"])
	}
}
