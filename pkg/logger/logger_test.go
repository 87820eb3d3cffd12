package logger

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func TestInitWithWriter_Level(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(zerolog.WarnLevel, &buf)
	defer Init("info")

	Info().Msg("hidden")
	Warn().Msg("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Error("info line should be filtered at warn level")
	}
	if !strings.Contains(out, "shown") {
		t.Error("warn line should be written")
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(zerolog.InfoLevel, &buf)
	defer Init("info")

	l := Component("audit")
	l.Info().Msg("entry")

	if !strings.Contains(buf.String(), `"component":"audit"`) {
		t.Errorf("expected component field, got %s", buf.String())
	}
}

func TestGinLogger_StatusLevels(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	InitWithWriter(zerolog.InfoLevel, &buf)
	defer Init("info")

	router := gin.New()
	router.Use(GinLogger())
	router.GET("/ok", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	for _, path := range []string{"/ok", "/missing"} {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", path, nil)
		router.ServeHTTP(w, req)
	}

	out := buf.String()
	if !strings.Contains(out, `"level":"info"`) {
		t.Error("2xx should log at info")
	}
	if !strings.Contains(out, `"level":"warn"`) {
		t.Error("4xx should log at warn")
	}
}

func TestGinRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	InitWithWriter(zerolog.InfoLevel, &buf)
	defer Init("info")

	router := gin.New()
	router.Use(GinRecovery())
	router.GET("/panic", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/panic", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Error("panic should be logged")
	}
}
