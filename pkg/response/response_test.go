package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)
	handler(c)
	return w
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return resp
}

func TestSuccess(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Success(c, map[string]string{"email": "a@x.com"})
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	resp := parseResponse(t, w)
	if resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
	if resp.Message != "ok" {
		t.Errorf("expected message 'ok', got %q", resp.Message)
	}
}

func TestCreated(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Created(c, map[string]int{"id": 1})
	})

	if w.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, w.Code)
	}
	if resp := parseResponse(t, w); resp.Message != "created" {
		t.Errorf("expected message 'created', got %q", resp.Message)
	}
}

func TestPartial(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Partial(c, "2 of 3 delivered", map[string]int{"failed": 1})
	})

	if w.Code != http.StatusMultiStatus {
		t.Errorf("expected status %d, got %d", http.StatusMultiStatus, w.Code)
	}
	resp := parseResponse(t, w)
	if resp.Reason != "partial" {
		t.Errorf("expected reason 'partial', got %q", resp.Reason)
	}
	if resp.Data == nil {
		t.Error("partial response should carry data")
	}
}

func TestAttachment(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Attachment(c, "members_2026-01-02.csv", "text/csv; charset=utf-8", []byte("name\n\"A\""))
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="members_2026-01-02.csv"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if w.Body.String() != "name\n\"A\"" {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		call   func(c *gin.Context)
		status int
	}{
		{"bad request", func(c *gin.Context) { BadRequest(c, "invalid") }, http.StatusBadRequest},
		{"unauthorized", func(c *gin.Context) { Unauthorized(c, "no token") }, http.StatusUnauthorized},
		{"forbidden", func(c *gin.Context) { Forbidden(c, "admin only") }, http.StatusForbidden},
		{"not found", func(c *gin.Context) { NotFound(c, "missing") }, http.StatusNotFound},
		{"too many", func(c *gin.Context) { TooManyRequests(c, "slow down") }, http.StatusTooManyRequests},
		{"server error", func(c *gin.Context) { ServerError(c, "boom") }, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(tt.call)
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			if resp := parseResponse(t, w); resp.Code != tt.status {
				t.Errorf("expected code %d, got %d", tt.status, resp.Code)
			}
		})
	}
}

func TestError_WithAppError(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		status int
	}{
		{"conflict", NewConflict("member already exists"), http.StatusConflict},
		{"unprocessable", NewUnprocessable("no members"), http.StatusUnprocessableEntity},
		{"unavailable", NewServiceUnavailable("offline"), http.StatusServiceUnavailable},
		{"bad gateway", NewBadGateway("store failed"), http.StatusBadGateway},
		{"too many", NewTooManyRequests("locked"), http.StatusTooManyRequests},
		{"not found", NewNotFound("no such member"), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(func(c *gin.Context) {
				Error(c, tt.err)
			})
			if w.Code != tt.status {
				t.Errorf("expected status %d, got %d", tt.status, w.Code)
			}
			resp := parseResponse(t, w)
			if resp.Message != tt.err.Message {
				t.Errorf("expected message %q, got %q", tt.err.Message, resp.Message)
			}
		})
	}
}

func TestError_WithReason(t *testing.T) {
	base := NewConflict("duplicate")
	tagged := base.WithReason("duplicate")

	if base.Reason != "" {
		t.Error("WithReason should not modify the receiver")
	}

	w := performRequest(func(c *gin.Context) {
		Error(c, tagged)
	})
	if resp := parseResponse(t, w); resp.Reason != "duplicate" {
		t.Errorf("expected reason 'duplicate', got %q", resp.Reason)
	}
}

func TestError_WithGenericError(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, errors.New("something went wrong"))
	})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	if resp := parseResponse(t, w); resp.Message != "something went wrong" {
		t.Errorf("expected message 'something went wrong', got %q", resp.Message)
	}
}

func TestAppError_ErrorInterface(t *testing.T) {
	var err error = NewBadRequest("bad input")
	if err.Error() != "bad input" {
		t.Errorf("expected 'bad input', got %q", err.Error())
	}
}
