package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/huangang/gymdesk/internal/services"
)

type brokenGuard struct{}

func (brokenGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return false, errors.New("redis down")
}
func (brokenGuard) Release(ctx context.Context, key string) error { return nil }

func TestSingleFlight_RejectsConcurrentDuplicate(t *testing.T) {
	guard := services.NewMemoryInFlight()
	entered := make(chan struct{})
	release := make(chan struct{})

	router := gin.New()
	router.POST("/broadcast", SingleFlight(guard, time.Minute, RouteKey), func(c *gin.Context) {
		close(entered)
		<-release
		c.Status(http.StatusOK)
	})

	first := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		req, _ := http.NewRequest("POST", "/broadcast", nil)
		router.ServeHTTP(first, req)
		close(done)
	}()
	<-entered

	second := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/broadcast", nil)
	router.ServeHTTP(second, req)
	if second.Code != http.StatusTooManyRequests {
		t.Errorf("expected status %d, got %d", http.StatusTooManyRequests, second.Code)
	}

	close(release)
	<-done
	if first.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, first.Code)
	}

	// the key is released once the first request finishes
	ok, _ := guard.Acquire(context.Background(), "POST:/broadcast:", time.Minute)
	if !ok {
		t.Error("key should be released after the request")
	}
}

func TestSingleFlight_GuardErrorPassesThrough(t *testing.T) {
	router := gin.New()
	router.POST("/x", SingleFlight(brokenGuard{}, time.Minute, RouteKey), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/x", nil)
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("expected status %d, got %d", http.StatusNoContent, w.Code)
	}
}
