package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newLimitedRouter(window time.Duration) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	rl := NewRateLimiter(window)
	r.POST("/login", rl.Limit(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r
}

func hit(r *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = remoteAddr
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiterBlocksBurstPerClient(t *testing.T) {
	r := newLimitedRouter(time.Minute)

	if w := hit(r, "10.1.2.3:5555"); w.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", w.Code)
	}
	if w := hit(r, "10.1.2.3:5556"); w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: expected 429, got %d", w.Code)
	}

	// another client is unaffected
	if w := hit(r, "10.9.9.9:5555"); w.Code != http.StatusOK {
		t.Fatalf("other client: expected 200, got %d", w.Code)
	}
}

func TestRateLimiterAllowsAfterWindow(t *testing.T) {
	r := newLimitedRouter(20 * time.Millisecond)

	if w := hit(r, "10.1.2.3:5555"); w.Code != http.StatusOK {
		t.Fatalf("first request: expected 200, got %d", w.Code)
	}
	time.Sleep(30 * time.Millisecond)
	if w := hit(r, "10.1.2.3:5555"); w.Code != http.StatusOK {
		t.Fatalf("request after window: expected 200, got %d", w.Code)
	}
}

func TestRateLimiterDisabledWithZeroWindow(t *testing.T) {
	r := newLimitedRouter(0)

	for i := 0; i < 5; i++ {
		if w := hit(r, "10.1.2.3:5555"); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
}
