package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SergeiKhy/campaign-dashboard/internal/middleware"
	"github.com/SergeiKhy/campaign-dashboard/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

// TestRateLimiter_Middleware проверяет работу rate limiter middleware
func TestRateLimiter_Middleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Создаём rate limiter с лимитом 5 запросов в секунду и burst 5
	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 5,
		BurstSize:         5,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Первые 5 запросов должны пройти (в пределах burst лимита)
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/test", nil)
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code)
	}

	// Следующие запросы должны быть ограничены
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate_limit_exceeded")
}

// TestRateLimiter_MiddlewareWithKey лимит считается по токену сессии
func TestRateLimiter_MiddlewareWithKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		RequestsPerSecond: 2,
		BurstSize:         2,
		CleanupInterval:   time.Minute,
	})
	defer rl.Stop()

	router := gin.New()
	router.Use(rl.MiddlewareWithKey(middleware.TokenFromRequest))
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	send := func(token string) int {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/test", nil)
		req.Header.Set(middleware.SessionHeader, token)
		router.ServeHTTP(w, req)
		return w.Code
	}

	// Сессия 1 - первые 2 запроса успешны, третий ограничен
	assert.Equal(t, http.StatusOK, send("s1"))
	assert.Equal(t, http.StatusOK, send("s1"))
	assert.Equal(t, http.StatusTooManyRequests, send("s1"))

	// Сессия 2 - свой лимит
	assert.Equal(t, http.StatusOK, send("s2"))
}

// TestRateLimiter_Defaults нулевая конфигурация заменяется значениями по умолчанию
func TestRateLimiter_Defaults(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{})
	defer rl.Stop()

	router := gin.New()
	router.Use(rl.Middleware())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

// stubResolver сессии из карты токен -> пользователь
type stubResolver map[string]models.DashboardUser

func (s stubResolver) CurrentUser(token string) (models.DashboardUser, bool) {
	u, ok := s[token]
	return u, ok
}

func sessionRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	resolver := stubResolver{"good": {ID: "u1", Name: "Jane"}}

	router := gin.New()
	router.Use(middleware.RequireSession(resolver))
	router.GET("/test", func(c *gin.Context) {
		user, _ := middleware.CurrentUser(c)
		c.JSON(http.StatusOK, gin.H{"user": user.ID, "token": middleware.SessionToken(c)})
	})
	return router
}

// TestRequireSession проверяет аутентификацию по токену сессии
func TestRequireSession(t *testing.T) {
	router := sessionRouter()

	tests := []struct {
		name     string
		prepare  func(r *http.Request)
		expected int
	}{
		{"без токена", func(r *http.Request) {}, http.StatusUnauthorized},
		{"неизвестный токен", func(r *http.Request) { r.Header.Set(middleware.SessionHeader, "bad") }, http.StatusUnauthorized},
		{"заголовок", func(r *http.Request) { r.Header.Set(middleware.SessionHeader, "good") }, http.StatusOK},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer good") }, http.StatusOK},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: "good"}) }, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("GET", "/test", nil)
			tt.prepare(req)
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.expected, w.Code)
			if tt.expected == http.StatusOK {
				assert.JSONEq(t, `{"user":"u1","token":"good"}`, w.Body.String())
			} else {
				assert.Contains(t, w.Body.String(), `"error":"unauthorized"`)
			}
		})
	}
}

// TestRequestLogger запрос попадает в лог со статусом
func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	router := gin.New()
	router.Use(middleware.RequestLogger(zap.New(core)))
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusAccepted) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/test", nil)
	router.ServeHTTP(w, req)

	entries := logs.FilterMessage("Request").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, int64(http.StatusAccepted), entries[0].ContextMap()["status"])
		assert.Equal(t, "/test", entries[0].ContextMap()["path"])
	}
}
