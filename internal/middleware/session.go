package middleware

import (
	"net/http"
	"strings"

	"github.com/SergeiKhy/campaign-dashboard/internal/models"
	"github.com/gin-gonic/gin"
)

const (
	SessionHeader = "X-Session-Token"
	SessionCookie = "session"

	ctxTokenKey = "session_token"
	ctxUserKey  = "current_user"
)

// SessionResolver находит пользователя живой сессии
type SessionResolver interface {
	CurrentUser(token string) (models.DashboardUser, bool)
}

// TokenFromRequest достаёт токен сессии: заголовок X-Session-Token,
// затем Authorization: Bearer, затем cookie session
func TokenFromRequest(c *gin.Context) string {
	if token := c.GetHeader(SessionHeader); token != "" {
		return token
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	}
	if cookie, err := c.Cookie(SessionCookie); err == nil {
		return cookie
	}
	return ""
}

// RequireSession пропускает только запросы с живой сессией
func RequireSession(resolver SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := TokenFromRequest(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Требуется вход. Передайте токен через X-Session-Token, Authorization: Bearer или cookie session",
			})
			return
		}

		user, ok := resolver.CurrentUser(token)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":   "unauthorized",
				"message": "Сессия не найдена или истекла",
			})
			return
		}

		c.Set(ctxTokenKey, token)
		c.Set(ctxUserKey, user)
		c.Next()
	}
}

// SessionToken токен текущего запроса
func SessionToken(c *gin.Context) string {
	return c.GetString(ctxTokenKey)
}

// CurrentUser пользователь текущего запроса
func CurrentUser(c *gin.Context) (models.DashboardUser, bool) {
	v, exists := c.Get(ctxUserKey)
	if !exists {
		return models.DashboardUser{}, false
	}
	user, ok := v.(models.DashboardUser)
	return user, ok
}
