package middleware

import (
	"context"
	"net/http"
	"strings"

	"loyaltytree/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	ctxAccount     = "account"
	ctxAccountID   = "account_id"
	ctxAccountType = "account_type"
	ctxRole        = "role"
)

// TokenVerifier resolves a bearer token to an account, or nil when the token is unusable.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) *service.Account
}

// AuthRequired resolves the bearer token and sets account, account_id, account_type and role in context.
func AuthRequired(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header", "code": "unauthenticated"})
			return
		}
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization format", "code": "unauthenticated"})
			return
		}
		acc := v.VerifyToken(c.Request.Context(), strings.TrimSpace(parts[1]))
		if acc == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token", "code": "unauthenticated"})
			return
		}
		c.Set(ctxAccount, acc)
		c.Set(ctxAccountID, acc.ID)
		c.Set(ctxAccountType, acc.Type)
		c.Set(ctxRole, acc.Role)
		c.Next()
	}
}

// RequireAccountType admits only accounts of one of the allowed types. Use after AuthRequired.
func RequireAccountType(allowed ...string) gin.HandlerFunc {
	return requireKey(ctxAccountType, allowed)
}

func requireKey(key string, allowed []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := c.GetString(key)
		if v == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "code": "unauthenticated"})
			return
		}
		for _, a := range allowed {
			if v == a {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "code": "forbidden"})
	}
}

// GetAccount returns the authenticated account (must be used after AuthRequired).
func GetAccount(c *gin.Context) *service.Account {
	v, ok := c.Get(ctxAccount)
	if !ok {
		return nil
	}
	acc, _ := v.(*service.Account)
	return acc
}

// GetAccountID returns the authenticated account id, or "" when unauthenticated.
func GetAccountID(c *gin.Context) string {
	return c.GetString(ctxAccountID)
}
