package middleware

import (
	"net/http"

	"loyaltytree/internal/domain"

	"github.com/gin-gonic/gin"
)

// AdminRequired checks that the authenticated account is a customer carrying the admin role.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(ctxAccountType) != domain.AccountCustomer || c.GetString(ctxRole) != domain.RoleAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin access required", "code": "forbidden"})
			return
		}
		c.Next()
	}
}
