package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
	"campus_hub/internal/repository"
)

const (
	ContextUserIDKey = "user_id"
	ContextRoleKey   = "role"
)

// Auth 校验 Bearer token，并要求与 redis 中保存的最新 token 一致。
// allowQuery 为真时也接受 ?token=，供 EventSource 这类无法设置请求头的客户端使用。
func Auth(issuer *pkg.TokenIssuer, tokens repository.TokenStore, allowQuery bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearer(c, allowQuery)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "missing authorization header"})
			return
		}

		claims, err := issuer.ParseAccess(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "invalid or expired token"})
			return
		}

		// redis校验是否是正确的token
		origin, err := tokens.GetUserToken(c.Request.Context(), claims.UserID)
		if err != nil || origin != tokenStr {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"msg": "account has been logged in elsewhere"})
			return
		}

		// 校验通过后更新过期时间
		if err := tokens.ExtendUserToken(c.Request.Context(), claims.UserID); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextRoleKey, model.Role(claims.Role))
		c.Next()
	}
}

func bearer(c *gin.Context, allowQuery bool) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		if allowQuery {
			if tok := c.Query("token"); tok != "" {
				return tok, true
			}
		}
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireRole 放行指定角色，其余 403
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := Role(c)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"msg": "access denied"})
	}
}

func UserID(c *gin.Context) string {
	return c.GetString(ContextUserIDKey)
}

func Role(c *gin.Context) model.Role {
	v, _ := c.Get(ContextRoleKey)
	role, _ := v.(model.Role)
	return role
}
