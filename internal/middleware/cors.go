package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-chi/cors"
)

// CORS 基于 go-chi/cors；origins 包含 "*" 时放行任意来源（仍回显具体 Origin，以便携带凭证）
func CORS(origins []string) gin.HandlerFunc {
	allowAll := false
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	c := cors.New(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			_, ok := allowed[origin]
			return ok || allowAll
		},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", RequestIDHeader},
		ExposedHeaders:   []string{RequestIDHeader, "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           600,
	})

	return func(ctx *gin.Context) {
		// net/http 中间件只在放行时调用 next，借此判断是否继续 gin 链
		passed := false
		c.Handler(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
			passed = true
		})).ServeHTTP(ctx.Writer, ctx.Request)
		if passed {
			ctx.Next()
			return
		}

		// 预检请求到此结束
		if ctx.Writer.Header().Get("Access-Control-Allow-Origin") == "" {
			ctx.AbortWithStatus(http.StatusForbidden)
			return
		}
		ctx.AbortWithStatus(http.StatusNoContent)
	}
}
