package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus_hub/internal/middleware"
	"campus_hub/internal/pkg"
	"campus_hub/internal/service"
)

// status 业务错误到 HTTP 状态码
func status(err error) int {
	switch {
	case errors.Is(err, pkg.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, pkg.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, pkg.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, pkg.ErrDuplicate),
		errors.Is(err, pkg.ErrDuplicateRegistration),
		errors.Is(err, pkg.ErrDuplicateRating),
		errors.Is(err, pkg.ErrConflict),
		errors.Is(err, pkg.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, pkg.ErrValidation):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// fail 500 只返回通用信息，真实错误写日志
func fail(c *gin.Context, log *zap.Logger, err error) {
	code := status(err)
	if code == http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(middleware.ContextReqIDKey)),
			zap.Error(err))
		_ = c.Error(err)
		c.JSON(code, gin.H{"msg": "internal server error"})
		return
	}
	c.JSON(code, gin.H{"msg": err.Error()})
}

func badParams(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"msg": "invalid params"})
}

func actor(c *gin.Context) service.Actor {
	return service.Actor{ID: middleware.UserID(c), Role: middleware.Role(c)}
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseTime 兼容 RFC3339 与 datetime-local 输入，无时区按 UTC
func parseTime(field, v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, pkg.Invalid(field, "unrecognized date format")
}
