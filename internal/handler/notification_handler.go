package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus_hub/internal/middleware"
	"campus_hub/internal/realtime"
	"campus_hub/internal/service"
)

type NotificationHandler struct {
	svc       *service.NotificationService
	hub       *realtime.Hub
	heartbeat time.Duration
	log       *zap.Logger
}

func NewNotificationHandler(svc *service.NotificationService, hub *realtime.Hub, heartbeat time.Duration, log *zap.Logger) *NotificationHandler {
	if heartbeat <= 0 {
		heartbeat = 25 * time.Second
	}
	return &NotificationHandler{svc: svc, hub: hub, heartbeat: heartbeat, log: log}
}

func (h *NotificationHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.svc.MarkRead(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "marked as read"})
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.svc.MarkAllRead(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "all notifications marked as read", "updated": n})
}

// Stream SSE 订阅，身份只取自令牌；user_id 参数与令牌不一致时拒绝
func (h *NotificationHandler) Stream(c *gin.Context) {
	identity := middleware.UserID(c)
	if q := c.Query("user_id"); q != "" && q != identity {
		c.JSON(http.StatusForbidden, gin.H{"msg": "cannot subscribe to another user's channel"})
		return
	}

	sess := h.hub.Subscribe(identity)
	defer h.hub.Unsubscribe(sess)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent("ready", gin.H{"user_id": identity, "session": sess.ID})
	c.Writer.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case msg, ok := <-sess.Messages():
			if !ok {
				return false
			}
			c.SSEvent(msg.Event, msg.Data)
			return true
		case t := <-ticker.C:
			c.SSEvent("ping", t.Unix())
			return true
		}
	})
	h.log.Debug("stream closed", zap.String("user_id", identity), zap.String("session", sess.ID))
}
