package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus_hub/internal/service"
)

type SuperadminHandler struct {
	svc *service.SuperadminService
	log *zap.Logger
}

func NewSuperadminHandler(svc *service.SuperadminService, log *zap.Logger) *SuperadminHandler {
	return &SuperadminHandler{svc: svc, log: log}
}

func (h *SuperadminHandler) PendingUsers(c *gin.Context) {
	users, err := h.svc.PendingUsers(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *SuperadminHandler) ApproveUser(c *gin.Context) {
	user, err := h.svc.ApproveUser(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "user approved successfully", "user": user})
}

func (h *SuperadminHandler) RejectUser(c *gin.Context) {
	if err := h.svc.RejectUser(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "user rejected and removed"})
}

func (h *SuperadminHandler) DeleteUser(c *gin.Context) {
	if err := h.svc.DeleteUser(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "user deleted successfully"})
}

func (h *SuperadminHandler) AllUsers(c *gin.Context) {
	users, err := h.svc.AllUsers(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *SuperadminHandler) AllEvents(c *gin.Context) {
	events, err := h.svc.AllEvents(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *SuperadminHandler) DeleteEvent(c *gin.Context) {
	if err := h.svc.DeleteEvent(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "event deleted successfully"})
}

func (h *SuperadminHandler) EventStats(c *gin.Context) {
	stats, err := h.svc.EventStats(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
