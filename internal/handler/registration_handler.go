package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus_hub/internal/service"
)

// RegistrationHandler 学生报名与学院管理员审核
type RegistrationHandler struct {
	svc *service.RegistrationService
	log *zap.Logger
}

func NewRegistrationHandler(svc *service.RegistrationService, log *zap.Logger) *RegistrationHandler {
	return &RegistrationHandler{svc: svc, log: log}
}

type EventIDReq struct {
	EventID string `json:"eventId" form:"eventId"`
}

// eventID body 或 query 均可，DELETE 请求的客户端常常不带 body
func eventID(c *gin.Context) string {
	var req EventIDReq
	_ = c.ShouldBindJSON(&req)
	if req.EventID == "" {
		req.EventID = c.Query("eventId")
	}
	return req.EventID
}

func (h *RegistrationHandler) Register(c *gin.Context) {
	reg, err := h.svc.Register(c.Request.Context(), actor(c), eventID(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"msg": "registered successfully, waiting for approval", "registration": reg})
}

func (h *RegistrationHandler) Cancel(c *gin.Context) {
	if err := h.svc.Cancel(c.Request.Context(), actor(c), eventID(c)); err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "registration cancelled"})
}

func (h *RegistrationHandler) Mine(c *gin.Context) {
	list, err := h.svc.MyRegistrations(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// Ticket 纯文本附件
func (h *RegistrationHandler) Ticket(c *gin.Context) {
	ticket, err := h.svc.Ticket(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+ticket.Filename+`"`)
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(ticket.Body))
}

func (h *RegistrationHandler) Approve(c *gin.Context) {
	reg, err := h.svc.Approve(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "registration approved", "registration": reg})
}

func (h *RegistrationHandler) Reject(c *gin.Context) {
	reg, err := h.svc.Reject(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "registration rejected", "registration": reg})
}

func (h *RegistrationHandler) AdminList(c *gin.Context) {
	h.adminList(c, false)
}

func (h *RegistrationHandler) AdminPending(c *gin.Context) {
	h.adminList(c, true)
}

func (h *RegistrationHandler) adminList(c *gin.Context, pendingOnly bool) {
	list, err := h.svc.AdminRegistrations(c.Request.Context(), actor(c), pendingOnly)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *RegistrationHandler) Stats(c *gin.Context) {
	stats, err := h.svc.AdminStats(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
