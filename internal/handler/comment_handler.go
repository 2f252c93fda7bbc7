package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus_hub/internal/service"
)

type CommentHandler struct {
	svc *service.CommentService
	log *zap.Logger
}

func NewCommentHandler(svc *service.CommentService, log *zap.Logger) *CommentHandler {
	return &CommentHandler{svc: svc, log: log}
}

type CommentReq struct {
	Text     string `json:"text" binding:"required"`
	ParentID string `json:"parentComment"`
}

func (h *CommentHandler) List(c *gin.Context) {
	threads, err := h.svc.List(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, threads)
}

func (h *CommentHandler) Create(c *gin.Context) {
	var req CommentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	comment, err := h.svc.Create(c.Request.Context(), actor(c), c.Param("id"), req.Text, req.ParentID)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

func (h *CommentHandler) Reply(c *gin.Context) {
	var req struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	reply, err := h.svc.Reply(c.Request.Context(), actor(c), c.Param("id"), c.Param("cid"), req.Text)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, reply)
}

func (h *CommentHandler) TogglePin(c *gin.Context) {
	comment, err := h.svc.TogglePin(c.Request.Context(), actor(c), c.Param("id"), c.Param("cid"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, comment)
}
