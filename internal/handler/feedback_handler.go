package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus_hub/internal/service"
)

type FeedbackHandler struct {
	svc *service.FeedbackService
	log *zap.Logger
}

func NewFeedbackHandler(svc *service.FeedbackService, log *zap.Logger) *FeedbackHandler {
	return &FeedbackHandler{svc: svc, log: log}
}

func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req struct {
		Message string `json:"message" binding:"required"`
		Rating  int    `json:"rating" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	fb, err := h.svc.Submit(c.Request.Context(), actor(c), req.Message, req.Rating)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"msg": "feedback submitted successfully", "feedback": fb})
}

func (h *FeedbackHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
