package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus_hub/internal/model"
	"campus_hub/internal/service"
)

type EventHandler struct {
	events  *service.EventService
	ratings *service.RatingService
	log     *zap.Logger
}

func NewEventHandler(events *service.EventService, ratings *service.RatingService, log *zap.Logger) *EventHandler {
	return &EventHandler{events: events, ratings: ratings, log: log}
}

type EventReq struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category" binding:"required"`
	Location    string `json:"location"`
	StartDate   string `json:"startDate" binding:"required"`
	EndDate     string `json:"endDate" binding:"required"`
	College     string `json:"college"`
	OnlineLink  string `json:"onlineLink"`
}

func (r EventReq) input() (service.EventInput, error) {
	start, err := parseTime("startDate", r.StartDate)
	if err != nil {
		return service.EventInput{}, err
	}
	end, err := parseTime("endDate", r.EndDate)
	if err != nil {
		return service.EventInput{}, err
	}
	return service.EventInput{
		Title:       r.Title,
		Description: r.Description,
		Category:    model.Category(r.Category),
		Location:    r.Location,
		StartDate:   start,
		EndDate:     end,
		College:     r.College,
		OnlineLink:  r.OnlineLink,
	}, nil
}

func (h *EventHandler) bind(c *gin.Context) (service.EventInput, bool) {
	var req EventReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return service.EventInput{}, false
	}
	in, err := req.input()
	if err != nil {
		fail(c, h.log, err)
		return service.EventInput{}, false
	}
	return in, true
}

func (h *EventHandler) Create(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}
	event, err := h.events.Create(c.Request.Context(), actor(c), in)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *EventHandler) Update(c *gin.Context) {
	in, ok := h.bind(c)
	if !ok {
		return
	}
	event, err := h.events.Update(c.Request.Context(), actor(c), c.Param("id"), in)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.events.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, event)
}

// List 公开列表，按开始时间升序
func (h *EventHandler) List(c *gin.Context) {
	events, err := h.events.List(c.Request.Context())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) ListMine(c *gin.Context) {
	events, err := h.events.ListMine(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) ListRegistered(c *gin.Context) {
	events, err := h.events.ListRegistered(c.Request.Context(), actor(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *EventHandler) Delete(c *gin.Context) {
	if err := h.events.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "event deleted successfully"})
}

func (h *EventHandler) Rate(c *gin.Context) {
	var req struct {
		Rating int `json:"rating" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	rating, err := h.ratings.Rate(c.Request.Context(), actor(c), c.Param("id"), req.Rating)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "rating submitted successfully", "rating": rating})
}

func (h *EventHandler) Ratings(c *gin.Context) {
	sum, err := h.ratings.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
