package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"campus_hub/internal/handler"
	"campus_hub/internal/metrics"
	"campus_hub/internal/middleware"
	"campus_hub/internal/model"
	"campus_hub/internal/pkg"
	"campus_hub/internal/realtime"
	"campus_hub/internal/repository"
	"campus_hub/internal/service"
)

// Services 所有业务服务
type Services struct {
	Auth          *service.AuthService
	Events        *service.EventService
	Registrations *service.RegistrationService
	Comments      *service.CommentService
	Ratings       *service.RatingService
	Feedback      *service.FeedbackService
	Notifications *service.NotificationService
	Superadmin    *service.SuperadminService
}

// Deps 构建路由需要的全部依赖，由 main 组装
type Deps struct {
	Log         *zap.Logger
	Issuer      *pkg.TokenIssuer
	Tokens      repository.TokenStore
	Limiter     repository.RateLimiter
	Hub         *realtime.Hub
	Heartbeat   time.Duration
	CORSOrigins []string
	Metrics     *metrics.Metrics
	// Gatherer 为空时不挂载指标接口
	Gatherer    prometheus.Gatherer
	MetricsPath string
	// Ready 健康检查，返回错误时 /healthz 为 503
	Ready    func(ctx context.Context) error
	Services Services
}

func New(d Deps) *gin.Engine {
	log := d.Log
	if log == nil {
		log = zap.NewNop()
	}
	m := d.Metrics
	if m == nil {
		m = metrics.Nop()
	}

	r := gin.New()
	r.Use(middleware.Logger(log), middleware.Recovery(log), middleware.Metrics(m), middleware.CORS(d.CORSOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		if d.Ready != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := d.Ready(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "msg": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if d.Gatherer != nil {
		path := d.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.GET(path, gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	s := d.Services
	auth := handler.NewAuthHandler(s.Auth, log)
	events := handler.NewEventHandler(s.Events, s.Ratings, log)
	comments := handler.NewCommentHandler(s.Comments, log)
	regs := handler.NewRegistrationHandler(s.Registrations, log)
	feedback := handler.NewFeedbackHandler(s.Feedback, log)
	notes := handler.NewNotificationHandler(s.Notifications, d.Hub, d.Heartbeat, log)
	super := handler.NewSuperadminHandler(s.Superadmin, log)

	authed := middleware.Auth(d.Issuer, d.Tokens, false)
	student := middleware.RequireRole(model.RoleStudent)
	admin := middleware.RequireRole(model.RoleCollegeAdmin)
	superadmin := middleware.RequireRole(model.RoleSuperadmin)

	api := r.Group("/api")

	// 认证相关接口
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", middleware.RateLimit(d.Limiter, "register", log), auth.Register)
		authGroup.POST("/login", middleware.RateLimit(d.Limiter, "login", log), auth.Login)
		authGroup.POST("/refresh", middleware.RateLimit(d.Limiter, "refresh", log), auth.Refresh)

		authGroup.POST("/logout", authed, auth.Logout)
		authGroup.GET("/me", authed, auth.Me)
		authGroup.PUT("/update-profile", authed, auth.UpdateProfile)
		authGroup.POST("/change-password", authed, auth.ChangePassword)
	}

	// 活动相关接口，静态路径需先于 :id 注册
	eventGroup := api.Group("/events")
	{
		eventGroup.GET("", events.List)
		eventGroup.GET("/my-events", authed, admin, events.ListMine)
		eventGroup.GET("/my-registered", authed, events.ListRegistered)
		eventGroup.POST("", authed, admin, events.Create)
		eventGroup.GET("/:id", events.Get)
		eventGroup.PUT("/:id", authed, middleware.RequireRole(model.RoleCollegeAdmin, model.RoleSuperadmin), events.Update)

		eventGroup.GET("/:id/comments", comments.List)
		eventGroup.POST("/:id/comments", authed, comments.Create)
		eventGroup.POST("/:id/comments/:cid/reply", authed, comments.Reply)
		eventGroup.PUT("/:id/comments/:cid/pin", authed, admin, comments.TogglePin)

		eventGroup.GET("/:id/ratings", events.Ratings)
		eventGroup.POST("/:id/rate", authed, events.Rate)
	}

	// 学生报名接口
	studentGroup := api.Group("/student", authed)
	{
		studentGroup.GET("/events", student, events.List)
		studentGroup.POST("/register-event", student, regs.Register)
		studentGroup.DELETE("/cancel-registration", student, regs.Cancel)
		studentGroup.GET("/my-events", middleware.RequireRole(model.RoleStudent, model.RoleCollegeAdmin), regs.Mine)
		studentGroup.GET("/download-ticket/:id", student, regs.Ticket)
	}

	// 学院管理员审核接口
	adminGroup := api.Group("/admin", authed, admin)
	{
		adminGroup.GET("/stats", regs.Stats)
		adminGroup.GET("/registrations", regs.AdminList)
		adminGroup.GET("/registrations/pending", regs.AdminPending)
		adminGroup.PUT("/registrations/:id/approve", regs.Approve)
		adminGroup.PUT("/registrations/:id/reject", regs.Reject)
		adminGroup.DELETE("/delete-event/:id", events.Delete)
	}

	feedbackGroup := api.Group("/feedback")
	{
		feedbackGroup.POST("/submit", authed, feedback.Submit)
		feedbackGroup.GET("/all", feedback.List)
	}

	// 通知接口；stream 允许 ?token= 认证
	noteGroup := api.Group("/notifications")
	{
		noteGroup.GET("", authed, notes.List)
		noteGroup.PUT("/read-all", authed, notes.MarkAllRead)
		noteGroup.PUT("/:id/read", authed, notes.MarkRead)
		noteGroup.GET("/stream", middleware.Auth(d.Issuer, d.Tokens, true), notes.Stream)
	}

	superGroup := api.Group("/superadmin", authed, superadmin)
	{
		superGroup.GET("/pending-users", super.PendingUsers)
		superGroup.PUT("/approve-user/:id", super.ApproveUser)
		superGroup.DELETE("/reject-user/:id", super.RejectUser)
		superGroup.DELETE("/delete-user/:id", super.DeleteUser)
		superGroup.GET("/all-users", super.AllUsers)
		superGroup.GET("/all-events", super.AllEvents)
		superGroup.DELETE("/delete-event/:id", super.DeleteEvent)
		superGroup.GET("/event-stats", super.EventStats)
	}

	return r
}
