package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"campus_hub/internal/config"
	"campus_hub/internal/metrics"
	"campus_hub/internal/pkg"
	"campus_hub/internal/realtime"
	"campus_hub/internal/repository"
	"campus_hub/internal/repository/mongo"
	"campus_hub/internal/repository/mysql"
	redisrepo "campus_hub/internal/repository/redis"
	"campus_hub/internal/router"
	"campus_hub/internal/service"
)

// storage 按 storage.driver 打开的持久层
type storage struct {
	stores repository.Stores
	ping   func(ctx context.Context) error
	close  func()
}

func openStorage(ctx context.Context, cfg *config.Config, migrate bool) (*storage, error) {
	switch cfg.Storage.Driver {
	case "mongo":
		client, err := mongo.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		db := client.Database(cfg.Mongo.Database)
		if migrate {
			if err := mongo.EnsureIndexes(ctx, db); err != nil {
				_ = client.Disconnect(context.Background())
				return nil, fmt.Errorf("ensure mongo indexes: %w", err)
			}
		}
		return &storage{
			stores: mongo.NewStores(db),
			ping:   func(ctx context.Context) error { return client.Ping(ctx, nil) },
			close:  func() { _ = client.Disconnect(context.Background()) },
		}, nil
	default:
		db, err := mysql.Open(cfg.MySQL.DSN)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		if migrate {
			if err := mysql.AutoMigrate(db); err != nil {
				_ = sqlDB.Close()
				return nil, fmt.Errorf("auto migrate: %w", err)
			}
		}
		return &storage{
			stores: mysql.NewStores(db),
			ping:   sqlDB.PingContext,
			close:  func() { _ = sqlDB.Close() },
		}, nil
	}
}

// app 进程内的全部长生命周期组件
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	rdb      *goredis.Client
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	issuer   *pkg.TokenIssuer
	tokens   *redisrepo.TokenRepository
	limiter  *redisrepo.RateLimitRepository
	hub      *realtime.Hub
	notifier *realtime.Notifier
	mail     *service.MailService
	kafka    *pkg.KafkaProducer
	services router.Services

	stopBridge context.CancelFunc
}

func newApp(ctx context.Context, cfg *config.Config, log *zap.Logger, st *storage) (*app, error) {
	rdb, err := redisrepo.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	a := &app{
		cfg:      cfg,
		log:      log,
		rdb:      rdb,
		registry: reg,
		metrics:  m,
		issuer: pkg.NewTokenIssuer(pkg.JWTConfig{
			AccessSecret:  cfg.JWT.AccessSecret,
			RefreshSecret: cfg.JWT.RefreshSecret,
			AccessTTL:     cfg.JWT.AccessTTL,
			RefreshTTL:    cfg.JWT.RefreshTTL,
		}),
		tokens:  redisrepo.NewTokenRepository(rdb, cfg.JWT.AccessTTL),
		limiter: redisrepo.NewRateLimitRepository(rdb, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow),
		hub:     realtime.NewHub(cfg.Realtime.Buffer, m),
	}

	// 主通道：单实例直接投递本地 Hub，多实例经 redis 广播
	var primary realtime.Publisher = a.hub
	if cfg.Realtime.RedisBridge {
		bridge := realtime.NewRedisBridge(rdb, cfg.Realtime.RedisChannel, a.hub, log)
		bctx, cancel := context.WithCancel(context.Background())
		a.stopBridge = cancel
		go func() {
			if err := bridge.Run(bctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("redis bridge stopped", zap.Error(err))
			}
		}()
		primary = bridge
	}

	var mirrors []realtime.NamedPublisher
	if cfg.PubNub.Enabled {
		client := realtime.NewPubNubClient(cfg.PubNub.PublishKey, cfg.PubNub.SubscribeKey, cfg.PubNub.SecretKey)
		mirrors = append(mirrors, realtime.NamedPublisher{Name: "pubnub", Publisher: realtime.NewPubNubPublisher(client)})
	}
	a.kafka = pkg.NewKafkaProducer(pkg.KafkaConfig{
		Enabled: cfg.Kafka.Enabled,
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
	})
	if a.kafka != nil {
		mirrors = append(mirrors, realtime.NamedPublisher{Name: "kafka", Publisher: realtime.NewKafkaPublisher(a.kafka)})
	}
	a.notifier = realtime.NewNotifier(primary, cfg.Realtime.PublishTimeout, log, m, mirrors...)

	a.mail = service.NewMailServiceFromMailer(pkg.NewMailer(pkg.SMTPConfig{
		Enabled:  cfg.SMTP.Enabled,
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}), log)

	events := service.NewEventService(st.stores, log)
	a.services = router.Services{
		Auth:          service.NewAuthService(st.stores.Users, a.tokens, a.issuer, cfg.Auth.AllowSuperadminSignup),
		Events:        events,
		Registrations: service.NewRegistrationService(st.stores, a.notifier, a.mail, m, log),
		Comments:      service.NewCommentService(st.stores, a.notifier, log),
		Ratings: service.NewRatingService(st.stores,
			redisrepo.NewRatingCacheRepository(rdb), &redisrepo.DistLock{RDB: rdb}, log),
		Feedback:      service.NewFeedbackService(st.stores),
		Notifications: service.NewNotificationService(st.stores),
		Superadmin:    service.NewSuperadminService(st.stores, a.tokens, events, a.mail, log),
	}
	return a, nil
}

func (a *app) handler(st *storage) http.Handler {
	deps := router.Deps{
		Log:         a.log,
		Issuer:      a.issuer,
		Tokens:      a.tokens,
		Limiter:     a.limiter,
		Hub:         a.hub,
		Heartbeat:   a.cfg.Realtime.Heartbeat,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		Metrics:     a.metrics,
		Ready: func(ctx context.Context) error {
			if err := st.ping(ctx); err != nil {
				return fmt.Errorf("storage: %w", err)
			}
			if err := a.rdb.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
			return nil
		},
		Services: a.services,
	}
	if a.cfg.Metrics.Enabled {
		deps.Gatherer = a.registry
		deps.MetricsPath = a.cfg.Metrics.Path
	}
	return router.New(deps)
}

// close 依次排空异步任务后释放连接
func (a *app) close() {
	a.notifier.Wait()
	a.mail.Wait()
	if a.stopBridge != nil {
		a.stopBridge()
	}
	if a.kafka != nil {
		if err := a.kafka.Close(); err != nil {
			a.log.Warn("close kafka producer", zap.Error(err))
		}
	}
	if err := a.rdb.Close(); err != nil {
		a.log.Warn("close redis", zap.Error(err))
	}
}

func runServe(ctx context.Context, configFile string) error {
	cfg, log, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	defer log.Sync()
	gin.SetMode(cfg.Server.Mode)

	st, err := openStorage(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer st.close()

	a, err := newApp(ctx, cfg, log, st)
	if err != nil {
		return err
	}
	defer a.close()

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           a.handler(st),
		ReadHeaderTimeout: 10 * time.Second,
	}
	// SSE 连接不会自行结束，关闭会话让流式 handler 返回
	srv.RegisterOnShutdown(a.hub.Close)

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", zap.String("addr", cfg.Server.Addr), zap.String("storage", cfg.Storage.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("graceful shutdown timed out", zap.Error(err))
		_ = srv.Close()
	}
	return nil
}

