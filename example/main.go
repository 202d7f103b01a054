// Package main runs the wastebot webhook service: chat-platform events
// come in over HTTP, photos are classified by the analyzer chain, and
// confirmed reports are persisted with a reward grant.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/apex/log"
	"github.com/apex/log/handlers/text"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	wastebot "github.com/greenloop/wastebot"
	"github.com/greenloop/wastebot/analyzers"
	"github.com/greenloop/wastebot/analyzers/bytesize"
	"github.com/greenloop/wastebot/analyzers/gemini"
	"github.com/greenloop/wastebot/analyzers/huawei"
	"github.com/greenloop/wastebot/analyzers/openai"
	"github.com/greenloop/wastebot/analyzers/tencent"
	"github.com/greenloop/wastebot/blob"
	"github.com/greenloop/wastebot/config"
	"github.com/greenloop/wastebot/hooks"
	"github.com/greenloop/wastebot/metrics"
	"github.com/greenloop/wastebot/rabbitmq"
	"github.com/greenloop/wastebot/session"
	"github.com/greenloop/wastebot/store"
	redisstore "github.com/greenloop/wastebot/store/redis"
	sqlstore "github.com/greenloop/wastebot/store/sql"
	"github.com/greenloop/wastebot/sweeper"
)

func main() {
	cfg := config.Load()

	log.SetHandler(text.New(os.Stderr))
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
	logger := log.WithField("service", "wastebot")

	ctx := context.Background()
	metrics.Register()

	// Reports and the reward ledger live in MySQL. Pending submissions
	// move to Redis when an address is configured; Redis expires them
	// natively, so the sweeper only runs against the SQL store.
	sqlStore, err := sqlstore.New(sqlstore.Config{
		Dialect:         sqlstore.DialectMySQL,
		DSN:             cfg.DSN(),
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
	})
	if err != nil {
		logger.WithError(err).Fatal("connect database")
	}
	defer sqlStore.Close()

	if err := sqlStore.Migrate(ctx); err != nil {
		logger.WithError(err).Fatal("migrate database")
	}

	var st store.Store = sqlStore
	if cfg.RedisAddr != "" {
		pending := redisstore.New(redisstore.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.PendingTTL,
		})
		st = &splitStore{Store: sqlStore, pending: pending}
		logger.WithField("addr", cfg.RedisAddr).Info("pending submissions on redis")
	}

	blobs, err := blob.NewMinio(ctx, blob.MinioConfig{
		Endpoint:        cfg.MinioEndpoint,
		AccessKeyID:     cfg.MinioAccessKey,
		SecretAccessKey: cfg.MinioSecretKey,
		UseSSL:          cfg.MinioUseSSL,
		Bucket:          cfg.MinioBucket,
	})
	if err != nil {
		logger.WithError(err).Fatal("connect object storage")
	}

	eventHooks := buildHooks(cfg, logger)
	chain := buildChain(cfg, logger)

	builder := session.NewBuilder(st,
		session.WithRewards(session.RewardConfig{
			BasePoints:  cfg.BaseReward,
			BonusPoints: cfg.BonusReward,
		}),
		session.WithHooks(eventHooks),
		session.WithBuilderLogger(logger),
	)

	router := session.NewRouter(chain, st, blobs, builder,
		session.WithRouterHooks(eventHooks),
		session.WithRouterLogger(logger),
		session.WithRecentWindow(cfg.RecentEvents),
	)

	sweepCtx, stopSweeper := context.WithCancel(ctx)
	defer stopSweeper()
	sw := sweeper.New(sqlStore, sweeper.Config{
		TTL:      cfg.PendingTTL,
		Interval: cfg.SweepInterval,
	}, sweeper.WithHooks(eventHooks), sweeper.WithLogger(logger))
	go sw.Run(sweepCtx)

	engine := gin.Default()
	engine.GET("/health", func(c *gin.Context) {
		if err := st.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api/v1")
	{
		api.POST("/events/photo", func(c *gin.Context) {
			var event wastebot.PhotoEvent
			if err := c.ShouldBindJSON(&event); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			respond(c, router.HandlePhoto(c.Request.Context(), event))
		})
		api.POST("/events/location", func(c *gin.Context) {
			var event wastebot.LocationEvent
			if err := c.ShouldBindJSON(&event); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			respond(c, router.HandleLocation(c.Request.Context(), event))
		})
		api.POST("/events/text", func(c *gin.Context) {
			var event wastebot.TextCommandEvent
			if err := c.ShouldBindJSON(&event); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			respond(c, router.HandleText(c.Request.Context(), event))
		})
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: engine,
	}

	go func() {
		logger.WithField("port", cfg.Port).Info("listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down")

	stopSweeper()
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("shutdown")
	}
}

// respond writes the handler's outbound message. A silent message means
// the event was a duplicate delivery or otherwise ignored.
func respond(c *gin.Context, msg wastebot.OutboundMessage) {
	if msg.Silent() {
		c.Status(http.StatusNoContent)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// buildChain assembles the analyzer chain from whatever credentials are
// configured. Analyzers without credentials are left out; the byte-size
// heuristic always runs last as a sanity signal.
func buildChain(cfg *config.Config, logger log.Interface) *analyzers.Chain {
	apiLog := analyzers.NewStructuredLogger(logger)

	var list []analyzers.Analyzer
	if cfg.TencentSecretID != "" {
		tcfg := tencent.DefaultConfig()
		tcfg.AccessKeyID = cfg.TencentSecretID
		tcfg.AccessKeySecret = cfg.TencentSecretKey
		tcfg.Region = cfg.TencentRegion
		a, err := tencent.New(tcfg)
		if err != nil {
			logger.WithError(err).Fatal("create tencent analyzer")
		}
		list = append(list, analyzers.WrapWithResilience(a, analyzers.WithLogger(apiLog)))
	}
	if cfg.HuaweiAccessKey != "" {
		hcfg := huawei.DefaultConfig()
		hcfg.AccessKeyID = cfg.HuaweiAccessKey
		hcfg.AccessKeySecret = cfg.HuaweiSecretKey
		hcfg.Region = cfg.HuaweiRegion
		hcfg.ProjectID = cfg.HuaweiProjectID
		a, err := huawei.New(hcfg)
		if err != nil {
			logger.WithError(err).Fatal("create huawei analyzer")
		}
		list = append(list, analyzers.WrapWithResilience(a, analyzers.WithLogger(apiLog)))
	}
	if cfg.OpenAIAPIKey != "" {
		ocfg := openai.DefaultConfig()
		ocfg.APIKey = cfg.OpenAIAPIKey
		ocfg.Model = cfg.OpenAIModel
		list = append(list, analyzers.WrapWithResilience(openai.New(ocfg), analyzers.WithLogger(apiLog)))
	}
	if cfg.GeminiAPIKey != "" {
		gcfg := gemini.DefaultConfig()
		gcfg.APIKey = cfg.GeminiAPIKey
		gcfg.Model = cfg.GeminiModel
		list = append(list, analyzers.WrapWithResilience(gemini.New(gcfg), analyzers.WithLogger(apiLog)))
	}
	list = append(list, bytesize.New(100))

	return analyzers.NewChain(analyzers.ChainConfig{
		Default:        analyzers.DefaultPolicy(cfg.ChainDefault),
		MinImageBytes:  cfg.MinImageBytes,
		MaxImageBytes:  cfg.MaxImageBytes,
		PerCallTimeout: cfg.AnalyzerTimeout,
		Deadline:       cfg.ChainDeadline,
	}, list...)
}

// buildHooks wires event consumers: structured logging always, RabbitMQ
// publishing when a broker URL is configured.
func buildHooks(cfg *config.Config, logger log.Interface) hooks.Hooks {
	logHooks := hooks.FuncHooks{
		OnReportCreatedFunc: func(ctx context.Context, e hooks.ReportCreatedEvent) error {
			logger.WithFields(log.Fields{
				"report_id": e.Report.ID,
				"category":  string(e.Report.Category),
				"points":    e.Points,
			}).Info("report created")
			return nil
		},
		OnPhotoRejectedFunc: func(ctx context.Context, e hooks.PhotoRejectedEvent) error {
			logger.WithFields(log.Fields{
				"session_id": e.SessionID,
				"reason":     e.Reason,
			}).Info("photo rejected")
			return nil
		},
	}

	if cfg.AMQPURL == "" {
		return logHooks
	}
	pub, err := rabbitmq.NewPublisher(rabbitmq.Config{
		URL:      cfg.AMQPURL,
		Exchange: cfg.AMQPExchange,
	})
	if err != nil {
		logger.WithError(err).Fatal("connect rabbitmq")
	}
	return hooks.ChainHooks{logHooks, rabbitmq.NewHook(pub)}
}

// splitStore keeps reports and the reward ledger in SQL while pending
// submissions live in Redis.
type splitStore struct {
	*sqlstore.Store
	pending *redisstore.PendingStore
}

func (s *splitStore) PutPending(ctx context.Context, sub wastebot.PendingSubmission) error {
	return s.pending.PutPending(ctx, sub)
}

func (s *splitStore) GetPending(ctx context.Context, sessionID string) (*wastebot.PendingSubmission, error) {
	return s.pending.GetPending(ctx, sessionID)
}

func (s *splitStore) TakePending(ctx context.Context, sessionID string) (*wastebot.PendingSubmission, error) {
	return s.pending.TakePending(ctx, sessionID)
}

func (s *splitStore) DeletePending(ctx context.Context, sessionID string) error {
	return s.pending.DeletePending(ctx, sessionID)
}

func (s *splitStore) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int, error) {
	return s.pending.DeleteExpiredBefore(ctx, cutoff)
}
