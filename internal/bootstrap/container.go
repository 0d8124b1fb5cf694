package bootstrap

import (
	"context"
	"log"
	"time"

	"memory-beads-be/internal/config"
	"memory-beads-be/internal/controller"
	"memory-beads-be/internal/handler"
	"memory-beads-be/internal/pkg/logger"
	"memory-beads-be/internal/pkg/metrics"
	"memory-beads-be/internal/pkg/serverutils"
	"memory-beads-be/internal/repository/unitofwork"
	"memory-beads-be/internal/service"
	"memory-beads-be/internal/websocket"
	"memory-beads-be/pkg/bead"
	"memory-beads-be/pkg/gemini"
	"memory-beads-be/pkg/importer"
	"memory-beads-be/pkg/media"
	pktNats "memory-beads-be/pkg/nats"
	"memory-beads-be/pkg/task"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	JournalController   controller.IJournalController
	CaptureController   controller.ICaptureController
	ImportController    controller.IImportController
	RecordingController controller.IRecordingController
	ActivityController  controller.IActivityController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService
	ActivityService service.IActivityService

	// WebSockets
	StreamHandler *handler.StreamHandler
	WebSocketHub  *websocket.Hub

	Metrics *metrics.Collector
	Logger  logger.ILogger

	closers []func()
}

// NewContainer wires every component. db may be nil when the memory storage
// driver is configured.
func NewContainer(ctx context.Context, db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	collector := metrics.NewCollector("memory_beads")

	var uowFactory unitofwork.RepositoryFactory
	if cfg.UsesMemoryStorage() || db == nil {
		log.Printf("[INFO] Using Storage Driver: MEMORY (journals are lost on restart)")
		uowFactory = unitofwork.NewMemoryRepositoryFactory()
	} else {
		log.Printf("[INFO] Using Storage Driver: POSTGRES")
		uowFactory = unitofwork.NewRepositoryFactory(db)
	}

	c := &Container{Metrics: collector, Logger: sysLogger}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(gochannel.Config{OutputChannelBuffer: 64}, watermillLogger)
	c.onClose(func() { _ = pubSub.Close() })

	// NATS
	var eventPublisher service.IEventPublisher = service.NewNopEventPublisher()
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	} else {
		eventPublisher = natsPub
		c.onClose(natsPub.Close)
	}

	var eventSubscriber service.EventSubscriber
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	} else {
		eventSubscriber = natsSub
		c.onClose(natsSub.Close)
	}

	// Redis
	rdb := newRedis(cfg.App.RedisURL)
	if rdb != nil {
		c.onClose(func() { _ = rdb.Close() })
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.StreamLogFilePath)
	wsHub := websocket.NewHub(rdb, wsLogger, collector)
	go wsHub.Run(ctx)

	// 3. Domain
	appearance := bead.NewAppearance(nil)
	engine := bead.NewEngine(time.Now, appearance)
	store := media.NewDiskStore(cfg.App.UploadsDir, "/uploads")
	recorder := media.NewRecorder(store, cfg.App.MaxRecordingBytes)
	c.onClose(func() {
		if n := recorder.AbortAll(); n > 0 {
			log.Printf("[INFO] Released %d recording devices", n)
		}
	})

	aiClient := gemini.NewClient(cfg.Keys.GoogleGemini, gemini.WithModel(cfg.Keys.GeminiModel))
	if !aiClient.Configured() {
		log.Printf("[WARN] GOOGLE_GEMINI_API_KEY not set, AI features use fallbacks")
	}

	// 4. Services
	echoService := service.NewEchoService(cfg.Echo.RotationPeriod, cfg.Echo.FadeDuration, wsHub, wsLogger)
	wsHub.AddListener(echoService.Observe)
	c.onClose(echoService.Close)

	publisherService := service.NewPublisherService(service.QuestionTopic, pubSub)
	runner := task.NewRunner(ctx)
	c.onClose(runner.Close)
	journalService := service.NewJournalService(
		uowFactory,
		engine,
		eventPublisher,
		publisherService,
		wsHub,
		echoService,
		recorder,
		runner,
		sysLogger,
		collector,
	)

	insightService := service.NewInsightService(aiClient, sysLogger, collector)
	c.ConsumerService = service.NewConsumerService(
		pubSub,
		service.QuestionTopic,
		runner,
		insightService,
		journalService,
		sysLogger,
		collector,
	)

	captureService := service.NewCaptureService(store, insightService, journalService, sysLogger)
	importService := service.NewImportService(importer.NewAdapter(appearance, time.Local), journalService, sysLogger, collector)
	recordingService := service.NewRecordingService(recorder, sysLogger)
	c.ActivityService = service.NewActivityService(eventSubscriber, wsLogger)

	// 5. Controllers
	auth := serverutils.NewJwtMiddleware(cfg.Auth.JwtSecret)

	c.JournalController = controller.NewJournalController(journalService, auth)
	c.CaptureController = controller.NewCaptureController(captureService, auth)
	c.ImportController = controller.NewImportController(importService, auth)
	c.RecordingController = controller.NewRecordingController(recordingService, auth)
	c.ActivityController = controller.NewActivityController(c.ActivityService, auth)
	c.StreamHandler = handler.NewStreamHandler(journalService, echoService, wsHub, cfg.Auth.JwtSecret, wsLogger)
	c.WebSocketHub = wsHub

	return c
}

func newRedis(url string) *redis.Client {
	if url == "" {
		return nil
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{Addr: url}
	}
	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v. Cross-instance fan-out disabled", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func (c *Container) onClose(fn func()) {
	c.closers = append(c.closers, fn)
}

// Close releases resources in reverse wiring order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	_ = c.Logger.Sync()
}
