package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reading_coach_backend/internal/config"
	"reading_coach_backend/internal/controller"
	"reading_coach_backend/internal/repository"
	"reading_coach_backend/internal/service"
	"reading_coach_backend/pkg/configwatcher"
	"reading_coach_backend/pkg/database"
	"reading_coach_backend/pkg/logger"
	"reading_coach_backend/pkg/monitoring"
	"reading_coach_backend/pkg/security"
	"reading_coach_backend/pkg/tracing"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	configCallbacks []func(*config.Config)
}

type repositories struct {
	account     *repository.AccountRepository
	coach       *repository.CoachRepository
	child       *repository.ChildRepository
	enrollment  *repository.EnrollmentRepository
	template    *repository.TemplateRepository
	session     *repository.SessionRepository
	activityLog *repository.ActivityLogRepository
	event       *repository.LearningEventRepository
}

type services struct {
	auth       *service.AuthService
	storage    *service.StorageService
	settings   *service.SettingsService
	assignment *service.AssignmentService
	booking    *service.BookingService
	offline    *service.OfflineService
	report     *service.ReportService
	completion *service.CompletionService
	queue      *service.QueueService

	calendar   *service.CalendarService
	recorder   *service.RecorderBotService
	notify     *service.NotifyService
	transcribe *service.TranscribeService
}

type controllers struct {
	auth    *controller.AuthController
	booking *controller.BookingController
	session *controller.SessionController
	offline *controller.OfflineController
	health  *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB) *repositories {
	return &repositories{
		account:     repository.NewAccountRepository(db),
		coach:       repository.NewCoachRepository(db),
		child:       repository.NewChildRepository(db),
		enrollment:  repository.NewEnrollmentRepository(db),
		template:    repository.NewTemplateRepository(db),
		session:     repository.NewSessionRepository(db),
		activityLog: repository.NewActivityLogRepository(db),
		event:       repository.NewLearningEventRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.storage = service.NewStorageService(cfg)
	s.auth = service.NewAuthService(repos.account, cfg)
	s.settings = service.NewSettingsService(rdb, cfg.Coaching)

	s.calendar = service.NewCalendarService(cfg.Calendar)
	s.recorder = service.NewRecorderBotService(cfg.Recorder)
	s.notify = service.NewNotifyService(cfg.Notify)
	s.transcribe = service.NewTranscribeService(cfg.Transcribe)

	s.queue = service.NewQueueService(rdb, cfg.Queue)
	go s.queue.Run()

	s.assignment = service.NewAssignmentService(repos.coach)
	s.booking = service.NewBookingService(
		repos.session,
		repos.child,
		repos.enrollment,
		repos.template,
		s.assignment,
		s.recorder,
	)
	s.offline = service.NewOfflineService(
		repos.session,
		repos.enrollment,
		repos.coach,
		repos.child,
		s.calendar,
		s.recorder,
		s.notify,
		s.settings,
	)
	s.report = service.NewReportService(repos.activityLog, repos.event)
	s.completion = service.NewCompletionService(
		repos.session,
		repos.coach,
		repos.template,
		s.report,
		s.transcribe,
		s.queue,
		s.storage,
		cfg.Queue,
	)

	return s
}

func (a *App) initControllers(s *services, repos *repositories, db *gorm.DB, rdb *redis.Client) *controllers {
	return &controllers{
		auth:    controller.NewAuthController(s.auth),
		booking: controller.NewBookingController(s.booking, a.Config.Calendar.WebhookSecret),
		session: controller.NewSessionController(s.completion, repos.session),
		offline: controller.NewOfflineController(s.offline, s.storage, repos.session),
		health:  controller.NewHealthController(db, rdb),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())

	window := time.Duration(cfg.RateLimit.WindowMinutes) * time.Minute
	if window <= 0 {
		window = time.Minute
	}
	maxRequests := cfg.RateLimit.MaxRequests
	if maxRequests <= 0 {
		maxRequests = 10000
	}
	router.Use(security.RateLimiter(maxRequests, window))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)
	defer logger.Log.Sync()

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	rdb, err := database.InitRedis(&cfg.Redis)
	if err != nil {
		logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
		log.Fatalf("Failed to initialize redis: %v", err)
	}

	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
	}

	repos := app.initRepositories(db)
	services := app.initServices(repos, cfg, rdb)
	app.services = services
	controllers := app.initControllers(services, repos, db, rdb)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		_, err := tracing.InitTracer("reading-coach", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	if cfg.Storage.Type == "local" {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	// 配置文件热加载：目前只有业务阈值兜底值支持运行时替换
	app.RegisterConfigCallback(func(updated *config.Config) {
		services.settings.UpdateDefaults(updated.Coaching)
	})
	go configwatcher.WatchConfig("configs/config.yaml", cfg, func(newCfg interface{}) {
		updated, ok := newCfg.(*config.Config)
		if !ok {
			return
		}
		for _, cb := range app.configCallbacks {
			cb(updated)
		}
		logger.Log.Info("Config reloaded")
	})

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		log.Printf("Server running on port %s", a.Config.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// 等待中断信号优雅地关闭服务器（设置5秒的超时时间）
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// 停掉摘要队列搬运循环
	if a.services != nil && a.services.queue != nil {
		a.services.queue.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
