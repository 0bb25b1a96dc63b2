package app

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"readhub_backend/internal/config"
	"readhub_backend/internal/controller"
	"readhub_backend/internal/repository"
	"readhub_backend/internal/service"
	"readhub_backend/pkg/database"
	"readhub_backend/pkg/logger"
	"readhub_backend/pkg/monitoring"
	"readhub_backend/pkg/security"
	"readhub_backend/pkg/tracing"
	"syscall"
	"time"

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
	params          *service.EngineParams
	configCallbacks []func(*config.Config)
}

type repositories struct {
	user        *repository.UserRepository
	session     *repository.SessionRepository
	aggregate   *repository.AggregateRepository
	streak      *repository.StreakRepository
	badge       *repository.BadgeRepository
	leaderboard *repository.LeaderboardRepository
}

type services struct {
	auth        *service.AuthService
	streak      *service.StreakService
	aggregate   *service.AggregateService
	badge       *service.BadgeService
	session     *service.SessionService
	leaderboard *service.LeaderboardService
	stats       *service.StatsService
}

type controllers struct {
	auth        *controller.AuthController
	session     *controller.SessionController
	stats       *controller.StatsController
	badge       *controller.BadgeController
	leaderboard *controller.LeaderboardController
	health      *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

// ApplyConfig 配置热加载入口，由 configwatcher 回调
func (a *App) ApplyConfig(cfg *config.Config) {
	a.Config = cfg
	a.params.Update(cfg.Engine)
	for _, cb := range a.configCallbacks {
		cb(cfg)
	}
	logger.Log.Info("config reloaded",
		zap.Int("maxHeartbeatGapSeconds", cfg.Engine.MaxHeartbeatGapSeconds),
		zap.Int("streakMinSeconds", cfg.Engine.StreakMinSeconds),
		zap.String("leaderboardTimezone", cfg.Engine.LeaderboardTimezone))
}

func (a *App) initRepositories(db *gorm.DB, rdb *redis.Client) *repositories {
	return &repositories{
		user:        repository.NewUserRepository(db),
		session:     repository.NewSessionRepository(db),
		aggregate:   repository.NewAggregateRepository(db),
		streak:      repository.NewStreakRepository(db, rdb),
		badge:       repository.NewBadgeRepository(db),
		leaderboard: repository.NewLeaderboardRepository(db),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, db *gorm.DB, rdb *redis.Client) (*services, error) {
	s := &services{}

	a.params = service.NewEngineParams(cfg.Engine)

	s.auth = service.NewAuthService(repos.user, cfg)
	s.streak = service.NewStreakService(repos.streak, repos.aggregate, a.params)
	s.aggregate = service.NewAggregateService(repos.aggregate, s.streak, a.params)

	badge, err := service.NewBadgeService(repos.badge, repos.aggregate, repos.streak, db)
	if err != nil {
		return nil, err
	}
	s.badge = badge

	s.session = service.NewSessionService(repos.session, repos.aggregate, s.aggregate, s.badge, repos.user, db, a.params)
	s.leaderboard = service.NewLeaderboardService(repos.leaderboard, repos.user, db, rdb, a.params)
	s.stats = service.NewStatsService(repos.aggregate, s.streak, repos.badge, repos.user, db, a.params)

	return s, nil
}

func (a *App) initControllers(s *services, db *gorm.DB) *controllers {
	return &controllers{
		auth:        controller.NewAuthController(s.auth),
		session:     controller.NewSessionController(s.session),
		stats:       controller.NewStatsController(s.stats),
		badge:       controller.NewBadgeController(s.badge, db),
		leaderboard: controller.NewLeaderboardController(s.leaderboard),
		health:      controller.NewHealthController(db),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

// startBackgroundTasks 两个周期任务：
//   - 回收清扫：心跳断流超过空闲上限的会话自动结束
//   - 结算检查：已关窗未结算的周榜落快照
func (a *App) startBackgroundTasks(s *services) {
	go func() {
		ticker := time.NewTicker(time.Duration(a.params.Get().ReconcileIntervalSeconds) * time.Second)
		for range ticker.C {
			if err := s.session.ReconcileAbandoned(); err != nil {
				logger.Log.Error("session reconcile error", zap.Error(err))
			}
		}
	}()

	go func() {
		ticker := time.NewTicker(time.Duration(a.params.Get().SettleCheckIntervalSeconds) * time.Second)
		for range ticker.C {
			if err := s.leaderboard.SettleDueWindows(); err != nil {
				logger.Log.Error("leaderboard settle error", zap.Error(err))
			}
		}
	}()
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

	repos := app.initRepositories(db, rdb)
	services, err := app.initServices(repos, cfg, db, rdb)
	if err != nil {
		logger.Log.Fatal("Failed to initialize services", zap.Error(err))
	}
	app.services = services
	controllers := app.initControllers(services, db)

	// 监控初始化
	monitoring.Init()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		if _, err := tracing.InitTracer("reading-engine", cfg.Tracing.CollectorEndpoint); err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
	}

	app.registerRoutes(router, controllers, cfg)

	app.startBackgroundTasks(services)

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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exiting")
}
