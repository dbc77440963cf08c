package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/jeeprep/jee-prep-api/internal/config"
	"github.com/jeeprep/jee-prep-api/internal/events"
	"github.com/jeeprep/jee-prep-api/internal/handler"
	"github.com/jeeprep/jee-prep-api/internal/middleware"
	pgRepo "github.com/jeeprep/jee-prep-api/internal/repository/postgres"
	redisRepo "github.com/jeeprep/jee-prep-api/internal/repository/redis"
	"github.com/jeeprep/jee-prep-api/internal/service"
	"github.com/jeeprep/jee-prep-api/internal/service/testsession"
	"github.com/jeeprep/jee-prep-api/internal/validation"
	ws "github.com/jeeprep/jee-prep-api/internal/websocket"
	"github.com/jeeprep/jee-prep-api/pkg/auth"
	"github.com/jeeprep/jee-prep-api/pkg/auth/manager"
	"github.com/jeeprep/jee-prep-api/pkg/database"
	"github.com/jeeprep/jee-prep-api/pkg/logger"
)

const version = "1.0.0"

func main() {
	printStartUpBanner()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("Warning: could not load .env: %v", err)
	}

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Loading configuration from %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	logCloser := logger.Setup(logger.Options{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	defer logCloser.Close()

	// PostgreSQL
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), cfg.Database.LogSQL)
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}
	sqlDB, err := database.GetSQLDB(db)
	if err != nil {
		log.Printf("Failed to get sql.DB: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	if cfg.Server.AutoMigrate {
		if err := database.MigrateDB(db, cfg.Server.MigrationsPath); err != nil {
			log.Printf("Failed to migrate database: %v", err)
			os.Exit(1)
		}
	}

	// Redis
	redisClient, err := database.NewUniversalRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	defer redisClient.Close()
	log.Println("Successfully connected to Redis")

	// Repositories
	userRepo := pgRepo.NewUserRepo(db)
	subjectRepo := pgRepo.NewSubjectRepo(db)
	questionRepo := pgRepo.NewQuestionRepo(db)
	resultRepo := pgRepo.NewResultRepo(db)
	progressRepo := pgRepo.NewProgressRepo(db)

	cacheRepo, err := redisRepo.NewCacheRepo(redisClient)
	if err != nil {
		log.Printf("Failed to initialize CacheRepo: %v", err)
		os.Exit(1)
	}

	// Tokens
	jwtService, err := auth.NewJWTService(
		cfg.JWT.Secret,
		cfg.JWT.TokenExpiry(),
		cfg.JWT.WSTicketExpiry(),
		auth.NewCacheRevocationStore(cacheRepo),
	)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	isProduction := gin.Mode() == gin.ReleaseMode
	cookieManager := manager.NewCookieManager(cfg.JWT.TokenExpiry(), cfg.Server.CookieDomain, isProduction)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Attempt events
	publisher, subscriber, err := events.NewPublisher(events.Config{
		Driver:  cfg.Events.Driver,
		Brokers: cfg.Events.Brokers,
		Topic:   cfg.Events.Topic,
	})
	if err != nil {
		log.Printf("Failed to initialize event publisher: %v", err)
		os.Exit(1)
	}
	if subscriber != nil {
		if err := events.Consume(ctx, subscriber, publisher.Topic(), events.LogHandler); err != nil {
			log.Printf("Warning: event consumer not started: %v", err)
		}
	}

	// WebSocket
	var pubSubProvider ws.PubSubProvider = &ws.NoOpPubSub{}
	if cfg.Redis.PubSub {
		redisProvider, errProv := ws.NewRedisPubSub(redisClient)
		if errProv != nil {
			log.Printf("Failed to create Redis PubSub provider: %v. Cross-instance delivery disabled.", errProv)
		} else {
			log.Println("Redis PubSub provider initialised")
			pubSubProvider = redisProvider
		}
	}
	wsHub := ws.NewHub(pubSubProvider)
	if err := wsHub.Run(ctx); err != nil {
		log.Printf("Warning: hub pub/sub listener not started: %v", err)
	}
	wsManager := ws.NewManager(wsHub)

	// Services
	authService := service.NewAuthService(userRepo, jwtService)
	userService := service.NewUserService(userRepo)
	questionService := service.NewQuestionService(questionRepo, subjectRepo, cacheRepo, cfg.Session.SubjectsCacheTTLDuration())
	progressService := service.NewProgressService(progressRepo)
	resultService := service.NewResultService(resultRepo, progressRepo, questionRepo, userRepo, cacheRepo, cfg.Session.SubmitLockTTLDuration())

	if cfg.Mail.ResendAPIKey != "" {
		mailer, err := service.NewResendResultMailer(cfg.Mail.ResendAPIKey, cfg.Mail.From)
		if err != nil {
			log.Printf("Warning: result emails disabled: %v", err)
		} else {
			resultService.SetMailer(mailer)
			log.Println("Result emails enabled")
		}
	}

	sessionManager := service.NewSessionManager(service.SessionManagerConfig{
		Timers: &testsession.Config{
			CountdownInterval:  cfg.Session.CountdownIntervalDuration(),
			AutosaveInterval:   cfg.Session.AutosaveIntervalDuration(),
			SaveTimeout:        cfg.Session.SaveTimeoutDuration(),
			TimeWarningSeconds: cfg.Session.TimeWarning,
		},
		FetchTimeout:   cfg.Session.FetchTimeoutDuration(),
		SubmitTimeout:  cfg.Session.SubmitTimeoutDuration(),
		EndedRetention: cfg.Session.EndedRetentionDuration(),
	}, service.SessionDependencies{
		QuestionRepo: questionRepo,
		ProgressRepo: progressRepo,
		Recorder:     resultService,
		Publisher:    publisher,
		Notifier:     wsManager,
	})

	// Handlers
	authHandler := handler.NewAuthHandler(authService, cookieManager, cfg.JWT.TokenExpiry())
	userHandler := handler.NewUserHandler(userService)
	questionHandler := handler.NewQuestionHandler(questionService, resultService)
	progressHandler := handler.NewProgressHandler(progressService)
	testHandler := handler.NewTestHandler(sessionManager)
	resultHandler := handler.NewResultHandler(resultService, userService)
	wsHandler := handler.NewWSHandler(wsHub, wsManager, sessionManager, jwtService, cfg.CORS.AllowedOrigins)
	healthHandler := handler.NewHealthHandler(map[string]handler.HealthCheck{
		"postgres": sqlDB.PingContext,
		"redis": func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		},
	}, wsHub, sessionManager)

	// Middleware
	if err := validation.RegisterWithGin(); err != nil {
		log.Printf("Failed to register validators: %v", err)
		os.Exit(1)
	}
	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)
	progressLimiter := middleware.NewUserRateLimiter(cfg.RateLimit.ProgressPerSecond, cfg.RateLimit.ProgressBurst)

	router := gin.New()
	router.Use(gin.LoggerWithWriter(logger.Writer()), gin.Recovery())

	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	api := router.Group("/api")
	{
		api.GET("/health", healthHandler.Health)
		api.GET("/subjects", questionHandler.ListSubjects)

		authGroup := api.Group("/auth")
		{
			strict := rateLimiter.Limit(middleware.StrictAuthRateLimitConfig())
			authGroup.POST("/register", strict, authHandler.Register)
			authGroup.POST("/login", strict, authHandler.Login)

			authedAuth := authGroup.Group("")
			authedAuth.Use(authMiddleware.RequireAuth())
			{
				authedAuth.POST("/logout", authHandler.Logout)
				authedAuth.POST("/ws-ticket", authHandler.GenerateWsTicket)
			}
		}

		authed := api.Group("")
		authed.Use(authMiddleware.RequireAuth(), rateLimiter.LimitByIP(middleware.DefaultAPIRateLimitConfig()))
		{
			users := authed.Group("/users")
			{
				users.GET("/me", userHandler.GetMe)
				users.PUT("/me", userHandler.UpdateMe)
			}

			authed.POST("/questions", questionHandler.FetchQuestions)
			question := authed.Group("/questions/:id")
			question.Use(middleware.ExtractUintParam("id", "questionID"))
			{
				question.GET("", questionHandler.GetQuestion)
				question.POST("/submissions", questionHandler.SubmitPractice)
			}

			progress := authed.Group("/test-progress")
			{
				progress.POST("", progressLimiter.Limit(), progressHandler.Save)
				progress.GET("", progressHandler.Get)
				progress.DELETE("", progressHandler.Delete)
			}

			authed.POST("/test-results", resultHandler.SubmitResult)

			authed.POST("/tests", testHandler.Start)
			test := authed.Group("/tests/:attemptId")
			test.Use(middleware.ExtractAttemptParam("attemptId", "attemptID"))
			{
				test.GET("", testHandler.Get)
				test.PUT("/answers", testHandler.SelectAnswer)
				test.PUT("/navigate", testHandler.Navigate)
				test.POST("/pause", testHandler.Pause)
				test.POST("/resume", testHandler.Resume)
				test.POST("/submit", testHandler.Submit)
				test.POST("/suspend", testHandler.Suspend)
				test.DELETE("", testHandler.Abandon)
			}

			authed.GET("/results", resultHandler.ListResults)
			authed.GET("/results/export", resultHandler.ExportHistory)
			result := authed.Group("/results/:attemptId")
			result.Use(middleware.ExtractAttemptParam("attemptId", "attemptID"))
			{
				result.GET("", resultHandler.GetResult)
				result.GET("/report.pdf", resultHandler.ReportPDF)
			}

			authed.GET("/analytics", resultHandler.Analytics)
		}
	}

	router.GET("/ws", wsHandler.HandleConnection)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Running tests get a final save before the process exits.
	if err := sessionManager.Shutdown(shutdownCtx); err != nil {
		log.Printf("Session manager shutdown incomplete: %v", err)
	}
	// Shutdown also closes the pub/sub provider.
	wsHub.Shutdown()
	cancel()

	if err := publisher.Close(); err != nil {
		log.Printf("Error closing event publisher: %v", err)
	}

	log.Println("Server exited properly")
}

func printStartUpBanner() {
	banner := figure.NewFigure("JEE PREP", "", true)
	banner.Print()

	fmt.Println("======================================================")
	fmt.Printf("JEE Prep API (v%s)\n\n", version)
}
