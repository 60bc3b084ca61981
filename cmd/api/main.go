package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/rafabene/avantpro-accounts/docs"
	"github.com/rafabene/avantpro-accounts/internal/domain/repositories"
	"github.com/rafabene/avantpro-accounts/internal/handlers/dto"
	httphandlers "github.com/rafabene/avantpro-accounts/internal/handlers/http"
	"github.com/rafabene/avantpro-accounts/internal/handlers/middleware"
	"github.com/rafabene/avantpro-accounts/internal/infrastructure/cache"
	"github.com/rafabene/avantpro-accounts/internal/infrastructure/config"
	"github.com/rafabene/avantpro-accounts/internal/infrastructure/i18n"
	"github.com/rafabene/avantpro-accounts/internal/infrastructure/logging"
	"github.com/rafabene/avantpro-accounts/internal/infrastructure/persistence/postgres"
	"github.com/rafabene/avantpro-accounts/internal/infrastructure/storage"
	"github.com/rafabene/avantpro-accounts/internal/services"
)

//	@title			AvantPro Accounts API
//	@version		1.0
//	@description	User accounts with optional profile image.
//	@BasePath		/api/v1
func main() {
	// Carregar configurações
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	// Inicializar logger
	logger := logging.NewSlogLogger(cfg.Logging.Level)
	logger.Info("starting avantpro accounts",
		"env", cfg.Env,
		"version", "dev",
	)

	// Conectar ao banco de dados
	db, err := postgres.NewDatabaseConnection(&cfg.Database, logger)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		log.Fatal(err)
	}

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(db, logger); err != nil {
			logger.Error("failed to migrate database", "error", err)
			log.Fatal(err)
		}
	}

	// Inicializar i18n
	var i18nService *i18n.Service
	if cfg.I18n.LocalesDir != "" {
		i18nService, err = i18n.NewService(cfg.I18n.LocalesDir, cfg.I18n.DefaultLanguage)
	} else {
		i18nService, err = i18n.NewEmbeddedService(cfg.I18n.DefaultLanguage)
	}
	if err != nil {
		logger.Error("failed to initialize i18n", "error", err)
		log.Fatal(err)
	}
	logger.Info("i18n initialized",
		"default_language", i18nService.GetDefaultLanguage(),
		"supported_languages", i18nService.GetSupportedLanguages(),
	)

	if err := dto.RegisterValidators(); err != nil {
		logger.Error("failed to register validators", "error", err)
		log.Fatal(err)
	}

	// Inicializar repositories
	uow := postgres.NewUnitOfWork(db)

	var userRepo repositories.UserRepository = postgres.NewUserRepository(db)
	if cfg.Redis.URL != "" {
		redisClient, err := cache.NewRedisClient(context.Background(), cfg.Redis.URL)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			log.Fatal(err)
		}
		defer redisClient.Close()

		ttl := time.Duration(cfg.Redis.TTLSeconds) * time.Second
		userRepo = cache.NewCachedUserRepository(userRepo, redisClient, uow, ttl, logger)
		logger.Info("user cache enabled", "ttl", ttl)
	}

	imageStorage, err := storage.NewLocalStorage(cfg.Media.Root, cfg.Media.URL, cfg.Media.MaxUploadBytes())
	if err != nil {
		logger.Error("failed to initialize media storage", "error", err)
		log.Fatal(err)
	}

	// Inicializar services
	userService := services.NewUserService(userRepo, uow, imageStorage, logger)

	// Inicializar handlers
	userHandler := httphandlers.NewUserHandler(userService, logger, cfg.Media.MaxUploadBytes())

	// Setup Gin
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.BaseURL(cfg.Server.BaseURL))

	// Middleware i18n
	i18nMiddleware := middleware.NewI18nMiddleware(i18nService)
	router.Use(i18nMiddleware.DetectLanguage())

	// Middleware CORS
	router.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"env":    cfg.Env,
		})
	})

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.Static(cfg.Media.URL, cfg.Media.Root)

	// API routes
	v1 := router.Group("/api/v1")
	userHandler.RegisterRoutes(v1)

	// HTTP Server
	srv := &http.Server{
		Addr:              cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		logger.Info("server starting",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port,
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			log.Fatal(err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	logger.Info("server exited")
}
