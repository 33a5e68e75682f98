package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tacofish-app/tacofish-backend/internal/config"
	"github.com/tacofish-app/tacofish-backend/internal/db"
	httpHandlers "github.com/tacofish-app/tacofish-backend/internal/http/handlers"
	httpRouter "github.com/tacofish-app/tacofish-backend/internal/http/router"
	"github.com/tacofish-app/tacofish-backend/internal/logger"
	"github.com/tacofish-app/tacofish-backend/internal/phone"
	"github.com/tacofish-app/tacofish-backend/internal/repository"
	"github.com/tacofish-app/tacofish-backend/internal/service"
	"github.com/tacofish-app/tacofish-backend/internal/sms"
	"github.com/tacofish-app/tacofish-backend/internal/storage"
	"github.com/tacofish-app/tacofish-backend/internal/verification"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	// Хранилище ожидающих регистраций: Redis при нескольких инстансах,
	// иначе память процесса.
	var verificationStore verification.Store
	if cfg.RedisURL != "" {
		redisClient, err := db.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatalf("main: ошибка подключения к Redis: %v", err)
		}
		defer redisClient.Close()
		verificationStore = verification.NewRedisStore(redisClient, cfg.VerificationTTL, cfg.VerificationMaxTry)
	} else {
		memStore := verification.NewMemoryStore(cfg.VerificationTTL, cfg.VerificationMaxTry, cfg.VerificationMaxPend)
		memStore.StartSweeper(ctx, time.Minute)
		verificationStore = memStore
	}

	// Вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	formatter := phone.NewFormatter(cfg.PhonePrefix)
	dispatcher := sms.NewTwilioDispatcher(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber, cfg.SMSTimeout)
	cacheService := service.NewCacheService(ctx)

	imageStorage, err := storage.NewImageStorage(cfg.MediaStoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		log.Fatalf("main: не удалось подготовить файловое хранилище: %v", err)
	}

	// Репозитории.
	usuarioRepo := repository.NewUsuarioRepository(dbConn)
	catalogoRepo := repository.NewCatalogoRepository(dbConn)
	calificacionRepo := repository.NewCalificacionRepository(dbConn)

	// Сервисы.
	registrationService := service.NewRegistrationService(usuarioRepo, verificationStore, dispatcher, tokenManager, formatter, cfg.SMSTimeout)
	authService := service.NewAuthService(usuarioRepo, tokenManager, formatter)
	catalogoService := service.NewCatalogoService(catalogoRepo, cacheService, cfg.BaseURL)
	calificacionService := service.NewCalificacionService(calificacionRepo, catalogoRepo, cacheService)

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(registrationService, authService)
	catalogoHandler := httpHandlers.NewCatalogoHandler(catalogoService, calificacionService)
	calificacionHandler := httpHandlers.NewCalificacionHandler(calificacionService)
	mediaHandler := httpHandlers.NewMediaHandler(catalogoService, imageStorage)
	healthHandler := httpHandlers.NewHealthHandler(dbConn, verificationStore)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, catalogoHandler, calificacionHandler, mediaHandler, healthHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
