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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"chat-ledger.backend/internal/config"
	"chat-ledger.backend/internal/domain/repositories"
	"chat-ledger.backend/internal/infrastructure/blockchain"
	"chat-ledger.backend/internal/infrastructure/datasources/database"
	"chat-ledger.backend/internal/infrastructure/jobs"
	"chat-ledger.backend/internal/infrastructure/llm"
	infraRepos "chat-ledger.backend/internal/infrastructure/repositories"
	"chat-ledger.backend/internal/infrastructure/storage"
	"chat-ledger.backend/internal/interfaces/http/handlers"
	"chat-ledger.backend/internal/interfaces/http/middleware"
	"chat-ledger.backend/internal/usecases"
	"chat-ledger.backend/pkg/jwt"
	"chat-ledger.backend/pkg/logger"
	"chat-ledger.backend/pkg/redis"
)

const (
	nonceKeyPrefix  = "auth:nonce:"
	shutdownTimeout = 10 * time.Second
)

var (
	loadDotenv = godotenv.Load
	loadCfg    = config.Load
	initLog    = logger.Init
	initRedis  = redis.Init
	openDB     = database.NewConnection
	migrateDB  = infraRepos.Migrate
	runServer  = func(srv *http.Server) error { return srv.ListenAndServe() }
	notifyStop = func(ctx context.Context) (context.Context, context.CancelFunc) {
		return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	}
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	ctx, stop := notifyStop(context.Background())
	defer stop()
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	jwtService, err := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.Algorithm, cfg.JWT.Expiry)
	if err != nil {
		return fmt.Errorf("failed to initialize jwt service: %w", err)
	}

	nonces, sweepJob, err := newNonceStore(cfg)
	if err != nil {
		return err
	}
	if sweepJob != nil {
		go sweepJob.Start(ctx)
		defer sweepJob.Stop()
	}
	if cfg.Redis.Enabled {
		defer redis.Close()
	}

	db, err := openDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close(db)
	if err := migrateDB(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	logger.Info(ctx, "Pin index ready", zap.String("driver", cfg.Database.Driver))

	pinRepo := infraRepos.NewPinRepository(db)
	backend := storage.NewBackend(ctx, cfg.Storage, pinRepo)
	minter := blockchain.NewMinter(ctx, cfg.Blockchain, cfg.UseMocks, blockchain.NewClientFactory())
	model := llm.NewChatModel(ctx, cfg.LLM, cfg.UseMocks)

	gateway := cfg.Storage.PrimaryGateway()
	authUsecase := usecases.NewWalletAuthUsecase(nonces, jwtService, cfg.Auth.NonceTTL, cfg.Auth.MockMode)
	conversationUsecase := usecases.NewConversationUsecase(backend, cfg.Storage.AppID, gateway, cfg.Storage.CacheSize)
	mintUsecase := usecases.NewMintUsecase(backend, conversationUsecase, minter, cfg.Storage.AppID, gateway, cfg.Storage.CacheSize)
	chatUsecase := usecases.NewChatUsecase(conversationUsecase, model, cfg.LLM.MaxHistory)
	pinUsecase := usecases.NewPinUsecase(backend, pinRepo)

	r := newRouter(cfg, routeDeps{
		authHandler:         handlers.NewAuthHandler(authUsecase),
		conversationHandler: handlers.NewConversationHandler(conversationUsecase, mintUsecase),
		chatHandler:         handlers.NewChatHandler(chatUsecase),
		mintHandler:         handlers.NewMintHandler(mintUsecase),
		pinHandler:          handlers.NewPinHandler(pinUsecase),
		healthHandler:       handlers.NewHealthHandler(backend.Name()),
		walletAuth:          middleware.WalletAuthMiddleware(authUsecase),
		nonceLimiter:        middleware.NewRateLimiter(cfg.Auth.NonceRateLimit, cfg.Auth.NonceBurst).Middleware(),
	})

	for _, route := range r.Routes() {
		logger.Debug(ctx, "Route registered", zap.String("method", route.Method), zap.String("path", route.Path))
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info(ctx, "Chat ledger backend starting",
		zap.String("port", cfg.Server.Port),
		zap.String("storage", backend.Name()),
		zap.Bool("mocks", cfg.UseMocks),
	)
	return serve(ctx, srv)
}

// serve runs srv until it fails or ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() { errCh <- runServer(srv) }()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
		logger.Info(context.Background(), "Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down server: %w", err)
		}
		return nil
	}
}

// newNonceStore picks the shared Redis store when enabled, otherwise the
// in-process store plus its expiry sweeper.
func newNonceStore(cfg *config.Config) (repositories.NonceStore, *jobs.NonceSweepJob, error) {
	if cfg.Redis.Enabled {
		if err := initRedis(cfg.Redis.URL, cfg.Redis.Password); err != nil {
			logger.Error(context.Background(), "Failed to initialize Redis", zap.Error(err))
			return nil, nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		logger.Info(context.Background(), "Redis initialized")
		return redis.NewNonceStore(redis.GetClient(), nonceKeyPrefix), nil, nil
	}

	store := infraRepos.NewMemoryNonceStore()
	return store, jobs.NewNonceSweepJob(store, cfg.Auth.SweepInterval), nil
}
