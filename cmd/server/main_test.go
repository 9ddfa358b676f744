package main

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"chat-ledger.backend/internal/config"
	infraRepos "chat-ledger.backend/internal/infrastructure/repositories"
	plog "chat-ledger.backend/pkg/logger"
	"chat-ledger.backend/pkg/redis"
)

func withMainHooks(t *testing.T) {
	t.Helper()
	origLoadDotenv := loadDotenv
	origLoadCfg := loadCfg
	origInitLog := initLog
	origInitRedis := initRedis
	origOpenDB := openDB
	origMigrateDB := migrateDB
	origRunServer := runServer
	origNotifyStop := notifyStop

	t.Cleanup(func() {
		loadDotenv = origLoadDotenv
		loadCfg = origLoadCfg
		initLog = origInitLog
		initRedis = origInitRedis
		openDB = origOpenDB
		migrateDB = origMigrateDB
		runServer = origRunServer
		notifyStop = origNotifyStop
	})

	loadDotenv = func(...string) error { return errors.New("no .env") }
	initLog = plog.Init
}

func baseTestConfig(name string) func() *config.Config {
	return func() *config.Config {
		return &config.Config{
			Server: config.ServerConfig{
				Port:           "18080",
				Env:            "development",
				AllowedOrigins: []string{"*"},
			},
			Database: config.DatabaseConfig{
				Driver: "sqlite",
				DSN:    "file:" + name + "?mode=memory&cache=shared",
			},
			JWT: config.JWTConfig{
				Secret:    "secret",
				Algorithm: "HS256",
				Expiry:    time.Hour,
			},
			Auth: config.AuthConfig{
				NonceTTL:       time.Minute,
				SweepInterval:  time.Minute,
				NonceRateLimit: 5,
				NonceBurst:     5,
			},
			Storage: config.StorageConfig{
				Backend:   "memory",
				AppID:     "chat-ledger-test",
				Gateways:  []string{"https://gateway.test/ipfs/"},
				CacheSize: 16,
			},
			LLM:      config.LLMConfig{Provider: "mock", DefaultModel: "gpt-4o-mini", MaxHistory: 10},
			UseMocks: true,
		}
	}
}

func TestRunMainProcess_JWTConfigError(t *testing.T) {
	withMainHooks(t)
	loadCfg = func() *config.Config {
		cfg := baseTestConfig("main_jwt_err")()
		cfg.JWT.Algorithm = "RS256"
		return cfg
	}

	err := runMainProcess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt")
}

func TestRunMainProcess_RedisInitError(t *testing.T) {
	withMainHooks(t)
	loadCfg = func() *config.Config {
		cfg := baseTestConfig("main_redis_err")()
		cfg.Redis.Enabled = true
		return cfg
	}
	initRedis = func(string, string) error { return errors.New("redis down") }

	err := runMainProcess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redis")
}

func TestRunMainProcess_DBOpenError(t *testing.T) {
	withMainHooks(t)
	loadCfg = baseTestConfig("main_db_err")
	openDB = func(config.DatabaseConfig) (*gorm.DB, error) { return nil, errors.New("db open failed") }

	err := runMainProcess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to database")
}

func TestRunMainProcess_MigrateError(t *testing.T) {
	withMainHooks(t)
	loadCfg = baseTestConfig("main_migrate_err")
	migrateDB = func(*gorm.DB) error { return errors.New("no table for you") }

	err := runMainProcess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to migrate database")
}

func TestRunMainProcess_ServerRunError(t *testing.T) {
	withMainHooks(t)
	loadCfg = baseTestConfig("main_server_err")
	runServer = func(*http.Server) error { return errors.New("listen failed") }

	err := runMainProcess()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to start server")
}

func TestRunMainProcess_SuccessPath(t *testing.T) {
	withMainHooks(t)
	loadCfg = baseTestConfig("main_success")
	var addr string
	runServer = func(srv *http.Server) error {
		addr = srv.Addr
		return http.ErrServerClosed
	}

	require.NoError(t, runMainProcess())
	assert.Equal(t, ":18080", addr)
}

func TestRunMainProcess_WithRedisNonceStore(t *testing.T) {
	withMainHooks(t)
	mr := miniredis.RunT(t)
	loadCfg = func() *config.Config {
		cfg := baseTestConfig("main_redis_ok")()
		cfg.Redis.Enabled = true
		cfg.Redis.URL = "redis://" + mr.Addr()
		return cfg
	}
	initRedis = redis.Init
	runServer = func(*http.Server) error { return nil }

	require.NoError(t, runMainProcess())
}

func TestRunMainProcess_GracefulShutdown(t *testing.T) {
	withMainHooks(t)
	loadCfg = baseTestConfig("main_shutdown")
	notifyStop = func(ctx context.Context) (context.Context, context.CancelFunc) {
		ctx, cancel := context.WithCancel(ctx)
		cancel()
		return ctx, cancel
	}
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	runServer = func(*http.Server) error {
		<-release
		return http.ErrServerClosed
	}

	require.NoError(t, runMainProcess())
}

func TestNewNonceStore_MemoryWhenRedisDisabled(t *testing.T) {
	withMainHooks(t)
	cfg := baseTestConfig("unused")()

	store, job, err := newNonceStore(cfg)
	require.NoError(t, err)
	assert.IsType(t, &infraRepos.MemoryNonceStore{}, store)
	require.NotNil(t, job)
}
