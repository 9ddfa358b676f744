package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/gorm"

	"chat-ledger.backend/internal/config"
	"chat-ledger.backend/internal/domain/entities"
	"chat-ledger.backend/internal/infrastructure/datasources/database"
	"chat-ledger.backend/internal/infrastructure/repositories"
	"chat-ledger.backend/internal/infrastructure/storage"
	"chat-ledger.backend/internal/usecases"
	"chat-ledger.backend/pkg/utils"
	"chat-ledger.backend/pkg/wallet"
)

var openPinAdminDB = database.NewConnection

type pinAdminRuntime interface {
	List(ctx context.Context, walletAddress string, page utils.PaginationParams) ([]*entities.PinEntry, utils.PaginationMeta, error)
	Unpin(ctx context.Context, walletAddress, cid string) (*entities.UnpinResult, error)
}

type pinAdminDeps struct {
	loadEnv func() error
	loadCfg func() *config.Config
	prepare func(ctx context.Context, cfg *config.Config) (pinAdminRuntime, io.Closer, error)
	out     io.Writer
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

type dbCloser struct{ db *gorm.DB }

func (c dbCloser) Close() error { return database.Close(c.db) }

func defaultPinAdminDeps() pinAdminDeps {
	return pinAdminDeps{
		loadEnv: func() error { return godotenv.Load() },
		loadCfg: config.Load,
		prepare: func(ctx context.Context, cfg *config.Config) (pinAdminRuntime, io.Closer, error) {
			db, err := openPinAdminDB(cfg.Database)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to connect db: %w", err)
			}
			if err := repositories.Migrate(db); err != nil {
				_ = database.Close(db)
				return nil, nil, fmt.Errorf("failed to migrate db: %w", err)
			}

			pinRepo := repositories.NewPinRepository(db)
			backend := storage.NewBackend(ctx, cfg.Storage, pinRepo)
			return usecases.NewPinUsecase(backend, pinRepo), dbCloser{db: db}, nil
		},
		out: os.Stdout,
	}
}

func parseWallet(address string) (string, error) {
	if address == "" {
		return "", fmt.Errorf("--wallet is required")
	}
	return wallet.NormalizeAddress(address)
}

func runPinAdmin(args []string, deps pinAdminDeps) error {
	def := defaultPinAdminDeps()
	if deps.loadEnv == nil {
		deps.loadEnv = def.loadEnv
	}
	if deps.loadCfg == nil {
		deps.loadCfg = def.loadCfg
	}
	if deps.prepare == nil {
		deps.prepare = def.prepare
	}
	if deps.out == nil {
		deps.out = def.out
	}

	fs := flag.NewFlagSet("pin-admin", flag.ContinueOnError)
	walletFlag := fs.String("wallet", "", "owner wallet address (required)")
	unpinFlag := fs.String("unpin", "", "cid to unpin (optional)")
	pageFlag := fs.Int("page", 1, "page to list")
	limitFlag := fs.Int("limit", 50, "pins per page, 0 for all")
	if err := fs.Parse(args); err != nil {
		return err
	}

	owner, err := parseWallet(*walletFlag)
	if err != nil {
		return err
	}

	if err := deps.loadEnv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ctx := context.Background()
	cfg := deps.loadCfg()
	runtime, closer, err := deps.prepare(ctx, cfg)
	if err != nil {
		return err
	}
	if closer == nil {
		closer = nopCloser{}
	}
	defer closer.Close()

	if *unpinFlag != "" {
		result, err := runtime.Unpin(ctx, owner, *unpinFlag)
		if err != nil {
			return fmt.Errorf("failed to unpin %s: %w", *unpinFlag, err)
		}
		_, _ = fmt.Fprintf(deps.out, "cid=%s\n", result.CID)
		_, _ = fmt.Fprintf(deps.out, "service=%s\n", result.Backend)
		_, _ = fmt.Fprintf(deps.out, "unpinned=%t\n", result.Unpinned)
		_, _ = fmt.Fprintln(deps.out, result.Message)
		return nil
	}

	pins, meta, err := runtime.List(ctx, owner, utils.GetPaginationParams(*pageFlag, *limitFlag))
	if err != nil {
		return fmt.Errorf("failed listing pins for %s: %w", owner, err)
	}
	_, _ = fmt.Fprintf(deps.out, "wallet=%s total=%d page=%d/%d\n", owner, meta.TotalCount, meta.Page, meta.TotalPages)
	for _, p := range pins {
		_, _ = fmt.Fprintf(deps.out, "%s\t%s\t%s\t%s\n",
			p.PinnedAt.UTC().Format("2006-01-02T15:04:05Z"), p.CID, p.Tags[entities.TagType], p.Backend)
	}
	return nil
}

func main() {
	if err := runPinAdmin(os.Args[1:], defaultPinAdminDeps()); err != nil {
		log.Fatal(err)
	}
}
