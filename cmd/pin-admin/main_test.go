package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"chat-ledger.backend/internal/config"
	"chat-ledger.backend/internal/domain/entities"
	"chat-ledger.backend/pkg/utils"
)

const adminTestWallet = "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed"

func TestParseWallet(t *testing.T) {
	if _, err := parseWallet(""); err == nil {
		t.Fatal("expected error for empty wallet")
	}
	if _, err := parseWallet("0x123"); err == nil {
		t.Fatal("expected error for malformed wallet")
	}
	got, err := parseWallet(strings.ToLower(adminTestWallet))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != adminTestWallet {
		t.Fatalf("expected %s got %s", adminTestWallet, got)
	}
}

func TestMain_ExitsWhenWalletMissing(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PIN_ADMIN") == "1" {
		os.Args = []string{"pin-admin"}
		main()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestMain_ExitsWhenWalletMissing")
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PIN_ADMIN=1")
	if err := cmd.Run(); err == nil {
		t.Fatal("expected helper process to fail when --wallet is missing")
	}
}

type fakePinRuntime struct {
	pins     []*entities.PinEntry
	listErr  error
	unpinErr error
	gotPage  *utils.PaginationParams
}

func (f fakePinRuntime) List(_ context.Context, _ string, page utils.PaginationParams) ([]*entities.PinEntry, utils.PaginationMeta, error) {
	if f.gotPage != nil {
		*f.gotPage = page
	}
	if f.listErr != nil {
		return nil, utils.PaginationMeta{}, f.listErr
	}
	return f.pins, utils.CalculateMeta(int64(len(f.pins)), page.Page, page.Limit), nil
}

func (f fakePinRuntime) Unpin(_ context.Context, _ string, cid string) (*entities.UnpinResult, error) {
	if f.unpinErr != nil {
		return nil, f.unpinErr
	}
	return &entities.UnpinResult{CID: cid, Backend: "memory", Unpinned: true, Message: "Content unpinned"}, nil
}

func fakeDeps(rt pinAdminRuntime, out io.Writer) pinAdminDeps {
	return pinAdminDeps{
		loadEnv: func() error { return errors.New("no env") },
		loadCfg: func() *config.Config { return &config.Config{} },
		prepare: func(context.Context, *config.Config) (pinAdminRuntime, io.Closer, error) {
			return rt, nil, nil
		},
		out: out,
	}
}

func TestRunPinAdmin_Branches(t *testing.T) {
	t.Run("flag parse error", func(t *testing.T) {
		if err := runPinAdmin([]string{"-unknown-flag"}, fakeDeps(fakePinRuntime{}, io.Discard)); err == nil {
			t.Fatal("expected parse error")
		}
	})

	t.Run("prepare error", func(t *testing.T) {
		deps := fakeDeps(nil, io.Discard)
		deps.prepare = func(context.Context, *config.Config) (pinAdminRuntime, io.Closer, error) {
			return nil, nil, errors.New("db failed")
		}
		err := runPinAdmin([]string{"-wallet", adminTestWallet}, deps)
		if err == nil || !strings.Contains(err.Error(), "db failed") {
			t.Fatalf("expected prepare error, got %v", err)
		}
	})

	t.Run("list error", func(t *testing.T) {
		err := runPinAdmin([]string{"-wallet", adminTestWallet}, fakeDeps(fakePinRuntime{listErr: errors.New("boom")}, io.Discard))
		if err == nil || !strings.Contains(err.Error(), "failed listing pins") {
			t.Fatalf("expected list error, got %v", err)
		}
	})

	t.Run("list output", func(t *testing.T) {
		var out bytes.Buffer
		var page utils.PaginationParams
		rt := fakePinRuntime{
			gotPage: &page,
			pins: []*entities.PinEntry{{
				CID:      "bafkreiabc",
				Backend:  "memory",
				Tags:     entities.SnapshotTags{entities.TagType: "conversation"},
				PinnedAt: time.Date(2026, 2, 16, 10, 0, 0, 0, time.UTC),
			}},
		}
		if err := runPinAdmin([]string{"-wallet", adminTestWallet, "-page", "0", "-limit", "10"}, fakeDeps(rt, &out)); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if page.Page != 1 || page.Limit != 10 {
			t.Fatalf("unexpected page: %+v", page)
		}
		text := out.String()
		if !strings.Contains(text, "total=1") {
			t.Fatalf("unexpected output: %s", text)
		}
		if !strings.Contains(text, "2026-02-16T10:00:00Z\tbafkreiabc\tconversation\tmemory") {
			t.Fatalf("missing pin row: %s", text)
		}
	})

	t.Run("unpin error", func(t *testing.T) {
		err := runPinAdmin([]string{"-wallet", adminTestWallet, "-unpin", "bafy"}, fakeDeps(fakePinRuntime{unpinErr: errors.New("not found")}, io.Discard))
		if err == nil || !strings.Contains(err.Error(), "failed to unpin bafy") {
			t.Fatalf("expected unpin error, got %v", err)
		}
	})

	t.Run("unpin output", func(t *testing.T) {
		var out bytes.Buffer
		if err := runPinAdmin([]string{"-wallet", adminTestWallet, "-unpin", "bafy"}, fakeDeps(fakePinRuntime{}, &out)); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if !strings.Contains(out.String(), "unpinned=true") {
			t.Fatalf("unexpected output: %s", out.String())
		}
	})
}

func TestDefaultPinAdminDeps_Prepare(t *testing.T) {
	deps := defaultPinAdminDeps()
	if deps.loadEnv == nil || deps.loadCfg == nil || deps.prepare == nil || deps.out == nil {
		t.Fatal("default deps must not be nil")
	}

	cfg := &config.Config{}
	cfg.Database.Driver = "mysql"
	if _, _, err := deps.prepare(context.Background(), cfg); err == nil {
		t.Fatal("expected prepare to fail with unsupported driver")
	}

	origOpen := openPinAdminDB
	defer func() { openPinAdminDB = origOpen }()
	var opened *gorm.DB
	openPinAdminDB = func(c config.DatabaseConfig) (*gorm.DB, error) {
		db, err := origOpen(c)
		opened = db
		return db, err
	}

	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = "file:pin_admin_prepare?mode=memory&cache=shared"
	cfg.Storage.Backend = "memory"
	rt, closer, err := deps.prepare(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected prepare error: %v", err)
	}
	defer closer.Close()
	if opened == nil {
		t.Fatal("expected database to be opened through hook")
	}

	pins, meta, err := rt.List(context.Background(), adminTestWallet, utils.GetPaginationParams(1, 10))
	if err != nil {
		t.Fatalf("unexpected list error: %v", err)
	}
	if len(pins) != 0 || meta.TotalCount != 0 {
		t.Fatalf("expected empty index, got %d pins", len(pins))
	}
}
