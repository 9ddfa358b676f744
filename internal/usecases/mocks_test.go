package usecases_test

import (
	"context"
	"crypto/ecdsa"
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"chat-ledger.backend/internal/domain/entities"
)

// Mock Minter
type MockMinter struct {
	mock.Mock
}

func (m *MockMinter) ListData(ctx context.Context, dataHash string, price float64) (*entities.ChainReceipt, error) {
	args := m.Called(ctx, dataHash, price)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.ChainReceipt), args.Error(1)
}

// Mock ChatModel
type MockChatModel struct {
	mock.Mock
}

func (m *MockChatModel) Complete(ctx context.Context, messages []entities.CompletionMessage, opts entities.CompletionOptions) (*entities.Completion, error) {
	args := m.Called(ctx, messages, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.Completion), args.Error(1)
}

// Mock SnapshotBackend
type MockSnapshotBackend struct {
	mock.Mock
}

func (m *MockSnapshotBackend) Name() string { return "mock" }

func (m *MockSnapshotBackend) Store(ctx context.Context, blob []byte) (string, error) {
	args := m.Called(ctx, blob)
	return args.String(0), args.Error(1)
}

func (m *MockSnapshotBackend) Pin(ctx context.Context, cid string, tags entities.SnapshotTags) error {
	args := m.Called(ctx, cid, tags)
	return args.Error(0)
}

func (m *MockSnapshotBackend) Unpin(ctx context.Context, cid string) bool {
	args := m.Called(ctx, cid)
	return args.Bool(0)
}

func (m *MockSnapshotBackend) Query(ctx context.Context, filter entities.SnapshotTags) ([]entities.PinRef, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.PinRef), args.Error(1)
}

func (m *MockSnapshotBackend) Fetch(ctx context.Context, cid string) ([]byte, error) {
	args := m.Called(ctx, cid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// Mock PinRepository
type MockPinRepository struct {
	mock.Mock
}

func (m *MockPinRepository) Save(ctx context.Context, entry *entities.PinEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockPinRepository) GetByCID(ctx context.Context, cid string) (*entities.PinEntry, error) {
	args := m.Called(ctx, cid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entities.PinEntry), args.Error(1)
}

func (m *MockPinRepository) ListByWallet(ctx context.Context, wallet string) ([]*entities.PinEntry, error) {
	args := m.Called(ctx, wallet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PinEntry), args.Error(1)
}

func (m *MockPinRepository) FindByTags(ctx context.Context, backend string, filter entities.SnapshotTags) ([]*entities.PinEntry, error) {
	args := m.Called(ctx, backend, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*entities.PinEntry), args.Error(1)
}

func (m *MockPinRepository) Delete(ctx context.Context, cid string) error {
	args := m.Called(ctx, cid)
	return args.Error(0)
}

type testWallet struct {
	key     *ecdsa.PrivateKey
	keyHex  string
	address string
}

func newTestWallet(t *testing.T) testWallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return testWallet{
		key:     key,
		keyHex:  hex.EncodeToString(crypto.FromECDSA(key)),
		address: crypto.PubkeyToAddress(key.PublicKey).Hex(),
	}
}
