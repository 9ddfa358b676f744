package blockchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"chat-ledger.backend/internal/domain/entities"
	"chat-ledger.backend/internal/domain/repositories"
)

const marketplaceABIJSON = `[
  {
    "inputs": [
      {"internalType": "string", "name": "_dataHash", "type": "string"},
      {"internalType": "uint256", "name": "_price", "type": "uint256"}
    ],
    "name": "listData",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "uint256", "name": "listingId", "type": "uint256"},
      {"indexed": true, "internalType": "address", "name": "seller", "type": "address"},
      {"indexed": false, "internalType": "string", "name": "dataHash", "type": "string"},
      {"indexed": false, "internalType": "uint256", "name": "price", "type": "uint256"}
    ],
    "name": "DataListed",
    "type": "event"
  }
]`

var marketplaceABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(marketplaceABIJSON))
	if err != nil {
		panic(err)
	}
	return parsed
}()

// gas estimate headroom, in percent
const gasHeadroom = 120

var errTxReverted = errors.New("listData transaction reverted")

// MarketplaceClient lists metadata documents on the marketplace contract
type MarketplaceClient struct {
	client         *EVMClient
	contract       common.Address
	key            *ecdsa.PrivateKey
	from           common.Address
	network        string
	receiptTimeout time.Duration
	pollInterval   time.Duration

	// serializes nonce allocation
	mu sync.Mutex
}

// NewMarketplaceClient creates a client that signs with the hex private key ownerKey.
func NewMarketplaceClient(client *EVMClient, contract, ownerKey, network string, receiptTimeout time.Duration) (*MarketplaceClient, error) {
	if client == nil {
		return nil, errors.New("evm client is required")
	}
	if !common.IsHexAddress(contract) {
		return nil, fmt.Errorf("invalid contract address %q", contract)
	}
	key, err := crypto.HexToECDSA(strings.TrimPrefix(ownerKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid owner private key: %w", err)
	}
	if receiptTimeout <= 0 {
		receiptTimeout = 2 * time.Minute
	}
	return &MarketplaceClient{
		client:         client,
		contract:       common.HexToAddress(contract),
		key:            key,
		from:           crypto.PubkeyToAddress(key.PublicKey),
		network:        network,
		receiptTimeout: receiptTimeout,
		pollInterval:   time.Second,
	}, nil
}

// Sender returns the address transactions are sent from
func (m *MarketplaceClient) Sender() common.Address {
	return m.from
}

// ListData calls listData(dataHash, price) and waits for the receipt. The listing id
// is read from the DataListed event.
func (m *MarketplaceClient) ListData(ctx context.Context, dataHash string, price float64) (*entities.ChainReceipt, error) {
	input, err := marketplaceABI.Pack("listData", dataHash, ToWei(price))
	if err != nil {
		return nil, fmt.Errorf("pack listData: %w", err)
	}

	signed, err := m.send(ctx, input)
	if err != nil {
		return nil, err
	}

	waitCtx, cancel := context.WithTimeout(ctx, m.receiptTimeout)
	defer cancel()
	receipt, err := m.client.WaitForReceipt(waitCtx, signed.Hash(), m.pollInterval)
	if err != nil {
		return nil, fmt.Errorf("wait for receipt %s: %w", signed.Hash().Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return nil, fmt.Errorf("%w: %s", errTxReverted, signed.Hash().Hex())
	}

	out := &entities.ChainReceipt{
		TxHash:  signed.Hash().Hex(),
		Network: m.network,
		Message: "Data listed successfully on blockchain",
	}
	if receipt.BlockNumber != nil {
		out.BlockNumber = receipt.BlockNumber.Uint64()
	}
	if id, ok := listingIDFromLogs(receipt.Logs, m.contract); ok {
		out.ListingID = &id
		out.TokenID = &id
	}
	return out, nil
}

func (m *MarketplaceClient) send(ctx context.Context, input []byte) (*types.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	nonce, err := m.client.PendingNonce(ctx, m.from)
	if err != nil {
		return nil, fmt.Errorf("get nonce: %w", err)
	}
	gasPrice, err := m.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}
	gas, err := m.client.EstimateGas(ctx, ethereum.CallMsg{From: m.from, To: &m.contract, Data: input})
	if err != nil {
		return nil, fmt.Errorf("estimate gas: %w", err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &m.contract,
		Value:    big.NewInt(0),
		Gas:      gas * gasHeadroom / 100,
		GasPrice: gasPrice,
		Data:     input,
	})
	signed, err := types.SignTx(tx, types.LatestSignerForChainID(m.client.ChainID()), m.key)
	if err != nil {
		return nil, fmt.Errorf("sign tx: %w", err)
	}
	if err := m.client.SendTransaction(ctx, signed); err != nil {
		return nil, fmt.Errorf("send tx: %w", err)
	}
	return signed, nil
}

func listingIDFromLogs(logs []*types.Log, contract common.Address) (int64, bool) {
	event := marketplaceABI.Events["DataListed"]
	for _, l := range logs {
		if l == nil || l.Address != contract || len(l.Topics) < 2 || l.Topics[0] != event.ID {
			continue
		}
		id := l.Topics[1].Big()
		if !id.IsInt64() {
			continue
		}
		return id.Int64(), true
	}
	return 0, false
}

// ToWei converts an amount in native token units to wei without float rounding.
// Digits beyond 18 decimals are dropped.
func ToWei(amount float64) *big.Int {
	if amount <= 0 {
		return big.NewInt(0)
	}
	whole, frac, _ := strings.Cut(strconv.FormatFloat(amount, 'f', -1, 64), ".")
	if len(frac) > 18 {
		frac = frac[:18]
	}
	frac += strings.Repeat("0", 18-len(frac))
	wei, ok := new(big.Int).SetString(whole+frac, 10)
	if !ok {
		return big.NewInt(0)
	}
	return wei
}

var _ repositories.Minter = (*MarketplaceClient)(nil)
