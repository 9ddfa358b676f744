package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"chat-ledger.backend/internal/domain/entities"
	domainerrors "chat-ledger.backend/internal/domain/errors"
	"chat-ledger.backend/internal/domain/repositories"
	"chat-ledger.backend/pkg/logger"
)

// BackendPinata is the name of the Pinata pinning-service backend
const BackendPinata = "pinata"

// PinataConfig configures the Pinata backend
type PinataConfig struct {
	APIURL    string
	JWT       string
	APIKey    string
	SecretKey string
	Gateways  []string
	PageLimit int
	Timeout   time.Duration
	CacheSize int
	Retry     RetryConfig
}

// PinataBackend stores snapshots through the Pinata REST API and reads them back
// through public gateways.
type PinataBackend struct {
	cfg    PinataConfig
	client *http.Client
	cache  *lru.Cache[string, []byte]
	group  singleflight.Group
	index  repositories.PinRepository
	clock  *pinClock
}

// NewPinataBackend creates a Pinata backend. index is optional pin bookkeeping.
func NewPinataBackend(cfg PinataConfig, index repositories.PinRepository) (*PinataBackend, error) {
	if cfg.JWT == "" && (cfg.APIKey == "" || cfg.SecretKey == "") {
		return nil, fmt.Errorf("%w: pinata credentials missing", domainerrors.ErrStorageUnavailable)
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.pinata.cloud"
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 100
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = 1024
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	cache, err := lru.New[string, []byte](cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return &PinataBackend{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		cache:  cache,
		index:  index,
		clock:  newPinClock(),
	}, nil
}

func (b *PinataBackend) Name() string { return BackendPinata }

// Ping checks the credentials against the authentication test endpoint.
func (b *PinataBackend) Ping(ctx context.Context) error {
	_, err := b.call(ctx, http.MethodGet, "/data/testAuthentication", nil, "")
	return err
}

func (b *PinataBackend) Store(ctx context.Context, blob []byte) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "snapshot.json")
	if err != nil {
		return "", err
	}
	if _, err := part.Write(blob); err != nil {
		return "", err
	}
	if err := mw.WriteField("pinataOptions", `{"cidVersion":1}`); err != nil {
		return "", err
	}
	if err := mw.Close(); err != nil {
		return "", err
	}

	resp, err := b.call(ctx, http.MethodPost, "/pinning/pinFileToIPFS", body.Bytes(), mw.FormDataContentType())
	if err != nil {
		return "", fmt.Errorf("pinata upload: %w", err)
	}
	id := gjson.GetBytes(resp, "IpfsHash").String()
	if id == "" {
		return "", fmt.Errorf("pinata upload: response without IpfsHash")
	}
	b.cache.Add(id, append([]byte(nil), blob...))
	return id, nil
}

func (b *PinataBackend) Pin(ctx context.Context, cid string, tags entities.SnapshotTags) error {
	at := b.clock.next()
	stored := tags.With(entities.TagTimestamp, at.Format(time.RFC3339Nano))

	payload, err := json.Marshal(map[string]any{
		"ipfsPinHash": cid,
		"name":        pinName(stored),
		"keyvalues":   stored,
	})
	if err != nil {
		return err
	}
	if _, err := b.call(ctx, http.MethodPut, "/pinning/hashMetadata", payload, "application/json"); err != nil {
		return fmt.Errorf("pinata metadata %s: %w", cid, err)
	}

	if b.index == nil {
		return nil
	}
	return b.index.Save(ctx, &entities.PinEntry{
		CID:           cid,
		Backend:       BackendPinata,
		PinID:         cid,
		WalletAddress: stored[entities.TagWalletAddress],
		Tags:          stored,
		PinnedAt:      at,
	})
}

func (b *PinataBackend) Unpin(ctx context.Context, cid string) bool {
	_, err := b.call(ctx, http.MethodDelete, "/pinning/unpin/"+url.PathEscape(cid), nil, "")
	if err != nil {
		logger.Warn(ctx, "pinata unpin failed", zap.String("cid", cid), zap.Error(err))
		return false
	}
	if b.index != nil {
		_ = b.index.Delete(ctx, cid)
	}
	return true
}

// Query pages through pinList with a keyvalues filter. Every key is matched with "eq".
func (b *PinataBackend) Query(ctx context.Context, filter entities.SnapshotTags) ([]entities.PinRef, error) {
	conditions := make(map[string]map[string]string, len(filter))
	for k, v := range filter {
		conditions[k] = map[string]string{"value": v, "op": "eq"}
	}
	keyvalues, err := json.Marshal(conditions)
	if err != nil {
		return nil, err
	}

	var refs []entities.PinRef
	for offset := 0; ; offset += b.cfg.PageLimit {
		q := url.Values{}
		q.Set("status", "pinned")
		q.Set("pageLimit", fmt.Sprint(b.cfg.PageLimit))
		q.Set("pageOffset", fmt.Sprint(offset))
		q.Set("metadata[keyvalues]", string(keyvalues))

		resp, err := b.call(ctx, http.MethodGet, "/data/pinList?"+q.Encode(), nil, "")
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domainerrors.ErrRemoteQueryFailure, err)
		}

		rows := gjson.GetBytes(resp, "rows").Array()
		for _, row := range rows {
			ref := parsePinRow(row)
			if ref.CID != "" && ref.Tags.Matches(filter) {
				refs = append(refs, ref)
			}
		}
		if len(rows) < b.cfg.PageLimit {
			return refs, nil
		}
	}
}

func parsePinRow(row gjson.Result) entities.PinRef {
	tags := entities.SnapshotTags{}
	row.Get("metadata.keyvalues").ForEach(func(k, v gjson.Result) bool {
		tags[k.String()] = v.String()
		return true
	})
	pinnedAt := tags.Time()
	if pinnedAt.IsZero() {
		pinnedAt, _ = time.Parse(time.RFC3339Nano, row.Get("date_pinned").String())
	}
	return entities.PinRef{
		CID:      row.Get("ipfs_pin_hash").String(),
		PinnedAt: pinnedAt,
		Tags:     tags,
	}
}

// Fetch tries each gateway in order. Concurrent fetches of one CID share a request and
// results are cached by CID. The shared request is detached from the caller that
// started it, so one caller giving up does not fail the others.
func (b *PinataBackend) Fetch(ctx context.Context, cid string) ([]byte, error) {
	if blob, ok := b.cache.Get(cid); ok {
		return append([]byte(nil), blob...), nil
	}

	ch := b.group.DoChan(cid, func() (interface{}, error) {
		shared := context.WithoutCancel(ctx)
		var lastErr error
		for _, gw := range b.cfg.Gateways {
			blob, err := b.fetchWithTimeout(shared, gw, cid)
			if err == nil {
				b.cache.Add(cid, blob)
				return blob, nil
			}
			lastErr = err
			logger.Debug(shared, "gateway fetch failed", zap.String("gateway", gw), zap.String("cid", cid), zap.Error(err))
		}
		if lastErr == nil {
			lastErr = fmt.Errorf("no gateways configured")
		}
		return nil, lastErr
	})

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %v", domainerrors.ErrSnapshotNotFound, cid, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, fmt.Errorf("%w: %s: %v", domainerrors.ErrSnapshotNotFound, cid, res.Err)
		}
		return append([]byte(nil), res.Val.([]byte)...), nil
	}
}

func (b *PinataBackend) fetchWithTimeout(ctx context.Context, gateway, cid string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, b.cfg.Timeout)
	defer cancel()
	return b.fetchFromGateway(ctx, gateway, cid)
}

func (b *PinataBackend) fetchFromGateway(ctx context.Context, gateway, cid string) ([]byte, error) {
	target := strings.TrimRight(gateway, "/") + "/" + cid
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPStatusError{StatusCode: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxSnapshotSize))
}

// call performs an authenticated API request with retry and returns the response body.
func (b *PinataBackend) call(ctx context.Context, method, path string, body []byte, contentType string) ([]byte, error) {
	var out []byte
	err := retry(ctx, b.cfg.Retry, func(ctx context.Context) error {
		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, b.cfg.APIURL+path, reader)
		if err != nil {
			return err
		}
		if contentType != "" {
			req.Header.Set("Content-Type", contentType)
		}
		b.authorize(req)

		resp, err := b.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, maxSnapshotSize))
		if err != nil {
			return err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &HTTPStatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		}
		out = data
		return nil
	})
	return out, err
}

func (b *PinataBackend) authorize(req *http.Request) {
	if b.cfg.JWT != "" {
		req.Header.Set("Authorization", "Bearer "+b.cfg.JWT)
		return
	}
	req.Header.Set("pinata_api_key", b.cfg.APIKey)
	req.Header.Set("pinata_secret_api_key", b.cfg.SecretKey)
}

func pinName(tags entities.SnapshotTags) string {
	name := tags[entities.TagType]
	if id := tags[entities.TagMintID]; id != "" {
		return name + "-" + id
	}
	if id := tags[entities.TagConversationID]; id != "" {
		return name + "-" + id
	}
	return name
}

var _ repositories.SnapshotBackend = (*PinataBackend)(nil)
