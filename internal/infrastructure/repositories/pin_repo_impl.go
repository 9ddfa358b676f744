package repositories

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"chat-ledger.backend/internal/domain/entities"
	domainerrors "chat-ledger.backend/internal/domain/errors"
	"chat-ledger.backend/internal/infrastructure/models"
)

// PinRepository implements pin bookkeeping with GORM
type PinRepository struct {
	db *gorm.DB
}

// NewPinRepository creates a new pin repository
func NewPinRepository(db *gorm.DB) *PinRepository {
	return &PinRepository{db: db}
}

// Migrate creates or updates the pins table
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Pin{})
}

// Save inserts or replaces the entry for entry.CID
func (r *PinRepository) Save(ctx context.Context, entry *entities.PinEntry) error {
	m := toPinModel(entry)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "cid"}},
			DoUpdates: clause.AssignmentColumns([]string{"backend", "pin_id", "wallet_address", "type", "entity_id", "tags", "pinned_at", "updated_at"}),
		}).
		Create(m).Error
}

// GetByCID gets a pin entry by content address
func (r *PinRepository) GetByCID(ctx context.Context, cid string) (*entities.PinEntry, error) {
	var m models.Pin
	if err := r.db.WithContext(ctx).Where("cid = ?", cid).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrNotFound
		}
		return nil, err
	}
	return toPinEntity(&m), nil
}

// ListByWallet lists a wallet's pins, newest first
func (r *PinRepository) ListByWallet(ctx context.Context, wallet string) ([]*entities.PinEntry, error) {
	var ms []models.Pin
	if err := r.db.WithContext(ctx).
		Where("wallet_address = ?", strings.ToLower(wallet)).
		Order("pinned_at DESC").
		Find(&ms).Error; err != nil {
		return nil, err
	}

	entries := make([]*entities.PinEntry, 0, len(ms))
	for i := range ms {
		entries = append(entries, toPinEntity(&ms[i]))
	}
	return entries, nil
}

// FindByTags narrows by the indexed columns and matches the remaining tags in memory
func (r *PinRepository) FindByTags(ctx context.Context, backend string, filter entities.SnapshotTags) ([]*entities.PinEntry, error) {
	query := r.db.WithContext(ctx).Model(&models.Pin{}).Where("backend = ?", backend)
	if v, ok := filter[entities.TagType]; ok {
		query = query.Where("type = ?", v)
	}
	if v, ok := filter[entities.TagWalletAddress]; ok {
		query = query.Where("wallet_address = ?", strings.ToLower(v))
	}
	if v, ok := filter[entities.TagConversationID]; ok && filter[entities.TagType] == string(entities.SnapshotTypeConversation) {
		query = query.Where("entity_id = ?", v)
	}
	if v, ok := filter[entities.TagMintID]; ok {
		query = query.Where("entity_id = ?", v)
	}

	var ms []models.Pin
	if err := query.Find(&ms).Error; err != nil {
		return nil, err
	}

	entries := make([]*entities.PinEntry, 0, len(ms))
	for i := range ms {
		entry := toPinEntity(&ms[i])
		if entry.Tags.Matches(filter) {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// Delete removes the entry for cid. Missing entries are not an error.
func (r *PinRepository) Delete(ctx context.Context, cid string) error {
	return r.db.WithContext(ctx).Where("cid = ?", cid).Delete(&models.Pin{}).Error
}

// entityID picks the id the entry is about: the mint id for mint records, else the conversation id.
func entityID(tags entities.SnapshotTags) string {
	if id := tags[entities.TagMintID]; id != "" {
		return id
	}
	return tags[entities.TagConversationID]
}

func toPinModel(e *entities.PinEntry) *models.Pin {
	tags := make(map[string]string, len(e.Tags))
	for k, v := range e.Tags {
		tags[k] = v
	}
	return &models.Pin{
		CID:           e.CID,
		Backend:       e.Backend,
		PinID:         e.PinID,
		WalletAddress: strings.ToLower(e.WalletAddress),
		Type:          e.Tags[entities.TagType],
		EntityID:      entityID(e.Tags),
		Tags:          tags,
		PinnedAt:      e.PinnedAt.UTC(),
	}
}

func toPinEntity(m *models.Pin) *entities.PinEntry {
	tags := make(entities.SnapshotTags, len(m.Tags))
	for k, v := range m.Tags {
		tags[k] = v
	}
	return &entities.PinEntry{
		CID:           m.CID,
		Backend:       m.Backend,
		PinID:         m.PinID,
		WalletAddress: m.WalletAddress,
		Tags:          tags,
		PinnedAt:      m.PinnedAt,
	}
}
