package models

import (
	"time"
)

// Pin is the bookkeeping row of one pinned snapshot. It doubles as the tag index for
// backends without a native metadata query.
type Pin struct {
	CID           string            `gorm:"column:cid;type:varchar(128);primaryKey"`
	Backend       string            `gorm:"type:varchar(32);not null;index:idx_pins_backend_type"`
	PinID         string            `gorm:"type:varchar(128)"`
	WalletAddress string            `gorm:"type:varchar(64);not null;index"`
	Type          string            `gorm:"type:varchar(32);index:idx_pins_backend_type"`
	EntityID      string            `gorm:"type:varchar(64);index"`
	Tags          map[string]string `gorm:"type:text;serializer:json"`
	PinnedAt      time.Time         `gorm:"not null;index"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (Pin) TableName() string {
	return "pins"
}
