package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Shop struct {
	ID             string           `json:"id" gorm:"type:uuid;primary_key"`
	Name           string           `json:"name" gorm:"not null"`
	BaseURL        string           `json:"base_url" gorm:"not null"`
	ConsumerKey    string           `json:"-" gorm:"column:consumer_key"`
	ConsumerSecret string           `json:"-" gorm:"column:consumer_secret"`
	Status         ConnectionStatus `json:"status" gorm:"default:UNKNOWN"`
	LastCheckedAt  *time.Time       `json:"last_checked_at"`
	LastSyncedAt   *time.Time       `json:"last_synced_at"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type ConnectionStatus string

const (
	ConnectionStatusUnknown      ConnectionStatus = "UNKNOWN"
	ConnectionStatusConnected    ConnectionStatus = "CONNECTED"
	ConnectionStatusUnreachable  ConnectionStatus = "UNREACHABLE"
	ConnectionStatusUnauthorized ConnectionStatus = "UNAUTHORIZED"
)

func (s *Shop) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	return nil
}
