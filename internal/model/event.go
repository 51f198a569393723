package model

import (
	"time"

	"gorm.io/gorm"
)

// Event 台账事件记录
type Event struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	VehicleID int64  `json:"vehicle_id" gorm:"index"`
	Address   string `json:"address" gorm:"index;not null"`
	EventType string `json:"event_type" gorm:"not null"`
	BlockNum  uint64 `json:"block_num" gorm:"not null"`
	Data      string `json:"data" gorm:"type:text"`
	Processed bool   `json:"processed" gorm:"default:false"`
}
