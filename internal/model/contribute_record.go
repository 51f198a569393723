package model

import (
	"time"

	"gorm.io/gorm"
)

// ContributeRecord 贡献记录
type ContributeRecord struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	VehicleID   int64  `json:"vehicle_id" gorm:"index;not null"`
	Beneficiary string `json:"beneficiary" gorm:"index;not null"`
	From        string `json:"from" gorm:"not null"`
	Amount      string `json:"amount" gorm:"not null"`
	BlockNum    uint64 `json:"block_num"`
}
