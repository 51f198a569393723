package model

import (
	"time"

	"gorm.io/gorm"
)

// PayoutRecord 支付记录：买断后的claim与过期后的withdraw
type PayoutRecord struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	VehicleID int64  `json:"vehicle_id" gorm:"index;not null"`
	Account   string `json:"account" gorm:"index;not null"`
	Amount    string `json:"amount" gorm:"not null"`
	Kind      string `json:"kind" gorm:"not null"` // claim, refund
	BlockNum  uint64 `json:"block_num"`
}

// PayoutKind 支付类型
type PayoutKind string

const (
	PayoutKindClaim  PayoutKind = "claim"  // 买断分配
	PayoutKindRefund PayoutKind = "refund" // 募资失败退款
)
