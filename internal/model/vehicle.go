package model

import (
	"time"

	"gorm.io/gorm"
)

// Vehicle 载体读模型，由索引器依据台账事件维护。
// 金额为256位无符号整数，统一以十进制字符串落库。
type Vehicle struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// 基本信息
	VehicleID int64  `json:"vehicle_id" gorm:"uniqueIndex;not null"`
	Address   string `json:"address" gorm:"uniqueIndex;not null"`
	Owner     string `json:"owner" gorm:"index;not null"`
	Name      string `json:"name"`

	// 经济参数
	Goal               string `json:"goal" gorm:"not null"`
	Floor              string `json:"floor" gorm:"not null"`
	InitialBuyoutPrice string `json:"initial_buyout_price" gorm:"not null"`
	EndBlock           uint64 `json:"end_block" gorm:"not null"`

	// 状态
	Status      string `json:"status" gorm:"index;default:'funding'"`
	TotalRaised string `json:"total_raised" gorm:"default:'0'"`

	// 终态信息
	FinalizeBlock uint64 `json:"finalize_block"`
	BuyoutPrice   string `json:"buyout_price"`
	BuyoutBlock   uint64 `json:"buyout_block"`
	Buyer         string `json:"buyer"`

	// 关联
	Contributions []ContributeRecord `json:"contributions,omitempty" gorm:"foreignKey:VehicleID;references:VehicleID"`
	Events        []Event            `json:"events,omitempty" gorm:"foreignKey:VehicleID;references:VehicleID"`
}
