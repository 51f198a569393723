package engine

import (
	"github.com/ethereum/go-ethereum/common"
)

// 引擎事件名称
const (
	EventVehicleCreated   = "VehicleCreated"
	EventContributionMade = "ContributionMade"
	EventVehicleFinalized = "VehicleFinalized"
	EventVehicleExpired   = "VehicleExpired"
	EventVehicleBoughtOut = "VehicleBoughtOut"
	EventClaimPaid        = "ClaimPaid"
	EventRefundPaid       = "RefundPaid"
	EventFeeCollected     = "FeeCollected"
	EventEscrowWithdrawn  = "EscrowWithdrawn"
	EventAccountFunded    = "AccountFunded"
)

// Event 台账事件，状态转换时发出，供链下索引器消费。
// 金额一律以十进制字符串携带，避免JSON精度丢失。
type Event struct {
	Address  common.Address    `json:"address"`   // 事件来源地址（载体/注册表/托管）
	Name     string            `json:"name"`      // 事件名称
	BlockNum uint64            `json:"block_num"` // 发出事件时的台账高度
	Attrs    map[string]string `json:"attrs"`     // 事件属性
}
