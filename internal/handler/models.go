package handler

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// BatchStepRequest 调用批次的一步
type BatchStepRequest struct {
	Target string `json:"target" binding:"required"`
	Data   string `json:"data"`
	Value  string `json:"value"`
}

// CreateVehicleRequest 创建载体请求
type CreateVehicleRequest struct {
	Owner              string             `json:"owner" binding:"required"`
	EndBlock           uint64             `json:"end_block" binding:"required"`
	Goal               string             `json:"goal" binding:"required"`
	Floor              string             `json:"floor" binding:"required"`
	InitialBuyoutPrice string             `json:"initial_buyout_price" binding:"required"`
	Name               string             `json:"name"`
	Batch              []BatchStepRequest `json:"batch"`
}

// ContributeRequest 贡献请求，value为附带价值
type ContributeRequest struct {
	From        string `json:"from" binding:"required"`
	Beneficiary string `json:"beneficiary"`
	Value       string `json:"value" binding:"required"`
}

// FinalizeRequest finalize请求
type FinalizeRequest struct {
	From string `json:"from"`
}

// BuyoutRequest 买断请求，value为出价
type BuyoutRequest struct {
	From  string `json:"from" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// AccountRequest claim/withdraw请求
type AccountRequest struct {
	Account string `json:"account" binding:"required"`
}

// FundRequest 水龙头注资请求
type FundRequest struct {
	From    string `json:"from" binding:"required"`
	Address string `json:"address" binding:"required"`
	Amount  string `json:"amount" binding:"required"`
}

// SetImplementationRequest 轮换实现模板请求
type SetImplementationRequest struct {
	From    string `json:"from" binding:"required"`
	Address string `json:"address" binding:"required"`
}

// SetEscrowRequest 设置手续费托管请求
type SetEscrowRequest struct {
	From      string `json:"from" binding:"required"`
	Recipient string `json:"recipient" binding:"required"`
}

// EscrowWithdrawRequest 托管提现请求
type EscrowWithdrawRequest struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// EncodeRequest 调用数据编码请求
type EncodeRequest struct {
	ABI    string        `json:"abi" binding:"required"`
	Method string        `json:"method" binding:"required"`
	Args   []interface{} `json:"args"`
}

// parseAddress 解析十六进制地址
func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("非法地址: %q", s)
	}
	return common.HexToAddress(s), nil
}

// parseAmount 解析金额，支持十进制与0x十六进制
func parseAmount(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		n, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return nil, fmt.Errorf("非法金额: %q", s)
		}
		return n, nil
	}
	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("非法金额: %q", s)
	}
	return n, nil
}

// parseData 解析0x前缀的调用数据
func parseData(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	return hexutil.Decode(s)
}
