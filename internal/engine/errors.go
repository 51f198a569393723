package engine

import (
	"errors"
	"fmt"
)

// Reason 机器可读的失败原因码
type Reason string

const (
	ReasonInvalidParameters   Reason = "InvalidParameters"   // 创建参数不满足经济约束
	ReasonMalformedBatch      Reason = "MalformedBatch"      // 调用批次数组长度不一致
	ReasonUnauthorized        Reason = "Unauthorized"        // 非治理账户调用受限操作
	ReasonAlreadySet          Reason = "AlreadySet"          // 一次性字段重复设置
	ReasonFundingClosed       Reason = "FundingClosed"       // 募资阶段已结束
	ReasonNotFunded           Reason = "NotFunded"           // 未达到募资目标
	ReasonAlreadyFinalized    Reason = "AlreadyFinalized"    // 已执行过finalize
	ReasonOverGoal            Reason = "OverGoal"            // 募资已满额
	ReasonInsufficientPayment Reason = "InsufficientPayment" // 买断出价低于当前价格
	ReasonAlreadyBoughtOut    Reason = "AlreadyBoughtOut"    // 已被买断
	ReasonNothingToClaim      Reason = "NothingToClaim"      // 无可领取份额
	ReasonInsufficientBalance Reason = "InsufficientBalance" // 台账余额不足以附带价值
	ReasonNotFound            Reason = "NotFound"            // 目标载体不存在
)

// Error 带原因码的引擎错误
type Error struct {
	Reason Reason
	Msg    string
}

func (e *Error) Error() string {
	if e.Msg == "" {
		return string(e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Msg)
}

// Errf 构造带原因码的错误
func Errf(reason Reason, format string, args ...interface{}) error {
	return &Error{Reason: reason, Msg: fmt.Sprintf(format, args...)}
}

// ReasonOf 提取错误的原因码，非引擎错误返回空
func ReasonOf(err error) Reason {
	var e *Error
	if errors.As(err, &e) {
		return e.Reason
	}
	return ""
}

// IsReason 判断错误是否为指定原因码
func IsReason(err error, reason Reason) bool {
	return ReasonOf(err) == reason
}
