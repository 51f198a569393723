package scheduler

import (
	"time"

	"github.com/blues/exposure/internal/config"
	"github.com/blues/exposure/internal/engine"
	"github.com/blues/exposure/internal/logger"
	"github.com/go-co-op/gocron/v2"
)

// BlockTickerJob 出块任务：按固定间隔推进台账高度。
// 募资截止与买断价衰减都以台账高度为时钟。
type BlockTickerJob struct {
	ledger *engine.Ledger
	config *config.Config
}

// NewBlockTickerJob 创建出块任务
func NewBlockTickerJob(ledger *engine.Ledger, cfg *config.Config) *BlockTickerJob {
	return &BlockTickerJob{
		ledger: ledger,
		config: cfg,
	}
}

// GetName 获取任务名称
func (j *BlockTickerJob) GetName() string {
	return "block_ticker"
}

// GetSchedule 获取调度配置
func (j *BlockTickerJob) GetSchedule() gocron.JobDefinition {
	interval := j.config.Chain.BlockIntervalSecs
	if interval <= 0 {
		interval = 2
	}
	return gocron.DurationJob(time.Duration(interval) * time.Second)
}

// Execute 执行任务
func (j *BlockTickerJob) Execute() {
	height := j.ledger.AdvanceBlock(1)
	logger.Debug("Advanced ledger to block %d", height)
}
