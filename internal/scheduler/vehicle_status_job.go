package scheduler

import (
	"time"

	"github.com/blues/exposure/internal/config"
	"github.com/blues/exposure/internal/logger"
	"github.com/blues/exposure/internal/logic"
	"github.com/blues/exposure/internal/registry"
	"github.com/blues/exposure/internal/vehicle"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// VehicleStatusJob 载体状态任务：周期触发惰性过期检查，
// 并把引擎内的最新状态同步进读模型。
type VehicleStatusJob struct {
	reg          *registry.Registry
	vehicleLogic *logic.VehicleLogic
	config       *config.Config
}

// NewVehicleStatusJob 创建载体状态任务
func NewVehicleStatusJob(reg *registry.Registry, db *gorm.DB, cfg *config.Config) *VehicleStatusJob {
	return &VehicleStatusJob{
		reg:          reg,
		vehicleLogic: logic.NewVehicleLogic(db),
		config:       cfg,
	}
}

// GetName 获取任务名称
func (j *VehicleStatusJob) GetName() string {
	return "vehicle_status_updater"
}

// GetSchedule 获取调度配置
func (j *VehicleStatusJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Scheduler.Interval) * time.Second)
}

// Execute 执行任务
func (j *VehicleStatusJob) Execute() {
	logger.Debug("Starting vehicle status update task")

	expiredCount := 0
	syncedCount := 0

	for _, v := range j.reg.Vehicles() {
		// 惰性过期：募资中且已过截止区块的载体翻转为Expired
		if v.Status() == vehicle.StatusFunding {
			if v.CheckExpire() {
				expiredCount++
				logger.Info("Vehicle %d expired at block %d", v.ID(), v.Snapshot().EndBlock)
			}
		}

		if err := j.vehicleLogic.SyncFromEngine(v.Snapshot()); err != nil {
			logger.Error("Failed to sync vehicle %d: %v", v.ID(), err)
			continue
		}
		syncedCount++
	}

	if expiredCount > 0 {
		logger.Info("Vehicle status update completed. Expired %d vehicles, synced %d", expiredCount, syncedCount)
	} else {
		logger.Debug("Vehicle status update completed. Synced %d vehicles", syncedCount)
	}
}
