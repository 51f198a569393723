package scheduler

import (
	"github.com/blues/exposure/internal/config"
	"github.com/blues/exposure/internal/engine"
	"github.com/blues/exposure/internal/logger"
	"github.com/blues/exposure/internal/registry"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// Manager 任务管理器
type Manager struct {
	scheduler gocron.Scheduler
	db        *gorm.DB
	ledger    *engine.Ledger
	reg       *registry.Registry
	config    *config.Config
}

// NewManager 创建新的任务管理器
func NewManager(db *gorm.DB, ledger *engine.Ledger, reg *registry.Registry, cfg *config.Config) *Manager {
	s, err := gocron.NewScheduler()
	if err != nil {
		logger.Fatal("Failed to create scheduler: %v", err)
	}

	return &Manager{
		scheduler: s,
		db:        db,
		ledger:    ledger,
		reg:       reg,
		config:    cfg,
	}
}

// Start 启动任务管理器
func Start(db *gorm.DB, ledger *engine.Ledger, reg *registry.Registry, cfg *config.Config) *Manager {
	manager := NewManager(db, ledger, reg, cfg)

	// 注册所有任务
	manager.RegisterJobs()

	// 启动调度器
	manager.scheduler.Start()

	logger.Info("Task manager started successfully")
	return manager
}

// Job 调度任务接口
type Job interface {
	GetName() string
	GetSchedule() gocron.JobDefinition
	Execute()
}

// RegisterJobs 注册所有任务
func (m *Manager) RegisterJobs() {
	m.registerJob(NewBlockTickerJob(m.ledger, m.config))
	m.registerJob(NewVehicleStatusJob(m.reg, m.db, m.config))
}

// registerJob 注册单个任务
func (m *Manager) registerJob(job Job) {
	_, err := m.scheduler.NewJob(
		job.GetSchedule(),
		gocron.NewTask(job.Execute),
		gocron.WithName(job.GetName()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		logger.Error("Failed to register job %s: %v", job.GetName(), err)
	}
}

// Stop 停止任务管理器
func (m *Manager) Stop() {
	if err := m.scheduler.Shutdown(); err != nil {
		logger.Error("Failed to shutdown scheduler: %v", err)
	}
	logger.Info("Task manager stopped")
}
