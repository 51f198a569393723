package main

import (
	"github.com/blues/exposure/internal/config"
	"github.com/blues/exposure/internal/database"
	"github.com/blues/exposure/internal/engine"
	"github.com/blues/exposure/internal/escrow"
	"github.com/blues/exposure/internal/indexer"
	"github.com/blues/exposure/internal/logger"
	"github.com/blues/exposure/internal/registry"
	"github.com/blues/exposure/internal/router"
	"github.com/blues/exposure/internal/scheduler"
	"github.com/blues/exposure/internal/vehicle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化日志
	if cfg.Log.Output == "file" {
		fileLogger, err := logger.NewWithFileRotation(logger.ParseLogLevel(cfg.Log.Level), cfg.Log.File)
		if err != nil {
			logger.Fatal("Failed to initialize file logger: %v", err)
		}
		logger.SetDefaultLogger(fileLogger)
	}

	// 初始化数据库
	db, err := database.Init(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}

	// 初始化台账与注册表
	ledger := engine.NewLedger(cfg.Chain.StartBlock)
	governance := common.HexToAddress(cfg.Chain.Governance)
	reg := registry.New(engine.NamedAddress("exposure/registry"), governance, ledger, vehicle.Config{
		FeeBps:             cfg.Chain.FeeBps,
		DecayHorizonBlocks: cfg.Chain.DecayHorizonBlocks,
	})

	// 部署前置：实现模板与手续费托管
	if err := reg.SetImplementation(governance, common.HexToAddress(cfg.Chain.Implementation)); err != nil {
		logger.Fatal("Failed to set implementation template: %v", err)
	}
	fe := escrow.New(engine.NamedAddress("exposure/fee-escrow"), common.HexToAddress(cfg.Chain.FeeRecipient))
	if err := reg.SetEscrow(governance, fe); err != nil {
		logger.Fatal("Failed to set fee escrow: %v", err)
	}

	// 启动事件索引器
	ix := indexer.New(ledger.Subscribe(1024), reg, db)
	ix.Start()
	defer ix.Stop()

	// 设置Gin模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	// 初始化路由
	r := router.Setup(db, reg, ledger, cfg)

	// 启动定时任务
	manager := scheduler.Start(db, ledger, reg, cfg)
	defer manager.Stop()

	// 启动服务器
	logger.Info("Server starting on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("Failed to start server: %v", err)
	}
}
