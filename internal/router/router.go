package router

import (
	"github.com/blues/exposure/internal/config"
	"github.com/blues/exposure/internal/engine"
	"github.com/blues/exposure/internal/handler"
	"github.com/blues/exposure/internal/registry"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, reg *registry.Registry, ledger *engine.Ledger, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "exposure-engine",
			"height":  ledger.Height(),
		})
	})

	// API版本组
	v1 := r.Group("/api/v1")
	{
		// 载体相关路由
		vehicleHandler := handler.NewVehicleHandler(db, reg)
		vehicles := v1.Group("/vehicles")
		{
			vehicles.POST("", vehicleHandler.CreateVehicle)
			vehicles.GET("", vehicleHandler.GetVehicles)
			vehicles.GET("/stats", vehicleHandler.GetStats)
			vehicles.GET("/:id", vehicleHandler.GetVehicle)
			vehicles.GET("/:id/price", vehicleHandler.GetPrice)
			vehicles.GET("/:id/contributions", vehicleHandler.GetContributions)
			vehicles.GET("/:id/events", vehicleHandler.GetEvents)
			vehicles.POST("/:id/contribute", vehicleHandler.Contribute)
			vehicles.POST("/:id/finalize", vehicleHandler.Finalize)
			vehicles.POST("/:id/buyout", vehicleHandler.Buyout)
			vehicles.POST("/:id/claim", vehicleHandler.Claim)
			vehicles.POST("/:id/withdraw", vehicleHandler.Withdraw)
		}

		// 注册表相关路由
		registryHandler := handler.NewRegistryHandler(reg, ledger)
		registryGroup := v1.Group("/registry")
		{
			registryGroup.GET("", registryHandler.GetRegistry)
			registryGroup.GET("/address", registryHandler.ComputeAddress)
			registryGroup.GET("/accounts/:address", registryHandler.GetAccount)
		}

		// 手续费托管路由
		escrowHandler := handler.NewEscrowHandler(reg, ledger)
		escrowGroup := v1.Group("/escrow")
		{
			escrowGroup.GET("", escrowHandler.GetEscrow)
			escrowGroup.POST("/withdraw", escrowHandler.Withdraw)
		}

		// 治理路由
		adminHandler := handler.NewAdminHandler(reg, ledger)
		admin := v1.Group("/admin")
		{
			admin.POST("/fund", adminHandler.Fund)
			admin.POST("/implementation", adminHandler.SetImplementation)
			admin.POST("/escrow", adminHandler.SetEscrow)
		}

		// 调用数据编码
		v1.POST("/encode", handler.NewEncodeHandler().Encode)
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
