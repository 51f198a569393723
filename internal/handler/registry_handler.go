package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/exposure/internal/engine"
	"github.com/blues/exposure/internal/registry"
	"github.com/gin-gonic/gin"
)

type RegistryHandler struct {
	reg    *registry.Registry
	ledger *engine.Ledger
}

func NewRegistryHandler(reg *registry.Registry, ledger *engine.Ledger) *RegistryHandler {
	return &RegistryHandler{reg: reg, ledger: ledger}
}

// GetRegistry 注册表概览
func (h *RegistryHandler) GetRegistry(c *gin.Context) {
	escrowAddr := ""
	if fe := h.reg.Escrow(); fe != nil {
		escrowAddr = fe.Address().Hex()
	}
	c.JSON(http.StatusOK, gin.H{
		"address":        h.reg.Address().Hex(),
		"governance":     h.reg.Governance().Hex(),
		"implementation": h.reg.Implementation().Hex(),
		"escrow":         escrowAddr,
		"vehicle_count":  h.reg.VehicleCount(),
		"height":         h.ledger.Height(),
	})
}

// ComputeAddress 预计算未来载体地址（纯读）。
// 调用方在提交创建前用它把自己的地址写进批次参数。
func (h *RegistryHandler) ComputeAddress(c *gin.Context) {
	account, err := parseAddress(c.Query("account"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	nonceStr := c.DefaultQuery("nonce", "")
	var nonce uint64
	if nonceStr == "" {
		nonce = h.reg.AccountVehicles(account)
	} else {
		if nonce, err = strconv.ParseUint(nonceStr, 10, 64); err != nil {
			ErrorResponse(c, http.StatusBadRequest, "无效的nonce")
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"account": account.Hex(),
		"nonce":   nonce,
		"address": h.reg.ComputeVehicleAddress(account, nonce).Hex(),
	})
}

// GetAccount 账户的部署计数与余额
func (h *RegistryHandler) GetAccount(c *gin.Context) {
	account, err := parseAddress(c.Param("address"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address": account.Hex(),
		"nonce":   h.reg.AccountVehicles(account),
		"balance": h.ledger.BalanceOf(account).String(),
	})
}
