package handler

import (
	"net/http"

	"github.com/blues/exposure/internal/engine"
	"github.com/blues/exposure/internal/registry"
	"github.com/gin-gonic/gin"
)

type EscrowHandler struct {
	reg    *registry.Registry
	ledger *engine.Ledger
}

func NewEscrowHandler(reg *registry.Registry, ledger *engine.Ledger) *EscrowHandler {
	return &EscrowHandler{reg: reg, ledger: ledger}
}

// GetEscrow 托管概览
func (h *EscrowHandler) GetEscrow(c *gin.Context) {
	fe := h.reg.Escrow()
	if fe == nil {
		ErrorResponse(c, http.StatusNotFound, "手续费托管未设置")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"address":   fe.Address().Hex(),
		"recipient": fe.Recipient().Hex(),
		"collected": fe.Collected().String(),
		"balance":   h.ledger.BalanceOf(fe.Address()).String(),
	})
}

// Withdraw 提走全部托管余额
func (h *EscrowHandler) Withdraw(c *gin.Context) {
	fe := h.reg.Escrow()
	if fe == nil {
		ErrorResponse(c, http.StatusNotFound, "手续费托管未设置")
		return
	}
	var req EscrowWithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	caller, err := parseAddress(req.From)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	to, err := parseAddress(req.To)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var amount string
	err = h.ledger.Apply(func(tx *engine.Tx) error {
		swept, err := fe.Withdraw(tx, caller, to)
		if err != nil {
			return err
		}
		amount = swept.String()
		return nil
	})
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "托管提现成功", gin.H{"amount": amount})
}
