package handler

import (
	"net/http"

	"github.com/blues/exposure/internal/engine"
	"github.com/blues/exposure/internal/escrow"
	"github.com/blues/exposure/internal/registry"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	reg    *registry.Registry
	ledger *engine.Ledger
}

func NewAdminHandler(reg *registry.Registry, ledger *engine.Ledger) *AdminHandler {
	return &AdminHandler{reg: reg, ledger: ledger}
}

// Fund 水龙头注资，仅治理账户可调用
func (h *AdminHandler) Fund(c *gin.Context) {
	var req FundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	caller, err := parseAddress(req.From)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	target, err := parseAddress(req.Address)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	err = h.ledger.Apply(func(tx *engine.Tx) error {
		if caller != h.reg.Governance() {
			return engine.Errf(engine.ReasonUnauthorized, "只有治理账户可以注资")
		}
		if err := tx.Mint(target, amount); err != nil {
			return err
		}
		tx.Emit(target, engine.EventAccountFunded, map[string]string{
			"amount": amount.String(),
		})
		return nil
	})
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "注资成功", gin.H{
		"address": target.Hex(),
		"balance": h.ledger.BalanceOf(target).String(),
	})
}

// SetImplementation 轮换实现模板，只影响后续部署
func (h *AdminHandler) SetImplementation(c *gin.Context) {
	var req SetImplementationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	caller, err := parseAddress(req.From)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	template, err := parseAddress(req.Address)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.reg.SetImplementation(caller, template); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "实现模板已更新", gin.H{
		"implementation": template.Hex(),
	})
}

// SetEscrow 设置手续费托管，一次性操作
func (h *AdminHandler) SetEscrow(c *gin.Context) {
	var req SetEscrowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	caller, err := parseAddress(req.From)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	recipient, err := parseAddress(req.Recipient)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	fe := escrow.New(engine.NamedAddress("exposure/fee-escrow"), recipient)
	if err := h.reg.SetEscrow(caller, fe); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "手续费托管已设置", gin.H{
		"escrow":    fe.Address().Hex(),
		"recipient": recipient.Hex(),
	})
}
