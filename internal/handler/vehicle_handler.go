package handler

import (
	"math/big"
	"net/http"
	"strconv"

	"github.com/blues/exposure/internal/logic"
	"github.com/blues/exposure/internal/registry"
	"github.com/blues/exposure/internal/vehicle"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type VehicleHandler struct {
	reg          *registry.Registry
	vehicleLogic *logic.VehicleLogic
	eventLogic   *logic.EventLogic
}

func NewVehicleHandler(db *gorm.DB, reg *registry.Registry) *VehicleHandler {
	return &VehicleHandler{
		reg:          reg,
		vehicleLogic: logic.NewVehicleLogic(db),
		eventLogic:   logic.NewEventLogic(db),
	}
}

// CreateVehicle 创建载体
func (h *VehicleHandler) CreateVehicle(c *gin.Context) {
	var req CreateVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	owner, err := parseAddress(req.Owner)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	goal, err := parseAmount(req.Goal)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	floor, err := parseAmount(req.Floor)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	initialPrice, err := parseAmount(req.InitialBuyoutPrice)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	// 组装批次三元组
	targets := make([]common.Address, len(req.Batch))
	inputs := make([][]byte, len(req.Batch))
	values := make([]*big.Int, len(req.Batch))
	for i, step := range req.Batch {
		target, err := parseAddress(step.Target)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		data, err := parseData(step.Data)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		value, err := parseAmount(step.Value)
		if err != nil {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
		targets[i], inputs[i], values[i] = target, data, value
	}

	v, err := h.reg.CreateVehicle(owner, req.EndBlock, goal, floor, initialPrice,
		targets, inputs, values, req.Name)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "载体创建成功", gin.H{
		"id":      v.ID(),
		"address": v.Address().Hex(),
	})
}

// GetVehicles 获取载体列表
func (h *VehicleHandler) GetVehicles(c *gin.Context) {
	status := c.Query("status")
	owner := c.Query("owner")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	vehicles, total, err := h.vehicleLogic.GetVehicles(status, owner, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vehicles":  vehicles,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetVehicle 获取单个载体详情（引擎实时快照）
func (h *VehicleHandler) GetVehicle(c *gin.Context) {
	v, ok := h.lookupVehicle(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"vehicle": snapshotJSON(v.Snapshot())})
}

// GetPrice 获取当前买断价格
func (h *VehicleHandler) GetPrice(c *gin.Context) {
	v, ok := h.lookupVehicle(c)
	if !ok {
		return
	}
	price, err := v.CurrentPrice()
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"price": price.String()})
}

// Contribute 向载体贡献
func (h *VehicleHandler) Contribute(c *gin.Context) {
	v, ok := h.lookupVehicle(c)
	if !ok {
		return
	}
	var req ContributeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	from, err := parseAddress(req.From)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	beneficiary := from
	if req.Beneficiary != "" {
		if beneficiary, err = parseAddress(req.Beneficiary); err != nil {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
	}
	value, err := parseAmount(req.Value)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	accepted, err := v.Contribute(from, beneficiary, value)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "贡献成功", gin.H{
		"accepted": accepted.String(),
	})
}

// Finalize 执行finalize
func (h *VehicleHandler) Finalize(c *gin.Context) {
	v, ok := h.lookupVehicle(c)
	if !ok {
		return
	}
	var req FinalizeRequest
	_ = c.ShouldBindJSON(&req)
	caller := common.Address{}
	if req.From != "" {
		var err error
		if caller, err = parseAddress(req.From); err != nil {
			ErrorResponse(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	if err := v.Finalize(caller); err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "载体已激活", gin.H{
		"state": string(v.Status()),
	})
}

// Buyout 买断载体持仓
func (h *VehicleHandler) Buyout(c *gin.Context) {
	v, ok := h.lookupVehicle(c)
	if !ok {
		return
	}
	var req BuyoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	buyer, err := parseAddress(req.From)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}
	value, err := parseAmount(req.Value)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	price, err := v.Buyout(buyer, value)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "买断成功", gin.H{
		"price": price.String(),
	})
}

// Claim 领取买断分配
func (h *VehicleHandler) Claim(c *gin.Context) {
	v, ok := h.lookupVehicle(c)
	if !ok {
		return
	}
	account, ok := h.bindAccount(c)
	if !ok {
		return
	}

	payout, err := v.Claim(account)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "领取成功", gin.H{
		"amount": payout.String(),
	})
}

// Withdraw 募资失败后退款
func (h *VehicleHandler) Withdraw(c *gin.Context) {
	v, ok := h.lookupVehicle(c)
	if !ok {
		return
	}
	account, ok := h.bindAccount(c)
	if !ok {
		return
	}

	refund, err := v.Withdraw(account)
	if err != nil {
		EngineErrorResponse(c, err)
		return
	}
	SuccessResponse(c, http.StatusOK, "退款完成", gin.H{
		"amount": refund.String(),
	})
}

// GetContributions 获取载体贡献记录
func (h *VehicleHandler) GetContributions(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的载体ID")
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	contributions, total, err := h.vehicleLogic.GetContributions(id, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contributions": contributions,
		"total":         total,
		"page":          page,
		"page_size":     pageSize,
	})
}

// GetEvents 获取载体事件记录
func (h *VehicleHandler) GetEvents(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的载体ID")
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	events, total, err := h.eventLogic.GetEvents(id, page, pageSize)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"events":    events,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetStats 获取全局统计信息
func (h *VehicleHandler) GetStats(c *gin.Context) {
	stats, err := h.vehicleLogic.GetStats()
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": stats})
}

// lookupVehicle 按路径参数定位引擎内的载体
func (h *VehicleHandler) lookupVehicle(c *gin.Context) (*vehicle.Vehicle, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的载体ID")
		return nil, false
	}
	v, err := h.reg.GetVehicle(id)
	if err != nil {
		EngineErrorResponse(c, err)
		return nil, false
	}
	return v, true
}

// bindAccount 解析claim/withdraw请求中的账户
func (h *VehicleHandler) bindAccount(c *gin.Context) (common.Address, bool) {
	var req AccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return common.Address{}, false
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return common.Address{}, false
	}
	return account, true
}

// snapshotJSON 载体快照的接口表示
func snapshotJSON(info vehicle.Info) gin.H {
	out := gin.H{
		"id":                   info.ID,
		"address":              info.Address.Hex(),
		"owner":                info.Owner.Hex(),
		"name":                 info.Name,
		"status":               string(info.Status),
		"end_block":            info.EndBlock,
		"creation_block":       info.CreationBlock,
		"goal":                 info.Goal.String(),
		"floor":                info.Floor.String(),
		"initial_buyout_price": info.InitialBuyoutPrice.String(),
		"total_raised":         info.TotalRaised.String(),
		"finalize_block":       info.FinalizeBlock,
		"batch_steps":          info.BatchSteps,
		"contributors":         info.Contributors,
	}
	if info.BuyoutPrice != nil {
		out["buyout_price"] = info.BuyoutPrice.String()
		out["buyout_block"] = info.BuyoutBlock
		out["buyer"] = info.Buyer.Hex()
	}
	return out
}
