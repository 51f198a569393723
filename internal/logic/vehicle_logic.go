package logic

import (
	"errors"
	"fmt"

	"github.com/blues/exposure/internal/model"
	"github.com/blues/exposure/internal/vehicle"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// VehicleLogic 载体读模型业务逻辑
type VehicleLogic struct {
	db *gorm.DB
}

// NewVehicleLogic 创建载体业务逻辑
func NewVehicleLogic(db *gorm.DB) *VehicleLogic {
	return &VehicleLogic{db: db}
}

// SyncFromEngine 将引擎内的载体快照同步进读模型
func (l *VehicleLogic) SyncFromEngine(info vehicle.Info) error {
	record := model.Vehicle{
		VehicleID:          info.ID,
		Address:            info.Address.Hex(),
		Owner:              info.Owner.Hex(),
		Name:               info.Name,
		Goal:               info.Goal.String(),
		Floor:              info.Floor.String(),
		InitialBuyoutPrice: info.InitialBuyoutPrice.String(),
		EndBlock:           info.EndBlock,
		Status:             string(info.Status),
		TotalRaised:        info.TotalRaised.String(),
		FinalizeBlock:      info.FinalizeBlock,
		BuyoutBlock:        info.BuyoutBlock,
	}
	if info.BuyoutPrice != nil {
		record.BuyoutPrice = info.BuyoutPrice.String()
		record.Buyer = info.Buyer.Hex()
	}

	// 按vehicle_id幂等写入
	return l.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "vehicle_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "total_raised", "finalize_block",
			"buyout_price", "buyout_block", "buyer", "updated_at",
		}),
	}).Create(&record).Error
}

// GetVehicles 获取载体列表
func (l *VehicleLogic) GetVehicles(status, owner string, page, pageSize int) ([]model.Vehicle, int64, error) {
	query := l.db.Model(&model.Vehicle{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if owner != "" {
		query = query.Where("owner = ?", owner)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计载体数量失败: %w", err)
	}

	var vehicles []model.Vehicle
	offset := (page - 1) * pageSize
	if err := query.Order("vehicle_id ASC").Offset(offset).Limit(pageSize).Find(&vehicles).Error; err != nil {
		return nil, 0, fmt.Errorf("获取载体列表失败: %w", err)
	}

	return vehicles, total, nil
}

// GetVehicle 按全局编号获取载体详情
func (l *VehicleLogic) GetVehicle(vehicleID int64) (*model.Vehicle, error) {
	var record model.Vehicle
	if err := l.db.Where("vehicle_id = ?", vehicleID).First(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("载体不存在")
		}
		return nil, fmt.Errorf("获取载体详情失败: %w", err)
	}
	return &record, nil
}

// GetContributions 获取载体的贡献记录
func (l *VehicleLogic) GetContributions(vehicleID int64, page, pageSize int) ([]model.ContributeRecord, int64, error) {
	query := l.db.Model(&model.ContributeRecord{}).Where("vehicle_id = ?", vehicleID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var records []model.ContributeRecord
	offset := (page - 1) * pageSize
	if err := query.Order("id ASC").Offset(offset).Limit(pageSize).Find(&records).Error; err != nil {
		return nil, 0, fmt.Errorf("获取贡献记录失败: %w", err)
	}

	return records, total, nil
}

// GetPayouts 获取载体的支付记录
func (l *VehicleLogic) GetPayouts(vehicleID int64) ([]model.PayoutRecord, error) {
	var records []model.PayoutRecord
	if err := l.db.Where("vehicle_id = ?", vehicleID).Order("id ASC").Find(&records).Error; err != nil {
		return nil, fmt.Errorf("获取支付记录失败: %w", err)
	}
	return records, nil
}

// GetStats 获取全局统计信息
func (l *VehicleLogic) GetStats() (map[string]interface{}, error) {
	var totalVehicles int64
	l.db.Model(&model.Vehicle{}).Count(&totalVehicles)

	countByStatus := func(status vehicle.Status) int64 {
		var n int64
		l.db.Model(&model.Vehicle{}).Where("status = ?", string(status)).Count(&n)
		return n
	}

	var totalContributors int64
	l.db.Model(&model.ContributeRecord{}).Distinct("beneficiary").Count(&totalContributors)

	return map[string]interface{}{
		"totalVehicles":     totalVehicles,
		"fundingVehicles":   countByStatus(vehicle.StatusFunding),
		"activeVehicles":    countByStatus(vehicle.StatusActive),
		"boughtOutVehicles": countByStatus(vehicle.StatusBoughtOut),
		"expiredVehicles":   countByStatus(vehicle.StatusExpired),
		"totalContributors": totalContributors,
	}, nil
}
