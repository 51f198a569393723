package logic

import (
	"fmt"

	"github.com/blues/exposure/internal/model"
	"gorm.io/gorm"
)

// EventLogic 事件记录业务逻辑
type EventLogic struct {
	db *gorm.DB
}

// NewEventLogic 创建事件业务逻辑
func NewEventLogic(db *gorm.DB) *EventLogic {
	return &EventLogic{db: db}
}

// CreateEvent 写入一条事件记录
func (l *EventLogic) CreateEvent(event *model.Event) error {
	if err := l.db.Create(event).Error; err != nil {
		return fmt.Errorf("写入事件记录失败: %w", err)
	}
	return nil
}

// GetEvents 获取载体的事件记录
func (l *EventLogic) GetEvents(vehicleID int64, page, pageSize int) ([]model.Event, int64, error) {
	query := l.db.Model(&model.Event{}).Where("vehicle_id = ?", vehicleID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var events []model.Event
	offset := (page - 1) * pageSize
	if err := query.Order("id ASC").Offset(offset).Limit(pageSize).Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("获取事件记录失败: %w", err)
	}

	return events, total, nil
}

// MarkProcessed 标记事件已处理
func (l *EventLogic) MarkProcessed(id uint) error {
	return l.db.Model(&model.Event{}).Where("id = ?", id).Update("processed", true).Error
}
