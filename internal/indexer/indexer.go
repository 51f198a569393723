package indexer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/blues/exposure/internal/engine"
	"github.com/blues/exposure/internal/logger"
	"github.com/blues/exposure/internal/logic"
	"github.com/blues/exposure/internal/model"
	"github.com/blues/exposure/internal/registry"
	"github.com/ethereum/go-ethereum/common"
	"github.com/panjf2000/ants/v2"
	"gorm.io/gorm"
)

// Indexer 台账事件索引器：消费引擎提交后的事件流，把状态转换
// 落入关系库读模型，供查询接口与链下消费方使用。
type Indexer struct {
	events   <-chan engine.Event
	reg      *registry.Registry
	vehicles *logic.VehicleLogic
	eventLog *logic.EventLogic
	db       *gorm.DB
	ctx      context.Context
	cancel   context.CancelFunc
}

// New 创建索引器
func New(events <-chan engine.Event, reg *registry.Registry, db *gorm.DB) *Indexer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Indexer{
		events:   events,
		reg:      reg,
		vehicles: logic.NewVehicleLogic(db),
		eventLog: logic.NewEventLogic(db),
		db:       db,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start 启动索引循环
func (ix *Indexer) Start() {
	logger.Info("Starting ledger event indexer")
	go ix.loop()
}

// Stop 停止索引循环
func (ix *Indexer) Stop() {
	logger.Info("Stopping ledger event indexer")
	ix.cancel()
}

// loop 批量吸取事件后按来源地址分组并发处理
func (ix *Indexer) loop() {
	for {
		select {
		case <-ix.ctx.Done():
			logger.Info("Indexer stopped")
			return
		case first := <-ix.events:
			batch := ix.drain(first)
			ix.processBatch(batch)
		}
	}
}

// drain 拿到第一条事件后短暂聚批，减少落库往返
func (ix *Indexer) drain(first engine.Event) []engine.Event {
	batch := []engine.Event{first}
	timeout := time.After(time.Millisecond * 50)
	for {
		select {
		case e := <-ix.events:
			batch = append(batch, e)
			if len(batch) >= 256 {
				return batch
			}
		case <-timeout:
			return batch
		}
	}
}

// processBatch 按来源地址分组，使用临时协程池并发处理各组。
// 同一载体的事件保持原始顺序，不同载体之间互不阻塞。
func (ix *Indexer) processBatch(batch []engine.Event) {
	groups := ix.groupByAddress(batch)
	groupCount := len(groups)
	if groupCount == 0 {
		return
	}

	tempPool, err := ants.NewPool(groupCount)
	if err != nil {
		logger.Error("Failed to create temporary pool for %d groups: %v", groupCount, err)
		return
	}
	defer tempPool.Release()

	for addr, events := range groups {
		addr, events := addr, events
		if err := tempPool.Submit(func() {
			ix.processAddressEvents(addr, events)
		}); err != nil {
			logger.Error("Failed to submit indexing task: %v", err)
		}
	}
}

// groupByAddress 按事件来源地址分组
func (ix *Indexer) groupByAddress(batch []engine.Event) map[common.Address][]engine.Event {
	groups := make(map[common.Address][]engine.Event)
	for _, e := range batch {
		groups[e.Address] = append(groups[e.Address], e)
	}
	return groups
}

// processAddressEvents 处理单个地址的事件序列
func (ix *Indexer) processAddressEvents(addr common.Address, events []engine.Event) {
	vehicleID := int64(-1)
	v, err := ix.reg.GetVehicleByAddress(addr)
	if err == nil {
		vehicleID = v.ID()
	}

	for _, e := range events {
		if err := ix.persistEvent(vehicleID, e); err != nil {
			logger.Error("Failed to persist event %s for %s: %v", e.Name, addr.Hex(), err)
			continue
		}
	}

	// 该地址是载体时，事件序列处理完后同步一次读模型
	if v != nil {
		if err := ix.vehicles.SyncFromEngine(v.Snapshot()); err != nil {
			logger.Error("Failed to sync vehicle %d read model: %v", vehicleID, err)
		}
	}
}

// persistEvent 落库单条事件及其派生记录
func (ix *Indexer) persistEvent(vehicleID int64, e engine.Event) error {
	data, err := json.Marshal(e.Attrs)
	if err != nil {
		return err
	}

	record := &model.Event{
		VehicleID: vehicleID,
		Address:   e.Address.Hex(),
		EventType: e.Name,
		BlockNum:  e.BlockNum,
		Data:      string(data),
		Processed: true,
	}
	if err := ix.eventLog.CreateEvent(record); err != nil {
		return err
	}

	switch e.Name {
	case engine.EventContributionMade:
		return ix.db.Create(&model.ContributeRecord{
			VehicleID:   vehicleID,
			Beneficiary: e.Attrs["beneficiary"],
			From:        e.Attrs["from"],
			Amount:      e.Attrs["amount"],
			BlockNum:    e.BlockNum,
		}).Error

	case engine.EventClaimPaid:
		return ix.db.Create(&model.PayoutRecord{
			VehicleID: vehicleID,
			Account:   e.Attrs["account"],
			Amount:    e.Attrs["amount"],
			Kind:      string(model.PayoutKindClaim),
			BlockNum:  e.BlockNum,
		}).Error

	case engine.EventRefundPaid:
		return ix.db.Create(&model.PayoutRecord{
			VehicleID: vehicleID,
			Account:   e.Attrs["account"],
			Amount:    e.Attrs["amount"],
			Kind:      string(model.PayoutKindRefund),
			BlockNum:  e.BlockNum,
		}).Error
	}

	return nil
}
