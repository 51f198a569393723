package vehicle

import (
	"math/big"
	"strings"

	"github.com/blues/exposure/internal/batch"
	"github.com/blues/exposure/internal/engine"
	"github.com/blues/exposure/internal/escrow"
	"github.com/ethereum/go-ethereum/common"
)

// Status 载体状态
type Status string

const (
	StatusFunding   Status = "funding"    // 募资中
	StatusActive    Status = "active"     // 策略已执行，持仓中
	StatusBoughtOut Status = "bought_out" // 已被买断，等待领取
	StatusExpired   Status = "expired"    // 募资失败，等待退款
)

// Params 创建载体时固定的经济参数
type Params struct {
	Owner              common.Address
	Name               [32]byte
	EndBlock           uint64
	Goal               *big.Int
	Floor              *big.Int
	InitialBuyoutPrice *big.Int
}

// Config 引擎级经济配置，对所有载体生效
type Config struct {
	FeeBps             uint64 // 协议手续费，万分比
	DecayHorizonBlocks uint64 // 买断价衰减到floor所需区块数
}

// Vehicle 一个募资+持仓实例。贡献者台账、生命周期状态与
// 待执行的调用批次都由它持有，所有变更经由台账事务串行执行。
type Vehicle struct {
	id            int64
	addr          common.Address
	params        Params
	batch         *batch.Batch
	cfg           Config
	ledger        *engine.Ledger
	feeEscrow     *escrow.FeeEscrow
	creationBlock uint64

	status        Status
	contributions map[common.Address]*big.Int
	totalRaised   *big.Int

	// finalize后冻结的份额基数（贡献额快照），claim时逐个清零
	shares        map[common.Address]*big.Int
	finalizeBlock uint64

	// 买断信息
	buyoutPrice   *big.Int
	buyoutBlock   uint64
	buyer         common.Address
	distributable *big.Int // 买断价扣除手续费后的可分配总额
}

// New 创建载体并校验经济约束。调用方（注册表）负责地址分配。
func New(id int64, addr common.Address, params Params, b *batch.Batch,
	cfg Config, l *engine.Ledger, fe *escrow.FeeEscrow) (*Vehicle, error) {

	if params.Goal == nil || params.Goal.Sign() <= 0 {
		return nil, engine.Errf(engine.ReasonInvalidParameters, "goal必须大于0")
	}
	if params.Floor == nil || params.Floor.Sign() <= 0 || params.Floor.Cmp(params.Goal) > 0 {
		return nil, engine.Errf(engine.ReasonInvalidParameters, "必须满足 0 < floor <= goal")
	}
	if params.InitialBuyoutPrice == nil || params.InitialBuyoutPrice.Cmp(params.Goal) < 0 {
		return nil, engine.Errf(engine.ReasonInvalidParameters, "买断起始价不能低于募资目标")
	}
	if params.EndBlock <= l.Height() {
		return nil, engine.Errf(engine.ReasonInvalidParameters,
			"endBlock(%d)必须晚于创建高度(%d)", params.EndBlock, l.Height())
	}
	if b == nil {
		return nil, engine.Errf(engine.ReasonMalformedBatch, "缺少调用批次")
	}

	return &Vehicle{
		id:            id,
		addr:          addr,
		params:        params,
		batch:         b,
		cfg:           cfg,
		ledger:        l,
		feeEscrow:     fe,
		creationBlock: l.Height(),
		status:        StatusFunding,
		contributions: make(map[common.Address]*big.Int),
		totalRaised:   new(big.Int),
	}, nil
}

// Contribute 记入一笔贡献。超出goal的部分被截断，只有已满额时
// 才返回OverGoal；附带价值从from划转，受益人记为beneficiary。
func (v *Vehicle) Contribute(from, beneficiary common.Address, value *big.Int) (*big.Int, error) {
	if value == nil || value.Sign() <= 0 {
		return nil, engine.Errf(engine.ReasonInvalidParameters, "贡献金额必须大于0")
	}

	accepted := new(big.Int)
	err := v.ledger.Apply(func(tx *engine.Tx) error {
		v.lazyExpire(tx)
		if v.status != StatusFunding {
			return engine.Errf(engine.ReasonFundingClosed, "载体状态为%s", v.status)
		}
		if tx.Height() > v.params.EndBlock {
			return engine.Errf(engine.ReasonFundingClosed, "已超过募资截止区块%d", v.params.EndBlock)
		}

		remaining := new(big.Int).Sub(v.params.Goal, v.totalRaised)
		if remaining.Sign() == 0 {
			return engine.Errf(engine.ReasonOverGoal, "募资已满额%s", v.params.Goal.String())
		}

		// 截断到剩余额度，多余部分留在付款方账户
		accepted.Set(value)
		if accepted.Cmp(remaining) > 0 {
			accepted.Set(remaining)
		}
		if err := tx.Transfer(from, v.addr, accepted); err != nil {
			return err
		}
		v.addContribution(tx, beneficiary, accepted)

		tx.Emit(v.addr, engine.EventContributionMade, map[string]string{
			"beneficiary":  beneficiary.Hex(),
			"from":         from.Hex(),
			"amount":       accepted.String(),
			"total_raised": v.totalRaised.String(),
			"state":        string(v.status),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return accepted, nil
}

// Finalize 在募资达标后原子执行调用批次。状态在任何外部分发
// 之前翻转为Active；批次任一步失败则整个事务回滚，载体保持
// Funding且余额不变。成功后冻结份额并向托管划扣协议手续费。
func (v *Vehicle) Finalize(caller common.Address) error {
	return v.ledger.Apply(func(tx *engine.Tx) error {
		v.lazyExpire(tx)
		switch v.status {
		case StatusFunding:
		case StatusExpired:
			return engine.Errf(engine.ReasonNotFunded, "募资已过期")
		default:
			return engine.Errf(engine.ReasonAlreadyFinalized, "载体状态为%s", v.status)
		}
		if v.totalRaised.Cmp(v.params.Goal) < 0 {
			return engine.Errf(engine.ReasonNotFunded,
				"已募集%s，目标%s", v.totalRaised.String(), v.params.Goal.String())
		}

		// 先翻转状态再执行外部调用，批次失败时随事务一起回滚
		v.setStatus(tx, StatusActive)
		prevBlock := v.finalizeBlock
		tx.OnRevert(func() { v.finalizeBlock = prevBlock })
		v.finalizeBlock = tx.Height()
		v.freezeShares(tx)

		if err := v.batch.Execute(tx, v.addr); err != nil {
			return err
		}

		fee := v.skimFee(tx, v.params.Goal)

		tx.Emit(v.addr, engine.EventVehicleFinalized, map[string]string{
			"caller":       caller.Hex(),
			"total_raised": v.totalRaised.String(),
			"fee":          fee.String(),
			"state":        string(StatusActive),
		})
		return nil
	})
}

// Buyout 以不低于当前价格的出价强制买断持仓。只划转当前价格，
// 出价盈余留在买家账户；买断价扣除手续费后留存待领取。
func (v *Vehicle) Buyout(buyer common.Address, value *big.Int) (*big.Int, error) {
	if value == nil || value.Sign() < 0 {
		return nil, engine.Errf(engine.ReasonInvalidParameters, "出价非法")
	}

	price := new(big.Int)
	err := v.ledger.Apply(func(tx *engine.Tx) error {
		v.lazyExpire(tx)
		if v.status != StatusActive {
			return engine.Errf(engine.ReasonAlreadyBoughtOut, "载体状态为%s", v.status)
		}

		price.Set(PriceAt(v.params.InitialBuyoutPrice, v.params.Floor,
			v.finalizeBlock, v.cfg.DecayHorizonBlocks, tx.Height()))
		if value.Cmp(price) < 0 {
			return engine.Errf(engine.ReasonInsufficientPayment,
				"出价%s低于当前价格%s", value.String(), price.String())
		}

		// 状态先行翻转
		v.setStatus(tx, StatusBoughtOut)
		prevPrice, prevBlock, prevBuyer, prevDist := v.buyoutPrice, v.buyoutBlock, v.buyer, v.distributable
		tx.OnRevert(func() {
			v.buyoutPrice, v.buyoutBlock, v.buyer, v.distributable = prevPrice, prevBlock, prevBuyer, prevDist
		})
		v.buyoutPrice = new(big.Int).Set(price)
		v.buyoutBlock = tx.Height()
		v.buyer = buyer

		if err := tx.Transfer(buyer, v.addr, price); err != nil {
			return err
		}
		fee := v.skimFee(tx, price)
		v.distributable = new(big.Int).Sub(price, fee)

		tx.Emit(v.addr, engine.EventVehicleBoughtOut, map[string]string{
			"buyer": buyer.Hex(),
			"price": price.String(),
			"fee":   fee.String(),
			"state": string(StatusBoughtOut),
			"block": new(big.Int).SetUint64(v.buyoutBlock).String(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return price, nil
}

// Claim 买断后按冻结份额领取买断所得，每个账户只能领取一次
func (v *Vehicle) Claim(account common.Address) (*big.Int, error) {
	payout := new(big.Int)
	err := v.ledger.Apply(func(tx *engine.Tx) error {
		if v.status != StatusBoughtOut {
			return engine.Errf(engine.ReasonNothingToClaim, "载体状态为%s", v.status)
		}
		share, ok := v.shares[account]
		if !ok || share.Sign() == 0 {
			return engine.Errf(engine.ReasonNothingToClaim, "账户%s无可领取份额", account.Hex())
		}

		// payout = distributable * contribution / goal，向下取整
		payout.Mul(v.distributable, share)
		payout.Div(payout, v.params.Goal)

		prev := share
		tx.OnRevert(func() { v.shares[account] = prev })
		v.shares[account] = new(big.Int)

		if err := tx.Transfer(v.addr, account, payout); err != nil {
			return err
		}
		tx.Emit(v.addr, engine.EventClaimPaid, map[string]string{
			"account": account.Hex(),
			"amount":  payout.String(),
			"state":   string(v.status),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// Withdraw 募资失败后退回贡献。重复调用退回0，不报错。
func (v *Vehicle) Withdraw(account common.Address) (*big.Int, error) {
	refund := new(big.Int)
	err := v.ledger.Apply(func(tx *engine.Tx) error {
		v.lazyExpire(tx)
		if v.status != StatusExpired {
			return engine.Errf(engine.ReasonNothingToClaim, "载体状态为%s，未进入退款阶段", v.status)
		}
		amount, ok := v.contributions[account]
		if !ok || amount.Sign() == 0 {
			return nil // 无贡献或已退款，按0处理
		}
		refund.Set(amount)

		prev := amount
		prevTotal := new(big.Int).Set(v.totalRaised)
		tx.OnRevert(func() {
			v.contributions[account] = prev
			v.totalRaised = prevTotal
		})
		v.contributions[account] = new(big.Int)
		v.totalRaised = new(big.Int).Sub(v.totalRaised, refund)

		if err := tx.Transfer(v.addr, account, refund); err != nil {
			return err
		}
		tx.Emit(v.addr, engine.EventRefundPaid, map[string]string{
			"account": account.Hex(),
			"amount":  refund.String(),
			"state":   string(v.status),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return refund, nil
}

// CheckExpire 惰性过期检查，由调度任务周期触发。返回是否发生翻转。
func (v *Vehicle) CheckExpire() bool {
	flipped := false
	_ = v.ledger.Apply(func(tx *engine.Tx) error {
		before := v.status
		v.lazyExpire(tx)
		flipped = before == StatusFunding && v.status == StatusExpired
		return nil
	})
	return flipped
}

// CurrentPrice 当前买断价格，仅在Active状态有意义
func (v *Vehicle) CurrentPrice() (*big.Int, error) {
	var price *big.Int
	var err error
	v.ledger.View(func(height uint64) {
		if v.status != StatusActive {
			err = engine.Errf(engine.ReasonAlreadyBoughtOut, "载体状态为%s", v.status)
			return
		}
		price = PriceAt(v.params.InitialBuyoutPrice, v.params.Floor,
			v.finalizeBlock, v.cfg.DecayHorizonBlocks, height)
	})
	return price, err
}

// lazyExpire 在任意状态检查前惰性翻转过期状态。
// 必须在持有台账事务时调用。
func (v *Vehicle) lazyExpire(tx *engine.Tx) {
	if v.status == StatusFunding &&
		tx.Height() > v.params.EndBlock &&
		v.totalRaised.Cmp(v.params.Goal) < 0 {
		v.setStatus(tx, StatusExpired)
		tx.Emit(v.addr, engine.EventVehicleExpired, map[string]string{
			"total_raised": v.totalRaised.String(),
			"goal":         v.params.Goal.String(),
			"state":        string(StatusExpired),
		})
	}
}

// setStatus 带撤销登记的状态翻转
func (v *Vehicle) setStatus(tx *engine.Tx, s Status) {
	prev := v.status
	tx.OnRevert(func() { v.status = prev })
	v.status = s
}

// addContribution 带撤销登记的贡献记账
func (v *Vehicle) addContribution(tx *engine.Tx, beneficiary common.Address, amount *big.Int) {
	prev, had := v.contributions[beneficiary]
	prevTotal := new(big.Int).Set(v.totalRaised)
	tx.OnRevert(func() {
		if had {
			v.contributions[beneficiary] = prev
		} else {
			delete(v.contributions, beneficiary)
		}
		v.totalRaised = prevTotal
	})
	cur := new(big.Int)
	if had {
		cur.Set(prev)
	}
	v.contributions[beneficiary] = cur.Add(cur, amount)
	v.totalRaised = new(big.Int).Add(v.totalRaised, amount)
}

// freezeShares 冻结份额基数：finalize时刻的贡献额快照
func (v *Vehicle) freezeShares(tx *engine.Tx) {
	prev := v.shares
	tx.OnRevert(func() { v.shares = prev })
	v.shares = make(map[common.Address]*big.Int, len(v.contributions))
	for addr, amount := range v.contributions {
		v.shares[addr] = new(big.Int).Set(amount)
	}
}

// skimFee 按万分比费率向托管划扣手续费，上限为载体当前余额
func (v *Vehicle) skimFee(tx *engine.Tx, base *big.Int) *big.Int {
	fee := new(big.Int).Mul(base, new(big.Int).SetUint64(v.cfg.FeeBps))
	fee.Div(fee, big.NewInt(10000))
	if balance := tx.BalanceOf(v.addr); fee.Cmp(balance) > 0 {
		fee.Set(balance)
	}
	if fee.Sign() > 0 && v.feeEscrow != nil {
		// 余额已校验，划扣不会失败
		_ = v.feeEscrow.Receive(tx, v.addr, fee)
	}
	return fee
}

// --- 只读访问 ---

// Info 载体快照，供接口层展示
type Info struct {
	ID                 int64          `json:"id"`
	Address            common.Address `json:"address"`
	Owner              common.Address `json:"owner"`
	Name               string         `json:"name"`
	Status             Status         `json:"status"`
	EndBlock           uint64         `json:"end_block"`
	CreationBlock      uint64         `json:"creation_block"`
	Goal               *big.Int       `json:"goal"`
	Floor              *big.Int       `json:"floor"`
	InitialBuyoutPrice *big.Int       `json:"initial_buyout_price"`
	TotalRaised        *big.Int       `json:"total_raised"`
	FinalizeBlock      uint64         `json:"finalize_block"`
	BuyoutPrice        *big.Int       `json:"buyout_price"`
	BuyoutBlock        uint64         `json:"buyout_block"`
	Buyer              common.Address `json:"buyer"`
	BatchSteps         int            `json:"batch_steps"`
	Contributors       int            `json:"contributors"`
}

// Snapshot 在读锁内取载体快照
func (v *Vehicle) Snapshot() Info {
	var info Info
	v.ledger.View(func(_ uint64) {
		info = Info{
			ID:                 v.id,
			Address:            v.addr,
			Owner:              v.params.Owner,
			Name:               NameString(v.params.Name),
			Status:             v.status,
			EndBlock:           v.params.EndBlock,
			CreationBlock:      v.creationBlock,
			Goal:               new(big.Int).Set(v.params.Goal),
			Floor:              new(big.Int).Set(v.params.Floor),
			InitialBuyoutPrice: new(big.Int).Set(v.params.InitialBuyoutPrice),
			TotalRaised:        new(big.Int).Set(v.totalRaised),
			FinalizeBlock:      v.finalizeBlock,
			BuyoutBlock:        v.buyoutBlock,
			Buyer:              v.buyer,
			BatchSteps:         v.batch.Len(),
			Contributors:       len(v.contributions),
		}
		if v.buyoutPrice != nil {
			info.BuyoutPrice = new(big.Int).Set(v.buyoutPrice)
		}
	})
	return info
}

// ID 全局编号
func (v *Vehicle) ID() int64 { return v.id }

// Address 载体地址
func (v *Vehicle) Address() common.Address { return v.addr }

// Status 当前状态
func (v *Vehicle) Status() Status {
	var s Status
	v.ledger.View(func(_ uint64) { s = v.status })
	return s
}

// ContributionOf 账户的贡献额；finalize后返回冻结份额基数
func (v *Vehicle) ContributionOf(account common.Address) *big.Int {
	out := new(big.Int)
	v.ledger.View(func(_ uint64) {
		source := v.contributions
		if v.shares != nil {
			source = v.shares
		}
		if amount, ok := source[account]; ok {
			out.Set(amount)
		}
	})
	return out
}

// ShareOf 账户的份额比例（展示用）
func (v *Vehicle) ShareOf(account common.Address) float64 {
	contribution := v.ContributionOf(account)
	goal := new(big.Float).SetInt(v.params.Goal)
	ratio, _ := new(big.Float).Quo(new(big.Float).SetInt(contribution), goal).Float64()
	return ratio
}

// FormatName 将名称编码为32字节，超长返回InvalidParameters
func FormatName(name string) ([32]byte, error) {
	var out [32]byte
	if len(name) > 32 {
		return out, engine.Errf(engine.ReasonInvalidParameters, "名称超过32字节: %q", name)
	}
	copy(out[:], name)
	return out, nil
}

// NameString 解码32字节名称，去除尾部填充
func NameString(name [32]byte) string {
	return strings.TrimRight(string(name[:]), "\x00")
}
