package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/txn"
)

// 管理操作: 需要 Policy.HasAdminRole，不受暫停開關影響 (暫停期間仍要能調整設定與解除暫停)

// RegisterToken 註冊 token
//
// 參數:
//
//	ctx: 上下文
//	caller: 呼叫者 (需要管理權限)
//	asset: 資產 ID / 精度 / 價格來源
//
// 回傳:
//
//	error: ErrUnauthorized / ErrAssetAlreadyRegistered (原生資產永遠視為已註冊) / ErrInvalidDecimals / ErrInvalidFeed
func (b *Bank) RegisterToken(ctx context.Context, caller domain.Address, asset domain.Asset) (err error) {
	start := b.clock.Now()
	defer func() { b.observe("register_token", start, err) }()

	unlock, err := b.begin(ctx, false)
	if err != nil {
		return err
	}
	defer unlock()

	if err := b.requireAdmin(caller); err != nil {
		return err
	}
	if _, ok := b.assets[asset.ID]; ok || asset.IsNative() {
		return domain.ErrAssetAlreadyRegistered
	}
	if err := validateAsset(asset); err != nil {
		return err
	}

	tx := txn.New()
	defer tx.Rollback()
	b.putAsset(tx, asset)

	op := b.newOperation(domain.OperationTypeRegisterToken, uuid.Nil)
	op.From = caller
	op.Asset = asset.ID
	op.Decimals = asset.Decimals
	op.Feed = asset.Feed
	if err := b.commit(ctx, tx, op, nil); err != nil {
		return err
	}

	b.logger.Info("token registered",
		zap.String("asset", domain.FormatAddress(asset.ID)),
		zap.Uint8("decimals", asset.Decimals),
		zap.String("feed", asset.Feed))
	b.publish(ctx, domain.TokenRegisteredEvent{
		EventMeta: b.meta(op),
		Asset:     asset.ID,
		Decimals:  asset.Decimals,
		Feed:      asset.Feed,
	})
	return nil
}

// UpdateFeed 更換資產的價格來源 (原生資產也可以更換)
func (b *Bank) UpdateFeed(ctx context.Context, caller domain.Address, id domain.AssetID, feed string) (err error) {
	start := b.clock.Now()
	defer func() { b.observe("update_feed", start, err) }()

	unlock, err := b.begin(ctx, false)
	if err != nil {
		return err
	}
	defer unlock()

	if err := b.requireAdmin(caller); err != nil {
		return err
	}
	asset, err := b.asset(id)
	if err != nil {
		return err
	}
	if feed == "" {
		return domain.ErrInvalidFeed
	}

	tx := txn.New()
	defer tx.Rollback()
	asset.Feed = feed
	b.putAsset(tx, asset)

	op := b.newOperation(domain.OperationTypeUpdateFeed, uuid.Nil)
	op.From = caller
	op.Asset = id
	op.Feed = feed
	if err := b.commit(ctx, tx, op, nil); err != nil {
		return err
	}

	b.publish(ctx, domain.FeedUpdatedEvent{
		EventMeta: b.meta(op),
		Asset:     id,
		Feed:      feed,
	})
	return nil
}

// SetBankCap 設定全域 USD 上限，0 代表不限制
func (b *Bank) SetBankCap(ctx context.Context, caller domain.Address, newCap *uint256.Int) (err error) {
	start := b.clock.Now()
	defer func() { b.observe("set_bank_cap", start, err) }()

	unlock, err := b.begin(ctx, false)
	if err != nil {
		return err
	}
	defer unlock()

	if err := b.requireAdmin(caller); err != nil {
		return err
	}
	newCap = orZero(newCap)

	tx := txn.New()
	defer tx.Rollback()
	b.bankCap.SetCap(tx, newCap)

	op := b.newOperation(domain.OperationTypeSetBankCap, uuid.Nil)
	op.From = caller
	op.Cap = newCap
	if err := b.commit(ctx, tx, op, nil); err != nil {
		return err
	}

	b.publish(ctx, domain.BankCapUpdatedEvent{EventMeta: b.meta(op), Cap: newCap})
	return nil
}

// SetWithdrawalLimits 設定單筆與每日提款 USD 上限，0 代表不限制
//
// 調整每日額度不會清除今天已花費的部分。
func (b *Bank) SetWithdrawalLimits(ctx context.Context, caller domain.Address, maxWithdrawal, daily *uint256.Int) (err error) {
	start := b.clock.Now()
	defer func() { b.observe("set_withdrawal_limits", start, err) }()

	unlock, err := b.begin(ctx, false)
	if err != nil {
		return err
	}
	defer unlock()

	if err := b.requireAdmin(caller); err != nil {
		return err
	}
	maxWithdrawal, daily = orZero(maxWithdrawal), orZero(daily)

	tx := txn.New()
	defer tx.Rollback()
	prevMax, prevDaily := b.maxWithdrawal, b.dailyWithdrawal
	tx.OnRollback(func() {
		b.maxWithdrawal, b.dailyWithdrawal = prevMax, prevDaily
	})
	b.maxWithdrawal.Set(maxWithdrawal)
	b.dailyWithdrawal.Set(daily)

	op := b.newOperation(domain.OperationTypeSetWithdrawalLimits, uuid.Nil)
	op.From = caller
	op.MaxWithdrawal = maxWithdrawal
	op.DailyWithdrawal = daily
	if err := b.commit(ctx, tx, op, nil); err != nil {
		return err
	}

	b.publish(ctx, domain.WithdrawalLimitsUpdatedEvent{
		EventMeta:       b.meta(op),
		MaxWithdrawal:   maxWithdrawal,
		DailyWithdrawal: daily,
	})
	return nil
}

// Pause 暫停所有會移動餘額或修改聯絡人的操作
func (b *Bank) Pause(ctx context.Context, caller domain.Address) error {
	return b.setPaused(ctx, caller, true)
}

// Unpause 解除暫停
func (b *Bank) Unpause(ctx context.Context, caller domain.Address) error {
	return b.setPaused(ctx, caller, false)
}

// setPaused 暫停狀態屬於 Policy，不寫入 journal
func (b *Bank) setPaused(ctx context.Context, caller domain.Address, paused bool) (err error) {
	name := "unpause"
	if paused {
		name = "pause"
	}
	start := b.clock.Now()
	defer func() { b.observe(name, start, err) }()

	unlock, err := b.begin(ctx, false)
	if err != nil {
		return err
	}
	defer unlock()

	if err := b.requireAdmin(caller); err != nil {
		return err
	}
	b.policy.SetPaused(paused)
	b.logger.Info("pause flag changed", zap.Bool("paused", paused), zap.String("by", domain.FormatAddress(caller)))

	meta := domain.EventMeta{Sequence: b.seq, At: b.clock.Now().UTC()}
	if paused {
		b.publish(ctx, domain.PausedEvent{EventMeta: meta, By: caller})
	} else {
		b.publish(ctx, domain.UnpausedEvent{EventMeta: meta, By: caller})
	}
	return nil
}

func (b *Bank) putAsset(tx *txn.Tx, asset domain.Asset) {
	prev, existed := b.assets[asset.ID]
	tx.OnRollback(func() {
		if existed {
			b.assets[asset.ID] = prev
		} else {
			delete(b.assets, asset.ID)
		}
	})
	b.assets[asset.ID] = asset
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(v)
}
