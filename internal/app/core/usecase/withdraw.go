package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/convert"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/txn"
)

// WithdrawRequest 提款請求
type WithdrawRequest struct {
	RefID   uuid.UUID
	Account domain.Address
	Asset   domain.AssetID
	Amount  *uint256.Int
}

// Withdraw 提款
//
// 流程: 檢查 -> 換算 USD -> 單筆上限 -> 每日額度 -> 扣款 -> 全域累計扣減 -> 轉出 -> 事件
// 轉出失敗時整筆操作 (含額度扣用) 一起還原。
func (b *Bank) Withdraw(ctx context.Context, req WithdrawRequest) (receipt domain.Receipt, err error) {
	start := b.clock.Now()
	defer func() { b.observe("withdraw", start, err) }()

	unlock, err := b.begin(ctx, true)
	if err != nil {
		return domain.Receipt{}, err
	}
	defer unlock()

	if r, ok, err := b.processed(req.RefID, domain.OperationTypeWithdraw, req.Account, req.Asset, req.Amount); err != nil || ok {
		return r, err
	}

	if err := requirePositive(req.Amount); err != nil {
		return domain.Receipt{}, err
	}
	if err := requireAccount(req.Account); err != nil {
		return domain.Receipt{}, err
	}
	asset, err := b.asset(req.Asset)
	if err != nil {
		return domain.Receipt{}, err
	}

	price, err := b.oracle.Price(b.mark(ctx), asset)
	if err != nil {
		return domain.Receipt{}, err
	}
	usd, err := convert.ToUSD(req.Amount, asset.Decimals, price)
	if err != nil {
		return domain.Receipt{}, err
	}

	if !b.maxWithdrawal.IsZero() && usd.Gt(&b.maxWithdrawal) {
		return domain.Receipt{}, &domain.WithdrawLimitExceededError{
			Requested: usd,
			Remaining: new(uint256.Int).Set(&b.maxWithdrawal),
		}
	}

	tx := txn.New()
	defer tx.Rollback()
	now := b.clock.Now()
	if err := b.limiter.AdmitAndConsume(tx, req.Account, usd, &b.dailyWithdrawal, now); err != nil {
		return domain.Receipt{}, err
	}
	newBalance, err := b.balances.Debit(tx, asset.ID, req.Account, req.Amount)
	if err != nil {
		return domain.Receipt{}, err
	}
	b.bankCap.ApplyDecrease(tx, usd)

	op := b.newOperation(domain.OperationTypeWithdraw, req.RefID)
	op.From = req.Account
	op.Asset = asset.ID
	op.Amount = new(uint256.Int).Set(req.Amount)
	op.USDValue = usd
	// 記下當時的每日額度，重放時才知道要不要扣用視窗
	if !b.dailyWithdrawal.IsZero() {
		op.DailyWithdrawal = new(uint256.Int).Set(&b.dailyWithdrawal)
	}

	external := func(ctx context.Context) error {
		return b.custody.TransferOut(ctx, asset.ID, req.Account, req.Amount)
	}
	if err := b.commit(ctx, tx, op, external); err != nil {
		return domain.Receipt{}, err
	}

	receipt = b.remember(op, req.Account, domain.ZeroAddress, newBalance)
	b.recorder.SetCustodiedUSD(b.bankCap.Total())
	b.publish(ctx, domain.WithdrawalEvent{
		EventMeta:  b.meta(op),
		Asset:      asset.ID,
		Account:    req.Account,
		Amount:     op.Amount,
		NewBalance: newBalance,
		USDValue:   usd,
	})
	return receipt, nil
}
