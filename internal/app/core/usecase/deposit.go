package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/convert"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/txn"
)

// bpsDenominator 1 bps = 0.01%
const bpsDenominator = 10_000

// DepositRequest 存款請求
type DepositRequest struct {
	RefID   uuid.UUID
	Account domain.Address
	Asset   domain.AssetID
	// Amount 實際送入的 raw amount
	Amount *uint256.Int
	// TargetUSD 以 USD 為目標的存款 (可選)；設定時 Amount 必須落在報價的 SlippageBps 容忍範圍內
	TargetUSD   *uint256.Int
	SlippageBps uint32
}

// Deposit 存款
//
// 流程: 檢查 -> (USD 目標報價檢查) -> 換算 USD -> 全域上限 -> 入帳 -> token 轉入 -> 事件
//
// 參數:
//
//	ctx: 上下文
//	req: 存款請求
//
// 回傳:
//
//	domain.Receipt: 收據 (重複的 RefID 回傳原收據)
//	error: 任何錯誤都不會留下狀態改變
func (b *Bank) Deposit(ctx context.Context, req DepositRequest) (receipt domain.Receipt, err error) {
	start := b.clock.Now()
	defer func() { b.observe("deposit", start, err) }()

	unlock, err := b.begin(ctx, true)
	if err != nil {
		return domain.Receipt{}, err
	}
	defer unlock()

	if r, ok, err := b.processed(req.RefID, domain.OperationTypeDeposit, req.Account, req.Asset, req.Amount); err != nil || ok {
		return r, err
	}

	// 1. validating
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

	// 2. 換算 USD
	price, err := b.oracle.Price(b.mark(ctx), asset)
	if err != nil {
		return domain.Receipt{}, err
	}
	if req.TargetUSD != nil && !req.TargetUSD.IsZero() {
		quoted, err := convert.FromUSD(req.TargetUSD, asset.Decimals, price)
		if err != nil {
			return domain.Receipt{}, err
		}
		if err := checkSlippage(quoted, req.Amount, req.SlippageBps); err != nil {
			return domain.Receipt{}, err
		}
	}
	usd, err := convert.ToUSD(req.Amount, asset.Decimals, price)
	if err != nil {
		return domain.Receipt{}, err
	}

	// 3. admitting / mutating
	tx := txn.New()
	defer tx.Rollback()
	if err := b.bankCap.AdmitIncrease(tx, usd); err != nil {
		return domain.Receipt{}, err
	}
	newBalance, err := b.balances.Credit(tx, asset.ID, req.Account, req.Amount)
	if err != nil {
		return domain.Receipt{}, err
	}

	op := b.newOperation(domain.OperationTypeDeposit, req.RefID)
	op.To = req.Account
	op.Asset = asset.ID
	op.Amount = new(uint256.Int).Set(req.Amount)
	op.USDValue = usd

	// 4. externalizing: 原生資產隨呼叫送達，只有 token 需要 transfer-in
	var external func(context.Context) error
	if !asset.IsNative() {
		external = func(ctx context.Context) error {
			return b.custody.TransferIn(ctx, asset.ID, req.Account, req.Amount)
		}
	}
	if err := b.commit(ctx, tx, op, external); err != nil {
		return domain.Receipt{}, err
	}

	// 5. emitting
	receipt = b.remember(op, req.Account, domain.ZeroAddress, newBalance)
	b.recorder.SetCustodiedUSD(b.bankCap.Total())
	b.publish(ctx, domain.DepositEvent{
		EventMeta:  b.meta(op),
		Asset:      asset.ID,
		Account:    req.Account,
		Amount:     op.Amount,
		NewBalance: newBalance,
		USDValue:   usd,
	})
	return receipt, nil
}

// checkSlippage |sent - quoted| / quoted 不可超過 toleranceBps
func checkSlippage(quoted, sent *uint256.Int, toleranceBps uint32) error {
	diff := new(uint256.Int)
	if sent.Gt(quoted) {
		diff.Sub(sent, quoted)
	} else {
		diff.Sub(quoted, sent)
	}
	lhs, overflowL := new(uint256.Int).MulOverflow(diff, uint256.NewInt(bpsDenominator))
	rhs, overflowR := new(uint256.Int).MulOverflow(quoted, uint256.NewInt(uint64(toleranceBps)))
	exceeded := overflowL || (!overflowR && lhs.Gt(rhs))
	if exceeded {
		return &domain.SlippageExceededError{
			Quoted:       new(uint256.Int).Set(quoted),
			Sent:         new(uint256.Int).Set(sent),
			ToleranceBps: toleranceBps,
		}
	}
	return nil
}
