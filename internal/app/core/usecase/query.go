package usecase

import (
	"context"
	"sort"
	"time"

	"github.com/holiman/uint256"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/balance"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/convert"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/risk"
)

// Allowance 帳戶目前的提款額度
type Allowance struct {
	// MaxWithdrawal 單筆上限，nil 代表不限制
	MaxWithdrawal *uint256.Int
	// DailyLimit 每日上限，nil 代表不限制
	DailyLimit *uint256.Int
	// Spent 目前視窗已花費
	Spent *uint256.Int
	// Remaining 目前視窗剩餘額度，nil 代表不限制
	Remaining   *uint256.Int
	WindowStart time.Time
	ResetsAt    time.Time
}

// Capacity 全域存款上限使用狀況
type Capacity struct {
	// Cap 0 代表不限制
	Cap   *uint256.Int
	Total *uint256.Int
	// Available nil 代表不限制
	Available *uint256.Int
}

// BalanceOf 查詢帳戶在某資產的餘額
func (b *Bank) BalanceOf(ctx context.Context, asset domain.AssetID, account domain.Address) (*uint256.Int, error) {
	unlock, err := b.beginRead(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := b.asset(asset); err != nil {
		return nil, err
	}
	return b.balances.BalanceOf(asset, account), nil
}

// TotalDeposited 查詢某資產所有帳戶餘額的總和 (raw amount)
func (b *Bank) TotalDeposited(ctx context.Context, asset domain.AssetID) (*uint256.Int, error) {
	unlock, err := b.beginRead(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := b.asset(asset); err != nil {
		return nil, err
	}
	return b.balances.TotalOf(asset), nil
}

// Holders 列出某資產所有非零餘額
func (b *Bank) Holders(ctx context.Context, asset domain.AssetID) ([]balance.Holding, error) {
	unlock, err := b.beginRead(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := b.asset(asset); err != nil {
		return nil, err
	}
	return b.balances.Holders(asset), nil
}

// ValueInUSD 以目前價格換算 raw amount 的 USD 值 (6 位小數，無條件捨去)
//
// 參數:
//
//	ctx: 上下文
//	asset: 資產 ID
//	amount: raw amount
//
// 回傳:
//
//	*uint256.Int: USD 值
//	error: ErrAssetNotRegistered / ErrInvalidPrice / ErrStalePrice
func (b *Bank) ValueInUSD(ctx context.Context, asset domain.AssetID, amount *uint256.Int) (*uint256.Int, error) {
	unlock, err := b.beginRead(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	a, err := b.asset(asset)
	if err != nil {
		return nil, err
	}
	price, err := b.oracle.Price(b.mark(ctx), a)
	if err != nil {
		return nil, err
	}
	return convert.ToUSD(orZero(amount), a.Decimals, price)
}

// QuoteDeposit 達成 usd 目標需要送入的 raw amount (無條件進位)
func (b *Bank) QuoteDeposit(ctx context.Context, asset domain.AssetID, usd *uint256.Int) (*uint256.Int, error) {
	unlock, err := b.beginRead(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	a, err := b.asset(asset)
	if err != nil {
		return nil, err
	}
	if err := requirePositive(usd); err != nil {
		return nil, err
	}
	price, err := b.oracle.Price(b.mark(ctx), a)
	if err != nil {
		return nil, err
	}
	return convert.FromUSD(usd, a.Decimals, price)
}

// WithdrawalAllowance 查詢帳戶提款額度，不會建立或重置視窗
func (b *Bank) WithdrawalAllowance(ctx context.Context, account domain.Address) (Allowance, error) {
	unlock, err := b.beginRead(ctx)
	if err != nil {
		return Allowance{}, err
	}
	defer unlock()

	now := b.clock.Now()
	w := b.limiter.Window(account, now)
	start := time.Unix(w.Start, 0).UTC()
	out := Allowance{
		Spent:       new(uint256.Int).Set(&w.Spent),
		Remaining:   b.limiter.Remaining(account, &b.dailyWithdrawal, now),
		WindowStart: start,
		ResetsAt:    start.Add(risk.WindowLength),
	}
	if !b.maxWithdrawal.IsZero() {
		out.MaxWithdrawal = new(uint256.Int).Set(&b.maxWithdrawal)
	}
	if !b.dailyWithdrawal.IsZero() {
		out.DailyLimit = new(uint256.Int).Set(&b.dailyWithdrawal)
	}
	return out, nil
}

// Capacity 查詢全域上限還能存入多少 USD
func (b *Bank) Capacity(ctx context.Context) (Capacity, error) {
	unlock, err := b.beginRead(ctx)
	if err != nil {
		return Capacity{}, err
	}
	defer unlock()

	return Capacity{
		Cap:       b.bankCap.Cap(),
		Total:     b.bankCap.Total(),
		Available: b.bankCap.Available(),
	}, nil
}

// InDoubt 啟動重放時跳過的操作 (外部轉帳結果未知，需要與 custody 對帳)
// 對帳後用相同 RefID 重送即可補上確實已完成的操作
func (b *Bank) InDoubt(ctx context.Context) ([]domain.Operation, error) {
	unlock, err := b.beginRead(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	out := make([]domain.Operation, len(b.inDoubt))
	copy(out, b.inDoubt)
	return out, nil
}

// Asset 查詢資產註冊資訊
func (b *Bank) Asset(ctx context.Context, id domain.AssetID) (domain.Asset, error) {
	unlock, err := b.beginRead(ctx)
	if err != nil {
		return domain.Asset{}, err
	}
	defer unlock()

	return b.asset(id)
}

// Assets 列出所有已註冊資產，原生資產排第一
func (b *Bank) Assets(ctx context.Context) ([]domain.Asset, error) {
	unlock, err := b.beginRead(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	out := make([]domain.Asset, 0, len(b.assets))
	for _, a := range b.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsNative() != out[j].IsNative() {
			return out[i].IsNative()
		}
		return out[i].ID.Less(out[j].ID)
	})
	return out, nil
}

// Contact 查詢單一聯絡人
func (b *Bank) Contact(ctx context.Context, owner, addr domain.Address) (domain.Contact, error) {
	unlock, err := b.beginRead(ctx)
	if err != nil {
		return domain.Contact{}, err
	}
	defer unlock()

	c, ok := b.contacts.Get(owner, addr)
	if !ok {
		return domain.Contact{}, domain.ErrContactNotFound
	}
	return c, nil
}

// Contacts 列出 owner 的所有聯絡人
func (b *Bank) Contacts(ctx context.Context, owner domain.Address) ([]domain.Contact, error) {
	unlock, err := b.beginRead(ctx)
	if err != nil {
		return nil, err
	}
	defer unlock()

	return b.contacts.List(owner), nil
}

// ResolveAlias 以別名查詢聯絡人地址
func (b *Bank) ResolveAlias(ctx context.Context, owner domain.Address, alias string) (domain.Address, error) {
	unlock, err := b.beginRead(ctx)
	if err != nil {
		return domain.ZeroAddress, err
	}
	defer unlock()

	return b.contacts.Resolve(owner, alias)
}
