// Package balance 維護每個資產、每個帳戶的 raw 餘額與資產總量。
//
// Credit / Debit 是唯一的餘額修改入口，保證「同一資產所有帳戶餘額加總 == 資產總量」。
// Ledger 不自行加鎖，由上層 Bank 的全域鎖保護。
package balance

import (
	"sort"

	"github.com/holiman/uint256"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/txn"
)

type key struct {
	asset   domain.AssetID
	account domain.Address
}

// Ledger 餘額帳本
type Ledger struct {
	balances map[key]uint256.Int
	totals   map[domain.AssetID]uint256.Int
}

// NewLedger 建立空的 Ledger
func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[key]uint256.Int),
		totals:   make(map[domain.AssetID]uint256.Int),
	}
}

// Credit 增加帳戶餘額與資產總量
//
// 參數:
//
//	tx: 當前操作的 undo log (nil 代表不需還原)
//	asset: 資產 ID
//	account: 帳戶地址
//	amount: raw amount (呼叫端已檢查 > 0)
//
// 回傳:
//
//	*uint256.Int: 新餘額
//	error: 只有 256 bits 溢位時才會失敗
func (l *Ledger) Credit(tx *txn.Tx, asset domain.AssetID, account domain.Address, amount *uint256.Int) (*uint256.Int, error) {
	k := key{asset: asset, account: account}
	bal := l.balances[k]
	total := l.totals[asset]

	var newBal, newTotal uint256.Int
	if _, overflow := newBal.AddOverflow(&bal, amount); overflow {
		return nil, domain.ErrAmountOverflow
	}
	if _, overflow := newTotal.AddOverflow(&total, amount); overflow {
		return nil, domain.ErrAmountOverflow
	}

	l.set(tx, k, newBal, newTotal)
	return new(uint256.Int).Set(&newBal), nil
}

// Debit 扣減帳戶餘額與資產總量
//
// 回傳:
//
//	*uint256.Int: 新餘額
//	error: 餘額不足時回傳 *domain.InsufficientBalanceError
func (l *Ledger) Debit(tx *txn.Tx, asset domain.AssetID, account domain.Address, amount *uint256.Int) (*uint256.Int, error) {
	k := key{asset: asset, account: account}
	bal := l.balances[k]
	if bal.Lt(amount) {
		return nil, &domain.InsufficientBalanceError{
			Available: new(uint256.Int).Set(&bal),
			Requested: new(uint256.Int).Set(amount),
		}
	}
	total := l.totals[asset]

	var newBal, newTotal uint256.Int
	newBal.Sub(&bal, amount)
	// 總量 >= 任一帳戶餘額，不會下溢
	newTotal.Sub(&total, amount)

	l.set(tx, k, newBal, newTotal)
	return new(uint256.Int).Set(&newBal), nil
}

// set 寫入新值並登記還原動作。餘額歸零時刪除 key，避免 map 無限成長
func (l *Ledger) set(tx *txn.Tx, k key, bal, total uint256.Int) {
	prevBal, hadBal := l.balances[k]
	prevTotal, hadTotal := l.totals[k.asset]
	tx.OnRollback(func() {
		if hadBal {
			l.balances[k] = prevBal
		} else {
			delete(l.balances, k)
		}
		if hadTotal {
			l.totals[k.asset] = prevTotal
		} else {
			delete(l.totals, k.asset)
		}
	})

	if bal.IsZero() {
		delete(l.balances, k)
	} else {
		l.balances[k] = bal
	}
	l.totals[k.asset] = total
}

// BalanceOf 查詢帳戶餘額
func (l *Ledger) BalanceOf(asset domain.AssetID, account domain.Address) *uint256.Int {
	bal := l.balances[key{asset: asset, account: account}]
	return new(uint256.Int).Set(&bal)
}

// TotalOf 查詢資產總量
func (l *Ledger) TotalOf(asset domain.AssetID) *uint256.Int {
	total := l.totals[asset]
	return new(uint256.Int).Set(&total)
}

// Holding 單一帳戶持有量
type Holding struct {
	Account domain.Address
	Amount  *uint256.Int
}

// Holders 列出持有該資產的帳戶 (依地址排序)
func (l *Ledger) Holders(asset domain.AssetID) []Holding {
	out := make([]Holding, 0)
	for k, bal := range l.balances {
		if k.asset != asset {
			continue
		}
		out = append(out, Holding{Account: k.account, Amount: new(uint256.Int).Set(&bal)})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Account.Less(out[j].Account)
	})
	return out
}
