// Package risk 實作全域存款上限與每日提款額度兩種風控。
// 與 balance.Ledger 一樣不自行加鎖。
package risk

import (
	"github.com/holiman/uint256"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/txn"
)

// CapEnforcer 追蹤所有資產存入的 USD 累計值，拒絕會超過上限的存款
//
// 累計值是交易當下的市價估算，不是即時公允價值，所以減少時下限為 0 而不報錯。
type CapEnforcer struct {
	cap   uint256.Int
	total uint256.Int
}

// NewCapEnforcer 建立 CapEnforcer；cap 為 0 代表不限制
func NewCapEnforcer(cap *uint256.Int) *CapEnforcer {
	c := &CapEnforcer{}
	if cap != nil {
		c.cap.Set(cap)
	}
	return c
}

// AdmitIncrease 檢查並累加 USD 值
//
// 參數:
//
//	tx: undo log
//	usd: 本次存款的 USD 值
//
// 回傳:
//
//	error: 新累計值 > 上限時回傳 *domain.BankCapExceededError (等於上限可通過)
func (c *CapEnforcer) AdmitIncrease(tx *txn.Tx, usd *uint256.Int) error {
	var newTotal uint256.Int
	if _, overflow := newTotal.AddOverflow(&c.total, usd); overflow {
		return domain.ErrAmountOverflow
	}
	if !c.cap.IsZero() && newTotal.Gt(&c.cap) {
		return &domain.BankCapExceededError{
			NewTotal: new(uint256.Int).Set(&newTotal),
			Cap:      new(uint256.Int).Set(&c.cap),
		}
	}
	c.setTotal(tx, newTotal)
	return nil
}

// ForceIncrease 不檢查上限直接累加，只給 journal 重放使用
func (c *CapEnforcer) ForceIncrease(usd *uint256.Int) {
	var newTotal uint256.Int
	if _, overflow := newTotal.AddOverflow(&c.total, usd); overflow {
		newTotal.SetAllOne()
	}
	c.total = newTotal
}

// ApplyDecrease 扣減 USD 累計值，最低為 0
func (c *CapEnforcer) ApplyDecrease(tx *txn.Tx, usd *uint256.Int) {
	var newTotal uint256.Int
	if c.total.Gt(usd) {
		newTotal.Sub(&c.total, usd)
	}
	c.setTotal(tx, newTotal)
}

func (c *CapEnforcer) setTotal(tx *txn.Tx, total uint256.Int) {
	prev := c.total
	tx.OnRollback(func() { c.total = prev })
	c.total = total
}

// SetCap 更新上限。已超過新上限的累計值不受影響，只會擋下之後的存款
func (c *CapEnforcer) SetCap(tx *txn.Tx, cap *uint256.Int) {
	prev := c.cap
	tx.OnRollback(func() { c.cap = prev })
	c.cap.Set(cap)
}

// Cap 目前上限
func (c *CapEnforcer) Cap() *uint256.Int {
	return new(uint256.Int).Set(&c.cap)
}

// Total 目前累計值
func (c *CapEnforcer) Total() *uint256.Int {
	return new(uint256.Int).Set(&c.total)
}

// Available 還能存入的 USD 值；不限制時回傳 nil
func (c *CapEnforcer) Available() *uint256.Int {
	if c.cap.IsZero() {
		return nil
	}
	if c.total.Gt(&c.cap) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(&c.cap, &c.total)
}
