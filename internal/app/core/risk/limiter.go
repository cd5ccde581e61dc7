package risk

import (
	"time"

	"github.com/holiman/uint256"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/txn"
)

// WindowLength 額度視窗長度 (固定 UTC 日)
const WindowLength = 24 * time.Hour

// Window 單一帳戶的提款額度視窗
type Window struct {
	// Start 視窗開始時間 (unix 秒，對齊 UTC 午夜)
	Start int64
	Spent uint256.Int
}

// WindowStart 計算 now 所屬視窗的開始時間
func WindowStart(now time.Time) int64 {
	secs := int64(WindowLength / time.Second)
	return now.Unix() / secs * secs
}

// WithdrawalRateLimiter 每個帳戶每個 UTC 日的 USD 提款額度
//
// 採固定日界而非滾動 24 小時：午夜前後各花滿一次額度是允許的。
type WithdrawalRateLimiter struct {
	windows map[domain.Address]Window
}

// NewWithdrawalRateLimiter 建立空的 limiter，視窗在第一次提款時才建立
func NewWithdrawalRateLimiter() *WithdrawalRateLimiter {
	return &WithdrawalRateLimiter{windows: make(map[domain.Address]Window)}
}

// current 取得帳戶在 now 的有效視窗 (過期則視為新的一天，已花費歸零)
func (l *WithdrawalRateLimiter) current(account domain.Address, now time.Time) Window {
	start := WindowStart(now)
	w, ok := l.windows[account]
	if !ok || w.Start != start {
		return Window{Start: start}
	}
	return w
}

// AdmitAndConsume 檢查並扣用額度
//
// 參數:
//
//	tx: undo log
//	account: 提款帳戶
//	usd: 本次提款 USD 值
//	limit: 每日額度，0 代表不限制
//	now: 呼叫當下時間
//
// 回傳:
//
//	error: 超過剩餘額度時回傳 *domain.WithdrawLimitExceededError
func (l *WithdrawalRateLimiter) AdmitAndConsume(tx *txn.Tx, account domain.Address, usd, limit *uint256.Int, now time.Time) error {
	if limit == nil || limit.IsZero() {
		return nil
	}
	w := l.current(account, now)

	var spent uint256.Int
	_, overflow := spent.AddOverflow(&w.Spent, usd)
	if overflow || spent.Gt(limit) {
		return &domain.WithdrawLimitExceededError{
			Requested: new(uint256.Int).Set(usd),
			Remaining: remaining(w, limit),
		}
	}
	w.Spent = spent
	l.set(tx, account, w)
	return nil
}

// ForceConsume 不檢查額度直接累加，只給 journal 重放使用
func (l *WithdrawalRateLimiter) ForceConsume(account domain.Address, usd *uint256.Int, now time.Time) {
	w := l.current(account, now)
	if _, overflow := w.Spent.AddOverflow(&w.Spent, usd); overflow {
		w.Spent.SetAllOne()
	}
	l.windows[account] = w
}

func (l *WithdrawalRateLimiter) set(tx *txn.Tx, account domain.Address, w Window) {
	prev, existed := l.windows[account]
	tx.OnRollback(func() {
		if existed {
			l.windows[account] = prev
		} else {
			delete(l.windows, account)
		}
	})
	l.windows[account] = w
}

// Remaining 查詢剩餘額度 (不修改狀態)；limit 為 0 時回傳 nil 代表不限制
func (l *WithdrawalRateLimiter) Remaining(account domain.Address, limit *uint256.Int, now time.Time) *uint256.Int {
	if limit == nil || limit.IsZero() {
		return nil
	}
	return remaining(l.current(account, now), limit)
}

// Window 查詢帳戶在 now 的有效視窗 (不修改狀態)
func (l *WithdrawalRateLimiter) Window(account domain.Address, now time.Time) Window {
	return l.current(account, now)
}

func remaining(w Window, limit *uint256.Int) *uint256.Int {
	if w.Spent.Gt(limit) {
		return new(uint256.Int)
	}
	return new(uint256.Int).Sub(limit, &w.Spent)
}
