package domain

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/holiman/uint256"
)

var (
	// ErrZeroAmount 金額必須大於 0
	ErrZeroAmount = errors.New("amount must be greater than zero")

	// ErrAmountOverflow 金額運算超出 256 bits
	ErrAmountOverflow = errors.New("amount overflow")

	// ErrInvalidAddress 地址格式錯誤
	ErrInvalidAddress = errors.New("invalid address")

	// ErrAssetNotRegistered 資產尚未註冊
	ErrAssetNotRegistered = errors.New("asset not registered")

	// ErrAssetAlreadyRegistered 資產已註冊 (原生資產永遠是已註冊)
	ErrAssetAlreadyRegistered = errors.New("asset already registered")

	// ErrInvalidDecimals 資產精度超出範圍
	ErrInvalidDecimals = errors.New("invalid asset decimals")

	// ErrInvalidFeed 價格來源 handle 為空
	ErrInvalidFeed = errors.New("invalid price feed")

	// ErrInvalidPrice 價格小於等於 0
	ErrInvalidPrice = errors.New("invalid price")

	// ErrStalePrice 價格過期或 round 不一致
	ErrStalePrice = errors.New("stale price")

	// ErrBankCapExceeded 超過全域存款上限
	ErrBankCapExceeded = errors.New("bank cap exceeded")

	// ErrWithdrawLimitExceeded 超過提款額度 (單筆或每日)
	ErrWithdrawLimitExceeded = errors.New("withdraw limit exceeded")

	// ErrLimitExceeded 超過聯絡人轉帳上限
	ErrLimitExceeded = errors.New("contact limit exceeded")

	// ErrSlippageExceeded 實際送入金額與報價差距超過容忍值
	ErrSlippageExceeded = errors.New("slippage exceeded")

	// ErrInsufficientBalance 餘額不足
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidContact 聯絡人地址無效
	ErrInvalidContact = errors.New("invalid contact")

	// ErrInvalidAlias 別名為空
	ErrInvalidAlias = errors.New("invalid alias")

	// ErrContactNotFound 找不到聯絡人
	ErrContactNotFound = errors.New("contact not found")

	// ErrAliasTaken 別名已被其他聯絡人使用
	ErrAliasTaken = errors.New("alias already taken")

	// ErrSameAccount 轉出與轉入為同一帳戶
	ErrSameAccount = errors.New("from and to are the same account")

	// ErrTransferFailed 外部資產轉移失敗
	ErrTransferFailed = errors.New("external transfer failed")

	// ErrOperationsPaused 系統暫停中
	ErrOperationsPaused = errors.New("operations paused")

	// ErrUnauthorized 呼叫者沒有管理權限
	ErrUnauthorized = errors.New("caller is not an admin")

	// ErrReentrantCall 外部協作者在操作進行中回呼帳本
	ErrReentrantCall = errors.New("reentrant call")

	// ErrRefIDConflict RefID 已被內容不同的請求使用
	ErrRefIDConflict = errors.New("ref id already used by a different request")

	// ErrJournalWriteFailed 寫入 journal 失敗
	ErrJournalWriteFailed = errors.New("journal write failed")
)

// InsufficientBalanceError 餘額不足，附帶可用與請求數量
type InsufficientBalanceError struct {
	Available *uint256.Int
	Requested *uint256.Int
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("%s: available %s, requested %s", ErrInsufficientBalance, e.Available.Dec(), e.Requested.Dec())
}

func (e *InsufficientBalanceError) Is(target error) bool { return target == ErrInsufficientBalance }

func (e *InsufficientBalanceError) Reason() string { return "INSUFFICIENT_BALANCE" }

func (e *InsufficientBalanceError) Fields() map[string]string {
	return map[string]string{"available": e.Available.Dec(), "requested": e.Requested.Dec()}
}

// BankCapExceededError 存入後的總額超過上限
type BankCapExceededError struct {
	NewTotal *uint256.Int
	Cap      *uint256.Int
}

func (e *BankCapExceededError) Error() string {
	return fmt.Sprintf("%s: new total %s, cap %s", ErrBankCapExceeded, e.NewTotal.Dec(), e.Cap.Dec())
}

func (e *BankCapExceededError) Is(target error) bool { return target == ErrBankCapExceeded }

func (e *BankCapExceededError) Reason() string { return "BANK_CAP_EXCEEDED" }

func (e *BankCapExceededError) Fields() map[string]string {
	return map[string]string{"new_total": e.NewTotal.Dec(), "cap": e.Cap.Dec()}
}

// WithdrawLimitExceededError 提款額度不足
type WithdrawLimitExceededError struct {
	Requested *uint256.Int
	Remaining *uint256.Int
}

func (e *WithdrawLimitExceededError) Error() string {
	return fmt.Sprintf("%s: requested %s, remaining %s", ErrWithdrawLimitExceeded, e.Requested.Dec(), e.Remaining.Dec())
}

func (e *WithdrawLimitExceededError) Is(target error) bool { return target == ErrWithdrawLimitExceeded }

func (e *WithdrawLimitExceededError) Reason() string { return "WITHDRAW_LIMIT_EXCEEDED" }

func (e *WithdrawLimitExceededError) Fields() map[string]string {
	return map[string]string{"requested": e.Requested.Dec(), "remaining": e.Remaining.Dec()}
}

// LimitExceededError 超過聯絡人單筆上限 (原生資產 raw amount)
type LimitExceededError struct {
	Limit     *uint256.Int
	Requested *uint256.Int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("%s: limit %s, requested %s", ErrLimitExceeded, e.Limit.Dec(), e.Requested.Dec())
}

func (e *LimitExceededError) Is(target error) bool { return target == ErrLimitExceeded }

func (e *LimitExceededError) Reason() string { return "CONTACT_LIMIT_EXCEEDED" }

func (e *LimitExceededError) Fields() map[string]string {
	return map[string]string{"limit": e.Limit.Dec(), "requested": e.Requested.Dec()}
}

// SlippageExceededError USD 目標存款的滑價超過容忍值
type SlippageExceededError struct {
	Quoted       *uint256.Int
	Sent         *uint256.Int
	ToleranceBps uint32
}

func (e *SlippageExceededError) Error() string {
	return fmt.Sprintf("%s: quoted %s, sent %s, tolerance %d bps", ErrSlippageExceeded, e.Quoted.Dec(), e.Sent.Dec(), e.ToleranceBps)
}

func (e *SlippageExceededError) Is(target error) bool { return target == ErrSlippageExceeded }

func (e *SlippageExceededError) Reason() string { return "SLIPPAGE_EXCEEDED" }

func (e *SlippageExceededError) Fields() map[string]string {
	return map[string]string{
		"quoted":        e.Quoted.Dec(),
		"sent":          e.Sent.Dec(),
		"tolerance_bps": strconv.FormatUint(uint64(e.ToleranceBps), 10),
	}
}

// StalePriceError 價格過期
type StalePriceError struct {
	Feed            string
	UpdatedAt       time.Time
	RoundID         uint64
	AnsweredInRound uint64
}

func (e *StalePriceError) Error() string {
	return fmt.Sprintf("%s: feed %q updated at %s, round %d answered in %d",
		ErrStalePrice, e.Feed, e.UpdatedAt.UTC().Format(time.RFC3339), e.RoundID, e.AnsweredInRound)
}

func (e *StalePriceError) Is(target error) bool { return target == ErrStalePrice }

func (e *StalePriceError) Reason() string { return "STALE_PRICE" }

func (e *StalePriceError) Fields() map[string]string {
	return map[string]string{
		"feed":              e.Feed,
		"updated_at":        strconv.FormatInt(e.UpdatedAt.Unix(), 10),
		"round_id":          strconv.FormatUint(e.RoundID, 10),
		"answered_in_round": strconv.FormatUint(e.AnsweredInRound, 10),
	}
}

// DetailedError 帶有數量資訊的錯誤，讓傳輸層可以結構化回傳
type DetailedError interface {
	error
	Reason() string
	Fields() map[string]string
}

var (
	_ DetailedError = (*InsufficientBalanceError)(nil)
	_ DetailedError = (*BankCapExceededError)(nil)
	_ DetailedError = (*WithdrawLimitExceededError)(nil)
	_ DetailedError = (*LimitExceededError)(nil)
	_ DetailedError = (*SlippageExceededError)(nil)
	_ DetailedError = (*StalePriceError)(nil)
)
