package domain

import (
	"github.com/google/uuid"
	"github.com/holiman/uint256"
)

// OperationType 操作類型
// 為了節省 journal 空間，使用 uint8
type OperationType uint8

const (
	// 存款
	OperationTypeDeposit OperationType = 1
	// 提款
	OperationTypeWithdraw OperationType = 2
	// 內部轉帳
	OperationTypeTransfer OperationType = 3
	// 設定聯絡人
	OperationTypeContactSet OperationType = 4
	// 移除聯絡人
	OperationTypeContactRemove OperationType = 5
	// 更新聯絡人上限
	OperationTypeContactLimit OperationType = 6
	// 註冊 token
	OperationTypeRegisterToken OperationType = 7
	// 更新價格來源
	OperationTypeUpdateFeed OperationType = 8
	// 設定全域上限
	OperationTypeSetBankCap OperationType = 9
	// 設定提款額度
	OperationTypeSetWithdrawalLimits OperationType = 10
	// 撤銷: 外部轉帳失敗後標記先前寫入的操作無效
	OperationTypeAbort OperationType = 11
	// 確認: 外部轉帳成功後標記先前寫入的操作生效
	OperationTypeCommit OperationType = 12
)

var operationTypeNames = map[OperationType]string{
	OperationTypeDeposit:             "deposit",
	OperationTypeWithdraw:            "withdraw",
	OperationTypeTransfer:            "transfer",
	OperationTypeContactSet:          "contact_set",
	OperationTypeContactRemove:       "contact_remove",
	OperationTypeContactLimit:        "contact_limit",
	OperationTypeRegisterToken:       "register_token",
	OperationTypeUpdateFeed:          "update_feed",
	OperationTypeSetBankCap:          "set_bank_cap",
	OperationTypeSetWithdrawalLimits: "set_withdrawal_limits",
	OperationTypeAbort:               "abort",
	OperationTypeCommit:              "commit",
}

func (t OperationType) String() string {
	if name, ok := operationTypeNames[t]; ok {
		return name
	}
	return "unknown"
}

// IsBalanceOperation 是否為會移動餘額的操作 (具冪等性保護)
func (t OperationType) IsBalanceOperation() bool {
	return t == OperationTypeDeposit || t == OperationTypeWithdraw || t == OperationTypeTransfer
}

// IsMarker abort / commit 紀錄本身不改變狀態
func (t OperationType) IsMarker() bool {
	return t == OperationTypeAbort || t == OperationTypeCommit
}

// Operation journal 中的一筆紀錄
//
// 紀錄的是「已通過檢查」的操作結果 (含當下換算的 USD 值)，
// 重放時不再查詢價格，確保重建的狀態與當時一致。
type Operation struct {
	// Sequence: 全局唯一的順序號 (由帳本分配)
	Sequence uint64
	// From, To: 帳戶地址。存款只用 To，提款只用 From；聯絡人操作 From=owner, To=contact
	From Address
	To   Address
	// Asset: 資產 ID
	Asset AssetID
	// Amount: raw amount
	Amount *uint256.Int `json:",omitempty"`
	// USDValue: 操作當下的 USD 值 (6 位小數)
	USDValue *uint256.Int `json:",omitempty"`
	// Alias, Limit: 聯絡人欄位
	Alias string `json:",omitempty"`
	Limit *uint256.Int `json:",omitempty"`
	// Decimals, Feed: 資產註冊欄位
	Decimals uint8  `json:",omitempty"`
	Feed     string `json:",omitempty"`
	// Cap, MaxWithdrawal, DailyWithdrawal: 風控設定
	Cap             *uint256.Int `json:",omitempty"`
	MaxWithdrawal   *uint256.Int `json:",omitempty"`
	DailyWithdrawal *uint256.Int `json:",omitempty"`
	// External: 需要外部轉帳，必須有對應的 commit 紀錄才算生效
	External bool `json:",omitempty"`
	// Aborts, Commits: 被撤銷 / 確認的 Sequence (只有 abort / commit 紀錄使用)
	Aborts  uint64 `json:",omitempty"`
	Commits uint64 `json:",omitempty"`
	// CreatedAt: 操作時間 (unix nano)
	CreatedAt int64
	// TransactionID: 外部追蹤號 (UUID)，用於冪等
	TransactionID uuid.UUID
	Type          OperationType
}

// Receipt 餘額操作完成後回傳的收據
type Receipt struct {
	TransactionID uuid.UUID
	Sequence      uint64
	Type          OperationType
	Asset         AssetID
	// Account 發起操作的帳戶；Counterparty 只有內部轉帳才有
	Account      Address
	Counterparty Address
	Amount       *uint256.Int
	USDValue     *uint256.Int
	// NewBalance Account 在該資產的最新餘額
	NewBalance *uint256.Int
	CreatedAt  int64
}
