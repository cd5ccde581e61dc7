package domain

import (
	"time"

	"github.com/holiman/uint256"
)

// Event 每一筆成功提交的操作都會發出一個事件
type Event interface {
	EventName() string
	Meta() EventMeta
}

// EventMeta 事件共用欄位
type EventMeta struct {
	Sequence uint64
	At       time.Time
}

func (m EventMeta) Meta() EventMeta { return m }

type DepositEvent struct {
	EventMeta
	Asset      AssetID
	Account    Address
	Amount     *uint256.Int
	NewBalance *uint256.Int
	USDValue   *uint256.Int
}

func (DepositEvent) EventName() string { return "Deposit" }

type WithdrawalEvent struct {
	EventMeta
	Asset      AssetID
	Account    Address
	Amount     *uint256.Int
	NewBalance *uint256.Int
	USDValue   *uint256.Int
}

func (WithdrawalEvent) EventName() string { return "Withdrawal" }

type InternalTransferEvent struct {
	EventMeta
	Asset  AssetID
	From   Address
	To     Address
	Amount *uint256.Int
}

func (InternalTransferEvent) EventName() string { return "InternalTransfer" }

type ContactSetEvent struct {
	EventMeta
	Owner   Address
	Contact Address
	Alias   string
	Limit   *uint256.Int
}

func (ContactSetEvent) EventName() string { return "ContactSet" }

type ContactRemovedEvent struct {
	EventMeta
	Owner   Address
	Contact Address
	Alias   string
}

func (ContactRemovedEvent) EventName() string { return "ContactRemoved" }

type ContactLimitUpdatedEvent struct {
	EventMeta
	Owner   Address
	Contact Address
	Limit   *uint256.Int
}

func (ContactLimitUpdatedEvent) EventName() string { return "ContactLimitUpdated" }

type TokenRegisteredEvent struct {
	EventMeta
	Asset    AssetID
	Decimals uint8
	Feed     string
}

func (TokenRegisteredEvent) EventName() string { return "TokenRegistered" }

type FeedUpdatedEvent struct {
	EventMeta
	Asset AssetID
	Feed  string
}

func (FeedUpdatedEvent) EventName() string { return "FeedUpdated" }

type BankCapUpdatedEvent struct {
	EventMeta
	Cap *uint256.Int
}

func (BankCapUpdatedEvent) EventName() string { return "BankCapUpdated" }

type WithdrawalLimitsUpdatedEvent struct {
	EventMeta
	MaxWithdrawal   *uint256.Int
	DailyWithdrawal *uint256.Int
}

func (WithdrawalLimitsUpdatedEvent) EventName() string { return "WithdrawalLimitsUpdated" }

type PausedEvent struct {
	EventMeta
	By Address
}

func (PausedEvent) EventName() string { return "Paused" }

type UnpausedEvent struct {
	EventMeta
	By Address
}

func (UnpausedEvent) EventName() string { return "Unpaused" }
