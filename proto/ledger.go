// Package proto 定義 LedgerService 的訊息與 gRPC 服務描述。
//
// 金額一律是十進位字串 (raw amount 或 6 位小數的 USD 值)，地址使用 neo 地址或 0x 開頭的 hex。
package proto

type Empty struct{}

type DepositRequest struct {
	RefId       string `json:"ref_id,omitempty"`
	Account     string `json:"account"`
	Asset       string `json:"asset,omitempty"`
	Amount      string `json:"amount"`
	TargetUsd   string `json:"target_usd,omitempty"`
	SlippageBps uint32 `json:"slippage_bps,omitempty"`
}

type WithdrawRequest struct {
	RefId   string `json:"ref_id,omitempty"`
	Account string `json:"account"`
	Asset   string `json:"asset,omitempty"`
	Amount  string `json:"amount"`
}

type TransferRequest struct {
	RefId     string `json:"ref_id,omitempty"`
	From      string `json:"from"`
	Asset     string `json:"asset,omitempty"`
	ToAddress string `json:"to_address,omitempty"`
	ToAlias   string `json:"to_alias,omitempty"`
	Amount    string `json:"amount"`
}

// Receipt 存款、提款、轉帳的回應
type Receipt struct {
	RefId        string `json:"ref_id"`
	Sequence     uint64 `json:"sequence"`
	Type         string `json:"type"`
	Asset        string `json:"asset"`
	Account      string `json:"account"`
	Counterparty string `json:"counterparty,omitempty"`
	Amount       string `json:"amount"`
	UsdValue     string `json:"usd_value,omitempty"`
	NewBalance   string `json:"new_balance"`
	CreatedAt    int64  `json:"created_at"`
}

type GetBalanceRequest struct {
	Asset   string `json:"asset,omitempty"`
	Account string `json:"account"`
}

type GetBalanceResponse struct {
	Balance string `json:"balance"`
}

type GetWithdrawalAllowanceRequest struct {
	Account string `json:"account"`
}

// Allowance 空字串代表不限制
type Allowance struct {
	MaxWithdrawal string `json:"max_withdrawal,omitempty"`
	DailyLimit    string `json:"daily_limit,omitempty"`
	Spent         string `json:"spent"`
	Remaining     string `json:"remaining,omitempty"`
	WindowStart   int64  `json:"window_start"`
	ResetsAt      int64  `json:"resets_at"`
}

type QuoteDepositRequest struct {
	Asset string `json:"asset,omitempty"`
	Usd   string `json:"usd"`
}

type QuoteDepositResponse struct {
	Amount string `json:"amount"`
}

type GetValueRequest struct {
	Asset  string `json:"asset,omitempty"`
	Amount string `json:"amount"`
}

type GetValueResponse struct {
	Usd string `json:"usd"`
}

// Capacity Available 空字串代表不限制
type Capacity struct {
	Cap       string `json:"cap"`
	Total     string `json:"total"`
	Available string `json:"available,omitempty"`
}

type SetContactRequest struct {
	Owner   string `json:"owner"`
	Contact string `json:"contact"`
	Alias   string `json:"alias"`
	Limit   string `json:"limit,omitempty"`
}

type RemoveContactRequest struct {
	Owner   string `json:"owner"`
	Contact string `json:"contact"`
}

type UpdateContactLimitRequest struct {
	Owner   string `json:"owner"`
	Contact string `json:"contact"`
	Limit   string `json:"limit,omitempty"`
}

type Contact struct {
	Owner   string `json:"owner"`
	Address string `json:"address"`
	Alias   string `json:"alias"`
	Limit   string `json:"limit"`
}

type ResolveAliasRequest struct {
	Owner string `json:"owner"`
	Alias string `json:"alias"`
}

type ResolveAliasResponse struct {
	Address string `json:"address"`
}

type ListContactsRequest struct {
	Owner string `json:"owner"`
}

type ListContactsResponse struct {
	Contacts []*Contact `json:"contacts"`
}

type RegisterTokenRequest struct {
	Caller   string `json:"caller"`
	Asset    string `json:"asset"`
	Decimals uint32 `json:"decimals"`
	Feed     string `json:"feed"`
}

type UpdateFeedRequest struct {
	Caller string `json:"caller"`
	Asset  string `json:"asset,omitempty"`
	Feed   string `json:"feed"`
}

type SetBankCapRequest struct {
	Caller string `json:"caller"`
	Cap    string `json:"cap"`
}

type SetWithdrawalLimitsRequest struct {
	Caller          string `json:"caller"`
	MaxWithdrawal   string `json:"max_withdrawal"`
	DailyWithdrawal string `json:"daily_withdrawal"`
}

type PauseRequest struct {
	Caller string `json:"caller"`
}

type PublishPriceRequest struct {
	Caller   string `json:"caller"`
	Feed     string `json:"feed"`
	Answer   int64  `json:"answer"`
	Decimals uint32 `json:"decimals"`
}

type PublishPriceResponse struct {
	RoundId   uint64 `json:"round_id"`
	UpdatedAt int64  `json:"updated_at"`
}
