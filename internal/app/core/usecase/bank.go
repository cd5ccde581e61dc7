package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/balance"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/contact"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/oracle"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/risk"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/txn"
)

// DefaultReceiptCacheSize 冪等收據快取的預設筆數
const DefaultReceiptCacheSize = 100_000

// Config 帳本初始設定
type Config struct {
	// NativeDecimals, NativeFeed: 原生資產精度與價格來源
	NativeDecimals uint8
	NativeFeed     string
	// Tokens 啟動時就註冊的 token
	Tokens []domain.Asset
	// BankCap 全域 USD 上限 (6 位小數)，nil 或 0 代表不限制
	BankCap *uint256.Int
	// MaxWithdrawal 單筆提款 USD 上限，DailyWithdrawal 每人每日 USD 上限；0 代表不限制
	MaxWithdrawal   *uint256.Int
	DailyWithdrawal *uint256.Int
	// MaxPriceAge 價格有效時間，0 使用 oracle.DefaultMaxAge
	MaxPriceAge      time.Duration
	ReceiptCacheSize int
}

// Bank 帳本門面 (LedgerFacade)
//
// 結構:
//
//	mu: 全域讀寫鎖，所有修改操作序列化執行 (跨資產的全域上限需要整本帳一起鎖)
//	assets: 已註冊資產
//	balances / bankCap / limiter / contacts: 各元件狀態，只透過 Bank 修改
//	receipts: RefID -> 收據，重複請求直接回傳原收據
type Bank struct {
	mu sync.RWMutex

	assets   map[domain.AssetID]domain.Asset
	oracle   *oracle.Adapter
	balances *balance.Ledger
	bankCap  *risk.CapEnforcer
	limiter  *risk.WithdrawalRateLimiter
	contacts *contact.Directory

	maxWithdrawal   uint256.Int
	dailyWithdrawal uint256.Int

	custody  Custody
	policy   Policy
	sinks    []EventSink
	journal  Journal
	recorder Recorder
	clock    clock.Clock
	logger   *zap.Logger

	receipts *lru.Cache[uuid.UUID, domain.Receipt]
	seq      uint64
	// inDoubt 重放時找到、外部轉帳結果未知的操作 (沒有 commit 也沒有 abort)
	inDoubt []domain.Operation
}

// Option 設定 Bank 的選項函數
type Option func(*Bank)

// WithClock 替換時間來源 (測試用 clock.NewMock())
func WithClock(clk clock.Clock) Option {
	return func(b *Bank) { b.clock = clk }
}

// WithLogger 設定 logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Bank) { b.logger = logger }
}

// WithJournal 設定 journal；建構時會先重放既有紀錄
func WithJournal(j Journal) Option {
	return func(b *Bank) { b.journal = j }
}

// WithEventSinks 追加事件接收者
func WithEventSinks(sinks ...EventSink) Option {
	return func(b *Bank) { b.sinks = append(b.sinks, sinks...) }
}

// WithRecorder 設定指標紀錄器
func WithRecorder(r Recorder) Option {
	return func(b *Bank) { b.recorder = r }
}

// NewBank 建立帳本
//
// 參數:
//
//	cfg: 初始設定
//	feed: 外部價格來源
//	custody: 外部資產保管
//	policy: 暫停開關與權限
//	opts: 其他選項
//
// 回傳:
//
//	*Bank: 帳本實例
//	error: 設定錯誤或 journal 重放失敗
func NewBank(cfg Config, feed oracle.Feed, custody Custody, policy Policy, opts ...Option) (*Bank, error) {
	b := &Bank{
		assets:   make(map[domain.AssetID]domain.Asset),
		balances: balance.NewLedger(),
		bankCap:  risk.NewCapEnforcer(cfg.BankCap),
		limiter:  risk.NewWithdrawalRateLimiter(),
		contacts: contact.NewDirectory(),
		custody:  custody,
		policy:   policy,
		recorder: nopRecorder{},
		clock:    clock.New(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.oracle = oracle.NewAdapter(feed, b.clock, cfg.MaxPriceAge)
	if cfg.MaxWithdrawal != nil {
		b.maxWithdrawal.Set(cfg.MaxWithdrawal)
	}
	if cfg.DailyWithdrawal != nil {
		b.dailyWithdrawal.Set(cfg.DailyWithdrawal)
	}

	size := cfg.ReceiptCacheSize
	if size <= 0 {
		size = DefaultReceiptCacheSize
	}
	receipts, err := lru.New[uuid.UUID, domain.Receipt](size)
	if err != nil {
		return nil, fmt.Errorf("create receipt cache: %w", err)
	}
	b.receipts = receipts

	// 原生資產建構時即註冊
	native := domain.Asset{ID: domain.NativeAsset, Decimals: cfg.NativeDecimals, Feed: cfg.NativeFeed}
	if err := validateAsset(native); err != nil {
		return nil, fmt.Errorf("native asset: %w", err)
	}
	b.assets[domain.NativeAsset] = native

	for _, token := range cfg.Tokens {
		if token.ID == domain.NativeAsset {
			return nil, fmt.Errorf("token %s: %w", domain.FormatAddress(token.ID), domain.ErrAssetAlreadyRegistered)
		}
		if err := validateAsset(token); err != nil {
			return nil, fmt.Errorf("token %s: %w", domain.FormatAddress(token.ID), err)
		}
		b.assets[token.ID] = token
	}

	if b.journal != nil {
		if err := b.recoverFromJournal(); err != nil {
			return nil, err
		}
	}
	b.recorder.SetCustodiedUSD(b.bankCap.Total())
	return b, nil
}

func validateAsset(a domain.Asset) error {
	if a.Decimals > domain.MaxAssetDecimals {
		return domain.ErrInvalidDecimals
	}
	if a.Feed == "" {
		return domain.ErrInvalidFeed
	}
	return nil
}

// inOperation 標記傳給外部協作者的 context
type inOperation struct{}

// mark 讓協作者拿到的 context 帶有「操作進行中」標記
func (b *Bank) mark(ctx context.Context) context.Context {
	return context.WithValue(ctx, inOperation{}, b)
}

// checkReentry 協作者在操作進行中回呼帳本時直接拒絕，避免在鎖上死結
// 只認得 mark 過的 ctx，協作者必須把收到的 ctx 傳回來
func (b *Bank) checkReentry(ctx context.Context) error {
	if owner, ok := ctx.Value(inOperation{}).(*Bank); ok && owner == b {
		return domain.ErrReentrantCall
	}
	return nil
}

// begin 取得寫鎖；pausable 的操作在暫停時直接失敗
func (b *Bank) begin(ctx context.Context, pausable bool) (func(), error) {
	if err := b.checkReentry(ctx); err != nil {
		return nil, err
	}
	if pausable && b.policy.IsPaused() {
		return nil, domain.ErrOperationsPaused
	}
	b.mu.Lock()
	// 等鎖期間可能被暫停
	if pausable && b.policy.IsPaused() {
		b.mu.Unlock()
		return nil, domain.ErrOperationsPaused
	}
	return b.mu.Unlock, nil
}

// beginRead 取得讀鎖
func (b *Bank) beginRead(ctx context.Context) (func(), error) {
	if err := b.checkReentry(ctx); err != nil {
		return nil, err
	}
	b.mu.RLock()
	return b.mu.RUnlock, nil
}

// requireAdmin 管理操作的前置檢查
func (b *Bank) requireAdmin(caller domain.Address) error {
	if !b.policy.HasAdminRole(caller) {
		return domain.ErrUnauthorized
	}
	return nil
}

// newOperation 分配順序號並建立 journal 紀錄
func (b *Bank) newOperation(t domain.OperationType, refID uuid.UUID) *domain.Operation {
	if refID == uuid.Nil {
		refID = uuid.New()
	}
	b.seq++
	return &domain.Operation{
		Sequence:      b.seq,
		CreatedAt:     b.clock.Now().UnixNano(),
		TransactionID: refID,
		Type:          t,
	}
}

// commit 寫入 journal、執行外部呼叫，全部成功才提交 tx
//
// 有外部呼叫的操作在 journal 中分兩段: 先寫入本體 (External=true)，
// 外部呼叫成功後補一筆 commit 紀錄，失敗則補 abort 紀錄。
// 兩者都沒有的紀錄在重放時視為結果未知，不會套用。
//
// 參數:
//
//	ctx: 上下文 (外部呼叫會帶上 inOperation 標記)
//	tx: 本次操作的 undo log
//	op: journal 紀錄
//	external: 外部呼叫 (custody)，可為 nil
//
// 回傳:
//
//	error: 失敗時 tx 已還原，沒有任何狀態改變
func (b *Bank) commit(ctx context.Context, tx *txn.Tx, op *domain.Operation, external func(context.Context) error) error {
	op.External = external != nil

	// 1. 寫入 journal (Critical Path)
	if b.journal != nil {
		if err := b.journal.Append(op); err != nil {
			tx.Rollback()
			b.logger.Error("journal append failed", zap.Uint64("seq", op.Sequence), zap.Stringer("type", op.Type), zap.Error(err))
			return fmt.Errorf("%w: %v", domain.ErrJournalWriteFailed, err)
		}
	}

	// 2. 外部呼叫
	if external != nil {
		if err := external(b.mark(ctx)); err != nil {
			tx.Rollback()
			b.abort(op, err)
			return fmt.Errorf("%w: %w", domain.ErrTransferFailed, err)
		}
		b.confirm(op)
	}

	tx.Commit()
	b.logger.Debug("operation committed",
		zap.Uint64("seq", op.Sequence),
		zap.Stringer("type", op.Type),
		zap.Stringer("ref_id", op.TransactionID))
	return nil
}

// confirm 外部轉帳已完成，補寫 commit 紀錄
// 資產已經移動，寫入失敗也不能還原記憶體狀態；重啟後這筆會列為結果未知
func (b *Bank) confirm(op *domain.Operation) {
	if b.journal == nil {
		return
	}
	rec := &domain.Operation{
		Sequence:      op.Sequence,
		CreatedAt:     b.clock.Now().UnixNano(),
		TransactionID: op.TransactionID,
		Type:          domain.OperationTypeCommit,
		Commits:       op.Sequence,
	}
	if err := b.journal.Append(rec); err != nil {
		b.logger.Error("journal commit record failed, operation needs reconciliation after restart",
			zap.Uint64("commits", op.Sequence),
			zap.Stringer("ref_id", op.TransactionID),
			zap.Error(err))
	}
}

// abort 在 journal 補一筆撤銷紀錄，重放時跳過被撤銷的操作
func (b *Bank) abort(op *domain.Operation, cause error) {
	b.logger.Warn("external transfer failed, operation rolled back",
		zap.Uint64("seq", op.Sequence),
		zap.Stringer("type", op.Type),
		zap.Error(cause))
	if b.journal == nil {
		return
	}
	rec := b.newOperation(domain.OperationTypeAbort, uuid.Nil)
	rec.Aborts = op.Sequence
	if err := b.journal.Append(rec); err != nil {
		// 重放時會誤套用 op.Sequence，需要人工對帳
		b.logger.Error("journal abort record failed",
			zap.Uint64("aborts", op.Sequence),
			zap.Error(err))
	}
}

// remember 快取收據供冪等檢查，只有餘額操作會被快取
func (b *Bank) remember(op *domain.Operation, account, counterparty domain.Address, newBalance *uint256.Int) domain.Receipt {
	r := domain.Receipt{
		TransactionID: op.TransactionID,
		Sequence:      op.Sequence,
		Type:          op.Type,
		Asset:         op.Asset,
		Account:       account,
		Counterparty:  counterparty,
		Amount:        op.Amount,
		USDValue:      op.USDValue,
		NewBalance:    newBalance,
		CreatedAt:     op.CreatedAt,
	}
	if op.Type.IsBalanceOperation() {
		b.receipts.Add(op.TransactionID, r)
	}
	return r
}

// processed 檢查 RefID 是否已處理過
//
// 同一個 RefID 只能代表同一個請求: 類型、帳戶、資產、數量都相同才回傳原收據，
// 否則回傳 ErrRefIDConflict。
//
// 回傳:
//
//	domain.Receipt: 原收據
//	bool: 是否已處理過
//	error: RefID 被其他請求使用
func (b *Bank) processed(refID uuid.UUID, t domain.OperationType, account domain.Address, asset domain.AssetID, amount *uint256.Int) (domain.Receipt, bool, error) {
	if refID == uuid.Nil {
		return domain.Receipt{}, false, nil
	}
	r, ok := b.receipts.Get(refID)
	if !ok {
		return domain.Receipt{}, false, nil
	}
	if r.Type != t || r.Account != account || r.Asset != asset || amount == nil || r.Amount == nil || !r.Amount.Eq(amount) {
		return domain.Receipt{}, false, fmt.Errorf("%w: %s was a %s of %s", domain.ErrRefIDConflict, refID, r.Type, domain.FormatAddress(r.Account))
	}
	return r, true, nil
}

// publish 在鎖內依序送出事件；sink 回呼帳本會得到 ErrReentrantCall
func (b *Bank) publish(ctx context.Context, events ...domain.Event) {
	ctx = b.mark(ctx)
	for _, ev := range events {
		for _, sink := range b.sinks {
			if err := sink.Publish(ctx, ev); err != nil {
				b.logger.Warn("publish event failed",
					zap.String("event", ev.EventName()),
					zap.Uint64("seq", ev.Meta().Sequence),
					zap.Error(err))
			}
		}
	}
}

func (b *Bank) meta(op *domain.Operation) domain.EventMeta {
	return domain.EventMeta{Sequence: op.Sequence, At: time.Unix(0, op.CreatedAt).UTC()}
}

func (b *Bank) observe(op string, start time.Time, err error) {
	b.recorder.ObserveOperation(op, err, b.clock.Since(start))
}

// asset 取得已註冊資產
func (b *Bank) asset(id domain.AssetID) (domain.Asset, error) {
	a, ok := b.assets[id]
	if !ok {
		return domain.Asset{}, fmt.Errorf("%w: %s", domain.ErrAssetNotRegistered, domain.FormatAddress(id))
	}
	return a, nil
}

func requirePositive(amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return domain.ErrZeroAmount
	}
	return nil
}

func requireAccount(account domain.Address) error {
	if domain.IsZeroAddress(account) {
		return fmt.Errorf("%w: zero account", domain.ErrInvalidAddress)
	}
	return nil
}
