package usecase_test

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/adapter/out/journal"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/adapter/out/memory"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/oracle"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/usecase"
)

var (
	admin = util.Uint160{0xad}
	alice = util.Uint160{0xa1}
	bob   = util.Uint160{0xb0}
	carol = util.Uint160{0xc0}
	usdc  = util.Uint160{0x05, 0xdc}

	oneToken = uint256.MustFromDecimal("1000000000000000000")
)

type sinkStub struct {
	mu     sync.Mutex
	events []domain.Event
}

func (s *sinkStub) Publish(_ context.Context, ev domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
	return nil
}

func (s *sinkStub) names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.events))
	for _, ev := range s.events {
		out = append(out, ev.EventName())
	}
	return out
}

func (s *sinkStub) last() domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[len(s.events)-1]
}

// journalStub 只留在記憶體的 journal，可以交給第二個 Bank 重放
type journalStub struct {
	mu  sync.Mutex
	ops []domain.Operation
}

func (j *journalStub) Append(op *domain.Operation) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.ops = append(j.ops, *op)
	return nil
}

func (j *journalStub) Replay(fn func(op *domain.Operation) error) error {
	j.mu.Lock()
	ops := make([]domain.Operation, len(j.ops))
	copy(ops, j.ops)
	j.mu.Unlock()
	for i := range ops {
		if err := fn(&ops[i]); err != nil {
			return err
		}
	}
	return nil
}

func (j *journalStub) types() []domain.OperationType {
	j.mu.Lock()
	defer j.mu.Unlock()
	out := make([]domain.OperationType, 0, len(j.ops))
	for _, op := range j.ops {
		out = append(out, op.Type)
	}
	return out
}

type fixture struct {
	bank    *usecase.Bank
	feed    *memory.Feed
	custody *memory.Custody
	policy  *memory.Policy
	clock   *clock.Mock
	sink    *sinkStub
}

func baseConfig() usecase.Config {
	return usecase.Config{
		NativeDecimals: 18,
		NativeFeed:     "native",
		Tokens:         []domain.Asset{{ID: usdc, Decimals: 6, Feed: "usdc"}},
	}
}

func newFixture(t *testing.T, cfg usecase.Config, opts ...usecase.Option) *fixture {
	t.Helper()
	clk := clock.NewMock()
	clk.Set(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))

	f := &fixture{
		feed:    memory.NewFeed(clk),
		custody: memory.NewCustody(),
		policy:  memory.NewPolicy(admin),
		clock:   clk,
		sink:    &sinkStub{},
	}
	f.feed.Publish("native", 100_000_000, 8)
	f.feed.Publish("usdc", 100_000_000, 8)

	opts = append([]usecase.Option{usecase.WithClock(clk), usecase.WithEventSinks(f.sink)}, opts...)
	bank, err := usecase.NewBank(cfg, f.feed, f.custody, f.policy, opts...)
	require.NoError(t, err)
	f.bank = bank
	return f
}

func (f *fixture) deposit(t *testing.T, account domain.Address, asset domain.AssetID, amount *uint256.Int) domain.Receipt {
	t.Helper()
	r, err := f.bank.Deposit(context.Background(), usecase.DepositRequest{Account: account, Asset: asset, Amount: amount})
	require.NoError(t, err)
	return r
}

func (f *fixture) balance(t *testing.T, asset domain.AssetID, account domain.Address) string {
	t.Helper()
	b, err := f.bank.BalanceOf(context.Background(), asset, account)
	require.NoError(t, err)
	return b.Dec()
}

func TestDepositCapBoundary(t *testing.T) {
	cfg := baseConfig()
	cfg.BankCap = uint256.NewInt(2_000_000)
	f := newFixture(t, cfg)
	ctx := context.Background()

	r := f.deposit(t, alice, domain.NativeAsset, oneToken)
	require.Equal(t, "1000000", r.USDValue.Dec())
	require.Equal(t, oneToken.Dec(), r.NewBalance.Dec())

	// total == cap 可以通過
	f.deposit(t, bob, domain.NativeAsset, oneToken)

	_, err := f.bank.Deposit(ctx, usecase.DepositRequest{Account: alice, Asset: domain.NativeAsset, Amount: oneToken})
	require.ErrorIs(t, err, domain.ErrBankCapExceeded)
	var capErr *domain.BankCapExceededError
	require.ErrorAs(t, err, &capErr)
	require.Equal(t, "3000000", capErr.NewTotal.Dec())

	require.Equal(t, oneToken.Dec(), f.balance(t, domain.NativeAsset, alice))
	c, err := f.bank.Capacity(ctx)
	require.NoError(t, err)
	require.Equal(t, "2000000", c.Total.Dec())
	require.True(t, c.Available.IsZero())

	// 提款後釋出額度
	_, err = f.bank.Withdraw(ctx, usecase.WithdrawRequest{Account: alice, Asset: domain.NativeAsset, Amount: oneToken})
	require.NoError(t, err)
	c, err = f.bank.Capacity(ctx)
	require.NoError(t, err)
	require.Equal(t, "1000000", c.Available.Dec())
}

func TestWithdrawDailyLimit(t *testing.T) {
	cfg := baseConfig()
	cfg.DailyWithdrawal = uint256.NewInt(500_000)
	f := newFixture(t, cfg)
	ctx := context.Background()

	f.deposit(t, alice, usdc, uint256.NewInt(1_000_000))

	r, err := f.bank.Withdraw(ctx, usecase.WithdrawRequest{Account: alice, Asset: usdc, Amount: uint256.NewInt(500_000)})
	require.NoError(t, err)
	require.Equal(t, "500000", r.USDValue.Dec())
	require.Equal(t, "500000", r.NewBalance.Dec())

	_, err = f.bank.Withdraw(ctx, usecase.WithdrawRequest{Account: alice, Asset: usdc, Amount: uint256.NewInt(1)})
	var limitErr *domain.WithdrawLimitExceededError
	require.ErrorAs(t, err, &limitErr)
	require.True(t, limitErr.Remaining.IsZero())

	a, err := f.bank.WithdrawalAllowance(ctx, alice)
	require.NoError(t, err)
	require.True(t, a.Remaining.IsZero())
	require.Equal(t, "500000", a.Spent.Dec())
	require.True(t, a.ResetsAt.Equal(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)))

	// 過了 UTC 午夜額度重置 (價格也要重新發布才不會過期)
	f.clock.Set(time.Date(2024, 3, 2, 0, 0, 1, 0, time.UTC))
	f.feed.Publish("usdc", 100_000_000, 8)
	_, err = f.bank.Withdraw(ctx, usecase.WithdrawRequest{Account: alice, Asset: usdc, Amount: uint256.NewInt(1)})
	require.NoError(t, err)
	a, err = f.bank.WithdrawalAllowance(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, "499999", a.Remaining.Dec())
}

func TestMaxWithdrawalPerTransaction(t *testing.T) {
	cfg := baseConfig()
	cfg.MaxWithdrawal = uint256.NewInt(100_000)
	f := newFixture(t, cfg)
	f.deposit(t, alice, usdc, uint256.NewInt(1_000_000))

	_, err := f.bank.Withdraw(context.Background(), usecase.WithdrawRequest{Account: alice, Asset: usdc, Amount: uint256.NewInt(100_001)})
	require.ErrorIs(t, err, domain.ErrWithdrawLimitExceeded)
	_, err = f.bank.Withdraw(context.Background(), usecase.WithdrawRequest{Account: alice, Asset: usdc, Amount: uint256.NewInt(100_000)})
	require.NoError(t, err)
}

func TestStalePriceLeavesNoTrace(t *testing.T) {
	f := newFixture(t, baseConfig())
	ctx := context.Background()
	f.deposit(t, alice, usdc, uint256.NewInt(1_000_000))
	events := len(f.sink.names())
	moves := len(f.custody.Moves())

	f.clock.Add(25 * time.Hour)
	_, err := f.bank.Deposit(ctx, usecase.DepositRequest{Account: alice, Asset: usdc, Amount: uint256.NewInt(1)})
	require.ErrorIs(t, err, domain.ErrStalePrice)
	_, err = f.bank.Withdraw(ctx, usecase.WithdrawRequest{Account: alice, Asset: usdc, Amount: uint256.NewInt(1)})
	require.ErrorIs(t, err, domain.ErrStalePrice)

	require.Equal(t, "1000000", f.balance(t, usdc, alice))
	c, err := f.bank.Capacity(ctx)
	require.NoError(t, err)
	require.Equal(t, "1000000", c.Total.Dec())
	require.Len(t, f.sink.names(), events)
	require.Len(t, f.custody.Moves(), moves)

	// round 不一致也視為過期
	f.feed.SetRound("usdc", domain.RoundData{Answer: 100_000_000, Decimals: 8, UpdatedAt: f.clock.Now(), RoundID: 5, AnsweredInRound: 4})
	_, err = f.bank.ValueInUSD(ctx, usdc, uint256.NewInt(1))
	require.ErrorIs(t, err, domain.ErrStalePrice)
}

func TestInvalidInput(t *testing.T) {
	f := newFixture(t, baseConfig())
	ctx := context.Background()

	_, err := f.bank.Deposit(ctx, usecase.DepositRequest{Account: alice, Asset: usdc, Amount: new(uint256.Int)})
	require.ErrorIs(t, err, domain.ErrZeroAmount)
	_, err = f.bank.Deposit(ctx, usecase.DepositRequest{Account: alice, Asset: util.Uint160{0x99}, Amount: uint256.NewInt(1)})
	require.ErrorIs(t, err, domain.ErrAssetNotRegistered)
	_, err = f.bank.Deposit(ctx, usecase.DepositRequest{Asset: usdc, Amount: uint256.NewInt(1)})
	require.ErrorIs(t, err, domain.ErrInvalidAddress)
	_, err = f.bank.Withdraw(ctx, usecase.WithdrawRequest{Account: alice, Asset: usdc, Amount: uint256.NewInt(1)})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	f.feed.Publish("usdc", 0, 8)
	_, err = f.bank.Deposit(ctx, usecase.DepositRequest{Account: alice, Asset: usdc, Amount: uint256.NewInt(1)})
	require.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestPause(t *testing.T) {
	f := newFixture(t, baseConfig())
	ctx := context.Background()
	f.deposit(t, alice, usdc, uint256.NewInt(10))

	require.ErrorIs(t, f.bank.Pause(ctx, alice), domain.ErrUnauthorized)
	require.NoError(t, f.bank.Pause(ctx, admin))
	require.Equal(t, "Paused", f.sink.last().EventName())

	_, err := f.bank.Deposit(ctx, usecase.DepositRequest{Account: alice, Asset: usdc, Amount: uint256.NewInt(1)})
	require.ErrorIs(t, err, domain.ErrOperationsPaused)
	_, err = f.bank.Withdraw(ctx, usecase.WithdrawRequest{Account: alice, Asset: usdc, Amount: uint256.NewInt(1)})
	require.ErrorIs(t, err, domain.ErrOperationsPaused)
	_, err = f.bank.Transfer(ctx, usecase.TransferRequest{From: alice, Asset: usdc, To: usecase.Recipient{Address: bob}, Amount: uint256.NewInt(1)})
	require.ErrorIs(t, err, domain.ErrOperationsPaused)
	_, err = f.bank.SetContact(ctx, usecase.ContactRequest{Owner: alice, Contact: bob, Alias: "bob"})
	require.ErrorIs(t, err, domain.ErrOperationsPaused)

	// 查詢與管理操作不受暫停影響
	require.Equal(t, "10", f.balance(t, usdc, alice))
	require.NoError(t, f.bank.SetBankCap(ctx, admin, uint256.NewInt(1)))

	require.NoError(t, f.bank.Unpause(ctx, admin))
	_, err = f.bank.Withdraw(ctx, usecase.WithdrawRequest{Account: alice, Asset: usdc, Amount: uint256.NewInt(1)})
	require.NoError(t, err)
}

func TestTransferByAliasWithContactLimit(t *testing.T) {
	f := newFixture(t, baseConfig())
	ctx := context.Background()
	f.deposit(t, alice, domain.NativeAsset, oneToken)
	f.deposit(t, alice, usdc, uint256.NewInt(1_000_000))

	limit := uint256.MustFromDecimal("100000000000000000")
	_, err := f.bank.SetContact(ctx, usecase.ContactRequest{Owner: alice, Contact: bob, Alias: "bob", Limit: limit})
	require.NoError(t, err)
	require.Equal(t, "ContactSet", f.sink.last().EventName())

	over := new(uint256.Int).AddUint64(limit, 1)
	_, err = f.bank.Transfer(ctx, usecase.TransferRequest{From: alice, Asset: domain.NativeAsset, To: usecase.Recipient{Alias: "bob"}, Amount: over})
	var limitErr *domain.LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	require.Equal(t, limit.Dec(), limitErr.Limit.Dec())

	r, err := f.bank.Transfer(ctx, usecase.TransferRequest{From: alice, Asset: domain.NativeAsset, To: usecase.Recipient{Alias: "bob"}, Amount: limit})
	require.NoError(t, err)
	require.Equal(t, bob, r.Counterparty)
	require.Equal(t, "900000000000000000", r.NewBalance.Dec())
	require.Equal(t, limit.Dec(), f.balance(t, domain.NativeAsset, bob))

	// 上限只套用在原生資產
	_, err = f.bank.Transfer(ctx, usecase.TransferRequest{From: alice, Asset: usdc, To: usecase.Recipient{Alias: "bob"}, Amount: uint256.NewInt(1_000_000)})
	require.NoError(t, err)

	ev, ok := f.sink.last().(domain.InternalTransferEvent)
	require.True(t, ok)
	require.Equal(t, alice, ev.From)
	require.Equal(t, bob, ev.To)

	// 內部轉帳不動全域累計值，也不呼叫 custody
	c, err := f.bank.Capacity(ctx)
	require.NoError(t, err)
	require.Equal(t, "2000000", c.Total.Dec())
	for _, m := range f.custody.Moves() {
		require.Equal(t, memory.DirectionIn, m.Direction)
	}

	_, err = f.bank.Transfer(ctx, usecase.TransferRequest{From: alice, Asset: usdc, To: usecase.Recipient{Alias: "nobody"}, Amount: uint256.NewInt(1)})
	require.ErrorIs(t, err, domain.ErrContactNotFound)
	_, err = f.bank.Transfer(ctx, usecase.TransferRequest{From: alice, Asset: usdc, To: usecase.Recipient{Address: alice}, Amount: uint256.NewInt(1)})
	require.ErrorIs(t, err, domain.ErrSameAccount)
	_, err = f.bank.Transfer(ctx, usecase.TransferRequest{From: alice, Asset: usdc, Amount: uint256.NewInt(1)})
	require.ErrorIs(t, err, domain.ErrInvalidContact)
}

func TestContactLifecycle(t *testing.T) {
	f := newFixture(t, baseConfig())
	ctx := context.Background()

	_, err := f.bank.SetContact(ctx, usecase.ContactRequest{Owner: alice, Contact: bob, Alias: "friend"})
	require.NoError(t, err)
	_, err = f.bank.SetContact(ctx, usecase.ContactRequest{Owner: alice, Contact: carol, Alias: "friend"})
	require.ErrorIs(t, err, domain.ErrAliasTaken)

	// 改名後舊別名可被其他聯絡人使用
	_, err = f.bank.SetContact(ctx, usecase.ContactRequest{Owner: alice, Contact: bob, Alias: "bobby"})
	require.NoError(t, err)
	_, err = f.bank.SetContact(ctx, usecase.ContactRequest{Owner: alice, Contact: carol, Alias: "friend"})
	require.NoError(t, err)

	c, err := f.bank.UpdateContactLimit(ctx, alice, bob, uint256.NewInt(42))
	require.NoError(t, err)
	require.Equal(t, "42", c.Limit.Dec())

	list, err := f.bank.Contacts(ctx, alice)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "bobby", list[0].Alias)

	require.NoError(t, f.bank.RemoveContact(ctx, alice, bob))
	_, err = f.bank.ResolveAlias(ctx, alice, "bobby")
	require.ErrorIs(t, err, domain.ErrContactNotFound)
	require.ErrorIs(t, f.bank.RemoveContact(ctx, alice, bob), domain.ErrContactNotFound)
	_, err = f.bank.UpdateContactLimit(ctx, alice, bob, nil)
	require.ErrorIs(t, err, domain.ErrContactNotFound)

	_, err = f.bank.SetContact(ctx, usecase.ContactRequest{Owner: alice, Alias: "zero"})
	require.ErrorIs(t, err, domain.ErrInvalidContact)

	require.Equal(t, []string{"ContactSet", "ContactSet", "ContactSet", "ContactLimitUpdated", "ContactRemoved"}, f.sink.names())
}

func TestCustodyFailureRollsBack(t *testing.T) {
	cfg := baseConfig()
	cfg.DailyWithdrawal = uint256.NewInt(10_000_000)
	f := newFixture(t, cfg)
	ctx := context.Background()
	f.deposit(t, alice, usdc, uint256.NewInt(1_000_000))
	events := len(f.sink.names())

	f.custody.Reject(alice, true)
	_, err := f.bank.Withdraw(ctx, usecase.WithdrawRequest{Account: alice, Asset: usdc, Amount: uint256.NewInt(400_000)})
	require.ErrorIs(t, err, domain.ErrTransferFailed)
	require.ErrorIs(t, err, memory.ErrRecipientRejected)

	require.Equal(t, "1000000", f.balance(t, usdc, alice))
	a, err := f.bank.WithdrawalAllowance(ctx, alice)
	require.NoError(t, err)
	require.True(t, a.Spent.IsZero())
	c, err := f.bank.Capacity(ctx)
	require.NoError(t, err)
	require.Equal(t, "1000000", c.Total.Dec())
	require.Len(t, f.sink.names(), events)

	// token 轉入失敗時存款也不生效
	f.custody.SetHook(func(context.Context, memory.Move) error { return errors.New("allowance too low") })
	_, err = f.bank.Deposit(ctx, usecase.DepositRequest{Account: bob, Asset: usdc, Amount: uint256.NewInt(5)})
	require.ErrorIs(t, err, domain.ErrTransferFailed)
	require.Equal(t, "0", f.balance(t, usdc, bob))
}

func TestReentrantCallRejected(t *testing.T) {
	f := newFixture(t, baseConfig())
	ctx := context.Background()
	f.deposit(t, alice, usdc, uint256.NewInt(1_000_000))

	var inner, innerRead error
	f.custody.SetHook(func(ctx context.Context, m memory.Move) error {
		_, inner = f.bank.Withdraw(ctx, usecase.WithdrawRequest{Account: alice, Asset: usdc, Amount: uint256.NewInt(1)})
		_, innerRead = f.bank.BalanceOf(ctx, usdc, alice)
		return inner
	})

	_, err := f.bank.Withdraw(ctx, usecase.WithdrawRequest{Account: alice, Asset: usdc, Amount: uint256.NewInt(100)})
	require.ErrorIs(t, inner, domain.ErrReentrantCall)
	require.ErrorIs(t, innerRead, domain.ErrReentrantCall)
	require.ErrorIs(t, err, domain.ErrTransferFailed)
	require.ErrorIs(t, err, domain.ErrReentrantCall)
	require.Equal(t, "1000000", f.balance(t, usdc, alice))
}

func TestIdempotentRefID(t *testing.T) {
	f := newFixture(t, baseConfig())
	ctx := context.Background()
	ref := uuid.New()

	req := usecase.DepositRequest{RefID: ref, Account: alice, Asset: usdc, Amount: uint256.NewInt(7)}
	first, err := f.bank.Deposit(ctx, req)
	require.NoError(t, err)
	second, err := f.bank.Deposit(ctx, req)
	require.NoError(t, err)
	require.Equal(t, first.Sequence, second.Sequence)
	require.Equal(t, ref, second.TransactionID)
	require.Equal(t, "7", f.balance(t, usdc, alice))
	require.Len(t, f.sink.names(), 1)
}

func TestRefIDReusedByDifferentRequest(t *testing.T) {
	f := newFixture(t, baseConfig())
	ctx := context.Background()
	ref := uuid.New()

	deposit := usecase.DepositRequest{RefID: ref, Account: alice, Asset: usdc, Amount: uint256.NewInt(100)}
	_, err := f.bank.Deposit(ctx, deposit)
	require.NoError(t, err)

	_, err = f.bank.Withdraw(ctx, usecase.WithdrawRequest{RefID: ref, Account: alice, Asset: usdc, Amount: uint256.NewInt(40)})
	require.ErrorIs(t, err, domain.ErrRefIDConflict)

	_, err = f.bank.Transfer(ctx, usecase.TransferRequest{RefID: ref, From: bob, Asset: usdc, To: usecase.Recipient{Address: alice}, Amount: uint256.NewInt(100)})
	require.ErrorIs(t, err, domain.ErrRefIDConflict)

	_, err = f.bank.Deposit(ctx, usecase.DepositRequest{RefID: ref, Account: bob, Asset: usdc, Amount: uint256.NewInt(100)})
	require.ErrorIs(t, err, domain.ErrRefIDConflict)

	_, err = f.bank.Deposit(ctx, usecase.DepositRequest{RefID: ref, Account: alice, Asset: usdc, Amount: uint256.NewInt(101)})
	require.ErrorIs(t, err, domain.ErrRefIDConflict)

	_, err = f.bank.Deposit(ctx, usecase.DepositRequest{RefID: ref, Account: alice, Asset: domain.NativeAsset, Amount: uint256.NewInt(100)})
	require.ErrorIs(t, err, domain.ErrRefIDConflict)

	// 完全相同的請求仍然回傳原收據
	again, err := f.bank.Deposit(ctx, deposit)
	require.NoError(t, err)
	require.Equal(t, domain.OperationTypeDeposit, again.Type)

	require.Equal(t, "100", f.balance(t, usdc, alice))
	require.Equal(t, "0", f.balance(t, usdc, bob))
	require.Len(t, f.sink.names(), 1)
}

func TestCustodyInterruptedLeavesOperationInDoubt(t *testing.T) {
	cfg := baseConfig()
	cfg.DailyWithdrawal = uint256.NewInt(10_000_000)
	j := &journalStub{}
	f := newFixture(t, cfg, usecase.WithJournal(j))
	ctx := context.Background()

	f.deposit(t, alice, usdc, uint256.NewInt(2_000_000))
	require.Equal(t, []domain.OperationType{domain.OperationTypeDeposit, domain.OperationTypeCommit}, j.types())

	// 程序在 custody 呼叫途中中止: journal 只留下操作本體
	ref := uuid.New()
	deposit := usecase.DepositRequest{RefID: ref, Account: bob, Asset: usdc, Amount: uint256.NewInt(700_000)}
	f.custody.SetHook(func(context.Context, memory.Move) error { panic("killed during transfer-in") })
	require.Panics(t, func() { _, _ = f.bank.Deposit(ctx, deposit) })
	require.Panics(t, func() {
		_, _ = f.bank.Withdraw(ctx, usecase.WithdrawRequest{Account: alice, Asset: usdc, Amount: uint256.NewInt(300_000)})
	})
	f.custody.SetHook(nil)

	restored, err := usecase.NewBank(cfg, f.feed, f.custody, f.policy, usecase.WithClock(f.clock), usecase.WithJournal(j))
	require.NoError(t, err)

	pending, err := restored.InDoubt(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, ref, pending[0].TransactionID)
	require.Equal(t, domain.OperationTypeWithdraw, pending[1].Type)

	bal, err := restored.BalanceOf(ctx, usdc, bob)
	require.NoError(t, err)
	require.True(t, bal.IsZero())
	bal, err = restored.BalanceOf(ctx, usdc, alice)
	require.NoError(t, err)
	require.Equal(t, "2000000", bal.Dec())
	c, err := restored.Capacity(ctx)
	require.NoError(t, err)
	require.Equal(t, "2000000", c.Total.Dec())
	a, err := restored.WithdrawalAllowance(ctx, alice)
	require.NoError(t, err)
	require.True(t, a.Spent.IsZero())

	// 對帳後以相同 RefID 重送會真正執行
	r, err := restored.Deposit(ctx, deposit)
	require.NoError(t, err)
	require.Equal(t, "700000", r.NewBalance.Dec())
}

func TestDepositSlippage(t *testing.T) {
	f := newFixture(t, baseConfig())
	ctx := context.Background()
	f.feed.Publish("native", 200_000_000_000, 8)

	target := uint256.NewInt(10_000_000)
	quote, err := f.bank.QuoteDeposit(ctx, domain.NativeAsset, target)
	require.NoError(t, err)
	require.Equal(t, "5000000000000000", quote.Dec())

	_, err = f.bank.Deposit(ctx, usecase.DepositRequest{
		Account: alice, Asset: domain.NativeAsset, Amount: uint256.MustFromDecimal("4950000000000000"),
		TargetUSD: target, SlippageBps: 50,
	})
	var slip *domain.SlippageExceededError
	require.ErrorAs(t, err, &slip)
	require.Equal(t, quote.Dec(), slip.Quoted.Dec())
	require.Equal(t, uint32(50), slip.ToleranceBps)

	r, err := f.bank.Deposit(ctx, usecase.DepositRequest{
		Account: alice, Asset: domain.NativeAsset, Amount: uint256.MustFromDecimal("4980000000000000"),
		TargetUSD: target, SlippageBps: 50,
	})
	require.NoError(t, err)
	require.Equal(t, "9960000", r.USDValue.Dec())
}

func TestAdminOperations(t *testing.T) {
	f := newFixture(t, baseConfig())
	ctx := context.Background()
	dai := util.Uint160{0xda}

	require.ErrorIs(t, f.bank.RegisterToken(ctx, alice, domain.Asset{ID: dai, Decimals: 18, Feed: "dai"}), domain.ErrUnauthorized)
	require.ErrorIs(t, f.bank.RegisterToken(ctx, admin, domain.Asset{ID: domain.NativeAsset, Decimals: 18, Feed: "x"}), domain.ErrAssetAlreadyRegistered)
	require.ErrorIs(t, f.bank.RegisterToken(ctx, admin, domain.Asset{ID: usdc, Decimals: 6, Feed: "usdc"}), domain.ErrAssetAlreadyRegistered)
	require.ErrorIs(t, f.bank.RegisterToken(ctx, admin, domain.Asset{ID: dai, Decimals: 77, Feed: "dai"}), domain.ErrInvalidDecimals)
	require.ErrorIs(t, f.bank.RegisterToken(ctx, admin, domain.Asset{ID: dai, Decimals: 18}), domain.ErrInvalidFeed)

	require.NoError(t, f.bank.RegisterToken(ctx, admin, domain.Asset{ID: dai, Decimals: 18, Feed: "dai"}))
	require.Equal(t, "TokenRegistered", f.sink.last().EventName())

	// 價格來源還沒有資料
	_, err := f.bank.Deposit(ctx, usecase.DepositRequest{Account: alice, Asset: dai, Amount: oneToken})
	require.ErrorIs(t, err, oracle.ErrFeedNotFound)

	require.NoError(t, f.bank.UpdateFeed(ctx, admin, dai, "usdc"))
	f.deposit(t, alice, dai, oneToken)
	require.ErrorIs(t, f.bank.UpdateFeed(ctx, admin, util.Uint160{0x42}, "x"), domain.ErrAssetNotRegistered)

	assets, err := f.bank.Assets(ctx)
	require.NoError(t, err)
	require.Len(t, assets, 3)
	require.True(t, assets[0].IsNative())

	require.NoError(t, f.bank.SetWithdrawalLimits(ctx, admin, uint256.NewInt(1), uint256.NewInt(2)))
	a, err := f.bank.WithdrawalAllowance(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, "1", a.MaxWithdrawal.Dec())
	require.Equal(t, "2", a.DailyLimit.Dec())

	require.NoError(t, f.bank.SetWithdrawalLimits(ctx, admin, nil, nil))
	a, err = f.bank.WithdrawalAllowance(ctx, alice)
	require.NoError(t, err)
	require.Nil(t, a.Remaining)
}

func TestConservation(t *testing.T) {
	f := newFixture(t, baseConfig())
	ctx := context.Background()
	rng := rand.New(rand.NewSource(7))
	accounts := []domain.Address{alice, bob, carol}
	expected := make(map[domain.Address]*uint256.Int)
	for _, a := range accounts {
		expected[a] = new(uint256.Int)
	}

	for i := 0; i < 500; i++ {
		from := accounts[rng.Intn(len(accounts))]
		amount := uint256.NewInt(uint64(rng.Intn(1_000_000) + 1))
		switch rng.Intn(3) {
		case 0:
			f.deposit(t, from, usdc, amount)
			expected[from].Add(expected[from], amount)
		case 1:
			_, err := f.bank.Withdraw(ctx, usecase.WithdrawRequest{Account: from, Asset: usdc, Amount: amount})
			if expected[from].Lt(amount) {
				require.ErrorIs(t, err, domain.ErrInsufficientBalance)
				continue
			}
			require.NoError(t, err)
			expected[from].Sub(expected[from], amount)
		case 2:
			to := accounts[rng.Intn(len(accounts))]
			_, err := f.bank.Transfer(ctx, usecase.TransferRequest{From: from, Asset: usdc, To: usecase.Recipient{Address: to}, Amount: amount})
			switch {
			case to == from:
				require.ErrorIs(t, err, domain.ErrSameAccount)
				continue
			case expected[from].Lt(amount):
				require.ErrorIs(t, err, domain.ErrInsufficientBalance)
				continue
			}
			require.NoError(t, err)
			expected[from].Sub(expected[from], amount)
			expected[to].Add(expected[to], amount)
		}
	}

	sum := new(uint256.Int)
	for _, a := range accounts {
		require.Equal(t, expected[a].Dec(), f.balance(t, usdc, a))
		sum.Add(sum, expected[a])
	}
	total, err := f.bank.TotalDeposited(ctx, usdc)
	require.NoError(t, err)
	require.Equal(t, sum.Dec(), total.Dec())

	holders, err := f.bank.Holders(ctx, usdc)
	require.NoError(t, err)
	held := new(uint256.Int)
	for _, h := range holders {
		held.Add(held, h.Amount)
	}
	require.Equal(t, sum.Dec(), held.Dec())
}

func TestRecoverFromJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.wal")
	cfg := baseConfig()
	cfg.DailyWithdrawal = uint256.NewInt(10_000_000)
	dai := util.Uint160{0xda}
	ctx := context.Background()
	ref := uuid.New()

	j, err := journal.Open(path)
	require.NoError(t, err)
	f := newFixture(t, cfg, usecase.WithJournal(j))

	require.NoError(t, f.bank.RegisterToken(ctx, admin, domain.Asset{ID: dai, Decimals: 18, Feed: "usdc"}))
	_, err = f.bank.Deposit(ctx, usecase.DepositRequest{RefID: ref, Account: alice, Asset: usdc, Amount: uint256.NewInt(3_000_000)})
	require.NoError(t, err)
	f.deposit(t, bob, dai, oneToken)
	_, err = f.bank.SetContact(ctx, usecase.ContactRequest{Owner: alice, Contact: bob, Alias: "bob", Limit: uint256.NewInt(9)})
	require.NoError(t, err)
	_, err = f.bank.Transfer(ctx, usecase.TransferRequest{From: alice, Asset: usdc, To: usecase.Recipient{Alias: "bob"}, Amount: uint256.NewInt(500_000)})
	require.NoError(t, err)
	_, err = f.bank.Withdraw(ctx, usecase.WithdrawRequest{Account: alice, Asset: usdc, Amount: uint256.NewInt(1_000_000)})
	require.NoError(t, err)

	// 失敗的提款會留下 abort 紀錄，重放時要跳過
	f.custody.Reject(bob, true)
	_, err = f.bank.Withdraw(ctx, usecase.WithdrawRequest{Account: bob, Asset: usdc, Amount: uint256.NewInt(500_000)})
	require.ErrorIs(t, err, domain.ErrTransferFailed)
	require.NoError(t, f.bank.SetBankCap(ctx, admin, uint256.NewInt(50_000_000)))
	require.NoError(t, j.Close())

	j, err = journal.Open(path)
	require.NoError(t, err)
	defer j.Close()
	restored, err := usecase.NewBank(cfg, f.feed, f.custody, f.policy, usecase.WithClock(f.clock), usecase.WithJournal(j))
	require.NoError(t, err)

	bal, err := restored.BalanceOf(ctx, usdc, alice)
	require.NoError(t, err)
	require.Equal(t, "1500000", bal.Dec())
	bal, err = restored.BalanceOf(ctx, usdc, bob)
	require.NoError(t, err)
	require.Equal(t, "500000", bal.Dec())
	bal, err = restored.BalanceOf(ctx, dai, bob)
	require.NoError(t, err)
	require.Equal(t, oneToken.Dec(), bal.Dec())

	c, err := restored.Capacity(ctx)
	require.NoError(t, err)
	require.Equal(t, "50000000", c.Cap.Dec())
	require.Equal(t, "3000000", c.Total.Dec())

	a, err := restored.WithdrawalAllowance(ctx, alice)
	require.NoError(t, err)
	require.Equal(t, "1000000", a.Spent.Dec())
	a, err = restored.WithdrawalAllowance(ctx, bob)
	require.NoError(t, err)
	require.True(t, a.Spent.IsZero())

	addr, err := restored.ResolveAlias(ctx, alice, "bob")
	require.NoError(t, err)
	require.Equal(t, bob, addr)

	// RefID 在重啟後仍然冪等
	r, err := restored.Deposit(ctx, usecase.DepositRequest{RefID: ref, Account: alice, Asset: usdc, Amount: uint256.NewInt(3_000_000)})
	require.NoError(t, err)
	require.Equal(t, "3000000", r.Amount.Dec())
	bal, err = restored.BalanceOf(ctx, usdc, alice)
	require.NoError(t, err)
	require.Equal(t, "1500000", bal.Dec())

	// 新操作的順序號接續在 journal 之後
	r, err = restored.Deposit(ctx, usecase.DepositRequest{Account: carol, Asset: usdc, Amount: uint256.NewInt(1)})
	require.NoError(t, err)
	require.Greater(t, r.Sequence, uint64(8))
}
