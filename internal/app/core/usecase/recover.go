package usecase

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/txn"
)

// recoverFromJournal 從 journal 恢復帳本狀態
//
// journal 紀錄的是已通過檢查的結果，重放時不查價、不檢查上限。
// 需要外部轉帳的操作只有在之後出現 commit 紀錄時才套用；
// 有 abort 紀錄的跳過；兩者都沒有的代表程序在外部轉帳途中中止，
// 結果未知，不套用並留在 inDoubt 等待人工對帳。
//
// 回傳:
//
//	error: journal 讀取失敗或內容與帳本狀態不一致
func (b *Bank) recoverFromJournal() error {
	history := make([]*domain.Operation, 0)
	aborted := make(map[uint64]struct{})
	committed := make(map[uint64]struct{})

	err := b.journal.Replay(func(op *domain.Operation) error {
		switch op.Type {
		case domain.OperationTypeAbort:
			aborted[op.Aborts] = struct{}{}
		case domain.OperationTypeCommit:
			committed[op.Commits] = struct{}{}
		}
		history = append(history, op)
		return nil
	})
	if err != nil {
		return fmt.Errorf("replay journal: %w", err)
	}

	applied := 0
	for _, op := range history {
		if op.Sequence > b.seq {
			b.seq = op.Sequence
		}
		if op.Type.IsMarker() {
			continue
		}
		if _, ok := aborted[op.Sequence]; ok {
			continue
		}
		if _, ok := committed[op.Sequence]; op.External && !ok {
			b.inDoubt = append(b.inDoubt, *op)
			b.logger.Error("operation without commit or abort record skipped, reconcile with custody",
				zap.Uint64("seq", op.Sequence),
				zap.Stringer("type", op.Type),
				zap.Stringer("ref_id", op.TransactionID),
				zap.String("asset", domain.FormatAddress(op.Asset)),
				zap.String("amount", orZero(op.Amount).Dec()))
			continue
		}
		if err := b.applyRecoverOperation(op); err != nil {
			return fmt.Errorf("recover seq %d (%s): %w", op.Sequence, op.Type, err)
		}
		applied++
	}

	b.logger.Info("ledger recovered from journal",
		zap.Int("records", len(history)),
		zap.Int("applied", applied),
		zap.Int("aborted", len(aborted)),
		zap.Int("in_doubt", len(b.inDoubt)),
		zap.Uint64("last_seq", b.seq))
	return nil
}

// applyRecoverOperation 恢復單筆操作至記憶體 (不寫入 journal)
// 只有 NewBank 呼叫，無需 Lock (單執行緒)
func (b *Bank) applyRecoverOperation(op *domain.Operation) error {
	tx := txn.New()
	defer tx.Commit()

	switch op.Type {
	case domain.OperationTypeDeposit:
		newBalance, err := b.balances.Credit(tx, op.Asset, op.To, op.Amount)
		if err != nil {
			return err
		}
		if op.USDValue != nil {
			b.bankCap.ForceIncrease(op.USDValue)
		}
		b.remember(op, op.To, domain.ZeroAddress, newBalance)

	case domain.OperationTypeWithdraw:
		newBalance, err := b.balances.Debit(tx, op.Asset, op.From, op.Amount)
		if err != nil {
			return err
		}
		if op.USDValue != nil {
			b.bankCap.ApplyDecrease(tx, op.USDValue)
			if op.DailyWithdrawal != nil && !op.DailyWithdrawal.IsZero() {
				b.limiter.ForceConsume(op.From, op.USDValue, time.Unix(0, op.CreatedAt))
			}
		}
		b.remember(op, op.From, domain.ZeroAddress, newBalance)

	case domain.OperationTypeTransfer:
		newBalance, err := b.balances.Debit(tx, op.Asset, op.From, op.Amount)
		if err != nil {
			return err
		}
		if _, err := b.balances.Credit(tx, op.Asset, op.To, op.Amount); err != nil {
			return err
		}
		b.remember(op, op.From, op.To, newBalance)

	case domain.OperationTypeContactSet:
		if _, err := b.contacts.Set(tx, op.From, op.To, op.Alias, op.Limit); err != nil {
			return err
		}

	case domain.OperationTypeContactRemove:
		if _, err := b.contacts.Remove(tx, op.From, op.To); err != nil {
			return err
		}

	case domain.OperationTypeContactLimit:
		if _, err := b.contacts.UpdateLimit(tx, op.From, op.To, op.Limit); err != nil {
			return err
		}

	case domain.OperationTypeRegisterToken:
		// journal 的註冊紀錄優先於啟動設定
		b.putAsset(tx, domain.Asset{ID: op.Asset, Decimals: op.Decimals, Feed: op.Feed})

	case domain.OperationTypeUpdateFeed:
		asset, err := b.asset(op.Asset)
		if err != nil {
			return err
		}
		asset.Feed = op.Feed
		b.putAsset(tx, asset)

	case domain.OperationTypeSetBankCap:
		b.bankCap.SetCap(tx, orZero(op.Cap))

	case domain.OperationTypeSetWithdrawalLimits:
		b.maxWithdrawal.Set(orZero(op.MaxWithdrawal))
		b.dailyWithdrawal.Set(orZero(op.DailyWithdrawal))

	default:
		return fmt.Errorf("unknown operation type %d", op.Type)
	}
	return nil
}
