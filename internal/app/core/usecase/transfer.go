package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/txn"
)

// Recipient 內部轉帳對象，Alias 優先於 Address
type Recipient struct {
	Address domain.Address
	Alias   string
}

// TransferRequest 內部轉帳請求
type TransferRequest struct {
	RefID  uuid.UUID
	From   domain.Address
	Asset  domain.AssetID
	To     Recipient
	Amount *uint256.Int
}

// Transfer 內部轉帳
//
// 只移動帳本餘額，不查價、不動全域上限與提款額度、不呼叫 custody。
// 原生資產轉給設有上限的聯絡人時，raw amount 不可超過上限。
func (b *Bank) Transfer(ctx context.Context, req TransferRequest) (receipt domain.Receipt, err error) {
	start := b.clock.Now()
	defer func() { b.observe("transfer", start, err) }()

	unlock, err := b.begin(ctx, true)
	if err != nil {
		return domain.Receipt{}, err
	}
	defer unlock()

	if r, ok, err := b.processed(req.RefID, domain.OperationTypeTransfer, req.From, req.Asset, req.Amount); err != nil || ok {
		return r, err
	}

	if err := requirePositive(req.Amount); err != nil {
		return domain.Receipt{}, err
	}
	if err := requireAccount(req.From); err != nil {
		return domain.Receipt{}, err
	}
	asset, err := b.asset(req.Asset)
	if err != nil {
		return domain.Receipt{}, err
	}

	to, err := b.resolveRecipient(req.From, req.To)
	if err != nil {
		return domain.Receipt{}, err
	}

	if asset.IsNative() {
		if c, ok := b.contacts.Get(req.From, to); ok && c.HasLimit() && req.Amount.Gt(c.Limit) {
			return domain.Receipt{}, &domain.LimitExceededError{
				Limit:     c.Limit,
				Requested: new(uint256.Int).Set(req.Amount),
			}
		}
	}

	tx := txn.New()
	defer tx.Rollback()
	newBalance, err := b.balances.Debit(tx, asset.ID, req.From, req.Amount)
	if err != nil {
		return domain.Receipt{}, err
	}
	if _, err := b.balances.Credit(tx, asset.ID, to, req.Amount); err != nil {
		return domain.Receipt{}, err
	}

	op := b.newOperation(domain.OperationTypeTransfer, req.RefID)
	op.From = req.From
	op.To = to
	op.Asset = asset.ID
	op.Amount = new(uint256.Int).Set(req.Amount)
	if err := b.commit(ctx, tx, op, nil); err != nil {
		return domain.Receipt{}, err
	}

	receipt = b.remember(op, req.From, to, newBalance)
	b.publish(ctx, domain.InternalTransferEvent{
		EventMeta: b.meta(op),
		Asset:     asset.ID,
		From:      req.From,
		To:        to,
		Amount:    op.Amount,
	})
	return receipt, nil
}

func (b *Bank) resolveRecipient(from domain.Address, r Recipient) (domain.Address, error) {
	to := r.Address
	if r.Alias != "" {
		addr, err := b.contacts.Resolve(from, r.Alias)
		if err != nil {
			return domain.ZeroAddress, err
		}
		to = addr
	}
	if domain.IsZeroAddress(to) {
		return domain.ZeroAddress, domain.ErrInvalidContact
	}
	if to == from {
		return domain.ZeroAddress, domain.ErrSameAccount
	}
	return to, nil
}
