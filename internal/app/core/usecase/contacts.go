package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/holiman/uint256"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/txn"
)

// ContactRequest 聯絡人設定請求
type ContactRequest struct {
	Owner   domain.Address
	Contact domain.Address
	Alias   string
	// Limit 原生資產單筆轉帳上限 (raw amount)，nil 或 0 代表不限制
	Limit *uint256.Int
}

// SetContact 新增或更新聯絡人 (同一聯絡人改別名時舊別名會被釋放)
//
// 參數:
//
//	ctx: 上下文
//	req: Owner / Contact / Alias / Limit
//
// 回傳:
//
//	domain.Contact: 寫入後的聯絡人
//	error: ErrInvalidContact / ErrInvalidAlias / ErrAliasTaken / ErrOperationsPaused
func (b *Bank) SetContact(ctx context.Context, req ContactRequest) (c domain.Contact, err error) {
	start := b.clock.Now()
	defer func() { b.observe("set_contact", start, err) }()

	unlock, err := b.begin(ctx, true)
	if err != nil {
		return domain.Contact{}, err
	}
	defer unlock()

	if err := requireAccount(req.Owner); err != nil {
		return domain.Contact{}, err
	}

	tx := txn.New()
	defer tx.Rollback()
	c, err = b.contacts.Set(tx, req.Owner, req.Contact, req.Alias, req.Limit)
	if err != nil {
		return domain.Contact{}, err
	}

	op := b.newOperation(domain.OperationTypeContactSet, uuid.Nil)
	op.From = req.Owner
	op.To = req.Contact
	op.Alias = req.Alias
	op.Limit = c.Limit
	if err := b.commit(ctx, tx, op, nil); err != nil {
		return domain.Contact{}, err
	}

	b.publish(ctx, domain.ContactSetEvent{
		EventMeta: b.meta(op),
		Owner:     c.Owner,
		Contact:   c.Address,
		Alias:     c.Alias,
		Limit:     c.Limit,
	})
	return c, nil
}

// RemoveContact 刪除聯絡人並釋放其別名
func (b *Bank) RemoveContact(ctx context.Context, owner, addr domain.Address) (err error) {
	start := b.clock.Now()
	defer func() { b.observe("remove_contact", start, err) }()

	unlock, err := b.begin(ctx, true)
	if err != nil {
		return err
	}
	defer unlock()

	tx := txn.New()
	defer tx.Rollback()
	c, err := b.contacts.Remove(tx, owner, addr)
	if err != nil {
		return err
	}

	op := b.newOperation(domain.OperationTypeContactRemove, uuid.Nil)
	op.From = owner
	op.To = addr
	if err := b.commit(ctx, tx, op, nil); err != nil {
		return err
	}

	b.publish(ctx, domain.ContactRemovedEvent{
		EventMeta: b.meta(op),
		Owner:     owner,
		Contact:   addr,
		Alias:     c.Alias,
	})
	return nil
}

// UpdateContactLimit 只更新聯絡人的轉帳上限
func (b *Bank) UpdateContactLimit(ctx context.Context, owner, addr domain.Address, limit *uint256.Int) (c domain.Contact, err error) {
	start := b.clock.Now()
	defer func() { b.observe("update_contact_limit", start, err) }()

	unlock, err := b.begin(ctx, true)
	if err != nil {
		return domain.Contact{}, err
	}
	defer unlock()

	tx := txn.New()
	defer tx.Rollback()
	c, err = b.contacts.UpdateLimit(tx, owner, addr, limit)
	if err != nil {
		return domain.Contact{}, err
	}

	op := b.newOperation(domain.OperationTypeContactLimit, uuid.Nil)
	op.From = owner
	op.To = addr
	op.Limit = c.Limit
	if err := b.commit(ctx, tx, op, nil); err != nil {
		return domain.Contact{}, err
	}

	b.publish(ctx, domain.ContactLimitUpdatedEvent{
		EventMeta: b.meta(op),
		Owner:     owner,
		Contact:   addr,
		Limit:     c.Limit,
	})
	return c, nil
}
