// Package contact 維護每個帳戶的聯絡人與別名索引。
package contact

import (
	"sort"

	"github.com/holiman/uint256"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/txn"
)

type contactKey struct {
	owner   domain.Address
	contact domain.Address
}

type aliasKey struct {
	owner domain.Address
	alias domain.AliasKey
}

// Directory 聯絡人目錄
//
// 不變量: 同一 owner 下，一個別名最多指向一個聯絡人地址；
// 改名或刪除聯絡人時必須先移除舊的別名索引，否則別名會永遠卡在已刪除的聯絡人上。
type Directory struct {
	contacts map[contactKey]domain.Contact
	aliases  map[aliasKey]domain.Address
}

// NewDirectory 建立空的 Directory
func NewDirectory() *Directory {
	return &Directory{
		contacts: make(map[contactKey]domain.Contact),
		aliases:  make(map[aliasKey]domain.Address),
	}
}

// Set 新增或更新聯絡人
//
// 參數:
//
//	tx: undo log
//	owner: 擁有者
//	addr: 聯絡人地址 (不可為空地址，也不可為 owner 本身)
//	alias: 別名 (不可為空)
//	limit: 原生資產單筆轉帳上限，nil 或 0 代表不限制
//
// 回傳:
//
//	domain.Contact: 寫入後的聯絡人
//	error: ErrInvalidContact / ErrInvalidAlias / ErrAliasTaken
func (d *Directory) Set(tx *txn.Tx, owner, addr domain.Address, alias string, limit *uint256.Int) (domain.Contact, error) {
	if domain.IsZeroAddress(addr) || addr == owner {
		return domain.Contact{}, domain.ErrInvalidContact
	}
	if alias == "" {
		return domain.Contact{}, domain.ErrInvalidAlias
	}

	newAlias := aliasKey{owner: owner, alias: domain.HashAlias(alias)}
	if taken, ok := d.aliases[newAlias]; ok && taken != addr {
		return domain.Contact{}, domain.ErrAliasTaken
	}

	ck := contactKey{owner: owner, contact: addr}
	// 改名: 先移除舊別名索引
	if prev, ok := d.contacts[ck]; ok && prev.Alias != alias {
		d.deleteAlias(tx, aliasKey{owner: owner, alias: domain.HashAlias(prev.Alias)})
	}

	c := domain.Contact{
		Owner:   owner,
		Address: addr,
		Alias:   alias,
		Limit:   cloneOrZero(limit),
	}
	d.putAlias(tx, newAlias, addr)
	d.putContact(tx, ck, c)
	return cloneContact(c), nil
}

// Remove 刪除聯絡人與其別名索引
func (d *Directory) Remove(tx *txn.Tx, owner, addr domain.Address) (domain.Contact, error) {
	ck := contactKey{owner: owner, contact: addr}
	c, ok := d.contacts[ck]
	if !ok {
		return domain.Contact{}, domain.ErrContactNotFound
	}
	d.deleteAlias(tx, aliasKey{owner: owner, alias: domain.HashAlias(c.Alias)})
	d.deleteContact(tx, ck)
	return cloneContact(c), nil
}

// UpdateLimit 只更新轉帳上限
func (d *Directory) UpdateLimit(tx *txn.Tx, owner, addr domain.Address, limit *uint256.Int) (domain.Contact, error) {
	ck := contactKey{owner: owner, contact: addr}
	c, ok := d.contacts[ck]
	if !ok {
		return domain.Contact{}, domain.ErrContactNotFound
	}
	c.Limit = cloneOrZero(limit)
	d.putContact(tx, ck, c)
	return cloneContact(c), nil
}

// Resolve 以別名查詢聯絡人地址
func (d *Directory) Resolve(owner domain.Address, alias string) (domain.Address, error) {
	addr, ok := d.aliases[aliasKey{owner: owner, alias: domain.HashAlias(alias)}]
	if !ok {
		return domain.ZeroAddress, domain.ErrContactNotFound
	}
	return addr, nil
}

// Get 查詢聯絡人
func (d *Directory) Get(owner, addr domain.Address) (domain.Contact, bool) {
	c, ok := d.contacts[contactKey{owner: owner, contact: addr}]
	if !ok {
		return domain.Contact{}, false
	}
	return cloneContact(c), true
}

// List 列出 owner 的所有聯絡人 (依別名排序)
func (d *Directory) List(owner domain.Address) []domain.Contact {
	out := make([]domain.Contact, 0)
	for k, c := range d.contacts {
		if k.owner == owner {
			out = append(out, cloneContact(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Alias < out[j].Alias })
	return out
}

func (d *Directory) putContact(tx *txn.Tx, k contactKey, c domain.Contact) {
	prev, existed := d.contacts[k]
	tx.OnRollback(func() {
		if existed {
			d.contacts[k] = prev
		} else {
			delete(d.contacts, k)
		}
	})
	d.contacts[k] = c
}

func (d *Directory) deleteContact(tx *txn.Tx, k contactKey) {
	prev, existed := d.contacts[k]
	if !existed {
		return
	}
	tx.OnRollback(func() { d.contacts[k] = prev })
	delete(d.contacts, k)
}

func (d *Directory) putAlias(tx *txn.Tx, k aliasKey, addr domain.Address) {
	prev, existed := d.aliases[k]
	tx.OnRollback(func() {
		if existed {
			d.aliases[k] = prev
		} else {
			delete(d.aliases, k)
		}
	})
	d.aliases[k] = addr
}

func (d *Directory) deleteAlias(tx *txn.Tx, k aliasKey) {
	prev, existed := d.aliases[k]
	if !existed {
		return
	}
	tx.OnRollback(func() { d.aliases[k] = prev })
	delete(d.aliases, k)
}

func cloneOrZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return new(uint256.Int).Set(v)
}

func cloneContact(c domain.Contact) domain.Contact {
	c.Limit = cloneOrZero(c.Limit)
	return c
}
