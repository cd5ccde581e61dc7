package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/holiman/uint256"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/usecase"
)

// ErrRecipientRejected 收款方拒收
var ErrRecipientRejected = errors.New("recipient rejected transfer")

var _ usecase.Custody = (*Custody)(nil)

// Direction 資產移動方向
type Direction uint8

const (
	DirectionIn Direction = iota + 1
	DirectionOut
)

// Move 一筆已完成的外部資產移動
type Move struct {
	Direction Direction
	Asset     domain.AssetID
	Account   domain.Address
	Amount    *uint256.Int
}

// Custody 記憶體內的資產保管，只記錄移動紀錄
//
// Reject 的地址會拒收轉出；Hook 在每次移動前呼叫，回傳錯誤即視為轉帳失敗。
type Custody struct {
	mu       sync.Mutex
	moves    []Move
	rejected map[domain.Address]struct{}
	hook     func(ctx context.Context, m Move) error
}

// NewCustody 建立 Custody
func NewCustody() *Custody {
	return &Custody{rejected: make(map[domain.Address]struct{})}
}

// TransferIn 從 from 轉入 token
func (c *Custody) TransferIn(ctx context.Context, asset domain.AssetID, from domain.Address, amount *uint256.Int) error {
	return c.move(ctx, Move{Direction: DirectionIn, Asset: asset, Account: from, Amount: new(uint256.Int).Set(amount)})
}

// TransferOut 把資產推送給 to
func (c *Custody) TransferOut(ctx context.Context, asset domain.AssetID, to domain.Address, amount *uint256.Int) error {
	c.mu.Lock()
	_, rejected := c.rejected[to]
	c.mu.Unlock()
	if rejected {
		return ErrRecipientRejected
	}
	return c.move(ctx, Move{Direction: DirectionOut, Asset: asset, Account: to, Amount: new(uint256.Int).Set(amount)})
}

func (c *Custody) move(ctx context.Context, m Move) error {
	c.mu.Lock()
	hook := c.hook
	c.mu.Unlock()
	// hook 可能回呼帳本，不能在持鎖時呼叫
	if hook != nil {
		if err := hook(ctx, m); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.moves = append(c.moves, m)
	return nil
}

// Reject 讓 to 拒收之後的轉出 (reject=false 取消)
func (c *Custody) Reject(to domain.Address, reject bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if reject {
		c.rejected[to] = struct{}{}
	} else {
		delete(c.rejected, to)
	}
}

// SetHook 設定每次移動前呼叫的函數
func (c *Custody) SetHook(hook func(ctx context.Context, m Move) error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hook = hook
}

// Moves 回傳所有已完成移動的複本
func (c *Custody) Moves() []Move {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Move, len(c.moves))
	copy(out, c.moves)
	return out
}
