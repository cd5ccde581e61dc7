package usecase

import (
	"context"
	"time"

	"github.com/holiman/uint256"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
)

// Custody 外部資產保管，負責實際移動原生資產與 token
//
// 實作若要回呼帳本，必須沿用收到的 ctx；帳本靠 ctx 上的標記辨識回呼並回傳 ErrReentrantCall，
// 換成 context.Background() 的回呼會卡在帳本的鎖上。
type Custody interface {
	// TransferIn 從 from 轉入 token (原生資產隨呼叫一起送達，不會呼叫這個方法)
	TransferIn(ctx context.Context, asset domain.AssetID, from domain.Address, amount *uint256.Int) error
	// TransferOut 把資產推送給 to，可能因對方拒收而失敗
	TransferOut(ctx context.Context, asset domain.AssetID, to domain.Address, amount *uint256.Int) error
}

// Policy 暫停開關與管理權限
type Policy interface {
	IsPaused() bool
	SetPaused(paused bool)
	HasAdminRole(caller domain.Address) bool
}

// EventSink 接收已提交操作的事件
//
// Publish 在帳本持鎖時同步呼叫；回呼帳本必須沿用收到的 ctx (同 Custody)。
type EventSink interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Journal 操作紀錄，用於重啟後重建狀態
//
// 需要外部轉帳的操作會寫入兩筆: 操作本體與之後的 commit 或 abort 紀錄。
type Journal interface {
	// Append 寫入一筆操作並確保落盤
	Append(op *domain.Operation) error
	// Replay 依寫入順序讀出所有操作
	Replay(fn func(op *domain.Operation) error) error
}

// Recorder 操作指標
type Recorder interface {
	ObserveOperation(op string, err error, elapsed time.Duration)
	SetCustodiedUSD(usd *uint256.Int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveOperation(string, error, time.Duration) {}
func (nopRecorder) SetCustodiedUSD(*uint256.Int)                  {}
