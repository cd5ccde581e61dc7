package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/oracle"
)

var _ oracle.Feed = (*Feed)(nil)

// Feed 記憶體內的價格來源
// 讓服務不接外部預言機也能獨立運作；價格由管理 RPC 或設定檔推入
type Feed struct {
	mu     sync.RWMutex
	clock  clock.Clock
	rounds map[string]domain.RoundData
}

// NewFeed 建立空的 Feed
func NewFeed(clk clock.Clock) *Feed {
	if clk == nil {
		clk = clock.New()
	}
	return &Feed{clock: clk, rounds: make(map[string]domain.RoundData)}
}

// LatestRound 取得 handle 最新一輪價格
func (f *Feed) LatestRound(_ context.Context, handle string) (domain.RoundData, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	round, ok := f.rounds[handle]
	if !ok {
		return domain.RoundData{}, fmt.Errorf("%w: %q", oracle.ErrFeedNotFound, handle)
	}
	return round, nil
}

// Publish 以目前時間發布新一輪價格，round id 自動遞增
//
// 參數:
//
//	handle: 價格來源名稱
//	answer: 價格 (精度為 decimals)
//	decimals: 價格精度
//
// 回傳:
//
//	domain.RoundData: 發布後的價格
func (f *Feed) Publish(handle string, answer int64, decimals uint8) domain.RoundData {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := f.rounds[handle].RoundID + 1
	round := domain.RoundData{
		Answer:          answer,
		Decimals:        decimals,
		UpdatedAt:       f.clock.Now(),
		RoundID:         next,
		AnsweredInRound: next,
	}
	f.rounds[handle] = round
	return round
}

// SetRound 直接覆寫整輪資料 (可模擬過期或 round 不一致)
func (f *Feed) SetRound(handle string, round domain.RoundData) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rounds[handle] = round
}
