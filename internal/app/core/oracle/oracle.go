// Package oracle 包裝外部價格來源，負責價格正規化與過期檢查。
package oracle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/holiman/uint256"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/convert"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
)

// DefaultMaxAge 價格最長有效時間
const DefaultMaxAge = 24 * time.Hour

// ErrFeedNotFound 價格來源沒有這個 handle
var ErrFeedNotFound = errors.New("feed not found")

// Feed 外部價格來源
type Feed interface {
	// LatestRound 取得 handle 對應的最新一輪價格
	LatestRound(ctx context.Context, handle string) (domain.RoundData, error)
}

// Adapter 價格查詢轉接層。不快取、不重試，每次換算都重新查詢
type Adapter struct {
	feed   Feed
	clock  clock.Clock
	maxAge time.Duration
}

// NewAdapter 建立 Adapter；maxAge <= 0 時使用 DefaultMaxAge
func NewAdapter(feed Feed, clk clock.Clock, maxAge time.Duration) *Adapter {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	if clk == nil {
		clk = clock.New()
	}
	return &Adapter{feed: feed, clock: clk, maxAge: maxAge}
}

// MaxAge 回傳價格有效時間
func (a *Adapter) MaxAge() time.Duration {
	return a.maxAge
}

// Price 取得資產的正規化價格 (8 位小數)
//
// 參數:
//
//	ctx: 上下文
//	asset: 已註冊的資產
//
// 回傳:
//
//	*uint256.Int: 正規化後的價格
//	error: ErrInvalidPrice / StalePriceError / 價格來源錯誤
func (a *Adapter) Price(ctx context.Context, asset domain.Asset) (*uint256.Int, error) {
	round, err := a.feed.LatestRound(ctx, asset.Feed)
	if err != nil {
		return nil, fmt.Errorf("query feed %q: %w", asset.Feed, err)
	}
	if round.Answer <= 0 {
		return nil, fmt.Errorf("%w: feed %q answered %d", domain.ErrInvalidPrice, asset.Feed, round.Answer)
	}
	if err := a.checkFresh(asset.Feed, round); err != nil {
		return nil, err
	}

	price, err := convert.NormalizePrice(uint256.NewInt(uint64(round.Answer)), round.Decimals)
	if err != nil {
		return nil, err
	}
	// 精度縮小後變成 0 也視為無效價格
	if price.IsZero() {
		return nil, fmt.Errorf("%w: feed %q answer below precision", domain.ErrInvalidPrice, asset.Feed)
	}
	return price, nil
}

func (a *Adapter) checkFresh(feed string, round domain.RoundData) error {
	stale := round.AnsweredInRound < round.RoundID ||
		round.UpdatedAt.IsZero() || round.UpdatedAt.Unix() == 0 ||
		a.clock.Now().Sub(round.UpdatedAt) > a.maxAge
	if !stale {
		return nil
	}
	return &domain.StalePriceError{
		Feed:            feed,
		UpdatedAt:       round.UpdatedAt,
		RoundID:         round.RoundID,
		AnsweredInRound: round.AnsweredInRound,
	}
}
