package oracle

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
)

type feedStub struct {
	latestRoundFn func(ctx context.Context, handle string) (domain.RoundData, error)
}

func (s feedStub) LatestRound(ctx context.Context, handle string) (domain.RoundData, error) {
	return s.latestRoundFn(ctx, handle)
}

func staticFeed(round domain.RoundData) feedStub {
	return feedStub{latestRoundFn: func(context.Context, string) (domain.RoundData, error) {
		return round, nil
	}}
}

var ethUSD = domain.Asset{ID: domain.NativeAsset, Decimals: 18, Feed: "ETH/USD"}

func newMockClock() *clock.Mock {
	clk := clock.NewMock()
	clk.Set(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	return clk
}

func TestPriceNormalizes(t *testing.T) {
	clk := newMockClock()
	cases := []struct {
		name     string
		answer   int64
		decimals uint8
		want     string
	}{
		{"same scale", 300000000000, 8, "300000000000"},
		{"scale up", 3000, 0, "300000000000"},
		{"scale down", 3000000000000000000, 15, "300000000000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := NewAdapter(staticFeed(domain.RoundData{
				Answer:          tc.answer,
				Decimals:        tc.decimals,
				UpdatedAt:       clk.Now().Add(-time.Minute),
				RoundID:         7,
				AnsweredInRound: 7,
			}), clk, 0)
			price, err := a.Price(context.Background(), ethUSD)
			require.NoError(t, err)
			require.Equal(t, tc.want, price.Dec())
		})
	}
}

func TestPriceRejectsNonPositive(t *testing.T) {
	clk := newMockClock()
	for _, answer := range []int64{0, -1} {
		a := NewAdapter(staticFeed(domain.RoundData{
			Answer: answer, Decimals: 8, UpdatedAt: clk.Now(), RoundID: 1, AnsweredInRound: 1,
		}), clk, 0)
		_, err := a.Price(context.Background(), ethUSD)
		require.ErrorIs(t, err, domain.ErrInvalidPrice)
	}
}

func TestPriceStale(t *testing.T) {
	clk := newMockClock()
	fresh := domain.RoundData{Answer: 100000000, Decimals: 8, UpdatedAt: clk.Now(), RoundID: 5, AnsweredInRound: 5}

	cases := []struct {
		name   string
		mutate func(r *domain.RoundData)
	}{
		{"round mismatch", func(r *domain.RoundData) { r.AnsweredInRound = 4 }},
		{"never updated", func(r *domain.RoundData) { r.UpdatedAt = time.Time{} }},
		{"unix zero", func(r *domain.RoundData) { r.UpdatedAt = time.Unix(0, 0) }},
		{"25 hours old", func(r *domain.RoundData) { r.UpdatedAt = clk.Now().Add(-25 * time.Hour) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			round := fresh
			tc.mutate(&round)
			_, err := NewAdapter(staticFeed(round), clk, 0).Price(context.Background(), ethUSD)
			require.ErrorIs(t, err, domain.ErrStalePrice)

			var stale *domain.StalePriceError
			require.True(t, errors.As(err, &stale))
			require.Equal(t, "ETH/USD", stale.Feed)
		})
	}
}

func TestPriceAtExactMaxAgeIsFresh(t *testing.T) {
	clk := newMockClock()
	round := domain.RoundData{Answer: 100000000, Decimals: 8, UpdatedAt: clk.Now().Add(-DefaultMaxAge), RoundID: 1, AnsweredInRound: 1}
	_, err := NewAdapter(staticFeed(round), clk, 0).Price(context.Background(), ethUSD)
	require.NoError(t, err)
}

func TestPriceFeedError(t *testing.T) {
	boom := errors.New("feed down")
	a := NewAdapter(feedStub{latestRoundFn: func(context.Context, string) (domain.RoundData, error) {
		return domain.RoundData{}, boom
	}}, newMockClock(), time.Hour)
	_, err := a.Price(context.Background(), ethUSD)
	require.ErrorIs(t, err, boom)
	require.Equal(t, time.Hour, a.MaxAge())
}
