// Package convert 負責 raw amount 與 USD 之間的定點數換算。
//
// 所有 USD 值皆為 domain.USDDecimals 位小數，價格為 domain.PriceDecimals 位小數。
// 換算成 USD 一律無條件捨去 (對帳本有利)，由 USD 反推 raw amount 一律無條件進位
// (不足額的 USD 目標不能被默默接受)。
package convert

import (
	"github.com/holiman/uint256"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
)

// pow10 預先計算 10^0 ~ 10^77 (10^78 超過 256 bits)
var pow10 [78]uint256.Int

func init() {
	pow10[0].SetOne()
	ten := uint256.NewInt(10)
	for i := 1; i < len(pow10); i++ {
		pow10[i].Mul(&pow10[i-1], ten)
	}
}

// Pow10 回傳 10^n 的複本
func Pow10(n uint) *uint256.Int {
	if n >= uint(len(pow10)) {
		panic("convert: exponent out of range")
	}
	return new(uint256.Int).Set(&pow10[n])
}

// usdScale 回傳 raw * price 需要除以的 10 的次方
func usdScale(decimals uint8) (*uint256.Int, error) {
	if decimals > domain.MaxAssetDecimals {
		return nil, domain.ErrInvalidDecimals
	}
	return Pow10(uint(decimals) + domain.PriceDecimals - domain.USDDecimals), nil
}

// ToUSD 將 raw amount 換算成 USD (無條件捨去)
//
// 參數:
//
//	raw: 資產原生精度的數量
//	decimals: 資產精度
//	price: 正規化後的價格 (8 位小數)
//
// 回傳:
//
//	*uint256.Int: USD 值 (6 位小數)
//	error: 價格為 0 或運算溢位
func ToUSD(raw *uint256.Int, decimals uint8, price *uint256.Int) (*uint256.Int, error) {
	if price == nil || price.IsZero() {
		return nil, domain.ErrInvalidPrice
	}
	scale, err := usdScale(decimals)
	if err != nil {
		return nil, err
	}
	usd, overflow := new(uint256.Int).MulDivOverflow(raw, price, scale)
	if overflow {
		return nil, domain.ErrAmountOverflow
	}
	return usd, nil
}

// FromUSD 計算達到 USD 目標所需的 raw amount (無條件進位)
//
// 參數:
//
//	usd: USD 值 (6 位小數)
//	decimals: 資產精度
//	price: 正規化後的價格 (8 位小數)
//
// 回傳:
//
//	*uint256.Int: raw amount
//	error: 價格為 0 或運算溢位
func FromUSD(usd *uint256.Int, decimals uint8, price *uint256.Int) (*uint256.Int, error) {
	if price == nil || price.IsZero() {
		return nil, domain.ErrInvalidPrice
	}
	scale, err := usdScale(decimals)
	if err != nil {
		return nil, err
	}
	raw, overflow := new(uint256.Int).MulDivOverflow(usd, scale, price)
	if overflow {
		return nil, domain.ErrAmountOverflow
	}
	// 有餘數就進位
	if !new(uint256.Int).MulMod(usd, scale, price).IsZero() {
		if _, overflow := raw.AddOverflow(raw, uint256.NewInt(1)); overflow {
			return nil, domain.ErrAmountOverflow
		}
	}
	return raw, nil
}

// NormalizePrice 把回報精度為 decimals 的價格轉成 8 位小數 (縮小時捨去)
func NormalizePrice(answer *uint256.Int, decimals uint8) (*uint256.Int, error) {
	switch {
	case decimals == domain.PriceDecimals:
		return new(uint256.Int).Set(answer), nil
	case decimals < domain.PriceDecimals:
		out, overflow := new(uint256.Int).MulOverflow(answer, Pow10(uint(domain.PriceDecimals-decimals)))
		if overflow {
			return nil, domain.ErrAmountOverflow
		}
		return out, nil
	default:
		shift := uint(decimals - domain.PriceDecimals)
		if shift >= uint(len(pow10)) {
			return new(uint256.Int), nil
		}
		return new(uint256.Int).Div(answer, Pow10(shift)), nil
	}
}
