package convert

import (
	"fmt"
	"strings"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
)

// ParseUnits 將人類可讀的十進位字串 (例如 "12.5") 轉為 decimals 位小數的整數
// 小數位數超過 decimals 時回傳錯誤，不做四捨五入
func ParseUnits(s string, decimals int32) (*uint256.Int, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	return FromDecimal(d, decimals)
}

// FromDecimal 將 decimal 轉為 decimals 位小數的整數
func FromDecimal(d decimal.Decimal, decimals int32) (*uint256.Int, error) {
	if d.IsNegative() {
		return nil, fmt.Errorf("amount %s is negative", d.String())
	}
	shifted := d.Shift(decimals)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", d.String(), decimals)
	}
	v, overflow := uint256.FromBig(shifted.BigInt())
	if overflow {
		return nil, domain.ErrAmountOverflow
	}
	return v, nil
}

// ToDecimal 將定點整數轉為 decimal，方便顯示
func ToDecimal(v *uint256.Int, decimals int32) decimal.Decimal {
	if v == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(v.ToBig(), -decimals)
}

// FormatUSD 以 6 位小數格式化 USD 值
func FormatUSD(usd *uint256.Int) string {
	return ToDecimal(usd, domain.USDDecimals).StringFixed(domain.USDDecimals)
}
