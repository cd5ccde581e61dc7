package domain

import (
	"fmt"
	"strings"

	"github.com/nspcc-dev/neo-go/pkg/encoding/address"
	"github.com/nspcc-dev/neo-go/pkg/util"
)

// Address 帳戶地址 (20 bytes script hash)
type Address = util.Uint160

// ZeroAddress 空地址，不可作為聯絡人或轉帳對象
var ZeroAddress Address

// ParseAddress 解析地址字串
//
// 支援兩種格式:
//
//	"0x" 開頭的 40 位十六進位 (little-endian，與 Uint160.StringLE 一致)
//	Base58Check 編碼的 N3 地址
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ZeroAddress, fmt.Errorf("%w: empty address", ErrInvalidAddress)
	}
	if strings.HasPrefix(s, "0x") {
		u, err := util.Uint160DecodeStringLE(s[2:])
		if err != nil {
			return ZeroAddress, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
		}
		return u, nil
	}
	u, err := address.StringToUint160(s)
	if err != nil {
		return ZeroAddress, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	return u, nil
}

// FormatAddress 轉成 Base58Check 地址字串
func FormatAddress(a Address) string {
	return address.Uint160ToString(a)
}

// IsZeroAddress 是否為空地址
func IsZeroAddress(a Address) bool {
	return a == ZeroAddress
}
