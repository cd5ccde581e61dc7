package domain

import (
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// AliasKey 別名的 keccak256 雜湊，作為別名索引的 key
type AliasKey [32]byte

// HashAlias 計算別名雜湊 (大小寫與空白皆視為不同別名)
func HashAlias(alias string) AliasKey {
	var key AliasKey
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(alias))
	h.Sum(key[:0])
	return key
}

// Contact 聯絡人紀錄，範圍限定在 Owner 之下
type Contact struct {
	Owner   Address
	Address Address
	Alias   string
	// Limit 原生資產單筆內部轉帳上限 (raw amount)，0 代表不限制
	Limit *uint256.Int
}

// HasLimit 是否設定了轉帳上限
func (c Contact) HasLimit() bool {
	return c.Limit != nil && !c.Limit.IsZero()
}
