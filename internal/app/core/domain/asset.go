package domain

// 價格與 USD 的固定精度
const (
	// PriceDecimals 內部價格精度 (小數點後 8 位)
	PriceDecimals = 8
	// USDDecimals USD 計價精度 (小數點後 6 位)，上限、額度、累計值都使用這個精度
	USDDecimals = 6
	// MaxAssetDecimals 資產精度上限，避免 10^n 在換算時溢位
	MaxAssetDecimals = 36
)

// AssetID 資產識別 (token 合約 hash)
type AssetID = Address

// NativeAsset 原生資產固定使用零值 ID，建構時即註冊且不可重新註冊
var NativeAsset AssetID

// Asset 資產註冊資料
type Asset struct {
	ID       AssetID
	Decimals uint8
	// Feed 價格來源 handle，交給外部 price feed 查詢
	Feed string
}

// IsNative 是否為原生資產
func (a Asset) IsNative() bool {
	return a.ID == NativeAsset
}
