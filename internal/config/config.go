// Package config 載入服務設定檔。
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/convert"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/usecase"
	"github.com/JoeShih716/go-mem-bank/pkg/mysql"
)

// EnvPath 沒有指定 -config 時讀取的環境變數
const EnvPath = "LEDGER_CONFIG"

// DefaultPath 預設設定檔路徑
const DefaultPath = "config/config.yaml"

type Config struct {
	GRPC    ListenConfig `yaml:"grpc"`
	Metrics ListenConfig `yaml:"metrics"`
	Log     LogConfig    `yaml:"log"`
	WAL     WALConfig    `yaml:"wal"`
	MySQL   mysql.Config `yaml:"mysql"`
	Bank    BankConfig   `yaml:"bank"`
	Tokens  []Token      `yaml:"tokens"`
	Feeds   []Feed       `yaml:"feeds"`
	Admins  []string     `yaml:"admins"`
}

type ListenConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type WALConfig struct {
	Path string `yaml:"path"`
}

// DefaultNativeDecimals 沒有設定 native_decimals 時使用
const DefaultNativeDecimals uint8 = 18

// BankConfig USD 欄位為人類可讀的十進位字串，空字串或 "0" 代表不限制
// NativeDecimals 為 nil 代表沒有設定 (0 是合法的精度)
type BankConfig struct {
	NativeDecimals     *uint8          `yaml:"native_decimals"`
	NativeFeed         string          `yaml:"native_feed"`
	CapUSD             decimal.Decimal `yaml:"cap_usd"`
	DailyWithdrawalUSD decimal.Decimal `yaml:"daily_withdrawal_usd"`
	MaxWithdrawalUSD   decimal.Decimal `yaml:"max_withdrawal_usd"`
	MaxPriceAge        time.Duration   `yaml:"max_price_age"`
	ReceiptCacheSize   int             `yaml:"receipt_cache_size"`
}

type Token struct {
	Address  string `yaml:"address"`
	Decimals uint8  `yaml:"decimals"`
	Feed     string `yaml:"feed"`
}

// Feed 內建價格來源的初始價格
type Feed struct {
	Handle   string          `yaml:"handle"`
	Price    decimal.Decimal `yaml:"price"`
	Decimals uint8           `yaml:"decimals"`
}

// Answer 依 Decimals 放大後的整數價格
func (f Feed) Answer() (int64, error) {
	v := f.Price.Shift(int32(f.Decimals))
	if !v.Equal(v.Truncate(0)) {
		return 0, fmt.Errorf("feed %s: price %s has more than %d decimals", f.Handle, f.Price, f.Decimals)
	}
	if !v.IsPositive() {
		return 0, fmt.Errorf("feed %s: %w", f.Handle, domain.ErrInvalidPrice)
	}
	return v.IntPart(), nil
}

// Load 讀取設定檔，套用環境變數覆寫與預設值
//
// 參數:
//
//	path: 設定檔路徑，空字串時依序使用 LEDGER_CONFIG 與 DefaultPath
//
// 回傳:
//
//	*Config: 設定
//	error: 讀取或解析失敗
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvPath)
	}
	if path == "" {
		path = DefaultPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse 解析 YAML 內容
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.GRPC.Addr == "" {
		c.GRPC.Addr = ":50051"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.WAL.Path == "" {
		c.WAL.Path = "ledger.wal"
	}
	if c.Bank.NativeDecimals == nil {
		d := DefaultNativeDecimals
		c.Bank.NativeDecimals = &d
	}
	if c.MySQL.Enabled() {
		c.MySQL.ApplyDefaults()
	}
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"LEDGER_GRPC_ADDR":      &c.GRPC.Addr,
		"LEDGER_METRICS_ADDR":   &c.Metrics.Addr,
		"LEDGER_LOG_LEVEL":      &c.Log.Level,
		"LEDGER_WAL_PATH":       &c.WAL.Path,
		"LEDGER_MYSQL_HOST":     &c.MySQL.Host,
		"LEDGER_MYSQL_USER":     &c.MySQL.User,
		"LEDGER_MYSQL_PASSWORD": &c.MySQL.Password,
		"LEDGER_MYSQL_DB":       &c.MySQL.DBName,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	if v, ok := os.LookupEnv("LEDGER_MYSQL_PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("LEDGER_MYSQL_PORT: %w", err)
		}
		c.MySQL.Port = port
	}
	return nil
}

// AdminAddresses 解析管理員地址
func (c *Config) AdminAddresses() ([]domain.Address, error) {
	out := make([]domain.Address, 0, len(c.Admins))
	for _, s := range c.Admins {
		a, err := domain.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("admin %q: %w", s, err)
		}
		out = append(out, a)
	}
	return out, nil
}

// ToBankConfig 轉成帳本建構參數
func (c *Config) ToBankConfig() (usecase.Config, error) {
	var errs error
	usd := func(name string, d decimal.Decimal) *uint256.Int {
		v, err := convert.FromDecimal(d, domain.USDDecimals)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("bank.%s: %w", name, err))
			return nil
		}
		return v
	}

	out := usecase.Config{
		NativeDecimals:   DefaultNativeDecimals,
		NativeFeed:       c.Bank.NativeFeed,
		BankCap:          usd("cap_usd", c.Bank.CapUSD),
		DailyWithdrawal:  usd("daily_withdrawal_usd", c.Bank.DailyWithdrawalUSD),
		MaxWithdrawal:    usd("max_withdrawal_usd", c.Bank.MaxWithdrawalUSD),
		MaxPriceAge:      c.Bank.MaxPriceAge,
		ReceiptCacheSize: c.Bank.ReceiptCacheSize,
	}
	if c.Bank.NativeDecimals != nil {
		out.NativeDecimals = *c.Bank.NativeDecimals
	}
	for _, t := range c.Tokens {
		id, err := domain.ParseAddress(t.Address)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("token %q: %w", t.Address, err))
			continue
		}
		out.Tokens = append(out.Tokens, domain.Asset{ID: id, Decimals: t.Decimals, Feed: t.Feed})
	}
	if errs != nil {
		return usecase.Config{}, errs
	}
	return out, nil
}
