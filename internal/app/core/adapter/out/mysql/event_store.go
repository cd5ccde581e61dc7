package mysql

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/holiman/uint256"
	"gorm.io/gorm"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/usecase"
	"github.com/JoeShih716/go-mem-bank/pkg/mysql"
)

// sqlEvent 對應資料庫的 ledger_events 表 (稽核用，帳本狀態以 journal 為準)
type sqlEvent struct {
	ID           int64  `gorm:"primaryKey;autoIncrement"`
	Sequence     uint64 `gorm:"index"`
	Name         string `gorm:"type:varchar(32)"`
	Asset        string `gorm:"type:varchar(64);index"`
	Account      string `gorm:"type:varchar(64);index"`
	Counterparty string `gorm:"type:varchar(64)"`
	Amount       string `gorm:"type:varchar(80)"` // uint256 十進位字串
	USDValue     string `gorm:"column:usd_value;type:varchar(80)"`
	Payload      []byte `gorm:"type:json"`
	OccurredAt   int64  `gorm:"index"` // unix milli
	CreatedAt    int64  `gorm:"autoCreateTime:milli"`
}

func (*sqlEvent) TableName() string {
	return "ledger_events"
}

var _ usecase.EventSink = (*EventStore)(nil)

// EventStore 把帳本事件寫入 MySQL
type EventStore struct {
	client *mysql.Client
}

func NewEventStore(client *mysql.Client) *EventStore {
	return &EventStore{
		client: client,
	}
}

// Migrate 建立或更新資料表
func (s *EventStore) Migrate(ctx context.Context) error {
	return s.client.DB().WithContext(ctx).AutoMigrate(&sqlEvent{})
}

// Publish 寫入一筆事件
func (s *EventStore) Publish(ctx context.Context, event domain.Event) error {
	rec, err := toRecord(event)
	if err != nil {
		return err
	}
	return s.client.DB().WithContext(ctx).Create(rec).Error
}

// EventRecord 查詢結果
type EventRecord struct {
	Sequence     uint64
	Name         string
	Asset        string
	Account      string
	Counterparty string
	Amount       string
	USDValue     string
	Payload      json.RawMessage
	OccurredAt   int64
}

// ListByAccount 依順序列出帳戶相關事件 (作為發起方或對手方)
//
// 參數:
//
//	ctx: 上下文
//	account: 帳戶地址
//	afterSeq: 只回傳 sequence 大於此值的事件
//	limit: 最多筆數
//
// 回傳:
//
//	[]EventRecord: 事件列表
//	error: 查詢錯誤
func (s *EventStore) ListByAccount(ctx context.Context, account domain.Address, afterSeq uint64, limit int) ([]EventRecord, error) {
	addr := domain.FormatAddress(account)
	db := s.client.DB()
	var rows []sqlEvent
	err := db.WithContext(ctx).
		Where("sequence > ?", afterSeq).
		Where(involving(db, addr)).
		Order("sequence ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	out := make([]EventRecord, 0, len(rows))
	for _, r := range rows {
		out = append(out, EventRecord{
			Sequence:     r.Sequence,
			Name:         r.Name,
			Asset:        r.Asset,
			Account:      r.Account,
			Counterparty: r.Counterparty,
			Amount:       r.Amount,
			USDValue:     r.USDValue,
			Payload:      r.Payload,
			OccurredAt:   r.OccurredAt,
		})
	}
	return out, nil
}

// involving account 或 counterparty 是 addr 的條件 (包成一組括號)
func involving(db *gorm.DB, addr string) *gorm.DB {
	return db.Where("account = ?", addr).Or("counterparty = ?", addr)
}

// toRecord 把事件攤平成資料列；查詢用欄位之外的內容放在 Payload
func toRecord(event domain.Event) (*sqlEvent, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("encode %s event: %w", event.EventName(), err)
	}
	meta := event.Meta()
	rec := &sqlEvent{
		Sequence:   meta.Sequence,
		Name:       event.EventName(),
		Payload:    payload,
		OccurredAt: meta.At.UnixMilli(),
	}

	switch e := event.(type) {
	case domain.DepositEvent:
		rec.Asset, rec.Account = domain.FormatAddress(e.Asset), domain.FormatAddress(e.Account)
		rec.Amount, rec.USDValue = dec(e.Amount), dec(e.USDValue)
	case domain.WithdrawalEvent:
		rec.Asset, rec.Account = domain.FormatAddress(e.Asset), domain.FormatAddress(e.Account)
		rec.Amount, rec.USDValue = dec(e.Amount), dec(e.USDValue)
	case domain.InternalTransferEvent:
		rec.Asset, rec.Account = domain.FormatAddress(e.Asset), domain.FormatAddress(e.From)
		rec.Counterparty, rec.Amount = domain.FormatAddress(e.To), dec(e.Amount)
	case domain.ContactSetEvent:
		rec.Account, rec.Counterparty = domain.FormatAddress(e.Owner), domain.FormatAddress(e.Contact)
	case domain.ContactRemovedEvent:
		rec.Account, rec.Counterparty = domain.FormatAddress(e.Owner), domain.FormatAddress(e.Contact)
	case domain.ContactLimitUpdatedEvent:
		rec.Account, rec.Counterparty = domain.FormatAddress(e.Owner), domain.FormatAddress(e.Contact)
		rec.Amount = dec(e.Limit)
	case domain.TokenRegisteredEvent:
		rec.Asset = domain.FormatAddress(e.Asset)
	case domain.FeedUpdatedEvent:
		rec.Asset = domain.FormatAddress(e.Asset)
	case domain.PausedEvent:
		rec.Account = domain.FormatAddress(e.By)
	case domain.UnpausedEvent:
		rec.Account = domain.FormatAddress(e.By)
	}
	return rec, nil
}

func dec(v *uint256.Int) string {
	if v == nil {
		return ""
	}
	return v.Dec()
}
