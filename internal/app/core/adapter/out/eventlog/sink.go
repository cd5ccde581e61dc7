// Package eventlog 把帳本事件寫成結構化 log (稽核紀錄)。
package eventlog

import (
	"context"

	"github.com/holiman/uint256"
	"go.uber.org/zap"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/convert"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/usecase"
)

var _ usecase.EventSink = (*Sink)(nil)

type Sink struct {
	logger *zap.Logger
}

func NewSink(logger *zap.Logger) *Sink {
	return &Sink{logger: logger.Named("audit")}
}

func (s *Sink) Publish(_ context.Context, event domain.Event) error {
	meta := event.Meta()
	fields := []zap.Field{
		zap.Uint64("seq", meta.Sequence),
		zap.Time("at", meta.At),
	}
	s.logger.Info(event.EventName(), append(fields, eventFields(event)...)...)
	return nil
}

func eventFields(event domain.Event) []zap.Field {
	switch e := event.(type) {
	case domain.DepositEvent:
		return []zap.Field{
			addr("asset", e.Asset), addr("account", e.Account),
			amount("amount", e.Amount), amount("new_balance", e.NewBalance),
			zap.String("usd", convert.FormatUSD(e.USDValue)),
		}
	case domain.WithdrawalEvent:
		return []zap.Field{
			addr("asset", e.Asset), addr("account", e.Account),
			amount("amount", e.Amount), amount("new_balance", e.NewBalance),
			zap.String("usd", convert.FormatUSD(e.USDValue)),
		}
	case domain.InternalTransferEvent:
		return []zap.Field{addr("asset", e.Asset), addr("from", e.From), addr("to", e.To), amount("amount", e.Amount)}
	case domain.ContactSetEvent:
		return []zap.Field{addr("owner", e.Owner), addr("contact", e.Contact), zap.String("alias", e.Alias), amount("limit", e.Limit)}
	case domain.ContactRemovedEvent:
		return []zap.Field{addr("owner", e.Owner), addr("contact", e.Contact), zap.String("alias", e.Alias)}
	case domain.ContactLimitUpdatedEvent:
		return []zap.Field{addr("owner", e.Owner), addr("contact", e.Contact), amount("limit", e.Limit)}
	case domain.TokenRegisteredEvent:
		return []zap.Field{addr("asset", e.Asset), zap.Uint8("decimals", e.Decimals), zap.String("feed", e.Feed)}
	case domain.FeedUpdatedEvent:
		return []zap.Field{addr("asset", e.Asset), zap.String("feed", e.Feed)}
	case domain.BankCapUpdatedEvent:
		return []zap.Field{zap.String("cap_usd", convert.FormatUSD(e.Cap))}
	case domain.WithdrawalLimitsUpdatedEvent:
		return []zap.Field{
			zap.String("max_withdrawal_usd", convert.FormatUSD(e.MaxWithdrawal)),
			zap.String("daily_withdrawal_usd", convert.FormatUSD(e.DailyWithdrawal)),
		}
	case domain.PausedEvent:
		return []zap.Field{addr("by", e.By)}
	case domain.UnpausedEvent:
		return []zap.Field{addr("by", e.By)}
	}
	return nil
}

func addr(key string, a domain.Address) zap.Field {
	return zap.String(key, domain.FormatAddress(a))
}

func amount(key string, v *uint256.Int) zap.Field {
	if v == nil {
		return zap.Skip()
	}
	return zap.String(key, v.Dec())
}
