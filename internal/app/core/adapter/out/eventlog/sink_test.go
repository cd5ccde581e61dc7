package eventlog

import (
	"context"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/nspcc-dev/neo-go/pkg/util"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
)

func TestSinkLogsEvent(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	sink := NewSink(zap.New(core))

	err := sink.Publish(context.Background(), domain.DepositEvent{
		EventMeta:  domain.EventMeta{Sequence: 3, At: time.Unix(1_700_000_000, 0).UTC()},
		Asset:      util.Uint160{},
		Account:    util.Uint160{1},
		Amount:     uint256.NewInt(10),
		NewBalance: uint256.NewInt(10),
		USDValue:   uint256.NewInt(1_500_000),
	})
	require.NoError(t, err)

	entries := logs.All()
	require.Len(t, entries, 1)
	require.Equal(t, "Deposit", entries[0].Message)
	require.Equal(t, "audit", entries[0].LoggerName)
	ctx := entries[0].ContextMap()
	require.Equal(t, uint64(3), ctx["seq"])
	require.Equal(t, "1.500000", ctx["usd"])
	require.Equal(t, "10", ctx["amount"])
}
