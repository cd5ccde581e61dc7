package risk

import (
	"errors"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/txn"
)

func TestCapBoundary(t *testing.T) {
	c := NewCapEnforcer(uint256.NewInt(2_000000))

	require.NoError(t, c.AdmitIncrease(nil, uint256.NewInt(1_000000)))
	// total == cap 可以通過
	require.NoError(t, c.AdmitIncrease(nil, uint256.NewInt(1_000000)))
	require.Equal(t, uint64(2_000000), c.Total().Uint64())
	require.True(t, c.Available().IsZero())

	err := c.AdmitIncrease(nil, uint256.NewInt(1))
	require.ErrorIs(t, err, domain.ErrBankCapExceeded)
	var capErr *domain.BankCapExceededError
	require.True(t, errors.As(err, &capErr))
	require.Equal(t, uint64(2_000001), capErr.NewTotal.Uint64())
	require.Equal(t, uint64(2_000000), capErr.Cap.Uint64())
	require.Equal(t, uint64(2_000000), c.Total().Uint64())
}

func TestCapZeroMeansUnlimited(t *testing.T) {
	c := NewCapEnforcer(nil)
	require.NoError(t, c.AdmitIncrease(nil, uint256.MustFromDecimal("1000000000000000000000")))
	require.Nil(t, c.Available())
}

func TestCapDecreaseFloorsAtZero(t *testing.T) {
	c := NewCapEnforcer(uint256.NewInt(100))
	require.NoError(t, c.AdmitIncrease(nil, uint256.NewInt(30)))
	c.ApplyDecrease(nil, uint256.NewInt(50))
	require.True(t, c.Total().IsZero())
	require.Equal(t, uint64(100), c.Available().Uint64())
}

func TestCapRollback(t *testing.T) {
	c := NewCapEnforcer(uint256.NewInt(100))
	require.NoError(t, c.AdmitIncrease(nil, uint256.NewInt(10)))

	tx := txn.New()
	require.NoError(t, c.AdmitIncrease(tx, uint256.NewInt(20)))
	c.SetCap(tx, uint256.NewInt(5))
	c.ApplyDecrease(tx, uint256.NewInt(1))
	tx.Rollback()

	require.Equal(t, uint64(10), c.Total().Uint64())
	require.Equal(t, uint64(100), c.Cap().Uint64())
}

func TestCapLoweredBelowTotal(t *testing.T) {
	c := NewCapEnforcer(uint256.NewInt(100))
	require.NoError(t, c.AdmitIncrease(nil, uint256.NewInt(80)))
	c.SetCap(nil, uint256.NewInt(50))
	require.True(t, c.Available().IsZero())
	require.ErrorIs(t, c.AdmitIncrease(nil, uint256.NewInt(1)), domain.ErrBankCapExceeded)
}
