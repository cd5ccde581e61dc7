package balance

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
	"github.com/JoeShih716/go-mem-bank/internal/app/core/txn"
)

var (
	token = domain.AssetID{0xaa}
	alice = domain.Address{0x01}
	bob   = domain.Address{0x02}
)

func TestCreditDebit(t *testing.T) {
	l := NewLedger()

	bal, err := l.Credit(nil, token, alice, uint256.NewInt(100))
	require.NoError(t, err)
	require.Equal(t, uint64(100), bal.Uint64())

	bal, err = l.Debit(nil, token, alice, uint256.NewInt(40))
	require.NoError(t, err)
	require.Equal(t, uint64(60), bal.Uint64())
	require.Equal(t, uint64(60), l.TotalOf(token).Uint64())
	require.True(t, l.BalanceOf(domain.NativeAsset, alice).IsZero())
}

func TestDebitInsufficient(t *testing.T) {
	l := NewLedger()
	_, err := l.Credit(nil, token, alice, uint256.NewInt(10))
	require.NoError(t, err)

	_, err = l.Debit(nil, token, alice, uint256.NewInt(11))
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	var insufficient *domain.InsufficientBalanceError
	require.True(t, errors.As(err, &insufficient))
	require.Equal(t, uint64(10), insufficient.Available.Uint64())
	require.Equal(t, uint64(11), insufficient.Requested.Uint64())

	// 失敗不改變狀態
	require.Equal(t, uint64(10), l.BalanceOf(token, alice).Uint64())
	require.Equal(t, uint64(10), l.TotalOf(token).Uint64())
}

func TestCreditOverflow(t *testing.T) {
	l := NewLedger()
	_, err := l.Credit(nil, token, alice, new(uint256.Int).SetAllOne())
	require.NoError(t, err)
	_, err = l.Credit(nil, token, bob, uint256.NewInt(1))
	require.ErrorIs(t, err, domain.ErrAmountOverflow)
	require.True(t, l.BalanceOf(token, bob).IsZero())
}

func TestRollbackRestoresBalancesAndTotals(t *testing.T) {
	l := NewLedger()
	_, err := l.Credit(nil, token, alice, uint256.NewInt(50))
	require.NoError(t, err)

	tx := txn.New()
	_, err = l.Debit(tx, token, alice, uint256.NewInt(50))
	require.NoError(t, err)
	_, err = l.Credit(tx, token, bob, uint256.NewInt(50))
	require.NoError(t, err)
	_, err = l.Credit(tx, domain.NativeAsset, bob, uint256.NewInt(7))
	require.NoError(t, err)
	tx.Rollback()

	require.Equal(t, uint64(50), l.BalanceOf(token, alice).Uint64())
	require.True(t, l.BalanceOf(token, bob).IsZero())
	require.True(t, l.TotalOf(domain.NativeAsset).IsZero())
	require.Len(t, l.Holders(token), 1)
}

func TestConservationUnderRandomOperations(t *testing.T) {
	l := NewLedger()
	accounts := []domain.Address{{0x01}, {0x02}, {0x03}, {0x04}}
	rng := rand.New(rand.NewSource(42))

	for i := 0; i < 2000; i++ {
		acct := accounts[rng.Intn(len(accounts))]
		amount := uint256.NewInt(uint64(rng.Intn(1000) + 1))
		tx := txn.New()
		switch rng.Intn(3) {
		case 0:
			_, err := l.Credit(tx, token, acct, amount)
			require.NoError(t, err)
		case 1:
			_, _ = l.Debit(tx, token, acct, amount)
		case 2:
			to := accounts[rng.Intn(len(accounts))]
			if _, err := l.Debit(tx, token, acct, amount); err == nil {
				_, err = l.Credit(tx, token, to, amount)
				require.NoError(t, err)
			}
		}
		if rng.Intn(4) == 0 {
			tx.Rollback()
		} else {
			tx.Commit()
		}

		sum := new(uint256.Int)
		for _, h := range l.Holders(token) {
			sum.Add(sum, h.Amount)
		}
		require.True(t, sum.Eq(l.TotalOf(token)), "step %d: sum %s total %s", i, sum.Dec(), l.TotalOf(token).Dec())
	}
}
