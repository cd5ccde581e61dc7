package convert

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/JoeShih716/go-mem-bank/internal/app/core/domain"
)

func u(s string) *uint256.Int {
	return uint256.MustFromDecimal(s)
}

func TestToUSDOneTokenAtOneDollar(t *testing.T) {
	usd, err := ToUSD(u("1000000000000000000"), 18, u("100000000"))
	require.NoError(t, err)
	require.Equal(t, "1000000", usd.Dec())
}

func TestToUSD(t *testing.T) {
	cases := []struct {
		name     string
		raw      string
		decimals uint8
		price    string
		want     string
	}{
		{"six decimal stable", "2500000", 6, "100000000", "2500000"},
		{"eth at 3000", "500000000000000000", 18, "300000000000", "1500000000"},
		{"truncates sub unit", "999999999999", 18, "100000000", "0"},
		{"floors", "1999999999999", 18, "100000000", "1"},
		{"zero decimals", "3", 0, "150000000", "4500000"},
		{"wide decimals", "1" + zeros(30), 30, "100000000", "1000000"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToUSD(u(tc.raw), tc.decimals, u(tc.price))
			require.NoError(t, err)
			require.Equal(t, tc.want, got.Dec())
		})
	}
}

func TestToUSDRejectsZeroPrice(t *testing.T) {
	_, err := ToUSD(u("1"), 18, new(uint256.Int))
	require.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestToUSDRejectsTooManyDecimals(t *testing.T) {
	_, err := ToUSD(u("1"), domain.MaxAssetDecimals+1, u("100000000"))
	require.ErrorIs(t, err, domain.ErrInvalidDecimals)
}

func TestToUSDOverflow(t *testing.T) {
	max := new(uint256.Int).SetAllOne()
	_, err := ToUSD(max, 0, max)
	require.ErrorIs(t, err, domain.ErrAmountOverflow)
}

func TestFromUSDRoundsUp(t *testing.T) {
	// $1 at $3 per token (18 decimals) = 0.333... tokens, rounded up
	raw, err := FromUSD(u("1000000"), 18, u("300000000"))
	require.NoError(t, err)
	require.Equal(t, "333333333333333334", raw.Dec())

	// exact division keeps the value
	raw, err = FromUSD(u("1000000"), 18, u("100000000"))
	require.NoError(t, err)
	require.Equal(t, "1000000000000000000", raw.Dec())
}

func TestRoundTripBounds(t *testing.T) {
	prices := []string{"100000000", "300000000", "312345678901", "7"}
	raws := []string{"1", "123456789", "1000000000000000000", "987654321987654321987"}
	for _, p := range prices {
		price := u(p)
		for _, r := range raws {
			raw := u(r)
			usd, err := ToUSD(raw, 18, price)
			require.NoError(t, err)

			back, err := FromUSD(usd, 18, price)
			require.NoError(t, err)
			// floor then ceil never gives back more than was put in
			require.False(t, back.Gt(raw), "price %s raw %s back %s", p, r, back.Dec())

			// and the shortfall is worth less than one USD unit, so it converts to zero
			diff := new(uint256.Int).Sub(raw, back)
			lost, err := ToUSD(diff, 18, price)
			require.NoError(t, err)
			require.True(t, lost.IsZero(), "lost %s", lost.Dec())
		}
	}

	for _, v := range []string{"1", "500000", "1000000", "123456789012"} {
		usd := u(v)
		raw, err := FromUSD(usd, 18, u("300000000"))
		require.NoError(t, err)
		again, err := ToUSD(raw, 18, u("300000000"))
		require.NoError(t, err)
		require.False(t, again.Lt(usd), "ceil quote must cover the target")
	}
}

func TestNormalizePrice(t *testing.T) {
	got, err := NormalizePrice(u("100000000"), 8)
	require.NoError(t, err)
	require.Equal(t, "100000000", got.Dec())

	got, err = NormalizePrice(u("150"), 2)
	require.NoError(t, err)
	require.Equal(t, "150000000", got.Dec())

	got, err = NormalizePrice(u("1000000000000000000"), 18)
	require.NoError(t, err)
	require.Equal(t, "100000000", got.Dec())

	got, err = NormalizePrice(u("99"), 18)
	require.NoError(t, err)
	require.True(t, got.IsZero())
}

func TestParseUnits(t *testing.T) {
	v, err := ParseUnits("2000000.5", domain.USDDecimals)
	require.NoError(t, err)
	require.Equal(t, "2000000500000", v.Dec())

	_, err = ParseUnits("0.0000001", domain.USDDecimals)
	require.Error(t, err)

	_, err = ParseUnits("-1", domain.USDDecimals)
	require.Error(t, err)

	require.Equal(t, "1.500000", FormatUSD(u("1500000")))
}

func zeros(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}
