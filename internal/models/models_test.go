package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestNewCustomerID(t *testing.T) {
	require.Equal(t, CustomerID("12345"), NewCustomerID(" 12345.0 "))
	require.Equal(t, CustomerID("12345"), NewCustomerID("12345.000"))
	require.Equal(t, CustomerID("12345.5"), NewCustomerID("12345.5"))
	require.Equal(t, CustomerID("C-01"), NewCustomerID("C-01"))
	require.True(t, NewCustomerID("   ").Empty())
}

func TestTierFor(t *testing.T) {
	require.Equal(t, TierNone, TierFor(0))
	require.Equal(t, TierNone, TierFor(-2))
	require.Equal(t, TierMinor, TierFor(3))
	require.Equal(t, TierModerate, TierFor(4))
	require.Equal(t, TierModerate, TierFor(9))
	require.Equal(t, TierSevere, TierFor(10))
	require.Less(t, TierSevere.Severity(), TierModerate.Severity())
	require.Less(t, TierModerate.Severity(), TierMinor.Severity())
	require.Less(t, TierMinor.Severity(), TierNone.Severity())
}

func TestSameDayCountBoth(t *testing.T) {
	require.True(t, SameDayCount{Disbursements: 1, Settlements: 2}.Both())
	require.False(t, SameDayCount{Disbursements: 3}.Both())
}

func TestRankingExposure(t *testing.T) {
	m := CustomerMaster{TotalExposure: decimal.NewFromInt(7), PurposeTotal: decimal.NewFromInt(9)}
	require.True(t, m.RankingExposure().Equal(decimal.NewFromInt(7)))
}
