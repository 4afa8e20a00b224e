package model

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestImpactDistributionPresence(t *testing.T) {
	cases := []struct {
		name string
		in   ImpactDistribution
		want Presence
	}{
		{"none", ImpactDistribution{}, PresenceNone},
		{"rate only", ImpactDistribution{DistributionRate: big.NewInt(1)}, PresencePartial},
		{"floor only", ImpactDistribution{MinPoolAmount: big.NewInt(0)}, PresencePartial},
		{"both", ImpactDistribution{DistributionRate: big.NewInt(0), MinPoolAmount: big.NewInt(0)}, PresenceComplete},
	}

	for _, tc := range cases {
		if got := tc.in.Presence(); got != tc.want {
			t.Fatalf("%s: presence %s != %s", tc.name, got, tc.want)
		}
	}
}

func TestMarketKeyJoinsChecksummedAddresses(t *testing.T) {
	index := common.HexToAddress("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	long := common.HexToAddress("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
	short := common.HexToAddress("0xcccccccccccccccccccccccccccccccccccccccc")

	key := NewMarketKey(index, long, short)
	want := MarketKey(index.Hex() + ":" + long.Hex() + ":" + short.Hex())
	if key != want {
		t.Fatalf("key mismatch: %s != %s", key, want)
	}

	market := OnchainMarket{IndexToken: index, LongToken: long, ShortToken: short}
	if market.Key() != key {
		t.Fatalf("onchain key mismatch: %s", market.Key())
	}
	if NewMarketKey(long, index, short) == key {
		t.Fatalf("key must depend on token order")
	}
}

func TestPlanCallDataOrder(t *testing.T) {
	plan := Plan{Writes: []PendingWrite{
		{Target: "a", CallData: []byte{0x01}},
		{Target: "b", CallData: []byte{0x02}},
	}}
	calls := plan.CallData()
	if len(calls) != 2 || calls[0][0] != 0x01 || calls[1][0] != 0x02 {
		t.Fatalf("call order mismatch: %x", calls)
	}
	if plan.Empty() {
		t.Fatalf("plan should not be empty")
	}
	if !(Plan{}).Empty() {
		t.Fatalf("zero plan should be empty")
	}
}
