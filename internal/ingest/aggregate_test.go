package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateCaseInsensitiveVendors(t *testing.T) {
	got := Aggregate([]NormalizedRecord{
		{Vendor: "Acme", Spend: 100, Category: "Software", Segment: "IT"},
		{Vendor: "ACME", Spend: 50, Category: "Hardware", Segment: "Ops"},
		{Vendor: "Other", Spend: 10, Category: "Software", Segment: "IT"},
	})

	require.Len(t, got, 2)
	assert.Equal(t, "Acme", got[0].Vendor, "first-seen spelling retained")
	assert.InDelta(t, 150, got[0].Spend, 1e-9)
	assert.Equal(t, "Software", got[0].Category, "first-seen metadata retained")
	assert.Equal(t, 2, got[0].Rows)
	assert.Equal(t, "Other", got[1].Vendor)
	assert.InDelta(t, 10, got[1].Spend, 1e-9)
}

func TestAggregateFirstSeenOrder(t *testing.T) {
	got := Aggregate([]NormalizedRecord{
		{Vendor: "Zeta", Spend: 1},
		{Vendor: "Alpha", Spend: 2},
		{Vendor: "zeta", Spend: 3},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "Zeta", got[0].Vendor)
	assert.Equal(t, "Alpha", got[1].Vendor)
}

func TestAggregateEmpty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
}
