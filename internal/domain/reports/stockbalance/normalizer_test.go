package stockbalance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbalance/internal/core/entity"
)

func TestNormalize_POSSignCorrection(t *testing.T) {
	diags := &Diagnostics{}
	n := NewNormalizer(KeyBuilder{}, nil, diags)

	sale := posLine("I", "W", "2024-01-10 10:00:00", "5", false)
	ret := posLine("I", "W", "2024-01-11 10:00:00", "-5", true)

	events := n.Normalize(nil, []entity.POSInvoiceLine{sale}, []entity.POSInvoiceLine{ret})
	require.Len(t, events, 2)

	assertDec(t, "-5", events[0].QtyDelta)
	assert.Equal(t, SourcePOSSale, events[0].Source)
	assertDec(t, "5", events[1].QtyDelta)
	assert.Equal(t, SourcePOSReturn, events[1].Source)
	assert.Equal(t, events[0].Key, events[1].Key)
}

func TestNormalize_POSRateFallback(t *testing.T) {
	ledger := []entity.StockLedgerEntry{
		ledgerIn("I", "W", "2024-01-05 09:00:00", "10", "100", "10"),
		ledgerIn("I", "W", "2024-01-10 10:00:00", "10", "120", "11"),
	}

	tests := []struct {
		name      string
		line      func() entity.POSInvoiceLine
		wantRate  string
		wantDiags int
	}{
		{
			name: "precomputed ledger rate wins",
			line: func() entity.POSInvoiceLine {
				l := posLine("I", "W", "2024-01-10 10:00:00", "1", false)
				l.LedgerRate = decimal.NewNullDecimal(dec("9.5"))
				return l
			},
			wantRate: "9.5",
		},
		{
			name: "index uses rate strictly before",
			line: func() entity.POSInvoiceLine {
				return posLine("I", "W", "2024-01-10 10:00:00", "1", false)
			},
			wantRate: "10",
		},
		{
			name: "item valuation rate when no ledger history",
			line: func() entity.POSInvoiceLine {
				l := posLine("I", "W", "2024-01-01 10:00:00", "1", false)
				l.ItemValuationRate = decimal.NewNullDecimal(dec("7"))
				return l
			},
			wantRate: "7",
		},
		{
			name: "zero with diagnostic",
			line: func() entity.POSInvoiceLine {
				return posLine("OTHER", "W", "2024-01-10 10:00:00", "1", false)
			},
			wantRate:  "0",
			wantDiags: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := &Diagnostics{}
			n := NewNormalizer(KeyBuilder{}, NewLedgerRateIndex(ledger), diags)

			events := n.Normalize(nil, []entity.POSInvoiceLine{tt.line()}, nil)
			require.Len(t, events, 1)
			assertDec(t, tt.wantRate, events[0].ValuationRate)
			assertDec(t, "-"+tt.wantRate, events[0].ValueDelta)
			assert.Equal(t, tt.wantDiags, diags.Count(DiagMissingRate))
		})
	}
}

func TestNormalize_TieBreakBySource(t *testing.T) {
	ts := "2024-01-10 10:00:00"
	ledger := []entity.StockLedgerEntry{
		ledgerIn("I", "W", ts, "1", "1", "1"),
		ledgerIn("I", "W", "2024-01-09 10:00:00", "1", "1", "1"),
		ledgerIn("J", "W", ts, "2", "2", "1"),
	}
	sales := []entity.POSInvoiceLine{posLine("I", "W", ts, "1", false)}
	returns := []entity.POSInvoiceLine{posLine("I", "W", ts, "-1", true)}

	for i := 0; i < 5; i++ {
		events := NewNormalizer(KeyBuilder{}, nil, nil).Normalize(ledger, sales, returns)
		require.Len(t, events, 5)

		assert.Equal(t, at("2024-01-09 10:00:00"), events[0].Timestamp)
		assert.Equal(t, "I", events[1].Key.ItemCode)
		assert.Equal(t, SourceLedger, events[1].Source)
		assert.Equal(t, "J", events[2].Key.ItemCode)
		assert.Equal(t, SourceLedger, events[2].Source)
		assert.Equal(t, SourcePOSSale, events[3].Source)
		assert.Equal(t, SourcePOSReturn, events[4].Source)
	}
}

func TestNormalize_MissingTimestampCollected(t *testing.T) {
	diags := &Diagnostics{}
	bad := ledgerIn("I", "W", "2024-01-05 09:00:00", "1", "1", "1")
	bad.PostingDatetime = time.Time{}
	badPOS := posLine("I", "W", "2024-01-05 09:00:00", "1", false)
	badPOS.PostingDatetime = time.Time{}

	events := NewNormalizer(KeyBuilder{}, nil, diags).Normalize(
		[]entity.StockLedgerEntry{bad, ledgerIn("I", "W", "2024-01-06 09:00:00", "1", "1", "1")},
		[]entity.POSInvoiceLine{badPOS},
		nil,
	)

	assert.Len(t, events, 1)
	require.Equal(t, 1, diags.Len())
	assert.Equal(t, DiagMissingTimestamp, diags.List()[0].Kind)
	assert.Equal(t, 2, diags.List()[0].Count)
}

func TestNormalize_ReconciliationFlag(t *testing.T) {
	recon := reconciliation("I", "W", "2024-01-05 09:00:00", "20", "0", "1")
	batched := recon
	batched.BatchNo = "B1"
	serial := batched
	serial.SerialNo = "S1"

	events := NewNormalizer(KeyBuilder{}, nil, nil).Normalize(
		[]entity.StockLedgerEntry{recon, batched, serial}, nil, nil)
	require.Len(t, events, 3)

	assert.True(t, events[0].AbsoluteTarget)
	assert.False(t, events[1].AbsoluteTarget)
	assert.True(t, events[2].AbsoluteTarget)
}

func TestLedgerRateIndex_RateBefore(t *testing.T) {
	idx := NewLedgerRateIndex([]entity.StockLedgerEntry{
		ledgerIn("I", "W", "2024-01-10 10:00:00", "1", "1", "12"),
		ledgerIn("I", "W", "2024-01-05 10:00:00", "1", "1", "10"),
	})

	_, ok := idx.RateBefore("I", "W", at("2024-01-05 10:00:00"))
	assert.False(t, ok)

	r, ok := idx.RateBefore("I", "W", at("2024-01-10 10:00:00"))
	require.True(t, ok)
	assertDec(t, "10", r)

	r, ok = idx.RateBefore("I", "W", at("2024-02-01 00:00:00"))
	require.True(t, ok)
	assertDec(t, "12", r)

	_, ok = idx.RateBefore("I", "OTHER", at("2024-02-01 00:00:00"))
	assert.False(t, ok)
}
