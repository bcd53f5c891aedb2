package stockbalance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbalance/internal/core/entity"
)

func snapshot(id, to string, submitted string) SnapshotMeta {
	return SnapshotMeta{
		ID:          id,
		Company:     "ACME",
		ToDate:      day(to),
		Status:      SnapshotStatusCompleted,
		DocStatus:   DocStatusSubmitted,
		Scope:       SnapshotScope{}.Canonical(),
		SubmittedAt: at(submitted),
	}
}

func TestSelectSnapshot(t *testing.T) {
	scope := SnapshotScope{}.Canonical()
	draft := snapshot("draft", "2023-12-31", "2024-01-02 00:00:00")
	draft.DocStatus = 0
	failed := snapshot("failed", "2023-12-31", "2024-01-02 00:00:00")
	failed.Status = "Failed"
	other := snapshot("other", "2023-12-31", "2024-01-02 00:00:00")
	other.Company = "OTHER"

	tests := []struct {
		name       string
		candidates []SnapshotMeta
		wantID     string
		wantFound  bool
	}{
		{"none", nil, "", false},
		{"unusable ignored", []SnapshotMeta{draft, failed, other}, "", false},
		{
			"latest end date wins",
			[]SnapshotMeta{
				snapshot("nov", "2023-11-30", "2024-01-05 00:00:00"),
				snapshot("dec", "2023-12-31", "2024-01-01 00:00:00"),
			},
			"dec", true,
		},
		{
			"tie goes to later submission",
			[]SnapshotMeta{
				snapshot("first", "2023-12-31", "2024-01-01 00:00:00"),
				snapshot("second", "2023-12-31", "2024-01-02 00:00:00"),
			},
			"second", true,
		},
		{
			"end date on period start allowed, after rejected",
			[]SnapshotMeta{
				snapshot("same-day", "2024-01-01", "2024-01-02 00:00:00"),
				snapshot("after", "2024-01-02", "2024-01-03 00:00:00"),
			},
			"same-day", true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := SelectSnapshot(tt.candidates, "ACME", scope, day("2024-01-01"))
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestSnapshotScope_Canonical(t *testing.T) {
	a := SnapshotScope{Warehouses: []string{"B", "A", "A"}, ItemGroup: "Tools"}
	b := SnapshotScope{Warehouses: []string{"A", "B"}, ItemGroup: "Tools"}
	assert.Equal(t, a.Canonical(), b.Canonical())
	assert.NotEqual(t, a.Canonical(), SnapshotScope{}.Canonical())
}

func TestOpeningVoucherSet(t *testing.T) {
	s := OpeningVoucherSet{}
	s.Add(entity.VoucherStockEntry, "SE-1")

	assert.True(t, s.Contains(entity.VoucherStockEntry, "SE-1"))
	assert.False(t, s.Contains(entity.VoucherStockReconciliation, "SE-1"))
	assert.False(t, s.Contains(entity.VoucherStockEntry, "SE-2"))
}

func TestNewOpening_MergesRowsOnSameKey(t *testing.T) {
	meta := &SnapshotMeta{ID: "s1", ToDate: day("2023-12-31")}
	rows := []SnapshotRow{
		{Company: "ACME", ItemCode: "I", Warehouse: "W", Dimensions: map[string]string{"project": "P1"}, BalQty: dec("2"), BalVal: dec("20")},
		{Company: "ACME", ItemCode: "I", Warehouse: "W", Dimensions: map[string]string{"project": "P2"}, BalQty: dec("3"), BalVal: dec("30")},
	}

	o := NewOpening(KeyBuilder{}, meta, rows, nil)
	require.Len(t, o.Keys(), 1)
	row, ok := o.Row(keyOf("I", "W"))
	require.True(t, ok)
	assertDec(t, "5", row.BalQty)
	assertDec(t, "50", row.BalVal)
	assert.NotNil(t, o.Vouchers)
}

type fakeOpeningSource struct {
	snapshots []SnapshotMeta
	rows      map[string][]SnapshotRow
	vouchers  OpeningVoucherSet
	err       error

	snapshotCalls int
}

func (f *fakeOpeningSource) ClosingSnapshots(_ context.Context, _, _ string, _ time.Time) ([]SnapshotMeta, error) {
	f.snapshotCalls++
	return f.snapshots, f.err
}

func (f *fakeOpeningSource) SnapshotRows(_ context.Context, id string) ([]SnapshotRow, error) {
	return f.rows[id], nil
}

func (f *fakeOpeningSource) OpeningVouchers(_ context.Context, _ string, _ time.Time) (OpeningVoucherSet, error) {
	return f.vouchers, nil
}

func TestOpeningResolver_Resolve(t *testing.T) {
	src := &fakeOpeningSource{
		snapshots: []SnapshotMeta{snapshot("dec", "2023-12-31", "2024-01-01 00:00:00")},
		rows: map[string][]SnapshotRow{
			"dec": {{Company: "ACME", ItemCode: "I", Warehouse: "W", BalQty: dec("10")}},
		},
		vouchers: OpeningVoucherSet{},
	}
	r := NewOpeningResolver(src, KeyBuilder{})

	o, err := r.Resolve(context.Background(), OpeningQuery{Company: "ACME", PeriodStart: day("2024-01-01"), PeriodEnd: day("2024-01-31")})
	require.NoError(t, err)
	require.NotNil(t, o.Snapshot)
	assert.Equal(t, "dec", o.Snapshot.ID)
	assert.Equal(t, day("2024-01-01"), o.StartFrom)
	assert.Len(t, o.Keys(), 1)

	o, err = r.Resolve(context.Background(), OpeningQuery{Company: "ACME", PeriodStart: day("2024-01-01"), IgnoreSnapshots: true})
	require.NoError(t, err)
	assert.Nil(t, o.Snapshot)
	assert.True(t, o.StartFrom.IsZero())
	assert.Equal(t, 1, src.snapshotCalls)
}

func TestOpeningResolver_PropagatesErrors(t *testing.T) {
	src := &fakeOpeningSource{err: errors.New("boom")}
	_, err := NewOpeningResolver(src, KeyBuilder{}).Resolve(context.Background(), OpeningQuery{Company: "ACME"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load closing snapshots")
}
