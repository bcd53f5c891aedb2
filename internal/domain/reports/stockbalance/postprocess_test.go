package stockbalance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(item string, fields map[string]string) *BalanceRecord {
	r := &BalanceRecord{Key: keyOf(item, "W"), Company: "ACME", ItemCode: item, Warehouse: "W"}
	set := map[string]*decimal.Decimal{
		"opening_qty": &r.OpeningQty, "opening_val": &r.OpeningVal,
		"in_qty": &r.InQty, "in_val": &r.InVal,
		"out_qty": &r.OutQty, "out_val": &r.OutVal,
		"bal_qty": &r.BalQty, "bal_val": &r.BalVal,
		"val_rate": &r.ValRate,
	}
	for k, v := range fields {
		*set[k] = dec(v)
	}
	return r
}

func TestFinalize_ZeroFilters(t *testing.T) {
	build := func() []*BalanceRecord {
		return []*BalanceRecord{
			record("active", map[string]string{"in_qty": "1", "bal_qty": "1", "bal_val": "5"}),
			record("rate-only", map[string]string{"val_rate": "12"}),
			record("residue", map[string]string{"bal_qty": "0.0001", "val_rate": "1"}),
			record("sold-out", map[string]string{"in_qty": "2", "out_qty": "2", "in_val": "4", "out_val": "4"}),
			record("value-only", map[string]string{"bal_val": "3", "opening_val": "3"}),
		}
	}

	var kept []string
	for _, r := range Finalize(build(), FilterOptions{Precision: 3}) {
		kept = append(kept, r.ItemCode)
	}
	assert.Equal(t, []string{"active", "value-only"}, kept)

	all := Finalize(build(), FilterOptions{Precision: 3, IncludeZeroStock: true})
	require.Len(t, all, 5)
	assertDec(t, "0", all[2].BalQty)
}

func TestFinalize_Rounds(t *testing.T) {
	out := Finalize([]*BalanceRecord{
		record("I", map[string]string{"bal_qty": "1.23456", "bal_val": "2.0005", "val_rate": "0.3333"}),
	}, FilterOptions{Precision: 3})
	require.Len(t, out, 1)
	assertDec(t, "1.235", out[0].BalQty)
	assertDec(t, "2.001", out[0].BalVal)
	assertDec(t, "0.333", out[0].ValRate)
}

func TestEnrich(t *testing.T) {
	records := []*BalanceRecord{
		record("I", map[string]string{"opening_qty": "12", "in_qty": "24", "bal_qty": "36", "val_rate": "2"}),
		record("J", map[string]string{"bal_qty": "1"}),
	}
	enr := Enrichment{
		ReservedStock:     map[ItemWarehouse]decimal.Decimal{{ItemCode: "I", Warehouse: "W"}: dec("6")},
		VariantAttributes: map[string]map[string]string{"I": {"Colour": "Red"}},
		IncludeUOM:        "Box",
		ConversionFactors: map[string]decimal.Decimal{"I": dec("12")},
	}

	rows := Enrich(records, enr, nil)
	require.Len(t, rows, 2)

	i := rows[0]
	assertDec(t, "6", i.ReservedStock)
	assert.Equal(t, "Red", i.VariantAttributes["Colour"])
	require.NotNil(t, i.Conversion)
	assert.Equal(t, "Box", i.Conversion.UOM)
	assertDec(t, "1", i.Conversion.OpeningQty)
	assertDec(t, "3", i.Conversion.BalQty)
	assertDec(t, "0.5", i.Conversion.ReservedStock)
	assertDec(t, "24", i.Conversion.ValRate)
	assertDec(t, "36", i.BalQty, "computed fields untouched")
	assert.Nil(t, i.Ageing)

	j := rows[1]
	assertDec(t, "0", j.ReservedStock)
	assert.Nil(t, j.VariantAttributes)
	assert.Nil(t, j.Conversion)
}

func TestItemWarehousesAndCodes(t *testing.T) {
	b := NewKeyBuilder([]string{"project"}, nil, true)
	r1 := record("I", nil)
	r1.Key = b.Key("ACME", "I", "W", map[string]string{"project": "P1"})
	r2 := record("I", nil)
	r2.Key = b.Key("ACME", "I", "W", map[string]string{"project": "P2"})
	r3 := record("J", nil)

	assert.Equal(t, []ItemWarehouse{{ItemCode: "I", Warehouse: "W"}, {ItemCode: "J", Warehouse: "W"}},
		ItemWarehouses([]*BalanceRecord{r1, r2, r3}))
	assert.Equal(t, []string{"I", "J"}, ItemCodes([]*BalanceRecord{r1, r2, r3}))
}

func TestSumRows(t *testing.T) {
	rows := Enrich([]*BalanceRecord{
		record("I", map[string]string{"in_qty": "2", "bal_qty": "2", "bal_val": "20"}),
		record("J", map[string]string{"opening_qty": "1", "out_qty": "1", "out_val": "3"}),
	}, Enrichment{}, nil)

	totals := SumRows(rows)
	assertDec(t, "2", totals.InQty)
	assertDec(t, "1", totals.OpeningQty)
	assertDec(t, "1", totals.OutQty)
	assertDec(t, "3", totals.OutVal)
	assertDec(t, "2", totals.BalQty)
	assertDec(t, "20", totals.BalVal)
}
