package stockbalance

import (
	"github.com/shopspring/decimal"
)

// Enrichment carries per-key figures supplied by collaborators.
// Missing entries default to zero or empty.
type Enrichment struct {
	ReservedStock     map[ItemWarehouse]decimal.Decimal
	VariantAttributes map[string]map[string]string
	// IncludeUOM is the additional unit requested, empty for none.
	IncludeUOM        string
	ConversionFactors map[string]decimal.Decimal
}

// UOMConversion restates quantities in an additional unit of measure.
// Quantities are divided by the factor, rates multiplied by it.
type UOMConversion struct {
	UOM           string          `json:"uom"`
	Factor        decimal.Decimal `json:"factor"`
	OpeningQty    decimal.Decimal `json:"openingQty"`
	InQty         decimal.Decimal `json:"inQty"`
	OutQty        decimal.Decimal `json:"outQty"`
	BalQty        decimal.Decimal `json:"balQty"`
	ReservedStock decimal.Decimal `json:"reservedStock"`
	ValRate       decimal.Decimal `json:"valRate"`
}

// Row is one finalized report line.
type Row struct {
	BalanceRecord

	ReservedStock     decimal.Decimal
	VariantAttributes map[string]string
	Conversion        *UOMConversion
	Ageing            *AgeingStats
}

// FilterOptions control finalization.
type FilterOptions struct {
	Precision int32
	// IncludeZeroStock keeps keys with no activity and keys with zero balance.
	IncludeZeroStock bool
}

// roundRecord rounds every numeric field in place.
func roundRecord(r *BalanceRecord, precision int32) {
	for _, f := range []*decimal.Decimal{
		&r.OpeningQty, &r.OpeningVal,
		&r.InQty, &r.InVal,
		&r.OutQty, &r.OutVal,
		&r.BalQty, &r.BalVal,
		&r.ValRate,
	} {
		*f = f.Round(precision)
	}
}

// hasActivity reports whether any field except the valuation rate is non-zero.
// Call after rounding.
func hasActivity(r *BalanceRecord) bool {
	for _, v := range []decimal.Decimal{
		r.OpeningQty, r.OpeningVal,
		r.InQty, r.InVal,
		r.OutQty, r.OutVal,
		r.BalQty, r.BalVal,
	} {
		if !v.IsZero() {
			return true
		}
	}
	return false
}

// Finalize rounds records and drops keys without activity, then keys with
// zero balance quantity and value, unless IncludeZeroStock is set.
// The input order is kept.
func Finalize(records []*BalanceRecord, opts FilterOptions) []*BalanceRecord {
	out := make([]*BalanceRecord, 0, len(records))
	for _, r := range records {
		roundRecord(r, opts.Precision)
		if opts.IncludeZeroStock {
			out = append(out, r)
			continue
		}
		if !hasActivity(r) {
			continue
		}
		if r.BalQty.IsZero() && r.BalVal.IsZero() {
			continue
		}
		out = append(out, r)
	}
	return out
}

// ItemWarehouses returns the distinct (item, warehouse) pairs of records.
func ItemWarehouses(records []*BalanceRecord) []ItemWarehouse {
	seen := make(map[ItemWarehouse]struct{}, len(records))
	var out []ItemWarehouse
	for _, r := range records {
		iw := r.Key.ItemWarehouse()
		if _, ok := seen[iw]; ok {
			continue
		}
		seen[iw] = struct{}{}
		out = append(out, iw)
	}
	return out
}

// ItemCodes returns the distinct item codes of records.
func ItemCodes(records []*BalanceRecord) []string {
	seen := make(map[string]struct{}, len(records))
	var out []string
	for _, r := range records {
		if _, ok := seen[r.ItemCode]; ok {
			continue
		}
		seen[r.ItemCode] = struct{}{}
		out = append(out, r.ItemCode)
	}
	return out
}

// Enrich merges collaborator data into finalized records without touching
// the computed quantity and value fields. ageing may be nil.
func Enrich(records []*BalanceRecord, enr Enrichment, ageing func(GroupingKey) AgeingStats) []Row {
	rows := make([]Row, 0, len(records))
	for _, r := range records {
		row := Row{
			BalanceRecord:     *r,
			ReservedStock:     enr.ReservedStock[r.Key.ItemWarehouse()],
			VariantAttributes: enr.VariantAttributes[r.ItemCode],
		}
		if enr.IncludeUOM != "" {
			if f, ok := enr.ConversionFactors[r.ItemCode]; ok && !f.IsZero() {
				row.Conversion = convert(r, row.ReservedStock, enr.IncludeUOM, f)
			}
		}
		if ageing != nil {
			stats := ageing(r.Key)
			row.Ageing = &stats
		}
		rows = append(rows, row)
	}
	return rows
}

func convert(r *BalanceRecord, reserved decimal.Decimal, uom string, factor decimal.Decimal) *UOMConversion {
	return &UOMConversion{
		UOM:           uom,
		Factor:        factor,
		OpeningQty:    r.OpeningQty.Div(factor),
		InQty:         r.InQty.Div(factor),
		OutQty:        r.OutQty.Div(factor),
		BalQty:        r.BalQty.Div(factor),
		ReservedStock: reserved.Div(factor),
		ValRate:       r.ValRate.Mul(factor),
	}
}

// Totals sums quantity and value columns over rows.
type Totals struct {
	OpeningQty decimal.Decimal `json:"openingQty"`
	OpeningVal decimal.Decimal `json:"openingVal"`
	InQty      decimal.Decimal `json:"inQty"`
	InVal      decimal.Decimal `json:"inVal"`
	OutQty     decimal.Decimal `json:"outQty"`
	OutVal     decimal.Decimal `json:"outVal"`
	BalQty     decimal.Decimal `json:"balQty"`
	BalVal     decimal.Decimal `json:"balVal"`
}

// SumRows computes report totals.
func SumRows(rows []Row) Totals {
	var t Totals
	for i := range rows {
		r := &rows[i]
		t.OpeningQty = t.OpeningQty.Add(r.OpeningQty)
		t.OpeningVal = t.OpeningVal.Add(r.OpeningVal)
		t.InQty = t.InQty.Add(r.InQty)
		t.InVal = t.InVal.Add(r.InVal)
		t.OutQty = t.OutQty.Add(r.OutQty)
		t.OutVal = t.OutVal.Add(r.OutVal)
		t.BalQty = t.BalQty.Add(r.BalQty)
		t.BalVal = t.BalVal.Add(r.BalVal)
	}
	return t
}
