package stockbalance

import (
	"time"

	"github.com/shopspring/decimal"

	"stockbalance/internal/core/apperror"
	"stockbalance/internal/core/types"
)

// Period is the reporting window between two instants, both inclusive.
// Movements before From are opening, movements after To are not consumed.
type Period struct {
	From time.Time
	To   time.Time
}

// DayPeriod spans the whole days from..to. Zero bounds stay zero.
func DayPeriod(from, to time.Time) Period {
	p := Period{From: types.DateOnly(from)}
	if !to.IsZero() {
		p.To = types.EndOfDay(to)
	}
	return p
}

// Validate checks that both bounds are set and ordered.
func (p Period) Validate() error {
	if p.From.IsZero() || p.To.IsZero() {
		return apperror.NewInvalidPeriod("from date and to date are required")
	}
	if p.To.Before(p.From) {
		return apperror.NewInvalidPeriod("from date must be before to date").
			WithDetail("from", p.From.Format(time.RFC3339)).
			WithDetail("to", p.To.Format(time.RFC3339))
	}
	return nil
}

// StartDate is the first day of the period, used for snapshot selection.
func (p Period) StartDate() time.Time { return types.DateOnly(p.From) }

// Contains reports whether ts lies within [From, To].
func (p Period) Contains(ts time.Time) bool {
	return !ts.Before(p.From) && !ts.After(p.To)
}

// Bucket is where an event landed.
type Bucket int

const (
	BucketSkipped Bucket = iota
	BucketOpening
	BucketPeriod
)

// BalanceRecord is the running balance of one grouping key.
// bal = opening + in - out holds for quantity and value after every event.
type BalanceRecord struct {
	Key GroupingKey

	Company    string
	Currency   string
	ItemCode   string
	ItemName   string
	ItemGroup  string
	Warehouse  string
	StockUOM   string
	Dimensions map[string]string

	OpeningQty decimal.Decimal
	OpeningVal decimal.Decimal
	InQty      decimal.Decimal
	InVal      decimal.Decimal
	OutQty     decimal.Decimal
	OutVal     decimal.Decimal
	BalQty     decimal.Decimal
	BalVal     decimal.Decimal
	ValRate    decimal.Decimal
}

// Applied reports the effect of one event.
type Applied struct {
	Key      GroupingKey
	Bucket   Bucket
	QtyDelta decimal.Decimal
	Date     time.Time
}

// Accumulator folds the ordered event stream into per-key balances.
// Not safe for concurrent use.
type Accumulator struct {
	period    Period
	precision int32
	currency  string
	opening   *Opening
	diags     *Diagnostics

	order   []GroupingKey
	records map[GroupingKey]*BalanceRecord
}

// NewAccumulator creates an accumulator seeded lazily from opening.
// opening may be nil.
func NewAccumulator(period Period, precision int32, currency string, opening *Opening, diags *Diagnostics) *Accumulator {
	return &Accumulator{
		period:    period,
		precision: precision,
		currency:  currency,
		opening:   opening,
		diags:     diags,
		records:   make(map[GroupingKey]*BalanceRecord),
	}
}

// Apply consumes one event. Events after the period end are skipped.
func (a *Accumulator) Apply(ev MovementEvent) Applied {
	res := Applied{Key: ev.Key, Date: types.DateOnly(ev.Timestamp)}
	if ev.Timestamp.After(a.period.To) {
		return res
	}

	rec := a.record(ev.Key, ev.Attrs)
	qty := a.resolveQty(rec, ev)
	val := ev.ValueDelta

	if ev.Timestamp.Before(a.period.From) || a.opening.IsOpeningVoucher(ev.VoucherType, ev.VoucherNo) {
		rec.OpeningQty = rec.OpeningQty.Add(qty)
		rec.OpeningVal = rec.OpeningVal.Add(val)
		res.Bucket = BucketOpening
	} else {
		if types.NonNegativeAt(qty, a.precision) {
			rec.InQty = rec.InQty.Add(qty)
		} else {
			rec.OutQty = rec.OutQty.Add(qty.Abs())
		}
		// Value is classified on its own sign: a reconciliation can lower
		// quantity while raising value.
		if types.NonNegativeAt(val, a.precision) {
			rec.InVal = rec.InVal.Add(val)
		} else {
			rec.OutVal = rec.OutVal.Add(val.Abs())
		}
		res.Bucket = BucketPeriod
	}

	rec.ValRate = ev.ValuationRate
	rec.BalQty = rec.BalQty.Add(qty)
	rec.BalVal = rec.BalVal.Add(val)
	res.QtyDelta = qty
	return res
}

// resolveQty returns the quantity effect of ev against the current balance.
func (a *Accumulator) resolveQty(rec *BalanceRecord, ev MovementEvent) decimal.Decimal {
	if !ev.AbsoluteTarget {
		return ev.QtyDelta
	}
	if ev.TargetQty.Valid {
		return ev.TargetQty.Decimal.Sub(rec.BalQty)
	}
	a.diags.Add(Diagnostic{
		Kind:        DiagReconciliationWithoutTarget,
		Message:     "reconciliation has no quantity after transaction, applying actual quantity",
		VoucherType: ev.VoucherType,
		VoucherNo:   ev.VoucherNo,
		ItemCode:    ev.Key.ItemCode,
		Warehouse:   ev.Key.Warehouse,
		Quantity:    ev.QtyDelta,
	})
	return ev.QtyDelta
}

// record returns the record for key, creating it from the snapshot row or
// from zero on first sight.
func (a *Accumulator) record(key GroupingKey, attrs ItemAttributes) *BalanceRecord {
	if rec, ok := a.records[key]; ok {
		return rec
	}

	rec := &BalanceRecord{
		Key:        key,
		Company:    key.Company,
		Currency:   a.currency,
		ItemCode:   key.ItemCode,
		Warehouse:  key.Warehouse,
		ItemName:   attrs.ItemName,
		ItemGroup:  attrs.ItemGroup,
		StockUOM:   attrs.StockUOM,
		Dimensions: key.DimensionValues(),
	}
	if row, ok := a.opening.Row(key); ok {
		rec.OpeningQty = row.BalQty
		rec.OpeningVal = row.BalVal
		rec.BalQty = row.BalQty
		rec.BalVal = row.BalVal
		rec.ValRate = row.ValRate
		if rec.ItemName == "" {
			rec.ItemName = row.ItemName
		}
		if rec.ItemGroup == "" {
			rec.ItemGroup = row.ItemGroup
		}
		if rec.StockUOM == "" {
			rec.StockUOM = row.StockUOM
		}
	}

	a.order = append(a.order, key)
	a.records[key] = rec
	return rec
}

// Records returns every record in first-seen order, followed by snapshot
// keys that saw no event in this run.
func (a *Accumulator) Records() []*BalanceRecord {
	for _, k := range a.opening.Keys() {
		if _, ok := a.records[k]; ok {
			continue
		}
		row, _ := a.opening.Row(k)
		a.record(k, ItemAttributes{ItemName: row.ItemName, ItemGroup: row.ItemGroup, StockUOM: row.StockUOM})
	}

	out := make([]*BalanceRecord, 0, len(a.order))
	for _, k := range a.order {
		out = append(out, a.records[k])
	}
	return out
}

// Len returns the number of tracked keys.
func (a *Accumulator) Len() int {
	return len(a.records)
}
