package stockbalance

import (
	"cmp"
	"fmt"
	"slices"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"stockbalance/internal/core/entity"
)

// SourceKind identifies the stream a movement came from.
// The numeric order is the tie-break order for equal timestamps.
type SourceKind int

const (
	SourceLedger SourceKind = iota
	SourcePOSSale
	SourcePOSReturn
)

func (s SourceKind) String() string {
	switch s {
	case SourceLedger:
		return "ledger"
	case SourcePOSSale:
		return "pos_sale"
	case SourcePOSReturn:
		return "pos_return"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// ItemAttributes are descriptive fields carried from the source row onto the
// balance record it creates.
type ItemAttributes struct {
	ItemName   string
	ItemGroup  string
	StockUOM   string
	Dimensions map[string]string
}

// MovementEvent is one inventory movement in the unified stream.
type MovementEvent struct {
	Key       GroupingKey
	Timestamp time.Time
	Source    SourceKind
	// Seq is the position in the input before sorting.
	Seq int

	QtyDelta      decimal.Decimal
	ValueDelta    decimal.Decimal
	ValuationRate decimal.Decimal

	VoucherType string
	VoucherNo   string

	// AbsoluteTarget marks reconciliation rows whose quantity effect is
	// TargetQty minus the running balance, resolved by the accumulator.
	AbsoluteTarget bool
	TargetQty      decimal.NullDecimal

	Attrs ItemAttributes
}

// RateLookup resolves the latest ledger valuation rate strictly before at.
type RateLookup interface {
	RateBefore(itemCode, warehouse string, at time.Time) (decimal.Decimal, bool)
}

type ratePoint struct {
	at   time.Time
	rate decimal.Decimal
}

// LedgerRateIndex is an in-memory RateLookup over ledger entries.
type LedgerRateIndex struct {
	points map[ItemWarehouse][]ratePoint
}

// NewLedgerRateIndex indexes the valuation rates of entries.
// Entries without a posting time are ignored.
func NewLedgerRateIndex(entries []entity.StockLedgerEntry) *LedgerRateIndex {
	idx := &LedgerRateIndex{points: make(map[ItemWarehouse][]ratePoint)}
	for i := range entries {
		e := &entries[i]
		if e.PostingDatetime.IsZero() {
			continue
		}
		iw := ItemWarehouse{ItemCode: e.ItemCode, Warehouse: e.Warehouse}
		idx.points[iw] = append(idx.points[iw], ratePoint{at: e.PostingDatetime, rate: e.ValuationRate})
	}
	for iw := range idx.points {
		slices.SortStableFunc(idx.points[iw], func(a, b ratePoint) int {
			return a.at.Compare(b.at)
		})
	}
	return idx
}

// RateBefore implements RateLookup.
func (idx *LedgerRateIndex) RateBefore(itemCode, warehouse string, at time.Time) (decimal.Decimal, bool) {
	pts := idx.points[ItemWarehouse{ItemCode: itemCode, Warehouse: warehouse}]
	i := sort.Search(len(pts), func(i int) bool { return !pts[i].at.Before(at) })
	if i == 0 {
		return decimal.Zero, false
	}
	return pts[i-1].rate, true
}

// Normalizer turns raw ledger and POS rows into one ordered event stream.
type Normalizer struct {
	keys  KeyBuilder
	rates RateLookup
	diags *Diagnostics
}

// NewNormalizer creates a normalizer. rates may be nil, in which case POS
// lines fall back to their own rates only.
func NewNormalizer(keys KeyBuilder, rates RateLookup, diags *Diagnostics) *Normalizer {
	return &Normalizer{keys: keys, rates: rates, diags: diags}
}

// Normalize converts and merges the three streams and sorts the result by
// timestamp. Equal timestamps keep ledger first, then POS sales, then POS
// returns, each in input order.
func (n *Normalizer) Normalize(
	ledger []entity.StockLedgerEntry,
	sales []entity.POSInvoiceLine,
	returns []entity.POSInvoiceLine,
) []MovementEvent {
	events := make([]MovementEvent, 0, len(ledger)+len(sales)+len(returns))
	var missing []string

	for i := range ledger {
		e := &ledger[i]
		if e.PostingDatetime.IsZero() {
			missing = append(missing, e.VoucherType+" "+e.VoucherNo)
			continue
		}
		events = append(events, n.fromLedger(e, len(events)))
	}
	for i := range sales {
		l := &sales[i]
		if l.PostingDatetime.IsZero() {
			missing = append(missing, entity.VoucherPOSInvoice+" "+l.VoucherNo)
			continue
		}
		events = append(events, n.fromPOS(l, SourcePOSSale, len(events)))
	}
	for i := range returns {
		l := &returns[i]
		if l.PostingDatetime.IsZero() {
			missing = append(missing, entity.VoucherPOSReturn+" "+l.VoucherNo)
			continue
		}
		events = append(events, n.fromPOS(l, SourcePOSReturn, len(events)))
	}

	if len(missing) > 0 {
		n.diags.Add(Diagnostic{
			Kind:    DiagMissingTimestamp,
			Message: fmt.Sprintf("skipped %d record(s) without posting time, first: %s", len(missing), missing[0]),
			Count:   len(missing),
		})
	}

	slices.SortFunc(events, compareEvents)
	return events
}

func compareEvents(a, b MovementEvent) int {
	if c := a.Timestamp.Compare(b.Timestamp); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Source, b.Source); c != 0 {
		return c
	}
	return cmp.Compare(a.Seq, b.Seq)
}

func (n *Normalizer) fromLedger(e *entity.StockLedgerEntry, seq int) MovementEvent {
	ev := MovementEvent{
		Key:           n.keys.Key(e.Company, e.ItemCode, e.Warehouse, e.Dimensions),
		Timestamp:     e.PostingDatetime,
		Source:        SourceLedger,
		Seq:           seq,
		QtyDelta:      e.ActualQty,
		ValueDelta:    e.StockValueDifference,
		ValuationRate: e.ValuationRate,
		VoucherType:   e.VoucherType,
		VoucherNo:     e.VoucherNo,
		Attrs: ItemAttributes{
			ItemName:   e.ItemName,
			ItemGroup:  e.ItemGroup,
			StockUOM:   e.StockUOM,
			Dimensions: e.Dimensions,
		},
	}
	if e.IsAbsoluteTarget() {
		ev.AbsoluteTarget = true
		ev.TargetQty = e.QtyAfterTransaction
	}
	return ev
}

// fromPOS applies the sign correction: sales always reduce stock, returns
// always add it back, whatever sign the line stores.
func (n *Normalizer) fromPOS(l *entity.POSInvoiceLine, source SourceKind, seq int) MovementEvent {
	qty := l.StockQty.Neg()
	voucherType := entity.VoucherPOSInvoice
	if source == SourcePOSReturn {
		qty = l.StockQty.Abs()
		voucherType = entity.VoucherPOSReturn
	}

	rate := n.resolveRate(l, voucherType)
	return MovementEvent{
		Key:           n.keys.Key(l.Company, l.ItemCode, l.Warehouse, nil),
		Timestamp:     l.PostingDatetime,
		Source:        source,
		Seq:           seq,
		QtyDelta:      qty,
		ValueDelta:    qty.Mul(rate),
		ValuationRate: rate,
		VoucherType:   voucherType,
		VoucherNo:     l.VoucherNo,
		Attrs: ItemAttributes{
			ItemName:  l.ItemName,
			ItemGroup: l.ItemGroup,
			StockUOM:  l.StockUOM,
		},
	}
}

// resolveRate picks the ledger rate before the sale, then the item master
// rate, then zero.
func (n *Normalizer) resolveRate(l *entity.POSInvoiceLine, voucherType string) decimal.Decimal {
	if l.LedgerRate.Valid {
		return l.LedgerRate.Decimal
	}
	if n.rates != nil {
		if r, ok := n.rates.RateBefore(l.ItemCode, l.Warehouse, l.PostingDatetime); ok {
			return r
		}
	}
	if l.ItemValuationRate.Valid {
		return l.ItemValuationRate.Decimal
	}

	n.diags.Add(Diagnostic{
		Kind:        DiagMissingRate,
		Message:     "no valuation rate available, using zero",
		VoucherType: voucherType,
		VoucherNo:   l.VoucherNo,
		ItemCode:    l.ItemCode,
		Warehouse:   l.Warehouse,
	})
	return decimal.Zero
}
