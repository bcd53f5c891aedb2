package stockbalance

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"

	"stockbalance/internal/core/types"
)

// FIFOQueue holds open lots of one key, oldest first.
type FIFOQueue struct {
	lots []FIFOLot
}

// Add appends an incoming lot.
func (q *FIFOQueue) Add(qty decimal.Decimal, date time.Time) {
	if !qty.IsPositive() {
		return
	}
	q.lots = append(q.lots, FIFOLot{Qty: qty, Date: types.DateOnly(date)})
}

// Consume removes qty from the oldest lots first and returns the part that
// could not be covered. The queue never goes negative.
func (q *FIFOQueue) Consume(qty decimal.Decimal) decimal.Decimal {
	remaining := qty
	for remaining.IsPositive() && len(q.lots) > 0 {
		head := &q.lots[0]
		if head.Qty.GreaterThan(remaining) {
			head.Qty = head.Qty.Sub(remaining)
			return decimal.Zero
		}
		remaining = remaining.Sub(head.Qty)
		q.lots = q.lots[1:]
	}
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// Lots returns a copy of the open lots.
func (q *FIFOQueue) Lots() []FIFOLot {
	return slices.Clone(q.lots)
}

// Total returns the open quantity.
func (q *FIFOQueue) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range q.lots {
		sum = sum.Add(l.Qty)
	}
	return sum
}

// AgeingStats are lot ages in days as of the report end date.
type AgeingStats struct {
	AverageAge  decimal.Decimal `json:"averageAge"`
	EarliestAge int64           `json:"earliestAge"`
	LatestAge   int64           `json:"latestAge"`
	Lots        []FIFOLot       `json:"fifoQueue,omitempty"`
}

// Stats computes ages as of asOf. Lots are ordered by date first; a queue
// seeded from a snapshot and extended by this run may be out of order.
func (q *FIFOQueue) Stats(asOf time.Time) AgeingStats {
	lots := make([]FIFOLot, 0, len(q.lots))
	for _, l := range q.lots {
		if l.Qty.IsPositive() {
			lots = append(lots, l)
		}
	}
	if len(lots) == 0 {
		return AgeingStats{AverageAge: decimal.Zero}
	}
	slices.SortStableFunc(lots, func(a, b FIFOLot) int { return a.Date.Compare(b.Date) })

	weighted, total := decimal.Zero, decimal.Zero
	for _, l := range lots {
		age := decimal.NewFromInt(types.DaysBetween(l.Date, asOf))
		weighted = weighted.Add(l.Qty.Mul(age))
		total = total.Add(l.Qty)
	}

	avg := decimal.Zero
	if total.IsPositive() {
		avg = weighted.Div(total).Round(types.AgePrecision)
	}
	return AgeingStats{
		AverageAge:  avg,
		EarliestAge: types.DaysBetween(lots[0].Date, asOf),
		LatestAge:   types.DaysBetween(lots[len(lots)-1].Date, asOf),
		Lots:        lots,
	}
}

// AgeingCalculator keeps a FIFO queue per key.
type AgeingCalculator struct {
	queues map[GroupingKey]*FIFOQueue
	diags  *Diagnostics
}

// NewAgeingCalculator seeds queues from the lots stored on snapshot rows.
func NewAgeingCalculator(opening *Opening, diags *Diagnostics) *AgeingCalculator {
	c := &AgeingCalculator{queues: make(map[GroupingKey]*FIFOQueue), diags: diags}
	for _, k := range opening.Keys() {
		row, _ := opening.Row(k)
		lots := slices.Clone(row.FIFOQueue)
		slices.SortStableFunc(lots, func(a, b FIFOLot) int { return a.Date.Compare(b.Date) })

		q := c.queue(k)
		for _, lot := range lots {
			q.Add(lot.Qty, lot.Date)
		}
	}
	return c
}

func (c *AgeingCalculator) queue(key GroupingKey) *FIFOQueue {
	q, ok := c.queues[key]
	if !ok {
		q = &FIFOQueue{}
		c.queues[key] = q
	}
	return q
}

// Apply feeds one resolved movement: positive quantities open a lot dated on
// the movement day, negative ones consume lots oldest first.
func (c *AgeingCalculator) Apply(a Applied) {
	if a.Bucket == BucketSkipped || a.QtyDelta.IsZero() {
		return
	}

	q := c.queue(a.Key)
	if a.QtyDelta.IsPositive() {
		q.Add(a.QtyDelta, a.Date)
		return
	}

	if short := q.Consume(a.QtyDelta.Abs()); short.IsPositive() {
		c.diags.Add(Diagnostic{
			Kind:      DiagFIFOOverConsumption,
			Message:   "outgoing quantity exceeds open lots, queue floored at zero",
			ItemCode:  a.Key.ItemCode,
			Warehouse: a.Key.Warehouse,
			Quantity:  short,
		})
	}
}

// Stats returns the ageing statistics of key as of asOf.
// Keys without open lots report zero ages.
func (c *AgeingCalculator) Stats(key GroupingKey, asOf time.Time) AgeingStats {
	q, ok := c.queues[key]
	if !ok {
		return AgeingStats{AverageAge: decimal.Zero}
	}
	return q.Stats(asOf)
}
