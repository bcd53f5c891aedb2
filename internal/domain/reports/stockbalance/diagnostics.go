package stockbalance

import (
	"github.com/shopspring/decimal"
)

// DiagnosticKind classifies a non-fatal data-quality condition.
type DiagnosticKind string

const (
	// DiagMissingTimestamp: records without a posting datetime were skipped.
	DiagMissingTimestamp DiagnosticKind = "missing_timestamp"
	// DiagMissingRate: a POS line had no ledger or item valuation rate; zero was used.
	DiagMissingRate DiagnosticKind = "missing_valuation_rate"
	// DiagReconciliationWithoutTarget: a reconciliation row had no qty_after_transaction;
	// its actual_qty was applied as a plain delta.
	DiagReconciliationWithoutTarget DiagnosticKind = "reconciliation_without_target"
	// DiagFIFOOverConsumption: an outgoing movement exceeded the open lots; the queue floored at zero.
	DiagFIFOOverConsumption DiagnosticKind = "fifo_over_consumption"
	// DiagEnrichmentUnavailable: a reserved stock, attribute or UOM lookup failed.
	DiagEnrichmentUnavailable DiagnosticKind = "enrichment_unavailable"
)

// Diagnostic describes one data-quality condition met during computation.
type Diagnostic struct {
	Kind        DiagnosticKind  `json:"kind"`
	Message     string          `json:"message"`
	VoucherType string          `json:"voucherType,omitempty"`
	VoucherNo   string          `json:"voucherNo,omitempty"`
	ItemCode    string          `json:"itemCode,omitempty"`
	Warehouse   string          `json:"warehouse,omitempty"`
	Quantity    decimal.Decimal `json:"quantity,omitempty"`
	Count       int             `json:"count,omitempty"`
}

// Diagnostics collects conditions for one report run.
// The zero value is ready to use; a nil *Diagnostics discards everything.
type Diagnostics struct {
	items []Diagnostic
}

// Add records d.
func (d *Diagnostics) Add(diag Diagnostic) {
	if d == nil {
		return
	}
	d.items = append(d.items, diag)
}

// List returns the collected diagnostics in insertion order.
func (d *Diagnostics) List() []Diagnostic {
	if d == nil {
		return nil
	}
	return d.items
}

// Len returns the number of collected diagnostics.
func (d *Diagnostics) Len() int {
	if d == nil {
		return 0
	}
	return len(d.items)
}

// Count returns how many diagnostics of the given kind were collected.
func (d *Diagnostics) Count(kind DiagnosticKind) int {
	n := 0
	for _, item := range d.List() {
		if item.Kind == kind {
			n++
		}
	}
	return n
}
