package stockbalance

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockbalance/internal/core/types"
)

// Closing snapshot lifecycle values.
const (
	SnapshotStatusCompleted = "Completed"
	DocStatusSubmitted      = 1
)

// SnapshotScope is the filter set a closing snapshot was taken under.
// A snapshot only seeds a report with the same scope.
type SnapshotScope struct {
	Warehouses    []string `json:"warehouses,omitempty"`
	ItemCodes     []string `json:"itemCodes,omitempty"`
	ItemGroup     string   `json:"itemGroup,omitempty"`
	Brand         string   `json:"brand,omitempty"`
	WarehouseType string   `json:"warehouseType,omitempty"`
}

// Canonical returns a stable text form of the scope, used for storage and matching.
func (s SnapshotScope) Canonical() string {
	wh := slices.Clone(s.Warehouses)
	slices.Sort(wh)
	items := slices.Clone(s.ItemCodes)
	slices.Sort(items)
	return fmt.Sprintf("wh=%s;item=%s;group=%s;brand=%s;type=%s",
		strings.Join(slices.Compact(wh), ","),
		strings.Join(slices.Compact(items), ","),
		s.ItemGroup, s.Brand, s.WarehouseType)
}

// SnapshotMeta describes one closing snapshot header.
type SnapshotMeta struct {
	ID          string    `db:"id" json:"id"`
	Company     string    `db:"company" json:"company"`
	FromDate    time.Time `db:"from_date" json:"fromDate"`
	ToDate      time.Time `db:"to_date" json:"toDate"`
	Status      string    `db:"status" json:"status"`
	DocStatus   int       `db:"docstatus" json:"docstatus"`
	Scope       string    `db:"scope" json:"scope"`
	SubmittedAt time.Time `db:"submitted_at" json:"submittedAt"`
}

// Usable reports whether the snapshot is submitted and completed.
func (m SnapshotMeta) Usable() bool {
	return m.DocStatus == DocStatusSubmitted && m.Status == SnapshotStatusCompleted
}

// FIFOLot is one open lot of a FIFO queue.
type FIFOLot struct {
	Qty  decimal.Decimal `json:"qty"`
	Date time.Time       `json:"date"`
}

// SnapshotRow is one line of a closing snapshot.
type SnapshotRow struct {
	Company    string            `json:"company"`
	ItemCode   string            `json:"itemCode"`
	Warehouse  string            `json:"warehouse"`
	ItemName   string            `json:"itemName,omitempty"`
	ItemGroup  string            `json:"itemGroup,omitempty"`
	StockUOM   string            `json:"stockUom,omitempty"`
	Dimensions map[string]string `json:"dimensions,omitempty"`
	BalQty     decimal.Decimal   `json:"balQty"`
	BalVal     decimal.Decimal   `json:"balVal"`
	ValRate    decimal.Decimal   `json:"valRate"`
	FIFOQueue  []FIFOLot         `json:"fifoQueue,omitempty"`
}

// SelectSnapshot picks the usable snapshot of company with the latest end
// date on or before periodStart. Ties on end date go to the later submission.
func SelectSnapshot(candidates []SnapshotMeta, company, scope string, periodStart time.Time) (SnapshotMeta, bool) {
	start := types.DateOnly(periodStart)
	var best SnapshotMeta
	found := false
	for _, c := range candidates {
		if !c.Usable() || c.Company != company || c.Scope != scope {
			continue
		}
		if types.DateOnly(c.ToDate).After(start) {
			continue
		}
		if !found || c.ToDate.After(best.ToDate) ||
			(c.ToDate.Equal(best.ToDate) && c.SubmittedAt.After(best.SubmittedAt)) {
			best = c
			found = true
		}
	}
	return best, found
}

// OpeningVoucherSet holds (voucher type, voucher no) pairs whose movements
// always count as opening.
type OpeningVoucherSet map[string]map[string]struct{}

// Add inserts a voucher.
func (s OpeningVoucherSet) Add(voucherType, voucherNo string) {
	nos, ok := s[voucherType]
	if !ok {
		nos = make(map[string]struct{})
		s[voucherType] = nos
	}
	nos[voucherNo] = struct{}{}
}

// Contains reports whether the voucher is an opening voucher.
func (s OpeningVoucherSet) Contains(voucherType, voucherNo string) bool {
	_, ok := s[voucherType][voucherNo]
	return ok
}

// Opening is the resolved starting state of a report run.
type Opening struct {
	Snapshot *SnapshotMeta
	// StartFrom is the day after the snapshot end date, or zero without a snapshot.
	StartFrom time.Time
	Vouchers  OpeningVoucherSet

	order []GroupingKey
	rows  map[GroupingKey]SnapshotRow
}

// NewOpening builds the opening state from a snapshot and its rows.
// snapshot may be nil. Rows are re-keyed with keys so that they line up with
// the movement stream; rows mapping to the same key are summed.
func NewOpening(keys KeyBuilder, snapshot *SnapshotMeta, rows []SnapshotRow, vouchers OpeningVoucherSet) *Opening {
	o := &Opening{
		Snapshot: snapshot,
		Vouchers: vouchers,
		rows:     make(map[GroupingKey]SnapshotRow, len(rows)),
	}
	if o.Vouchers == nil {
		o.Vouchers = make(OpeningVoucherSet)
	}
	if snapshot == nil {
		return o
	}

	o.StartFrom = types.DateOnly(snapshot.ToDate).AddDate(0, 0, 1)
	for _, r := range rows {
		k := keys.Key(r.Company, r.ItemCode, r.Warehouse, r.Dimensions)
		if prev, ok := o.rows[k]; ok {
			prev.BalQty = prev.BalQty.Add(r.BalQty)
			prev.BalVal = prev.BalVal.Add(r.BalVal)
			prev.FIFOQueue = append(prev.FIFOQueue, r.FIFOQueue...)
			o.rows[k] = prev
			continue
		}
		o.order = append(o.order, k)
		o.rows[k] = r
	}
	return o
}

// Row returns the snapshot row for key.
func (o *Opening) Row(key GroupingKey) (SnapshotRow, bool) {
	if o == nil {
		return SnapshotRow{}, false
	}
	r, ok := o.rows[key]
	return r, ok
}

// Keys returns the snapshot keys in snapshot order.
func (o *Opening) Keys() []GroupingKey {
	if o == nil {
		return nil
	}
	return o.order
}

// IsOpeningVoucher reports whether the voucher belongs to the opening bucket.
func (o *Opening) IsOpeningVoucher(voucherType, voucherNo string) bool {
	if o == nil {
		return false
	}
	return o.Vouchers.Contains(voucherType, voucherNo)
}

// OpeningQuery scopes an opening lookup.
type OpeningQuery struct {
	Company     string
	Scope       SnapshotScope
	// PeriodStart selects snapshots by its date.
	PeriodStart time.Time
	// PeriodEnd is the inclusive bound of the opening voucher lookup.
	PeriodEnd time.Time
	// Dimensions drops snapshot rows whose dimension values are not listed.
	Dimensions map[string][]string
	// IgnoreSnapshots disables snapshot seeding; every movement is read from the beginning.
	IgnoreSnapshots bool
}

// matchesDimensions reports whether row passes every dimension filter.
func matchesDimensions(row SnapshotRow, filters map[string][]string) bool {
	for name, values := range filters {
		if len(values) > 0 && !slices.Contains(values, row.Dimensions[name]) {
			return false
		}
	}
	return true
}

// OpeningSource reads the persisted inputs for an opening.
type OpeningSource interface {
	// ClosingSnapshots returns candidate snapshot headers of company ending on or before periodStart.
	ClosingSnapshots(ctx context.Context, company, scope string, periodStart time.Time) ([]SnapshotMeta, error)
	// SnapshotRows returns the rows of one snapshot.
	SnapshotRows(ctx context.Context, snapshotID string) ([]SnapshotRow, error)
	// OpeningVouchers returns opening stock entries and opening reconciliations posted up to through.
	OpeningVouchers(ctx context.Context, company string, through time.Time) (OpeningVoucherSet, error)
}

// OpeningResolver determines the starting state of a report run.
type OpeningResolver struct {
	source OpeningSource
	keys   KeyBuilder
}

// NewOpeningResolver creates a resolver.
func NewOpeningResolver(source OpeningSource, keys KeyBuilder) *OpeningResolver {
	return &OpeningResolver{source: source, keys: keys}
}

// Resolve selects the snapshot, loads its rows and the opening voucher set.
func (r *OpeningResolver) Resolve(ctx context.Context, q OpeningQuery) (*Opening, error) {
	vouchers, err := r.source.OpeningVouchers(ctx, q.Company, q.PeriodEnd)
	if err != nil {
		return nil, fmt.Errorf("load opening vouchers: %w", err)
	}
	if q.IgnoreSnapshots {
		return NewOpening(r.keys, nil, nil, vouchers), nil
	}

	scope := q.Scope.Canonical()
	candidates, err := r.source.ClosingSnapshots(ctx, q.Company, scope, q.PeriodStart)
	if err != nil {
		return nil, fmt.Errorf("load closing snapshots: %w", err)
	}
	meta, ok := SelectSnapshot(candidates, q.Company, scope, q.PeriodStart)
	if !ok {
		return NewOpening(r.keys, nil, nil, vouchers), nil
	}

	rows, err := r.source.SnapshotRows(ctx, meta.ID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot %s rows: %w", meta.ID, err)
	}
	if len(q.Dimensions) > 0 {
		rows = slices.DeleteFunc(rows, func(row SnapshotRow) bool {
			return !matchesDimensions(row, q.Dimensions)
		})
	}
	return NewOpening(r.keys, &meta, rows, vouchers), nil
}
