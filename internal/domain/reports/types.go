// Package reports provides report generation services.
package reports

import (
	"time"

	"github.com/shopspring/decimal"

	"stockbalance/internal/domain/reports/stockbalance"
)

// --- Stock Balance Report ---

// StockBalanceFilter defines the stock balance report request.
type StockBalanceFilter struct {
	// Company is required.
	Company string

	// Period bounds (required, inclusive instants). Movements before FromDate
	// are opening; movements after ToDate are ignored.
	FromDate time.Time
	ToDate   time.Time

	// Item filters
	ItemCodes []string
	ItemGroup string // includes descendant groups
	Brand     string

	// Warehouse filters. Warehouses include their child warehouses;
	// WarehouseType is ignored when Warehouses is set.
	Warehouses    []string
	WarehouseType string

	// Dimensions filters inventory dimension values by field name.
	Dimensions map[string][]string

	// Options
	ShowDimensionWise     bool
	ShowAgeing            bool
	ShowVariantAttributes bool
	IncludeUOM            string
	IncludeZeroStock      bool
	IgnoreClosingBalance  bool

	// Pagination over the computed rows; totals cover every row.
	Limit  int
	Offset int
}

// Period returns the reporting window.
func (f StockBalanceFilter) Period() stockbalance.Period {
	return stockbalance.Period{From: f.FromDate, To: f.ToDate}
}

// SnapshotScope returns the filter subset a closing snapshot is keyed on.
func (f StockBalanceFilter) SnapshotScope() stockbalance.SnapshotScope {
	return stockbalance.SnapshotScope{
		Warehouses:    f.Warehouses,
		ItemCodes:     f.ItemCodes,
		ItemGroup:     f.ItemGroup,
		Brand:         f.Brand,
		WarehouseType: f.WarehouseType,
	}
}

// MovementQuery selects ledger and POS rows for one report run.
type MovementQuery struct {
	Company string
	// From is inclusive; zero reads from the beginning.
	From time.Time
	// To is inclusive.
	To time.Time

	ItemCodes     []string
	ItemGroup     string
	Brand         string
	Warehouses    []string
	WarehouseType string

	// DimensionFields are selected into StockLedgerEntry.Dimensions.
	DimensionFields []string
	// Dimensions filters on dimension values.
	Dimensions map[string][]string
}

// StockBalanceReport represents the full stock balance report.
type StockBalanceReport struct {
	Company  string    `json:"company"`
	Currency string    `json:"currency"`
	FromDate time.Time `json:"fromDate"`
	ToDate   time.Time `json:"toDate"`

	// SnapshotID is the closing snapshot the opening was seeded from, if any.
	SnapshotID string `json:"snapshotId,omitempty"`

	Rows       []stockbalance.Row `json:"rows"`
	TotalItems int                `json:"totalItems"`
	Limit      int                `json:"limit"`
	Offset     int                `json:"offset"`

	// Summary over all rows, not just the page
	Totals stockbalance.Totals `json:"totals"`

	Diagnostics []stockbalance.Diagnostic `json:"diagnostics,omitempty"`
}

// --- Closing Snapshots ---

// ClosingRequest asks for a closing snapshot of [FromDate, ToDate].
type ClosingRequest struct {
	Company       string
	FromDate      time.Time
	ToDate        time.Time
	Warehouses    []string
	ItemCodes     []string
	ItemGroup     string
	Brand         string
	WarehouseType string
}

// ClosingSnapshot is a persisted closing balance set.
type ClosingSnapshot struct {
	Meta stockbalance.SnapshotMeta
	Rows []stockbalance.SnapshotRow
}

// ClosingResult summarizes a created snapshot.
type ClosingResult struct {
	ID          string                    `json:"id"`
	Company     string                    `json:"company"`
	FromDate    time.Time                 `json:"fromDate"`
	ToDate      time.Time                 `json:"toDate"`
	RowCount    int                       `json:"rowCount"`
	BalQty      decimal.Decimal           `json:"balQty"`
	BalVal      decimal.Decimal           `json:"balVal"`
	Diagnostics []stockbalance.Diagnostic `json:"diagnostics,omitempty"`
}
