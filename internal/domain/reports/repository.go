package reports

import (
	"context"

	"github.com/shopspring/decimal"

	"stockbalance/internal/core/entity"
	"stockbalance/internal/domain/reports/stockbalance"
)

// Repository defines report data access interface.
type Repository interface {
	// Opening state: closing snapshots and opening vouchers
	stockbalance.OpeningSource

	// Movements
	GetStockLedgerEntries(ctx context.Context, q MovementQuery) ([]entity.StockLedgerEntry, error)
	// GetPOSInvoiceLines returns lines of submitted, unconsolidated POS invoices
	// with the given return flag.
	GetPOSInvoiceLines(ctx context.Context, q MovementQuery, isReturn bool) ([]entity.POSInvoiceLine, error)

	// Company
	GetCompanyCurrency(ctx context.Context, company string) (string, error)
}

// EnrichmentRepository supplies per-row figures merged after computation.
// Failures here never block a report.
type EnrichmentRepository interface {
	GetReservedStock(ctx context.Context, pairs []stockbalance.ItemWarehouse) (map[stockbalance.ItemWarehouse]decimal.Decimal, error)
	GetVariantAttributes(ctx context.Context, itemCodes []string) (map[string]map[string]string, error)
	GetUOMConversionFactors(ctx context.Context, uom string, itemCodes []string) (map[string]decimal.Decimal, error)
}

// ClosingRepository persists closing snapshots.
type ClosingRepository interface {
	// SaveClosingSnapshot stores the header and rows. It fails with a
	// CodeSnapshotExists app error when a usable snapshot with the same
	// company, scope and end date already exists.
	SaveClosingSnapshot(ctx context.Context, snapshot ClosingSnapshot) error
}
