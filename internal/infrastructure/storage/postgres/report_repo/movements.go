package report_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"stockbalance/internal/core/entity"
	"stockbalance/internal/domain/reports"
)

// GetStockLedgerEntries returns submitted, uncancelled ledger rows in posting order.
func (r *ReportRepo) GetStockLedgerEntries(ctx context.Context, q reports.MovementQuery) ([]entity.StockLedgerEntry, error) {
	sb, err := r.ledgerQuery(q)
	if err != nil {
		return nil, err
	}
	return selectInto[entity.StockLedgerEntry](ctx, r, sb, "stock ledger entries")
}

func (r *ReportRepo) ledgerQuery(q reports.MovementQuery) (squirrel.SelectBuilder, error) {
	if err := validateDimensions(q); err != nil {
		return squirrel.SelectBuilder{}, err
	}

	sb := r.builder.Select(
		"sle.item_code", "sle.warehouse", "sle.company", "sle.posting_datetime",
		"sle.voucher_type", "sle.voucher_no",
		"COALESCE(sle.batch_no, '') AS batch_no",
		"COALESCE(sle.serial_no, '') AS serial_no",
		"sle.actual_qty", "sle.qty_after_transaction",
		"sle.valuation_rate", "sle.stock_value_difference",
		"COALESCE(it.item_name, sle.item_code) AS item_name",
		"COALESCE(it.item_group, '') AS item_group",
		"COALESCE(it.stock_uom, '') AS stock_uom",
		dimensionsColumn(q.DimensionFields, "sle"),
	).
		From(ledgerTable + " sle").
		Join(itemsTable + " it ON it.item_code = sle.item_code").
		Where(squirrel.Lt{"sle.docstatus": 2}).
		Where(squirrel.Eq{"sle.is_cancelled": false}).
		Where(squirrel.LtOrEq{"sle.posting_datetime": q.To})

	if q.Company != "" {
		sb = sb.Where(squirrel.Eq{"sle.company": q.Company})
	}
	if !q.From.IsZero() {
		sb = sb.Where(squirrel.GtOrEq{"sle.posting_datetime": q.From})
	}
	sb = withItemFilters(sb, q, "sle.item_code", "it")
	sb = withWarehouseFilters(sb, q, "sle.warehouse")
	sb = withDimensionFilters(sb, q.Dimensions, "sle")

	return sb.OrderBy("sle.posting_datetime", "sle.created_at", "sle.id"), nil
}

// GetPOSInvoiceLines returns lines of submitted, unconsolidated POS invoices
// that are not excluded from stock reports. Each line carries the latest
// ledger valuation rate strictly before its posting time.
func (r *ReportRepo) GetPOSInvoiceLines(ctx context.Context, q reports.MovementQuery, isReturn bool) ([]entity.POSInvoiceLine, error) {
	return selectInto[entity.POSInvoiceLine](ctx, r, r.posQuery(q, isReturn), "pos invoice lines")
}

const posLedgerRate = `(SELECT l.valuation_rate FROM ` + ledgerTable + ` l
	WHERE l.item_code = pii.item_code AND l.warehouse = pii.warehouse
	AND l.docstatus = 1 AND l.is_cancelled = false
	AND l.posting_datetime < pi.posting_datetime
	ORDER BY l.posting_datetime DESC, l.created_at DESC
	LIMIT 1) AS ledger_rate`

func (r *ReportRepo) posQuery(q reports.MovementQuery, isReturn bool) squirrel.SelectBuilder {
	sb := r.builder.Select(
		"pii.item_code", "pii.warehouse", "pi.company", "pi.posting_datetime",
		"pi.name AS voucher_no", "pi.is_return", "pii.stock_qty",
		posLedgerRate,
		"it.valuation_rate AS item_valuation_rate",
		"COALESCE(it.item_name, pii.item_code) AS item_name",
		"COALESCE(it.item_group, '') AS item_group",
		"COALESCE(it.stock_uom, '') AS stock_uom",
	).
		From(posInvoicesTable + " pi").
		Join(posItemsTable + " pii ON pii.parent = pi.name").
		Join(itemsTable + " it ON it.item_code = pii.item_code").
		Where(squirrel.Eq{"pi.docstatus": 1}).
		Where(squirrel.NotEq{"pi.status": "Consolidated"}).
		Where(squirrel.Eq{"pi.is_return": isReturn}).
		Where(squirrel.Eq{"pi.exclude_from_stock_report": false}).
		Where(squirrel.LtOrEq{"pi.posting_datetime": q.To})

	if q.Company != "" {
		sb = sb.Where(squirrel.Eq{"pi.company": q.Company})
	}
	if !q.From.IsZero() {
		sb = sb.Where(squirrel.GtOrEq{"pi.posting_datetime": q.From})
	}
	sb = withItemFilters(sb, q, "pii.item_code", "it")
	sb = withWarehouseFilters(sb, q, "pii.warehouse")

	return sb.OrderBy("pi.posting_datetime", "pi.name", "pii.idx")
}
