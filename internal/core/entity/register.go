// Package entity provides the raw record shapes read from the stock ledger
// and the point-of-sale tables.
package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Voucher types with special meaning for the stock balance report.
const (
	VoucherStockEntry          = "Stock Entry"
	VoucherStockReconciliation = "Stock Reconciliation"
	VoucherPOSInvoice          = "POS Invoice"
	VoucherPOSReturn           = "POS Return"
)

// StockLedgerEntry is one row of the stock ledger.
// ActualQty and StockValueDifference are already signed.
// Rows are immutable once posted; cancellations are filtered out by the reader.
type StockLedgerEntry struct {
	ItemCode        string    `db:"item_code" json:"itemCode"`
	Warehouse       string    `db:"warehouse" json:"warehouse"`
	Company         string    `db:"company" json:"company"`
	PostingDatetime time.Time `db:"posting_datetime" json:"postingDatetime"`

	VoucherType string `db:"voucher_type" json:"voucherType"`
	VoucherNo   string `db:"voucher_no" json:"voucherNo"`
	BatchNo     string `db:"batch_no" json:"batchNo,omitempty"`
	SerialNo    string `db:"serial_no" json:"serialNo,omitempty"`

	ActualQty            decimal.Decimal     `db:"actual_qty" json:"actualQty"`
	QtyAfterTransaction  decimal.NullDecimal `db:"qty_after_transaction" json:"qtyAfterTransaction"`
	ValuationRate        decimal.Decimal     `db:"valuation_rate" json:"valuationRate"`
	StockValueDifference decimal.Decimal     `db:"stock_value_difference" json:"stockValueDifference"`

	// Item master fields joined in by the reader
	ItemName  string `db:"item_name" json:"itemName"`
	ItemGroup string `db:"item_group" json:"itemGroup"`
	StockUOM  string `db:"stock_uom" json:"stockUom"`

	// Dimensions holds inventory dimension values keyed by field name (project, ...).
	Dimensions map[string]string `db:"dimensions" json:"dimensions,omitempty"`
}

// IsAbsoluteTarget reports whether the row states a target quantity rather
// than a delta. Stock reconciliations without batch tracking, or with serial
// numbers, record the quantity after the transaction.
func (e *StockLedgerEntry) IsAbsoluteTarget() bool {
	return e.VoucherType == VoucherStockReconciliation && (e.BatchNo == "" || e.SerialNo != "")
}

// POSInvoiceLine is one item line of a submitted, non-consolidated POS invoice.
// StockQty keeps the sign stored on the line: positive on sales, negative on returns.
type POSInvoiceLine struct {
	ItemCode        string    `db:"item_code" json:"itemCode"`
	Warehouse       string    `db:"warehouse" json:"warehouse"`
	Company         string    `db:"company" json:"company"`
	PostingDatetime time.Time `db:"posting_datetime" json:"postingDatetime"`
	VoucherNo       string    `db:"voucher_no" json:"voucherNo"`
	IsReturn        bool      `db:"is_return" json:"isReturn"`

	StockQty decimal.Decimal `db:"stock_qty" json:"stockQty"`

	// LedgerRate is the latest ledger valuation rate strictly before the
	// posting time, when the reader resolved it.
	LedgerRate decimal.NullDecimal `db:"ledger_rate" json:"ledgerRate"`
	// ItemValuationRate is the item master's static valuation rate.
	ItemValuationRate decimal.NullDecimal `db:"item_valuation_rate" json:"itemValuationRate"`

	ItemName  string `db:"item_name" json:"itemName"`
	ItemGroup string `db:"item_group" json:"itemGroup"`
	StockUOM  string `db:"stock_uom" json:"stockUom"`
}
