package stockbalance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"stockbalance/internal/core/entity"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

func at(s string) time.Time {
	t, err := time.Parse(time.DateTime, s)
	if err != nil {
		panic(err)
	}
	return t
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func ledgerIn(item, wh, ts, qty, value, rate string) entity.StockLedgerEntry {
	return entity.StockLedgerEntry{
		ItemCode:             item,
		Warehouse:            wh,
		Company:              "ACME",
		PostingDatetime:      at(ts),
		VoucherType:          entity.VoucherStockEntry,
		VoucherNo:            "SE-" + ts,
		ActualQty:            dec(qty),
		ValuationRate:        dec(rate),
		StockValueDifference: dec(value),
		ItemName:             item + " name",
		StockUOM:             "Nos",
	}
}

func reconciliation(item, wh, ts, target, value, rate string) entity.StockLedgerEntry {
	e := ledgerIn(item, wh, ts, "0", value, rate)
	e.VoucherType = entity.VoucherStockReconciliation
	e.VoucherNo = "SR-" + ts
	e.QtyAfterTransaction = decimal.NewNullDecimal(dec(target))
	return e
}

func posLine(item, wh, ts, qty string, ret bool) entity.POSInvoiceLine {
	return entity.POSInvoiceLine{
		ItemCode:        item,
		Warehouse:       wh,
		Company:         "ACME",
		PostingDatetime: at(ts),
		VoucherNo:       "POS-" + ts,
		IsReturn:        ret,
		StockQty:        dec(qty),
	}
}

func january() Period {
	return DayPeriod(day("2024-01-01"), day("2024-01-31"))
}

func keyOf(item, wh string) GroupingKey {
	return GroupingKey{Company: "ACME", ItemCode: item, Warehouse: wh}
}
