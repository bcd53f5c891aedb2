package report_repo

import (
	"context"

	"github.com/Masterminds/squirrel"
	"github.com/shopspring/decimal"

	"stockbalance/internal/domain/reports/stockbalance"
)

// GetReservedStock returns open reservations per item and warehouse.
func (r *ReportRepo) GetReservedStock(ctx context.Context, pairs []stockbalance.ItemWarehouse) (map[stockbalance.ItemWarehouse]decimal.Decimal, error) {
	res := make(map[stockbalance.ItemWarehouse]decimal.Decimal, len(pairs))
	if len(pairs) == 0 {
		return res, nil
	}

	wanted := make(map[stockbalance.ItemWarehouse]struct{}, len(pairs))
	items := make([]string, 0, len(pairs))
	warehouses := make([]string, 0, len(pairs))
	for _, p := range pairs {
		wanted[p] = struct{}{}
		items = append(items, p.ItemCode)
		warehouses = append(warehouses, p.Warehouse)
	}

	type reservedRow struct {
		ItemCode    string          `db:"item_code"`
		Warehouse   string          `db:"warehouse"`
		ReservedQty decimal.Decimal `db:"reserved_qty"`
	}
	rows, err := selectInto[reservedRow](ctx, r, r.reservedStockQuery(items, warehouses), "reserved stock")
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		key := stockbalance.ItemWarehouse{ItemCode: row.ItemCode, Warehouse: row.Warehouse}
		if _, ok := wanted[key]; ok {
			res[key] = row.ReservedQty
		}
	}
	return res, nil
}

func (r *ReportRepo) reservedStockQuery(items, warehouses []string) squirrel.SelectBuilder {
	return r.builder.Select(
		"item_code", "warehouse",
		"SUM(reserved_qty - delivered_qty) AS reserved_qty",
	).
		From(reservationsTable).
		Where(squirrel.Eq{"docstatus": 1}).
		Where(squirrel.NotEq{"status": []string{"Delivered", "Cancelled"}}).
		Where(squirrel.Expr("item_code = ANY(?)", items)).
		Where(squirrel.Expr("warehouse = ANY(?)", warehouses)).
		GroupBy("item_code", "warehouse")
}

// GetVariantAttributes returns attribute name/value pairs per variant item.
func (r *ReportRepo) GetVariantAttributes(ctx context.Context, itemCodes []string) (map[string]map[string]string, error) {
	res := make(map[string]map[string]string)
	if len(itemCodes) == 0 {
		return res, nil
	}

	type attrRow struct {
		ItemCode  string `db:"item_code"`
		Attribute string `db:"attribute"`
		Value     string `db:"attribute_value"`
	}
	sb := r.builder.Select("parent AS item_code", "attribute", "COALESCE(attribute_value, '') AS attribute_value").
		From(variantAttrsTable).
		Where(squirrel.Expr("parent = ANY(?)", itemCodes)).
		OrderBy("parent", "idx")

	rows, err := selectInto[attrRow](ctx, r, sb, "variant attributes")
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		attrs, ok := res[row.ItemCode]
		if !ok {
			attrs = make(map[string]string)
			res[row.ItemCode] = attrs
		}
		attrs[row.Attribute] = row.Value
	}
	return res, nil
}

// GetUOMConversionFactors returns the conversion factor from uom to the
// stock UOM for each item that defines one.
func (r *ReportRepo) GetUOMConversionFactors(ctx context.Context, uom string, itemCodes []string) (map[string]decimal.Decimal, error) {
	res := make(map[string]decimal.Decimal)
	if uom == "" || len(itemCodes) == 0 {
		return res, nil
	}

	type factorRow struct {
		ItemCode string          `db:"item_code"`
		Factor   decimal.Decimal `db:"conversion_factor"`
	}
	sb := r.builder.Select("parent AS item_code", "conversion_factor").
		From(uomConversionTable).
		Where(squirrel.Eq{"parenttype": "Item", "uom": uom}).
		Where(squirrel.Expr("parent = ANY(?)", itemCodes))

	rows, err := selectInto[factorRow](ctx, r, sb, "uom conversion factors")
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		res[row.ItemCode] = row.Factor
	}
	return res, nil
}
