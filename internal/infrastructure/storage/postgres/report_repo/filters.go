package report_repo

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"stockbalance/internal/domain/reports"
)

// withItemFilters restricts rows to the selected items, the descendants of
// the item group and the brand. itemCol is the item code column of the
// driving table; itemAlias is the joined items table.
func withItemFilters(sb squirrel.SelectBuilder, q reports.MovementQuery, itemCol, itemAlias string) squirrel.SelectBuilder {
	if len(q.ItemCodes) > 0 {
		sb = sb.Where(squirrel.Eq{itemCol: q.ItemCodes})
	}
	if q.ItemGroup != "" {
		sb = sb.Where(squirrel.Expr(itemAlias+".item_group IN ("+
			"SELECT c.name FROM "+itemGroupsTable+" c "+
			"JOIN "+itemGroupsTable+" p ON c.lft >= p.lft AND c.rgt <= p.rgt "+
			"WHERE p.name = ?)", q.ItemGroup))
	}
	if q.Brand != "" {
		sb = sb.Where(squirrel.Eq{itemAlias + ".brand": q.Brand})
	}
	return sb
}

// withWarehouseFilters restricts rows to the selected warehouses and their
// children, or else to warehouses of the given type. The type is ignored
// when warehouses are listed.
func withWarehouseFilters(sb squirrel.SelectBuilder, q reports.MovementQuery, whCol string) squirrel.SelectBuilder {
	switch {
	case len(q.Warehouses) > 0:
		sb = sb.Where(squirrel.Expr(whCol+" IN ("+
			"SELECT c.name FROM "+warehousesTable+" c "+
			"JOIN "+warehousesTable+" p ON c.lft >= p.lft AND c.rgt <= p.rgt "+
			"WHERE p.name = ANY(?))", q.Warehouses))
	case q.WarehouseType != "":
		sb = sb.Where(squirrel.Expr(whCol+" IN (SELECT name FROM "+warehousesTable+" WHERE warehouse_type = ?)", q.WarehouseType))
	}
	return sb
}

// withDimensionFilters applies dimension value filters on ledger columns.
// Names must already be validated.
func withDimensionFilters(sb squirrel.SelectBuilder, dims map[string][]string, alias string) squirrel.SelectBuilder {
	names := make([]string, 0, len(dims))
	for name, values := range dims {
		if len(values) > 0 {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	for _, name := range names {
		sb = sb.Where(squirrel.Eq{alias + "." + pgx.Identifier{name}.Sanitize(): dims[name]})
	}
	return sb
}

// dimensionsColumn selects the configured dimension columns as one jsonb object.
func dimensionsColumn(fields []string, alias string) string {
	if len(fields) == 0 {
		return "'{}'::jsonb AS dimensions"
	}
	pairs := make([]string, 0, len(fields))
	for _, f := range fields {
		pairs = append(pairs, fmt.Sprintf("'%s', %s.%s",
			strings.ReplaceAll(f, "'", "''"), alias, pgx.Identifier{f}.Sanitize()))
	}
	return "jsonb_strip_nulls(jsonb_build_object(" + strings.Join(pairs, ", ") + ")) AS dimensions"
}

func validateDimensions(q reports.MovementQuery) error {
	for _, f := range q.DimensionFields {
		if err := ValidateDimensionField(f); err != nil {
			return err
		}
	}
	for f := range q.Dimensions {
		if err := ValidateDimensionField(f); err != nil {
			return err
		}
	}
	return nil
}
