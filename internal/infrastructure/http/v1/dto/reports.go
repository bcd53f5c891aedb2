package dto

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"stockbalance/internal/core/apperror"
	"stockbalance/internal/core/types"
	"stockbalance/internal/domain/reports"
	"stockbalance/internal/domain/reports/stockbalance"
)

// --- Stock Balance Report ---

// StockBalanceRequest represents request for stock balance report.
// Dates accept RFC3339, "2006-01-02 15:04:05" or a plain date; a plain
// fromDate starts at midnight and a plain toDate covers the whole day.
// Dimension filters are passed as repeated "field:value" pairs.
type StockBalanceRequest struct {
	Company               string    `form:"company" binding:"required"`
	FromDate              string    `form:"fromDate" binding:"required"`
	ToDate                string    `form:"toDate" binding:"required"`
	ItemCodes             []string  `form:"itemCode"`
	ItemGroup             string    `form:"itemGroup"`
	Brand                 string    `form:"brand"`
	Warehouses            []string  `form:"warehouse"`
	WarehouseType         string    `form:"warehouseType"`
	Dimensions            []string  `form:"dimension"`
	ShowDimensionWise     bool      `form:"showDimensionWise"`
	ShowAgeing            bool      `form:"showAgeing"`
	ShowVariantAttributes bool      `form:"showVariantAttributes"`
	IncludeUOM            string    `form:"includeUom"`
	IncludeZeroStock      bool      `form:"includeZeroStock"`
	IgnoreClosingBalance  bool      `form:"ignoreClosingBalance"`
	Limit                 int       `form:"limit" binding:"min=0,max=1000"`
	Offset                int       `form:"offset" binding:"min=0"`
}

// ToFilter converts the request to a domain filter.
func (r StockBalanceRequest) ToFilter() (reports.StockBalanceFilter, error) {
	from, err := parseReportTime(r.FromDate, false)
	if err != nil {
		return reports.StockBalanceFilter{}, apperror.NewValidation(err.Error()).WithDetail("field", "fromDate")
	}
	to, err := parseReportTime(r.ToDate, true)
	if err != nil {
		return reports.StockBalanceFilter{}, apperror.NewValidation(err.Error()).WithDetail("field", "toDate")
	}
	dims, err := parseDimensions(r.Dimensions)
	if err != nil {
		return reports.StockBalanceFilter{}, apperror.NewValidation(err.Error()).WithDetail("field", "dimension")
	}
	return reports.StockBalanceFilter{
		Company:               r.Company,
		FromDate:              from,
		ToDate:                to,
		ItemCodes:             r.ItemCodes,
		ItemGroup:             r.ItemGroup,
		Brand:                 r.Brand,
		Warehouses:            r.Warehouses,
		WarehouseType:         r.WarehouseType,
		Dimensions:            dims,
		ShowDimensionWise:     r.ShowDimensionWise,
		ShowAgeing:            r.ShowAgeing,
		ShowVariantAttributes: r.ShowVariantAttributes,
		IncludeUOM:            r.IncludeUOM,
		IncludeZeroStock:      r.IncludeZeroStock,
		IgnoreClosingBalance:  r.IgnoreClosingBalance,
		Limit:                 r.Limit,
		Offset:                r.Offset,
	}, nil
}

// parseReportTime reads an instant in UTC. A plain date resolves to the
// start of the day, or to its last instant when endOfDay is set.
func parseReportTime(s string, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, time.DateTime} {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	t, err := time.ParseInLocation(time.DateOnly, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected RFC3339, %q or %q", s, time.DateTime, time.DateOnly)
	}
	if endOfDay {
		return types.EndOfDay(t), nil
	}
	return t, nil
}

func parseDimensions(pairs []string) (map[string][]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	dims := make(map[string][]string)
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, ":")
		name, value = strings.TrimSpace(name), strings.TrimSpace(value)
		if !ok || name == "" || value == "" {
			return nil, fmt.Errorf("invalid dimension filter %q, expected field:value", p)
		}
		dims[name] = append(dims[name], value)
	}
	return dims, nil
}

// StockBalanceResponse represents stock balance report response.
type StockBalanceResponse struct {
	Company     string                    `json:"company"`
	Currency    string                    `json:"currency"`
	FromDate    string                    `json:"fromDate"`
	ToDate      string                    `json:"toDate"`
	SnapshotID  string                    `json:"snapshotId,omitempty"`
	Items       []StockBalanceRowResponse `json:"items"`
	TotalItems  int                       `json:"totalItems"`
	Limit       int                       `json:"limit"`
	Offset      int                       `json:"offset"`
	Totals      stockbalance.Totals       `json:"totals"`
	Diagnostics []stockbalance.Diagnostic `json:"diagnostics,omitempty"`
}

// StockBalanceRowResponse represents a single line of the stock balance report.
type StockBalanceRowResponse struct {
	ItemCode   string            `json:"itemCode"`
	ItemName   string            `json:"itemName"`
	ItemGroup  string            `json:"itemGroup"`
	Warehouse  string            `json:"warehouse"`
	StockUOM   string            `json:"stockUom"`
	Company    string            `json:"company"`
	Currency   string            `json:"currency"`
	Dimensions map[string]string `json:"dimensions,omitempty"`

	OpeningQty decimal.Decimal `json:"openingQty"`
	OpeningVal decimal.Decimal `json:"openingVal"`
	InQty      decimal.Decimal `json:"inQty"`
	InVal      decimal.Decimal `json:"inVal"`
	OutQty     decimal.Decimal `json:"outQty"`
	OutVal     decimal.Decimal `json:"outVal"`
	BalQty     decimal.Decimal `json:"balQty"`
	BalVal     decimal.Decimal `json:"balVal"`
	ValRate    decimal.Decimal `json:"valRate"`

	ReservedStock     decimal.Decimal             `json:"reservedStock"`
	VariantAttributes map[string]string           `json:"variantAttributes,omitempty"`
	Conversion        *stockbalance.UOMConversion `json:"uomConversion,omitempty"`
	Ageing            *stockbalance.AgeingStats   `json:"ageing,omitempty"`
}

// FromStockBalanceReport converts domain report to response DTO.
func FromStockBalanceReport(r *reports.StockBalanceReport) *StockBalanceResponse {
	resp := &StockBalanceResponse{
		Company:     r.Company,
		Currency:    r.Currency,
		FromDate:    r.FromDate.Format(time.RFC3339),
		ToDate:      r.ToDate.Format(time.RFC3339),
		SnapshotID:  r.SnapshotID,
		Items:       make([]StockBalanceRowResponse, len(r.Rows)),
		TotalItems:  r.TotalItems,
		Limit:       r.Limit,
		Offset:      r.Offset,
		Totals:      r.Totals,
		Diagnostics: r.Diagnostics,
	}

	for i, row := range r.Rows {
		resp.Items[i] = StockBalanceRowResponse{
			ItemCode:          row.ItemCode,
			ItemName:          row.ItemName,
			ItemGroup:         row.ItemGroup,
			Warehouse:         row.Warehouse,
			StockUOM:          row.StockUOM,
			Company:           row.Company,
			Currency:          row.Currency,
			Dimensions:        row.Dimensions,
			OpeningQty:        row.OpeningQty,
			OpeningVal:        row.OpeningVal,
			InQty:             row.InQty,
			InVal:             row.InVal,
			OutQty:            row.OutQty,
			OutVal:            row.OutVal,
			BalQty:            row.BalQty,
			BalVal:            row.BalVal,
			ValRate:           row.ValRate,
			ReservedStock:     row.ReservedStock,
			VariantAttributes: row.VariantAttributes,
			Conversion:        row.Conversion,
			Ageing:            row.Ageing,
		}
	}

	return resp
}

// --- Closing Balances ---

// CreateClosingBalanceRequest asks for a closing snapshot.
type CreateClosingBalanceRequest struct {
	Company       string   `json:"company" binding:"required"`
	FromDate      string   `json:"fromDate" binding:"required"`
	ToDate        string   `json:"toDate" binding:"required"`
	Warehouses    []string `json:"warehouses"`
	ItemCodes     []string `json:"itemCodes"`
	ItemGroup     string   `json:"itemGroup"`
	Brand         string   `json:"brand"`
	WarehouseType string   `json:"warehouseType"`
}

// ToRequest parses dates and converts to a domain request.
func (r CreateClosingBalanceRequest) ToRequest() (reports.ClosingRequest, error) {
	from, err := time.Parse(time.DateOnly, r.FromDate)
	if err != nil {
		return reports.ClosingRequest{}, fmt.Errorf("invalid fromDate format, expected YYYY-MM-DD")
	}
	to, err := time.Parse(time.DateOnly, r.ToDate)
	if err != nil {
		return reports.ClosingRequest{}, fmt.Errorf("invalid toDate format, expected YYYY-MM-DD")
	}
	return reports.ClosingRequest{
		Company:       r.Company,
		FromDate:      from,
		ToDate:        to,
		Warehouses:    r.Warehouses,
		ItemCodes:     r.ItemCodes,
		ItemGroup:     r.ItemGroup,
		Brand:         r.Brand,
		WarehouseType: r.WarehouseType,
	}, nil
}

// ClosingBalanceResponse summarizes a created snapshot.
type ClosingBalanceResponse struct {
	ID          string                    `json:"id"`
	Company     string                    `json:"company"`
	FromDate    string                    `json:"fromDate"`
	ToDate      string                    `json:"toDate"`
	RowCount    int                       `json:"rowCount"`
	BalQty      decimal.Decimal           `json:"balQty"`
	BalVal      decimal.Decimal           `json:"balVal"`
	Diagnostics []stockbalance.Diagnostic `json:"diagnostics,omitempty"`
}

// FromClosingResult converts a domain result to response DTO.
func FromClosingResult(r *reports.ClosingResult) *ClosingBalanceResponse {
	return &ClosingBalanceResponse{
		ID:          r.ID,
		Company:     r.Company,
		FromDate:    r.FromDate.Format(time.DateOnly),
		ToDate:      r.ToDate.Format(time.DateOnly),
		RowCount:    r.RowCount,
		BalQty:      r.BalQty,
		BalVal:      r.BalVal,
		Diagnostics: r.Diagnostics,
	}
}
