package reports

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"stockbalance/internal/core/apperror"
	"stockbalance/internal/core/tx"
	"stockbalance/internal/core/types"
	"stockbalance/internal/domain/reports/stockbalance"
	"stockbalance/pkg/logger"
)

var tracer = otel.Tracer("stockbalance/reports")

// Config holds report settings.
type Config struct {
	// Precision is the float precision used for rounding and classification.
	Precision int32
	// DimensionFields are the configured inventory dimension field names.
	DimensionFields []string
	// DefaultCurrency is used when the company has none.
	DefaultCurrency string
}

// Service provides report generation operations.
type Service struct {
	repo   Repository
	enrich EnrichmentRepository
	txm    tx.ReadOnlyManager
	cfg    Config
}

// NewService creates a new reports service. enrich may be nil.
func NewService(repo Repository, enrich EnrichmentRepository, txm tx.ReadOnlyManager, cfg Config) *Service {
	if cfg.Precision <= 0 {
		cfg.Precision = types.DefaultPrecision
	}
	return &Service{
		repo:   repo,
		enrich: enrich,
		txm:    txm,
		cfg:    cfg,
	}
}

// runResult is one computed report before pagination.
type runResult struct {
	currency string
	opening  *stockbalance.Opening
	comp     *stockbalance.Computation
}

// GetStockBalance generates the stock balance report.
func (s *Service) GetStockBalance(ctx context.Context, filter StockBalanceFilter) (*StockBalanceReport, error) {
	if err := s.validateFilter(filter); err != nil {
		return nil, err
	}

	// Set default pagination
	if filter.Limit <= 0 {
		filter.Limit = 100
	}
	if filter.Limit > 1000 {
		filter.Limit = 1000
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	ctx, span := tracer.Start(ctx, "reports.GetStockBalance", trace.WithAttributes(
		attribute.String("company", filter.Company),
		attribute.String("from", filter.FromDate.Format(time.RFC3339)),
		attribute.String("to", filter.ToDate.Format(time.RFC3339)),
		attribute.Bool("ageing", filter.ShowAgeing),
	))
	defer span.End()

	res, err := s.run(ctx, filter)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("compute stock balance: %w", err)
	}

	rows := res.comp.Rows(s.enrichment(ctx, filter, res.comp))

	report := &StockBalanceReport{
		Company:     filter.Company,
		Currency:    res.currency,
		FromDate:    filter.FromDate,
		ToDate:      filter.ToDate,
		TotalItems:  len(rows),
		Limit:       filter.Limit,
		Offset:      filter.Offset,
		Totals:      stockbalance.SumRows(rows),
		Diagnostics: res.comp.Diagnostics.List(),
	}
	if res.opening.Snapshot != nil {
		report.SnapshotID = res.opening.Snapshot.ID
	}
	report.Rows = page(rows, filter.Offset, filter.Limit)

	span.SetAttributes(attribute.Int("rows", len(rows)))
	logDiagnostics(ctx, report.Diagnostics)
	logger.Info(ctx, "stock balance computed",
		"company", filter.Company,
		"rows", len(rows),
		"snapshot_id", report.SnapshotID,
		"diagnostics", len(report.Diagnostics),
	)

	return report, nil
}

// run reads every input inside one read-only transaction and computes the
// balances. Enrichment happens afterwards.
func (s *Service) run(ctx context.Context, filter StockBalanceFilter) (*runResult, error) {
	keys := stockbalance.NewKeyBuilder(s.cfg.DimensionFields, filter.Dimensions, filter.ShowDimensionWise)
	period := filter.Period()

	var res runResult
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		currency, err := s.companyCurrency(ctx, filter.Company)
		if err != nil {
			return err
		}
		res.currency = currency

		opening, err := stockbalance.NewOpeningResolver(s.repo, keys).Resolve(ctx, stockbalance.OpeningQuery{
			Company:         filter.Company,
			Scope:           filter.SnapshotScope(),
			PeriodStart:     period.StartDate(),
			PeriodEnd:       period.To,
			Dimensions:      filter.Dimensions,
			IgnoreSnapshots: filter.IgnoreClosingBalance,
		})
		if err != nil {
			return err
		}
		res.opening = opening

		q := s.movementQuery(filter, opening.StartFrom, period.To)
		ledger, err := s.repo.GetStockLedgerEntries(ctx, q)
		if err != nil {
			return fmt.Errorf("get stock ledger entries: %w", err)
		}

		// POS lines are read from the first day of the period, and never before
		// the snapshot end. Lines before the start instant land in opening.
		posQuery := q
		posQuery.From = period.StartDate()
		if opening.StartFrom.After(posQuery.From) {
			posQuery.From = opening.StartFrom
		}
		sales, err := s.repo.GetPOSInvoiceLines(ctx, posQuery, false)
		if err != nil {
			return fmt.Errorf("get pos sales: %w", err)
		}
		returns, err := s.repo.GetPOSInvoiceLines(ctx, posQuery, true)
		if err != nil {
			return fmt.Errorf("get pos returns: %w", err)
		}

		engine, err := stockbalance.NewEngine(keys, stockbalance.Options{
			Period:           period,
			Precision:        s.cfg.Precision,
			Currency:         currency,
			WithAgeing:       filter.ShowAgeing,
			IncludeZeroStock: filter.IncludeZeroStock,
		})
		if err != nil {
			return err
		}
		res.comp = engine.Compute(stockbalance.Input{
			Ledger:     ledger,
			POSSales:   sales,
			POSReturns: returns,
			Opening:    opening,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *Service) movementQuery(filter StockBalanceFilter, from, to time.Time) MovementQuery {
	return MovementQuery{
		Company:         filter.Company,
		From:            from,
		To:              to,
		ItemCodes:       filter.ItemCodes,
		ItemGroup:       filter.ItemGroup,
		Brand:           filter.Brand,
		Warehouses:      filter.Warehouses,
		WarehouseType:   filter.WarehouseType,
		DimensionFields: s.cfg.DimensionFields,
		Dimensions:      filter.Dimensions,
	}
}

func (s *Service) companyCurrency(ctx context.Context, company string) (string, error) {
	currency, err := s.repo.GetCompanyCurrency(ctx, company)
	if err != nil && !apperror.IsNotFound(err) {
		return "", fmt.Errorf("get company currency: %w", err)
	}
	if currency == "" {
		currency = s.cfg.DefaultCurrency
	}
	return currency, nil
}

// enrichment fetches reserved stock, variant attributes and UOM factors.
// Failed lookups become diagnostics and default to empty.
func (s *Service) enrichment(ctx context.Context, filter StockBalanceFilter, comp *stockbalance.Computation) stockbalance.Enrichment {
	enr := stockbalance.Enrichment{IncludeUOM: filter.IncludeUOM}
	if s.enrich == nil || len(comp.Records) == 0 {
		return enr
	}

	unavailable := func(what string, err error) {
		logger.Warn(ctx, "enrichment lookup failed", "lookup", what, "error", err)
		comp.Diagnostics.Add(stockbalance.Diagnostic{
			Kind:    stockbalance.DiagEnrichmentUnavailable,
			Message: what + " unavailable",
		})
	}

	reserved, err := s.enrich.GetReservedStock(ctx, stockbalance.ItemWarehouses(comp.Records))
	if err != nil {
		unavailable("reserved stock", err)
	} else {
		enr.ReservedStock = reserved
	}

	items := stockbalance.ItemCodes(comp.Records)
	if filter.ShowVariantAttributes {
		attrs, err := s.enrich.GetVariantAttributes(ctx, items)
		if err != nil {
			unavailable("variant attributes", err)
		} else {
			enr.VariantAttributes = attrs
		}
	}
	if filter.IncludeUOM != "" {
		factors, err := s.enrich.GetUOMConversionFactors(ctx, filter.IncludeUOM, items)
		if err != nil {
			unavailable("uom conversion factors", err)
		} else {
			enr.ConversionFactors = factors
		}
	}
	return enr
}

func (s *Service) validateFilter(filter StockBalanceFilter) error {
	for name := range filter.Dimensions {
		if !slices.Contains(s.cfg.DimensionFields, name) {
			return apperror.NewValidation(fmt.Sprintf("unknown inventory dimension %q", name)).
				WithDetail("field", name)
		}
	}
	return validateFilter(filter)
}

func validateFilter(filter StockBalanceFilter) error {
	if strings.TrimSpace(filter.Company) == "" {
		return apperror.NewValidation("company is required").WithDetail("field", "company")
	}
	return filter.Period().Validate()
}

func page(rows []stockbalance.Row, offset, limit int) []stockbalance.Row {
	if offset >= len(rows) {
		return []stockbalance.Row{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func logDiagnostics(ctx context.Context, diags []stockbalance.Diagnostic) {
	for _, d := range diags {
		logger.Warn(ctx, "stock balance data quality",
			"kind", string(d.Kind),
			"message", d.Message,
			"voucher_type", d.VoucherType,
			"voucher_no", d.VoucherNo,
			"item_code", d.ItemCode,
			"warehouse", d.Warehouse,
		)
	}
}
