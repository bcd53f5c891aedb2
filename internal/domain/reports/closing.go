package reports

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"stockbalance/internal/core/id"
	"stockbalance/internal/core/tx"
	"stockbalance/internal/core/types"
	"stockbalance/internal/domain/reports/stockbalance"
	"stockbalance/pkg/logger"
)

// ClosingService creates closing snapshots that later reports start from.
type ClosingService struct {
	reports *Service
	repo    ClosingRepository
	txm     tx.Manager
	now     func() time.Time
}

// NewClosingService creates a closing service.
func NewClosingService(reports *Service, repo ClosingRepository, txm tx.Manager) *ClosingService {
	return &ClosingService{
		reports: reports,
		repo:    repo,
		txm:     txm,
		now:     time.Now,
	}
}

// CreateSnapshot computes balances for the whole days of the request period
// with ageing and every dimension, then stores them as a submitted, completed
// snapshot.
func (s *ClosingService) CreateSnapshot(ctx context.Context, req ClosingRequest) (*ClosingResult, error) {
	days := stockbalance.DayPeriod(req.FromDate, req.ToDate)
	filter := StockBalanceFilter{
		Company:           req.Company,
		FromDate:          days.From,
		ToDate:            days.To,
		ItemCodes:         req.ItemCodes,
		ItemGroup:         req.ItemGroup,
		Brand:             req.Brand,
		Warehouses:        req.Warehouses,
		WarehouseType:     req.WarehouseType,
		ShowDimensionWise: true,
		ShowAgeing:        true,
	}
	if err := validateFilter(filter); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "reports.CreateClosingSnapshot", trace.WithAttributes(
		attribute.String("company", req.Company),
		attribute.String("to", req.ToDate.Format(time.DateOnly)),
	))
	defer span.End()

	res, err := s.reports.run(ctx, filter)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("compute closing balances: %w", err)
	}

	rows := res.comp.Rows(stockbalance.Enrichment{})
	snapshot := ClosingSnapshot{
		Meta: stockbalance.SnapshotMeta{
			ID:          id.NewString(),
			Company:     req.Company,
			FromDate:    days.From,
			ToDate:      types.DateOnly(req.ToDate),
			Status:      stockbalance.SnapshotStatusCompleted,
			DocStatus:   stockbalance.DocStatusSubmitted,
			Scope:       filter.SnapshotScope().Canonical(),
			SubmittedAt: s.now().UTC(),
		},
		Rows: make([]stockbalance.SnapshotRow, 0, len(rows)),
	}

	result := &ClosingResult{
		ID:          snapshot.Meta.ID,
		Company:     req.Company,
		FromDate:    req.FromDate,
		ToDate:      req.ToDate,
		BalQty:      decimal.Zero,
		BalVal:      decimal.Zero,
		Diagnostics: res.comp.Diagnostics.List(),
	}
	for _, r := range rows {
		snapshot.Rows = append(snapshot.Rows, snapshotRow(r))
		result.BalQty = result.BalQty.Add(r.BalQty)
		result.BalVal = result.BalVal.Add(r.BalVal)
	}
	result.RowCount = len(snapshot.Rows)

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.SaveClosingSnapshot(ctx, snapshot)
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("save closing snapshot: %w", err)
	}

	span.SetAttributes(attribute.Int("rows", result.RowCount))
	logDiagnostics(ctx, result.Diagnostics)
	logger.Info(ctx, "closing snapshot created",
		"id", result.ID,
		"company", req.Company,
		"to_date", req.ToDate.Format(time.DateOnly),
		"rows", result.RowCount,
	)

	return result, nil
}

func snapshotRow(r stockbalance.Row) stockbalance.SnapshotRow {
	row := stockbalance.SnapshotRow{
		Company:    r.Company,
		ItemCode:   r.ItemCode,
		Warehouse:  r.Warehouse,
		ItemName:   r.ItemName,
		ItemGroup:  r.ItemGroup,
		StockUOM:   r.StockUOM,
		Dimensions: r.Dimensions,
		BalQty:     r.BalQty,
		BalVal:     r.BalVal,
		ValRate:    r.ValRate,
	}
	if r.Ageing != nil {
		row.FIFOQueue = r.Ageing.Lots
	}
	return row
}
