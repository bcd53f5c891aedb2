// Package report_repo provides PostgreSQL implementations for the stock
// balance report repositories.
package report_repo

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockbalance/internal/core/apperror"
	"stockbalance/internal/domain/reports"
	"stockbalance/internal/infrastructure/storage/postgres"
)

const (
	ledgerTable        = "stock_ledger_entries"
	itemsTable         = "items"
	itemGroupsTable    = "item_groups"
	warehousesTable    = "warehouses"
	posInvoicesTable   = "pos_invoices"
	posItemsTable      = "pos_invoice_items"
	stockEntriesTable  = "stock_entries"
	reconciliationsTbl = "stock_reconciliations"
	closingTable       = "closing_stock_balances"
	reservationsTable  = "stock_reservation_entries"
	variantAttrsTable  = "item_variant_attributes"
	uomConversionTable = "uom_conversion_details"
	companiesTable     = "companies"
)

// Compile-time interface checks.
var (
	_ reports.Repository           = (*ReportRepo)(nil)
	_ reports.EnrichmentRepository = (*ReportRepo)(nil)
	_ reports.ClosingRepository    = (*ReportRepo)(nil)
)

var dimensionFieldPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// ValidateDimensionField reports whether name can be used as a ledger column.
func ValidateDimensionField(name string) error {
	if !dimensionFieldPattern.MatchString(name) {
		return apperror.NewValidation(fmt.Sprintf("invalid dimension field %q", name)).
			WithDetail("field", name)
	}
	return nil
}

// ReportRepo implements the report, enrichment and closing repositories.
// Queries run on the transaction in ctx when there is one.
type ReportRepo struct {
	txm     *postgres.TxManager
	codec   *postgres.PayloadCodec
	builder squirrel.StatementBuilderType
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txm *postgres.TxManager, codec *postgres.PayloadCodec) *ReportRepo {
	return &ReportRepo{
		txm:     txm,
		codec:   codec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// GetCompanyCurrency returns the company's default currency.
func (r *ReportRepo) GetCompanyCurrency(ctx context.Context, company string) (string, error) {
	sql, args, err := r.builder.
		Select("COALESCE(default_currency, '')").
		From(companiesTable).
		Where(squirrel.Eq{"name": company}).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("build query: %w", err)
	}

	var currency string
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &currency, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", apperror.NewNotFound("company", company)
		}
		return "", fmt.Errorf("get company currency: %w", err)
	}
	return currency, nil
}

func selectInto[T any](ctx context.Context, r *ReportRepo, q squirrel.Sqlizer, what string) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build %s query: %w", what, err)
	}
	var out []T
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, fmt.Errorf("select %s: %w", what, err)
	}
	return out, nil
}
