package report_repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"stockbalance/internal/core/apperror"
	"stockbalance/internal/core/entity"
	"stockbalance/internal/domain/reports"
	"stockbalance/internal/domain/reports/stockbalance"
	"stockbalance/internal/infrastructure/storage/postgres"
)

// closingSnapshotCandidates bounds how many headers are handed to snapshot selection.
const closingSnapshotCandidates = 10

const uniqueViolation = "23505"

// snapshotHeader is one closing_stock_balances row. Rows are stored as a
// JSON payload, zstd-compressed when large.
type snapshotHeader struct {
	stockbalance.SnapshotMeta
	RowCount        int                      `db:"row_count"`
	Payload         []byte                   `db:"payload"`
	CompressionAlgo postgres.CompressionAlgo `db:"compression_algo"`
}

var snapshotMetaColumns = postgres.ExtractDBColumns[stockbalance.SnapshotMeta]()

// ClosingSnapshots returns usable snapshot headers of company and scope that
// end on or before periodStart, latest first.
func (r *ReportRepo) ClosingSnapshots(ctx context.Context, company, scope string, periodStart time.Time) ([]stockbalance.SnapshotMeta, error) {
	sb := r.closingSnapshotsQuery(company, scope, periodStart)
	return selectInto[stockbalance.SnapshotMeta](ctx, r, sb, "closing snapshots")
}

func (r *ReportRepo) closingSnapshotsQuery(company, scope string, periodStart time.Time) squirrel.SelectBuilder {
	return r.builder.Select(snapshotMetaColumns...).
		From(closingTable).
		Where(squirrel.Eq{
			"company":   company,
			"scope":     scope,
			"docstatus": stockbalance.DocStatusSubmitted,
			"status":    stockbalance.SnapshotStatusCompleted,
		}).
		Where(squirrel.LtOrEq{"to_date": periodStart}).
		OrderBy("to_date DESC", "submitted_at DESC").
		Limit(closingSnapshotCandidates)
}

// SnapshotRows loads and decodes the rows of one snapshot.
func (r *ReportRepo) SnapshotRows(ctx context.Context, snapshotID string) ([]stockbalance.SnapshotRow, error) {
	sql, args, err := r.builder.Select("payload", "compression_algo").
		From(closingTable).
		Where(squirrel.Eq{"id": snapshotID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var h snapshotHeader
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &h, sql, args...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NewNotFound("closing snapshot", snapshotID)
		}
		return nil, fmt.Errorf("get snapshot payload: %w", err)
	}

	var rows []stockbalance.SnapshotRow
	if len(h.Payload) == 0 {
		return rows, nil
	}
	if err := r.codec.Decode(h.Payload, h.CompressionAlgo, &rows); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w", snapshotID, err)
	}
	return rows, nil
}

// OpeningVouchers returns opening stock entries and opening stock
// reconciliations of company posted up to through.
func (r *ReportRepo) OpeningVouchers(ctx context.Context, company string, through time.Time) (stockbalance.OpeningVoucherSet, error) {
	set := make(stockbalance.OpeningVoucherSet)
	for _, src := range openingVoucherSources() {
		sb := r.openingVoucherQuery(src, company, through)
		names, err := selectInto[string](ctx, r, sb, src.voucherType+" opening vouchers")
		if err != nil {
			return nil, err
		}
		for _, name := range names {
			set.Add(src.voucherType, name)
		}
	}
	return set, nil
}

func (r *ReportRepo) openingVoucherQuery(src openingVoucherSource, company string, through time.Time) squirrel.SelectBuilder {
	return r.builder.Select("name").
		From(src.table).
		Where(squirrel.Eq{"docstatus": 1, "company": company}).
		Where(src.cond).
		Where(squirrel.LtOrEq{"posting_datetime": through})
}

type openingVoucherSource struct {
	voucherType string
	table       string
	cond        squirrel.Sqlizer
}

func openingVoucherSources() []openingVoucherSource {
	return []openingVoucherSource{
		{voucherType: entity.VoucherStockEntry, table: stockEntriesTable, cond: squirrel.Eq{"is_opening": true}},
		{voucherType: entity.VoucherStockReconciliation, table: reconciliationsTbl, cond: squirrel.Eq{"purpose": "Opening Stock"}},
	}
}

// SaveClosingSnapshot stores the header with its encoded rows.
func (r *ReportRepo) SaveClosingSnapshot(ctx context.Context, snapshot reports.ClosingSnapshot) error {
	meta := snapshot.Meta

	existing, err := r.ClosingSnapshots(ctx, meta.Company, meta.Scope, meta.ToDate)
	if err != nil {
		return err
	}
	for _, e := range existing {
		if e.ToDate.Equal(meta.ToDate) {
			return snapshotExists(meta, e.ID)
		}
	}

	payload, algo, err := r.codec.Encode(snapshot.Rows)
	if err != nil {
		return fmt.Errorf("encode snapshot rows: %w", err)
	}

	h := snapshotHeader{
		SnapshotMeta:    meta,
		RowCount:        len(snapshot.Rows),
		Payload:         payload,
		CompressionAlgo: algo,
	}
	sql, args, err := r.builder.Insert(closingTable).SetMap(postgres.StructToMap(&h)).ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return snapshotExists(meta, "")
		}
		return fmt.Errorf("insert closing snapshot: %w", err)
	}
	return nil
}

func snapshotExists(meta stockbalance.SnapshotMeta, existingID string) error {
	err := apperror.NewBusinessRule(apperror.CodeSnapshotExists,
		fmt.Sprintf("closing snapshot for %s ending %s already exists", meta.Company, meta.ToDate.Format(time.DateOnly))).
		WithDetail("company", meta.Company).
		WithDetail("toDate", meta.ToDate.Format(time.DateOnly))
	if existingID != "" {
		err = err.WithDetail("existingId", existingID)
	}
	return err
}
