package v1

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockbalance/internal/core/apperror"
	"stockbalance/internal/domain/reports"
	"stockbalance/internal/domain/reports/stockbalance"
	"stockbalance/internal/infrastructure/storage/postgres"
	"stockbalance/pkg/logger"
)

type fakeDB struct{ err error }

func (f *fakeDB) Ping(context.Context) error { return f.err }
func (f *fakeDB) Stats() postgres.PoolStats  { return postgres.PoolStats{TotalConns: 3} }

type fakeReports struct {
	got    reports.StockBalanceFilter
	report *reports.StockBalanceReport
	err    error
	panic  bool
}

func (f *fakeReports) GetStockBalance(_ context.Context, filter reports.StockBalanceFilter) (*reports.StockBalanceReport, error) {
	if f.panic {
		panic("boom")
	}
	f.got = filter
	return f.report, f.err
}

type fakeClosing struct {
	got reports.ClosingRequest
	err error
}

func (f *fakeClosing) CreateSnapshot(_ context.Context, req reports.ClosingRequest) (*reports.ClosingResult, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &reports.ClosingResult{
		ID: "snap-1", Company: req.Company, FromDate: req.FromDate, ToDate: req.ToDate,
		RowCount: 2, BalQty: decimal.NewFromInt(6), BalVal: decimal.NewFromInt(60),
	}, nil
}

func newTestRouter(rep *fakeReports, cl *fakeClosing, db *fakeDB) http.Handler {
	cfg := RouterConfig{
		Logger:   logger.NewNop(),
		Database: db,
		Reports:  rep,
	}
	if cl != nil {
		cfg.Closing = cl
	}
	return NewRouter(cfg)
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func januaryReport() *reports.StockBalanceReport {
	row := stockbalance.Row{BalanceRecord: stockbalance.BalanceRecord{
		Company: "ACME", Currency: "USD", ItemCode: "I1", ItemName: "Item 1", Warehouse: "Stores",
		InQty: decimal.NewFromInt(10), InVal: decimal.NewFromInt(100),
		OutQty: decimal.NewFromInt(4), OutVal: decimal.NewFromInt(40),
		BalQty: decimal.NewFromInt(6), BalVal: decimal.NewFromInt(60), ValRate: decimal.NewFromInt(10),
	}}
	return &reports.StockBalanceReport{
		Company:    "ACME",
		Currency:   "USD",
		FromDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		ToDate:     time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		Rows:       []stockbalance.Row{row},
		TotalItems: 1,
		Limit:      100,
		Totals:     stockbalance.SumRows([]stockbalance.Row{row}),
	}
}

func TestStockBalanceEndpoint(t *testing.T) {
	rep := &fakeReports{report: januaryReport()}
	h := newTestRouter(rep, nil, &fakeDB{})

	w := do(h, http.MethodGet,
		"/api/v1/reports/stock-balance?company=ACME&fromDate=2024-01-01&toDate=2024-01-31"+
			"&warehouse=Stores&itemCode=I1&dimension=project:P1&dimension=project:P2&showAgeing=true&limit=50", "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.Contains(t, w.Body.String(), `"balQty":"6"`)
	assert.Contains(t, w.Body.String(), `"fromDate":"2024-01-01T00:00:00Z"`)

	assert.Equal(t, "ACME", rep.got.Company)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), rep.got.FromDate)
	assert.Equal(t, time.Date(2024, 1, 31, 23, 59, 59, 999999999, time.UTC), rep.got.ToDate)
	assert.Equal(t, []string{"Stores"}, rep.got.Warehouses)
	assert.Equal(t, []string{"P1", "P2"}, rep.got.Dimensions["project"])
	assert.True(t, rep.got.ShowAgeing)
	assert.Equal(t, 50, rep.got.Limit)
}

func TestStockBalanceEndpoint_DateTimeBounds(t *testing.T) {
	rep := &fakeReports{report: januaryReport()}
	h := newTestRouter(rep, nil, &fakeDB{})

	w := do(h, http.MethodGet,
		"/api/v1/reports/stock-balance?company=ACME&fromDate=2024-01-10T12:00:00Z&toDate=2024-01-20%2012:00:00", "")

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC), rep.got.FromDate)
	assert.Equal(t, time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC), rep.got.ToDate)
}

func TestStockBalanceEndpoint_ValidationErrors(t *testing.T) {
	h := newTestRouter(&fakeReports{report: januaryReport()}, nil, &fakeDB{})

	tests := []struct {
		name  string
		query string
	}{
		{"missing company", "fromDate=2024-01-01&toDate=2024-01-31"},
		{"bad date", "company=ACME&fromDate=01/01/2024&toDate=2024-01-31"},
		{"bad time", "company=ACME&fromDate=2024-01-01&toDate=2024-01-31T25:00:00Z"},
		{"bad dimension", "company=ACME&fromDate=2024-01-01&toDate=2024-01-31&dimension=project"},
		{"limit too large", "company=ACME&fromDate=2024-01-01&toDate=2024-01-31&limit=5000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(h, http.MethodGet, "/api/v1/reports/stock-balance?"+tt.query, "")
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), apperror.CodeValidation)
		})
	}
}

func TestStockBalanceEndpoint_ServiceErrors(t *testing.T) {
	q := "/api/v1/reports/stock-balance?company=ACME&fromDate=2024-01-01&toDate=2024-01-31"

	w := do(newTestRouter(&fakeReports{err: apperror.NewInvalidPeriod("from_date after to_date")}, nil, &fakeDB{}), http.MethodGet, q, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), apperror.CodeInvalidPeriod)

	w = do(newTestRouter(&fakeReports{err: errors.New("connection reset")}, nil, &fakeDB{}), http.MethodGet, q, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")

	w = do(newTestRouter(&fakeReports{panic: true}, nil, &fakeDB{}), http.MethodGet, q, "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), apperror.CodeInternal)
}

func TestClosingEndpoint(t *testing.T) {
	cl := &fakeClosing{}
	h := newTestRouter(&fakeReports{}, cl, &fakeDB{})

	w := do(h, http.MethodPost, "/api/v1/closing-balances",
		`{"company":"ACME","fromDate":"2024-01-01","toDate":"2024-01-31","warehouses":["Stores"]}`)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"id":"snap-1"`)
	assert.Contains(t, w.Body.String(), `"toDate":"2024-01-31"`)
	assert.Equal(t, []string{"Stores"}, cl.got.Warehouses)
	assert.Equal(t, time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC), cl.got.ToDate)
}

func TestClosingEndpoint_Errors(t *testing.T) {
	h := newTestRouter(&fakeReports{}, &fakeClosing{}, &fakeDB{})
	w := do(h, http.MethodPost, "/api/v1/closing-balances", `{"company":"ACME","fromDate":"2024-01-01","toDate":"31.01.2024"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(h, http.MethodPost, "/api/v1/closing-balances", `{"fromDate":"2024-01-01"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	exists := apperror.NewBusinessRule(apperror.CodeSnapshotExists, "exists")
	h = newTestRouter(&fakeReports{}, &fakeClosing{err: exists}, &fakeDB{})
	w = do(h, http.MethodPost, "/api/v1/closing-balances", `{"company":"ACME","fromDate":"2024-01-01","toDate":"2024-01-31"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), apperror.CodeSnapshotExists)

	h = newTestRouter(&fakeReports{}, nil, &fakeDB{})
	w = do(h, http.MethodPost, "/api/v1/closing-balances", `{"company":"ACME","fromDate":"2024-01-01","toDate":"2024-01-31"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHealthEndpoints(t *testing.T) {
	h := newTestRouter(&fakeReports{}, nil, &fakeDB{})
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/health/live", "").Code)

	w := do(h, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"totalConns":3`)

	h = newTestRouter(&fakeReports{}, nil, &fakeDB{err: errors.New("refused")})
	w = do(h, http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "unhealthy: refused")
}
