package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/klauspost/compress/zstd"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockledger/internal/core/apperror"
	appctx "stockledger/internal/core/context"
	"stockledger/internal/core/id"
	"stockledger/internal/domain/auth"
	"stockledger/internal/domain/journal"
	"stockledger/internal/domain/ledger"
	"stockledger/internal/domain/reports"
	"stockledger/internal/infrastructure/http/v1/dto"
	"stockledger/pkg/logger"
)

type fakePinger struct{ err error }

func (p fakePinger) Ping(context.Context) error { return p.err }

type fakeReports struct {
	lastFilter  reports.StockInOutFilter
	lastJournal reports.JournalFilter
	err         error
	panicMsg    string
}

func (f *fakeReports) StockInOut(_ context.Context, filter reports.StockInOutFilter) (*reports.StockInOutReport, error) {
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	rows := []ledger.ReportRow{{
		ProductID:   id.MustParse("00000000-0000-0000-0000-000000000101"),
		ProductName: "Widget",
		LocationID:  id.MustParse("00000000-0000-0000-0000-0000000000a1"),
		UoM:         "Units",
		Initial:     decimal.NewFromInt(10),
		NetIncoming: decimal.NewFromInt(6),
		NetOutgoing: decimal.NewFromInt(3),
		Ending:      decimal.NewFromInt(13),
		UnitCost:    decimal.RequireFromString("2.5"),
		Valuation:   decimal.RequireFromString("32.5"),
	}}
	return &reports.StockInOutReport{
		DateStart:   time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		DateEnd:     time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		Type:        ledger.ModeDetailed,
		State:       reports.StateDone,
		Rows:        rows,
		Totals:      reports.ComputeTotals(rows),
		GeneratedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
	}, nil
}

func (f *fakeReports) JournalSummary(_ context.Context, filter reports.JournalFilter) (*reports.JournalSummary, error) {
	f.lastJournal = filter
	if len(filter.MoveIDs) == 0 {
		return nil, apperror.NewValidation("at least one moveId is required")
	}
	return &reports.JournalSummary{
		Lines: []journal.SummaryLine{
			{Account: "Stock", Currency: journal.CompanyCurrency, Debit: decimal.NewFromInt(100), Remark: "INV/001"},
			{Account: "Payable", Currency: journal.CompanyCurrency, Credit: decimal.NewFromInt(100), Remark: "INV/001"},
		},
		TotalDebit:  decimal.NewFromInt(100),
		TotalCredit: decimal.NewFromInt(100),
	}, nil
}

type testEnv struct {
	router  http.Handler
	reports *fakeReports
	jwt     *auth.JWTService
}

func newTestEnv(t *testing.T, db fakePinger) *testEnv {
	t.Helper()
	jwtSvc := auth.NewJWTService(auth.DefaultJWTConfig("test-secret"))
	fake := &fakeReports{}
	router := NewRouter(RouterConfig{
		DB:           db,
		Logger:       logger.NewNop(),
		JWTValidator: jwtSvc,
		Reports:      fake,
	})
	return &testEnv{router: router, reports: fake, jwt: jwtSvc}
}

func (e *testEnv) token(t *testing.T, perms ...string) string {
	t.Helper()
	tok, _, err := e.jwt.GenerateAccessToken(appctx.UserContext{UserID: "u-1", Permissions: perms})
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, path, token string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

const stockPath = "/api/v1/reports/stock-inout?dateStart=2024-03-01&dateEnd=2024-03-31"

func TestHealth(t *testing.T) {
	env := newTestEnv(t, fakePinger{})
	assert.Equal(t, http.StatusOK, env.do(t, "/health/live", "").Code)
	assert.Equal(t, http.StatusOK, env.do(t, "/health/ready", "").Code)

	down := newTestEnv(t, fakePinger{err: errors.New("connection refused")})
	w := down.do(t, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "connection refused")
}

func TestStockInOut_Auth(t *testing.T) {
	env := newTestEnv(t, fakePinger{})

	w := env.do(t, stockPath, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, apperror.CodeUnauthorized, decodeError(t, w).Code)

	w = env.do(t, stockPath, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, stockPath, env.token(t, auth.PermJournalReportRead))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, apperror.CodeForbidden, decodeError(t, w).Code)
}

func TestStockInOut_OK(t *testing.T) {
	env := newTestEnv(t, fakePinger{})
	loc := "00000000-0000-0000-0000-0000000000a1"

	w := env.do(t, stockPath+"&locationId="+loc+"&type=Summary&state=all", env.token(t, auth.PermStockReportRead))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	var resp dto.StockInOutResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2024-03-01", resp.DateStart)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "13.0000", resp.Rows[0].Ending)
	assert.Equal(t, "32.50", resp.Rows[0].Valuation)
	assert.Equal(t, "32.50", resp.Totals.Valuation)

	f := env.reports.lastFilter
	assert.Equal(t, ledger.ModeSummary, f.Type)
	assert.Equal(t, reports.StateAll, f.State)
	assert.Equal(t, []id.ID{id.MustParse(loc)}, f.LocationIDs)
}

func TestStockInOut_BadInput(t *testing.T) {
	env := newTestEnv(t, fakePinger{})
	tok := env.token(t, auth.PermStockReportRead)

	tests := []struct {
		name string
		path string
		code string
	}{
		{"missing dates", "/api/v1/reports/stock-inout", apperror.CodeValidation},
		{"bad date", "/api/v1/reports/stock-inout?dateStart=03/01/2024&dateEnd=2024-03-31", apperror.CodeInvalidInput},
		{"bad id", stockPath + "&productId=nope", apperror.CodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, tt.path, tok)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decodeError(t, w).Code)
		})
	}
}

func TestStockInOut_SourceFailure(t *testing.T) {
	env := newTestEnv(t, fakePinger{})
	env.reports.err = apperror.NewSourceFailure(errors.New("connection reset"))

	w := env.do(t, stockPath, env.token(t, auth.PermStockReportRead))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decodeError(t, w)
	assert.Equal(t, apperror.CodeSourceFailure, body.Code)
	assert.NotContains(t, w.Body.String(), "connection reset")
}

func TestStockInOut_Panic(t *testing.T) {
	env := newTestEnv(t, fakePinger{})
	env.reports.panicMsg = "boom"

	w := env.do(t, stockPath, env.token(t, auth.PermStockReportRead), "Accept-Encoding", "zstd")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get("Content-Encoding"))
	assert.Equal(t, apperror.CodeInternal, decodeError(t, w).Code)
}

func TestExport(t *testing.T) {
	env := newTestEnv(t, fakePinger{})
	tok := env.token(t, auth.PermStockReportRead)

	w := env.do(t, "/api/v1/reports/stock-inout/export?format=xlsx&dateStart=2024-03-01&dateEnd=2024-03-31", tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="stock_report.xlsx"`, w.Header().Get("Content-Disposition"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("PK")))

	w = env.do(t, "/api/v1/reports/stock-inout/export?format=pdf&dateStart=2024-03-01&dateEnd=2024-03-31", tok)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = env.do(t, "/api/v1/reports/stock-inout/export?format=csv&dateStart=2024-03-01&dateEnd=2024-03-31", tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestJournalSummary(t *testing.T) {
	env := newTestEnv(t, fakePinger{})
	tok := env.token(t, auth.PermJournalReportRead)
	moveID := "00000000-0000-0000-0000-000000000301"

	w := env.do(t, "/api/v1/reports/journal-summary?moveId="+moveID+"&reference=+REF-1+", tok)
	require.Equal(t, http.StatusOK, w.Code)

	var resp dto.JournalSummaryResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Lines, 2)
	assert.Equal(t, "100.00", resp.TotalDebit)
	assert.Equal(t, "REF-1", env.reports.lastJournal.Reference)

	w = env.do(t, "/api/v1/reports/journal-summary", tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, "/api/v1/reports/journal-summary?moveId="+moveID, env.token(t, auth.PermStockReportRead))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCompress(t *testing.T) {
	env := newTestEnv(t, fakePinger{})

	w := env.do(t, stockPath, env.token(t, auth.PermStockReportRead), "Accept-Encoding", "gzip, zstd")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "zstd", w.Header().Get("Content-Encoding"))

	dec, err := zstd.NewReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer dec.Close()
	plain, err := io.ReadAll(dec)
	require.NoError(t, err)

	var resp dto.StockInOutResponse
	require.NoError(t, json.Unmarshal(plain, &resp))
	assert.Len(t, resp.Rows, 1)

	// q=0 opts out
	w = env.do(t, stockPath, env.token(t, auth.PermStockReportRead), "Accept-Encoding", "zstd;q=0")
	assert.Empty(t, w.Header().Get("Content-Encoding"))
}
