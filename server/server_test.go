package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/tradelog/journal"
	"github.com/rustyeddy/tradelog/market"
	"github.com/rustyeddy/tradelog/risk"
	"github.com/rustyeddy/tradelog/tradebook"
)

const testUser = "7c9e6679-7425-40de-944b-e07fc1f90ae7"

type memUploader struct {
	mu   sync.Mutex
	keys []string
}

func (u *memUploader) Upload(_ context.Context, key string, body io.Reader, _ string) (string, error) {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return "", err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.keys = append(u.keys, key)
	return "https://cdn.test/" + key, nil
}

func newTestServer(t *testing.T, requireAfter bool) (*Server, *memUploader) {
	t.Helper()
	up := &memUploader{}
	svc, err := tradebook.New(tradebook.Options{
		Calculator:             risk.NewCalculator(market.DefaultRegistry(), market.DefaultExchangeRates()),
		Store:                  journal.NewMemory(),
		Uploader:               up,
		Accounts:               []tradebook.Account{{ID: "main", Name: "Main", Currency: "USD", Capital: 10000}},
		RequireAfterScreenshot: requireAfter,
		Log:                    zerolog.Nop(),
	})
	require.NoError(t, err)
	return New(Config{Log: zerolog.Nop(), Service: svc}), up
}

func do(t *testing.T, s *Server, method, path string, body io.Reader, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil && header["Content-Type"] == "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func authed() map[string]string { return map[string]string{userHeader: testUser} }

func tradeJSON(date string, exit float64) string {
	return `{"symbol":"EUR/USD","direction":"long","status":"closed","entry_price":1.1,` +
		`"exit_price":` + jsonNum(exit) + `,"stop_loss":1.098,"take_profit":1.104,` +
		`"risk_mode":"lot","risk_value":1,"date":"` + date + `","setup":"breakout"}`
}

func jsonNum(f float64) string {
	b, _ := json.Marshal(f)
	return string(b)
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createTrade(t *testing.T, s *Server, date string, exit float64) tradeResponse {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/accounts/main/trades", strings.NewReader(tradeJSON(date, exit)), authed())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[savedResponse](t, rec).Trade
}

func TestHealth(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, false)

	rec := do(t, s, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decodeBody[map[string]string](t, rec)["status"])
}

func TestInstruments(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, false)

	rec := do(t, s, http.MethodGet, "/api/instruments", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	specs := decodeBody[[]market.InstrumentSpec](t, rec)
	assert.NotEmpty(t, specs)
}

func TestCalculate(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, false)

	body := `{"symbol":"eurusd","direction":"long","status":"open","entry_price":1.1,` +
		`"stop_loss":1.098,"risk_mode":"percentage","risk_value":1,"account_id":"main"}`
	rec := do(t, s, http.MethodPost, "/api/calculate", strings.NewReader(body), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	res := decodeBody[risk.Result](t, rec)
	assert.Equal(t, "EUR/USD", res.Symbol)
	lot, ok := res.LotSize.Get()
	require.True(t, ok)
	assert.InDelta(t, 0.5, lot, 1e-9)
	sl, _ := res.StopLossPips.Get()
	assert.InDelta(t, 20, sl, 1e-9)
}

func TestCalculateValidation(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, false)

	body := `{"symbol":"EUR/USD","direction":"sideways","status":"open","risk_mode":"lot"}`
	rec := do(t, s, http.MethodPost, "/api/calculate", strings.NewReader(body), nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	eb := decodeBody[errorBody](t, rec)
	assert.Contains(t, eb.Fields, "direction")
	assert.Contains(t, eb.Fields, "entry_price")
}

func TestCalculateBadJSON(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, false)

	rec := do(t, s, http.MethodPost, "/api/calculate", strings.NewReader(`{"symbol":`), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequireUser(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, false)

	tests := []struct {
		name   string
		header map[string]string
	}{
		{"missing", nil},
		{"not a uuid", map[string]string{userHeader: "alice"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, "/api/accounts", nil, tt.header)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}

	rec := do(t, s, http.MethodGet, "/api/accounts", nil, authed())
	require.Equal(t, http.StatusOK, rec.Code)
	accts := decodeBody[[]tradebook.Account](t, rec)
	require.Len(t, accts, 1)
	assert.Equal(t, "main", accts[0].ID)
}

func TestCreateAndGetTrade(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, false)

	tr := createTrade(t, s, "2024-03-04", 1.105)
	assert.NotEmpty(t, tr.ID)
	assert.Equal(t, "2024-03-04", tr.Date)
	assert.Equal(t, "day", tr.Duration)
	assert.Equal(t, "win", tr.Outcome)
	pnl, ok := tr.Derived.RealizedPnL.Get()
	require.True(t, ok)
	assert.InDelta(t, 500, pnl, 0.01)

	rec := do(t, s, http.MethodGet, "/api/accounts/main/trades/"+tr.ID, nil, authed())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tr.ID, decodeBody[tradeResponse](t, rec).ID)

	other := map[string]string{userHeader: "9b2f1c0e-1111-4222-8333-444455556666"}
	rec = do(t, s, http.MethodGet, "/api/accounts/main/trades/"+tr.ID, nil, other)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTradeMultipart(t *testing.T) {
	t.Parallel()
	s, up := newTestServer(t, true)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("trade", tradeJSON("2024-03-05", 1.097)))
	fw, err := mw.CreateFormFile("after", "chart.PNG")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	h := authed()
	h["Content-Type"] = mw.FormDataContentType()
	rec := do(t, s, http.MethodPost, "/api/accounts/main/trades", &buf, h)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	saved := decodeBody[savedResponse](t, rec)
	assert.Empty(t, saved.Warnings)
	assert.Equal(t, "loss", saved.Trade.Outcome)
	assert.Equal(t, "https://cdn.test/"+testUser+"/"+saved.Trade.ID+"/after.png", saved.Trade.AfterScreenshot)
	assert.Equal(t, []string{testUser + "/" + saved.Trade.ID + "/after.png"}, up.keys)
}

func TestCreateTradeRequiresAfterScreenshot(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, true)

	rec := do(t, s, http.MethodPost, "/api/accounts/main/trades", strings.NewReader(tradeJSON("2024-03-05", 1.101)), authed())
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[errorBody](t, rec).Fields, "after_screenshot")
}

func TestCreateTradeErrors(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, false)

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"bad date", "/api/accounts/main/trades", strings.Replace(tradeJSON("2024-03-05", 1.1), "2024-03-05", "05/03/2024", 1), http.StatusBadRequest},
		{"unknown instrument", "/api/accounts/main/trades", strings.Replace(tradeJSON("2024-03-05", 1.1), "EUR/USD", "XXX/YYY", 1), http.StatusUnprocessableEntity},
		{"unknown account", "/api/accounts/nope/trades", tradeJSON("2024-03-05", 1.1), http.StatusNotFound},
		{"bad json", "/api/accounts/main/trades", "{", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, tt.path, strings.NewReader(tt.body), authed())
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestListTrades(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, false)

	createTrade(t, s, "2024-03-04", 1.105)
	createTrade(t, s, "2024-03-06", 1.098)
	createTrade(t, s, "2024-03-05", 1.103)

	rec := do(t, s, http.MethodGet, "/api/accounts/main/trades", nil, authed())
	require.Equal(t, http.StatusOK, rec.Code)
	all := decodeBody[[]tradeResponse](t, rec)
	require.Len(t, all, 3)
	assert.Equal(t, "2024-03-04", all[0].Date)
	assert.Equal(t, "2024-03-06", all[2].Date)

	rec = do(t, s, http.MethodGet, "/api/accounts/main/trades?limit=2", nil, authed())
	require.Equal(t, http.StatusOK, rec.Code)
	recent := decodeBody[[]tradeResponse](t, rec)
	require.Len(t, recent, 2)
	assert.Equal(t, "2024-03-06", recent[0].Date)

	rec = do(t, s, http.MethodGet, "/api/accounts/main/trades?limit=zero", nil, authed())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListTradesEmpty(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, false)

	rec := do(t, s, http.MethodGet, "/api/accounts/main/trades", nil, authed())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))
}

func TestUpdateAndDeleteTrade(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, false)

	tr := createTrade(t, s, "2024-03-04", 1.105)

	rec := do(t, s, http.MethodPut, "/api/accounts/main/trades/"+tr.ID, strings.NewReader(tradeJSON("2024-03-04", 1.099)), authed())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decodeBody[savedResponse](t, rec).Trade
	assert.Equal(t, "loss", updated.Outcome)
	pnl, _ := updated.Derived.RealizedPnL.Get()
	assert.InDelta(t, -100, pnl, 0.01)

	rec = do(t, s, http.MethodDelete, "/api/accounts/main/trades/"+tr.ID, nil, authed())
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, s, http.MethodDelete, "/api/accounts/main/trades/"+tr.ID, nil, authed())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExportCSV(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, false)

	createTrade(t, s, "2024-03-04", 1.105)

	rec := do(t, s, http.MethodGet, "/api/accounts/main/trades/export.csv", nil, authed())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	assert.Len(t, lines, 2)
}

func TestStats(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, false)

	createTrade(t, s, "2024-03-04", 1.105) // +500
	createTrade(t, s, "2024-03-05", 1.098) // -200
	createTrade(t, s, "2024-03-05", 1.103) // +300

	rec := do(t, s, http.MethodGet, "/api/accounts/main/stats/month/2024/3", nil, authed())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	month := decodeBody[map[string]any](t, rec)
	assert.InDelta(t, 600, month["total_pnl"], 0.01)
	assert.EqualValues(t, 3, month["trades"])
	assert.InDelta(t, 6, month["roi_percent"], 0.01)

	rec = do(t, s, http.MethodGet, "/api/accounts/main/stats/year/2024", nil, authed())
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/accounts/main/stats/days", nil, authed())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, rec), 2)

	rec = do(t, s, http.MethodGet, "/api/accounts/main/stats/summary", nil, authed())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, decodeBody[map[string]any](t, rec)["trades"])

	rec = do(t, s, http.MethodGet, "/api/accounts/main/stats/equity", nil, authed())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, rec), 2)

	rec = do(t, s, http.MethodGet, "/api/accounts/main/stats/months", nil, authed())
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStatsBadParams(t *testing.T) {
	t.Parallel()
	s, _ := newTestServer(t, false)

	for _, path := range []string{
		"/api/accounts/main/stats/month/2024/13",
		"/api/accounts/main/stats/month/abc/3",
		"/api/accounts/main/stats/year/0",
	} {
		rec := do(t, s, http.MethodGet, path, nil, authed())
		assert.Equal(t, http.StatusBadRequest, rec.Code, path)
	}

	rec := do(t, s, http.MethodGet, "/api/accounts/nope/stats/summary", nil, authed())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestScreenshotFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "main", "01HQ3Z5Y8K7V6W5X4T3S2R1P0N"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main", "01HQ3Z5Y8K7V6W5X4T3S2R1P0N", "after.png"), []byte("png"), 0o644))

	base, _ := newTestServer(t, false)
	s := New(Config{Log: zerolog.Nop(), Service: base.svc, ScreenshotDir: dir})

	tests := []struct {
		name string
		path string
		want int
	}{
		{"file", "/screenshots/main/01HQ3Z5Y8K7V6W5X4T3S2R1P0N/after.png", http.StatusOK},
		{"root listing", "/screenshots/", http.StatusNotFound},
		{"account listing", "/screenshots/main/", http.StatusNotFound},
		{"trade listing", "/screenshots/main/01HQ3Z5Y8K7V6W5X4T3S2R1P0N/", http.StatusNotFound},
		{"missing", "/screenshots/main/nope.png", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := do(t, s, http.MethodGet, tt.path, nil, nil)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusOK {
				assert.Equal(t, "png", rec.Body.String())
			}
		})
	}
}
