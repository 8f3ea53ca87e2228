package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetdesk/fuelrecon/internal/currency"
	"github.com/fleetdesk/fuelrecon/internal/currency/mocks"
	"github.com/fleetdesk/fuelrecon/internal/domain"
	"github.com/fleetdesk/fuelrecon/internal/ingestion"
	"github.com/fleetdesk/fuelrecon/internal/ledger"
	"github.com/fleetdesk/fuelrecon/internal/logger"
	"github.com/fleetdesk/fuelrecon/internal/repository"
)

const statement = "Date;Vehicle;Country;Currency;Net amount;VAT amount;Gross amount\n" +
	"01.03.2024 08:15;B 16 TFL;DE;EUR;80,00;15,20;95,20\n" +
	"02.03.2024 09:00;XX 99 ZZZ;DE;EUR;20,00;3,80;23,80\n"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return newTestServerWithLog(t, logger.Nop())
}

func newTestServerWithLog(t *testing.T, log zerolog.Logger) *httptest.Server {
	t.Helper()
	db, err := repository.InitDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ctrl := gomock.NewController(t)
	src := mocks.NewMockRateSource(ctrl)
	fixing := currency.RateSet{
		Date:   time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
		Base:   "RON",
		Values: map[string]float64{"EUR": 5, "HUF": 0.0125},
	}
	src.EXPECT().Year(gomock.Any(), gomock.Any()).Return([]currency.RateSet{fixing}, nil).AnyTimes()
	src.EXPECT().Latest(gomock.Any()).Return(fixing, nil).AnyTimes()
	now := func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	rates := currency.NewService(src, currency.NewCache(time.Hour, 4, now), currency.Options{ReportingCurrency: "EUR"}, logger.Nop())

	batches := repository.NewBatchRepo(db)
	txns := repository.NewTransactionRepo(db)
	vehicles := repository.NewVehicleRepo(db)
	_, err = vehicles.Upsert([]domain.Vehicle{{ID: "veh-1", CompanyID: "c1", RegistrationNumber: "B16TFL"}})
	require.NoError(t, err)

	importSvc := ingestion.NewService(batches, txns, vehicles, rates, ingestion.Options{Now: now}, logger.Nop())
	ledgerSvc := ledger.NewService(txns, repository.NewExpenseRepo(db), vehicles, logger.Nop())

	srv := httptest.NewServer(NewRouter(batches, txns, importSvc, ledgerSvc, rates, log))
	t.Cleanup(srv.Close)
	return srv
}

func upload(t *testing.T, srv *httptest.Server, company, name, content, provider string) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if provider != "" {
		require.NoError(t, mw.WriteField("provider", provider))
	}
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(srv.URL+"/api/v1/companies/"+company+"/imports", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestImportLifecycle(t *testing.T) {
	srv := newTestServer(t)
	base := srv.URL + "/api/v1/companies/c1"

	resp := upload(t, srv, "c1", "march.csv", statement, "a")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created ingestion.ImportResult
	decode(t, resp, &created)
	require.NotNil(t, created.Batch)
	assert.Equal(t, 2, created.Batch.TotalTransactions)
	assert.Equal(t, domain.BatchPartial, created.Batch.Status)

	resp = upload(t, srv, "c1", "march.csv", statement, "")
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, err := http.Get(base + "/imports")
	require.NoError(t, err)
	defer resp.Body.Close()
	var list struct {
		Imports []domain.ImportBatch `json:"imports"`
		Total   int                  `json:"total"`
	}
	decode(t, resp, &list)
	assert.Equal(t, 1, list.Total)

	resp, err = http.Get(base + "/transactions?status=unmatched")
	require.NoError(t, err)
	defer resp.Body.Close()
	var txns struct {
		Transactions []domain.NormalizedTransaction `json:"transactions"`
		Total        int                            `json:"total"`
	}
	decode(t, resp, &txns)
	require.Equal(t, 1, txns.Total)
	unmatchedID := txns.Transactions[0].ID

	resp = postJSON(t, base+"/transactions/match", `{"ids":["`+unmatchedID+`"],"vehicle_id":"veh-1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var sum ledger.Summary
	decode(t, resp, &sum)
	assert.Equal(t, 1, sum.Succeeded)

	resp = postJSON(t, base+"/transactions/expenses", `{"ids":["`+unmatchedID+`"]}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decode(t, resp, &sum)
	assert.Equal(t, 1, sum.Succeeded)
	assert.NotEmpty(t, sum.Results[0].ExpenseID)

	resp = postJSON(t, base+"/transactions/match", `{"ids":["`+unmatchedID+`"],"vehicle_id":"veh-404"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	// a batch with promoted transactions stays
	del := deleteImport(t, base, created.Batch.ID)
	assert.Equal(t, http.StatusConflict, del.StatusCode)
	get, err := http.Get(base + "/imports/" + created.Batch.ID)
	require.NoError(t, err)
	defer get.Body.Close()
	assert.Equal(t, http.StatusOK, get.StatusCode)

	later := "Date;Vehicle;Country;Currency;Net amount;VAT amount;Gross amount\n" +
		"05.03.2024 10:00;B 16 TFL;DE;EUR;50,00;9,50;59,50\n"
	resp = upload(t, srv, "c1", "april.csv", later, "a")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var second ingestion.ImportResult
	decode(t, resp, &second)

	del = deleteImport(t, base, second.Batch.ID)
	assert.Equal(t, http.StatusNoContent, del.StatusCode)
	gone, err := http.Get(base + "/imports/" + second.Batch.ID)
	require.NoError(t, err)
	defer gone.Body.Close()
	assert.Equal(t, http.StatusNotFound, gone.StatusCode)
}

func deleteImport(t *testing.T, base, id string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodDelete, base+"/imports/"+id, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

// lockedBuffer is written by the server goroutine and read by the test.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestRequestLogger_TagsServiceLogsWithRequestID(t *testing.T) {
	var buf lockedBuffer
	srv := newTestServerWithLog(t, logger.NewWithWriter(&buf))

	resp := upload(t, srv, "c1", "march.csv", statement, "a")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var finished map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["message"] == "import finished" {
			finished = entry
		}
	}
	require.NotNil(t, finished, buf.String())
	assert.NotEmpty(t, finished["request_id"])
	assert.Equal(t, "c1", finished["company_id"])
	assert.Equal(t, http.MethodPost, finished["method"])
}

func TestCreateImport_BadRequests(t *testing.T) {
	srv := newTestServer(t)

	resp := upload(t, srv, "c1", "x.csv", "Vehicle;Country\nB16TFL;DE\n", "a")
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	var body map[string]string
	decode(t, resp, &body)
	assert.Contains(t, body["error"], "missing required columns")

	resp = upload(t, srv, "c1", "x.csv", statement, "fax")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, srv.URL+"/api/v1/companies/c1/transactions/ignore", `{"ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetRate(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/v1/rates/huf?date=2024-03-01")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Reporting string                       `json:"reporting_currency"`
		Rate      domain.ExchangeRateSnapshot `json:"rate"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "EUR", body.Reporting)
	assert.InDelta(t, 400, body.Rate.Rate, 1e-9)
	assert.Equal(t, domain.RateClosest, body.Rate.Kind)

	resp2, err := http.Get(srv.URL + "/api/v1/rates/HUF?date=01.03.2024")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp2.StatusCode)
}
