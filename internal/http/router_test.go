package http_test

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledger/internal/cache"
	"github.com/MrJamesThe3rd/ledger/internal/category"
	categoryMemory "github.com/MrJamesThe3rd/ledger/internal/category/memory"
	ledgerhttp "github.com/MrJamesThe3rd/ledger/internal/http"
	"github.com/MrJamesThe3rd/ledger/internal/http/auth"
	categoryHandler "github.com/MrJamesThe3rd/ledger/internal/http/category"
	importHandler "github.com/MrJamesThe3rd/ledger/internal/http/importcsv"
	matchingHandler "github.com/MrJamesThe3rd/ledger/internal/http/matching"
	reportHandler "github.com/MrJamesThe3rd/ledger/internal/http/report"
	txHandler "github.com/MrJamesThe3rd/ledger/internal/http/transaction"
	"github.com/MrJamesThe3rd/ledger/internal/importer"
	"github.com/MrJamesThe3rd/ledger/internal/matching"
	matchingMemory "github.com/MrJamesThe3rd/ledger/internal/matching/memory"
	"github.com/MrJamesThe3rd/ledger/internal/report"
	"github.com/MrJamesThe3rd/ledger/internal/transaction"
	txMemory "github.com/MrJamesThe3rd/ledger/internal/transaction/memory"
)

var secret = []byte("router-secret")

type client struct {
	t      *testing.T
	server *httptest.Server
	token  string
}

func newClient(t *testing.T) *client {
	t.Helper()

	today := func() time.Time { return time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC) }

	categories, err := cache.New[[]category.Category](100)
	require.NoError(t, err)
	t.Cleanup(categories.Close)

	centers, err := cache.New[[]category.CostCenter](100)
	require.NoError(t, err)
	t.Cleanup(centers.Close)

	var (
		categoryService    = category.NewService(categoryMemory.New(), categories, centers)
		transactionService = transaction.NewService(txMemory.New(), transaction.WithClock(today))
		reportService      = report.NewService(transactionService, today)
		matchingService    = matching.NewService(matchingMemory.New())
		importService      = importer.NewService(transactionService, importer.WithSuggester(matchingService))
	)

	router := ledgerhttp.New(
		ledgerhttp.Options{JWTSecret: secret, AllowedOrigins: []string{"*"}},
		txHandler.NewHandler(transactionService),
		categoryHandler.NewHandler(categoryService),
		reportHandler.NewHandler(reportService),
		importHandler.NewHandler(importService),
		matchingHandler.NewHandler(matchingService),
	)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &client{t: t, server: server, token: tokenFor(t, uuid.New())}
}

func tokenFor(t *testing.T, tenantID uuid.UUID) string {
	t.Helper()

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{auth.TenantClaim: tenantID.String()}).SignedString(secret)
	require.NoError(t, err)

	return token
}

func (c *client) do(method, path, contentType string, body io.Reader) *http.Response {
	c.t.Helper()

	req, err := http.NewRequest(method, c.server.URL+path, body)
	require.NoError(c.t, err)

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.server.Client().Do(req)
	require.NoError(c.t, err)
	c.t.Cleanup(func() { resp.Body.Close() })

	return resp
}

func (c *client) json(method, path string, body any) *http.Response {
	c.t.Helper()

	if body == nil {
		return c.do(method, path, "", nil)
	}

	b, err := json.Marshal(body)
	require.NoError(c.t, err)

	return c.do(method, path, "application/json", bytes.NewReader(b))
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))

	return v
}

type txBody struct {
	ID         uuid.UUID       `json:"id"`
	Status     string          `json:"status"`
	Amount     decimal.Decimal `json:"amount"`
	DueDate    string          `json:"due_date"`
	PaidAt     string          `json:"paid_at"`
	ExcludedAt *time.Time      `json:"excluded_at"`
}

func TestRouter_Unauthorized(t *testing.T) {
	c := newClient(t)
	c.token = ""

	resp := c.json(http.MethodGet, "/api/v1/transactions", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = c.json(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_TransactionLifecycle(t *testing.T) {
	c := newClient(t)

	resp := c.json(http.MethodPost, "/api/v1/transactions", map[string]any{
		"type":        "payable",
		"description": "Office rent",
		"amount":      "1500.00",
		"due_date":    "2024-01-10",
		"category":    "Rent",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	created := decode[txBody](t, resp)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "2024-01-10", created.DueDate)
	assert.True(t, created.Amount.Equal(decimal.NewFromInt(1500)))

	path := "/api/v1/transactions/" + created.ID.String()

	resp = c.json(http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = c.json(http.MethodPost, path+"/pay", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "2024-01-20", decode[txBody](t, resp).PaidAt)

	resp = c.json(http.MethodPost, path+"/pay", nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = c.json(http.MethodPost, path+"/exclude", map[string]string{"reason": "cancelled"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cancelled := decode[txBody](t, resp)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.NotNil(t, cancelled.ExcludedAt)

	resp = c.json(http.MethodPost, path+"/reactivate", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reactivated := decode[txBody](t, resp)
	assert.Equal(t, "pending", reactivated.Status)
	assert.Empty(t, reactivated.PaidAt)
	assert.Nil(t, reactivated.ExcludedAt)

	resp = c.json(http.MethodPatch, path, map[string]any{"amount": "1600", "clear_due_date": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	patched := decode[txBody](t, resp)
	assert.True(t, patched.Amount.Equal(decimal.NewFromInt(1600)))
	assert.Empty(t, patched.DueDate)

	resp = c.json(http.MethodGet, "/api/v1/transactions?status=pending", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]txBody](t, resp), 1)
}

func TestRouter_TransactionErrors(t *testing.T) {
	c := newClient(t)

	resp := c.json(http.MethodPost, "/api/v1/transactions", map[string]any{
		"type":        "payable",
		"description": "Office rent",
		"amount":      "100",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	id := decode[txBody](t, resp).ID.String()

	tests := []struct {
		name       string
		method     string
		path       string
		body       any
		wantStatus int
	}{
		{name: "ZeroAmount", method: http.MethodPost, path: "/api/v1/transactions", body: map[string]any{"type": "payable", "description": "x", "amount": "0"}, wantStatus: http.StatusUnprocessableEntity},
		{name: "BadJSON", method: http.MethodPost, path: "/api/v1/transactions", body: "not an object", wantStatus: http.StatusBadRequest},
		{name: "BadDate", method: http.MethodPost, path: "/api/v1/transactions", body: map[string]any{"type": "payable", "description": "x", "amount": "1", "due_date": "10/01/2024"}, wantStatus: http.StatusUnprocessableEntity},
		{name: "BadDateOnPatch", method: http.MethodPatch, path: "/api/v1/transactions/" + id, body: map[string]any{"due_date": "2024-13-01"}, wantStatus: http.StatusUnprocessableEntity},
		{name: "DateNotString", method: http.MethodPost, path: "/api/v1/transactions", body: map[string]any{"type": "payable", "description": "x", "amount": "1", "due_date": 20240110}, wantStatus: http.StatusUnprocessableEntity},
		{name: "SubCentAmount", method: http.MethodPost, path: "/api/v1/transactions", body: map[string]any{"type": "payable", "description": "x", "amount": "0.001"}, wantStatus: http.StatusUnprocessableEntity},
		{name: "InvalidID", method: http.MethodGet, path: "/api/v1/transactions/abc", wantStatus: http.StatusBadRequest},
		{name: "NotFound", method: http.MethodGet, path: "/api/v1/transactions/" + uuid.NewString(), wantStatus: http.StatusNotFound},
		{name: "TypeChange", method: http.MethodPatch, path: "/api/v1/transactions/" + id, body: map[string]any{"type": "receivable"}, wantStatus: http.StatusUnprocessableEntity},
		{name: "BadReason", method: http.MethodPost, path: "/api/v1/transactions/" + id + "/exclude", body: map[string]any{"reason": "paid"}, wantStatus: http.StatusUnprocessableEntity},
		{name: "ReactivateActive", method: http.MethodPost, path: "/api/v1/transactions/" + id + "/reactivate", wantStatus: http.StatusConflict},
		{name: "BadFilter", method: http.MethodGet, path: "/api/v1/transactions?from=2024-02-01&to=2024-01-01", wantStatus: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := c.json(tt.method, tt.path, tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}

	t.Run("OtherTenant", func(t *testing.T) {
		other := *c
		other.t = t
		other.token = tokenFor(t, uuid.New())

		resp := other.json(http.MethodGet, "/api/v1/transactions/"+id, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestRouter_Registry(t *testing.T) {
	c := newClient(t)

	type entry struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
		Type string    `json:"type"`
	}

	resp := c.json(http.MethodPost, "/api/v1/categories", map[string]string{"name": "Marketing", "type": "payable"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	marketing := decode[entry](t, resp)

	resp = c.json(http.MethodPost, "/api/v1/categories", map[string]string{"name": "marketing", "type": "payable"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = c.json(http.MethodPost, "/api/v1/categories", map[string]string{"name": "Sales", "type": "receivable"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = c.json(http.MethodGet, "/api/v1/categories?type=receivable", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list := decode[[]entry](t, resp)
	require.Len(t, list, 1)
	assert.Equal(t, "Sales", list[0].Name)

	resp = c.json(http.MethodDelete, "/api/v1/categories/"+marketing.ID.String(), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = c.json(http.MethodDelete, "/api/v1/categories/"+marketing.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = c.json(http.MethodPost, "/api/v1/cost-centers", map[string]string{"name": "HQ"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = c.json(http.MethodPost, "/api/v1/cost-centers", map[string]string{"name": " "})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = c.json(http.MethodGet, "/api/v1/cost-centers", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, decode[[]entry](t, resp), 1)
}

func TestRouter_Reports(t *testing.T) {
	c := newClient(t)

	for _, body := range []map[string]any{
		{"type": "receivable", "description": "Client A", "amount": "1000", "due_date": "2024-01-05", "status": "paid", "paid_at": "2024-01-05", "category": "Sales"},
		{"type": "payable", "description": "Rent", "amount": "400", "due_date": "2024-01-10", "category": "Rent"},
		{"type": "payable", "description": "Energy", "amount": "100", "due_date": "2024-02-10"},
	} {
		resp := c.json(http.MethodPost, "/api/v1/transactions", body)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
	}

	resp := c.json(http.MethodGet, "/api/v1/reports/stats", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	stats := decode[report.Stats](t, resp)
	assert.True(t, stats.Revenues.Equal(decimal.NewFromInt(1000)))
	assert.True(t, stats.Expenses.Equal(decimal.NewFromInt(500)))
	assert.True(t, stats.Balance.Equal(decimal.NewFromInt(500)))
	assert.True(t, stats.Overdue.Equal(decimal.NewFromInt(400)))
	assert.True(t, stats.Received.Equal(decimal.NewFromInt(1000)))

	resp = c.json(http.MethodGet, "/api/v1/reports/categories?type=payable", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	byCategory := decode[map[string]decimal.Decimal](t, resp)
	assert.True(t, byCategory["Rent"].Equal(decimal.NewFromInt(400)))
	assert.True(t, byCategory[transaction.Uncategorized].Equal(decimal.NewFromInt(100)))

	resp = c.json(http.MethodGet, "/api/v1/transactions?category="+transaction.Uncategorized, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	uncategorized := decode[[]txBody](t, resp)
	require.Len(t, uncategorized, 1)
	assert.True(t, uncategorized[0].Amount.Equal(decimal.NewFromInt(100)))

	resp = c.json(http.MethodGet, "/api/v1/reports/cash-flow?from=2024-01-01&to=2024-01-31", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	flow := decode[[]report.CashFlowDay](t, resp)
	require.Len(t, flow, 2)
	assert.True(t, flow[1].RunningBalance.Equal(decimal.NewFromInt(600)))

	resp = c.json(http.MethodGet, "/api/v1/reports/dre", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	dre := decode[report.DRE](t, resp)
	assert.True(t, dre.Profit.Equal(decimal.NewFromInt(500)))
	assert.True(t, dre.Margin.Equal(decimal.NewFromInt(50)))

	for _, path := range []string{"/api/v1/reports/cost-centers", "/api/v1/reports/cities"} {
		resp = c.json(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
	}

	resp = c.json(http.MethodGet, "/api/v1/reports/stats?status=archived", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestRouter_Import(t *testing.T) {
	c := newClient(t)

	csv := "Vencimento;Descrição;Valor;Tipo\n10/01/2024;Aluguel;1.500,00;pagar\n15/01/2024;Cliente A;2.000,00;receber\n"

	upload := func(force string) *http.Response {
		var body bytes.Buffer

		mw := multipart.NewWriter(&body)

		fw, err := mw.CreateFormFile("file", "lancamentos.csv")
		require.NoError(t, err)

		_, err = fw.Write([]byte(csv))
		require.NoError(t, err)

		if force != "" {
			require.NoError(t, mw.WriteField("force", force))
		}

		require.NoError(t, mw.Close())

		return c.do(http.MethodPost, "/api/v1/import", mw.FormDataContentType(), &body)
	}

	resp := upload("")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	type imported struct {
		Imported int `json:"imported"`
	}

	assert.Equal(t, 2, decode[imported](t, resp).Imported)

	resp = upload("")
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	type conflicts struct {
		Conflicts []json.RawMessage `json:"conflicts"`
	}

	assert.Len(t, decode[conflicts](t, resp).Conflicts, 2)

	resp = upload("true")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = upload("maybe")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = c.do(http.MethodPost, "/api/v1/import", "text/plain", bytes.NewReader([]byte(csv)))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRouter_CategoryRules(t *testing.T) {
	c := newClient(t)

	resp := c.json(http.MethodPost, "/api/v1/category-rules", map[string]string{"type": "payable", "pattern": "aluguel", "category": "Rent"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = c.json(http.MethodPost, "/api/v1/category-rules", map[string]string{"type": "payable", "pattern": "", "category": "Rent"})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	resp = c.json(http.MethodGet, "/api/v1/category-rules/suggest?type=payable&description=Aluguel+jan", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Rent", decode[map[string]string](t, resp)["category"])

	resp = c.json(http.MethodGet, "/api/v1/category-rules/suggest?description=Aluguel", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var body bytes.Buffer

	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "lancamentos.csv")
	require.NoError(t, err)

	_, err = fw.Write([]byte("Vencimento;Descrição;Valor;Tipo\n10/01/2024;Aluguel jan;1.500,00;pagar\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp = c.do(http.MethodPost, "/api/v1/import", mw.FormDataContentType(), &body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	type imported struct {
		Transactions []struct {
			Category string `json:"category"`
		} `json:"transactions"`
	}

	got := decode[imported](t, resp)
	require.Len(t, got.Transactions, 1)
	assert.Equal(t, "Rent", got.Transactions[0].Category)
}
