package handler_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/adapter/handler"
	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/adapter/storage/memstore"
	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/core/domain"
	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/core/ledger"
)

func setupApp(t *testing.T) (*fiber.App, *memstore.Store) {
	t.Helper()
	store := memstore.New()
	logger := zaptest.NewLogger(t)

	exec := ledger.NewExecutor(store, nil, logger)
	transferHandler := &handler.TransferHandler{Executor: exec, Log: logger}
	accountHandler := &handler.AccountHandler{Store: store, Log: logger}

	app := fiber.New()
	api := app.Group("/v1")
	api.Post("/transfers", transferHandler.CreateTransfer)
	api.Get("/accounts/:id", accountHandler.GetAccount)
	api.Get("/accounts/:id/transactions", accountHandler.GetHistory)
	api.Get("/transactions/:id/entries", accountHandler.GetTransactionEntries)
	return app, store
}

func seedAccount(store *memstore.Store, number, balance string, currency domain.Currency) domain.Account {
	acc := domain.Account{
		ID:       uuid.New(),
		Number:   number,
		Balance:  decimal.RequireFromString(balance),
		Currency: currency,
		Status:   domain.AccountActive,
	}
	store.PutAccount(acc)
	return acc
}

func postJSON(t *testing.T, app *fiber.App, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func TestCreateTransfer(t *testing.T) {
	app, store := setupApp(t)
	a := seedAccount(store, "ORB1000200030", "100.00", domain.USD)
	b := seedAccount(store, "ORB1000200047", "50.00", domain.USD)

	resp := postJSON(t, app, "/v1/transfers", handler.TransferRequest{
		FromAccountID: a.ID.String(),
		ToAccountID:   b.ID.String(),
		Amount:        "30.00",
		CurrencyCode:  "USD",
		Description:   "rent",
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var out handler.TransferResponse
	decodeBody(t, resp, &out)
	assert.Equal(t, "COMPLETED", out.Status)
	assert.Equal(t, "30.00", out.Amount)
	assert.Equal(t, "USD", out.CurrencyCode)
	assert.Equal(t, "rent", out.Description)
	assert.NotNil(t, out.CompletedAt)
	require.NotEmpty(t, out.TransactionID)

	// Balances moved.
	req := httptest.NewRequest(http.MethodGet, "/v1/accounts/"+a.ID.String(), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	var acc handler.AccountResponse
	decodeBody(t, resp, &acc)
	assert.Equal(t, "70.00", acc.Balance)

	// Entries are readable through the transaction endpoint.
	req = httptest.NewRequest(http.MethodGet, "/v1/transactions/"+out.TransactionID+"/entries", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var entriesOut struct {
		Entries []handler.EntryResponse `json:"entries"`
	}
	decodeBody(t, resp, &entriesOut)
	require.Len(t, entriesOut.Entries, 2)
	assert.Equal(t, "-30.00", entriesOut.Entries[0].Amount)
	assert.Equal(t, "30.00", entriesOut.Entries[1].Amount)
}

func TestCreateTransferErrors(t *testing.T) {
	app, store := setupApp(t)
	a := seedAccount(store, "ORB1000200030", "100.00", domain.USD)
	b := seedAccount(store, "ORB1000200047", "50.00", domain.USD)
	e := seedAccount(store, "ORB1000200054", "50.00", domain.EUR)

	tests := []struct {
		name       string
		req        handler.TransferRequest
		wantStatus int
	}{
		{
			name: "insufficient funds",
			req: handler.TransferRequest{
				FromAccountID: a.ID.String(), ToAccountID: b.ID.String(),
				Amount: "1000.00", CurrencyCode: "USD",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "currency mismatch",
			req: handler.TransferRequest{
				FromAccountID: a.ID.String(), ToAccountID: e.ID.String(),
				Amount: "10.00", CurrencyCode: "USD",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown account",
			req: handler.TransferRequest{
				FromAccountID: uuid.NewString(), ToAccountID: b.ID.String(),
				Amount: "10.00", CurrencyCode: "USD",
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "same account",
			req: handler.TransferRequest{
				FromAccountID: a.ID.String(), ToAccountID: a.ID.String(),
				Amount: "10.00", CurrencyCode: "USD",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "malformed amount",
			req: handler.TransferRequest{
				FromAccountID: a.ID.String(), ToAccountID: b.ID.String(),
				Amount: "lots", CurrencyCode: "USD",
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "malformed account id",
			req: handler.TransferRequest{
				FromAccountID: "abc", ToAccountID: b.ID.String(),
				Amount: "10.00", CurrencyCode: "USD",
			},
			wantStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, app, "/v1/transfers", tt.req)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}

	// None of the failures left a trace.
	req := httptest.NewRequest(http.MethodGet,
		fmt.Sprintf("/v1/accounts/%s/transactions", a.ID), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var historyOut struct {
		Transactions []handler.HistoryItemResponse `json:"transactions"`
	}
	decodeBody(t, resp, &historyOut)
	assert.Empty(t, historyOut.Transactions)
}

func TestGetAccountNotFound(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/accounts/"+uuid.NewString(), nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/v1/accounts/not-a-uuid", nil)
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetTransactionEntriesNotFound(t *testing.T) {
	app, _ := setupApp(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/transactions/"+uuid.NewString()+"/entries", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
