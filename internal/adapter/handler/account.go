package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/core/domain"
	"github.com/Aditya-kr-jha/OrbitBank-v2/internal/core/ledger"
)

type AccountHandler struct {
	Store ledger.Store
	Log   *zap.Logger
}

type AccountResponse struct {
	ID            string `json:"id"`
	AccountNumber string `json:"account_number"`
	OwnerName     string `json:"owner_name"`
	Balance       string `json:"balance"`
	CurrencyCode  string `json:"currency_code"`
	Status        string `json:"status"`
}

type HistoryItemResponse struct {
	TransactionID string     `json:"transaction_id"`
	Type          string     `json:"type"`
	Status        string     `json:"status"`
	Description   string     `json:"description"`
	Amount        string     `json:"amount"`
	CurrencyCode  string     `json:"currency_code"`
	CompletedAt   *time.Time `json:"completed_at"`
}

type EntryResponse struct {
	ID            string `json:"id"`
	AccountID     string `json:"account_id"`
	TransactionID string `json:"transaction_id"`
	Amount        string `json:"amount"`
	CurrencyCode  string `json:"currency_code"`
}

// GetAccount returns one account with its current balance.
func (h *AccountHandler) GetAccount(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid account id"})
	}

	acc, err := h.Store.GetAccount(c.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "account not found"})
		}
		h.Log.Error("get account failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not fetch account"})
	}

	return c.JSON(AccountResponse{
		ID:            acc.ID.String(),
		AccountNumber: acc.Number,
		OwnerName:     acc.OwnerName,
		Balance:       acc.Balance.StringFixed(2),
		CurrencyCode:  string(acc.Currency),
		Status:        string(acc.Status),
	})
}

// GetHistory returns the account's most recent ledger lines.
func (h *AccountHandler) GetHistory(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid account id"})
	}

	items, err := h.Store.ListAccountHistory(c.Context(), id, c.QueryInt("limit", 10))
	if err != nil {
		h.Log.Error("history fetch failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not fetch history"})
	}

	out := make([]HistoryItemResponse, 0, len(items))
	for _, it := range items {
		out = append(out, HistoryItemResponse{
			TransactionID: it.Transaction.ID.String(),
			Type:          string(it.Transaction.Type),
			Status:        string(it.Transaction.Status),
			Description:   it.Transaction.Description,
			Amount:        it.Amount.StringFixed(2),
			CurrencyCode:  string(it.Currency),
			CompletedAt:   it.Transaction.CompletedAt,
		})
	}
	return c.JSON(fiber.Map{"transactions": out})
}

// GetTransactionEntries returns the double-entry lines of one transaction.
func (h *AccountHandler) GetTransactionEntries(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid transaction id"})
	}

	if _, err := h.Store.GetTransaction(c.Context(), id); err != nil {
		if errors.Is(err, domain.ErrTransactionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "transaction not found"})
		}
		h.Log.Error("get transaction failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not fetch transaction"})
	}

	entries, err := h.Store.ListTransactionEntries(c.Context(), id)
	if err != nil {
		h.Log.Error("entries fetch failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not fetch entries"})
	}

	out := make([]EntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, EntryResponse{
			ID:            e.ID.String(),
			AccountID:     e.AccountID.String(),
			TransactionID: e.TransactionID.String(),
			Amount:        e.Amount.StringFixed(2),
			CurrencyCode:  string(e.Currency),
		})
	}
	return c.JSON(fiber.Map{"entries": out})
}
