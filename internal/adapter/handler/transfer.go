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

type TransferHandler struct {
	Executor *ledger.Executor
	Log      *zap.Logger
}

type TransferRequest struct {
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	Amount        string `json:"amount"`
	CurrencyCode  string `json:"currency_code"`
	Description   string `json:"description"`
}

type TransferResponse struct {
	TransactionID string     `json:"transaction_id"`
	Status        string     `json:"status"`
	Amount        string     `json:"amount"`
	CurrencyCode  string     `json:"currency_code"`
	Description   string     `json:"description"`
	CompletedAt   *time.Time `json:"completed_at"`
}

// CreateTransfer executes a funds transfer between two accounts.
func (h *TransferHandler) CreateTransfer(c *fiber.Ctx) error {
	var req TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	fromID, err := uuid.Parse(req.FromAccountID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid from_account_id"})
	}
	toID, err := uuid.Parse(req.ToAccountID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid to_account_id"})
	}
	money, err := domain.MoneyFromString(req.Amount, domain.Currency(req.CurrencyCode))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid amount"})
	}

	res, err := h.Executor.ExecuteTransfer(c.Context(), ledger.TransferRequest{
		FromAccountID: fromID,
		ToAccountID:   toID,
		Amount:        money.Amount,
		Currency:      money.Currency,
		Description:   req.Description,
	})
	if err != nil {
		return h.transferError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(TransferResponse{
		TransactionID: res.Transaction.ID.String(),
		Status:        string(res.Transaction.Status),
		Amount:        res.Transfer.Amount.StringFixed(2),
		CurrencyCode:  string(res.Transfer.Currency),
		Description:   res.Transaction.Description,
		CompletedAt:   res.Transaction.CompletedAt,
	})
}

func (h *TransferHandler) transferError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, domain.ErrCurrencyMismatch),
		errors.Is(err, domain.ErrSameAccount),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAccountNotActive):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, domain.ErrContention):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "transfer conflicted with a concurrent operation, retry"})
	default:
		h.Log.Error("transfer failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "could not process transfer"})
	}
}
