package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/schoolbank/backend/internal/services"
	"github.com/shopspring/decimal"
)

// IdempotencyKeyHeader makes a transfer safe to retry.
const IdempotencyKeyHeader = "Idempotency-Key"

type TransferHandler struct {
	transfers *services.TransferService
	iso       *services.ISO20022Service
	validator *services.ValidationHelper
}

func NewTransferHandler(transfers *services.TransferService, iso *services.ISO20022Service) *TransferHandler {
	return &TransferHandler{
		transfers: transfers,
		iso:       iso,
		validator: services.NewValidationHelper(),
	}
}

type transferRequest struct {
	FromAccountID string          `json:"fromAccountId" validate:"required"`
	ToAccountID   string          `json:"toAccountId" validate:"required"`
	Amount        decimal.Decimal `json:"amount"`
}

// Transfer moves money between the caller's own accounts
// @Summary Transfer between own accounts
// @Description Debits one account and credits the other atomically. Send an Idempotency-Key header to make retries safe; reusing a key for a different transfer is rejected.
// @Tags Transfers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param Idempotency-Key header string false "Client-chosen retry key"
// @Param request body transferRequest true "Transfer"
// @Success 201 {object} services.Response{data=models.TransferResult}
// @Failure 400 {object} services.Response
// @Failure 409 {object} services.Response
// @Failure 422 {object} services.Response
// @Failure 503 {object} services.Response
// @Router /transfers [post]
func (h *TransferHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	studentID, ok := caller(w, r)
	if !ok {
		return
	}

	var req transferRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}
	amount, err := toMoney(req.Amount)
	if err != nil {
		services.SendError(w, err)
		return
	}

	key := r.Header.Get(IdempotencyKeyHeader)
	result, err := h.transfers.TransferWithKey(r.Context(), key, studentID, req.FromAccountID, req.ToAccountID, amount)
	if err != nil {
		services.SendError(w, err)
		return
	}
	services.SendSuccess(w, http.StatusCreated, result)
}

// ExportISO20022 renders a transfer as an ISO 20022 message
// @Summary Export transfer as ISO 20022
// @Tags Transfers
// @Produce xml
// @Security BearerAuth
// @Param txId path string true "Either transaction of the transfer"
// @Param message query string false "pacs.008.001.08 (default) or pacs.002.001.08"
// @Success 200 {string} string "XML document"
// @Failure 400 {object} services.Response
// @Failure 404 {object} services.Response
// @Router /transfers/{txId}/iso20022 [get]
func (h *TransferHandler) ExportISO20022(w http.ResponseWriter, r *http.Request) {
	studentID, ok := caller(w, r)
	if !ok {
		return
	}

	doc, err := h.iso.ExportTransfer(r.Context(), studentID, chi.URLParam(r, "txId"), r.URL.Query().Get("message"))
	if err != nil {
		services.SendError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(doc))
}
