package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/services"
	"github.com/shopspring/decimal"
)

type QRHandler struct {
	service   *services.QRService
	validator *services.ValidationHelper
}

func NewQRHandler(service *services.QRService) *QRHandler {
	return &QRHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

type billQRRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// GenerateBillQR generates a QR code students scan to pay a bill
// @Summary Generate bill QR code
// @Description Generate a short-lived QR code for a bill, optionally suggesting a fixed amount
// @Tags QR
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param billId path string true "Bill ID"
// @Param request body billQRRequest false "Suggested amount"
// @Success 201 {object} services.Response{data=services.BillQR}
// @Failure 400 {object} services.Response
// @Failure 403 {object} services.Response
// @Failure 503 {object} services.Response
// @Router /bills/{billId}/qr [post]
func (h *QRHandler) GenerateBillQR(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := caller(w, r)
	if !ok {
		return
	}

	var req billQRRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, h.validator, &req) {
		return
	}

	var amount models.Money
	if req.Amount != nil {
		var err error
		if amount, err = toMoney(*req.Amount); err != nil {
			services.SendError(w, err)
			return
		}
	}

	qr, err := h.service.GenerateBillQR(r.Context(), teacherID, chi.URLParam(r, "billId"), amount)
	if err != nil {
		services.SendError(w, err)
		return
	}
	services.SendSuccess(w, http.StatusCreated, qr)
}

type resolveQRRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

// ResolveBillQR processes a scanned bill QR code
// @Summary Resolve bill QR code
// @Description Look up the bill behind a scanned code and the amount to pre-fill
// @Tags QR
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body resolveQRRequest true "Scanned code"
// @Success 200 {object} services.Response{data=services.BillQRResolution}
// @Failure 400 {object} services.Response
// @Failure 404 {object} services.Response
// @Router /bills/qr/resolve [post]
func (h *QRHandler) ResolveBillQR(w http.ResponseWriter, r *http.Request) {
	studentID, ok := caller(w, r)
	if !ok {
		return
	}

	var req resolveQRRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	res, err := h.service.ResolveBillQR(r.Context(), studentID, req.Code)
	if err != nil {
		services.SendError(w, err)
		return
	}
	services.SendSuccess(w, http.StatusOK, res)
}
