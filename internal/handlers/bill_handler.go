package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/services"
	"github.com/shopspring/decimal"
)

type BillHandler struct {
	bills     *services.BillService
	payments  *services.BillPaymentService
	validator *services.ValidationHelper
}

func NewBillHandler(bills *services.BillService, payments *services.BillPaymentService) *BillHandler {
	return &BillHandler{
		bills:     bills,
		payments:  payments,
		validator: services.NewValidationHelper(),
	}
}

type billRequest struct {
	Title       string          `json:"title" validate:"required,max=120"`
	Description string          `json:"description" validate:"max=500"`
	Amount      decimal.Decimal `json:"amount"`
	DueDate     string          `json:"dueDate" validate:"required"`
	Frequency   string          `json:"frequency" validate:"omitempty,oneof=ONCE WEEKLY BIWEEKLY MONTHLY QUARTERLY YEARLY"`
	VisibleFrom string          `json:"visibleFrom"`
}

func (req billRequest) input() (services.BillInput, error) {
	amount, err := toMoney(req.Amount)
	if err != nil {
		return services.BillInput{}, err
	}
	due, err := parseDate(req.DueDate)
	if err != nil {
		return services.BillInput{}, services.ErrInvalidBill
	}
	in := services.BillInput{
		Title:       req.Title,
		Description: req.Description,
		Amount:      amount,
		DueDate:     due,
		Frequency:   models.BillFrequency(req.Frequency),
	}
	if req.VisibleFrom != "" {
		from, err := parseDate(req.VisibleFrom)
		if err != nil {
			return services.BillInput{}, services.ErrInvalidBill
		}
		in.VisibleFrom = &from
	}
	return in, nil
}

// ListStudentBills lists the bills visible to the caller with payment status
// @Summary List my bills
// @Tags Bills
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.Response{data=[]models.StudentBill}
// @Router /bills [get]
func (h *BillHandler) ListStudentBills(w http.ResponseWriter, r *http.Request) {
	studentID, ok := caller(w, r)
	if !ok {
		return
	}

	bills, err := h.bills.ListStudentBills(r.Context(), studentID)
	if err != nil {
		services.SendError(w, err)
		return
	}
	services.SendSuccess(w, http.StatusOK, bills)
}

type payBillRequest struct {
	AccountID string          `json:"accountId" validate:"required"`
	Amount    decimal.Decimal `json:"amount"`
}

// PayBill pays part or all of a bill
// @Summary Pay bill
// @Tags Bills
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param billId path string true "Bill ID"
// @Param request body payBillRequest true "Payment"
// @Success 201 {object} services.Response{data=models.PaymentResult}
// @Failure 400 {object} services.Response
// @Failure 403 {object} services.Response
// @Failure 404 {object} services.Response
// @Failure 422 {object} services.Response
// @Router /bills/{billId}/payments [post]
func (h *BillHandler) PayBill(w http.ResponseWriter, r *http.Request) {
	studentID, ok := caller(w, r)
	if !ok {
		return
	}

	var req payBillRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}
	amount, err := toMoney(req.Amount)
	if err != nil {
		services.SendError(w, err)
		return
	}

	result, err := h.payments.PayBill(r.Context(), studentID, chi.URLParam(r, "billId"), req.AccountID, amount)
	if err != nil {
		services.SendError(w, err)
		return
	}
	services.SendSuccess(w, http.StatusCreated, result)
}

// ListPayments lists the caller's payments on a bill
// @Summary List my payments on a bill
// @Tags Bills
// @Produce json
// @Security BearerAuth
// @Param billId path string true "Bill ID"
// @Success 200 {object} services.Response{data=[]models.Payment}
// @Failure 404 {object} services.Response
// @Router /bills/{billId}/payments [get]
func (h *BillHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	studentID, ok := caller(w, r)
	if !ok {
		return
	}

	payments, err := h.bills.ListPayments(r.Context(), studentID, chi.URLParam(r, "billId"))
	if err != nil {
		services.SendError(w, err)
		return
	}
	services.SendSuccess(w, http.StatusOK, payments)
}

// CreateBill adds a bill to one of the caller's classes
// @Summary Create bill
// @Tags Class Bills
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Param request body billRequest true "Bill"
// @Success 201 {object} services.Response{data=models.Bill}
// @Failure 400 {object} services.Response
// @Failure 403 {object} services.Response
// @Router /classes/{classId}/bills [post]
func (h *BillHandler) CreateBill(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := caller(w, r)
	if !ok {
		return
	}

	var req billRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		services.SendError(w, err)
		return
	}

	bill, err := h.bills.CreateBill(r.Context(), teacherID, chi.URLParam(r, "classId"), in)
	if err != nil {
		services.SendError(w, err)
		return
	}
	services.SendSuccess(w, http.StatusCreated, bill)
}

// ListClassBills lists every bill of a class
// @Summary List class bills
// @Tags Class Bills
// @Produce json
// @Security BearerAuth
// @Param classId path string true "Class ID"
// @Success 200 {object} services.Response{data=[]models.Bill}
// @Failure 403 {object} services.Response
// @Router /classes/{classId}/bills [get]
func (h *BillHandler) ListClassBills(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := caller(w, r)
	if !ok {
		return
	}

	bills, err := h.bills.ListClassBills(r.Context(), teacherID, chi.URLParam(r, "classId"))
	if err != nil {
		services.SendError(w, err)
		return
	}
	services.SendSuccess(w, http.StatusOK, bills)
}

// UpdateBill edits a bill
// @Summary Update bill
// @Description The amount cannot change once the bill has payments.
// @Tags Class Bills
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param billId path string true "Bill ID"
// @Param request body billRequest true "Bill"
// @Success 200 {object} services.Response{data=models.Bill}
// @Failure 400 {object} services.Response
// @Failure 409 {object} services.Response
// @Router /bills/{billId} [put]
func (h *BillHandler) UpdateBill(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := caller(w, r)
	if !ok {
		return
	}

	var req billRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		services.SendError(w, err)
		return
	}

	bill, err := h.bills.UpdateBill(r.Context(), teacherID, chi.URLParam(r, "billId"), in)
	if err != nil {
		services.SendError(w, err)
		return
	}
	services.SendSuccess(w, http.StatusOK, bill)
}

// DeleteBill removes a bill nobody has paid yet
// @Summary Delete bill
// @Tags Class Bills
// @Produce json
// @Security BearerAuth
// @Param billId path string true "Bill ID"
// @Success 200 {object} services.Response
// @Failure 409 {object} services.Response
// @Router /bills/{billId} [delete]
func (h *BillHandler) DeleteBill(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := caller(w, r)
	if !ok {
		return
	}

	billID := chi.URLParam(r, "billId")
	if err := h.bills.DeleteBill(r.Context(), teacherID, billID); err != nil {
		services.SendError(w, err)
		return
	}
	services.SendSuccess(w, http.StatusOK, map[string]string{"id": billID})
}
