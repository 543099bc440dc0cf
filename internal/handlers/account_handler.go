package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/services"
	"github.com/shopspring/decimal"
)

type AccountHandler struct {
	accounts  *services.AccountService
	validator *services.ValidationHelper
}

func NewAccountHandler(accounts *services.AccountService) *AccountHandler {
	return &AccountHandler{
		accounts:  accounts,
		validator: services.NewValidationHelper(),
	}
}

// SetupAccounts creates the caller's checking and savings accounts
// @Summary Set up accounts
// @Description Create the student's CHECKING and SAVINGS accounts. Calling it again returns the existing accounts.
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.Response{data=[]models.Account}
// @Failure 401 {object} services.Response
// @Router /accounts/setup [post]
func (h *AccountHandler) SetupAccounts(w http.ResponseWriter, r *http.Request) {
	studentID, ok := caller(w, r)
	if !ok {
		return
	}

	accounts, err := h.accounts.SetupAccounts(r.Context(), studentID)
	if err != nil {
		services.SendError(w, err)
		return
	}
	services.SendSuccess(w, http.StatusOK, accounts)
}

// GetAccounts lists the caller's accounts
// @Summary List accounts
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} services.Response{data=[]models.Account}
// @Failure 401 {object} services.Response
// @Router /accounts [get]
func (h *AccountHandler) GetAccounts(w http.ResponseWriter, r *http.Request) {
	studentID, ok := caller(w, r)
	if !ok {
		return
	}

	accounts, err := h.accounts.GetAccounts(r.Context(), studentID)
	if err != nil {
		services.SendError(w, err)
		return
	}
	services.SendSuccess(w, http.StatusOK, accounts)
}

// GetTransactions lists an account's transactions, newest first
// @Summary List transactions
// @Description Optional from/to bounds (YYYY-MM-DD or RFC 3339) form a half-open range.
// @Tags Accounts
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account ID"
// @Param from query string false "Inclusive lower bound"
// @Param to query string false "Exclusive upper bound"
// @Success 200 {object} services.Response{data=[]models.Transaction}
// @Failure 400 {object} services.Response
// @Failure 403 {object} services.Response
// @Failure 404 {object} services.Response
// @Router /accounts/{accountId}/transactions [get]
func (h *AccountHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	studentID, ok := caller(w, r)
	if !ok {
		return
	}

	var dr models.DateRange
	bounds := []struct {
		name string
		dst  *time.Time
	}{{"from", &dr.From}, {"to", &dr.To}}
	for _, b := range bounds {
		raw := r.URL.Query().Get(b.name)
		if raw == "" {
			continue
		}
		t, err := parseDate(raw)
		if err != nil {
			services.SendErrorResponse(w, "Invalid "+b.name+" date", http.StatusBadRequest, nil)
			return
		}
		*b.dst = t
	}

	txs, err := h.accounts.GetTransactions(r.Context(), studentID, chi.URLParam(r, "accountId"), dr)
	if err != nil {
		services.SendError(w, err)
		return
	}
	services.SendSuccess(w, http.StatusOK, txs)
}

type depositRequest struct {
	StudentID   string          `json:"studentId" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=200"`
}

// Deposit credits a student's checking account
// @Summary Classroom deposit
// @Description A teacher pays a student of one of their classes into the student's CHECKING account.
// @Tags Accounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body depositRequest true "Deposit"
// @Success 201 {object} services.Response{data=models.Transaction}
// @Failure 400 {object} services.Response
// @Failure 403 {object} services.Response
// @Router /deposits [post]
func (h *AccountHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	teacherID, ok := caller(w, r)
	if !ok {
		return
	}

	var req depositRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}
	amount, err := toMoney(req.Amount)
	if err != nil {
		services.SendError(w, err)
		return
	}

	tx, err := h.accounts.Deposit(r.Context(), teacherID, req.StudentID, amount, req.Description)
	if err != nil {
		services.SendError(w, err)
		return
	}
	services.SendSuccess(w, http.StatusCreated, tx)
}
