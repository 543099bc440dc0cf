package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/schoolbank/backend/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type StatementHandler struct {
	statements *services.StatementService
	validator  *services.ValidationHelper
	now        func() time.Time
}

func NewStatementHandler(statements *services.StatementService) *StatementHandler {
	return &StatementHandler{
		statements: statements,
		validator:  services.NewValidationHelper(),
		now:        time.Now,
	}
}

// ListStatements reports which months of a year have statements
// @Summary List available statements
// @Tags Statements
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account ID"
// @Param year query int false "Calendar year, defaults to the current one"
// @Success 200 {object} services.Response{data=[]models.StatementAvailability}
// @Failure 400 {object} services.Response
// @Failure 403 {object} services.Response
// @Router /accounts/{accountId}/statements [get]
func (h *StatementHandler) ListStatements(w http.ResponseWriter, r *http.Request) {
	studentID, ok := caller(w, r)
	if !ok {
		return
	}

	year, err := queryInt(r, "year", h.now().UTC().Year())
	if err != nil {
		services.SendError(w, services.ErrInvalidPeriod)
		return
	}

	rows, err := h.statements.ListAvailableStatements(r.Context(), studentID, chi.URLParam(r, "accountId"), year)
	if err != nil {
		services.SendError(w, err)
		return
	}
	services.SendSuccess(w, http.StatusOK, rows)
}

type statementRequest struct {
	Month int `json:"month" validate:"required,min=1,max=12"`
	Year  int `json:"year" validate:"required,min=2000,max=9999"`
}

// GenerateStatement returns the statement of a past month, creating it on first request
// @Summary Get statement for a period
// @Tags Statements
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param accountId path string true "Account ID"
// @Param request body statementRequest true "Period"
// @Success 200 {object} services.Response{data=models.Statement}
// @Failure 400 {object} services.Response
// @Failure 422 {object} services.Response
// @Router /accounts/{accountId}/statements [post]
func (h *StatementHandler) GenerateStatement(w http.ResponseWriter, r *http.Request) {
	studentID, ok := caller(w, r)
	if !ok {
		return
	}

	var req statementRequest
	if !decodeJSON(w, r, h.validator, &req) {
		return
	}

	st, err := h.statements.GetStatementForPeriod(r.Context(), studentID, chi.URLParam(r, "accountId"), req.Month, req.Year)
	if err != nil {
		services.SendError(w, err)
		return
	}
	services.SendSuccess(w, http.StatusOK, st)
}

// DownloadStatement streams a stored statement as a spreadsheet
// @Summary Download statement
// @Tags Statements
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security BearerAuth
// @Param statementId path string true "Statement ID"
// @Success 200 {file} file
// @Failure 403 {object} services.Response
// @Failure 404 {object} services.Response
// @Router /statements/{statementId}/download [get]
func (h *StatementHandler) DownloadStatement(w http.ResponseWriter, r *http.Request) {
	studentID, ok := caller(w, r)
	if !ok {
		return
	}

	filename, data, err := h.statements.DownloadStatement(r.Context(), studentID, chi.URLParam(r, "statementId"))
	if err != nil {
		services.SendError(w, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
