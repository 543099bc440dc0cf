package handlers

import (
	"github.com/go-chi/chi/v5"
	"github.com/schoolbank/backend/internal/middleware"
	"github.com/schoolbank/backend/internal/models"
)

// Handlers groups everything mounted under /api/v1.
type Handlers struct {
	Accounts   *AccountHandler
	Transfers  *TransferHandler
	Statements *StatementHandler
	Bills      *BillHandler
	QR         *QRHandler
}

// Mount registers the API routes on r. Every route requires a bearer token.
func Mount(r chi.Router, auth *middleware.Authenticator, h Handlers) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth.Middleware)

		r.Post("/auth/logout", auth.Logout)

		// Student endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleStudent))

			r.Post("/accounts/setup", h.Accounts.SetupAccounts)
			r.Get("/accounts", h.Accounts.GetAccounts)
			r.Get("/accounts/{accountId}/transactions", h.Accounts.GetTransactions)

			r.Get("/accounts/{accountId}/statements", h.Statements.ListStatements)
			r.Post("/accounts/{accountId}/statements", h.Statements.GenerateStatement)
			r.Get("/statements/{statementId}/download", h.Statements.DownloadStatement)

			r.Post("/transfers", h.Transfers.Transfer)
			r.Get("/transfers/{txId}/iso20022", h.Transfers.ExportISO20022)

			r.Get("/bills", h.Bills.ListStudentBills)
			r.Post("/bills/{billId}/payments", h.Bills.PayBill)
			r.Get("/bills/{billId}/payments", h.Bills.ListPayments)
			r.Post("/bills/qr/resolve", h.QR.ResolveBillQR)
		})

		// Teacher endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(models.RoleTeacher))

			r.Post("/classes/{classId}/bills", h.Bills.CreateBill)
			r.Get("/classes/{classId}/bills", h.Bills.ListClassBills)
			r.Put("/bills/{billId}", h.Bills.UpdateBill)
			r.Delete("/bills/{billId}", h.Bills.DeleteBill)
			r.Post("/bills/{billId}/qr", h.QR.GenerateBillQR)

			r.Post("/deposits", h.Accounts.Deposit)
		})
	})
}
