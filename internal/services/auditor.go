package services

import (
	"github.com/schoolbank/backend/internal/models"
)

// Auditor receives committed ledger events and failed operations.
// *audit.Logger satisfies it.
type Auditor interface {
	LogLedger(t models.Transaction)
	LogTransfer(result models.TransferResult)
	LogPayment(p models.Payment)
	LogStatement(s models.Statement)
	LogError(operation, accountID string, err error)
}

type nopAuditor struct{}

func (nopAuditor) LogLedger(models.Transaction) {}
func (nopAuditor) LogTransfer(models.TransferResult) {}
func (nopAuditor) LogPayment(models.Payment) {}
func (nopAuditor) LogStatement(models.Statement) {}
func (nopAuditor) LogError(string, string, error) {}

func auditorOrNop(a Auditor) Auditor {
	if a == nil {
		return nopAuditor{}
	}
	return a
}
