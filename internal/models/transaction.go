package models

import (
	"time"
)

type TransactionType string

const (
	TransactionDeposit     TransactionType = "DEPOSIT"
	TransactionWithdrawal  TransactionType = "WITHDRAWAL"
	TransactionTransferOut TransactionType = "TRANSFER_OUT"
	TransactionTransferIn  TransactionType = "TRANSFER_IN"
)

// IsCredit reports whether the transaction type increases the balance.
func (t TransactionType) IsCredit() bool {
	return t == TransactionDeposit || t == TransactionTransferIn
}

func (t TransactionType) Valid() bool {
	switch t {
	case TransactionDeposit, TransactionWithdrawal, TransactionTransferOut, TransactionTransferIn:
		return true
	}
	return false
}

// Transaction is an immutable entry of the transaction log.
type Transaction struct {
	ID                   string          `json:"id" db:"id"`
	AccountID            string          `json:"accountId" db:"account_id"`
	Type                 TransactionType `json:"transactionType" db:"transaction_type"`
	Amount               Money           `json:"amount" db:"amount"`             // always positive
	BalanceAfter         Money           `json:"balanceAfter" db:"balance_after"` // running balance
	Description          string          `json:"description" db:"description"`
	RelatedTransactionID *string         `json:"relatedTransactionId,omitempty" db:"related_transaction_id"`
	CreatedAt            time.Time       `json:"createdAt" db:"created_at"`
}

// SignedAmount returns the effect of the transaction on the account balance.
func (t Transaction) SignedAmount() Money {
	if t.Type.IsCredit() {
		return t.Amount
	}
	return -t.Amount
}

// DateRange is a half-open [From, To) filter; zero bounds are open.
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) Contains(t time.Time) bool {
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && !t.Before(r.To) {
		return false
	}
	return true
}

// TransferResult is the linked TRANSFER_OUT/TRANSFER_IN pair produced by one transfer.
type TransferResult struct {
	OutTx Transaction `json:"outTx"`
	InTx  Transaction `json:"inTx"`
}
