package models

import (
	"time"
)

type AccountType string

const (
	AccountTypeChecking AccountType = "CHECKING"
	AccountTypeSavings  AccountType = "SAVINGS"
)

// AccountTypes lists the accounts every student owns, in display order.
var AccountTypes = []AccountType{AccountTypeChecking, AccountTypeSavings}

type Account struct {
	ID          string      `json:"id" db:"id"`
	OwnerID     string      `json:"ownerId" db:"owner_id"`
	AccountType AccountType `json:"accountType" db:"account_type"`
	Balance     Money       `json:"balance" db:"balance"` // in cents
	Version     int         `json:"version" db:"version"` // for optimistic locking
	CreatedAt   time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time   `json:"updatedAt" db:"updated_at"`
}
