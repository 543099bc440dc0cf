package services

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moov-io/iso20022/pkg/common"
	"github.com/moov-io/iso20022/pkg/pacs_v08"
	"github.com/schoolbank/backend/internal/models"
	"github.com/schoolbank/backend/internal/storage"
)

const (
	MessagePacs008 = "pacs.008.001.08"
	MessagePacs002 = "pacs.002.001.08"
)

// ISO20022Service exports completed transfers as ISO 20022 messages.
type ISO20022Service struct {
	store    storage.Store
	currency string
	bic      string
	now      func() time.Time
}

func NewISO20022Service(store storage.Store, currency, bic string) *ISO20022Service {
	return &ISO20022Service{
		store:    store,
		currency: currency,
		bic:      bic,
		now:      time.Now,
	}
}

// transferLeg pairs a transfer transaction with its account.
type transferLeg struct {
	tx      *models.Transaction
	account *models.Account
}

// ExportTransfer renders the transfer containing transactionID as XML.
// messageType is MessagePacs008 (credit transfer) or MessagePacs002 (status
// report); empty selects pacs.008.
func (iso *ISO20022Service) ExportTransfer(ctx context.Context, studentID, transactionID, messageType string) (string, error) {
	out, in, err := iso.loadTransfer(ctx, studentID, transactionID)
	if err != nil {
		return "", err
	}

	var doc any
	switch messageType {
	case "", MessagePacs008:
		doc, err = iso.CreatePacs008(out, in)
	case MessagePacs002:
		doc, err = iso.CreatePacs002(out, "ACSC")
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMessage, messageType)
	}
	if err != nil {
		return "", err
	}
	return iso.ConvertToXML(doc)
}

func (iso *ISO20022Service) loadTransfer(ctx context.Context, studentID, transactionID string) (out, in transferLeg, err error) {
	err = iso.store.InTx(ctx, storage.TxOptions{ReadOnly: true}, func(tx storage.Tx) error {
		first, err := tx.GetTransaction(ctx, transactionID)
		if err != nil {
			return mapStorageError(err, ErrTransactionNotFound)
		}
		if first.RelatedTransactionID == nil ||
			(first.Type != models.TransactionTransferOut && first.Type != models.TransactionTransferIn) {
			return ErrNotATransfer
		}
		second, err := tx.GetTransaction(ctx, *first.RelatedTransactionID)
		if err != nil {
			return mapStorageError(err, ErrTransactionNotFound)
		}

		for _, t := range []*models.Transaction{first, second} {
			account, err := ownedAccount(ctx, tx, studentID, t.AccountID)
			if err != nil {
				return err
			}
			leg := transferLeg{tx: t, account: account}
			if t.Type == models.TransactionTransferOut {
				out = leg
			} else {
				in = leg
			}
		}
		if out.tx == nil || in.tx == nil {
			return ErrNotATransfer
		}
		return nil
	})
	return out, in, err
}

func max35(s string) *common.Max35Text {
	v := common.Max35Text(s)
	return &v
}

func (iso *ISO20022Service) partyName(a *models.Account) *common.Max140Text {
	v := common.Max140Text(fmt.Sprintf("%s %s", accountLabel(a.AccountType), a.ID))
	return &v
}

func (iso *ISO20022Service) agent() pacs_v08.BranchAndFinancialInstitutionIdentification6 {
	bic := common.BICFIDec2014Identifier(iso.bic)
	return pacs_v08.BranchAndFinancialInstitutionIdentification6{
		FinInstnId: pacs_v08.FinancialInstitutionIdentification18{
			BICFI: &bic,
		},
	}
}

// CreatePacs008 creates a pacs.008 FIToFICustomerCreditTransfer message
func (iso *ISO20022Service) CreatePacs008(out, in transferLeg) (*pacs_v08.FIToFICustomerCreditTransferV08, error) {
	if out.tx.Amount != in.tx.Amount {
		return nil, fmt.Errorf("transfer legs %s and %s disagree on amount", out.tx.ID, in.tx.ID)
	}

	creDtTm := iso.now().UTC()
	settlementDate := out.tx.CreatedAt.UTC()
	amount := pacs_v08.ActiveCurrencyAndAmount{
		Ccy:   common.ActiveCurrencyCode(iso.currency),
		Value: out.tx.Amount.Float64(),
	}

	doc := &pacs_v08.FIToFICustomerCreditTransferV08{
		GrpHdr: pacs_v08.GroupHeader93{
			MsgId:             common.Max35Text(shortID(uuid.NewString())),
			CreDtTm:           common.ISODateTime(creDtTm),
			NbOfTxs:           "1",
			TtlIntrBkSttlmAmt: &amount,
			IntrBkSttlmDt:     (*common.ISODate)(&settlementDate),
			SttlmInf: pacs_v08.SettlementInstruction7{
				SttlmMtd: "INDA", // settled on the institution's own books
			},
		},
		CdtTrfTxInf: []pacs_v08.CreditTransferTransaction39{
			{
				PmtId: pacs_v08.PaymentIdentification7{
					InstrId:    max35(shortID(out.tx.ID)),
					EndToEndId: common.Max35Text(shortID(out.tx.ID)),
					TxId:       max35(shortID(in.tx.ID)),
				},
				IntrBkSttlmAmt: amount,
				IntrBkSttlmDt:  (*common.ISODate)(&settlementDate),
				ChrgBr:         "SLEV",
				DbtrAgt:        iso.agent(),
				Dbtr: pacs_v08.PartyIdentification135{
					Nm: iso.partyName(out.account),
				},
				CdtrAgt: iso.agent(),
				Cdtr: pacs_v08.PartyIdentification135{
					Nm: iso.partyName(in.account),
				},
			},
		},
	}

	return doc, nil
}

// CreatePacs002 creates a pacs.002 payment status report
func (iso *ISO20022Service) CreatePacs002(out transferLeg, status string) (*pacs_v08.FIToFIPaymentStatusReportV08, error) {
	creDtTm := iso.now().UTC()
	txStatus := pacs_v08.ExternalPaymentTransactionStatus1Code(status)

	doc := &pacs_v08.FIToFIPaymentStatusReportV08{
		GrpHdr: pacs_v08.GroupHeader53{
			MsgId:   common.Max35Text(shortID(uuid.NewString())),
			CreDtTm: common.ISODateTime(creDtTm),
		},
		TxInfAndSts: []pacs_v08.PaymentTransaction80{
			{
				OrgnlInstrId:    max35(shortID(out.tx.ID)),
				OrgnlEndToEndId: max35(shortID(out.tx.ID)),
				OrgnlTxId:       max35(shortID(*out.tx.RelatedTransactionID)),
				TxSts:           &txStatus,
			},
		},
	}

	return doc, nil
}

// shortID strips the dashes so a uuid fits into Max35Text.
func shortID(id string) string {
	return strings.ReplaceAll(id, "-", "")
}

// ConvertToXML converts ISO20022 document to XML string
func (iso *ISO20022Service) ConvertToXML(doc any) (string, error) {
	xmlData, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal XML: %w", err)
	}
	return xml.Header + string(xmlData), nil
}
