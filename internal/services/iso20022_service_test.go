package services

import (
	"context"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/schoolbank/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestISO20022Service_ExportTransfer(t *testing.T) {
	env := newTestEnv(t)
	checking, savings := env.open(t, testStudent, dollars(100), 0)
	ctx := context.Background()

	result, err := env.transfers.Transfer(ctx, testStudent, checking.ID, savings.ID, dollars(30))
	require.NoError(t, err)

	service := NewISO20022Service(env.store, "USD", "SCHLBANK")
	service.now = env.clock.Now

	t.Run("pacs.008 from either leg", func(t *testing.T) {
		for _, id := range []string{result.OutTx.ID, result.InTx.ID} {
			out, err := service.ExportTransfer(ctx, testStudent, id, "")
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(out, xml.Header))

			assert.Contains(t, out, "<EndToEndId>"+shortID(result.OutTx.ID)+"</EndToEndId>")
			assert.Contains(t, out, `Ccy="USD"`)
			assert.Contains(t, out, ">30<")
			assert.Contains(t, out, "<BICFI>SCHLBANK</BICFI>")
			assert.Contains(t, out, "Checking "+checking.ID)
			assert.Contains(t, out, "Savings "+savings.ID)
		}
	})

	t.Run("pacs.002 status report", func(t *testing.T) {
		out, err := service.ExportTransfer(ctx, testStudent, result.OutTx.ID, MessagePacs002)
		require.NoError(t, err)
		assert.Contains(t, out, "ACSC")
	})

	t.Run("unsupported message", func(t *testing.T) {
		_, err := service.ExportTransfer(ctx, testStudent, result.OutTx.ID, "camt.053")
		assert.ErrorIs(t, err, ErrUnsupportedMessage)
	})

	t.Run("deposits are not transfers", func(t *testing.T) {
		txs, err := env.accounts.GetTransactions(ctx, testStudent, checking.ID, models.DateRange{})
		require.NoError(t, err)
		deposit := txs[len(txs)-1]

		_, err = service.ExportTransfer(ctx, testStudent, deposit.ID, "")
		assert.ErrorIs(t, err, ErrNotATransfer)
	})

	t.Run("other student", func(t *testing.T) {
		_, err := service.ExportTransfer(ctx, otherStudent, result.OutTx.ID, "")
		assert.ErrorIs(t, err, ErrAccessDenied)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		_, err := service.ExportTransfer(ctx, testStudent, "missing", "")
		assert.ErrorIs(t, err, ErrTransactionNotFound)
	})
}
