package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/boxtrack/internal/application/receipt"
	"github.com/jhoicas/boxtrack/internal/domain/entity"
)

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":       "$0.00",
		"7.5":     "$7.50",
		"999":     "$999.00",
		"1234.5":  "$1,234.50",
		"1000000": "$1,000,000.00",
		"-3":      "-$3.00",
		"12.345":  "$12.35",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(decimal.RequireFromString(in)), in)
	}
}

func TestLabelColor(t *testing.T) {
	assert.Equal(t, colorError, labelColor("missing"))
	assert.Equal(t, colorWarning, labelColor("incomplete"))
	assert.Equal(t, colorSuccess, labelColor("checked-in"))
	assert.Equal(t, colorPrimary, labelColor("completed"))
}

func TestGenerateReceiptsPDF(t *testing.T) {
	price := decimal.RequireFromString("1.00")
	receipts := []receipt.Receipt{
		receipt.Build("PTEC - Fundraiser", price, "B01", entity.Item{
			Status: entity.StatusCheckedIn, InitialCount: 60, CurrentCount: 12, ReturnedBy: "Ana",
			LastModified: time.Date(2025, 9, 2, 18, 0, 0, 0, time.UTC),
		}),
		receipt.Build("PTEC - Fundraiser", price, "B02", entity.NewItem(60)),
	}

	out, err := NewReceiptGenerator().GenerateReceiptsPDF(context.Background(), receipts)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF-")))

	_, err = NewReceiptGenerator().GenerateReceiptsPDF(context.Background(), nil)
	assert.Error(t, err)
}
