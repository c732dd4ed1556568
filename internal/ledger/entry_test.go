package ledger

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func line(code int, debit, credit string) JournalLine {
	return JournalLine{AccountCode: code, Debit: dec(debit), Credit: dec(credit)}
}

func TestValidate_Balanced(t *testing.T) {
	e := &JournalEntry{
		BusinessID:  1,
		Description: "Cash sale",
		Lines: []JournalLine{
			line(CodeCash, "100.00", "0"),
			line(CodeSalesRevenue, "0", "100.00"),
		},
	}
	require.NoError(t, e.Validate())
}

func TestValidate_Unbalanced(t *testing.T) {
	e := &JournalEntry{
		BusinessID:  1,
		Description: "Bad entry",
		Lines: []JournalLine{
			line(CodeCash, "100.00", "0"),
			line(CodeSalesRevenue, "0", "90.00"),
		},
	}
	err := e.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnbalancedEntry))

	var ue *UnbalancedEntryError
	require.True(t, errors.As(err, &ue))
	assert.True(t, ue.Debit.Equal(dec("100")))
	assert.True(t, ue.Credit.Equal(dec("90")))
}

func TestValidate_LineRules(t *testing.T) {
	tests := []struct {
		name  string
		lines []JournalLine
		want  error
	}{
		{"too few lines", []JournalLine{line(CodeCash, "1", "0")}, ErrTooFewLines},
		{"both sides", []JournalLine{line(CodeCash, "1", "1"), line(CodeSalesRevenue, "0", "0")}, ErrInvalidLine},
		{"neither side", []JournalLine{line(CodeCash, "0", "0"), line(CodeSalesRevenue, "0", "0")}, ErrInvalidLine},
		{"negative", []JournalLine{line(CodeCash, "-5", "0"), line(CodeSalesRevenue, "0", "-5")}, ErrInvalidLine},
		{"three decimals", []JournalLine{line(CodeCash, "1.005", "0"), line(CodeSalesRevenue, "0", "1.005")}, ErrInvalidAmount},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := &JournalEntry{BusinessID: 1, Description: "x", Lines: tt.lines}
			err := e.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestValidate_RequiresDescriptionAndBusiness(t *testing.T) {
	lines := []JournalLine{line(CodeCash, "1", "0"), line(CodeSalesRevenue, "0", "1")}

	err := (&JournalEntry{BusinessID: 1, Lines: lines}).Validate()
	assert.ErrorIs(t, err, ErrEmptyDescription)

	err = (&JournalEntry{Description: "x", Lines: lines}).Validate()
	assert.ErrorIs(t, err, ErrInvalidBusiness)
}

func TestMirror(t *testing.T) {
	orig := &JournalEntry{
		ID:          "e1",
		BusinessID:  7,
		Description: "Cash sale",
		Lines: []JournalLine{
			line(CodeCash, "100.00", "0"),
			line(CodeSalesRevenue, "0", "100.00"),
		},
	}
	date := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rev := orig.Mirror(date, "alice")

	require.NoError(t, rev.Validate())
	assert.Equal(t, SourceReversal, rev.SourceType)
	assert.Equal(t, "e1", rev.ReversalOf)
	assert.Equal(t, int64(7), rev.BusinessID)
	require.Len(t, rev.Lines, 2)
	assert.True(t, rev.Lines[0].Credit.Equal(dec("100")))
	assert.True(t, rev.Lines[0].Debit.IsZero())
	assert.True(t, rev.Lines[1].Debit.Equal(dec("100")))
}

func TestCashSaleTemplate(t *testing.T) {
	lines := CashSaleTemplate.Build(dec("100.00"), dec("60.00"))
	require.Len(t, lines, 4)

	e := &JournalEntry{BusinessID: 1, Description: "sale", Lines: lines}
	require.NoError(t, e.Validate())

	assert.Equal(t, CodeCash, lines[0].AccountCode)
	assert.True(t, lines[0].Debit.Equal(dec("100")))
	assert.Equal(t, CodeSalesRevenue, lines[1].AccountCode)
	assert.True(t, lines[1].Credit.Equal(dec("100")))
	assert.Equal(t, CodeCostOfGoodsSold, lines[2].AccountCode)
	assert.True(t, lines[2].Debit.Equal(dec("60")))
	assert.Equal(t, CodeInventory, lines[3].AccountCode)
	assert.True(t, lines[3].Credit.Equal(dec("60")))
}

func TestTemplates_AlwaysBalanced(t *testing.T) {
	for _, tpl := range Templates {
		t.Run(tpl.Name, func(t *testing.T) {
			lines := tpl.Build(dec("1234.56"), dec("789.01"))
			e := &JournalEntry{BusinessID: 1, Description: tpl.Name, Lines: lines}
			require.NoError(t, e.Validate())
		})
	}
}

func TestTemplate_ZeroCostDropsCostLines(t *testing.T) {
	lines := CreditSaleTemplate.Build(dec("50"), decimal.Zero)
	require.Len(t, lines, 2)
	assert.Equal(t, CodeAccountsReceivable, lines[0].AccountCode)
	assert.Equal(t, CodeSalesRevenue, lines[1].AccountCode)
}

func TestTemplate_RoundsToCents(t *testing.T) {
	lines := CashSaleTemplate.Build(dec("10"), dec("3.33333"))
	require.Len(t, lines, 4)
	assert.True(t, lines[2].Debit.Equal(dec("3.33")))
	assert.True(t, lines[3].Credit.Equal(dec("3.33")))
}
