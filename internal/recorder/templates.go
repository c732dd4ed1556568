// Package recorder turns business events into balanced journal entries
// using the fixed posting templates.
package recorder

import (
	"github.com/shopspring/decimal"

	"github.com/simonvc/stockledger/internal/ledger"
)

// CashSaleLines debits Cash and credits Sales Revenue for amount, and moves
// cogs from Inventory to Cost of Goods Sold.
func CashSaleLines(amount, cogs decimal.Decimal) []ledger.JournalLine {
	return ledger.CashSaleTemplate.Build(amount, cogs)
}

// CreditSaleLines is CashSaleLines with Accounts Receivable in place of Cash.
func CreditSaleLines(amount, cogs decimal.Decimal) []ledger.JournalLine {
	return ledger.CreditSaleTemplate.Build(amount, cogs)
}

func PurchaseLines(amount decimal.Decimal) []ledger.JournalLine {
	return ledger.PurchaseTemplate.Build(amount, decimal.Zero)
}

func PaymentReceivedLines(amount decimal.Decimal) []ledger.JournalLine {
	return ledger.PaymentReceivedTemplate.Build(amount, decimal.Zero)
}

func PaymentMadeLines(amount decimal.Decimal) []ledger.JournalLine {
	return ledger.PaymentMadeTemplate.Build(amount, decimal.Zero)
}
