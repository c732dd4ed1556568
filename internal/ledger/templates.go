package ledger

import "github.com/shopspring/decimal"

// Basis selects which event amount a template line carries.
type Basis int

const (
	BasisAmount Basis = iota // sale total, purchase cost, payment amount
	BasisCost                // cost of goods sold
)

// TemplateLine defines one side of a posting template.
type TemplateLine struct {
	Code    int    `json:"code"`
	Role    string `json:"role"`
	IsDebit bool   `json:"is_debit"`
	Basis   Basis  `json:"basis"`
}

// Template is a fixed posting pattern for one kind of business event.
type Template struct {
	Name        string         `json:"name"`
	Source      SourceType     `json:"source"`
	Description string         `json:"description"`
	Lines       []TemplateLine `json:"lines"`
}

var (
	CashSaleTemplate = Template{
		Name:        "Cash Sale",
		Source:      SourceSale,
		Description: "Cash increases (debit), revenue increases (credit); cost moves from inventory to COGS.",
		Lines: []TemplateLine{
			{Code: CodeCash, Role: "Cash", IsDebit: true, Basis: BasisAmount},
			{Code: CodeSalesRevenue, Role: "Sales revenue", IsDebit: false, Basis: BasisAmount},
			{Code: CodeCostOfGoodsSold, Role: "Cost of goods sold", IsDebit: true, Basis: BasisCost},
			{Code: CodeInventory, Role: "Inventory", IsDebit: false, Basis: BasisCost},
		},
	}

	CreditSaleTemplate = Template{
		Name:        "Credit Sale",
		Source:      SourceSale,
		Description: "Receivable increases (debit), revenue increases (credit); cost moves from inventory to COGS.",
		Lines: []TemplateLine{
			{Code: CodeAccountsReceivable, Role: "Accounts receivable", IsDebit: true, Basis: BasisAmount},
			{Code: CodeSalesRevenue, Role: "Sales revenue", IsDebit: false, Basis: BasisAmount},
			{Code: CodeCostOfGoodsSold, Role: "Cost of goods sold", IsDebit: true, Basis: BasisCost},
			{Code: CodeInventory, Role: "Inventory", IsDebit: false, Basis: BasisCost},
		},
	}

	PurchaseTemplate = Template{
		Name:        "Purchase on Credit",
		Source:      SourcePurchase,
		Description: "Inventory increases (debit), payable increases (credit).",
		Lines: []TemplateLine{
			{Code: CodeInventory, Role: "Inventory", IsDebit: true, Basis: BasisAmount},
			{Code: CodeAccountsPayable, Role: "Accounts payable", IsDebit: false, Basis: BasisAmount},
		},
	}

	PaymentReceivedTemplate = Template{
		Name:        "Customer Payment Received",
		Source:      SourcePaymentReceived,
		Description: "Cash increases (debit), receivable decreases (credit).",
		Lines: []TemplateLine{
			{Code: CodeCash, Role: "Cash", IsDebit: true, Basis: BasisAmount},
			{Code: CodeAccountsReceivable, Role: "Accounts receivable", IsDebit: false, Basis: BasisAmount},
		},
	}

	PaymentMadeTemplate = Template{
		Name:        "Supplier Payment Made",
		Source:      SourcePaymentMade,
		Description: "Payable decreases (debit), cash decreases (credit).",
		Lines: []TemplateLine{
			{Code: CodeAccountsPayable, Role: "Accounts payable", IsDebit: true, Basis: BasisAmount},
			{Code: CodeCash, Role: "Cash", IsDebit: false, Basis: BasisAmount},
		},
	}
)

// Templates lists every posting template.
var Templates = []Template{
	CashSaleTemplate,
	CreditSaleTemplate,
	PurchaseTemplate,
	PaymentReceivedTemplate,
	PaymentMadeTemplate,
}

// Codes returns the account codes the template posts to.
func (t Template) Codes() []int {
	codes := make([]int, 0, len(t.Lines))
	for _, l := range t.Lines {
		codes = append(codes, l.Code)
	}
	return codes
}

// Build turns (amount, cost) into balanced journal lines. Lines whose amount
// is zero are omitted, so a sale with no cost yields a two-line entry.
func (t Template) Build(amount, cost decimal.Decimal) []JournalLine {
	var lines []JournalLine
	for _, tl := range t.Lines {
		v := amount
		if tl.Basis == BasisCost {
			v = cost
		}
		v = RoundMoney(v)
		if v.IsZero() {
			continue
		}
		l := JournalLine{AccountCode: tl.Code, Description: tl.Role, Debit: decimal.Zero, Credit: decimal.Zero}
		if tl.IsDebit {
			l.Debit = v
		} else {
			l.Credit = v
		}
		lines = append(lines, l)
	}
	return lines
}
