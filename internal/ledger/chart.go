package ledger

// ChartTemplateVersion is bumped whenever ChartTemplate changes. Seeding
// records it on the business so an older chart can be detected.
const ChartTemplateVersion = 1

// Codes the transaction recorders and statements depend on.
const (
	CodeCash               = 1000
	CodeAccountsReceivable = 1100
	CodeInventory          = 1200
	CodeAccountsPayable    = 2000
	CodeRetainedEarnings   = 3100
	CodeSalesRevenue       = 4000
	CodeCostOfGoodsSold    = 5000
)

// ChartEntry is one account of the template seeded for every business.
type ChartEntry struct {
	Code             int             `json:"code"`
	Name             string          `json:"name"`
	Type             AccountType     `json:"type"`
	Subtype          string          `json:"subtype"`
	NormalBalance    NormalSide      `json:"normal_balance"`
	Section          Section         `json:"section"`
	CashFlowSection  CashFlowSection `json:"cash_flow_section"`
	IsSystem         bool            `json:"is_system"`
	AllowManualEntry bool            `json:"allow_manual_entry"`
}

// ChartTemplate is the retail chart of accounts.
var ChartTemplate = []ChartEntry{
	// Current assets (10xx-13xx)
	{Code: 1000, Name: "Cash on Hand", Type: TypeAsset, Subtype: "cash", NormalBalance: SideDebit, Section: SectionCurrentAsset, CashFlowSection: CashFlowCash, IsSystem: true, AllowManualEntry: true},
	{Code: 1010, Name: "Petty Cash", Type: TypeAsset, Subtype: "cash", NormalBalance: SideDebit, Section: SectionCurrentAsset, CashFlowSection: CashFlowCash, AllowManualEntry: true},
	{Code: 1020, Name: "Bank Account", Type: TypeAsset, Subtype: "bank", NormalBalance: SideDebit, Section: SectionCurrentAsset, CashFlowSection: CashFlowCash, AllowManualEntry: true},
	{Code: 1100, Name: "Accounts Receivable", Type: TypeAsset, Subtype: "receivable", NormalBalance: SideDebit, Section: SectionCurrentAsset, CashFlowSection: CashFlowOperating, IsSystem: true},
	{Code: 1150, Name: "Allowance for Doubtful Accounts", Type: TypeAsset, Subtype: "contra_receivable", NormalBalance: SideCredit, Section: SectionCurrentAsset, CashFlowSection: CashFlowOperating, AllowManualEntry: true},
	{Code: 1200, Name: "Inventory", Type: TypeAsset, Subtype: "inventory", NormalBalance: SideDebit, Section: SectionCurrentAsset, CashFlowSection: CashFlowOperating, IsSystem: true},
	{Code: 1300, Name: "Prepaid Expenses", Type: TypeAsset, Subtype: "prepaid", NormalBalance: SideDebit, Section: SectionCurrentAsset, CashFlowSection: CashFlowOperating, AllowManualEntry: true},

	// Fixed assets (15xx)
	{Code: 1500, Name: "Furniture & Fixtures", Type: TypeAsset, Subtype: "fixed_asset", NormalBalance: SideDebit, Section: SectionFixedAsset, CashFlowSection: CashFlowInvesting, AllowManualEntry: true},
	{Code: 1510, Name: "Equipment", Type: TypeAsset, Subtype: "fixed_asset", NormalBalance: SideDebit, Section: SectionFixedAsset, CashFlowSection: CashFlowInvesting, AllowManualEntry: true},
	{Code: 1520, Name: "Vehicles", Type: TypeAsset, Subtype: "fixed_asset", NormalBalance: SideDebit, Section: SectionFixedAsset, CashFlowSection: CashFlowInvesting, AllowManualEntry: true},
	{Code: 1530, Name: "Buildings", Type: TypeAsset, Subtype: "fixed_asset", NormalBalance: SideDebit, Section: SectionFixedAsset, CashFlowSection: CashFlowInvesting, AllowManualEntry: true},
	{Code: 1590, Name: "Accumulated Depreciation", Type: TypeAsset, Subtype: "contra_asset", NormalBalance: SideCredit, Section: SectionFixedAsset, CashFlowSection: CashFlowInvesting, IsSystem: true, AllowManualEntry: true},

	// Current liabilities (20xx-24xx)
	{Code: 2000, Name: "Accounts Payable", Type: TypeLiability, Subtype: "payable", NormalBalance: SideCredit, Section: SectionCurrentLiability, CashFlowSection: CashFlowOperating, IsSystem: true},
	{Code: 2100, Name: "Accrued Expenses", Type: TypeLiability, Subtype: "accrual", NormalBalance: SideCredit, Section: SectionCurrentLiability, CashFlowSection: CashFlowOperating, AllowManualEntry: true},
	{Code: 2200, Name: "Sales Tax Payable", Type: TypeLiability, Subtype: "tax", NormalBalance: SideCredit, Section: SectionCurrentLiability, CashFlowSection: CashFlowOperating, AllowManualEntry: true},
	{Code: 2300, Name: "Salaries Payable", Type: TypeLiability, Subtype: "payroll", NormalBalance: SideCredit, Section: SectionCurrentLiability, CashFlowSection: CashFlowOperating, AllowManualEntry: true},
	{Code: 2400, Name: "Customer Deposits", Type: TypeLiability, Subtype: "deposit", NormalBalance: SideCredit, Section: SectionCurrentLiability, CashFlowSection: CashFlowOperating, AllowManualEntry: true},
	{Code: 2450, Name: "Short-Term Loans", Type: TypeLiability, Subtype: "loan", NormalBalance: SideCredit, Section: SectionCurrentLiability, CashFlowSection: CashFlowFinancing, AllowManualEntry: true},

	// Long-term liabilities (25xx)
	{Code: 2500, Name: "Long-Term Loans", Type: TypeLiability, Subtype: "loan", NormalBalance: SideCredit, Section: SectionLongTermLiability, CashFlowSection: CashFlowFinancing, AllowManualEntry: true},

	// Equity (3xxx)
	{Code: 3000, Name: "Owner's Capital", Type: TypeEquity, Subtype: "capital", NormalBalance: SideCredit, Section: SectionEquity, CashFlowSection: CashFlowFinancing, IsSystem: true, AllowManualEntry: true},
	{Code: 3100, Name: "Retained Earnings", Type: TypeEquity, Subtype: "retained_earnings", NormalBalance: SideCredit, Section: SectionEquity, CashFlowSection: CashFlowFinancing, IsSystem: true, AllowManualEntry: true},
	{Code: 3200, Name: "Owner's Drawings", Type: TypeEquity, Subtype: "drawings", NormalBalance: SideDebit, Section: SectionEquity, CashFlowSection: CashFlowFinancing, AllowManualEntry: true},

	// Revenue (4xxx)
	{Code: 4000, Name: "Sales Revenue", Type: TypeRevenue, Subtype: "sales", NormalBalance: SideCredit, Section: SectionRevenue, CashFlowSection: CashFlowOperating, IsSystem: true},
	{Code: 4100, Name: "Sales Returns", Type: TypeRevenue, Subtype: "returns", NormalBalance: SideDebit, Section: SectionContraRevenue, CashFlowSection: CashFlowOperating, AllowManualEntry: true},
	{Code: 4200, Name: "Sales Discounts", Type: TypeRevenue, Subtype: "discounts", NormalBalance: SideDebit, Section: SectionContraRevenue, CashFlowSection: CashFlowOperating, AllowManualEntry: true},
	{Code: 4500, Name: "Other Income", Type: TypeRevenue, Subtype: "other", NormalBalance: SideCredit, Section: SectionOtherIncome, CashFlowSection: CashFlowOperating, AllowManualEntry: true},
	{Code: 4600, Name: "Interest Income", Type: TypeRevenue, Subtype: "interest", NormalBalance: SideCredit, Section: SectionOtherIncome, CashFlowSection: CashFlowOperating, AllowManualEntry: true},

	// Expenses (5xxx)
	{Code: 5000, Name: "Cost of Goods Sold", Type: TypeExpense, Subtype: "cogs", NormalBalance: SideDebit, Section: SectionCostOfSales, CashFlowSection: CashFlowOperating, IsSystem: true},
	{Code: 5100, Name: "Salaries & Wages", Type: TypeExpense, Subtype: "payroll", NormalBalance: SideDebit, Section: SectionOperatingExpense, CashFlowSection: CashFlowOperating, AllowManualEntry: true},
	{Code: 5200, Name: "Rent Expense", Type: TypeExpense, Subtype: "occupancy", NormalBalance: SideDebit, Section: SectionOperatingExpense, CashFlowSection: CashFlowOperating, AllowManualEntry: true},
	{Code: 5300, Name: "Utilities", Type: TypeExpense, Subtype: "occupancy", NormalBalance: SideDebit, Section: SectionOperatingExpense, CashFlowSection: CashFlowOperating, AllowManualEntry: true},
	{Code: 5400, Name: "Marketing & Advertising", Type: TypeExpense, Subtype: "marketing", NormalBalance: SideDebit, Section: SectionOperatingExpense, CashFlowSection: CashFlowOperating, AllowManualEntry: true},
	{Code: 5500, Name: "Depreciation Expense", Type: TypeExpense, Subtype: "depreciation", NormalBalance: SideDebit, Section: SectionOperatingExpense, CashFlowSection: CashFlowOperating, AllowManualEntry: true},
	{Code: 5700, Name: "Bank Charges", Type: TypeExpense, Subtype: "bank", NormalBalance: SideDebit, Section: SectionOperatingExpense, CashFlowSection: CashFlowOperating, AllowManualEntry: true},
	{Code: 5800, Name: "Inventory Shrinkage", Type: TypeExpense, Subtype: "inventory", NormalBalance: SideDebit, Section: SectionOperatingExpense, CashFlowSection: CashFlowOperating, AllowManualEntry: true},
	{Code: 5900, Name: "Interest Expense", Type: TypeExpense, Subtype: "interest", NormalBalance: SideDebit, Section: SectionOtherExpense, CashFlowSection: CashFlowFinancing, AllowManualEntry: true},
	{Code: 5950, Name: "Miscellaneous Expense", Type: TypeExpense, Subtype: "other", NormalBalance: SideDebit, Section: SectionOperatingExpense, CashFlowSection: CashFlowOperating, AllowManualEntry: true},
}

// LookupChartEntry finds a template entry by code.
func LookupChartEntry(code int) *ChartEntry {
	for i := range ChartTemplate {
		if ChartTemplate[i].Code == code {
			return &ChartTemplate[i]
		}
	}
	return nil
}
