// Package export writes financial statements to XLSX workbooks.
package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/simonvc/stockledger/internal/ledger"
)

const (
	SheetTrialBalance    = "Trial Balance"
	SheetBalanceSheet    = "Balance Sheet"
	SheetIncomeStatement = "Income Statement"
)

// Statements selects what goes into a workbook. Nil statements are skipped.
type Statements struct {
	TrialBalance    *ledger.TrialBalance
	BalanceSheet    *ledger.BalanceSheet
	IncomeStatement *ledger.IncomeStatement
}

// sheetWriter appends rows to one sheet.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	row   int
	bold  int
	money int
}

func (s *sheetWriter) write(bold bool, values ...any) error {
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	if err := s.f.SetSheetRow(s.sheet, cell, &values); err != nil {
		return err
	}
	for i, v := range values {
		if _, ok := v.(float64); !ok {
			continue
		}
		c, _ := excelize.CoordinatesToCellName(i+1, s.row)
		if err := s.f.SetCellStyle(s.sheet, c, c, s.money); err != nil {
			return err
		}
	}
	if bold {
		last, _ := excelize.CoordinatesToCellName(len(values), s.row)
		return s.f.SetCellStyle(s.sheet, cell, last, s.bold)
	}
	return nil
}

func (s *sheetWriter) blank() { s.row++ }

func amount(d decimal.Decimal) float64 {
	return ledger.RoundMoney(d).InexactFloat64()
}

// WriteStatements writes one sheet per statement to w.
func WriteStatements(w io.Writer, st Statements) error {
	f := excelize.NewFile()
	defer f.Close()

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	moneyFmt := "#,##0.00;(#,##0.00)"
	money, err := f.NewStyle(&excelize.Style{CustomNumFmt: &moneyFmt})
	if err != nil {
		return err
	}

	var sheets []string
	newSheet := func(name string) (*sheetWriter, error) {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(name, "A", "A", 12); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(name, "B", "B", 36); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(name, "C", "D", 16); err != nil {
			return nil, err
		}
		sheets = append(sheets, name)
		return &sheetWriter{f: f, sheet: name, bold: bold, money: money}, nil
	}

	if st.TrialBalance != nil {
		s, err := newSheet(SheetTrialBalance)
		if err != nil {
			return err
		}
		if err := writeTrialBalance(s, st.TrialBalance); err != nil {
			return fmt.Errorf("trial balance sheet: %w", err)
		}
	}
	if st.BalanceSheet != nil {
		s, err := newSheet(SheetBalanceSheet)
		if err != nil {
			return err
		}
		if err := writeBalanceSheet(s, st.BalanceSheet); err != nil {
			return fmt.Errorf("balance sheet: %w", err)
		}
	}
	if st.IncomeStatement != nil {
		s, err := newSheet(SheetIncomeStatement)
		if err != nil {
			return err
		}
		if err := writeIncomeStatement(s, st.IncomeStatement); err != nil {
			return fmt.Errorf("income statement sheet: %w", err)
		}
	}
	if len(sheets) == 0 {
		return fmt.Errorf("no statements to export")
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}
	idx, err := f.GetSheetIndex(sheets[0])
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	return f.Write(w)
}

func writeTrialBalance(s *sheetWriter, tb *ledger.TrialBalance) error {
	if err := s.write(true, "Trial Balance as of "+tb.AsOf.Format(ledger.DateLayout)); err != nil {
		return err
	}
	s.blank()
	if err := s.write(true, "Code", "Account", "Debit", "Credit"); err != nil {
		return err
	}
	for _, l := range tb.Lines {
		if err := s.write(false, l.Code, l.AccountName, amount(l.Debit), amount(l.Credit)); err != nil {
			return err
		}
	}
	if err := s.write(true, "", "Total", amount(tb.TotalDebit), amount(tb.TotalCredit)); err != nil {
		return err
	}
	return s.write(false, "", balancedLabel(tb.Balanced), amount(tb.Difference))
}

func writeSection(s *sheetWriter, sec ledger.StatementSection) error {
	if err := s.write(true, "", sec.Title); err != nil {
		return err
	}
	for _, l := range sec.Lines {
		if err := s.write(false, l.Code, l.AccountName, amount(l.Amount)); err != nil {
			return err
		}
	}
	return s.write(true, "", "Total "+sec.Title, amount(sec.Total))
}

func writeBalanceSheet(s *sheetWriter, bs *ledger.BalanceSheet) error {
	if err := s.write(true, "Balance Sheet as of "+bs.AsOf.Format(ledger.DateLayout)); err != nil {
		return err
	}
	for _, sec := range []ledger.StatementSection{bs.CurrentAssets, bs.FixedAssets} {
		s.blank()
		if err := writeSection(s, sec); err != nil {
			return err
		}
	}
	if err := s.write(true, "", "Total Assets", amount(bs.TotalAssets)); err != nil {
		return err
	}
	for _, sec := range []ledger.StatementSection{bs.CurrentLiabilities, bs.LongTermLiabilities, bs.Equity} {
		s.blank()
		if err := writeSection(s, sec); err != nil {
			return err
		}
	}
	s.blank()
	rows := [][]any{
		{"", "Current Period Earnings", amount(bs.CurrentPeriodEarnings)},
		{"", "Total Liabilities", amount(bs.TotalLiabilities)},
		{"", "Total Equity", amount(bs.TotalEquity)},
		{"", "Working Capital", amount(bs.WorkingCapital)},
		{"", "Current Ratio", bs.CurrentRatio.InexactFloat64()},
		{"", "Debt to Equity", bs.DebtToEquity.InexactFloat64()},
		{"", balancedLabel(bs.Balanced), amount(bs.Difference)},
	}
	for _, r := range rows {
		if err := s.write(false, r...); err != nil {
			return err
		}
	}
	return nil
}

func writeIncomeStatement(s *sheetWriter, is *ledger.IncomeStatement) error {
	title := "Income Statement to " + is.To.Format(ledger.DateLayout)
	if !is.From.IsZero() {
		title = fmt.Sprintf("Income Statement %s to %s", is.From.Format(ledger.DateLayout), is.To.Format(ledger.DateLayout))
	}
	if err := s.write(true, title); err != nil {
		return err
	}
	steps := []struct {
		sec      ledger.StatementSection
		subtotal string
		value    decimal.Decimal
	}{
		{is.Revenue, "", decimal.Zero},
		{is.ContraRevenue, "Net Sales", is.NetSales},
		{is.CostOfSales, "Gross Profit", is.GrossProfit},
		{is.OperatingExpenses, "Operating Income", is.OperatingIncome},
		{is.OtherIncome, "", decimal.Zero},
		{is.OtherExpenses, "Net Income", is.NetIncome},
	}
	for _, st := range steps {
		s.blank()
		if err := writeSection(s, st.sec); err != nil {
			return err
		}
		if st.subtotal != "" {
			if err := s.write(true, "", st.subtotal, amount(st.value)); err != nil {
				return err
			}
		}
	}
	s.blank()
	rows := [][]any{
		{"", "Gross Margin %", is.GrossMargin.InexactFloat64()},
		{"", "Operating Margin %", is.OperatingMargin.InexactFloat64()},
		{"", "Net Margin %", is.NetMargin.InexactFloat64()},
		{"", "Result", string(is.Result)},
	}
	for _, r := range rows {
		if err := s.write(false, r...); err != nil {
			return err
		}
	}
	return nil
}

func balancedLabel(ok bool) string {
	if ok {
		return "Balanced"
	}
	return "OUT OF BALANCE by"
}
