package reports

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

var stockFlowHeadings = []string{
	"Item", "Group", "Parent Group",
	"Opening Qty", "Opening Amount",
	"Inward Qty", "Inward Amount",
	"Consumption Qty", "Consumption Amount",
	"Balance Qty", "Balance Amount",
}

// WriteStockFlowExcel renders a stock-flow report as an xlsx workbook.
// Summary rows come through like any other row, so the sheet mirrors the
// JSON report line for line.
func WriteStockFlowExcel(report *StockFlowReport, w io.Writer) error {
	f := excelize.NewFile()
	sheetName := "Sheet1"
	if _, err := f.NewSheet(sheetName); err != nil {
		return err
	}

	col := 'A'
	for _, h := range stockFlowHeadings {
		f.SetCellValue(sheetName, string(col)+"1", h)
		col++
	}

	for i, row := range report.Rows {
		r := fmt.Sprint(i + 2)
		f.SetCellValue(sheetName, "A"+r, row.ItemName)
		f.SetCellValue(sheetName, "B"+r, row.GroupName)
		f.SetCellValue(sheetName, "C"+r, row.ParentGroupName)
		f.SetCellValue(sheetName, "D"+r, row.OpeningQty.InexactFloat64())
		f.SetCellValue(sheetName, "E"+r, row.OpeningStockAmount.InexactFloat64())
		f.SetCellValue(sheetName, "F"+r, row.InwardQty.InexactFloat64())
		f.SetCellValue(sheetName, "G"+r, row.InwardAmount.InexactFloat64())
		f.SetCellValue(sheetName, "H"+r, row.ConsumptionQty.InexactFloat64())
		f.SetCellValue(sheetName, "I"+r, row.ConsumptionAmount.InexactFloat64())
		f.SetCellValue(sheetName, "J"+r, row.BalanceQty.InexactFloat64())
		f.SetCellValue(sheetName, "K"+r, row.BalanceAmount.InexactFloat64())
	}

	return f.Write(w)
}

// ExportStockFlowExcel builds the report for the window and streams it as a
// workbook. Weekly is the default when no date or month is given.
func ExportStockFlowExcel(ctx context.Context, date, month string, w io.Writer) error {
	var report *StockFlowReport
	var err error
	switch {
	case month != "":
		report, err = GetMonthlyReport(ctx, month)
	case date != "":
		report, err = GetDailyReport(ctx, date)
	default:
		report, err = GetWeeklyReport(ctx)
	}
	if err != nil {
		return err
	}
	return WriteStockFlowExcel(report, w)
}
