package services

import (
	"context"
	"fmt"

	"housetrades/src/utils"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

type ReportServiceI interface {
	GenerateXLSXReport(ctx context.Context, name string) (*excelize.File, error)
}

type ReportService struct {
	dashboard DashboardServiceI
}

func NewReportService(dashboard DashboardServiceI) *ReportService {
	return &ReportService{dashboard: dashboard}
}

// reportSheet is one tabular sheet: a header row followed by data rows.
type reportSheet struct {
	name    string
	headers []string
	rows    [][]interface{}
	// numFmt is the excelize built-in number format applied to numeric cells.
	numFmt int
}

// GenerateXLSXReport exports the overview, open positions, sector breakdown
// and portfolio series of one representative.
func (rs *ReportService) GenerateXLSXReport(ctx context.Context, name string) (*excelize.File, error) {
	if name == "" {
		return nil, utils.BadRequest("name is required")
	}
	ctx, span := tracer.Start(ctx, "ReportService.GenerateXLSXReport")
	defer span.End()

	overview, err := rs.dashboard.RepresentativeOverview(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(overview) == 0 {
		return nil, utils.NotFound(fmt.Sprintf("no transactions for %s", name))
	}
	positions, err := rs.dashboard.CurrentPositions(ctx, name)
	if err != nil {
		return nil, err
	}
	sectors, err := rs.dashboard.SectorAnalysis(ctx, name)
	if err != nil {
		return nil, err
	}
	portfolio, err := rs.dashboard.PortfolioValue(ctx, name)
	if err != nil {
		return nil, err
	}

	o := overview[0]
	sheets := []reportSheet{
		{
			name: "Overview",
			headers: []string{"Representative", "Party", "Total Trades", "Unique Stocks", "Years Active",
				"Purchases", "Sales", "Unique Sectors"},
			rows: [][]interface{}{{o.Holder, o.Party, o.TotalTrades, o.UniqueInstruments, o.YearsActive,
				o.Purchases, o.Sales, o.UniqueSectors}},
			numFmt: 1,
		},
		{
			name:    "Positions",
			headers: []string{"Ticker", "Sector", "Current Value"},
			numFmt:  4,
		},
		{
			name:    "Sectors",
			headers: []string{"Sector", "Transactions"},
			numFmt:  1,
		},
		{
			name:    "Portfolio",
			headers: []string{"Date", "Ticker", "Stock Value", "Total Portfolio Value"},
			numFmt:  4,
		},
	}
	for _, p := range positions {
		sheets[1].rows = append(sheets[1].rows, []interface{}{p.Ticker, p.Sector, p.Value})
	}
	for _, s := range sectors {
		sheets[2].rows = append(sheets[2].rows, []interface{}{s.Sector, s.TransactionCount})
	}
	for _, p := range portfolio {
		sheets[3].rows = append(sheets[3].rows, []interface{}{
			p.Date.Format(utils.ShortDashDateLayout), p.Ticker, p.StockValue, p.TotalPortfolioValue,
		})
	}

	var file *excelize.File
	for _, sheet := range sheets {
		file, err = rs.writeSheet(file, sheet)
		if err != nil {
			return nil, err
		}
	}
	if err := rs.applyStylesToAllSheets(file); err != nil {
		return nil, err
	}

	utils.LoggerFromContext(ctx, nil).WithFields(logrus.Fields{
		"representative": name,
		"positions":      len(positions),
		"portfolio_rows": len(portfolio),
	}).Info("Report generated")
	return file, nil
}

// writeSheet adds sheet to f, creating the workbook when f is nil.
func (rs *ReportService) writeSheet(f *excelize.File, sheet reportSheet) (*excelize.File, error) {
	if f == nil {
		f = excelize.NewFile()
		if err := f.SetSheetName("Sheet1", sheet.name); err != nil {
			return nil, err
		}
	} else {
		if _, err := f.NewSheet(sheet.name); err != nil {
			return nil, err
		}
	}

	for i, header := range sheet.headers {
		cell := fmt.Sprintf("%s1", rs.toAlphaString(i+1))
		if err := f.SetCellValue(sheet.name, cell, header); err != nil {
			return nil, err
		}
	}

	numberStyle, err := f.NewStyle(&excelize.Style{NumFmt: sheet.numFmt})
	if err != nil {
		return nil, err
	}
	for rowIndex, row := range sheet.rows {
		for colIndex, value := range row {
			cell := fmt.Sprintf("%s%d", rs.toAlphaString(colIndex+1), rowIndex+2)
			if err := f.SetCellValue(sheet.name, cell, value); err != nil {
				return nil, err
			}
			switch value.(type) {
			case int, float64:
				if err := f.SetCellStyle(sheet.name, cell, cell, numberStyle); err != nil {
					return nil, err
				}
			}
		}
	}
	return f, nil
}

func (rs *ReportService) toAlphaString(column int) string {
	result := ""
	for column > 0 {
		column--
		result = string(rune('A'+column%26)) + result
		column /= 26
	}
	return result
}

func (rs *ReportService) applyStylesToAllSheets(f *excelize.File) error {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{
			Bold: true,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6E6E6"},
			Pattern: 1,
		},
		Border: border,
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
	})
	if err != nil {
		return err
	}

	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			continue
		}
		lastCol := len(rows[0])

		err = f.SetCellStyle(sheetName, "A1", fmt.Sprintf("%s1", rs.toAlphaString(lastCol)), headerStyle)
		if err != nil {
			return err
		}
		if err := f.SetPanes(sheetName, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return err
		}

		for i := 1; i <= lastCol; i++ {
			colName := rs.toAlphaString(i)
			if err := f.SetColWidth(sheetName, colName, colName, 20); err != nil {
				return err
			}
		}
	}
	return nil
}
