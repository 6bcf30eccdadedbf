package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// importFileRows normalizes an uploaded CSV or XLSX file into CSV rows.
// XLSX uploads are flattened from the first sheet so the services only ever
// see CSV.
func importFileRows(file io.Reader, filename string) (io.Reader, error) {
	lower := strings.ToLower(filename)
	if strings.HasSuffix(lower, ".xlsx") {
		return xlsxToCSV(file)
	}
	return file, nil
}

func xlsxToCSV(file io.Reader) (io.Reader, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("could not open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("Excel file has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("could not read sheet %s: %w", sheets[0], err)
	}

	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	for _, row := range rows {
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	return &buf, writer.Error()
}

// serveTemplate writes an import header row as CSV or, with ?format=xlsx, as
// a styled single-sheet workbook.
func serveTemplate(c *gin.Context, name, sheetName, csvTemplate string) {
	if c.DefaultQuery("format", "csv") != "xlsx" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+"_import_template.csv"))
		c.Data(http.StatusOK, "text/csv", []byte(csvTemplate))
		return
	}

	f := excelize.NewFile()
	defer f.Close()
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})

	columns := strings.Split(strings.TrimSpace(csvTemplate), ",")
	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, col)
		f.SetCellStyle(sheetName, cell, cell, headerStyle)

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 18)
	}

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name+"_import_template.xlsx"))
	f.Write(c.Writer)
}
