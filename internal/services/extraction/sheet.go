// Package extraction turns vendor timekeeping exports into normalized
// reconciliation records.
package extraction

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// Grid is the first worksheet of a file as rows of cells. A cell is nil,
// a float64 for numeric text, or a trimmed string.
type Grid [][]any

var ErrEmptyFile = errors.New("uploaded file is empty")

const maxXLSRows = 100000

// ReadGrid materializes the first worksheet of an .xlsx, .xls or .csv file.
// The extension picks the reader; unknown extensions are treated as .xlsx.
func ReadGrid(data []byte, filename string) (Grid, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	var (
		rows [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt":
		rows, err = readCSV(data)
	case ".xls":
		rows, err = readXLS(data)
	default:
		rows, err = readXLSX(data)
	}
	if err != nil {
		return nil, fmt.Errorf("read %q: %w", filename, err)
	}

	grid := make(Grid, len(rows))
	for i, row := range rows {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = normalizeCell(v)
		}
		grid[i] = cells
	}
	return grid, nil
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, fmt.Errorf("no worksheet found")
	}
	// Raw values keep date cells as serial numbers instead of display text.
	return f.GetRows(sheetName, excelize.Options{RawCellValue: true})
}

func readXLS(data []byte) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), "utf-8")
	if err != nil {
		return nil, err
	}
	if workbook.NumSheets() == 0 {
		return nil, fmt.Errorf("no worksheet found")
	}
	sheet := workbook.GetSheet(0)
	if sheet == nil {
		return nil, fmt.Errorf("no worksheet found")
	}

	var rows [][]string
	for i := 0; i <= int(sheet.MaxRow) && i < maxXLSRows; i++ {
		row := sheet.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cells := make([]string, row.LastCol())
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			cells[j] = row.Col(j)
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	sample := data
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	if !bytes.Contains(sample, []byte(",")) && bytes.Contains(sample, []byte("\t")) {
		reader.Comma = '\t'
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, record)
	}
	return rows, nil
}

func normalizeCell(v string) any {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(v, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
		return n
	}
	return v
}

func cellAt(row []any, idx int) any {
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

func rowIsBlank(row []any) bool {
	for _, c := range row {
		if c != nil {
			return false
		}
	}
	return true
}
