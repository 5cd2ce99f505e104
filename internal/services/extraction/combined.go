package extraction

import (
	"hours-reconciliation-backend/internal/apperrors"
	p "hours-reconciliation-backend/internal/services/parsing"
)

type combinedHeader struct {
	row    int
	client int
	hha    int
	care   int
	appts  int
	units  int
}

// findCombinedHeader returns the first row carrying client, HHAeX hours and
// CareCenta hours columns.
func findCombinedHeader(grid Grid) (combinedHeader, bool) {
	for i, row := range grid {
		headers := p.NormalizeHeaders(row)
		if !p.CombinedColumns.HasAll(headers, p.FieldClient, p.FieldHhaHours, p.FieldCarecentaHours) {
			continue
		}
		return combinedHeader{
			row:    i,
			client: p.CombinedColumns.Index(headers, p.FieldClient),
			hha:    p.CombinedColumns.Index(headers, p.FieldHhaHours),
			care:   p.CombinedColumns.Index(headers, p.FieldCarecentaHours),
			appts:  p.CombinedColumns.Index(headers, p.FieldConfirmedAppts),
			units:  p.CombinedColumns.Index(headers, p.FieldUnits),
		}, true
	}
	return combinedHeader{}, false
}

// ExtractCombined reads a single export that carries both sources' hours per
// client. The client label is printed once per group, so it is carried
// forward to the rows below it. The export has no service date; every record
// gets fallbackDate.
func ExtractCombined(grid Grid, fallbackDate string) (*Result, error) {
	h, ok := findCombinedHeader(grid)
	if !ok {
		return &Result{}, apperrors.ErrHeaderNotFound
	}

	result := &Result{}
	currentClient := ""

	for r := h.row + 1; r < len(grid); r++ {
		row := grid[r]
		if rowIsBlank(row) {
			continue
		}

		if client := p.CellText(cellAt(row, h.client)); client != "" {
			currentClient = client
		}

		hhaHours := p.ParseNumber(cellAt(row, h.hha))
		careHours := p.ParseNumber(cellAt(row, h.care))
		appts := p.ParseIntSafe(cellAt(row, h.appts))
		units := p.ParseNumber(cellAt(row, h.units))

		if hhaHours == nil && careHours == nil {
			result.reject(SourceCombined, r, "no hours")
			continue
		}
		if currentClient == "" {
			result.reject(SourceCombined, r, "no client established")
			continue
		}

		result.Records = append(result.Records, Record{
			ClientName:     currentClient,
			EmployeeName:   "",
			ServiceDate:    fallbackDate,
			CarecentaHours: careHours,
			HhaHours:       hhaHours,
			ConfirmedAppts: appts,
			Units:          units,
			Source:         SourceCombined,
			RowIndex:       r,
			Raw: map[string]any{
				"rowIndex": r,
				"row":      row,
			},
		})
	}

	return result, nil
}

// ExtractCombinedFile reads the file and runs ExtractCombined on its first sheet.
func ExtractCombinedFile(data []byte, filename, fallbackDate string) (*Result, error) {
	grid, err := ReadGrid(data, filename)
	if err != nil {
		return nil, err
	}
	return ExtractCombined(grid, fallbackDate)
}
