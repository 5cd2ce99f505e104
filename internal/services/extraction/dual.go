package extraction

import (
	"hours-reconciliation-backend/internal/services/matching"
	p "hours-reconciliation-backend/internal/services/parsing"
)

// table is a grid read as row objects keyed by its header row.
type table struct {
	raw     []any
	headers []string
	header  int
	rows    Grid
}

func newTable(grid Grid) table {
	for i, row := range grid {
		if rowIsBlank(row) {
			continue
		}
		return table{raw: row, headers: p.NormalizeHeaders(row), header: i, rows: grid}
	}
	return table{header: len(grid), rows: grid}
}

// record maps header labels to cells, for the audit payload.
func (t table) record(row []any) map[string]any {
	out := make(map[string]any, len(t.raw))
	for i, h := range t.raw {
		label := p.CellText(h)
		if label == "" {
			continue
		}
		out[label] = cellAt(row, i)
	}
	return out
}

// visits resolves client, employee and service date for every data row.
// Rows missing any of the three are rejected.
func (t table) visits(cols p.Aliases, hoursField p.Field, source string, result *Result) []matching.Visit {
	var visits []matching.Visit
	for r := t.header + 1; r < len(t.rows); r++ {
		row := t.rows[r]
		if rowIsBlank(row) {
			continue
		}

		client := p.CellText(cols.Lookup(t.headers, row, p.FieldClient))
		employee := p.CellText(cols.Lookup(t.headers, row, p.FieldEmployee))
		date := p.ParseDate(cols.Lookup(t.headers, row, p.FieldServiceDate))

		switch {
		case client == "":
			result.reject(source, r, "missing client")
			continue
		case employee == "":
			result.reject(source, r, "missing employee")
			continue
		case date == nil:
			result.reject(source, r, "unresolvable service date")
			continue
		}

		visits = append(visits, matching.Visit{
			Client:      client,
			Employee:    employee,
			ServiceDate: *date,
			Hours:       p.ParseNumber(cols.Lookup(t.headers, row, hoursField)),
			Appts:       p.ParseIntSafe(cols.Lookup(t.headers, row, p.FieldConfirmedAppts)),
			Units:       p.ParseNumber(cols.Lookup(t.headers, row, p.FieldUnits)),
			RowIndex:    r,
			Raw:         t.record(row),
		})
	}
	return visits
}

// ExtractDual joins a CareCenta export and an HHAeX export on
// client + employee + service date.
func ExtractDual(careGrid, hhaGrid Grid, policy matching.JoinPolicy) (*Result, error) {
	result := &Result{}

	care := newTable(careGrid).visits(p.CareCentaColumns, p.FieldCarecentaHours, SourceCareCenta, result)
	hha := newTable(hhaGrid).visits(p.HHAColumns, p.FieldHhaHours, SourceHHA, result)

	joined := matching.Join(care, hha, policy)
	for _, dup := range joined.Duplicates {
		result.reject(SourceCareCenta, dup.RowIndex, "duplicate client/employee/date; a later row was used")
	}
	result.UnmatchedCareCenta = joined.UnmatchedCare
	result.UnmatchedHHA = joined.UnmatchedHHA

	for _, pair := range joined.Pairs {
		result.Records = append(result.Records, pairRecord(pair))
	}
	return result, nil
}

func pairRecord(pair matching.Pair) Record {
	var rec Record
	raw := map[string]any{"care": nil, "hha": nil}

	if pair.HHA != nil {
		rec.ClientName = pair.HHA.Client
		rec.EmployeeName = pair.HHA.Employee
		rec.ServiceDate = pair.HHA.ServiceDate
		rec.HhaHours = pair.HHA.Hours
		rec.Source = SourceHHA
		rec.RowIndex = pair.HHA.RowIndex
		raw["hha"] = pair.HHA.Raw
	}
	if pair.CareCenta != nil {
		if pair.HHA == nil {
			rec.ClientName = pair.CareCenta.Client
			rec.EmployeeName = pair.CareCenta.Employee
			rec.ServiceDate = pair.CareCenta.ServiceDate
			rec.Source = SourceCareCenta
			rec.RowIndex = pair.CareCenta.RowIndex
		}
		rec.CarecentaHours = pair.CareCenta.Hours
		rec.ConfirmedAppts = pair.CareCenta.Appts
		rec.Units = pair.CareCenta.Units
		raw["care"] = pair.CareCenta.Raw
	}

	rec.Raw = raw
	return rec
}

// ExtractDualFiles reads both files and runs ExtractDual.
func ExtractDualFiles(careData []byte, careName string, hhaData []byte, hhaName string, policy matching.JoinPolicy) (*Result, error) {
	careGrid, err := ReadGrid(careData, careName)
	if err != nil {
		return nil, err
	}
	hhaGrid, err := ReadGrid(hhaData, hhaName)
	if err != nil {
		return nil, err
	}
	return ExtractDual(careGrid, hhaGrid, policy)
}
