package extraction

const (
	SourceCombined  = "combined"
	SourceCareCenta = "carecenta"
	SourceHHA       = "hha"
)

// Record is one normalized reconciliation line before persistence.
type Record struct {
	ClientName     string
	EmployeeName   string
	ServiceDate    string
	CarecentaHours *float64
	HhaHours       *float64
	ConfirmedAppts *int
	Units          *float64
	Source         string
	RowIndex       int
	Raw            map[string]any
}

// Rejection explains why a source row did not become a record.
type Rejection struct {
	Source   string `json:"source"`
	RawIndex int    `json:"rawIndex"`
	Reason   string `json:"reason"`
}

// Result is the outcome of one extraction: the records that survived and an
// account of the rows that did not.
type Result struct {
	Records            []Record
	Rejected           []Rejection
	UnmatchedCareCenta int
	UnmatchedHHA       int
}

func (r *Result) reject(source string, rowIndex int, reason string) {
	r.Rejected = append(r.Rejected, Rejection{Source: source, RawIndex: rowIndex, Reason: reason})
}
