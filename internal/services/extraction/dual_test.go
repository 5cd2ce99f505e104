package extraction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hours-reconciliation-backend/internal/services/matching"
)

func careGrid() Grid {
	return Grid{
		{"Client Name", "Employee", "Service Date", "CareCenta Hours", "# of Appts", "Units"},
		{"Jane Corp", "Sam", "2024-01-01", 4.0, 1.0, 16.0},
		{"Acme", "Lee", 45293.0, 2.0, 1.0, 8.0},
		{"Acme", nil, "2024-01-03", 1.0, nil, nil},
	}
}

func hhaGrid() Grid {
	return Grid{
		{"Client", "Caregiver", "Date", "HHAeX Hours"},
		{"jane corp", "SAM", 45292.0, "4:30"},
		{"Beta", "Kim", "2024-01-02", 3.0},
		{"Beta", "Kim", "someday", 3.0},
	}
}

func TestExtractDual_HHAAnchored(t *testing.T) {
	res, err := ExtractDual(careGrid(), hhaGrid(), matching.HHAAnchored)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)

	matched := res.Records[0]
	assert.Equal(t, "jane corp", matched.ClientName)
	assert.Equal(t, "SAM", matched.EmployeeName)
	assert.Equal(t, "2024-01-01", matched.ServiceDate)
	require.NotNil(t, matched.CarecentaHours)
	assert.Equal(t, 4.0, *matched.CarecentaHours)
	assert.Equal(t, 4.5, *matched.HhaHours)
	assert.Equal(t, 1, *matched.ConfirmedAppts)
	assert.Equal(t, 16.0, *matched.Units)
	assert.NotNil(t, matched.Raw["care"])
	assert.NotNil(t, matched.Raw["hha"])

	unmatched := res.Records[1]
	assert.Equal(t, "Beta", unmatched.ClientName)
	assert.Nil(t, unmatched.CarecentaHours, "unmatched HHAeX row is still emitted")
	assert.Equal(t, 3.0, *unmatched.HhaHours)

	assert.Equal(t, 1, res.UnmatchedHHA)
	assert.Equal(t, 1, res.UnmatchedCareCenta)
	assert.ElementsMatch(t, []Rejection{
		{Source: SourceCareCenta, RawIndex: 3, Reason: "missing employee"},
		{Source: SourceHHA, RawIndex: 3, Reason: "unresolvable service date"},
	}, res.Rejected)
}

func TestExtractDual_FullOuterKeepsCareCentaOnlyVisits(t *testing.T) {
	res, err := ExtractDual(careGrid(), hhaGrid(), matching.FullOuter)
	require.NoError(t, err)
	require.Len(t, res.Records, 3)

	careOnly := res.Records[2]
	assert.Equal(t, "Acme", careOnly.ClientName)
	assert.Equal(t, "Lee", careOnly.EmployeeName)
	assert.Equal(t, "2024-01-02", careOnly.ServiceDate)
	assert.Equal(t, 2.0, *careOnly.CarecentaHours)
	assert.Nil(t, careOnly.HhaHours)
	assert.Equal(t, SourceCareCenta, careOnly.Source)
	assert.Equal(t, 2, careOnly.RowIndex)
}

func TestExtractDual_HoursFallBackToUnits(t *testing.T) {
	care := Grid{
		{"Client", "Employee", "Service Date", "Units"},
		{"Acme", "Lee", "2024-01-02", 8.0},
	}
	hha := Grid{
		{"Client", "Employee", "Service Date", "Hours"},
		{"Acme", "Lee", "2024-01-02", 7.0},
	}

	res, err := ExtractDual(care, hha, matching.HHAAnchored)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 8.0, *res.Records[0].CarecentaHours)
	assert.Equal(t, 8.0, *res.Records[0].Units)
}

func TestExtractDualFiles_CSV(t *testing.T) {
	care := []byte("Client,Employee,Service Date,Hours\nJane Corp,Sam,2024-01-01,4\n")
	hha := []byte("Client,Employee,Service Date,Hours\nJane Corp,Sam,2024-01-01,5\nJane Corp,Ann,2024-01-01,2\n")

	res, err := ExtractDualFiles(care, "care.csv", hha, "hha.csv", matching.HHAAnchored)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 4.0, *res.Records[0].CarecentaHours)
	assert.Nil(t, res.Records[1].CarecentaHours)
}
