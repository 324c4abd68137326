package core

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cardsync-backend-go/internal/models"
)

func exportFixture() []*models.Contact {
	return []*models.Contact{
		{
			ID:     "c1",
			UserID: "user-1",
			ContactInfo: models.ContactInfo{
				FullName:        "Jane Doe",
				JobTitle:        "Software Engineer",
				CompanyName:     `Acme "Rockets" Corp`,
				PhoneNumber:     "555-123-4567",
				EmailAddress:    "jane@acme.com",
				PhysicalAddress: "123 Main St, Springfield",
			},
		},
		{
			ID:          "c2",
			UserID:      "user-1",
			ContactInfo: models.ContactInfo{FullName: "No Details"},
		},
	}
}

func TestExportCSV(t *testing.T) {
	svc := NewExportService()

	out, err := svc.ExportCSV(exportFixture())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `"Full Name","Job Title","Company Name","Phone Number","Email Address","Physical Address"`, lines[0])
	assert.Equal(t, `"Jane Doe","Software Engineer","Acme ""Rockets"" Corp","555-123-4567","jane@acme.com","123 Main St, Springfield"`, lines[1])
	assert.Equal(t, `"No Details","","","","",""`, lines[2])
}

func TestExportCSV_EmptyList(t *testing.T) {
	svc := NewExportService()
	out, err := svc.ExportCSV(nil)
	require.NoError(t, err)
	assert.Equal(t, `"Full Name","Job Title","Company Name","Phone Number","Email Address","Physical Address"`+"\n", string(out))
}

func TestExportXLSX(t *testing.T) {
	svc := NewExportService()

	out, err := svc.ExportXLSX(exportFixture())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Contacts")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(rows), 3)
	assert.Equal(t, []string{"Full Name", "Job Title", "Company Name", "Phone Number", "Email Address", "Physical Address"}, rows[0])
	assert.Equal(t, "Jane Doe", rows[1][0])
	assert.Equal(t, `Acme "Rockets" Corp`, rows[1][2])
	assert.Equal(t, "No Details", rows[2][0])
}
