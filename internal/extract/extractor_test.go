package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"cardsync-backend-go/internal/models"
)

func TestFromText_EmptyInput(t *testing.T) {
	info := FromText("")
	assert.True(t, info.Empty(), "empty input must leave every field unset")
}

func TestFromText_SingleLine(t *testing.T) {
	info := FromText("Jane Doe")
	assert.Equal(t, "Jane Doe", info.FullName)
	assert.Empty(t, info.JobTitle)
	assert.Empty(t, info.CompanyName)
	assert.Empty(t, info.EmailAddress)
	assert.Empty(t, info.PhoneNumber)
	assert.Empty(t, info.PhysicalAddress)
}

func TestFromText_BlankFirstLine(t *testing.T) {
	info := FromText("\nAcme Corp")
	assert.Empty(t, info.FullName, "a blank line contributes no field")
	assert.Empty(t, info.JobTitle, "a blank first line disables title detection")
	assert.Equal(t, "Acme Corp", info.CompanyName)
}

func TestFromText_FullCard(t *testing.T) {
	text := "Jane Doe\nSoftware Engineer\nAcme Corp\njane@acme.com\n555-123-4567\n123 Main St Springfield"
	info := FromText(text)

	assert.Equal(t, "Jane Doe", info.FullName)
	assert.Equal(t, "Software Engineer", info.JobTitle)
	assert.Empty(t, info.CompanyName, "title and company are never both taken from the top block")
	assert.Equal(t, "jane@acme.com", info.EmailAddress)
	assert.Equal(t, "555-123-4567", info.PhoneNumber)
	assert.Contains(t, info.PhysicalAddress, "123 Main St Springfield")
}

func TestFromText_CompanyWhenTitleDisqualified(t *testing.T) {
	// Both candidate lines carry an email or phone, so the second line is
	// taken as the company name instead of a title.
	text := "Jane Doe\njane@acme.com\n(555) 123-4567"
	info := FromText(text)

	assert.Equal(t, "Jane Doe", info.FullName)
	assert.Empty(t, info.JobTitle)
	assert.Equal(t, "jane@acme.com", info.CompanyName)
}

func TestFromText_NoTitleWhenFirstLineLong(t *testing.T) {
	longFirst := "Jane Doe, Senior Principal Distinguished Engineer of Everything"
	info := FromText(longFirst + "\nActually The Title")

	assert.Equal(t, longFirst, info.FullName)
	assert.Empty(t, info.JobTitle, "a long first line disables title detection")
	assert.Equal(t, "Actually The Title", info.CompanyName)
}

func TestFromText_LastEmailWins(t *testing.T) {
	text := "Jane Doe\nold@example.com\nnew@example.org"
	info := FromText(text)
	assert.Equal(t, "new@example.org", info.EmailAddress)
}

func TestFromText_LastPhoneWins(t *testing.T) {
	text := "Jane Doe\nOffice: 555-111-2222\nMobile: +1 (555) 333-4444"
	info := FromText(text)
	assert.Equal(t, "+1 (555) 333-4444", info.PhoneNumber)
}

func TestFromText_PhoneFormats(t *testing.T) {
	for _, tc := range []struct {
		line string
		want string
	}{
		{"555-123-4567", "555-123-4567"},
		{"555.123.4567", "555.123.4567"},
		{"(555) 123-4567", "(555) 123-4567"},
		{"+1 555 123 4567", "+1 555 123 4567"},
		{"1-555-123-4567", "1-555-123-4567"},
	} {
		info := FromText("Jane Doe\n" + tc.line)
		assert.Equal(t, tc.want, info.PhoneNumber, "input line %q", tc.line)
	}
}

func TestFromText_AddressLines(t *testing.T) {
	text := "Jane Doe\n123 Main St Springfield\nSuite 400, Building 7\nshort 1\n555-123-4567"
	info := FromText(text)

	// Phone lines and too-short lines never join the address, qualifying
	// lines join in order.
	assert.Equal(t, "123 Main St Springfield, Suite 400, Building 7", info.PhysicalAddress)
}

func TestFromText_NoAddressWithoutDigits(t *testing.T) {
	info := FromText("Jane Doe\nSomewhere Over The Rainbow Road")
	assert.Empty(t, info.PhysicalAddress)
}

func TestFromText_Deterministic(t *testing.T) {
	text := "Jane Doe\nSoftware Engineer\nAcme Corp\njane@acme.com\n555-123-4567\n123 Main St Springfield"
	first := FromText(text)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, FromText(text))
	}
}

func TestFromText_WindowsLineEndings(t *testing.T) {
	info := FromText("Jane Doe\r\nSoftware Engineer\r\njane@acme.com")
	assert.Equal(t, models.ContactInfo{
		FullName:     "Jane Doe",
		JobTitle:     "Software Engineer",
		EmailAddress: "jane@acme.com",
	}, info)
}
