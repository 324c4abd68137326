package core

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"cardsync-backend-go/internal/models"
)

// exportColumns are the human-readable headers shared by both formats.
var exportColumns = []string{
	"Full Name",
	"Job Title",
	"Company Name",
	"Phone Number",
	"Email Address",
	"Physical Address",
}

const exportSheetName = "Contacts"

// exportService implements the ExportService interface.
type exportService struct{}

// NewExportService creates a new ExportService instance.
func NewExportService() ExportService {
	return &exportService{}
}

func exportRow(c *models.Contact) []string {
	return []string{
		c.FullName,
		c.JobTitle,
		c.CompanyName,
		c.PhoneNumber,
		c.EmailAddress,
		c.PhysicalAddress,
	}
}

// ExportCSV renders the contacts as delimited text. Every field is quoted
// and embedded quotes are doubled, so consumers never have to guess whether
// a comma splits fields or sits inside one.
func (s *exportService) ExportCSV(contacts []*models.Contact) ([]byte, error) {
	var b strings.Builder

	writeRecord := func(fields []string) {
		for i, field := range fields {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteByte('"')
			b.WriteString(strings.ReplaceAll(field, `"`, `""`))
			b.WriteByte('"')
		}
		b.WriteByte('\n')
	}

	writeRecord(exportColumns)
	for _, contact := range contacts {
		writeRecord(exportRow(contact))
	}

	return []byte(b.String()), nil
}

// ExportXLSX renders the contacts as a spreadsheet with one "Contacts" sheet.
func (s *exportService) ExportXLSX(contacts []*models.Contact) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(exportSheetName); err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to drop default sheet: %w", err)
	}

	writeRow := func(row int, values []string) error {
		for col, value := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(exportSheetName, cell, value); err != nil {
				return err
			}
		}
		return nil
	}

	if err := writeRow(1, exportColumns); err != nil {
		return nil, fmt.Errorf("failed to write header row: %w", err)
	}
	for i, contact := range contacts {
		if err := writeRow(i+2, exportRow(contact)); err != nil {
			return nil, fmt.Errorf("failed to write contact row %d: %w", i+1, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
