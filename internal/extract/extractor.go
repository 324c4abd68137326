package extract

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"cardsync-backend-go/internal/models"
)

// Patterns deliberately kept loose. Card text is noisy OCR output, so the
// parser prefers catching a slightly malformed value over missing a real one.
var (
	emailPattern = regexp.MustCompile(`[\w.]+@[\w.]+\.\w{2,}`)
	phonePattern = regexp.MustCompile(`(\+?1[-. ]?)?(\(\d{3}\)|\d{3})[-. ]?\d{3}[-. ]?\d{4}`)
)

const shortLineMax = 50

// FromText parses raw recognized card text into a partial contact record
// using line-position heuristics and the patterns above. Pure function:
// identical input always yields an identical record. Fields that nothing
// matched stay unset rather than becoming empty strings.
func FromText(text string) models.ContactInfo {
	var info models.ContactInfo

	lines := strings.Split(text, "\n")
	if text == "" {
		lines = nil
	}
	for i := range lines {
		lines[i] = strings.TrimRight(lines[i], "\r")
	}

	// The top line of a card is usually the person's name. Naive, but it is
	// the best positional signal available without layout data.
	if len(lines) > 0 && strings.TrimSpace(lines[0]) != "" {
		info.FullName = lines[0]
	}

	// Second and third lines are usually title or company. A short line that
	// is not an email or phone reads as a job title; failing that the second
	// line is taken as the company name. Never both from this block.
	if len(lines) >= 2 {
		// A blank line carries no name, so it cannot vouch for the lines
		// below it either; title selection needs a real, short line 0.
		if strings.TrimSpace(lines[0]) != "" && shortLine(lines[0]) {
			for _, candidate := range lines[1:min(3, len(lines))] {
				if strings.TrimSpace(candidate) == "" || !shortLine(candidate) {
					continue
				}
				if emailPattern.MatchString(candidate) || phonePattern.MatchString(candidate) {
					continue
				}
				info.JobTitle = candidate
				break
			}
		}
		if info.JobTitle == "" && strings.TrimSpace(lines[1]) != "" {
			info.CompanyName = lines[1]
		}
	}

	// Email and phone can appear anywhere. Every line is scanned and later
	// matches overwrite earlier ones.
	var addressLines []string
	for _, line := range lines {
		if match := emailPattern.FindString(line); match != "" {
			info.EmailAddress = match
		}
		if match := phonePattern.FindString(line); match != "" {
			info.PhoneNumber = match
		}
		if isAddressLine(line) {
			addressLines = append(addressLines, line)
		}
	}
	if len(addressLines) > 0 {
		info.PhysicalAddress = strings.Join(addressLines, ", ")
	}

	return info
}

// isAddressLine reports whether a line looks like part of a street address:
// long enough to carry one, mixing digits and letters, and not already
// claimed by the email or phone patterns.
func isAddressLine(line string) bool {
	if utf8.RuneCountInString(line) <= 10 {
		return false
	}
	if phonePattern.MatchString(line) || emailPattern.MatchString(line) {
		return false
	}
	hasDigit, hasLetter := false, false
	for _, r := range line {
		if unicode.IsDigit(r) {
			hasDigit = true
		}
		if unicode.IsLetter(r) {
			hasLetter = true
		}
	}
	return hasDigit && hasLetter
}

func shortLine(line string) bool {
	return utf8.RuneCountInString(line) < shortLineMax
}
