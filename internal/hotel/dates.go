package hotel

import (
	"strings"
	"time"
)

const (
	listingDateLayout = "02/01/2006"
	recordDateLayout  = "2006-01-02"
)

var acceptedDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	recordDateLayout,
	listingDateLayout,
}

// formatListingDate renders a service timestamp as dd/mm/yyyy. Values that do
// not parse are returned unchanged.
func formatListingDate(value string) string {
	return reformatDate(value, listingDateLayout)
}

// formatRecordDate renders a service timestamp as yyyy-mm-dd for edit forms.
func formatRecordDate(value string) string {
	return reformatDate(value, recordDateLayout)
}

func reformatDate(value string, layout string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return value
	}
	for _, accepted := range acceptedDateLayouts {
		parsed, err := time.Parse(accepted, trimmed)
		if err == nil {
			return parsed.UTC().Format(layout)
		}
	}
	return value
}
