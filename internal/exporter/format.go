package exporter

import "time"

// formatTime renders an optional timestamp; unset values export as an
// empty cell rather than a zero date.
func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatStamp(*t)
}

// formatStamp renders timestamps as RFC 3339 UTC so exports re-import
// cleanly regardless of the spreadsheet locale.
func formatStamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
