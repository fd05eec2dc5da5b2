package schedule

import (
	"regexp"
	"strings"
)

// lineBreakRe splits feed text on Windows and Unix line endings.
var lineBreakRe = regexp.MustCompile(`\r?\n`)

// ParseLine splits one comma-delimited line into fields.
// A double quote toggles quoted mode; commas inside quotes are kept.
// An unterminated quote swallows the rest of the line. Doubled quotes
// are not treated as escapes.
func ParseLine(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	fields = append(fields, cur.String())

	for i, f := range fields {
		fields[i] = cleanField(f)
	}
	return fields
}

// cleanField strips one leading and one trailing quote, then surrounding whitespace.
func cleanField(f string) string {
	f = strings.TrimPrefix(f, `"`)
	f = strings.TrimSuffix(f, `"`)
	return strings.TrimSpace(f)
}

// SplitRows parses a whole feed document into rows of fields.
// Blank lines are dropped.
func SplitRows(text string) [][]string {
	var rows [][]string
	for _, line := range lineBreakRe.Split(text, -1) {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rows = append(rows, ParseLine(line))
	}
	return rows
}
