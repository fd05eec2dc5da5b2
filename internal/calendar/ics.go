package calendar

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/meltforce/racecountdown/internal/plan"
)

const (
	icsDateLayout  = "20060102"
	icsStampLayout = "20060102T150405Z"
	maxLineOctets  = 75
)

// ICS renders events as an iCalendar document of all-day entries.
func ICS(name string, events []Event, stamp time.Time) string {
	var b strings.Builder

	b.WriteString("BEGIN:VCALENDAR\r\n")
	b.WriteString("VERSION:2.0\r\n")
	b.WriteString("PRODID:-//racecountdown//Training Schedule//EN\r\n")
	b.WriteString("CALSCALE:GREGORIAN\r\n")
	b.WriteString("METHOD:PUBLISH\r\n")
	b.WriteString(formatProperty("X-WR-CALNAME", name))

	dtstamp := stamp.UTC().Format(icsStampLayout)
	for _, e := range events {
		b.WriteString("BEGIN:VEVENT\r\n")
		fmt.Fprintf(&b, "UID:%s\r\n", e.UID)
		fmt.Fprintf(&b, "DTSTAMP:%s\r\n", dtstamp)
		fmt.Fprintf(&b, "DTSTART;VALUE=DATE:%s\r\n", e.Date.Format(icsDateLayout))
		fmt.Fprintf(&b, "DTEND;VALUE=DATE:%s\r\n", plan.AddDays(e.Date, 1).Format(icsDateLayout))
		b.WriteString(formatProperty("SUMMARY", e.Summary))
		if e.Description != "" {
			b.WriteString(formatProperty("DESCRIPTION", e.Description))
		}
		b.WriteString("TRANSP:TRANSPARENT\r\n")
		b.WriteString("CATEGORIES:Training\r\n")
		b.WriteString("END:VEVENT\r\n")
	}

	b.WriteString("END:VCALENDAR\r\n")
	return b.String()
}

// escapeText escapes TEXT values.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, "\r\n", "\\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// foldLine splits a content line into 75-octet chunks joined by CRLF and a
// leading space, never cutting a UTF-8 sequence.
func foldLine(line string) string {
	var b strings.Builder
	limit := maxLineOctets
	for len(line) > limit {
		cut := limit
		for cut > 0 && !utf8.RuneStart(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		limit = maxLineOctets - 1
	}
	b.WriteString(line)
	return b.String()
}

func formatProperty(property, value string) string {
	return foldLine(property+":"+escapeText(value)) + "\r\n"
}
