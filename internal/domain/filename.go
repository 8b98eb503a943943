package domain

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ReportFilename returns the document filename for a project:
// <client>_<project number>_<report type>_<YYYYMMDD>.docx.
func ReportFilename(p Project, at time.Time) string {
	parts := []string{
		filenamePart(p.ClientName, "Client"),
		filenamePart(p.ProjectNumber, "Project"),
		filenamePart(p.ReportType, "Report"),
		at.Format("20060102"),
	}
	return strings.Join(parts, "_") + ".docx"
}

// filenamePart folds s to ASCII and replaces characters that are unsafe in a
// filename. Blank values fall back to def.
func filenamePart(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	for _, r := range folded {
		switch {
		case r == ' ':
			b.WriteByte('_')
		case r == '/' || r == '\\' || r == ':':
			b.WriteByte('-')
		case r > unicode.MaxASCII || !unicode.IsPrint(r):
			// dropped
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return def
	}
	return b.String()
}
