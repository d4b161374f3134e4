// Package contextfmt renders a changelog segment into the compact text
// block consumed by the downstream report generator.
package contextfmt

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/adstate-project/adstate/internal/changelog"
)

const (
	header = "=== PREVIOUS CHANGES & CONTEXT ==="
	footer = "=== END OF PREVIOUS CHANGES ==="
)

var printer = message.NewPrinter(language.English)

// Format renders the most recent maxEntries entries. Input must already be
// ordered by DetectedAt ascending (the changelog store's Read order); the
// window keeps that order. maxEntries <= 0 means no limit. Pure and
// deterministic: same entries, same string.
func Format(entries []changelog.Entry, maxEntries int) string {
	if len(entries) == 0 {
		return ""
	}

	omitted := 0
	if maxEntries > 0 && len(entries) > maxEntries {
		omitted = len(entries) - maxEntries
		entries = entries[omitted:]
	}

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString("\n\n")
	for _, e := range entries {
		sb.WriteString("[")
		sb.WriteString(e.DetectedAt.UTC().Format("2006-01-02"))
		sb.WriteString("] (")
		sb.WriteString(string(e.Source))
		sb.WriteString(") ")
		sb.WriteString(e.Text)
		sb.WriteString("\n")
	}
	if omitted > 0 {
		sb.WriteString(printer.Sprintf("(%d earlier entries omitted)\n", omitted))
	}
	sb.WriteString("\n")
	sb.WriteString(footer)
	sb.WriteString("\n")
	return sb.String()
}
