package estimate

import (
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatMoney renders a dollar amount for notes, emails and documents, e.g. "$1,250,000.00".
func FormatMoney(value float64) string {
	s := humanize.FormatFloat("#,###.##", RoundCents(value))
	if strings.HasPrefix(s, "-") {
		return "-$" + s[1:]
	}
	return "$" + s
}

// ActivityLabels maps catalog IDs to their labels, skipping unknown IDs.
func ActivityLabels(ids []string) []string {
	labels := make([]string, 0, len(ids))
	for _, id := range ids {
		if a, ok := LookupActivity(id); ok {
			labels = append(labels, a.Label)
		}
	}
	return labels
}
