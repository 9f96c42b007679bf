package templates

import (
	"strings"
	"time"
)

// PropagateRow is one measured graph shape.
type PropagateRow struct {
	Name                    string
	Avg, Min, P75, P99, Max time.Duration
}

func (r PropagateRow) cells() []string {
	return []string{
		r.Name,
		r.Avg.String(),
		r.Min.String(),
		r.P75.String(),
		r.P99.String(),
		r.Max.String(),
	}
}

func markdownRow(cells []string) string {
	var sb strings.Builder
	sb.WriteString("|")
	for _, c := range cells {
		sb.WriteString(" ")
		sb.WriteString(strings.ReplaceAll(c, "|", `\|`))
		sb.WriteString(" |")
	}
	return sb.String()
}

func markdownRule(count int) string {
	var sb strings.Builder
	sb.WriteString("|")
	for i := 0; i < count; i++ {
		sb.WriteString(" --- |")
	}
	return sb.String()
}
