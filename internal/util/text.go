package util

import "strings"

// TruncateForLog trims s and cuts it to limit runes, appending an ellipsis when something was cut.
func TruncateForLog(s string, limit int) string {
	s = strings.TrimSpace(s)
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// OneLine collapses every whitespace run into a single space.
func OneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// MarkdownCell makes s safe to put into a single markdown table cell.
func MarkdownCell(s string, limit int) string {
	if limit > 0 {
		s = TruncateForLog(s, limit)
	}
	return strings.ReplaceAll(OneLine(s), "|", `\|`)
}
