package report

import (
	"regexp"
	"strings"
)

// Row is a candidate data row: the identifier and the remaining tokens.
type Row struct {
	ID     string
	Tokens []string
}

var (
	idPattern = regexp.MustCompile(`^\d{4,8}$`)

	metadataPattern = regexp.MustCompile(
		`(?i)^(page|store|report|date|time|printed|run\s+date)\b|\bpage\s+\d+\s+of\s+\d+\b`,
	)
	headerPattern = regexp.MustCompile(`(?i)\bwrin\b.*\b(description|qty|quantity)\b`)
)

// Classify decides whether a reconstructed line is a data row. A leading
// 4–8 digit token is taken as the identifier even when it is really a
// date or another number; the report format gives nothing to tell them
// apart.
func Classify(line string) (Row, bool) {
	line = strings.TrimSpace(line)
	if line == "" || metadataPattern.MatchString(line) || headerPattern.MatchString(line) {
		return Row{}, false
	}
	tokens := strings.Fields(line)
	if len(tokens) < 3 || !idPattern.MatchString(tokens[0]) {
		return Row{}, false
	}
	return Row{ID: tokens[0], Tokens: tokens[1:]}, true
}
