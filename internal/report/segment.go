package report

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/codeOCE/MBSync/internal/inventory"
)

// DefaultMaxDataColumns is the widest numeric run a report row carries.
const DefaultMaxDataColumns = 7

// Segments is a row split into its three parts. Data holds cleaned numeric
// strings left to right, with "0" for dash placeholders.
type Segments struct {
	Category inventory.StorageCategory
	Tag      string
	Data     []string
	Name     []string
}

// Segment splits a row's tokens (identifier excluded) into storage tag,
// trailing data block and descriptive name. It knows nothing about what the
// data columns mean.
func Segment(tokens []string, maxData int) Segments {
	if maxData <= 0 {
		maxData = DefaultMaxDataColumns
	}
	seg := Segments{Category: inventory.CategoryUnknown}
	rest := tokens

	if n := len(rest); n > 0 && isStorageTag(rest[n-1]) {
		tag := rest[n-1]
		rest = rest[:n-1]
		// The category column can render "Manual Items" as two tokens.
		if strings.EqualFold(tag, "items") && len(rest) > 0 && strings.EqualFold(rest[len(rest)-1], "manual") {
			tag = rest[len(rest)-1] + " " + tag
			rest = rest[:len(rest)-1]
		}
		seg.Tag = tag
		seg.Category = inventory.ParseStorageCategory(tag)
	}

	// Scan right to left. Non-data tokens before the run starts belong to
	// the name; the first one after it ends the run.
	var data []string
	end := -1 // index of the first token left of the run
	i := len(rest) - 1
	for ; i >= 0; i-- {
		if len(data) == maxData {
			break
		}
		v, ok := dataValue(rest[i])
		if !ok {
			if len(data) > 0 {
				break
			}
			continue
		}
		if len(data) == 0 {
			end = i
		}
		data = append(data, v)
	}

	if len(data) == 0 {
		seg.Name = append([]string(nil), rest...)
		return seg
	}

	start := i + 1
	for l, r := 0, len(data)-1; l < r; l, r = l+1, r-1 {
		data[l], data[r] = data[r], data[l]
	}
	seg.Data = data
	seg.Name = append(append([]string(nil), rest[:start]...), rest[end+1:]...)
	return seg
}

// isStorageTag reports whether a trailing token is a category tag rather
// than a number or placeholder.
func isStorageTag(tok string) bool {
	if utf8.RuneCountInString(tok) <= 1 {
		return false
	}
	return !isNumberLike(tok)
}

// isNumberLike reports whether tok is made only of digits, decimal points,
// thousands separators and dashes.
func isNumberLike(tok string) bool {
	if isDash(tok) {
		return true
	}
	residue := strings.TrimFunc(strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) || r == '.' || r == ',' || isDashRune(r) {
			return -1
		}
		return r
	}, tok), unicode.IsSpace)
	return residue == ""
}

// dataValue returns the cleaned numeric string for a data token. Tokens
// with letters in them (unit suffixes, pack sizes) are never data.
func dataValue(tok string) (string, bool) {
	if isDash(tok) {
		return "0", true
	}
	var sb strings.Builder
	hasDigit := false
	for i, r := range tok {
		switch {
		case unicode.IsLetter(r):
			return "", false
		case unicode.IsDigit(r):
			hasDigit = true
			sb.WriteRune(r)
		case r == '.':
			sb.WriteRune(r)
		case i == 0 && isDashRune(r):
			sb.WriteByte('-')
		}
	}
	if !hasDigit {
		return "", false
	}
	v := sb.String()
	if _, err := parseDecimal(v); err != nil {
		return "", false
	}
	return v, true
}

func isDash(tok string) bool {
	if tok == "" {
		return false
	}
	for _, r := range tok {
		if !isDashRune(r) {
			return false
		}
	}
	return true
}

func isDashRune(r rune) bool {
	switch r {
	case '-', '‐', '‒', '–', '—', '−':
		return true
	}
	return false
}
