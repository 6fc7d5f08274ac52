package recordstore

import (
	"strings"
	"unicode"
)

// SelectIdentity picks the field used to decide whether an incoming row is already
// stored. The preferred field wins when both sides carry it; otherwise the first shared
// timestamp-like column, then an id column, then ImportTimestampField. Returns "" when
// the two sides share no identifying field.
func SelectIdentity(existing []string, incoming []Record, preferred string) string {
	shared := func(col string) bool {
		found := false
		for _, c := range existing {
			if c == col {
				found = true
				break
			}
		}
		if !found {
			return false
		}
		for _, rec := range incoming {
			if _, ok := rec[col]; ok {
				return true
			}
		}
		return false
	}

	if preferred != "" && shared(preferred) {
		return preferred
	}
	for _, col := range existing {
		if col != ImportTimestampField && isTimestampLike(col) && shared(col) {
			return col
		}
	}
	for _, col := range existing {
		if isIDLike(col) && shared(col) {
			return col
		}
	}
	if shared(ImportTimestampField) {
		return ImportTimestampField
	}
	return ""
}

func nameTokens(col string) []string {
	return strings.FieldsFunc(strings.ToLower(col), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func isTimestampLike(col string) bool {
	for _, tok := range nameTokens(col) {
		switch tok {
		case "date", "time", "timestamp", "datetime":
			return true
		}
	}
	return false
}

func isIDLike(col string) bool {
	lower := strings.ToLower(col)
	return lower == "id" || strings.HasSuffix(lower, "_id")
}

// dropKnown removes rows whose identity value is already present in existing. Empty
// values never match.
func dropKnown(existing []Record, incoming []Record, identity string) (kept []Record, skipped int) {
	if identity == "" {
		return incoming, 0
	}
	seen := make(map[string]struct{}, len(existing))
	for _, row := range existing {
		if v := strings.TrimSpace(row[identity]); v != "" {
			seen[v] = struct{}{}
		}
	}
	kept = make([]Record, 0, len(incoming))
	for _, rec := range incoming {
		v := strings.TrimSpace(rec[identity])
		if v != "" {
			if _, dup := seen[v]; dup {
				skipped++
				continue
			}
		}
		kept = append(kept, rec)
	}
	return kept, skipped
}
