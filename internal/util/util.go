package util

import "strings"

// QuotedTextList renders items as a quoted, comma-separated English list
// joined by conj before the final element ("a", "b", or "c") -- used for
// operator-facing diagnostics that enumerate known names. The input slice
// is not modified.
func QuotedTextList(items []string, conj string) string {
	quoted := make([]string, len(items))
	for i, it := range items {
		quoted[i] = `"` + it + `"`
	}

	switch len(quoted) {
	case 0:
		return ""
	case 1:
		return quoted[0]
	case 2:
		return quoted[0] + " " + conj + " " + quoted[1]
	default:
		return strings.Join(quoted[:len(quoted)-1], ", ") + ", " + conj + " " + quoted[len(quoted)-1]
	}
}
