package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// sentinels are whole-value placeholders the upstream exports use for "empty".
var sentinels = map[string]struct{}{
	"无":    {},
	"none": {},
	"null": {},
	"nil":  {},
	"nan":  {},
	"-":    {},
	"/":    {},
}

// IsSentinel reports whether s is a placeholder rather than content.
func IsSentinel(s string) bool {
	_, ok := sentinels[strings.ToLower(strings.TrimSpace(s))]
	return ok
}

// CleanText folds compatibility forms (full-width digits and letters),
// drops control and format characters, collapses whitespace and maps
// sentinel values to "". Sentinel words inside longer text are kept.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	s = norm.NFKC.String(s)

	var b strings.Builder
	b.Grow(len(s))
	pendingSpace := false
	for _, r := range s {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = true
			continue
		case unicode.IsControl(r), unicode.Is(unicode.Cf, r), r == unicode.ReplacementChar:
			continue
		}
		if pendingSpace && b.Len() > 0 {
			b.WriteByte(' ')
		}
		pendingSpace = false
		b.WriteRune(r)
	}

	out := b.String()
	if IsSentinel(out) {
		return ""
	}
	return out
}
