package address

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const divisionRunes = "省市区县"

// TrimAdministrative collapses a division run (segments ending in 省, 市, 区
// or 县) that upstream concatenation duplicated. Only two shapes collapse:
// the leading run starting over ("江西省南昌市江西省南昌市…") and a segment
// repeated back to back ("南昌市南昌市…"). The first such repeat is dropped
// and everything after it is kept verbatim.
func TrimAdministrative(s string) string {
	segments, tail := splitDivisions(s)
	k, n := repeatedRun(segments)
	if n == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i, seg := range segments {
		if i >= k && i < k+n {
			continue
		}
		b.WriteString(seg)
	}
	b.WriteString(tail)
	return b.String()
}

// repeatedRun locates the first segment that repeats an earlier one and
// returns its index and how many segments to drop, or 0 when the repeat is
// neither a restart of the leading run nor a back-to-back duplicate.
func repeatedRun(segments []string) (int, int) {
	first := make(map[string]int, len(segments))
	for k, seg := range segments {
		// single division runes ("区区") are too short to be a duplicated prefix
		if utf8.RuneCountInString(seg) < 2 {
			continue
		}
		m, dup := first[seg]
		if !dup {
			first[seg] = k
			continue
		}
		switch {
		case m == 0:
			n := 1
			for k+n < len(segments) && n < k && segments[k+n] == segments[n] {
				n++
			}
			return k, n
		case m == k-1:
			return k, 1
		default:
			return 0, 0
		}
	}
	return 0, 0
}

func splitDivisions(s string) ([]string, string) {
	var segments []string
	start := 0
	for i, r := range s {
		if strings.ContainsRune(divisionRunes, r) {
			end := i + utf8.RuneLen(r)
			segments = append(segments, s[start:end])
			start = end
		}
	}
	return segments, s[start:]
}

// LongestCommonSubstring returns the longest rune-wise common substring of
// a and b; ties resolve to the earliest end position in a.
func LongestCommonSubstring(a, b string) string {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 || len(rb) == 0 {
		return ""
	}
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	best, bestEnd := 0, 0
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] != rb[j-1] {
				cur[j] = 0
				continue
			}
			cur[j] = prev[j-1] + 1
			if cur[j] > best {
				best = cur[j]
				bestEnd = i
			}
		}
		prev, cur = cur, prev
	}
	return string(ra[bestEnd-best : bestEnd])
}

// Location terminators in priority order: schools, industrial parks,
// residential complexes, then towns.
var terminatorClasses = [][]string{
	{"大学", "学院", "学校", "中学", "小学", "幼儿园", "校区", "职校", "技校"},
	{"工业园", "产业园", "科技园", "工业区", "开发区", "园区"},
	{"小区", "花园", "公寓", "宿舍", "家园", "新村", "大厦", "广场", "公馆", "社区", "大院", "苑"},
	{"街道", "镇", "乡"},
}

var (
	educationalPattern = regexp.MustCompile(`大学|学院|学校|中学|小学|幼儿园|校区|农大|师大|医大|职院|职校|技校`)
	leadingBuilding    = regexp.MustCompile(`^\d+(?:栋|号楼)`)
	trailingBuilding   = regexp.MustCompile(`\d+(?:栋|号楼)$`)
)

// extendToTerminator cuts text right after the nearest terminator that ends
// at or beyond the common base, searching classes in priority order. Text
// without a qualifying terminator is kept whole.
func extendToTerminator(text, base string) string {
	idx := strings.Index(text, base)
	if idx < 0 {
		return text
	}
	baseEnd := idx + len(base)
	for _, class := range terminatorClasses {
		best := -1
		for _, tok := range class {
			if end := firstEndAtOrAfter(text, tok, idx, baseEnd); end >= 0 && (best < 0 || end < best) {
				best = end
			}
		}
		if best >= 0 {
			return text[:best]
		}
	}
	return text
}

// firstEndAtOrAfter finds the first occurrence of tok starting at or after
// from whose end is >= minEnd, returning that end or -1.
func firstEndAtOrAfter(text, tok string, from, minEnd int) int {
	for off := from; off < len(text); {
		j := strings.Index(text[off:], tok)
		if j < 0 {
			return -1
		}
		end := off + j + len(tok)
		if end >= minEnd {
			return end
		}
		off = end
	}
	return -1
}

func isEducational(s string) bool {
	return educationalPattern.MatchString(s)
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
