package address

import (
	"strings"

	"github.com/spec-kit/repeat-complaints/internal/domain"
)

// substringSentinels are the placeholders the substring strategy discards.
func substringSentinels(extra []string) map[string]struct{} {
	return sentinelSet(append([]string{"无", "未联系到用户"}, extra...)...)
}

// SubstringClusterer finds the longest substring shared by the competing
// observations and grows it into a complete location per candidate.
type SubstringClusterer struct {
	opts      Options
	sentinels map[string]struct{}
}

// NewSubstringClusterer builds the substring strategy.
func NewSubstringClusterer(opts Options) *SubstringClusterer {
	opts = opts.normalized()
	return &SubstringClusterer{opts: opts, sentinels: substringSentinels(opts.ExtraSentinels)}
}

// Strategy implements Clusterer.
func (s *SubstringClusterer) Strategy() domain.ConsensusStrategy {
	return domain.StrategySubstring
}

// Cluster implements Clusterer.
func (s *SubstringClusterer) Cluster(observations []string) (domain.ConsensusResult, error) {
	p := preparePool(observations, s.sentinels)
	if len(p.kept) == 0 {
		return domain.NoDataResult(domain.StrategySubstring), nil
	}

	base := commonBase(p.kept, s.opts.MinCommonLength)
	reps := make([]representative, 0, len(p.kept))
	for _, c := range p.kept {
		text := c.text
		if base != "" {
			text = extendToTerminator(text, base)
			if isEducational(text) {
				text = appendBuildingSuffix(text, p.all)
			}
		}
		reps = append(reps, representative{text: text, support: c.count, first: c.first})
	}
	return finish(domain.StrategySubstring, reps, s.opts.MaxAddresses), nil
}

// commonBase reduces the candidates left to right with
// LongestCommonSubstring; it returns "" once the shared part is too short.
func commonBase(cands []candidate, minLen int) string {
	base := cands[0].text
	for _, c := range cands[1:] {
		base = LongestCommonSubstring(base, c.text)
		if runeLen(base) < minLen {
			return ""
		}
	}
	if runeLen(base) < minLen {
		return ""
	}
	return base
}

// appendBuildingSuffix adds the building number most often written right
// after rep (e.g. "3栋") unless rep already ends with one.
func appendBuildingSuffix(rep string, all []candidate) string {
	if trailingBuilding.MatchString(rep) {
		return rep
	}
	type tally struct {
		count int
		first int
	}
	suffixes := make(map[string]*tally)
	for _, c := range all {
		idx := strings.Index(c.text, rep)
		if idx < 0 {
			continue
		}
		suffix := leadingBuilding.FindString(c.text[idx+len(rep):])
		if suffix == "" {
			continue
		}
		if t, ok := suffixes[suffix]; ok {
			t.count += c.count
			continue
		}
		suffixes[suffix] = &tally{count: c.count, first: c.first}
	}

	best := ""
	var bestTally *tally
	for suffix, t := range suffixes {
		switch {
		case bestTally == nil,
			t.count > bestTally.count,
			t.count == bestTally.count && runeLen(suffix) > runeLen(best),
			t.count == bestTally.count && runeLen(suffix) == runeLen(best) && t.first < bestTally.first:
			best, bestTally = suffix, t
		}
	}
	return rep + best
}
