package address

import (
	"fmt"

	"github.com/spec-kit/repeat-complaints/internal/domain"
)

// FuzzyClusterer groups observations whose pairwise similarity reaches the
// threshold and reports the best supported clusters.
type FuzzyClusterer struct {
	opts      Options
	score     Scorer
	sentinels map[string]struct{}
}

// NewFuzzyClusterer builds the fuzzy strategy for the configured metric.
func NewFuzzyClusterer(opts Options) (*FuzzyClusterer, error) {
	opts = opts.normalized()
	score, err := NewScorer(opts.Metric)
	if err != nil {
		return nil, err
	}
	return &FuzzyClusterer{
		opts:      opts,
		score:     score,
		sentinels: sentinelSet(append([]string{"无"}, opts.ExtraSentinels...)...),
	}, nil
}

// Strategy implements Clusterer.
func (f *FuzzyClusterer) Strategy() domain.ConsensusStrategy {
	return domain.StrategyFuzzy
}

// Cluster implements Clusterer. Each round every remaining candidate anchors
// a cluster of the candidates scoring at or above the threshold against it;
// the cluster with the most observations wins (then the longer
// representative, then the earlier anchor), is emitted and removed.
func (f *FuzzyClusterer) Cluster(observations []string) (domain.ConsensusResult, error) {
	p := preparePool(observations, f.sentinels)
	if len(p.kept) == 0 {
		return domain.NoDataResult(domain.StrategyFuzzy), nil
	}
	if len(p.kept) > f.opts.MaxCandidates {
		return domain.ConsensusResult{}, fmt.Errorf("fuzzy clustering: %d distinct observations exceed limit %d", len(p.kept), f.opts.MaxCandidates)
	}

	cands := p.kept
	similar := f.similarityMatrix(cands)
	remaining := make([]int, len(cands))
	for i := range remaining {
		remaining[i] = i
	}

	var reps []representative
	for len(remaining) > 0 {
		var (
			bestMembers []int
			bestSupport int
			bestRep     int
			bestAnchor  = -1
		)
		for _, anchor := range remaining {
			members := make([]int, 0, len(remaining))
			support := 0
			rep := anchor
			for _, other := range remaining {
				if other != anchor && !similar[anchor][other] {
					continue
				}
				members = append(members, other)
				support += cands[other].count
				if runeLen(cands[other].text) > runeLen(cands[rep].text) {
					rep = other
				}
			}
			better := bestAnchor < 0 ||
				support > bestSupport ||
				(support == bestSupport && runeLen(cands[rep].text) > runeLen(cands[bestRep].text))
			if better {
				bestMembers, bestSupport, bestRep, bestAnchor = members, support, rep, anchor
			}
		}

		reps = append(reps, representative{
			text:    cands[bestRep].text,
			support: bestSupport,
			first:   cands[bestAnchor].first,
		})
		remaining = without(remaining, bestMembers)
	}
	return finish(domain.StrategyFuzzy, reps, f.opts.MaxAddresses), nil
}

func (f *FuzzyClusterer) similarityMatrix(cands []candidate) [][]bool {
	m := make([][]bool, len(cands))
	for i := range m {
		m[i] = make([]bool, len(cands))
	}
	for i := range cands {
		m[i][i] = true
		for j := i + 1; j < len(cands); j++ {
			ok := f.score(cands[i].text, cands[j].text) >= f.opts.Threshold
			m[i][j], m[j][i] = ok, ok
		}
	}
	return m
}

func without(set, drop []int) []int {
	dropped := make(map[int]struct{}, len(drop))
	for _, d := range drop {
		dropped[d] = struct{}{}
	}
	out := set[:0:0]
	for _, v := range set {
		if _, ok := dropped[v]; !ok {
			out = append(out, v)
		}
	}
	return out
}
