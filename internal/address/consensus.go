// Package address reduces noisy free-text location observations to a few
// canonical addresses.
package address

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/spec-kit/repeat-complaints/internal/config"
	"github.com/spec-kit/repeat-complaints/internal/domain"
)

// ErrClusterPanic wraps a recovered panic from a clusterer.
var ErrClusterPanic = errors.New("address clustering panicked")

// Clusterer turns one group's observations into a ranked consensus.
type Clusterer interface {
	Strategy() domain.ConsensusStrategy
	Cluster(observations []string) (domain.ConsensusResult, error)
}

// Options tune both strategies.
type Options struct {
	MaxAddresses    int
	MinCommonLength int
	Threshold       float64
	Metric          string
	// MaxCandidates bounds the pairwise work of the fuzzy strategy.
	MaxCandidates  int
	ExtraSentinels []string
}

// DefaultOptions mirrors config.DefaultAnalysis.
func DefaultOptions() Options {
	return Options{
		MaxAddresses:    3,
		MinCommonLength: 4,
		Threshold:       80,
		Metric:          config.MetricLevenshtein,
		MaxCandidates:   2000,
	}
}

// OptionsFrom derives clusterer options from pipeline configuration.
func OptionsFrom(cfg config.AnalysisConfig, schema config.Schema) Options {
	opts := DefaultOptions()
	opts.MaxAddresses = cfg.MaxAddresses
	opts.Threshold = cfg.SimilarityThreshold
	opts.Metric = cfg.SimilarityMetric
	opts.ExtraSentinels = schema.ExtraSentinels
	return opts
}

func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.MaxAddresses <= 0 {
		o.MaxAddresses = def.MaxAddresses
	}
	if o.MinCommonLength <= 0 {
		o.MinCommonLength = def.MinCommonLength
	}
	if o.MaxCandidates <= 0 {
		o.MaxCandidates = def.MaxCandidates
	}
	return o
}

// NewClusterer builds the clusterer for a strategy name.
func NewClusterer(strategy string, opts Options) (Clusterer, error) {
	switch domain.ConsensusStrategy(strategy) {
	case domain.StrategySubstring:
		return NewSubstringClusterer(opts), nil
	case domain.StrategyFuzzy:
		return NewFuzzyClusterer(opts)
	case domain.StrategyFrequency:
		return frequencyClusterer{opts: opts.normalized()}, nil
	default:
		return nil, fmt.Errorf("unknown consensus strategy %q", strategy)
	}
}

// Resolve runs c and isolates failures: an error or panic degrades to
// FrequencyRank, and the returned error is informational only.
func Resolve(c Clusterer, observations []string, opts Options) (res domain.ConsensusResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrClusterPanic, r)
			res = FrequencyRank(observations, opts)
			res.Fallback = true
		}
	}()
	res, err = c.Cluster(observations)
	if err != nil {
		res = FrequencyRank(observations, opts)
		res.Fallback = true
		return res, err
	}
	return res, nil
}

// FrequencyRank ranks cleaned observations by how often they repeat.
func FrequencyRank(observations []string, opts Options) domain.ConsensusResult {
	opts = opts.normalized()
	p := preparePool(observations, substringSentinels(opts.ExtraSentinels))
	if len(p.kept) == 0 {
		return domain.NoDataResult(domain.StrategyFrequency)
	}
	reps := make([]representative, 0, len(p.kept))
	for _, c := range p.kept {
		reps = append(reps, representative{text: c.text, support: c.count, first: c.first})
	}
	return finish(domain.StrategyFrequency, reps, opts.MaxAddresses)
}

type frequencyClusterer struct {
	opts Options
}

func (f frequencyClusterer) Strategy() domain.ConsensusStrategy { return domain.StrategyFrequency }

func (f frequencyClusterer) Cluster(observations []string) (domain.ConsensusResult, error) {
	return FrequencyRank(observations, f.opts), nil
}

// candidate is one distinct canonical observation.
type candidate struct {
	text  string
	count int
	first int
}

type pool struct {
	// all holds every usable candidate, kept only those that compete.
	all  []candidate
	kept []candidate
}

// preparePool drops sentinels, trims duplicated divisions and tallies. When
// anything repeats, candidates seen once no longer compete.
func preparePool(observations []string, sentinel map[string]struct{}) pool {
	index := make(map[string]int)
	var p pool
	for i, raw := range observations {
		text := strings.TrimSpace(raw)
		if _, skip := sentinel[text]; skip || text == "" {
			continue
		}
		text = TrimAdministrative(text)
		if j, ok := index[text]; ok {
			p.all[j].count++
			continue
		}
		index[text] = len(p.all)
		p.all = append(p.all, candidate{text: text, count: 1, first: i})
	}

	repeated := false
	for _, c := range p.all {
		if c.count >= 2 {
			repeated = true
			break
		}
	}
	if !repeated {
		p.kept = p.all
		return p
	}
	for _, c := range p.all {
		if c.count >= 2 {
			p.kept = append(p.kept, c)
		}
	}
	return p
}

type representative struct {
	text    string
	support int
	first   int
}

// finish merges identical representatives, folds each representative
// contained in a more specific one into it, then ranks and caps the list.
func finish(strategy domain.ConsensusStrategy, reps []representative, limit int) domain.ConsensusResult {
	merged := foldContained(mergeRepresentatives(reps))
	sort.SliceStable(merged, func(a, b int) bool {
		if merged[a].support != merged[b].support {
			return merged[a].support > merged[b].support
		}
		if la, lb := runeLen(merged[a].text), runeLen(merged[b].text); la != lb {
			return la > lb
		}
		return merged[a].first < merged[b].first
	})

	res := domain.ConsensusResult{Strategy: strategy}
	for _, r := range merged {
		res.Addresses = append(res.Addresses, r.text)
		res.Support = append(res.Support, r.support)
		if len(res.Addresses) == limit {
			break
		}
	}
	if len(res.Addresses) == 0 {
		return domain.NoDataResult(strategy)
	}
	return res
}

func mergeRepresentatives(reps []representative) []representative {
	index := make(map[string]int, len(reps))
	out := make([]representative, 0, len(reps))
	for _, r := range reps {
		if r.text == "" {
			continue
		}
		if j, ok := index[r.text]; ok {
			out[j].support += r.support
			if r.first < out[j].first {
				out[j].first = r.first
			}
			continue
		}
		index[r.text] = len(out)
		out = append(out, r)
	}
	return out
}

// foldContained hands the support of every representative that is a strict
// substring of another to its best-supported container, shortest first, so
// chains collapse into the most specific text. Only representatives contained
// in no other survive.
func foldContained(reps []representative) []representative {
	order := make([]int, len(reps))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return len(reps[order[a]].text) < len(reps[order[b]].text)
	})

	folded := make([]bool, len(reps))
	for _, i := range order {
		host := -1
		for j := range reps {
			if j == i || folded[j] || len(reps[j].text) <= len(reps[i].text) || !strings.Contains(reps[j].text, reps[i].text) {
				continue
			}
			if host < 0 || betterHost(reps[j], reps[host]) {
				host = j
			}
		}
		if host < 0 {
			continue
		}
		reps[host].support += reps[i].support
		if reps[i].first < reps[host].first {
			reps[host].first = reps[i].first
		}
		folded[i] = true
	}

	out := reps[:0:0]
	for i, r := range reps {
		if !folded[i] {
			out = append(out, r)
		}
	}
	return out
}

func betterHost(a, b representative) bool {
	if a.support != b.support {
		return a.support > b.support
	}
	if la, lb := runeLen(a.text), runeLen(b.text); la != lb {
		return la > lb
	}
	return a.first < b.first
}

func sentinelSet(values ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[strings.TrimSpace(v)] = struct{}{}
	}
	return set
}
