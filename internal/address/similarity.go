package address

import (
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/mozillazg/go-unidecode"
	"github.com/xrash/smetrics"

	"github.com/spec-kit/repeat-complaints/internal/config"
)

// Scorer rates the similarity of two strings on a 0-100 scale.
type Scorer func(a, b string) float64

// NewScorer returns the scorer for a configured metric name.
func NewScorer(metric string) (Scorer, error) {
	switch metric {
	case "", config.MetricLevenshtein:
		return LevenshteinRatio, nil
	case config.MetricJaroWinkler:
		return JaroWinklerRatio, nil
	default:
		return nil, fmt.Errorf("unknown similarity metric %q", metric)
	}
}

// LevenshteinRatio is 100 * (1 - distance / longer length), measured in runes.
func LevenshteinRatio(a, b string) float64 {
	if a == b {
		return 100
	}
	longer := runeLen(a)
	if n := runeLen(b); n > longer {
		longer = n
	}
	if longer == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(d)/float64(longer))
}

// JaroWinklerRatio compares transliterated forms, so Han text is scored on
// its romanisation rather than raw UTF-8 bytes.
func JaroWinklerRatio(a, b string) float64 {
	if a == b {
		return 100
	}
	ta, tb := transliterate(a), transliterate(b)
	if ta == "" || tb == "" {
		return 0
	}
	return 100 * smetrics.JaroWinkler(ta, tb, 0.7, 4)
}

func transliterate(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(unidecode.Unidecode(s))), " ")
}
