// Package lexicon implements a deterministic document classifier scored
// over catalog-supplied keyword lexicons. It is the default stand-in for the
// classification capability: same input, same output, no network.
package lexicon

import (
	"context"
	"sort"
	"strings"

	"github.com/casebinder/casebinder/internal/core/domain"
)

// Filename cues are stronger evidence than body hits: users name files after
// what they are, while body text quotes other documents freely.
const (
	filenameWeight = 3.0
	textWeight     = 1.0
)

type Classifier struct {
	types    []domain.DocumentTypeID
	lexicons map[domain.DocumentTypeID][]string
	fallback domain.DocumentTypeID
}

// New builds a classifier over the catalog lexicons. fallback is the
// registered type assigned (with zero confidence) when nothing matches.
func New(lexicons map[domain.DocumentTypeID][]string, fallback domain.DocumentTypeID) *Classifier {
	types := make([]domain.DocumentTypeID, 0, len(lexicons))
	for dt := range lexicons {
		types = append(types, dt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return &Classifier{
		types:    types,
		lexicons: lexicons,
		fallback: fallback,
	}
}

func (c *Classifier) Classify(_ context.Context, input domain.ClassificationInput) (domain.DocumentTypeID, float64, error) {
	filename := strings.ToLower(input.Filename)
	text := strings.ToLower(input.Text)

	best := c.fallback
	bestScore, secondScore := 0.0, 0.0

	for _, dt := range c.types {
		keywords := c.lexicons[dt]
		score := scoreType(keywords, filename, text)
		if score > bestScore {
			secondScore = bestScore
			bestScore = score
			best = dt
		} else if score > secondScore {
			secondScore = score
		}
	}

	if bestScore == 0 {
		return c.fallback, 0, nil
	}
	return best, confidence(bestScore, secondScore), nil
}

// scoreType sums matched keyword weights normalized by the lexicon's total
// weight, so small and large lexicons compete fairly.
func scoreType(keywords []string, filename, text string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	var matched, total float64
	for _, kw := range keywords {
		kw = strings.ToLower(kw)
		total += filenameWeight + textWeight
		if strings.Contains(filename, kw) {
			matched += filenameWeight
		}
		if strings.Contains(text, kw) {
			matched += textWeight
		}
	}
	return matched / total
}

// confidence discounts the winner by how closely the runner-up scored; an
// ambiguous match must land under the review threshold.
func confidence(best, second float64) float64 {
	conf := best
	if second > 0 {
		conf *= 1 - 0.5*(second/best)
	}
	// A clear single-cue match should clear typical thresholds.
	conf = conf * 3
	if conf > 1 {
		conf = 1
	}
	return conf
}
