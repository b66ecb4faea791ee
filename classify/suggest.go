package classify

import (
	"context"
	"errors"
	"math"
	"slices"
	"strings"

	"github.com/jbrukh/bayesian"

	"github.com/tallyreco/tds"
)

var ErrTooFewSections = errors.New("classify: need at least two cached sections to train a suggester")

// confidenceGap is how far the best log score must beat the runner-up
// before a suggestion is trusted.
const confidenceGap = 10

// Suggester is an offline Source: a naive bayes model over the words of
// cached ledger names. It only answers when the winning section clearly
// beats the runner-up, so a thin cache yields few suggestions rather than
// bad ones.
type Suggester struct {
	classifier *bayesian.Classifier
}

// NewSuggester trains on an existing normalized-ledger to section mapping.
func NewSuggester(cached map[string]string) (*Suggester, error) {
	sections := make(map[string]bool)
	for _, section := range cached {
		if section != tds.SectionNone {
			sections[section] = true
		}
	}
	if len(sections) < 2 {
		return nil, ErrTooFewSections
	}

	names := make([]string, 0, len(sections))
	for s := range sections {
		names = append(names, s)
	}
	slices.Sort(names)
	classes := make([]bayesian.Class, len(names))
	for i, s := range names {
		classes[i] = bayesian.Class(s)
	}

	classifier := bayesian.NewClassifier(classes...)
	keys := make([]string, 0, len(cached))
	for k := range cached {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, key := range keys {
		if section := cached[key]; section != tds.SectionNone {
			classifier.Learn(strings.Fields(key), bayesian.Class(section))
		}
	}
	return &Suggester{classifier: classifier}, nil
}

func (s *Suggester) Classify(_ context.Context, ledgers []string) (map[string]string, error) {
	out := make(map[string]string, len(ledgers))
	for _, name := range ledgers {
		if section, ok := s.Suggest(name); ok {
			out[name] = section
		}
	}
	return out, nil
}

// Suggest returns a section for the ledger name, or false when no class
// wins decisively.
func (s *Suggester) Suggest(name string) (string, bool) {
	words := strings.Fields(tds.NormalizeLedger(name))
	if len(words) == 0 {
		return "", false
	}
	scores, _, _ := s.classifier.LogScores(words)

	best, secondBest := math.Inf(-1), math.Inf(-1)
	bestIdx := 0
	for i, score := range scores {
		if score > best {
			secondBest = best
			best = score
			bestIdx = i
		} else if score > secondBest {
			secondBest = score
		}
	}
	if best-secondBest <= confidenceGap {
		return "", false
	}
	return string(s.classifier.Classes[bestIdx]), true
}
