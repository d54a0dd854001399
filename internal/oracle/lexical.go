// Package oracle provides built-in oracle implementations for the engine.
// The engine itself only depends on the interfaces in internal/engine; the
// implementations here exist so the CLI can form batches without a remote
// judging service. Any conforming implementation can be injected instead.
package oracle

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/dyluth/drey/pkg/batch"
)

// DefaultRelatedThreshold is the overlap score at which the lexical oracle
// judges a pair related.
const DefaultRelatedThreshold = 0.3

// stopwords are excluded from token overlap so boilerplate words do not
// inflate similarity between unrelated issues.
var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "this": true,
	"that": true, "when": true, "from": true, "not": true, "are": true,
	"was": true, "but": true, "have": true, "has": true, "does": true,
	"should": true, "would": true, "can": true, "cannot": true, "after": true,
	"before": true, "into": true, "over": true, "then": true, "than": true,
}

// Lexical is a deterministic, rule-based similarity oracle built on token
// and label overlap. It never errors and never calls out of process, which
// keeps CLI runs reproducible.
type Lexical struct {
	// RelatedThreshold is the minimum score to judge a pair related.
	// Zero means DefaultRelatedThreshold.
	RelatedThreshold float64
}

// NewLexical creates a lexical oracle with the default related threshold.
func NewLexical() *Lexical {
	return &Lexical{RelatedThreshold: DefaultRelatedThreshold}
}

// Compare judges two issues by the Jaccard overlap of their title/body
// tokens, blended with label overlap when both issues carry labels.
func (l *Lexical) Compare(_ context.Context, a, b batch.Issue) (batch.SimilarityJudgment, error) {
	threshold := l.RelatedThreshold
	if threshold == 0 {
		threshold = DefaultRelatedThreshold
	}

	tokensA := tokenize(a.Title + " " + a.Body)
	tokensB := tokenize(b.Title + " " + b.Body)
	tokenScore, shared, distinct := jaccard(tokensA, tokensB)

	score := tokenScore
	reasoning := fmt.Sprintf("shares %d of %d distinct terms", shared, distinct)

	if len(a.Labels) > 0 && len(b.Labels) > 0 {
		labelScore, sharedLabels, _ := jaccard(labelSet(a.Labels), labelSet(b.Labels))
		// Labels are curated by humans, so they carry real signal, but the
		// text still dominates.
		score = 0.7*tokenScore + 0.3*labelScore
		reasoning = fmt.Sprintf("%s; %d shared labels", reasoning, sharedLabels)
	}

	return batch.SimilarityJudgment{
		Related:   score >= threshold,
		Score:     score,
		Reasoning: reasoning,
	}, nil
}

// tokenize lowercases the text and splits it into alphanumeric tokens,
// dropping short tokens and stopwords.
func tokenize(text string) map[string]bool {
	tokens := make(map[string]bool)

	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, f := range fields {
		if len(f) < 3 || stopwords[f] {
			continue
		}
		tokens[f] = true
	}

	return tokens
}

func labelSet(labels []string) map[string]bool {
	set := make(map[string]bool, len(labels))
	for _, l := range labels {
		set[strings.ToLower(l)] = true
	}
	return set
}

// jaccard returns |A∩B| / |A∪B| along with the intersection and union sizes.
// Two empty sets score 0.
func jaccard(a, b map[string]bool) (score float64, intersection, union int) {
	for token := range a {
		if b[token] {
			intersection++
		}
	}
	union = len(a) + len(b) - intersection

	if union == 0 {
		return 0, 0, 0
	}
	return float64(intersection) / float64(union), intersection, union
}
