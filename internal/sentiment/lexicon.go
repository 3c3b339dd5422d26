package sentiment

import (
	"context"
	"strings"
	"unicode"
)

var (
	positiveWords = []string{"good", "great", "excellent", "love", "awesome", "fantastic", "helpful", "works", "solved", "success", "thank"}
	negativeWords = []string{"bad", "terrible", "awful", "hate", "broken", "error", "fail", "problem", "issue", "bug", "refund", "worst", "scam", "disappointed", "unacceptable"}

	// inflections that still count as the listed word
	wordSuffixes = []string{"", "s", "es", "d", "ed", "ing", "ure"}
)

// LexiconModel is a keyword-count model used when no inference endpoint is configured
type LexiconModel struct{}

var _ Model = LexiconModel{}

func (LexiconModel) Name() string {
	return "lexicon"
}

// Predict labels the text by whichever word list matches more often.
// Confidence is the winning side's share of all matches; ties are neutral at 0.5.
func (LexiconModel) Predict(_ context.Context, text string) (Prediction, error) {
	tokens := tokenize(text)

	positiveCount := countMatches(tokens, positiveWords)
	negativeCount := countMatches(tokens, negativeWords)

	total := float64(positiveCount + negativeCount)
	if positiveCount > negativeCount {
		return Prediction{Label: "POSITIVE", Score: float64(positiveCount) / total}, nil
	} else if negativeCount > positiveCount {
		return Prediction{Label: "NEGATIVE", Score: float64(negativeCount) / total}, nil
	}

	return Prediction{Label: "NEUTRAL", Score: 0.5}, nil
}

// tokenize lower-cases text and splits it into words
func tokenize(text string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})

	tokens := make(map[string]bool, len(words))
	for _, w := range words {
		tokens[w] = true
	}
	return tokens
}

// countMatches counts the listed words present as whole words
func countMatches(tokens map[string]bool, words []string) int {
	count := 0
	for _, word := range words {
		for _, suffix := range wordSuffixes {
			if tokens[word+suffix] {
				count++
				break
			}
		}
	}
	return count
}
