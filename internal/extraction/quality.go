package extraction

import (
	"strings"
	"unicode"
)

const (
	// DefaultReadabilityThreshold is the minimum readability for a candidate to be accepted.
	DefaultReadabilityThreshold = 0.35

	// garbledMinChars is the length from which missing vocabulary marks text as garbled.
	garbledMinChars = 100

	readablePunctuation = ".,$%()-/"
)

// DefaultVocabulary holds terms expected in any healthy extraction of a financial report.
var DefaultVocabulary = []string{
	"income statement",
	"balance sheet",
	"cash flow",
	"net income",
	"revenue",
	"expenses",
	"financial statement",
	"annual report",
	"assets",
	"liabilities",
	"equity",
	"profit",
	"total",
}

// Quality summarizes how usable an extracted text is.
type Quality struct {
	Readability float64
	Garbled     bool
}

// QualityChecker scores candidate text.
type QualityChecker struct {
	Threshold  float64
	Vocabulary []string
}

// DefaultQualityChecker returns a checker with the financial vocabulary.
func DefaultQualityChecker() QualityChecker {
	return QualityChecker{
		Threshold:  DefaultReadabilityThreshold,
		Vocabulary: DefaultVocabulary,
	}
}

// Assess scores text.
func (q QualityChecker) Assess(text string) Quality {
	return Quality{
		Readability: Readability(text),
		Garbled:     IsGarbled(text, q.Vocabulary),
	}
}

// Readability returns the fraction of non-whitespace characters that are
// letters, digits or common numeric punctuation. Empty text scores 0.
func Readability(text string) float64 {
	var total, readable int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) || strings.ContainsRune(readablePunctuation, r) {
			readable++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// IsGarbled reports whether text is long enough to be expected to contain a
// vocabulary term yet contains none of them. An empty vocabulary disables the check.
func IsGarbled(text string, vocabulary []string) bool {
	if len(vocabulary) == 0 || len([]rune(text)) < garbledMinChars {
		return false
	}
	lower := strings.ToLower(text)
	for _, term := range vocabulary {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			return false
		}
	}
	return true
}
