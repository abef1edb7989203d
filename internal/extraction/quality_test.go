package extraction

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReadability(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected float64
	}{
		{"empty", "", 0},
		{"whitespace only", " \n\t ", 0},
		{"all readable", "Revenue $1,000.00 (5%) -3/4", 1},
		{"mixed", "abc!!", 0.6},
		{"symbols", "@@##", 0},
		{"unicode letters", "Résumé", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Readability(tt.text), 1e-9)
		})
	}
}

func TestIsGarbled(t *testing.T) {
	long := strings.Repeat("lorem ipsum ", 10)

	tests := []struct {
		name     string
		text     string
		vocab    []string
		expected bool
	}{
		{"short text never garbled", "lorem", DefaultVocabulary, false},
		{"99 chars", strings.Repeat("z", 99), DefaultVocabulary, false},
		{"long without vocabulary", long, DefaultVocabulary, true},
		{"vocabulary case-insensitive", long + " REVENUE", DefaultVocabulary, false},
		{"multi-word term", long + " balance sheet", DefaultVocabulary, false},
		{"empty vocabulary disables", long, nil, false},
		{"custom vocabulary", long + " dosage", []string{"dosage"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsGarbled(tt.text, tt.vocab))
		})
	}
}

func TestQualityChecker_Assess(t *testing.T) {
	q := DefaultQualityChecker().Assess("Net income rose to $4.2m.")

	assert.False(t, q.Garbled)
	assert.InDelta(t, 1.0, q.Readability, 1e-9)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a�b", Normalize("a\xc3b"))
	assert.Equal(t, "a�b", Normalize("a\x00b"))
	assert.Equal(t, "l1\nl2\nl3", Normalize("\r\nl1\r\nl2\rl3\n\n"))
	assert.Equal(t, "", Normalize("  \t "))
}
