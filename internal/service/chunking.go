package service

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// ChunkConfig controls how extracted document text is split for embedding.
type ChunkConfig struct {
	MaxChars     int
	OverlapChars int
}

// DefaultChunkConfig provides sane defaults for chunking.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChars:     800,
		OverlapChars: 100,
	}
}

// paragraphBreak matches a blank (or whitespace-only) line.
var paragraphBreak = regexp.MustCompile(`\r?\n[ \t\f\v]*\r?\n`)

// ChunkText splits text into paragraph-aligned chunks of at most MaxChars runes.
// Paragraphs that fit are emitted whole; longer ones are cut into overlapping
// fixed windows. MaxChars must be positive.
func ChunkText(text string, cfg ChunkConfig) []string {
	if cfg.MaxChars <= 0 {
		return nil
	}
	overlap := clampOverlap(cfg.OverlapChars, cfg.MaxChars)
	step := cfg.MaxChars - overlap

	var chunks []string
	for _, raw := range paragraphBreak.Split(text, -1) {
		para := strings.TrimSpace(raw)
		if para == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= cfg.MaxChars {
			chunks = append(chunks, para)
			continue
		}
		chunks = append(chunks, windows([]rune(para), cfg.MaxChars, step)...)
	}
	return chunks
}

func clampOverlap(overlap, maxChars int) int {
	if overlap < 0 {
		return 0
	}
	if limit := maxChars / 2; overlap > limit {
		return limit
	}
	return overlap
}

func windows(runes []rune, size, step int) []string {
	out := make([]string, 0, len(runes)/step+1)
	for start := 0; start < len(runes); start += step {
		end := min(start+size, len(runes))
		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			out = append(out, piece)
		}
		if end == len(runes) {
			break
		}
	}
	return out
}
