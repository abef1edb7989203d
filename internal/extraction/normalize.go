package extraction

import "strings"

var controlReplacer = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\x00", "�",
)

// Normalize returns valid UTF-8 with invalid sequences and NUL bytes replaced
// by U+FFFD, LF line endings, and no surrounding whitespace.
func Normalize(text string) string {
	text = strings.ToValidUTF8(text, "�")
	return strings.TrimSpace(controlReplacer.Replace(text))
}
