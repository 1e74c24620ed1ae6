package format

import "strings"

var mdV1Replacer = strings.NewReplacer(
	"_", `\_`,
	"*", `\*`,
	"[", `\[`,
	"`", "\\`",
)

// EscapeMarkdown escapes the characters Telegram treats as Markdown V1 markup.
// Item names are user supplied, so anything rendered inline must pass here.
func EscapeMarkdown(text string) string {
	return mdV1Replacer.Replace(text)
}

// Title upper-cases the first letter of each space-separated word.
func Title(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
