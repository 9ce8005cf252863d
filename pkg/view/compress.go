package view

import (
	"github.com/dlclark/regexp2"
)

type compressRule struct {
	re   *regexp2.Regexp
	repl string
}

// compressRules run in order on every pass.
var compressRules = []compressRule{
	// line breaks and tabs after a tag
	{regexp2.MustCompile(`>[^\S ]+`, regexp2.Singleline), ">"},
	// line breaks and tabs before a tag
	{regexp2.MustCompile(`[^\S ]+<`, regexp2.Singleline), "<"},
	// whitespace runs, keeping the last character
	{regexp2.MustCompile(`(\s)+`, regexp2.Singleline), "$1"},
	// comments other than conditional ones, and newlines before tags
	{regexp2.MustCompile(`\s*<!--(?!\[if\s).*?-->\s*|(?<!>)\n+(?=<[^!])`, regexp2.Singleline), ""},
}

// Compress strips insignificant whitespace and HTML comments from markup.
// Conditional comments (<!--[if ...]>) are kept. Every rule only removes or
// shortens text, so passes repeat until the output is stable, which makes
// Compress idempotent.
func Compress(text string) string {
	for {
		out := compressOnce(text)
		if out == text {
			return out
		}
		text = out
	}
}

func compressOnce(text string) string {
	for _, rule := range compressRules {
		out, err := rule.re.Replace(text, rule.repl, -1, -1)
		if err != nil {
			// Only a match timeout fails, and none is configured.
			continue
		}
		text = out
	}
	return text
}
