package view

import (
	"regexp"
	"strings"
)

const (
	tokenOpen  = "{#"
	tokenClose = "#}"
)

// unusedToken matches a leftover token on a single line.
var unusedToken = regexp.MustCompile(`\{#.*?#\}`)

// Token returns the placeholder text for a static token name.
func Token(name string) string {
	return tokenOpen + name + tokenClose
}

// ReplaceToken substitutes every occurrence of the named token in text.
func ReplaceToken(text, name, value string) string {
	return strings.ReplaceAll(text, Token(name), value)
}

// ClearTokens removes every remaining token from text. Removal is repeated
// until nothing matches, since removing "{#a#}" from "{{#a#}#b#}" forms a
// new token. A token must sit on one line: text split across a line break,
// as in "{#a\nb#}", is not a token and is left in place.
func ClearTokens(text string) string {
	for unusedToken.MatchString(text) {
		text = unusedToken.ReplaceAllLiteralString(text, "")
	}
	return text
}
