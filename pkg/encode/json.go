package encode

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// JSON encodes data as JSON. A non-empty wrapKey first wraps data as
// {wrapKey: data}. A non-empty callback wraps the result as
// /**/callback(...); for JSONP consumers. HTML characters are not escaped.
func JSON(data any, wrapKey, callback string) (string, error) {
	if wrapKey != "" {
		data = Map{{Key: wrapKey, Value: data}}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(data); err != nil {
		return "", fmt.Errorf("could not encode json: %w", err)
	}
	out := strings.TrimSuffix(buf.String(), "\n")

	if callback != "" {
		out = "/**/" + callback + "(" + out + ");"
	}
	return out, nil
}
