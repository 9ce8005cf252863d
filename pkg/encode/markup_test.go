package encode

import (
	"strings"
	"testing"
)

func TestMarkup(t *testing.T) {
	tests := []struct {
		name     string
		node     any
		tag      string
		header   bool
		attrs    string
		expected string
	}{
		{
			name:     "escaped scalar",
			node:     map[string]any{"title": "A&B"},
			expected: "<title>A&amp;B</title>",
		},
		{
			name:     "empty string self-closes",
			node:     map[string]any{"note": ""},
			expected: "<note />",
		},
		{
			name:     "nil self-closes",
			node:     map[string]any{"note": nil},
			expected: "<note />",
		},
		{
			name:     "zero and false are values",
			node:     Map{{Key: "n", Value: 0}, {Key: "ok", Value: false}},
			expected: "<n>0</n>\n<ok>false</ok>",
		},
		{
			name: "attributes only",
			node: map[string]any{
				"item": map[string]any{"attr:": map[string]any{"id": "1"}},
			},
			expected: `<item id="1" />`,
		},
		{
			name: "attributes and children",
			node: Map{{Key: "user", Value: Map{
				{Key: "attr:", Value: Map{{Key: "id", Value: 7}, {Key: "role", Value: `a"b`}}},
				{Key: "name", Value: "Ann"},
			}}},
			expected: "<user id=\"7\" role=\"a&#34;b\">\n<name>Ann</name>\n</user>",
		},
		{
			name:     "empty containers self-close",
			node:     Map{{Key: "list", Value: []string{}}, {Key: "obj", Value: map[string]int{}}},
			expected: "<list />\n<obj />",
		},
		{
			name: "sequence elements",
			node: Map{{Key: "list", Value: []any{
				Map{{Key: "a", Value: "1"}},
				Map{{Key: "attr:", Value: Map{{Key: "x", Value: "y"}}}, {Key: "b", Value: "2"}},
				"three",
			}}},
			expected: "<list>\n<a>1</a>\n<b>2</b>\n<item>three</item>\n</list>",
		},
		{
			name:     "root tag, header and attributes",
			node:     Map{{Key: "a", Value: "1"}},
			tag:      "root",
			header:   true,
			attrs:    `v="2"`,
			expected: XMLHeader + "\n<root v=\"2\">\n<a>1</a>\n</root>",
		},
		{
			name:     "root attributes join the wrapping tag",
			node:     Map{{Key: "attr:", Value: Map{{Key: "id", Value: "1"}}}, {Key: "a", Value: "x"}},
			tag:      "root",
			attrs:    `v="2"`,
			expected: "<root v=\"2\" id=\"1\">\n<a>x</a>\n</root>",
		},
		{
			name:     "root attributes on the tag alone",
			node:     Map{{Key: "attr:", Value: Map{{Key: "id", Value: "1"}}}, {Key: "a", Value: "x"}},
			tag:      "root",
			expected: "<root id=\"1\">\n<a>x</a>\n</root>",
		},
		{
			name:     "root attributes dropped without a tag",
			node:     Map{{Key: "attr:", Value: Map{{Key: "id", Value: "1"}}}, {Key: "a", Value: "x"}},
			expected: "<a>x</a>",
		},
		{
			name:     "go maps in sorted key order",
			node:     map[string]int{"b": 2, "a": 1},
			expected: "<a>1</a>\n<b>2</b>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Markup(tt.node, tt.tag, tt.header, tt.attrs)
			if err != nil {
				t.Fatalf("Markup() failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Markup() =\n%s\nexpected\n%s", got, tt.expected)
			}
		})
	}
}

func TestMarkup_Errors(t *testing.T) {
	tests := []struct {
		name string
		node any
		want string
	}{
		{"scalar root", "text", "root node"},
		{"attr not a mapping", Map{{Key: "a", Value: Map{{Key: "attr:", Value: "x"}}}}, "must be a mapping"},
		{"nested attribute", Map{{Key: "a", Value: Map{{Key: "attr:", Value: Map{{Key: "k", Value: []int{1}}}}}}}, "must be a scalar"},
		{"non-string keys", Map{{Key: "a", Value: map[int]string{1: "x"}}}, "keys must be strings"},
		{"root attr not a mapping", Map{{Key: "attr:", Value: []string{"x"}}}, "must be a mapping"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Markup(tt.node, "root", false, "")
			if err == nil {
				t.Fatal("expected an error, got nil")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}
