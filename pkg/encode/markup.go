package encode

import (
	"encoding/json"
	"fmt"
	"html"
	"strings"
)

const (
	// XMLHeader is written first when Markup is asked for a header.
	XMLHeader = `<?xml version="1.0" encoding="utf-8"?>`
	// AttrKey is the reserved mapping key whose mapping value is rendered as
	// attributes of the enclosing tag.
	AttrKey = "attr:"
	// ItemTag wraps scalar elements of a sequence.
	ItemTag = "item"
)

// Markup renders node as tag delimited markup, one element per line.
//
// With a non-empty tag the children are wrapped in <tag attrs>...</tag>,
// and an attr: key of a root mapping adds to attrs; an empty tag emits only
// the children and drops the root attr: key. Each mapping key becomes a tag. A
// mapping or sequence with no children renders as a self-closing tag, as
// does a nil or empty string scalar. Other scalars are escaped. Mappings
// inside a sequence are emitted without a wrapper, and scalars inside a
// sequence as <item> elements. The result is trimmed.
func Markup(node any, tag string, header bool, attrs string) (string, error) {
	var b strings.Builder
	if header {
		b.WriteString(XMLHeader)
		b.WriteByte('\n')
	}

	sh, pairs, elems, err := inspect(node)
	if err != nil {
		return "", err
	}
	if sh == scalar {
		return "", fmt.Errorf("root node must be a mapping or sequence, got %T", node)
	}

	if sh == mapping {
		// attr: of the root belongs to the wrapping tag, if there is one.
		if raw, ok := pairs.Get(AttrKey); ok {
			if tag != "" {
				own, err := attributes(raw)
				if err != nil {
					return "", fmt.Errorf("<%s>: %w", tag, err)
				}
				attrs = strings.TrimSpace(attrs + " " + own)
			}
			pairs = pairs.Without(AttrKey)
		}
	}

	if tag != "" {
		b.WriteString(openTag(tag, attrs, false))
		b.WriteByte('\n')
	}
	if err := writeChildren(&b, sh, pairs, elems); err != nil {
		return "", err
	}
	if tag != "" {
		b.WriteString("</" + tag + ">\n")
	}
	return strings.TrimSpace(b.String()), nil
}

func writeChildren(b *strings.Builder, sh shape, pairs Map, elems []any) error {
	if sh == mapping {
		for _, p := range pairs {
			if err := writeElement(b, p.Key, p.Value); err != nil {
				return err
			}
		}
		return nil
	}

	for _, el := range elems {
		esh, epairs, eelems, err := inspect(el)
		if err != nil {
			return err
		}
		if esh == scalar {
			if err := writeElement(b, ItemTag, el); err != nil {
				return err
			}
			continue
		}
		// Attributes have no tag to attach to here.
		if err := writeChildren(b, esh, epairs.Without(AttrKey), eelems); err != nil {
			return err
		}
	}
	return nil
}

func writeElement(b *strings.Builder, key string, val any) error {
	sh, pairs, elems, err := inspect(val)
	if err != nil {
		return fmt.Errorf("<%s>: %w", key, err)
	}

	if sh == scalar {
		text, empty := scalarText(val)
		if empty {
			b.WriteString(openTag(key, "", true))
		} else {
			b.WriteString("<" + key + ">" + html.EscapeString(text) + "</" + key + ">")
		}
		b.WriteByte('\n')
		return nil
	}

	attrs := ""
	if sh == mapping {
		if raw, ok := pairs.Get(AttrKey); ok {
			if attrs, err = attributes(raw); err != nil {
				return fmt.Errorf("<%s>: %w", key, err)
			}
			pairs = pairs.Without(AttrKey)
		}
	}

	if len(pairs) == 0 && len(elems) == 0 {
		b.WriteString(openTag(key, attrs, true))
		b.WriteByte('\n')
		return nil
	}

	b.WriteString(openTag(key, attrs, false))
	b.WriteByte('\n')
	if err := writeChildren(b, sh, pairs, elems); err != nil {
		return err
	}
	b.WriteString("</" + key + ">\n")
	return nil
}

// attributes renders an attr: mapping as name="value" pairs.
func attributes(raw any) (string, error) {
	sh, pairs, _, err := inspect(raw)
	if err != nil {
		return "", err
	}
	if sh != mapping {
		return "", fmt.Errorf("'%s' must be a mapping, got %T", AttrKey, raw)
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		if vsh, _, _, _ := inspect(p.Value); vsh != scalar {
			return "", fmt.Errorf("attribute '%s' must be a scalar", p.Key)
		}
		text, _ := scalarText(p.Value)
		parts = append(parts, p.Key+`="`+html.EscapeString(text)+`"`)
	}
	return strings.Join(parts, " "), nil
}

func openTag(name, attrs string, selfClose bool) string {
	tag := strings.TrimSpace(name + " " + attrs)
	if selfClose {
		return "<" + tag + " />"
	}
	return "<" + tag + ">"
}

// scalarText returns the text of a scalar and whether it counts as empty.
// Only nil and the empty string are empty, so 0 and false are rendered.
func scalarText(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, t == ""
	case []byte:
		return string(t), len(t) == 0
	case json.Number:
		return t.String(), t == ""
	case fmt.Stringer:
		s := t.String()
		return s, s == ""
	}
	s := fmt.Sprint(v)
	return s, s == "" || s == "<nil>"
}
