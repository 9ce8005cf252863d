package view

import (
	"sort"

	"github.com/CTAG07/layerview/pkg/snippet"
)

// WriteMode selects how SetDynamicMap writes each pair.
type WriteMode int

const (
	// ModeUnset is the zero value: no mode was given, pairs overwrite.
	ModeUnset WriteMode = iota
	// ModeOverwrite replaces existing values.
	ModeOverwrite
	// ModeAppend concatenates onto existing values, or sets absent ones.
	ModeAppend
)

// ordered is an insertion ordered map. Rewriting a key keeps its position.
type ordered[V any] struct {
	keys []string
	vals map[string]V
}

func (o *ordered[V]) get(key string) (V, bool) {
	v, ok := o.vals[key]
	return v, ok
}

func (o *ordered[V]) set(key string, val V) {
	if o.vals == nil {
		o.vals = make(map[string]V)
	}
	if _, ok := o.vals[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.vals[key] = val
}

func (o *ordered[V]) each(fn func(key string, val V)) {
	for _, k := range o.keys {
		fn(k, o.vals[k])
	}
}

// Registry holds the static tokens and dynamic variables of an Engine.
// Entries are never removed.
type Registry struct {
	static  ordered[string]
	dynamic ordered[any]
}

// SetStatic sets the text a {#name#} token is replaced with. With concat the
// value is appended to the current one.
func (r *Registry) SetStatic(name, value string, concat bool) {
	if cur, ok := r.static.get(name); ok && concat {
		value = cur + value
	}
	r.static.set(name, value)
}

// SetStaticMap calls SetStatic for every pair, new names in sorted order.
func (r *Registry) SetStaticMap(values map[string]string, concat bool) {
	for _, name := range sortedKeys(values) {
		r.SetStatic(name, values[name], concat)
	}
}

// SetDynamic sets a variable visible to snippets. With concat the text form
// of value is appended to the text form of the current value.
func (r *Registry) SetDynamic(name string, value any, concat bool) {
	if cur, ok := r.dynamic.get(name); ok && concat {
		value = snippet.Text(cur) + snippet.Text(value)
	}
	r.dynamic.set(name, value)
}

// SetDynamicMap writes every pair according to mode, new names in sorted
// order. Only ModeAppend appends; ModeUnset and ModeOverwrite both replace.
func (r *Registry) SetDynamicMap(values map[string]any, mode WriteMode) {
	for _, name := range sortedKeys(values) {
		switch mode {
		case ModeAppend:
			r.SetDynamic(name, values[name], true)
		case ModeOverwrite:
			r.SetDynamic(name, values[name], false)
		default:
			r.dynamic.set(name, values[name])
		}
	}
}

// Static returns the current value of a static token.
func (r *Registry) Static(name string) (string, bool) {
	return r.static.get(name)
}

// Dynamic returns the current value of a dynamic variable.
func (r *Registry) Dynamic(name string) (any, bool) {
	return r.dynamic.get(name)
}

// StaticNames returns the static token names in substitution order.
func (r *Registry) StaticNames() []string {
	return append([]string(nil), r.static.keys...)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
