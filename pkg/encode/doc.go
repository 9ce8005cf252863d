// Package encode serializes generic data trees into markup and JSON text.
//
// A tree is built from mappings, sequences and scalars. Mappings are either
// an ordered Map or any Go map with string keys, whose keys are visited in
// sorted order. Sequences are any slice or array other than []byte.
// Everything else is a scalar.
//
// Markup renders each mapping key as a tag:
//
//	out, _ := encode.Markup(encode.Map{
//		{Key: "title", Value: "A&B"},
//		{Key: "item", Value: encode.Map{{Key: "attr:", Value: map[string]any{"id": 1}}}},
//	}, "", false, "")
//	// <title>A&amp;B</title>
//	// <item id="1" />
//
// JSON optionally wraps the data under a key and in a JSONP style callback.
package encode
