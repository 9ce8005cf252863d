package view

// PageBody is the reserved name of the page body. Its output is available
// to the layout under this name.
const PageBody = "appPage"

// bodies keeps the page and partials in evaluation order: partials most
// recently added first, then the page.
type bodies struct {
	partials []string
	text     map[string]string
	hasPage  bool
}

func (b *bodies) setPage(text string) {
	if b.text == nil {
		b.text = make(map[string]string)
	}
	b.text[PageBody] = text
	b.hasPage = true
}

// addPartial stores text under name and moves name to the front.
func (b *bodies) addPartial(name, text string) {
	if name == PageBody {
		b.setPage(text)
		return
	}
	if b.text == nil {
		b.text = make(map[string]string)
	}
	b.text[name] = text

	order := make([]string, 0, len(b.partials)+1)
	order = append(order, name)
	for _, p := range b.partials {
		if p != name {
			order = append(order, p)
		}
	}
	b.partials = order
}

// order returns the body names in evaluation order.
func (b *bodies) order() []string {
	names := append([]string(nil), b.partials...)
	if b.hasPage {
		names = append(names, PageBody)
	}
	return names
}

// rewrite applies fn to every body text in place.
func (b *bodies) rewrite(fn func(string) string) {
	for name, text := range b.text {
		b.text[name] = fn(text)
	}
}
