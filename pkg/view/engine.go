package view

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/CTAG07/layerview/pkg/snippet"
	"github.com/CTAG07/layerview/pkg/store"
)

// shadowPrefix names the copy of a dynamic variable hidden by runtime data.
const shadowPrefix = "view_"

// Engine composes a layout, a page and partials into one document.
// It is not internally synchronized: one composition in flight per Engine.
type Engine struct {
	Registry

	logger     *slog.Logger
	store      store.Store
	eval       snippet.Evaluator
	parseOpts  []snippet.Option
	layout     string
	layoutName string
	bodies     bodies
	captured   map[string]string
	compress   bool
}

// New creates an Engine reading from st and running snippets with eval, then
// loads the layout and page named in config. A nil config means DefaultConfig.
func New(logger *slog.Logger, st store.Store, eval snippet.Evaluator, config *Config) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	e := &Engine{
		logger:   logger,
		store:    st,
		eval:     eval,
		compress: config.Compress,
	}
	if config.OpenDelim != "" || config.CloseDelim != "" {
		e.parseOpts = append(e.parseOpts, snippet.WithDelims(config.OpenDelim, config.CloseDelim))
	}

	if err := e.LoadLayout(config.Layout); err != nil {
		return nil, err
	}
	if err := e.LoadPage(config.Page); err != nil {
		return nil, err
	}

	logger.Debug("View engine initialized", "layout", e.layoutName)
	return e, nil
}

// Open creates an Engine over a FileStore rooted at templateRoot with the
// bundled HCL evaluator.
func Open(logger *slog.Logger, templateRoot string, config *Config) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	st := store.NewFileStore(templateRoot, config.Extension)
	return New(logger, st, snippet.NewHCL(config.StrictVariables), config)
}

// SetCompress turns the output filter on or off for later compositions.
func (e *Engine) SetCompress(on bool) {
	e.compress = on
}

// LoadLayout replaces the layout. On failure the current layout is kept.
func (e *Engine) LoadLayout(name string) error {
	text, err := e.store.Load(store.KindLayout, name)
	if err != nil {
		return fmt.Errorf("error loading layout: %w", err)
	}
	e.layout = text
	e.layoutName = name
	if e.layoutName == "" {
		e.layoutName = store.DefaultName
	}
	return nil
}

// LoadPage replaces the page body. On failure the current page is kept.
func (e *Engine) LoadPage(name string) error {
	text, err := e.store.Load(store.KindPage, name)
	if err != nil {
		return fmt.Errorf("error loading page: %w", err)
	}
	e.bodies.setPage(text)
	return nil
}

// LoadPartial loads source and stores it under name. The partial is
// evaluated before every body added earlier, and always before the page.
func (e *Engine) LoadPartial(name, source string) error {
	text, err := e.store.Load(store.KindPartial, source)
	if err != nil {
		return fmt.Errorf("error loading partial '%s': %w", name, err)
	}
	e.bodies.addPartial(name, text)
	return nil
}

// SetPageText replaces the page body with text that did not come from the store.
func (e *Engine) SetPageText(text string) {
	e.bodies.setPage(text)
}

// Order returns the body names in the order Compose evaluates them.
func (e *Engine) Order() []string {
	return e.bodies.order()
}

// Captured returns a body's output from the last successful composition.
func (e *Engine) Captured(name string) (string, bool) {
	out, ok := e.captured[name]
	return out, ok
}

// Compose renders the document. A non-empty page is loaded first, replacing
// the current page. data is visible to every body and overrides dynamic
// variables of the same name; a shadowed variable stays reachable as
// view_<name>. Nothing is returned unless every step succeeds.
func (e *Engine) Compose(page string, data map[string]any) (string, error) {
	if page != "" {
		if err := e.LoadPage(page); err != nil {
			return "", err
		}
	}

	e.composeStatic()
	scope := e.scope(data)
	e.clearUnusedTokens()

	captured := make(map[string]string)
	for _, name := range e.bodies.order() {
		out, err := e.evaluate(name, e.bodies.text[name], scope)
		if err != nil {
			return "", err
		}
		captured[name] = out
		scope[name] = out
		e.logger.Debug("Rendered body", "body", name, "bytes", len(out))
	}

	out, err := e.evaluate("layout "+e.layoutName, e.layout, scope)
	if err != nil {
		return "", err
	}
	if e.compress {
		out = Compress(out)
	}

	e.captured = captured
	return out, nil
}

// ComposeTo is Compose writing the result to w.
func (e *Engine) ComposeTo(w io.Writer, page string, data map[string]any) error {
	out, err := e.Compose(page, data)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// composeStatic replaces each static token, in registry order, in the
// layout and every body. Replaced text is not rescanned for the same token.
func (e *Engine) composeStatic() {
	e.static.each(func(name, value string) {
		e.layout = ReplaceToken(e.layout, name, value)
		e.bodies.rewrite(func(text string) string {
			return ReplaceToken(text, name, value)
		})
	})
}

// clearUnusedTokens strips every token no static value matched.
func (e *Engine) clearUnusedTokens() {
	e.layout = ClearTokens(e.layout)
	e.bodies.rewrite(ClearTokens)
}

// scope builds the variables for one composition.
func (e *Engine) scope(data map[string]any) snippet.Scope {
	scope := make(snippet.Scope)
	e.dynamic.each(func(name string, val any) {
		scope[name] = val
	})
	for name, val := range data {
		if shadowed, ok := e.dynamic.get(name); ok {
			scope[shadowPrefix+name] = shadowed
		}
		scope[name] = val
	}
	return scope
}

func (e *Engine) evaluate(name, text string, scope snippet.Scope) (string, error) {
	tpl, err := snippet.Parse(name, text, e.parseOpts...)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTemplateEvaluation, err)
	}
	out, err := tpl.Render(e.eval, scope)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTemplateEvaluation, err)
	}
	return out, nil
}
