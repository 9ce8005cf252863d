package view

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/CTAG07/layerview/pkg/snippet"
	"github.com/CTAG07/layerview/pkg/store"
)

func TestCompose_Basic(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"default": "<html><title>{#TITLE#}</title><?= appPage ?></html>"},
		map[string]string{"default": "<p>Hello, <?= name ?>!</p>"},
	)
	e.SetStatic("TITLE", "Welcome", false)
	e.SetDynamic("name", "World", false)

	out, err := e.Compose("", nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	expected := "<html><title>Welcome</title><p>Hello, World!</p></html>"
	if out != expected {
		t.Errorf("expected %q, got %q", expected, out)
	}
	if got, _ := e.Captured(PageBody); got != "<p>Hello, World!</p>" {
		t.Errorf("unexpected captured page %q", got)
	}
}

func TestCompose_PartialBeforePage(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"default": "[<?= appPage ?>]"},
		map[string]string{
			"default": "<?= header ?>|body|<?= footer ?>",
			"header":  "H(<?= footer ?>)",
			"footer":  "F",
		},
	)

	// header is added after the page, footer after header.
	if err := e.LoadPartial("header", "header"); err != nil {
		t.Fatalf("LoadPartial failed: %v", err)
	}
	if err := e.LoadPartial("footer", "footer"); err != nil {
		t.Fatalf("LoadPartial failed: %v", err)
	}
	if expected := []string{"footer", "header", PageBody}; !reflect.DeepEqual(e.Order(), expected) {
		t.Fatalf("expected order %v, got %v", expected, e.Order())
	}

	out, err := e.Compose("", nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if out != "[H(F)|body|F]" {
		t.Errorf("expected '[H(F)|body|F]', got %q", out)
	}

	// Re-adding header moves it to the front, so it no longer sees footer.
	if err = e.LoadPartial("header", "header"); err != nil {
		t.Fatalf("LoadPartial failed: %v", err)
	}
	out, err = e.Compose("", nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if out != "[H()|body|F]" {
		t.Errorf("expected '[H()|body|F]', got %q", out)
	}
}

func TestCompose_PartialCannotSeePage(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"default": "<?= side ?>"},
		map[string]string{"default": "page", "side": "side:<?= appPage ?>"},
	)
	if err := e.LoadPartial("side", "side"); err != nil {
		t.Fatalf("LoadPartial failed: %v", err)
	}
	out, err := e.Compose("", nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if out != "side:" {
		t.Errorf("expected 'side:', got %q", out)
	}
}

func TestCompose_RuntimeData(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"default": "<?= appPage ?>"},
		map[string]string{"default": "<?= who ?>/<?= view_who ?>/<?= extra ?>"},
	)
	e.SetDynamic("who", "registry", false)

	out, err := e.Compose("", map[string]any{"who": "data", "extra": 7})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if out != "data/registry/7" {
		t.Errorf("expected 'data/registry/7', got %q", out)
	}

	// Registry values persist across compositions.
	out, err = e.Compose("", nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if out != "registry//" {
		t.Errorf("expected 'registry//', got %q", out)
	}
}

func TestCompose_ScopeMutationVisibleLater(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"default": "<?= title ?>: <?= appPage ?>"},
		map[string]string{"default": `<? title = "Set by page" ?>content`},
	)
	e.SetDynamic("title", "Original", false)

	out, err := e.Compose("", nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if out != "Set by page: content" {
		t.Errorf("expected 'Set by page: content', got %q", out)
	}
	if got, _ := e.Dynamic("title"); got != "Original" {
		t.Errorf("snippet writes must not leak into the registry, got %#v", got)
	}
}

func TestCompose_StaticTokens(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"default": "{#A#}|{#MISSING#}|<?= appPage ?>"},
		map[string]string{"default": "{#B#}{#A#}"},
	)
	// A's value introduces a token for B, which is substituted afterwards.
	e.SetStatic("A", "{#B#}", false)
	e.SetStatic("B", "b", false)

	out, err := e.Compose("", nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if out != "b||bb" {
		t.Errorf("expected 'b||bb', got %q", out)
	}
}

func TestCompose_StaticTokenNotRescanned(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"default": "{#B#}{#A#}"},
		map[string]string{"default": ""},
	)
	// B is substituted before A introduces a new {#B#}, which is then cleared.
	e.SetStatic("B", "b", false)
	e.SetStatic("A", "[{#B#}]", false)

	out, err := e.Compose("", nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if out != "b[]" {
		t.Errorf("expected 'b[]', got %q", out)
	}
}

func TestCompose_LoadsPage(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"default": "<?= appPage ?>"},
		map[string]string{"default": "home", "about": "about"},
	)
	out, err := e.Compose("about", nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if out != "about" {
		t.Errorf("expected 'about', got %q", out)
	}

	_, err = e.Compose("missing", nil)
	if !errors.Is(err, ErrTemplateNotFound) {
		t.Fatalf("expected ErrTemplateNotFound, got %v", err)
	}

	// The failed load left the previous page in place.
	out, err = e.Compose("", nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if out != "about" {
		t.Errorf("expected previous page 'about', got %q", out)
	}
}

func TestLoad_NotFoundKeepsState(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"default": "L:<?= appPage ?>"},
		map[string]string{"default": "P"},
	)
	if err := e.LoadLayout("nope"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("LoadLayout: expected ErrTemplateNotFound, got %v", err)
	}
	if err := e.LoadPage("nope"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("LoadPage: expected ErrTemplateNotFound, got %v", err)
	}
	if err := e.LoadPartial("side", "nope"); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("LoadPartial: expected ErrTemplateNotFound, got %v", err)
	}
	if expected := []string{PageBody}; !reflect.DeepEqual(e.Order(), expected) {
		t.Errorf("failed partial load changed the order: %v", e.Order())
	}

	out, err := e.Compose("", nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if out != "L:P" {
		t.Errorf("expected 'L:P', got %q", out)
	}
}

func TestCompose_EvaluationError(t *testing.T) {
	tests := []struct {
		name   string
		layout string
		page   string
	}{
		{name: "unclosed snippet in page", layout: "<?= appPage ?>", page: "<?= oops"},
		{name: "bad expression in page", layout: "<?= appPage ?>", page: "<?= 1 + ?>"},
		{name: "bad expression in layout", layout: "<?= appPage + ?>", page: "fine"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t,
				map[string]string{"default": tt.layout},
				map[string]string{"default": tt.page},
			)
			out, err := e.Compose("", nil)
			if !errors.Is(err, ErrTemplateEvaluation) {
				t.Fatalf("expected ErrTemplateEvaluation, got %v", err)
			}
			var serr *snippet.Error
			if !errors.As(err, &serr) {
				t.Errorf("expected a *snippet.Error in the chain, got %v", err)
			}
			if out != "" {
				t.Errorf("expected no output, got %q", out)
			}
		})
	}
}

func TestCompose_Compress(t *testing.T) {
	e := newTestEngine(t,
		map[string]string{"default": "<div>\n\t<?= appPage ?>\n</div>"},
		map[string]string{"default": "<p>a</p>  <!-- note -->\n"},
	)
	out, err := e.Compose("", nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if !strings.Contains(out, "<!-- note -->") {
		t.Errorf("compression must be off by default, got %q", out)
	}

	e.SetCompress(true)
	out, err = e.Compose("", nil)
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if out != "<div><p>a</p></div>" {
		t.Errorf("expected compressed output, got %q", out)
	}
}

func TestCompose_CustomEvaluator(t *testing.T) {
	e, err := New(nil, memStore{
		store.KindLayout: {"default": "<?= appPage ?>"},
		store.KindPage:   {"default": "<?= shout ?>"},
	}, snippet.EvaluatorFunc(func(n *snippet.Node, scope snippet.Scope, w io.Writer) error {
		_, err := io.WriteString(w, strings.ToUpper(strings.TrimSpace(n.Src)))
		return err
	}), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	var buf bytes.Buffer
	if err = e.ComposeTo(&buf, "", nil); err != nil {
		t.Fatalf("ComposeTo failed: %v", err)
	}
	// The layout echo is evaluated by the same function.
	if buf.String() != "APPPAGE" {
		t.Errorf("expected 'APPPAGE', got %q", buf.String())
	}
}

func TestOpen(t *testing.T) {
	root := t.TempDir()
	files := map[string]string{
		"layouts/site.tmpl":    "<main><?= appPage ?></main>",
		"pages/default.tmpl":   "default",
		"pages/blog/post.tmpl": "<h1>{#SITE#}</h1><?= nav ?><?= upper(title) ?>",
		"pages/parts/nav.tmpl": "<nav/>",
	}
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write %s: %v", rel, err)
		}
	}

	config := DefaultConfig()
	config.Layout = "site"
	config.Extension = "tmpl"
	e, err := Open(nil, root, config)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	e.SetStatic("SITE", "Blog", false)
	if err = e.LoadPartial("nav", "parts/nav"); err != nil {
		t.Fatalf("LoadPartial failed: %v", err)
	}

	out, err := e.Compose("blog/post", map[string]any{"title": "first"})
	if err != nil {
		t.Fatalf("Compose failed: %v", err)
	}
	if out != "<main><h1>Blog</h1><nav/>FIRST</main>" {
		t.Errorf("unexpected output %q", out)
	}

	if _, err = Open(nil, root, nil); !errors.Is(err, ErrTemplateNotFound) {
		t.Errorf("expected ErrTemplateNotFound for a missing default layout, got %v", err)
	}
}
