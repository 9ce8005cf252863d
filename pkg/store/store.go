package store

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when no template exists for a kind and name.
var ErrNotFound = errors.New("template not found")

// DefaultName is used when a template is requested without a name.
const DefaultName = "default"

// Kind identifies which slot a template fills in a composition.
type Kind int

const (
	KindLayout Kind = iota
	KindPage
	KindPartial
)

func (k Kind) String() string {
	switch k {
	case KindLayout:
		return "layout"
	case KindPage:
		return "page"
	case KindPartial:
		return "partial"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "layout", "layouts":
		return KindLayout, nil
	case "page", "pages":
		return KindPage, nil
	case "partial", "partials":
		return KindPartial, nil
	}
	return 0, fmt.Errorf("unknown template kind '%s'", s)
}

// Store loads template text by kind and logical name.
type Store interface {
	Load(kind Kind, name string) (string, error)
}

// Catalog is implemented by stores that can also enumerate and persist templates.
type Catalog interface {
	Store
	Save(kind Kind, name, text string) error
	Names(kind Kind) ([]string, error)
}

// notFound wraps ErrNotFound with the requested kind and name.
func notFound(kind Kind, name string) error {
	return fmt.Errorf("%s '%s': %w", kind, name, ErrNotFound)
}

// Normalize applies the default name and converts the logical name to a
// host path. ok is false for names that would leave the store root.
func Normalize(name string) (string, bool) {
	if name == "" {
		name = DefaultName
	}
	p := filepath.FromSlash(name)
	if !filepath.IsLocal(p) {
		return "", false
	}
	return filepath.Clean(p), true
}
